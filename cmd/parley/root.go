package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/parley"
	bt "github.com/fwojciec/parley/bubbletea"
	"github.com/fwojciec/parley/config"
	"github.com/spf13/cobra"
)

// env carries the process environment so commands can be run in tests.
type env struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

// flags holds the persistent command-line flags.
type flags struct {
	configPath  string
	url         string
	model       string
	autoExecute bool
	verbose     bool
}

// overrides applies the flags the user set on top of file and environment
// values.
func (f *flags) overrides(cmd *cobra.Command) func(*config.Config) {
	return func(c *config.Config) {
		fs := cmd.Flags()
		if fs.Changed("url") {
			c.BaseURL = f.url
		}
		if fs.Changed("model") {
			c.Model = f.model
		}
		if fs.Changed("auto-execute") {
			c.AutoExecute = f.autoExecute
		}
	}
}

func newRootCommand(e env) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "parley",
		Short:         "Chat with a local Ollama model and run the code it writes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, f, e)
		},
	}
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", config.DefaultPath(), "path to the config file")
	pf.StringVar(&f.url, "url", "", "Ollama base URL")
	pf.StringVar(&f.model, "model", "", "model to use")
	pf.BoolVar(&f.autoExecute, "auto-execute", false, "run the first code block of every reply")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newAskCommand(f, e), newModelsCommand(f, e))
	return root
}

func runTUI(cmd *cobra.Command, f *flags, e env) error {
	ctx := cmd.Context()
	a, err := newApp(cmd, f, e)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Watch(ctx); err != nil {
		a.log.WithError(err).Warn("config hot reload disabled")
	}

	m := bt.New(a.engine, parley.DefaultTheme(),
		bt.WithCatalog(a.catalog),
		bt.WithSettings(a.store),
		bt.WithModel(a.store.Model()),
		bt.WithContext(ctx),
	)
	if err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

func newAskCommand(f *flags, e env) *cobra.Command {
	return &cobra.Command{
		Use:   "ask PROMPT",
		Short: "Ask one question and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f, e)
			if err != nil {
				return err
			}
			defer a.Close()
			return ask(a, strings.Join(args, " "), e.stdout)
		},
	}
}

// errResponseFailed is returned by ask when the reply ended in an error.
var errResponseFailed = errors.New("response failed")

// ask submits prompt, waits for the reply and any automatic execution, and
// writes every turn after the prompt to w.
func ask(a *app, prompt string, w io.Writer) error {
	if err := a.engine.Submit(prompt, a.store.Model()); err != nil {
		return err
	}
	a.engine.Wait()

	turns := a.engine.Turns()
	if len(turns) > 0 {
		turns = turns[1:]
	}
	for _, turn := range turns {
		if _, err := fmt.Fprintln(w, turn.Content); err != nil {
			return err
		}
	}
	if a.engine.State() == parley.StateErrorCompleted {
		return errResponseFailed
	}
	return nil
}

func newModelsCommand(f *flags, e env) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models available on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, f, e)
			if err != nil {
				return err
			}
			defer a.Close()

			names, err := a.catalog.Models(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(e.stderr, bt.StatusNoModels)
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(e.stdout, name)
			}
			return nil
		},
	}
}
