package main

import (
	"context"
	"io"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/config"
	"github.com/fwojciec/parley/engine"
	"github.com/fwojciec/parley/exec"
	"github.com/fwojciec/parley/fs"
	"github.com/fwojciec/parley/ollama"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

// app is the wired object graph shared by all commands.
type app struct {
	log     *logrus.Logger
	logFile io.Closer
	store   *config.Store
	client  *ollama.Client
	catalog parley.ModelCatalog
	engine  *engine.Engine
}

func newApp(cmd *cobra.Command, f *flags, e env) (*app, error) {
	// Output is attached once the config names the log file.
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	if f.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	store, err := config.NewStore(f.configPath,
		config.WithEnv(e.getenv),
		config.WithOverrides(f.overrides(cmd)),
		config.WithLogger(log.WithField("component", "config")),
	)
	if err != nil {
		return nil, err
	}
	cfg := store.Config()

	rotator := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	log.SetOutput(rotator)
	store.OnChange(func(c config.Config) {
		log.WithFields(logrus.Fields{
			"base_url":     c.BaseURL,
			"auto_execute": c.AutoExecute,
		}).Info("settings changed")
	})

	client := ollama.New(
		ollama.WithBaseURL(cfg.BaseURL),
		ollama.WithLogger(log.WithField("component", "ollama")),
	)
	sandbox := exec.New(
		exec.WithCommand(cfg.Sandbox.Command...),
		exec.WithTimeout(cfg.Sandbox.TimeoutDuration()),
		exec.WithLogger(log.WithField("component", "exec")),
	)
	scene := &fs.Scene{
		Root:       cfg.Scene.Root,
		Patterns:   cfg.Scene.Patterns,
		MaxEntries: cfg.Scene.MaxEntries,
	}
	eng := engine.New(client,
		engine.WithScene(scene),
		engine.WithSandbox(sandbox),
		engine.WithSettings(store),
		engine.WithPreamble(cfg.SystemPrompt),
		engine.WithLogger(log.WithField("component", "engine")),
	)

	log.WithFields(logrus.Fields{
		"config":   store.Path(),
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
	}).Info("parley started")

	return &app{
		log:     log,
		logFile: rotator,
		store:   store,
		client:  client,
		catalog: liveCatalog{client: client, settings: store},
		engine:  eng,
	}, nil
}

// Close stops the engine and flushes the log file.
func (a *app) Close() error {
	err := a.engine.Close()
	if cerr := a.logFile.Close(); err == nil {
		err = cerr
	}
	return err
}

// liveCatalog lists the models of the server the settings currently name.
type liveCatalog struct {
	client   *ollama.Client
	settings parley.Settings
}

func (c liveCatalog) Models(ctx context.Context) ([]string, error) {
	return c.client.ModelsAt(ctx, c.settings.BaseURL())
}
