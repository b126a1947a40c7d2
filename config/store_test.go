package config_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/parley/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Parallel()

	t.Run("layers file, environment and overrides", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "model = \"from-file\"\nbase_url = \"http://file:11434\"\n")
		s, err := config.NewStore(path,
			config.WithEnv(env(map[string]string{config.EnvModel: "from-env", config.EnvAutoExecute: "1"})),
			config.WithOverrides(func(c *config.Config) { c.BaseURL = "http://flag:11434" }),
		)
		require.NoError(t, err)

		assert.Equal(t, "from-env", s.Model())
		assert.Equal(t, "http://flag:11434", s.BaseURL())
		assert.True(t, s.AutoExecute())
		assert.Equal(t, path, s.Path())
	})

	t.Run("invalid config fails construction", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "base_url = \"nope\"\n")
		_, err := config.NewStore(path, config.WithEnv(env(nil)))
		assert.Error(t, err)
	})

	t.Run("reload applies changes and notifies", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "auto_execute = false\n")
		s, err := config.NewStore(path, config.WithEnv(env(nil)))
		require.NoError(t, err)

		var got config.Config
		s.OnChange(func(c config.Config) { got = c })

		require.NoError(t, os.WriteFile(path, []byte("auto_execute = true\n"), 0o600))
		require.NoError(t, s.Reload())

		assert.True(t, s.AutoExecute())
		assert.True(t, got.AutoExecute)
	})

	t.Run("failed reload keeps previous values", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "model = \"good\"\n")
		s, err := config.NewStore(path, config.WithEnv(env(nil)))
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("model = \"\"\n"), 0o600))
		assert.Error(t, s.Reload())
		assert.Equal(t, "good", s.Model())
	})

	t.Run("watch reloads on write", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "auto_execute = false\n")
		s, err := config.NewStore(path,
			config.WithEnv(env(nil)),
			config.WithDebounce(20*time.Millisecond),
		)
		require.NoError(t, err)

		var reloads atomic.Int32
		s.OnChange(func(config.Config) { reloads.Add(1) })

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, s.Watch(ctx))

		require.NoError(t, os.WriteFile(path, []byte("auto_execute = true\n"), 0o600))

		assert.Eventually(t, s.AutoExecute, 5*time.Second, 10*time.Millisecond)
		assert.GreaterOrEqual(t, reloads.Load(), int32(1))
	})

	t.Run("watch ignores other files", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "")
		s, err := config.NewStore(path,
			config.WithEnv(env(nil)),
			config.WithDebounce(10*time.Millisecond),
		)
		require.NoError(t, err)

		var reloads atomic.Int32
		s.OnChange(func(config.Config) { reloads.Add(1) })

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, s.Watch(ctx))

		other := filepath.Join(filepath.Dir(path), "notes.txt")
		require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))

		time.Sleep(200 * time.Millisecond)
		assert.Equal(t, int32(0), reloads.Load())
	})

	t.Run("watch fails for missing directory", func(t *testing.T) {
		t.Parallel()
		s, err := config.NewStore(filepath.Join(t.TempDir(), "missing", "config.toml"), config.WithEnv(env(nil)))
		require.NoError(t, err)
		assert.Error(t, s.Watch(context.Background()))
	})
}
