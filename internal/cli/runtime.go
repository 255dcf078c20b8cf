// pattern: Imperative Shell
package cli

import (
	"fmt"
	"io"
	"os"

	"envtrack/internal/config"
	"envtrack/internal/environment"
	"envtrack/internal/linkreg"
	"envtrack/internal/logging"
	"envtrack/internal/style"
)

// Runtime carries the process-level inputs shared by every command.
// Zero-valued fields fall back to the real process environment.
type Runtime struct {
	// ConfigDir overrides the config directory. Empty means the default.
	ConfigDir string

	// Getenv reads environment variables. Defaults to os.Getenv.
	Getenv config.GetenvFunc

	Stdout io.Writer
	Stderr io.Writer
}

func (rt *Runtime) defaults() {
	if rt.Getenv == nil {
		rt.Getenv = os.Getenv
	}
	if rt.Stdout == nil {
		rt.Stdout = os.Stdout
	}
	if rt.Stderr == nil {
		rt.Stderr = os.Stderr
	}
}

// state is everything a command needs once config has been loaded.
type state struct {
	cfg        config.Config
	logs       *logging.Manager
	registry   *linkreg.Registry
	registered *environment.Registered
	styles     *style.Styles
}

func (rt *Runtime) open() (*state, error) {
	rt.defaults()

	cfg, err := config.Load(rt.ConfigDir, rt.Getenv)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, err := logging.NewManager(logging.Config{
		FilePath:   cfg.LogPath(),
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Level:      cfg.LogLevel,
		Console:    rt.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}

	registry, registered, err := openRegistry(cfg, logs)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	return &state{
		cfg:        cfg,
		logs:       logs,
		registry:   registry,
		registered: registered,
		styles:     style.New(cfg.Theme),
	}, nil
}

// openRegistry opens the registry root named by cfg and the
// environment-level view over it.
func openRegistry(cfg config.Config, logs logging.LoggerProvider) (*linkreg.Registry, *environment.Registered, error) {
	registry, err := linkreg.Open(cfg.RegistryRoot(),
		linkreg.WithLogger(logs.For("registry")),
		linkreg.WithPruneStale(cfg.PruneStale),
	)
	if err != nil {
		return nil, nil, err
	}
	return registry, environment.NewRegistered(registry, logs.For("environment")), nil
}

func (s *state) close() {
	_ = s.logs.Sync()
	_ = s.logs.Close()
}
