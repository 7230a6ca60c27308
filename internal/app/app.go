package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"phtrs/internal/config"
	"phtrs/internal/observability"
	"phtrs/internal/registry"
)

// Options override what the config file says. Empty fields keep the file value.
type Options struct {
	ConfigPath string
	Required   bool
	LogLevel   string
	LogFormat  string
	LogFile    string
	Stderr     io.Writer
}

// App is one process's Registry together with the logger and metrics it writes to.
type App struct {
	Config   *config.Config
	Registry *registry.Registry
	Logger   *slog.Logger
	Gatherer *prometheus.Registry

	closers []io.Closer
}

// New resolves the config (seeding defaults when the file is missing and not
// required) and wires a fresh Registry.
func New(opts Options) (*App, error) {
	cfg, err := ResolveConfig(opts)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Gatherer: prometheus.NewRegistry()}

	var out io.Writer = os.Stderr
	if opts.Stderr != nil {
		out = opts.Stderr
	}
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, f)
		out = io.MultiWriter(out, f)
	}
	a.Logger = observability.NewLogger(out, cfg.Log.Level, cfg.Log.Format)
	a.Registry = registry.New(cfg,
		registry.WithLogger(a.Logger),
		registry.WithMetrics(observability.NewMetrics(a.Gatherer)),
	)
	return a, nil
}

// ResolveConfig loads the config file and applies the log overrides in opts.
func ResolveConfig(opts Options) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.Path("")
	}
	var (
		cfg *config.Config
		err error
	)
	if opts.Required {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if opts.LogFile != "" {
		cfg.Log.File = opts.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Close releases the log file, if any.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Counters returns every counter sample keyed by metric name and labels,
// e.g. `phtrs_reports_created_total{priority="High"}`.
func (a *App) Counters() (map[string]float64, error) {
	families, err := a.Gatherer.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			sort.Strings(labels)
			key := f.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			out[key] = m.GetCounter().GetValue()
		}
	}
	return out, nil
}
