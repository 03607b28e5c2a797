package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leofalp/unillm/core/client"
	"github.com/leofalp/unillm/internal/config"
	"github.com/leofalp/unillm/internal/metrics"
	"github.com/leofalp/unillm/providers/ai"
	"github.com/leofalp/unillm/providers/observability"
	"github.com/leofalp/unillm/providers/observability/slogobs"
)

// deps holds the pieces tests replace.
type deps struct {
	stdout      io.Writer
	stderr      io.Writer
	newRegistry func(config.Config) *ai.Registry
}

func defaultDeps() deps {
	return deps{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		newRegistry: config.Config.Registry,
	}
}

// app is built once per invocation by the root command's pre-run hook.
type app struct {
	deps     deps
	cfg      config.Config
	observer observability.Observer
	metrics  *metrics.Metrics
}

type rootFlags struct {
	configPath string
	envFiles   []string
	logLevel   string
	logFormat  string
	verbose    bool
}

func newRootCmd(d deps) *cobra.Command {
	var (
		flags rootFlags
		a     = &app{deps: d}
	)

	rootCmd := &cobra.Command{
		Use:           "unillm",
		Short:         "One request shape for OpenAI, Anthropic and Gemini chat generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(flags)
		},
	}
	rootCmd.SetOut(d.stdout)
	rootCmd.SetErr(d.stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML config file (default: every provider from environment)")
	pf.StringSliceVar(&flags.envFiles, "env-file", nil, ".env files to load (default: ./.env when present)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: compact, text, json")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log every call (same as --log-level debug)")

	rootCmd.AddCommand(
		newGenerateCmd(a),
		newStreamCmd(a),
		newServeCmd(a),
		newProvidersCmd(a),
	)
	return rootCmd
}

func (a *app) init(flags rootFlags) error {
	if err := config.LoadEnv(flags.envFiles...); err != nil {
		return err
	}

	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	a.cfg = cfg

	level, format := cfg.Log.Level, cfg.Log.Format
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	if level == "" && os.Getenv("UNILLM_LOG_LEVEL") == "" {
		// Per-call records are noise on a terminal unless asked for.
		level = "warn"
		if flags.verbose {
			level = "debug"
		}
	}
	if flags.logFormat != "" {
		format = flags.logFormat
	}
	opts := []slogobs.Option{slogobs.WithOutput(a.deps.stderr)}
	if level != "" {
		opts = append(opts, slogobs.WithLevel(slogobs.ParseLevel(level)))
	}
	if format != "" {
		opts = append(opts, slogobs.WithFormat(slogobs.ParseFormat(format)))
	}
	a.observer = slogobs.New(opts...)
	a.metrics = metrics.New()
	return nil
}

// newClient builds a dispatching client over the configured providers.
func (a *app) newClient(extra ...client.MiddlewareConfig) (*client.Client, error) {
	registry := a.deps.newRegistry(a.cfg)
	if len(registry.IDs()) == 0 {
		return nil, fmt.Errorf("no provider enabled in configuration")
	}
	return client.New(registry,
		client.WithObserver(a.observer),
		client.WithMetrics(a.metrics),
		client.WithMiddleware(extra...),
	)
}
