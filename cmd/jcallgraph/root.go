package main

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"jcallgraph/internal/config"
)

type rootFlags struct {
	configPath  string
	jobs        int
	strict      bool
	extension   string
	db          string
	dotDir      string
	maxNodes    int
	metricsFile string
	watch       bool
	logLevel    string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	cmd := &cobra.Command{
		Use:   "jcallgraph [flags] <root>",
		Short: "Extract the method call graph of compiled JVM classes",
		Long: `jcallgraph walks <root> for class files, decodes every method body and prints
one {"caller":"…","callee":"…"} line per invoke instruction to stdout.
Diagnostics go to stderr. Malformed class files are logged and skipped
unless --strict is set.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
				return fmt.Errorf("need a class path root, got %d arguments", len(args))
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &f)
			if err != nil {
				return err
			}
			log, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			slog.SetDefault(log)
			return runExtract(cmd.Context(), args[0], cfg, f.watch, cmd.OutOrStdout(), log)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	fl.IntVarP(&f.jobs, "jobs", "j", 0, "class files processed in parallel (default GOMAXPROCS)")
	fl.BoolVar(&f.strict, "strict", false, "abort on the first malformed class file")
	fl.StringVar(&f.extension, "ext", "", "class file extension (default .class)")
	fl.StringVar(&f.db, "db", "", "also store edges in this SQLite database")
	fl.StringVar(&f.dotDir, "dot-dir", "", "write DOT call graphs, per-class CFGs and stats to this directory")
	fl.IntVar(&f.maxNodes, "max-nodes", 0, "max methods/classes in rendered graphs (default 500)")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	fl.BoolVar(&f.watch, "watch", false, "keep running and re-extract changed class files")
	fl.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	fl.StringVar(&f.logFormat, "log-format", "", "log format: text or json (default text)")

	cmd.AddCommand(newDisasmCmd())
	return cmd
}

// loadConfig reads the config file and applies flags set on the command line.
func loadConfig(cmd *cobra.Command, f *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	fl := cmd.Flags()
	if fl.Changed("jobs") {
		cfg.Jobs = f.jobs
		if cfg.Jobs == 0 {
			cfg.Jobs = runtime.GOMAXPROCS(0)
		}
	}
	if fl.Changed("strict") {
		cfg.Mode = config.ModeBestEffort
		if f.strict {
			cfg.Mode = config.ModeStrict
		}
	}
	cfg.Merge(&config.Config{
		Extension: f.extension,
		Log:       config.LogConfig{Level: f.logLevel, Format: f.logFormat},
		Output: config.OutputConfig{
			DOTDir:      f.dotDir,
			DB:          f.db,
			MetricsFile: f.metricsFile,
			MaxNodes:    f.maxNodes,
		},
	})
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger. stdout carries only NDJSON.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("log format %q: want text or json", format)
}
