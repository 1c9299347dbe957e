package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/tabsift/internal/config"
	"github.com/runger/tabsift/internal/match"
	"github.com/runger/tabsift/internal/proxy"
	"github.com/runger/tabsift/internal/substring"
	"github.com/runger/tabsift/internal/table"
)

// loadConfig reads the --config file, or the default location, and applies
// the --log-level override.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.logLevel != "" {
		if err := cfg.Set("log.level", opts.logLevel); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger returns a text logger at the configured level writing to
// log.file, or to fallback when no file is configured. The closer releases
// the log file.
func newLogger(cfg *config.Config, fallback io.Writer) (*slog.Logger, func() error, error) {
	w := fallback
	closer := func() error { return nil }

	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closer = f.Close
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	})
	return slog.New(handler), closer, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// sourceFlags selects where rows come from.
type sourceFlags struct {
	format string
	file   string
	sql    string
	exec   string
	header bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.format, "format", "", "input format: csv, tsv, yaml, sqlite, exec (default: from --file extension, tsv on stdin)")
	fs.StringVarP(&f.file, "file", "f", "", "read rows from file instead of stdin")
	fs.StringVar(&f.sql, "sql", "", "query to run against a sqlite --file")
	fs.StringVar(&f.exec, "exec", "", "run a command and split its output into columns")
	fs.BoolVar(&f.header, "header", false, "treat the first row as column names")
}

func (f *sourceFlags) spec() (table.Spec, error) {
	spec := table.Spec{
		Path:    f.file,
		Query:   f.sql,
		Command: f.exec,
		Header:  f.header,
	}
	if f.format != "" {
		format, err := table.ParseFormat(f.format)
		if err != nil {
			return spec, err
		}
		spec.Format = format
	}
	if spec.Format == table.FormatSQLite && spec.Query == "" {
		return spec, fmt.Errorf("--sql is required for sqlite input")
	}
	return spec, nil
}

// readsStdin reports whether the rows come from stdin as delimited text.
func readsStdin(spec table.Spec) bool {
	if spec.Command != "" || (spec.Path != "" && spec.Path != "-") {
		return false
	}
	return spec.Format == "" || spec.Format == table.FormatTSV || spec.Format == table.FormatCSV
}

// modeFlags override the filter section of the config for one run.
type modeFlags struct {
	fuzzy   bool
	regex   bool
	column  int
	workers int
}

func (f *modeFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.fuzzy, "fuzzy", true, "rank rows by fuzzy partial match")
	fs.BoolVarP(&f.regex, "regex", "e", false, "treat the query as a regular expression")
	fs.IntVarP(&f.column, "column", "c", proxy.NoColumn, "match only this column (0-based; -1 = all)")
	fs.IntVar(&f.workers, "workers", 1, "goroutines used to score rows")
}

func (f *modeFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	if fs.Changed("fuzzy") {
		cfg.Filter.Fuzzy = f.fuzzy
	}
	if fs.Changed("regex") {
		cfg.Filter.Regex = f.regex
	}
	if fs.Changed("column") {
		cfg.Filter.FilterColumn = f.column
	}
	if fs.Changed("workers") {
		cfg.Filter.Workers = f.workers
	}
	return cfg.Validate()
}

// newProxy wires a proxy and its collaborators over tbl from the config.
func newProxy(tbl *table.Table, cfg *config.Config, logger *slog.Logger) *proxy.Proxy {
	fallback := substring.New(tbl, substring.Options{
		Column:        cfg.Filter.FilterColumn,
		CaseSensitive: cfg.Substring.CaseSensitive,
		SortColumn:    cfg.Substring.SortColumn,
		Locale:        cfg.Substring.Locale,
	})

	return proxy.New(tbl, proxy.Options{
		Fuzzy:        cfg.Filter.Fuzzy,
		Regex:        cfg.Filter.Regex,
		FilterColumn: cfg.Filter.FilterColumn,
		Workers:      cfg.Filter.Workers,
		Matcher: match.NewRegex(match.RegexOptions{
			CaseInsensitive: cfg.Regex.CaseInsensitive,
			CacheSize:       cfg.Regex.CacheSize,
			Logger:          logger,
		}),
		Scorer:   match.NewPartialRatio(cfg.Fuzzy.CaseSensitive),
		Fallback: fallback,
		Logger:   logger,
	})
}

func queryFromArgs(args []string) string {
	return strings.Join(args, " ")
}

func debounce(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Picker.DebounceMs) * time.Millisecond
}
