// ringctl is an interactive shell around a ringarena arena.
//
// Usage:
//
//	ringctl [options]
//
// Options:
//
//	-c, --capacity      Arena size in bytes (default: from config, 4096)
//	    --config        Explicit JSONC config file
//	-L, --log-level     Log level (debug, info, warn, error)
//	    --no-color      Disable colored log output
//	    --history       History file (default: ~/.ringctl_history)
//	-h, --help          Show this help text
//
// Every option can also be set through the environment, e.g.
// RINGCTL_CAPACITY=256 or RINGCTL_LOG_LEVEL=debug. Flags win over the
// environment, which wins over config files.
//
// Commands (in REPL):
//
//	push <text>               Push a record, evicting old ones if needed
//	trypush <text>            Push a record without evicting
//	pop                       Remove and print the oldest record
//	peek                      Print the oldest record without removing it
//	len                       Show the size of the oldest record
//	drop                      Discard the oldest record
//	fit <size>                Report what allocating size bytes would do
//	alloc <size> [wrap] [loss]  Allocate and fill a region in place
//	calloc <size> [loss]      Allocate a contiguous region
//	fill                      Push records until the arena is full
//	stats                     Show arena metrics
//	dump                      Remove and print every record
//	reset                     Discard every record
//	log [n]                   Print and clear the last n captured log lines
//	bulk <n> [prefix]         Push n numbered records
//	config                    Show the effective configuration
//	help                      Show this help
//	exit / quit / q           Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/pavanmanishd/ringarena"
	"github.com/pavanmanishd/ringarena/internal/config"
)

// EnvPrefix is prepended to upper-cased flag names to form env overrides.
const EnvPrefix = "RINGCTL_"

// options are the parsed command line flags.
type options struct {
	capacity   int
	configPath string
	logLevel   *slog.LevelVar
	noColor    bool
	history    string
	help       bool
}

func main() {
	err := run(os.Args[1:], os.Environ(), os.Stdout, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args, env []string, stdout, stderr io.Writer) error {
	fs, opts := newFlagSet(stderr)

	if err := parseEnv(fs, EnvPrefix, env); err != nil {
		return err
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.help || fs.NArg() != 0 {
		fmt.Fprintf(stdout, "usage: ringctl [options]\n%s", fs.FlagUsages())
		if opts.help {
			return pflag.ErrHelp
		}
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg, sources, err := config.Load(opts.configPath, env)
	if err != nil {
		return err
	}
	// Merge skips zero values, so an explicit --capacity=0 is checked here.
	if fs.Changed("capacity") && opts.capacity < ringarena.MinCapacity {
		return fmt.Errorf("%w: capacity=%d", config.ErrCapacity, opts.capacity)
	}
	cfg = config.Merge(cfg, overrides(fs, opts))
	if err := config.Validate(cfg); err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	opts.logLevel.Set(level)

	logs, err := ringarena.NewSafeArena(make([]byte, cfg.LogCapacity))
	if err != nil {
		return fmt.Errorf("log arena: %w", err)
	}
	logger := newLogger(stderr, logs, opts.logLevel, cfg.NoColor || !isTerminal(stderr))

	arena, err := ringarena.NewSafeArena(make([]byte, cfg.Capacity))
	if err != nil {
		return fmt.Errorf("arena: %w", err)
	}

	logger.Debug("config loaded", "global", sources.Global, "explicit", sources.Explicit)
	logger.Info("arena ready", "capacity", cfg.Capacity, "log_capacity", cfg.LogCapacity)

	r := &REPL{
		arena:   arena,
		logs:    logs,
		log:     logger,
		cfg:     cfg,
		out:     stdout,
		history: historyPath(cfg.HistoryFile),
	}

	return r.Run()
}

func newFlagSet(output io.Writer) (*pflag.FlagSet, *options) {
	fs := pflag.NewFlagSet("ringctl", pflag.ContinueOnError)
	fs.SetOutput(output)

	opts := &options{logLevel: new(slog.LevelVar)}

	def := new(slog.LevelVar)
	def.Set(slog.LevelInfo)

	fs.IntVarP(&opts.capacity, "capacity", "c", 0, "arena size in bytes (default from config)")
	fs.StringVar(&opts.configPath, "config", "", "explicit config file")
	fs.TextVarP(opts.logLevel, "log-level", "L", def, "log level")
	fs.BoolVar(&opts.noColor, "no-color", false, "disable colored log output")
	fs.StringVar(&opts.history, "history", "", "history file")
	fs.BoolVarP(&opts.help, "help", "h", false, "show this help text")

	return fs, opts
}

// overrides returns the flags the user set explicitly, as a config overlay.
func overrides(fs *pflag.FlagSet, opts *options) config.Config {
	var cfg config.Config

	if fs.Changed("capacity") {
		cfg.Capacity = opts.capacity
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = opts.logLevel.Level().String()
	}
	if fs.Changed("no-color") {
		cfg.NoColor = opts.noColor
	}
	if fs.Changed("history") {
		cfg.HistoryFile = opts.history
	}

	return cfg
}

// parseEnv sets flags from PREFIX_NAME variables. Underscores map to dashes.
// Flags set this way count as changed, so later command line parsing still
// wins over them.
func parseEnv(fs *pflag.FlagSet, prefix string, env []string) error {
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		s, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}

		n := strings.Map(func(r rune) rune {
			switch r {
			case '_':
				return '-'
			}
			return unicode.ToLower(r)
		}, s)

		f := fs.Lookup(n)
		if f == nil {
			fmt.Fprintf(fs.Output(), "env %s: unknown flag --%s\n", k, n)
			continue
		}
		if err := fs.Set(n, v); err != nil {
			return fmt.Errorf("env %s: flag --%s: invalid argument: %w", k, n, err)
		}
	}
	return nil
}

// newLogger logs to w through tint and mirrors every record, uncolored, into
// logs one line per record.
func newLogger(w io.Writer, logs *ringarena.SafeArena, level slog.Leveler, noColor bool) *slog.Logger {
	console := tint.NewHandler(w, &tint.Options{
		Level:      level,
		NoColor:    noColor,
		TimeFormat: "15:04:05.000",
	})
	captured := tint.NewHandler(ringarena.NewLineWriter(logs), &tint.Options{
		Level:      level,
		NoColor:    true,
		TimeFormat: "15:04:05.000",
	})
	return slog.New(teeHandler{console, captured})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// historyPath returns path, or ~/.ringctl_history when path is empty.
func historyPath(path string) string {
	if path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".ringctl_history")
}
