package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"

	"github.com/pavanmanishd/ringarena"
	"github.com/pavanmanishd/ringarena/internal/config"
)

var commands = []string{
	"push", "trypush", "pop", "peek", "len", "drop",
	"fit", "alloc", "calloc", "fill", "stats", "dump",
	"reset", "log", "bulk", "clear", "cls", "config",
	"help", "exit", "quit", "q",
}

// REPL is the interactive command loop.
type REPL struct {
	arena   *ringarena.SafeArena
	logs    *ringarena.SafeArena
	log     *slog.Logger
	cfg     config.Config
	out     io.Writer
	history string
	liner   *liner.State
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	r.loadHistory()

	fmt.Fprintf(r.out, "ringctl - ring arena shell (capacity=%d)\n", r.arena.Capacity())
	fmt.Fprintln(r.out, "Type 'help' for available commands.")
	fmt.Fprintln(r.out)

	for {
		line, err := r.liner.Prompt("ring> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		if !r.exec(line) {
			break
		}
	}

	r.saveHistory()

	return nil
}

// exec runs one command line and reports whether the loop should continue.
func (r *REPL) exec(line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	cmd = strings.ToLower(cmd)
	args := strings.Fields(rest)

	switch cmd {
	case "exit", "quit", "q":
		fmt.Fprintln(r.out, "Bye!")

		return false

	case "help", "?":
		r.printHelp()

	case "push":
		r.cmdPush(rest, false)

	case "trypush":
		r.cmdPush(rest, true)

	case "pop":
		r.cmdPop()

	case "peek":
		r.cmdPeek()

	case "len":
		r.cmdLen()

	case "drop":
		r.cmdDrop()

	case "fit":
		r.cmdFit(args)

	case "alloc":
		r.cmdAlloc(args)

	case "calloc":
		r.cmdCalloc(args)

	case "fill":
		r.cmdFill()

	case "stats", "info":
		r.cmdStats()

	case "dump":
		r.cmdDump()

	case "reset":
		r.cmdReset()

	case "log":
		r.cmdLog(args)

	case "bulk":
		r.cmdBulk(args)

	case "config":
		r.cmdConfig()

	case "clear", "cls":
		fmt.Fprint(r.out, "\033[H\033[2J")

	default:
		fmt.Fprintf(r.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	return true
}

func (r *REPL) loadHistory() {
	if r.history == "" {
		return
	}

	f, err := os.Open(r.history)
	if err != nil {
		return
	}
	defer f.Close()

	if _, err := r.liner.ReadHistory(f); err != nil {
		r.log.Warn("failed to read history", "path", r.history, "error", err)
	}
}

// saveHistory persists command history to disk. The file is replaced
// atomically so an interrupted write never truncates it.
func (r *REPL) saveHistory() {
	if r.history == "" {
		return
	}

	var buf bytes.Buffer
	if _, err := r.liner.WriteHistory(&buf); err != nil {
		r.log.Warn("failed to encode history", "error", err)

		return
	}

	if err := atomic.WriteFile(r.history, &buf); err != nil {
		r.log.Warn("failed to save history", "path", r.history, "error", err)
	}
}

// completer provides tab completion for commands.
func (r *REPL) completer(line string) []string {
	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  push <text>                 Push a record, evicting old ones if needed")
	fmt.Fprintln(r.out, "  trypush <text>              Push a record without evicting")
	fmt.Fprintln(r.out, "  pop                         Remove and print the oldest record")
	fmt.Fprintln(r.out, "  peek                        Print the oldest record without removing it")
	fmt.Fprintln(r.out, "  len                         Show the size of the oldest record")
	fmt.Fprintln(r.out, "  drop                        Discard the oldest record")
	fmt.Fprintln(r.out, "  fit <size>                  Report what allocating size bytes would do")
	fmt.Fprintln(r.out, "  alloc <size> [wrap] [loss]  Allocate and fill a region in place")
	fmt.Fprintln(r.out, "  calloc <size> [loss]        Allocate a contiguous region")
	fmt.Fprintln(r.out, "  fill                        Push records until the arena is full")
	fmt.Fprintln(r.out, "  stats                       Show arena metrics")
	fmt.Fprintln(r.out, "  dump                        Remove and print every record")
	fmt.Fprintln(r.out, "  reset                       Discard every record")
	fmt.Fprintln(r.out, "  log [n]                     Print and clear the last n captured log lines")
	fmt.Fprintln(r.out, "  bulk <n> [prefix]           Push n numbered records")
	fmt.Fprintln(r.out, "  config                      Show the effective configuration")
	fmt.Fprintln(r.out, "  help                        Show this help")
	fmt.Fprintln(r.out, "  exit / quit / q             Exit")
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Sizes count the terminating NUL byte.")
}

// report prints an arena error, translating the common ones.
func (r *REPL) report(err error) {
	switch {
	case errors.Is(err, ringarena.ErrEmpty):
		fmt.Fprintln(r.out, "(empty)")
	default:
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
}

func (r *REPL) cmdPush(text string, try bool) {
	push := r.arena.Push
	if try {
		push = r.arena.TryPush
	}

	st, err := push([]byte(text))
	if err != nil {
		r.report(err)

		return
	}

	r.log.Debug("pushed record", "size", len(text)+1, "status", st)
	if st.Lossy() {
		r.log.Info("evicted records to make room", "size", len(text)+1)
	}

	fmt.Fprintf(r.out, "OK: pushed %d bytes (%v)\n", len(text)+1, st)
}

func (r *REPL) cmdPop() {
	st, err := r.arena.ViewSpan(func(sp ringarena.Span) error {
		fmt.Fprintf(r.out, "%q", sp.String())

		return nil
	})
	if err != nil {
		r.report(err)

		return
	}

	if st.Wrapped() {
		fmt.Fprint(r.out, " (wrapped)")
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdPeek() {
	rec, err := r.arena.Peek(nil)
	if err != nil {
		r.report(err)

		return
	}

	fmt.Fprintf(r.out, "%q\n", rec)
}

func (r *REPL) cmdLen() {
	n, err := r.arena.RecordLength()
	if err != nil {
		r.report(err)

		return
	}

	fmt.Fprintf(r.out, "%d bytes (+1 terminator)\n", n)
}

func (r *REPL) cmdDrop() {
	if err := r.arena.Drop(); err != nil {
		r.report(err)

		return
	}

	fmt.Fprintln(r.out, "OK: dropped")
}

// parseSize parses a positive region size.
func parseSize(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("size must be a positive integer: %q", s)
	}

	return n, nil
}

func (r *REPL) cmdFit(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: fit <size>")

		return
	}

	size, err := parseSize(args[0])
	if err != nil {
		r.report(err)

		return
	}

	st, err := r.arena.CheckFit(size)
	if err != nil {
		r.report(err)

		return
	}

	fmt.Fprintf(r.out, "fit %d: %v\n", size, st)
}

// policyArgs parses the optional "wrap" and "loss" words.
func policyArgs(args []string) (ringarena.Policy, error) {
	var wrap, loss bool
	for _, a := range args {
		switch strings.ToLower(a) {
		case "wrap":
			wrap = true
		case "loss":
			loss = true
		default:
			return ringarena.Strict, fmt.Errorf("unknown option %q (want wrap or loss)", a)
		}
	}

	switch {
	case wrap && loss:
		return ringarena.AllowWrapAndLoss, nil
	case wrap:
		return ringarena.AllowWrap, nil
	case loss:
		return ringarena.AllowLoss, nil
	default:
		return ringarena.Strict, nil
	}
}

// pattern fills b with a repeating a-z sequence.
func pattern(b []byte, offset int) {
	for i := range b {
		b[i] = 'a' + byte((offset+i)%26)
	}
}

func (r *REPL) cmdAlloc(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(r.out, "Usage: alloc <size> [wrap] [loss]")

		return
	}

	size, err := parseSize(args[0])
	if err != nil {
		r.report(err)

		return
	}

	p, err := policyArgs(args[1:])
	if err != nil {
		r.report(err)

		return
	}

	var first, second int
	st, err := r.arena.Fill(size, p, func(sp ringarena.Span) error {
		first, second = len(sp.First), len(sp.Second)

		// Everything but the pre-set terminator.
		if sp.Wrapped() {
			pattern(sp.First, 0)
			pattern(sp.Second[:len(sp.Second)-1], len(sp.First))
		} else {
			pattern(sp.First[:len(sp.First)-1], 0)
		}

		return nil
	})
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v (%v)\n", err, st)

		return
	}

	r.log.Debug("allocated region", "size", size, "policy", p, "status", st)
	fmt.Fprintf(r.out, "OK: allocated %d bytes as %d+%d (%v)\n", size, first, second, st)
}

func (r *REPL) cmdCalloc(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(r.out, "Usage: calloc <size> [loss]")

		return
	}

	size, err := parseSize(args[0])
	if err != nil {
		r.report(err)

		return
	}

	allowLoss := len(args) == 2 && strings.EqualFold(args[1], "loss")
	if len(args) == 2 && !allowLoss {
		fmt.Fprintf(r.out, "Error: unknown option %q (want loss)\n", args[1])

		return
	}

	before := r.arena.Metrics().RelocatedBytes

	st, err := r.arena.FillContiguous(size, allowLoss, func(b []byte) error {
		pattern(b[:len(b)-1], 0)

		return nil
	})
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v (%v)\n", err, st)

		return
	}

	moved := r.arena.Metrics().RelocatedBytes - before
	if moved > 0 {
		r.log.Info("relocated live data", "bytes", moved)
	}

	fmt.Fprintf(r.out, "OK: allocated %d contiguous bytes (%v, moved %d)\n", size, st, moved)
}

func (r *REPL) cmdFill() {
	var n int

	for ; ; n++ {
		_, err := r.arena.TryPush([]byte("fill-" + strconv.Itoa(n)))
		if err != nil {
			break
		}
	}

	fmt.Fprintf(r.out, "OK: pushed %d records, %d%% full\n", n, r.arena.FillLevel())
}

func (r *REPL) cmdStats() {
	m := r.arena.Metrics()

	fmt.Fprintln(r.out, "Arena:")
	fmt.Fprintf(r.out, "  capacity:        %d bytes\n", m.Capacity)
	fmt.Fprintf(r.out, "  in use:          %d bytes (%d%%)\n", m.SizeInUse, m.FillLevel)
	fmt.Fprintf(r.out, "  pushes:          %d\n", m.Pushes)
	fmt.Fprintf(r.out, "  allocations:     %d\n", m.Allocations)
	fmt.Fprintf(r.out, "  pops:            %d\n", m.Pops)
	fmt.Fprintf(r.out, "  wraps:           %d\n", m.Wraps)
	fmt.Fprintf(r.out, "  evictions:       %d (%d records, %d bytes)\n", m.Evictions, m.EvictedRecords, m.EvictedBytes)
	fmt.Fprintf(r.out, "  relocations:     %d (%d bytes)\n", m.Relocations, m.RelocatedBytes)
	fmt.Fprintf(r.out, "  resets:          %d\n", m.Resets)
	fmt.Fprintf(r.out, "Log arena:         %d/%d bytes\n", r.logs.Len(), r.logs.Capacity())
}

func (r *REPL) cmdDump() {
	n, err := r.arena.Drain(func(rec []byte) error {
		fmt.Fprintf(r.out, "%q\n", rec)

		return nil
	})
	if err != nil {
		r.report(err)

		return
	}

	fmt.Fprintf(r.out, "(%d records)\n", n)
}

func (r *REPL) cmdReset() {
	if err := r.arena.Reset(); err != nil {
		r.report(err)

		return
	}

	r.log.Info("arena reset")
	fmt.Fprintln(r.out, "OK: reset")
}

func (r *REPL) cmdLog(args []string) {
	limit := 0
	if len(args) >= 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintln(r.out, "Error: n must be a positive integer")

			return
		}

		limit = n
	}

	var lines []string

	_, err := r.logs.Drain(func(rec []byte) error {
		lines = append(lines, string(rec))

		return nil
	})
	if err != nil {
		r.report(err)

		return
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	for _, l := range lines {
		fmt.Fprintln(r.out, l)
	}
}

func (r *REPL) cmdBulk(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(r.out, "Usage: bulk <n> [prefix]")

		return
	}

	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 {
		fmt.Fprintln(r.out, "Error: count must be a positive integer")

		return
	}

	prefix := "rec-"
	if len(args) >= 2 {
		prefix = args[1]
	}

	var lossy int

	start := time.Now()

	for i := range count {
		st, err := r.arena.Push([]byte(prefix + strconv.Itoa(i)))
		if err != nil {
			fmt.Fprintf(r.out, "Error at record %d: %v\n", i+1, err)

			return
		}

		if st.Lossy() {
			lossy++
		}
	}

	elapsed := time.Since(start)
	r.log.Debug("bulk push", "count", count, "lossy", lossy, "elapsed", elapsed)

	fmt.Fprintf(r.out, "OK: pushed %d records, %d evicted older data\n", count, lossy)
}

func (r *REPL) cmdConfig() {
	text, err := config.Format(r.cfg)
	if err != nil {
		r.report(err)

		return
	}

	fmt.Fprintln(r.out, text)
}
