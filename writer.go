package ringarena

import (
	"bytes"
	"fmt"
)

// Pusher is the write side shared by Arena and SafeArena.
type Pusher interface {
	Push(record []byte) (Status, error)
	Capacity() int
}

// LineWriter is an io.Writer that stores each newline-terminated line as
// one record, newline removed. It is meant as a bounded log tail: hand it to
// a logger and the arena keeps the most recent lines.
//
// NUL bytes are stripped and lines longer than Capacity()-1 are truncated.
// An unterminated trailing line is buffered until the next newline or Flush.
// A LineWriter is not safe for concurrent use; wrap a SafeArena and
// serialize Write calls when sharing it.
type LineWriter struct {
	dst     Pusher
	partial []byte
	lost    uint64
}

// NewLineWriter returns a LineWriter pushing into dst.
func NewLineWriter(dst Pusher) *LineWriter {
	return &LineWriter{dst: dst}
}

// Write stores every complete line in p. It always consumes all of p unless
// the underlying push fails.
func (w *LineWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			w.buffer(p)
			return written + len(p), nil
		}
		w.buffer(p[:i])
		if err := w.emit(); err != nil {
			return written, err
		}
		written += i + 1
		p = p[i+1:]
	}
	return written, nil
}

// Flush stores a buffered partial line, if any.
func (w *LineWriter) Flush() error {
	if len(w.partial) == 0 {
		return nil
	}
	return w.emit()
}

// Lost returns how many pushes evicted older lines.
func (w *LineWriter) Lost() uint64 {
	return w.lost
}

func (w *LineWriter) buffer(p []byte) {
	limit := w.dst.Capacity() - 1
	for _, c := range p {
		if len(w.partial) >= limit {
			return
		}
		if c != terminator {
			w.partial = append(w.partial, c)
		}
	}
}

func (w *LineWriter) emit() error {
	line := bytes.TrimSuffix(w.partial, []byte{'\r'})
	st, err := w.dst.Push(line)
	w.partial = w.partial[:0]
	if err != nil {
		return fmt.Errorf("ringarena: line writer: %w", err)
	}
	if st.Lossy() {
		w.lost++
	}
	return nil
}
