// Package ringarena implements a fixed-capacity ring arena for NUL-terminated
// records with oldest-first eviction.
// Typical usage: hand the arena one preallocated buffer at startup, push
// log lines or telemetry records into it forever, and pop them on the
// consumer side. The arena never allocates.
package ringarena

import "sync"

// MinCapacity is the smallest usable backing buffer: one record byte plus
// its terminator.
const MinCapacity = 2

// terminator delimits records inside storage.
const terminator = 0

// Arena is a circular buffer of terminator-delimited records backed by a
// caller-owned byte slice. Not goroutine-safe by default: inject a lock with
// WithLocker, or use SafeArena.
//
// Live data runs from start to end (mod capacity). Because start == end both
// when the arena is empty and when it is full, the empty flag tells them apart.
type Arena struct {
	buf   []byte
	start int
	end   int
	empty bool

	lock  sync.Locker
	stats counters
}

// Option configures an Arena created by New.
type Option func(*Arena)

// WithLocker installs l around Init, Reset, Push, TryPush, Pop, AppendPop,
// Peek, RecordLength and Drop. Allocate, AllocateContiguous and Span are not
// covered: their results alias storage, so the caller has to hold its own
// lock until it is done with the returned span.
func WithLocker(l sync.Locker) Option {
	return func(a *Arena) {
		a.lock = l
	}
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// New creates an Arena over buf. buf must be at least MinCapacity bytes long.
// The arena takes exclusive use of buf; it is never resized or reallocated.
func New(buf []byte, opts ...Option) (*Arena, error) {
	a := &Arena{}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.Init(buf); err != nil {
		return nil, err
	}
	return a, nil
}

// Init (re)binds the arena to buf and empties it. The zero Arena is usable
// after Init.
func (a *Arena) Init(buf []byte) error {
	if a == nil || buf == nil || len(buf) < MinCapacity {
		return ErrInvalidArgument
	}

	l := a.locker()
	l.Lock()
	defer l.Unlock()

	a.buf = buf
	a.start, a.end = 0, 0
	a.empty = true
	a.stats = counters{}
	return nil
}

// Reset discards every record in O(1). Storage content is left as is and
// gets overwritten by later writes.
func (a *Arena) Reset() error {
	if !a.valid() {
		return ErrInvalidArgument
	}

	l := a.locker()
	l.Lock()
	defer l.Unlock()

	a.start, a.end = 0, 0
	a.empty = true
	a.stats.resets++
	return nil
}

// Capacity returns the size of the backing buffer in bytes.
func (a *Arena) Capacity() int {
	if !a.valid() {
		return 0
	}
	return len(a.buf)
}

// Len returns the number of occupied bytes, terminators included.
func (a *Arena) Len() int {
	if !a.valid() {
		return 0
	}
	return len(a.buf) - a.free()
}

// Free returns the number of bytes that can be written without eviction.
func (a *Arena) Free() int {
	if !a.valid() {
		return 0
	}
	return a.free()
}

// Empty reports whether the arena holds no records.
func (a *Arena) Empty() bool {
	return !a.valid() || a.empty
}

// FillLevel returns the occupied share of storage as a percentage in 0..100,
// truncated toward zero. A completely full arena reports 100.
func (a *Arena) FillLevel() int {
	if !a.valid() || a.empty {
		return 0
	}
	n := len(a.buf)
	used := (n + a.end - a.start) % n
	if used == 0 {
		return 100
	}
	return used * 100 / n
}

func (a *Arena) valid() bool {
	return a != nil && a.buf != nil
}

func (a *Arena) locker() sync.Locker {
	if a.lock == nil {
		return noopLocker{}
	}
	return a.lock
}

// free returns the bytes between end and start.
func (a *Arena) free() int {
	n := len(a.buf)
	if a.empty {
		return n
	}
	return (n + a.start - a.end) % n
}

// cursors is a snapshot of the mutable arena state used for rollback.
type cursors struct {
	start, end int
	empty      bool
}

func (a *Arena) save() cursors {
	return cursors{start: a.start, end: a.end, empty: a.empty}
}

func (a *Arena) restore(c cursors) {
	a.start, a.end, a.empty = c.start, c.end, c.empty
}

// advance moves start past a record of length l and its terminator.
func (a *Arena) advance(l int) {
	a.start = (a.start + l + 1) % len(a.buf)
	if a.start == a.end {
		a.empty = true
	}
}
