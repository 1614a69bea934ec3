package ringarena

import (
	"errors"
	"sync"
)

// SafeArena is a mutex-protected wrapper around Arena for concurrent access.
// All operations are thread-safe but come with the overhead of mutex locking.
//
// Zero-copy access is only offered in scoped form: ViewSpan, Fill and
// FillContiguous hold the lock while the callback runs, so no other
// goroutine can overwrite the region being read or written.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafeArena creates a thread-safe arena over buf.
func NewSafeArena(buf []byte) (*SafeArena, error) {
	a, err := New(buf)
	if err != nil {
		return nil, err
	}
	return &SafeArena{a: a}, nil
}

// Reset thread-safely discards every record.
func (s *SafeArena) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Reset()
}

// Capacity returns the size of the backing buffer.
func (s *SafeArena) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Capacity()
}

// Len thread-safely returns the number of occupied bytes.
func (s *SafeArena) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Len()
}

// Empty thread-safely reports whether the arena holds no records.
func (s *SafeArena) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Empty()
}

// FillLevel thread-safely returns the occupied percentage.
func (s *SafeArena) FillLevel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.FillLevel()
}

// CheckFit thread-safely reports what writing size bytes would involve.
func (s *SafeArena) CheckFit(size int) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.CheckFit(size)
}

// Push thread-safely stores record, evicting old records if needed.
func (s *SafeArena) Push(record []byte) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Push(record)
}

// PushString thread-safely stores a string record.
func (s *SafeArena) PushString(record string) (Status, error) {
	return s.Push([]byte(record))
}

// TryPush thread-safely stores record only if no eviction is needed.
func (s *SafeArena) TryPush(record []byte) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.TryPush(record)
}

// RecordLength thread-safely returns the length of the oldest record.
func (s *SafeArena) RecordLength() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.RecordLength()
}

// Pop thread-safely copies the oldest record and its terminator into dst.
func (s *SafeArena) Pop(dst []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Pop(dst)
}

// AppendPop thread-safely appends the oldest record to dst and removes it.
func (s *SafeArena) AppendPop(dst []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AppendPop(dst)
}

// Peek thread-safely appends the oldest record to dst without removing it.
func (s *SafeArena) Peek(dst []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Peek(dst)
}

// Drop thread-safely discards the oldest record.
func (s *SafeArena) Drop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Drop()
}

// ViewSpan removes the oldest record and calls fn with a zero-copy view of
// it while holding the lock. fn must not retain the span or call back into s.
// The record is consumed even if fn returns an error.
func (s *SafeArena) ViewSpan(fn func(Span) error) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, st, err := s.a.Span()
	if err != nil {
		return st, err
	}
	return st, fn(sp)
}

// Fill allocates size bytes under policy p and calls fn to fill them while
// holding the lock. fn may write all size bytes: the region's last byte is
// reset to the terminator after fn returns, so at most size-1 record bytes
// are kept. If fn fails, the allocation is kept and the error returned.
func (s *SafeArena) Fill(size int, p Policy, fn func(Span) error) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, st, err := s.a.Allocate(size, p)
	if err != nil {
		return st, err
	}
	err = fn(sp)
	sp.setLast(terminator)
	return st, err
}

// FillContiguous is Fill backed by AllocateContiguous. The last byte of the
// region is reset to the terminator after fn returns.
func (s *SafeArena) FillContiguous(size int, allowLoss bool, fn func([]byte) error) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, st, err := s.a.AllocateContiguous(size, allowLoss)
	if err != nil {
		return st, err
	}
	err = fn(b)
	b[len(b)-1] = terminator
	return st, err
}

// Drain removes every record in FIFO order, calling fn with each one under
// the lock. It stops at the first error from fn; that record is already
// consumed. Drain returns the number of records passed to fn.
func (s *SafeArena) Drain(fn func(record []byte) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		n       int
		scratch []byte
	)
	for {
		sp, _, err := s.a.Span()
		if errors.Is(err, ErrEmpty) {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		rec := sp.First
		if sp.Wrapped() {
			scratch = sp.AppendTo(scratch[:0])
			rec = scratch
		}
		n++
		if err := fn(rec); err != nil {
			return n, err
		}
	}
}

// Metrics thread-safely returns a snapshot of arena statistics.
func (s *SafeArena) Metrics() ArenaMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}
