package ringarena

import (
	"bytes"
	"io"
)

// recordLen returns the length of the oldest record, terminator excluded.
// A record with no terminator before the end of storage continues at
// offset 0. The arena must not be empty.
func (a *Arena) recordLen() int {
	if i := bytes.IndexByte(a.buf[a.start:], terminator); i >= 0 {
		return i
	}
	return len(a.buf) - a.start + bytes.IndexByte(a.buf, terminator)
}

// oldest returns the oldest record as a span without its terminator, and
// its length.
func (a *Arena) oldest() (Span, int) {
	l := a.recordLen()
	n := len(a.buf)
	if a.start+l < n {
		return Span{First: a.buf[a.start : a.start+l : a.start+l]}, l
	}
	head := l - (n - a.start)
	return Span{First: a.buf[a.start:n:n], Second: a.buf[0:head:head]}, l
}

func (a *Arena) consume(l int) {
	a.advance(l)
	a.stats.pops++
}

// RecordLength returns the length of the oldest record, terminator excluded,
// without consuming it.
func (a *Arena) RecordLength() (int, error) {
	if !a.valid() {
		return 0, ErrInvalidArgument
	}

	l := a.locker()
	l.Lock()
	defer l.Unlock()

	if a.empty {
		return 0, ErrEmpty
	}
	return a.recordLen(), nil
}

// Pop copies the oldest record and its terminator into dst and removes it
// from the arena. It returns the record length without the terminator.
// dst must hold at least RecordLength()+1 bytes; a shorter dst fails with
// io.ErrShortBuffer and nothing is consumed.
func (a *Arena) Pop(dst []byte) (int, error) {
	if !a.valid() {
		return 0, ErrInvalidArgument
	}

	l := a.locker()
	l.Lock()
	defer l.Unlock()

	if a.empty {
		return 0, ErrEmpty
	}
	sp, n := a.oldest()
	if len(dst) < n+1 {
		return 0, io.ErrShortBuffer
	}
	sp.CopyTo(dst)
	dst[n] = terminator
	a.consume(n)
	return n, nil
}

// AppendPop appends the oldest record, without terminator, to dst and
// removes it from the arena.
func (a *Arena) AppendPop(dst []byte) ([]byte, error) {
	if !a.valid() {
		return dst, ErrInvalidArgument
	}

	l := a.locker()
	l.Lock()
	defer l.Unlock()

	if a.empty {
		return dst, ErrEmpty
	}
	sp, n := a.oldest()
	dst = sp.AppendTo(dst)
	a.consume(n)
	return dst, nil
}

// Peek appends the oldest record, without terminator, to dst and leaves it
// in the arena.
func (a *Arena) Peek(dst []byte) ([]byte, error) {
	if !a.valid() {
		return dst, ErrInvalidArgument
	}

	l := a.locker()
	l.Lock()
	defer l.Unlock()

	if a.empty {
		return dst, ErrEmpty
	}
	sp, _ := a.oldest()
	return sp.AppendTo(dst), nil
}

// Span removes the oldest record and returns a zero-copy view of it,
// terminator excluded. A record stored across the end of storage comes back
// in two parts with StatusWrap.
//
// The returned span still points into storage: the next push or allocation
// may overwrite it. Span does not take the WithLocker lock; the caller must
// hold its own lock until it is done reading. SafeArena.ViewSpan does this.
func (a *Arena) Span() (Span, Status, error) {
	if !a.valid() {
		return Span{}, StatusOK, ErrInvalidArgument
	}
	if a.empty {
		return Span{}, StatusOK, ErrEmpty
	}

	sp, n := a.oldest()
	a.consume(n)
	if sp.Wrapped() {
		return sp, StatusWrap, nil
	}
	return sp, StatusOK, nil
}

// Drop removes the oldest record without copying it anywhere.
func (a *Arena) Drop() error {
	if !a.valid() {
		return ErrInvalidArgument
	}

	l := a.locker()
	l.Lock()
	defer l.Unlock()

	if a.empty {
		return ErrEmpty
	}
	a.consume(a.recordLen())
	return nil
}
