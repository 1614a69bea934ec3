package ringarena

import "bytes"

// Span is a zero-copy view into arena storage. A record or allocation that
// crosses the end of storage is split: First covers the tail of storage and
// Second continues at offset 0. Second is nil for contiguous spans.
//
// A Span aliases the arena's mutable interior and is only valid until the
// next mutating call on the arena.
type Span struct {
	First  []byte
	Second []byte
}

// Len returns the total length of both parts.
func (s Span) Len() int { return len(s.First) + len(s.Second) }

// Wrapped reports whether the span is split across the end of storage.
func (s Span) Wrapped() bool { return s.Second != nil }

// AppendTo appends the span's bytes to dst and returns the extended slice.
func (s Span) AppendTo(dst []byte) []byte {
	dst = append(dst, s.First...)
	return append(dst, s.Second...)
}

// Bytes returns a copy of the span's bytes.
func (s Span) Bytes() []byte {
	return s.AppendTo(make([]byte, 0, s.Len()))
}

func (s Span) String() string {
	return string(s.Bytes())
}

// CopyTo copies the span into dst and returns the number of bytes copied.
func (s Span) CopyTo(dst []byte) int {
	n := copy(dst, s.First)
	return n + copy(dst[n:], s.Second)
}

// CopyFrom fills the span from p, continuing into Second once First is
// full. It returns the number of bytes copied.
func (s Span) CopyFrom(p []byte) int {
	n := copy(s.First, p)
	return n + copy(s.Second, p[n:])
}

// setLast stores b in the final byte of the span.
func (s Span) setLast(b byte) {
	if len(s.Second) > 0 {
		s.Second[len(s.Second)-1] = b
		return
	}
	if len(s.First) > 0 {
		s.First[len(s.First)-1] = b
	}
}

// CheckFit reports what writing size bytes would involve without changing
// anything: StatusDataLoss if records would have to be evicted, StatusWrap
// if the bytes left before the end of storage are fewer than size. The two
// flags combine. A zero Status means the write fits as is.
func (a *Arena) CheckFit(size int) (Status, error) {
	if !a.valid() || size < 1 || size > len(a.buf) {
		return StatusOK, ErrInvalidArgument
	}
	return a.fit(size), nil
}

func (a *Arena) fit(size int) Status {
	var st Status
	if size > a.free() {
		st |= StatusDataLoss
	}
	if len(a.buf)-a.end < size {
		st |= StatusWrap
	}
	return st
}

// evict moves start forward by whole records until size bytes are free at
// end, and returns the number of records and bytes discarded.
//
// The last byte the new data will occupy, end+size-1, lies inside live data
// whenever size exceeds the free space. The record holding that byte and
// every record before it are dropped. Live data always ends with a
// terminator so the scan is bounded by one record.
func (a *Arena) evict(size int) (records, discarded int) {
	n := len(a.buf)
	from := a.start

	i := (a.end + size - 1) % n
	for a.buf[i] != terminator {
		i = (i + 1) % n
	}
	a.start = (i + 1) % n
	if a.start == a.end {
		a.empty = true
	}

	discarded = (n + a.start - from) % n
	if discarded == 0 {
		discarded = n
	}
	if from+discarded <= n {
		records = bytes.Count(a.buf[from:from+discarded], []byte{terminator})
	} else {
		records = bytes.Count(a.buf[from:], []byte{terminator}) +
			bytes.Count(a.buf[:from+discarded-n], []byte{terminator})
	}
	return records, discarded
}

// Allocate reserves size bytes at the write end and returns them as a span
// for the caller to fill. size includes the terminator: the last byte of the
// region is set to the terminator before Allocate returns, so writing fewer
// than size-1 record bytes yields a record padded with whatever was there.
// Writing a terminator earlier in the region splits it into several records.
// The final byte must still hold the terminator when the caller is done:
// eviction scans forward to the next terminator, so overwriting it merges
// the region with whatever stale bytes follow. Copy at most size-1 bytes.
//
// Under AllowLoss the oldest records are evicted when free space is short
// and StatusDataLoss is reported. Under AllowWrap a request that does not fit
// before the end of storage is returned as two parts and StatusWrap is
// reported. Without the matching permission Allocate fails with
// ErrInsufficientSpace or ErrInsufficientContiguousSpace and the arena is
// left exactly as it was.
//
// Allocate does not take the WithLocker lock. The caller must serialize the
// whole allocate-and-fill sequence itself.
func (a *Arena) Allocate(size int, p Policy) (Span, Status, error) {
	if !a.valid() || !p.valid() || size < 1 || size > len(a.buf) {
		return Span{}, StatusOK, ErrInvalidArgument
	}

	var st Status
	if size > a.free() {
		if !p.loss() {
			return Span{}, StatusDataLoss, ErrInsufficientSpace
		}
		st |= StatusDataLoss
	}

	saved := a.save()
	var records, discarded int
	if st.Lossy() {
		records, discarded = a.evict(size)
	}

	n := len(a.buf)
	var sp Span
	if tail := n - a.end; tail >= size {
		sp.First = a.buf[a.end : a.end+size : a.end+size]
		a.end = (a.end + size) % n
	} else {
		if !p.wrap() {
			a.restore(saved)
			return Span{}, st | StatusWrap, ErrInsufficientContiguousSpace
		}
		head := size - tail
		sp.First = a.buf[a.end:n:n]
		sp.Second = a.buf[0:head:head]
		a.end = head
		st |= StatusWrap
	}

	sp.setLast(terminator)
	a.empty = false
	a.stats.allocated(st, records, discarded)
	return sp, st, nil
}

// AllocateContiguous is like Allocate but always returns a single region.
// When the free space is split across the end of storage, live records are
// moved down to offset 0 first. That move costs time proportional to the
// bytes relocated, so latency is not deterministic; real-time callers should
// use Allocate with AllowWrap instead.
//
// As with Allocate, the last byte of the returned slice must stay the
// terminator. AllocateContiguous does not take the WithLocker lock.
func (a *Arena) AllocateContiguous(size int, allowLoss bool) ([]byte, Status, error) {
	if !a.valid() || size < 1 || size > len(a.buf) {
		return nil, StatusOK, ErrInvalidArgument
	}

	var st Status
	if size > a.free() {
		if !allowLoss {
			return nil, StatusDataLoss, ErrInsufficientSpace
		}
		st |= StatusDataLoss
	}

	var records, discarded int
	if st.Lossy() {
		records, discarded = a.evict(size)
	}

	n := len(a.buf)
	switch {
	case a.empty:
		a.start, a.end = 0, 0
	case n-a.end < size:
		// Free space wraps, so live data is the single run [start, end).
		used := a.end - a.start
		copy(a.buf[:used], a.buf[a.start:a.end])
		a.start, a.end = 0, used
		a.stats.relocated(used)
	}

	b := a.buf[a.end : a.end+size : a.end+size]
	b[size-1] = terminator
	a.end = (a.end + size) % n
	a.empty = false
	a.stats.allocated(st, records, discarded)
	return b, st, nil
}
