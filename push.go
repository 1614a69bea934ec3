package ringarena

import "bytes"

// Push stores record followed by a terminator, evicting the oldest records
// when space is short. The write always happens on success; StatusDataLoss
// reports that records were evicted and StatusWrap that the record was split
// across the end of storage. The flags combine: a push that both evicts and
// wraps returns StatusWrap|StatusDataLoss, so test them with Lossy and
// Wrapped rather than comparing against a single constant.
//
// record must not contain the terminator byte and must be shorter than
// Capacity, otherwise ErrInvalidArgument is returned.
func (a *Arena) Push(record []byte) (Status, error) {
	if !a.valid() {
		return StatusOK, ErrInvalidArgument
	}

	l := a.locker()
	l.Lock()
	defer l.Unlock()

	return a.push(record, AllowWrapAndLoss)
}

// PushString is Push for a string record.
func (a *Arena) PushString(s string) (Status, error) {
	return a.Push([]byte(s))
}

// TryPush is Push without eviction. If the record only fits by dropping
// older records it returns StatusDataLoss with ErrInsufficientSpace and
// leaves the arena untouched.
func (a *Arena) TryPush(record []byte) (Status, error) {
	if !a.valid() {
		return StatusOK, ErrInvalidArgument
	}

	l := a.locker()
	l.Lock()
	defer l.Unlock()

	return a.push(record, AllowWrap)
}

func (a *Arena) push(record []byte, p Policy) (Status, error) {
	size := len(record) + 1
	if size > len(a.buf) || bytes.IndexByte(record, terminator) >= 0 {
		return StatusOK, ErrInvalidArgument
	}

	sp, st, err := a.Allocate(size, p)
	if err != nil {
		return st, err
	}
	sp.CopyFrom(record)
	a.stats.pushes++
	return st, nil
}
