package ringarena

import "strings"

// Status carries informational flags about a successful operation.
// The zero value means the operation completed without wrapping or eviction.
type Status uint8

const (
	// StatusWrap reports that a record or allocation spans the end of
	// storage and continues at offset 0.
	StatusWrap Status = 1 << iota

	// StatusDataLoss reports that one or more of the oldest records were
	// evicted to make room. The write itself still took place.
	StatusDataLoss
)

// StatusOK is the zero Status.
const StatusOK Status = 0

// Wrapped reports whether StatusWrap is set.
func (s Status) Wrapped() bool { return s&StatusWrap != 0 }

// Lossy reports whether StatusDataLoss is set.
func (s Status) Lossy() bool { return s&StatusDataLoss != 0 }

func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	var parts []string
	if s.Wrapped() {
		parts = append(parts, "wrap")
	}
	if s.Lossy() {
		parts = append(parts, "dataloss")
	}
	return strings.Join(parts, "|")
}

// Policy selects what an allocation may do to satisfy a request.
type Policy uint8

const (
	// Strict fails unless the request fits contiguously without eviction.
	Strict Policy = iota
	// AllowWrap permits a two-span allocation across the end of storage.
	AllowWrap
	// AllowLoss permits evicting the oldest records.
	AllowLoss
	// AllowWrapAndLoss permits both.
	AllowWrapAndLoss
)

func (p Policy) wrap() bool { return p == AllowWrap || p == AllowWrapAndLoss }
func (p Policy) loss() bool { return p == AllowLoss || p == AllowWrapAndLoss }

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case AllowWrap:
		return "wrap"
	case AllowLoss:
		return "loss"
	case AllowWrapAndLoss:
		return "wrap+loss"
	default:
		return "invalid"
	}
}

func (p Policy) valid() bool { return p <= AllowWrapAndLoss }
