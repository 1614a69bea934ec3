package ringarena

import "errors"

// Sentinel errors returned by arena operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, ringarena.ErrEmpty) {
//	    // nothing to read yet
//	}
//
// A failed operation never modifies the arena.
var (
	// ErrInvalidArgument indicates a nil or uninitialized arena, a buffer
	// shorter than two bytes, a size outside 1..Capacity, or a record that
	// contains the terminator byte.
	//
	// This is a programming error.
	ErrInvalidArgument = errors.New("ringarena: invalid argument")

	// ErrEmpty indicates a read on an arena that holds no records.
	ErrEmpty = errors.New("ringarena: empty")

	// ErrInsufficientSpace indicates the request only fits by evicting
	// records and the caller did not allow data loss.
	ErrInsufficientSpace = errors.New("ringarena: insufficient space")

	// ErrInsufficientContiguousSpace indicates the request would have to be
	// split across the end of storage and the caller did not allow wrapping.
	ErrInsufficientContiguousSpace = errors.New("ringarena: insufficient contiguous space")
)
