// Package ringarena implements a fixed-capacity ring arena for
// NUL-terminated records.
//
// # Overview
//
// The arena stores a FIFO sequence of variable-length byte records in one
// caller-supplied buffer. Each record is followed by a terminator byte
// (0x00). When a write does not fit, the oldest whole records are evicted;
// a record is never cut in half. The arena never allocates, which makes it
// a good fit for:
//
//   - Bounded in-memory log tails
//   - Embedded telemetry buffers
//   - Producer/consumer hand-off without per-message allocation
//
// # Basic Usage
//
//	buf := make([]byte, 4096)
//	a, err := ringarena.New(buf)
//	if err != nil {
//		return err
//	}
//
//	st, _ := a.PushString("hello")
//	if st.Lossy() {
//		// older records were evicted
//	}
//
//	rec, err := a.AppendPop(nil) // "hello"
//
//	a.Reset() // O(1), content is not wiped
//
// # Zero-Copy Access
//
// Allocate, AllocateContiguous and Span return views into storage. A record
// near the end of storage may be split in two: Span.First runs to the end
// and Span.Second continues at offset 0. Views are valid only until the next
// mutating call.
//
//	sp, st, err := a.Allocate(6, ringarena.AllowWrapAndLoss)
//	sp.CopyFrom([]byte("world")) // last byte is already the terminator
//
// AllocateContiguous never splits. It may move live records to offset 0 to
// make room, at a cost proportional to the bytes moved, so its latency is not
// deterministic.
//
// # Status and Errors
//
// Successful writes report flags: StatusDataLoss when records were evicted,
// StatusWrap when data was split across the end of storage. Failures are
// sentinel errors (ErrInvalidArgument, ErrEmpty, ErrInsufficientSpace,
// ErrInsufficientContiguousSpace) and never change the arena.
//
// # Thread Safety
//
// The basic Arena type is not thread-safe. WithLocker injects a lock around
// the copying operations. For concurrent access, use SafeArena, which also
// offers scoped zero-copy access:
//
//	s, _ := ringarena.NewSafeArena(make([]byte, 4096))
//	s.ViewSpan(func(sp ringarena.Span) error {
//		os.Stdout.Write(sp.First)
//		os.Stdout.Write(sp.Second)
//		return nil
//	})
//
// # Performance Characteristics
//
//   - Push, Pop, Drop, Span: O(record length)
//   - Eviction: O(bytes scanned to the next record boundary)
//   - AllocateContiguous: O(bytes relocated) in the worst case
//   - Reset: O(1)
//
// # Metrics and Monitoring
//
//	m := a.Metrics()
//	fmt.Printf("Fill level: %d%%\n", m.FillLevel)
//	fmt.Printf("Evicted records: %d\n", m.EvictedRecords)
package ringarena
