package ringarena

// counters accumulate since Init. Reset does not clear them.
type counters struct {
	pushes         uint64
	allocations    uint64
	pops           uint64
	wraps          uint64
	evictions      uint64
	evictedRecords uint64
	evictedBytes   uint64
	relocations    uint64
	relocatedBytes uint64
	resets         uint64
}

func (c *counters) allocated(st Status, records, discarded int) {
	c.allocations++
	if st.Wrapped() {
		c.wraps++
	}
	if st.Lossy() {
		c.evictions++
		c.evictedRecords += uint64(records)
		c.evictedBytes += uint64(discarded)
	}
}

func (c *counters) relocated(n int) {
	c.relocations++
	c.relocatedBytes += uint64(n)
}

// SizeInUse returns the number of occupied bytes, terminators included.
// It is the same as Len.
func (a *Arena) SizeInUse() int {
	return a.Len()
}

// Utilization returns the ratio of occupied bytes to capacity (0.0 to 1.0).
// Returns 0.0 for an uninitialized arena.
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(capacity)
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() ArenaMetrics {
	if !a.valid() {
		return ArenaMetrics{}
	}
	return ArenaMetrics{
		Capacity:       a.Capacity(),
		SizeInUse:      a.SizeInUse(),
		FillLevel:      a.FillLevel(),
		Utilization:    a.Utilization(),
		Pushes:         a.stats.pushes,
		Allocations:    a.stats.allocations,
		Pops:           a.stats.pops,
		Wraps:          a.stats.wraps,
		Evictions:      a.stats.evictions,
		EvictedRecords: a.stats.evictedRecords,
		EvictedBytes:   a.stats.evictedBytes,
		Relocations:    a.stats.relocations,
		RelocatedBytes: a.stats.relocatedBytes,
		Resets:         a.stats.resets,
	}
}

// ArenaMetrics contains statistical information about an arena.
type ArenaMetrics struct {
	Capacity       int     // Size of storage in bytes
	SizeInUse      int     // Occupied bytes, terminators included
	FillLevel      int     // Occupied percentage, 0-100
	Utilization    float64 // Ratio of used to total capacity (0.0-1.0)
	Pushes         uint64  // Records written by Push and TryPush
	Allocations    uint64  // Successful allocations, pushes included
	Pops           uint64  // Records consumed by Pop, AppendPop, Span and Drop
	Wraps          uint64  // Allocations split across the end of storage
	Evictions      uint64  // Allocations that had to evict
	EvictedRecords uint64  // Records discarded by eviction
	EvictedBytes   uint64  // Bytes discarded by eviction
	Relocations    uint64  // AllocateContiguous calls that moved live data
	RelocatedBytes uint64  // Bytes moved by those relocations
	Resets         uint64  // Reset calls
}
