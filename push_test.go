package ringarena

import (
	"errors"
	"strings"
	"testing"
)

func TestPushInvalid(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"as long as capacity", strings.Repeat("x", 20)},
		{"longer than capacity", strings.Repeat("x", 64)},
		{"embedded terminator", "ab\x00cd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArena(t, 20)
			mustPush(t, a, "keep", StatusOK)
			before := a.save()

			st, err := a.PushString(tt.record)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("Push() error = %v, want ErrInvalidArgument", err)
			}
			if st.Lossy() {
				t.Errorf("rejected Push() reported dataloss")
			}
			if a.save() != before {
				t.Errorf("rejected Push() mutated the arena")
			}
			mustPop(t, a, "keep")
		})
	}
}

func TestPushLargestRecord(t *testing.T) {
	a := newTestArena(t, 20)
	rec := strings.Repeat("y", 19)

	mustPush(t, a, rec, StatusOK)
	if a.FillLevel() != 100 {
		t.Fatalf("FillLevel() = %d, want 100", a.FillLevel())
	}
	mustPush(t, a, rec, StatusDataLoss)
	mustPop(t, a, rec)
	mustBeEmpty(t, a)
}

func TestPushStatusFlagsCombine(t *testing.T) {
	a := newTestArena(t, 20)
	for _, rec := range []string{"test1", "test2", "test3"} {
		mustPush(t, a, rec, StatusOK)
	}

	st, err := a.PushString("test4")
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if !st.Lossy() || !st.Wrapped() {
		t.Errorf("Push() status = %v, want both dataloss and wrap", st)
	}
	if st == StatusDataLoss {
		t.Errorf("Push() status = %v, wrap flag missing", st)
	}
}

func TestPushFIFO(t *testing.T) {
	a := newTestArena(t, 64)
	records := []string{"alpha", "", "beta", "gamma delta", "e"}

	for _, rec := range records {
		st, err := a.PushString(rec)
		if err != nil || st.Lossy() {
			t.Fatalf("Push(%q) = %v, %v", rec, st, err)
		}
	}
	for _, rec := range records {
		mustPop(t, a, rec)
	}
	mustBeEmpty(t, a)
}

func TestTryPush(t *testing.T) {
	a := fillThree(t)
	before := a.save()
	fill := a.FillLevel()

	st, err := a.TryPush([]byte("test4"))
	if !errors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("TryPush() error = %v, want ErrInsufficientSpace", err)
	}
	if st != StatusDataLoss {
		t.Errorf("TryPush() status = %v, want dataloss", st)
	}
	if a.save() != before || a.FillLevel() != fill {
		t.Errorf("TryPush() mutated the arena")
	}

	// Fits after a pop: wrap is allowed.
	mustPop(t, a, "test1")
	st, err = a.TryPush([]byte("test4"))
	if err != nil || st != StatusWrap {
		t.Fatalf("TryPush() = %v, %v; want wrap", st, err)
	}
	mustPop(t, a, "test2")
	mustPop(t, a, "test3")
	mustPop(t, a, "test4")
}

func TestPushEvictsWholeRecords(t *testing.T) {
	a := newTestArena(t, 16)
	mustPush(t, a, "aaaaaaa", StatusOK) // 8 bytes
	mustPush(t, a, "bb", StatusOK)      // 3 bytes
	mustPush(t, a, "c", StatusOK)       // 2 bytes, 3 free

	// Needs 5: evicting "aaaaaaa" is enough even though it frees 8.
	st, err := a.PushString("dddd")
	if err != nil || !st.Lossy() {
		t.Fatalf("Push() = %v, %v; want dataloss", st, err)
	}
	m := a.Metrics()
	if m.EvictedRecords != 1 || m.EvictedBytes != 8 {
		t.Errorf("evicted %d records/%d bytes, want 1/8", m.EvictedRecords, m.EvictedBytes)
	}

	mustPop(t, a, "bb")
	mustPop(t, a, "c")
	mustPop(t, a, "dddd")
	mustBeEmpty(t, a)
}
