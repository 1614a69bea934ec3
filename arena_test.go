package ringarena

import (
	"errors"
	"strings"
	"testing"
)

// newTestArena returns an arena over a fresh buffer of n bytes.
func newTestArena(t *testing.T, n int) *Arena {
	t.Helper()
	a, err := New(make([]byte, n))
	if err != nil {
		t.Fatalf("New(%d) error = %v", n, err)
	}
	return a
}

func mustPush(t *testing.T, a *Arena, rec string, want Status) {
	t.Helper()
	st, err := a.PushString(rec)
	if err != nil {
		t.Fatalf("Push(%q) error = %v", rec, err)
	}
	if st != want {
		t.Fatalf("Push(%q) status = %v, want %v", rec, st, want)
	}
}

func mustPop(t *testing.T, a *Arena, want string) {
	t.Helper()
	got, err := a.AppendPop(nil)
	if err != nil {
		t.Fatalf("AppendPop() error = %v, want %q", err, want)
	}
	if string(got) != want {
		t.Fatalf("AppendPop() = %q, want %q", got, want)
	}
}

func mustBeEmpty(t *testing.T, a *Arena) {
	t.Helper()
	if _, err := a.AppendPop(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("AppendPop() error = %v, want ErrEmpty", err)
	}
	if a.FillLevel() != 0 {
		t.Fatalf("FillLevel() = %d, want 0", a.FillLevel())
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		wantErr error
	}{
		{"nil buffer", nil, ErrInvalidArgument},
		{"zero length", []byte{}, ErrInvalidArgument},
		{"one byte", make([]byte, 1), ErrInvalidArgument},
		{"minimum", make([]byte, MinCapacity), nil},
		{"regular", make([]byte, 20), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.buf)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				if a != nil {
					t.Errorf("New() returned arena on error")
				}
				return
			}
			if a.Capacity() != len(tt.buf) {
				t.Errorf("Capacity() = %d, want %d", a.Capacity(), len(tt.buf))
			}
			if !a.Empty() || a.Len() != 0 || a.Free() != len(tt.buf) {
				t.Errorf("new arena not empty: Empty=%v Len=%d Free=%d", a.Empty(), a.Len(), a.Free())
			}
		})
	}
}

func TestZeroValueArena(t *testing.T) {
	var a Arena
	if err := a.Reset(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Reset() on zero arena error = %v, want ErrInvalidArgument", err)
	}
	if _, err := a.PushString("x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Push() on zero arena error = %v, want ErrInvalidArgument", err)
	}

	if err := a.Init(make([]byte, 8)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	mustPush(t, &a, "abc", StatusOK)
	mustPop(t, &a, "abc")
}

func TestNilArena(t *testing.T) {
	var a *Arena

	if err := a.Init(make([]byte, 8)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Init() error = %v, want ErrInvalidArgument", err)
	}
	if err := a.Reset(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Reset() error = %v, want ErrInvalidArgument", err)
	}
	if _, err := a.PushString("x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Push() error = %v, want ErrInvalidArgument", err)
	}
	if _, err := a.TryPush([]byte("x")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("TryPush() error = %v, want ErrInvalidArgument", err)
	}
	if _, err := a.Pop(make([]byte, 4)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Pop() error = %v, want ErrInvalidArgument", err)
	}
	if _, err := a.RecordLength(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("RecordLength() error = %v, want ErrInvalidArgument", err)
	}
	if _, _, err := a.Span(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Span() error = %v, want ErrInvalidArgument", err)
	}
	if err := a.Drop(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Drop() error = %v, want ErrInvalidArgument", err)
	}
	if _, err := a.CheckFit(1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("CheckFit() error = %v, want ErrInvalidArgument", err)
	}
	if _, _, err := a.Allocate(1, AllowWrapAndLoss); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Allocate() error = %v, want ErrInvalidArgument", err)
	}
	if _, _, err := a.AllocateContiguous(1, true); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("AllocateContiguous() error = %v, want ErrInvalidArgument", err)
	}
	if a.FillLevel() != 0 || a.Capacity() != 0 || a.Len() != 0 || !a.Empty() {
		t.Errorf("nil arena introspection not zero")
	}
}

func TestArenaReset(t *testing.T) {
	a := newTestArena(t, 20)

	mustPush(t, a, "test1", StatusOK)
	mustPush(t, a, "test2", StatusOK)
	if a.FillLevel() == 0 {
		t.Fatal("expected non-zero fill level before Reset")
	}

	if err := a.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	mustBeEmpty(t, a)

	// Reset is idempotent and the arena stays usable.
	if err := a.Reset(); err != nil {
		t.Fatalf("second Reset() error = %v", err)
	}
	mustPush(t, a, "fresh", StatusOK)
	mustPop(t, a, "fresh")
	mustBeEmpty(t, a)
}

func TestArenaResetFromFull(t *testing.T) {
	a := newTestArena(t, 20)
	for i := 0; i < 25; i++ {
		if _, err := a.PushString(""); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}
	if a.FillLevel() != 100 {
		t.Fatalf("FillLevel() = %d, want 100", a.FillLevel())
	}
	if err := a.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	mustBeEmpty(t, a)
}

func TestFillLevel(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		records []string
		want    int
	}{
		{"empty", 20, nil, 0},
		{"one record", 20, []string{"test1"}, 30},
		{"single empty record", 20, []string{""}, 5},
		{"truncates", 3, []string{""}, 33},
		{"two of three", 3, []string{"", ""}, 66},
		{"exactly full", 20, []string{strings.Repeat("x", 19)}, 100},
		{"full of empty records", 2, []string{"", ""}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArena(t, tt.size)
			for _, rec := range tt.records {
				if _, err := a.PushString(rec); err != nil {
					t.Fatalf("Push(%q) error = %v", rec, err)
				}
			}
			if got := a.FillLevel(); got != tt.want {
				t.Errorf("FillLevel() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckFit(t *testing.T) {
	// setup leaves the 20-byte arena with start=6, end=18: 8 bytes free,
	// 2 of them before the end of storage.
	setup := func(t *testing.T) *Arena {
		a := newTestArena(t, 20)
		mustPush(t, a, "test1", StatusOK)
		mustPush(t, a, "test2", StatusOK)
		mustPush(t, a, "test3", StatusOK)
		mustPop(t, a, "test1")
		return a
	}

	tests := []struct {
		size    int
		want    Status
		wantErr error
	}{
		{0, StatusOK, ErrInvalidArgument},
		{-1, StatusOK, ErrInvalidArgument},
		{21, StatusOK, ErrInvalidArgument},
		{1, StatusOK, nil},
		{2, StatusOK, nil},
		{3, StatusWrap, nil},
		{8, StatusWrap, nil},
		{9, StatusWrap | StatusDataLoss, nil},
		{20, StatusWrap | StatusDataLoss, nil},
	}

	for _, tt := range tests {
		a := setup(t)
		before := a.save()
		got, err := a.CheckFit(tt.size)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("CheckFit(%d) error = %v, want %v", tt.size, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("CheckFit(%d) = %v, want %v", tt.size, got, tt.want)
		}
		if a.save() != before {
			t.Errorf("CheckFit(%d) mutated the arena", tt.size)
		}
	}
}

func TestCheckFitDataLossWithoutWrap(t *testing.T) {
	a := newTestArena(t, 20)
	mustPush(t, a, "test1", StatusOK)

	if st, _ := a.CheckFit(14); st != StatusOK {
		t.Errorf("CheckFit(14) = %v, want ok", st)
	}
	if st, _ := a.CheckFit(15); st != StatusWrap|StatusDataLoss {
		t.Errorf("CheckFit(15) = %v, want wrap|dataloss", st)
	}

	// Wrapped live data leaves a contiguous hole: loss without wrap.
	a = newTestArena(t, 20)
	mustPush(t, a, "test1", StatusOK)
	mustPush(t, a, "test2", StatusOK)
	mustPush(t, a, "test3", StatusOK)
	mustPop(t, a, "test1")
	mustPush(t, a, "wrapper", StatusWrap) // end=6, start=6: full
	mustPop(t, a, "test2")                // start=12, 6 bytes free in [6,12)
	if st, _ := a.CheckFit(6); st != StatusOK {
		t.Errorf("CheckFit(6) = %v, want ok", st)
	}
	if st, _ := a.CheckFit(7); st != StatusDataLoss {
		t.Errorf("CheckFit(7) = %v, want dataloss", st)
	}
}

// The capacity-20 scenarios below reproduce the original behaviour tests.

func TestScenarioEvictOldest(t *testing.T) {
	a := newTestArena(t, 20)

	mustPush(t, a, "test1", StatusOK)
	mustPush(t, a, "test2", StatusOK)
	mustPush(t, a, "test3", StatusOK)

	st, err := a.PushString("test4")
	if err != nil {
		t.Fatalf("Push(test4) error = %v", err)
	}
	if !st.Lossy() {
		t.Fatalf("Push(test4) status = %v, want dataloss", st)
	}

	mustPop(t, a, "test2")
	mustPop(t, a, "test3")
	mustPop(t, a, "test4")
	mustBeEmpty(t, a)
}

func TestScenarioRepeatedLoss(t *testing.T) {
	a := newTestArena(t, 20)

	if _, err := a.PushString("12345678901234567890"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Push(20 chars) error = %v, want ErrInvalidArgument", err)
	}
	mustPush(t, a, "test1", StatusOK)
	mustPush(t, a, "test2", StatusOK)
	mustPush(t, a, "test3", StatusOK)
	for _, rec := range []string{"test4", "test5", "test6"} {
		st, err := a.PushString(rec)
		if err != nil || !st.Lossy() {
			t.Fatalf("Push(%q) = %v, %v; want dataloss", rec, st, err)
		}
	}
}

func TestScenarioInterleavedLoss(t *testing.T) {
	a := newTestArena(t, 20)
	mustBeEmpty(t, a)

	mustPush(t, a, "test1", StatusOK)
	mustPush(t, a, "test2", StatusOK)
	mustPush(t, a, "test3", StatusOK)
	mustPush(t, a, "test4", StatusWrap|StatusDataLoss)
	mustPush(t, a, "test5", StatusDataLoss)

	mustPop(t, a, "test3")

	mustPush(t, a, "test6", StatusOK)
	mustPush(t, a, "test7", StatusWrap|StatusDataLoss)

	mustPop(t, a, "test5")
	mustPop(t, a, "test6")
	mustPop(t, a, "test7")
	mustBeEmpty(t, a)
}

func TestScenarioEmptyRecords(t *testing.T) {
	a := newTestArena(t, 20)

	for i := 0; i < 20; i++ {
		mustPush(t, a, "", StatusOK)
	}
	if a.FillLevel() != 100 {
		t.Fatalf("FillLevel() = %d, want 100", a.FillLevel())
	}

	for i := 0; i < 5; i++ {
		st, err := a.PushString("")
		if err != nil || !st.Lossy() {
			t.Fatalf("push %d = %v, %v; want dataloss", 21+i, st, err)
		}
	}
	if a.FillLevel() != 100 {
		t.Fatalf("FillLevel() after loss = %d, want 100", a.FillLevel())
	}

	dst := make([]byte, 10)
	for i := 0; i < 20; i++ {
		n, err := a.Pop(dst)
		if err != nil {
			t.Fatalf("pop %d error = %v", i, err)
		}
		if n != 0 || dst[0] != 0 {
			t.Fatalf("pop %d = %q, want empty record", i, dst[:n])
		}
	}
	mustBeEmpty(t, a)
}
