package store

import (
	"testing"
	"time"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// baseTime is a fixed reference point so all test timings are deterministic.
var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// tick returns baseTime advanced by n minutes.
func tick(n int) time.Time {
	return baseTime.Add(time.Duration(n) * time.Minute)
}

func spot(sender string, ts time.Time) types.Spot {
	return types.Spot{Sender: sender, Receiver: "K2ABC", Band: "20m", Mode: "FT8", Timestamp: ts}
}

func TestNew_Defaults(t *testing.T) {
	st := New(0, 0)
	if st.TTL() != DefaultTTL {
		t.Errorf("TTL = %v, want %v", st.TTL(), DefaultTTL)
	}
	if st.max != DefaultMaxSpots {
		t.Errorf("max = %d, want %d", st.max, DefaultMaxSpots)
	}
}

func TestAdd_CapEvictsOldestFirst(t *testing.T) {
	st := New(time.Hour, 3)
	for i, call := range []string{"A1A", "B1B", "C1C", "D1D", "E1E"} {
		st.Add(spot(call, tick(i)))
	}
	if st.Len() != 3 {
		t.Fatalf("Len = %d, want 3", st.Len())
	}
	got := st.Window(tick(5), time.Hour)
	want := []string{"C1C", "D1D", "E1E"}
	for i, w := range want {
		if got[i].Sender != w {
			t.Errorf("spots[%d] = %s, want %s", i, got[i].Sender, w)
		}
	}
}

func TestAdd_ReturnsEvictedCount(t *testing.T) {
	st := New(time.Hour, 1)
	if n := st.Add(spot("A1A", tick(0))); n != 0 {
		t.Errorf("first Add evicted %d, want 0", n)
	}
	if n := st.Add(spot("B1B", tick(1))); n != 1 {
		t.Errorf("second Add evicted %d, want 1", n)
	}
}

func TestCompact_TTLInvariant(t *testing.T) {
	st := New(15*time.Minute, 100)
	for i := 0; i <= 30; i++ {
		st.Add(spot("W1AW", tick(i)))
	}

	now := tick(30)
	removed := st.Compact(now)

	// Cutoff is tick(15), exclusive: tick(16)..tick(30) remain.
	if removed != 16 {
		t.Errorf("removed = %d, want 16", removed)
	}
	if st.Len() != 15 {
		t.Errorf("Len = %d, want 15", st.Len())
	}
	for _, sp := range st.Window(now, time.Hour) {
		if sp.Timestamp.Before(now.Add(-st.TTL())) {
			t.Errorf("retained spot at %v is older than the TTL", sp.Timestamp)
		}
	}
}

func TestCompact_KeepsOutOfOrderFreshSpots(t *testing.T) {
	st := New(10*time.Minute, 100)
	st.Add(spot("NEW", tick(20)))
	st.Add(spot("OLD", tick(1))) // delayed report arrives late
	st.Add(spot("MID", tick(15)))

	st.Compact(tick(20))
	got := st.Window(tick(20), time.Hour)
	if len(got) != 2 || got[0].Sender != "NEW" || got[1].Sender != "MID" {
		t.Errorf("after compact = %v, want NEW and MID in arrival order", got)
	}
}

func TestWindow_NarrowerThanTTL(t *testing.T) {
	st := New(15*time.Minute, 100)
	st.Add(spot("A1A", tick(0)))
	st.Add(spot("B1B", tick(8)))
	st.Add(spot("C1C", tick(9)))

	got := st.Window(tick(10), 5*time.Minute)
	if len(got) != 2 {
		t.Fatalf("Window len = %d, want 2", len(got))
	}
	if st.Len() != 3 {
		t.Errorf("Window must not remove entries, Len = %d", st.Len())
	}
}

func TestWindow_ReturnsCopy(t *testing.T) {
	st := New(time.Hour, 10)
	st.Add(spot("W1AW", tick(0)))

	got := st.Window(tick(1), time.Hour)
	got[0].Sender = "MUTATED"

	if again := st.Window(tick(1), time.Hour); again[0].Sender != "W1AW" {
		t.Errorf("store entry changed through Window result: %q", again[0].Sender)
	}
}

func TestEmptyStore(t *testing.T) {
	st := New(time.Minute, 10)
	if n := st.Compact(baseTime); n != 0 {
		t.Errorf("Compact on empty store removed %d", n)
	}
	if got := st.Window(baseTime, time.Minute); len(got) != 0 {
		t.Errorf("Window on empty store = %v", got)
	}
}
