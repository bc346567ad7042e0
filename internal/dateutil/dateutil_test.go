package dateutil

import (
	"testing"
	"time"
)

func TestDayString(t *testing.T) {
	ts := time.Date(2024, 1, 31, 23, 59, 0, 0, time.Local)
	if got := DayString(ts); got != "2024-01-31" {
		t.Fatalf("DayString=%q, want 2024-01-31", got)
	}
}

func TestPreviousDay(t *testing.T) {
	if got := PreviousDay("2024-03-01"); got != "2024-02-29" {
		t.Fatalf("PreviousDay(2024-03-01)=%q, want 2024-02-29", got)
	}
	if got := PreviousDay("2024-01-01"); got != "2023-12-31" {
		t.Fatalf("PreviousDay(2024-01-01)=%q, want 2023-12-31", got)
	}
	if got := PreviousDay("garbage"); got != "garbage" {
		t.Fatalf("PreviousDay(garbage)=%q, want input unchanged", got)
	}
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"2024-01-01", "2024-01-01", 0},
		{"2024-01-01", "2024-01-02", 1},
		{"2024-01-02", "2024-01-01", 1},
		{"2024-02-27", "2024-03-02", 4},
		{"2024-03-09", "2024-03-11", 2}, // spans a US DST transition
		{"bad", "2024-01-01", 0},
	}
	for _, c := range cases {
		if got := DaysBetween(c.a, c.b); got != c.want {
			t.Errorf("DaysBetween(%q, %q)=%d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestIsSameDay(t *testing.T) {
	ts := time.Date(2024, 6, 15, 8, 0, 0, 0, time.Local)
	if !IsSameDay("2024-06-15", ts) {
		t.Fatal("IsSameDay should match")
	}
	if IsSameDay("2024-06-14", ts) {
		t.Fatal("IsSameDay should not match a different date")
	}
	if IsSameDay("", ts) {
		t.Fatal("empty date never matches")
	}
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || a == b {
		t.Fatalf("NewID produced %q and %q", a, b)
	}
}
