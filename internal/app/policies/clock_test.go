package policies

import (
	"testing"
	"time"
)

func TestNowFallsBackToSystemClock(t *testing.T) {
	before := time.Now()
	got := Now(nil)
	if got.Location() != time.UTC {
		t.Fatalf("location = %v", got.Location())
	}
	if got.Before(before.Add(-time.Second)) || got.After(time.Now().Add(time.Second)) {
		t.Fatalf("Now(nil) = %v, not near the wall clock", got)
	}
}

func TestNowNormalizesInjectedClock(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 3, 1, 3, 0, 0, 0, ist)
	got := Now(FixedClock{T: at})
	if got.Location() != time.UTC || !got.Equal(at) {
		t.Fatalf("Now = %v, want %v in UTC", got, at)
	}
	if got.Day() != 28 || got.Month() != time.February {
		t.Fatalf("UTC date = %v", got)
	}
}
