package epoch

import (
	"math"
	"testing"
	"time"
)

func TestScaleRoundTrips(t *testing.T) {
	// A TDB epoch converted out to any scale and back must land on the same
	// nanosecond.
	e := FromTDBSeconds(7.573305e8) // ~2024-01-01 TDB
	for _, scale := range []Scale{TT, TAI, UTC, ET} {
		back := e.ConvertTo(scale).ConvertTo(TDB)
		if diff := e.ns - back.ns; diff < -1 || diff > 1 {
			t.Errorf("TDB->%v->TDB drifted %d ns", scale, diff)
		}
	}
}

func TestTTMinusTAI(t *testing.T) {
	tai := New(0, TAI)
	tt := tai.ConvertTo(TT)
	if got := float64(tt.ns) / 1e9; math.Abs(got-32.184) > 1e-12 {
		t.Errorf("TT at TAI J2000 = %.12f s, want 32.184", got)
	}
}

func TestTDBMinusTTBounded(t *testing.T) {
	// The periodic term stays within ±1.7 ms over a century.
	for yr := -50; yr <= 50; yr += 5 {
		sec := float64(yr) * 365.25 * 86400
		if d := tdbMinusTT(sec); math.Abs(d) > 1.7e-3 {
			t.Errorf("tdb-tt at %+d yr = %e s, out of bounds", yr, d)
		}
	}
}

func TestLeapSecondsAtKnownDates(t *testing.T) {
	cases := []struct {
		when   time.Time
		offset int32
	}{
		{time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 32},
		{time.Date(2005, 12, 31, 23, 0, 0, 0, time.UTC), 32},
		{time.Date(2006, 1, 1, 0, 0, 1, 0, time.UTC), 33},
		{time.Date(2016, 6, 1, 0, 0, 0, 0, time.UTC), 36},
		{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 37},
	}
	for _, c := range cases {
		ns := c.when.Sub(j2000UTC).Nanoseconds()
		if got := leapSecondsAtUTC(ns); got != c.offset {
			t.Errorf("TAI-UTC at %v = %d, want %d", c.when, got, c.offset)
		}
	}
}

func TestUTCToTDBKnownOffset(t *testing.T) {
	// At 2024-01-01T00:00:00 UTC, TDB-UTC = 37 + 32.184 s plus the periodic
	// term (sub-ms).
	e := FromTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tdb := e.ConvertTo(TDB)
	diffSec := float64(tdb.ns-e.ns) / 1e9
	if math.Abs(diffSec-69.184) > 2e-3 {
		t.Errorf("TDB-UTC at 2024-01-01 = %.6f s, want 69.184 +/- periodic", diffSec)
	}
}

func TestEpochArithmetic(t *testing.T) {
	e := FromTDBSeconds(100)
	e2 := e.Add(90 * Second)
	if d := e2.Sub(e); d != 90*Second {
		t.Errorf("Sub = %v ns, want 90 s", int64(d))
	}
	if !e.Before(e2) || e2.Before(e) {
		t.Error("ordering broken")
	}
}

func TestParseAndString(t *testing.T) {
	e, err := Parse("2024-01-01T00:00:00 TDB")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if e.Scale() != TDB {
		t.Errorf("scale = %v, want TDB", e.Scale())
	}
	if s := e.String(); s != "2024-01-01T00:00:00.000000000 TDB" {
		t.Errorf("String = %q", s)
	}

	if _, err := Parse("not-a-date TDB"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
	if _, err := Parse("2024-01-01T00:00:00 XYZ"); err == nil {
		t.Error("expected error for unknown scale")
	}
}

func TestTDBSecondsJ2000(t *testing.T) {
	e := FromTDBSeconds(12345.678)
	if got := e.TDBSecondsJ2000(); math.Abs(got-12345.678) > 1e-9 {
		t.Errorf("TDBSecondsJ2000 = %v", got)
	}
}
