// Package epoch provides time instants with nanosecond precision in named
// astronomical time scales (TDB, ET, TT, TAI, UTC).
//
// Internally an Epoch is a signed nanosecond count from the J2000 reference
// instant (2000-01-01T12:00:00) expressed in its own scale. Conversions
// between TAI, TT and TDB are analytic; UTC conversions consult the leap
// second table in leapseconds.go.
//
// Ephemeris kernels index time by TDB seconds past J2000, exposed here as
// TDBSecondsJ2000. ET is treated as an alias of TDB, which holds to well
// under the interpolation tolerance of any supported kernel.
package epoch

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Scale identifies an astronomical time scale.
type Scale uint8

const (
	TDB Scale = iota // Barycentric Dynamical Time
	ET               // Ephemeris Time (alias of TDB here)
	TT               // Terrestrial Time
	TAI              // International Atomic Time
	UTC              // Coordinated Universal Time
)

// String returns the conventional abbreviation of the scale.
func (s Scale) String() string {
	switch s {
	case TDB:
		return "TDB"
	case ET:
		return "ET"
	case TT:
		return "TT"
	case TAI:
		return "TAI"
	case UTC:
		return "UTC"
	}
	return fmt.Sprintf("Scale(%d)", uint8(s))
}

// ParseScale parses a scale abbreviation (case-insensitive).
func ParseScale(s string) (Scale, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TDB":
		return TDB, nil
	case "ET":
		return ET, nil
	case "TT":
		return TT, nil
	case "TAI":
		return TAI, nil
	case "UTC":
		return UTC, nil
	}
	return 0, fmt.Errorf("unknown time scale %q", s)
}

// Duration is a signed span of time with nanosecond resolution.
type Duration int64

const (
	Nanosecond  Duration = 1
	Microsecond          = 1000 * Nanosecond
	Millisecond          = 1000 * Microsecond
	Second               = 1000 * Millisecond
	Minute               = 60 * Second
	Hour                 = 60 * Minute
	Day                  = 24 * Hour
)

// Seconds returns the duration as floating-point seconds.
func (d Duration) Seconds() float64 { return float64(d) / float64(Second) }

// FromSeconds builds a Duration from floating-point seconds, rounding to the
// nearest nanosecond.
func FromSeconds(s float64) Duration {
	return Duration(math.Round(s * float64(Second)))
}

// ttMinusTAISeconds is the fixed offset TT - TAI.
const ttMinusTAISeconds = 32.184

// Epoch is a time instant: nanoseconds from J2000 (2000-01-01T12:00:00) in
// the carried scale. The zero value is J2000 TDB.
type Epoch struct {
	ns    int64
	scale Scale
}

// New builds an Epoch from a nanosecond offset past J2000 in the given scale.
func New(ns int64, scale Scale) Epoch { return Epoch{ns: ns, scale: scale} }

// FromTDBSeconds builds a TDB epoch from seconds past J2000, the native
// index of SPK and BPC segments.
func FromTDBSeconds(et float64) Epoch {
	return Epoch{ns: int64(math.Round(et * float64(Second))), scale: TDB}
}

// j2000UTC is the J2000 reference instant on the UTC scale. The 64.184 s
// offset between TDB and UTC at J2000 (32 leap seconds + 32.184 s TT-TAI)
// is handled by the scale conversions, not baked into this anchor.
var j2000UTC = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// FromTime converts a wall-clock time.Time into a UTC Epoch.
func FromTime(t time.Time) Epoch {
	return Epoch{ns: t.Sub(j2000UTC).Nanoseconds(), scale: UTC}
}

// Time converts the epoch to a time.Time on the UTC scale.
func (e Epoch) Time() time.Time {
	u := e.ConvertTo(UTC)
	return j2000UTC.Add(time.Duration(u.ns))
}

// Scale returns the scale the epoch is expressed in.
func (e Epoch) Scale() Scale { return e.scale }

// NanosecondsJ2000 returns the raw offset in the epoch's own scale.
func (e Epoch) NanosecondsJ2000() int64 { return e.ns }

// Add returns the epoch shifted by d within the same scale.
func (e Epoch) Add(d Duration) Epoch { return Epoch{ns: e.ns + int64(d), scale: e.scale} }

// Sub returns the duration e - other. The other epoch is converted to e's
// scale first, so the result is scale-consistent.
func (e Epoch) Sub(other Epoch) Duration {
	return Duration(e.ns - other.ConvertTo(e.scale).ns)
}

// Before reports whether e precedes other, comparing in e's scale.
func (e Epoch) Before(other Epoch) bool { return e.ns < other.ConvertTo(e.scale).ns }

// Equal reports whether the two epochs name the same instant to the
// nanosecond, comparing in e's scale.
func (e Epoch) Equal(other Epoch) bool { return e.ns == other.ConvertTo(e.scale).ns }

// TDBSecondsJ2000 returns the epoch as TDB seconds past J2000 — the time
// argument of every kernel evaluator.
func (e Epoch) TDBSecondsJ2000() float64 {
	return float64(e.ConvertTo(TDB).ns) / float64(Second)
}

// ConvertTo converts the epoch into the target scale.
func (e Epoch) ConvertTo(target Scale) Epoch {
	if e.scale == target || (e.scale == ET && target == TDB) || (e.scale == TDB && target == ET) {
		return Epoch{ns: e.ns, scale: target}
	}
	// Route through TAI: every supported scale has a direct TAI relation.
	tai := e.toTAI()
	return tai.fromTAI(target)
}

// toTAI converts any scale to TAI nanoseconds past J2000 TAI.
func (e Epoch) toTAI() Epoch {
	switch e.scale {
	case TAI:
		return e
	case TT:
		return Epoch{ns: e.ns - int64(FromSeconds(ttMinusTAISeconds)), scale: TAI}
	case TDB, ET:
		// Invert the TDB-TT periodic term; one Newton step converges far
		// below a nanosecond because d(tdb-tt)/dt ~ 5e-10.
		tdbSec := float64(e.ns) / float64(Second)
		ttSec := tdbSec - tdbMinusTT(tdbSec)
		ttSec = tdbSec - tdbMinusTT(ttSec)
		tt := Epoch{ns: int64(math.Round(ttSec * float64(Second))), scale: TT}
		return tt.toTAI()
	case UTC:
		return Epoch{ns: e.ns + int64(leapSecondsAtUTC(e.ns))*int64(Second), scale: TAI}
	}
	panic("epoch: unknown scale")
}

// fromTAI converts a TAI epoch into the target scale.
func (e Epoch) fromTAI(target Scale) Epoch {
	switch target {
	case TAI:
		return e
	case TT:
		return Epoch{ns: e.ns + int64(FromSeconds(ttMinusTAISeconds)), scale: TT}
	case TDB, ET:
		ttSec := float64(e.ns)/float64(Second) + ttMinusTAISeconds
		tdbSec := ttSec + tdbMinusTT(ttSec)
		return Epoch{ns: int64(math.Round(tdbSec * float64(Second))), scale: target}
	case UTC:
		return Epoch{ns: e.ns - int64(leapSecondsAtTAI(e.ns))*int64(Second), scale: UTC}
	}
	panic("epoch: unknown scale")
}

// tdbMinusTT evaluates the dominant periodic term of TDB - TT in seconds.
// Argument is seconds past J2000 on either scale (the difference is < 2 ms
// and irrelevant at this term's accuracy of ~30 ns).
func tdbMinusTT(sec float64) float64 {
	// Mean anomaly of the Earth-Moon barycenter heliocentric orbit.
	g := 6.239996 + 1.99096871e-7*sec
	return 1.657e-3 * math.Sin(g+1.671e-2*math.Sin(g))
}

// String renders the epoch as an ISO timestamp with a scale suffix, e.g.
// "2024-01-01T00:00:00.000000000 TDB".
func (e Epoch) String() string {
	// Render via a proleptic clock anchored at J2000 of the epoch's own
	// scale; only UTC epochs correspond to civil time, other scales are a
	// uniform count rendered on the same calendar.
	t := j2000UTC.Add(time.Duration(e.ns))
	return t.Format("2006-01-02T15:04:05.000000000") + " " + e.scale.String()
}

// Parse reads an ISO timestamp with an optional trailing scale (default UTC).
func Parse(s string) (Epoch, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return Epoch{}, fmt.Errorf("empty epoch string")
	}
	scale := UTC
	if len(fields) == 2 {
		var err error
		if scale, err = ParseScale(fields[1]); err != nil {
			return Epoch{}, err
		}
	} else if len(fields) > 2 {
		return Epoch{}, fmt.Errorf("malformed epoch string %q", s)
	}
	var t time.Time
	var err error
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
		if t, err = time.Parse(layout, fields[0]); err == nil {
			break
		}
	}
	if err != nil {
		return Epoch{}, fmt.Errorf("unparseable epoch %q: %w", fields[0], err)
	}
	return Epoch{ns: t.Sub(j2000UTC).Nanoseconds(), scale: scale}, nil
}
