package epoch

import "time"

// leapEntry records TAI-UTC after a leap second takes effect.
type leapEntry struct {
	utcNs  int64 // UTC nanoseconds past J2000 at which the offset starts
	taiUTC int32
}

// leapTable lists TAI-UTC offsets, oldest first. Entries before 2000 matter
// for historical epochs; the table is current through 2017-01-01 (37 s),
// the last leap second announced as of this writing.
var leapTable = buildLeapTable()

func buildLeapTable() []leapEntry {
	dates := []struct {
		y      int
		m      time.Month
		offset int32
	}{
		{1972, time.January, 10}, {1972, time.July, 11}, {1973, time.January, 12},
		{1974, time.January, 13}, {1975, time.January, 14}, {1976, time.January, 15},
		{1977, time.January, 16}, {1978, time.January, 17}, {1979, time.January, 18},
		{1980, time.January, 19}, {1981, time.July, 20}, {1982, time.July, 21},
		{1983, time.July, 22}, {1985, time.July, 23}, {1988, time.January, 24},
		{1990, time.January, 25}, {1991, time.January, 26}, {1992, time.July, 27},
		{1993, time.July, 28}, {1994, time.July, 29}, {1996, time.January, 30},
		{1997, time.July, 31}, {1999, time.January, 32}, {2006, time.January, 33},
		{2009, time.January, 34}, {2012, time.July, 35}, {2015, time.July, 36},
		{2017, time.January, 37},
	}
	table := make([]leapEntry, len(dates))
	for i, d := range dates {
		t := time.Date(d.y, d.m, 1, 0, 0, 0, 0, time.UTC)
		table[i] = leapEntry{utcNs: t.Sub(j2000UTC).Nanoseconds(), taiUTC: d.offset}
	}
	return table
}

// leapSecondsAtUTC returns TAI-UTC in effect at the given UTC instant
// (nanoseconds past J2000 UTC).
func leapSecondsAtUTC(utcNs int64) int32 {
	offset := int32(10) // TAI-UTC before 1972-01-01 approximated by the initial step
	for _, e := range leapTable {
		if utcNs >= e.utcNs {
			offset = e.taiUTC
		} else {
			break
		}
	}
	return offset
}

// leapSecondsAtTAI returns TAI-UTC in effect at the given TAI instant.
// A leap entry applies once the TAI clock passes the boundary shifted by the
// offset itself, so the table is consulted in TAI terms.
func leapSecondsAtTAI(taiNs int64) int32 {
	offset := int32(10)
	for _, e := range leapTable {
		if taiNs >= e.utcNs+int64(e.taiUTC)*int64(Second) {
			offset = e.taiUTC
		} else {
			break
		}
	}
	return offset
}
