package index

import (
	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/serialise"
)

// Range-query collaborator of the accuracy buckets: given a date interval it
// produces the bucket terms a query planner unions (per group) and
// intersects (across groups) to skip to the right granularity.

const maxRangeTerms = 128

// RangeTerms is a conjunction of term disjunctions.
type RangeTerms struct {
	Groups [][]string
}

// DateRangeTerms selects the accuracy lanes bracketing the interval width and
// enumerates their bucket terms. Returns nil when the accuracy table cannot
// help with the interval.
func DateRangeTerms(start, end float64, accuracy []uint64, accPrefix [][]byte) *RangeTerms {
	if len(accuracy) == 0 || end < start {
		return nil
	}
	tmS := serialise.ToTm(start)
	tmE := serialise.ToTm(end)

	needed := neededUnit(tmS, tmE)

	// Find the first strictly coarser accuracy lane.
	pos := 0
	for pos < len(accuracy) && field.UnitTime(accuracy[pos]) <= needed {
		pos++
	}

	var groups [][]string
	if pos < len(accuracy) && pos < len(accPrefix) {
		if g := unitTerms(tmS, tmE, field.UnitTime(accuracy[pos]), accPrefix[pos]); len(g) > 0 {
			groups = append(groups, g)
		}
	}
	if pos > 0 && field.UnitTime(accuracy[pos-1]) == needed && pos-1 < len(accPrefix) {
		if g := unitTerms(tmS, tmE, needed, accPrefix[pos-1]); len(g) > 0 {
			groups = append(groups, g)
		}
	}
	if len(groups) == 0 {
		return nil
	}
	return &RangeTerms{Groups: groups}
}

func neededUnit(s, e serialise.Tm) field.UnitTime {
	diff := e.Year - s.Year
	switch {
	case diff >= 1000:
		return field.UnitMillennium
	case diff >= 100:
		return field.UnitCentury
	case diff >= 10:
		return field.UnitDecade
	case diff != 0:
		return field.UnitYear
	case e.Mon != s.Mon:
		return field.UnitMonth
	case e.Day != s.Day:
		return field.UnitDay
	case e.Hour != s.Hour:
		return field.UnitHour
	case e.Min != s.Min:
		return field.UnitMinute
	}
	return field.UnitSecond
}

// unitTerms walks the truncated interval one unit step at a time.
func unitTerms(s, e serialise.Tm, unit field.UnitTime, prefix []byte) []string {
	ts := truncateTm(s, unit)
	te := truncateTm(e, unit)
	var terms []string
	cur := ts
	for i := 0; i < maxRangeTerms; i++ {
		terms = append(terms, serialise.Prefixed(serialise.Floating(serialise.Timegm(cur)), prefix, ctypeDate))
		if cur == te {
			return terms
		}
		cur = stepTm(cur, unit)
		if serialise.Timegm(cur) > serialise.Timegm(te) {
			return terms
		}
	}
	// Interval too wide for this lane.
	return nil
}

func stepTm(tm serialise.Tm, unit field.UnitTime) serialise.Tm {
	switch unit {
	case field.UnitMillennium:
		tm.Year += 1000
	case field.UnitCentury:
		tm.Year += 100
	case field.UnitDecade:
		tm.Year += 10
	case field.UnitYear:
		tm.Year++
	case field.UnitMonth:
		tm.Mon++
		if tm.Mon > 12 {
			tm.Mon = 1
			tm.Year++
		}
	case field.UnitDay:
		return serialise.ToTm(serialise.Timegm(tm) + 86400)
	case field.UnitHour:
		return serialise.ToTm(serialise.Timegm(tm) + 3600)
	case field.UnitMinute:
		return serialise.ToTm(serialise.Timegm(tm) + 60)
	case field.UnitSecond:
		return serialise.ToTm(serialise.Timegm(tm) + 1)
	}
	return tm
}
