package index

import (
	"math/bits"

	"github.com/nivalisdb/nivalis/kernel/document"
	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/geo"
	"github.com/nivalisdb/nivalis/kernel/serialise"
)

// Accuracy-bucket term emission. These helpers are the sole authority for
// bucket terms; the per-field and global quadrants both go through them.

var (
	ctypeInteger = field.CType(field.Integer)
	ctypeDate    = field.CType(field.Datetime)
	ctypeGeo     = field.CType(field.Geo)
)

func modulus(v int64, acc uint64) int64 {
	m := v % int64(acc)
	if m < 0 {
		m += int64(acc)
	}
	return m
}

// Integer emits one bucket term per accuracy entry: the value rounded down
// to the bucket magnitude.
func Integer(doc *document.Document, accuracy []uint64, accPrefix [][]byte, value int64) {
	for i, acc := range accuracy {
		if i >= len(accPrefix) {
			break
		}
		term := serialise.Integer(value - modulus(value, acc))
		doc.AddBooleanTerm(serialise.Prefixed(term, accPrefix[i], ctypeInteger))
	}
}

// IntegerGlobal is Integer with the parallel global prefixes.
func IntegerGlobal(doc *document.Document, accuracy []uint64, accPrefix, accGlobalPrefix [][]byte, value int64) {
	for i, acc := range accuracy {
		if i >= len(accPrefix) || i >= len(accGlobalPrefix) {
			break
		}
		term := serialise.Integer(value - modulus(value, acc))
		doc.AddBooleanTerm(serialise.Prefixed(term, accPrefix[i], ctypeInteger))
		doc.AddBooleanTerm(serialise.Prefixed(term, accGlobalPrefix[i], ctypeInteger))
	}
}

// Positive emits bucket terms for the unsigned value space.
func Positive(doc *document.Document, accuracy []uint64, accPrefix [][]byte, value uint64) {
	for i, acc := range accuracy {
		if i >= len(accPrefix) {
			break
		}
		term := serialise.Positive(value - value%acc)
		doc.AddBooleanTerm(serialise.Prefixed(term, accPrefix[i], ctypeInteger))
	}
}

// PositiveGlobal is Positive with the parallel global prefixes.
func PositiveGlobal(doc *document.Document, accuracy []uint64, accPrefix, accGlobalPrefix [][]byte, value uint64) {
	for i, acc := range accuracy {
		if i >= len(accPrefix) || i >= len(accGlobalPrefix) {
			break
		}
		term := serialise.Positive(value - value%acc)
		doc.AddBooleanTerm(serialise.Prefixed(term, accPrefix[i], ctypeInteger))
		doc.AddBooleanTerm(serialise.Prefixed(term, accGlobalPrefix[i], ctypeInteger))
	}
}

// truncateTm reduces the broken-down time to the coarsest field of the unit.
func truncateTm(tm serialise.Tm, unit field.UnitTime) serialise.Tm {
	switch unit {
	case field.UnitMillennium:
		return serialise.NewTm(yearFloor(tm.Year, 1000))
	case field.UnitCentury:
		return serialise.NewTm(yearFloor(tm.Year, 100))
	case field.UnitDecade:
		return serialise.NewTm(yearFloor(tm.Year, 10))
	case field.UnitYear:
		return serialise.NewTm(tm.Year)
	case field.UnitMonth:
		return serialise.NewTm(tm.Year, tm.Mon)
	case field.UnitDay:
		return serialise.NewTm(tm.Year, tm.Mon, tm.Day)
	case field.UnitHour:
		return serialise.NewTm(tm.Year, tm.Mon, tm.Day, tm.Hour)
	case field.UnitMinute:
		return serialise.NewTm(tm.Year, tm.Mon, tm.Day, tm.Hour, tm.Min)
	case field.UnitSecond:
		return serialise.NewTm(tm.Year, tm.Mon, tm.Day, tm.Hour, tm.Min, tm.Sec)
	}
	return tm
}

func yearFloor(year, span int) int {
	y := year - year%span
	if year < 0 && year%span != 0 {
		y -= span
	}
	return y
}

// Date emits one bucket term per unit: the timestamp truncated to that unit.
func Date(doc *document.Document, accuracy []uint64, accPrefix [][]byte, tm serialise.Tm) {
	for i, acc := range accuracy {
		if i >= len(accPrefix) {
			break
		}
		unit := field.UnitTime(acc)
		if !field.ValidateAccDate(unit) {
			continue
		}
		term := serialise.Floating(serialise.Timegm(truncateTm(tm, unit)))
		doc.AddBooleanTerm(serialise.Prefixed(term, accPrefix[i], ctypeDate))
	}
}

// DateGlobal is Date with the parallel global prefixes.
func DateGlobal(doc *document.Document, accuracy []uint64, accPrefix, accGlobalPrefix [][]byte, tm serialise.Tm) {
	for i, acc := range accuracy {
		if i >= len(accPrefix) || i >= len(accGlobalPrefix) {
			break
		}
		unit := field.UnitTime(acc)
		if !field.ValidateAccDate(unit) {
			continue
		}
		term := serialise.Floating(serialise.Timegm(truncateTm(tm, unit)))
		doc.AddBooleanTerm(serialise.Prefixed(term, accPrefix[i], ctypeDate))
		doc.AddBooleanTerm(serialise.Prefixed(term, accGlobalPrefix[i], ctypeDate))
	}
}

// geoBuckets maps accuracy positions to the distinct truncated trixel ids of
// a covering. Levels are HTM levels ascending; a trixel contributes to every
// bucket at least as coarse as itself.
func geoBuckets(accuracy []uint64, ranges []geo.Range) map[int]map[uint64]struct{} {
	buckets := make(map[int]map[uint64]struct{})
	for _, id := range geo.IdTrixels(ranges) {
		// Shift needed to align this trixel id to full depth.
		pad := uint64(bits.LeadingZeros64(id)) - (64 - field.HTMBitsID)
		pad &^= 1 // ids grow two bits per level
		val := id << pad
		// Coarse to fine: once a level is finer than this trixel it cannot
		// contain it, and neither can any deeper level.
		for i := 0; i < len(accuracy); i++ {
			shift := field.AccShift(accuracy[i])
			if shift < pad {
				break
			}
			set, ok := buckets[i]
			if !ok {
				set = make(map[uint64]struct{})
				buckets[i] = set
			}
			set[val>>shift] = struct{}{}
		}
	}
	return buckets
}

// Geo emits bucket terms for every accuracy level covering the geometry.
func Geo(doc *document.Document, accuracy []uint64, accPrefix [][]byte, ranges []geo.Range) {
	for pos, set := range geoBuckets(accuracy, ranges) {
		if pos >= len(accPrefix) {
			continue
		}
		for id := range set {
			doc.AddBooleanTerm(serialise.Prefixed(serialise.Positive(id), accPrefix[pos], ctypeGeo))
		}
	}
}

// GeoGlobal is Geo with the parallel global prefixes.
func GeoGlobal(doc *document.Document, accuracy []uint64, accPrefix, accGlobalPrefix [][]byte, ranges []geo.Range) {
	for pos, set := range geoBuckets(accuracy, ranges) {
		if pos >= len(accPrefix) || pos >= len(accGlobalPrefix) {
			continue
		}
		for id := range set {
			term := serialise.Positive(id)
			doc.AddBooleanTerm(serialise.Prefixed(term, accPrefix[pos], ctypeGeo))
			doc.AddBooleanTerm(serialise.Prefixed(term, accGlobalPrefix[pos], ctypeGeo))
		}
	}
}
