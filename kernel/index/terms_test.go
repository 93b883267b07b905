package index

import (
	"strings"
	"testing"

	"github.com/nivalisdb/nivalis/kernel/document"
	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/geo"
	"github.com/nivalisdb/nivalis/kernel/serialise"
)

func accPrefixes(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{'A', byte('0' + i)}
	}
	return out
}

func TestIntegerBuckets(t *testing.T) {
	doc := document.New()
	accuracy := []uint64{100, 1000}
	Integer(doc, accuracy, accPrefixes(2), 12345)

	want0 := serialise.Prefixed(serialise.Integer(12300), []byte{'A', '0'}, 'N')
	want1 := serialise.Prefixed(serialise.Integer(12000), []byte{'A', '1'}, 'N')
	if !doc.HasTerm(want0) || !doc.HasTerm(want1) {
		t.Fatalf("missing bucket terms, have %d terms", len(doc.Terms()))
	}
}

func TestIntegerBucketsNegative(t *testing.T) {
	doc := document.New()
	Integer(doc, []uint64{100}, accPrefixes(1), -150)
	// Rounded toward minus infinity: -150 - (-150 mod 100) = -200.
	want := serialise.Prefixed(serialise.Integer(-200), []byte{'A', '0'}, 'N')
	if !doc.HasTerm(want) {
		t.Fatal("negative bucket must round down")
	}
}

func TestPositiveBuckets(t *testing.T) {
	doc := document.New()
	Positive(doc, []uint64{1000}, accPrefixes(1), 123456)
	want := serialise.Prefixed(serialise.Positive(123000), []byte{'A', '0'}, 'N')
	if !doc.HasTerm(want) {
		t.Fatal("positive bucket missing")
	}
}

func TestDateBuckets(t *testing.T) {
	doc := document.New()
	_, tm, err := serialise.Datetime("2015-08-10T10:30:00")
	if err != nil {
		t.Fatal(err)
	}
	accuracy := []uint64{uint64(field.UnitHour), uint64(field.UnitCentury)}
	Date(doc, accuracy, accPrefixes(2), tm)

	hour := serialise.Timegm(serialise.NewTm(2015, 8, 10, 10))
	century := serialise.Timegm(serialise.NewTm(2000))
	wantHour := serialise.Prefixed(serialise.Floating(hour), []byte{'A', '0'}, 'D')
	wantCentury := serialise.Prefixed(serialise.Floating(century), []byte{'A', '1'}, 'D')
	if !doc.HasTerm(wantHour) {
		t.Fatal("hour bucket missing")
	}
	if !doc.HasTerm(wantCentury) {
		t.Fatal("century bucket missing")
	}
	if len(doc.Terms()) != 2 {
		t.Fatalf("want exactly 2 bucket terms, got %d", len(doc.Terms()))
	}
}

func TestGeoBuckets(t *testing.T) {
	doc := document.New()
	p := geo.Point{Lat: 19.32, Lon: -99.55}
	ranges := p.Ranges(true, 0.3)
	accuracy := []uint64{10, 15}
	Geo(doc, accuracy, accPrefixes(2), ranges)

	var lane0, lane1 int
	for _, term := range doc.Terms() {
		if strings.HasPrefix(term, string([]byte{'A', '0'})) {
			lane0++
		}
		if strings.HasPrefix(term, string([]byte{'A', '1'})) {
			lane1++
		}
	}
	if lane0 != 1 || lane1 != 1 {
		t.Fatalf("point should emit one term per lane, got %d and %d", lane0, lane1)
	}
}

func TestDateRangeTerms(t *testing.T) {
	start := serialise.Timegm(serialise.NewTm(2015, 8, 10))
	end := serialise.Timegm(serialise.NewTm(2015, 8, 12))
	accuracy := []uint64{uint64(field.UnitDay), uint64(field.UnitMonth)}
	rt := DateRangeTerms(start, end, accuracy, accPrefixes(2))
	if rt == nil {
		t.Fatal("range terms expected")
	}
	// Day lane matches the needed accuracy, month is the upper lane.
	if len(rt.Groups) != 2 {
		t.Fatalf("want 2 groups, got %d", len(rt.Groups))
	}
	if rt == nil || len(rt.Groups[1]) != 3 {
		t.Fatalf("day lane should carry 3 terms, got %d", len(rt.Groups[1]))
	}
	if DateRangeTerms(end, start, accuracy, accPrefixes(2)) != nil {
		t.Fatal("inverted interval must yield nothing")
	}
}
