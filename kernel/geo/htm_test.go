package geo

import (
	"math/bits"
	"testing"

	"github.com/nivalisdb/nivalis/kernel/field"
)

func TestPointTrixelDepth(t *testing.T) {
	points := []Point{
		{Lat: 0, Lon: 0},
		{Lat: 19.32, Lon: -99.55},
		{Lat: -45, Lon: 170},
		{Lat: 89.9, Lon: 10},
		{Lat: -89.9, Lon: -10},
	}
	for _, p := range points {
		id := PointTrixel(FromLatLon(p.Lat, p.Lon))
		used := 64 - bits.LeadingZeros64(id)
		if used != field.HTMBitsID {
			t.Fatalf("point %+v trixel id has %d bits, want %d", p, used, field.HTMBitsID)
		}
	}
}

func TestPointTrixelStable(t *testing.T) {
	p := FromLatLon(19.32, -99.55)
	a := PointTrixel(p)
	b := PointTrixel(p)
	if a != b {
		t.Fatal("trixel lookup must be deterministic")
	}
}

func TestMergeRangesIdempotent(t *testing.T) {
	rs := []Range{{Start: 10, End: 20}, {Start: 40, End: 50}, {Start: 21, End: 25}}
	merged := MergeRanges(append([]Range(nil), rs...))
	if len(merged) != 2 {
		t.Fatalf("merge got %v", merged)
	}
	if merged[0] != (Range{Start: 10, End: 25}) || merged[1] != (Range{Start: 40, End: 50}) {
		t.Fatalf("merge got %v", merged)
	}
	again := MergeRanges(append(append([]Range(nil), merged...), merged...))
	if len(again) != len(merged) || again[0] != merged[0] || again[1] != merged[1] {
		t.Fatalf("merge not idempotent: %v", again)
	}
}

func TestSerialiseRangesRoundTrip(t *testing.T) {
	rs := []Range{{Start: 1, End: 5}, {Start: 1 << 50, End: 1<<50 + 9}}
	got := ParseRanges(SerialiseRanges(rs))
	if len(got) != len(rs) || got[0] != rs[0] || got[1] != rs[1] {
		t.Fatalf("round trip got %v", got)
	}
}

func TestIdTrixelsAligned(t *testing.T) {
	// A full trixel block decomposes to a single id.
	id := uint64(9)
	r := trixelRange(id, 0)
	ids := IdTrixels([]Range{r})
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("aligned block got %v", ids)
	}
}

func TestCircleRanges(t *testing.T) {
	c := Circle{Center: Point{Lat: 19.32, Lon: -99.55}, Radius: 1000}
	rs := c.Ranges(true, 0.3)
	if len(rs) == 0 {
		t.Fatal("circle must cover something")
	}
	// The circle covering must contain its own center.
	center := PointTrixel(FromLatLon(19.32, -99.55))
	found := false
	for _, r := range rs {
		if center >= r.Start && center <= r.End {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("circle covering misses its center")
	}
	// Range union is idempotent.
	again := MergeRanges(append(append([]Range(nil), rs...), rs...))
	if len(again) != len(rs) {
		t.Fatalf("geo accumulation not idempotent: %d vs %d", len(again), len(rs))
	}
}

func TestPolygonRanges(t *testing.T) {
	poly := Polygon{Vertices: []Point{
		{Lat: 10, Lon: 10},
		{Lat: 10, Lon: 20},
		{Lat: 20, Lon: 20},
		{Lat: 20, Lon: 10},
	}}
	rs := poly.Ranges(true, 0.3)
	if len(rs) == 0 {
		t.Fatal("polygon must cover something")
	}
	inside := PointTrixel(FromLatLon(15, 15))
	found := false
	for _, r := range rs {
		if inside >= r.Start && inside <= r.End {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("polygon covering misses an inner point")
	}
}

func TestEWKTParse(t *testing.T) {
	cases := []string{
		"POINT(-99.55 19.32)",
		"SRID=4326;POINT(-99.55 19.32)",
		"CIRCLE(-99.55 19.32, 1000)",
		"POLYGON((10 10, 20 10, 20 20, 10 20))",
		"MULTIPOINT(10 10, 20 20)",
		"GEOMETRYCOLLECTION(POINT(1 1), CIRCLE(2 2, 500))",
		"GEOMETRYINTERSECTION(CIRCLE(2 2, 50000), CIRCLE(2.1 2.1, 50000))",
	}
	for _, c := range cases {
		s, err := ParseEWKT(c)
		if err != nil {
			t.Fatalf("parse %q: %v", c, err)
		}
		if s == nil {
			t.Fatalf("parse %q returned nothing", c)
		}
	}
	for _, c := range []string{"POINT(1)", "SRID=900913;POINT(1 1)", "TRIANGLE(1 1)"} {
		if _, err := ParseEWKT(c); err == nil {
			t.Fatalf("parse %q should fail", c)
		}
	}
}

func TestShapeFromObject(t *testing.T) {
	p, err := ShapeFromObject("point", map[string]interface{}{"_latitude": 19.32, "_longitude": -99.55})
	if err != nil {
		t.Fatal(err)
	}
	if pt, ok := p.(Point); !ok || pt.Lat != 19.32 {
		t.Fatalf("point object got %#v", p)
	}
	if _, err := ShapeFromObject("point", map[string]interface{}{"_longitude": 1.0}); err == nil {
		t.Fatal("point without latitude should fail")
	}
	if _, err := ShapeFromObject("circle", map[string]interface{}{"_latitude": 1.0, "_longitude": 1.0}); err == nil {
		t.Fatal("circle without radius should fail")
	}
}
