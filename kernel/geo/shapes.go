package geo

import (
	"fmt"
	"math"
	"sort"
)

// Shape is any geometry that can be lowered to a set of trixel ranges.
type Shape interface {
	// Ranges computes the covering trixel ranges. partials keeps terminal
	// trixels only partly covered; errorPct bounds the descent depth for
	// curved shapes.
	Ranges(partials bool, errorPct float64) []Range
}

// Point is a single location.
type Point struct {
	Lat, Lon float64
	Height   float64
}

func (p Point) Ranges(bool, float64) []Range {
	id := PointTrixel(FromLatLon(p.Lat, p.Lon))
	return []Range{{Start: id, End: id}}
}

// Circle is a cap with a metric radius.
type Circle struct {
	Center Point
	Radius float64 // meters
}

func (c Circle) Ranges(partials bool, errorPct float64) []Range {
	cons := NewConstraint(FromLatLon(c.Center.Lat, c.Center.Lon), c.Radius)
	level := levelForError(cons.Arcangle, errorPct)
	return coverConvex([]Constraint{cons}, level, partials)
}

// Convex is an explicit intersection of caps.
type Convex struct {
	Circles []Circle
}

func (c Convex) Ranges(partials bool, errorPct float64) []Range {
	if len(c.Circles) == 0 {
		return nil
	}
	caps := make([]Constraint, 0, len(c.Circles))
	minArc := math.Pi
	for _, ci := range c.Circles {
		cons := NewConstraint(FromLatLon(ci.Center.Lat, ci.Center.Lon), ci.Radius)
		if cons.Arcangle < minArc {
			minArc = cons.Arcangle
		}
		caps = append(caps, cons)
	}
	return coverConvex(caps, levelForError(minArc, errorPct), partials)
}

// Polygon is a convex polygon given as a ring of vertices.
type Polygon struct {
	Vertices []Point
}

func (p Polygon) Ranges(partials bool, errorPct float64) []Range {
	caps, arc, err := polygonConstraints(p.Vertices)
	if err != nil {
		return nil
	}
	return coverConvex(caps, levelForError(arc, errorPct), partials)
}

// Chull is the convex hull of a point cloud.
type Chull struct {
	Points []Point
}

func (c Chull) Ranges(partials bool, errorPct float64) []Range {
	hull := convexHull(c.Points)
	return Polygon{Vertices: hull}.Ranges(partials, errorPct)
}

// MultiShape unions the coverings of its members; also the form behind
// _multipoint, _multicircle, _multipolygon, _multichull and _geo_collection.
type MultiShape struct {
	Shapes []Shape
}

func (m MultiShape) Ranges(partials bool, errorPct float64) []Range {
	var all []Range
	for _, s := range m.Shapes {
		all = append(all, s.Ranges(partials, errorPct)...)
	}
	return MergeRanges(all)
}

// Intersection keeps only the ranges common to every member.
type Intersection struct {
	Shapes []Shape
}

func (i Intersection) Ranges(partials bool, errorPct float64) []Range {
	if len(i.Shapes) == 0 {
		return nil
	}
	acc := i.Shapes[0].Ranges(partials, errorPct)
	for _, s := range i.Shapes[1:] {
		acc = intersectRanges(acc, s.Ranges(partials, errorPct))
		if len(acc) == 0 {
			return nil
		}
	}
	return acc
}

func intersectRanges(a, b []Range) []Range {
	var out []Range
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := a[i].Start
		if b[j].Start > lo {
			lo = b[j].Start
		}
		hi := a[i].End
		if b[j].End < hi {
			hi = b[j].End
		}
		if lo <= hi {
			out = append(out, Range{Start: lo, End: hi})
		}
		if a[i].End < b[j].End {
			i++
		} else {
			j++
		}
	}
	return out
}

// polygonConstraints converts a vertex ring into great-circle halfspace
// constraints. Vertices may come in either winding; the centroid picks the
// inward side.
func polygonConstraints(vertices []Point) ([]Constraint, float64, error) {
	if len(vertices) < 3 {
		return nil, 0, fmt.Errorf("polygon needs at least 3 vertices")
	}
	vs := make([]Cartesian, len(vertices))
	centroid := Cartesian{}
	for i, v := range vertices {
		vs[i] = FromLatLon(v.Lat, v.Lon)
		centroid = centroid.Add(vs[i])
	}
	centroid = centroid.Unit()

	caps := make([]Constraint, 0, len(vs))
	maxArc := 0.0
	for i := range vs {
		a := vs[i]
		b := vs[(i+1)%len(vs)]
		n := a.Cross(b).Unit()
		if n.Norm() == 0 {
			continue
		}
		if n.Dot(centroid) < 0 {
			n = Cartesian{X: -n.X, Y: -n.Y, Z: -n.Z}
		}
		caps = append(caps, Constraint{Center: n, Arcangle: math.Pi / 2})
		arc := math.Acos(clamp(centroid.Dot(a)))
		if arc > maxArc {
			maxArc = arc
		}
	}
	if len(caps) < 3 {
		return nil, 0, fmt.Errorf("degenerate polygon")
	}
	return caps, maxArc, nil
}

// convexHull orders the points around their spherical centroid; enough for
// the hull of a cloud confined to a hemisphere.
func convexHull(points []Point) []Point {
	if len(points) <= 3 {
		return points
	}
	centroid := Cartesian{}
	vs := make([]Cartesian, len(points))
	for i, p := range points {
		vs[i] = FromLatLon(p.Lat, p.Lon)
		centroid = centroid.Add(vs[i])
	}
	centroid = centroid.Unit()

	// Build a tangent frame at the centroid.
	ref := Cartesian{X: 0, Y: 0, Z: 1}
	if math.Abs(centroid.Z) > 0.9 {
		ref = Cartesian{X: 1, Y: 0, Z: 0}
	}
	e1 := centroid.Cross(ref).Unit()
	e2 := centroid.Cross(e1).Unit()

	type angled struct {
		p   Point
		ang float64
	}
	out := make([]angled, len(points))
	for i, p := range points {
		out[i] = angled{p: p, ang: math.Atan2(vs[i].Dot(e2), vs[i].Dot(e1))}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ang < out[j].ang })
	hull := make([]Point, len(out))
	for i, a := range out {
		hull[i] = a.p
	}
	return hull
}
