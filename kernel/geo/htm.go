package geo

import (
	"math"

	"github.com/nivalisdb/nivalis/kernel/field"
)

// Hierarchical Triangular Mesh. A trixel id carries four root bits (8..15)
// plus two bits per refinement level; ids at level HTMMaxLevel are
// HTMBitsID bits wide.

var htmVertices = [6]Cartesian{
	{0, 0, 1},
	{1, 0, 0},
	{0, 1, 0},
	{-1, 0, 0},
	{0, -1, 0},
	{0, 0, -1},
}

type trixel struct {
	id         uint64
	level      uint64
	v0, v1, v2 Cartesian
}

var htmRoots = [8]trixel{
	{id: 8, v0: htmVertices[1], v1: htmVertices[5], v2: htmVertices[2]},  // S0
	{id: 9, v0: htmVertices[2], v1: htmVertices[5], v2: htmVertices[3]},  // S1
	{id: 10, v0: htmVertices[3], v1: htmVertices[5], v2: htmVertices[4]}, // S2
	{id: 11, v0: htmVertices[4], v1: htmVertices[5], v2: htmVertices[1]}, // S3
	{id: 12, v0: htmVertices[1], v1: htmVertices[0], v2: htmVertices[4]}, // N0
	{id: 13, v0: htmVertices[4], v1: htmVertices[0], v2: htmVertices[3]}, // N1
	{id: 14, v0: htmVertices[3], v1: htmVertices[0], v2: htmVertices[2]}, // N2
	{id: 15, v0: htmVertices[2], v1: htmVertices[0], v2: htmVertices[1]}, // N3
}

func (t trixel) children() [4]trixel {
	w0 := mid(t.v1, t.v2)
	w1 := mid(t.v0, t.v2)
	w2 := mid(t.v0, t.v1)
	return [4]trixel{
		{id: t.id << 2, level: t.level + 1, v0: t.v0, v1: w2, v2: w1},
		{id: t.id<<2 | 1, level: t.level + 1, v0: t.v1, v1: w0, v2: w2},
		{id: t.id<<2 | 2, level: t.level + 1, v0: t.v2, v1: w1, v2: w0},
		{id: t.id<<2 | 3, level: t.level + 1, v0: w0, v1: w1, v2: w2},
	}
}

// contains tests point membership by the sign of the cross products with each
// directed edge.
func (t trixel) contains(p Cartesian) bool {
	const eps = -1e-12
	if t.v0.Cross(t.v1).Dot(p) < eps {
		return false
	}
	if t.v1.Cross(t.v2).Dot(p) < eps {
		return false
	}
	if t.v2.Cross(t.v0).Dot(p) < eps {
		return false
	}
	return true
}

// boundingArc is the angular radius of a cap centered on the trixel centroid
// that covers the whole trixel.
func (t trixel) bounding() (Cartesian, float64) {
	center := t.v0.Add(t.v1).Add(t.v2).Unit()
	d := math.Min(center.Dot(t.v0), math.Min(center.Dot(t.v1), center.Dot(t.v2)))
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return center, math.Acos(d)
}

// PointTrixel returns the full-depth trixel id containing p.
func PointTrixel(p Cartesian) uint64 {
	p = p.Unit()
	for _, root := range htmRoots {
		if !root.contains(p) {
			continue
		}
		t := root
		for t.level < field.HTMMaxLevel {
			next := t
			found := false
			for _, ch := range t.children() {
				if ch.contains(p) {
					next = ch
					found = true
					break
				}
			}
			if !found {
				// Numeric edge case between sibling borders: take the
				// center child.
				next = t.children()[3]
			}
			t = next
		}
		return t.id
	}
	// Unreachable for unit vectors; return the first root fully descended.
	id := htmRoots[0].id
	for i := 0; i < field.HTMMaxLevel; i++ {
		id <<= 2
	}
	return id
}

type coverStatus int

const (
	coverOutside coverStatus = iota
	coverPartial
	coverFull
)

// convexStatus classifies a trixel against an intersection of caps.
func convexStatus(t trixel, caps []Constraint) coverStatus {
	inside := 0
	for _, c := range caps {
		n := 0
		if c.Contains(t.v0) {
			n++
		}
		if c.Contains(t.v1) {
			n++
		}
		if c.Contains(t.v2) {
			n++
		}
		if n == 3 {
			inside++
			continue
		}
		// Reject when the cap and the trixel bounding cap are disjoint.
		center, arc := t.bounding()
		dist := math.Acos(clamp(center.Dot(c.Center)))
		if n == 0 && dist > arc+c.Arcangle {
			return coverOutside
		}
	}
	if inside == len(caps) {
		return coverFull
	}
	return coverPartial
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// coverConvex collects trixels covering the intersection of caps, descending
// to maxLevel. Partially covered terminal trixels are kept only when partials
// is set.
func coverConvex(caps []Constraint, maxLevel uint64, partials bool) []Range {
	if maxLevel > field.HTMMaxLevel {
		maxLevel = field.HTMMaxLevel
	}
	var ranges []Range
	var descend func(t trixel)
	descend = func(t trixel) {
		switch convexStatus(t, caps) {
		case coverOutside:
			return
		case coverFull:
			ranges = append(ranges, trixelRange(t.id, t.level))
		case coverPartial:
			if t.level >= maxLevel {
				if partials {
					ranges = append(ranges, trixelRange(t.id, t.level))
				}
				return
			}
			for _, ch := range t.children() {
				descend(ch)
			}
		}
	}
	for _, root := range htmRoots {
		descend(root)
	}
	return MergeRanges(ranges)
}

// levelForError picks the descent depth for a cap of the given arc angle so
// terminal trixels stay below the error fraction of the radius.
func levelForError(arcangle, errorPct float64) uint64 {
	if errorPct <= 0 {
		errorPct = 0.3
	} else if errorPct > 1 {
		errorPct = 1
	}
	target := arcangle * errorPct
	if target <= 0 {
		return field.HTMMaxLevel
	}
	// Root trixels subtend roughly pi/2; each level halves the size.
	size := math.Pi / 2
	var level uint64
	for level < field.HTMMaxLevel && size > target {
		size /= 2
		level++
	}
	return level
}
