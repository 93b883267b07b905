package geo

import (
	"sort"

	"github.com/dgryski/go-farm"

	"github.com/nivalisdb/nivalis/kernel/field"
)

// Range is a closed interval of full-depth trixel ids.
type Range struct {
	Start uint64
	End   uint64
}

// trixelRange converts a trixel at the given level into its aligned
// full-depth id interval.
func trixelRange(id, level uint64) Range {
	shift := 2 * (field.HTMMaxLevel - level)
	start := id << shift
	return Range{Start: start, End: start + (1 << shift) - 1}
}

// MergeRanges sorts and unions overlapping or adjacent ranges. The union is
// idempotent: merging a set with itself yields the same set.
func MergeRanges(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Start != ranges[j].Start {
			return ranges[i].Start < ranges[j].Start
		}
		return ranges[i].End < ranges[j].End
	})
	out := ranges[:1]
	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// IdTrixels decomposes ranges back into the minimal set of aligned trixel
// ids (variable level, shifted form).
func IdTrixels(ranges []Range) []uint64 {
	var ids []uint64
	for _, r := range ranges {
		start, end := r.Start, r.End
		for start <= end {
			// Largest aligned block that starts at start and fits.
			var shift uint64
			for shift+2 <= 2*field.HTMMaxLevel {
				next := shift + 2
				if start&((1<<next)-1) != 0 {
					break
				}
				if start+(1<<next)-1 > end {
					break
				}
				shift = next
			}
			ids = append(ids, start>>shift)
			block := uint64(1) << shift
			if end-start < block {
				break
			}
			start += block
		}
	}
	return ids
}

// SerialiseRanges is the canonical value-slot encoding for a geometry: the
// merged ranges as consecutive big-endian start/end pairs.
func SerialiseRanges(ranges []Range) []byte {
	out := make([]byte, 0, len(ranges)*16)
	for _, r := range ranges {
		out = append(out, be64(r.Start)...)
		out = append(out, be64(r.End)...)
	}
	return out
}

// ParseRanges reverses SerialiseRanges.
func ParseRanges(b []byte) []Range {
	var out []Range
	for len(b) >= 16 {
		out = append(out, Range{Start: de64(b[:8]), End: de64(b[8:16])})
		b = b[16:]
	}
	return out
}

func de64(b []byte) uint64 {
	var v uint64
	for _, c := range b[:8] {
		v = v<<8 | uint64(c)
	}
	return v
}

func be64(v uint64) []byte {
	return []byte{
		byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}
}

// HashTerm derives the exact-match term for a geometry from its canonical
// range encoding.
func HashTerm(ranges []Range) uint64 {
	return farm.Fingerprint64(SerialiseRanges(ranges))
}
