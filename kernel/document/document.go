package document

import (
	"sort"
)

// TermInfo carries the within-document frequency and positions of one term.
type TermInfo struct {
	WDF       uint32
	Positions []uint32
}

// Document accumulates the index artifact for a single input object: posting
// terms, boolean terms and per-slot value sets. It is owned by one indexing
// worker and never shared.
type Document struct {
	terms  map[string]*TermInfo
	order  []string
	values map[uint32]*ValueSet
	data   []byte
}

func New() *Document {
	return &Document{
		terms:  make(map[string]*TermInfo),
		values: make(map[uint32]*ValueSet),
	}
}

// AddTerm adds a term without position; weight accumulates into the wdf.
func (d *Document) AddTerm(term string, weight uint32) {
	ti, ok := d.terms[term]
	if !ok {
		ti = &TermInfo{}
		d.terms[term] = ti
		d.order = append(d.order, term)
	}
	ti.WDF += weight
}

// AddPosting adds a term occurrence at a position.
func (d *Document) AddPosting(term string, pos uint32, weight uint32) {
	ti, ok := d.terms[term]
	if !ok {
		ti = &TermInfo{}
		d.terms[term] = ti
		d.order = append(d.order, term)
	}
	ti.WDF += weight
	ti.Positions = append(ti.Positions, pos)
}

// AddBooleanTerm adds a term with no position and no weight.
func (d *Document) AddBooleanTerm(term string) {
	if _, ok := d.terms[term]; !ok {
		d.terms[term] = &TermInfo{}
		d.order = append(d.order, term)
	}
}

// HasTerm reports whether the term was added in any form.
func (d *Document) HasTerm(term string) bool {
	_, ok := d.terms[term]
	return ok
}

// Terms returns the added terms in insertion order.
func (d *Document) Terms() []string {
	return d.order
}

// Term returns the info for a term, nil when absent.
func (d *Document) Term(term string) *TermInfo {
	return d.terms[term]
}

// Values returns the populated slots in ascending order.
func (d *Document) Values() []uint32 {
	slots := make([]uint32, 0, len(d.values))
	for s := range d.values {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// ValueSet returns the accumulator for a slot, creating it when needed.
func (d *Document) ValueSet(slot uint32) *ValueSet {
	vs, ok := d.values[slot]
	if !ok {
		vs = &ValueSet{}
		d.values[slot] = vs
	}
	return vs
}

// Value joins the accumulated set for a slot into the canonical slot bytes.
func (d *Document) Value(slot uint32) []byte {
	vs, ok := d.values[slot]
	if !ok {
		return nil
	}
	return vs.Join()
}

// SetValue replaces the slot content with a single pre-joined encoding; used
// by geospatial range-union accumulation.
func (d *Document) SetValue(slot uint32, value []byte) {
	vs := d.ValueSet(slot)
	vs.entries = []string{string(value)}
	vs.seen = map[string]struct{}{string(value): {}}
}

// SetData attaches the stored payload.
func (d *Document) SetData(data []byte) {
	d.data = data
}

func (d *Document) Data() []byte {
	return d.data
}

// ValueSet is an insertion-ordered set of serialised values.
type ValueSet struct {
	entries []string
	seen    map[string]struct{}
}

// Add inserts a serialised value, ignoring duplicates.
func (v *ValueSet) Add(value []byte) {
	if v.seen == nil {
		v.seen = make(map[string]struct{})
	}
	s := string(value)
	if _, ok := v.seen[s]; ok {
		return
	}
	v.seen[s] = struct{}{}
	v.entries = append(v.entries, s)
}

// Len returns the number of distinct values.
func (v *ValueSet) Len() int {
	return len(v.entries)
}

// First returns the first entry, empty when the set is empty.
func (v *ValueSet) First() []byte {
	if len(v.entries) == 0 {
		return nil
	}
	return []byte(v.entries[0])
}

// Join renders the canonical slot bytes: each entry length-prefixed so the
// encoding is unambiguous for multi-valued slots.
func (v *ValueSet) Join() []byte {
	if len(v.entries) == 1 {
		return []byte(v.entries[0])
	}
	var out []byte
	for _, e := range v.entries {
		out = appendLength(out, uint64(len(e)))
		out = append(out, e...)
	}
	return out
}

func appendLength(b []byte, n uint64) []byte {
	for n >= 0x80 {
		b = append(b, byte(n)|0x80)
		n >>= 7
	}
	return append(b, byte(n))
}
