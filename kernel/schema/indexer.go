package schema

import (
	"strings"
	"unicode"

	"github.com/nivalisdb/nivalis/kernel/analysis"
	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/geo"
	"github.com/nivalisdb/nivalis/kernel/index"
	"github.com/nivalisdb/nivalis/kernel/serialise"
)

// The value indexer: turns a (specification, leaf value) pair into posting
// terms, value-slot bytes and accuracy-bucket terms, over the active index
// bitset.

// indexLeaf indexes one leaf value and mirrors its normalized form into the
// stored object. arrayIdx < 0 stores a scalar, otherwise the element at
// that index is replaced in place.
func (t *traversal) indexLeaf(data map[string]interface{}, key string, arrayIdx int, value interface{}, pos int) error {
	if err := t.validateRequired(value); err != nil {
		return err
	}
	if err := t.indexItem(value, pos, t.spc); err != nil {
		return err
	}
	if err := t.indexPartialPaths(value, pos); err != nil {
		return err
	}
	if t.spc.Flags.Store {
		storeValue(data, key, arrayIdx, normalizeStored(t.spc.SepTypes.Concrete(), value))
	} else if data != nil && arrayIdx < 0 {
		delete(data, key)
	}
	return nil
}

// indexLeafCast indexes a cast-wrapped pending leaf ({_point: ...} and
// friends); the stored object keeps the cast form.
func (t *traversal) indexLeafCast(data map[string]interface{}, castType string, value interface{}) error {
	return t.indexLeafCastAt(data, ReservedValue, -2, castType, value)
}

func (t *traversal) indexLeafCastAt(data map[string]interface{}, key string, arrayIdx int, castType string, value interface{}) error {
	if geo.IsGeoCast(castType) {
		if err := t.validateRequired(value); err != nil {
			return err
		}
		shape, err := geo.ShapeFromObject(castType, value)
		if err != nil {
			return ClientErrorf("%s", err.Error())
		}
		return t.indexGeo(shape, t.spc)
	}
	if castType == "chai" {
		return NotSupportedErrorf("%s cast is only valid in %s", castType, ReservedScript)
	}
	if err := t.validateRequired(value); err != nil {
		return err
	}
	if err := t.indexItem(value, 0, t.spc); err != nil {
		return err
	}
	if err := t.indexPartialPaths(value, 0); err != nil {
		return err
	}
	if data != nil && arrayIdx != -2 {
		storeValue(data, key, arrayIdx, normalizeStored(t.spc.SepTypes.Concrete(), value))
	}
	return nil
}

// storeValue mirrors a normalized leaf into the stored object. Positional
// writes replace the element in place; scalar writes replace the raw input
// mirrored at copy time, and push when the key already accumulated an
// array.
func storeValue(data map[string]interface{}, key string, arrayIdx int, value interface{}) {
	if data == nil {
		return
	}
	if arr, ok := data[key].([]interface{}); ok {
		if arrayIdx >= 0 && arrayIdx < len(arr) {
			arr[arrayIdx] = value
		} else {
			data[key] = append(arr, value)
		}
		return
	}
	data[key] = value
}

// validateRequired completes the specification the first time a leaf value
// arrives for the field: concrete type resolution (declared, cast or
// detected), prefixes, slot, accuracy lanes and the keyword bool-term rule.
// Once complete the derived settings are mirrored into the draft schema.
func (t *traversal) validateRequired(value interface{}) error {
	spc := t.spc
	if spc.Flags.Complete {
		return nil
	}
	if spc.SepTypes.IsForeign() {
		return ClientErrorf("foreign field %q cannot carry a value", spc.FullMetaName)
	}

	newlyConcrete := !spc.Flags.Concrete
	if spc.SepTypes.Concrete() == field.Empty {
		if spc.Flags.Strict {
			return MissingTypeErrorf("%q requires an explicit type in strict mode", spc.FullMetaName)
		}
		detected, err := t.detectType(value)
		if err != nil {
			return err
		}
		spc.SepTypes[field.SpcConcrete] = detected
	}
	concrete := spc.SepTypes.Concrete()
	ct := field.CType(concrete)

	if len(spc.Prefix.Field) == 0 {
		spc.LocalPrefix.Field = fieldPrefix(spc.SchemaPath)
		spc.Prefix.Field = append([]byte(nil), spc.LocalPrefix.Field...)
	}
	if spc.Slot == BadValueNo {
		spc.Slot = slotFromPrefix(spc.Prefix.Field, ct)
	}
	if len(spc.Accuracy) == 0 {
		if def := field.DefaultAccuracy(concrete); def != nil {
			spc.Accuracy = append([]uint64(nil), def...)
		}
	}
	if len(spc.AccPrefix) != len(spc.Accuracy) {
		spc.AccPrefix = spc.AccPrefix[:0]
		for _, a := range spc.Accuracy {
			spc.AccPrefix = append(spc.AccPrefix, accPrefix(spc.Prefix.Field, a))
		}
	}

	// Keyword fields named with an uppercase character default to boolean
	// terms.
	if !spc.Flags.HasBoolTerm && concrete == field.Keyword && hasUpper(spc.MetaName) {
		spc.Flags.BoolTerm = true
		spc.Flags.HasBoolTerm = true
	}

	// Namespace lanes: one index specification per accumulated prefix.
	if spc.Flags.InsideNamespace && len(spc.PartialPrefixes) > 0 {
		spc.PartialIndexSpcs = spc.PartialIndexSpcs[:0]
		prefixes := spc.PartialPrefixes
		if !spc.Flags.PartialPaths {
			prefixes = prefixes[len(prefixes)-1:]
		}
		for _, p := range prefixes {
			spc.PartialIndexSpcs = append(spc.PartialIndexSpcs, partialIndexSpc{
				Prefix: p,
				Slot:   slotFromPrefix(p.Field, ct),
			})
		}
	}

	spc.Flags.Concrete = true
	spc.Flags.Complete = true

	if newlyConcrete && !spc.Flags.InsideNamespace {
		mut := t.s.mutable().GetMutable(spc.SchemaPath)
		c := &dctx{spc: spc}
		for _, name := range []string{
			ReservedType, ReservedPrefix, ReservedSlot, ReservedAccuracy,
			ReservedAccPrefix, ReservedBoolTerm, ReservedLanguage,
			ReservedStemLanguage, ReservedStopStrategy, ReservedStemStrategy,
			ReservedIndex, ReservedPartials, ReservedError,
		} {
			p := lookup(name)
			if p == nil || p.write == nil {
				continue
			}
			if name == ReservedPartials || name == ReservedError {
				if concrete != field.Geo {
					continue
				}
			}
			if err := p.write(c, mut); err != nil {
				return err
			}
		}
	}
	return nil
}

// detectType runs the closed, ordered detection policy over a value shape,
// honoring the detection toggles.
func (t *traversal) detectType(value interface{}) (field.FieldType, error) {
	f := t.spc.Flags
	if !f.Dynamic {
		return field.Empty, ClientErrorf("%q has no type and dynamic is off", t.spc.FullMetaName)
	}
	switch v := value.(type) {
	case bool:
		if f.BoolDetection {
			return field.Boolean, nil
		}
	case string:
		if f.UUIDDetection && looksLikeUUID(v) {
			return field.UUID, nil
		}
		if f.DatetimeDetection || f.DateDetection {
			if _, _, err := serialise.Datetime(v); err == nil {
				if strings.ContainsAny(v, "T ") && f.DatetimeDetection {
					return field.Datetime, nil
				}
				if f.DateDetection {
					return field.Date, nil
				}
				if f.DatetimeDetection {
					return field.Datetime, nil
				}
			}
		}
		if f.TimeDetection {
			if _, err := serialise.TimeValue(v); err == nil {
				return field.Time, nil
			}
		}
		if f.TimedeltaDetection {
			if _, err := serialise.TimedeltaValue(v); err == nil {
				return field.Timedelta, nil
			}
		}
		if f.BoolDetection {
			switch strings.ToLower(v) {
			case "true", "false":
				return field.Boolean, nil
			}
		}
		if f.GeoDetection && geo.IsEWKT(v) {
			return field.Geo, nil
		}
		if f.TextDetection && !t.spc.Flags.BoolTerm {
			return field.Text, nil
		}
		return field.Keyword, nil
	default:
		ft, _, err := serialise.Guess(value)
		if err == nil && field.IsNumeric(ft) {
			if f.NumericDetection {
				return ft, nil
			}
		}
	}
	return field.Empty, ClientErrorf("cannot detect type of %q", t.spc.FullMetaName)
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// indexItem dispatches one leaf over the active index bitset: field terms,
// global terms, value slots and accuracy buckets.
func (t *traversal) indexItem(value interface{}, pos int, spc *Specification) error {
	concrete := spc.SepTypes.Concrete()
	if concrete == field.Geo {
		shape, err := geoShapeFromValue(value)
		if err != nil {
			return ClientErrorf("%s", err.Error())
		}
		return t.indexGeo(shape, spc)
	}

	serialised, err := serialise.Serialise(concrete, value, spc.Flags.BoolTerm)
	if err != nil {
		return SerialisationErrorf("%q: %s", spc.FullMetaName, err.Error())
	}

	ti := spc.Index

	if ti&field.IndexFieldTerms != 0 {
		if err := t.addFieldTerms(spc, concrete, value, serialised, pos); err != nil {
			return err
		}
	}
	if ti&field.IndexGlobalTerms != 0 {
		if gspc, ok := Global(concrete); ok {
			if err := t.addFieldTerms(&gspc, concrete, value, serialised, pos); err != nil {
				return err
			}
		}
	}
	if ti&field.IndexFieldValues != 0 {
		t.doc.ValueSet(spc.Slot).Add(serialised)
		t.addAccuracyTerms(spc, concrete, value, false)
	}
	if ti&field.IndexGlobalValue != 0 {
		if gspc, ok := Global(concrete); ok {
			t.doc.ValueSet(gspc.Slot).Add(serialised)
			t.addAccuracyTerms(&gspc, concrete, value, true)
		}
	}
	return nil
}

// addFieldTerms emits posting or boolean terms for one quadrant.
func (t *traversal) addFieldTerms(spc *Specification, concrete field.FieldType, value interface{}, serialised []byte, pos int) error {
	ct := field.CType(concrete)
	prefixes := [][]byte{spc.Prefix.Field}
	if spc.Flags.HasUUIDPrefix && spc.IndexUUIDField == UUIDIndexBoth && len(spc.Prefix.UUID) > 0 {
		prefixes = append(prefixes, spc.Prefix.UUID)
	}

	switch concrete {
	case field.Text, field.String:
		text, _ := value.(string)
		gen := analysis.TermGenerator{
			Language:     spc.Language,
			StemLanguage: spc.StemLanguage,
			Stop:         spc.StopStrategy,
			Stem:         spc.StemStrategy,
			Ngram:        spc.Ngram,
			CJKNgram:     spc.CJKNgram,
			CJKWords:     spc.CJKWords,
		}
		weight := spc.WeightAt(pos)
		base := spc.PositionAt(pos)
		usePositions := spc.PositionsAt(pos)
		for _, prefix := range prefixes {
			for _, tt := range gen.Terms(text) {
				term := serialise.Prefixed([]byte(tt.Term), prefix, ct)
				if len(term) > termMaxSize {
					continue
				}
				if term == reservedTermNumericID {
					continue
				}
				if tt.Positional && (usePositions || base > 0) {
					t.doc.AddPosting(term, base+uint32(tt.Position), weight)
				} else if tt.Positional {
					t.doc.AddTerm(term, weight)
				} else {
					t.doc.AddBooleanTerm(term)
				}
			}
		}
		return nil
	default:
		for _, prefix := range prefixes {
			term := serialise.Prefixed(serialised, prefix, ct)
			if len(term) > termMaxSize {
				if concrete == field.Keyword {
					return KeywordTooLongErrorf("keyword in %q is %d bytes, max is %d", spc.FullMetaName, len(term), termMaxSize)
				}
				continue
			}
			if term == reservedTermNumericID {
				continue
			}
			if spc.Flags.BoolTerm {
				t.doc.AddBooleanTerm(term)
			} else {
				t.doc.AddPosting(term, spc.PositionAt(pos), spc.WeightAt(pos))
			}
		}
		return nil
	}
}

// addAccuracyTerms quantizes the value into every configured bucket lane.
func (t *traversal) addAccuracyTerms(spc *Specification, concrete field.FieldType, value interface{}, global bool) {
	if len(spc.Accuracy) == 0 {
		return
	}
	switch concrete {
	case field.Integer:
		if i, ok := serialise.ToInt(value); ok {
			index.Integer(t.doc, spc.Accuracy, spc.AccPrefix, i)
		}
	case field.Positive:
		if u, ok := serialise.ToUint(value); ok {
			index.Positive(t.doc, spc.Accuracy, spc.AccPrefix, u)
		}
	case field.Floating:
		if f, ok := serialise.ToFloat(value); ok {
			index.Integer(t.doc, spc.Accuracy, spc.AccPrefix, int64(f))
		}
	case field.Date, field.Datetime:
		if _, tm, err := serialise.Datetime(value); err == nil {
			index.Date(t.doc, spc.Accuracy, spc.AccPrefix, tm)
		}
	case field.Time:
		if f, err := serialise.TimeValue(value); err == nil {
			index.Integer(t.doc, spc.Accuracy, spc.AccPrefix, int64(f))
		}
	case field.Timedelta:
		if f, err := serialise.TimedeltaValue(value); err == nil {
			index.Integer(t.doc, spc.Accuracy, spc.AccPrefix, int64(f))
		}
	}
}

// indexGeo lowers a geometry to trixel ranges: the hash term, the
// range-union slot bytes and the per-level accuracy buckets.
func (t *traversal) indexGeo(shape geo.Shape, spc *Specification) error {
	ranges := shape.Ranges(spc.Flags.Partials, spc.Error)
	if len(ranges) == 0 {
		return ClientErrorf("geometry in %q covers nothing", spc.FullMetaName)
	}
	ct := field.CType(field.Geo)
	ti := spc.Index

	if ti&field.IndexFieldTerms != 0 {
		term := serialise.Prefixed(serialise.Positive(geo.HashTerm(ranges)), spc.Prefix.Field, ct)
		t.doc.AddBooleanTerm(term)
	}
	if ti&field.IndexGlobalTerms != 0 {
		if gspc, ok := Global(field.Geo); ok {
			term := serialise.Prefixed(serialise.Positive(geo.HashTerm(ranges)), gspc.Prefix.Field, ct)
			t.doc.AddBooleanTerm(term)
		}
	}
	if ti&field.IndexFieldValues != 0 {
		t.mergeGeoSlot(spc.Slot, ranges)
		index.Geo(t.doc, spc.Accuracy, spc.AccPrefix, ranges)
	}
	if ti&field.IndexGlobalValue != 0 {
		if gspc, ok := Global(field.Geo); ok {
			t.mergeGeoSlot(gspc.Slot, ranges)
			index.Geo(t.doc, gspc.Accuracy, gspc.AccPrefix, ranges)
		}
	}
	return nil
}

// mergeGeoSlot keeps the slot as a single combined element merged by range
// union, so re-indexing the same geometry is idempotent.
func (t *traversal) mergeGeoSlot(slot uint32, ranges []geo.Range) {
	vs := t.doc.ValueSet(slot)
	if vs.Len() > 0 {
		prev := geo.ParseRanges(vs.First())
		ranges = geo.MergeRanges(append(prev, ranges...))
	}
	t.doc.SetValue(slot, geo.SerialiseRanges(ranges))
}

// indexPartialPaths indexes the namespace lanes accumulated on the way
// down: the leaf value under each combined ancestor prefix.
func (t *traversal) indexPartialPaths(value interface{}, pos int) error {
	spc := t.spc
	if len(spc.PartialIndexSpcs) == 0 {
		return nil
	}
	concrete := spc.SepTypes.Concrete()
	serialised, err := serialise.Serialise(concrete, value, spc.Flags.BoolTerm)
	if err != nil {
		return nil
	}
	ct := field.CType(concrete)
	for _, pi := range spc.PartialIndexSpcs {
		if string(pi.Prefix.Field) == string(spc.Prefix.Field) {
			continue
		}
		term := serialise.Prefixed(serialised, pi.Prefix.Field, ct)
		if len(term) > termMaxSize || term == reservedTermNumericID {
			continue
		}
		t.doc.AddBooleanTerm(term)
		if spc.Index&field.IndexFieldValues != 0 {
			t.doc.ValueSet(pi.Slot).Add(serialised)
		}
	}
	return nil
}

// geoShapeFromValue interprets a raw leaf for a geo-typed field.
func geoShapeFromValue(value interface{}) (geo.Shape, error) {
	switch v := value.(type) {
	case string:
		return geo.ParseEWKT(v)
	case map[string]interface{}:
		return geo.PointFromObject(v)
	}
	return nil, ClientErrorf("%v is not a geometry", value)
}
