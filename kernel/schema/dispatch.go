package schema

import (
	"fmt"
	"strings"

	"github.com/nivalisdb/nivalis/kernel/analysis"
	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/serialise"
)

// Keyword-driven dispatch. Every reserved keyword resolves, through its
// 32-bit hash, to exactly one handler per phase:
//
//	feed        populate the specification from persisted schema values
//	process     apply user-supplied abstract properties (pre-concrete)
//	concrete    properties valid only once the type is fixed
//	write       mirror the accepted value into the mutable schema
//	consistency verify a user value matches the locked persisted one
type property struct {
	name        string
	feed        func(c *dctx, v interface{}) error
	process     func(c *dctx, v interface{}) error
	concrete    bool
	write       func(c *dctx, mut Properties) error
	consistency func(c *dctx, v interface{}) error
}

// dctx is the dispatch context for one schema node.
type dctx struct {
	spc *Specification
}

func (c *dctx) corrupt(key, format string, args ...interface{}) error {
	return SchemaCorruptf(c.spc.FullMetaName, "%s: %s", key, fmt.Sprintf(format, args...))
}

func (c *dctx) change(key string) error {
	if c.spc.FullMetaName != "" {
		return ClientErrorf("It is not allowed to change %s in %s", key, c.spc.FullMetaName)
	}
	return ClientErrorf("It is not allowed to change %s", key)
}

// Coercions. The feed plane tolerates nothing: malformed persisted values
// raise corruption; the process plane raises client errors.

func asBool(v interface{}) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asUint(v interface{}) (uint64, bool) {
	return serialise.ToUint(v)
}

func asUintList(v interface{}) ([]uint64, bool) {
	switch x := v.(type) {
	case []interface{}:
		out := make([]uint64, 0, len(x))
		for _, e := range x {
			u, ok := serialise.ToUint(e)
			if !ok {
				return nil, false
			}
			out = append(out, u)
		}
		return out, true
	default:
		u, ok := serialise.ToUint(v)
		if !ok {
			return nil, false
		}
		return []uint64{u}, true
	}
}

func asUint32List(v interface{}) ([]uint32, bool) {
	us, ok := asUintList(v)
	if !ok {
		return nil, false
	}
	out := make([]uint32, len(us))
	for i, u := range us {
		if u > 0xFFFFFFFF {
			return nil, false
		}
		out[i] = uint32(u)
	}
	return out, true
}

func asBoolList(v interface{}) ([]bool, bool) {
	switch x := v.(type) {
	case []interface{}:
		out := make([]bool, 0, len(x))
		for _, e := range x {
			b, ok := e.(bool)
			if !ok {
				return nil, false
			}
			out = append(out, b)
		}
		return out, true
	case bool:
		return []bool{x}, true
	}
	return nil, false
}

func asBytesList(v interface{}) ([][]byte, bool) {
	switch x := v.(type) {
	case []interface{}:
		out := make([][]byte, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, []byte(s))
		}
		return out, true
	case string:
		return [][]byte{[]byte(x)}, true
	}
	return nil, false
}

// parseAccuracy normalizes a user accuracy list for the concrete type:
// numeric magnitudes, date units (names or seconds), HTM levels.
func parseAccuracy(t field.FieldType, v interface{}) ([]uint64, error) {
	list, ok := v.([]interface{})
	if !ok {
		list = []interface{}{v}
	}
	var out []uint64
	switch t {
	case field.Date, field.Datetime, field.Time, field.Timedelta:
		for _, e := range list {
			u, err := field.ParseUnitTime(normNumber(e))
			if err != nil {
				return nil, ClientErrorf("%s", err.Error())
			}
			out = append(out, uint64(u))
		}
	case field.Geo:
		for _, e := range list {
			u, ok := serialise.ToUint(e)
			if !ok || u > field.HTMMaxLevel {
				return nil, ClientErrorf("%v is not a valid HTM level", e)
			}
			out = append(out, u)
		}
	case field.Integer, field.Positive, field.Floating, field.Empty:
		for _, e := range list {
			u, ok := serialise.ToUint(e)
			if !ok || u == 0 {
				return nil, ClientErrorf("%v is not a valid accuracy", e)
			}
			out = append(out, u)
		}
	default:
		return nil, ClientErrorf("%s does not support accuracy", t)
	}
	return out, nil
}

func normNumber(v interface{}) interface{} {
	if u, ok := serialise.ToUint(v); ok {
		return u
	}
	return v
}

func uintsEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// properties is the single dispatch table, keyed by keyword hash.
var properties = map[uint32]*property{}

func register(p *property) {
	h := hashKeyword(p.name)
	if _, dup := properties[h]; dup {
		panic(fmt.Sprintf("keyword hash collision on %q", p.name))
	}
	properties[h] = p
}

func lookup(name string) *property {
	p, ok := properties[hashKeyword(name)]
	if !ok || p.name != name {
		return nil
	}
	return p
}

func init() {
	register(&property{
		name: ReservedType,
		feed: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return c.corrupt(ReservedType, "%v is not a string", v)
			}
			t, err := field.ParseType(s)
			if err != nil {
				return c.corrupt(ReservedType, "%s", err.Error())
			}
			c.spc.SepTypes = t
			if t.Concrete() != field.Empty {
				c.spc.Flags.Concrete = true
			}
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return ClientErrorf("%s must be a string", ReservedType)
			}
			t, err := field.ParseType(s)
			if err != nil {
				return ClientErrorf("%s", err.Error())
			}
			c.spc.SepTypes = t
			c.spc.Flags.FieldWithType = true
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			mut[ReservedType] = c.spc.SepTypes.String()
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return ClientErrorf("%s must be a string", ReservedType)
			}
			t, err := field.ParseType(s)
			if err != nil {
				return ClientErrorf("%s", err.Error())
			}
			if t != c.spc.SepTypes {
				return c.change(ReservedType)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedPrefix,
		feed: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return c.corrupt(ReservedPrefix, "%v is not a string", v)
			}
			c.spc.LocalPrefix.Field = []byte(s)
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return ClientErrorf("%s must be a string", ReservedPrefix)
			}
			c.spc.LocalPrefix.Field = []byte(s)
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			mut[ReservedPrefix] = string(c.spc.LocalPrefix.Field)
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return ClientErrorf("%s must be a string", ReservedPrefix)
			}
			if s != string(c.spc.LocalPrefix.Field) {
				return c.change(ReservedPrefix)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedSlot,
		feed: func(c *dctx, v interface{}) error {
			u, ok := asUint(v)
			if !ok || u > 0xFFFFFFFF {
				return c.corrupt(ReservedSlot, "%v is not a slot", v)
			}
			c.spc.Slot = uint32(u)
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			u, ok := asUint(v)
			if !ok || u > 0xFFFFFFFF {
				return ClientErrorf("%s must be a valid slot number", ReservedSlot)
			}
			slot := uint32(u)
			if slot < SlotReserved {
				slot += SlotReserved
			}
			if slot == BadValueNo {
				slot--
			}
			c.spc.Slot = slot
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			mut[ReservedSlot] = uint64(c.spc.Slot)
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			u, ok := asUint(v)
			if !ok {
				return ClientErrorf("%s must be a valid slot number", ReservedSlot)
			}
			slot := uint32(u)
			if slot < SlotReserved {
				slot += SlotReserved
			}
			if slot != c.spc.Slot {
				return c.change(ReservedSlot)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedAccuracy,
		feed: func(c *dctx, v interface{}) error {
			us, ok := asUintList(v)
			if !ok {
				return c.corrupt(ReservedAccuracy, "%v is not an accuracy list", v)
			}
			c.spc.Accuracy = us
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			us, err := parseAccuracy(c.spc.SepTypes.Concrete(), v)
			if err != nil {
				return err
			}
			c.spc.Accuracy = us
			c.spc.DocAcc = us
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if len(c.spc.Accuracy) == 0 {
				return nil
			}
			out := make([]interface{}, len(c.spc.Accuracy))
			for i, a := range c.spc.Accuracy {
				out[i] = a
			}
			mut[ReservedAccuracy] = out
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			us, err := parseAccuracy(c.spc.SepTypes.Concrete(), v)
			if err != nil {
				return err
			}
			if !uintsEqual(us, c.spc.Accuracy) {
				return c.change(ReservedAccuracy)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedAccPrefix,
		feed: func(c *dctx, v interface{}) error {
			bs, ok := asBytesList(v)
			if !ok {
				return c.corrupt(ReservedAccPrefix, "%v is not a prefix list", v)
			}
			c.spc.AccPrefix = bs
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			bs, ok := asBytesList(v)
			if !ok {
				return ClientErrorf("%s must be a list of strings", ReservedAccPrefix)
			}
			c.spc.AccPrefix = bs
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if len(c.spc.AccPrefix) == 0 {
				return nil
			}
			out := make([]interface{}, len(c.spc.AccPrefix))
			for i, b := range c.spc.AccPrefix {
				out[i] = string(b)
			}
			mut[ReservedAccPrefix] = out
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			bs, ok := asBytesList(v)
			if !ok {
				return ClientErrorf("%s must be a list of strings", ReservedAccPrefix)
			}
			if len(bs) != len(c.spc.AccPrefix) {
				return c.change(ReservedAccPrefix)
			}
			for i := range bs {
				if string(bs[i]) != string(c.spc.AccPrefix[i]) {
					return c.change(ReservedAccPrefix)
				}
			}
			return nil
		},
	})

	register(&property{
		name: ReservedLanguage,
		feed: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return c.corrupt(ReservedLanguage, "%v is not a string", v)
			}
			c.spc.Language = s
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok || !analysis.IsValidLanguage(s) {
				return ClientErrorf("%v is not a supported language", v)
			}
			c.spc.Language = analysis.NormalizeLanguage(s)
			if c.spc.StemLanguage == "" {
				c.spc.StemLanguage = c.spc.Language
			}
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if c.spc.Language != "" {
				mut[ReservedLanguage] = c.spc.Language
			}
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return ClientErrorf("%s must be a string", ReservedLanguage)
			}
			if analysis.NormalizeLanguage(s) != c.spc.Language {
				return c.change(ReservedLanguage)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedStemLanguage,
		feed: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return c.corrupt(ReservedStemLanguage, "%v is not a string", v)
			}
			c.spc.StemLanguage = s
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok || !analysis.IsValidLanguage(s) {
				return ClientErrorf("%v is not a supported stem language", v)
			}
			c.spc.StemLanguage = analysis.NormalizeLanguage(s)
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if c.spc.StemLanguage != "" && c.spc.StemLanguage != c.spc.Language {
				mut[ReservedStemLanguage] = c.spc.StemLanguage
			}
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return ClientErrorf("%s must be a string", ReservedStemLanguage)
			}
			if analysis.NormalizeLanguage(s) != c.spc.StemLanguage {
				return c.change(ReservedStemLanguage)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedStopStrategy,
		feed: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return c.corrupt(ReservedStopStrategy, "%v is not a string", v)
			}
			st, ok := analysis.ParseStopStrategy(s)
			if !ok {
				return c.corrupt(ReservedStopStrategy, "%q is invalid", s)
			}
			c.spc.StopStrategy = st
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return ClientErrorf("%s must be a string", ReservedStopStrategy)
			}
			st, ok := analysis.ParseStopStrategy(s)
			if !ok {
				return ClientErrorf("%q is not a valid stop strategy", s)
			}
			c.spc.StopStrategy = st
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if c.spc.StopStrategy != analysis.StopNone {
				mut[ReservedStopStrategy] = c.spc.StopStrategy.String()
			}
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			s, _ := asString(v)
			st, ok := analysis.ParseStopStrategy(s)
			if !ok || st != c.spc.StopStrategy {
				return c.change(ReservedStopStrategy)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedStemStrategy,
		feed: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return c.corrupt(ReservedStemStrategy, "%v is not a string", v)
			}
			st, ok := analysis.ParseStemStrategy(s)
			if !ok {
				return c.corrupt(ReservedStemStrategy, "%q is invalid", s)
			}
			c.spc.StemStrategy = st
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return ClientErrorf("%s must be a string", ReservedStemStrategy)
			}
			st, ok := analysis.ParseStemStrategy(s)
			if !ok {
				return ClientErrorf("%q is not a valid stem strategy", s)
			}
			c.spc.StemStrategy = st
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if c.spc.StemStrategy != analysis.StemNone {
				mut[ReservedStemStrategy] = c.spc.StemStrategy.String()
			}
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			s, _ := asString(v)
			st, ok := analysis.ParseStemStrategy(s)
			if !ok || st != c.spc.StemStrategy {
				return c.change(ReservedStemStrategy)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedBoolTerm,
		feed: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return c.corrupt(ReservedBoolTerm, "%v is not a boolean", v)
			}
			c.spc.Flags.BoolTerm = b
			c.spc.Flags.HasBoolTerm = true
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return ClientErrorf("%s must be a boolean", ReservedBoolTerm)
			}
			c.spc.Flags.BoolTerm = b
			c.spc.Flags.HasBoolTerm = true
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if c.spc.Flags.HasBoolTerm {
				mut[ReservedBoolTerm] = c.spc.Flags.BoolTerm
			}
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok || b != c.spc.Flags.BoolTerm {
				return c.change(ReservedBoolTerm)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedPartials,
		feed: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return c.corrupt(ReservedPartials, "%v is not a boolean", v)
			}
			c.spc.Flags.Partials = b
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return ClientErrorf("%s must be a boolean", ReservedPartials)
			}
			c.spc.Flags.Partials = b
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			mut[ReservedPartials] = c.spc.Flags.Partials
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok || b != c.spc.Flags.Partials {
				return c.change(ReservedPartials)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedError,
		feed: func(c *dctx, v interface{}) error {
			f, ok := serialise.ToFloat(v)
			if !ok {
				return c.corrupt(ReservedError, "%v is not a number", v)
			}
			c.spc.Error = f
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			f, ok := serialise.ToFloat(v)
			if !ok || f < 0 || f > 1 {
				return ClientErrorf("%s must be a number between 0 and 1", ReservedError)
			}
			c.spc.Error = f
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			mut[ReservedError] = c.spc.Error
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			f, ok := serialise.ToFloat(v)
			if !ok || f != c.spc.Error {
				return c.change(ReservedError)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedIndex,
		feed: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return c.corrupt(ReservedIndex, "%v is not a string", v)
			}
			ti, err := field.ParseIndex(s)
			if err != nil {
				return c.corrupt(ReservedIndex, "%s", err.Error())
			}
			c.spc.Index = ti
			c.spc.Flags.HasIndex = true
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return ClientErrorf("%s must be a string", ReservedIndex)
			}
			ti, err := field.ParseIndex(s)
			if err != nil {
				return ClientErrorf("%s", err.Error())
			}
			c.spc.Index = ti
			c.spc.Flags.HasIndex = true
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if c.spc.Flags.HasIndex {
				mut[ReservedIndex] = c.spc.Index.String()
			}
			return nil
		},
	})

	register(&property{
		name: ReservedStore,
		feed: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return c.corrupt(ReservedStore, "%v is not a boolean", v)
			}
			c.spc.Flags.Store = b && c.spc.Flags.ParentStore
			c.spc.Flags.ParentStore = c.spc.Flags.Store
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return ClientErrorf("%s must be a boolean", ReservedStore)
			}
			// An ancestor with store=false pins every descendant.
			c.spc.Flags.Store = b && c.spc.Flags.ParentStore
			c.spc.Flags.ParentStore = c.spc.Flags.Store
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			mut[ReservedStore] = c.spc.Flags.Store
			return nil
		},
	})

	register(&property{
		name: ReservedRecurse,
		feed: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return c.corrupt(ReservedRecurse, "%v is not a boolean", v)
			}
			c.spc.Flags.Recurse = b
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return ClientErrorf("%s must be a boolean", ReservedRecurse)
			}
			c.spc.Flags.Recurse = b
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if !c.spc.Flags.Recurse {
				mut[ReservedRecurse] = false
			}
			return nil
		},
	})

	registerFlag(ReservedDynamic, func(s *Specification) *bool { return &s.Flags.Dynamic })
	registerFlag(ReservedStrict, func(s *Specification) *bool { return &s.Flags.Strict })
	registerFlag(ReservedDateDetection, func(s *Specification) *bool { return &s.Flags.DateDetection })
	registerFlag(ReservedDatetimeDetection, func(s *Specification) *bool { return &s.Flags.DatetimeDetection })
	registerFlag(ReservedTimeDetection, func(s *Specification) *bool { return &s.Flags.TimeDetection })
	registerFlag(ReservedTimedeltaDetection, func(s *Specification) *bool { return &s.Flags.TimedeltaDetection })
	registerFlag(ReservedNumericDetection, func(s *Specification) *bool { return &s.Flags.NumericDetection })
	registerFlag(ReservedGeoDetection, func(s *Specification) *bool { return &s.Flags.GeoDetection })
	registerFlag(ReservedBoolDetection, func(s *Specification) *bool { return &s.Flags.BoolDetection })
	registerFlag(ReservedTextDetection, func(s *Specification) *bool { return &s.Flags.TextDetection })
	registerFlag(ReservedUUIDDetection, func(s *Specification) *bool { return &s.Flags.UUIDDetection })

	register(&property{
		name: ReservedPartialPaths,
		feed: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return c.corrupt(ReservedPartialPaths, "%v is not a boolean", v)
			}
			c.spc.Flags.PartialPaths = b
			c.spc.Flags.HasPartialPaths = true
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return ClientErrorf("%s must be a boolean", ReservedPartialPaths)
			}
			c.spc.Flags.PartialPaths = b
			c.spc.Flags.HasPartialPaths = true
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if c.spc.Flags.HasPartialPaths {
				mut[ReservedPartialPaths] = c.spc.Flags.PartialPaths
			}
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok || b != c.spc.Flags.PartialPaths {
				return c.change(ReservedPartialPaths)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedIndexUUIDField,
		feed: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return c.corrupt(ReservedIndexUUIDField, "%v is not a string", v)
			}
			u, ok := uuidFieldIndexTokens[strings.ToLower(s)]
			if !ok {
				return c.corrupt(ReservedIndexUUIDField, "%q is invalid", s)
			}
			c.spc.IndexUUIDField = u
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return ClientErrorf("%s must be a string", ReservedIndexUUIDField)
			}
			u, ok := uuidFieldIndexTokens[strings.ToLower(s)]
			if !ok {
				return ClientErrorf("%q is not a valid uuid field index mode", s)
			}
			c.spc.IndexUUIDField = u
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if c.spc.IndexUUIDField != UUIDIndexBoth {
				mut[ReservedIndexUUIDField] = c.spc.IndexUUIDField.String()
			}
			return nil
		},
	})

	register(&property{
		name: ReservedNamespace,
		feed: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return c.corrupt(ReservedNamespace, "%v is not a boolean", v)
			}
			c.spc.Flags.IsNamespace = b
			c.spc.Flags.HasNamespace = true
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return ClientErrorf("%s must be a boolean", ReservedNamespace)
			}
			if b && c.spc.Flags.PartialPaths {
				c.spc.Flags.HasPartialPaths = true
			}
			c.spc.Flags.IsNamespace = b
			c.spc.Flags.HasNamespace = true
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if c.spc.Flags.HasNamespace {
				mut[ReservedNamespace] = c.spc.Flags.IsNamespace
			}
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok || b != c.spc.Flags.IsNamespace {
				return c.change(ReservedNamespace)
			}
			return nil
		},
	})

	register(&property{
		name: ReservedWeight,
		feed: func(c *dctx, v interface{}) error {
			us, ok := asUint32List(v)
			if !ok {
				return c.corrupt(ReservedWeight, "%v is not a weight list", v)
			}
			c.spc.Weight = us
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			us, ok := asUint32List(v)
			if !ok {
				return ClientErrorf("%s must be a positive integer or list", ReservedWeight)
			}
			c.spc.Weight = us
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			return nil
		},
	})

	register(&property{
		name: ReservedPosition,
		feed: func(c *dctx, v interface{}) error {
			us, ok := asUint32List(v)
			if !ok {
				return c.corrupt(ReservedPosition, "%v is not a position list", v)
			}
			c.spc.Position = us
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			us, ok := asUint32List(v)
			if !ok {
				return ClientErrorf("%s must be a positive integer or list", ReservedPosition)
			}
			c.spc.Position = us
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			return nil
		},
	})

	register(&property{
		name: ReservedSpelling,
		feed: func(c *dctx, v interface{}) error {
			bs, ok := asBoolList(v)
			if !ok {
				return c.corrupt(ReservedSpelling, "%v is not a boolean list", v)
			}
			c.spc.Spelling = bs
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			bs, ok := asBoolList(v)
			if !ok {
				return ClientErrorf("%s must be a boolean or list", ReservedSpelling)
			}
			c.spc.Spelling = bs
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			return nil
		},
	})

	register(&property{
		name: ReservedPositions,
		feed: func(c *dctx, v interface{}) error {
			bs, ok := asBoolList(v)
			if !ok {
				return c.corrupt(ReservedPositions, "%v is not a boolean list", v)
			}
			c.spc.Positions = bs
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			bs, ok := asBoolList(v)
			if !ok {
				return ClientErrorf("%s must be a boolean or list", ReservedPositions)
			}
			c.spc.Positions = bs
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			return nil
		},
	})

	registerTextFlag(ReservedNgram, func(s *Specification) *bool { return &s.Ngram })
	registerTextFlag(ReservedCJKNgram, func(s *Specification) *bool { return &s.CJKNgram })
	registerTextFlag(ReservedCJKWords, func(s *Specification) *bool { return &s.CJKWords })

	register(&property{
		name: ReservedIgnore,
		feed: func(c *dctx, v interface{}) error {
			names, ok := asStringList(v)
			if !ok {
				return c.corrupt(ReservedIgnore, "%v is not a name list", v)
			}
			applyIgnored(c.spc, names)
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			names, ok := asStringList(v)
			if !ok {
				return ClientErrorf("%s must be a string or list", ReservedIgnore)
			}
			applyIgnored(c.spc, names)
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if len(c.spc.Ignored) == 0 {
				return nil
			}
			out := make([]interface{}, 0, len(c.spc.Ignored))
			for n := range c.spc.Ignored {
				out = append(out, n)
			}
			mut[ReservedIgnore] = out
			return nil
		},
	})

	register(&property{
		name: ReservedEndpoint,
		feed: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok {
				return c.corrupt(ReservedEndpoint, "%v is not a string", v)
			}
			c.spc.Endpoint = s
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			s, ok := asString(v)
			if !ok || s == "" {
				return ClientErrorf("%s must be a non-empty string", ReservedEndpoint)
			}
			c.spc.Endpoint = s
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if c.spc.Endpoint != "" {
				mut[ReservedEndpoint] = c.spc.Endpoint
			}
			return nil
		},
	})

	register(&property{
		name: ReservedValue,
		process: func(c *dctx, v interface{}) error {
			c.spc.Value = v
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			return nil
		},
	})

	register(&property{
		name: ReservedScript,
		feed: func(c *dctx, v interface{}) error {
			c.spc.Script = v
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			c.spc.Script = v
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			return nil
		},
	})

	register(&property{
		name: ReservedData,
		process: func(c *dctx, v interface{}) error {
			// Opaque payload, carried through untouched.
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			return nil
		},
	})

	register(&property{
		name: ReservedSettings,
		process: func(c *dctx, v interface{}) error {
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			return nil
		},
	})
}

// registerFlag wires a plain boolean toggle with locked-after-write
// consistency.
func registerFlag(name string, get func(*Specification) *bool) {
	register(&property{
		name: name,
		feed: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return c.corrupt(name, "%v is not a boolean", v)
			}
			*get(c.spc) = b
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return ClientErrorf("%s must be a boolean", name)
			}
			*get(c.spc) = b
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			mut[name] = *get(c.spc)
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok || b != *get(c.spc) {
				return c.change(name)
			}
			return nil
		},
	})
}

// registerTextFlag wires the text analysis toggles, consistency-locked with
// the language group.
func registerTextFlag(name string, get func(*Specification) *bool) {
	register(&property{
		name: name,
		feed: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return c.corrupt(name, "%v is not a boolean", v)
			}
			*get(c.spc) = b
			return nil
		},
		process: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok {
				return ClientErrorf("%s must be a boolean", name)
			}
			*get(c.spc) = b
			return nil
		},
		write: func(c *dctx, mut Properties) error {
			if *get(c.spc) {
				mut[name] = true
			}
			return nil
		},
		consistency: func(c *dctx, v interface{}) error {
			b, ok := asBool(v)
			if !ok || b != *get(c.spc) {
				return c.change(name)
			}
			return nil
		},
	})
}

func asStringList(v interface{}) ([]string, bool) {
	switch x := v.(type) {
	case string:
		return []string{x}, true
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func applyIgnored(spc *Specification, names []string) {
	if spc.Ignored == nil {
		spc.Ignored = make(map[string]struct{}, len(names))
	}
	for _, n := range names {
		spc.Ignored[n] = struct{}{}
		if n == "*" {
			spc.Flags.Recurse = false
		}
	}
}
