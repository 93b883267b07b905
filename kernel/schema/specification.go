package schema

import (
	"github.com/nivalisdb/nivalis/kernel/analysis"
	"github.com/nivalisdb/nivalis/kernel/field"
)

// UUIDFieldIndex selects how a UUID-named path contributes prefixes.
type UUIDFieldIndex uint8

const (
	UUIDIndexUUID UUIDFieldIndex = 1 << iota
	UUIDIndexField
	UUIDIndexBoth = UUIDIndexUUID | UUIDIndexField
)

var uuidFieldIndexTokens = map[string]UUIDFieldIndex{
	"uuid":       UUIDIndexUUID,
	"uuid_field": UUIDIndexField,
	"both":       UUIDIndexBoth,
}

func (u UUIDFieldIndex) String() string {
	switch u {
	case UUIDIndexUUID:
		return "uuid"
	case UUIDIndexField:
		return "uuid_field"
	case UUIDIndexBoth:
		return "both"
	}
	return "both"
}

// Prefix carries the field prefix stream and the optional parallel UUID
// stream populated when the path crosses a UUID-named field.
type Prefix struct {
	Field []byte
	UUID  []byte
}

func (p Prefix) clone() Prefix {
	return Prefix{Field: append([]byte(nil), p.Field...), UUID: append([]byte(nil), p.UUID...)}
}

// Flags is the specification bitfield, threaded through traversal.
type Flags struct {
	BoolTerm    bool
	Partials    bool
	Store       bool
	ParentStore bool
	Recurse     bool
	Dynamic     bool
	Strict      bool

	DateDetection      bool
	DatetimeDetection  bool
	TimeDetection      bool
	TimedeltaDetection bool
	NumericDetection   bool
	GeoDetection       bool
	BoolDetection      bool
	TextDetection      bool
	UUIDDetection      bool

	PartialPaths    bool
	IsNamespace     bool
	FieldFound      bool
	FieldWithType   bool
	Concrete        bool
	Complete        bool
	UUIDField       bool
	UUIDPath        bool
	InsideNamespace bool
	HasUUIDPrefix   bool
	HasBoolTerm     bool
	HasIndex        bool
	HasNamespace    bool
	HasPartialPaths bool
	StaticEndpoint  bool
}

// partialIndexSpc is one pending namespace lane: the combined prefix with
// its derived slot.
type partialIndexSpc struct {
	Prefix Prefix
	Slot   uint32
}

// Specification is the central value object of the traversal: all
// inheritable defaults plus the per-field settings of the node being
// processed. It is pushed by value down the recursion and restored on
// return.
type Specification struct {
	SepTypes field.Type

	LocalPrefix Prefix
	Prefix      Prefix
	Slot        uint32

	Accuracy  []uint64
	AccPrefix [][]byte

	Index field.TypeIndex

	// Per-position overrides, indexed modulo their length.
	Position  []uint32
	Weight    []uint32
	Spelling  []bool
	Positions []bool

	StopStrategy analysis.StopStrategy
	StemStrategy analysis.StemStrategy
	Language     string
	StemLanguage string
	Ngram        bool
	CJKNgram     bool
	CJKWords     bool

	IndexUUIDField UUIDFieldIndex

	Flags Flags

	// Pending leaf: direct value and cast-wrapped value.
	Value    interface{}
	ValueRec interface{}
	CastType string // cast keyword that produced ValueRec, without underscore

	// Per-document accuracy override.
	DocAcc []uint64

	Endpoint string
	Error    float64

	PartialPrefixes  []Prefix
	PartialIndexSpcs []partialIndexSpc

	Ignored map[string]struct{}

	MetaName     string
	FullMetaName string
	SchemaPath   string

	Script interface{}
}

// Default is the neutral baseline applied at the root.
func Default() Specification {
	return Specification{
		SepTypes: field.EmptyType,
		Slot:     BadValueNo,
		Index:    field.IndexFieldAll,
		Position: []uint32{0},
		Weight:   []uint32{1},
		Flags: Flags{
			Partials:           true,
			Store:              true,
			ParentStore:        true,
			Recurse:            true,
			Dynamic:            true,
			DateDetection:      true,
			DatetimeDetection:  true,
			TimeDetection:      true,
			TimedeltaDetection: true,
			NumericDetection:   true,
			GeoDetection:       true,
			BoolDetection:      true,
			TextDetection:      true,
			UUIDDetection:      true,
		},
		IndexUUIDField: UUIDIndexBoth,
		Error:          0.3,
	}
}

// Clone returns a value copy safe to push into recursion: the slices the
// traversal appends to are detached.
func (s Specification) Clone() Specification {
	c := s
	c.Accuracy = append([]uint64(nil), s.Accuracy...)
	c.AccPrefix = clonePrefixList(s.AccPrefix)
	c.Position = append([]uint32(nil), s.Position...)
	c.Weight = append([]uint32(nil), s.Weight...)
	c.Spelling = append([]bool(nil), s.Spelling...)
	c.Positions = append([]bool(nil), s.Positions...)
	c.LocalPrefix = s.LocalPrefix.clone()
	c.Prefix = s.Prefix.clone()
	c.PartialPrefixes = append([]Prefix(nil), s.PartialPrefixes...)
	c.PartialIndexSpcs = append([]partialIndexSpc(nil), s.PartialIndexSpcs...)
	if s.Ignored != nil {
		c.Ignored = make(map[string]struct{}, len(s.Ignored))
		for k := range s.Ignored {
			c.Ignored[k] = struct{}{}
		}
	}
	return c
}

func clonePrefixList(in [][]byte) [][]byte {
	if in == nil {
		return nil
	}
	out := make([][]byte, len(in))
	for i, b := range in {
		out[i] = append([]byte(nil), b...)
	}
	return out
}

// Update overrides the concrete typing of the specification in place.
func (s *Specification) Update(concrete field.FieldType, prefix Prefix, slot uint32, accuracy []uint64, accPrefix [][]byte) {
	s.SepTypes[field.SpcConcrete] = concrete
	s.Prefix = prefix
	s.Slot = slot
	s.Accuracy = accuracy
	s.AccPrefix = accPrefix
}

// GetCtype returns the single-byte type marker of the concrete type.
func (s *Specification) GetCtype() byte {
	return field.CType(s.SepTypes.Concrete())
}

// PositionAt resolves the lazy per-position override streams.
func (s *Specification) PositionAt(i int) uint32 {
	if len(s.Position) == 0 {
		return 0
	}
	return s.Position[i%len(s.Position)]
}

func (s *Specification) WeightAt(i int) uint32 {
	if len(s.Weight) == 0 {
		return 1
	}
	return s.Weight[i%len(s.Weight)]
}

func (s *Specification) PositionsAt(i int) bool {
	if len(s.Positions) == 0 {
		return false
	}
	return s.Positions[i%len(s.Positions)]
}

// global specifications, one per concrete type, used when a path indexes
// into the type-global subspaces only.
var globalSpecs = func() map[field.FieldType]Specification {
	types := []field.FieldType{
		field.Boolean, field.Integer, field.Positive, field.Floating,
		field.Date, field.Datetime, field.Time, field.Timedelta,
		field.Keyword, field.Text, field.String, field.UUID, field.Geo,
	}
	specs := make(map[field.FieldType]Specification, len(types))
	for _, t := range types {
		spc := Default()
		spc.SepTypes[field.SpcConcrete] = t
		spc.Flags.Concrete = true
		spc.Flags.Complete = true
		ct := field.CType(t)
		spc.Prefix = Prefix{Field: globalPrefix}
		spc.Slot = slotFromPrefix(globalPrefix, ct)
		if acc := field.DefaultAccuracy(t); acc != nil {
			spc.Accuracy = append([]uint64(nil), acc...)
			for _, a := range acc {
				spc.AccPrefix = append(spc.AccPrefix, globalAccPrefix(ct, a))
			}
		}
		specs[t] = spc
	}
	return specs
}()

// Global returns the static global specification of a concrete type.
func Global(t field.FieldType) (Specification, bool) {
	spc, ok := globalSpecs[t]
	if !ok {
		return Specification{}, false
	}
	return spc.Clone(), true
}
