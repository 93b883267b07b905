package schema

import (
	"encoding/binary"
	"strconv"

	"github.com/dgryski/go-farm"

	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/serialise"
)

// Reserved value slots and sentinels.
const (
	SlotID       uint32 = 0
	SlotVersion  uint32 = 1
	SlotReserved uint32 = 10
	BadValueNo   uint32 = 0xFFFFFFFF
)

// Path separator for field names inside the schema tree.
const PathSeparator = "."

// Document id term prefix; id terms are "Q" + ctype + serialised id.
const idPrefix = "Q"

// Keyword terms past this many bytes cannot be posted.
const termMaxSize = 245

// reservedTermNumericID is the posting term a serialised numeric id of zero
// would produce. It is the storage layer's auto-increment sentinel and is
// never emitted.
var reservedTermNumericID = serialise.Prefixed(serialise.Integer(0), []byte(idPrefix), field.CType(field.Integer))

// Reserved keywords.
const (
	// Structural.
	ReservedID       = "_id"
	ReservedVersion  = "_version"
	ReservedSchema   = "_schema"
	ReservedSchemas  = "_schemas"
	ReservedSettings = "_settings"
	ReservedEndpoint = "_endpoint"
	ReservedType     = "_type"
	ReservedValue    = "_value"
	ReservedData     = "_data"
	ReservedIgnore   = "_ignore"
	ReservedRecurse  = "_recurse"
	ReservedScript   = "_script"

	// Indexing policy.
	ReservedIndex          = "_index"
	ReservedStore          = "_store"
	ReservedWeight         = "_weight"
	ReservedPosition       = "_position"
	ReservedSpelling       = "_spelling"
	ReservedPositions      = "_positions"
	ReservedBoolTerm       = "_bool_term"
	ReservedPartialPaths   = "_partial_paths"
	ReservedIndexUUIDField = "_index_uuid_field"
	ReservedNamespace      = "_namespace"

	// Detection toggles.
	ReservedDateDetection      = "_date_detection"
	ReservedDatetimeDetection  = "_datetime_detection"
	ReservedTimeDetection      = "_time_detection"
	ReservedTimedeltaDetection = "_timedelta_detection"
	ReservedNumericDetection   = "_numeric_detection"
	ReservedGeoDetection       = "_geo_detection"
	ReservedBoolDetection      = "_bool_detection"
	ReservedTextDetection      = "_text_detection"
	ReservedUUIDDetection      = "_uuid_detection"
	ReservedDynamic            = "_dynamic"
	ReservedStrict             = "_strict"

	// Text.
	ReservedNgram        = "_ngram"
	ReservedCJKNgram     = "_cjk_ngram"
	ReservedCJKWords     = "_cjk_words"
	ReservedLanguage     = "_language"
	ReservedStopStrategy = "_stop_strategy"
	ReservedStemStrategy = "_stem_strategy"
	ReservedStemLanguage = "_stem_language"

	// Storage.
	ReservedPrefix    = "_prefix"
	ReservedSlot      = "_slot"
	ReservedAccuracy  = "_accuracy"
	ReservedAccPrefix = "_acc_prefix"

	// Geo.
	ReservedPartials = "_partials"
	ReservedError    = "_error"
)

// Cast keywords recognized once the concrete type is fixed (or used for
// detection when it is not).
var castKeywords = map[string]field.FieldType{
	"_float":            field.Floating,
	"_integer":          field.Integer,
	"_positive":         field.Positive,
	"_boolean":          field.Boolean,
	"_keyword":          field.Keyword,
	"_term":             field.Keyword, // legacy synonym
	"_text":             field.Text,
	"_string":           field.String,
	"_date":             field.Date,
	"_datetime":         field.Datetime,
	"_time":             field.Time,
	"_timedelta":        field.Timedelta,
	"_uuid":             field.UUID,
	"_ewkt":             field.Geo,
	"_point":            field.Geo,
	"_circle":           field.Geo,
	"_convex":           field.Geo,
	"_polygon":          field.Geo,
	"_chull":            field.Geo,
	"_multipoint":       field.Geo,
	"_multicircle":      field.Geo,
	"_multiconvex":      field.Geo,
	"_multipolygon":     field.Geo,
	"_multichull":       field.Geo,
	"_geo_collection":   field.Geo,
	"_geo_intersection": field.Geo,
	"_chai":             field.Script,
}

// hashKeyword is the dispatch key: a 32-bit non-cryptographic hash,
// collision-free within the closed keyword vocabulary.
func hashKeyword(k string) uint32 {
	return farm.Fingerprint32([]byte(k))
}

// isReserved reports whether the field name is part of the reserved keyword
// vocabulary surface.
func isReserved(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

// isComment reports whether the field name is a comment entry.
func isComment(name string) bool {
	return name == "" || name[0] == '#'
}

// fieldPrefix derives the term prefix of a field from its dotted path.
func fieldPrefix(fullName string) []byte {
	var b [5]byte
	b[0] = 'F'
	binary.BigEndian.PutUint32(b[1:], farm.Fingerprint32([]byte(fullName)))
	return b[:]
}

// uuidPrefix derives the parallel prefix stream entry for a UUID-named
// segment from its raw identifier.
func uuidPrefix(raw []byte) []byte {
	b := make([]byte, 0, len(raw)+1)
	b = append(b, 'U')
	b = append(b, raw...)
	return b
}

// globalPrefix is the prefix of the type-global subspaces: empty, the ctype
// marker alone keeps them apart.
var globalPrefix = []byte{}

// accPrefix derives one accuracy-lane prefix from the field prefix and the
// bucket magnitude.
func accPrefix(base []byte, acc uint64) []byte {
	out := make([]byte, 0, len(base)+8)
	out = append(out, base...)
	out = append(out, 'A')
	out = append(out, strconv.FormatUint(acc, 10)...)
	return out
}

// globalAccPrefix is the global counterpart of accPrefix for a concrete type.
func globalAccPrefix(ct byte, acc uint64) []byte {
	out := []byte{'G', 'A', ct}
	out = append(out, strconv.FormatUint(acc, 10)...)
	return out
}

// slotFromPrefix derives a stable value slot from a field prefix, avoiding
// the reserved low slots and the unassigned sentinel.
func slotFromPrefix(prefix []byte, ct byte) uint32 {
	b := make([]byte, 0, len(prefix)+1)
	b = append(b, prefix...)
	b = append(b, ct)
	slot := farm.Fingerprint32(b)
	if slot < SlotReserved {
		slot += SlotReserved
	}
	if slot == BadValueNo {
		slot--
	}
	return slot
}
