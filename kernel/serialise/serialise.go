package serialise

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nivalisdb/nivalis/kernel/field"
)

// ErrFormat reports a value that cannot be encoded for its declared type.
type ErrFormat struct {
	Type field.FieldType
	Msg  string
}

func (e *ErrFormat) Error() string {
	return fmt.Sprintf("format invalid for %s: %s", e.Type, e.Msg)
}

func formatErr(t field.FieldType, format string, args ...interface{}) error {
	return &ErrFormat{Type: t, Msg: fmt.Sprintf(format, args...)}
}

// Fixed-width big-endian encodings with an order-preserving bias: serialised
// byte order matches numeric order, which the value slots rely on for range
// queries.

// Integer serialises a signed 64-bit value.
func Integer(v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v)^(1<<63))
	return b[:]
}

// UnserialiseInteger reverses Integer.
func UnserialiseInteger(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63))
}

// Positive serialises an unsigned 64-bit value.
func Positive(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// UnserialisePositive reverses Positive.
func UnserialisePositive(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// Floating serialises a float64. Negative values have all bits flipped,
// non-negative values only the sign bit, so lexicographic order equals
// numeric order.
func Floating(v float64) []byte {
	bits := math.Float64bits(v)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	return b[:]
}

// UnserialiseFloating reverses Floating.
func UnserialiseFloating(b []byte) float64 {
	bits := binary.BigEndian.Uint64(b)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

// Boolean serialises to a single canonical byte.
func Boolean(v bool) []byte {
	if v {
		return []byte{'t'}
	}
	return []byte{'f'}
}

// Keyword serialises a keyword value; lowercased unless the field is a
// boolean-term field.
func Keyword(s string, boolTerm bool) []byte {
	if boolTerm {
		return []byte(s)
	}
	return []byte(strings.ToLower(s))
}

// Text serialises raw text.
func Text(s string) []byte {
	return []byte(s)
}

// Prefixed assembles a posting term: field prefix, type marker, serialised
// value.
func Prefixed(term []byte, prefix []byte, ctype byte) string {
	b := make([]byte, 0, len(prefix)+1+len(term))
	b = append(b, prefix...)
	b = append(b, ctype)
	b = append(b, term...)
	return string(b)
}

// ToFloat coerces the scalar shapes a decoded document can carry.
func ToFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// ToInt coerces integral scalar shapes, rejecting fractional values.
func ToInt(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// ToUint is like ToInt for the positive value space.
func ToUint(v interface{}) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case int:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	case int64:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	case float64:
		if x < 0 || x != math.Trunc(x) {
			return 0, false
		}
		return uint64(x), true
	case json.Number:
		u, err := strconv.ParseUint(x.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return u, true
	}
	return 0, false
}

// Serialise encodes a leaf value for a fixed concrete type.
func Serialise(ft field.FieldType, v interface{}, boolTerm bool) ([]byte, error) {
	switch ft {
	case field.Integer:
		i, ok := ToInt(v)
		if !ok {
			s, isStr := v.(string)
			if !isStr {
				return nil, formatErr(ft, "%v is not an integer", v)
			}
			p, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, formatErr(ft, "%q is not an integer", s)
			}
			i = p
		}
		return Integer(i), nil
	case field.Positive:
		u, ok := ToUint(v)
		if !ok {
			s, isStr := v.(string)
			if !isStr {
				return nil, formatErr(ft, "%v is not a positive integer", v)
			}
			p, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return nil, formatErr(ft, "%q is not a positive integer", s)
			}
			u = p
		}
		return Positive(u), nil
	case field.Floating:
		f, ok := ToFloat(v)
		if !ok {
			s, isStr := v.(string)
			if !isStr {
				return nil, formatErr(ft, "%v is not a float", v)
			}
			p, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, formatErr(ft, "%q is not a float", s)
			}
			f = p
		}
		return Floating(f), nil
	case field.Boolean:
		switch x := v.(type) {
		case bool:
			return Boolean(x), nil
		case string:
			switch strings.ToLower(x) {
			case "true", "t", "1":
				return Boolean(true), nil
			case "false", "f", "0":
				return Boolean(false), nil
			}
			return nil, formatErr(ft, "%q is not a boolean", x)
		}
		return nil, formatErr(ft, "%v is not a boolean", v)
	case field.Date, field.Datetime:
		b, _, err := Datetime(v)
		return b, err
	case field.Time:
		f, err := TimeValue(v)
		if err != nil {
			return nil, err
		}
		return Floating(f), nil
	case field.Timedelta:
		f, err := TimedeltaValue(v)
		if err != nil {
			return nil, err
		}
		return Floating(f), nil
	case field.UUID:
		s, ok := v.(string)
		if !ok {
			return nil, formatErr(ft, "%v is not a uuid", v)
		}
		raw, err := UUID(s)
		if err != nil {
			return nil, err
		}
		return raw, nil
	case field.Keyword:
		s, ok := v.(string)
		if !ok {
			return nil, formatErr(ft, "%v is not a keyword", v)
		}
		return Keyword(s, boolTerm), nil
	case field.Text, field.String:
		s, ok := v.(string)
		if !ok {
			return nil, formatErr(ft, "%v is not a string", v)
		}
		return Text(s), nil
	}
	return nil, formatErr(ft, "unknown serialisation for %v", v)
}

// Guess inspects a value with no declared type and returns the detected type
// with its serialisation. The detection order mirrors the traverser policy;
// callers mask out disabled branches before trusting the result.
func Guess(v interface{}) (field.FieldType, []byte, error) {
	switch x := v.(type) {
	case bool:
		return field.Boolean, Boolean(x), nil
	case json.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			if strings.HasPrefix(s, "-") {
				i, err := x.Int64()
				if err == nil {
					return field.Integer, Integer(i), nil
				}
			} else if u, err := strconv.ParseUint(s, 10, 64); err == nil {
				return field.Positive, Positive(u), nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return field.Empty, nil, formatErr(field.Floating, "%q is not a number", s)
		}
		return field.Floating, Floating(f), nil
	case int:
		if x < 0 {
			return field.Integer, Integer(int64(x)), nil
		}
		return field.Positive, Positive(uint64(x)), nil
	case int64:
		if x < 0 {
			return field.Integer, Integer(x), nil
		}
		return field.Positive, Positive(uint64(x)), nil
	case uint64:
		return field.Positive, Positive(x), nil
	case float64:
		return field.Floating, Floating(x), nil
	case string:
		if raw, err := UUID(x); err == nil {
			return field.UUID, raw, nil
		}
		if b, _, err := Datetime(x); err == nil {
			if strings.Contains(x, "T") || strings.Contains(x, " ") {
				return field.Datetime, b, nil
			}
			return field.Date, b, nil
		}
		if f, err := TimeValue(x); err == nil {
			return field.Time, Floating(f), nil
		}
		if f, err := TimedeltaValue(x); err == nil {
			return field.Timedelta, Floating(f), nil
		}
		switch strings.ToLower(x) {
		case "true":
			return field.Boolean, Boolean(true), nil
		case "false":
			return field.Boolean, Boolean(false), nil
		}
		return field.Text, Text(x), nil
	}
	return field.Empty, nil, formatErr(field.Empty, "cannot guess type of %v", v)
}
