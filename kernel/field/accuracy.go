package field

import (
	"fmt"
	"strings"
)

// UnitTime is a date/datetime accuracy bucket unit. The numeric value of a
// unit is its span in seconds, which is also how accuracies are persisted.
type UnitTime uint64

const (
	UnitSecond     UnitTime = 1
	UnitMinute     UnitTime = 60
	UnitHour       UnitTime = 3600
	UnitDay        UnitTime = 86400
	UnitMonth      UnitTime = 2592000
	UnitYear       UnitTime = 31536000
	UnitDecade     UnitTime = 315360000
	UnitCentury    UnitTime = 3153600000
	UnitMillennium UnitTime = 31536000000
)

var unitNames = map[UnitTime]string{
	UnitSecond:     "second",
	UnitMinute:     "minute",
	UnitHour:       "hour",
	UnitDay:        "day",
	UnitMonth:      "month",
	UnitYear:       "year",
	UnitDecade:     "decade",
	UnitCentury:    "century",
	UnitMillennium: "millennium",
}

var unitTokens = map[string]UnitTime{
	"second":     UnitSecond,
	"minute":     UnitMinute,
	"hour":       UnitHour,
	"day":        UnitDay,
	"month":      UnitMonth,
	"year":       UnitYear,
	"decade":     UnitDecade,
	"century":    UnitCentury,
	"millennium": UnitMillennium,
}

func (u UnitTime) String() string {
	if s, ok := unitNames[u]; ok {
		return s
	}
	return fmt.Sprintf("UnitTime(%d)", uint64(u))
}

// ParseUnitTime accepts a unit name or an exact unit span in seconds.
func ParseUnitTime(v interface{}) (UnitTime, error) {
	switch x := v.(type) {
	case string:
		u, ok := unitTokens[strings.ToLower(x)]
		if !ok {
			return 0, fmt.Errorf("%q is not a valid date accuracy", x)
		}
		return u, nil
	case uint64:
		return validUnitSeconds(x)
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("%d is not a valid date accuracy", x)
		}
		return validUnitSeconds(uint64(x))
	case float64:
		if x < 0 || x != float64(uint64(x)) {
			return 0, fmt.Errorf("%v is not a valid date accuracy", x)
		}
		return validUnitSeconds(uint64(x))
	default:
		return 0, fmt.Errorf("%v is not a valid date accuracy", v)
	}
}

func validUnitSeconds(s uint64) (UnitTime, error) {
	u := UnitTime(s)
	if _, ok := unitNames[u]; !ok {
		return 0, fmt.Errorf("%d seconds is not a valid date accuracy", s)
	}
	return u, nil
}

// ValidateAccDate reports whether u is one of the named units.
func ValidateAccDate(u UnitTime) bool {
	_, ok := unitNames[u]
	return ok
}

// HTM constants. A trixel id carries 4 root bits plus 2 bits per refinement
// level; geo accuracies are stored as HTM levels, and AccShift turns a level
// into the right-shift from the deepest level, so coarser levels mean larger
// shifts.
const (
	HTMMaxLevel = 24
	HTMBitsID   = 4 + 2*HTMMaxLevel
)

// AccShift converts an HTM level into its stored shift form.
func AccShift(level uint64) uint64 {
	return 2 * (HTMMaxLevel - level)
}

// AccLevel is the inverse of AccShift.
func AccLevel(shift uint64) uint64 {
	return HTMMaxLevel - shift/2
}

// Default accuracy tables. These never mutate; callers copy before extending.
var (
	DefaultAccuracyNum = []uint64{100, 1000, 10000, 100000, 1000000, 100000000}

	DefaultAccuracyDatetime = []uint64{
		uint64(UnitHour),
		uint64(UnitDay),
		uint64(UnitMonth),
		uint64(UnitYear),
		uint64(UnitDecade),
		uint64(UnitCentury),
	}

	DefaultAccuracyDate = []uint64{
		uint64(UnitDay),
		uint64(UnitMonth),
		uint64(UnitYear),
		uint64(UnitDecade),
		uint64(UnitCentury),
	}

	DefaultAccuracyTime = []uint64{
		uint64(UnitMinute),
		uint64(UnitHour),
	}

	// Geo accuracies are HTM levels, kept ascending (coarse to fine).
	DefaultAccuracyGeo = []uint64{3, 5, 8, 10, 12, 15}
)

// DefaultAccuracy returns the default table for a concrete type, or nil when
// the type has no accuracy lanes.
func DefaultAccuracy(ft FieldType) []uint64 {
	switch ft {
	case Integer, Positive, Floating:
		return DefaultAccuracyNum
	case Datetime:
		return DefaultAccuracyDatetime
	case Date:
		return DefaultAccuracyDate
	case Time, Timedelta:
		return DefaultAccuracyTime
	case Geo:
		return DefaultAccuracyGeo
	}
	return nil
}
