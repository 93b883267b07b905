package serialise

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nivalisdb/nivalis/kernel/field"
)

// Tm is the broken-down form of a parsed date or datetime. The accuracy
// generator truncates it unit by unit, so it stays separate from time.Time.
type Tm struct {
	Year int
	Mon  int
	Day  int
	Hour int
	Min  int
	Sec  int
	Fsec float64
	Off  int // seconds east of UTC
}

// NewTm fills the missing components with their lowest valid value.
func NewTm(year int, rest ...int) Tm {
	tm := Tm{Year: year, Mon: 1, Day: 1}
	get := func(i, def int) int {
		if i < len(rest) {
			return rest[i]
		}
		return def
	}
	tm.Mon = get(0, 1)
	tm.Day = get(1, 1)
	tm.Hour = get(2, 0)
	tm.Min = get(3, 0)
	tm.Sec = get(4, 0)
	return tm
}

// Timegm converts the broken-down form to epoch seconds.
func Timegm(tm Tm) float64 {
	t := time.Date(tm.Year, time.Month(tm.Mon), tm.Day, tm.Hour, tm.Min, tm.Sec, 0, time.UTC)
	return float64(t.Unix()-int64(tm.Off)) + tm.Fsec
}

// ToTm converts epoch seconds back into the broken-down form.
func ToTm(ts float64) Tm {
	sec := int64(math.Floor(ts))
	fsec := ts - float64(sec)
	t := time.Unix(sec, 0).UTC()
	return Tm{
		Year: t.Year(),
		Mon:  int(t.Month()),
		Day:  t.Day(),
		Hour: t.Hour(),
		Min:  t.Minute(),
		Sec:  t.Second(),
		Fsec: fsec,
	}
}

// ISO renders the canonical ISO-8601 form used when mirroring values into the
// stored document, preserving round-trip equality.
func (tm Tm) ISO() string {
	s := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", tm.Year, tm.Mon, tm.Day, tm.Hour, tm.Min, tm.Sec)
	if tm.Fsec > 0 {
		frac := strconv.FormatFloat(tm.Fsec, 'f', 6, 64)
		frac = strings.TrimRight(frac[2:], "0")
		if frac != "" {
			s += "." + frac
		}
	}
	if tm.Off == 0 {
		return s + "Z"
	}
	sign := "+"
	off := tm.Off
	if off < 0 {
		sign = "-"
		off = -off
	}
	return s + fmt.Sprintf("%s%02d:%02d", sign, off/3600, (off%3600)/60)
}

// Datetime parses any accepted datetime shape and returns the serialised
// timestamp with the broken-down form: ISO-8601 strings, {_year, _month, ...}
// maps, and epoch numbers.
func Datetime(v interface{}) ([]byte, Tm, error) {
	switch x := v.(type) {
	case string:
		tm, err := parseISO(x)
		if err != nil {
			return nil, Tm{}, err
		}
		return Floating(Timegm(tm)), tm, nil
	case map[string]interface{}:
		tm, err := parseTmObject(x)
		if err != nil {
			return nil, Tm{}, err
		}
		return Floating(Timegm(tm)), tm, nil
	default:
		if f, ok := ToFloat(v); ok {
			tm := ToTm(f)
			return Floating(f), tm, nil
		}
	}
	return nil, Tm{}, formatErr(field.Datetime, "%v is not a datetime", v)
}

func parseISO(s string) (Tm, error) {
	var tm Tm
	tm.Mon, tm.Day = 1, 1
	str := strings.TrimSpace(s)
	if len(str) < 10 {
		return tm, formatErr(field.Datetime, "%q is not a datetime", s)
	}
	var err error
	if tm.Year, err = atoi(str[0:4]); err != nil {
		return tm, formatErr(field.Datetime, "%q is not a datetime", s)
	}
	if str[4] != '-' || str[7] != '-' {
		return tm, formatErr(field.Datetime, "%q is not a datetime", s)
	}
	if tm.Mon, err = atoi(str[5:7]); err != nil || tm.Mon < 1 || tm.Mon > 12 {
		return tm, formatErr(field.Datetime, "%q is not a datetime", s)
	}
	if tm.Day, err = atoi(str[8:10]); err != nil || tm.Day < 1 || tm.Day > 31 {
		return tm, formatErr(field.Datetime, "%q is not a datetime", s)
	}
	rest := str[10:]
	if rest == "" {
		return tm, nil
	}
	if rest[0] != 'T' && rest[0] != ' ' {
		return tm, formatErr(field.Datetime, "%q is not a datetime", s)
	}
	rest = rest[1:]

	// Split off the zone designator, if any.
	zone := 0
	hasZone := false
	if i := strings.IndexAny(rest, "Z+-"); i >= 0 {
		z := rest[i:]
		rest = rest[:i]
		hasZone = true
		if z != "Z" {
			sign := 1
			if z[0] == '-' {
				sign = -1
			}
			z = z[1:]
			z = strings.Replace(z, ":", "", 1)
			if len(z) != 4 && len(z) != 2 {
				return tm, formatErr(field.Datetime, "%q has an invalid timezone", s)
			}
			zh, err := atoi(z[0:2])
			if err != nil {
				return tm, formatErr(field.Datetime, "%q has an invalid timezone", s)
			}
			zm := 0
			if len(z) == 4 {
				if zm, err = atoi(z[2:4]); err != nil {
					return tm, formatErr(field.Datetime, "%q has an invalid timezone", s)
				}
			}
			zone = sign * (zh*3600 + zm*60)
		}
	}
	if len(rest) < 5 || rest[2] != ':' {
		return tm, formatErr(field.Datetime, "%q is not a datetime", s)
	}
	if tm.Hour, err = atoi(rest[0:2]); err != nil || tm.Hour > 23 {
		return tm, formatErr(field.Datetime, "%q is not a datetime", s)
	}
	if tm.Min, err = atoi(rest[3:5]); err != nil || tm.Min > 59 {
		return tm, formatErr(field.Datetime, "%q is not a datetime", s)
	}
	if len(rest) > 5 {
		if rest[5] != ':' || len(rest) < 8 {
			return tm, formatErr(field.Datetime, "%q is not a datetime", s)
		}
		if tm.Sec, err = atoi(rest[6:8]); err != nil || tm.Sec > 60 {
			return tm, formatErr(field.Datetime, "%q is not a datetime", s)
		}
		if len(rest) > 8 {
			if rest[8] != '.' {
				return tm, formatErr(field.Datetime, "%q is not a datetime", s)
			}
			f, err := strconv.ParseFloat("0"+rest[8:], 64)
			if err != nil {
				return tm, formatErr(field.Datetime, "%q is not a datetime", s)
			}
			tm.Fsec = f
		}
	}
	if hasZone {
		tm.Off = zone
	}
	return tm, nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(s)
}

func parseTmObject(m map[string]interface{}) (Tm, error) {
	tm := Tm{Mon: 1, Day: 1}
	seenYear := false
	for k, v := range m {
		switch k {
		case "_year":
			i, ok := ToInt(v)
			if !ok {
				return tm, formatErr(field.Datetime, "_year %v is invalid", v)
			}
			tm.Year = int(i)
			seenYear = true
		case "_month":
			i, ok := ToInt(v)
			if !ok || i < 1 || i > 12 {
				return tm, formatErr(field.Datetime, "_month %v is invalid", v)
			}
			tm.Mon = int(i)
		case "_day":
			i, ok := ToInt(v)
			if !ok || i < 1 || i > 31 {
				return tm, formatErr(field.Datetime, "_day %v is invalid", v)
			}
			tm.Day = int(i)
		case "_hour":
			i, ok := ToInt(v)
			if !ok || i < 0 || i > 23 {
				return tm, formatErr(field.Datetime, "_hour %v is invalid", v)
			}
			tm.Hour = int(i)
		case "_min", "_minute":
			i, ok := ToInt(v)
			if !ok || i < 0 || i > 59 {
				return tm, formatErr(field.Datetime, "_minute %v is invalid", v)
			}
			tm.Min = int(i)
		case "_sec", "_second":
			f, ok := ToFloat(v)
			if !ok || f < 0 || f > 60 {
				return tm, formatErr(field.Datetime, "_second %v is invalid", v)
			}
			tm.Sec = int(f)
			tm.Fsec = f - math.Trunc(f)
		case "_time":
			s, ok := v.(string)
			if !ok {
				return tm, formatErr(field.Datetime, "_time %v is invalid", v)
			}
			f, err := TimeValue(s)
			if err != nil {
				return tm, err
			}
			tm.Hour = int(f) / 3600
			tm.Min = (int(f) % 3600) / 60
			tm.Sec = int(f) % 60
			tm.Fsec = f - math.Trunc(f)
		default:
			return tm, formatErr(field.Datetime, "unknown datetime component %q", k)
		}
	}
	if !seenYear {
		return tm, formatErr(field.Datetime, "datetime object has no _year")
	}
	return tm, nil
}

// TimeValue parses "HH:MM[:SS[.fff]]" or a bare number of seconds into
// canonical f64 seconds within a day.
func TimeValue(v interface{}) (float64, error) {
	switch x := v.(type) {
	case string:
		f, err := parseClock(x)
		if err != nil {
			return 0, formatErr(field.Time, "%q is not a time", x)
		}
		if f < 0 || f >= 86400 {
			return 0, formatErr(field.Time, "%q is out of range", x)
		}
		return f, nil
	default:
		if f, ok := ToFloat(v); ok {
			if f < 0 || f >= 86400 {
				return 0, formatErr(field.Time, "%v is out of range", v)
			}
			return f, nil
		}
	}
	return 0, formatErr(field.Time, "%v is not a time", v)
}

// TimedeltaValue parses "[+|-]HH:MM[:SS[.fff]]" or a signed number of seconds.
func TimedeltaValue(v interface{}) (float64, error) {
	switch x := v.(type) {
	case string:
		s := x
		sign := 1.0
		if strings.HasPrefix(s, "-") {
			sign = -1.0
			s = s[1:]
		} else if strings.HasPrefix(s, "+") {
			s = s[1:]
		} else {
			// A bare clock string is a time, not a delta.
			return 0, formatErr(field.Timedelta, "%q is not a timedelta", x)
		}
		f, err := parseClock(s)
		if err != nil {
			return 0, formatErr(field.Timedelta, "%q is not a timedelta", x)
		}
		return sign * f, nil
	default:
		if f, ok := ToFloat(v); ok {
			return f, nil
		}
	}
	return 0, formatErr(field.Timedelta, "%v is not a timedelta", v)
}

func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 2 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid clock %q", s)
	}
	var sec float64
	if len(parts) == 3 {
		sec, err = strconv.ParseFloat(parts[2], 64)
		if err != nil || sec >= 61 {
			return 0, fmt.Errorf("invalid clock %q", s)
		}
	}
	return float64(h)*3600 + float64(m)*60 + sec, nil
}
