package serialise

import (
	"testing"
)

func TestParseISO(t *testing.T) {
	cases := []struct {
		in   string
		year int
		mon  int
		day  int
		hour int
	}{
		{"2015-08-10", 2015, 8, 10, 0},
		{"2015-08-10T10:30:00", 2015, 8, 10, 10},
		{"2015-08-10 10:30:00", 2015, 8, 10, 10},
		{"2015-08-10T10:30:00.123", 2015, 8, 10, 10},
		{"2015-08-10T10:30:00Z", 2015, 8, 10, 10},
		{"2015-08-10T10:30:00+05:00", 2015, 8, 10, 10},
	}
	for _, c := range cases {
		_, tm, err := Datetime(c.in)
		if err != nil {
			t.Fatalf("parse %q: %v", c.in, err)
		}
		if tm.Year != c.year || tm.Mon != c.mon || tm.Day != c.day || tm.Hour != c.hour {
			t.Fatalf("parse %q got %+v", c.in, tm)
		}
	}
}

func TestParseISORejects(t *testing.T) {
	for _, c := range []string{"10/08/2015", "2015-13-01", "2015-08-32", "2015-08-10T25:00:00", "hello"} {
		if _, _, err := Datetime(c); err == nil {
			t.Fatalf("parse %q should fail", c)
		}
	}
}

func TestDatetimeObjectForm(t *testing.T) {
	_, tm, err := Datetime(map[string]interface{}{
		"_year":  2015,
		"_month": 8,
		"_day":   10,
		"_time":  "10:30:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	if tm.Year != 2015 || tm.Mon != 8 || tm.Day != 10 || tm.Hour != 10 || tm.Min != 30 {
		t.Fatalf("object form got %+v", tm)
	}
	if _, _, err := Datetime(map[string]interface{}{"_month": 8}); err == nil {
		t.Fatal("object without _year should fail")
	}
}

func TestDatetimeEpoch(t *testing.T) {
	b, tm, err := Datetime(float64(1439202600))
	if err != nil {
		t.Fatal(err)
	}
	if tm.Year != 2015 || tm.Mon != 8 || tm.Day != 10 {
		t.Fatalf("epoch got %+v", tm)
	}
	if UnserialiseFloating(b) != 1439202600 {
		t.Fatal("epoch must serialise to itself")
	}
}

func TestISORoundTrip(t *testing.T) {
	for _, in := range []string{"2015-08-10T10:30:00", "1999-12-31T23:59:59", "2015-08-10T00:00:00"} {
		_, tm, err := Datetime(in)
		if err != nil {
			t.Fatal(err)
		}
		iso := tm.ISO()
		_, tm2, err := Datetime(iso)
		if err != nil {
			t.Fatalf("reparse %q: %v", iso, err)
		}
		if Timegm(tm) != Timegm(tm2) {
			t.Fatalf("round trip %q → %q drifts", in, iso)
		}
	}
}

func TestTimegmToTm(t *testing.T) {
	tm := NewTm(2015, 8, 10, 10, 30, 45)
	ts := Timegm(tm)
	back := ToTm(ts)
	if back.Year != 2015 || back.Mon != 8 || back.Day != 10 || back.Hour != 10 || back.Min != 30 || back.Sec != 45 {
		t.Fatalf("ToTm got %+v", back)
	}
}

func TestTimeValue(t *testing.T) {
	f, err := TimeValue("10:30:15")
	if err != nil {
		t.Fatal(err)
	}
	if f != 10*3600+30*60+15 {
		t.Fatalf("time got %v", f)
	}
	if _, err := TimeValue("25:00:00"); err == nil {
		t.Fatal("out-of-range time should fail")
	}
	if _, err := TimeValue("10:30"); err != nil {
		t.Fatal("HH:MM should parse")
	}
}

func TestTimedeltaValue(t *testing.T) {
	f, err := TimedeltaValue("-01:30:00")
	if err != nil {
		t.Fatal(err)
	}
	if f != -5400 {
		t.Fatalf("timedelta got %v", f)
	}
	if _, err := TimedeltaValue("01:30:00"); err == nil {
		t.Fatal("unsigned clock is a time, not a delta")
	}
}
