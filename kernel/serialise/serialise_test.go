package serialise

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/nivalisdb/nivalis/kernel/field"
)

func TestIntegerOrderPreserving(t *testing.T) {
	values := []int64{-1 << 62, -100000, -1, 0, 1, 42, 100000, 1 << 62}
	for i := 1; i < len(values); i++ {
		a := Integer(values[i-1])
		b := Integer(values[i])
		if bytes.Compare(a, b) >= 0 {
			t.Fatalf("order broken between %d and %d", values[i-1], values[i])
		}
	}
	for _, v := range values {
		if got := UnserialiseInteger(Integer(v)); got != v {
			t.Fatalf("round trip %d got %d", v, got)
		}
	}
}

func TestFloatingOrderPreserving(t *testing.T) {
	values := []float64{-1e300, -2.5, -0.0001, 0, 0.0001, 2.5, 1e300}
	for i := 1; i < len(values); i++ {
		a := Floating(values[i-1])
		b := Floating(values[i])
		if bytes.Compare(a, b) >= 0 {
			t.Fatalf("order broken between %v and %v", values[i-1], values[i])
		}
	}
	for _, v := range values {
		if got := UnserialiseFloating(Floating(v)); got != v {
			t.Fatalf("round trip %v got %v", v, got)
		}
	}
}

func TestPositiveRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 99, 1 << 40, 1<<64 - 1} {
		if got := UnserialisePositive(Positive(v)); got != v {
			t.Fatalf("round trip %d got %d", v, got)
		}
	}
}

func TestKeywordCase(t *testing.T) {
	if string(Keyword("HeLLo", false)) != "hello" {
		t.Fatal("keyword must lowercase without bool_term")
	}
	if string(Keyword("HeLLo", true)) != "HeLLo" {
		t.Fatal("bool_term keyword must keep case")
	}
}

func TestSerialiseBoolean(t *testing.T) {
	cases := map[string]bool{"true": true, "t": true, "1": true, "false": false, "f": false, "0": false}
	for s, want := range cases {
		b, err := Serialise(field.Boolean, s, false)
		if err != nil {
			t.Fatalf("serialise %q: %v", s, err)
		}
		if got := b[0] == 't'; got != want {
			t.Fatalf("serialise %q got %v", s, got)
		}
	}
	if _, err := Serialise(field.Boolean, "perhaps", false); err == nil {
		t.Fatal("invalid boolean should fail")
	}
}

func TestGuess(t *testing.T) {
	cases := []struct {
		value interface{}
		want  field.FieldType
	}{
		{true, field.Boolean},
		{json.Number("42"), field.Positive},
		{json.Number("-42"), field.Integer},
		{json.Number("4.5"), field.Floating},
		{"00000000-0000-1000-8000-010000000000", field.UUID},
		{"2015-08-10", field.Date},
		{"2015-08-10T10:00:00", field.Datetime},
		{"10:12:14", field.Time},
		{"+10:12:14", field.Timedelta},
		{"true", field.Boolean},
		{"plain words here", field.Text},
	}
	for _, c := range cases {
		got, _, err := Guess(c.value)
		if err != nil {
			t.Fatalf("guess %v: %v", c.value, err)
		}
		if got != c.want {
			t.Fatalf("guess %v got %s want %s", c.value, got, c.want)
		}
	}
}

func TestPrefixed(t *testing.T) {
	term := Prefixed([]byte("abc"), []byte("Fxx"), 'K')
	if term != "FxxKabc" {
		t.Fatalf("prefixed got %q", term)
	}
}
