package document

import (
	"bytes"
	"testing"
)

func TestTermsAccumulate(t *testing.T) {
	d := New()
	d.AddPosting("a", 1, 1)
	d.AddPosting("a", 2, 1)
	d.AddTerm("b", 3)
	d.AddBooleanTerm("c")

	if got := d.Term("a"); got.WDF != 2 || len(got.Positions) != 2 {
		t.Fatalf("posting info wrong: %+v", got)
	}
	if got := d.Term("b"); got.WDF != 3 || len(got.Positions) != 0 {
		t.Fatalf("term info wrong: %+v", got)
	}
	if got := d.Term("c"); got.WDF != 0 {
		t.Fatalf("boolean term must carry no weight: %+v", got)
	}
	if !d.HasTerm("c") || d.HasTerm("d") {
		t.Fatal("term membership wrong")
	}
	order := d.Terms()
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Fatalf("insertion order lost: %v", order)
	}
}

func TestValueSet(t *testing.T) {
	d := New()
	vs := d.ValueSet(7)
	vs.Add([]byte("x"))
	vs.Add([]byte("y"))
	vs.Add([]byte("x"))
	if vs.Len() != 2 {
		t.Fatalf("set must dedupe, got %d", vs.Len())
	}
	slots := d.Values()
	if len(slots) != 1 || slots[0] != 7 {
		t.Fatalf("slots got %v", slots)
	}
}

func TestValueJoin(t *testing.T) {
	d := New()
	vs := d.ValueSet(1)
	vs.Add([]byte("only"))
	if !bytes.Equal(d.Value(1), []byte("only")) {
		t.Fatal("single value joins to itself")
	}
	vs.Add([]byte("two"))
	joined := d.Value(1)
	want := append([]byte{4}, []byte("only")...)
	want = append(want, 3)
	want = append(want, []byte("two")...)
	if !bytes.Equal(joined, want) {
		t.Fatalf("join got %v want %v", joined, want)
	}
}

func TestSetValue(t *testing.T) {
	d := New()
	d.ValueSet(2).Add([]byte("a"))
	d.SetValue(2, []byte("combined"))
	if !bytes.Equal(d.Value(2), []byte("combined")) {
		t.Fatal("SetValue must replace the slot")
	}
	if d.ValueSet(2).Len() != 1 {
		t.Fatal("SetValue leaves one element")
	}
}
