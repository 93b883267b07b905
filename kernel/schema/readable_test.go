package schema

import (
	"testing"
)

func TestReadableStripsInternals(t *testing.T) {
	props := Properties{
		ReservedID: map[string]interface{}{"_type": "uuid"},
		"name": map[string]interface{}{
			ReservedType:      "text",
			ReservedPrefix:    "Fabcd",
			ReservedSlot:      uint64(123),
			ReservedAccPrefix: []interface{}{"x"},
			ReservedLanguage:  "en",
		},
	}
	out := Readable(props)
	if _, ok := out[ReservedID]; ok {
		t.Fatal("_id hides at root")
	}
	name, ok := out["name"].(map[string]interface{})
	if !ok {
		t.Fatalf("name got %#v", out["name"])
	}
	for _, hidden := range []string{ReservedPrefix, ReservedSlot, ReservedAccPrefix} {
		if _, ok := name[hidden]; ok {
			t.Fatalf("%s must be hidden", hidden)
		}
	}
	if name[ReservedType] != "text" || name[ReservedLanguage] != "en" {
		t.Fatalf("public keys must stay: %#v", name)
	}
}

func TestReadableStemLanguage(t *testing.T) {
	same := Properties{
		"a": map[string]interface{}{
			ReservedLanguage:     "en",
			ReservedStemLanguage: "en",
		},
	}
	out := Readable(same)
	a := out["a"].(map[string]interface{})
	if _, ok := a[ReservedStemLanguage]; ok {
		t.Fatal("matching stem language hides")
	}

	diff := Properties{
		"a": map[string]interface{}{
			ReservedLanguage:     "en",
			ReservedStemLanguage: "de",
		},
	}
	out = Readable(diff)
	a = out["a"].(map[string]interface{})
	if a[ReservedStemLanguage] != "de" {
		t.Fatal("differing stem language shows")
	}
}

func TestReadableAfterIndexing(t *testing.T) {
	sch, _ := newTestSchema(t)
	mustIndex(t, sch, map[string]interface{}{"name": "German"})

	out := Readable(sch.Origin())
	name, ok := out["name"].(map[string]interface{})
	if !ok {
		t.Fatalf("indexed field missing from readable view: %#v", out)
	}
	if _, ok := name[ReservedPrefix]; ok {
		t.Fatal("prefix leaked into readable view")
	}
	if _, ok := name[ReservedSlot]; ok {
		t.Fatal("slot leaked into readable view")
	}
}
