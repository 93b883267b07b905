package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nivalisdb/nivalis/kernel/field"
	"github.com/nivalisdb/nivalis/kernel/serialise"
	"github.com/nivalisdb/nivalis/kernel/store"
)

func newTestSchema(t *testing.T) (*Schema, *store.ShardSet) {
	t.Helper()
	sch, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return sch, store.NewShardSet(store.NewMemShard())
}

func mustIndex(t *testing.T, sch *Schema, obj map[string]interface{}) *IndexResult {
	t.Helper()
	shards := store.NewShardSet(store.NewMemShard())
	res, err := sch.Index(obj, nil, shards, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	sch.Swap()
	return res
}

func TestDuplicatedUUIDFieldRejected(t *testing.T) {
	sch, shards := newTestSchema(t)

	raw, err := serialise.UUID("00000000-0000-1000-8000-c97562616c75")
	if err != nil {
		t.Fatal(err)
	}
	obj := map[string]interface{}{
		serialise.CompactUUID(raw):                         "A",
		"00000000-0000-1000-8000-c97562616c75":             "B",
		"urn:uuid:00000000-0000-1000-8000-c97562616c75":    "C",
		"{00000000-0000-1000-8000-c97562616c75}":           "D",
	}
	_, err = sch.Index(obj, nil, shards, nil, nil)
	if err == nil {
		t.Fatal("duplicated uuid aliases must be rejected")
	}
	if !errors.Is(err, ErrClient) {
		t.Fatalf("want client error, got %v", err)
	}
	if !strings.Contains(err.Error(), "duplicated") {
		t.Fatalf("want duplication message, got %q", err.Error())
	}
	if sch.Dirty() {
		t.Fatal("draft must be discarded on error")
	}
}

func TestTypedArrayCoherence(t *testing.T) {
	sch, shards := newTestSchema(t)

	obj := map[string]interface{}{
		"types": map[string]interface{}{
			ReservedType:  "array/keyword",
			ReservedValue: []interface{}{"A", "B", "C", "D"},
		},
	}
	res, err := sch.Index(obj, nil, shards, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	node, err := sch.Props().Get("types")
	if err != nil {
		t.Fatal(err)
	}
	if node[ReservedType] != "array/keyword" {
		t.Fatalf("persisted type got %v", node[ReservedType])
	}

	slot, ok := node[ReservedSlot].(uint64)
	if !ok {
		t.Fatalf("persisted slot got %T", node[ReservedSlot])
	}
	vs := res.Doc.ValueSet(uint32(slot))
	if vs.Len() != 4 {
		t.Fatalf("value slot should hold 4 keywords, got %d", vs.Len())
	}
	joined := res.Doc.Value(uint32(slot))
	want := []byte{1, 'a', 1, 'b', 1, 'c', 1, 'd'}
	if string(joined) != string(want) {
		t.Fatalf("joined slot got %v want %v", joined, want)
	}

	arr, ok := res.Data["types"].([]interface{})
	if !ok || len(arr) != 4 || arr[0] != "A" {
		t.Fatalf("stored value got %#v", res.Data["types"])
	}
}

func TestMergeUpdate(t *testing.T) {
	old := map[string]interface{}{
		"name":   "German M. Bravo",
		"age":    json.Number("39"),
		"gender": "M",
	}
	patch := map[string]interface{}{"name": "German Mendez Bravo"}
	merged := MergeObjects(old, patch)
	if merged["name"] != "German Mendez Bravo" {
		t.Fatalf("name got %v", merged["name"])
	}
	if merged["age"] != json.Number("39") || merged["gender"] != "M" {
		t.Fatalf("merge lost fields: %#v", merged)
	}
	if old["name"] != "German M. Bravo" {
		t.Fatal("merge must not mutate the stored version")
	}
}

func TestGeoAccuracyOverride(t *testing.T) {
	sch, shards := newTestSchema(t)

	obj := map[string]interface{}{
		"location": map[string]interface{}{
			"_point": map[string]interface{}{
				"_latitude":  19.32,
				"_longitude": 99.55,
			},
			ReservedAccuracy: []interface{}{json.Number("10"), json.Number("15")},
		},
	}
	res, err := sch.Index(obj, nil, shards, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	prefix := fieldPrefix("location")
	lane10 := string(accPrefix(prefix, 10))
	lane15 := string(accPrefix(prefix, 15))
	var n10, n15 int
	for _, term := range res.Doc.Terms() {
		if strings.HasPrefix(term, lane10) {
			n10++
		}
		if strings.HasPrefix(term, lane15) {
			n15++
		}
	}
	if n10 != 1 || n15 != 1 {
		t.Fatalf("want one bucket per level, got %d and %d", n10, n15)
	}
}

func TestDateAccuracyOverride(t *testing.T) {
	sch, shards := newTestSchema(t)

	obj := map[string]interface{}{
		"when": map[string]interface{}{
			ReservedType:     "datetime",
			ReservedValue:    "2015-08-10T10:30:00",
			ReservedAccuracy: []interface{}{json.Number("3600"), "century"},
		},
	}
	res, err := sch.Index(obj, nil, shards, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	prefix := fieldPrefix("when")
	hourLane := string(accPrefix(prefix, uint64(field.UnitHour)))
	centuryLane := string(accPrefix(prefix, uint64(field.UnitCentury)))
	var nHour, nCentury int
	for _, term := range res.Doc.Terms() {
		if strings.HasPrefix(term, hourLane) {
			nHour++
		}
		if strings.HasPrefix(term, centuryLane) {
			nCentury++
		}
	}
	if nHour != 1 || nCentury != 1 {
		t.Fatalf("want one hour and one century bucket, got %d and %d", nHour, nCentury)
	}
}

func TestScriptMutation(t *testing.T) {
	sch, shards := newTestSchema(t)

	obj := map[string]interface{}{
		ReservedScript: "_doc.age = _old_doc.age + 5",
	}
	oldDoc := map[string]interface{}{"age": 39}
	res, err := sch.Index(obj, nil, shards, oldDoc, GojaRunner{})
	if err != nil {
		t.Fatal(err)
	}
	age, ok := serialise.ToInt(res.Data["age"])
	if !ok || age != 44 {
		t.Fatalf("script result got %#v", res.Data["age"])
	}
}

func TestScriptDisabled(t *testing.T) {
	sch, shards := newTestSchema(t)

	obj := map[string]interface{}{
		ReservedScript: "_doc.x = 1",
	}
	_, err := sch.Index(obj, nil, shards, nil, DisabledRunner{})
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("want not supported, got %v", err)
	}
	if sch.Dirty() {
		t.Fatal("draft must be discarded on error")
	}
}

func TestKeywordIDInferred(t *testing.T) {
	sch, shards := newTestSchema(t)

	res1, err := sch.Index(map[string]interface{}{
		ReservedID: map[string]interface{}{ReservedType: "keyword"},
		"test":     "Test 1",
	}, nil, shards, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	sch.Swap()
	if !strings.HasPrefix(res1.IDTerm, idPrefix+string(field.CType(field.Keyword))) {
		t.Fatalf("id term got %q", res1.IDTerm)
	}

	res2, err := sch.Index(map[string]interface{}{"test": "Test 2"}, nil, shards, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	sch.Swap()
	if !strings.HasPrefix(res2.IDTerm, idPrefix+string(field.CType(field.Keyword))) {
		t.Fatalf("second id term got %q", res2.IDTerm)
	}

	_, err = sch.Index(map[string]interface{}{
		ReservedID: map[string]interface{}{ReservedType: "integer"},
		"test":     "Test 3",
	}, nil, shards, nil, nil)
	if !errors.Is(err, ErrClient) {
		t.Fatalf("changing the id type must fail, got %v", err)
	}
}

func TestConcreteTypeStable(t *testing.T) {
	sch, _ := newTestSchema(t)
	mustIndex(t, sch, map[string]interface{}{"age": json.Number("39")})

	node, err := sch.Props().Get("age")
	if err != nil {
		t.Fatal(err)
	}
	if node[ReservedType] != "positive" {
		t.Fatalf("detected type got %v", node[ReservedType])
	}

	shards := store.NewShardSet(store.NewMemShard())
	_, err = sch.Index(map[string]interface{}{
		"age": map[string]interface{}{ReservedType: "text", ReservedValue: "x"},
	}, nil, shards, nil, nil)
	if !errors.Is(err, ErrClient) {
		t.Fatalf("changing a concrete type must fail, got %v", err)
	}
}

func TestKeywordTooLong(t *testing.T) {
	sch, shards := newTestSchema(t)
	_, err := sch.Index(map[string]interface{}{
		"k": map[string]interface{}{
			ReservedType:  "keyword",
			ReservedValue: strings.Repeat("x", 250),
		},
	}, nil, shards, nil, nil)
	if !errors.Is(err, ErrKeywordTooLong) {
		t.Fatalf("oversize keyword must fail, got %v", err)
	}
}

func TestOversizeTextSkipped(t *testing.T) {
	sch, shards := newTestSchema(t)
	long := strings.Repeat("x", 300)
	res, err := sch.Index(map[string]interface{}{
		"t": map[string]interface{}{
			ReservedType:  "text",
			ReservedValue: long,
		},
	}, nil, shards, nil, nil)
	if err != nil {
		t.Fatalf("oversize text terms skip silently, got %v", err)
	}
	for _, term := range res.Doc.Terms() {
		if len(term) > termMaxSize {
			t.Fatalf("oversize term leaked: %d bytes", len(term))
		}
	}
}

func TestNumericSentinelNeverEmitted(t *testing.T) {
	sch, shards := newTestSchema(t)
	res, err := sch.Index(map[string]interface{}{
		ReservedID: map[string]interface{}{
			ReservedType:  "integer",
			ReservedValue: json.Number("0"),
		},
		"x": "hello world",
	}, nil, shards, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.IDTerm != reservedTermNumericID {
		t.Fatalf("id term got %q", res.IDTerm)
	}
	if res.Doc.HasTerm(reservedTermNumericID) {
		t.Fatal("the numeric id sentinel must never be a boolean term")
	}
}

func TestStrictModeRequiresType(t *testing.T) {
	sch, shards := newTestSchema(t)
	_, err := sch.Index(map[string]interface{}{
		ReservedStrict: true,
		"x":            "hello",
	}, nil, shards, nil, nil)
	if !errors.Is(err, ErrMissingType) {
		t.Fatalf("strict mode must require a type, got %v", err)
	}
	if sch.Dirty() {
		t.Fatal("draft must be discarded on error")
	}
}

func TestStoreFalsePropagates(t *testing.T) {
	sch, shards := newTestSchema(t)
	res, err := sch.Index(map[string]interface{}{
		"o": map[string]interface{}{
			ReservedStore: false,
			"inner": map[string]interface{}{
				ReservedStore: true,
				ReservedValue: "x",
			},
		},
	}, nil, shards, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Data["o"]; ok {
		t.Fatalf("store=false ancestor must drop descendants from data: %#v", res.Data["o"])
	}
}

func TestAutoIDRoundTrip(t *testing.T) {
	sch, shards := newTestSchema(t)
	res1, err := sch.Index(map[string]interface{}{"v": "a"}, nil, shards, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	sch.Swap()

	id, ok := res1.Data[ReservedID].(string)
	if !ok {
		t.Fatalf("auto id got %#v", res1.Data[ReservedID])
	}
	res2, err := sch.Index(map[string]interface{}{"v": "a"}, id, shards, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res2.IDTerm != res1.IDTerm {
		t.Fatalf("re-indexing the returned id must give the same term: %q vs %q", res1.IDTerm, res2.IDTerm)
	}
}

func TestDateValueRoundTrip(t *testing.T) {
	sch, _ := newTestSchema(t)
	res := mustIndex(t, sch, map[string]interface{}{
		"when": map[string]interface{}{
			ReservedType:  "datetime",
			ReservedValue: "2015-08-10T10:30:00",
		},
	})
	iso, ok := res.Data["when"].(string)
	if !ok {
		t.Fatalf("stored date got %#v", res.Data["when"])
	}
	_, tm1, err := serialise.Datetime("2015-08-10T10:30:00")
	if err != nil {
		t.Fatal(err)
	}
	_, tm2, err := serialise.Datetime(iso)
	if err != nil {
		t.Fatalf("stored date %q must reparse: %v", iso, err)
	}
	if serialise.Timegm(tm1) != serialise.Timegm(tm2) {
		t.Fatalf("date round trip drifts: %q", iso)
	}
}

func TestGeoSlotIdempotent(t *testing.T) {
	sch, _ := newTestSchema(t)
	point := map[string]interface{}{"_latitude": 19.32, "_longitude": 99.55}

	res1 := mustIndex(t, sch, map[string]interface{}{
		"loc": map[string]interface{}{"_point": point},
	})
	sch2, _ := newTestSchema(t)
	res2 := mustIndex(t, sch2, map[string]interface{}{
		"loc": map[string]interface{}{"_point": point},
	})

	node, err := sch.Props().Get("loc")
	if err != nil {
		t.Fatal(err)
	}
	slot := uint32(node[ReservedSlot].(uint64))
	if string(res1.Doc.Value(slot)) != string(res2.Doc.Value(slot)) {
		t.Fatal("indexing the same geometry twice must give the same slot bytes")
	}
}

func TestForeignFieldRejectsValue(t *testing.T) {
	sch, shards := newTestSchema(t)
	_, err := sch.Index(map[string]interface{}{
		"ref": map[string]interface{}{
			ReservedType:     "foreign/object",
			ReservedEndpoint: "http://other/index",
			"child":          "x",
		},
	}, nil, shards, nil, nil)
	if !errors.Is(err, ErrClient) {
		t.Fatalf("foreign field with concrete children must fail, got %v", err)
	}
}

func TestForeignFieldResolvesEndpoint(t *testing.T) {
	backing := store.NewMemShard()
	target, _ := New(nil)
	mustIndex(t, target, map[string]interface{}{"x": "y"})
	if err := Save(backing, target); err != nil {
		t.Fatal(err)
	}
	ss, err := NewSchemas(4, func(endpoint string) (store.Shard, error) {
		return backing, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	sch, shards := newTestSchema(t)
	sch.SetSchemas(ss)
	_, err = sch.Index(map[string]interface{}{
		"ref": map[string]interface{}{
			ReservedType:     "foreign/object",
			ReservedEndpoint: "http://other/idx",
		},
	}, nil, shards, nil, nil)
	if err != nil {
		t.Fatalf("resolvable foreign endpoint must index: %v", err)
	}
}

func TestForeignFieldUnresolvableEndpoint(t *testing.T) {
	ss, err := NewSchemas(4, func(endpoint string) (store.Shard, error) {
		return nil, errors.New("unreachable")
	})
	if err != nil {
		t.Fatal(err)
	}

	sch, shards := newTestSchema(t)
	sch.SetSchemas(ss)
	_, err = sch.Index(map[string]interface{}{
		"ref": map[string]interface{}{
			ReservedType:     "foreign/object",
			ReservedEndpoint: "http://gone/idx",
		},
	}, nil, shards, nil, nil)
	if !errors.Is(err, ErrClient) {
		t.Fatalf("unresolvable foreign endpoint must fail, got %v", err)
	}
	if sch.Dirty() {
		t.Fatal("draft must be discarded on error")
	}
}

func TestSchemaUpdateForeignRedirect(t *testing.T) {
	sch, _ := newTestSchema(t)
	replaced, err := sch.Update(map[string]interface{}{
		ReservedType:     "foreign/object",
		ReservedEndpoint: "http://other/index",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !replaced {
		t.Fatal("foreign redirect must report replacement")
	}
	if sch.Endpoint() != "http://other/index" {
		t.Fatalf("endpoint got %q", sch.Endpoint())
	}
}

func TestSchemaWriteDefinitions(t *testing.T) {
	sch, _ := newTestSchema(t)
	replaced, err := sch.Write(map[string]interface{}{
		"name": map[string]interface{}{ReservedType: "text", ReservedLanguage: "en"},
		"address": map[string]interface{}{
			"city": map[string]interface{}{ReservedType: "keyword"},
		},
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	if replaced {
		t.Fatal("local schema write must not report replacement")
	}
	sch.Swap()

	name, err := sch.Props().Get("name")
	if err != nil {
		t.Fatal(err)
	}
	if name[ReservedType] != "text" || name[ReservedLanguage] != "en" {
		t.Fatalf("name definition got %#v", name)
	}
	city, err := sch.Props().Get("address.city")
	if err != nil {
		t.Fatal(err)
	}
	if city[ReservedType] != "keyword" {
		t.Fatalf("nested definition got %#v", city)
	}
}

func TestUUIDFieldNormalizedInData(t *testing.T) {
	sch, _ := newTestSchema(t)
	raw, err := serialise.UUID("00000000-0000-1000-8000-c97562616c75")
	if err != nil {
		t.Fatal(err)
	}
	compact := serialise.CompactUUID(raw)
	res := mustIndex(t, sch, map[string]interface{}{compact: "v"})
	if _, ok := res.Data["00000000-0000-1000-8000-c97562616c75"]; !ok {
		t.Fatalf("uuid key must canonicalize in data: %#v", res.Data)
	}
	if _, ok := res.Data[compact]; ok {
		t.Fatal("compact alias must not survive in data")
	}
	if _, err := sch.Props().Get(uuidFieldName); err != nil {
		t.Fatal("uuid fields fold into the synthetic child")
	}
}

func TestNamespaceDescendants(t *testing.T) {
	sch, _ := newTestSchema(t)
	res := mustIndex(t, sch, map[string]interface{}{
		"tags": map[string]interface{}{
			ReservedNamespace: true,
			"color":           "blue",
		},
	})
	// The namespace child is not persisted as a schema field.
	if node, err := sch.Props().Get("tags"); err != nil {
		t.Fatal(err)
	} else if _, ok := node["color"]; ok {
		t.Fatal("namespace descendants must not persist in the schema")
	}
	if len(res.Doc.Terms()) == 0 {
		t.Fatal("namespace leaf must still index")
	}
}
