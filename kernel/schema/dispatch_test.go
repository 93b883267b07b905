package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/nivalisdb/nivalis/kernel/analysis"
	"github.com/nivalisdb/nivalis/kernel/field"
)

func TestDispatchHashClosedVocabulary(t *testing.T) {
	// One handler per key; lookup by hash resolves back to the exact name.
	for h, p := range properties {
		if hashKeyword(p.name) != h {
			t.Fatalf("%s registered under a foreign hash", p.name)
		}
		if lookup(p.name) != p {
			t.Fatalf("%s does not resolve to its own handler", p.name)
		}
	}
	if lookup("_no_such_keyword") != nil {
		t.Fatal("unknown keywords must not resolve")
	}
}

func TestFeedTolerance(t *testing.T) {
	spc := Default()
	c := &dctx{spc: &spc}
	spc.FullMetaName = "broken.field"

	err := lookup(ReservedType).feed(c, 42)
	if !errors.Is(err, ErrSchemaCorrupt) {
		t.Fatalf("malformed stored type must corrupt, got %v", err)
	}
	if !strings.Contains(err.Error(), "broken.field") {
		t.Fatalf("corruption must name the field: %q", err.Error())
	}

	err = lookup(ReservedSlot).feed(c, "many")
	if !errors.Is(err, ErrSchemaCorrupt) {
		t.Fatalf("malformed stored slot must corrupt, got %v", err)
	}
}

func TestProcessLanguageGroup(t *testing.T) {
	spc := Default()
	c := &dctx{spc: &spc}

	if err := lookup(ReservedLanguage).process(c, "english"); err != nil {
		t.Fatal(err)
	}
	if spc.Language != "en" || spc.StemLanguage != "en" {
		t.Fatalf("language group got %q/%q", spc.Language, spc.StemLanguage)
	}
	if err := lookup(ReservedStemLanguage).process(c, "german"); err != nil {
		t.Fatal(err)
	}
	if spc.StemLanguage != "de" {
		t.Fatalf("stem language got %q", spc.StemLanguage)
	}
	if err := lookup(ReservedLanguage).process(c, "klingon"); err == nil {
		t.Fatal("unknown language must fail")
	}
}

func TestProcessStrategies(t *testing.T) {
	spc := Default()
	c := &dctx{spc: &spc}
	if err := lookup(ReservedStopStrategy).process(c, "all"); err != nil {
		t.Fatal(err)
	}
	if spc.StopStrategy != analysis.StopAll {
		t.Fatal("stop strategy not applied")
	}
	if err := lookup(ReservedStemStrategy).process(c, "all_z"); err != nil {
		t.Fatal(err)
	}
	if spc.StemStrategy != analysis.StemAllZ {
		t.Fatal("stem strategy not applied")
	}
	if err := lookup(ReservedStopStrategy).process(c, "sideways"); err == nil {
		t.Fatal("invalid strategy must fail")
	}
}

func TestConsistencyPlane(t *testing.T) {
	spc := Default()
	spc.SepTypes[field.SpcConcrete] = field.Keyword
	spc.Flags.Concrete = true
	spc.Slot = 42
	spc.FullMetaName = "tag"
	c := &dctx{spc: &spc}

	if err := lookup(ReservedType).consistency(c, "keyword"); err != nil {
		t.Fatalf("matching type must pass: %v", err)
	}
	err := lookup(ReservedType).consistency(c, "text")
	if !errors.Is(err, ErrClient) {
		t.Fatalf("type change must fail: %v", err)
	}
	if !strings.Contains(err.Error(), "It is not allowed to change") {
		t.Fatalf("consistency message got %q", err.Error())
	}
	if err := lookup(ReservedSlot).consistency(c, uint64(42)); err != nil {
		t.Fatalf("matching slot must pass: %v", err)
	}
	if err := lookup(ReservedSlot).consistency(c, uint64(43)); err == nil {
		t.Fatal("slot change must fail")
	}
}

func TestIgnoredWildcard(t *testing.T) {
	spc := Default()
	c := &dctx{spc: &spc}
	if err := lookup(ReservedIgnore).process(c, []interface{}{"a", "*"}); err != nil {
		t.Fatal(err)
	}
	if spc.Flags.Recurse {
		t.Fatal("ignoring * must disable recursion")
	}
	if _, ok := spc.Ignored["a"]; !ok {
		t.Fatal("ignored names must register")
	}
}

func TestAccuracyParsing(t *testing.T) {
	if _, err := parseAccuracy(field.Integer, []interface{}{uint64(0)}); err == nil {
		t.Fatal("zero accuracy must fail")
	}
	us, err := parseAccuracy(field.Geo, []interface{}{uint64(10), uint64(15)})
	if err != nil {
		t.Fatal(err)
	}
	if len(us) != 2 || us[0] != 10 {
		t.Fatalf("geo accuracy got %v", us)
	}
	if _, err := parseAccuracy(field.Geo, []interface{}{uint64(99)}); err == nil {
		t.Fatal("HTM level out of range must fail")
	}
	if _, err := parseAccuracy(field.Keyword, uint64(5)); err == nil {
		t.Fatal("keyword accuracy must fail")
	}
}
