package analysis

import (
	"testing"
)

func terms(list []Term) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, t := range list {
		out[t.Term] = true
	}
	return out
}

func TestTermsBasic(t *testing.T) {
	g := &TermGenerator{}
	got := g.Terms("Hello World")
	set := terms(got)
	if !set["hello"] || !set["world"] {
		t.Fatalf("tokens missing: %v", got)
	}
	for _, tt := range got {
		if !tt.Positional {
			t.Fatal("plain tokens must carry positions")
		}
	}
}

func TestStemSome(t *testing.T) {
	g := &TermGenerator{Language: "en", Stem: StemSome}
	got := g.Terms("running quickly")
	set := terms(got)
	if !set["running"] {
		t.Fatal("raw token must stay")
	}
	if !set["Zrun"] {
		t.Fatalf("stemmed Z term missing: %v", got)
	}
}

func TestStemAllZ(t *testing.T) {
	g := &TermGenerator{Language: "en", Stem: StemAllZ}
	got := g.Terms("running")
	set := terms(got)
	if !set["Zrun"] {
		t.Fatalf("all_z must emit Z-prefixed stems: %v", got)
	}
	if set["running"] {
		t.Fatal("all_z must not emit the raw token")
	}
}

func TestStopAll(t *testing.T) {
	g := &TermGenerator{Language: "en", Stop: StopAll}
	got := g.Terms("the cat and the hat")
	set := terms(got)
	if set["the"] || set["and"] {
		t.Fatalf("stop words must drop: %v", got)
	}
	if !set["cat"] || !set["hat"] {
		t.Fatalf("content words must stay: %v", got)
	}
}

func TestStopAllCoversEveryLanguage(t *testing.T) {
	// Every language with a stemmer carries a bleve stop set.
	for lang := range stemmers {
		if _, ok := StopTokenMap(lang); !ok {
			t.Fatalf("language %q has no stop set", lang)
		}
	}
}

func TestStopAllItalian(t *testing.T) {
	g := &TermGenerator{Language: "it", Stop: StopAll}
	got := g.Terms("il gatto e la volpe")
	set := terms(got)
	if set["il"] || set["e"] || set["la"] {
		t.Fatalf("italian stop words must drop: %v", got)
	}
	if !set["gatto"] || !set["volpe"] {
		t.Fatalf("content words must stay: %v", got)
	}
}

func TestStopStemmed(t *testing.T) {
	g := &TermGenerator{Language: "en", Stop: StopStemmed, Stem: StemSome}
	got := g.Terms("there running")
	set := terms(got)
	if !set["there"] {
		t.Fatal("stemmed strategy keeps the raw stop word")
	}
	if set["Zthere"] {
		t.Fatal("stemmed strategy must not stem stop words")
	}
	if !set["Zrun"] {
		t.Fatal("content words still stem")
	}
}

func TestParseStrategies(t *testing.T) {
	if s, ok := ParseStopStrategy("ALL"); !ok || s != StopAll {
		t.Fatal("stop strategy parse failed")
	}
	if s, ok := ParseStemStrategy("all_z"); !ok || s != StemAllZ {
		t.Fatal("stem strategy parse failed")
	}
	if _, ok := ParseStemStrategy("sideways"); ok {
		t.Fatal("invalid stem strategy should fail")
	}
}

func TestNormalizeLanguage(t *testing.T) {
	if NormalizeLanguage("English") != "en" {
		t.Fatal("alias must resolve")
	}
	if NormalizeLanguage("en") != "en" {
		t.Fatal("code must resolve to itself")
	}
	if NormalizeLanguage("klingon") != "" {
		t.Fatal("unknown language resolves to empty")
	}
	if !IsValidLanguage("none") || !IsValidLanguage("") {
		t.Fatal("none is valid")
	}
}

func TestStem(t *testing.T) {
	if Stem("en", "running") != "run" {
		t.Fatalf("stem got %q", Stem("en", "running"))
	}
	if Stem("", "running") != "running" {
		t.Fatal("no language means no stemming")
	}
}
