package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/analysis/lang/cjk"
	"github.com/blevesearch/bleve/analysis/token/lowercase"
	"github.com/blevesearch/bleve/analysis/token/ngram"
	"github.com/blevesearch/bleve/analysis/token/stop"
	unicodetok "github.com/blevesearch/bleve/analysis/tokenizer/unicode"
)

// StopStrategy controls how stop words participate in indexing.
type StopStrategy int

const (
	StopNone StopStrategy = iota
	StopAll
	StopStemmed
)

// StemStrategy controls which terms get a stemmed counterpart.
type StemStrategy int

const (
	StemNone StemStrategy = iota
	StemSome
	StemAll
	StemAllZ
)

var stopStrategies = map[string]StopStrategy{
	"none":    StopNone,
	"all":     StopAll,
	"stemmed": StopStemmed,
}

var stemStrategies = map[string]StemStrategy{
	"none":  StemNone,
	"some":  StemSome,
	"all":   StemAll,
	"all_z": StemAllZ,
}

// ParseStopStrategy resolves a stop strategy surface string.
func ParseStopStrategy(s string) (StopStrategy, bool) {
	v, ok := stopStrategies[strings.ToLower(strings.TrimSpace(s))]
	return v, ok
}

// ParseStemStrategy resolves a stem strategy surface string.
func ParseStemStrategy(s string) (StemStrategy, bool) {
	v, ok := stemStrategies[strings.ToLower(strings.TrimSpace(s))]
	return v, ok
}

func (s StopStrategy) String() string {
	switch s {
	case StopAll:
		return "all"
	case StopStemmed:
		return "stemmed"
	}
	return "none"
}

func (s StemStrategy) String() string {
	switch s {
	case StemSome:
		return "some"
	case StemAll:
		return "all"
	case StemAllZ:
		return "all_z"
	}
	return "none"
}

// Term is one generated index term. Positional terms become postings;
// non-positional ones become plain terms.
type Term struct {
	Term       string
	Position   int
	Positional bool
}

// TermGenerator lowers a text value into index terms honoring the field's
// language and strategy settings.
type TermGenerator struct {
	Language     string
	StemLanguage string
	Stop         StopStrategy
	Stem         StemStrategy
	Ngram        bool
	CJKNgram     bool
	CJKWords     bool
}

var (
	unicodeTokenizer = unicodetok.NewUnicodeTokenizer()
	lowerFilter      = lowercase.NewLowerCaseFilter()
)

// Terms runs the analysis chain and applies the stop and stem strategies.
func (g *TermGenerator) Terms(text string) []Term {
	lang := NormalizeLanguage(g.Language)
	stemLang := NormalizeLanguage(g.StemLanguage)
	if stemLang == "" {
		stemLang = lang
	}

	stream := unicodeTokenizer.Tokenize([]byte(text))
	if g.CJKNgram {
		width := cjk.NewCJKWidthFilter()
		stream = width.Filter(stream)
		bigram := cjk.NewCJKBigramFilter(g.CJKWords)
		stream = bigram.Filter(stream)
	}
	stream = lowerFilter.Filter(stream)
	if g.Stop == StopAll {
		if tm, ok := StopTokenMap(lang); ok {
			stream = stop.NewStopTokensFilter(tm).Filter(stream)
		}
	}
	if g.Ngram {
		stream = ngram.NewNgramFilter(2, 3).Filter(stream)
	}

	var out []Term
	for _, tok := range stream {
		term := string(tok.Term)
		if term == "" {
			continue
		}
		stopWord := IsStopWord(lang, term)
		stemmed := g.Stem != StemNone && !(stopWord && g.Stop == StopStemmed)
		switch g.Stem {
		case StemNone:
			out = append(out, Term{Term: term, Position: tok.Position, Positional: true})
		case StemSome:
			out = append(out, Term{Term: term, Position: tok.Position, Positional: true})
			if stemmed && !startsUpper(text, tok.Start) {
				out = append(out, Term{Term: "Z" + Stem(stemLang, term)})
			}
		case StemAll:
			if stemmed {
				out = append(out, Term{Term: Stem(stemLang, term), Position: tok.Position, Positional: true})
			} else {
				out = append(out, Term{Term: term, Position: tok.Position, Positional: true})
			}
		case StemAllZ:
			if stemmed {
				out = append(out, Term{Term: "Z" + Stem(stemLang, term), Position: tok.Position, Positional: true})
			} else {
				out = append(out, Term{Term: term, Position: tok.Position, Positional: true})
			}
		}
	}
	return out
}

// startsUpper reports whether the original token at the byte offset begins
// with an uppercase rune, which exempts it from some-stemming.
func startsUpper(text string, start int) bool {
	if start < 0 || start >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[start:])
	return unicode.IsUpper(r)
}
