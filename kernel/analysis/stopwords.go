package analysis

import (
	blevean "github.com/blevesearch/bleve/analysis"
	"github.com/blevesearch/bleve/analysis/lang/de"
	"github.com/blevesearch/bleve/analysis/lang/en"
	"github.com/blevesearch/bleve/analysis/lang/es"
	"github.com/blevesearch/bleve/analysis/lang/fi"
	"github.com/blevesearch/bleve/analysis/lang/fr"
	"github.com/blevesearch/bleve/analysis/lang/hu"
	"github.com/blevesearch/bleve/analysis/lang/it"
	"github.com/blevesearch/bleve/analysis/lang/nl"
	"github.com/blevesearch/bleve/analysis/lang/no"
	"github.com/blevesearch/bleve/analysis/lang/pt"
	"github.com/blevesearch/bleve/analysis/lang/ro"
	"github.com/blevesearch/bleve/analysis/lang/ru"
	"github.com/blevesearch/bleve/analysis/lang/sv"
	"github.com/blevesearch/bleve/analysis/lang/tr"
)

// Stop-word sets come from bleve's per-language snowball lists, one token
// map per supported stemming language.
var stopWordBytes = map[string][]byte{
	"en": en.EnglishStopWords,
	"es": es.SpanishStopWords,
	"fr": fr.FrenchStopWords,
	"de": de.GermanStopWords,
	"it": it.ItalianStopWords,
	"pt": pt.PortugueseStopWords,
	"nl": nl.DutchStopWords,
	"ru": ru.RussianStopWords,
	"sv": sv.SwedishStopWords,
	"no": no.NorwegianStopWords,
	"fi": fi.FinnishStopWords,
	"hu": hu.HungarianStopWords,
	"ro": ro.RomanianStopWords,
	"tr": tr.TurkishStopWords,
}

var stopMaps = func() map[string]blevean.TokenMap {
	maps := make(map[string]blevean.TokenMap, len(stopWordBytes))
	for lang, words := range stopWordBytes {
		tm := blevean.NewTokenMap()
		if err := tm.LoadBytes(words); err != nil {
			panic(err)
		}
		maps[lang] = tm
	}
	return maps
}()

// StopTokenMap returns the stop-word token map for a language code.
func StopTokenMap(lang string) (blevean.TokenMap, bool) {
	tm, ok := stopMaps[lang]
	return tm, ok
}

// IsStopWord reports whether term is a stop word for the language code.
func IsStopWord(lang, term string) bool {
	tm, ok := stopMaps[lang]
	if !ok {
		return false
	}
	_, ok = tm[term]
	return ok
}
