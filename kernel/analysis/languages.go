package analysis

import (
	"strings"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/dutch"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/finnish"
	"github.com/blevesearch/snowballstem/french"
	"github.com/blevesearch/snowballstem/german"
	"github.com/blevesearch/snowballstem/hungarian"
	"github.com/blevesearch/snowballstem/italian"
	"github.com/blevesearch/snowballstem/norwegian"
	"github.com/blevesearch/snowballstem/portuguese"
	"github.com/blevesearch/snowballstem/romanian"
	"github.com/blevesearch/snowballstem/russian"
	"github.com/blevesearch/snowballstem/spanish"
	"github.com/blevesearch/snowballstem/swedish"
	"github.com/blevesearch/snowballstem/turkish"
)

type stemFunc func(env *snowballstem.Env) bool

var stemmers = map[string]stemFunc{
	"en": english.Stem,
	"es": spanish.Stem,
	"fr": french.Stem,
	"de": german.Stem,
	"it": italian.Stem,
	"pt": portuguese.Stem,
	"nl": dutch.Stem,
	"ru": russian.Stem,
	"sv": swedish.Stem,
	"no": norwegian.Stem,
	"fi": finnish.Stem,
	"hu": hungarian.Stem,
	"ro": romanian.Stem,
	"tr": turkish.Stem,
}

var languageAliases = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"russian":    "ru",
	"swedish":    "sv",
	"norwegian":  "no",
	"finnish":    "fi",
	"hungarian":  "hu",
	"romanian":   "ro",
	"turkish":    "tr",
	"none":       "",
}

// NormalizeLanguage resolves a language name or code to its canonical code.
// Unknown languages resolve to the empty code (no stemming, no stop words).
func NormalizeLanguage(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if l == "" {
		return ""
	}
	if _, ok := stemmers[l]; ok {
		return l
	}
	if code, ok := languageAliases[l]; ok {
		return code
	}
	return ""
}

// IsValidLanguage reports whether lang names a supported stemming language.
func IsValidLanguage(lang string) bool {
	l := strings.ToLower(strings.TrimSpace(lang))
	if l == "" || l == "none" {
		return true
	}
	if _, ok := stemmers[l]; ok {
		return true
	}
	_, ok := languageAliases[l]
	return ok
}

// Stem applies the snowball stemmer for the language code; the word comes
// back unchanged when the language has no stemmer.
func Stem(lang, word string) string {
	fn, ok := stemmers[lang]
	if !ok {
		return word
	}
	env := snowballstem.NewEnv(word)
	fn(env)
	return env.Current()
}
