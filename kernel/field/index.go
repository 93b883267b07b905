package field

import (
	"fmt"
	"strings"
)

// TypeIndex selects which of the four indexing quadrants are active for a
// field: its own term and value lanes plus the type-global ones.
type TypeIndex uint8

const (
	IndexNone        TypeIndex = 0
	IndexFieldTerms  TypeIndex = 1 << 0
	IndexFieldValues TypeIndex = 1 << 1
	IndexGlobalTerms TypeIndex = 1 << 2
	IndexGlobalValue TypeIndex = 1 << 3

	IndexFieldAll  = IndexFieldTerms | IndexFieldValues
	IndexGlobalAll = IndexGlobalTerms | IndexGlobalValue
	IndexTerms     = IndexFieldTerms | IndexGlobalTerms
	IndexValues    = IndexFieldValues | IndexGlobalValue
	IndexAll       = IndexFieldAll | IndexGlobalAll
)

var indexTokens = map[string]TypeIndex{
	"none":          IndexNone,
	"field_terms":   IndexFieldTerms,
	"field_values":  IndexFieldValues,
	"field":         IndexFieldAll,
	"field_all":     IndexFieldAll,
	"global_terms":  IndexGlobalTerms,
	"global_values": IndexGlobalValue,
	"global":        IndexGlobalAll,
	"global_all":    IndexGlobalAll,
	"terms":         IndexTerms,
	"values":        IndexValues,
	"all":           IndexAll,
}

// ParseIndex normalizes an index surface string: one or more comma-separated
// tokens combined by union.
func ParseIndex(s string) (TypeIndex, error) {
	var ti TypeIndex
	any := false
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(strings.ToLower(tok))
		if tok == "" {
			continue
		}
		v, ok := indexTokens[tok]
		if !ok {
			return IndexNone, fmt.Errorf("%q is not a valid index", tok)
		}
		ti |= v
		any = true
	}
	if !any {
		return IndexNone, fmt.Errorf("%q is not a valid index", s)
	}
	return ti, nil
}

func (ti TypeIndex) String() string {
	switch ti {
	case IndexNone:
		return "none"
	case IndexFieldTerms:
		return "field_terms"
	case IndexFieldValues:
		return "field_values"
	case IndexFieldAll:
		return "field_all"
	case IndexGlobalTerms:
		return "global_terms"
	case IndexGlobalValue:
		return "global_values"
	case IndexGlobalAll:
		return "global_all"
	case IndexTerms:
		return "terms"
	case IndexValues:
		return "values"
	case IndexAll:
		return "all"
	}
	var toks []string
	if ti&IndexGlobalAll == IndexGlobalAll {
		toks = append(toks, "global_all")
	} else {
		if ti&IndexGlobalTerms != 0 {
			toks = append(toks, "global_terms")
		}
		if ti&IndexGlobalValue != 0 {
			toks = append(toks, "global_values")
		}
	}
	if ti&IndexFieldAll == IndexFieldAll {
		toks = append(toks, "field_all")
	} else {
		if ti&IndexFieldTerms != 0 {
			toks = append(toks, "field_terms")
		}
		if ti&IndexFieldValues != 0 {
			toks = append(toks, "field_values")
		}
	}
	return strings.Join(toks, ",")
}
