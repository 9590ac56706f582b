// Package nameproc implements the pure name-processing pipeline described in
// spec.md §4.1: it turns raw entity names into the representations used both
// for matching (MatchQuery) and for index-time copy_to wiring (mapping).
package nameproc

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/openaleph/openaleph-search/internal/ftm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Preprocess applies unicode NFC normalization, lowercasing, and whitespace
// collapsing, in that order (spec §4.1).
func Preprocess(name string) string {
	name = norm.NFC.String(name)
	name = strings.ToLower(name)
	name = strings.TrimSpace(whitespaceRe.ReplaceAllString(name, " "))
	return name
}

// organizationTypeCanon maps common organization-type abbreviations and
// variants to a canonical form, mirroring how aleph's fingerprint generator
// normalizes legal forms before tokenizing.
var organizationTypeCanon = map[string]string{
	"corp":    "corporation",
	"corp.":   "corporation",
	"inc":     "incorporated",
	"inc.":    "incorporated",
	"ltd":     "limited",
	"ltd.":    "limited",
	"llc":     "limitedliabilitycompany",
	"l.l.c.":  "limitedliabilitycompany",
	"plc":     "publiclimitedcompany",
	"gmbh":    "gesellschaftmitbeschraenkterhaftung",
	"co":      "company",
	"co.":     "company",
	"kg":      "kommanditgesellschaft",
	"spa":     "societapazioni",
	"sa":      "societeanonyme",
	"ag":      "aktiengesellschaft",
	"bv":      "besloten vennootschap",
}

// personHonorifics are dropped from Person names wherever they appear as a
// standalone token.
var personHonorifics = map[string]bool{
	"mr": true, "mr.": true, "mrs": true, "mrs.": true, "ms": true, "ms.": true,
	"dr": true, "dr.": true, "prof": true, "prof.": true, "sir": true,
	"madam": true, "mx": true, "mx.": true,
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// isOrganizationSchema reports whether the schema's name pipeline should use
// organization-type canonicalization instead of honorific stripping.
func isOrganizationSchema(schema *ftm.Schema) bool {
	if schema == nil {
		return false
	}
	switch schema.Name {
	case "Organization", "Company", "PublicBody", "LegalEntity":
		return true
	}
	for _, a := range schema.Ancestors {
		if a == "Organization" {
			return true
		}
	}
	return false
}

func isPersonSchema(schema *ftm.Schema) bool {
	if schema == nil {
		return false
	}
	if schema.Name == "Person" {
		return true
	}
	for _, a := range schema.Ancestors {
		if a == "Person" {
			return true
		}
	}
	return false
}

// Tokenize splits a preprocessed name into schema-aware tokens: organization
// legal-form words are canonicalized, person honorifics are dropped, then
// the remainder is split on Unicode word boundaries (spec §4.1).
func Tokenize(schema *ftm.Schema, name string) []string {
	name = Preprocess(name)
	raw := wordRe.FindAllString(name, -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if isPersonSchema(schema) && personHonorifics[tok] {
			continue
		}
		if isOrganizationSchema(schema) {
			if canon, ok := organizationTypeCanon[tok]; ok {
				out = append(out, strings.Fields(canon)...)
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

// asciiFold strips combining diacritical marks after NFD decomposition,
// giving an ASCII-ish folded form for latin-script tokens. Non-latin script
// (e.g. Cyrillic, CJK) is passed through unchanged -- cross-alphabet
// matching is handled by Symbols, not ASCII folding.
func asciiFold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NameKeys builds the set of sorted, concatenated, ASCII-folded token keys
// used for exact-ish blocking in MatchQuery. Keys shorter than 5 runes are
// discarded (spec §4.1).
func NameKeys(schema *ftm.Schema, names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, name := range names {
		tokens := Tokenize(schema, name)
		if len(tokens) == 0 {
			continue
		}
		folded := make([]string, len(tokens))
		for i, t := range tokens {
			folded[i] = asciiFold(t)
		}
		sort.Strings(folded)
		key := strings.Join(folded, "")
		if len([]rune(key)) >= 5 && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// NameParts returns the set of individual tokens (length >= 2), plus their
// ASCII-folded variants, used for partial/fuzzy matching (spec §4.1).
func NameParts(schema *ftm.Schema, names []string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if len([]rune(s)) >= 2 && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, name := range names {
		for _, t := range Tokenize(schema, name) {
			add(t)
			add(asciiFold(t))
		}
	}
	return out
}

var modernAlphaRe = regexp.MustCompile(`^[A-Za-z]+$`)

// Phonetic returns the set of Double Metaphone primary codes for tokens
// that are at least 3 modern-alphabetic characters long, discarding codes
// of length <= 2 (spec §4.1).
func Phonetic(schema *ftm.Schema, names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, name := range names {
		for _, t := range Tokenize(schema, name) {
			folded := asciiFold(t)
			if len(folded) < 3 || !modernAlphaRe.MatchString(folded) {
				continue
			}
			code := DoubleMetaphone(folded)
			if len(code) <= 2 || seen[code] {
				continue
			}
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

// SymbolTable resolves a name (or token) to an opaque cross-alphabet symbol
// id. The core only consumes such a table; the real ids are externally
// defined by Rigour Names (spec §4.1, §9).
type SymbolTable interface {
	Lookup(name string) (id string, ok bool)
}

// Symbols returns the set of `[NAME:<id>]` tags contributed by whole names
// (after Preprocess) that resolve in the given table; single tokens of a
// name are not looked up on their own.
func Symbols(table SymbolTable, names []string) []string {
	if table == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		id, ok := table.Lookup(s)
		if !ok {
			return
		}
		tag := "[NAME:" + id + "]"
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	for _, name := range names {
		add(Preprocess(name))
	}
	return out
}
