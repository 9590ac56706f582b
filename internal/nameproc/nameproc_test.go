package nameproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaleph/openaleph-search/internal/ftm"
)

func personSchema() *ftm.Schema {
	for _, s := range ftm.BuiltinSchemata() {
		if s.Name == "Person" {
			return s
		}
	}
	panic("no Person schema")
}

func TestPreprocessCollapsesWhitespaceAndCase(t *testing.T) {
	assert.Equal(t, "john smith", Preprocess("  John   Smith\n"))
}

func TestTokenizeStripsHonorifics(t *testing.T) {
	toks := Tokenize(personSchema(), "Dr. John Smith")
	assert.Equal(t, []string{"john", "smith"}, toks)
}

func TestNameKeysCaseAndDiacriticInvariant(t *testing.T) {
	a := NameKeys(personSchema(), []string{"José Álvarez"})
	b := NameKeys(personSchema(), []string{"JOSE ALVAREZ"})
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
}

func TestNameKeysMinLength(t *testing.T) {
	keys := NameKeys(personSchema(), []string{"Al Yu"})
	for _, k := range keys {
		assert.GreaterOrEqual(t, len([]rune(k)), 5)
	}
}

func TestPhoneticSmithSmythe(t *testing.T) {
	smith := Phonetic(personSchema(), []string{"Smith"})
	smythe := Phonetic(personSchema(), []string{"Smythe"})
	require.NotEmpty(t, smith)
	require.NotEmpty(t, smythe)
	assert.Equal(t, smith, smythe)
	assert.Contains(t, smith, "SM0")
}

func TestSymbolsCrossAlphabet(t *testing.T) {
	table := DefaultSymbolTable()
	latin := Symbols(table, []string{"Vladimir Putin"})
	cyrillic := Symbols(table, []string{"Владимир Путин"})
	require.NotEmpty(t, latin)
	assert.Equal(t, latin, cyrillic)
}

func TestPickNamesRespectsLimit(t *testing.T) {
	names := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta"}
	picked := PickNames(names, 3)
	assert.Len(t, picked, 3)
}

func TestPickNamesReturnsFewerWhenInputSmaller(t *testing.T) {
	names := []string{"Alpha", "Beta"}
	picked := PickNames(names, 5)
	assert.Len(t, picked, 2)
}

func TestLevenshteinBasic(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("abc", "abc"))
	assert.Equal(t, 1, Levenshtein("abc", "abd"))
	assert.Equal(t, 3, Levenshtein("", "abc"))
}
