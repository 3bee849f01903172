package normalize

import (
	"testing"
)

func TestFullText(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Paris", "paris"},
		{"Saint-Étienne", "saint_etienne"},
		{"L'Haÿ-les-Roses", "l_hay_les_roses"},
		{"Châlons-en-Champagne", "chalons_en_champagne"},
		{"Y", "y"},
		{"Œuilly", "_uilly"},
		{"Marseille 1er", "marseille_1er"},
		{"", ""},
		{"ÉÈÊËÀÂÎÏÔÛÙÇ", "eeeeaaiiouuc"},
	}

	for _, tc := range testCases {
		got := FullText(tc.input)
		if got != tc.expected {
			t.Errorf("FullText(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestFullTextDecomposedInput(t *testing.T) {
	// combining acute accent after a plain E
	decomposed := "E\u0301tienne"
	if got, want := FullText(decomposed), FullText("Étienne"); got != want {
		t.Errorf("FullText(%q) = %q, want %q", decomposed, got, want)
	}
	if got := FullText(decomposed); got != "etienne" {
		t.Errorf("FullText(%q) = %q, want %q", decomposed, got, "etienne")
	}
}

// Names stay the same length once their accents are gone, which the
// residual-shard length check relies on.
func TestFullTextPreservesRuneCount(t *testing.T) {
	names := []string{"Saint-Étienne", "Œuilly", "L'Haÿ-les-Roses", "Sainte-Marie-aux-Chênes", "Y"}
	for _, name := range names {
		got := FullText(name)
		if want := len([]rune(name)); len(got) != want {
			t.Errorf("FullText(%q) has length %d, want %d", name, len(got), want)
		}
	}
}

func TestFullTextRoundTrip(t *testing.T) {
	inputs := []string{
		"Paris", "Saint-Étienne", "Œuilly", "Ærøskøbing", "Straße", "東京",
		"  spaced  out  ", "l'île-d'yeu", "12345", "mixed_CASE-42",
	}
	for _, in := range inputs {
		once := FullText(in)
		twice := FullText(once)
		if once != twice {
			t.Errorf("FullText not idempotent for %q: %q then %q", in, once, twice)
		}
		if !DefaultAlphabet.ContainsAll(once) {
			t.Errorf("FullText(%q) = %q escapes the query alphabet", in, once)
		}
	}
}

func TestReadableURLPathValue(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Côte-d'Or", "cote-d-or"},
		{"Paris", "paris"},
		{"Collectivités d'Outremer", "collectivites-d-outremer"},
		{"Saint-Étienne", "saint-etienne"},
		{"  Bouches-du-Rhône  ", "bouches-du-rhone"},
		{"Œuilly", "oeuilly"},
	}

	for _, tc := range testCases {
		got := ReadableURLPathValue(tc.input)
		if got != tc.expected {
			t.Errorf("ReadableURLPathValue(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestAlphabetValidate(t *testing.T) {
	testCases := []struct {
		alphabet Alphabet
		wantErr  bool
	}{
		{DefaultAlphabet, false},
		{"abc", false},
		{"", true},
		{"aba", true},
		{"ab-", true},
		{"AB", true},
	}

	for _, tc := range testCases {
		err := tc.alphabet.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("Alphabet(%q).Validate() error = %v, wantErr %v", tc.alphabet, err, tc.wantErr)
		}
	}

	if n := len(DefaultAlphabet.Symbols()); n != 37 {
		t.Errorf("DefaultAlphabet has %d symbols, want 37", n)
	}
}
