package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestExactMatchFirst(t *testing.T) {
	got := Suggest("AAPL")
	assert.NotEmpty(t, got)
	assert.Equal(t, "AAPL", got[0])
}

func TestSuggestUnknownTermReturnsEmpty(t *testing.T) {
	assert.Empty(t, Suggest("ZZZZZ"))
	assert.Empty(t, Suggest("QXJ"))
}

func TestSuggestPrefixBeforeSubstring(t *testing.T) {
	got := Suggest("A")

	assert.LessOrEqual(t, len(got), MaxSuggestions)
	// Prefix matches fill the head of the list.
	prefixDone := false
	for _, ticker := range got {
		if ticker[0] != 'A' {
			prefixDone = true
		} else {
			assert.False(t, prefixDone, "prefix match %q after a substring match", ticker)
		}
	}
}

func TestSuggestLowercaseInput(t *testing.T) {
	got := Suggest("aapl")
	assert.Contains(t, got, "AAPL")
}

func TestSuggestEmptyTermReturnsPopular(t *testing.T) {
	got := Suggest("")
	assert.Len(t, got, MaxSuggestions)
	assert.Equal(t, PopularTickers[:MaxSuggestions], got)
}

func TestSuggestNoDuplicates(t *testing.T) {
	got := Suggest("G")
	seen := make(map[string]bool)
	for _, ticker := range got {
		assert.False(t, seen[ticker], "duplicate suggestion %q", ticker)
		seen[ticker] = true
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "AAPL", Normalize("  aapl "))
	assert.Equal(t, "MSFT", Normalize("msft"))
}

func TestIsValid(t *testing.T) {
	valid := []string{"F", "GM", "AAPL", "GOOGL"}
	for _, s := range valid {
		assert.True(t, IsValid(s), s)
	}

	invalid := []string{"", "TOOLONG", "AA PL", "A1", "aapl", "BRK.B"}
	for _, s := range invalid {
		assert.False(t, IsValid(s), s)
	}
}
