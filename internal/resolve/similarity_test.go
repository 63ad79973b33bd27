package resolve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity_Identical(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("ahmed yoosuf", "ahmed yoosuf"), 1e-9)
}

func TestSimilarity_BothEmpty(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
}

func TestSimilarity_OneEmpty(t *testing.T) {
	assert.InDelta(t, 0.0, Similarity("abc", ""), 1e-9)
	assert.InDelta(t, 0.0, Similarity("", "abc"), 1e-9)
}

func TestSimilarity_Disjoint(t *testing.T) {
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
}

func TestSimilarity_SingleSubstitution(t *testing.T) {
	// "ahmed yo" + "suf" match: 2*11/24.
	assert.InDelta(t, 22.0/24.0, Similarity("ahmed yousuf", "ahmed yoosuf"), 1e-9)
}

func TestSimilarity_KnownDifflibValues(t *testing.T) {
	// Values from difflib.SequenceMatcher(None, a, b).ratio().
	assert.InDelta(t, 0.75, Similarity("abcd", "bcde"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("a", "b"), 1e-9)
	assert.InDelta(t, 2.0/3.0, Similarity("ab", "a"), 1e-9)
	assert.InDelta(t, 26.0/27.0, Similarity("mariyam hassan", "mariyam hasan"), 1e-9)
}

func TestSimilarity_Asymmetric(t *testing.T) {
	// The longest-block choice depends on argument order.
	assert.InDelta(t, 0.25, Similarity("tide", "diet"), 1e-9)
	assert.InDelta(t, 0.5, Similarity("diet", "tide"), 1e-9)
	ab := Similarity("abxcd", "abcd")
	ba := Similarity("abcd", "abxcd")
	assert.InDelta(t, 8.0/9.0, ab, 1e-9)
	assert.InDelta(t, 8.0/9.0, ba, 1e-9)
}

func TestSimilarity_Runes(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("özlem", "özlem"), 1e-9)
	assert.InDelta(t, 0.8, Similarity("özlem", "ozlem"), 1e-9)
}

func TestSimilarity_Range(t *testing.T) {
	pairs := [][2]string{
		{"mohamed didi", "muhammad didi"},
		{"aishath", "aminath"},
		{"ibrahim", "ibrahim manik"},
	}
	for _, p := range pairs {
		r := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, r, 0.0)
		assert.Less(t, r, 1.0)
	}
}

func TestSimilarity_PopularElementsInLongB(t *testing.T) {
	// b has 300 runes; 'a' is popular and does not seed blocks but a run
	// of it next to a real match still extends that match.
	b := strings.Repeat("a", 250) + "xyz" + strings.Repeat("b", 47)
	r := Similarity("axyz", b)
	assert.InDelta(t, 2.0*4.0/304.0, r, 1e-9)
}

func TestSimilarity_AllElementsPopular(t *testing.T) {
	// Every rune of b is popular, so only the extension from the first
	// position matches.
	a := strings.Repeat("ab", 150)
	b := strings.Repeat("a", 150) + strings.Repeat("b", 150)
	assert.InDelta(t, 2.0/600.0, Similarity(a, b), 1e-9)
}

func TestRuneStrings(t *testing.T) {
	assert.Equal(t, []string{"ö", "z"}, runeStrings("öz"))
	assert.Empty(t, runeStrings(""))
}
