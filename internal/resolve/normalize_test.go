package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeName(""))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestNormalizeName_Lowercase(t *testing.T) {
	assert.Equal(t, "ahmed yoosuf", NormalizeName("Ahmed YOOSUF"))
}

func TestNormalizeName_LastFirst(t *testing.T) {
	assert.Equal(t, "ahmed yoosuf", NormalizeName("Yoosuf, Ahmed"))
	assert.Equal(t, NormalizeName("ahmed yoosuf"), NormalizeName("Yoosuf, Ahmed"))
	assert.Equal(t, "john doe", NormalizeName("  Doe ,   John "))
}

func TestNormalizeName_CommaWithEmptyPart(t *testing.T) {
	assert.Equal(t, "doe,", NormalizeName("Doe,"))
	assert.Equal(t, ", john", NormalizeName(", John"))
}

func TestNormalizeName_MultipleCommasUntouched(t *testing.T) {
	assert.Equal(t, "doe, john, jr", NormalizeName("Doe, John, Jr."))
}

func TestNormalizeName_Punctuation(t *testing.T) {
	assert.Equal(t, "a ibrahim maniku", NormalizeName("A. Ibrahim (Maniku)"))
	assert.Equal(t, "mohamed didi", NormalizeName("Mohamed (Didi)"))
}

func TestNormalizeName_CollapseSpaces(t *testing.T) {
	assert.Equal(t, "aminath saeed", NormalizeName("  Aminath \t  Saeed\n"))
}

func TestNormalizeName_CommaThenPunctuation(t *testing.T) {
	// The comma split runs before periods are stripped.
	assert.Equal(t, "ali manik", NormalizeName("Manik., Ali"))
}

func TestNormalizeName_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Yoosuf, Ahmed",
		"Doe, John, Jr.",
		"Doe,",
		", John",
		"A. Ibrahim (Maniku)",
		"  Mixed   CASE  ",
		"(.)",
		"., .",
		"Ümit, Özlem",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}
