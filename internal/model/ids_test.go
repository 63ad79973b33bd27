package model

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareIDs_Natural(t *testing.T) {
	ids := []string{"I10", "I2", "F1", "I1", "I02"}
	slices.SortFunc(ids, CompareIDs)
	assert.Equal(t, []string{"F1", "I1", "I02", "I2", "I10"}, ids)
}

func TestCompareIDs_NumericPIDs(t *testing.T) {
	ids := []string{"100", "9", "20", "abc"}
	slices.SortFunc(ids, CompareIDs)
	assert.Equal(t, []string{"9", "20", "100", "abc"}, ids)
}

func TestCompareIDs_Equal(t *testing.T) {
	assert.Equal(t, 0, CompareIDs("I7", "I7"))
}
