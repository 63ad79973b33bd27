package model

import (
	"strconv"
	"strings"
)

// CompareIDs orders record ids naturally: "I2" < "I10", "5" < "12".
// The non-digit prefix sorts lexically, then the numeric suffix by value.
func CompareIDs(a, b string) int {
	pa, na, oka := splitID(a)
	pb, nb, okb := splitID(b)
	if c := strings.Compare(pa, pb); c != 0 {
		return c
	}
	switch {
	case oka && okb:
		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
	case oka:
		return -1
	case okb:
		return 1
	}
	return strings.Compare(a, b)
}

func splitID(id string) (string, uint64, bool) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return id, 0, false
	}
	n, err := strconv.ParseUint(id[i:], 10, 64)
	if err != nil {
		return id, 0, false
	}
	return id[:i], n, true
}
