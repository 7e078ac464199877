package graph

import (
	"cmp"
	"strconv"
)

// SlotLess orders argument slots naturally, so "arg2" sorts before "arg10".
// Slots compare by prefix, then by trailing decimal number, then as raw
// strings. A slot without a numeric suffix is all prefix and sorts before
// numbered slots with the same prefix. The order is total.
func SlotLess(a, b string) bool {
	return compareSlots(a, b) < 0
}

func compareSlots(a, b string) int {
	ap, an := splitSlot(a)
	bp, bn := splitSlot(b)
	if c := cmp.Compare(ap, bp); c != 0 {
		return c
	}
	if c := cmp.Compare(an, bn); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// splitSlot separates a trailing decimal number from its prefix. The number
// is -1 when there is none.
func splitSlot(s string) (string, int) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, -1
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, -1
	}
	return s[:i], n
}
