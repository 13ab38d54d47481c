package grading

import (
	"sort"
	"strings"
)

// Digits returns the decimal digits of s in order of appearance.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SortedDigits returns the digits of s sorted ascending, duplicates kept.
func SortedDigits(s string) string {
	ds := []byte(Digits(s))
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	return string(ds)
}

// CanonicalDigits returns the digits of s deduplicated and sorted
// ascending. "3121" and "123" normalize to the same string.
func CanonicalDigits(s string) string {
	seen := [10]bool{}
	for _, r := range Digits(s) {
		seen[r-'0'] = true
	}
	var b strings.Builder
	for d := 0; d <= 9; d++ {
		if seen[d] {
			b.WriteByte(byte('0' + d))
		}
	}
	return b.String()
}

// IndexDigits renders a 0-based index set as the 1-based sorted digit
// string an exam answer is compared against.
func IndexDigits(indices []int) string {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	var b strings.Builder
	for _, i := range sorted {
		b.WriteByte(byte('1' + i))
	}
	return b.String()
}
