package util

import "fmt"

// Hamming returns the number of positions at which s1 and s2 differ. s1 and
// s2 must have equal length.
func Hamming(s1, s2 string) (distance int) {
	if len(s1) != len(s2) {
		panic(fmt.Sprintf("s1 and s2 must have equal length: '%s', '%s'", s1, s2))
	}
	for i := 0; i < len(s1); i++ {
		if s1[i] != s2[i] {
			distance++
		}
	}
	return distance
}

// HammingWithin reports whether s1 and s2 have equal length and differ in at
// most maxMismatch positions. It stops scanning as soon as the bound is
// exceeded.
func HammingWithin(s1, s2 string, maxMismatch int) bool {
	if len(s1) != len(s2) {
		return false
	}
	n := 0
	for i := 0; i < len(s1); i++ {
		if s1[i] != s2[i] {
			n++
			if n > maxMismatch {
				return false
			}
		}
	}
	return true
}
