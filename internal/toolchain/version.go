// SPDX-License-Identifier: Apache-2.0

// Package toolchain evaluates installed native-toolchain instances against a
// manifest's requirements.
package toolchain

import "strings"

// ParseVersion converts a dotted version string into an integer tuple,
// stopping at the first non-numeric token.
func ParseVersion(raw string) []int {
	parts := make([]int, 0, 4)
	for _, token := range strings.Split(raw, ".") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		n := 0
		ok := true
		for _, r := range token {
			if r < '0' || r > '9' {
				ok = false
				break
			}
			n = n*10 + int(r-'0')
		}
		if !ok {
			break
		}
		parts = append(parts, n)
	}
	return parts
}

// CompareVersions compares two version tuples, padding the shorter with
// zeros. Returns -1, 0, or 1.
func CompareVersions(left, right []int) int {
	n := len(left)
	if len(right) > n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		l, r := 0, 0
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		if l < r {
			return -1
		}
		if l > r {
			return 1
		}
	}
	return 0
}
