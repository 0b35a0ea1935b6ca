package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// gitTagPattern matches a trailing release tag such as "v0.6.21" or "v1.2.3-beta".
var gitTagPattern = regexp.MustCompile(`v(\d{1,2}\.\d{1,2}\.\d{1,2})(-.*)?$`)

// CompareVersions compares two dotted version triples component-wise as integers.
// An empty version is treated as "0.0.0" and components that are missing or not
// numeric count as 0. It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}
	pa := versionParts(a)
	pb := versionParts(b)
	for i := range pa {
		switch {
		case pa[i] < pb[i]:
			return -1
		case pa[i] > pb[i]:
			return 1
		}
	}
	return 0
}

func versionParts(v string) [3]int {
	var parts [3]int
	if v == "" {
		return parts
	}
	fields := strings.Split(v, ".")
	for i := 0; i < len(parts) && i < len(fields); i++ {
		n, err := strconv.Atoi(leadingDigits(fields[i]))
		if err != nil {
			continue
		}
		parts[i] = n
	}
	return parts
}

// leadingDigits returns the numeric prefix of s, so "3-beta" yields "3".
func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// CompareGitRefs compares two git refs (the part of a locator after '#') by
// the release tag at their end. When both carry a tag the tags are compared numerically. When only the right
// side carries one, or neither does, the result is -1. When only the left side
// carries one, the result is 1.
func CompareGitRefs(a, b string) int {
	ma := gitTagPattern.FindStringSubmatch(a)
	mb := gitTagPattern.FindStringSubmatch(b)
	switch {
	case ma != nil && mb != nil:
		return CompareVersions(ma[1], mb[1])
	case ma != nil:
		return 1
	default:
		return -1
	}
}
