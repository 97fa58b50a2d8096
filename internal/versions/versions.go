// Package versions parses and orders firmware version strings.
//
// Two orderings exist. Semver.Compare is lenient and only looks at
// major.minor.patch, so "1" and "1.0.0" are equal. Compare is a strict total
// order over the raw strings and ranks "1" before "1.0.0".
package versions

import (
	"cmp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
)

// Semver is the numeric core of a version string.
type Semver struct {
	Major int
	Minor int
	Patch int
}

// Parse extracts major, minor and patch from s. Valid semantic versions,
// including a "v" prefix and pre-release or build suffixes, are read with
// go-version. Anything else is split on "." with missing and non-numeric
// components read as 0.
func Parse(s string) Semver {
	if v, err := version.NewVersion(strings.TrimSpace(s)); err == nil {
		seg := v.Segments()
		return Semver{Major: seg[0], Minor: seg[1], Patch: seg[2]}
	}

	var parts [3]int
	for i, p := range strings.SplitN(s, ".", 3) {
		parts[i] = segment(p)
	}
	return Semver{Major: parts[0], Minor: parts[1], Patch: parts[2]}
}

// Compare orders a and b by major, then minor, then patch.
func (a Semver) Compare(b Semver) int {
	if c := cmp.Compare(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Minor, b.Minor); c != 0 {
		return c
	}
	return cmp.Compare(a.Patch, b.Patch)
}

func (a Semver) String() string {
	return strconv.Itoa(a.Major) + "." + strconv.Itoa(a.Minor) + "." + strconv.Itoa(a.Patch)
}

// Compare returns -1, 0 or +1 comparing the dot separated segments of a and b
// as integers. Non-numeric segments count as 0. When one version is a prefix
// of the other the one with fewer segments sorts first. Versions with equal
// segments but different spelling ("01" and "1") are ordered byte-wise, so
// Compare returns 0 only for identical strings.
func Compare(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := range min(len(as), len(bs)) {
		if c := cmp.Compare(segment(as[i]), segment(bs[i])); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(len(as), len(bs)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts before b under Compare.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

func segment(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
