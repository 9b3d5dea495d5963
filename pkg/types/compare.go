package types

import "strconv"

// CompareRelationIDs orders stable relation identifiers. Identifiers with a
// common prefix and a trailing integer ("ingress:3", "ingress:12") compare
// numerically on that integer so ordering is stable as counters grow past a
// digit boundary; everything else compares lexicographically.
func CompareRelationIDs(a, b string) int {
	pa, na, aNum := splitTrailingInt(a)
	pb, nb, bNum := splitTrailingInt(b)
	if aNum && bNum && pa == pb {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func splitTrailingInt(s string) (prefix string, n int, ok bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}
