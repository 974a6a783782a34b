package negotiation

import (
	"fmt"
	"strconv"
	"strings"
)

// CompareVersions compares two dotted numeric versions segment by segment.
// Missing trailing segments count as 0, so "2.0" equals "2.0.0".
// It returns -1, 0 or 1, and an error when either version has a
// non-numeric segment.
func CompareVersions(a, b string) (int, error) {
	as, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	bs, err := parseVersion(b)
	if err != nil {
		return 0, err
	}
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
	}
	return 0, nil
}

// IsVersionAtLeast reports whether have >= want. Unparseable versions are
// never at least anything.
func IsVersionAtLeast(have, want string) bool {
	c, err := CompareVersions(have, want)
	if err != nil {
		return false
	}
	return c >= 0
}

// IsValidVersion reports whether v is a dotted numeric version.
func IsValidVersion(v string) bool {
	_, err := parseVersion(v)
	return err == nil
}

func parseVersion(v string) ([]int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, fmt.Errorf("empty version")
	}
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version %q: segment %q is not a non-negative integer", v, p)
		}
		out[i] = n
	}
	return out, nil
}
