package expr

import (
	"strconv"
	"strings"

	"go.trai.ch/zerr"
	"go.zr.dev/zr/internal/core/domain"
)

// satisfiesSemver evaluates a minimal constraint grammar against version:
// an optional operator prefix (>=, <=, >, <, ==, ^, ~) followed by a
// dotted major.minor.patch number, with missing components treated as zero.
// No example repo in the corpus pulls a semver dependency, so this narrow
// comparator is implemented directly rather than importing one speculatively.
func satisfiesSemver(version, constraint string) (bool, error) {
	constraint = strings.TrimSpace(constraint)

	op, rest := splitOperator(constraint)
	want, err := parseSemver(rest)
	if err != nil {
		return false, err
	}
	got, err := parseSemver(version)
	if err != nil {
		return false, err
	}

	cmp := compareSemver(got, want)

	switch op {
	case ">=":
		return cmp >= 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case "<":
		return cmp < 0, nil
	case "==", "":
		return cmp == 0, nil
	case "^":
		return got[0] == want[0] && cmp >= 0, nil
	case "~":
		return got[0] == want[0] && got[1] == want[1] && cmp >= 0, nil
	default:
		return false, zerr.With(domain.ErrExpressionSyntax, "reason", "unknown semver operator", "operator", op)
	}
}

func splitOperator(constraint string) (op, rest string) {
	for _, candidate := range []string{">=", "<=", "==", "^", "~", ">", "<"} {
		if strings.HasPrefix(constraint, candidate) {
			return candidate, strings.TrimSpace(constraint[len(candidate):])
		}
	}
	return "", constraint
}

func parseSemver(s string) ([3]int64, error) {
	var v [3]int64
	parts := strings.SplitN(strings.TrimPrefix(s, "v"), ".", 3)
	for i, p := range parts {
		if i >= 3 {
			break
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return v, zerr.With(domain.ErrExpressionSyntax, "reason", "invalid semver component", "value", s)
		}
		v[i] = n
	}
	return v, nil
}

func compareSemver(a, b [3]int64) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
