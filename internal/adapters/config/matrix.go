package config

import (
	"sort"
	"strings"
)

// expandMatrix computes the Cartesian product of a task's matrix keys,
// returning one binding map per variant in deterministic order: keys are
// sorted lexicographically and values are taken in their declared order, with
// the key ordering changing slowest in the outer loop (matching the
// `<base>-<v11>-<v21>` naming spec.md's Task Model & Graph Builder describes).
func expandMatrix(matrix map[string][]string) []map[string]string {
	if len(matrix) == 0 {
		return nil
	}

	keys := make([]string, 0, len(matrix))
	for k := range matrix {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	variants := []map[string]string{{}}
	for _, k := range keys {
		values := matrix[k]
		next := make([]map[string]string, 0, len(variants)*len(values))
		for _, existing := range variants {
			for _, v := range values {
				binding := make(map[string]string, len(existing)+1)
				for ek, ev := range existing {
					binding[ek] = ev
				}
				binding[k] = v
				next = append(next, binding)
			}
		}
		variants = next
	}
	return variants
}

// matrixVariantName builds the deterministic variant name for a binding,
// appending each matrix key's chosen value to the base name in sorted-key
// order: "<base>-<v_k1>-<v_k2>-...".
func matrixVariantName(base string, matrix map[string][]string, binding map[string]string) string {
	keys := make([]string, 0, len(matrix))
	for k := range matrix {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	name := base
	for _, k := range keys {
		name += "-" + binding[k]
	}
	return name
}

// bindMatrixValues substitutes ${matrix.<key>} placeholders in a string with
// the binding's value for that key.
func bindMatrixValues(s string, binding map[string]string) string {
	for k, v := range binding {
		s = strings.ReplaceAll(s, "${matrix."+k+"}", v)
	}
	return s
}
