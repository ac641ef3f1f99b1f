package fs

import (
	"path/filepath"
	"sort"

	"go.trai.ch/zerr"
	"go.zr.dev/zr/internal/core/domain"
	"go.zr.dev/zr/internal/core/ports"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver implements ports.InputResolver using filepath.Glob.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs expands each input pattern relative to root into concrete
// paths, deduplicating and sorting the result. A pattern (literal or glob)
// that matches nothing is reported as domain.ErrInputNotFound rather than
// silently dropped, so a typo'd input path fails the task instead of
// quietly excluding it from the fingerprint.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	uniquePaths := make(map[string]bool)

	for _, input := range inputs {
		path := filepath.Join(root, input)

		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "path", path)
		}

		if len(matches) == 0 {
			return nil, zerr.With(domain.ErrInputNotFound, "path", path)
		}

		for _, match := range matches {
			uniquePaths[match] = true
		}
	}

	result := make([]string, 0, len(uniquePaths))
	for path := range uniquePaths {
		result = append(result, path)
	}
	sort.Strings(result)

	return result, nil
}
