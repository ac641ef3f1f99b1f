package ports

import "go.zr.dev/zr/internal/core/domain"

// Hasher is the Fingerprint Hasher: it computes a task's fingerprint from
// its definition, its resolved environment, and the fingerprints of its
// dependencies, so the Cache Store can key build results deterministically.
//
//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_fs.go -package=mocks -source=fs.go
type Hasher interface {
	// ComputeInputHash computes a single fingerprint for the task
	// definition, its resolved environment, and depFingerprints: the
	// already-computed fingerprints of its dependency tasks. Declared
	// Inputs/Outputs are not sampled; the file system only contributes to a
	// fingerprint through an explicit ${file.hash(path)} expression.
	ComputeInputHash(task *domain.Task, env map[string]string, depFingerprints []string) (string, error)

	// ComputeFileHash computes the content hash of a single file, for
	// ${file.hash(path)} expressions.
	ComputeFileHash(path string) (uint64, error)
}

// InputResolver expands declared input patterns (literal paths or globs)
// into a deduplicated, sorted list of concrete filesystem paths.
type InputResolver interface {
	ResolveInputs(inputs []string, root string) ([]string, error)
}
