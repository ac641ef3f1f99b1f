package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
	"go.zr.dev/zr/internal/core/domain"
	"go.zr.dev/zr/internal/core/ports"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher is the Fingerprint Hasher: it composes a task's fingerprint from
// its name, command, resolved working directory and environment, and the
// fingerprints of its dependencies, bottom-up. Declared Inputs/Outputs are
// deliberately excluded: the file system is never sampled unless a value
// routes through the expression evaluator's file.hash(path). Every
// contributing field is written length-prefixed rather than
// separator-delimited, so that e.g. the name "ab" with the command "c"
// cannot collide with the name "a" with the command "bc".
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the xxhash of a single file's content, for
// explicit ${file.hash(path)} expressions; it is never invoked implicitly
// from ComputeInputHash.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}

	return hasher.Sum64(), nil
}

// ComputeInputHash computes a task's fingerprint from its definition, its
// resolved environment, and depFingerprints: the already-computed
// fingerprints of every dependency task, composed bottom-up so that any
// change to a dependency (however deep) changes every fingerprint above it.
// depFingerprints need not arrive in dependency-declaration order; it is
// sorted here so the result only depends on the set, not the order, it was
// built in.
func (h *Hasher) ComputeInputHash(task *domain.Task, env map[string]string, depFingerprints []string) (string, error) {
	hasher := xxhash.New()

	h.hashTaskDefinition(task, hasher, depFingerprints)
	h.hashEnvironment(env, hasher)

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// writeLP writes b to w prefixed with its length as a fixed 8-byte
// little-endian integer, so that boundaries between successive fields are
// never ambiguous regardless of their content.
func writeLP(w io.Writer, b []byte) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(b)))
	_, _ = w.Write(lenBuf[:])
	_, _ = w.Write(b)
}

func writeLPString(w io.Writer, s string) {
	writeLP(w, []byte(s))
}

// hashTaskDefinition hashes the task's name, command, resolved working
// directory, tools, and the sorted fingerprints of its dependencies.
// task.Inputs and task.Outputs are intentionally excluded: they drive
// file-granularity rebuild tracking (the Watch Coordinator), not the
// fingerprint itself.
func (h *Hasher) hashTaskDefinition(task *domain.Task, hasher *xxhash.Digest, depFingerprints []string) {
	writeLPString(hasher, task.Name.String())
	writeLPString(hasher, task.Command)
	writeLPString(hasher, task.WorkingDir.String())

	toolKeys := make([]string, 0, len(task.Tools))
	for k := range task.Tools {
		toolKeys = append(toolKeys, k)
	}
	sort.Strings(toolKeys)

	writeLP(hasher, binary.LittleEndian.AppendUint64(nil, uint64(len(toolKeys))))
	for _, k := range toolKeys {
		writeLPString(hasher, k)
		writeLPString(hasher, task.Tools[k])
	}

	sortedFPs := make([]string, len(depFingerprints))
	copy(sortedFPs, depFingerprints)
	sort.Strings(sortedFPs)

	writeLP(hasher, binary.LittleEndian.AppendUint64(nil, uint64(len(sortedFPs))))
	for _, fp := range sortedFPs {
		writeLPString(hasher, fp)
	}
}

// hashEnvironment hashes environment variables in sorted-key order.
func (h *Hasher) hashEnvironment(env map[string]string, hasher *xxhash.Digest) {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writeLP(hasher, binary.LittleEndian.AppendUint64(nil, uint64(len(keys))))
	for _, k := range keys {
		writeLPString(hasher, k)
		writeLPString(hasher, env[k])
	}
}
