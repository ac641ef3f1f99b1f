package cas_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.zr.dev/zr/internal/adapters/cas"
	"go.zr.dev/zr/internal/core/domain"
)

func TestNewStore(t *testing.T) {
	store, err := cas.NewStore()
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store == nil {
		t.Fatal("NewStore returned nil store")
	}
}

func TestStore_LookupMiss(t *testing.T) {
	root := t.TempDir()
	store, _ := cas.NewStore()

	entry, output, err := store.Lookup(root, "deadbeef")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if entry != nil || output != nil {
		t.Fatalf("expected a clean miss, got entry=%v output=%v", entry, output)
	}
}

func TestStore_InsertAndLookup(t *testing.T) {
	root := t.TempDir()
	store, _ := cas.NewStore()

	entry := domain.CacheEntry{
		Fingerprint: "fp1",
		ExitCode:    0,
		Timestamp:   1234,
	}
	captured := []byte("hi\n")

	if err := store.Insert(root, "fp1", entry, captured); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, output, err := store.Lookup(root, "fp1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got == nil {
		t.Fatal("Lookup returned nil entry")
	}
	if got.Fingerprint != entry.Fingerprint {
		t.Errorf("expected Fingerprint %q, got %q", entry.Fingerprint, got.Fingerprint)
	}
	if string(output) != string(captured) {
		t.Errorf("expected captured output %q, got %q", captured, output)
	}
}

func TestStore_InsertIdempotent(t *testing.T) {
	root := t.TempDir()
	store, _ := cas.NewStore()

	first := domain.CacheEntry{Fingerprint: "fp1", Timestamp: 1}
	if err := store.Insert(root, "fp1", first, []byte("first")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	second := domain.CacheEntry{Fingerprint: "fp1", Timestamp: 2}
	if err := store.Insert(root, "fp1", second, []byte("second")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, output, err := store.Lookup(root, "fp1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.Timestamp != 1 {
		t.Errorf("expected the first insert to win, got Timestamp=%d", got.Timestamp)
	}
	if string(output) != "first" {
		t.Errorf("expected the first insert's output to win, got %q", output)
	}
}

func TestStore_Persistence(t *testing.T) {
	root := t.TempDir()

	store1, _ := cas.NewStore()
	entry := domain.CacheEntry{Fingerprint: "fp2", Timestamp: 99}
	if err := store1.Insert(root, "fp2", entry, []byte("out")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	store2, _ := cas.NewStore()
	got, output, err := store2.Lookup(root, "fp2")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got == nil {
		t.Fatal("Lookup returned nil")
	}
	if got.Timestamp != 99 {
		t.Errorf("expected Timestamp 99, got %d", got.Timestamp)
	}
	if string(output) != "out" {
		t.Errorf("expected output %q, got %q", "out", output)
	}
}

func TestStore_LookupCorruptMeta(t *testing.T) {
	root := t.TempDir()
	store, _ := cas.NewStore()

	fp := "badmeta"
	shardDir := filepath.Join(root, domain.DefaultBuildCachePath(), domain.CacheEntryShard(fp))
	if err := os.MkdirAll(shardDir, domain.DirPerm); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(shardDir, fp+".meta"), []byte("{ invalid"), domain.FilePerm); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(shardDir, fp+".out"), []byte("x"), domain.FilePerm); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	entry, output, err := store.Lookup(root, fp)
	if err != nil {
		t.Fatalf("Lookup should treat a corrupt entry as a miss, got error: %v", err)
	}
	if entry != nil || output != nil {
		t.Fatalf("expected a miss for corrupt entry, got entry=%v output=%v", entry, output)
	}

	if _, statErr := os.Stat(filepath.Join(shardDir, fp+".meta")); statErr == nil {
		t.Error("expected corrupt .meta file to be removed lazily")
	}
}

func TestStore_LookupReadError(t *testing.T) {
	root := t.TempDir()
	store, _ := cas.NewStore()

	fp := "unreadable"
	shardDir := filepath.Join(root, domain.DefaultBuildCachePath(), domain.CacheEntryShard(fp))
	if err := os.MkdirAll(shardDir, domain.DirPerm); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	metaPath := filepath.Join(shardDir, fp+".meta")
	//nolint:gosec // intentionally unreadable file for testing
	if err := os.WriteFile(metaPath, []byte("{}"), 0o200); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, _, err := store.Lookup(root, fp)
	if err == nil {
		t.Fatal("Lookup should have failed due to read permissions")
	}
}

func TestStore_InsertWriteError(t *testing.T) {
	root := t.TempDir()
	store, _ := cas.NewStore()

	fp := "writeerror"
	shardDir := filepath.Join(root, domain.DefaultBuildCachePath(), domain.CacheEntryShard(fp))
	if err := os.MkdirAll(shardDir, domain.DirPerm); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	//nolint:gosec // intentionally restricting permissions for testing
	if err := os.Chmod(shardDir, 0o500); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	defer func() {
		//nolint:gosec // restoring permissions for cleanup
		_ = os.Chmod(shardDir, domain.DirPerm)
	}()

	err := store.Insert(root, fp, domain.CacheEntry{Fingerprint: fp}, []byte("x"))
	if err == nil {
		t.Fatal("Insert should have failed due to directory permissions")
	}
}
