package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}
	return path
}

func TestStoreCopiesIntoManagedDir(t *testing.T) {
	ctx := context.Background()
	mgr, err := New(filepath.Join(t.TempDir(), "clips"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	src := writeSource(t, "take.wav", "RIFF fake audio payload")

	stored, err := mgr.Store(ctx, src)
	if err != nil {
		t.Fatalf("Failed to store file: %v", err)
	}

	if filepath.Dir(stored.Path) != mgr.Dir() {
		t.Errorf("Stored path %s not under managed dir %s", stored.Path, mgr.Dir())
	}
	if !strings.HasSuffix(stored.Name, ".wav") {
		t.Errorf("Expected .wav extension preserved, got %s", stored.Name)
	}
	if stored.Size != int64(len("RIFF fake audio payload")) {
		t.Errorf("Expected size %d, got %d", len("RIFF fake audio payload"), stored.Size)
	}

	data, err := os.ReadFile(stored.Path)
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if string(data) != "RIFF fake audio payload" {
		t.Errorf("Stored content differs from source")
	}

	// Source stays in place; Store copies, it does not move
	if _, err := os.Stat(src); err != nil {
		t.Errorf("Source file missing after store: %v", err)
	}
}

func TestStoreNamesAreUnique(t *testing.T) {
	ctx := context.Background()
	mgr, err := New(filepath.Join(t.TempDir(), "clips"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	src := writeSource(t, "take.wav", "payload")

	first, err := mgr.Store(ctx, src)
	if err != nil {
		t.Fatalf("Failed to store first copy: %v", err)
	}
	second, err := mgr.Store(ctx, src)
	if err != nil {
		t.Fatalf("Failed to store second copy: %v", err)
	}

	if first.Path == second.Path {
		t.Errorf("Expected distinct managed names, both got %s", first.Path)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mgr, err := New(filepath.Join(t.TempDir(), "clips"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	src := writeSource(t, "take.wav", "payload")
	stored, err := mgr.Store(ctx, src)
	if err != nil {
		t.Fatalf("Failed to store file: %v", err)
	}

	if err := mgr.Remove(ctx, stored.Path); err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}
	if _, err := os.Stat(stored.Path); !os.IsNotExist(err) {
		t.Errorf("Expected file gone after remove")
	}

	// Removing again is a no-op
	if err := mgr.Remove(ctx, stored.Path); err != nil {
		t.Errorf("Expected second remove to succeed, got: %v", err)
	}
}

func TestRemoveRejectsOutsidePaths(t *testing.T) {
	ctx := context.Background()
	mgr, err := New(filepath.Join(t.TempDir(), "clips"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	outside := writeSource(t, "precious.txt", "do not touch")

	if err := mgr.Remove(ctx, outside); err == nil {
		t.Errorf("Expected error removing path outside managed dir")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("Outside file should be untouched: %v", err)
	}
}

func TestOrphans(t *testing.T) {
	ctx := context.Background()
	mgr, err := New(filepath.Join(t.TempDir(), "clips"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	src := writeSource(t, "take.wav", "payload")
	known, err := mgr.Store(ctx, src)
	if err != nil {
		t.Fatalf("Failed to store known file: %v", err)
	}
	stray, err := mgr.Store(ctx, src)
	if err != nil {
		t.Fatalf("Failed to store stray file: %v", err)
	}

	// A leftover .part file must never show up as an orphan
	partPath := filepath.Join(mgr.Dir(), "20240101T000000-deadbeef.wav.part")
	if err := os.WriteFile(partPath, []byte("partial"), 0644); err != nil {
		t.Fatalf("Failed to write .part file: %v", err)
	}

	orphans, err := mgr.Orphans(ctx, map[string]bool{known.Path: true})
	if err != nil {
		t.Fatalf("Failed to list orphans: %v", err)
	}

	if len(orphans) != 1 {
		t.Fatalf("Expected 1 orphan, got %d: %v", len(orphans), orphans)
	}
	if orphans[0] != stray.Path {
		t.Errorf("Expected orphan %s, got %s", stray.Path, orphans[0])
	}
}

func TestListMissingDirIsEmpty(t *testing.T) {
	ctx := context.Background()
	mgr, err := New(filepath.Join(t.TempDir(), "never-created"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	paths, err := mgr.List(ctx)
	if err != nil {
		t.Fatalf("Expected missing dir to list empty, got: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("Expected no paths, got %v", paths)
	}
}

func TestSniffMimeFallsBackToExtension(t *testing.T) {
	path := writeSource(t, "take.mp3", "not real mpeg data")

	mime := SniffMime(path)
	if mime != "audio/mpeg" {
		t.Errorf("Expected audio/mpeg from extension fallback, got %s", mime)
	}

	unknown := writeSource(t, "take.xyz", "mystery bytes")
	if got := SniffMime(unknown); got != "application/octet-stream" {
		t.Errorf("Expected octet-stream default, got %s", got)
	}
}

func TestReadTagsUntaggedFile(t *testing.T) {
	path := writeSource(t, "take.wav", "RIFF fake audio without tags")

	tags := ReadTags(path)
	if !tags.Empty() {
		t.Errorf("Expected no tags from an untagged file, got %+v", tags)
	}
	if tags.JSON() != "" {
		t.Errorf("Expected empty JSON for empty tags, got %q", tags.JSON())
	}
}

func TestTagsJSON(t *testing.T) {
	tags := &Tags{Title: "Demo", Artist: "Franz", Year: 2026}

	payload := tags.JSON()
	if payload == "" {
		t.Fatalf("Expected JSON payload for populated tags")
	}
	if !strings.Contains(payload, `"title":"Demo"`) {
		t.Errorf("Expected title in payload, got %s", payload)
	}
	if strings.Contains(payload, "album") {
		t.Errorf("Expected empty fields omitted, got %s", payload)
	}
}
