package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/franz/songbook/internal/blob"
	"github.com/franz/songbook/internal/store"
	"github.com/franz/songbook/internal/util"
)

func setupTestLibrary(t *testing.T) (*Library, *blob.Manager) {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	blobs, err := blob.New(filepath.Join(dir, "clips"))
	if err != nil {
		t.Fatalf("Failed to create blob manager: %v", err)
	}

	lib, err := New(context.Background(), st, blobs)
	if err != nil {
		t.Fatalf("Failed to create library: %v", err)
	}
	return lib, blobs
}

func writeRecording(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "take.wav")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write recording: %v", err)
	}
	return path
}

func strPtr(s string) *string { return &s }

func TestSongCacheReflectsWrites(t *testing.T) {
	ctx := context.Background()
	lib, _ := setupTestLibrary(t)

	if got := len(lib.Songs.List()); got != 0 {
		t.Fatalf("Expected empty cache, got %d songs", got)
	}

	id, err := lib.Songs.Create(ctx, store.Song{Title: strPtr("Verse idea")})
	if err != nil {
		t.Fatalf("Failed to create song: %v", err)
	}

	songs := lib.Songs.List()
	if len(songs) != 1 {
		t.Fatalf("Expected 1 song in cache after create, got %d", len(songs))
	}
	if songs[0].ID != id {
		t.Errorf("Expected cached song id %d, got %d", id, songs[0].ID)
	}
	if songs[0].DateModified.IsZero() {
		t.Errorf("Expected DateModified stamped on create")
	}

	if err := lib.Songs.Delete(ctx, id); err != nil {
		t.Fatalf("Failed to delete song: %v", err)
	}
	if got := len(lib.Songs.List()); got != 0 {
		t.Errorf("Expected empty cache after delete, got %d songs", got)
	}
}

func TestSongPatchPreservesOmittedFields(t *testing.T) {
	ctx := context.Background()
	lib, _ := setupTestLibrary(t)

	bpm := 120
	id, err := lib.Songs.Create(ctx, store.Song{
		Title:   strPtr("Chorus"),
		Content: strPtr("la la la"),
		Key:     strPtr("D"),
		Bpm:     &bpm,
	})
	if err != nil {
		t.Fatalf("Failed to create song: %v", err)
	}

	if err := lib.Songs.Update(ctx, id, SongPatch{Title: strPtr("Chorus v2")}); err != nil {
		t.Fatalf("Failed to update song: %v", err)
	}

	song, err := lib.Songs.Get(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get song: %v", err)
	}
	if song.Title == nil || *song.Title != "Chorus v2" {
		t.Errorf("Expected patched title, got %v", song.Title)
	}
	if song.Content == nil || *song.Content != "la la la" {
		t.Errorf("Expected content preserved, got %v", song.Content)
	}
	if song.Key == nil || *song.Key != "D" {
		t.Errorf("Expected key preserved, got %v", song.Key)
	}
	if song.Bpm == nil || *song.Bpm != 120 {
		t.Errorf("Expected bpm preserved, got %v", song.Bpm)
	}

	// Clear flags set nullable fields to absent
	if err := lib.Songs.Update(ctx, id, SongPatch{ClearKey: true, ClearBpm: true}); err != nil {
		t.Fatalf("Failed to clear fields: %v", err)
	}
	song, err = lib.Songs.Get(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get song: %v", err)
	}
	if song.Key != nil || song.Bpm != nil {
		t.Errorf("Expected key and bpm cleared, got %v %v", song.Key, song.Bpm)
	}
}

func TestSongGetMissingReportsNotFound(t *testing.T) {
	ctx := context.Background()
	lib, _ := setupTestLibrary(t)

	_, err := lib.Songs.Get(ctx, 999)
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}

	err = lib.Songs.Update(ctx, 999, SongPatch{Title: strPtr("ghost")})
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on update, got: %v", err)
	}

	// Delete of a missing id is a no-op
	if err := lib.Songs.Delete(ctx, 999); err != nil {
		t.Errorf("Expected missing delete to succeed, got: %v", err)
	}
}

func TestFolderDeleteLeavesSongs(t *testing.T) {
	ctx := context.Background()
	lib, _ := setupTestLibrary(t)

	folderID, err := lib.Folders.Create(ctx, store.Folder{Title: strPtr("Demos")})
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	songID, err := lib.Songs.Create(ctx, store.Song{Title: strPtr("In folder"), FolderID: &folderID})
	if err != nil {
		t.Fatalf("Failed to create song: %v", err)
	}

	if err := lib.Folders.Delete(ctx, folderID); err != nil {
		t.Fatalf("Failed to delete folder: %v", err)
	}

	song, err := lib.Songs.Get(ctx, songID)
	if err != nil {
		t.Fatalf("Expected song to survive folder delete: %v", err)
	}
	if song.FolderID == nil || *song.FolderID != folderID {
		t.Errorf("Expected dangling folder_id kept on the row, got %v", song.FolderID)
	}
}

func TestClipCreateFromFile(t *testing.T) {
	ctx := context.Background()
	lib, blobs := setupTestLibrary(t)

	src := writeRecording(t, "RIFF fake audio")

	clip, err := lib.Clips.CreateFromFile(ctx, src, strPtr("Take 1"), 4200, nil)
	if err != nil {
		t.Fatalf("Failed to create clip from file: %v", err)
	}

	if filepath.Dir(clip.FilePath) != blobs.Dir() {
		t.Errorf("Expected clip file under managed dir, got %s", clip.FilePath)
	}
	if _, err := os.Stat(clip.FilePath); err != nil {
		t.Errorf("Expected managed file to exist: %v", err)
	}
	if clip.Size != int64(len("RIFF fake audio")) {
		t.Errorf("Expected size %d, got %d", len("RIFF fake audio"), clip.Size)
	}
	if clip.Duration != 4200 {
		t.Errorf("Expected duration 4200, got %d", clip.Duration)
	}

	cached := lib.Clips.List()
	if len(cached) != 1 || cached[0].ID != clip.ID {
		t.Errorf("Expected clip in cache after create")
	}
}

func TestClipCreateFailureRemovesStoredFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	blobs, err := blob.New(filepath.Join(dir, "clips"))
	if err != nil {
		t.Fatalf("Failed to create blob manager: %v", err)
	}
	lib, err := New(ctx, st, blobs)
	if err != nil {
		t.Fatalf("Failed to create library: %v", err)
	}

	// A closed store makes the row insert fail after the file was stored
	st.Close()

	src := writeRecording(t, "payload")
	_, err = lib.Clips.CreateFromFile(ctx, src, nil, 0, nil)
	if !errors.Is(err, util.ErrStorage) {
		t.Fatalf("Expected ErrStorage, got: %v", err)
	}

	// The compensating remove must leave the managed dir empty
	paths, err := blobs.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list managed files: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("Expected no files after aborted create, got %v", paths)
	}
}

func TestClipDeleteRemovesRelationsAndFile(t *testing.T) {
	ctx := context.Background()
	lib, _ := setupTestLibrary(t)

	songID, err := lib.Songs.Create(ctx, store.Song{Title: strPtr("Song")})
	if err != nil {
		t.Fatalf("Failed to create song: %v", err)
	}

	src := writeRecording(t, "payload")
	clip, err := lib.Clips.CreateFromFile(ctx, src, nil, 0, nil)
	if err != nil {
		t.Fatalf("Failed to create clip: %v", err)
	}
	if err := lib.Relations.Attach(ctx, songID, clip.ID); err != nil {
		t.Fatalf("Failed to attach clip: %v", err)
	}

	if err := lib.Clips.Delete(ctx, clip.ID); err != nil {
		t.Fatalf("Failed to delete clip: %v", err)
	}

	if _, err := os.Stat(clip.FilePath); !os.IsNotExist(err) {
		t.Errorf("Expected backing file removed with the row")
	}
	attached, err := lib.Relations.ClipsFor(ctx, songID)
	if err != nil {
		t.Fatalf("Failed to list attached clips: %v", err)
	}
	if len(attached) != 0 {
		t.Errorf("Expected relations gone with the clip, got %d", len(attached))
	}

	// Deleting again is a no-op
	if err := lib.Clips.Delete(ctx, clip.ID); err != nil {
		t.Errorf("Expected second delete to succeed, got: %v", err)
	}
}

func TestAttachDetachIdempotent(t *testing.T) {
	ctx := context.Background()
	lib, _ := setupTestLibrary(t)

	songID, err := lib.Songs.Create(ctx, store.Song{Title: strPtr("Song")})
	if err != nil {
		t.Fatalf("Failed to create song: %v", err)
	}
	src := writeRecording(t, "payload")
	clip, err := lib.Clips.CreateFromFile(ctx, src, nil, 0, nil)
	if err != nil {
		t.Fatalf("Failed to create clip: %v", err)
	}

	if err := lib.Relations.Attach(ctx, songID, clip.ID); err != nil {
		t.Fatalf("Failed to attach: %v", err)
	}
	if err := lib.Relations.Attach(ctx, songID, clip.ID); err != nil {
		t.Fatalf("Expected duplicate attach to be a no-op, got: %v", err)
	}

	attached, err := lib.Relations.ClipsFor(ctx, songID)
	if err != nil {
		t.Fatalf("Failed to list attached clips: %v", err)
	}
	if len(attached) != 1 {
		t.Errorf("Expected 1 attached clip after duplicate attach, got %d", len(attached))
	}

	if err := lib.Relations.Detach(ctx, songID, clip.ID); err != nil {
		t.Fatalf("Failed to detach: %v", err)
	}
	if err := lib.Relations.Detach(ctx, songID, clip.ID); err != nil {
		t.Errorf("Expected detach of absent relation to succeed, got: %v", err)
	}
}

func TestEditSessionSave(t *testing.T) {
	ctx := context.Background()
	lib, _ := setupTestLibrary(t)

	songID, err := lib.Songs.Create(ctx, store.Song{Title: strPtr("Song")})
	if err != nil {
		t.Fatalf("Failed to create song: %v", err)
	}

	session := lib.NewEditSession(songID)

	src := writeRecording(t, "payload")
	clip, err := lib.Clips.CreateFromFile(ctx, src, nil, 0, nil)
	if err != nil {
		t.Fatalf("Failed to create clip: %v", err)
	}
	if err := session.AddTemporary(clip.ID); err != nil {
		t.Fatalf("Failed to add temporary clip: %v", err)
	}

	// Pending clips are not attached yet
	attached, err := lib.Relations.ClipsFor(ctx, songID)
	if err != nil {
		t.Fatalf("Failed to list attached clips: %v", err)
	}
	if len(attached) != 0 {
		t.Fatalf("Expected no relation before save, got %d", len(attached))
	}

	if err := session.Save(ctx); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	attached, err = lib.Relations.ClipsFor(ctx, songID)
	if err != nil {
		t.Fatalf("Failed to list attached clips: %v", err)
	}
	if len(attached) != 1 || attached[0].ID != clip.ID {
		t.Errorf("Expected clip attached after save")
	}

	// A closed session rejects further use
	if err := session.AddTemporary(clip.ID); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState on closed session, got: %v", err)
	}
	if err := session.Save(ctx); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState on double save, got: %v", err)
	}
}

func TestEditSessionDiscard(t *testing.T) {
	ctx := context.Background()
	lib, _ := setupTestLibrary(t)

	songID, err := lib.Songs.Create(ctx, store.Song{Title: strPtr("Song")})
	if err != nil {
		t.Fatalf("Failed to create song: %v", err)
	}

	session := lib.NewEditSession(songID)

	src := writeRecording(t, "payload")
	clip, err := lib.Clips.CreateFromFile(ctx, src, nil, 0, nil)
	if err != nil {
		t.Fatalf("Failed to create clip: %v", err)
	}
	if err := session.AddTemporary(clip.ID); err != nil {
		t.Fatalf("Failed to add temporary clip: %v", err)
	}

	if err := session.Discard(ctx); err != nil {
		t.Fatalf("Failed to discard session: %v", err)
	}

	// Row and file are both gone
	if _, err := lib.Clips.Get(ctx, clip.ID); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Expected clip row gone after discard, got: %v", err)
	}
	if _, err := os.Stat(clip.FilePath); !os.IsNotExist(err) {
		t.Errorf("Expected clip file gone after discard")
	}
}
