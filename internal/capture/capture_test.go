package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/franz/songbook/internal/blob"
	"github.com/franz/songbook/internal/library"
	"github.com/franz/songbook/internal/store"
	"github.com/franz/songbook/internal/util"
)

// fakeRecorder writes a fixed transient file on Stop
type fakeRecorder struct {
	dir      string
	started  bool
	duration int
}

func (r *fakeRecorder) Start(ctx context.Context) error {
	r.started = true
	return nil
}

func (r *fakeRecorder) Stop(ctx context.Context) (*Recording, error) {
	if !r.started {
		return nil, errors.New("recorder never started")
	}
	path := filepath.Join(r.dir, "transient.wav")
	if err := os.WriteFile(path, []byte("RIFF captured audio"), 0644); err != nil {
		return nil, err
	}
	return &Recording{Path: path, Duration: r.duration, Levels: []float32{0.2, 0.8, 0.5}}, nil
}

// fakePlayer records which calls happened
type fakePlayer struct {
	played  string
	paused  bool
	resumed bool
	stopped bool
	pos     time.Duration
}

func (p *fakePlayer) Play(ctx context.Context, path string) error { p.played = path; return nil }
func (p *fakePlayer) Pause(ctx context.Context) error             { p.paused = true; return nil }
func (p *fakePlayer) Resume(ctx context.Context) error            { p.resumed = true; return nil }
func (p *fakePlayer) Stop(ctx context.Context) error              { p.stopped = true; return nil }

func (p *fakePlayer) Seek(ctx context.Context, offset time.Duration) error {
	p.pos = offset
	return nil
}

func (p *fakePlayer) Position(ctx context.Context) (time.Duration, error) {
	return p.pos, nil
}

// fakePerms answers the microphone request with a fixed verdict
type fakePerms struct {
	granted bool
	err     error
}

func (p *fakePerms) RequestMicrophone(ctx context.Context) (bool, error) {
	return p.granted, p.err
}

func setupTestSession(t *testing.T, perms Permissions) (*Session, *library.Library, *fakePlayer) {
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

	lib, err := library.New(context.Background(), st, blobs)
	if err != nil {
		t.Fatalf("Failed to create library: %v", err)
	}

	player := &fakePlayer{}
	session := NewSession(&fakeRecorder{dir: dir, duration: 7}, player, perms, lib)
	return session, lib, player
}

func strPtr(s string) *string { return &s }

func TestPermissionDenialReturnsToIdle(t *testing.T) {
	ctx := context.Background()
	session, _, _ := setupTestSession(t, &fakePerms{granted: false})

	err := session.StartRecording(ctx)
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("Expected ErrPermissionDenied, got: %v", err)
	}
	if session.State() != StateIdle {
		t.Errorf("Expected session back in idle after denial, got %s", session.State())
	}

	// Denial is recoverable: a retry with permission granted proceeds
	retry, _, _ := setupTestSession(t, &fakePerms{granted: true})
	if err := retry.StartRecording(ctx); err != nil {
		t.Errorf("Expected retry to start recording, got: %v", err)
	}
	if retry.State() != StateRecording {
		t.Errorf("Expected recording state, got %s", retry.State())
	}
}

func TestRecordStopPlayPause(t *testing.T) {
	ctx := context.Background()
	session, _, player := setupTestSession(t, &fakePerms{granted: true})

	if err := session.StartRecording(ctx); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}

	// No path from recording straight to playing
	if err := session.Play(ctx); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState playing while recording, got: %v", err)
	}

	if err := session.StopRecording(ctx); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}
	rec := session.Recording()
	if rec == nil || rec.Duration != 7 {
		t.Fatalf("Expected recording with duration 7, got %+v", rec)
	}

	if err := session.Play(ctx); err != nil {
		t.Fatalf("Failed to play: %v", err)
	}
	if player.played != rec.Path {
		t.Errorf("Expected player to get %s, got %s", rec.Path, player.played)
	}
	if err := session.Pause(ctx); err != nil {
		t.Fatalf("Failed to pause: %v", err)
	}
	if session.State() != StatePaused {
		t.Errorf("Expected paused state, got %s", session.State())
	}

	// Play from paused resumes instead of restarting
	if err := session.Play(ctx); err != nil {
		t.Fatalf("Failed to resume: %v", err)
	}
	if !player.resumed {
		t.Errorf("Expected resume, not a fresh play")
	}

	if err := session.Seek(ctx, 3*time.Second); err != nil {
		t.Fatalf("Failed to seek: %v", err)
	}
	pos, err := session.Position(ctx)
	if err != nil {
		t.Fatalf("Failed to query position: %v", err)
	}
	if pos != 3*time.Second {
		t.Errorf("Expected position 3s after seek, got %s", pos)
	}
}

func TestSeekOutsidePlayback(t *testing.T) {
	ctx := context.Background()
	session, _, _ := setupTestSession(t, &fakePerms{granted: true})

	if err := session.Seek(ctx, time.Second); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState seeking while idle, got: %v", err)
	}
	if _, err := session.Position(ctx); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState querying position while idle, got: %v", err)
	}
}

func TestSaveCreatesClipAndAttaches(t *testing.T) {
	ctx := context.Background()
	session, lib, _ := setupTestSession(t, &fakePerms{granted: true})

	songID, err := lib.Songs.Create(ctx, store.Song{Title: strPtr("Song")})
	if err != nil {
		t.Fatalf("Failed to create song: %v", err)
	}

	if err := session.StartRecording(ctx); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	if err := session.StopRecording(ctx); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}
	sourcePath := session.Recording().Path

	clip, err := session.Save(ctx, SaveOptions{Title: strPtr("Take 1"), SongID: songID})
	if err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if session.State() != StateSaved {
		t.Errorf("Expected saved state, got %s", session.State())
	}

	if _, err := os.Stat(clip.FilePath); err != nil {
		t.Errorf("Expected managed clip file to exist: %v", err)
	}
	if _, err := os.Stat(sourcePath); !os.IsNotExist(err) {
		t.Errorf("Expected transient source removed after save")
	}
	if clip.Duration != 7 {
		t.Errorf("Expected duration carried onto the clip, got %d", clip.Duration)
	}

	attached, err := lib.Relations.ClipsFor(ctx, songID)
	if err != nil {
		t.Fatalf("Failed to list attached clips: %v", err)
	}
	if len(attached) != 1 || attached[0].ID != clip.ID {
		t.Errorf("Expected saved clip attached to song")
	}

	// The session is spent
	if err := session.StartRecording(ctx); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState restarting a saved session, got: %v", err)
	}
}

func TestSaveIntoEditSessionDefersAttachment(t *testing.T) {
	ctx := context.Background()
	session, lib, _ := setupTestSession(t, &fakePerms{granted: true})

	songID, err := lib.Songs.Create(ctx, store.Song{Title: strPtr("Song")})
	if err != nil {
		t.Fatalf("Failed to create song: %v", err)
	}
	edit := lib.NewEditSession(songID)

	if err := session.StartRecording(ctx); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	if err := session.StopRecording(ctx); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	clip, err := session.Save(ctx, SaveOptions{Session: edit})
	if err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	attached, err := lib.Relations.ClipsFor(ctx, songID)
	if err != nil {
		t.Fatalf("Failed to list attached clips: %v", err)
	}
	if len(attached) != 0 {
		t.Fatalf("Expected no relation before edit session save")
	}
	if temp := edit.Temporary(); len(temp) != 1 || temp[0] != clip.ID {
		t.Fatalf("Expected clip held as temporary, got %v", temp)
	}

	if err := edit.Save(ctx); err != nil {
		t.Fatalf("Failed to save edit session: %v", err)
	}
	attached, err = lib.Relations.ClipsFor(ctx, songID)
	if err != nil {
		t.Fatalf("Failed to list attached clips: %v", err)
	}
	if len(attached) != 1 {
		t.Errorf("Expected relation committed on edit session save")
	}
}

func TestDiscardLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	session, lib, _ := setupTestSession(t, &fakePerms{granted: true})

	if err := session.StartRecording(ctx); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	if err := session.StopRecording(ctx); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}
	sourcePath := session.Recording().Path

	if err := session.Discard(ctx); err != nil {
		t.Fatalf("Failed to discard: %v", err)
	}
	if session.State() != StateDiscarded {
		t.Errorf("Expected discarded state, got %s", session.State())
	}

	if _, err := os.Stat(sourcePath); !os.IsNotExist(err) {
		t.Errorf("Expected transient source removed on discard")
	}
	if clips := lib.Clips.List(); len(clips) != 0 {
		t.Errorf("Expected no clip rows after discard, got %d", len(clips))
	}
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	session, _, _ := setupTestSession(t, &fakePerms{granted: true})

	if err := session.StopRecording(ctx); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState stopping while idle, got: %v", err)
	}
	if err := session.Pause(ctx); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState pausing while idle, got: %v", err)
	}
	if _, err := session.Save(ctx, SaveOptions{}); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState saving while idle, got: %v", err)
	}
	if err := session.Discard(ctx); !errors.Is(err, util.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState discarding while idle, got: %v", err)
	}
}
