// Package capture drives microphone capture and immediate playback of
// the result. A Session is a state machine created fresh for each
// recording; saving promotes the transient recording file into managed
// storage and the clip table, discarding leaves no trace.
package capture

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/franz/songbook/internal/library"
	"github.com/franz/songbook/internal/store"
	"github.com/franz/songbook/internal/util"
)

// State is a capture session state
type State int

const (
	StateIdle State = iota
	StateRequestingPermission
	StateRecording
	StateStopped
	StatePlaying
	StatePaused
	StateSaved
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingPermission:
		return "requesting-permission"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateSaved:
		return "saved"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Recording is the transient output of a capture device
type Recording struct {
	Path     string    // transient source file, not yet managed
	Duration int       // seconds
	Levels   []float32 // provisional audio level trace
}

// Recorder is a capture device. Start begins recording; Stop ends it
// and hands back the transient file.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (*Recording, error)
}

// Player is a playback device for the just-recorded file
type Player interface {
	Play(ctx context.Context, path string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Seek(ctx context.Context, offset time.Duration) error
	Position(ctx context.Context) (time.Duration, error)
	Stop(ctx context.Context) error
}

// Permissions answers whether the microphone may be used
type Permissions interface {
	RequestMicrophone(ctx context.Context) (bool, error)
}

// SaveOptions directs where a saved clip is attached. With a Session the
// clip is held as temporary until the edit session saves; with a SongID
// it is attached directly; with neither it is left unattached.
type SaveOptions struct {
	Title    *string
	Metadata *string
	SongID   int64 // 0 = none
	Session  *library.EditSession
}

// Session is one recording session's state machine
type Session struct {
	mu        sync.Mutex
	recorder  Recorder
	player    Player
	perms     Permissions
	lib       *library.Library
	state     State
	recording *Recording
}

// NewSession creates an idle capture session
func NewSession(recorder Recorder, player Player, perms Permissions, lib *library.Library) *Session {
	return &Session{
		recorder: recorder,
		player:   player,
		perms:    perms,
		lib:      lib,
		state:    StateIdle,
	}
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Recording returns the captured recording, or nil before StopRecording
func (s *Session) Recording() *Recording {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

func (s *Session) transitionErr(op string) error {
	return fmt.Errorf("cannot %s in state %s: %w", op, s.state, util.ErrInvalidState)
}

// StartRecording asks for microphone permission and begins capture.
// Permission denial is recoverable: the session returns to idle and the
// caller may retry.
func (s *Session) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return s.transitionErr("start recording")
	}

	s.state = StateRequestingPermission
	granted, err := s.perms.RequestMicrophone(ctx)
	if err != nil {
		s.state = StateIdle
		return fmt.Errorf("microphone permission check failed: %w", err)
	}
	if !granted {
		s.state = StateIdle
		return fmt.Errorf("microphone: %w", util.ErrPermissionDenied)
	}

	if err := s.recorder.Start(ctx); err != nil {
		s.state = StateIdle
		return fmt.Errorf("failed to start recording: %w", err)
	}

	s.state = StateRecording
	return nil
}

// StopRecording ends capture and keeps the transient file for preview.
// The blob manager is not involved yet.
func (s *Session) StopRecording(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return s.transitionErr("stop recording")
	}

	rec, err := s.recorder.Stop(ctx)
	if err != nil {
		s.state = StateIdle
		return fmt.Errorf("failed to stop recording: %w", err)
	}

	s.recording = rec
	s.state = StateStopped
	return nil
}

// Play previews the captured recording. There is no transition from
// recording to playing; capture must be stopped first.
func (s *Session) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateStopped:
		if err := s.player.Play(ctx, s.recording.Path); err != nil {
			return fmt.Errorf("failed to play recording: %w", err)
		}
	case StatePaused:
		if err := s.player.Resume(ctx); err != nil {
			return fmt.Errorf("failed to resume playback: %w", err)
		}
	default:
		return s.transitionErr("play")
	}

	s.state = StatePlaying
	return nil
}

// Pause pauses preview playback
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return s.transitionErr("pause")
	}

	if err := s.player.Pause(ctx); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}

	s.state = StatePaused
	return nil
}

// Seek moves the preview position
func (s *Session) Seek(ctx context.Context, offset time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying && s.state != StatePaused {
		return s.transitionErr("seek")
	}

	if err := s.player.Seek(ctx, offset); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

// Position returns the current preview position
func (s *Session) Position(ctx context.Context) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying && s.state != StatePaused {
		return 0, s.transitionErr("query position")
	}

	return s.player.Position(ctx)
}

// Save promotes the recording into the store: blob store, then clip row,
// then the requested attachment. A failed row insert removes the
// just-stored file again, so no partial clip survives. On success the
// transient source file is deleted.
func (s *Session) Save(ctx context.Context, opts SaveOptions) (*store.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateStopped, StatePaused:
	case StatePlaying:
		if err := s.player.Stop(ctx); err != nil {
			util.WarnLog("Failed to stop playback before save: %v", err)
		}
	default:
		return nil, s.transitionErr("save")
	}

	clip, err := s.lib.Clips.CreateFromFile(ctx, s.recording.Path, opts.Title, s.recording.Duration, opts.Metadata)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Session != nil:
		if err := opts.Session.AddTemporary(clip.ID); err != nil {
			return nil, err
		}
	case opts.SongID != 0:
		if err := s.lib.Relations.Attach(ctx, opts.SongID, clip.ID); err != nil {
			return nil, err
		}
	}

	s.removeSource()
	s.state = StateSaved
	return clip, nil
}

// Discard abandons the recording before any save happened. Only the
// transient source file is deleted; nothing was ever stored or
// recorded in the database, so nothing else needs undoing.
func (s *Session) Discard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateStopped, StatePaused:
	case StatePlaying:
		if err := s.player.Stop(ctx); err != nil {
			util.WarnLog("Failed to stop playback before discard: %v", err)
		}
	default:
		return s.transitionErr("discard")
	}

	s.removeSource()
	s.state = StateDiscarded
	return nil
}

// removeSource deletes the transient capture file; a missing file is
// already-satisfied
func (s *Session) removeSource() {
	if s.recording == nil || s.recording.Path == "" {
		return
	}
	if err := os.Remove(s.recording.Path); err != nil && !os.IsNotExist(err) {
		util.WarnLog("Failed to remove transient recording %s: %v", s.recording.Path, err)
	}
}
