package library

import (
	"context"
	"fmt"
	"sync"

	"github.com/franz/songbook/internal/util"
)

// EditSession tracks clips captured while a song is being edited. Those
// clips already have rows and files (for instant playback) but no
// relation yet: the relation is committed on Save, or the clips are
// deleted outright on Discard. This is the one state where a clip with
// zero relations is expected.
type EditSession struct {
	mu     sync.Mutex
	lib    *Library
	songID int64
	temp   []int64
	closed bool
}

// NewEditSession starts a working set of temporary clips for a song
func (l *Library) NewEditSession(songID int64) *EditSession {
	return &EditSession{lib: l, songID: songID}
}

// SongID returns the song being edited
func (s *EditSession) SongID() int64 {
	return s.songID
}

// AddTemporary registers a just-captured clip as pending. The clip row
// and file already exist; only the relation is deferred.
func (s *EditSession) AddTemporary(clipID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("edit session already closed: %w", util.ErrInvalidState)
	}
	s.temp = append(s.temp, clipID)
	return nil
}

// Temporary returns the pending clip ids
func (s *EditSession) Temporary() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.temp))
	copy(out, s.temp)
	return out
}

// Save commits every temporary clip as a real relation. The session is
// closed afterward.
func (s *EditSession) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("edit session already closed: %w", util.ErrInvalidState)
	}

	for _, clipID := range s.temp {
		if err := s.lib.Relations.Attach(ctx, s.songID, clipID); err != nil {
			return err
		}
	}

	s.temp = nil
	s.closed = true
	return nil
}

// Discard deletes every temporary clip's row and file. The session is
// closed afterward.
func (s *EditSession) Discard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("edit session already closed: %w", util.ErrInvalidState)
	}

	for _, clipID := range s.temp {
		if err := s.lib.Clips.Delete(ctx, clipID); err != nil {
			return err
		}
	}

	s.temp = nil
	s.closed = true
	return nil
}
