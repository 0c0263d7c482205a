package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/franz/songbook/internal/library"
	"github.com/franz/songbook/internal/util"
)

// Playback plays saved clips from the library. Starting a different
// clip while one is playing stops the current one first; only one clip
// plays at a time.
type Playback struct {
	mu      sync.Mutex
	player  Player
	lib     *library.Library
	current int64 // clip id, 0 when nothing is playing
	paused  bool
}

// NewPlayback creates a clip playback coordinator
func NewPlayback(player Player, lib *library.Library) *Playback {
	return &Playback{player: player, lib: lib}
}

// Play starts playback of a saved clip. The clip's file is resolved
// through its row, honoring record-then-use-file ordering.
func (p *Playback) Play(ctx context.Context, clipID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == clipID && p.paused {
		if err := p.player.Resume(ctx); err != nil {
			return fmt.Errorf("failed to resume clip %d: %w", clipID, err)
		}
		p.paused = false
		return nil
	}

	clip, err := p.lib.Clips.Get(ctx, clipID)
	if err != nil {
		return err
	}

	if p.current != 0 && p.current != clipID {
		if err := p.player.Stop(ctx); err != nil {
			util.WarnLog("Failed to stop clip %d before switching: %v", p.current, err)
		}
	}

	if err := p.player.Play(ctx, clip.FilePath); err != nil {
		p.current = 0
		return fmt.Errorf("failed to play clip %d: %w", clipID, err)
	}

	p.current = clipID
	p.paused = false
	return nil
}

// Pause suspends the current clip
func (p *Playback) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == 0 || p.paused {
		return fmt.Errorf("nothing playing: %w", util.ErrInvalidState)
	}

	if err := p.player.Pause(ctx); err != nil {
		return fmt.Errorf("failed to pause clip %d: %w", p.current, err)
	}

	p.paused = true
	return nil
}

// Seek moves the position within the current clip
func (p *Playback) Seek(ctx context.Context, offset time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == 0 {
		return fmt.Errorf("nothing playing: %w", util.ErrInvalidState)
	}

	if err := p.player.Seek(ctx, offset); err != nil {
		return fmt.Errorf("failed to seek in clip %d: %w", p.current, err)
	}
	return nil
}

// Position returns the position within the current clip
func (p *Playback) Position(ctx context.Context) (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == 0 {
		return 0, fmt.Errorf("nothing playing: %w", util.ErrInvalidState)
	}

	return p.player.Position(ctx)
}

// Stop ends playback
func (p *Playback) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == 0 {
		return nil
	}

	if err := p.player.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop clip %d: %w", p.current, err)
	}

	p.current = 0
	p.paused = false
	return nil
}

// Current returns the playing clip id and whether it is paused
func (p *Playback) Current() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.paused
}
