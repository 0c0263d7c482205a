package library

import (
	"context"
	"fmt"

	"github.com/franz/songbook/internal/store"
	"github.com/franz/songbook/internal/util"
)

// Relations manages the song/clip association table
type Relations struct {
	store *store.Store
	clips *Clips
}

// Attach associates a clip with a song. Attaching an already-attached
// pair is a no-op.
func (r *Relations) Attach(ctx context.Context, songID, clipID int64) error {
	if err := r.store.InsertRelation(ctx, songID, clipID); err != nil {
		return fmt.Errorf("attach: %w: %w", util.ErrStorage, err)
	}
	return nil
}

// Detach removes a song/clip association. Absence is not an error.
func (r *Relations) Detach(ctx context.Context, songID, clipID int64) error {
	if err := r.store.DeleteRelation(ctx, songID, clipID); err != nil {
		return fmt.Errorf("detach: %w: %w", util.ErrStorage, err)
	}
	return nil
}

// ClipsFor returns the clips attached to a song, newest first. Relation
// rows whose clip row is gone are silently excluded.
func (r *Relations) ClipsFor(ctx context.Context, songID int64) ([]*store.Clip, error) {
	clips, err := r.store.ClipsForSong(ctx, songID)
	if err != nil {
		return nil, fmt.Errorf("clips for song: %w: %w", util.ErrStorage, err)
	}
	return clips, nil
}
