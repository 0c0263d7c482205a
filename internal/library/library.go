// Package library layers typed repositories over the store. Each entity
// kind gets one repository holding an in-memory read cache that is
// re-derived from storage after every mutation, so a caller's next List
// reflects its own write.
package library

import (
	"context"
	"fmt"

	"github.com/franz/songbook/internal/blob"
	"github.com/franz/songbook/internal/store"
)

// Library bundles the per-entity repositories and the relation manager
type Library struct {
	Songs     *Songs
	Folders   *Folders
	Clips     *Clips
	Relations *Relations
}

// New constructs the repositories and primes their caches from storage
func New(ctx context.Context, st *store.Store, blobs *blob.Manager) (*Library, error) {
	lib := &Library{
		Songs:   &Songs{store: st},
		Folders: &Folders{store: st},
		Clips:   &Clips{store: st, blobs: blobs},
	}
	lib.Relations = &Relations{store: st, clips: lib.Clips}

	if err := lib.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to prime caches: %w", err)
	}

	return lib, nil
}

// Refresh re-reads every cache from storage. Used after a sync pull.
func (l *Library) Refresh(ctx context.Context) error {
	if err := l.Songs.refresh(ctx); err != nil {
		return err
	}
	if err := l.Folders.refresh(ctx); err != nil {
		return err
	}
	return l.Clips.refresh(ctx)
}
