package library

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/franz/songbook/internal/blob"
	"github.com/franz/songbook/internal/store"
	"github.com/franz/songbook/internal/util"
)

// Clips is the clip repository. A clip row and its backing file are
// created and deleted together: CreateFromFile promotes a source file
// into managed storage before inserting the row, and Delete removes the
// row (with its relations) before removing the file.
type Clips struct {
	mu    sync.Mutex
	store *store.Store
	blobs *blob.Manager
	cache []*store.Clip
}

// List returns the cached clips, newest first
func (r *Clips) List() []*store.Clip {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*store.Clip, len(r.cache))
	copy(out, r.cache)
	return out
}

// Get returns a clip by id, or ErrNotFound
func (r *Clips) Get(ctx context.Context, id int64) (*store.Clip, error) {
	clip, err := r.store.GetClipByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get clip: %w: %w", util.ErrStorage, err)
	}
	if clip == nil {
		return nil, fmt.Errorf("clip %d: %w", id, util.ErrNotFound)
	}
	return clip, nil
}

// CreateFromFile stores the source file into the managed directory and
// inserts the clip row. If the insert fails the just-stored file is
// removed again, so no row is ever left pointing at a missing file and
// no failure leaves a row behind.
func (r *Clips) CreateFromFile(ctx context.Context, sourcePath string, title *string, duration int, metadata *string) (*store.Clip, error) {
	stored, err := r.blobs.Store(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	clip := store.Clip{
		Title:       title,
		FilePath:    stored.Path,
		FileName:    stored.Name,
		DateCreated: time.Now(),
		Duration:    duration,
		MimeType:    stored.MimeType,
		Size:        stored.Size,
		Metadata:    metadata,
	}

	id, err := r.Create(ctx, clip)
	if err != nil {
		// Compensate: the row never existed, the file must not either
		if rmErr := r.blobs.Remove(ctx, stored.Path); rmErr != nil {
			util.WarnLog("Failed to remove %s after aborted clip create: %v", stored.Path, rmErr)
		}
		return nil, err
	}
	clip.ID = id

	return &clip, nil
}

// Create inserts a clip row for an already-managed file and returns its
// id. DateCreated is stamped with the current time unless supplied.
func (r *Clips) Create(ctx context.Context, clip store.Clip) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clip.DateCreated.IsZero() {
		clip.DateCreated = time.Now()
	}
	if clip.FileName == "" {
		clip.FileName = filepath.Base(clip.FilePath)
	}

	if err := r.store.InsertClip(ctx, &clip); err != nil {
		return 0, fmt.Errorf("create clip: %w: %w", util.ErrStorage, err)
	}

	if err := r.refreshLocked(ctx); err != nil {
		return 0, err
	}

	return clip.ID, nil
}

// Update merges a partial update into the current row. Only the title
// and metadata are caller-mutable; file fields belong to the blob
// manager.
func (r *Clips) Update(ctx context.Context, id int64, title *string, metadata *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clip, err := r.store.GetClipByID(ctx, id)
	if err != nil {
		return fmt.Errorf("update clip: %w: %w", util.ErrStorage, err)
	}
	if clip == nil {
		return fmt.Errorf("clip %d: %w", id, util.ErrNotFound)
	}

	if title != nil {
		clip.Title = title
	}
	if metadata != nil {
		clip.Metadata = metadata
	}

	found, err := r.store.UpdateClip(ctx, clip)
	if err != nil {
		return fmt.Errorf("update clip: %w: %w", util.ErrStorage, err)
	}
	if !found {
		return fmt.Errorf("clip %d: %w", id, util.ErrNotFound)
	}

	return r.refreshLocked(ctx)
}

// Delete removes the clip row, every relation row referencing it, and
// the backing file, in that order. A missing id is a no-op. A failed
// file removal leaves an orphaned file, which the doctor sweep can
// clean; the row and relations are already gone.
func (r *Clips) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clip, err := r.store.GetClipByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete clip: %w: %w", util.ErrStorage, err)
	}
	if clip == nil {
		return nil
	}

	deleted, err := r.store.DeleteClip(ctx, id)
	if err != nil {
		return fmt.Errorf("delete clip: %w: %w", util.ErrStorage, err)
	}

	if deleted {
		if err := r.blobs.Remove(ctx, clip.FilePath); err != nil {
			util.WarnLog("Clip %d row deleted but file removal failed: %v", id, err)
		}
	}

	return r.refreshLocked(ctx)
}

func (r *Clips) refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *Clips) refreshLocked(ctx context.Context) error {
	clips, err := r.store.ListClips(ctx)
	if err != nil {
		return fmt.Errorf("refresh clips: %w: %w", util.ErrStorage, err)
	}
	r.cache = clips
	return nil
}
