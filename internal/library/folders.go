package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/franz/songbook/internal/store"
	"github.com/franz/songbook/internal/util"
)

// Folders is the folder repository
type Folders struct {
	mu    sync.Mutex
	store *store.Store
	cache []*store.Folder
}

// FolderPatch is a partial folder update
type FolderPatch struct {
	Title        *string
	DateModified *time.Time

	ClearTitle bool
}

// List returns the cached folders, newest first
func (r *Folders) List() []*store.Folder {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*store.Folder, len(r.cache))
	copy(out, r.cache)
	return out
}

// Get returns a folder by id, or ErrNotFound
func (r *Folders) Get(ctx context.Context, id int64) (*store.Folder, error) {
	folder, err := r.store.GetFolderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get folder: %w: %w", util.ErrStorage, err)
	}
	if folder == nil {
		return nil, fmt.Errorf("folder %d: %w", id, util.ErrNotFound)
	}
	return folder, nil
}

// Create inserts a new folder and returns its id
func (r *Folders) Create(ctx context.Context, folder store.Folder) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if folder.DateModified.IsZero() {
		folder.DateModified = time.Now()
	}

	if err := r.store.InsertFolder(ctx, &folder); err != nil {
		return 0, fmt.Errorf("create folder: %w: %w", util.ErrStorage, err)
	}

	if err := r.refreshLocked(ctx); err != nil {
		return 0, err
	}

	return folder.ID, nil
}

// Update merges a patch into the current row
func (r *Folders) Update(ctx context.Context, id int64, patch FolderPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	folder, err := r.store.GetFolderByID(ctx, id)
	if err != nil {
		return fmt.Errorf("update folder: %w: %w", util.ErrStorage, err)
	}
	if folder == nil {
		return fmt.Errorf("folder %d: %w", id, util.ErrNotFound)
	}

	if patch.Title != nil {
		folder.Title = patch.Title
	}
	if patch.ClearTitle {
		folder.Title = nil
	}
	if patch.DateModified != nil {
		folder.DateModified = *patch.DateModified
	} else {
		folder.DateModified = time.Now()
	}

	found, err := r.store.UpdateFolder(ctx, folder)
	if err != nil {
		return fmt.Errorf("update folder: %w: %w", util.ErrStorage, err)
	}
	if !found {
		return fmt.Errorf("folder %d: %w", id, util.ErrNotFound)
	}

	return r.refreshLocked(ctx)
}

// Delete removes a folder. A missing id is a no-op; songs referencing
// the folder keep their dangling folder_id, which reads as "no folder".
func (r *Folders) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.store.DeleteFolder(ctx, id); err != nil {
		return fmt.Errorf("delete folder: %w: %w", util.ErrStorage, err)
	}

	return r.refreshLocked(ctx)
}

func (r *Folders) refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *Folders) refreshLocked(ctx context.Context) error {
	folders, err := r.store.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("refresh folders: %w: %w", util.ErrStorage, err)
	}
	r.cache = folders
	return nil
}
