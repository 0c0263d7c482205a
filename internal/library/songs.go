package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/franz/songbook/internal/store"
	"github.com/franz/songbook/internal/util"
)

// Songs is the song repository. Mutations round-trip through the store
// and refresh the cache before returning.
type Songs struct {
	mu    sync.Mutex
	store *store.Store
	cache []*store.Song
}

// SongPatch is a partial song update. Nil fields keep their previous
// value; Clear flags set a nullable field to absent.
type SongPatch struct {
	Title        *string
	Content      *string
	FolderID     *int64
	Key          *string
	Bpm          *int
	DateModified *time.Time

	ClearTitle   bool
	ClearContent bool
	ClearFolder  bool
	ClearKey     bool
	ClearBpm     bool
}

// List returns the cached songs, newest first
func (r *Songs) List() []*store.Song {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*store.Song, len(r.cache))
	copy(out, r.cache)
	return out
}

// Get returns a song by id, or ErrNotFound
func (r *Songs) Get(ctx context.Context, id int64) (*store.Song, error) {
	song, err := r.store.GetSongByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get song: %w: %w", util.ErrStorage, err)
	}
	if song == nil {
		return nil, fmt.Errorf("song %d: %w", id, util.ErrNotFound)
	}
	return song, nil
}

// Create inserts a new song and returns its id. DateModified is stamped
// with the current time unless supplied.
func (r *Songs) Create(ctx context.Context, song store.Song) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if song.DateModified.IsZero() {
		song.DateModified = time.Now()
	}

	if err := r.store.InsertSong(ctx, &song); err != nil {
		return 0, fmt.Errorf("create song: %w: %w", util.ErrStorage, err)
	}

	if err := r.refreshLocked(ctx); err != nil {
		return 0, err
	}

	return song.ID, nil
}

// Update merges a patch into the current row. Omitted fields retain
// their previous value; a missing id reports ErrNotFound.
func (r *Songs) Update(ctx context.Context, id int64, patch SongPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	song, err := r.store.GetSongByID(ctx, id)
	if err != nil {
		return fmt.Errorf("update song: %w: %w", util.ErrStorage, err)
	}
	if song == nil {
		return fmt.Errorf("song %d: %w", id, util.ErrNotFound)
	}

	applySongPatch(song, patch)

	found, err := r.store.UpdateSong(ctx, song)
	if err != nil {
		return fmt.Errorf("update song: %w: %w", util.ErrStorage, err)
	}
	if !found {
		return fmt.Errorf("song %d: %w", id, util.ErrNotFound)
	}

	return r.refreshLocked(ctx)
}

// Delete removes a song. A missing id is a no-op.
func (r *Songs) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.store.DeleteSong(ctx, id); err != nil {
		return fmt.Errorf("delete song: %w: %w", util.ErrStorage, err)
	}

	return r.refreshLocked(ctx)
}

func (r *Songs) refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

func (r *Songs) refreshLocked(ctx context.Context) error {
	songs, err := r.store.ListSongs(ctx)
	if err != nil {
		return fmt.Errorf("refresh songs: %w: %w", util.ErrStorage, err)
	}
	r.cache = songs
	return nil
}

func applySongPatch(song *store.Song, patch SongPatch) {
	if patch.Title != nil {
		song.Title = patch.Title
	}
	if patch.ClearTitle {
		song.Title = nil
	}
	if patch.Content != nil {
		song.Content = patch.Content
	}
	if patch.ClearContent {
		song.Content = nil
	}
	if patch.FolderID != nil {
		song.FolderID = patch.FolderID
	}
	if patch.ClearFolder {
		song.FolderID = nil
	}
	if patch.Key != nil {
		song.Key = patch.Key
	}
	if patch.ClearKey {
		song.Key = nil
	}
	if patch.Bpm != nil {
		song.Bpm = patch.Bpm
	}
	if patch.ClearBpm {
		song.Bpm = nil
	}

	if patch.DateModified != nil {
		song.DateModified = *patch.DateModified
	} else {
		song.DateModified = time.Now()
	}
}
