// Package syncer pushes and pulls the entity tables against a remote
// replica. Sync is best-effort: a failed tick leaves local state
// untouched and the next tick retries.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/franz/songbook/internal/library"
	"github.com/franz/songbook/internal/store"
	"github.com/franz/songbook/internal/util"
)

const userAgent = "Songbook/1.0 (https://github.com/franz/songbook)"

// Config configures the sync engine. Constructed explicitly by the
// caller; nothing is read from the environment here.
type Config struct {
	URL       string        // replica base URL
	AuthToken string        // bearer token
	Interval  time.Duration // tick interval for Start
}

// Validate checks the configuration at construction time
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("sync url is required: %w", util.ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("sync url %q must be http(s): %w", c.URL, util.ErrInvalidConfig)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("sync interval must be positive: %w", util.ErrInvalidConfig)
	}
	return nil
}

// Engine is the timer-driven sync loop
type Engine struct {
	cfg    Config
	client *http.Client
	store  *store.Store
	lib    *library.Library

	mu     sync.Mutex
	stop   chan struct{}
	doneWG sync.WaitGroup
}

// New creates a sync engine with a validated configuration
func New(cfg Config, st *store.Store, lib *library.Library) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		store:  st,
		lib:    lib,
	}, nil
}

// Sync performs one push/pull round trip and refreshes the repository
// caches. On any failure local state is left untouched.
func (e *Engine) Sync(ctx context.Context) error {
	local, err := e.localSnapshot(ctx)
	if err != nil {
		return err
	}

	if err := e.push(ctx, local); err != nil {
		return err
	}

	remote, err := e.pull(ctx)
	if err != nil {
		return err
	}

	songs, folders, clips, rels := remote.toRecords()
	if err := e.store.MergeSnapshot(ctx, songs, folders, clips, rels); err != nil {
		return fmt.Errorf("failed to apply pulled snapshot: %w: %w", util.ErrSync, err)
	}

	if err := e.lib.Refresh(ctx); err != nil {
		return err
	}

	util.DebugLog("Sync complete: %d songs, %d folders, %d clips, %d relations pulled",
		len(songs), len(folders), len(clips), len(rels))
	return nil
}

// Start begins the periodic tick loop. Stop disables further ticks but
// does not cancel an in-flight one.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stop != nil {
		return
	}
	e.stop = make(chan struct{})
	e.doneWG.Add(1)

	go func(stop chan struct{}) {
		defer e.doneWG.Done()
		ticker := time.NewTicker(e.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				// Best-effort: failures are logged and retried next tick
				if err := e.Sync(context.Background()); err != nil {
					util.WarnLog("Sync tick failed: %v", err)
				}
			}
		}
	}(e.stop)
}

// Stop disables the tick loop
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stop == nil {
		return
	}
	close(e.stop)
	e.stop = nil
	e.doneWG.Wait()
}

func (e *Engine) localSnapshot(ctx context.Context) (*snapshot, error) {
	songs, err := e.store.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local songs: %w: %w", util.ErrSync, err)
	}
	folders, err := e.store.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local folders: %w: %w", util.ErrSync, err)
	}
	clips, err := e.store.ListClips(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local clips: %w: %w", util.ErrSync, err)
	}
	rels, err := e.store.ListRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read local relations: %w: %w", util.ErrSync, err)
	}

	return newSnapshot(songs, folders, clips, rels), nil
}

// push uploads the local snapshot to the replica
func (e *Engine) push(ctx context.Context, snap *snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w: %w", util.ErrSync, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w: %w", util.ErrSync, err)
	}
	req.Header.Set("Content-Type", "application/json")
	e.setHeaders(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("push failed: %w: %w", util.ErrSync, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push failed with status %d: %s: %w", resp.StatusCode, msg, util.ErrSync)
	}

	return nil
}

// pull downloads the replica snapshot
func (e *Engine) pull(ctx context.Context) (*snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w: %w", util.ErrSync, err)
	}
	req.Header.Set("Accept", "application/json")
	e.setHeaders(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pull failed: %w: %w", util.ErrSync, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pull failed with status %d: %s: %w", resp.StatusCode, msg, util.ErrSync)
	}

	var snap snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode pulled snapshot: %w: %w", util.ErrSync, err)
	}

	return &snap, nil
}

func (e *Engine) endpoint() string {
	return strings.TrimRight(e.cfg.URL, "/") + "/snapshot"
}

func (e *Engine) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	if e.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.AuthToken)
	}
}
