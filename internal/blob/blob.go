// Package blob owns the managed audio-file namespace. It is the only
// component that writes files under the clips directory; clip rows in
// the store reference these files by absolute path.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/franz/songbook/internal/util"
	"github.com/google/uuid"
)

// Manager copies captured recordings into the managed clips directory
// and deletes them on discard
type Manager struct {
	dir string
}

// Stored describes a file that was promoted into managed storage
type Stored struct {
	Path     string // absolute path under the managed directory
	Name     string // file name component
	Size     int64  // bytes written
	MimeType string
}

// New creates a Manager rooted at dir. The directory is created lazily
// on the first Store call.
func New(dir string) (*Manager, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve clips directory: %w", err)
	}
	return &Manager{dir: abs}, nil
}

// Dir returns the managed clips directory
func (m *Manager) Dir() string {
	return m.dir
}

// Store copies the file at sourcePath into the managed directory under a
// collision-resistant name, preserving the source extension. Callers
// must not create a clip row if this fails.
func (m *Manager) Store(ctx context.Context, sourcePath string) (*Stored, error) {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create clips directory: %w", err)
	}

	name := managedName(sourcePath)
	destPath := filepath.Join(m.dir, name)

	size, err := util.CopyFile(ctx, sourcePath, destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", sourcePath, err)
	}

	util.DebugLog("Stored clip file: %s -> %s (%d bytes)", sourcePath, destPath, size)

	return &Stored{
		Path:     destPath,
		Name:     name,
		Size:     size,
		MimeType: SniffMime(destPath),
	}, nil
}

// Remove deletes a managed file. Removing an already-missing file is a
// no-op, since a previous partial failure may have removed it.
func (m *Manager) Remove(ctx context.Context, managedPath string) error {
	if err := m.checkManaged(managedPath); err != nil {
		return err
	}

	if err := os.Remove(managedPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to remove %s: %w", managedPath, err)
	}

	util.DebugLog("Removed clip file: %s", managedPath)
	return nil
}

// List returns the absolute paths of every regular file in the managed
// directory. A missing directory yields an empty list.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read clips directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		// Skip in-flight copies
		if strings.HasSuffix(entry.Name(), ".part") {
			continue
		}
		paths = append(paths, filepath.Join(m.dir, entry.Name()))
	}

	return paths, nil
}

// Orphans returns managed files not present in the known set of clip
// file paths. These are left over from partial failures and safe to
// remove.
func (m *Manager) Orphans(ctx context.Context, known map[string]bool) ([]string, error) {
	paths, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	var orphans []string
	for _, path := range paths {
		if !known[path] {
			orphans = append(orphans, path)
		}
	}

	return orphans, nil
}

// checkManaged rejects paths outside the managed directory
func (m *Manager) checkManaged(path string) error {
	dir := filepath.Dir(filepath.Clean(path))
	if dir != m.dir {
		return fmt.Errorf("path %s is outside the managed directory %s", path, m.dir)
	}
	return nil
}

// managedName builds a collision-resistant file name from the capture
// time and a short random suffix, keeping the source extension
func managedName(sourcePath string) string {
	ext := strings.ToLower(filepath.Ext(sourcePath))
	stamp := time.Now().UTC().Format("20060102T150405")
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s-%s%s", stamp, suffix, ext)
}
