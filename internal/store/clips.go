package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertClip inserts a clip record and assigns its ID
func (s *Store) InsertClip(ctx context.Context, clip *Clip) error {
	if err := clip.Validate(); err != nil {
		return fmt.Errorf("invalid clip: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO clips (title, file_path, file_name, date_created, duration, mime_type, size, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, clip.Title, clip.FilePath, clip.FileName, clip.DateCreated.UTC(),
		clip.Duration, clip.MimeType, clip.Size, clip.Metadata)
	if err != nil {
		return fmt.Errorf("failed to insert clip: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get clip ID: %w", err)
	}
	clip.ID = id

	return nil
}

// GetClipByID retrieves a clip by its ID, or nil if it does not exist
func (s *Store) GetClipByID(ctx context.Context, id int64) (*Clip, error) {
	clip := &Clip{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, file_path, file_name, date_created, duration, mime_type, size, metadata
		FROM clips WHERE id = ?
	`, id).Scan(
		&clip.ID, &clip.Title, &clip.FilePath, &clip.FileName,
		&clip.DateCreated, &clip.Duration, &clip.MimeType, &clip.Size, &clip.Metadata,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clip: %w", err)
	}

	return clip, nil
}

// UpdateClip writes the full clip record. Returns false if no row has
// the clip's ID.
func (s *Store) UpdateClip(ctx context.Context, clip *Clip) (bool, error) {
	if err := clip.Validate(); err != nil {
		return false, fmt.Errorf("invalid clip: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE clips SET title = ?, file_path = ?, file_name = ?, date_created = ?,
			duration = ?, mime_type = ?, size = ?, metadata = ?
		WHERE id = ?
	`, clip.Title, clip.FilePath, clip.FileName, clip.DateCreated.UTC(),
		clip.Duration, clip.MimeType, clip.Size, clip.Metadata, clip.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update clip: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// DeleteClip removes a clip row and every relation row referencing it in
// one transaction. Returns false if no clip row had the ID. The backing
// file is the blob manager's concern and must be removed only after this
// succeeds.
func (s *Store) DeleteClip(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM song_clip_rel WHERE clip_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete clip relations: %w", err)
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM clips WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete clip: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		deleted = affected > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}

// ListClips retrieves all clips ordered by descending creation time,
// ties broken by insertion order (newest first)
func (s *Store) ListClips(ctx context.Context) ([]*Clip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, file_path, file_name, date_created, duration, mime_type, size, metadata
		FROM clips
		ORDER BY date_created DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips: %w", err)
	}
	defer rows.Close()

	return scanClips(rows)
}

// OrphanClips retrieves clips with zero relations created before the
// given cutoff. These are candidates for the reconciliation sweep; a
// fresh orphan may be a capture pending its session save.
func (s *Store) OrphanClips(ctx context.Context, olderThan time.Time) ([]*Clip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.file_path, c.file_name, c.date_created,
		       c.duration, c.mime_type, c.size, c.metadata
		FROM clips c
		LEFT JOIN song_clip_rel r ON r.clip_id = c.id
		WHERE r.clip_id IS NULL AND c.date_created < ?
		ORDER BY c.date_created DESC, c.id DESC
	`, olderThan.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query orphan clips: %w", err)
	}
	defer rows.Close()

	return scanClips(rows)
}

// CountClips returns the number of clip rows
func (s *Store) CountClips(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM clips").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clips: %w", err)
	}
	return count, nil
}

func scanClips(rows *sql.Rows) ([]*Clip, error) {
	var clips []*Clip
	for rows.Next() {
		clip := &Clip{}
		err := rows.Scan(
			&clip.ID, &clip.Title, &clip.FilePath, &clip.FileName,
			&clip.DateCreated, &clip.Duration, &clip.MimeType, &clip.Size, &clip.Metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, clip)
	}

	return clips, rows.Err()
}
