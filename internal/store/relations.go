package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertRelation associates a clip with a song. Inserting an existing
// pair is a no-op.
func (s *Store) InsertRelation(ctx context.Context, songID, clipID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO song_clip_rel (song_id, clip_id) VALUES (?, ?)
	`, songID, clipID)
	if err != nil {
		return fmt.Errorf("failed to insert relation: %w", err)
	}
	return nil
}

// DeleteRelation removes a song/clip association. Removing an absent
// pair is a no-op.
func (s *Store) DeleteRelation(ctx context.Context, songID, clipID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM song_clip_rel WHERE song_id = ? AND clip_id = ?
	`, songID, clipID)
	if err != nil {
		return fmt.Errorf("failed to delete relation: %w", err)
	}
	return nil
}

// ClipsForSong retrieves the clips related to a song, newest first. A
// relation row whose clip is gone is excluded by the join.
func (s *Store) ClipsForSong(ctx context.Context, songID int64) ([]*Clip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.file_path, c.file_name, c.date_created,
		       c.duration, c.mime_type, c.size, c.metadata
		FROM song_clip_rel r
		JOIN clips c ON c.id = r.clip_id
		WHERE r.song_id = ?
		ORDER BY c.date_created DESC, c.id DESC
	`, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips for song: %w", err)
	}
	defer rows.Close()

	return scanClips(rows)
}

// RelationCount returns the number of songs referencing a clip
func (s *Store) RelationCount(ctx context.Context, clipID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM song_clip_rel WHERE clip_id = ?
	`, clipID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count relations: %w", err)
	}
	return count, nil
}

// ListRelations retrieves every song/clip pair
func (s *Store) ListRelations(ctx context.Context) ([]*Relation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT song_id, clip_id FROM song_clip_rel ORDER BY song_id, clip_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	defer rows.Close()

	return scanRelations(rows)
}

func scanRelations(rows *sql.Rows) ([]*Relation, error) {
	var rels []*Relation
	for rows.Next() {
		rel := &Relation{}
		if err := rows.Scan(&rel.SongID, &rel.ClipID); err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}
