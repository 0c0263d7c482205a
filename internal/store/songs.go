package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertSong inserts a song record and assigns its ID
func (s *Store) InsertSong(ctx context.Context, song *Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("invalid song: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO songs (title, content, folder_id, date_modified, key, bpm)
		VALUES (?, ?, ?, ?, ?, ?)
	`, song.Title, song.Content, song.FolderID, song.DateModified.UTC(), song.Key, song.Bpm)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get song ID: %w", err)
	}
	song.ID = id

	return nil
}

// GetSongByID retrieves a song by its ID, or nil if it does not exist
func (s *Store) GetSongByID(ctx context.Context, id int64) (*Song, error) {
	song := &Song{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, folder_id, date_modified, key, bpm
		FROM songs WHERE id = ?
	`, id).Scan(
		&song.ID, &song.Title, &song.Content, &song.FolderID,
		&song.DateModified, &song.Key, &song.Bpm,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}

	return song, nil
}

// UpdateSong writes the full song record. Returns false if no row has
// the song's ID.
func (s *Store) UpdateSong(ctx context.Context, song *Song) (bool, error) {
	if err := song.Validate(); err != nil {
		return false, fmt.Errorf("invalid song: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE songs SET title = ?, content = ?, folder_id = ?, date_modified = ?, key = ?, bpm = ?
		WHERE id = ?
	`, song.Title, song.Content, song.FolderID, song.DateModified.UTC(), song.Key, song.Bpm, song.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update song: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// DeleteSong removes a song row. Returns false if no row had the ID.
// Relation rows referencing the song are left behind and tolerated.
func (s *Store) DeleteSong(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete song: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// ListSongs retrieves all songs ordered by descending modification time,
// ties broken by insertion order (newest first)
func (s *Store) ListSongs(ctx context.Context) ([]*Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, folder_id, date_modified, key, bpm
		FROM songs
		ORDER BY date_modified DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*Song
	for rows.Next() {
		song := &Song{}
		err := rows.Scan(
			&song.ID, &song.Title, &song.Content, &song.FolderID,
			&song.DateModified, &song.Key, &song.Bpm,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}

	return songs, rows.Err()
}

// CountSongs returns the number of song rows
func (s *Store) CountSongs(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}
