package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertFolder inserts a folder record and assigns its ID
func (s *Store) InsertFolder(ctx context.Context, folder *Folder) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO folders (title, date_modified)
		VALUES (?, ?)
	`, folder.Title, folder.DateModified.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert folder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get folder ID: %w", err)
	}
	folder.ID = id

	return nil
}

// GetFolderByID retrieves a folder by its ID, or nil if it does not exist
func (s *Store) GetFolderByID(ctx context.Context, id int64) (*Folder, error) {
	folder := &Folder{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, date_modified FROM folders WHERE id = ?
	`, id).Scan(&folder.ID, &folder.Title, &folder.DateModified)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	return folder, nil
}

// UpdateFolder writes the full folder record. Returns false if no row
// has the folder's ID.
func (s *Store) UpdateFolder(ctx context.Context, folder *Folder) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE folders SET title = ?, date_modified = ? WHERE id = ?
	`, folder.Title, folder.DateModified.UTC(), folder.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update folder: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// DeleteFolder removes a folder row. Returns false if no row had the ID.
// Songs referencing the folder keep their folder_id; a dangling reference
// reads as "no folder".
func (s *Store) DeleteFolder(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete folder: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

// ListFolders retrieves all folders ordered by descending modification
// time, ties broken by insertion order (newest first)
func (s *Store) ListFolders(ctx context.Context) ([]*Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, date_modified
		FROM folders
		ORDER BY date_modified DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var folders []*Folder
	for rows.Next() {
		folder := &Folder{}
		if err := rows.Scan(&folder.ID, &folder.Title, &folder.DateModified); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	return folders, rows.Err()
}

// CountFolders returns the number of folder rows
func (s *Store) CountFolders(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM folders").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count folders: %w", err)
	}
	return count, nil
}
