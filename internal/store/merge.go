package store

import (
	"context"
	"database/sql"
	"fmt"
)

// MergeSnapshot applies a pulled replica snapshot in one transaction.
// Songs and folders merge last-writer-wins by date_modified; clips are
// insert-only by id (their rows are immutable after creation apart from
// local title edits, which win); relations are unioned. Nothing is
// deleted: the replica offers no tombstones and local rows always
// survive a pull.
func (s *Store) MergeSnapshot(ctx context.Context, songs []*Song, folders []*Folder, clips []*Clip, rels []*Relation) error {
	return s.Transaction(func(tx *sql.Tx) error {
		for _, song := range songs {
			if err := mergeSong(ctx, tx, song); err != nil {
				return err
			}
		}
		for _, folder := range folders {
			if err := mergeFolder(ctx, tx, folder); err != nil {
				return err
			}
		}
		for _, clip := range clips {
			if err := mergeClip(ctx, tx, clip); err != nil {
				return err
			}
		}
		for _, rel := range rels {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO song_clip_rel (song_id, clip_id) VALUES (?, ?)
			`, rel.SongID, rel.ClipID); err != nil {
				return fmt.Errorf("failed to merge relation: %w", err)
			}
		}
		return nil
	})
}

func mergeSong(ctx context.Context, tx *sql.Tx, song *Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("invalid pulled song %d: %w", song.ID, err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO songs (id, title, content, folder_id, date_modified, key, bpm)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			folder_id = excluded.folder_id,
			date_modified = excluded.date_modified,
			key = excluded.key,
			bpm = excluded.bpm
		WHERE excluded.date_modified > songs.date_modified
	`, song.ID, song.Title, song.Content, song.FolderID, song.DateModified.UTC(), song.Key, song.Bpm)
	if err != nil {
		return fmt.Errorf("failed to merge song %d: %w", song.ID, err)
	}
	return nil
}

func mergeFolder(ctx context.Context, tx *sql.Tx, folder *Folder) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO folders (id, title, date_modified)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			date_modified = excluded.date_modified
		WHERE excluded.date_modified > folders.date_modified
	`, folder.ID, folder.Title, folder.DateModified.UTC())
	if err != nil {
		return fmt.Errorf("failed to merge folder %d: %w", folder.ID, err)
	}
	return nil
}

func mergeClip(ctx context.Context, tx *sql.Tx, clip *Clip) error {
	if err := clip.Validate(); err != nil {
		return fmt.Errorf("invalid pulled clip %d: %w", clip.ID, err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO clips (id, title, file_path, file_name, date_created, duration, mime_type, size, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, clip.ID, clip.Title, clip.FilePath, clip.FileName, clip.DateCreated.UTC(),
		clip.Duration, clip.MimeType, clip.Size, clip.Metadata)
	if err != nil {
		return fmt.Errorf("failed to merge clip %d: %w", clip.ID, err)
	}
	return nil
}
