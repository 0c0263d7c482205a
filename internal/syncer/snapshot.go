package syncer

import (
	"time"

	"github.com/franz/songbook/internal/store"
)

// snapshot is the wire form of the entity tables. Timestamps travel as
// RFC 3339 strings; the replica schema mirrors the local one.
type snapshot struct {
	Songs     []songJSON     `json:"songs"`
	Folders   []folderJSON   `json:"folders"`
	Clips     []clipJSON     `json:"clips"`
	Relations []relationJSON `json:"relations"`
}

type songJSON struct {
	ID           int64   `json:"id"`
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	FolderID     *int64  `json:"folder_id"`
	DateModified string  `json:"date_modified"`
	Key          *string `json:"key"`
	Bpm          *int    `json:"bpm"`
}

type folderJSON struct {
	ID           int64   `json:"id"`
	Title        *string `json:"title"`
	DateModified string  `json:"date_modified"`
}

type clipJSON struct {
	ID          int64   `json:"id"`
	Title       *string `json:"title"`
	FilePath    string  `json:"file_path"`
	FileName    string  `json:"file_name"`
	DateCreated string  `json:"date_created"`
	Duration    int     `json:"duration"`
	MimeType    string  `json:"mime_type"`
	Size        int64   `json:"size"`
	Metadata    *string `json:"metadata"`
}

type relationJSON struct {
	SongID int64 `json:"song_id"`
	ClipID int64 `json:"clip_id"`
}

func newSnapshot(songs []*store.Song, folders []*store.Folder, clips []*store.Clip, rels []*store.Relation) *snapshot {
	snap := &snapshot{
		Songs:     make([]songJSON, 0, len(songs)),
		Folders:   make([]folderJSON, 0, len(folders)),
		Clips:     make([]clipJSON, 0, len(clips)),
		Relations: make([]relationJSON, 0, len(rels)),
	}

	for _, s := range songs {
		snap.Songs = append(snap.Songs, songJSON{
			ID:           s.ID,
			Title:        s.Title,
			Content:      s.Content,
			FolderID:     s.FolderID,
			DateModified: s.DateModified.UTC().Format(time.RFC3339Nano),
			Key:          s.Key,
			Bpm:          s.Bpm,
		})
	}
	for _, f := range folders {
		snap.Folders = append(snap.Folders, folderJSON{
			ID:           f.ID,
			Title:        f.Title,
			DateModified: f.DateModified.UTC().Format(time.RFC3339Nano),
		})
	}
	for _, c := range clips {
		snap.Clips = append(snap.Clips, clipJSON{
			ID:          c.ID,
			Title:       c.Title,
			FilePath:    c.FilePath,
			FileName:    c.FileName,
			DateCreated: c.DateCreated.UTC().Format(time.RFC3339Nano),
			Duration:    c.Duration,
			MimeType:    c.MimeType,
			Size:        c.Size,
			Metadata:    c.Metadata,
		})
	}
	for _, r := range rels {
		snap.Relations = append(snap.Relations, relationJSON{SongID: r.SongID, ClipID: r.ClipID})
	}

	return snap
}

// toRecords converts the wire snapshot back into store records. Rows
// with unparseable timestamps are dropped rather than poisoning the
// merge.
func (s *snapshot) toRecords() ([]*store.Song, []*store.Folder, []*store.Clip, []*store.Relation) {
	var songs []*store.Song
	for _, j := range s.Songs {
		t, err := time.Parse(time.RFC3339Nano, j.DateModified)
		if err != nil {
			continue
		}
		songs = append(songs, &store.Song{
			ID:           j.ID,
			Title:        j.Title,
			Content:      j.Content,
			FolderID:     j.FolderID,
			DateModified: t,
			Key:          j.Key,
			Bpm:          j.Bpm,
		})
	}

	var folders []*store.Folder
	for _, j := range s.Folders {
		t, err := time.Parse(time.RFC3339Nano, j.DateModified)
		if err != nil {
			continue
		}
		folders = append(folders, &store.Folder{ID: j.ID, Title: j.Title, DateModified: t})
	}

	var clips []*store.Clip
	for _, j := range s.Clips {
		t, err := time.Parse(time.RFC3339Nano, j.DateCreated)
		if err != nil {
			continue
		}
		clips = append(clips, &store.Clip{
			ID:          j.ID,
			Title:       j.Title,
			FilePath:    j.FilePath,
			FileName:    j.FileName,
			DateCreated: t,
			Duration:    j.Duration,
			MimeType:    j.MimeType,
			Size:        j.Size,
			Metadata:    j.Metadata,
		})
	}

	var rels []*store.Relation
	for _, j := range s.Relations {
		rels = append(rels, &store.Relation{SongID: j.SongID, ClipID: j.ClipID})
	}

	return songs, folders, clips, rels
}
