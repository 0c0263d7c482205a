package store

import (
	"fmt"
	"time"
)

// MusicalKeys are the twelve keys a song may be tagged with
var MusicalKeys = []string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// ValidKey reports whether key is one of the twelve musical keys
func ValidKey(key string) bool {
	for _, k := range MusicalKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Song represents a song note. Nil pointer fields are absent values.
type Song struct {
	ID           int64
	Title        *string
	Content      *string
	FolderID     *int64
	DateModified time.Time
	Key          *string
	Bpm          *int
}

// Validate checks field constraints before the song reaches the database
func (s *Song) Validate() error {
	if s.Key != nil && !ValidKey(*s.Key) {
		return fmt.Errorf("invalid musical key %q", *s.Key)
	}
	if s.Bpm != nil && (*s.Bpm < 0 || *s.Bpm > 999) {
		return fmt.Errorf("bpm %d out of range 0-999", *s.Bpm)
	}
	return nil
}

// Folder groups songs
type Folder struct {
	ID           int64
	Title        *string
	DateModified time.Time
}

// Clip represents a recorded audio clip. FilePath points into the managed
// clips directory; while the row exists the file must exist with the same
// size.
type Clip struct {
	ID          int64
	Title       *string
	FilePath    string
	FileName    string
	DateCreated time.Time
	Duration    int // seconds
	MimeType    string
	Size        int64
	Metadata    *string
}

// Validate checks field constraints before the clip reaches the database
func (c *Clip) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("clip file_path cannot be empty")
	}
	if c.FileName == "" {
		return fmt.Errorf("clip file_name cannot be empty")
	}
	if c.Size < 0 {
		return fmt.Errorf("clip size %d cannot be negative", c.Size)
	}
	if c.Duration < 0 {
		return fmt.Errorf("clip duration %d cannot be negative", c.Duration)
	}
	return nil
}

// Relation is one song/clip association
type Relation struct {
	SongID int64
	ClipID int64
}
