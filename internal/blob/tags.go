package blob

import (
	"encoding/json"
	"os"

	"github.com/dhowden/tag"
)

// Tags holds the embedded tags of an imported audio file. Captured
// recordings have none; imports from elsewhere often do.
type Tags struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Year   int    `json:"year,omitempty"`
}

// Empty reports whether no tag was found at all
func (t *Tags) Empty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" && t.Genre == "" && t.Year == 0
}

// JSON renders the tags as a metadata payload, or "" when empty
func (t *Tags) JSON() string {
	if t.Empty() {
		return ""
	}
	data, err := json.Marshal(t)
	if err != nil {
		return ""
	}
	return string(data)
}

// ReadTags extracts the embedded tags from an audio file. Files without
// readable tags yield an empty Tags, not an error.
func ReadTags(path string) *Tags {
	tags := &Tags{}

	f, err := os.Open(path)
	if err != nil {
		return tags
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return tags
	}

	tags.Title = m.Title()
	tags.Artist = m.Artist()
	tags.Album = m.Album()
	tags.Genre = m.Genre()
	tags.Year = m.Year()
	return tags
}
