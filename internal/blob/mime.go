package blob

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// mimeByExt maps audio extensions to mime types for files whose headers
// cannot be identified
var mimeByExt = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".aiff": "audio/aiff",
	".aif":  "audio/aiff",
}

// mimeByFileType maps dhowden/tag file types to mime types
var mimeByFileType = map[tag.FileType]string{
	tag.MP3:  "audio/mpeg",
	tag.M4A:  "audio/mp4",
	tag.M4B:  "audio/mp4",
	tag.M4P:  "audio/mp4",
	tag.ALAC: "audio/mp4",
	tag.FLAC: "audio/flac",
	tag.OGG:  "audio/ogg",
	tag.DSF:  "audio/dsf",
}

// SniffMime determines the mime type of an audio file, preferring the
// file header over the extension
func SniffMime(path string) string {
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if _, fileType, err := tag.Identify(f); err == nil {
			if mime, ok := mimeByFileType[fileType]; ok {
				return mime
			}
		}
	}

	if mime, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}

	return "application/octet-stream"
}
