package store

// Schema v1 - Initial database schema
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Songs; folder_id may dangle after a folder is deleted and is then
-- treated as "no folder"
CREATE TABLE IF NOT EXISTS songs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT,
  content TEXT,
  folder_id INTEGER,
  date_modified DATETIME NOT NULL,
  key TEXT,
  bpm INTEGER
);

CREATE INDEX IF NOT EXISTS idx_songs_date_modified ON songs(date_modified);
CREATE INDEX IF NOT EXISTS idx_songs_folder_id ON songs(folder_id);

CREATE TABLE IF NOT EXISTS folders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT,
  date_modified DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_folders_date_modified ON folders(date_modified);

-- Audio clips; a clip row and its file under the managed directory are
-- created and deleted together
CREATE TABLE IF NOT EXISTS clips (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT,
  file_path TEXT NOT NULL,
  file_name TEXT NOT NULL,
  date_created DATETIME NOT NULL,
  duration INTEGER NOT NULL DEFAULT 0,
  mime_type TEXT NOT NULL DEFAULT '',
  size INTEGER NOT NULL DEFAULT 0,
  metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_clips_date_created ON clips(date_created);

-- Song/clip relation; cascade on clip delete is handled by the store,
-- never by the schema
CREATE TABLE IF NOT EXISTS song_clip_rel (
  song_id INTEGER NOT NULL,
  clip_id INTEGER NOT NULL,
  PRIMARY KEY (song_id, clip_id)
);

CREATE INDEX IF NOT EXISTS idx_song_clip_rel_clip_id ON song_clip_rel(clip_id);
`
