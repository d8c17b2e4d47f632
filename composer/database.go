package composer

import (
	"context"
	"database/sql"
	"strconv"

	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE repo_info (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE album (
    album_id     TEXT PRIMARY KEY,
    source       TEXT NOT NULL,
    title        TEXT NOT NULL,
    artist       TEXT NOT NULL,
    edition      TEXT,
    catalog      TEXT,
    release_date TEXT,
    type         TEXT
);
CREATE TABLE track (
    album_id TEXT NOT NULL REFERENCES album(album_id),
    disc_id  INTEGER NOT NULL,
    track_id INTEGER NOT NULL,
    title    TEXT NOT NULL,
    artist   TEXT,
    type     TEXT,
    PRIMARY KEY (album_id, disc_id, track_id)
);
CREATE INDEX idx_track_album ON track(album_id);
`

// writeDatabase creates a fresh SQLite database at path holding info and
// albums. Disc and track ids are 1-based.
func writeDatabase(ctx context.Context, path string, info RepoInfo, lastModified int64, albums []entry) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); err == nil {
			err = closeErr
		}
	}()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, kv := range [][2]string{
		{"name", info.Name},
		{"edition", info.Edition},
		{"last_modified", strconv.FormatInt(lastModified, 10)},
	} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO repo_info (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return err
		}
	}

	for _, e := range albums {
		a := e.album
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO album (album_id, source, title, artist, edition, catalog, release_date, type)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, e.source, a.Title, a.Artist, a.Edition, a.Catalog, a.ReleaseDate, a.Type,
		); err != nil {
			return err
		}

		for d, disc := range a.Discs {
			for t, track := range disc.Tracks {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO track (album_id, disc_id, track_id, title, artist, type)
					 VALUES (?, ?, ?, ?, ?, ?)`,
					a.ID, d+1, t+1, track.Title, track.Artist, track.Type,
				); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}
