package composer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs"
)

const (
	// repoFile holds repository-level metadata.
	repoFile = "repo.toml"

	// albumDir holds one TOML document per album.
	albumDir = "album"
)

// RepoInfo is the [repo] table of repo.toml.
type RepoInfo struct {
	Name    string `toml:"name"`
	Edition string `toml:"edition"`
}

// Album is one album document.
type Album struct {
	ID          string `toml:"album_id"`
	Title       string `toml:"title"`
	Artist      string `toml:"artist"`
	Edition     string `toml:"edition"`
	Catalog     string `toml:"catalog"`
	ReleaseDate string `toml:"release_date"`
	Type        string `toml:"type"`
	Discs       []Disc `toml:"-"`
}

// Disc is one disc of an album.
type Disc struct {
	Catalog string  `toml:"catalog"`
	Tracks  []Track `toml:"tracks"`
}

// Track is one track of a disc. Empty Artist and Type inherit from the album.
type Track struct {
	Title  string `toml:"title"`
	Artist string `toml:"artist"`
	Type   string `toml:"type"`
}

// albumDocument is the on-disk layout: album metadata in [album] and discs
// as a top-level array of tables.
type albumDocument struct {
	Album Album  `toml:"album"`
	Discs []Disc `toml:"discs"`
}

// entry is an album together with where it was defined.
type entry struct {
	album  Album
	source string
	file   string
}

// readRepoInfo reads repo.toml from a working copy. A missing file yields
// the zero RepoInfo.
func readRepoInfo(fsys fs.Filesystem, root string) (RepoInfo, error) {
	path := filepath.Join(root, repoFile)

	exists, err := fsys.Exists(path)
	if err != nil || !exists {
		return RepoInfo{}, err
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return RepoInfo{}, err
	}

	var doc struct {
		Repo RepoInfo `toml:"repo"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return RepoInfo{}, errors.WrapWithContext(err, errors.CodeInvalidInput, "malformed repository metadata",
			map[string]interface{}{"file": path})
	}
	return doc.Repo, nil
}

// readAlbums parses every album document under the working copy's album
// directory, ordered by path.
func readAlbums(fsys fs.Filesystem, source, root string) ([]entry, error) {
	dir := filepath.Join(root, albumDir)

	exists, err := fsys.Exists(dir)
	if err != nil || !exists {
		return nil, err
	}

	var files []string
	err = fsys.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".toml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	entries := make([]entry, 0, len(files))
	for _, file := range files {
		album, err := parseAlbum(fsys, file)
		if err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeInvalidInput, "malformed album document",
				map[string]interface{}{"source": source, "file": file})
		}
		entries = append(entries, entry{album: album, source: source, file: file})
	}

	return entries, nil
}

func parseAlbum(fsys fs.Filesystem, path string) (Album, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return Album{}, err
	}

	var doc albumDocument
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return Album{}, err
	}

	if strings.TrimSpace(doc.Album.ID) == "" {
		return Album{}, errors.New(errors.CodeInvalidInput, "missing album.album_id")
	}

	album := doc.Album
	album.Discs = doc.Discs
	for d := range album.Discs {
		for t := range album.Discs[d].Tracks {
			track := &album.Discs[d].Tracks[t]
			if track.Artist == "" {
				track.Artist = album.Artist
			}
			if track.Type == "" {
				track.Type = album.Type
			}
		}
	}

	return album, nil
}
