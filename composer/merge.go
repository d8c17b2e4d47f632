package composer

import (
	"fmt"
	"sort"
)

// ConflictError reports an album id defined in two places that cannot be
// reconciled: twice within one source, or by two different overlays.
type ConflictError struct {
	AlbumID string
	First   Location
	Second  Location
}

// Location is the source and file an album was read from.
type Location struct {
	Source string
	File   string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.First.Source == e.Second.Source {
		return fmt.Sprintf("album %q defined twice in %q (%s, %s)",
			e.AlbumID, e.First.Source, e.First.File, e.Second.File)
	}
	return fmt.Sprintf("conflicting overlay entries for album %q: %q (%s) and %q (%s)",
		e.AlbumID, e.First.Source, e.First.File, e.Second.Source, e.Second.File)
}

func conflict(id string, a, b entry) *ConflictError {
	return &ConflictError{
		AlbumID: id,
		First:   Location{Source: a.source, File: a.file},
		Second:  Location{Source: b.source, File: b.file},
	}
}

// index keys entries by album id, rejecting duplicates within the source.
func index(entries []entry) (map[string]entry, error) {
	out := make(map[string]entry, len(entries))
	for _, e := range entries {
		if prev, dup := out[e.album.ID]; dup {
			return nil, conflict(e.album.ID, prev, e)
		}
		out[e.album.ID] = e
	}
	return out, nil
}

// merge applies overlays onto base in order. An overlay entry replaces the
// base entry with the same id; two overlays defining one id conflict.
// The result is ordered by album id.
func merge(base []entry, overlays [][]entry) ([]entry, error) {
	merged, err := index(base)
	if err != nil {
		return nil, err
	}

	owners := make(map[string]entry)
	for _, overlay := range overlays {
		if _, err := index(overlay); err != nil {
			return nil, err
		}

		for _, e := range overlay {
			id := e.album.ID
			if prev, taken := owners[id]; taken {
				return nil, conflict(id, prev, e)
			}
			owners[id] = e
			merged[id] = e
		}
	}

	out := make([]entry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].album.ID < out[j].album.ID
	})
	return out, nil
}
