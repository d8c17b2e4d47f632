package composer

import (
	"encoding/json"
)

// Manifest is the content of repo.json.
type Manifest struct {
	Name         string           `json:"name"`
	Edition      string           `json:"edition"`
	LastModified int64            `json:"last_modified"`
	Sources      []SourceRevision `json:"sources"`
	Albums       int              `json:"albums"`
}

// SourceRevision records which commit of a source the database was built
// from. Revision is empty when the working copy is not a git repository.
type SourceRevision struct {
	Name     string `json:"name"`
	Revision string `json:"revision"`
}

func (m *Manifest) encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
