package rebuild

import (
	"context"
)

// WorkingCopy identifies the local mirror of one source.
type WorkingCopy struct {
	// Name is the source name and composer identity.
	Name string

	// Path locates the working copy on the composer's filesystem.
	Path string
}

// Composer merges overlay content onto the base and writes the database and
// manifest into outputDir. Implementations must not leave a partially written
// database behind on failure.
type Composer interface {
	Compose(ctx context.Context, base WorkingCopy, overlays []WorkingCopy, outputDir string) error
}

// Publisher ships the artifacts of a successful rebuild somewhere else.
type Publisher interface {
	Publish(ctx context.Context, outputDir string) error
}
