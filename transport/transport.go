// Package transport provides the two ways reposync obtains and updates a
// working copy: the git command-line client and an in-process go-git client.
//
// Both satisfy the same two-operation capability: Materialize creates a
// working copy at a path from a URL, and Update applies upstream changes with
// fast-forward-only semantics, reporting whether new content arrived.
package transport

import (
	"io"
	"log/slog"

	"github.com/input-output-hk/reposync/git"
)

// Kind names a transport implementation.
type Kind string

const (
	// KindCLI shells out to the git binary.
	KindCLI Kind = "cli"

	// KindNative runs go-git in process.
	KindNative Kind = "native"
)

// options holds settings shared by both transports.
type options struct {
	logger  *slog.Logger
	program string
	auth    git.AuthProvider
	depth   int
}

// Option configures a transport.
type Option func(*options)

// WithLogger sets the logger used for per-operation debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProgram overrides the git executable used by the CLI transport.
func WithProgram(program string) Option {
	return func(o *options) {
		o.program = program
	}
}

// WithAuth sets the credential provider used by the native transport.
func WithAuth(auth git.AuthProvider) Option {
	return func(o *options) {
		o.auth = auth
	}
}

// WithDepth requests shallow clones of the given depth from the native
// transport. Zero clones full history.
func WithDepth(depth int) Option {
	return func(o *options) {
		o.depth = depth
	}
}

func newOptions(opts []Option) *options {
	o := &options{program: "git"}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
