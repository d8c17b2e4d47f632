// Package config loads the reposync source configuration.
//
// A configuration declares one base source and any number of overlay sources.
// Each source names the local working-copy directory and the remote URL it is
// mirrored from:
//
//	[base]
//	name = "core"
//	url = "https://example.com/core.git"
//
//	[[overlay]]
//	name = "extra"
//	url = "https://example.com/extra.git"
//
// TOML is the native format. Documents ending in .cue or .json are evaluated
// with CUE against a closed schema, so the same structure can be expressed as
// CUE or plain JSON:
//
//	base: {name: "core", url: "https://example.com/core.git"}
//	overlay: [{name: "extra", url: "https://example.com/extra.git"}]
//
// # Basic Usage
//
//	cfg, err := config.Load(ctx, billy.NewBaseOSFS(), "reposync.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, src := range cfg.Sources() {
//	    fmt.Println(src.Name, src.URL)
//	}
package config

import (
	"context"

	"github.com/input-output-hk/reposync/fs"
)

// Source is a remote repository mirrored into a local working copy.
// Name is both the working-copy directory and the composer identity.
type Source struct {
	Name string `toml:"name" json:"name"`
	URL  string `toml:"url"  json:"url"`
}

// Config is the set of sources a run synchronizes.
type Config struct {
	Base    Source   `toml:"base"    json:"base"`
	Overlay []Source `toml:"overlay" json:"overlay"`
}

// Sources returns the base followed by the overlays in configured order.
// This is the order every run synchronizes and composes in.
func (c *Config) Sources() []Source {
	sources := make([]Source, 0, 1+len(c.Overlay))
	sources = append(sources, c.Base)
	return append(sources, c.Overlay...)
}

// LoadOptions configures the behavior of configuration loading operations.
type LoadOptions struct {
	// SkipValidation disables the name and URL checks performed after decoding.
	// Structural errors (unknown keys, wrong types) are still reported.
	SkipValidation bool
}

// Load reads, decodes and validates the configuration at path.
func Load(ctx context.Context, filesystem fs.Filesystem, path string) (*Config, error) {
	return loadConfig(ctx, filesystem, path, LoadOptions{})
}

// LoadWithOptions loads a configuration with custom options.
func LoadWithOptions(ctx context.Context, filesystem fs.Filesystem, path string, opts LoadOptions) (*Config, error) {
	return loadConfig(ctx, filesystem, path, opts)
}
