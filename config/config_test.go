package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs/billy"
)

func writeConfig(t *testing.T, path, content string) *billy.FS {
	t.Helper()

	memFS := billy.NewInMemoryFS()
	require.NoError(t, memFS.WriteFile(path, []byte(content), 0o644))
	return memFS
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		content  string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "toml with overlays",
			path: "reposync.toml",
			content: `
[base]
name = "core"
url = "https://example.com/core.git"

[[overlay]]
name = "extra"
url = "https://example.com/extra.git"

[[overlay]]
name = "local"
url = "/srv/git/local"
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Source{Name: "core", URL: "https://example.com/core.git"}, cfg.Base)
				require.Len(t, cfg.Overlay, 2)
				assert.Equal(t, "extra", cfg.Overlay[0].Name)
				assert.Equal(t, "/srv/git/local", cfg.Overlay[1].URL)
			},
		},
		{
			name: "toml without overlays",
			path: "reposync.toml",
			content: `
[base]
name = "core"
url = "https://example.com/core.git"
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Empty(t, cfg.Overlay)
				assert.Equal(t, []Source{cfg.Base}, cfg.Sources())
			},
		},
		{
			name:    "unknown extension decodes as toml",
			path:    "config",
			content: "[base]\nname = \"core\"\nurl = \"u\"\n",
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "core", cfg.Base.Name)
			},
		},
		{
			name: "cue",
			path: "reposync.cue",
			content: `
base: {name: "core", url: "https://example.com/core.git"}
overlay: [
	{name: "extra", url: "https://example.com/extra.git"},
]
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "core", cfg.Base.Name)
				require.Len(t, cfg.Overlay, 1)
				assert.Equal(t, "https://example.com/extra.git", cfg.Overlay[0].URL)
			},
		},
		{
			name:    "json",
			path:    "reposync.json",
			content: `{"base": {"name": "core", "url": "u1"}, "overlay": [{"name": "a", "url": "u2"}]}`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []Source{
					{Name: "core", URL: "u1"},
					{Name: "a", URL: "u2"},
				}, cfg.Sources())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memFS := writeConfig(t, tt.path, tt.content)

			cfg, err := Load(context.Background(), memFS, tt.path)
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		content  string
		wantCode errors.ErrorCode
		contains string
	}{
		{
			name:     "malformed toml",
			path:     "reposync.toml",
			content:  "[base\nname = ",
			wantCode: errors.CodeInvalidConfig,
		},
		{
			name:     "unknown toml option",
			path:     "reposync.toml",
			content:  "[base]\nname = \"core\"\nurl = \"u\"\nbranch = \"main\"\n",
			wantCode: errors.CodeInvalidConfig,
			contains: "base.branch",
		},
		{
			name:     "missing base",
			path:     "reposync.toml",
			content:  "[[overlay]]\nname = \"extra\"\nurl = \"u\"\n",
			wantCode: errors.CodeInvalidConfig,
			contains: "base",
		},
		{
			name:     "missing url",
			path:     "reposync.toml",
			content:  "[base]\nname = \"core\"\n",
			wantCode: errors.CodeInvalidConfig,
			contains: "base.url",
		},
		{
			name:     "duplicate names",
			path:     "reposync.toml",
			content:  "[base]\nname = \"core\"\nurl = \"u1\"\n[[overlay]]\nname = \"core\"\nurl = \"u2\"\n",
			wantCode: errors.CodeInvalidConfig,
			contains: "already used by base",
		},
		{
			name:     "name with separator",
			path:     "reposync.toml",
			content:  "[base]\nname = \"../core\"\nurl = \"u\"\n",
			wantCode: errors.CodeInvalidConfig,
			contains: "path separators",
		},
		{
			name:     "cue unknown field",
			path:     "reposync.cue",
			content:  `base: {name: "core", url: "u", branch: "main"}`,
			wantCode: errors.CodeInvalidConfig,
		},
		{
			name:     "cue missing url",
			path:     "reposync.cue",
			content:  `base: {name: "core"}`,
			wantCode: errors.CodeInvalidConfig,
		},
		{
			name:     "json wrong type",
			path:     "reposync.json",
			content:  `{"base": {"name": 1, "url": "u"}}`,
			wantCode: errors.CodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memFS := writeConfig(t, tt.path, tt.content)

			cfg, err := Load(context.Background(), memFS, tt.path)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), billy.NewInMemoryFS(), "missing.toml")
	require.Error(t, err)
	assert.Equal(t, errors.CodeIO, errors.GetCode(err))
	assert.Contains(t, err.Error(), "path=missing.toml")
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, writeConfig(t, "c.toml", "[base]\nname=\"a\"\nurl=\"u\"\n"), "c.toml")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadWithOptions_SkipValidation(t *testing.T) {
	memFS := writeConfig(t, "reposync.toml", "[base]\nname = \"core\"\nurl = \"u1\"\n[[overlay]]\nname = \"core\"\nurl = \"u2\"\n")

	cfg, err := LoadWithOptions(context.Background(), memFS, "reposync.toml", LoadOptions{SkipValidation: true})
	require.NoError(t, err)
	assert.Len(t, cfg.Sources(), 2)

	assert.Error(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg: Config{
				Base:    Source{Name: "core", URL: "u"},
				Overlay: []Source{{Name: "extra", URL: "u2"}},
			},
		},
		{
			name:    "empty base name",
			cfg:     Config{Base: Source{URL: "u"}},
			wantErr: true,
		},
		{
			name:    "dot name",
			cfg:     Config{Base: Source{Name: ".", URL: "u"}},
			wantErr: true,
		},
		{
			name: "overlays collide",
			cfg: Config{
				Base:    Source{Name: "core", URL: "u"},
				Overlay: []Source{{Name: "x", URL: "u2"}, {Name: "x", URL: "u3"}},
			},
			wantErr: true,
		},
		{
			name: "blank overlay url",
			cfg: Config{
				Base:    Source{Name: "core", URL: "u"},
				Overlay: []Source{{Name: "x", URL: "  "}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))
		})
	}
}

func TestSources_Order(t *testing.T) {
	cfg := Config{
		Base:    Source{Name: "base"},
		Overlay: []Source{{Name: "o1"}, {Name: "o2"}, {Name: "o3"}},
	}

	var names []string
	for _, s := range cfg.Sources() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"base", "o1", "o2", "o3"}, names)
}
