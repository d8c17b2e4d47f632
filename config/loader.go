package config

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"

	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs"
)

// schema closes the document structure for CUE and JSON inputs.
const schema = `
#Source: {
	name: string
	url:  string
}

#Config: {
	base: #Source
	overlay?: [...#Source]
}
`

// decoder turns raw document bytes into a Config.
type decoder func(path string, data []byte) (*Config, error)

// decoderFor picks a decoder by file extension; anything unrecognized is TOML.
func decoderFor(path string) decoder {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".json":
		return decodeCUE
	default:
		return decodeTOML
	}
}

func loadConfig(ctx context.Context, filesystem fs.Filesystem, path string, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeIO,
			"failed to read configuration",
			map[string]interface{}{
				"path": path,
			},
		)
	}

	cfg, err := decoderFor(path)(path, data)
	if err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeInvalidConfig,
			"failed to decode configuration",
			map[string]interface{}{
				"path": path,
			},
		)
	}

	if opts.SkipValidation {
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decodeTOML(_ string, data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, errors.Newf(errors.CodeInvalidConfig, "unknown option(s): %s", strings.Join(keys, ", "))
	}

	if !md.IsDefined("base") {
		return nil, errors.New(errors.CodeInvalidConfig, "missing required table \"base\"")
	}

	return &cfg, nil
}

func decodeCUE(path string, data []byte) (*Config, error) {
	cctx := cuecontext.New()

	def := cctx.CompileString(schema).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "invalid configuration schema")
	}

	doc := cctx.CompileBytes(data, cue.Filename(path))
	if err := doc.Err(); err != nil {
		return nil, err
	}

	value := def.Unify(doc)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, err
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
