package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/input-output-hk/reposync/transport"
)

// options are the command-line flags. Every flag can also be set from the
// environment, which a .env file in the working directory may populate.
type options struct {
	Config    string `short:"c" long:"config" env:"REPOSYNC_CONFIG" required:"true" description:"configuration file (.toml, .cue or .json)"`
	Workdir   string `long:"workdir" env:"REPOSYNC_WORKDIR" default:"." description:"directory holding one working copy per source"`
	Transport string `long:"transport" env:"REPOSYNC_TRANSPORT" default:"cli" choice:"cli" choice:"native" description:"how working copies are cloned and updated"`
	Git       string `long:"git" env:"REPOSYNC_GIT" default:"git" description:"git executable used by the cli transport"`
	Depth     int    `long:"depth" env:"REPOSYNC_DEPTH" default:"0" description:"shallow clone depth for the native transport (0 clones full history)"`
	GitUser   string `long:"git-username" env:"REPOSYNC_GIT_USERNAME" description:"username sent with --git-token (default: token auth)"`
	GitToken  string `long:"git-token" env:"REPOSYNC_GIT_TOKEN" description:"password or token for the HTTPS hosts of the configured sources, native transport only"`
	LogLevel  string `long:"log-level" env:"REPOSYNC_LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`
	LogFormat string `long:"log-format" env:"REPOSYNC_LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"log format"`

	Publish publishOptions `group:"Publish Options"`

	Args struct {
		OutputDir string `positional-arg-name:"output-dir" description:"directory receiving repo.db and repo.json"`
	} `positional-args:"yes" required:"yes"`
}

type publishOptions struct {
	Bucket    string `long:"publish-bucket" env:"REPOSYNC_S3_BUCKET" description:"upload artifacts to this bucket after a rebuild"`
	Prefix    string `long:"publish-prefix" env:"REPOSYNC_S3_PREFIX" description:"object key prefix"`
	Endpoint  string `long:"s3-endpoint" env:"REPOSYNC_S3_ENDPOINT" description:"S3-compatible endpoint (host:port)"`
	Region    string `long:"s3-region" env:"REPOSYNC_S3_REGION" description:"bucket region"`
	AccessKey string `long:"s3-access-key" env:"REPOSYNC_S3_ACCESS_KEY" description:"access key"`
	SecretKey string `long:"s3-secret-key" env:"REPOSYNC_S3_SECRET_KEY" description:"secret key"`
	UseSSL    bool   `long:"s3-use-ssl" env:"REPOSYNC_S3_USE_SSL" description:"connect to the endpoint over TLS"`
}

func (o *options) transportKind() transport.Kind {
	return transport.Kind(o.Transport)
}

func (o *publishOptions) enabled() bool {
	return strings.TrimSpace(o.Bucket) != ""
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
