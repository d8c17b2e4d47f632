// Command reposync keeps local mirrors of a base metadata repository and its
// overlays up to date and rebuilds repo.db and repo.json when any of them
// changed or an artifact is missing.
//
// Usage:
//
//	reposync -c reposync.toml [--workdir DIR] [--transport cli|native] OUTPUT_DIR
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/input-output-hk/reposync/composer"
	"github.com/input-output-hk/reposync/config"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs"
	"github.com/input-output-hk/reposync/fs/billy"
	"github.com/input-output-hk/reposync/git/auth"
	"github.com/input-output-hk/reposync/mirror"
	"github.com/input-output-hk/reposync/publish"
	"github.com/input-output-hk/reposync/rebuild"
	"github.com/input-output-hk/reposync/transport"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const dotEnvFile = ".env"

func main() {
	loadDotEnv(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// loadDotEnv populates the environment from .env when one is present.
// Variables already set take precedence.
func loadDotEnv(stderr io.Writer) {
	present, err := fs.Exists(dotEnvFile)
	if err != nil || !present {
		return
	}
	if err := godotenv.Load(dotEnvFile); err != nil {
		fmt.Fprintf(stderr, "reposync: ignoring %s: %v\n", dotEnvFile, err)
	}
}

// run parses args and performs one synchronization run, returning the
// process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "reposync"

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if stderrors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(stdout)
			return exitOK
		}
		fmt.Fprintf(stderr, "reposync: %v\n\n", err)
		parser.WriteHelp(stderr)
		return exitUsage
	}

	logger := newLogger(stderr, opts.LogLevel, opts.LogFormat)

	if err := execute(ctx, &opts, logger); err != nil {
		logger.ErrorContext(ctx, "reposync failed", "code", errors.GetCode(err), "error", err)
		fmt.Fprintf(stderr, "reposync: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func execute(ctx context.Context, opts *options, logger *slog.Logger) error {
	native := billy.NewBaseOSFS()

	workdir, err := fs.GetAbs(opts.Workdir)
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to resolve working directory")
	}
	if err := native.MkdirAll(workdir, 0o755); err != nil {
		return errors.WrapWithContext(err, errors.CodeIO, "failed to create working directory",
			map[string]interface{}{"path": workdir})
	}

	outputDir, err := fs.GetAbs(opts.Args.OutputDir)
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to resolve output directory")
	}

	cfg, err := config.Load(ctx, native, opts.Config)
	if err != nil {
		return err
	}

	mirrors := billy.NewOSFS(workdir)
	tr, err := newTransport(opts, cfg, mirrors, workdir, logger)
	if err != nil {
		return err
	}

	pipelineOpts := []rebuild.PipelineOption{
		rebuild.WithLogger(logger),
		rebuild.WithFilesystem(native),
		rebuild.WithWorkRoot(workdir),
	}
	if opts.Publish.enabled() {
		store, err := publish.New(publish.Config{
			Endpoint:  opts.Publish.Endpoint,
			Region:    opts.Publish.Region,
			AccessKey: opts.Publish.AccessKey,
			SecretKey: opts.Publish.SecretKey,
			Bucket:    opts.Publish.Bucket,
			Prefix:    opts.Publish.Prefix,
			UseSSL:    opts.Publish.UseSSL,
		}, publish.WithLogger(logger), publish.WithFilesystem(native))
		if err != nil {
			return err
		}
		pipelineOpts = append(pipelineOpts, rebuild.WithPublisher(store))
	}

	pipeline := rebuild.NewPipeline(
		mirror.New(mirrors, tr, mirror.WithLogger(logger)),
		composer.New(native, composer.WithLogger(logger)),
		outputDir,
		pipelineOpts...,
	)

	report, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "run complete",
		"sources", len(report.Results),
		"changed", report.Aggregate,
		"rebuilt", report.Rebuilt,
		"reason", report.Decision.Reason,
		"published", report.Published,
	)
	return nil
}

func newTransport(opts *options, cfg *config.Config, mirrors fs.Filesystem, workdir string, logger *slog.Logger) (mirror.Transport, error) {
	common := []transport.Option{transport.WithLogger(logger)}

	switch opts.transportKind() {
	case transport.KindCLI:
		return transport.NewCLI(workdir, append(common, transport.WithProgram(opts.Git))...), nil
	case transport.KindNative:
		if creds := credentials(opts, cfg); creds != nil {
			common = append(common, transport.WithAuth(creds))
		}
		return transport.NewNative(mirrors, append(common, transport.WithDepth(opts.Depth))...), nil
	default:
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown transport %q", opts.Transport)
	}
}

// credentials scopes the configured token to the HTTPS hosts of cfg's
// sources. It returns nil when no token is set or no source is on HTTPS.
func credentials(opts *options, cfg *config.Config) *auth.Credentials {
	if opts.GitToken == "" {
		return nil
	}

	var urls []string
	for _, s := range cfg.Sources() {
		urls = append(urls, s.URL)
	}
	hosts := auth.HostsOf(urls...)
	if len(hosts) == 0 {
		return nil
	}
	return auth.NewCredentials(opts.GitUser, opts.GitToken).ForHosts(hosts...)
}
