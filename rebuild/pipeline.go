package rebuild

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/input-output-hk/reposync/config"
	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs"
	"github.com/input-output-hk/reposync/fs/billy"
	"github.com/input-output-hk/reposync/mirror"
)

// State is a step of a single run.
type State string

const (
	StateIdle          State = "idle"
	StateSynchronizing State = "synchronizing"
	StateAggregating   State = "aggregating"
	StateSkip          State = "skip"
	StateRebuilding    State = "rebuilding"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Synchronizer brings every configured source up to date and folds the
// outcomes. *mirror.Synchronizer implements it.
type Synchronizer interface {
	SyncAll(ctx context.Context, sources []config.Source) ([]mirror.Result, bool, error)
}

// Report describes what a run did. It is returned on failure as well, with
// State set to StateFailed and the fields reached so far filled in.
type Report struct {
	State       State
	Transitions []State
	Results     []mirror.Result
	Aggregate   bool
	Decision    Decision
	Rebuilt     bool
	Published   bool
}

func (r *Report) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
}

// Pipeline runs synchronization, the rebuild trigger and the composer in
// sequence. Runs keep no state between invocations; re-running is the
// recovery path after a failure. A run that fails after pulling new content,
// or after starting a rebuild, removes repo.json so the next run rebuilds
// and republishes.
type Pipeline struct {
	sync      Synchronizer
	composer  Composer
	publisher Publisher
	outputDir string
	workRoot  string
	fs        fs.Filesystem
	logger    *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger for run progress.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithFilesystem sets the filesystem the output directory is checked and
// created on. Defaults to the native filesystem.
func WithFilesystem(fsys fs.Filesystem) PipelineOption {
	return func(p *Pipeline) {
		p.fs = fsys
	}
}

// WithWorkRoot sets the directory working copies live under, used to build
// the paths handed to the composer.
func WithWorkRoot(root string) PipelineOption {
	return func(p *Pipeline) {
		p.workRoot = root
	}
}

// WithPublisher sets a publisher invoked after each successful rebuild.
func WithPublisher(publisher Publisher) PipelineOption {
	return func(p *Pipeline) {
		p.publisher = publisher
	}
}

// NewPipeline returns a pipeline writing its artifacts to outputDir.
func NewPipeline(sync Synchronizer, composer Composer, outputDir string, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		sync:      sync,
		composer:  composer,
		outputDir: outputDir,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fs == nil {
		p.fs = billy.NewBaseOSFS()
	}
	return p
}

// Run performs one synchronization run for cfg.
func (p *Pipeline) Run(ctx context.Context, cfg *config.Config) (*Report, error) {
	report := &Report{}
	report.enter(StateIdle)

	report.enter(StateSynchronizing)
	results, aggregate, err := p.sync.SyncAll(ctx, cfg.Sources())
	report.Results = results
	if err != nil {
		return p.fail(ctx, report, err)
	}

	report.enter(StateAggregating)
	report.Aggregate = aggregate

	decision, err := Decide(p.fs, aggregate, p.outputDir)
	if err != nil {
		return p.fail(ctx, report, err)
	}
	report.Decision = decision

	if !decision.Rebuild {
		report.enter(StateSkip)
		if p.logger != nil {
			p.logger.InfoContext(ctx, "output is current, skipping rebuild", "output", p.outputDir)
		}
		report.enter(StateDone)
		return report, nil
	}

	report.enter(StateRebuilding)
	if p.logger != nil {
		p.logger.InfoContext(ctx, "rebuilding",
			"reason", string(decision.Reason),
			"output", p.outputDir,
		)
	}

	if err := p.fs.MkdirAll(p.outputDir, 0o755); err != nil {
		return p.fail(ctx, report, errors.WrapWithContext(
			err,
			errors.CodeIO,
			"failed to create output directory",
			map[string]interface{}{
				"path": p.outputDir,
			},
		))
	}

	if err := p.invalidate(); err != nil {
		return p.fail(ctx, report, err)
	}

	base, overlays := p.workingCopies(cfg)
	if err := p.composer.Compose(ctx, base, overlays, p.outputDir); err != nil {
		return p.fail(ctx, report, errors.Wrap(err, errors.CodeComposeFailed, "composition failed"))
	}
	report.Rebuilt = true

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, p.outputDir); err != nil {
			return p.fail(ctx, report, errors.Wrap(err, errors.CodePublishFailed, "publishing failed"))
		}
		report.Published = true
	}

	report.enter(StateDone)
	if p.logger != nil {
		p.logger.InfoContext(ctx, "rebuild complete",
			"output", p.outputDir,
			"published", report.Published,
		)
	}
	return report, nil
}

// workingCopies lists the composer inputs, base first then overlays in
// configured order.
func (p *Pipeline) workingCopies(cfg *config.Config) (WorkingCopy, []WorkingCopy) {
	wc := func(s config.Source) WorkingCopy {
		return WorkingCopy{Name: s.Name, Path: filepath.Join(p.workRoot, s.Name)}
	}

	overlays := make([]WorkingCopy, 0, len(cfg.Overlay))
	for _, o := range cfg.Overlay {
		overlays = append(overlays, wc(o))
	}
	return wc(cfg.Base), overlays
}

func (p *Pipeline) fail(ctx context.Context, report *Report, err error) (*Report, error) {
	if report.pending() {
		if invErr := p.invalidate(); invErr != nil && p.logger != nil {
			p.logger.WarnContext(ctx, "failed to invalidate manifest",
				"output", p.outputDir,
				"error", invErr,
			)
		}
	}

	report.enter(StateFailed)
	if p.logger != nil {
		p.logger.ErrorContext(ctx, "run failed",
			"code", string(errors.GetCode(err)),
			"error", err,
		)
	}
	return report, err
}

// pending reports whether the run pulled content or started a rebuild that
// the outputs on disk may not reflect.
func (r *Report) pending() bool {
	for _, s := range r.Transitions {
		if s == StateRebuilding {
			return true
		}
	}
	for _, res := range r.Results {
		if res.Changed {
			return true
		}
	}
	return false
}

// invalidate removes repo.json so the next run sees a missing artifact and
// rebuilds, even when no source changes upstream in between.
func (p *Pipeline) invalidate() error {
	path := filepath.Join(p.outputDir, ManifestFile)

	exists, err := p.fs.Exists(path)
	if err != nil || !exists {
		return errors.WrapWithContext(err, errors.CodeIO, "failed to check manifest",
			map[string]interface{}{"path": path})
	}

	if err := p.fs.Remove(path); err != nil {
		return errors.WrapWithContext(err, errors.CodeIO, "failed to remove manifest",
			map[string]interface{}{"path": path})
	}
	return nil
}
