package transport

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/executor"
)

// upToDateMarkers are what `git pull` prints when there was nothing to
// merge. Releases before 2.16 hyphenate the phrase.
var upToDateMarkers = []string{"Already up to date", "Already up-to-date"}

// runner executes the git program with arguments.
type runner interface {
	Execute(ctx context.Context, args []string, opts ...executor.Option) (*executor.Result, error)
}

// CommandError reports a git invocation that did not succeed.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

// Error returns the git subcommand with its diagnostic output.
func (e *CommandError) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}

	sub := "command"
	if len(e.Args) > 0 {
		sub = e.Args[0]
	}
	return fmt.Sprintf("git %s exited %d: %s", sub, e.ExitCode, detail)
}

// Unwrap returns the execution error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Code classifies the failure for the errors package.
func (e *CommandError) Code() errors.ErrorCode {
	return errors.CodeExecutionFailed
}

// CLI drives the git command-line client.
// Paths are resolved against the working root given to NewCLI.
type CLI struct {
	root string
	git  runner
	opts *options
}

// NewCLI returns a transport that runs git with root as the working root.
// Prompts are disabled and output is forced to the C locale so the
// up-to-date marker can be recognized.
func NewCLI(root string, opts ...Option) *CLI {
	o := newOptions(opts)
	return &CLI{
		root: root,
		git: executor.NewWrappedExecutor(o.program,
			executor.SilentMode(),
			executor.WithEnv(map[string]string{
				"GIT_TERMINAL_PROMPT": "0",
				"LC_ALL":              "C",
			}),
			executor.WithLogger(o.logger),
		),
		opts: o,
	}
}

// Materialize clones url into path.
func (c *CLI) Materialize(ctx context.Context, url, path string) error {
	_, err := c.run(ctx, c.root, "clone", "--", url, path)
	return err
}

// Update runs a fast-forward-only pull in path. It reports true when the
// pull brought in new commits.
func (c *CLI) Update(ctx context.Context, path string) (bool, error) {
	dir := path
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.root, path)
	}

	result, err := c.run(ctx, dir, "pull", "--ff-only")
	if err != nil {
		return false, err
	}

	return !upToDate(result.Stdout), nil
}

func upToDate(stdout string) bool {
	for _, marker := range upToDateMarkers {
		if strings.Contains(stdout, marker) {
			return true
		}
	}
	return false
}

func (c *CLI) run(ctx context.Context, dir string, args ...string) (*executor.Result, error) {
	result, err := c.git.Execute(ctx, args, executor.WithWorkingDir(dir))
	if err != nil {
		cmdErr := &CommandError{Args: args, ExitCode: -1, Err: err}
		if result != nil {
			cmdErr.ExitCode = result.ExitCode
			cmdErr.Stderr = result.Stderr
		}
		return nil, cmdErr
	}

	c.opts.logger.DebugContext(ctx, "git finished",
		"args", args,
		"dir", dir,
		"stdout", strings.TrimSpace(result.Stdout),
	)
	return result, nil
}
