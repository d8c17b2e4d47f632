// Package executor runs external commands and captures their output.
// It is the process boundary used by the git command-line transport: every
// clone and pull is a child process whose exit status and captured output
// decide success and the changed/unchanged classification.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Result holds the output and error from a command execution
type Result struct {
	Stdout   string
	Stderr   string
	Combined string
	ExitCode int
	Err      error
}

// CommandExecutor runs one program with fixed arguments.
type CommandExecutor struct {
	program string
	args    []string
	options *Options
}

// Options configures command execution behavior
type Options struct {
	// Output handling
	CaptureStdout   bool
	CaptureStderr   bool
	CaptureCombined bool

	// Working directory
	WorkingDir string

	// Environment variables (appended to current env)
	Env map[string]string

	// Logger receives a debug record per command. Nil disables logging.
	Logger *slog.Logger
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns default execution options
func DefaultOptions() *Options {
	return &Options{
		CaptureStdout:   true,
		CaptureStderr:   true,
		CaptureCombined: false,
		Env:             make(map[string]string),
	}
}

// New creates a new CommandExecutor
func New(program string, args ...string) *CommandExecutor {
	return &CommandExecutor{
		program: program,
		args:    args,
		options: DefaultOptions(),
	}
}

// NewWrappedExecutor creates an executor for a specific program.
// The given options become the defaults of every command it runs.
func NewWrappedExecutor(program string, opts ...Option) *WrappedExecutor {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &WrappedExecutor{
		program: program,
		options: options,
	}
}

// WrappedExecutor provides a clean interface for a specific program
type WrappedExecutor struct {
	program string
	options *Options
}

// Program returns the wrapped program name.
func (w *WrappedExecutor) Program() string {
	return w.program
}

// Command creates a new executor for the wrapped program with specific arguments
func (w *WrappedExecutor) Command(args ...string) *CommandExecutor {
	return &CommandExecutor{
		program: w.program,
		args:    args,
		options: w.options,
	}
}

// Execute runs the command with the wrapped program
func (w *WrappedExecutor) Execute(
	ctx context.Context,
	args []string,
	opts ...Option,
) (*Result, error) {
	result, err := w.Command(args...).Execute(ctx, opts...)
	if err != nil {
		return result, fmt.Errorf("failed to execute %s %s: %w", w.program, strings.Join(args, " "), err)
	}
	return result, nil
}

// Execute runs the command, applying opts on top of the executor defaults.
func (c *CommandExecutor) Execute(ctx context.Context, opts ...Option) (*Result, error) {
	options := c.mergeOptions(opts...)

	if options.Logger != nil {
		options.Logger.DebugContext(ctx, "running command",
			"program", c.program,
			"args", c.args,
			"dir", options.WorkingDir,
		)
	}

	return c.executeOnce(ctx, options)
}

// setupCommand configures the exec.Cmd with working directory and environment
func (c *CommandExecutor) setupCommand(cmd *exec.Cmd, options *Options) {
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
}

// setupOutputCapture configures stdout and stderr writers for the command
func (c *CommandExecutor) setupOutputCapture(
	cmd *exec.Cmd,
	options *Options,
) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	var stdoutBuf, stderrBuf, combinedBuf bytes.Buffer

	stdoutWriters := []io.Writer{}
	if options.CaptureStdout {
		stdoutWriters = append(stdoutWriters, &stdoutBuf)
	}
	if options.CaptureCombined {
		stdoutWriters = append(stdoutWriters, &combinedBuf)
	}
	if len(stdoutWriters) > 0 {
		cmd.Stdout = io.MultiWriter(stdoutWriters...)
	}

	stderrWriters := []io.Writer{}
	if options.CaptureStderr {
		stderrWriters = append(stderrWriters, &stderrBuf)
	}
	if options.CaptureCombined {
		stderrWriters = append(stderrWriters, &combinedBuf)
	}
	if len(stderrWriters) > 0 {
		cmd.Stderr = io.MultiWriter(stderrWriters...)
	}

	return &stdoutBuf, &stderrBuf, &combinedBuf
}

// createResult creates a Result from command execution and error
func (c *CommandExecutor) createResult(
	stdoutBuf, stderrBuf, combinedBuf *bytes.Buffer,
	err error,
) *Result {
	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Combined: combinedBuf.String(),
		Err:      err,
	}

	var exitErr *exec.ExitError
	switch {
	case err != nil && errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err == nil:
		result.ExitCode = 0
	default:
		result.ExitCode = -1
	}

	return result
}

func (c *CommandExecutor) executeOnce(ctx context.Context, options *Options) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.program, c.args...)

	c.setupCommand(cmd, options)
	stdoutBuf, stderrBuf, combinedBuf := c.setupOutputCapture(cmd, options)

	err := cmd.Run()

	result := c.createResult(stdoutBuf, stderrBuf, combinedBuf, err)

	if err != nil {
		return result, fmt.Errorf("command execution failed: %w", err)
	}
	return result, nil
}

func (c *CommandExecutor) mergeOptions(opts ...Option) *Options {
	merged := *c.options

	// Env is a map; copy it so per-call options never leak into the defaults.
	merged.Env = make(map[string]string, len(c.options.Env))
	for k, v := range c.options.Env {
		merged.Env[k] = v
	}

	for _, opt := range opts {
		opt(&merged)
	}

	return &merged
}

// Option functions for fluent configuration

// WithCapture configures output capture
func WithCapture(stdout, stderr, combined bool) Option {
	return func(o *Options) {
		o.CaptureStdout = stdout
		o.CaptureStderr = stderr
		o.CaptureCombined = combined
	}
}

// WithWorkingDir sets the working directory
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnv adds environment variables
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithEnvVar adds a single environment variable
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithLogger sets the logger used for per-command debug records
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// SilentMode captures stdout and stderr separately
func SilentMode() Option {
	return func(o *Options) {
		o.CaptureStdout = true
		o.CaptureStderr = true
	}
}
