package executor_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/input-output-hk/reposync/executor"
)

func TestBasicExecution(t *testing.T) {
	cmd := executor.New("echo", "hello", "world")
	result, err := cmd.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "hello world") {
		t.Errorf("expected stdout to contain 'hello world', got: %s", result.Stdout)
	}

	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got: %d", result.ExitCode)
	}
}

func TestWrappedExecutor(t *testing.T) {
	git := executor.NewWrappedExecutor("git")

	result, err := git.Execute(context.Background(), []string{"version"})
	if err != nil {
		t.Skipf("git not available: %v", err)
	}

	if !strings.Contains(result.Stdout, "git version") {
		t.Errorf("expected git version output, got: %s", result.Stdout)
	}
	if git.Program() != "git" {
		t.Errorf("expected program git, got: %s", git.Program())
	}
}

func TestNonZeroExit(t *testing.T) {
	cmd := executor.New("sh", "-c", "echo 'fatal: Not possible to fast-forward, aborting.' >&2; exit 128")
	result, err := cmd.Execute(context.Background())
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}

	if result.ExitCode != 128 {
		t.Errorf("expected exit code 128, got: %d", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "fast-forward") {
		t.Errorf("expected stderr to be captured, got: %s", result.Stderr)
	}
}

func TestMissingProgram(t *testing.T) {
	cmd := executor.New("reposync-definitely-not-a-program")
	result, err := cmd.Execute(context.Background())
	if err == nil {
		t.Fatal("expected error for missing program")
	}
	if result.ExitCode != -1 {
		t.Errorf("expected exit code -1, got: %d", result.ExitCode)
	}
}

func TestCombinedOutput(t *testing.T) {
	cmd := executor.New("sh", "-c", "echo stdout && echo stderr >&2")
	result, err := cmd.Execute(
		context.Background(),
		executor.WithCapture(false, false, true),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	combined := result.Combined
	if !strings.Contains(combined, "stdout") || !strings.Contains(combined, "stderr") {
		t.Errorf("expected combined output, got: %s", combined)
	}
	if result.Stdout != "" {
		t.Errorf("expected stdout not captured separately, got: %s", result.Stdout)
	}
}

func TestWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	cmd := executor.New("pwd")
	result, err := cmd.Execute(
		context.Background(),
		executor.WithWorkingDir(dir),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, dir) {
		t.Errorf("expected %s in output, got: %s", dir, result.Stdout)
	}
}

func TestEnvironmentVariables(t *testing.T) {
	cmd := executor.New("sh", "-c", "echo $CUSTOM_VAR")
	result, err := cmd.Execute(
		context.Background(),
		executor.WithEnvVar("CUSTOM_VAR", "test_value"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "test_value") {
		t.Errorf("expected env var value in output, got: %s", result.Stdout)
	}
}

func TestPerCallEnvDoesNotLeak(t *testing.T) {
	sh := executor.NewWrappedExecutor("sh", executor.WithEnvVar("BASE_VAR", "base"))

	_, err := sh.Execute(context.Background(), []string{"-c", "true"}, executor.WithEnvVar("CALL_VAR", "x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := sh.Execute(context.Background(), []string{"-c", "echo \"$BASE_VAR:$CALL_VAR\""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "base:" {
		t.Errorf("expected per-call env to stay local, got: %q", result.Stdout)
	}
}

func TestLoggerReceivesCommand(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cmd := executor.New("echo", "logged")
	if _, err := cmd.Execute(context.Background(), executor.WithLogger(logger)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "running command") || !strings.Contains(buf.String(), "program=echo") {
		t.Errorf("expected debug record for command, got: %s", buf.String())
	}
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	cmd := executor.New("sleep", "1")
	_, err := cmd.Execute(ctx)

	if err == nil {
		t.Error("expected context cancellation error")
	}
}
