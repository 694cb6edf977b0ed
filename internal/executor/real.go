package executor

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/syou6162/git-line-stage/internal/logger"
)

// RealCommandExecutor is the real implementation of CommandExecutor
type RealCommandExecutor struct {
	logger *logger.Logger
}

// NewRealCommandExecutor creates a new real executor
func NewRealCommandExecutor() *RealCommandExecutor {
	return &RealCommandExecutor{
		logger: logger.NewFromEnv(),
	}
}

// Execute implements CommandExecutor.Execute
func (r *RealCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return r.run(cmd, name, args)
}

// ExecuteWithStdin implements CommandExecutor.ExecuteWithStdin
func (r *RealCommandExecutor) ExecuteWithStdin(ctx context.Context, name string, stdin io.Reader, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	return r.run(cmd, name, args)
}

// ExecuteWithEnv implements CommandExecutor.ExecuteWithEnv
func (r *RealCommandExecutor) ExecuteWithEnv(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	return r.run(cmd, name, args)
}

func (r *RealCommandExecutor) run(cmd *exec.Cmd, name string, args []string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger.Error("Command failed: %s %s", name, strings.Join(args, " "))
		if stderr.Len() > 0 {
			r.logger.Error("stderr: %s", stderr.String())
		}

		// Return stderr content along with the error. Partial stdout is
		// returned too: commands like git diff --no-index exit non-zero
		// while still producing usable output.
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitErr.Stderr = stderr.Bytes()
		}
		return stdout.Bytes(), err
	}

	return stdout.Bytes(), nil
}
