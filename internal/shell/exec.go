package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Command runs rendered command lines through sh -c
type Command struct {
	WorkDir string
	Env     []string // appended to the current process environment
	Stdout  io.Writer
	Stderr  io.Writer
	DryRun  bool
}

// Run executes line and waits for it. The process is killed when ctx is done.
func (c *Command) Run(ctx context.Context, line string) error {
	if c.DryRun {
		fmt.Fprintf(c.stdout(), "    %s\n", line)
		return nil
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", line)
	cmd.Dir = c.resolveWorkingDir(c.WorkDir)
	cmd.Stdout = c.stdout()
	cmd.Stderr = c.stderr()
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("command interrupted: %w", ctx.Err())
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func (c *Command) stdout() io.Writer {
	if c.Stdout == nil {
		return io.Discard
	}
	return c.Stdout
}

func (c *Command) stderr() io.Writer {
	if c.Stderr == nil {
		return io.Discard
	}
	return c.Stderr
}

func (c *Command) resolveWorkingDir(path string) string {
	if path == "" || path == "./" {
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
