package formatter

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const waitDelay = 500 * time.Millisecond

// Command describes one subprocess invocation
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string
	Stdin string
}

// Runner executes a command and returns its stdout
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

func (r ExecRunner) Run(ctx context.Context, cmd Command) ([]byte, error) {
	command := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		command.Dir = cmd.Dir
	}
	if len(cmd.Env) > 0 {
		command.Env = append(os.Environ(), cmd.Env...)
	}
	command.Stdin = strings.NewReader(cmd.Stdin)
	// child processes may keep the output pipes open after a kill
	command.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ErrTimeout, "%s: %v", cmd.Name, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, errors.Wrap(err, cmd.Name)
		}
		return nil, errors.Wrapf(err, "%s: %s", cmd.Name, truncate(msg, 512))
	}

	return stdout.Bytes(), nil
}

// LookPath reports whether an executable resolves on PATH
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
