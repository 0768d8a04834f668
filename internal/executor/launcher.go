package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// WorkerSubcommand is the hidden CLI subcommand that runs a child worker.
const WorkerSubcommand = "worker"

// Process is a started child worker.
type Process interface {
	// Wait blocks until the process exits. A non-nil error means a
	// non-zero exit or abnormal termination.
	Wait() error
	// Kill terminates the process. Killing an exited process is a no-op.
	Kill() error
	PID() int
}

// Launcher starts child workers.
type Launcher interface {
	Launch(ctx context.Context, a Assignment) (Process, error)
}

// CommandLauncher starts each worker as an OS process and writes its
// Assignment as JSON on the child's stdin. The child's stderr is inherited
// so its log lines reach the console.
type CommandLauncher struct {
	// Path is the executable (default: this binary).
	Path string
	// Args follow Path (default: the worker subcommand).
	Args []string
	// Env is appended to the parent's environment.
	Env []string
}

// NewCommandLauncher builds a launcher from a configured command line. An
// empty command re-executes the current binary's worker subcommand.
func NewCommandLauncher(command []string) (*CommandLauncher, error) {
	if len(command) > 0 {
		return &CommandLauncher{Path: command[0], Args: command[1:]}, nil
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return &CommandLauncher{Path: self, Args: []string{WorkerSubcommand}}, nil
}

// Launch implements Launcher. Cancelling ctx kills the child.
func (l *CommandLauncher) Launch(ctx context.Context, a Assignment) (Process, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assignment: %w", err)
	}

	cmd := exec.CommandContext(ctx, l.Path, l.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	// The parent owns stdout for its report.
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", l.Path, err)
	}
	return &cmdProcess{cmd: cmd}, nil
}

type cmdProcess struct {
	cmd *exec.Cmd
}

func (p *cmdProcess) Wait() error { return p.cmd.Wait() }

func (p *cmdProcess) Kill() error {
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (p *cmdProcess) PID() int { return p.cmd.Process.Pid }
