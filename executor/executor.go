package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/projecteru2/core/log"
)

// workDir pins every spawned command to a predictable directory instead of
// inheriting whatever the caller happened to chdir into.
const workDir = "/"

// hostSpawnPrefix is the launcher prepended to every invocation when the
// process runs inside a sandbox and commands must execute on the host.
var hostSpawnPrefix = []string{"flatpak-spawn", "--host"}

// Result carries the captured output of one finished command.
// A nonzero ExitCode is ordinary data, not an error.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner abstracts external command invocation so callers can be tested
// without spawning processes.
type Runner interface {
	// Run executes argv to completion and captures stdout/stderr. The error
	// return is reserved for spawn failures (binary missing, permission
	// denied); command exit status lives in Result.ExitCode.
	Run(ctx context.Context, argv ...string) (*Result, error)
	// StartDetached launches argv as a background process that outlives the
	// caller. Output is discarded and the process is never waited on.
	StartDetached(ctx context.Context, argv ...string) error
}

// Executor runs external commands, optionally rewriting each invocation to
// cross a sandbox boundary. The sandboxed flag is fixed at construction.
type Executor struct {
	sandboxed bool
}

// New creates an Executor. When sandboxed is true every command, probes
// included, is rewritten through the host-escape launcher.
func New(sandboxed bool) *Executor {
	return &Executor{sandboxed: sandboxed}
}

func (e *Executor) rewrite(argv []string) []string {
	if !e.sandboxed {
		return argv
	}
	out := make([]string, 0, len(hostSpawnPrefix)+len(argv))
	out = append(out, hostSpawnPrefix...)
	return append(out, argv...)
}

// Run executes argv and captures both streams. Stdout and stderr are drained
// into buffers by the runtime independently of process completion, so
// arbitrarily large output cannot deadlock the child.
func (e *Executor) Run(ctx context.Context, argv ...string) (*Result, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty argv")
	}
	argv = e.rewrite(argv)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	cmd.Dir = workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("spawn %s: %w", argv[0], err)
	}
	return res, nil
}

// StartDetached launches argv in its own process group and releases the
// handle, so the child survives this process. Deliberately not bound to ctx:
// cancellation must not tear down a guest that was asked to start.
func (e *Executor) StartDetached(ctx context.Context, argv ...string) error {
	if len(argv) == 0 {
		return errors.New("empty argv")
	}
	argv = e.rewrite(argv)

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec
	cmd.Dir = workDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %s: %w", argv[0], err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	log.WithFunc("executor.StartDetached").Infof(ctx, "launched %s (pid %d)", argv[0], pid)
	return nil
}
