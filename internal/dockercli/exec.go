// SPDX-License-Identifier: MPL-2.0

package dockercli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
)

// defaultTermGrace is how long a timed-out process gets between the
// cooperative SIGTERM and the forced kill.
const defaultTermGrace = 3 * time.Second

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// ExecutorOption configures an Executor.
	ExecutorOption func(*Executor)

	// Request describes a single engine invocation. It is constructed by a
	// command builder and consumed exactly once by Execute.
	Request struct {
		// Args is the argument vector passed after the binary name.
		Args []string
		// Timeout bounds the invocation; zero means no timeout.
		Timeout time.Duration
		// Dir overrides the working directory when non-empty.
		Dir string
		// Env holds environment overrides layered on top of the parent
		// process environment.
		Env map[string]string
		// Hint narrows not-found diagnostics to a ResourceNotFoundError.
		Hint *LookupHint
	}

	// Result is the immutable record of a successfully completed invocation.
	// A Result is only ever produced for a zero exit with fully captured
	// streams; partial output from failed or timed-out runs is never exposed.
	Result struct {
		ExitCode ExitCode
		Stdout   string
		Stderr   string
		Duration time.Duration
	}

	// Outcome carries the result of an asynchronous invocation. Exactly one
	// of Result and Err is set.
	Outcome struct {
		Result *Result
		Err    error
	}

	// Executor spawns the engine binary for one Request at a time. It holds
	// no shared mutable state across calls: each invocation owns its process
	// handle and buffers, so concurrent Execute calls are independent.
	Executor struct {
		runtime     Runtime
		binary      string
		execCommand ExecCommandFunc
		classifier  *Classifier
		termGrace   time.Duration
		logger      *log.Logger
	}
)

// WithBinary overrides the resolved binary path. An empty path makes every
// Execute fail with ExecutableNotFoundError, which tests rely on.
func WithBinary(path string) ExecutorOption {
	return func(e *Executor) {
		e.binary = path
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) ExecutorOption {
	return func(e *Executor) {
		e.execCommand = fn
	}
}

// WithClassifier sets the failure classifier.
func WithClassifier(c *Classifier) ExecutorOption {
	return func(e *Executor) {
		e.classifier = c
	}
}

// WithTermGrace sets the delay between the cooperative terminate signal and
// the forced kill on timeout.
func WithTermGrace(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.termGrace = d
	}
}

// WithLogger sets the structured logger used for invocation tracing.
func WithLogger(logger *log.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an Executor for the given runtime. The binary is
// resolved once here via the search path; absence is not an error until the
// first Execute call, which fails with ExecutableNotFoundError.
func NewExecutor(rt Runtime, opts ...ExecutorOption) *Executor {
	path, _ := exec.LookPath(rt.Binary())
	e := &Executor{
		runtime:     rt,
		binary:      path,
		execCommand: exec.CommandContext,
		classifier:  NewClassifier(),
		termGrace:   defaultTermGrace,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Runtime returns the runtime this executor drives.
func (e *Executor) Runtime() Runtime { return e.runtime }

// BinaryPath returns the resolved path of the engine binary, or "" when the
// binary was not found on the search path.
func (e *Executor) BinaryPath() string { return e.binary }

// Available reports whether the engine binary is present and answers a
// version probe.
func (e *Executor) Available(ctx context.Context) bool {
	if e.binary == "" {
		return false
	}
	_, err := e.Version(ctx)
	return err == nil
}

// Version returns the engine version reported by the binary.
func (e *Executor) Version(ctx context.Context) (string, error) {
	res, err := e.Execute(ctx, Request{Args: e.runtime.versionArgs()})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Execute runs the engine binary with the request's argument vector and
// blocks until it exits. It returns either a fully populated Result (zero
// exit, both streams drained) or exactly one taxonomy error. Execute never
// retries; callers own retry policy, informed by Retryable.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if e.binary == "" {
		return nil, &ExecutableNotFoundError{Binary: e.runtime.Binary()}
	}

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := e.execCommand(runCtx, e.binary, req.Args...)
	cmd.Dir = req.Dir
	applyEnv(cmd, req.Env)

	// Cooperative termination on timeout: SIGTERM first, forced kill once the
	// grace period elapses. Only possible when the command was created with a
	// context (the test mock returns a plain exec.Cmd, where Cancel is nil).
	if cmd.Cancel != nil {
		cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
		cmd.WaitDelay = e.termGrace
	}

	// Both streams drain into their own buffer; cmd.Wait does not return
	// until the copies are complete, so a Result never carries partial reads.
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	commandLine := e.binary + " " + strings.Join(req.Args, " ")
	e.logger.Debug("executing", "command", commandLine, "timeout", req.Timeout)

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	switch {
	case runErr == nil:
		return &Result{
			ExitCode: 0,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: elapsed,
		}, nil

	case req.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		e.logger.Debug("timed out", "command", commandLine, "after", req.Timeout)
		return nil, &TimeoutError{Duration: req.Timeout}

	case ctx.Err() != nil:
		return nil, &GenericError{Message: "execution canceled", Cause: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		derr := e.classifier.Classify(commandLine, ExitCode(exitErr.ExitCode()), stdout.String(), stderr.String(), req.Hint)
		e.logger.Debug("command failed", "command", commandLine, "exit", exitErr.ExitCode(), "retryable", derr.Retryable())
		return nil, derr
	}

	if errors.Is(runErr, exec.ErrNotFound) {
		return nil, &ExecutableNotFoundError{Binary: e.runtime.Binary()}
	}

	return nil, &GenericError{Message: "failed to run " + e.binary, Cause: runErr}
}

// ExecuteAsync starts the invocation and returns immediately with a buffered
// channel that receives exactly one Outcome when the process completes. It is
// backed by the same spawn path as Execute.
func (e *Executor) ExecuteAsync(ctx context.Context, req Request) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		res, err := e.Execute(ctx, req)
		ch <- Outcome{Result: res, Err: err}
		close(ch)
	}()
	return ch
}

// validate rejects self-contradictory requests before any process is spawned.
func (r Request) validate() error {
	if len(r.Args) == 0 {
		return &InvalidConfigurationError{Message: "empty argument vector"}
	}
	if r.Timeout < 0 {
		return &InvalidConfigurationError{Message: "negative timeout"}
	}
	return nil
}

// applyEnv layers overrides on top of the parent process environment.
// exec.Cmd.Env being nil means "inherit everything", but once set to a
// non-nil slice, only the listed vars are passed to the child.
func applyEnv(cmd *exec.Cmd, overrides map[string]string) {
	if len(overrides) == 0 {
		return
	}
	cmd.Env = os.Environ()
	for k, v := range overrides {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
}
