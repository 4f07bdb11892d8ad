// SPDX-License-Identifier: MPL-2.0

package dockercli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"
)

type (
	// MockCommandRecorder captures arguments passed to exec.Command for
	// verification. It uses the TestHelperProcess pattern to simulate
	// command execution. Invocations are guarded by a mutex so concurrent
	// executes can share one recorder.
	MockCommandRecorder struct {
		mu sync.Mutex
		// Invocations records each call to the mock exec.Command.
		Invocations []MockInvocation
		// ExitCode is the exit code to return (0 = success).
		ExitCode int
		// Stdout is the output to write to stdout.
		Stdout string
		// Stderr is the output to write to stderr.
		Stderr string
		// FailOnArg, when non-empty, forces exit code 1 for any invocation
		// whose argument vector contains this string.
		FailOnArg string
	}

	// MockInvocation represents a single invocation of exec.Command.
	MockInvocation struct {
		Name string
		Args []string
	}
)

// NewMockCommandRecorder creates a new recorder with default settings
// (success, no output).
func NewMockCommandRecorder() *MockCommandRecorder {
	return &MockCommandRecorder{}
}

// CommandFunc returns an ExecCommandFunc that records invocations and runs
// TestHelperProcess instead of a real engine binary.
func (m *MockCommandRecorder) CommandFunc(t *testing.T) ExecCommandFunc {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		m.mu.Lock()
		m.Invocations = append(m.Invocations, MockInvocation{Name: name, Args: args})
		m.mu.Unlock()

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.Command(os.Args[0], cs...)

		exitCode := m.ExitCode
		if m.FailOnArg != "" {
			for _, a := range args {
				if a == m.FailOnArg {
					exitCode = 1
				}
			}
		}

		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", exitCode),
			fmt.Sprintf("GO_HELPER_STDOUT=%s", m.Stdout),
			fmt.Sprintf("GO_HELPER_STDERR=%s", m.Stderr),
		}
		return cmd
	}
}

// LastArgs returns the arguments from the most recent invocation.
func (m *MockCommandRecorder) LastArgs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Invocations) == 0 {
		return nil
	}
	return m.Invocations[len(m.Invocations)-1].Args
}

// InvocationCount returns the number of command invocations so far.
func (m *MockCommandRecorder) InvocationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Invocations)
}

// AssertInvocationCount verifies the number of command invocations.
func (m *MockCommandRecorder) AssertInvocationCount(t *testing.T, expected int) {
	t.Helper()
	if got := m.InvocationCount(); got != expected {
		t.Errorf("expected %d invocations, got %d", expected, got)
	}
}

// AssertArgsContain verifies that the last invocation args contain the
// expected string.
func (m *MockCommandRecorder) AssertArgsContain(t *testing.T, expected string) {
	t.Helper()
	args := m.LastArgs()
	if !strings.Contains(strings.Join(args, " "), expected) {
		t.Errorf("expected args to contain %q, got: %v", expected, args)
	}
}

// newMockExecutor creates an Executor wired to the recorder with a fake
// binary path so LookPath resolution is bypassed.
func newMockExecutor(t *testing.T, m *MockCommandRecorder, opts ...ExecutorOption) *Executor {
	t.Helper()
	all := append([]ExecutorOption{
		WithBinary("docker"),
		WithExecCommand(m.CommandFunc(t)),
	}, opts...)
	return NewExecutor(RuntimeDocker, all...)
}

// TestHelperProcess is used by the mock to simulate command execution.
// It reads configuration from environment variables and outputs accordingly.
// This function should not be called directly - it is invoked by the mock.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv("GO_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}

	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}
	os.Exit(exitCode)
}
