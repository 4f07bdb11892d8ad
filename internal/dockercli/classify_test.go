// SPDX-License-Identifier: MPL-2.0

package dockercli

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClassifyRetryable(t *testing.T) {
	t.Parallel()

	c := NewClassifier()

	tests := []struct {
		name   string
		stdout string
		stderr string
		want   bool
	}{
		// Transient conditions
		{name: "connection refused", stderr: "dial tcp 127.0.0.1:2375: connection refused", want: true},
		{name: "rate limit", stderr: "You have reached your pull rate limit", want: true},
		{name: "toomanyrequests", stderr: "toomanyrequests: too many requests", want: true},
		{name: "503", stderr: "received unexpected HTTP status: 503 Service Unavailable", want: true},
		{name: "network unreachable", stderr: "dial tcp: network is unreachable", want: true},
		{name: "port allocated", stderr: "Bind for 0.0.0.0:8080 failed: port is already allocated", want: true},
		{name: "connection timed out", stderr: "connect: connection timed out", want: true},
		{name: "case insensitive", stderr: "CONNECTION REFUSED", want: true},

		// Non-transient conditions
		{name: "invalid reference", stderr: "invalid reference format", want: false},
		{name: "permission denied", stderr: "permission denied", want: false},
		{name: "empty streams", want: false},

		// Fallback to stdout when stderr is blank
		{name: "stdout fallback transient", stdout: "error: connection refused", want: true},
		{name: "stdout fallback non-transient", stdout: "something else broke", want: false},
		{name: "blank stderr falls back", stderr: "   \n", stdout: "rate limit exceeded", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := c.Classify("docker pull x", 1, tt.stdout, tt.stderr, nil)
			if got := err.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
			// Retryable is pure: a second read must agree with the first.
			if got := err.Retryable(); got != tt.want {
				t.Errorf("second Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyVariants(t *testing.T) {
	t.Parallel()

	c := NewClassifier()

	t.Run("daemon unavailable", func(t *testing.T) {
		t.Parallel()
		err := c.Classify("docker ps", 1, "", "Cannot connect to the Docker daemon at unix:///var/run/docker.sock", nil)
		var derr *DaemonUnavailableError
		if !errors.As(err, &derr) {
			t.Fatalf("expected DaemonUnavailableError, got %T", err)
		}
		if !err.Retryable() {
			t.Error("daemon unavailable must be retryable")
		}
	})

	t.Run("not found with hint", func(t *testing.T) {
		t.Parallel()
		hint := &LookupHint{Kind: ResourceContainer, ID: "abc123"}
		err := c.Classify("docker inspect abc123", 1, "", "Error: No such container: abc123", hint)
		var nf *ResourceNotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("expected ResourceNotFoundError, got %T", err)
		}
		if nf.Kind != ResourceContainer || nf.ID != "abc123" {
			t.Errorf("unexpected payload: %+v", nf)
		}
		if err.Retryable() {
			t.Error("resource not found must not be retryable")
		}
	})

	t.Run("not found without hint stays command failed", func(t *testing.T) {
		t.Parallel()
		err := c.Classify("docker inspect abc123", 1, "", "Error: No such container: abc123", nil)
		var cf *CommandFailedError
		if !errors.As(err, &cf) {
			t.Fatalf("expected CommandFailedError, got %T", err)
		}
	})

	t.Run("command failed payload", func(t *testing.T) {
		t.Parallel()
		err := c.Classify("docker build .", 17, "partial out", "boom", nil)
		var cf *CommandFailedError
		if !errors.As(err, &cf) {
			t.Fatalf("expected CommandFailedError, got %T", err)
		}
		if cf.ExitCode != 17 {
			t.Errorf("ExitCode = %s, want 17", cf.ExitCode)
		}
		if cf.Command != "docker build ." {
			t.Errorf("Command = %q", cf.Command)
		}
		if cf.Stdout != "partial out" || cf.Stderr != "boom" {
			t.Errorf("streams not preserved: %+v", cf)
		}
	})

	t.Run("empty streams fall back to exit code", func(t *testing.T) {
		t.Parallel()
		err := c.Classify("docker rm x", 2, "", "", nil)
		if !strings.Contains(err.Error(), "exit code 2") {
			t.Errorf("message should mention the exit code, got %q", err.Error())
		}
		if err.Retryable() {
			t.Error("no diagnostic output must not classify as transient")
		}
	})

	t.Run("truncation keeps valid utf-8", func(t *testing.T) {
		t.Parallel()
		// Two-byte runes straddling the bound must not be split.
		long := strings.Repeat("é", 300)
		err := c.Classify("docker run img", 1, "", long, nil)
		var cf *CommandFailedError
		if !errors.As(err, &cf) {
			t.Fatalf("expected CommandFailedError, got %T", err)
		}
		if !utf8.ValidString(cf.message) {
			t.Errorf("truncated message is not valid UTF-8: %q", cf.message)
		}
		if len(cf.message) > maxDiagnosticLen+len("...") {
			t.Errorf("message not truncated: %d bytes", len(cf.message))
		}
	})

	t.Run("message truncated at bound", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("x", 500)
		err := c.Classify("docker run img", 1, "", long, nil)
		var cf *CommandFailedError
		if !errors.As(err, &cf) {
			t.Fatalf("expected CommandFailedError, got %T", err)
		}
		if len(cf.message) > maxDiagnosticLen+len("...") {
			t.Errorf("message not truncated: %d bytes", len(cf.message))
		}
		if len(cf.Stderr) != 500 {
			t.Error("full stderr must be preserved verbatim")
		}
	})
}

func TestClassifierCustomMarkers(t *testing.T) {
	t.Parallel()

	c := NewClassifier(WithTransientMarkers([]string{"flaky widget"}))

	if !c.Classify("docker x", 1, "", "the flaky widget failed", nil).Retryable() {
		t.Error("custom marker should classify as transient")
	}
	if c.Classify("docker x", 1, "", "connection refused", nil).Retryable() {
		t.Error("default vocabulary should be replaced, not extended")
	}
}
