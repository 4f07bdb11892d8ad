// SPDX-License-Identifier: MPL-2.0

// Integration tests that drive a real container engine. They are skipped in
// short mode and whenever no engine is reachable.

package dockercli

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// checkTestcontainersAvailable safely checks if testcontainers can be used.
// Returns true if containers are available, false otherwise.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func TestExecutorIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rt, err := DetectRuntime()
	if err != nil {
		t.Skipf("skipping integration tests: %v", err)
	}
	e := NewExecutor(rt)
	if !e.Available(t.Context()) {
		t.Skip("skipping integration tests: engine binary present but daemon unreachable")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping integration tests: testcontainers provider not available")
	}

	t.Run("Version", func(t *testing.T) {
		v, err := e.Version(t.Context())
		if err != nil {
			t.Fatalf("Version() error = %v", err)
		}
		if v == "" {
			t.Error("Version() returned empty string")
		}
	})

	t.Run("RunTrackCleanup", func(t *testing.T) {
		cfg := DefaultSessionConfig()
		cfg.EnableShutdownHook = false
		s := NewSession(e, WithSessionConfig(cfg))

		res, err := e.Execute(t.Context(), Request{
			Args: RunArgs(RunOptions{
				Image:   "alpine:3.20",
				Command: []string{"sleep", "300"},
				Labels:  s.ManagedLabels(),
				Detach:  true,
			}),
			Timeout: 2 * time.Minute,
		})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		containerID := strings.TrimSpace(res.Stdout)
		if containerID == "" {
			t.Fatal("detached run printed no container id")
		}
		s.Track(Resource{Kind: ResourceContainer, ID: containerID})

		ps, err := e.Execute(t.Context(), Request{Args: PsArgs(s.ID()), Timeout: time.Minute})
		if err != nil {
			t.Fatalf("ps failed: %v", err)
		}
		if !strings.Contains(ps.Stdout, containerID[:12]) {
			t.Errorf("session-filtered ps does not list %s:\n%s", containerID[:12], ps.Stdout)
		}

		if removed := s.CleanupAll(t.Context()); removed != 1 {
			t.Errorf("CleanupAll() = %d, want 1", removed)
		}

		_, err = e.Execute(t.Context(), Request{
			Args:    InspectArgs(Resource{Kind: ResourceContainer, ID: containerID}),
			Hint:    &LookupHint{Kind: ResourceContainer, ID: containerID},
			Timeout: time.Minute,
		})
		var nf *ResourceNotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("expected ResourceNotFoundError after cleanup, got %v", err)
		}
	})

	t.Run("MissingImageLookup", func(t *testing.T) {
		_, err := e.Execute(t.Context(), Request{
			Args:    InspectArgs(Resource{Kind: ResourceImage, ID: "dockhand.invalid/absent:none"}),
			Hint:    &LookupHint{Kind: ResourceImage, ID: "dockhand.invalid/absent:none"},
			Timeout: time.Minute,
		})
		var nf *ResourceNotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("expected ResourceNotFoundError, got %v", err)
		}
	})
}
