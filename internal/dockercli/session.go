// SPDX-License-Identifier: MPL-2.0

package dockercli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	// LabelPrefix namespaces every label this tooling attaches to resources.
	LabelPrefix = "dev.dockhand"
	// LabelManaged marks a resource as created through this tooling.
	LabelManaged = LabelPrefix + ".managed"
	// LabelSession carries the session id of the creating process.
	LabelSession = LabelPrefix + ".session"
	// LabelCreated carries the session creation timestamp (RFC 3339).
	LabelCreated = LabelPrefix + ".created"

	// sessionIDLen is the length of the opaque session token.
	sessionIDLen = 8

	// DefaultShutdownTimeout bounds cleanup work during process shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

type (
	// SessionConfig is the mutable session configuration. Configure swaps the
	// whole value atomically; there is no field-at-a-time mutation.
	SessionConfig struct {
		// EnableShutdownHook controls whether a process-termination hook is
		// registered on first use.
		EnableShutdownHook bool
		// ShutdownTimeout bounds CleanupAll when run from the shutdown hook.
		ShutdownTimeout time.Duration
		// CleanupOnShutdown controls whether the hook removes tracked
		// resources at all.
		CleanupOnShutdown bool
	}

	// SessionOption configures a Session.
	SessionOption func(*Session)

	// Session holds one process lifetime's worth of tracked resources and
	// configuration. All mutable state is guarded by a single mutex; the
	// executor performing removals is injected at construction.
	Session struct {
		exec   *Executor
		logger *log.Logger

		mu        sync.Mutex
		id        string
		createdAt time.Time
		tracked   map[Resource]struct{}
		config    SessionConfig

		hookOnce sync.Once
	}
)

// DefaultSessionConfig returns the default configuration: hook enabled,
// 30-second shutdown timeout, cleanup enabled.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		EnableShutdownHook: true,
		ShutdownTimeout:    DefaultShutdownTimeout,
		CleanupOnShutdown:  true,
	}
}

// Validate rejects self-contradictory configurations.
func (c SessionConfig) Validate() error {
	if c.ShutdownTimeout <= 0 {
		return &InvalidConfigurationError{Message: "shutdown timeout must be positive"}
	}
	return nil
}

// WithSessionLogger sets the structured logger used for cleanup reporting.
func WithSessionLogger(logger *log.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithSessionConfig sets the initial configuration, before the shutdown hook
// decision is made. The configuration is not validated here; use Configure
// for validated replacement after construction.
func WithSessionConfig(cfg SessionConfig) SessionOption {
	return func(s *Session) {
		s.config = cfg
	}
}

// NewSession creates a Session that removes tracked resources through exec.
// Most programs use the process-wide Current session instead; NewSession
// exists so collaborators can inject a session rather than reach for a
// global.
func NewSession(exec *Executor, opts ...SessionOption) *Session {
	s := &Session{
		exec:    exec,
		logger:  log.New(io.Discard),
		tracked: make(map[Resource]struct{}),
		config:  DefaultSessionConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.EnableShutdownHook {
		s.installShutdownHook()
	}
	return s
}

var (
	currentMu sync.Mutex
	current   *Session
)

// Current returns the process-wide session, creating it on first access with
// an auto-detected runtime executor.
func Current() *Session {
	currentMu.Lock()
	defer currentMu.Unlock()
	if current == nil {
		rt, err := DetectRuntime()
		if err != nil {
			// No runtime on the path: cleanup invocations will fail with
			// ExecutableNotFoundError, which CleanupAll tolerates.
			rt = RuntimeDocker
		}
		current = NewSession(NewExecutor(rt))
	}
	return current
}

// ID returns the session identifier, an 8-character opaque token generated on
// first access and stable for the process's lifetime.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idLocked()
}

func (s *Session) idLocked() string {
	if s.id == "" {
		s.id = strings.ReplaceAll(uuid.NewString(), "-", "")[:sessionIDLen]
		s.createdAt = time.Now().UTC()
	}
	return s.id
}

// ManagedLabels returns the three labels collaborators attach to created
// resources so cleanup and external inspection can identify session-owned
// resources.
func (s *Session) ManagedLabels() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.idLocked()
	return map[string]string{
		LabelManaged: "true",
		LabelSession: id,
		LabelCreated: s.createdAt.Format(time.RFC3339),
	}
}

// Track adds a resource to the tracked set. Tracking an already-tracked
// resource is a no-op.
func (s *Session) Track(r Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked[r] = struct{}{}
}

// Untrack removes a resource from the tracked set. Untracking an absent
// resource is a no-op.
func (s *Session) Untrack(r Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tracked, r)
}

// Tracked returns a snapshot of the currently tracked resources.
func (s *Session) Tracked() []Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Resource, 0, len(s.tracked))
	for r := range s.tracked {
		out = append(out, r)
	}
	return out
}

// Config returns the current configuration.
func (s *Session) Config() SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Configure atomically replaces the session configuration. It fails fast with
// InvalidConfigurationError before any state is mutated: either the whole new
// configuration is installed or none of it.
func (s *Session) Configure(cfg SessionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	if cfg.EnableShutdownHook {
		s.installShutdownHook()
	}
	return nil
}

// CleanupAll removes every tracked resource through the executor and returns
// the count of resources successfully removed. Individual removal failures
// are logged and swallowed so one failure does not block the rest; a resource
// is untracked regardless of outcome to avoid unbounded retry on subsequent
// passes. With zero tracked resources no process is spawned.
//
// The tracked set is snapshotted before iteration, so concurrent Track and
// Untrack calls during cleanup are safe.
func (s *Session) CleanupAll(ctx context.Context) int {
	snapshot := s.Tracked()
	removed := 0
	for _, r := range snapshot {
		_, err := s.exec.Execute(ctx, Request{Args: RemoveArgs(r)})
		s.Untrack(r)
		if err != nil {
			s.logger.Warn("cleanup failed", "resource", r.String(), "err", err)
			continue
		}
		s.logger.Debug("cleaned up", "resource", r.String())
		removed++
	}
	return removed
}

// Reset clears tracked resources, restores the default configuration, and
// forces regeneration of the session id on next access. Test-only escape
// hatch; an installed shutdown hook stays installed for the process lifetime.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	s.createdAt = time.Time{}
	s.tracked = make(map[Resource]struct{})
	s.config = DefaultSessionConfig()
}

// installShutdownHook registers the process-termination hook exactly once.
// On SIGINT/SIGTERM it runs CleanupAll bounded by the configured shutdown
// timeout, then re-raises the signal so the default handler terminates the
// process. Resources not cleaned within the window are abandoned.
func (s *Session) installShutdownHook() {
	s.hookOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-ch
			cfg := s.Config()
			if cfg.CleanupOnShutdown {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				n := s.CleanupAll(ctx)
				cancel()
				s.logger.Debug("shutdown cleanup finished", "removed", n)
			}
			signal.Stop(ch)
			p, _ := os.FindProcess(os.Getpid())
			_ = p.Signal(sig)
		}()
	})
}
