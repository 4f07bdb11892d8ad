// SPDX-License-Identifier: MPL-2.0

package dockercli

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxDiagnosticLen bounds the diagnostic text embedded in a rendered error
// message. The full streams stay available on CommandFailedError.
const maxDiagnosticLen = 200

// defaultTransientMarkers is the built-in vocabulary of case-insensitive
// substrings that mark a non-zero exit as transient. The list is tool-specific
// and drifts with engine releases, so it is overridable via WithTransientMarkers.
var defaultTransientMarkers = []string{
	"connection refused",
	"connection timed out",
	"timeout exceeded",
	"i/o timeout",
	"toomanyrequests",
	"rate limit",
	"503",
	"service unavailable",
	"network is unreachable",
	"port is already allocated",
	"temporary failure resolving",
	"could not resolve host",
}

// daemonMarkers identify output from an engine binary that ran but could not
// reach its backing daemon or service.
var daemonMarkers = []string{
	"cannot connect to the docker daemon",
	"is the docker daemon running",
	"unable to connect to podman",
	"error while dialing",
}

// notFoundMarkers identify output from a lookup that came back empty. They are
// only consulted when the request carried a lookup hint, because "not found"
// alone is too ambiguous to classify without knowing what was being looked up.
var notFoundMarkers = []string{
	"no such container",
	"no such image",
	"no such network",
	"no such volume",
	"no such object",
	"not found",
}

type (
	// LookupHint tells the classifier that the command was a lookup for a
	// specific resource, so a not-found diagnostic can be narrowed to a
	// ResourceNotFoundError instead of a generic CommandFailedError.
	LookupHint struct {
		Kind ResourceKind
		ID   string
	}

	// ClassifierOption configures a Classifier.
	ClassifierOption func(*Classifier)

	// Classifier turns a completed non-zero execution into exactly one
	// taxonomy error. It is stateless after construction and safe for
	// concurrent use.
	Classifier struct {
		transientMarkers []string
	}
)

// WithTransientMarkers replaces the transient-substring vocabulary.
// Matching is case-insensitive.
func WithTransientMarkers(markers []string) ClassifierOption {
	return func(c *Classifier) {
		c.transientMarkers = markers
	}
}

// NewClassifier creates a Classifier with the default transient vocabulary.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{transientMarkers: defaultTransientMarkers}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify maps a non-zero exit to exactly one taxonomy error.
//
// The diagnostic text is stderr, falling back to stdout when stderr is blank.
// Daemon-unreachable output wins over everything else; a not-found diagnostic
// wins when the caller supplied a lookup hint; anything else becomes a
// CommandFailedError whose retryable flag is computed from the transient
// vocabulary. With no diagnostic text at all the message falls back to the
// exit code alone and the error is not retryable.
func (c *Classifier) Classify(command string, exitCode ExitCode, stdout, stderr string, hint *LookupHint) Error {
	diag := strings.TrimSpace(stderr)
	if diag == "" {
		diag = strings.TrimSpace(stdout)
	}
	lower := strings.ToLower(diag)

	for _, marker := range daemonMarkers {
		if strings.Contains(lower, marker) {
			return &DaemonUnavailableError{Reason: truncate(diag, maxDiagnosticLen)}
		}
	}

	if hint != nil {
		for _, marker := range notFoundMarkers {
			if strings.Contains(lower, marker) {
				return &ResourceNotFoundError{Kind: hint.Kind, ID: hint.ID}
			}
		}
	}

	message := truncate(diag, maxDiagnosticLen)
	if message == "" {
		message = fmt.Sprintf("exit code %s with no diagnostic output", exitCode)
	}

	return &CommandFailedError{
		Command:   command,
		ExitCode:  exitCode,
		Stdout:    stdout,
		Stderr:    stderr,
		message:   message,
		retryable: c.isTransient(lower),
	}
}

// isTransient reports whether the lowercased diagnostic text contains any
// transient marker. Empty text carries no signal and is never transient.
func (c *Classifier) isTransient(lowerDiag string) bool {
	if lowerDiag == "" {
		return false
	}
	for _, marker := range c.transientMarkers {
		if strings.Contains(lowerDiag, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// truncate bounds s to max bytes, appending an ellipsis when cut. The cut
// backs off to a rune boundary so a multi-byte rune is never split.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
