// SPDX-License-Identifier: MPL-2.0

package dockercli

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrExecutableNotFound is the sentinel error wrapped by ExecutableNotFoundError.
	ErrExecutableNotFound = errors.New("container engine binary not found")

	// ErrDaemonUnavailable is the sentinel error wrapped by DaemonUnavailableError.
	ErrDaemonUnavailable = errors.New("container engine daemon unavailable")

	// ErrCommandFailed is the sentinel error wrapped by CommandFailedError.
	ErrCommandFailed = errors.New("container engine command failed")

	// ErrTimeout is the sentinel error wrapped by TimeoutError.
	ErrTimeout = errors.New("container engine command timed out")

	// ErrResourceNotFound is the sentinel error wrapped by ResourceNotFoundError.
	ErrResourceNotFound = errors.New("container engine resource not found")

	// ErrInvalidConfiguration is the sentinel error wrapped by InvalidConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUnsupportedOperation is the sentinel error wrapped by UnsupportedOperationError.
	ErrUnsupportedOperation = errors.New("operation not supported by runtime")
)

type (
	// Error is the closed set of failures this package produces. Every variant
	// reports whether the underlying condition is believed transient via
	// Retryable. The unexported marker method keeps the set closed: consumers
	// switch over the known variants and the compiler sees every one of them.
	Error interface {
		error
		// Retryable reports whether re-attempting the failed operation is
		// believed safe and potentially useful. It is a pure function of the
		// variant and its payload.
		Retryable() bool

		dockerError()
	}

	// ResourceKind identifies the class of engine resource a lookup or cleanup
	// operation refers to.
	ResourceKind string

	// ExecutableNotFoundError is returned when the engine binary is absent
	// from the search path. No process is spawned.
	ExecutableNotFoundError struct {
		// Binary is the binary name that could not be resolved (e.g. "docker").
		Binary string
	}

	// DaemonUnavailableError is returned when the engine binary ran but could
	// not reach its backing daemon or service.
	DaemonUnavailableError struct {
		// Reason is the diagnostic line that triggered the classification.
		Reason string
	}

	// CommandFailedError is returned when the engine process ran to completion
	// with a non-zero exit code and the diagnostic output matched no more
	// specific variant.
	CommandFailedError struct {
		// Command is the full command line, preserved verbatim.
		Command string
		// ExitCode is the process exit status.
		ExitCode ExitCode
		// Stdout and Stderr hold the full captured streams for programmatic
		// inspection; the rendered message is truncated, these are not.
		Stdout string
		Stderr string

		message   string
		retryable bool
	}

	// TimeoutError is returned when the process did not complete within the
	// allotted duration and was terminated.
	TimeoutError struct {
		// Duration is the timeout that elapsed.
		Duration time.Duration
	}

	// ResourceNotFoundError is returned when a lookup for a container, image,
	// network, or volume came back empty.
	ResourceNotFoundError struct {
		Kind ResourceKind
		ID   string
	}

	// InvalidConfigurationError is returned when caller-supplied options are
	// self-contradictory, before any process is spawned or state is mutated.
	InvalidConfigurationError struct {
		Message string
	}

	// UnsupportedOperationError is returned when the active runtime does not
	// implement a requested command.
	UnsupportedOperationError struct {
		Command string
		Runtime Runtime
	}

	// GenericError is the catch-all for failures that fit no other variant.
	GenericError struct {
		Message string
		Cause   error
	}
)

const (
	// ResourceContainer identifies a container resource.
	ResourceContainer ResourceKind = "container"
	// ResourceImage identifies an image resource.
	ResourceImage ResourceKind = "image"
	// ResourceNetwork identifies a network resource.
	ResourceNetwork ResourceKind = "network"
	// ResourceVolume identifies a volume resource.
	ResourceVolume ResourceKind = "volume"
)

// String returns the string representation of the ResourceKind.
func (k ResourceKind) String() string { return string(k) }

// Validate returns an error if the ResourceKind is not one of the defined kinds.
func (k ResourceKind) Validate() error {
	switch k {
	case ResourceContainer, ResourceImage, ResourceNetwork, ResourceVolume:
		return nil
	default:
		return &InvalidConfigurationError{Message: fmt.Sprintf("unknown resource kind %q", k)}
	}
}

// Error implements the error interface.
func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("executable %q not found in PATH", e.Binary)
}

// Unwrap returns ErrExecutableNotFound so callers can use errors.Is for detection.
func (e *ExecutableNotFoundError) Unwrap() error { return ErrExecutableNotFound }

// Retryable is always false: installing the binary requires operator intervention.
func (e *ExecutableNotFoundError) Retryable() bool { return false }

func (e *ExecutableNotFoundError) dockerError() {}

// Error implements the error interface.
func (e *DaemonUnavailableError) Error() string {
	if e.Reason == "" {
		return "container engine daemon is not reachable"
	}
	return fmt.Sprintf("container engine daemon is not reachable: %s", e.Reason)
}

// Unwrap returns ErrDaemonUnavailable so callers can use errors.Is for detection.
func (e *DaemonUnavailableError) Unwrap() error { return ErrDaemonUnavailable }

// Retryable is always true: daemon outages are transient by definition.
func (e *DaemonUnavailableError) Retryable() bool { return true }

func (e *DaemonUnavailableError) dockerError() {}

// Error implements the error interface.
func (e *CommandFailedError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("command %q failed with exit code %s", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q failed with exit code %s: %s", e.Command, e.ExitCode, e.message)
}

// Unwrap returns ErrCommandFailed so callers can use errors.Is for detection.
func (e *CommandFailedError) Unwrap() error { return ErrCommandFailed }

// Retryable reports whether the diagnostic output matched a known transient
// condition at classification time.
func (e *CommandFailedError) Retryable() bool { return e.retryable }

func (e *CommandFailedError) dockerError() {}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command did not complete within %s", e.Duration)
}

// Unwrap returns ErrTimeout so callers can use errors.Is for detection.
func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// Retryable is always true: timeouts are transient by definition.
func (e *TimeoutError) Retryable() bool { return true }

func (e *TimeoutError) dockerError() {}

// Error implements the error interface.
func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Unwrap returns ErrResourceNotFound so callers can use errors.Is for detection.
func (e *ResourceNotFoundError) Unwrap() error { return ErrResourceNotFound }

// Retryable is always false: a missing resource will not appear on re-attempt.
func (e *ResourceNotFoundError) Retryable() bool { return false }

func (e *ResourceNotFoundError) dockerError() {}

// Error implements the error interface.
func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

// Unwrap returns ErrInvalidConfiguration so callers can use errors.Is for detection.
func (e *InvalidConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// Retryable is always false: the caller must fix the options first.
func (e *InvalidConfigurationError) Retryable() bool { return false }

func (e *InvalidConfigurationError) dockerError() {}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%q is not supported by the %s runtime", e.Command, e.Runtime)
}

// Unwrap returns ErrUnsupportedOperation so callers can use errors.Is for detection.
func (e *UnsupportedOperationError) Unwrap() error { return ErrUnsupportedOperation }

// Retryable is always false: the runtime will not grow the command on re-attempt.
func (e *UnsupportedOperationError) Retryable() bool { return false }

func (e *UnsupportedOperationError) dockerError() {}

// Error implements the error interface.
func (e *GenericError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *GenericError) Unwrap() error { return e.Cause }

// Retryable is false by default: an unclassified failure carries no evidence
// of transience.
func (e *GenericError) Retryable() bool { return false }

func (e *GenericError) dockerError() {}

// IsRetryable reports whether err (or any error in its chain) is a taxonomy
// error whose Retryable flag is set. Context cancellation and deadline errors
// are never retryable: the caller explicitly stopped the operation.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var derr Error
	if errors.As(err, &derr) {
		return derr.Retryable()
	}
	return false
}
