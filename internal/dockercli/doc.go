// SPDX-License-Identifier: MPL-2.0

// Package dockercli drives a container engine binary (docker or podman) as a
// subprocess and surfaces the outcome as typed values: an immutable Result on
// success, or one of a closed set of classified errors on failure. It also
// keeps per-process session state so that resources created through it can be
// labeled, tracked, and cleaned up when the process exits.
//
// The package never talks to a daemon socket. All interaction happens through
// spawning the engine binary and reading its exit code and standard streams.
package dockercli
