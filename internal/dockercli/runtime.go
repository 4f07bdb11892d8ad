// SPDX-License-Identifier: MPL-2.0

package dockercli

import (
	"os/exec"
)

const (
	// RuntimeDocker drives the docker CLI.
	RuntimeDocker Runtime = "docker"
	// RuntimePodman drives the podman CLI.
	RuntimePodman Runtime = "podman"
)

// Runtime identifies which container engine binary is being driven.
type Runtime string

// String returns the string representation of the Runtime.
func (r Runtime) String() string { return string(r) }

// Binary returns the binary name looked up on the search path.
func (r Runtime) Binary() string { return string(r) }

// Validate returns an error if the Runtime is not one of the defined runtimes.
func (r Runtime) Validate() error {
	switch r {
	case RuntimeDocker, RuntimePodman:
		return nil
	default:
		return &InvalidConfigurationError{Message: "unknown runtime " + string(r)}
	}
}

// versionArgs returns the engine-specific version probe arguments.
// Docker reports the client version; podman has a single version field.
func (r Runtime) versionArgs() []string {
	if r == RuntimePodman {
		return []string{"version", "--format", "{{.Version}}"}
	}
	return []string{"version", "--format", "{{.Client.Version}}"}
}

// DetectRuntime finds an available container runtime on the search path,
// trying docker first and falling back to podman. It only checks binary
// presence; daemon reachability surfaces later as a classified error.
func DetectRuntime() (Runtime, error) {
	for _, rt := range []Runtime{RuntimeDocker, RuntimePodman} {
		if _, err := exec.LookPath(rt.Binary()); err == nil {
			return rt, nil
		}
	}
	return "", &ExecutableNotFoundError{Binary: "docker (or podman)"}
}
