// SPDX-License-Identifier: MPL-2.0

package dockercli

import (
	"fmt"
	"sort"
)

// RunOptions contains options for running a container.
type RunOptions struct {
	// Image is the image to run.
	Image string
	// Command is the command to run inside the container.
	Command []string
	// Name is the container name.
	Name string
	// WorkDir is the working directory inside the container.
	WorkDir string
	// Env contains environment variables set inside the container.
	Env map[string]string
	// Labels are applied to the created container; session-managed labels
	// from ManagedLabels go here.
	Labels map[string]string
	// Detach starts the container in the background and prints its ID.
	Detach bool
	// Remove automatically removes the container after exit.
	Remove bool
}

// Resource identifies one engine resource tracked for cleanup.
type Resource struct {
	Kind ResourceKind
	ID   string
}

// String returns the resource in "kind/id" form.
func (r Resource) String() string { return string(r.Kind) + "/" + r.ID }

// RunArgs constructs arguments for a container run command.
// Map-backed options are emitted in sorted key order so the generated vector
// is deterministic.
//
// Generated command: <binary> run [options] <image> [command...]
func RunArgs(opts RunOptions) []string {
	args := []string{"run"}

	if opts.Detach {
		args = append(args, "-d")
	}
	if opts.Remove {
		args = append(args, "--rm")
	}
	if opts.Name != "" {
		args = append(args, "--name", opts.Name)
	}
	if opts.WorkDir != "" {
		args = append(args, "-w", opts.WorkDir)
	}
	for _, k := range sortedKeys(opts.Env) {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, opts.Env[k]))
	}
	for _, k := range sortedKeys(opts.Labels) {
		args = append(args, "--label", fmt.Sprintf("%s=%s", k, opts.Labels[k]))
	}

	args = append(args, opts.Image)
	args = append(args, opts.Command...)

	return args
}

// RemoveArgs constructs the forced-removal arguments for a tracked resource.
// Each kind maps to its own subcommand.
func RemoveArgs(r Resource) []string {
	switch r.Kind {
	case ResourceImage:
		return []string{"rmi", "-f", r.ID}
	case ResourceNetwork:
		return []string{"network", "rm", r.ID}
	case ResourceVolume:
		return []string{"volume", "rm", "-f", r.ID}
	default:
		return []string{"rm", "-f", r.ID}
	}
}

// PsArgs constructs arguments listing all containers owned by the given
// session, matched by the session label.
func PsArgs(sessionID string) []string {
	return []string{
		"ps", "-a",
		"--filter", fmt.Sprintf("label=%s=%s", LabelSession, sessionID),
		"--format", "{{.ID}}\t{{.Names}}\t{{.Status}}",
	}
}

// PsManagedArgs constructs arguments listing every container carrying the
// managed label, regardless of which session created it.
func PsManagedArgs() []string {
	return []string{
		"ps", "-a",
		"--filter", fmt.Sprintf("label=%s=true", LabelManaged),
		"--format", "{{.ID}}\t{{.Names}}\t{{.Status}}",
	}
}

// PsIDArgs constructs arguments listing only the ids of containers owned by
// the given session, one per line.
func PsIDArgs(sessionID string) []string {
	return []string{
		"ps", "-aq",
		"--filter", fmt.Sprintf("label=%s=%s", LabelSession, sessionID),
	}
}

// InspectArgs constructs arguments for inspecting a single resource.
// Callers pair this with a LookupHint so an empty lookup classifies as
// ResourceNotFoundError.
func InspectArgs(r Resource) []string {
	switch r.Kind {
	case ResourceImage:
		return []string{"image", "inspect", r.ID}
	case ResourceNetwork:
		return []string{"network", "inspect", r.ID}
	case ResourceVolume:
		return []string{"volume", "inspect", r.ID}
	default:
		return []string{"container", "inspect", r.ID}
	}
}

// GenerateKubeArgs constructs arguments for exporting containers as a
// Kubernetes manifest. Only podman implements the generate subcommand; on
// docker this is an UnsupportedOperationError.
func GenerateKubeArgs(rt Runtime, containerIDs []string) ([]string, error) {
	if rt != RuntimePodman {
		return nil, &UnsupportedOperationError{Command: "generate kube", Runtime: rt}
	}
	args := []string{"generate", "kube"}
	args = append(args, containerIDs...)
	return args, nil
}

// sortedKeys returns the map keys in ascending order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
