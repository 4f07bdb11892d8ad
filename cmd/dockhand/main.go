// SPDX-License-Identifier: MPL-2.0

// Command dockhand drives a container engine binary (docker or podman) with
// session-scoped resource tracking and deterministic cleanup.
package main

func main() {
	Execute()
}
