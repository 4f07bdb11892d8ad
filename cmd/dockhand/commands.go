// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"strings"

	"dockhand/internal/dockercli"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the engine version reported by the runtime binary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := executor.Version(cmd.Context())
		if err != nil {
			printError(err)
			return err
		}
		fmt.Printf("client: %s\n", Version)
		fmt.Printf("engine: %s (%s)\n", v, executor.Runtime())
		return nil
	},
}

var execCmd = &cobra.Command{
	Use:   "exec -- <args...>",
	Short: "Run a raw engine command and print its output",
	Long: `Runs the engine binary with the given argument vector, bounded by the
configured timeout, and prints the captured standard output. The exit
status and streams are passed through untouched; failures are classified
and reported with a retryability verdict.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := executor.Execute(cmd.Context(), dockercli.Request{
			Args:    args,
			Timeout: appCfg.Timeout,
		})
		if err != nil {
			printError(err)
			return err
		}
		fmt.Print(res.Stdout)
		if res.Stderr != "" {
			fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)
		}
		logger.Debug("exec finished", "duration", res.Duration)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <image> [command...]",
	Short: "Run a detached container labeled and tracked by this session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := dockercli.RunOptions{
			Image:   args[0],
			Command: args[1:],
			Labels:  session.ManagedLabels(),
			Detach:  true,
		}
		res, err := executor.Execute(cmd.Context(), dockercli.Request{
			Args:    dockercli.RunArgs(opts),
			Timeout: appCfg.Timeout,
		})
		if err != nil {
			printError(err)
			return err
		}
		containerID := strings.TrimSpace(res.Stdout)
		session.Track(dockercli.Resource{Kind: dockercli.ResourceContainer, ID: containerID})
		fmt.Println(SuccessStyle.Render("started " + containerID + " (session " + session.ID() + ")"))
		return nil
	},
}

var (
	// psSessionID narrows ps to one session; empty lists all managed containers.
	psSessionID string
	// cleanupSessionID targets a prior invocation's containers by session id.
	cleanupSessionID string
)

func init() {
	psCmd.Flags().StringVar(&psSessionID, "session", "", "only list containers owned by this session id")
	cleanupCmd.Flags().StringVar(&cleanupSessionID, "session", "", "remove containers owned by this session id instead of the current process's tracked set")
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List managed containers",
	Long: `Lists containers carrying the managed label, across every session.
Pass --session to narrow the listing to the containers a single
invocation created (the session id is part of dockhand run's labels).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		args := dockercli.PsManagedArgs()
		if psSessionID != "" {
			args = dockercli.PsArgs(psSessionID)
		}
		res, err := executor.Execute(cmd.Context(), dockercli.Request{
			Args:    args,
			Timeout: appCfg.Timeout,
		})
		if err != nil {
			printError(err)
			return err
		}
		out := strings.TrimSpace(res.Stdout)
		if out == "" {
			fmt.Println(SubtitleStyle.Render("no managed containers"))
			return nil
		}
		fmt.Println(out)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove resources tracked by a session",
	Long: `Removes every resource tracked by the current process. Since each
process gets its own session, pass --session with the id printed by an
earlier invocation to remove the containers it left behind.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cleanupSessionID != "" {
			return cleanupBySessionID(cmd, cleanupSessionID)
		}
		tracked := len(session.Tracked())
		removed := session.CleanupAll(cmd.Context())
		fmt.Println(SuccessStyle.Render(fmt.Sprintf("removed %d of %d tracked resources", removed, tracked)))
		return nil
	},
}

// cleanupBySessionID removes the containers labeled with the given session id,
// mirroring CleanupAll's swallow-and-count behavior for resources created by
// an earlier process.
func cleanupBySessionID(cmd *cobra.Command, sessionID string) error {
	res, err := executor.Execute(cmd.Context(), dockercli.Request{
		Args:    dockercli.PsIDArgs(sessionID),
		Timeout: appCfg.Timeout,
	})
	if err != nil {
		printError(err)
		return err
	}
	ids := strings.Fields(res.Stdout)
	removed := 0
	for _, id := range ids {
		r := dockercli.Resource{Kind: dockercli.ResourceContainer, ID: id}
		_, err := executor.Execute(cmd.Context(), dockercli.Request{
			Args:    dockercli.RemoveArgs(r),
			Timeout: appCfg.Timeout,
		})
		if err != nil {
			logger.Warn("cleanup failed", "resource", r.String(), "err", err)
			continue
		}
		removed++
	}
	fmt.Println(SuccessStyle.Render(fmt.Sprintf("removed %d of %d containers for session %s", removed, len(ids), sessionID)))
	return nil
}
