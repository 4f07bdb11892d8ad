// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"dockhand/internal/config"
	"dockhand/internal/dockercli"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"

	// verbose enables debug-level logging.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string
	// runtimeFlag overrides the configured container runtime.
	runtimeFlag string

	// app state built by setupApp before any subcommand runs.
	appCfg   config.Config
	logger   *log.Logger
	executor *dockercli.Executor
	session  *dockercli.Session

	// rootCmd represents the base command when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "dockhand",
		Short: "A session-aware driver for docker and podman",
		Long: TitleStyle.Render("dockhand") + SubtitleStyle.Render(" - a session-aware driver for docker and podman") + `

dockhand runs container engine commands as subprocesses, classifies
failures into a typed taxonomy with a retryability verdict, and tracks
resources created during the session so they can be cleaned up
deterministically - including on abnormal process termination.

` + SubtitleStyle.Render("Examples:") + `
  dockhand version               Show engine and client version
  dockhand exec -- ps -a         Run a raw engine command
  dockhand run alpine echo hi    Run a labeled, tracked container
  dockhand ps                    List managed containers across sessions
  dockhand cleanup --session x   Remove containers a prior session created`,
		SilenceUsage:      true,
		PersistentPreRunE: setupApp,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/dockhand/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&runtimeFlag, "runtime", "", "container runtime to drive (docker or podman; default auto-detect)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(cleanupCmd)
}

// setupApp loads configuration and wires the executor and session shared by
// every subcommand.
func setupApp(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if runtimeFlag != "" {
		cfg.Runtime = runtimeFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	appCfg = cfg

	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: false,
		Prefix:          "dockhand",
	})

	rt := dockercli.Runtime(cfg.Runtime)
	if rt == "" {
		rt, err = dockercli.DetectRuntime()
		if err != nil {
			return err
		}
		logger.Debug("auto-detected runtime", "runtime", rt)
	}

	sessionCfg := dockercli.SessionConfig{
		EnableShutdownHook: cfg.Session.EnableShutdownHook,
		ShutdownTimeout:    cfg.Session.ShutdownTimeout,
		CleanupOnShutdown:  cfg.Session.CleanupOnShutdown,
	}
	if err := sessionCfg.Validate(); err != nil {
		return err
	}

	executor = dockercli.NewExecutor(rt, dockercli.WithLogger(logger))
	session = dockercli.NewSession(executor,
		dockercli.WithSessionLogger(logger),
		dockercli.WithSessionConfig(sessionCfg),
	)
	return nil
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// printError renders a taxonomy error with its retryability verdict so
// callers scripting around dockhand can decide whether to re-attempt.
func printError(err error) {
	verdict := "permanent"
	if dockercli.IsRetryable(err) {
		verdict = "retryable"
	}
	fmt.Fprintln(os.Stderr, ErrorStyle.Render(fmt.Sprintf("error (%s): %v", verdict, err)))
}
