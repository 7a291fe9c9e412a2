package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tristarlabs/stackup/internal/supervisor"
)

// Version is stamped at build time.
var Version = "dev"

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(supervisor.ExitCode(err))
	}
}

func buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "stackup",
		Short:         "Bring up and supervise the local backend + frontend dev stack",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var upFlags UpFlags
	up := &cobra.Command{
		Use:   "up",
		Short: "Install, start and supervise both services until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(upFlags)
		},
	}
	up.Flags().StringVarP(&upFlags.ConfigPath, "config", "c", "", "path to stackup.toml (defaults apply when omitted)")
	up.Flags().BoolVar(&upFlags.SkipPreflight, "skip-preflight", false, "skip the npm/node preflight check")
	up.Flags().BoolVar(&upFlags.NoBrowser, "no-browser", false, "do not open the frontend in a browser")
	up.Flags().BoolVar(&upFlags.Pause, "pause", false, "wait for Enter before exiting")
	up.Flags().StringVar(&upFlags.HTTPListen, "http-listen", "", "serve the status API on this address (overrides config)")
	up.Flags().StringVar(&upFlags.LogLevel, "log-level", "", "log level: debug|info|warn|error")

	var checkFlags CheckFlags
	check := &cobra.Command{
		Use:   "check",
		Short: "Verify the package manager and runtime are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(checkFlags)
		},
	}
	check.Flags().StringVarP(&checkFlags.ConfigPath, "config", "c", "", "path to stackup.toml")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the stackup version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}

	root.AddCommand(up, check, version)
	// Bare `stackup` behaves like `stackup up`, matching the original
	// double-click workflow.
	root.RunE = up.RunE
	root.Flags().AddFlagSet(up.Flags())
	return root
}
