package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ifworker/ifworker/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ifworkerctl",
		Short: "Inspect a running or finished ifworkerd run",
		Long: `ifworkerctl reads the PID lock and per-worker status snapshot an
ifworkerd run persists under ~/.ifworker/run/<name>/.

  ifworkerctl status eth0-run
  ifworkerctl watch eth0-run`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	}

	rootCmd.AddCommand(
		newStatusCmd(),
		newWatchCmd(),
		newSettingsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				if version.Version == "dev" {
					fmt.Println("ifworkerctl dev build")
				} else {
					fmt.Printf("ifworkerctl %s (%s)\n", version.Version, version.GitCommit)
				}
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
