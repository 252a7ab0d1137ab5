package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ifworker/ifworker/pkg/util"
	"github.com/ifworker/ifworker/pkg/version"
)

var verboseFlag bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "ifworkerd",
		Short: "Drive network interfaces to a target administrative state",
		Long: `ifworkerd runs the interface lifecycle engine against a fixture of
managed interfaces, bringing each one to its target state over a bus
connection and reporting a final disposition per worker.

  ifworkerd run --ifconfig topology.yaml
  ifworkerd run --ifconfig topology.yaml eth0 eth1
  ifworkerd run --ifconfig topology.yaml --target device-up --timeout 30s`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	}

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		newRunCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				if version.Version == "dev" {
					fmt.Println("ifworkerd dev build")
				} else {
					fmt.Printf("ifworkerd %s (%s)\n", version.Version, version.GitCommit)
				}
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(runExitCode)
}

func setLogLevel() {
	if verboseFlag {
		util.SetLogLevel("debug")
	} else {
		util.SetLogLevel("info")
	}
}
