package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ifworker/ifworker/pkg/rundir"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <name>",
		Short: "Poll a run's status until every worker is terminal",
		Long: `watch re-prints a run's status on an interval until every worker
reports done or failed, or the lock's process is no longer alive.

  ifworkerctl watch eth0-run --interval 1s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			for {
				fmt.Print("\033[2J\033[H")
				if err := printRunStatus(name); err != nil {
					return err
				}

				run, err := rundir.Load(name)
				if err != nil {
					return fmt.Errorf("watch: %w", err)
				}
				if run == nil {
					return fmt.Errorf("watch: no run named %q", name)
				}
				if allWorkersTerminal(run) || (run.PID != 0 && !rundir.IsProcessAlive(run.PID)) {
					return nil
				}
				time.Sleep(interval)
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval")
	return cmd
}

func allWorkersTerminal(run *rundir.State) bool {
	if len(run.Workers) == 0 {
		return false
	}
	for _, w := range run.Workers {
		if !w.Done && !w.Failed {
			return false
		}
	}
	return true
}
