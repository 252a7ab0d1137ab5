package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ifworker/ifworker/pkg/cli"
	"github.com/ifworker/ifworker/pkg/rundir"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <name>",
		Short: "Show one run's persisted status snapshot",
		Long: `status prints the most recent status snapshot an ifworkerd run
of the given name has persisted: one row per worker, the run's PID and
whether that process is still alive.

  ifworkerctl status eth0-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRunStatus(args[0])
		},
	}
	return cmd
}

func printRunStatus(name string) error {
	run, err := rundir.Load(name)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if run == nil {
		return fmt.Errorf("status: no run named %q", name)
	}

	fmt.Printf("ifworkerd: %s\n", run.Name)

	statusStr := "finished"
	if run.PID != 0 {
		if rundir.IsProcessAlive(run.PID) {
			statusStr = fmt.Sprintf("%s (pid %d)", cli.Green("running"), run.PID)
		} else {
			statusStr = fmt.Sprintf("%s (pid %d exited)", cli.Red("aborted"), run.PID)
		}
	}
	fmt.Printf("  status:   %s\n", statusStr)

	if !run.Started.IsZero() {
		fmt.Printf("  started:  %s (%s ago)\n", run.Started.Format(time.RFC3339), time.Since(run.Started).Round(time.Second))
	}
	if !run.Finished.IsZero() {
		fmt.Printf("  finished: %s (took %s)\n", run.Finished.Format(time.RFC3339), run.Finished.Sub(run.Started).Round(time.Second))
	}

	if len(run.Workers) == 0 {
		fmt.Println("\n  no workers reported yet")
		return nil
	}

	fmt.Println()
	t := cli.NewTable("INTERFACE", "STATE", "STATUS", "LAST ACTION").WithPrefix("  ")
	done, failed := 0, 0
	for _, w := range run.Workers {
		t.Row(w.Name, w.State, cli.WorkerStatus(w.Done, w.Failed, string(w.FailureKind)), w.LastAction)
		switch {
		case w.Failed:
			failed++
		case w.Done:
			done++
		}
	}
	t.Flush()

	fmt.Printf("\n  progress: %d/%d done", done, len(run.Workers))
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println()
	return nil
}
