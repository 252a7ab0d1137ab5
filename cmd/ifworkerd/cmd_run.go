package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ifworker/ifworker/pkg/audit"
	"github.com/ifworker/ifworker/pkg/binder"
	"github.com/ifworker/ifworker/pkg/graph"
	"github.com/ifworker/ifworker/pkg/inventory"
	"github.com/ifworker/ifworker/pkg/rpcbus"
	"github.com/ifworker/ifworker/pkg/rundir"
	"github.com/ifworker/ifworker/pkg/scenario"
	"github.com/ifworker/ifworker/pkg/scheduler"
	"github.com/ifworker/ifworker/pkg/schema"
	"github.com/ifworker/ifworker/pkg/settings"
	"github.com/ifworker/ifworker/pkg/state"
	"github.com/ifworker/ifworker/pkg/transport/sshbus"
	"github.com/ifworker/ifworker/pkg/util"
	"github.com/ifworker/ifworker/pkg/worker"
)

// services every object in the default directory advertises. The
// binder matches a behavior's ServiceHint against this list exactly,
// so a fixed set covers every edge in pkg/action.Table regardless of
// device kind.
var defaultServices = []string{"device", "firewall", "link", "auth", "addrconf"}

// runExitCode is read by main after rootCmd.Execute returns. It is set
// only by a successful "run" invocation, to the number of failed
// workers; os.Exit happens in main, after every deferred ReleaseLock
// and signal.Stop in RunE has already run.
var runExitCode int

func newRunCmd() *cobra.Command {
	prefs, err := settings.Load()
	if err != nil {
		logrus.WithError(err).Warn("ifworkerd: ignoring unreadable settings file")
		prefs = &settings.Settings{}
	}

	var (
		name           string
		targetName     string
		timeout        time.Duration
		overloading    bool
		sshHost        string
		sshUser        string
		sshPass        string
		sshPort        int
		sshRemoteRedis string
		auditLogPath   string
	)

	cmd := &cobra.Command{
		Use:   "run --ifconfig <path> [interface ...]",
		Short: "Drive a fixture of interfaces to their target states",
		Long: `run loads a topology fixture, builds the worker graph it describes,
and drives every named interface (or every interface in the fixture, if
none are named) to its target state over a bus connection.

  ifworkerd run --ifconfig topology.yaml
  ifworkerd run --ifconfig topology.yaml eth0 eth1
  ifworkerd run --ifconfig topology.yaml --target device-up --timeout 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setLogLevel()

			ifconfig, err := cmd.Flags().GetString("ifconfig")
			if err != nil || ifconfig == "" {
				return fmt.Errorf("run: --ifconfig is required")
			}

			topo, err := scenario.Load(ifconfig)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(ifconfig), filepath.Ext(ifconfig))
			}

			var selected map[string]bool
			if len(args) > 0 {
				selected = make(map[string]bool, len(args))
				for _, n := range args {
					selected[n] = true
				}
			}

			var targetOverride *state.State
			if targetName != "" {
				s, err := state.Parse(targetName)
				if err != nil {
					return fmt.Errorf("run: %w", err)
				}
				targetOverride = &s
			}

			docs, err := topo.Documents()
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			g, err := graph.Build(docs)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			targets, err := topo.Targets()
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			timeouts := topo.Timeouts()

			for _, w := range g.Workers {
				if selected != nil && !selected[w.Name] {
					w.Target = state.Range{Min: state.Min, Max: state.Max}
					continue
				}
				t := targets[w.Name]
				if targetOverride != nil {
					t = *targetOverride
				}
				w.Target = state.Range{Min: t, Max: t}
				if d, ok := timeouts[w.Name]; ok {
					w.Timeout = d
				}
				if timeout != 0 {
					w.Timeout = timeout
				}
			}

			if auditLogger, err := openAuditLogger(auditLogPath, prefs); err != nil {
				logrus.WithError(err).Warn("ifworkerd: audit logging disabled")
			} else if auditLogger != nil {
				audit.SetDefaultLogger(auditLogger)
				defer auditLogger.Close()
			}

			client, closeClient, err := buildClient(sshHost, sshUser, sshPass, sshPort, sshRemoteRedis)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			if closeClient != nil {
				defer closeClient()
			}

			dir, engine := buildDirectory(g)

			opts := scheduler.Options{CallOverloading: overloading}
			if timeout != 0 {
				opts.DefaultTimeout = timeout
			}
			sched := scheduler.New(g, client, dir, engine, opts)

			run := &rundir.State{Name: name, Started: time.Now()}
			if err := rundir.AcquireLock(run); err != nil {
				return fmt.Errorf("run: %w", err)
			}
			defer func() { _ = rundir.ReleaseLock(run) }()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				<-sigCh
				logrus.Warn("ifworkerd: received interrupt, cancelling run")
				sched.Cancel()
				cancel()
			}()

			failed := driveToSettled(ctx, sched, client)

			interruptedKind := util.KindCancelled
			if ctx.Err() == nil {
				interruptedKind = util.KindTimeout
			}
			run.Finished = time.Now()
			run.Workers = rundir.Snapshot(sched.Dispositions(interruptedKind), func(idx int) string {
				return g.WorkerAt(idx).State.String()
			})
			if err := rundir.Save(run); err != nil {
				logrus.WithError(err).Warn("ifworkerd: failed to persist run snapshot")
			}

			event := audit.NewEvent(currentUsername(), name, "run").
				WithInterfaces(drivenNames(g, selected)).
				WithFailedWorkers(failedNames(run)).
				WithDuration(run.Finished.Sub(run.Started)).
				WithLiveBus(sshHost != "")
			if failed > 0 {
				event = event.WithError(fmt.Errorf("%d workers failed", failed))
			} else {
				event = event.WithSuccess()
			}
			if ctx.Err() != nil {
				event = event.WithSeverity(audit.SeverityWarning)
			}
			if err := audit.Log(event); err != nil {
				logrus.WithError(err).Warn("ifworkerd: failed to write audit event")
			}

			logrus.WithField("failed", failed).Info("ifworkerd: run complete")
			if failed > 255 {
				failed = 255
			}
			runExitCode = failed
			return nil
		},
	}

	cmd.Flags().String("ifconfig", "", "path to a topology fixture (required)")
	cmd.MarkFlagRequired("ifconfig")
	cmd.Flags().StringVar(&name, "name", "", "run name, used for the lock and status snapshot (defaults to the fixture's filename)")
	cmd.Flags().StringVar(&targetName, "target", "", "override every selected interface's declared target state")
	cmd.Flags().DurationVar(&timeout, "timeout", prefs.DefaultTimeout, "override every worker's per-action timeout")
	cmd.Flags().BoolVar(&overloading, "overloading", prefs.CallOverloading, "allow more than one type-checking call overload to resolve silently")
	cmd.Flags().StringVar(&sshHost, "ssh-host", prefs.SSHHost, "dial a remote bus daemon over SSH instead of running in-memory")
	cmd.Flags().StringVar(&sshUser, "ssh-user", prefs.SSHUser, "SSH username for --ssh-host")
	cmd.Flags().StringVar(&sshPass, "ssh-pass", "", "SSH password for --ssh-host")
	cmd.Flags().IntVar(&sshPort, "ssh-port", prefs.GetSSHPort(), "SSH port for --ssh-host")
	remoteRedisDefault := prefs.SSHRemoteRedis
	if remoteRedisDefault == "" {
		remoteRedisDefault = "127.0.0.1:6379"
	}
	cmd.Flags().StringVar(&sshRemoteRedis, "ssh-remote-redis", remoteRedisDefault, "address of the bus daemon's Redis listener, as seen from --ssh-host")
	cmd.Flags().StringVar(&auditLogPath, "audit-log", prefs.AuditLogPath, "path to the audit log (defaults to ~/.ifworker/audit.log)")

	return cmd
}

// openAuditLogger opens the audit log at path, or at the default
// location under the user's home directory if path is empty. It
// returns a nil logger (not an error) when no home directory can be
// found and no explicit path was given, so a run still proceeds
// unaudited rather than failing outright.
func openAuditLogger(path string, prefs *settings.Settings) (*audit.FileLogger, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil
		}
		path = filepath.Join(home, ".ifworker", "audit.log")
	}
	rotation := audit.RotationConfig{
		MaxSize:    int64(prefs.GetAuditMaxSizeMB()) << 20,
		MaxBackups: prefs.GetAuditMaxBackups(),
	}
	return audit.NewFileLogger(path, rotation)
}

// currentUsername reports the OS user driving the run, or "unknown"
// when it cannot be looked up.
func currentUsername() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

// drivenNames reports every worker name the run actually targeted: all
// of them if no positional interface args were given, or just the
// selected subset otherwise.
func drivenNames(g *graph.Graph, selected map[string]bool) []string {
	names := make([]string, 0, len(g.Workers))
	for _, w := range g.Workers {
		if selected != nil && !selected[w.Name] {
			continue
		}
		names = append(names, w.Name)
	}
	return names
}

// failedNames extracts the worker names left in a failed disposition
// from a saved run snapshot.
func failedNames(run *rundir.State) []string {
	var names []string
	for _, w := range run.Workers {
		if w.Failed {
			names = append(names, w.Name)
		}
	}
	return names
}

// buildClient returns rpcbus.Fake for a dry run (no --ssh-host given) or
// dials a real bus over SSH. The fake is pre-wired with nothing: a dry
// run exists to exercise the graph and scheduler against a fixture, not
// to simulate specific device replies.
func buildClient(host, user, pass string, port int, remoteRedis string) (rpcbus.Client, func(), error) {
	if host == "" {
		logrus.Info("ifworkerd: no --ssh-host given, running against an in-memory bus")
		return rpcbus.NewFake(), nil, nil
	}
	c, err := sshbus.Dial(host, user, pass, port, remoteRedis)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", host, err)
	}
	return c, func() { _ = c.Close() }, nil
}

// buildDirectory wires a binder.StaticDirectory and schema.Static that
// answer for every worker in g: a factory path per kind and an object
// path per worker, each advertising the full defaultServices list, plus
// one permissive signature per (service, method) pair pkg/action.Table
// names. A live deployment would instead introspect these from the bus;
// this reference directory assumes the deterministic
// "/org/ifworker/..." naming convention its own sshbus daemon-side
// counterpart would register devices under.
func buildDirectory(g *graph.Graph) (binder.ObjectDirectory, schema.Engine) {
	dir := binder.NewStaticDirectory()
	for _, kind := range []worker.Kind{
		worker.KindEthernet, worker.KindBridge, worker.KindBond,
		worker.KindVLAN, worker.KindWireless, worker.KindModem, worker.KindTunnel,
	} {
		dir.Factories[kind] = "/org/ifworker/factory/" + kind.String()
	}
	for _, w := range g.Workers {
		dir.Objects["/org/ifworker/interface/"+w.Name] = defaultServices
	}

	engine := schema.NewStatic()
	register := func(service, method string, role schema.Role) {
		engine.Register(schema.Signature{Service: service, Method: method, Role: role})
	}
	register("device", "create", schema.RoleFactory)
	register("device", "up", schema.RoleCall)
	register("device", "down", schema.RoleCall)
	register("device", "delete", schema.RoleCall)
	register("firewall", "up", schema.RoleCall)
	register("firewall", "down", schema.RoleCall)
	register("link", "up", schema.RoleCall)
	register("link", "down", schema.RoleCall)
	register("auth", "authenticate", schema.RoleCall)
	register("auth", "deauthenticate", schema.RoleCall)
	register("addrconf", "up", schema.RoleCall)
	register("addrconf", "down", schema.RoleCall)
	return dir, engine
}

// driveToSettled runs the scheduler until every worker is done or
// failed, draining signals from client when it is also an
// rpcbus.SignalSource (every shipped client is). Once every worker has
// settled it calls BringDownFailed so a worker that failed past
// DeviceExists gets its reverse plan queued, then drives the graph
// through that plan before reporting. It returns the number of workers
// left in a failed disposition after the bring-down has run.
func driveToSettled(ctx context.Context, sched *scheduler.Scheduler, client rpcbus.Client) int {
	var signals <-chan rpcbus.Signal
	if src, ok := client.(rpcbus.SignalSource); ok {
		signals = src.Signals()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		sched.RunUntilSettled(ctx, len(sched.Graph.Workers)+1)
		if allSettled(sched) {
			break
		}

		select {
		case <-ctx.Done():
			sched.Cancel()
			return countFailed(sched)
		case sig := <-signals:
			deliverSignal(sched, sig)
		case <-ticker.C:
			sched.CheckTimeouts(time.Now())
		}
	}

	sched.BringDownFailed()
	sched.RunUntilSettled(ctx, len(sched.Graph.Workers)+1)
	return countFailed(sched)
}

// deliverSignal routes one bus frame to the scheduler method that
// consumes its kind: completions advance a worker's pending action,
// discovery deltas fold into inventory the way inventory.Watcher
// translates them (duplicated here, not reused, since a SignalSource
// supports only one consumer and the completion half of the stream is
// this loop's concern, not inventory.Watcher's).
func deliverSignal(sched *scheduler.Scheduler, sig rpcbus.Signal) {
	switch sig.Kind {
	case rpcbus.SignalCompletion:
		sched.DeliverCompletion(sig.CallbackID, sig.Err)
	case rpcbus.SignalDeviceCreated:
		sched.DeliverInventory(inventory.Change{Name: sig.Name, IfIndex: sig.IfIndex, ObjectPath: sig.ObjectPath, Kind: inventory.Created})
	case rpcbus.SignalDeviceDeleted:
		sched.DeliverInventory(inventory.Change{Name: sig.Name, IfIndex: sig.IfIndex, ObjectPath: sig.ObjectPath, Kind: inventory.Deleted})
	case rpcbus.SignalLinkChanged:
		sched.DeliverInventory(inventory.Change{Name: sig.Name, IfIndex: sig.IfIndex, ObjectPath: sig.ObjectPath, Kind: inventory.LinkChanged})
	}
}

func allSettled(sched *scheduler.Scheduler) bool {
	for _, w := range sched.Graph.Workers {
		if !w.Done && !w.Failed {
			return false
		}
	}
	return true
}

func countFailed(sched *scheduler.Scheduler) int {
	n := 0
	for _, w := range sched.Graph.Workers {
		if w.Failed {
			n++
		}
	}
	return n
}

