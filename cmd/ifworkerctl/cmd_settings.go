package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ifworker/ifworker/pkg/settings"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage persistent CLI defaults",
		Long: `settings manages the defaults ifworkerd falls back to for flags
like --overloading, --timeout and --ssh-host, stored in
~/.ifworker/settings.json.

  ifworkerctl settings show
  ifworkerctl settings set timeout 30s
  ifworkerctl settings set ssh-host bus.example.com
  ifworkerctl settings clear`,
	}

	cmd.AddCommand(
		newSettingsShowCmd(),
		newSettingsSetCmd(),
		newSettingsGetCmd(),
		newSettingsClearCmd(),
		newSettingsPathCmd(),
	)
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load()
			if err != nil {
				return fmt.Errorf("settings show: %w", err)
			}

			fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SETTING\tVALUE")
			fmt.Fprintln(w, "-------\t-----")
			print := func(name, value string) {
				if value == "" {
					value = "(not set)"
				}
				fmt.Fprintf(w, "%s\t%s\n", name, value)
			}
			print("overloading", fmt.Sprintf("%v", s.CallOverloading))
			print("timeout", s.DefaultTimeout.String())
			print("ssh-host", s.SSHHost)
			print("ssh-user", s.SSHUser)
			print("ssh-port", fmt.Sprintf("%d", s.GetSSHPort()))
			print("ssh-remote-redis", s.SSHRemoteRedis)
			print("audit-log", s.AuditLogPath)
			return w.Flush()
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <setting> <value>",
		Short: "Set a setting value",
		Long: `Available settings:
  overloading      - default for --overloading (true/false)
  timeout          - default for --timeout (Go duration, e.g. 30s)
  ssh-host         - default for --ssh-host
  ssh-user         - default for --ssh-user
  ssh-port         - default for --ssh-port
  ssh-remote-redis - default for --ssh-remote-redis
  audit-log        - default for --audit-log`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load()
			if err != nil {
				s = &settings.Settings{}
			}
			if err := applySetting(s, args[0], args[1]); err != nil {
				return fmt.Errorf("settings set: %w", err)
			}
			if err := s.Save(); err != nil {
				return fmt.Errorf("settings set: %w", err)
			}
			fmt.Printf("%s set to: %s\n", args[0], args[1])
			return nil
		},
	}
}

func applySetting(s *settings.Settings, name, value string) error {
	switch name {
	case "overloading":
		s.CallOverloading = value == "true" || value == "1"
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		s.DefaultTimeout = d
	case "ssh-host":
		s.SSHHost = value
	case "ssh-user":
		s.SSHUser = value
	case "ssh-port":
		var port int
		if _, err := fmt.Sscanf(value, "%d", &port); err != nil {
			return fmt.Errorf("invalid port %q: %w", value, err)
		}
		s.SSHPort = port
	case "ssh-remote-redis":
		s.SSHRemoteRedis = value
	case "audit-log":
		s.AuditLogPath = value
	default:
		return fmt.Errorf("unknown setting: %s (valid: overloading, timeout, ssh-host, ssh-user, ssh-port, ssh-remote-redis, audit-log)", name)
	}
	return nil
}

func newSettingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <setting>",
		Short: "Get a setting value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load()
			if err != nil {
				return fmt.Errorf("settings get: %w", err)
			}

			var value string
			switch args[0] {
			case "overloading":
				value = fmt.Sprintf("%v", s.CallOverloading)
			case "timeout":
				value = s.DefaultTimeout.String()
			case "ssh-host":
				value = s.SSHHost
			case "ssh-user":
				value = s.SSHUser
			case "ssh-port":
				value = fmt.Sprintf("%d", s.GetSSHPort())
			case "ssh-remote-redis":
				value = s.SSHRemoteRedis
			case "audit-log":
				value = s.AuditLogPath
			default:
				return fmt.Errorf("unknown setting: %s", args[0])
			}

			if value == "" || value == "0s" {
				fmt.Println("(not set)")
			} else {
				fmt.Println(value)
			}
			return nil
		},
	}
}

func newSettingsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &settings.Settings{}
			if err := s.Save(); err != nil {
				return fmt.Errorf("settings clear: %w", err)
			}
			fmt.Println("All settings cleared.")
			return nil
		},
	}
}

func newSettingsPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the settings file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(settings.DefaultSettingsPath())
		},
	}
}
