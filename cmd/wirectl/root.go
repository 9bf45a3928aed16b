package main

import (
	"fmt"
	"strings"

	"github.com/danmuck/tcpwire/internal/config"
	"github.com/danmuck/tcpwire/internal/logging"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

type rootOptions struct {
	configPath string
	logLevel   string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{cfg: config.Default()}
	cmd := &cobra.Command{
		Use:           "wirectl",
		Short:         "Exchange frames over raw or line-hex TCP transports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.ConfigureRuntime()
			if path := strings.TrimSpace(opts.configPath); path != "" {
				cfg, err := config.Load(path)
				if err != nil {
					return err
				}
				opts.cfg = cfg
			}
			level := opts.cfg.LogLevel
			if cmd.Flags().Changed("log-level") {
				level = opts.logLevel
			}
			if level != "" && !logging.SetLevel(level) {
				return fmt.Errorf("unknown log level %q", level)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.toml")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "trace|debug|info|warn|error|off")

	cmd.AddCommand(
		newSendCmd(opts),
		newListenCmd(opts),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage config files",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a config.toml populated with defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wirectl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
