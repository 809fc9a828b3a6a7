// root.go — Cobra command tree and the shared config/logger cascade.
package main

import (
	"fmt"
	"os"

	"github.com/MCPJam/apps-sdk-everything/internal/config"
	"github.com/MCPJam/apps-sdk-everything/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the state shared by every subcommand after PersistentPreRunE.
type app struct {
	projectDir string
	logLevel   string
	logFormat  string
	server     serverFlags

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "apps-sdk-everything",
		Short: "Apps SDK demo server: mock tools, widget resources and a local host",
		Long: `apps-sdk-everything serves a catalog of demo MCP tools whose results render
HTML widgets inside a chat host. Every window.openai capability has a widget
exercising it; run with --dev-host to preview widgets against a simulated host.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.projectDir, "project-dir", "", "Directory holding .apps-sdk-everything.yaml (default: working directory)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: json or console")

	root.AddCommand(
		newServeCmd(a),
		newStdioCmd(a),
		newWidgetsCmd(a),
		newToolsCmd(a),
		newRenderCmd(a),
		newCallCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the config cascade with only the flags the user set, then
// builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	dir := a.projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("cannot determine working directory: %w", err)
		}
		dir = wd
	}

	flags := a.server.overrides(cmd)
	if changed(cmd, "log-level") {
		flags.LogLevel = &a.logLevel
	}
	if changed(cmd, "log-format") {
		flags.LogFormat = &a.logFormat
	}

	cfg, err := config.Load(dir, flags)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// changed reports whether the flag exists on cmd and was set explicitly.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No config needed to print the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "apps-sdk-everything %s\n", version)
		},
	}
}
