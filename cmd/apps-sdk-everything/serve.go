// serve.go — serve and stdio commands.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MCPJam/apps-sdk-everything/internal/config"
	"github.com/MCPJam/apps-sdk-everything/internal/server"
	"github.com/spf13/cobra"
)

// serverFlags mirrors config.FlagOverrides for the commands that build a server.
type serverFlags struct {
	addr              string
	baseURL           string
	widgetSource      string
	widgetsDir        string
	remoteURL         string
	devHost           bool
	frameOrigins      []string
	openExternalAllow []string
	toolRateLimit     int
	bridgeDir         string
}

func (f *serverFlags) register(cmd *cobra.Command, withHTTP bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.widgetSource, "widget-source", "", "Widget HTML source: embedded, dir or remote")
	fs.StringVar(&f.widgetsDir, "widgets-dir", "", "Template override directory (widget-source dir)")
	fs.StringVar(&f.remoteURL, "remote-url", "", "Deployment to fetch widget pages from (widget-source remote)")
	fs.StringVar(&f.baseURL, "base-url", "", "Public URL written into widget <base> tags")
	fs.IntVar(&f.toolRateLimit, "tool-rate-limit", 0, "Maximum tool calls per minute, 0 disables")
	if !withHTTP {
		return
	}
	fs.StringVar(&f.addr, "addr", "", "HTTP listen address (host:port)")
	fs.BoolVar(&f.devHost, "dev-host", false, "Serve a simulated window.openai host for widget previews")
	fs.StringSliceVar(&f.frameOrigins, "frame-origin", nil, "Origins allowed to frame the widgets (repeatable)")
	fs.StringSliceVar(&f.openExternalAllow, "open-external-allow", nil, "Glob patterns the dev host may open (repeatable)")
	fs.StringVar(&f.bridgeDir, "bridge-dir", "", "Directory holding widget-bridge.wasm and wasm_exec.js to serve under /bridge")
}

// overrides returns FlagOverrides holding only the flags set on cmd.
func (f *serverFlags) overrides(cmd *cobra.Command) *config.FlagOverrides {
	o := &config.FlagOverrides{}
	if changed(cmd, "addr") {
		o.Addr = &f.addr
	}
	if changed(cmd, "base-url") {
		o.BaseURL = &f.baseURL
	}
	if changed(cmd, "widget-source") {
		o.WidgetSource = &f.widgetSource
	}
	if changed(cmd, "widgets-dir") {
		o.WidgetsDir = &f.widgetsDir
	}
	if changed(cmd, "remote-url") {
		o.RemoteURL = &f.remoteURL
	}
	if changed(cmd, "dev-host") {
		o.DevHost = &f.devHost
	}
	if changed(cmd, "frame-origin") {
		o.FrameOrigins = &f.frameOrigins
	}
	if changed(cmd, "open-external-allow") {
		o.OpenExternalAllow = &f.openExternalAllow
	}
	if changed(cmd, "tool-rate-limit") {
		o.ToolRateLimit = &f.toolRateLimit
	}
	if changed(cmd, "bridge-dir") {
		o.BridgeDir = &f.bridgeDir
	}
	return o
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over streamable HTTP plus widget previews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.newServer()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return s.Run(ctx)
		},
	}
	a.server.register(cmd, true)
	return cmd
}

func newStdioCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout",
		Long:  "Serve MCP over stdin/stdout. Logs go to stderr; stdout carries only protocol messages.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The dev host needs the HTTP routes.
			a.cfg.DevHost = false
			s, err := a.newServer()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return s.RunStdio(ctx)
		},
	}
	a.server.register(cmd, false)
	return cmd
}

func (a *app) newServer() (*server.Server, error) {
	return server.New(a.cfg,
		server.WithLogger(a.logger),
		server.WithVersion(version))
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
