// call.go — call command: invoke one tool on a running server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MCPJam/apps-sdk-everything/internal/mcpclient"
	"github.com/MCPJam/apps-sdk-everything/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errToolFailed marks a call that reached the tool but got an isError result.
var errToolFailed = errors.New("tool call failed")

func newCallCmd(a *app) *cobra.Command {
	var (
		serverURL string
		format    string
		timeout   time.Duration
		wait      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "call <tool> [key=value ...]",
		Short: "Call a tool on a running server",
		Long: `Call a tool on a running server over streamable HTTP.

Each key=value argument becomes a tool argument. Values that parse as JSON
keep their type (numbers, booleans, objects); anything else is a string.`,
		Example: `  apps-sdk-everything call calculator operation=multiply a=6 b=7
  apps-sdk-everything call search_items query=desk limit=2 --format csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !output.ValidFormat(format) {
				return fmt.Errorf("invalid format %q (want human, json or csv)", format)
			}
			toolArgs, err := parseToolArgs(args[1:])
			if err != nil {
				return err
			}
			if serverURL == "" {
				serverURL = "http://" + a.cfg.Addr
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client := mcpclient.New(serverURL, &http.Client{}, version)
			if wait > 0 && !client.WaitForServer(ctx, wait) {
				return fmt.Errorf("server not running at %s", client.BaseURL())
			}

			a.logger.Debug("calling tool", zap.String("tool", args[0]), zap.String("server", client.BaseURL()))
			res, err := client.CallTool(ctx, args[0], toolArgs)
			if err != nil {
				return err
			}

			result := output.BuildResult(args[0], res)
			if err := output.GetFormatter(format).Format(cmd.OutOrStdout(), result); err != nil {
				return fmt.Errorf("format output: %w", err)
			}
			if !result.Success {
				cmd.SilenceErrors = true
				return errToolFailed
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&serverURL, "server", "", "Server base URL (default: http://<addr> from config)")
	fs.StringVar(&format, "format", output.FormatHuman, "Output format: human, json or csv")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "Overall call timeout")
	fs.DurationVar(&wait, "wait", 0, "Wait up to this long for the server to become healthy")
	return cmd
}

// parseToolArgs turns key=value pairs into tool arguments.
func parseToolArgs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q must be key=value", p)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}
