// catalog.go — widgets, tools and render commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MCPJam/apps-sdk-everything/internal/catalog"
	"github.com/MCPJam/apps-sdk-everything/internal/server"
	"github.com/MCPJam/apps-sdk-everything/internal/widgets"
	"github.com/spf13/cobra"
)

// ToolInfo is one row of the tools listing.
type ToolInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	ResourceURI string `json:"resource_uri,omitempty"`
}

func toolInfos() []ToolInfo {
	var out []ToolInfo
	for _, w := range catalog.Widgets() {
		out = append(out, ToolInfo{Name: w.ID, Title: w.Title, Kind: "widget", ResourceURI: w.TemplateURI})
	}
	for _, t := range catalog.Tools() {
		info := ToolInfo{Name: t.Name, Title: t.Title, Kind: "tool"}
		if t.Meta != nil && t.Meta.OutputTemplate != "" {
			info.ResourceURI = t.Meta.OutputTemplate
		}
		out = append(out, info)
	}
	return out
}

func newWidgetsCmd(_ *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "widgets",
		Short: "List the previewable widget pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pages := server.PageInfos()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), pages)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTOOL\tPREVIEW\tTITLE")
			for _, p := range pages {
				tool := p.Tool
				if tool == "" {
					tool = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, tool, p.PreviewURL, p.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newToolsCmd(_ *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the registered MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := toolInfos()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), infos)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tRESOURCE\tTITLE")
			for _, t := range infos {
				uri := t.ResourceURI
				if uri == "" {
					uri = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, t.Kind, uri, t.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var hosted bool
	cmd := &cobra.Command{
		Use:   "render <page>",
		Short: "Print the HTML of one widget page",
		Long: `Print the HTML of one widget page from the configured widget source.
With --hosted the page is rendered as an MCP resource would be served.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, ok := catalog.LookupPage(args[0])
			if !ok {
				return fmt.Errorf("%w: %q (see 'apps-sdk-everything widgets')", widgets.ErrUnknownPage, args[0])
			}

			a.cfg.DevHost = false
			s, err := a.newServer()
			if err != nil {
				return err
			}
			defer s.Close()

			html, err := s.Source().HTML(cmd.Context(), widgets.Request{
				Page:        page.Name,
				Path:        page.Path,
				Title:       page.Title,
				Description: page.Description,
				Hosted:      hosted,
			})
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), html)
			return err
		},
	}
	cmd.Flags().BoolVar(&hosted, "hosted", false, "Render as served to an MCP host")
	a.server.register(cmd, false)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
