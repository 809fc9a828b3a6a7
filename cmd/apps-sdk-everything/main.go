// main.go — Entry point for the apps-sdk-everything binary.
// Serves the demo MCP tools and widgets, and offers a small client for
// calling a running server from the shell.
//
// Exit codes:
//
//	0 = success
//	1 = error (startup failure or failed tool call)
package main

import (
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
