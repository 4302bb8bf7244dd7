// =============================================================================
// MC Generator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the MC Generator CLI application. It
// delegates command execution to the cmd package.
//
// USAGE:
//   mcgen generate      - Generate one calculation memo workbook
//   mcgen batch         - Generate a zip with one workbook per group
//   mcgen list / count  - Inspect the billing balance
//   mcgen cache         - Build or inspect the consolidated cache
//   mcgen serve         - Serve the same operations over HTTP
//   mcgen version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Reader, writer, orchestrator, cache and API
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/mcgen/cmd"
)

func main() {
	cmd.Execute()
}
