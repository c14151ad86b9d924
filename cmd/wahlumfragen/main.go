// Package main is the entry point for the wahlumfragen CLI.
//
// Usage:
//
//	wahlumfragen watch -c config.yaml   # Poll and post until interrupted
//	wahlumfragen check --dry-run        # One check, print instead of posting
//	wahlumfragen latest --format json   # Show the latest matching survey
//	wahlumfragen version                # Show version info
package main

import "github.com/pfrederiksen/wahlumfragen/internal/cli"

func main() {
	cli.Execute()
}
