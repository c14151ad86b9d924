// Package cli implements the command-line interface for wahlumfragen.
//
// The cli package provides the Cobra-based CLI: watch runs the polling loop,
// check runs a single iteration, latest and surveys print poll data without
// sending anything, and version reports build information. It wires the
// config, data sources, notifiers, storage, watcher and status server
// packages together.
package cli
