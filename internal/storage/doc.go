// Package storage provides JSON-based persistence for watcher state.
//
// The watcher only needs to remember the last "last update" marker it saw and
// which survey it delivered most recently. Storage keeps that record in
// state.json inside a data directory (default ~/.local/share/wahlumfragen/) so a
// restart does not re-post the same survey. Memory keeps the same record in
// process memory for runs without a data directory, and Gist keeps it in a
// private GitHub Gist for scheduled runs without a persistent disk.
package storage
