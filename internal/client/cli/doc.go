// Package cli provides the feedsync command-line client.
//
// The root command loads configuration and offers four subcommands:
//
//   - repl: interactive session over one App (feeds plus a post composer)
//   - feed: print the first pages of a collection and snapshot it
//   - upload: validate and upload files, printing the remote objects
//   - live: follow authoritative updates for a set of collections
//
// An App owns one cache store with its optimistic mutator and one upload
// queue. Closing it persists open collections. See App, runREPL and
// NewRootCommand.
package cli
