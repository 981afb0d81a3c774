// Package internal contains the core implementation packages for rv-react.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the rv-react runtime and CLI.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - types: shared contracts between components and the runtime
//   - hooks: per-instance state slot lists and the slot accessors
//   - fiber: tree nodes with committed/in-progress counterparts
//   - reconcile: sibling-group diffing into patch operations
//   - render: invoking component render functions over their slots
//   - runtime: the scheduler and committer driving render passes
//   - registry: component registry and event broadcasting
//   - sink: committed-tree to HTML rendering for the preview
//   - server: HTTP server, WebSocket live updates, and metrics
//   - watcher: props file monitoring with debouncing
//   - errors: runtime error types, collection, and the HTML overlay
//   - config, logging, monitoring, version: ambient infrastructure
//
// # Inter-Package Communication
//
// The runtime coordinates the rest: it renders components through the
// render package, diffs their children through reconcile, and pushes
// each committed tree into the configured sinks. The server consumes the
// HTML sink and broadcasts commit notifications; the watcher feeds props
// changes back into the runtime.
package internal
