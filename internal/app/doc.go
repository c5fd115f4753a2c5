// Package app is the composition root for tickerboard.
//
// # Overview
//
// Run loads configuration, builds the diagnostics logger, and connects the
// API client, push channel, session and display. It blocks until the user
// quits the board or the context is cancelled.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()         Read config.toml
//	       ├─────> logging.New()         zerolog, optional rotated file
//	       ├─────> metrics.Serve()       /metrics when metrics.addr is set
//	       ├─────> remote.NewClient()    HTTP API client
//	       ├─────> transport.NewPush()   Websocket push channel (optional)
//	       ├─────> session.New()         Engine coordinator
//	       └─────> ui.NewProgram().Run() Board (blocks), or wait in headless mode
//
// Push events reach the session through its HandlePushEvent handler. The
// session's poll timer only runs while monitoring is active.
//
// # Modes
//
//   - Default: push channel plus polling fallback, terminal board
//   - NoPush: poll-only; the client counts as connected immediately and
//     start/stop are confirmed locally
//   - Headless: no terminal board; the activity log goes to stderr
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Invalid or unreadable config file
//   - Log file cannot be created
//   - API address cannot be parsed
//
// A metrics address that cannot be bound is logged and the client runs
// without the endpoint.
//
// Everything after startup is recoverable: fetch failures, dropped push
// connections and rejected commands end up in the activity log.
package app
