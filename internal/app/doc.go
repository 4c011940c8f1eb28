// Package app provides the orchestration layer for the pawswipe application.
//
// # Overview
//
// This package wires together configuration, local state, the rescue API
// client, telemetry, the swipe subsystem and the UI. It serves as the
// composition root where all dependencies are initialized and connected.
//
// # Architecture
//
// Open builds the dependencies shared by the TUI and the CLI subcommands:
//
//  1. Load configuration from ~/.config/pawswipe/config.toml
//  2. Open the zap log file under the data directory
//  3. Create the rate-limited rescue API client
//  4. Open the bbolt state database (in-memory fallback when it is locked)
//  5. Build the telemetry sink (log + Prometheus counters)
//
// Run then starts a telemetry session, builds the queue manager, decision
// handler, navigation cache and image preloader, launches the retry loop and
// hands everything to the TUI, which blocks until the user quits.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> Open()              Config, log, client, state, sinks
//	       ├─────> StartSession()      session_started / session_ended
//	       ├─────> NewQueue()          queue.Manager over the client
//	       ├─────> swipe.NewHandler()  Decision state machine
//	       ├─────> StartRetrier()      Background recovery from fetch errors
//	       └─────> ui.Run()            Start TUI (blocks)
//
// # Retry Behavior
//
// The retry loop checks the queue snapshot at a fixed interval (default 2
// seconds). While the last fetch failed it calls Manager.Retry, doubling the
// wait after each consecutive failure up to 30 seconds. Healthy queues are
// never touched.
//
// # Error Handling
//
// Fatal errors (returned from Open and Run):
//   - Malformed configuration file
//   - Invalid API URL or unwritable log file
//
// Everything else degrades: an unavailable state database falls back to
// memory, fetch failures surface in the UI as error or offline state and are
// retried in the background.
package app
