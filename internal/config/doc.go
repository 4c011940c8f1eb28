// Package config handles loading and parsing the pawswipe configuration file.
//
// # Overview
//
// pawswipe reads a single TOML file describing where the rescue API lives,
// where local state is kept and how the swipe queue is sized. Every field is
// optional and a missing file is not an error.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/pawswipe/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing, empty or non-positive, use defaults
//
// # Default Values
//
//   - API URL: http://127.0.0.1:8080
//   - Data directory: ~/.local/share/pawswipe
//   - State database: <data_dir>/state.db
//   - Log file: <data_dir>/pawswipe.log
//   - Batch size 20, low-water mark 5, max queue size 100
//   - Request rate: 10 requests/second
//
// # TOML Format
//
//	api_url = "https://rescue.example.com"
//	data_dir = "~/.local/share/pawswipe"
//	batch_size = 20
//	low_water_mark = 5
//	max_queue_size = 100
//	request_rate = 10
//	randomize = false
//	log_level = "info"
//	log_format = "console"
//	metrics_addr = "127.0.0.1:9091"
//
// max_queue_size is raised to batch_size when configured smaller, otherwise a
// single prefetch could overflow the queue and evict undecided dogs.
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files and
// malformed TOML. Missing files yield defaults.
package config
