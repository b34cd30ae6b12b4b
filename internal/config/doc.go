// Package config handles loading and validating memheat configuration files.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/memheat/config.toml (default)
//  3. If the config file doesn't exist, fall back to built-in defaults
//  4. If the file exists but keys are missing, use defaults for those keys
//
// Load only parses. Callers apply command line overrides and then call
// Validate, so a bad flag and a bad file are reported the same way.
//
// # Default Values
//
//   - Trace: ~/mame/memory_access.log
//   - Address space: 16 MiB, 10000 buckets, 100 grid columns
//   - Poll interval: 100ms
//   - Format: auto (4 fields legacy, 7 fields frame)
//   - Zoom policy: history
//   - Frame history: 600 frames
//   - Diagnostic log: ~/.local/state/memheat/memheat.log
//
// # TOML Format
//
//	log_file = "~/mame/memory_access.log"
//	memory_size = 16777216
//	bucket_count = 10000
//	grid_columns = 100
//	update_interval = "100ms"
//	flash_threshold = 0
//	format = "auto"              # auto | legacy | frame
//	zoom_policy = "history"      # history | reset
//	frame_history = 600
//	image_pattern = "~/mame/frames/frame_%05d.png"
//	instructions_pattern = "~/mame/frames/frame_%05d.txt"
//	instruction_lines = 200
//	aux_cache_size = 64
//	metrics_addr = "127.0.0.1:9464"
//	log_level = "info"
//	log_output = "~/.local/state/memheat/memheat.log"
//
// Numeric keys are read through pointers so that an explicit zero is kept
// and rejected by Validate rather than silently replaced.
//
// # Path Expansion
//
// Paths starting with ~ are expanded to the user's home directory and made
// absolute. Pattern paths keep their fmt verbs intact.
package config
