// Package config loads tickerboard's configuration and user preferences.
//
// # Configuration Discovery
//
// Load resolves the config file in this order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tickerboard/config.toml
//  3. If the file doesn't exist, use the built-in defaults
//
// Blank values count as unset. Defaults come from struct tags applied with
// creasty/defaults, and the result is checked with go-playground/validator.
//
// # TOML Format
//
//	api_bind = "127.0.0.1:5000"
//
//	[push]
//	enabled = true
//	path = "/ws"
//	reconnect_delay = "2s"
//
//	[poll]
//	interval = "3s"
//
//	[instruments]
//	primary = "btc"
//	secondary = "doge"
//
//	[log]
//	level = "info"
//	file = "~/.local/state/tickerboard/client.log"
//
//	[metrics]
//	addr = "127.0.0.1:9100"
//
// Every key is optional. Durations use Go syntax. An empty metrics.addr
// disables the Prometheus endpoint, and an empty log.file keeps diagnostics
// on stderr.
//
// # Preferences
//
// Prefs live in ~/.config/tickerboard/prefs.toml and are written back by the
// terminal UI when the theme changes. LoadPrefs never fails: a missing or
// unreadable file yields the defaults.
package config
