// Package ui implements the terminal board with Bubble Tea.
//
// The board is a display target: ProgramSink turns the engine's field,
// class, log and panel calls into tea messages, and Model keeps the latest
// text and class per field id and renders them with the active theme.
// Key presses become Controller calls issued as tea.Cmds, so the update loop
// never waits on the engine.
//
// # Layout
//
//   - Header: connection status, monitoring status, last update
//   - Two instrument cards: price, change, amplitude, growth, conditions and
//     the band/oscillator lines for each of the instrument's timeframes
//   - Signal count and list
//   - Activity log viewport, replaced by the settings form while it is open
//   - Command bar
//
// A new-signal notification shows a banner for a few seconds.
//
// # Themes
//
// Nightfox, Kanagawa and Slate. T cycles them and the choice is written to
// the prefs file.
package ui
