// Package state holds the canonical view model of the board.
//
// # Overview
//
// The Store keeps one InstrumentView per instrument plus the active signal
// list and the service timestamp of the most recent combined update. Both
// transports feed it through the reconciler; the terminal UI and tests read
// it through copies.
//
// # Merge Semantics
//
// Payloads are partial. Merge overwrites only the fields present in the
// incoming snapshot:
//
//	store.Merge(market.Primary, snap)
//	→ fields present in snap replace stored values
//	→ absent fields keep their previous values
//	→ indicator timeframes outside the instrument's set are dropped
//	→ LastError cleared, ConsecutiveFailures reset
//
//	store.RecordFailure(market.Primary, err)
//	→ snapshot unchanged (stale data is kept, never blanked)
//	→ LastError = err, ConsecutiveFailures++
//
// There is no timestamp comparison: whichever payload is merged last wins.
//
// # Concurrency Model
//
// Store uses a sync.RWMutex. Every accessor returns deep copies, so callers
// may hold or mutate results freely. The zero value is ready to use.
package state
