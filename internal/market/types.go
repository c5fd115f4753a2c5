// Package market models the snapshots, signals, and push envelopes published
// by the remote monitoring service.
package market

import (
	"strconv"
	"strings"
)

// Instrument identifies one of the two tracked symbols.
type Instrument int

const (
	Primary Instrument = iota
	Secondary
)

// Instruments lists every tracked instrument in display order.
func Instruments() []Instrument {
	return []Instrument{Primary, Secondary}
}

// String returns the stable identifier used in field ids and metrics labels.
func (i Instrument) String() string {
	switch i {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Timeframe is a candle interval label such as "4h".
type Timeframe string

const (
	TF4h  Timeframe = "4h"
	TF1h  Timeframe = "1h"
	TF15m Timeframe = "15m"
	TF1m  Timeframe = "1m"
)

var timeframes = map[Instrument][]Timeframe{
	Primary:   {TF4h, TF1h},
	Secondary: {TF1h, TF15m, TF1m},
}

// Timeframes returns the enumerated timeframe set for the instrument.
func (i Instrument) Timeframes() []Timeframe {
	set := timeframes[i]
	dup := make([]Timeframe, len(set))
	copy(dup, set)
	return dup
}

// HasTimeframe reports whether tf belongs to the instrument's set.
func (i Instrument) HasTimeframe(tf Timeframe) bool {
	for _, candidate := range timeframes[i] {
		if candidate == tf {
			return true
		}
	}
	return false
}

// Band holds Bollinger-style upper/middle/lower values.
type Band struct {
	Upper  *float64
	Middle *float64
	Lower  *float64
}

// Oscillator holds KDJ-style k/d/j values.
type Oscillator struct {
	K *float64
	D *float64
	J *float64
}

// IndicatorSet is the indicator data for a single timeframe.
type IndicatorSet struct {
	Band       *Band
	Oscillator *Oscillator
}

// Snapshot is the per-instrument payload. Every field is optional; absent
// fields are nil and leave the corresponding view untouched.
type Snapshot struct {
	Price               *float64
	ChangePercent       *float64
	Amplitude24h        *float64
	Growth24h           *float64
	ConditionsSatisfied *bool
	Indicators          map[Timeframe]IndicatorSet

	// Error carries the service's {"error": "..."} reply, if any.
	Error string

	// Malformed lists keys that were present but could not be decoded.
	Malformed []string `json:"-"`
}

// HasData reports whether at least one renderable field is present.
func (s Snapshot) HasData() bool {
	if s.Price != nil || s.ChangePercent != nil || s.Amplitude24h != nil ||
		s.Growth24h != nil || s.ConditionsSatisfied != nil {
		return true
	}
	return len(s.Indicators) > 0
}

// SignalType is the trade direction of a signal.
type SignalType string

const (
	Buy  SignalType = "buy"
	Sell SignalType = "sell"
)

// Signal is a single active trade signal.
type Signal struct {
	ID   int
	Type SignalType
}

// Label returns a short human-readable description.
func (s Signal) Label(ordinal int) string {
	id := s.ID
	if id <= 0 {
		id = ordinal
	}
	kind := "unknown"
	switch SignalType(strings.ToLower(string(s.Type))) {
	case Buy:
		kind = "BUY"
	case Sell:
		kind = "SELL"
	}
	return kind + " #" + strconv.Itoa(id)
}

// SignalSet is the list of currently active signals.
type SignalSet struct {
	Count int      `json:"count"`
	List  []Signal `json:"list"`
}

// Total returns Count when the service supplied it, otherwise the list length.
func (s SignalSet) Total() int {
	if s.Count > 0 {
		return s.Count
	}
	return len(s.List)
}

// Status is the push-channel status frame.
type Status struct {
	MonitoringActive bool   `json:"monitoring_active"`
	Message          string `json:"message"`
}

// Update is a combined market update, delivered by push or by /api/data.
type Update struct {
	Timestamp string     `json:"timestamp"`
	Primary   *Snapshot  `json:"primary"`
	Secondary *Snapshot  `json:"secondary"`
	Signals   *SignalSet `json:"signals"`
	Error     string     `json:"error"`

	// Malformed lists sections that were present but dropped.
	Malformed []string `json:"-"`
}

// Snapshot returns the payload for inst, or nil when absent.
func (u Update) Snapshot(inst Instrument) *Snapshot {
	switch inst {
	case Primary:
		return u.Primary
	case Secondary:
		return u.Secondary
	default:
		return nil
	}
}
