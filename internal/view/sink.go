// Package view defines the rendering surface the synchronization core writes
// to. The core only issues semantic calls with display-ready values; layout
// and styling belong to the implementation.
package view

import (
	"github.com/five82/tickerboard/internal/activity"
	"github.com/five82/tickerboard/internal/market"
)

// Sink consumes fully resolved display values.
type Sink interface {
	SetText(field FieldID, value string)
	SetClass(field FieldID, classes string)
	AppendLogEntry(entry activity.Entry)
	ClearLog()
	ShowSettingsPanel()
	HideSettingsPanel()
}

// FieldID names a logical display field.
type FieldID string

// Board-level fields.
const (
	ConnectionStatus FieldID = "connection-status"
	MonitoringStatus FieldID = "monitoring-status"
	LastUpdate       FieldID = "last-update"
	SignalCount      FieldID = "signal-count"
	SignalList       FieldID = "signal-list"
)

// Settings form fields.
const (
	SettingsVolatility FieldID = "settings-volatility-threshold"
	SettingsGrowth     FieldID = "settings-growth-threshold"
	SettingsKDJ        FieldID = "settings-kdj-threshold"
	SettingsOversold1  FieldID = "settings-oversold-1"
	SettingsOversold2  FieldID = "settings-oversold-2"
	SettingsOversold3  FieldID = "settings-oversold-3"
	SettingsOversold4  FieldID = "settings-oversold-4"
	SettingsOverbought FieldID = "settings-overbought"
	SettingsInterval   FieldID = "settings-update-interval"
)

// SettingsFields lists the settings form fields in display order.
func SettingsFields() []FieldID {
	return []FieldID{
		SettingsVolatility, SettingsGrowth, SettingsKDJ,
		SettingsOversold1, SettingsOversold2, SettingsOversold3, SettingsOversold4,
		SettingsOverbought, SettingsInterval,
	}
}

// Per-instrument field suffixes.
const (
	fieldPrice      = "price"
	fieldChange     = "change"
	fieldVolatility = "volatility"
	fieldGrowth     = "growth"
	fieldCondition  = "condition-status"
)

// Price is the instrument's last price field, e.g. "primary-price".
func Price(inst market.Instrument) FieldID { return instrumentField(inst, fieldPrice) }

// Change is the instrument's percentage change field.
func Change(inst market.Instrument) FieldID { return instrumentField(inst, fieldChange) }

// Volatility is the instrument's 24h amplitude field.
func Volatility(inst market.Instrument) FieldID { return instrumentField(inst, fieldVolatility) }

// Growth is the instrument's 24h growth field.
func Growth(inst market.Instrument) FieldID { return instrumentField(inst, fieldGrowth) }

// Condition is the instrument's conditions-satisfied field.
func Condition(inst market.Instrument) FieldID { return instrumentField(inst, fieldCondition) }

// BandComponent names one line of a band indicator.
type BandComponent string

const (
	BandUpper  BandComponent = "upper"
	BandMiddle BandComponent = "middle"
	BandLower  BandComponent = "lower"
)

// OscillatorComponent names one line of an oscillator indicator.
type OscillatorComponent string

const (
	OscK OscillatorComponent = "k"
	OscD OscillatorComponent = "d"
	OscJ OscillatorComponent = "j"
)

// Band is a band indicator field, e.g. "primary-boll-4h-upper".
func Band(inst market.Instrument, tf market.Timeframe, c BandComponent) FieldID {
	return instrumentField(inst, "boll-"+string(tf)+"-"+string(c))
}

// Oscillator is an oscillator indicator field, e.g. "secondary-kdj-1m-k".
func Oscillator(inst market.Instrument, tf market.Timeframe, c OscillatorComponent) FieldID {
	return instrumentField(inst, "kdj-"+string(tf)+"-"+string(c))
}

func instrumentField(inst market.Instrument, suffix string) FieldID {
	return FieldID(inst.String() + "-" + suffix)
}
