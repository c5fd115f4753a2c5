// Package settings holds the strategy thresholds kept by the remote service
// and the locally edited draft of them.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/five82/tickerboard/internal/view"
)

// Settings are the strategy thresholds. Volatility and growth thresholds are
// percentages (3.0 means 3%); the service stores them as fractions.
type Settings struct {
	VolatilityThreshold   float64    `validate:"gt=0,lte=100"`
	GrowthThreshold       float64    `validate:"gte=0,lte=100"`
	KDJThreshold          float64    `validate:"gte=0,lte=100"`
	OversoldLevels        [4]float64 `validate:"dive,gte=0,lte=100"`
	OverboughtLevel       float64    `validate:"gte=0,lte=100"`
	UpdateIntervalSeconds int        `validate:"gte=1,lte=3600"`
}

// Defaults returns the built-in configuration.
func Defaults() Settings {
	return Settings{
		VolatilityThreshold:   3.0,
		GrowthThreshold:       1.0,
		KDJThreshold:          50,
		OversoldLevels:        [4]float64{10, 15, 20, 20},
		OverboughtLevel:       90,
		UpdateIntervalSeconds: 5,
	}
}

var validate = validator.New()

// Validate checks every threshold is within range.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s", describe(verrs[0]))
		}
		return err
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// WireKeys name the per-instrument sections of the settings document. The
// service prefixes them with the instrument slug, e.g. "btc_conditions".
type WireKeys struct {
	Conditions string
	Thresholds string
}

// KeysFor returns the section keys for the given instrument slugs.
func KeysFor(primary, secondary string) WireKeys {
	return WireKeys{
		Conditions: primary + "_conditions",
		Thresholds: secondary + "_thresholds",
	}
}

// DefaultKeys match the service's stock btc/doge instruments.
var DefaultKeys = KeysFor("btc", "doge")

type wireConditions struct {
	VolatilityThreshold *float64 `json:"volatility_threshold"`
	GrowthThreshold     *float64 `json:"growth_threshold"`
	KDJThreshold        *float64 `json:"kdj_threshold"`
}

type wireThresholds struct {
	Oversold   []float64 `json:"oversold"`
	Overbought *float64  `json:"overbought"`
}

type wireMonitoring struct {
	UpdateInterval *int `json:"update_interval"`
}

// Encode writes s in the service's nested layout under keys.
func Encode(s Settings, keys WireKeys) ([]byte, error) {
	vol := s.VolatilityThreshold / 100
	growth := s.GrowthThreshold / 100
	kdj := s.KDJThreshold
	overbought := s.OverboughtLevel
	interval := s.UpdateIntervalSeconds
	return json.Marshal(map[string]any{
		keys.Conditions: wireConditions{
			VolatilityThreshold: &vol,
			GrowthThreshold:     &growth,
			KDJThreshold:        &kdj,
		},
		keys.Thresholds: wireThresholds{
			Oversold:   s.OversoldLevels[:],
			Overbought: &overbought,
		},
		"monitoring": wireMonitoring{UpdateInterval: &interval},
	})
}

// Decode reads the service's nested layout under keys. Missing values fall
// back to Defaults.
func Decode(data []byte, keys WireKeys) (Settings, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return Settings{}, err
	}
	var (
		cond  wireConditions
		thr   wireThresholds
		mon   wireMonitoring
		parts = []struct {
			key  string
			dest any
		}{
			{keys.Conditions, &cond},
			{keys.Thresholds, &thr},
			{"monitoring", &mon},
		}
	)
	for _, part := range parts {
		raw, ok := sections[part.key]
		if !ok || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, part.dest); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", part.key, err)
		}
	}

	out := Defaults()
	if v := cond.VolatilityThreshold; v != nil {
		out.VolatilityThreshold = fromFraction(*v)
	}
	if v := cond.GrowthThreshold; v != nil {
		out.GrowthThreshold = fromFraction(*v)
	}
	if v := cond.KDJThreshold; v != nil {
		out.KDJThreshold = *v
	}
	for i := 0; i < len(out.OversoldLevels) && i < len(thr.Oversold); i++ {
		out.OversoldLevels[i] = thr.Oversold[i]
	}
	if v := thr.Overbought; v != nil {
		out.OverboughtLevel = *v
	}
	if v := mon.UpdateInterval; v != nil {
		out.UpdateIntervalSeconds = *v
	}
	return out, nil
}

// MarshalJSON writes the nested layout under DefaultKeys.
func (s Settings) MarshalJSON() ([]byte, error) {
	return Encode(s, DefaultKeys)
}

// UnmarshalJSON reads the nested layout under DefaultKeys.
func (s *Settings) UnmarshalJSON(data []byte) error {
	out, err := Decode(data, DefaultKeys)
	if err != nil {
		return err
	}
	*s = out
	return nil
}

// fromFraction converts 0.03 to 3, rounding away binary noise.
func fromFraction(v float64) float64 {
	return math.Round(v*100*1e9) / 1e9
}

// Render writes every settings value to its form field.
func Render(sink view.Sink, s Settings) {
	for _, field := range view.SettingsFields() {
		sink.SetText(field, Format(s, field))
	}
}

// Format returns the form text for a single settings field.
func Format(s Settings, field view.FieldID) string {
	switch field {
	case view.SettingsVolatility:
		return formatFloat(s.VolatilityThreshold)
	case view.SettingsGrowth:
		return formatFloat(s.GrowthThreshold)
	case view.SettingsKDJ:
		return formatFloat(s.KDJThreshold)
	case view.SettingsOversold1:
		return formatFloat(s.OversoldLevels[0])
	case view.SettingsOversold2:
		return formatFloat(s.OversoldLevels[1])
	case view.SettingsOversold3:
		return formatFloat(s.OversoldLevels[2])
	case view.SettingsOversold4:
		return formatFloat(s.OversoldLevels[3])
	case view.SettingsOverbought:
		return formatFloat(s.OverboughtLevel)
	case view.SettingsInterval:
		return strconv.Itoa(s.UpdateIntervalSeconds)
	default:
		return ""
	}
}

// Parse builds Settings from form text. Every field must be present.
func Parse(values map[view.FieldID]string) (Settings, error) {
	var s Settings
	floats := []struct {
		field view.FieldID
		dest  *float64
	}{
		{view.SettingsVolatility, &s.VolatilityThreshold},
		{view.SettingsGrowth, &s.GrowthThreshold},
		{view.SettingsKDJ, &s.KDJThreshold},
		{view.SettingsOversold1, &s.OversoldLevels[0]},
		{view.SettingsOversold2, &s.OversoldLevels[1]},
		{view.SettingsOversold3, &s.OversoldLevels[2]},
		{view.SettingsOversold4, &s.OversoldLevels[3]},
		{view.SettingsOverbought, &s.OverboughtLevel},
	}
	for _, f := range floats {
		raw := strings.TrimSpace(values[f.field])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Settings{}, fmt.Errorf("%s: %q is not a number", f.field, raw)
		}
		*f.dest = v
	}
	raw := strings.TrimSpace(values[view.SettingsInterval])
	interval, err := strconv.Atoi(raw)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %q is not a whole number", view.SettingsInterval, raw)
	}
	s.UpdateIntervalSeconds = interval
	return s, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
