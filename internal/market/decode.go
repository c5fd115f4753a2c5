package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// The service publishes snapshots in two layouts: a nested one keyed by
// timeframe ({"4h": {"boll": {...}, "kdj": {...}}}) and a flat one keyed by
// indicator and timeframe ({"boll_4h": {...}, "market_stats": {...}}).
// Both are accepted, with upper/lowercase component aliases.

var (
	bandAliases = map[string][]string{
		"upper":  {"upper", "UP", "up"},
		"middle": {"middle", "MB", "mb", "mid"},
		"lower":  {"lower", "DN", "dn"},
	}
	oscillatorAliases = map[string][]string{
		"k": {"k", "K"},
		"d": {"d", "D"},
		"j": {"j", "J"},
	}
)

// DecodeSnapshot parses a single-instrument payload.
func DecodeSnapshot(inst Instrument, data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, &PayloadShapeError{Source: inst.String(), Err: err}
	}
	return snap, nil
}

// DecodeUpdate parses a combined market update.
func DecodeUpdate(data []byte) (Update, error) {
	var update Update
	if err := json.Unmarshal(data, &update); err != nil {
		return Update{}, &PayloadShapeError{Source: "market update", Err: err}
	}
	return update, nil
}

// UnmarshalJSON decodes a combined update. A malformed instrument or
// signals section is dropped and recorded instead of failing the update.
func (u *Update) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	*u = Update{}
	if raw, ok := fields["timestamp"]; ok {
		u.Timestamp = decodeString(raw)
	}
	if raw, ok := fields["error"]; ok {
		u.Error = decodeString(raw)
	}
	for _, part := range []struct {
		key  string
		dest **Snapshot
	}{{"primary", &u.Primary}, {"secondary", &u.Secondary}} {
		raw, ok := fields[part.key]
		if !ok || isNull(raw) {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			u.Malformed = append(u.Malformed, part.key)
			continue
		}
		*part.dest = &snap
	}
	if raw, ok := fields["signals"]; ok && !isNull(raw) {
		var set SignalSet
		if err := json.Unmarshal(raw, &set); err != nil {
			u.Malformed = append(u.Malformed, "signals")
		} else {
			u.Signals = &set
		}
	}
	return nil
}

// UnmarshalJSON decodes either snapshot layout, skipping fields that are
// malformed and recording their keys in Malformed.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	*s = Snapshot{}

	s.Price = s.float(fields, "price")
	s.ChangePercent = s.float(fields, "change_percent", "change")
	s.Amplitude24h = s.float(fields, "amplitude_24h")
	s.Growth24h = s.float(fields, "growth_24h")
	s.ConditionsSatisfied = s.bool(fields, "valid", "conditions_satisfied")
	if raw, ok := fields["error"]; ok {
		s.Error = decodeString(raw)
	}

	raw, ok := fields["indicators"]
	if !ok || isNull(raw) {
		return nil
	}
	indicators, err := decodeObject(raw)
	if err != nil {
		s.Malformed = append(s.Malformed, "indicators")
		return nil
	}
	for _, key := range sortedKeys(indicators) {
		s.decodeIndicator(key, indicators[key])
	}
	return nil
}

func (s *Snapshot) decodeIndicator(key string, raw json.RawMessage) {
	if isNull(raw) {
		return
	}
	switch {
	case key == "market_stats":
		stats, err := decodeObject(raw)
		if err != nil {
			s.Malformed = append(s.Malformed, "indicators.market_stats")
			return
		}
		if v := s.float(stats, "amplitude_24h"); v != nil {
			s.Amplitude24h = v
		}
		if v := s.float(stats, "growth_24h"); v != nil {
			s.Growth24h = v
		}
	case strings.HasPrefix(key, "boll_"):
		tf := Timeframe(strings.TrimPrefix(key, "boll_"))
		if band, ok := s.band(raw, "indicators."+key); ok {
			s.setBand(tf, band)
		}
	case strings.HasPrefix(key, "kdj_"):
		tf := Timeframe(strings.TrimPrefix(key, "kdj_"))
		if osc, ok := s.oscillator(raw, "indicators."+key); ok {
			s.setOscillator(tf, osc)
		}
	default:
		group, err := decodeObject(raw)
		if err != nil {
			s.Malformed = append(s.Malformed, "indicators."+key)
			return
		}
		tf := Timeframe(key)
		if rawBand, ok := group["boll"]; ok && !isNull(rawBand) {
			if band, ok := s.band(rawBand, "indicators."+key+".boll"); ok {
				s.setBand(tf, band)
			}
		}
		if rawOsc, ok := group["kdj"]; ok && !isNull(rawOsc) {
			if osc, ok := s.oscillator(rawOsc, "indicators."+key+".kdj"); ok {
				s.setOscillator(tf, osc)
			}
		}
	}
}

func (s *Snapshot) band(raw json.RawMessage, path string) (Band, bool) {
	fields, err := decodeObject(raw)
	if err != nil {
		s.Malformed = append(s.Malformed, path)
		return Band{}, false
	}
	band := Band{
		Upper:  s.float(fields, bandAliases["upper"]...),
		Middle: s.float(fields, bandAliases["middle"]...),
		Lower:  s.float(fields, bandAliases["lower"]...),
	}
	if band.Upper == nil && band.Middle == nil && band.Lower == nil {
		return Band{}, false
	}
	return band, true
}

func (s *Snapshot) oscillator(raw json.RawMessage, path string) (Oscillator, bool) {
	fields, err := decodeObject(raw)
	if err != nil {
		s.Malformed = append(s.Malformed, path)
		return Oscillator{}, false
	}
	osc := Oscillator{
		K: s.float(fields, oscillatorAliases["k"]...),
		D: s.float(fields, oscillatorAliases["d"]...),
		J: s.float(fields, oscillatorAliases["j"]...),
	}
	if osc.K == nil && osc.D == nil && osc.J == nil {
		return Oscillator{}, false
	}
	return osc, true
}

func (s *Snapshot) setBand(tf Timeframe, band Band) {
	if s.Indicators == nil {
		s.Indicators = make(map[Timeframe]IndicatorSet)
	}
	set := s.Indicators[tf]
	set.Band = &band
	s.Indicators[tf] = set
}

func (s *Snapshot) setOscillator(tf Timeframe, osc Oscillator) {
	if s.Indicators == nil {
		s.Indicators = make(map[Timeframe]IndicatorSet)
	}
	set := s.Indicators[tf]
	set.Oscillator = &osc
	s.Indicators[tf] = set
}

// float returns the first decodable value among keys. Present but malformed
// values are recorded and skipped.
func (s *Snapshot) float(fields map[string]json.RawMessage, keys ...string) *float64 {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			continue
		}
		v, err := parseFloat(raw)
		if err != nil {
			s.Malformed = append(s.Malformed, key)
			continue
		}
		return &v
	}
	return nil
}

func (s *Snapshot) bool(fields map[string]json.RawMessage, keys ...string) *bool {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			continue
		}
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			s.Malformed = append(s.Malformed, key)
			continue
		}
		return &v
	}
	return nil
}

// UnmarshalJSON accepts both "signal_id" and "id".
func (sig *Signal) UnmarshalJSON(data []byte) error {
	var raw struct {
		SignalID *int       `json:"signal_id"`
		ID       *int       `json:"id"`
		Type     SignalType `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*sig = Signal{Type: SignalType(strings.ToLower(string(raw.Type)))}
	switch {
	case raw.SignalID != nil:
		sig.ID = *raw.SignalID
	case raw.ID != nil:
		sig.ID = *raw.ID
	}
	return nil
}

// MarshalJSON writes the service's field names.
func (sig Signal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID   int        `json:"signal_id"`
		Type SignalType `json:"type"`
	}{sig.ID, sig.Type})
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("expected JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func parseFloat(raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", text)
	}
	return v, nil
}

func decodeString(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
