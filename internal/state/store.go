package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/tickerboard/internal/market"
)

// InstrumentView is the merged, canonical view of one instrument.
type InstrumentView struct {
	Snapshot            market.Snapshot
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // consecutive failed fetches for this instrument
}

// IsStale returns true when the instrument has failed to refresh repeatedly.
func (v InstrumentView) IsStale() bool {
	return v.ConsecutiveFailures >= 2
}

// Store holds the per-instrument views and the active signal list. The zero
// value is ready to use.
type Store struct {
	mu         sync.RWMutex
	views      map[market.Instrument]*InstrumentView
	signals    market.SignalSet
	hasSignals bool
	lastUpdate string
	now        func() time.Time
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Store) view(inst market.Instrument) *InstrumentView {
	if s.views == nil {
		s.views = make(map[market.Instrument]*InstrumentView)
	}
	v, ok := s.views[inst]
	if !ok {
		v = &InstrumentView{}
		s.views[inst] = v
	}
	return v
}

// Merge overwrites the fields present in snap and keeps the rest. Indicator
// timeframes outside the instrument's set are dropped. Failures reset.
func (s *Store) Merge(inst market.Instrument, snap market.Snapshot) InstrumentView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view(inst)
	mergeSnapshot(inst, &v.Snapshot, snap)
	v.HasData = true
	v.LastUpdated = s.clock()
	v.LastError = nil
	v.ConsecutiveFailures = 0
	return cloneView(*v)
}

// RecordFailure keeps the previous data and records err.
func (s *Store) RecordFailure(inst market.Instrument, err error) InstrumentView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view(inst)
	v.LastError = err
	v.ConsecutiveFailures++
	return cloneView(*v)
}

// View returns a copy of the instrument's current view.
func (s *Store) View(inst market.Instrument) InstrumentView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.views[inst]
	if !ok {
		return InstrumentView{}
	}
	return cloneView(*v)
}

// ReplaceSignals stores set and returns the previous one. ok is false when
// no signals had been stored yet.
func (s *Store) ReplaceSignals(set market.SignalSet) (prev market.SignalSet, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok = cloneSignals(s.signals), s.hasSignals
	s.signals = cloneSignals(set)
	s.hasSignals = true
	return prev, ok
}

// Signals returns the stored signal set.
func (s *Store) Signals() (market.SignalSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSignals(s.signals), s.hasSignals
}

// SetLastUpdate records the service timestamp of the latest combined update.
func (s *Store) SetLastUpdate(ts string) {
	s.mu.Lock()
	s.lastUpdate = ts
	s.mu.Unlock()
}

// LastUpdate returns the service timestamp of the latest combined update.
func (s *Store) LastUpdate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

func mergeSnapshot(inst market.Instrument, dst *market.Snapshot, src market.Snapshot) {
	mergeFloat(&dst.Price, src.Price)
	mergeFloat(&dst.ChangePercent, src.ChangePercent)
	mergeFloat(&dst.Amplitude24h, src.Amplitude24h)
	mergeFloat(&dst.Growth24h, src.Growth24h)
	if src.ConditionsSatisfied != nil {
		b := *src.ConditionsSatisfied
		dst.ConditionsSatisfied = &b
	}
	for tf, set := range src.Indicators {
		if !inst.HasTimeframe(tf) {
			continue
		}
		if dst.Indicators == nil {
			dst.Indicators = make(map[market.Timeframe]market.IndicatorSet)
		}
		cur := dst.Indicators[tf]
		if set.Band != nil {
			band := market.Band{}
			if cur.Band != nil {
				band = *cur.Band
			}
			mergeFloat(&band.Upper, set.Band.Upper)
			mergeFloat(&band.Middle, set.Band.Middle)
			mergeFloat(&band.Lower, set.Band.Lower)
			cur.Band = &band
		}
		if set.Oscillator != nil {
			osc := market.Oscillator{}
			if cur.Oscillator != nil {
				osc = *cur.Oscillator
			}
			mergeFloat(&osc.K, set.Oscillator.K)
			mergeFloat(&osc.D, set.Oscillator.D)
			mergeFloat(&osc.J, set.Oscillator.J)
			cur.Oscillator = &osc
		}
		dst.Indicators[tf] = cur
	}
}

func mergeFloat(dst **float64, src *float64) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}

func cloneView(v InstrumentView) InstrumentView {
	v.Snapshot = cloneSnapshot(v.Snapshot)
	if v.LastError != nil {
		v.LastError = fmt.Errorf("%w", v.LastError)
	}
	return v
}

func cloneSnapshot(s market.Snapshot) market.Snapshot {
	out := market.Snapshot{Error: s.Error}
	mergeFloat(&out.Price, s.Price)
	mergeFloat(&out.ChangePercent, s.ChangePercent)
	mergeFloat(&out.Amplitude24h, s.Amplitude24h)
	mergeFloat(&out.Growth24h, s.Growth24h)
	if s.ConditionsSatisfied != nil {
		b := *s.ConditionsSatisfied
		out.ConditionsSatisfied = &b
	}
	if len(s.Indicators) > 0 {
		out.Indicators = make(map[market.Timeframe]market.IndicatorSet, len(s.Indicators))
		for tf, set := range s.Indicators {
			var dup market.IndicatorSet
			if set.Band != nil {
				b := market.Band{}
				mergeFloat(&b.Upper, set.Band.Upper)
				mergeFloat(&b.Middle, set.Band.Middle)
				mergeFloat(&b.Lower, set.Band.Lower)
				dup.Band = &b
			}
			if set.Oscillator != nil {
				o := market.Oscillator{}
				mergeFloat(&o.K, set.Oscillator.K)
				mergeFloat(&o.D, set.Oscillator.D)
				mergeFloat(&o.J, set.Oscillator.J)
				dup.Oscillator = &o
			}
			out.Indicators[tf] = dup
		}
	}
	if len(s.Malformed) > 0 {
		out.Malformed = append([]string(nil), s.Malformed...)
	}
	return out
}

func cloneSignals(set market.SignalSet) market.SignalSet {
	out := market.SignalSet{Count: set.Count}
	if len(set.List) > 0 {
		out.List = make([]market.Signal, len(set.List))
		copy(out.List, set.List)
	}
	return out
}
