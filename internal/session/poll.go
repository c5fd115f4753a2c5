package session

import (
	"context"
	"sync"

	"github.com/five82/tickerboard/internal/activity"
	"github.com/five82/tickerboard/internal/market"
	"github.com/five82/tickerboard/internal/metrics"
	"github.com/five82/tickerboard/internal/view"
)

type fetchResult struct {
	inst market.Instrument
	snap market.Snapshot
	err  error
}

// pollCycle runs on the poller goroutine. Both instruments are fetched
// concurrently and joined; the combined result is posted as one message
// unless the poller was stopped while the fetches were in flight.
func (s *Session) pollCycle(ctx context.Context) {
	if s.remote == nil {
		return
	}
	insts := market.Instruments()
	results := make([]fetchResult, len(insts))

	var wg sync.WaitGroup
	for i, inst := range insts {
		wg.Add(1)
		go func(i int, inst market.Instrument) {
			defer wg.Done()
			snap, err := s.remote.FetchSnapshot(ctx, inst)
			results[i] = fetchResult{inst: inst, snap: snap, err: err}
		}(i, inst)
	}
	wg.Wait()

	// A canceled cycle's failures come from the cancellation, not the service.
	if ctx.Err() != nil {
		s.logger.Debug().Msg("poll cycle canceled")
		return
	}
	s.post(ctx, func() { s.applyPollResults(results) })
}

// applyPollResults applies a joined cycle. Results that arrive after
// monitoring stopped are discarded.
func (s *Session) applyPollResults(results []fetchResult) {
	if !s.machine.Flags().Monitoring {
		s.logger.Debug().Int("results", len(results)).Msg("discarding late poll results")
		return
	}

	updated := 0
	for _, r := range results {
		if r.err != nil {
			metrics.FetchErrors.WithLabelValues(r.inst.String()).Inc()
			s.rec.Store().RecordFailure(r.inst, r.err)
			s.appendf(activity.Error, "failed to fetch %s data: %v", r.inst, r.err)
			continue
		}
		if err := s.rec.ApplySnapshot(r.inst, r.snap); err != nil {
			s.rec.Store().RecordFailure(r.inst, err)
			continue
		}
		updated++
	}

	if updated > 0 {
		s.sink.SetText(view.LastUpdate, s.now().Format("15:04:05"))
	}
	switch {
	case updated == len(results):
		metrics.PollCycles.WithLabelValues("success").Inc()
		s.appendf(activity.Success, "poll cycle complete: %d/%d instruments updated", updated, len(results))
	case updated > 0:
		metrics.PollCycles.WithLabelValues("partial").Inc()
		s.appendf(activity.Warning, "poll cycle partial: %d/%d instruments updated", updated, len(results))
	default:
		metrics.PollCycles.WithLabelValues("failed").Inc()
		s.appendf(activity.Warning, "poll cycle failed: 0/%d instruments updated", len(results))
	}
}
