package ingest

import (
	"context"
	"time"

	"github.com/ledahosn/holding-graz-statistik/internal/metrics"
	"github.com/ledahosn/holding-graz-statistik/internal/transit"
)

// maxEventRange bounds how far from now an event's best-known time may lie
// and still be written. Upstream occasionally reports stopovers days away;
// those are noise for a live monitor.
const maxEventRange = 24 * time.Hour

// EventWriter persists stop event observations. Repeated observations of the
// same (trip, stop, eventType) key converge to the latest value, until a
// record whose best-known time was already in the past at the moment it was
// written. Such a record is finalized: it describes an event that had
// occurred, and later observations are dropped so a stale late response can
// never corrupt a completed historical record. A record written while its
// event was still ahead stays open, so the real arrival time can land even
// after the planned time has passed.
type EventWriter struct {
	store   Store
	metrics *metrics.Collector
	now     func() time.Time
}

func NewEventWriter(store Store, m *metrics.Collector) *EventWriter {
	return &EventWriter{store: store, metrics: m, now: time.Now}
}

// Record runs the read-then-conditionally-write sequence for one observation.
// A skipped write is a no-op, not an error. The engine issues at most one
// Record per key per cycle, so the read/write window only races across
// cycles, where the finalization rule makes the race harmless.
func (w *EventWriter) Record(ctx context.Context, ev transit.StopEvent) error {
	now := w.now().UTC()

	observed := now
	if t := ev.BestTime(); t != nil {
		observed = *t
	}
	if d := observed.Sub(now); d > maxEventRange || d < -maxEventRange {
		if w.metrics != nil {
			w.metrics.EventsSkippedRange.Inc()
		}
		return nil
	}

	existing, err := w.store.GetStopEvent(ctx, ev.TripID, ev.StopID, ev.EventType)
	if err != nil {
		return err
	}
	if existing != nil {
		if t := existing.BestTime(); t != nil && t.Before(existing.Timestamp) {
			// Finalized: the event had already happened when the
			// record was last written.
			if w.metrics != nil {
				w.metrics.EventsSkippedFinal.Inc()
			}
			return nil
		}
	}

	ev.Timestamp = now
	if err := w.store.PutStopEvent(ctx, ev); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.EventsWritten.Inc()
	}
	return nil
}
