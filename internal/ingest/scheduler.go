package ingest

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ledahosn/holding-graz-statistik/internal/metrics"
)

// Scheduler drives the engine: each cycle it takes a batch of stops from the
// frontier, fetches their departures concurrently, deduplicates the monitored
// trip ids across all of them, and ingests each trip once.
type Scheduler struct {
	upstream   Upstream
	ingestor   *Ingestor
	frontier   *Frontier
	classifier *Classifier
	interval   time.Duration
	window     time.Duration
	batchSize  int
	metrics    *metrics.Collector
}

func NewScheduler(upstream Upstream, ingestor *Ingestor, frontier *Frontier, classifier *Classifier, interval, window time.Duration, batchSize int, m *metrics.Collector) *Scheduler {
	return &Scheduler{
		upstream:   upstream,
		ingestor:   ingestor,
		frontier:   frontier,
		classifier: classifier,
		interval:   interval,
		window:     window,
		batchSize:  batchSize,
		metrics:    m,
	}
}

// Run executes one cycle immediately, then one per tick until the context is
// cancelled. Cycles run synchronously in this loop, so two cycles never
// overlap; a tick that fires while a cycle is still in flight is dropped,
// never queued.
func (s *Scheduler) Run(ctx context.Context) {
	s.RunCycle(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle performs one full select-fetch-ingest sequence. Failures anywhere
// inside it are logged and contained; the next cycle always runs on schedule.
func (s *Scheduler) RunCycle(ctx context.Context) {
	start := time.Now()
	stops := s.frontier.TakeBatch(s.batchSize)
	log.Printf("cycle: querying %d stops (discovered %d, queue %d)",
		len(stops), s.frontier.Discovered(), s.frontier.QueueLen())

	tripIDs := s.collectTripIDs(ctx, stops)
	log.Printf("cycle: %d unique trips to ingest", len(tripIDs))

	for tripID := range tripIDs {
		if ctx.Err() != nil {
			return
		}
		if err := s.ingestor.IngestTrip(ctx, tripID); err != nil {
			log.Printf("ingest trip %s: %v", tripID, err)
			if s.metrics != nil {
				s.metrics.TripIngestErrs.Inc()
			}
		}
	}

	if s.metrics != nil {
		s.metrics.CyclesTotal.Inc()
		s.metrics.CycleDuration.Observe(time.Since(start).Seconds())
		s.metrics.StopsPolled.Add(float64(len(stops)))
		s.metrics.TripsFound.Add(float64(len(tripIDs)))
		s.metrics.DiscoveredStops.Set(float64(s.frontier.Discovered()))
		s.metrics.QueueLength.Set(float64(s.frontier.QueueLen()))
	}
	log.Printf("cycle: complete in %s", time.Since(start).Round(time.Millisecond))
}

// collectTripIDs fetches departures for each stop concurrently (one goroutine
// per selected stop, so the batch size bounds the fan-out) and merges the
// monitored trip ids into a single deduplicated set. A per-stop failure is
// isolated from its siblings.
func (s *Scheduler) collectTripIDs(ctx context.Context, stops []string) map[string]struct{} {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		tripIDs = make(map[string]struct{})
	)
	for _, stopID := range stops {
		wg.Add(1)
		go func(stopID string) {
			defer wg.Done()
			deps, err := s.upstream.Departures(ctx, stopID, s.window)
			if err != nil {
				log.Printf("departures for stop %s: %v", stopID, err)
				if s.metrics != nil {
					s.metrics.DepartureErrs.Inc()
				}
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, d := range deps {
				if d.TripID == "" || !s.classifier.IsMonitoredLine(d.Line) {
					continue
				}
				tripIDs[d.TripID] = struct{}{}
			}
		}(stopID)
	}
	wg.Wait()
	return tripIDs
}
