package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	DiscoveredStops prometheus.Gauge
	QueueLength     prometheus.Gauge

	CyclesTotal   prometheus.Counter
	StopsPolled   prometheus.Counter
	DepartureErrs prometheus.Counter

	TripsFound     prometheus.Counter
	TripsIngested  prometheus.Counter
	TripsFiltered  prometheus.Counter
	TripIngestErrs prometheus.Counter

	EventsWritten      prometheus.Counter
	EventsSkippedFinal prometheus.Counter
	EventsSkippedRange prometheus.Counter
	StoreErrs          prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	CycleDuration   prometheus.Histogram
	PublishDuration prometheus.Histogram

	FetchInterval prometheus.Gauge // seconds
	StopsPerCycle prometheus.Gauge
}

func NewCollector(fetchInterval time.Duration, stopsPerCycle int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		DiscoveredStops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fetcher_discovered_stops",
			Help: "Size of the discovered stop set.",
		}),
		QueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fetcher_queue_length",
			Help: "Number of stops pending a poll.",
		}),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_cycles_total",
			Help: "Total completed fetch cycles.",
		}),
		StopsPolled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_stops_polled_total",
			Help: "Total departure boards fetched.",
		}),
		DepartureErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_departure_errors_total",
			Help: "Total failed departure fetches.",
		}),
		TripsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_trips_found_total",
			Help: "Total unique trips selected for ingestion.",
		}),
		TripsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_trips_ingested_total",
			Help: "Total trips fully ingested.",
		}),
		TripsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_trips_filtered_total",
			Help: "Total trips rejected by the line classifier.",
		}),
		TripIngestErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_trip_ingest_errors_total",
			Help: "Total trips whose upstream fetch failed.",
		}),
		EventsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_stop_events_written_total",
			Help: "Total stop event upserts issued.",
		}),
		EventsSkippedFinal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_stop_events_skipped_finalized_total",
			Help: "Total stop event writes skipped because the record was finalized.",
		}),
		EventsSkippedRange: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_stop_events_skipped_out_of_range_total",
			Help: "Total stop event writes skipped as more than a day from now.",
		}),
		StoreErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_store_errors_total",
			Help: "Total dropped store reads/writes.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fetcher_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fetcher_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fetcher_cycle_duration_seconds",
			Help:    "Duration of full fetch cycles.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fetcher_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		FetchInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fetcher_fetch_interval_seconds",
			Help: "Configured polling period in seconds.",
		}),
		StopsPerCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fetcher_stops_per_cycle",
			Help: "Configured stop batch size per cycle.",
		}),
	}

	// Register
	reg.MustRegister(
		c.DiscoveredStops, c.QueueLength,
		c.CyclesTotal, c.StopsPolled, c.DepartureErrs,
		c.TripsFound, c.TripsIngested, c.TripsFiltered, c.TripIngestErrs,
		c.EventsWritten, c.EventsSkippedFinal, c.EventsSkippedRange, c.StoreErrs,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.CycleDuration, c.PublishDuration,
		c.FetchInterval, c.StopsPerCycle,
	)

	c.FetchInterval.Set(fetchInterval.Seconds())
	c.StopsPerCycle.Set(float64(stopsPerCycle))

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
