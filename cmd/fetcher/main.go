package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledahosn/holding-graz-statistik/internal/config"
	"github.com/ledahosn/holding-graz-statistik/internal/db"
	"github.com/ledahosn/holding-graz-statistik/internal/hafas"
	"github.com/ledahosn/holding-graz-statistik/internal/ingest"
	"github.com/ledahosn/holding-graz-statistik/internal/metrics"
	"github.com/ledahosn/holding-graz-statistik/internal/publisher"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	log.Printf("fetcher starting: region=%s interval=%s stops/cycle=%d",
		cfg.Region.Name, cfg.FetchInterval, cfg.StopsPerCycle)

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The store must be reachable at startup; anything else is best-effort.
	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer sqlDB.Close()
	if err := db.Ping(ctx, sqlDB); err != nil {
		log.Fatalf("db ping error: %v", err)
	}
	store := db.NewStore(sqlDB)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("db schema error: %v", err)
	}
	log.Printf("connected to database")

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.FetchInterval, cfg.StopsPerCycle)
		srv := mcol.Serve(cfg.MetricsAddr)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Live-position publishing is optional; without NATS_URL the engine only
	// writes to the store.
	var pub ingest.Publisher
	if cfg.NATSURL != "" {
		np, err := publisher.NewNATSPublisher(cfg.NATSURL, wrapPublisherMetrics(mcol))
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer np.Close()
		pub = np
	}

	upstream := hafas.NewClient(cfg.HafasURL, cfg.HafasUserAgent, cfg.HafasTimeout)
	classifier, err := ingest.NewClassifier(cfg.Region)
	if err != nil {
		log.Fatalf("classifier error: %v", err)
	}
	frontier := ingest.NewFrontier(cfg.Region.SeedStops)
	events := ingest.NewEventWriter(store, mcol)
	ingestor := ingest.NewIngestor(upstream, store, events, classifier, frontier, pub, mcol)
	sched := ingest.NewScheduler(upstream, ingestor, frontier, classifier,
		cfg.FetchInterval, cfg.DeparturesWindow, cfg.StopsPerCycle, mcol)

	// Blocks until the context is cancelled; an in-flight cycle finishes on
	// its own and is not retried.
	sched.Run(ctx)
	log.Println("shutdown complete")
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
