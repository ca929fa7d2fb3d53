package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/alexmarroig/Carpremiumsell/config"
	"github.com/alexmarroig/Carpremiumsell/connectors"
	"github.com/alexmarroig/Carpremiumsell/connectors/demo"
	"github.com/alexmarroig/Carpremiumsell/connectors/mercadolivre"
	"github.com/alexmarroig/Carpremiumsell/connectors/olx"
	"github.com/alexmarroig/Carpremiumsell/queue"
	"github.com/alexmarroig/Carpremiumsell/services"
	"github.com/alexmarroig/Carpremiumsell/storage"
	"github.com/alexmarroig/Carpremiumsell/utils"
)

func main() {
	cfg := config.Load()
	log := utils.NewLogger(cfg.LogLevel)

	store, err := openStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage")
	}
	defer store.Close()

	registry := connectors.NewRegistry(demo.Entry())
	mercadolivre.Register(registry)
	olx.Register(registry)
	registry.Register(demo.SourceName, demo.Entry())

	ingestor := &services.Ingestor{
		Store:    store,
		Registry: registry,
		Fetcher:  connectors.NewFetcher(cfg),
		Config:   cfg,
		Logger:   log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case "worker":
		runWorker(ctx, cfg, ingestor, log)
	case "enqueue":
		runEnqueue(ctx, cfg, log)
	default:
		runPipeline(ctx, cfg, ingestor, store, log)
	}
}

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == "memory" {
		return storage.NewMemoryStore(), nil
	}
	return storage.NewPostgresStore(cfg.DSN())
}

// runPipeline is the one-shot mode: ingest every configured source with
// bounded concurrency, consolidate seller stats, and print the market report.
func runPipeline(ctx context.Context, cfg *config.Config, ingestor *services.Ingestor, store storage.Store, log *logrus.Logger) {
	log.WithFields(logrus.Fields{
		"sources": cfg.Sources,
		"region":  cfg.RegionKey,
		"limit":   cfg.MaxResults,
	}).Info("Starting ingestion pipeline")

	pool := utils.NewWorkerPool(cfg.MaxWorkers)
	for _, source := range cfg.Sources {
		source := source
		pool.Submit(func() {
			count, err := ingestor.Ingest(ctx, source, cfg.RegionKey, cfg.QueryText, cfg.MaxResults)
			if err != nil {
				// One broken source never aborts the others.
				log.WithError(err).WithField("source", source).Error("Source ingestion failed")
				return
			}
			log.WithFields(logrus.Fields{"source": source, "count": count}).Info("Source finished")
		})
	}
	pool.Wait()

	if err := services.ConsolidateSellerStats(store, log); err != nil {
		log.WithError(err).Error("Seller consolidation failed")
	}

	reporter := &services.ReportService{
		Store: store,
		Query: &services.QueryService{Store: store},
	}
	report, err := reporter.Generate(cfg.RegionKey, cfg.MinReputation)
	if err != nil {
		log.WithError(err).Fatal("Failed to build market report")
	}
	reporter.Print(report)
}

// runEnqueue pushes one ingest job per configured source and exits.
func runEnqueue(ctx context.Context, cfg *config.Config, log *logrus.Logger) {
	q := queue.NewRedisQueue(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.QueueKey)
	defer q.Close()

	for _, source := range cfg.Sources {
		job := queue.Job{
			Name:      queue.JobIngest,
			Source:    source,
			RegionKey: cfg.RegionKey,
			QueryText: cfg.QueryText,
			Limit:     cfg.MaxResults,
		}
		if err := q.Enqueue(ctx, job); err != nil {
			log.WithError(err).WithField("source", source).Error("Failed to enqueue job")
			continue
		}
		log.WithField("source", source).Info("Ingest job enqueued")
	}
}

// runWorker consumes queued jobs until interrupted. Ingest jobs dispatch
// per-listing normalize jobs back onto the same queue.
func runWorker(ctx context.Context, cfg *config.Config, ingestor *services.Ingestor, log *logrus.Logger) {
	q := queue.NewRedisQueue(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.QueueKey)
	defer q.Close()
	ingestor.Dispatcher = q

	worker := &queue.Worker{
		Queue:  q,
		Logger: log,
		Handle: func(ctx context.Context, job queue.Job) error {
			switch job.Name {
			case queue.JobIngest:
				_, err := ingestor.Ingest(ctx, job.Source, job.RegionKey, job.QueryText, job.Limit)
				return err
			case queue.JobNormalize:
				return ingestor.NormalizeRaw(ctx, job.RawID)
			}
			return fmt.Errorf("unknown job %q", job.Name)
		},
	}

	log.WithField("queue", cfg.QueueKey).Info("Worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("Worker stopped")
	}
	log.Info("Worker shut down")
}
