package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"example.com/hotswap/services/recovery/eventstore"
	"example.com/hotswap/services/recovery/projections"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the projection worker",
	Long:  `Start the background worker that projects hot-swap events into the read model and search indices`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	log.Info().Msg("Starting worker")

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Connect to database
	db, err := initDatabase(cfg)
	if err != nil {
		return err
	}

	// Initialize event store
	eventStore := eventstore.NewGormEventStore(db)

	// Initialize Elasticsearch client
	esClient, err := projections.NewElasticsearchClient(cfg)
	if err != nil {
		return err
	}

	if err := projections.EnsureIndices(esClient, cfg); err != nil {
		return err
	}

	// Initialize projector and event processor
	classProjector := projections.NewClassProjector(db, esClient, eventStore, cfg)
	processor := projections.NewEventProcessor(db, classProjector, eventStore)

	// Run the event processor until shutdown
	g.Go(func() error {
		processor.Start()
		<-ctx.Done()
		processor.Stop()
		return nil
	})

	// Run a scheduled sweep as a fallback for events the processor missed
	g.Go(func() error {
		log.Info().Msg("Starting fallback projection sweep")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(5*time.Minute),
			gocron.NewTask(func() {
				log.Info().Msg("Running fallback sweep to catch any missed events")
				if err := processor.ProcessBatch(); err != nil {
					log.Error().Err(err).Msg("Failed to process events in fallback sweep")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
