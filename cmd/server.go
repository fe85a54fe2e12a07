package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"example.com/hotswap/services/recovery/api"
	"example.com/hotswap/services/recovery/cache"
	"example.com/hotswap/services/recovery/config"
	"example.com/hotswap/services/recovery/eventstore"
	"example.com/hotswap/services/recovery/handlers"
	"example.com/hotswap/services/recovery/messaging"
	"example.com/hotswap/services/recovery/models"
	"example.com/hotswap/services/recovery/projections"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Run:   runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) {
	log.Info().Msg("Starting server")

	// Connect to database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Initialize event store
	eventStore := eventstore.NewGormEventStore(db)

	// Initialize cache
	cacheClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	// Initialize Elasticsearch for the report sink
	esClient, err := projections.NewElasticsearchClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Elasticsearch")
	}

	if err := projections.EnsureIndices(esClient, cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure Elasticsearch indices")
	}

	// Initialize Azure Service Bus client
	azureClient, err := messaging.NewAzureClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Azure Service Bus")
	}

	publisher, err := messaging.NewDecisionPublisher(azureClient, cfg.AzureDecisionsQueueName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create decision publisher")
	}

	// Initialize fault pipeline
	auth := handlers.NewConfigAuthorizationProvider(cfg.AutoApproveHighRisk)
	reportSink := projections.NewReportProjector(db, esClient, cfg)
	faultHandler := handlers.NewFaultHandler(eventStore, auth, publisher, reportSink)
	faultHandler.SetWindowSize(cfg.SnapshotWindowSize)

	// Initialize command handler
	swapHandler := handlers.NewSwapHandler(eventStore, faultHandler, cacheClient)

	// Initialize message processor
	msgProcessor := messaging.NewProcessor(swapHandler)

	// Start message consumers
	go func() {
		if err := azureClient.StartConsumers(cfg.AzureSwapEventsQueueName, msgProcessor); err != nil {
			log.Fatal().Err(err).Msg("Failed to start swap events queue consumer")
		}
	}()

	// Initialize server
	server := api.NewServer(cfg, db, swapHandler, faultHandler, eventStore, cacheClient)

	// Start HTTP server
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := publisher.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to close decision publisher")
	}

	log.Info().Msg("Server exited properly")
}

func initDatabase(cfg config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBSource), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if cfg.EnableMigrations {
		if err := db.AutoMigrate(&models.Event{}, &models.FaultReport{}, &models.ClassState{}); err != nil {
			return nil, errors.Wrap(err, "failed to migrate database")
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying DB connection")
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
