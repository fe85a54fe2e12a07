package projections

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/hotswap/services/recovery/domain"
	"example.com/hotswap/services/recovery/eventstore"
	"example.com/hotswap/services/recovery/models"
)

// EventProcessor processes events from the database and projects them
type EventProcessor struct {
	db                 *gorm.DB
	classProjector     *ClassProjector
	eventStore         *eventstore.GormEventStore
	batchSize          int
	processingInterval time.Duration
	running            bool
	mutex              sync.Mutex
	stopChan           chan struct{}
}

// NewEventProcessor creates a new event processor
func NewEventProcessor(
	db *gorm.DB,
	classProjector *ClassProjector,
	eventStore *eventstore.GormEventStore,
) *EventProcessor {
	return &EventProcessor{
		db:                 db,
		classProjector:     classProjector,
		eventStore:         eventStore,
		batchSize:          100,
		processingInterval: 5 * time.Second,
		running:            false,
		stopChan:           make(chan struct{}),
	}
}

// Start starts the event processor
func (p *EventProcessor) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.running {
		return
	}

	p.running = true
	go p.processEvents()
}

// Stop stops the event processor
func (p *EventProcessor) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.running {
		return
	}

	p.running = false
	p.stopChan <- struct{}{}
}

// processEvents processes events in a loop
func (p *EventProcessor) processEvents() {
	ticker := time.NewTicker(p.processingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.ProcessBatch(); err != nil {
				log.Error().Err(err).Msg("Failed to process event batch")
			}
		case <-p.stopChan:
			return
		}
	}
}

// ProcessBatch projects one batch of unprocessed events. It is also called
// directly by the scheduled fallback sweep.
func (p *EventProcessor) ProcessBatch() error {
	ctx := context.Background()

	events, err := p.eventStore.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	log.Info().Msgf("Processing %d events", len(events))

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to process event")
			p.recordError(event.ID, err)
			continue
		}

		if err := p.eventStore.MarkEventProcessed(ctx, event.ID); err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to mark event as processed")
		}
	}

	return nil
}

// processEvent projects a single event
func (p *EventProcessor) processEvent(ctx context.Context, event domain.Event) error {
	switch event.AggregateType {
	case domain.AggregateTypeClass:
		return p.classProjector.Project(ctx, event)
	default:
		log.Warn().Str("aggregate_type", event.AggregateType).Msg("Unknown aggregate type")
		return nil
	}
}

// recordError stores the projection error on the event row
func (p *EventProcessor) recordError(eventID string, projErr error) {
	errMsg := projErr.Error()
	if err := p.db.Model(&models.Event{}).
		Where("event_id = ?", eventID).
		Update("error", &errMsg).Error; err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Failed to record projection error")
	}
}
