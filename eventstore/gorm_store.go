package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/hotswap/services/recovery/domain"
	"example.com/hotswap/services/recovery/models"
)

// GormEventStore implements EventStore using GORM
type GormEventStore struct {
	db *gorm.DB
}

// NewGormEventStore creates a new GORM event store
func NewGormEventStore(db *gorm.DB) *GormEventStore {
	return &GormEventStore{db: db}
}

// Append appends a single event inside a transaction. The version check
// runs against the stored maximum so a stale writer is rejected instead of
// overwriting history.
func (s *GormEventStore) Append(ctx context.Context, event domain.Event) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current int
		if err := tx.Model(&models.Event{}).
			Where("aggregate_id = ?", event.AggregateID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&current).Error; err != nil {
			return fmt.Errorf("failed to read current version: %w", err)
		}

		if event.Version != current+1 {
			return ErrConcurrentModification
		}

		data, err := marshalEventData(event.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}

		eventID := event.ID
		if eventID == "" {
			eventID = uuid.New().String()
		}
		timestamp := event.Timestamp
		if timestamp.IsZero() {
			timestamp = time.Now()
		}

		dbEvent := models.Event{
			EventID:       eventID,
			AggregateID:   event.AggregateID,
			AggregateType: event.AggregateType,
			EventType:     event.Type,
			Data:          data,
			Version:       event.Version,
			Timestamp:     timestamp,
			Processed:     false,
		}

		if err := tx.Create(&dbEvent).Error; err != nil {
			return fmt.Errorf("failed to save event: %w", err)
		}

		log.Info().
			Str("aggregateID", event.AggregateID).
			Str("eventType", event.Type).
			Int("version", event.Version).
			Msg("Event saved")

		return nil
	})
}

// GetEvents gets all events for an aggregate ordered by version ascending
func (s *GormEventStore) GetEvents(ctx context.Context, aggregateType, aggregateID string) ([]domain.Event, error) {
	var dbEvents []models.Event
	if err := s.db.WithContext(ctx).
		Where("aggregate_id = ? AND aggregate_type = ?", aggregateID, aggregateType).
		Order("version ASC").
		Find(&dbEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	return toDomainEvents(dbEvents), nil
}

// LatestEvents gets at most limit of the newest events, version ascending
func (s *GormEventStore) LatestEvents(ctx context.Context, aggregateType, aggregateID string, limit int) ([]domain.Event, error) {
	query := s.db.WithContext(ctx).
		Where("aggregate_id = ? AND aggregate_type = ?", aggregateID, aggregateType).
		Order("version DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dbEvents []models.Event
	if err := query.Find(&dbEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to get latest events: %w", err)
	}

	// Reverse back to version ascending
	for i, j := 0, len(dbEvents)-1; i < j; i, j = i+1, j-1 {
		dbEvents[i], dbEvents[j] = dbEvents[j], dbEvents[i]
	}

	return toDomainEvents(dbEvents), nil
}

// CurrentVersion returns the aggregate's current version, 0 if absent
func (s *GormEventStore) CurrentVersion(ctx context.Context, aggregateID string) (int, error) {
	var current int
	if err := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("aggregate_id = ?", aggregateID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&current).Error; err != nil {
		return 0, fmt.Errorf("failed to read current version: %w", err)
	}
	return current, nil
}

// GetUnprocessedEvents gets all unprocessed events
func (s *GormEventStore) GetUnprocessedEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	var dbEvents []models.Event
	if err := s.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("timestamp ASC").
		Limit(limit).
		Find(&dbEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to get unprocessed events: %w", err)
	}

	return toDomainEvents(dbEvents), nil
}

// MarkEventProcessed marks an event as processed
func (s *GormEventStore) MarkEventProcessed(ctx context.Context, eventID string) error {
	if err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("event_id = ?", eventID).
		Update("processed", true).
		Update("updated_at", time.Now()).
		Error; err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}

	return nil
}

func marshalEventData(data interface{}) ([]byte, error) {
	if raw, ok := data.([]byte); ok {
		return raw, nil
	}
	return json.Marshal(data)
}

func toDomainEvents(dbEvents []models.Event) []domain.Event {
	events := make([]domain.Event, len(dbEvents))
	for i, dbEvent := range dbEvents {
		events[i] = domain.Event{
			ID:            dbEvent.EventID,
			AggregateID:   dbEvent.AggregateID,
			AggregateType: dbEvent.AggregateType,
			Type:          dbEvent.EventType,
			Version:       dbEvent.Version,
			Timestamp:     dbEvent.Timestamp,
			Data:          dbEvent.Data,
		}
	}
	return events
}
