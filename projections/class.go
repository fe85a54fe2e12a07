package projections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v7"
	"gorm.io/gorm"

	"example.com/hotswap/services/recovery/config"
	"example.com/hotswap/services/recovery/domain"
	"example.com/hotswap/services/recovery/models"
)

// Constants for index names
const (
	ClassStatesIndex  = "class-states"
	ClassEventsIndex  = "class-events"
	FaultReportsIndex = "fault-reports"
)

// ClassProjector maintains the class read model. Every event is indexed
// into the events index, then the aggregate is refolded and the resulting
// state is upserted in the database and the states index.
type ClassProjector struct {
	db            *gorm.DB
	elasticClient *elasticsearch.Client
	reconstructor *domain.Reconstructor
	cfg           config.Config
}

// NewClassProjector creates a new class projector
func NewClassProjector(db *gorm.DB, elasticClient *elasticsearch.Client, store domain.EventReader, cfg config.Config) *ClassProjector {
	return &ClassProjector{
		db:            db,
		elasticClient: elasticClient,
		reconstructor: domain.NewReconstructor(store),
		cfg:           cfg,
	}
}

// Project projects an event
func (p *ClassProjector) Project(ctx context.Context, event domain.Event) error {
	if err := p.indexEvent(ctx, event); err != nil {
		return err
	}

	state, err := p.reconstructor.Reconstruct(ctx, event.AggregateID)
	if err != nil {
		return fmt.Errorf("failed to reconstruct class state: %w", err)
	}
	if state == nil {
		// Store momentarily unavailable, the next batch will catch up
		return nil
	}

	return p.upsertState(ctx, state)
}

// indexEvent indexes the raw event in Elasticsearch
func (p *ClassProjector) indexEvent(ctx context.Context, event domain.Event) error {
	eventDoc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	index := FormatIndex(ClassEventsIndex, p.cfg)
	res, err := p.elasticClient.Index(
		index,
		bytes.NewReader(eventDoc),
		p.elasticClient.Index.WithDocumentID(event.ID),
		p.elasticClient.Index.WithRefresh("true"),
		p.elasticClient.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index event in Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index event in Elasticsearch: %s", res.String())
	}

	return nil
}

// upsertState writes the refolded state to the database and Elasticsearch
func (p *ClassProjector) upsertState(ctx context.Context, state *domain.ClassState) error {
	updateFields := map[string]interface{}{
		"class_name":          state.ClassName,
		"version":             state.Version,
		"status":              state.Status,
		"swap_requests":       state.SwapRequests,
		"redefinition_count":  state.RedefinitionCount,
		"failure_count":       state.FailureCount,
		"instance_count":      state.InstanceCount,
		"last_failure_reason": state.LastFailureReason,
		"last_swap_at":        state.LastSwapAt,
	}

	var existing models.ClassState
	err := p.db.WithContext(ctx).
		Where("aggregate_id = ?", state.AggregateID).
		First(&existing).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		record := models.ClassState{
			AggregateID:       state.AggregateID,
			ClassName:         state.ClassName,
			Version:           state.Version,
			Status:            state.Status,
			SwapRequests:      state.SwapRequests,
			RedefinitionCount: state.RedefinitionCount,
			FailureCount:      state.FailureCount,
			InstanceCount:     state.InstanceCount,
			LastFailureReason: state.LastFailureReason,
			LastSwapAt:        state.LastSwapAt,
		}
		if err := p.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create class state in database: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to get class state from database: %w", err)
	default:
		if err := p.db.WithContext(ctx).Model(&existing).Updates(updateFields).Error; err != nil {
			return fmt.Errorf("failed to update class state in database: %w", err)
		}
	}

	stateDoc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal class state: %w", err)
	}

	index := FormatIndex(ClassStatesIndex, p.cfg)
	res, err := p.elasticClient.Index(
		index,
		bytes.NewReader(stateDoc),
		p.elasticClient.Index.WithDocumentID(state.AggregateID),
		p.elasticClient.Index.WithRefresh("true"),
		p.elasticClient.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index class state in Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index class state in Elasticsearch: %s", res.String())
	}

	return nil
}
