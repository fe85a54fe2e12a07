package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/hotswap/services/recovery/domain"
	"example.com/hotswap/services/recovery/eventstore"
)

// Command structs
type ClassFileChangedCommand struct {
	AggregateID string    `json:"aggregate_id" binding:"required"`
	ClassName   string    `json:"class_name" binding:"required"`
	SourcePath  string    `json:"source_path"`
	FileSize    int64     `json:"file_size"`
	DetectedAt  time.Time `json:"detected_at"`
}

type BytecodeValidatedCommand struct {
	AggregateID    string `json:"aggregate_id" binding:"required"`
	ClassName      string `json:"class_name" binding:"required"`
	BytecodeLength int    `json:"bytecode_length"`
	Compatible     bool   `json:"compatible"`
}

type BytecodeRejectedCommand struct {
	AggregateID string `json:"aggregate_id" binding:"required"`
	ClassName   string `json:"class_name" binding:"required"`
	Reason      string `json:"reason"`
}

type HotSwapRequestedCommand struct {
	AggregateID string `json:"aggregate_id" binding:"required"`
	ClassName   string `json:"class_name" binding:"required"`
	RequestedBy string `json:"requested_by"`
	Trigger     string `json:"trigger"`
}

type RedefinitionSucceededCommand struct {
	AggregateID       string `json:"aggregate_id" binding:"required"`
	ClassName         string `json:"class_name" binding:"required"`
	AffectedInstances int    `json:"affected_instances"`
	DurationMillis    int64  `json:"duration_millis"`
}

type RedefinitionFailedCommand struct {
	AggregateID   string `json:"aggregate_id" binding:"required"`
	ClassName     string `json:"class_name" binding:"required"`
	FailureReason string `json:"failure_reason"`
	RuntimeError  string `json:"runtime_error"`
}

type InstancesUpdatedCommand struct {
	AggregateID      string `json:"aggregate_id" binding:"required"`
	ClassName        string `json:"class_name" binding:"required"`
	UpdatedInstances int    `json:"updated_instances"`
	UpdateMethod     string `json:"update_method"`
}

// StateCache invalidates cached reconstructed state on new events
type StateCache interface {
	DeleteClassState(ctx context.Context, aggregateID string) error
}

// SwapHandler appends hot-swap lifecycle events to the log. Failure events
// additionally run the fault pipeline so every reported mutation failure
// produces a recovery decision.
type SwapHandler struct {
	store  eventstore.EventStore
	faults *FaultHandler
	cache  StateCache
}

// NewSwapHandler creates a swap handler. The cache is optional.
func NewSwapHandler(store eventstore.EventStore, faults *FaultHandler, cache StateCache) *SwapHandler {
	return &SwapHandler{
		store:  store,
		faults: faults,
		cache:  cache,
	}
}

// HandleClassFileChanged records a class file change
func (h *SwapHandler) HandleClassFileChanged(ctx context.Context, cmd ClassFileChangedCommand) error {
	detectedAt := cmd.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = time.Now()
	}
	return h.append(ctx, cmd.AggregateID, domain.ClassFileChanged, domain.ClassFileChangedEvent{
		ClassName:  cmd.ClassName,
		SourcePath: cmd.SourcePath,
		FileSize:   cmd.FileSize,
		DetectedAt: detectedAt,
	})
}

// HandleBytecodeValidated records a successful validation
func (h *SwapHandler) HandleBytecodeValidated(ctx context.Context, cmd BytecodeValidatedCommand) error {
	return h.append(ctx, cmd.AggregateID, domain.BytecodeValidated, domain.BytecodeValidatedEvent{
		ClassName:      cmd.ClassName,
		BytecodeLength: cmd.BytecodeLength,
		Compatible:     cmd.Compatible,
	})
}

// HandleBytecodeRejected records a failed validation and runs the fault pipeline
func (h *SwapHandler) HandleBytecodeRejected(ctx context.Context, cmd BytecodeRejectedCommand) error {
	if err := h.append(ctx, cmd.AggregateID, domain.BytecodeRejected, domain.BytecodeRejectedEvent{
		ClassName: cmd.ClassName,
		Reason:    cmd.Reason,
	}); err != nil {
		return err
	}

	if h.faults != nil {
		snapshot, errCtx := h.faults.Capture(ctx, cmd.AggregateID)
		h.faults.Process(ctx, domain.NewValidationFault(cmd.ClassName, cmd.Reason, snapshot, errCtx))
	}
	return nil
}

// HandleHotSwapRequested records a redefinition request
func (h *SwapHandler) HandleHotSwapRequested(ctx context.Context, cmd HotSwapRequestedCommand) error {
	return h.append(ctx, cmd.AggregateID, domain.HotSwapRequested, domain.HotSwapRequestedEvent{
		ClassName:   cmd.ClassName,
		RequestedBy: cmd.RequestedBy,
		Trigger:     cmd.Trigger,
	})
}

// HandleRedefinitionSucceeded records an applied redefinition
func (h *SwapHandler) HandleRedefinitionSucceeded(ctx context.Context, cmd RedefinitionSucceededCommand) error {
	return h.append(ctx, cmd.AggregateID, domain.RedefinitionSucceeded, domain.ClassRedefinitionSucceededEvent{
		ClassName:         cmd.ClassName,
		AffectedInstances: cmd.AffectedInstances,
		DurationMillis:    cmd.DurationMillis,
	})
}

// HandleRedefinitionFailed records a rejected redefinition and runs the
// fault pipeline with a redefinition fault
func (h *SwapHandler) HandleRedefinitionFailed(ctx context.Context, cmd RedefinitionFailedCommand) error {
	if err := h.append(ctx, cmd.AggregateID, domain.RedefinitionFailed, domain.ClassRedefinitionFailedEvent{
		ClassName:     cmd.ClassName,
		FailureReason: cmd.FailureReason,
		RuntimeError:  cmd.RuntimeError,
	}); err != nil {
		return err
	}

	if h.faults != nil {
		snapshot, errCtx := h.faults.Capture(ctx, cmd.AggregateID)
		h.faults.Process(ctx, domain.NewRedefinitionFault(cmd.ClassName, cmd.FailureReason, cmd.RuntimeError, snapshot, errCtx))
	}
	return nil
}

// HandleInstancesUpdated records an instance migration
func (h *SwapHandler) HandleInstancesUpdated(ctx context.Context, cmd InstancesUpdatedCommand) error {
	return h.append(ctx, cmd.AggregateID, domain.InstancesUpdated, domain.InstancesUpdatedEvent{
		ClassName:        cmd.ClassName,
		UpdatedInstances: cmd.UpdatedInstances,
		UpdateMethod:     cmd.UpdateMethod,
	})
}

// append computes the next version and appends a single event. A stale
// version surfaces as ErrConcurrentModification for the caller to retry
// with fresh state.
func (h *SwapHandler) append(ctx context.Context, aggregateID, eventType string, data interface{}) error {
	current, err := h.store.CurrentVersion(ctx, aggregateID)
	if err != nil {
		return fmt.Errorf("failed to read current version: %w", err)
	}

	event := domain.Event{
		AggregateID:   aggregateID,
		AggregateType: domain.AggregateTypeClass,
		Type:          eventType,
		Version:       current + 1,
		Timestamp:     time.Now(),
		Data:          data,
	}

	if err := h.store.Append(ctx, event); err != nil {
		return err
	}

	if h.cache != nil {
		if err := h.cache.DeleteClassState(ctx, aggregateID); err != nil {
			log.Warn().Err(err).Str("aggregateID", aggregateID).Msg("Failed to invalidate cached class state")
		}
	}

	return nil
}
