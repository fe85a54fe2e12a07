package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/hotswap/services/recovery/eventstore"
	"example.com/hotswap/services/recovery/handlers"
)

// SwapEventRequest is the request for a hot-swap lifecycle event
type SwapEventRequest struct {
	EventType string          `json:"eventType" binding:"required"`
	Data      json.RawMessage `json:"data" binding:"required"`
}

// receiveSwapEvents processes hot-swap lifecycle events
func (s *Server) receiveSwapEvents(c *gin.Context) {
	var req SwapEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	switch req.EventType {
	case "ClassFileChanged":
		var cmd handlers.ClassFileChangedCommand
		if err := json.Unmarshal(req.Data, &cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if cmd.AggregateID == "" {
			cmd.AggregateID = uuid.New().String()
		}
		err = s.swapHandler.HandleClassFileChanged(ctx, cmd)

	case "BytecodeValidated":
		var cmd handlers.BytecodeValidatedCommand
		if err := json.Unmarshal(req.Data, &cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err = s.swapHandler.HandleBytecodeValidated(ctx, cmd)

	case "BytecodeRejected":
		var cmd handlers.BytecodeRejectedCommand
		if err := json.Unmarshal(req.Data, &cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err = s.swapHandler.HandleBytecodeRejected(ctx, cmd)

	case "HotSwapRequested":
		var cmd handlers.HotSwapRequestedCommand
		if err := json.Unmarshal(req.Data, &cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err = s.swapHandler.HandleHotSwapRequested(ctx, cmd)

	case "RedefinitionSucceeded":
		var cmd handlers.RedefinitionSucceededCommand
		if err := json.Unmarshal(req.Data, &cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err = s.swapHandler.HandleRedefinitionSucceeded(ctx, cmd)

	case "RedefinitionFailed":
		var cmd handlers.RedefinitionFailedCommand
		if err := json.Unmarshal(req.Data, &cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err = s.swapHandler.HandleRedefinitionFailed(ctx, cmd)

	case "InstancesUpdated":
		var cmd handlers.InstancesUpdatedCommand
		if err := json.Unmarshal(req.Data, &cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err = s.swapHandler.HandleInstancesUpdated(ctx, cmd)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported event type"})
		return
	}

	if err != nil {
		if errors.Is(err, eventstore.ErrConcurrentModification) {
			c.JSON(http.StatusConflict, gin.H{"error": "concurrent modification, retry with current state"})
			return
		}
		log.Error().Err(err).Str("eventType", req.EventType).Msg("Failed to handle swap event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// getClassAggregate reconstructs a class aggregate by folding its events.
// The reconstructed state is cached until the next event invalidates it.
func (s *Server) getClassAggregate(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if state, err := s.cache.GetClassState(ctx, id); err == nil && state != nil {
		c.JSON(http.StatusOK, state)
		return
	}

	state, err := s.reconstructor.Reconstruct(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
		return
	}

	if err := s.cache.SetClassState(ctx, state); err != nil {
		log.Warn().Err(err).Str("aggregateID", id).Msg("Failed to cache class state")
	}

	c.JSON(http.StatusOK, state)
}
