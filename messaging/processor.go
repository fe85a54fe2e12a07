package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/hotswap/services/recovery/handlers"
	"example.com/hotswap/services/recovery/utils"
)

// EventType definitions for incoming swap-event messages
const (
	ClassFileChanged      = "ClassFileChanged"
	BytecodeValidated     = "BytecodeValidated"
	BytecodeRejected      = "BytecodeRejected"
	HotSwapRequested      = "HotSwapRequested"
	RedefinitionSucceeded = "RedefinitionSucceeded"
	RedefinitionFailed    = "RedefinitionFailed"
	InstancesUpdated      = "InstancesUpdated"
)

// AzureBusMessage is the common message structure
type AzureBusMessage struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

type MessageProcessor interface {
	ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error
}

// Processor routes incoming swap-event messages to the swap handler
type Processor struct {
	swapHandler *handlers.SwapHandler
}

func NewProcessor(swapHandler *handlers.SwapHandler) *Processor {
	return &Processor{swapHandler: swapHandler}
}

func (p *Processor) ProcessMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	var msg AzureBusMessage
	if err := json.Unmarshal(message.Body, &msg); err != nil {
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	log.Info().Str("eventType", msg.EventType).Msg("Processing message")

	switch msg.EventType {
	case ClassFileChanged:
		var cmd handlers.ClassFileChangedCommand
		if err := decodeCommand(msg.Data, &cmd); err != nil {
			return err
		}
		return p.swapHandler.HandleClassFileChanged(ctx, cmd)

	case BytecodeValidated:
		var cmd handlers.BytecodeValidatedCommand
		if err := decodeCommand(msg.Data, &cmd); err != nil {
			return err
		}
		return p.swapHandler.HandleBytecodeValidated(ctx, cmd)

	case BytecodeRejected:
		var cmd handlers.BytecodeRejectedCommand
		if err := decodeCommand(msg.Data, &cmd); err != nil {
			return err
		}
		return p.swapHandler.HandleBytecodeRejected(ctx, cmd)

	case HotSwapRequested:
		var cmd handlers.HotSwapRequestedCommand
		if err := decodeCommand(msg.Data, &cmd); err != nil {
			return err
		}
		return p.swapHandler.HandleHotSwapRequested(ctx, cmd)

	case RedefinitionSucceeded:
		var cmd handlers.RedefinitionSucceededCommand
		if err := decodeCommand(msg.Data, &cmd); err != nil {
			return err
		}
		return p.swapHandler.HandleRedefinitionSucceeded(ctx, cmd)

	case RedefinitionFailed:
		var cmd handlers.RedefinitionFailedCommand
		if err := decodeCommand(msg.Data, &cmd); err != nil {
			return err
		}
		return p.swapHandler.HandleRedefinitionFailed(ctx, cmd)

	case InstancesUpdated:
		var cmd handlers.InstancesUpdatedCommand
		if err := decodeCommand(msg.Data, &cmd); err != nil {
			return err
		}
		return p.swapHandler.HandleInstancesUpdated(ctx, cmd)

	default:
		log.Warn().Str("eventType", msg.EventType).Msg("Unknown event type, skipping message")
		return nil
	}
}

// decodeCommand unmarshals a command and validates its binding tags. Queue
// messages skip gin binding so validation happens here.
func decodeCommand(data json.RawMessage, cmd interface{}) error {
	if err := json.Unmarshal(data, cmd); err != nil {
		return fmt.Errorf("error unmarshalling command: %w", err)
	}
	return utils.ValidateStruct(cmd)
}
