package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"

	"example.com/hotswap/services/recovery/handlers"
)

// DecisionPublisher sends recovery decisions to the executor queue. The
// decision core never executes a strategy itself; the external executor
// consumes this queue.
type DecisionPublisher struct {
	sender *azservicebus.Sender
}

// NewDecisionPublisher creates a publisher for the decisions queue
func NewDecisionPublisher(client *AzureClient, queueName string) (*DecisionPublisher, error) {
	sender, err := client.client.NewSender(queueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create sender for queue %s: %w", queueName, err)
	}

	return &DecisionPublisher{sender: sender}, nil
}

// PublishDecision sends one decision message
func (p *DecisionPublisher) PublishDecision(ctx context.Context, decision handlers.Decision) error {
	body, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	message := &azservicebus.Message{
		Body:      body,
		SessionID: &decision.AggregateID,
	}

	if err := p.sender.SendMessage(ctx, message, nil); err != nil {
		return fmt.Errorf("failed to send decision: %w", err)
	}

	log.Info().
		Str("aggregateID", decision.AggregateID).
		Str("strategy", string(decision.Strategy)).
		Str("outcome", decision.Outcome).
		Msg("Recovery decision published")

	return nil
}

// Close releases the underlying sender
func (p *DecisionPublisher) Close(ctx context.Context) error {
	return p.sender.Close(ctx)
}
