package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"bakery-erp/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishSyncCompleted publishes a SyncCompleted event
func (ep *EventPublisher) PublishSyncCompleted(ctx context.Context, event *models.SyncCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, "inventory-sync", event)
}

// PublishPriceChanged publishes a PriceChanged event
func (ep *EventPublisher) PublishPriceChanged(ctx context.Context, event *models.PriceChangedEvent) error {
	key := fmt.Sprintf("item-%s", event.ManagerItemID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishProductionOrderCreated publishes a ProductionOrderCreated event
func (ep *EventPublisher) PublishProductionOrderCreated(ctx context.Context, event *models.ProductionOrderCreatedEvent) error {
	key := fmt.Sprintf("production-order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishProductionOrderSubmitted publishes a ProductionOrderSubmitted event
func (ep *EventPublisher) PublishProductionOrderSubmitted(ctx context.Context, event *models.ProductionOrderSubmittedEvent) error {
	key := fmt.Sprintf("production-order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onPriceChanged func(context.Context, *models.PriceChangedEvent) error
	onSyncComplete func(context.Context, *models.SyncCompletedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPriceChanged registers a handler for PriceChanged events
func (eh *EventHandler) OnPriceChanged(handler func(context.Context, *models.PriceChangedEvent) error) {
	eh.onPriceChanged = handler
}

// OnSyncCompleted registers a handler for SyncCompleted events
func (eh *EventHandler) OnSyncCompleted(handler func(context.Context, *models.SyncCompletedEvent) error) {
	eh.onSyncComplete = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypePriceChanged:
		if eh.onPriceChanged != nil {
			var event models.PriceChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PriceChanged event: %w", err)
			}
			return eh.onPriceChanged(ctx, &event)
		}

	case models.EventTypeSyncCompleted:
		if eh.onSyncComplete != nil {
			var event models.SyncCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SyncCompleted event: %w", err)
			}
			return eh.onSyncComplete(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
