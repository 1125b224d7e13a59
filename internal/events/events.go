package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-order-ws/internal/model"
)

// Event types pushed to websocket clients and the Kafka topic.
const (
	TypeOrderCreated   = "order_created"
	TypeOrderUpdated   = "order_updated"
	TypeOrderCancelled = "order_cancelled"
	TypeOrderDeleted   = "order_deleted"
	TypeStockUpdate    = "stock_update"
)

type Event struct {
	Type    string      `json:"type"`
	Action  string      `json:"action,omitempty"`
	Data    interface{} `json:"data"`
	User    model.Actor `json:"user"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`

	// Key partitions the Kafka stream; usually the order or product id.
	Key string `json:"-"`
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events after the unit of work that produced them has committed.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type nop struct{}

func (nop) Publish(context.Context, Event) error { return nil }

// Nop discards every event.
func Nop() Publisher { return nop{} }

type fanout []Publisher

// Fanout publishes to every target and joins their errors.
func Fanout(targets ...Publisher) Publisher {
	return fanout(targets)
}

func (f fanout) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
