package events

import (
	"context"
	"fmt"
)

// Broadcaster is satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(msg []byte) error
}

type wsPublisher struct {
	hub Broadcaster
}

func NewWSPublisher(hub Broadcaster) Publisher {
	return &wsPublisher{hub: hub}
}

func (p *wsPublisher) Publish(_ context.Context, evt Event) error {
	msg, err := evt.Marshal()
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", evt.Type, err)
	}
	if err := p.hub.Broadcast(msg); err != nil {
		return fmt.Errorf("broadcast %s event: %w", evt.Type, err)
	}
	return nil
}
