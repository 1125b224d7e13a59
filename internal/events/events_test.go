package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go-order-ws/internal/model"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

type chanHub chan []byte

func (h chanHub) Broadcast(msg []byte) error {
	h <- msg
	return nil
}

type stoppedHub struct{}

func (stoppedHub) Broadcast([]byte) error { return errors.New("ws hub stopped") }

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, Event) error { return errors.New("down") }

type countingPublisher struct {
	mu sync.Mutex
	n  int
}

func (p *countingPublisher) Publish(context.Context, Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	return nil
}

func sampleEvent() Event {
	return Event{
		Type:    TypeOrderCreated,
		Data:    map[string]string{"order_number": "ORD-1"},
		User:    model.Actor{ID: "u1", Name: "Ana"},
		Message: "Ana created order ORD-1",
		At:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Key:     "order-1",
	}
}

func TestKafkaPublisherWritesKeyedMessage(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, NewKafkaPublisher(w).Publish(context.Background(), sampleEvent()))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-1", string(w.msgs[0].Key))
	assert.Equal(t, "order_created", string(w.msgs[0].Headers[0].Value))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "order_created", decoded["type"])
	assert.NotContains(t, decoded, "Key")
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	err := NewKafkaPublisher(w).Publish(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "publish order_created event")
}

func TestWSPublisherBroadcasts(t *testing.T) {
	hub := make(chanHub, 1)
	require.NoError(t, NewWSPublisher(hub).Publish(context.Background(), sampleEvent()))

	select {
	case msg := <-hub:
		assert.Contains(t, string(msg), `"type":"order_created"`)
	case <-time.After(time.Second):
		t.Fatal("no broadcast")
	}
}

func TestWSPublisherKeepsPublishOrder(t *testing.T) {
	hub := make(chanHub, 200)
	pub := NewWSPublisher(hub)
	for i := 0; i < 200; i++ {
		evt := sampleEvent()
		evt.Message = fmt.Sprintf("e%03d", i)
		require.NoError(t, pub.Publish(context.Background(), evt))
	}
	close(hub)

	i := 0
	for msg := range hub {
		assert.Contains(t, string(msg), fmt.Sprintf(`"message":"e%03d"`, i))
		i++
	}
	assert.Equal(t, 200, i)
}

func TestWSPublisherReportsBroadcastFailure(t *testing.T) {
	err := NewWSPublisher(stoppedHub{}).Publish(context.Background(), sampleEvent())

	assert.EqualError(t, err, "broadcast order_created event: ws hub stopped")
}

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	a, b := &countingPublisher{}, &countingPublisher{}
	err := Fanout(a, failingPublisher{}, b).Publish(context.Background(), sampleEvent())

	assert.EqualError(t, err, "down")
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
	assert.NoError(t, Nop().Publish(context.Background(), sampleEvent()))
}
