package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-order-ws/internal/events"
	"go-order-ws/internal/model"
	"go-order-ws/pkg/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	testNow   = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	testActor = model.Actor{ID: "user-1", Name: "Ana", Email: "ana@example.com"}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store      *memStore
	svc        OrderService
	validator  *OrderValidator
	pub        *recordingPublisher
	metrics    *metrics.Metrics
	customer   uuid.UUID
	enterprise uuid.UUID
	other      uuid.UUID
	mouse      uuid.UUID // price 10.00, stock 5
	keyboard   uuid.UUID // price 25.50, stock 10
	foreign    uuid.UUID // belongs to other
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: newMemStore(), pub: &recordingPublisher{}}
	f.customer = f.store.addCustomer("joao")
	f.enterprise = f.store.addEnterprise("Acme")
	f.other = f.store.addEnterprise("Globex")
	f.mouse = f.store.addProduct(f.enterprise, "Mouse", "10.00", 5)
	f.keyboard = f.store.addProduct(f.enterprise, "Keyboard", "25.50", 10)
	f.foreign = f.store.addProduct(f.other, "Monitor", "300.00", 3)

	clock := func() time.Time { return testNow }
	f.metrics = metrics.New(prometheus.NewRegistry())
	f.validator = NewOrderValidator(f.store.Catalog(), dec("5.00"), clock)
	f.svc = NewOrderService(OrderServiceDeps{
		Store:     f.store,
		Validator: f.validator,
		Ledger:    NewStockLedger(),
		Events:    f.pub,
		Logger:    zap.NewNop(),
		Metrics:   f.metrics,
		Clock:     clock,
	})
	return f
}

func (f *fixture) item(product uuid.UUID, name string, qty int, unit string) OrderItemRequest {
	price := dec(unit)
	return OrderItemRequest{
		ProductID:   product,
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   price,
		Subtotal:    price.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// request builds a create request whose total matches its items.
func (f *fixture) request(number string, items ...OrderItemRequest) *CreateOrderRequest {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return &CreateOrderRequest{
		CustomerID:   f.customer,
		EnterpriseID: f.enterprise,
		OrderNumber:  number,
		OrderDate:    "2024-05-10",
		TotalAmount:  total,
		Items:        items,
	}
}

func strPtr(s string) *string { return &s }
