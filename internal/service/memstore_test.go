package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-order-ws/internal/model"
	"go-order-ws/internal/repository"
	"go-order-ws/pkg/apperror"

	"github.com/google/uuid"
)

// memData is the whole database; transactions snapshot and restore it.
type memData struct {
	products    map[uuid.UUID]model.Product
	customers   map[uuid.UUID]model.Customer
	enterprises map[uuid.UUID]model.Enterprise
	orders      map[uuid.UUID]model.Order
	items       map[uuid.UUID][]model.OrderItem
	movements   []model.StockMovement
}

func newMemData() *memData {
	return &memData{
		products:    map[uuid.UUID]model.Product{},
		customers:   map[uuid.UUID]model.Customer{},
		enterprises: map[uuid.UUID]model.Enterprise{},
		orders:      map[uuid.UUID]model.Order{},
		items:       map[uuid.UUID][]model.OrderItem{},
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.enterprises {
		c.enterprises[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.items {
		c.items[k] = append([]model.OrderItem(nil), v...)
	}
	c.movements = append([]model.StockMovement(nil), d.movements...)
	return c
}

type memState struct {
	txMu   sync.Mutex
	dataMu sync.RWMutex
	data   *memData

	// beforeStockDelta lets a test fail the guarded stock write for chosen products.
	beforeStockDelta func(productID uuid.UUID) error
	// onTxStart runs once the transaction lock is held.
	onTxStart func()
}

type memStore struct {
	st *memState
}

func newMemStore() *memStore {
	return &memStore{st: &memState{data: newMemData()}}
}

func (s *memStore) Catalog() repository.CatalogReader             { return memCatalog{s.st} }
func (s *memStore) Products() repository.ProductRepository        { return memProducts{s.st} }
func (s *memStore) Orders() repository.OrderRepository            { return memOrders{s.st} }
func (s *memStore) Movements() repository.StockMovementRepository { return memMovements{s.st} }
func (s *memStore) Customers() repository.CustomerRepository      { return memCustomers{s.st} }
func (s *memStore) Enterprises() repository.EnterpriseRepository  { return memEnterprises{s.st} }

// WithinTransaction serializes transactions and restores the snapshot on error.
func (s *memStore) WithinTransaction(ctx context.Context, fn func(tx repository.Store) error) error {
	s.st.txMu.Lock()
	defer s.st.txMu.Unlock()
	if s.st.onTxStart != nil {
		s.st.onTxStart()
	}

	s.st.dataMu.Lock()
	snapshot := s.st.data.clone()
	s.st.dataMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(s); err != nil {
		s.st.dataMu.Lock()
		s.st.data = snapshot
		s.st.dataMu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) read(fn func(d *memData)) {
	s.st.dataMu.RLock()
	defer s.st.dataMu.RUnlock()
	fn(s.st.data)
}

// seeding helpers

func (s *memStore) addEnterprise(name string) uuid.UUID {
	e := model.Enterprise{LegalName: name, TradeName: name, CNPJ: uuid.NewString()}
	e.ID = uuid.New()
	s.st.data.enterprises[e.ID] = e
	return e.ID
}

func (s *memStore) addCustomer(name string) uuid.UUID {
	c := model.Customer{Name: name, Email: name + "@example.com", CPF: uuid.NewString()}
	c.ID = uuid.New()
	s.st.data.customers[c.ID] = c
	return c.ID
}

func (s *memStore) addProduct(enterpriseID uuid.UUID, name, price string, stock int) uuid.UUID {
	p := model.Product{Name: name, Price: dec(price), Stock: stock, EnterpriseID: enterpriseID}
	p.ID = uuid.New()
	s.st.data.products[p.ID] = p
	return p.ID
}

func (s *memStore) stockOf(id uuid.UUID) int {
	var stock int
	s.read(func(d *memData) { stock = d.products[id].Stock })
	return stock
}

func (s *memStore) orderCount() int {
	var n int
	s.read(func(d *memData) { n = len(d.orders) })
	return n
}

func (s *memStore) itemCount() int {
	var n int
	s.read(func(d *memData) {
		for _, items := range d.items {
			n += len(items)
		}
	})
	return n
}

func (s *memStore) movementCount() int {
	var n int
	s.read(func(d *memData) { n = len(d.movements) })
	return n
}

type memCatalog struct{ st *memState }

func (c memCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return memProducts(c).FindByID(ctx, id)
}

func (c memCatalog) CustomerExists(_ context.Context, id uuid.UUID) (bool, error) {
	c.st.dataMu.RLock()
	defer c.st.dataMu.RUnlock()
	_, ok := c.st.data.customers[id]
	return ok, nil
}

func (c memCatalog) EnterpriseExists(_ context.Context, id uuid.UUID) (bool, error) {
	c.st.dataMu.RLock()
	defer c.st.dataMu.RUnlock()
	_, ok := c.st.data.enterprises[id]
	return ok, nil
}

func (c memCatalog) OrderNumberExists(_ context.Context, number string, excludeID *uuid.UUID) (bool, error) {
	c.st.dataMu.RLock()
	defer c.st.dataMu.RUnlock()
	for _, o := range c.st.data.orders {
		if o.OrderNumber == number && (excludeID == nil || o.ID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

type memProducts struct{ st *memState }

func (r memProducts) Create(_ context.Context, p *model.Product) error {
	r.st.dataMu.Lock()
	defer r.st.dataMu.Unlock()
	for _, existing := range r.st.data.products {
		if existing.EnterpriseID == p.EnterpriseID && existing.Name == p.Name {
			return apperror.Conflict("product %q already exists for this enterprise", p.Name)
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.st.data.products[p.ID] = *p
	return nil
}

func (r memProducts) list(filter func(model.Product) bool) []model.Product {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	var out []model.Product
	for _, p := range r.st.data.products {
		if filter(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r memProducts) FindAll(context.Context) ([]model.Product, error) {
	return r.list(func(model.Product) bool { return true }), nil
}

func (r memProducts) FindByEnterprise(_ context.Context, enterpriseID uuid.UUID) ([]model.Product, error) {
	return r.list(func(p model.Product) bool { return p.EnterpriseID == enterpriseID }), nil
}

func (r memProducts) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	p, ok := r.st.data.products[id]
	if !ok {
		return nil, apperror.NotFound("product %s not found", id)
	}
	return &p, nil
}

func (r memProducts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r memProducts) NameExists(_ context.Context, enterpriseID uuid.UUID, name string) (bool, error) {
	return len(r.list(func(p model.Product) bool { return p.EnterpriseID == enterpriseID && p.Name == name })) > 0, nil
}

func (r memProducts) ApplyStockDelta(_ context.Context, id uuid.UUID, delta, max int, updatedBy string) error {
	if r.st.beforeStockDelta != nil {
		if err := r.st.beforeStockDelta(id); err != nil {
			return err
		}
	}
	r.st.dataMu.Lock()
	defer r.st.dataMu.Unlock()
	p, ok := r.st.data.products[id]
	if !ok || p.Stock+delta < 0 || p.Stock+delta > max {
		return repository.ErrStockGuard
	}
	p.Stock += delta
	p.UpdatedBy = updatedBy
	r.st.data.products[id] = p
	return nil
}

type memOrders struct{ st *memState }

func (r memOrders) Create(_ context.Context, o *model.Order) error {
	r.st.dataMu.Lock()
	defer r.st.dataMu.Unlock()
	for _, existing := range r.st.data.orders {
		if existing.OrderNumber == o.OrderNumber {
			return apperror.Conflict("an order with number %s already exists", o.OrderNumber).WithField("orderNumber")
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	header := *o
	header.Items = nil
	r.st.data.orders[o.ID] = header
	return nil
}

func (r memOrders) CreateItems(_ context.Context, items []model.OrderItem) error {
	r.st.dataMu.Lock()
	defer r.st.dataMu.Unlock()
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		r.st.data.items[items[i].OrderID] = append(r.st.data.items[items[i].OrderID], items[i])
	}
	return nil
}

func (r memOrders) DeleteItems(_ context.Context, orderID uuid.UUID) error {
	r.st.dataMu.Lock()
	defer r.st.dataMu.Unlock()
	delete(r.st.data.items, orderID)
	return nil
}

func (r memOrders) Update(_ context.Context, o *model.Order) error {
	r.st.dataMu.Lock()
	defer r.st.dataMu.Unlock()
	for _, existing := range r.st.data.orders {
		if existing.ID != o.ID && existing.OrderNumber == o.OrderNumber {
			return apperror.Conflict("an order with number %s already exists", o.OrderNumber).WithField("orderNumber")
		}
	}
	header := *o
	header.Items = nil
	header.Customer = nil
	header.Enterprise = nil
	r.st.data.orders[o.ID] = header
	return nil
}

func (r memOrders) Delete(_ context.Context, id uuid.UUID) error {
	r.st.dataMu.Lock()
	defer r.st.dataMu.Unlock()
	delete(r.st.data.orders, id)
	delete(r.st.data.items, id)
	return nil
}

// hydrate must be called with dataMu held.
func (r memOrders) hydrate(o model.Order) model.Order {
	o.Items = append([]model.OrderItem(nil), r.st.data.items[o.ID]...)
	if c, ok := r.st.data.customers[o.CustomerID]; ok {
		o.Customer = &c
	}
	if e, ok := r.st.data.enterprises[o.EnterpriseID]; ok {
		o.Enterprise = &e
	}
	return o
}

func (r memOrders) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	o, ok := r.st.data.orders[id]
	if !ok {
		return nil, apperror.NotFound("order %s not found", id)
	}
	o = r.hydrate(o)
	return &o, nil
}

func (r memOrders) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r memOrders) list(filter func(model.Order) bool) []model.Order {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	var out []model.Order
	for _, o := range r.st.data.orders {
		if filter(o) {
			out = append(out, r.hydrate(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out
}

func (r memOrders) FindAll(context.Context) ([]model.Order, error) {
	return r.list(func(model.Order) bool { return true }), nil
}

func (r memOrders) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.CustomerID == customerID }), nil
}

func (r memOrders) FindByEnterprise(_ context.Context, enterpriseID uuid.UUID) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.EnterpriseID == enterpriseID }), nil
}

type memMovements struct{ st *memState }

func (r memMovements) Create(_ context.Context, m *model.StockMovement) error {
	r.st.dataMu.Lock()
	defer r.st.dataMu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.st.data.movements = append(r.st.data.movements, *m)
	return nil
}

func (r memMovements) FindAll(_ context.Context, limit int) ([]model.StockMovement, error) {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	out := append([]model.StockMovement(nil), r.st.data.movements...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r memMovements) FindByProduct(_ context.Context, productID uuid.UUID) ([]model.StockMovement, error) {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	var out []model.StockMovement
	for _, m := range r.st.data.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memMovements) GetStockMovement(context.Context, time.Time, time.Time) ([]repository.StockMovementData, error) {
	return nil, nil
}

func (r memMovements) GetDashboardStats(context.Context) (*repository.DashboardStats, error) {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	stats := &repository.DashboardStats{TotalProducts: int64(len(r.st.data.products))}
	for _, o := range r.st.data.orders {
		if o.Status == model.OrderPending {
			stats.PendingOrders++
		}
	}
	return stats, nil
}

type memCustomers struct{ st *memState }

func (r memCustomers) Create(_ context.Context, c *model.Customer) error {
	r.st.dataMu.Lock()
	defer r.st.dataMu.Unlock()
	for _, existing := range r.st.data.customers {
		if existing.Email == c.Email || existing.CPF == c.CPF {
			return apperror.Conflict("a customer with this email or CPF already exists")
		}
	}
	c.ID = uuid.New()
	r.st.data.customers[c.ID] = *c
	return nil
}

func (r memCustomers) FindAll(context.Context) ([]model.Customer, error) {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	var out []model.Customer
	for _, c := range r.st.data.customers {
		out = append(out, c)
	}
	return out, nil
}

func (r memCustomers) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	c, ok := r.st.data.customers[id]
	if !ok {
		return nil, apperror.NotFound("customer %s not found", id)
	}
	return &c, nil
}

type memEnterprises struct{ st *memState }

func (r memEnterprises) Create(_ context.Context, e *model.Enterprise) error {
	r.st.dataMu.Lock()
	defer r.st.dataMu.Unlock()
	for _, existing := range r.st.data.enterprises {
		if existing.CNPJ == e.CNPJ {
			return apperror.Conflict("an enterprise with CNPJ %s already exists", e.CNPJ)
		}
	}
	e.ID = uuid.New()
	r.st.data.enterprises[e.ID] = *e
	return nil
}

func (r memEnterprises) FindAll(context.Context) ([]model.Enterprise, error) {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	var out []model.Enterprise
	for _, e := range r.st.data.enterprises {
		out = append(out, e)
	}
	return out, nil
}

func (r memEnterprises) FindByID(_ context.Context, id uuid.UUID) (*model.Enterprise, error) {
	r.st.dataMu.RLock()
	defer r.st.dataMu.RUnlock()
	e, ok := r.st.data.enterprises[id]
	if !ok {
		return nil, apperror.NotFound("enterprise %s not found", id)
	}
	return &e, nil
}

var _ repository.Store = (*memStore)(nil)
