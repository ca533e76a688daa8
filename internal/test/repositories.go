package test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/vendara/marketplace/internal/domain/errors"
	"github.com/vendara/marketplace/internal/domain/model"
)

// StatusCall records one UpdateStatus invocation on a repository stub.
type StatusCall struct {
	ID     uuid.UUID
	Status model.OrderStatus
	Actor  model.Actor
	Reason string
}

// OrderRepositoryStub stores generic-family orders in-memory for tests.
// Overrides let individual tests inject failures.
type OrderRepositoryStub struct {
	Orders map[uuid.UUID]*model.Order
	Err    error

	CreateFn       func(context.Context, *model.Order) error
	GetByIDFn      func(context.Context, uuid.UUID) (*model.Order, error)
	UpdateStatusFn func(context.Context, uuid.UUID, model.OrderStatus, model.Actor, string) error

	StatusCalls []StatusCall
}

// NewOrderRepositoryStub constructs the stub with initialized storage.
func NewOrderRepositoryStub(orders ...*model.Order) *OrderRepositoryStub {
	s := &OrderRepositoryStub{Orders: make(map[uuid.UUID]*model.Order)}
	for _, o := range orders {
		s.Orders[o.ID] = o
	}
	return s
}

func (s *OrderRepositoryStub) Create(ctx context.Context, order *model.Order) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	if s.Err != nil {
		return s.Err
	}
	if _, exists := s.Orders[order.ID]; exists {
		return domainErrors.ErrAlreadyExists
	}
	s.Orders[order.ID] = order
	return nil
}

func (s *OrderRepositoryStub) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if order, ok := s.Orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *OrderRepositoryStub) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	for _, o := range s.Orders {
		if o.Number == number {
			copied := *o
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *OrderRepositoryStub) ListPartsByParent(ctx context.Context, parentID uuid.UUID) ([]model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var parts []model.Order
	for _, o := range s.Orders {
		if o.ParentID != nil && *o.ParentID == parentID {
			parts = append(parts, *o)
		}
	}
	return parts, nil
}

func (s *OrderRepositoryStub) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor model.Actor, reason string) error {
	s.StatusCalls = append(s.StatusCalls, StatusCall{ID: id, Status: status, Actor: actor, Reason: reason})
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, id, status, actor, reason)
	}
	if s.Err != nil {
		return s.Err
	}
	order, ok := s.Orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	order.Status = status
	if status.Cancelled() && order.CancelledBy == "" {
		order.CancelledBy = actor
	}
	order.History = append(order.History, model.StatusChange{Status: status, Actor: actor, Reason: reason, ChangedAt: time.Now()})
	return nil
}

func (s *OrderRepositoryStub) MarkSplit(ctx context.Context, id uuid.UUID) error {
	order, ok := s.Orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	order.Split = true
	return nil
}

func (s *OrderRepositoryStub) MarkCommissionReversed(ctx context.Context, id uuid.UUID) error {
	order, ok := s.Orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	order.CommissionReversed = true
	return nil
}

// VendorOrderRepositoryStub stores vendor-family parts in-memory for tests.
type VendorOrderRepositoryStub struct {
	Orders map[uuid.UUID]*model.VendorOrder
	Err    error

	CreateFn       func(context.Context, *model.VendorOrder) error
	UpdateStatusFn func(context.Context, uuid.UUID, model.OrderStatus, model.Actor, string) error

	StatusCalls []StatusCall
}

// NewVendorOrderRepositoryStub constructs the stub with initialized storage.
func NewVendorOrderRepositoryStub(orders ...*model.VendorOrder) *VendorOrderRepositoryStub {
	s := &VendorOrderRepositoryStub{Orders: make(map[uuid.UUID]*model.VendorOrder)}
	for _, o := range orders {
		s.Orders[o.ID] = o
	}
	return s
}

func (s *VendorOrderRepositoryStub) Create(ctx context.Context, order *model.VendorOrder) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, order)
	}
	if s.Err != nil {
		return s.Err
	}
	if _, exists := s.Orders[order.ID]; exists {
		return domainErrors.ErrAlreadyExists
	}
	s.Orders[order.ID] = order
	return nil
}

func (s *VendorOrderRepositoryStub) GetByID(ctx context.Context, id uuid.UUID) (*model.VendorOrder, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if order, ok := s.Orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, domainErrors.ErrNotFound
}

func (s *VendorOrderRepositoryStub) ListByNumber(ctx context.Context, number string) ([]model.VendorOrder, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var orders []model.VendorOrder
	for _, o := range s.Orders {
		if o.Number == number {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (s *VendorOrderRepositoryStub) ListByParent(ctx context.Context, parentID uuid.UUID) ([]model.VendorOrder, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var orders []model.VendorOrder
	for _, o := range s.Orders {
		if o.ParentID == parentID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (s *VendorOrderRepositoryStub) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor model.Actor, reason string) error {
	s.StatusCalls = append(s.StatusCalls, StatusCall{ID: id, Status: status, Actor: actor, Reason: reason})
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, id, status, actor, reason)
	}
	if s.Err != nil {
		return s.Err
	}
	order, ok := s.Orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	order.Status = status
	if status.Cancelled() && order.CancelledBy == "" {
		order.CancelledBy = actor
	}
	order.History = append(order.History, model.StatusChange{Status: status, Actor: actor, Reason: reason, ChangedAt: time.Now()})
	return nil
}

func (s *VendorOrderRepositoryStub) MarkCommissionReversed(ctx context.Context, id uuid.UUID) error {
	order, ok := s.Orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	order.CommissionReversed = true
	return nil
}

// CommissionRepositoryStub is an in-memory monthly-bucket ledger with real
// accrue/reverse semantics, so tests can assert ledger balance end to end.
type CommissionRepositoryStub struct {
	Buckets    map[string]*model.CommissionBucket
	Txs        map[string]model.CommissionTransaction
	AccrueErr  error
	ReverseErr error
}

// NewCommissionRepositoryStub constructs an empty ledger.
func NewCommissionRepositoryStub() *CommissionRepositoryStub {
	return &CommissionRepositoryStub{
		Buckets: make(map[string]*model.CommissionBucket),
		Txs:     make(map[string]model.CommissionTransaction),
	}
}

func bucketKey(vendorID uuid.UUID, month, year int) string {
	return fmt.Sprintf("%s/%d/%d", vendorID, month, year)
}

func txKey(rootID, partID uuid.UUID) string {
	return rootID.String() + "/" + partID.String()
}

func (s *CommissionRepositoryStub) Accrue(ctx context.Context, t model.CommissionTransaction) error {
	if s.AccrueErr != nil {
		return s.AccrueErr
	}
	key := txKey(t.RootID, t.PartID)
	if _, exists := s.Txs[key]; exists {
		return nil
	}
	s.Txs[key] = t

	bk := bucketKey(t.VendorID, t.Month, t.Year)
	bucket, ok := s.Buckets[bk]
	if !ok {
		bucket = &model.CommissionBucket{VendorID: t.VendorID, Month: t.Month, Year: t.Year}
		s.Buckets[bk] = bucket
	}
	bucket.TotalCommission = bucket.TotalCommission.Add(t.Amount)
	bucket.TotalSales = bucket.TotalSales.Add(t.SalesAmount)
	bucket.OrderCount++
	return nil
}

func (s *CommissionRepositoryStub) Reverse(ctx context.Context, vendorID uuid.UUID, month, year int, rootID, partID uuid.UUID) (*model.CommissionBucket, error) {
	if s.ReverseErr != nil {
		return nil, s.ReverseErr
	}
	key := txKey(rootID, partID)
	t, ok := s.Txs[key]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	delete(s.Txs, key)

	bucket, ok := s.Buckets[bucketKey(vendorID, month, year)]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	bucket.TotalCommission = bucket.TotalCommission.Sub(t.Amount)
	bucket.TotalSales = bucket.TotalSales.Sub(t.SalesAmount)
	bucket.OrderCount--
	copied := *bucket
	return &copied, nil
}

func (s *CommissionRepositoryStub) GetBucket(ctx context.Context, vendorID uuid.UUID, month, year int) (*model.CommissionBucket, error) {
	bucket, ok := s.Buckets[bucketKey(vendorID, month, year)]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	copied := *bucket
	return &copied, nil
}

// StockRepositoryStub counts restore operations per product and part.
// Releases mirror the claim semantics of the real repository: at most one
// effective release per part, repeats are no-ops.
type StockRepositoryStub struct {
	Restored map[uuid.UUID]int
	Released []uuid.UUID
	claimed  map[uuid.UUID]bool
	Err      error
}

// NewStockRepositoryStub constructs the stub with initialized counters.
func NewStockRepositoryStub() *StockRepositoryStub {
	return &StockRepositoryStub{
		Restored: make(map[uuid.UUID]int),
		claimed:  make(map[uuid.UUID]bool),
	}
}

func (s *StockRepositoryStub) Restore(ctx context.Context, productID uuid.UUID, quantity int) error {
	if s.Err != nil {
		return s.Err
	}
	s.Restored[productID] += quantity
	return nil
}

func (s *StockRepositoryStub) ReleaseForPart(ctx context.Context, partID uuid.UUID, family model.PartFamily) error {
	if s.Err != nil {
		return s.Err
	}
	if s.claimed[partID] {
		return nil
	}
	s.claimed[partID] = true
	s.Released = append(s.Released, partID)
	return nil
}

