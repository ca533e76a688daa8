package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/vendara/marketplace/internal/domain/model"
	"github.com/vendara/marketplace/internal/telemetry"
	"github.com/vendara/marketplace/internal/test"
)

type auditorFixture struct {
	orders       *test.OrderRepositoryStub
	vendorOrders *test.VendorOrderRepositoryStub
	commissions  *test.CommissionRepositoryStub
	stock        *test.StockRepositoryStub
	metrics      *telemetry.Metrics
	auditor      *ConsistencyAuditor
}

func newAuditorFixture() *auditorFixture {
	f := &auditorFixture{
		orders:       test.NewOrderRepositoryStub(),
		vendorOrders: test.NewVendorOrderRepositoryStub(),
		commissions:  test.NewCommissionRepositoryStub(),
		stock:        test.NewStockRepositoryStub(),
		metrics:      telemetry.NewMetrics(prometheus.NewRegistry()),
	}
	f.auditor = NewConsistencyAuditor(
		f.orders, f.vendorOrders, f.commissions, f.stock,
		NewStatusResolver(), decimal.RequireFromString("0.10"),
		testLogger(), f.metrics,
	)
	return f
}

// seedCancelledRoot builds a customer-cancelled root whose two vendor parts
// are still active, the divergence the auditor exists to repair.
func (f *auditorFixture) seedCancelledRoot(t *testing.T) (*model.Order, []*model.VendorOrder) {
	t.Helper()
	root := &model.Order{
		ID:            uuid.New(),
		Number:        "ORD-900",
		Status:        model.StatusCancelledByCustomer,
		CancelledBy:   model.ActorCustomer,
		CustomerEmail: "buyer@example.com",
		Split:         true,
		CreatedAt:     time.Now(),
	}
	f.orders.Orders[root.ID] = root

	var parts []*model.VendorOrder
	for i := 0; i < 2; i++ {
		vo := &model.VendorOrder{
			ID:               uuid.New(),
			ParentID:         root.ID,
			VendorID:         uuid.New(),
			Number:           root.Number,
			Status:           model.StatusProcessing,
			TotalAmount:      decimal.RequireFromString("50.00"),
			CommissionAmount: decimal.RequireFromString("5.00"),
			CreatedAt:        time.Now(),
		}
		f.vendorOrders.Orders[vo.ID] = vo
		parts = append(parts, vo)

		placed := vo.CreatedAt.UTC()
		if err := f.commissions.Accrue(context.Background(), model.CommissionTransaction{
			VendorID:    vo.VendorID,
			Month:       int(placed.Month()),
			Year:        placed.Year(),
			RootID:      root.ID,
			PartID:      vo.ID,
			Amount:      vo.CommissionAmount,
			SalesAmount: vo.TotalAmount,
		}); err != nil {
			t.Fatalf("seed accrual failed: %v", err)
		}
	}
	return root, parts
}

func TestAuditRepairsCancelledRootWithActiveParts(t *testing.T) {
	f := newAuditorFixture()
	root, parts := f.seedCancelledRoot(t)

	res, _, err := f.auditor.Audit(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != model.StatusCancelledByCustomer {
		t.Fatalf("expected cancelled_by_customer, got %s", res.Status)
	}

	for _, vo := range parts {
		stored := f.vendorOrders.Orders[vo.ID]
		if stored.Status != model.StatusCancelledByCustomer {
			t.Fatalf("part %s not synchronized: %s", vo.ID, stored.Status)
		}
		if !stored.CommissionReversed {
			t.Fatalf("commission not reversed for part %s", vo.ID)
		}
	}
	for _, call := range f.vendorOrders.StatusCalls {
		if call.Actor != model.ActorSystemSync {
			t.Fatalf("repair must be attributed to system_sync, got %s", call.Actor)
		}
	}
	if len(f.stock.Released) != 2 {
		t.Fatalf("expected stock released for both parts, got %d", len(f.stock.Released))
	}
	if len(f.commissions.Txs) != 0 {
		t.Fatalf("expected all commission transactions reversed, %d remain", len(f.commissions.Txs))
	}
	if got := testutil.ToFloat64(f.metrics.Repairs); got != 2 {
		t.Fatalf("expected 2 repairs counted, got %v", got)
	}
}

func TestAuditIsIdempotent(t *testing.T) {
	f := newAuditorFixture()
	root, _ := f.seedCancelledRoot(t)

	if _, _, err := f.auditor.Audit(context.Background(), root); err != nil {
		t.Fatalf("first audit failed: %v", err)
	}
	statusWrites := len(f.vendorOrders.StatusCalls)
	stockReleases := len(f.stock.Released)

	res, _, err := f.auditor.Audit(context.Background(), root)
	if err != nil {
		t.Fatalf("second audit failed: %v", err)
	}
	if res.Status != model.StatusCancelledByCustomer {
		t.Fatalf("resolution changed on re-audit: %s", res.Status)
	}
	if len(f.vendorOrders.StatusCalls) != statusWrites {
		t.Fatalf("re-audit issued additional status writes")
	}
	if len(f.stock.Released) != stockReleases {
		t.Fatalf("re-audit restored stock again")
	}
}

func TestAuditDoesNotCompensateTwiceWhenStatusWriteFails(t *testing.T) {
	f := newAuditorFixture()
	root := &model.Order{
		ID:          uuid.New(),
		Number:      "ORD-904",
		Status:      model.StatusCancelledByCustomer,
		CancelledBy: model.ActorCustomer,
		Split:       true,
		CreatedAt:   time.Now(),
	}
	f.orders.Orders[root.ID] = root

	vo := &model.VendorOrder{
		ID:               uuid.New(),
		ParentID:         root.ID,
		VendorID:         uuid.New(),
		Number:           root.Number,
		Status:           model.StatusProcessing,
		TotalAmount:      decimal.RequireFromString("50.00"),
		CommissionAmount: decimal.RequireFromString("5.00"),
		CreatedAt:        time.Now(),
	}
	f.vendorOrders.Orders[vo.ID] = vo

	placed := vo.CreatedAt.UTC()
	if err := f.commissions.Accrue(context.Background(), model.CommissionTransaction{
		VendorID: vo.VendorID, Month: int(placed.Month()), Year: placed.Year(),
		RootID: root.ID, PartID: vo.ID,
		Amount: vo.CommissionAmount, SalesAmount: vo.TotalAmount,
	}); err != nil {
		t.Fatalf("seed accrual failed: %v", err)
	}

	// The part keeps its active status on record, so the next audit
	// compensates it again. Neither ledger may move twice.
	f.vendorOrders.UpdateStatusFn = func(context.Context, uuid.UUID, model.OrderStatus, model.Actor, string) error {
		return context.DeadlineExceeded
	}

	for i := 0; i < 2; i++ {
		if _, _, err := f.auditor.Audit(context.Background(), root); err != nil {
			t.Fatalf("audit %d failed: %v", i+1, err)
		}
	}

	if len(f.stock.Released) != 1 {
		t.Fatalf("expected stock released once, got %d", len(f.stock.Released))
	}
	if len(f.commissions.Txs) != 0 {
		t.Fatalf("commission transaction not reversed")
	}
	for _, bucket := range f.commissions.Buckets {
		if !bucket.TotalCommission.IsZero() {
			t.Fatalf("bucket out of balance after repeated audits: %s", bucket.TotalCommission)
		}
	}
}

func TestAuditRewritesDriftedRootStatus(t *testing.T) {
	f := newAuditorFixture()
	root := &model.Order{ID: uuid.New(), Number: "ORD-901", Status: model.StatusPlaced, Split: true}
	f.orders.Orders[root.ID] = root

	for i := 0; i < 2; i++ {
		vo := &model.VendorOrder{
			ID:       uuid.New(),
			ParentID: root.ID,
			VendorID: uuid.New(),
			Number:   root.Number,
			Status:   model.StatusDelivered,
		}
		f.vendorOrders.Orders[vo.ID] = vo
	}

	res, _, err := f.auditor.Audit(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != model.StatusDelivered {
		t.Fatalf("expected delivered, got %s", res.Status)
	}
	if f.orders.Orders[root.ID].Status != model.StatusDelivered {
		t.Fatalf("root record not rewritten, still %s", f.orders.Orders[root.ID].Status)
	}
	if len(f.orders.StatusCalls) != 1 || f.orders.StatusCalls[0].Actor != model.ActorSystemSync {
		t.Fatalf("root rewrite must come from system_sync: %+v", f.orders.StatusCalls)
	}
}

func TestAuditContinuesPastCompensationFailure(t *testing.T) {
	f := newAuditorFixture()
	root, parts := f.seedCancelledRoot(t)
	f.stock.Err = context.DeadlineExceeded

	if _, _, err := f.auditor.Audit(context.Background(), root); err != nil {
		t.Fatalf("compensation failure must not fail the audit: %v", err)
	}
	for _, vo := range parts {
		if f.vendorOrders.Orders[vo.ID].Status != model.StatusCancelledByCustomer {
			t.Fatalf("status sync skipped after stock failure")
		}
	}
	if got := testutil.ToFloat64(f.metrics.CompensationFailures); got != 2 {
		t.Fatalf("expected 2 compensation failures counted, got %v", got)
	}
}

func TestReverseCommissionUsesLegacyRateWhenUnsnapshotted(t *testing.T) {
	f := newAuditorFixture()
	root := &model.Order{ID: uuid.New(), Number: "ORD-902", Status: model.StatusCancelled, Split: true}
	f.orders.Orders[root.ID] = root

	vo := &model.VendorOrder{
		ID:          uuid.New(),
		ParentID:    root.ID,
		VendorID:    uuid.New(),
		Number:      root.Number,
		Status:      model.StatusPlaced,
		TotalAmount: decimal.RequireFromString("80.00"),
		// CommissionAmount zero: persisted before snapshots existed.
		CreatedAt: time.Now(),
	}
	f.vendorOrders.Orders[vo.ID] = vo

	placed := vo.CreatedAt.UTC()
	if err := f.commissions.Accrue(context.Background(), model.CommissionTransaction{
		VendorID: vo.VendorID, Month: int(placed.Month()), Year: placed.Year(),
		RootID: root.ID, PartID: vo.ID,
		Amount: decimal.RequireFromString("8.00"), SalesAmount: vo.TotalAmount,
	}); err != nil {
		t.Fatalf("seed accrual failed: %v", err)
	}

	if _, _, err := f.auditor.Audit(context.Background(), root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.vendorOrders.Orders[vo.ID].CommissionReversed {
		t.Fatalf("legacy part commission not reversed")
	}
	if len(f.commissions.Txs) != 0 {
		t.Fatalf("commission transaction not removed")
	}
}

func TestAuditAdminPartHasNoCommission(t *testing.T) {
	f := newAuditorFixture()
	root := &model.Order{ID: uuid.New(), Number: "ORD-903", Status: model.StatusCancelledByCustomer, CancelledBy: model.ActorCustomer, Split: true}
	f.orders.Orders[root.ID] = root

	parentID := root.ID
	admin := &model.Order{
		ID:          uuid.New(),
		ParentID:    &parentID,
		Number:      root.Number + "-admin",
		PartialType: model.PartialAdmin,
		Status:      model.StatusProcessing,
		TotalAmount: decimal.RequireFromString("20.00"),
	}
	f.orders.Orders[admin.ID] = admin

	if _, _, err := f.auditor.Audit(context.Background(), root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.orders.Orders[admin.ID].Status != model.StatusCancelledByCustomer {
		t.Fatalf("admin part not synchronized")
	}
	if len(f.stock.Released) != 1 {
		t.Fatalf("admin part stock not restored")
	}
	if len(f.commissions.Txs) != 0 {
		// Nothing was accrued; nothing must have been touched either.
		t.Fatalf("unexpected commission activity for admin part")
	}
}
