package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainErrors "github.com/vendara/marketplace/internal/domain/errors"
	"github.com/vendara/marketplace/internal/domain/model"
	"github.com/vendara/marketplace/internal/domain/repository"
)

// pgxPool is the subset of pgxpool.Pool the storage layer needs, extracted so
// tests can substitute a mock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type vendorOrderRepository struct {
	storage *Storage
}

type commissionRepository struct {
	storage *Storage
}

type stockRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) VendorOrders() repository.VendorOrderRepository {
	return &vendorOrderRepository{storage: s}
}

func (s *Storage) Commissions() repository.CommissionRepository {
	return &commissionRepository{storage: s}
}

func (s *Storage) Stock() repository.StockRepository {
	return &stockRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id UUID PRIMARY KEY,
            parent_id UUID,
            number TEXT UNIQUE NOT NULL,
            order_type TEXT NOT NULL DEFAULT 'admin_only',
            partial_type TEXT NOT NULL DEFAULT 'none',
            status TEXT NOT NULL,
            customer_id UUID,
            customer_email TEXT NOT NULL,
            vendor_id UUID,
            total_amount NUMERIC NOT NULL DEFAULT 0,
            commission_amount NUMERIC NOT NULL DEFAULT 0,
            commission_reversed BOOLEAN NOT NULL DEFAULT FALSE,
            cancelled_by TEXT,
            split BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS vendor_orders (
            id UUID PRIMARY KEY,
            parent_id UUID NOT NULL,
            vendor_id UUID NOT NULL,
            number TEXT NOT NULL,
            status TEXT NOT NULL,
            total_amount NUMERIC NOT NULL DEFAULT 0,
            commission_amount NUMERIC NOT NULL DEFAULT 0,
            commission_reversed BOOLEAN NOT NULL DEFAULT FALSE,
            cancelled_by TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (parent_id, vendor_id)
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id UUID PRIMARY KEY,
            order_id UUID NOT NULL,
            family TEXT NOT NULL DEFAULT 'orders',
            product_id UUID NOT NULL,
            vendor_id UUID,
            quantity INT NOT NULL,
            price NUMERIC NOT NULL DEFAULT 0,
            status TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS status_history (
            id BIGSERIAL PRIMARY KEY,
            family TEXT NOT NULL,
            order_id UUID NOT NULL,
            status TEXT NOT NULL,
            actor TEXT NOT NULL,
            reason TEXT NOT NULL DEFAULT '',
            changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS commission_buckets (
            vendor_id UUID NOT NULL,
            month INT NOT NULL,
            year INT NOT NULL,
            total_commission NUMERIC NOT NULL DEFAULT 0,
            total_sales NUMERIC NOT NULL DEFAULT 0,
            order_count INT NOT NULL DEFAULT 0,
            PRIMARY KEY (vendor_id, month, year)
        )`,
		`CREATE TABLE IF NOT EXISTS commission_transactions (
            id BIGSERIAL PRIMARY KEY,
            vendor_id UUID NOT NULL,
            month INT NOT NULL,
            year INT NOT NULL,
            root_id UUID NOT NULL,
            part_id UUID NOT NULL,
            amount NUMERIC NOT NULL,
            sales_amount NUMERIC NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (root_id, part_id)
        )`,
		`CREATE TABLE IF NOT EXISTS products (
            id UUID PRIMARY KEY,
            stock INT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS stock_releases (
            part_id UUID NOT NULL,
            product_id UUID NOT NULL,
            quantity INT NOT NULL,
            released_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (part_id, product_id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_parent ON orders(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vendor_orders_parent ON vendor_orders(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vendor_orders_number ON vendor_orders(number)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id, family)`,
		`CREATE INDEX IF NOT EXISTS idx_status_history_order ON status_history(order_id, changed_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- shared helpers ---

func (s *Storage) loadItems(ctx context.Context, family model.PartFamily, orderID uuid.UUID) ([]model.OrderItem, error) {
	const query = `SELECT id, product_id, vendor_id, quantity, price, status
                   FROM order_items WHERE order_id=$1 AND family=$2 ORDER BY id`
	rows, err := s.pool.Query(ctx, query, orderID, string(family))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		var status *string
		if err := rows.Scan(&item.ID, &item.ProductID, &item.VendorID, &item.Quantity, &item.Price, &status); err != nil {
			return nil, err
		}
		if status != nil {
			st := model.OrderStatus(*status)
			item.Status = &st
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Storage) loadHistory(ctx context.Context, family model.PartFamily, orderID uuid.UUID) ([]model.StatusChange, error) {
	const query = `SELECT status, actor, reason, changed_at
                   FROM status_history WHERE order_id=$1 AND family=$2 ORDER BY changed_at, id`
	rows, err := s.pool.Query(ctx, query, orderID, string(family))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.StatusChange
	for rows.Next() {
		var change model.StatusChange
		if err := rows.Scan(&change.Status, &change.Actor, &change.Reason, &change.ChangedAt); err != nil {
			return nil, err
		}
		history = append(history, change)
	}
	return history, rows.Err()
}

func (s *Storage) insertItemsTx(ctx context.Context, tx pgx.Tx, family model.PartFamily, orderID uuid.UUID, items []model.OrderItem) error {
	const query = `INSERT INTO order_items (id, order_id, family, product_id, vendor_id, quantity, price, status)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, item := range items {
		id := item.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		var status *string
		if item.Status != nil {
			st := string(*item.Status)
			status = &st
		}
		if _, err := tx.Exec(ctx, query, id, orderID, string(family), item.ProductID, item.VendorID, item.Quantity, item.Price, status); err != nil {
			return err
		}
	}
	return nil
}

// updateStatusTx rewrites the status of a record in either family and appends
// the history entry; the cancelling actor is recorded once and never cleared.
func (s *Storage) updateStatusTx(ctx context.Context, tx pgx.Tx, family model.PartFamily, table string, id uuid.UUID, status model.OrderStatus, actor model.Actor, reason string) error {
	var cancelledBy *string
	if status.Cancelled() {
		by := string(actor)
		cancelledBy = &by
	}

	query := fmt.Sprintf(`UPDATE %s SET status=$1, cancelled_by=COALESCE(cancelled_by, $2), updated_at=NOW() WHERE id=$3`, table)
	tag, err := tx.Exec(ctx, query, string(status), cancelledBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}

	const historyQuery = `INSERT INTO status_history (family, order_id, status, actor, reason) VALUES ($1, $2, $3, $4, $5)`
	_, err = tx.Exec(ctx, historyQuery, string(family), id, string(status), string(actor), reason)
	return err
}

// --- OrderRepository implementation ---

const orderColumns = `id, parent_id, number, order_type, partial_type, status, customer_id,
                      customer_email, vendor_id, total_amount, commission_amount,
                      commission_reversed, COALESCE(cancelled_by, ''), split, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.ParentID, &o.Number, &o.OrderType, &o.PartialType, &o.Status,
		&o.CustomerID, &o.CustomerEmail, &o.VendorID, &o.TotalAmount, &o.CommissionAmount,
		&o.CommissionReversed, &o.CancelledBy, &o.Split, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO orders (id, parent_id, number, order_type, partial_type, status, customer_id,
                                           customer_email, vendor_id, total_amount, commission_amount, split)
                       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
                       RETURNING created_at, updated_at`
		err := tx.QueryRow(ctx, query,
			order.ID, order.ParentID, order.Number, string(order.OrderType), string(order.PartialType),
			string(order.Status), order.CustomerID, order.CustomerEmail, order.VendorID,
			order.TotalAmount, order.CommissionAmount, order.Split,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}
		return r.storage.insertItemsTx(ctx, tx, model.FamilyOrder, order.ID, order.Items)
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, order)
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE number=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, number))
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, order)
}

func (r *orderRepository) hydrate(ctx context.Context, order *model.Order) (*model.Order, error) {
	var err error
	if order.Items, err = r.storage.loadItems(ctx, model.FamilyOrder, order.ID); err != nil {
		return nil, err
	}
	if order.History, err = r.storage.loadHistory(ctx, model.FamilyOrder, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListPartsByParent(ctx context.Context, parentID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE parent_id=$1 ORDER BY created_at`
	rows, err := r.storage.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.ParentID, &o.Number, &o.OrderType, &o.PartialType, &o.Status,
			&o.CustomerID, &o.CustomerEmail, &o.VendorID, &o.TotalAmount, &o.CommissionAmount,
			&o.CommissionReversed, &o.CancelledBy, &o.Split, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		parts = append(parts, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range parts {
		if parts[i].Items, err = r.storage.loadItems(ctx, model.FamilyOrder, parts[i].ID); err != nil {
			return nil, err
		}
	}
	return parts, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor model.Actor, reason string) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		return r.storage.updateStatusTx(ctx, tx, model.FamilyOrder, "orders", id, status, actor, reason)
	})
}

func (r *orderRepository) MarkSplit(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE orders SET split=TRUE, updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) MarkCommissionReversed(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE orders SET commission_reversed=TRUE, updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- VendorOrderRepository implementation ---

const vendorOrderColumns = `id, parent_id, vendor_id, number, status, total_amount, commission_amount,
                            commission_reversed, COALESCE(cancelled_by, ''), created_at, updated_at`

func scanVendorOrder(row pgx.Row) (*model.VendorOrder, error) {
	var v model.VendorOrder
	err := row.Scan(&v.ID, &v.ParentID, &v.VendorID, &v.Number, &v.Status, &v.TotalAmount,
		&v.CommissionAmount, &v.CommissionReversed, &v.CancelledBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *vendorOrderRepository) Create(ctx context.Context, order *model.VendorOrder) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const query = `INSERT INTO vendor_orders (id, parent_id, vendor_id, number, status, total_amount, commission_amount)
                       VALUES ($1, $2, $3, $4, $5, $6, $7)
                       RETURNING created_at, updated_at`
		err := tx.QueryRow(ctx, query,
			order.ID, order.ParentID, order.VendorID, order.Number, string(order.Status),
			order.TotalAmount, order.CommissionAmount,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}
		return r.storage.insertItemsTx(ctx, tx, model.FamilyVendorOrder, order.ID, order.Items)
	})
}

func (r *vendorOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VendorOrder, error) {
	query := `SELECT ` + vendorOrderColumns + ` FROM vendor_orders WHERE id=$1`
	order, err := scanVendorOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if order.Items, err = r.storage.loadItems(ctx, model.FamilyVendorOrder, order.ID); err != nil {
		return nil, err
	}
	if order.History, err = r.storage.loadHistory(ctx, model.FamilyVendorOrder, order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *vendorOrderRepository) list(ctx context.Context, query string, arg any) ([]model.VendorOrder, error) {
	rows, err := r.storage.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.VendorOrder
	for rows.Next() {
		var v model.VendorOrder
		if err := rows.Scan(&v.ID, &v.ParentID, &v.VendorID, &v.Number, &v.Status, &v.TotalAmount,
			&v.CommissionAmount, &v.CommissionReversed, &v.CancelledBy, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].Items, err = r.storage.loadItems(ctx, model.FamilyVendorOrder, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *vendorOrderRepository) ListByNumber(ctx context.Context, number string) ([]model.VendorOrder, error) {
	query := `SELECT ` + vendorOrderColumns + ` FROM vendor_orders WHERE number=$1 ORDER BY created_at`
	return r.list(ctx, query, number)
}

func (r *vendorOrderRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]model.VendorOrder, error) {
	query := `SELECT ` + vendorOrderColumns + ` FROM vendor_orders WHERE parent_id=$1 ORDER BY created_at`
	return r.list(ctx, query, parentID)
}

func (r *vendorOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, actor model.Actor, reason string) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		return r.storage.updateStatusTx(ctx, tx, model.FamilyVendorOrder, "vendor_orders", id, status, actor, reason)
	})
}

func (r *vendorOrderRepository) MarkCommissionReversed(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE vendor_orders SET commission_reversed=TRUE, updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- CommissionRepository implementation ---

func (r *commissionRepository) Accrue(ctx context.Context, t model.CommissionTransaction) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const insertQuery = `INSERT INTO commission_transactions (vendor_id, month, year, root_id, part_id, amount, sales_amount)
                             VALUES ($1, $2, $3, $4, $5, $6, $7)
                             ON CONFLICT (root_id, part_id) DO NOTHING`
		tag, err := tx.Exec(ctx, insertQuery, t.VendorID, t.Month, t.Year, t.RootID, t.PartID, t.Amount, t.SalesAmount)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			// Transaction already recorded; the bucket was updated then.
			return nil
		}

		const bucketQuery = `INSERT INTO commission_buckets (vendor_id, month, year, total_commission, total_sales, order_count)
                             VALUES ($1, $2, $3, $4, $5, 1)
                             ON CONFLICT (vendor_id, month, year) DO UPDATE
                             SET total_commission = commission_buckets.total_commission + EXCLUDED.total_commission,
                                 total_sales = commission_buckets.total_sales + EXCLUDED.total_sales,
                                 order_count = commission_buckets.order_count + 1`
		_, err = tx.Exec(ctx, bucketQuery, t.VendorID, t.Month, t.Year, t.Amount, t.SalesAmount)
		return err
	})
}

func (r *commissionRepository) Reverse(ctx context.Context, vendorID uuid.UUID, month, year int, rootID, partID uuid.UUID) (*model.CommissionBucket, error) {
	var bucket *model.CommissionBucket
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const deleteQuery = `DELETE FROM commission_transactions
                             WHERE vendor_id=$1 AND month=$2 AND year=$3 AND root_id=$4 AND part_id=$5
                             RETURNING amount, sales_amount`
		var amount, sales decimal.Decimal
		if err := tx.QueryRow(ctx, deleteQuery, vendorID, month, year, rootID, partID).Scan(&amount, &sales); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}

		const updateQuery = `UPDATE commission_buckets
                             SET total_commission = total_commission - $4,
                                 total_sales = total_sales - $5,
                                 order_count = GREATEST(order_count - 1, 0)
                             WHERE vendor_id=$1 AND month=$2 AND year=$3
                             RETURNING total_commission, total_sales, order_count`
		b := model.CommissionBucket{VendorID: vendorID, Month: month, Year: year}
		if err := tx.QueryRow(ctx, updateQuery, vendorID, month, year, amount, sales).Scan(&b.TotalCommission, &b.TotalSales, &b.OrderCount); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domainErrors.ErrNotFound
			}
			return err
		}
		bucket = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bucket, nil
}

func (r *commissionRepository) GetBucket(ctx context.Context, vendorID uuid.UUID, month, year int) (*model.CommissionBucket, error) {
	const query = `SELECT total_commission, total_sales, order_count
                   FROM commission_buckets WHERE vendor_id=$1 AND month=$2 AND year=$3`
	b := model.CommissionBucket{VendorID: vendorID, Month: month, Year: year}
	err := r.storage.pool.QueryRow(ctx, query, vendorID, month, year).Scan(&b.TotalCommission, &b.TotalSales, &b.OrderCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// --- StockRepository implementation ---

func (r *stockRepository) Restore(ctx context.Context, productID uuid.UUID, quantity int) error {
	const query = `UPDATE products SET stock = stock + $2 WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, productID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		r.storage.logger.Warn("stock restore for unknown product", slog.String("product", productID.String()))
	}
	return nil
}

// ReleaseForPart claims each (part, product) release in stock_releases before
// touching the counter. A retried compensation hits the conflict clause,
// claims nothing, and increments nothing.
func (r *stockRepository) ReleaseForPart(ctx context.Context, partID uuid.UUID, family model.PartFamily) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const query = `WITH claimed AS (
                           INSERT INTO stock_releases (part_id, product_id, quantity)
                           SELECT i.order_id, i.product_id, SUM(i.quantity)
                           FROM order_items i
                           WHERE i.order_id=$1 AND i.family=$2
                           GROUP BY i.order_id, i.product_id
                           ON CONFLICT (part_id, product_id) DO NOTHING
                           RETURNING product_id, quantity
                       )
                       UPDATE products p SET stock = p.stock + c.quantity
                       FROM claimed c
                       WHERE p.id = c.product_id`
		_, err := tx.Exec(ctx, query, partID, string(family))
		return err
	})
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
