package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medisupply/sales/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

const orderColumns = `id, order_number, customer_id, seller_id, seller_name, order_date, status,
	subtotal, discount_amount, tax_amount, total_amount,
	payment_terms, payment_method, delivery_address, delivery_city, delivery_department,
	preferred_distribution_center, notes, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	order.OrderNumber, err = nextOrderNumber(ctx, tx, now)
	if err != nil {
		return domain.Order{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		order.ID, order.OrderNumber, order.CustomerID, order.SellerID, order.SellerName,
		order.OrderDate, string(order.Status),
		order.Subtotal, order.DiscountAmount, order.TaxAmount, order.TotalAmount,
		order.PaymentTerms, order.PaymentMethod,
		order.DeliveryAddress, order.DeliveryCity, order.DeliveryDepartment,
		order.PreferredDistributionCenter, order.Notes,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	if err = insertItems(ctx, tx, order.ID, order.Items, now); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit create order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	order.Items, err = r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filter.SellerID != "" {
		args = append(args, filter.SellerID)
		conditions = append(conditions, fmt.Sprintf("seller_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, order_number DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    subtotal = $2,
		    discount_amount = $3,
		    tax_amount = $4,
		    total_amount = $5,
		    payment_terms = $6,
		    payment_method = $7,
		    delivery_address = $8,
		    delivery_city = $9,
		    delivery_department = $10,
		    preferred_distribution_center = $11,
		    notes = $12,
		    updated_at = $13
		WHERE id = $14
	`,
		string(order.Status),
		order.Subtotal, order.DiscountAmount, order.TaxAmount, order.TotalAmount,
		order.PaymentTerms, order.PaymentMethod,
		order.DeliveryAddress, order.DeliveryCity, order.DeliveryDepartment,
		order.PreferredDistributionCenter, order.Notes,
		now, order.ID,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}

	var affected int64
	affected, err = res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.ErrOrderNotFound
		return domain.Order{}, err
	}

	// Позиции всегда заменяются целиком вместе с заказом.
	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return domain.Order{}, fmt.Errorf("delete order items: %w", err)
	}
	if err = insertItems(ctx, tx, order.ID, order.Items, now); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit update order: %w", err)
	}

	return r.Get(context.WithoutCancel(ctx), order.ID)
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// nextOrderNumber выдаёт следующий номер формата ORD-YYYYMMDD-NNNN,
// атомарно наращивая дневной счётчик внутри транзакции заказа.
func nextOrderNumber(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	day := now.Format("20060102")

	var seq int
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO order_counters (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = order_counters.seq + 1
		RETURNING seq
	`, day).Scan(&seq); err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}

	return fmt.Sprintf("ORD-%s-%04d", day, seq), nil
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem, now time.Time) error {
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}

		var confirmedAt sql.NullTime
		if !item.StockConfirmedAt.IsZero() {
			confirmedAt = sql.NullTime{Time: item.StockConfirmedAt, Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_sku, product_name, quantity, unit_price,
				discount_percentage, tax_percentage, subtotal, discount_amount, tax_amount, total,
				distribution_center_code, stock_confirmed, stock_confirmed_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		`,
			item.ID, orderID, item.ProductSKU, item.ProductName, item.Quantity, item.UnitPrice,
			item.DiscountPercentage, item.TaxPercentage,
			item.Subtotal, item.DiscountAmount, item.TaxAmount, item.Total,
			item.DistributionCenterCode, item.StockConfirmed, confirmedAt, item.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_sku, product_name, quantity, unit_price,
		       discount_percentage, tax_percentage, subtotal, discount_amount, tax_amount, total,
		       distribution_center_code, stock_confirmed, stock_confirmed_at, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var (
			item        domain.OrderItem
			confirmedAt sql.NullTime
		)
		if err := rows.Scan(
			&item.ID, &item.ProductSKU, &item.ProductName, &item.Quantity, &item.UnitPrice,
			&item.DiscountPercentage, &item.TaxPercentage,
			&item.Subtotal, &item.DiscountAmount, &item.TaxAmount, &item.Total,
			&item.DistributionCenterCode, &item.StockConfirmed, &confirmedAt, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if confirmedAt.Valid {
			item.StockConfirmedAt = confirmedAt.Time.UTC()
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	if err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerID, &order.SellerID, &order.SellerName,
		&order.OrderDate, &status,
		&order.Subtotal, &order.DiscountAmount, &order.TaxAmount, &order.TotalAmount,
		&order.PaymentTerms, &order.PaymentMethod,
		&order.DeliveryAddress, &order.DeliveryCity, &order.DeliveryDepartment,
		&order.PreferredDistributionCenter, &order.Notes,
		&order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	return order, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
