package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/order"
	"github.com/adityaanikam/ecommerce-site-sub000/internal/domain/payment"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type orderRow struct {
	ID             string          `db:"id"`
	Number         string          `db:"number"`
	UserID         string          `db:"user_id"`
	TotalAmount    decimal.Decimal `db:"total_amount"`
	ShipFullName   string          `db:"ship_full_name"`
	ShipLine1      string          `db:"ship_line1"`
	ShipLine2      string          `db:"ship_line2"`
	ShipCity       string          `db:"ship_city"`
	ShipState      string          `db:"ship_state"`
	ShipPostalCode string          `db:"ship_postal_code"`
	ShipCountry    string          `db:"ship_country"`
	ShipPhone      string          `db:"ship_phone"`
	PaymentMethod  string          `db:"payment_method"`
	Status         string          `db:"status"`
	PaymentStatus  string          `db:"payment_status"`
	TrackingNumber string          `db:"tracking_number"`
	Carrier        string          `db:"carrier"`
	CancelReason   string          `db:"cancel_reason"`
	Version        int             `db:"version"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

type orderItemRow struct {
	OrderID     string          `db:"order_id"`
	Position    int             `db:"position"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	ImageURL    string          `db:"image_url"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Quantity    int             `db:"quantity"`
	LineTotal   decimal.Decimal `db:"line_total"`
}

const orderColumns = `id, number, user_id, total_amount,
	ship_full_name, ship_line1, ship_line2, ship_city, ship_state, ship_postal_code, ship_country, ship_phone,
	payment_method, status, payment_status, tracking_number, carrier, cancel_reason, version, created_at, updated_at`

func toOrderRow(o *domain.Order) orderRow {
	a := o.ShippingAddress
	return orderRow{
		ID:             o.ID,
		Number:         o.Number,
		UserID:         o.UserID,
		TotalAmount:    o.TotalAmount,
		ShipFullName:   a.FullName,
		ShipLine1:      a.Line1,
		ShipLine2:      a.Line2,
		ShipCity:       a.City,
		ShipState:      a.State,
		ShipPostalCode: a.PostalCode,
		ShipCountry:    a.Country,
		ShipPhone:      a.Phone,
		PaymentMethod:  string(o.PaymentMethod),
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		CancelReason:   o.CancelReason,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func (r orderRow) toDomain(items []orderItemRow) *domain.Order {
	o := &domain.Order{
		ID:          r.ID,
		Number:      r.Number,
		UserID:      r.UserID,
		Items:       make([]domain.Item, 0, len(items)),
		TotalAmount: r.TotalAmount,
		ShippingAddress: domain.ShippingAddress{
			FullName:   r.ShipFullName,
			Line1:      r.ShipLine1,
			Line2:      r.ShipLine2,
			City:       r.ShipCity,
			State:      r.ShipState,
			PostalCode: r.ShipPostalCode,
			Country:    r.ShipCountry,
			Phone:      r.ShipPhone,
		},
		PaymentMethod:  payment.Method(r.PaymentMethod),
		Status:         domain.Status(r.Status),
		PaymentStatus:  payment.Status(r.PaymentStatus),
		TrackingNumber: r.TrackingNumber,
		Carrier:        r.Carrier,
		CancelReason:   r.CancelReason,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	for _, it := range items {
		o.Items = append(o.Items, domain.Item{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ImageURL:    it.ImageURL,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return o
}

// OrderRepository stores orders and their immutable item snapshots.
type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO orders (`+orderColumns+`) VALUES (
				:id, :number, :user_id, :total_amount,
				:ship_full_name, :ship_line1, :ship_line2, :ship_city, :ship_state, :ship_postal_code, :ship_country, :ship_phone,
				:payment_method, :status, :payment_status, :tracking_number, :carrier, :cancel_reason, :version, :created_at, :updated_at)`,
			toOrderRow(o),
		)
		if isDuplicate(err) {
			return domain.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("mysql: insert order: %w", err)
		}

		items := make([]orderItemRow, 0, len(o.Items))
		for i, it := range o.Items {
			items = append(items, orderItemRow{
				OrderID:     o.ID,
				Position:    i,
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				ImageURL:    it.ImageURL,
				UnitPrice:   it.UnitPrice,
				Quantity:    it.Quantity,
				LineTotal:   it.LineTotal,
			})
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO order_items (order_id, position, product_id, product_name, image_url, unit_price, quantity, line_total)
			 VALUES (:order_id, :position, :product_id, :product_name, :image_url, :unit_price, :quantity, :line_total)`,
			items,
		); err != nil {
			return fmt.Errorf("mysql: insert order items: %w", err)
		}
		return nil
	})
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.getWhere(ctx, `id = ?`, id)
}

func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.getWhere(ctx, `number = ?`, number)
}

func (r *OrderRepository) getWhere(ctx context.Context, cond string, arg any) (*domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE `+cond, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: get order: %w", err)
	}
	items, err := r.items(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return row.toDomain(items[row.ID]), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, number DESC`,
		userID,
	); err != nil {
		return nil, fmt.Errorf("mysql: list orders: %w", err)
	}
	if len(rows) == 0 {
		return []*domain.Order{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	items, err := r.items(ctx, ids...)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain(items[row.ID]))
	}
	return out, nil
}

func (r *OrderRepository) items(ctx context.Context, orderIDs ...string) (map[string][]orderItemRow, error) {
	query, args, err := sqlx.In(
		`SELECT order_id, position, product_id, product_name, image_url, unit_price, quantity, line_total
		   FROM order_items WHERE order_id IN (?) ORDER BY order_id, position`,
		orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("mysql: order items query: %w", err)
	}
	var rows []orderItemRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("mysql: order items: %w", err)
	}
	out := make(map[string][]orderItemRow, len(orderIDs))
	for _, row := range rows {
		out[row.OrderID] = append(out[row.OrderID], row)
	}
	return out, nil
}

// Update writes the mutable order fields guarded by the version column.
func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders
		    SET status = ?, payment_status = ?, tracking_number = ?, carrier = ?, cancel_reason = ?,
		        version = version + 1, updated_at = ?
		  WHERE id = ? AND version = ?`,
		string(o.Status), string(o.PaymentStatus), o.TrackingNumber, o.Carrier, o.CancelReason,
		o.UpdatedAt, o.ID, o.Version,
	)
	if err != nil {
		return fmt.Errorf("mysql: update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var count int
		if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders WHERE id = ?`, o.ID); err != nil {
			return fmt.Errorf("mysql: update order: %w", err)
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	o.Version++
	return nil
}

// Delete removes the order; its items go with it through the foreign key.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mysql: delete order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
