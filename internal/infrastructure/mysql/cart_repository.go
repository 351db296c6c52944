package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/cart"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type cartRow struct {
	UserID    string          `db:"user_id"`
	Subtotal  decimal.Decimal `db:"subtotal"`
	Tax       decimal.Decimal `db:"tax"`
	Shipping  decimal.Decimal `db:"shipping"`
	Discount  decimal.Decimal `db:"discount"`
	Total     decimal.Decimal `db:"total"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

type cartItemRow struct {
	UserID      string          `db:"user_id"`
	Position    int             `db:"position"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	ImageURL    string          `db:"image_url"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Quantity    int             `db:"quantity"`
}

// CartRepository stores the cart header and its lines; Save rewrites the
// lines in one transaction.
type CartRepository struct {
	db *sqlx.DB
}

func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var head cartRow
	err := r.db.GetContext(ctx, &head,
		`SELECT user_id, subtotal, tax, shipping, discount, total, created_at, updated_at FROM carts WHERE user_id = ?`,
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: get cart: %w", err)
	}

	var rows []cartItemRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT user_id, position, product_id, product_name, image_url, unit_price, quantity
		   FROM cart_items WHERE user_id = ? ORDER BY position`,
		userID,
	); err != nil {
		return nil, fmt.Errorf("mysql: get cart items: %w", err)
	}

	c := &domain.Cart{
		UserID:    head.UserID,
		Items:     make([]domain.Item, 0, len(rows)),
		Subtotal:  head.Subtotal,
		Tax:       head.Tax,
		Shipping:  head.Shipping,
		Discount:  head.Discount,
		Total:     head.Total,
		CreatedAt: head.CreatedAt,
		UpdatedAt: head.UpdatedAt,
	}
	for _, row := range rows {
		c.Items = append(c.Items, domain.Item{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			ImageURL:    row.ImageURL,
			UnitPrice:   row.UnitPrice,
			Quantity:    row.Quantity,
		})
	}
	return c, nil
}

func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO carts (user_id, subtotal, tax, shipping, discount, total, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE subtotal = VALUES(subtotal), tax = VALUES(tax), shipping = VALUES(shipping),
			   discount = VALUES(discount), total = VALUES(total), updated_at = VALUES(updated_at)`,
			c.UserID, c.Subtotal, c.Tax, c.Shipping, c.Discount, c.Total, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("mysql: upsert cart: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, c.UserID); err != nil {
			return fmt.Errorf("mysql: clear cart items: %w", err)
		}
		if len(c.Items) == 0 {
			return nil
		}

		rows := make([]cartItemRow, 0, len(c.Items))
		for i, item := range c.Items {
			rows = append(rows, cartItemRow{
				UserID:      c.UserID,
				Position:    i,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				ImageURL:    item.ImageURL,
				UnitPrice:   item.UnitPrice,
				Quantity:    item.Quantity,
			})
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO cart_items (user_id, position, product_id, product_name, image_url, unit_price, quantity)
			 VALUES (:user_id, :position, :product_id, :product_name, :image_url, :unit_price, :quantity)`,
			rows,
		); err != nil {
			return fmt.Errorf("mysql: insert cart items: %w", err)
		}
		return nil
	})
}
