package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/adityaanikam/ecommerce-site-sub000/internal/domain/inventory"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type productRow struct {
	ID            string              `db:"id"`
	Name          string              `db:"name"`
	ImageURL      string              `db:"image_url"`
	Price         decimal.Decimal     `db:"price"`
	DiscountPrice decimal.NullDecimal `db:"discount_price"`
	Stock         int                 `db:"stock"`
	Active        bool                `db:"active"`
	Version       int                 `db:"version"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
}

func (r productRow) toDomain() *domain.Product {
	p := &domain.Product{
		ID:        r.ID,
		Name:      r.Name,
		ImageURL:  r.ImageURL,
		Price:     r.Price,
		Stock:     r.Stock,
		Active:    r.Active,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.DiscountPrice.Valid {
		d := r.DiscountPrice.Decimal
		p.DiscountPrice = &d
	}
	return p
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

const productColumns = `id, name, image_url, price, discount_price, stock, active, version, created_at, updated_at`

// ProductRepository stores products in MySQL. Debit is one conditional UPDATE
// so concurrent checkouts cannot oversell.
type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.ImageURL, p.Price, nullDecimal(p.DiscountPrice), p.Stock, p.Active, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if isDuplicate(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("mysql: insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: get product: %w", err)
	}
	return row.toDomain(), nil
}

// Update writes catalog fields only; stock belongs to Debit and Credit.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products
		    SET name = ?, image_url = ?, price = ?, discount_price = ?, active = ?, version = version + 1, updated_at = ?
		  WHERE id = ?`,
		p.Name, p.ImageURL, p.Price, nullDecimal(p.DiscountPrice), p.Active, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("mysql: update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	p.Version++
	return nil
}

func (r *ProductRepository) Debit(ctx context.Context, id string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	var remaining int
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE products
			    SET stock = stock - ?, version = version + 1, updated_at = ?
			  WHERE id = ? AND active = TRUE AND stock >= ?`,
			quantity, time.Now().UTC(), id, quantity,
		)
		if err != nil {
			return fmt.Errorf("mysql: debit: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			exists, err := productExists(ctx, tx, id)
			if err != nil {
				return err
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrInsufficientStock
		}
		return tx.GetContext(ctx, &remaining, `SELECT stock FROM products WHERE id = ?`, id)
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *ProductRepository) Credit(ctx context.Context, id string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	var remaining int
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + ?, version = version + 1, updated_at = ? WHERE id = ?`,
			quantity, time.Now().UTC(), id,
		)
		if err != nil {
			return fmt.Errorf("mysql: credit: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return tx.GetContext(ctx, &remaining, `SELECT stock FROM products WHERE id = ?`, id)
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func productExists(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("mysql: product exists: %w", err)
	}
	return n > 0, nil
}
