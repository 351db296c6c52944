package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UserDirectory reads contact emails from the users table, which is owned by
// the account service. Unknown users resolve to an empty address.
type UserDirectory struct {
	db *sqlx.DB
}

func NewUserDirectory(db *sqlx.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) EmailOf(ctx context.Context, userID string) (string, error) {
	var email string
	err := d.db.GetContext(ctx, &email, `SELECT email FROM users WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("mysql: user email: %w", err)
	}
	return email, nil
}
