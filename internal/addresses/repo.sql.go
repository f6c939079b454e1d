package addresses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse-io/gatehouse/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const addressColumns = `id, user_id, label, street, city, postal_code, created_at, updated_at`

// ListByUser returns the addresses attached to one user.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Address, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+addressColumns+` FROM user_delivery_addresses WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var addresses []Address
	for rows.Next() {
		var addr Address
		if err := rows.Scan(&addr.ID, &addr.UserID, &addr.Label, &addr.Street, &addr.City, &addr.PostalCode, &addr.CreatedAt, &addr.UpdatedAt); err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return addresses, nil
}

// GetAddress fetches one address by id.
func (r *Repository) GetAddress(ctx context.Context, id int64) (Address, error) {
	var addr Address
	err := r.pool.QueryRow(ctx, `SELECT `+addressColumns+` FROM user_delivery_addresses WHERE id = $1`, id).
		Scan(&addr.ID, &addr.UserID, &addr.Label, &addr.Street, &addr.City, &addr.PostalCode, &addr.CreatedAt, &addr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Address{}, shared.ErrNotFound
		}
		return Address{}, err
	}
	return addr, nil
}

// CreateAddress inserts a new address.
func (r *Repository) CreateAddress(ctx context.Context, input NewAddress) (Address, error) {
	var addr Address
	err := r.pool.QueryRow(ctx, `INSERT INTO user_delivery_addresses (user_id, label, street, city, postal_code) VALUES ($1, $2, $3, $4, $5) RETURNING `+addressColumns,
		input.UserID, input.Label, input.Street, input.City, input.PostalCode).
		Scan(&addr.ID, &addr.UserID, &addr.Label, &addr.Street, &addr.City, &addr.PostalCode, &addr.CreatedAt, &addr.UpdatedAt)
	if err != nil {
		return Address{}, err
	}
	return addr, nil
}

// UpdateAddress updates the mutable fields of an address.
func (r *Repository) UpdateAddress(ctx context.Context, id int64, label, street, city, postalCode string) (Address, error) {
	var addr Address
	err := r.pool.QueryRow(ctx, `UPDATE user_delivery_addresses SET label = $2, street = $3, city = $4, postal_code = $5, updated_at = NOW() WHERE id = $1 RETURNING `+addressColumns,
		id, label, street, city, postalCode).
		Scan(&addr.ID, &addr.UserID, &addr.Label, &addr.Street, &addr.City, &addr.PostalCode, &addr.CreatedAt, &addr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Address{}, shared.ErrNotFound
		}
		return Address{}, err
	}
	return addr, nil
}

// DeleteAddress removes an address.
func (r *Repository) DeleteAddress(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_delivery_addresses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
