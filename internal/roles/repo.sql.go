package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse-io/gatehouse/internal/authz"
	"github.com/gatehouse-io/gatehouse/internal/shared"
)

// Repository persists role assignments and doubles as the role store behind
// the authorization cache.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRolesForUser implements authz.RoleStore. Rows naming roles outside the
// closed enumeration are skipped so a stale row cannot mint grants.
// Connectivity failures are wrapped with authz.ErrStoreUnavailable so the
// engine reports them as connection errors rather than denials.
func (r *Repository) ListRolesForUser(ctx context.Context, id authz.UserID) ([]authz.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, id)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	defer rows.Close()
	var out []authz.Role
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classifyStoreError(err)
		}
		if role, ok := authz.ParseRole(name); ok {
			out = append(out, role)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError(err)
	}
	return out, nil
}

// classifyStoreError separates connectivity failures from server-side SQL
// errors. A PgError means the server answered, so the store is reachable;
// anything else (dial failure, closed pool, timeout) is unavailability.
func classifyStoreError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", authz.ErrStoreUnavailable, err)
}

// ListAssignments returns the role assignments of one user, including their
// grant timestamps.
func (r *Repository) ListAssignments(ctx context.Context, userID int64) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, role, created_at FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		var a Assignment
		var name string
		if err := rows.Scan(&a.UserID, &name, &a.CreatedAt); err != nil {
			return nil, err
		}
		role, ok := authz.ParseRole(name)
		if !ok {
			continue
		}
		a.Role = role
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Assign grants a role to a user.
func (r *Repository) Assign(ctx context.Context, userID int64, role authz.Role) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, string(role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return shared.ErrDuplicateAssignment
			case "23503":
				return shared.ErrNotFound
			}
		}
		return err
	}
	return nil
}

// Remove revokes a role from a user.
func (r *Repository) Remove(ctx context.Context, userID int64, role authz.Role) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
