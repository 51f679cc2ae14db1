package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evolutio/automated-orders/internal/auth"
	"github.com/evolutio/automated-orders/internal/bulkorder"
)

// Actor loads a user. Inactive users act anonymously.
func (r *Repository) Actor(ctx context.Context, userID int64) (bulkorder.Actor, error) {
	a := bulkorder.Actor{ID: userID}
	err := r.db.QueryRowContext(ctx, `SELECT email, is_active FROM users WHERE id = $1`, userID).
		Scan(&a.Email, &a.Authenticated)
	if err != nil {
		return bulkorder.Actor{}, fmt.Errorf("repository: user %d: %w", userID, notFound(err))
	}
	return a, nil
}

// Permissions returns the rights of userID on eventID. Unknown or inactive
// users get none.
func (r *Repository) Permissions(ctx context.Context, userID, eventID int64) (auth.Permissions, error) {
	var p auth.Permissions
	err := r.db.QueryRowContext(ctx, `
		SELECT u.is_staff,
		       COALESCE(ep.can_view_orders, FALSE),
		       COALESCE(ep.can_change_orders, FALSE)
		FROM users u
		LEFT JOIN event_permissions ep ON ep.user_id = u.id AND ep.event_id = $2
		WHERE u.id = $1 AND u.is_active`, userID, eventID).
		Scan(&p.Staff, &p.ViewOrders, &p.ChangeOrders)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Permissions{}, nil
	}
	if err != nil {
		return auth.Permissions{}, fmt.Errorf("repository: permissions: %w", err)
	}
	return p, nil
}
