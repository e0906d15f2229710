package sqlite

import (
	"context"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) GetAssignment(ctx context.Context, userID string, role domain.Role) (domain.RoleAssignment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, role, created_at FROM user_roles WHERE user_id = ? AND role = ?`,
		userID, string(role))

	var a domain.RoleAssignment
	var got string
	if err := row.Scan(&a.UserID, &got, &a.CreatedAt); err != nil {
		return domain.RoleAssignment{}, mapNotFound(err)
	}
	a.Role = domain.Role(got)
	return a, nil
}

func (r *rolesRepo) GrantRole(ctx context.Context, a domain.RoleAssignment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role, created_at) VALUES (?, ?, ?)`,
		a.UserID, string(a.Role), a.CreatedAt)
	return mapConstraint(err)
}

func (r *rolesRepo) RevokeRole(ctx context.Context, userID string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = ? AND role = ?`, userID, string(role))
	if err != nil {
		return err
	}
	return requireRow(res)
}
