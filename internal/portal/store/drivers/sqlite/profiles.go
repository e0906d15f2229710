package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/domain"
)

type profilesRepo struct {
	db dbtx
}

const profileColumns = `user_id, display_name, user_type, college, verified, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (domain.Profile, error) {
	var p domain.Profile
	var category string
	err := row.Scan(&p.UserID, &p.DisplayName, &category, &p.College, &p.Verified, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Profile{}, err
	}
	p.Category = domain.Category(category)
	return p, nil
}

func (r *profilesRepo) GetProfileByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)

	p, err := scanProfile(row)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return p, nil
}

func (r *profilesRepo) GetProfilesByUserIDs(ctx context.Context, userIDs []string) (map[string]domain.Profile, error) {
	result := make(map[string]domain.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(userIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result[p.UserID] = p
	}
	return result, rows.Err()
}

func (r *profilesRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, display_name, user_type, college, verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.DisplayName, string(p.Category), p.College, p.Verified, p.CreatedAt, p.UpdatedAt)
	return mapConstraint(err)
}

func (r *profilesRepo) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET display_name = ?, updated_at = ? WHERE user_id = ?`,
		displayName, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *profilesRepo) SetVerified(ctx context.Context, userID string, verified bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET verified = ?, updated_at = ? WHERE user_id = ?`,
		verified, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
