package db

import (
	"context"
	"fmt"
)

const userColumns = `id, external_identity_id, email, is_paid, created_at`

// GetUserByExternalID retrieves a user by identity provider id.
// Returns (nil, nil) if no row matches.
func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*User, error) {
	if externalID == "" {
		return nil, nil
	}

	var u User
	err := db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_identity_id = $1`,
		externalID,
	).Scan(&u.ID, &u.ExternalIdentityID, &u.Email, &u.IsPaid, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// EnsureUser returns the user for externalID, inserting {externalID, email,
// is_paid=false} first when absent. Concurrent callers converge on one row
// through the unique constraint.
func (db *DB) EnsureUser(ctx context.Context, externalID, email string) (*User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("failed to ensure user: external identity id is required")
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (external_identity_id, email, is_paid)
		 VALUES ($1, $2, FALSE)
		 ON CONFLICT (external_identity_id) DO NOTHING`,
		externalID, email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	u, err := db.GetUserByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("failed to ensure user: row for %s not found after insert", externalID)
	}
	return u, nil
}
