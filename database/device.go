package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"socialgraph/models"
	"socialgraph/utils"
)

type DeviceTokenRepository struct {
	db *DB
}

func NewDeviceTokenRepository(db *DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

// Register stores the push token for a user's platform, replacing any previous one.
func (r *DeviceTokenRepository) Register(ctx context.Context, userID uuid.UUID, platform, token string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		r.db.Rebind("DELETE FROM device_tokens WHERE user_id = ? AND platform = ?"),
		userID.String(), platform,
	); err != nil {
		return fmt.Errorf("failed to replace device token: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		r.db.Rebind("INSERT INTO device_tokens (id, user_id, platform, token, created_at) VALUES (?, ?, ?, ?, ?)"),
		utils.GenerateUUID(), userID.String(), platform, token, toMillis(time.Now()),
	); err != nil {
		return fmt.Errorf("failed to insert device token: %w", err)
	}

	return tx.Commit()
}

func (r *DeviceTokenRepository) Unregister(ctx context.Context, userID uuid.UUID, platform string) error {
	if _, err := r.db.exec(ctx,
		"DELETE FROM device_tokens WHERE user_id = ? AND platform = ?",
		userID.String(), platform,
	); err != nil {
		return fmt.Errorf("failed to delete device token: %w", err)
	}
	return nil
}

func (r *DeviceTokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error) {
	rows, err := r.db.query(ctx,
		"SELECT id, platform, token, created_at FROM device_tokens WHERE user_id = ? ORDER BY platform",
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.DeviceToken
	for rows.Next() {
		t := models.DeviceToken{UserID: userID}
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.Platform, &t.Token, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		t.CreatedAt = fromMillis(createdAt)
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
