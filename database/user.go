package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"socialgraph/models"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.exec(ctx,
		"INSERT INTO users (id, username, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		user.ID.String(), user.Username, user.Password, toMillis(now), toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id.String())
}

// GetByUsername matches case-insensitively, the same way friend names are matched.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "LOWER(username) = ?", strings.ToLower(username))
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepository) Search(ctx context.Context, keyword string, limit int) ([]*models.User, error) {
	rows, err := r.db.query(ctx,
		"SELECT id, username, password, created_at, updated_at FROM users WHERE LOWER(username) LIKE ? ORDER BY username LIMIT ?",
		"%"+strings.ToLower(keyword)+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	row := r.db.queryRow(ctx,
		"SELECT id, username, password, created_at, updated_at FROM users WHERE "+where, arg)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func scanUser(row scanner) (*models.User, error) {
	var (
		user                 models.User
		id                   string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &user.Username, &user.Password, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if user.ID, err = parseUUID("id", id); err != nil {
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return &user, nil
}
