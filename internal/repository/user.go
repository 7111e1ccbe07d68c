package repository

import (
	"context"

	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/internal/service"
	"github.com/shenikar/surakshita/pkg/e"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) service.UserRepository {
	return &UserRepository{db: db}
}

// Create создает пользователя; занятые username или email дают ErrConflict
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, is_privileged)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at;
	`
	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsPrivileged,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return e.WrapError("failed to create user", err)
	}
	return nil
}

// GetByUsername возвращает пользователя по имени
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, is_privileged, created_at
		FROM users
		WHERE username = $1;
	`
	user := &models.User{}
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsPrivileged,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, e.WrapError("failed to get user by username", err)
	}
	return user, nil
}
