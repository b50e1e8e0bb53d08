package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kjannette/tradejournal/internal/models"
)

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a user. Emails are stored lower-cased.
func (r *UserRepo) Create(ctx context.Context, name, email, hashedPassword string) (*models.User, error) {
	u := models.User{
		Name:           name,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(
		`INSERT INTO users (name, email, hashed_password, created_at)
		 VALUES (?, ?, ?, ?) RETURNING id`),
		u.Name, u.Email, u.HashedPassword, u.CreatedAt,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(
		`SELECT id, name, email, hashed_password, created_at FROM users WHERE email = ?`),
		strings.ToLower(strings.TrimSpace(email)),
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
