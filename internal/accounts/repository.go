package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rmendes/storefront-api/internal/domain"
)

var ErrEmailTaken = errors.New("email already registered")

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, address, phone, profile_image, created_at)
		VALUES ($1, $2, $3, $4, '', '', '', $5)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, address, phone, profile_image, created_at
		FROM users
		WHERE email = $1
	`, email))
}

func (r *Repository) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, address, phone, profile_image, created_at
		FROM users
		WHERE id = $1
	`, id))
}

type ProfileUpdate struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	ProfileImage string `json:"profileImage"`
}

// UpdateProfile overwrites the mutable profile fields. Returns nil when
// the user does not exist.
func (r *Repository) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = $2, address = $3, phone = $4, profile_image = $5
		WHERE id = $1
	`, userID, update.Name, update.Address, update.Phone, update.ProfileImage)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.UserByID(ctx, userID)
}

func (r *Repository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Address, &user.Phone, &user.ProfileImage, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
