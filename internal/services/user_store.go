package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/models"
	"github.com/AnshRaj112/ediary-backend/pkg/utils"
)

// ErrUserNotFound is returned when no account matches a lookup.
var ErrUserNotFound = fmt.Errorf("user: %w", diary.ErrNotFound)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	// GetByUsername matches case-insensitively.
	GetByUsername(ctx context.Context, username string) (models.User, error)
	// GetByEmail expects a normalized email.
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Update(ctx context.Context, u models.User) (models.User, error)
}

const (
	userColumns = `id, email, username, password_hash, first_name, last_name, phone, profile_image, created_at, updated_at`

	insertUserQuery = `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	selectUserByIDQuery       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	selectUserByUsernameQuery = `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`
	selectUserByEmailQuery    = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	updateUserQuery = `UPDATE users SET email = $2, username = $3, first_name = $4, last_name = $5, phone = $6, updated_at = $7 WHERE id = $1`
)

// PostgresUserStore keeps accounts in the users table. When key is set the phone
// column is encrypted with AES-256-GCM.
type PostgresUserStore struct {
	db  *sql.DB
	key []byte
}

func NewPostgresUserStore(db *sql.DB, encryptionKey []byte) *PostgresUserStore {
	return &PostgresUserStore{db: db, key: encryptionKey}
}

func (s *PostgresUserStore) Create(ctx context.Context, u models.User) (models.User, error) {
	phone, err := s.sealPhone(u.Phone)
	if err != nil {
		return models.User{}, err
	}
	_, err = s.db.ExecContext(ctx, insertUserQuery,
		u.ID, u.Email, u.Username, u.PasswordHash, u.FirstName, u.LastName, phone, u.ProfileImage, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return models.User{}, mapPostgresErr(err)
	}
	return u, nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	return s.getOne(ctx, selectUserByIDQuery, id)
}

func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return s.getOne(ctx, selectUserByUsernameQuery, username)
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getOne(ctx, selectUserByEmailQuery, email)
}

func (s *PostgresUserStore) Update(ctx context.Context, u models.User) (models.User, error) {
	phone, err := s.sealPhone(u.Phone)
	if err != nil {
		return models.User{}, err
	}
	res, err := s.db.ExecContext(ctx, updateUserQuery,
		u.ID, u.Email, u.Username, u.FirstName, u.LastName, phone, u.UpdatedAt)
	if err != nil {
		return models.User{}, mapPostgresErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *PostgresUserStore) getOne(ctx context.Context, query string, arg any) (models.User, error) {
	var u models.User
	var phone string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&phone, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	if u.Phone, err = s.openPhone(phone); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *PostgresUserStore) sealPhone(phone string) (string, error) {
	if len(s.key) == 0 || phone == "" {
		return phone, nil
	}
	ct, err := utils.Encrypt(s.key, phone)
	if err != nil {
		return "", fmt.Errorf("encrypt phone: %w", err)
	}
	return ct, nil
}

func (s *PostgresUserStore) openPhone(stored string) (string, error) {
	if len(s.key) == 0 || stored == "" {
		return stored, nil
	}
	pt, err := utils.Decrypt(s.key, stored)
	if err != nil {
		return "", fmt.Errorf("decrypt phone: %w", err)
	}
	return pt, nil
}

func mapPostgresErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if pqErr.Constraint == "users_email_key" {
			return ErrEmailTaken
		}
		return ErrUsernameTaken
	}
	return fmt.Errorf("db error: %w", err)
}
