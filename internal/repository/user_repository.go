package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"musiccrate/internal/auth"
	"musiccrate/internal/logging"
	"musiccrate/internal/models"
)

const userColumns = `username, password, email, created_at`

func scanUser(row scanner) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.Username, &user.Password, &user.Email, &user.CreatedAt); err != nil {
		return models.User{}, err
	}
	return user, nil
}

type userRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *logging.Logger) UserRepository {
	if logger == nil {
		logger = logging.Nop()
	}
	return &userRepository{db: db, logger: logger.Component("users")}
}

// Create stores the user with a bcrypt hash of the supplied password.
func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, bool) {
	created, err := r.create(ctx, user)
	if err != nil {
		report(r.logger, "create", err)
		return nil, false
	}
	return created, true
}

func (r *userRepository) create(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidUser)
	}
	username := strings.TrimSpace(user.Username)
	if username == "" || user.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidUser)
	}

	hash, err := auth.HashPassword(user.Password)
	if err != nil {
		return nil, err
	}

	created := models.User{
		Username:  username,
		Password:  hash,
		Email:     strings.TrimSpace(user.Email),
		CreatedAt: user.CreatedAt,
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, password, email, created_at)
		VALUES ($1, $2, $3, $4)`,
		created.Username, created.Password, created.Email, created.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %q", ErrUserExists, username)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, bool) {
	user, err := r.find(ctx, username)
	if err != nil {
		report(r.logger, "find by username", err)
		return nil, false
	}
	return &user, true
}

func (r *userRepository) find(ctx context.Context, username string) (models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1`, strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindAll(ctx context.Context) []models.User {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at, username`)
	if err != nil {
		report(r.logger, "find all", fmt.Errorf("query users: %w", err))
		return []models.User{}
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			report(r.logger, "find all", fmt.Errorf("scan user: %w", err))
			return []models.User{}
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		report(r.logger, "find all", fmt.Errorf("iterate users: %w", err))
		return []models.User{}
	}
	return users
}

// Update replaces the email and, when a new password is supplied, the hash.
func (r *userRepository) Update(ctx context.Context, user *models.User) bool {
	if err := r.update(ctx, user); err != nil {
		report(r.logger, "update", err)
		return false
	}
	return true
}

func (r *userRepository) update(ctx context.Context, user *models.User) error {
	if user == nil || strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidUser)
	}
	username := strings.TrimSpace(user.Username)
	email := strings.TrimSpace(user.Email)

	if user.Password == "" {
		res, err := r.db.ExecContext(ctx, `UPDATE users SET email = $1 WHERE username = $2`, email, username)
		return expectRows(res, err, fmt.Sprintf("update user %q", username))
	}

	hash, err := auth.HashPassword(user.Password)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $1, password = $2
		WHERE username = $3`, email, hash, username)
	return expectRows(res, err, fmt.Sprintf("update user %q", username))
}

// Delete removes the user's statistics and then the user row.
func (r *userRepository) Delete(ctx context.Context, username string) bool {
	username = strings.TrimSpace(username)
	err := WithTx(ctx, r.db, r.logger, "delete user", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_song_statistics WHERE user_id = $1`, username); err != nil {
			return fmt.Errorf("delete statistics: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
		return expectRows(res, err, fmt.Sprintf("delete user %q", username))
	})
	if err != nil {
		report(r.logger, "delete", err)
		return false
	}
	return true
}

// Authenticate returns the user when password matches the stored hash.
func (r *userRepository) Authenticate(ctx context.Context, username, password string) (*models.User, bool) {
	user, err := r.find(ctx, username)
	if errors.Is(err, ErrNotFound) {
		auth.BurnCompare(password)
		r.logger.Debug("authenticate: unknown user")
		return nil, false
	}
	if err != nil {
		report(r.logger, "authenticate", err)
		return nil, false
	}

	if err := auth.CheckPassword(user.Password, password); err != nil {
		r.logger.Debug("authenticate: password mismatch")
		return nil, false
	}
	return &user, true
}
