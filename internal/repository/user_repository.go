package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(user *entities.User) error
	FindByEmail(email string) (*entities.User, error)
	FindByID(id string) (*entities.User, error)
	FindByAPIKey(apiKey string) (*entities.User, error)
	SetSubscription(userID, subscriptionID string, plan entities.Plan, status entities.SubscriptionStatus, start, end time.Time) error
	Downgrade(userID string) error
	SetAPIKey(userID, apiKey string) error
	IncrementURLCount(userID string) error
	TouchActivity(userID string) error
	GetAll() ([]*entities.User, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new Postgres-backed user repository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, name, password_hash, salt, plan, subscription_id,
	COALESCE(subscription_status, ''), subscription_start, subscription_end,
	urls_created, api_key, created_at, last_activity`

func scanUser(row interface{ Scan(...interface{}) error }) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Salt,
		&user.Plan,
		&user.SubscriptionID,
		&user.SubscriptionStatus,
		&user.SubscriptionStart,
		&user.SubscriptionEnd,
		&user.URLsCreated,
		&user.APIKey,
		&user.CreatedAt,
		&user.LastActivity,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user. Returns a DuplicateError when the email is
// already registered (case-insensitive, emails are stored lowercase).
func (r *userRepository) Create(user *entities.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, salt, plan, urls_created, created_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Salt,
		user.Plan,
		user.URLsCreated,
		user.CreatedAt.UTC(),
		user.LastActivity.UTC(),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.NewDuplicateError("user", "email", user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail finds a user by email, case-insensitively
func (r *userRepository) FindByEmail(email string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`

	user, err := scanUser(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindByID finds a user by ID
func (r *userRepository) FindByID(id string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindByAPIKey finds a user by their active API key
func (r *userRepository) FindByAPIKey(apiKey string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE api_key = $1`

	user, err := scanUser(r.db.QueryRow(query, apiKey))
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("user", "api key")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by API key: %w", err)
	}
	return user, nil
}

// SetSubscription records an activated subscription on the user row
func (r *userRepository) SetSubscription(userID, subscriptionID string, plan entities.Plan, status entities.SubscriptionStatus, start, end time.Time) error {
	query := `
		UPDATE users
		SET plan = $1, subscription_id = $2, subscription_status = $3,
		    subscription_start = $4, subscription_end = $5
		WHERE id = $6
	`

	result, err := r.db.Exec(query, plan, subscriptionID, status, start.UTC(), end.UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return requireRow(result, "user", userID)
}

// Downgrade marks an expired paid account as free. Idempotent.
func (r *userRepository) Downgrade(userID string) error {
	query := `
		UPDATE users
		SET plan = $1, subscription_status = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, entities.PlanFree, entities.SubscriptionExpired, userID)
	if err != nil {
		return fmt.Errorf("failed to downgrade user: %w", err)
	}
	return requireRow(result, "user", userID)
}

// SetAPIKey replaces the user's active API key
func (r *userRepository) SetAPIKey(userID, apiKey string) error {
	result, err := r.db.Exec(`UPDATE users SET api_key = $1 WHERE id = $2`, apiKey, userID)
	if err != nil {
		return fmt.Errorf("failed to set API key: %w", err)
	}
	return requireRow(result, "user", userID)
}

// IncrementURLCount bumps the cumulative creation counter atomically
func (r *userRepository) IncrementURLCount(userID string) error {
	result, err := r.db.Exec(`
		UPDATE users
		SET urls_created = urls_created + 1, last_activity = NOW()
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to increment URL count: %w", err)
	}
	return requireRow(result, "user", userID)
}

// TouchActivity refreshes last_activity
func (r *userRepository) TouchActivity(userID string) error {
	result, err := r.db.Exec(`UPDATE users SET last_activity = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to touch activity: %w", err)
	}
	return requireRow(result, "user", userID)
}

// GetAll retrieves all users, newest first
func (r *userRepository) GetAll() ([]*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func requireRow(result sql.Result, entity, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError(entity, id)
	}
	return nil
}
