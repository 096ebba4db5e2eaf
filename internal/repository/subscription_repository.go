package repository

import (
	"database/sql"
	"fmt"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
)

// SubscriptionRepository defines the interface for billing-side subscription
// records. Records are write-once; Create is idempotent per subscription ID.
type SubscriptionRepository interface {
	Create(sub *entities.Subscription) (created bool, err error)
	Get(subscriptionID string) (*entities.Subscription, error)
	GetAll() ([]*entities.Subscription, error)
}

type subscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new Postgres-backed subscription repository
func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create inserts the subscription if it does not already exist
func (r *subscriptionRepository) Create(sub *entities.Subscription) (bool, error) {
	query := `
		INSERT INTO subscriptions (subscription_id, plan_name, status, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subscription_id) DO NOTHING
	`

	result, err := r.db.Exec(query,
		sub.SubscriptionID,
		sub.PlanName,
		sub.Status,
		sub.Email,
		sub.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create subscription: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Get retrieves a subscription by its ID
func (r *subscriptionRepository) Get(subscriptionID string) (*entities.Subscription, error) {
	query := `
		SELECT subscription_id, plan_name, status, COALESCE(email, ''), created_at
		FROM subscriptions
		WHERE subscription_id = $1
	`

	var sub entities.Subscription
	err := r.db.QueryRow(query, subscriptionID).Scan(
		&sub.SubscriptionID,
		&sub.PlanName,
		&sub.Status,
		&sub.Email,
		&sub.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("subscription", subscriptionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

// GetAll retrieves every subscription record
func (r *subscriptionRepository) GetAll() ([]*entities.Subscription, error) {
	query := `
		SELECT subscription_id, plan_name, status, COALESCE(email, ''), created_at
		FROM subscriptions
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*entities.Subscription
	for rows.Next() {
		var sub entities.Subscription
		err := rows.Scan(&sub.SubscriptionID, &sub.PlanName, &sub.Status, &sub.Email, &sub.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, &sub)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subs, nil
}
