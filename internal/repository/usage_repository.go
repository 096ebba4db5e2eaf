package repository

import (
	"database/sql"
	"fmt"
	"time"

	"linkly-be/internal/entities"
)

// UsageRepository tracks anonymous creation counters and per-user monthly API
// usage. Increments run as single atomic statements at the storage layer; the
// check-then-increment sequence above them is deliberately not transactional.
type UsageRepository interface {
	AnonUsage(fingerprint string) (*entities.AnonUsage, error)
	RecordAnonCreation(fingerprint string, now time.Time) error
	APIUsage(userID, month string) (int, error)
	IncrementAPIUsage(userID, month string) error
}

type usageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new Postgres-backed usage repository
func NewUsageRepository(db *sql.DB) UsageRepository {
	return &usageRepository{db: db}
}

// AnonUsage returns the usage record for a fingerprint, or a zeroed record if
// the fingerprint has never been seen.
func (r *usageRepository) AnonUsage(fingerprint string) (*entities.AnonUsage, error) {
	query := `
		SELECT fingerprint, urls_created, urls_created_today, last_reset
		FROM anon_usage
		WHERE fingerprint = $1
	`

	var usage entities.AnonUsage
	err := r.db.QueryRow(query, fingerprint).Scan(
		&usage.Fingerprint,
		&usage.URLsCreated,
		&usage.URLsCreatedToday,
		&usage.LastReset,
	)

	if err == sql.ErrNoRows {
		return &entities.AnonUsage{Fingerprint: fingerprint, LastReset: time.Now().UTC()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get anon usage: %w", err)
	}

	return &usage, nil
}

// RecordAnonCreation increments the anonymous counters, resetting the daily
// counter when the stored reset date differs from the current date.
func (r *usageRepository) RecordAnonCreation(fingerprint string, now time.Time) error {
	query := `
		INSERT INTO anon_usage (fingerprint, urls_created, urls_created_today, last_reset)
		VALUES ($1, 1, 1, $2)
		ON CONFLICT (fingerprint) DO UPDATE SET
			urls_created = anon_usage.urls_created + 1,
			urls_created_today = CASE
				WHEN anon_usage.last_reset::date = $2::date THEN anon_usage.urls_created_today + 1
				ELSE 1
			END,
			last_reset = CASE
				WHEN anon_usage.last_reset::date = $2::date THEN anon_usage.last_reset
				ELSE $2
			END
	`

	if _, err := r.db.Exec(query, fingerprint, now.UTC()); err != nil {
		return fmt.Errorf("failed to record anon creation: %w", err)
	}
	return nil
}

// APIUsage returns the request count for the user in the given month (YYYY-MM)
func (r *usageRepository) APIUsage(userID, month string) (int, error) {
	var requests int
	err := r.db.QueryRow(`
		SELECT requests FROM api_usage WHERE user_id = $1 AND month = $2
	`, userID, month).Scan(&requests)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get API usage: %w", err)
	}
	return requests, nil
}

// IncrementAPIUsage bumps the monthly request counter atomically
func (r *usageRepository) IncrementAPIUsage(userID, month string) error {
	query := `
		INSERT INTO api_usage (user_id, month, requests)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, month) DO UPDATE SET requests = api_usage.requests + 1
	`

	if _, err := r.db.Exec(query, userID, month); err != nil {
		return fmt.Errorf("failed to increment API usage: %w", err)
	}
	return nil
}
