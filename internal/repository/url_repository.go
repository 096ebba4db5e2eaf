package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
)

// URLRepository defines the interface for URL persistence
type URLRepository interface {
	Create(url *entities.URL) error
	FindByShortCode(shortCode string) (*entities.URL, error)
	IncrementClickCount(shortCode string) error
	GetAll() ([]*entities.URL, error)
	Count() (int, error)
	TotalClicks() (int, error)
}

type urlRepository struct {
	db *sql.DB
}

// NewURLRepository creates a new Postgres-backed URL repository
func NewURLRepository(db *sql.DB) URLRepository {
	return &urlRepository{db: db}
}

// Create inserts a new URL row. Returns a DuplicateError when the short code
// is already taken.
func (r *urlRepository) Create(url *entities.URL) error {
	query := `
		INSERT INTO urls (short_code, original_url, click_count, user_id, created_via_api, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(query,
		url.ShortCode,
		url.OriginalURL,
		url.ClickCount,
		url.UserID,
		url.CreatedViaAPI,
		url.CreatedAt.UTC(),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.NewDuplicateError("url", "short_code", url.ShortCode)
		}
		return fmt.Errorf("failed to create URL: %w", err)
	}

	return nil
}

// FindByShortCode finds a URL by its short code
func (r *urlRepository) FindByShortCode(shortCode string) (*entities.URL, error) {
	query := `
		SELECT short_code, original_url, click_count, user_id, created_via_api, created_at
		FROM urls
		WHERE short_code = $1
	`

	var url entities.URL
	err := r.db.QueryRow(query, shortCode).Scan(
		&url.ShortCode,
		&url.OriginalURL,
		&url.ClickCount,
		&url.UserID,
		&url.CreatedViaAPI,
		&url.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("url", shortCode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find URL: %w", err)
	}

	return &url, nil
}

// IncrementClickCount increments the click count for a URL by exactly one.
// The increment runs as a single atomic statement.
func (r *urlRepository) IncrementClickCount(shortCode string) error {
	result, err := r.db.Exec(`
		UPDATE urls
		SET click_count = click_count + 1
		WHERE short_code = $1
	`, shortCode)
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError("url", shortCode)
	}

	return nil
}

// GetAll retrieves all URL records, newest first
func (r *urlRepository) GetAll() ([]*entities.URL, error) {
	query := `
		SELECT short_code, original_url, click_count, user_id, created_via_api, created_at
		FROM urls
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get URLs: %w", err)
	}
	defer rows.Close()

	var urls []*entities.URL
	for rows.Next() {
		var url entities.URL
		err := rows.Scan(
			&url.ShortCode,
			&url.OriginalURL,
			&url.ClickCount,
			&url.UserID,
			&url.CreatedViaAPI,
			&url.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls = append(urls, &url)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating URLs: %w", err)
	}

	return urls, nil
}

// Count returns the total number of stored URLs
func (r *urlRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM urls`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count URLs: %w", err)
	}
	return count, nil
}

// TotalClicks returns the sum of click counts across all URLs
func (r *urlRepository) TotalClicks() (int, error) {
	var total sql.NullInt64
	if err := r.db.QueryRow(`SELECT SUM(click_count) FROM urls`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum clicks: %w", err)
	}
	return int(total.Int64), nil
}
