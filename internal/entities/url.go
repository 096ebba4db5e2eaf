package entities

import "time"

// URL represents a shortened URL record
type URL struct {
	ShortCode     string    `json:"short_code"`
	OriginalURL   string    `json:"original_url"`
	ClickCount    int       `json:"click_count"`
	CreatedAt     time.Time `json:"created_at"`
	UserID        *string   `json:"user_id,omitempty"` // Pointer allows nil (for anonymous URLs)
	CreatedViaAPI bool      `json:"created_via_api,omitempty"`
}
