package models

import "time"

// ShortenResponse represents the response after creating a short URL
type ShortenResponse struct {
	ShortURL    string      `json:"shortUrl"`
	ShortCode   string      `json:"shortCode"`
	OriginalURL string      `json:"originalUrl"`
	UserStats   interface{} `json:"userStats,omitempty"`
}

// APIUsageInfo reports public API consumption for the current month
type APIUsageInfo struct {
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetDate string `json:"resetDate,omitempty"`
}

// APIShortenResponse represents the public API response after creating a
// short URL
type APIShortenResponse struct {
	Success     bool         `json:"success"`
	ShortURL    string       `json:"shortUrl"`
	ShortCode   string       `json:"shortCode"`
	OriginalURL string       `json:"originalUrl"`
	CreatedAt   time.Time    `json:"createdAt"`
	APIUsage    APIUsageInfo `json:"apiUsage"`
}

// QuotaExceededResponse is the 429 body returned when a creation quota is hit
type QuotaExceededResponse struct {
	Error          string `json:"error"`
	Reason         string `json:"reason"`
	UpgradeMessage string `json:"upgradeMessage,omitempty"`
	Limit          int    `json:"limit"`
	Used           int    `json:"used"`
	PlanType       string `json:"planType"`
	NeedsUpgrade   bool   `json:"needsUpgrade"`
}
