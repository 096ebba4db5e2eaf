package entities

import "time"

// AnonUsage tracks URL creation for unauthenticated callers, keyed by a
// fingerprint of client IP + user agent. Best-effort identity, not a security
// boundary; collisions are expected and acceptable.
type AnonUsage struct {
	Fingerprint      string    `json:"fingerprint"`
	URLsCreated      int       `json:"urls_created"`
	URLsCreatedToday int       `json:"urls_created_today"`
	LastReset        time.Time `json:"last_reset"`
}

// APIUsage is a per-user monthly request counter for the public API.
type APIUsage struct {
	UserID   string `json:"user_id"`
	Month    string `json:"month"` // YYYY-MM
	Requests int    `json:"requests"`
}
