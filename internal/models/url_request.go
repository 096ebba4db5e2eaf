package models

// ShortenRequest represents the request body for creating a short URL
type ShortenRequest struct {
	URL string `json:"url" binding:"required"`
}

// APIShortenRequest represents the public API request body. CustomCode is an
// enterprise-only feature.
type APIShortenRequest struct {
	URL        string  `json:"url" binding:"required"`
	CustomCode *string `json:"customCode,omitempty"`
}

// SubscriptionRequest represents a billing activation callback
type SubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId" binding:"required"`
	PlanName       string `json:"planName" binding:"required"`
	Email          string `json:"email"`
	DurationMonths int    `json:"durationMonths"`
}
