package entities

import "time"

// Plan is a subscription tier governing quota and feature access.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Paid reports whether the plan is a paid tier.
func (p Plan) Paid() bool {
	return p == PlanPro || p == PlanEnterprise
}

// SubscriptionStatus is the billing state of a user's subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// User represents a registered account
type User struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"` // stored lowercase
	Name               string             `json:"name"`
	PasswordHash       string             `json:"-"` // Don't expose password hash in JSON
	Salt               string             `json:"-"`
	Plan               Plan               `json:"plan"`
	SubscriptionID     *string            `json:"subscription_id,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status,omitempty"`
	SubscriptionStart  *time.Time         `json:"subscription_start,omitempty"`
	SubscriptionEnd    *time.Time         `json:"subscription_end,omitempty"`
	URLsCreated        int                `json:"urls_created"`
	APIKey             *string            `json:"-"` // enterprise only, single active key
	CreatedAt          time.Time          `json:"created_at"`
	LastActivity       time.Time          `json:"last_activity"`
}
