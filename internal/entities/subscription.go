package entities

import "time"

// Subscription is the billing-side record created by the payment callback.
// Read-only once created; used for revenue reporting.
type Subscription struct {
	SubscriptionID string    `json:"subscription_id"`
	PlanName       string    `json:"plan_name"`
	Status         string    `json:"status"`
	Email          string    `json:"email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
