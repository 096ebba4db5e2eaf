package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
	"linkly-be/internal/repository"
)

// revenuePerSubscription is the flat per-subscription estimate used by the
// admin revenue summary.
const revenuePerSubscription = 9

// SubscriptionService records billing activations delivered by the payment
// callback and reports revenue.
type SubscriptionService interface {
	Record(subscriptionID, planName, email string, durationMonths int) (created bool, err error)
	Summary() (*SubscriptionSummary, error)
}

// SubscriptionSummary is the admin-side revenue report
type SubscriptionSummary struct {
	Subscriptions      []*entities.Subscription `json:"subscriptions"`
	TotalSubscriptions int                      `json:"total_subscriptions"`
	TotalRevenue       int                      `json:"total_revenue"`
}

type subscriptionService struct {
	subs  repository.SubscriptionRepository
	users repository.UserRepository
	auth  AuthService
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(subs repository.SubscriptionRepository, users repository.UserRepository, auth AuthService) SubscriptionService {
	return &subscriptionService{subs: subs, users: users, auth: auth}
}

// planFromName maps a billing plan name to an account tier
func planFromName(planName string) entities.Plan {
	name := strings.ToLower(planName)
	switch {
	case strings.Contains(name, "enterprise"):
		return entities.PlanEnterprise
	case strings.Contains(name, "pro"):
		return entities.PlanPro
	default:
		return entities.PlanFree
	}
}

// Record stores the billing-side subscription record, idempotently per
// subscription ID, and activates the matching user account when the email
// belongs to a registered user.
func (s *subscriptionService) Record(subscriptionID, planName, email string, durationMonths int) (bool, error) {
	created, err := s.subs.Create(&entities.Subscription{
		SubscriptionID: subscriptionID,
		PlanName:       planName,
		Status:         string(entities.SubscriptionActive),
		Email:          strings.ToLower(email),
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return false, err
	}
	if !created {
		// Repeated delivery of the same callback; nothing more to do.
		return false, nil
	}

	log.Printf("New subscription: %s for %s", subscriptionID, planName)

	plan := planFromName(planName)
	if !plan.Paid() || email == "" {
		return true, nil
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Subscription arrived before the account exists; keep the record.
			return true, nil
		}
		return true, err
	}

	if err := s.auth.ActivateSubscription(user.ID, subscriptionID, plan, durationMonths); err != nil {
		log.Printf("Warning: failed to activate subscription %s for %s: %v", subscriptionID, user.ID, err)
	}

	return true, nil
}

// Summary returns every recorded subscription with a revenue estimate
func (s *subscriptionService) Summary() (*SubscriptionSummary, error) {
	subs, err := s.subs.GetAll()
	if err != nil {
		return nil, err
	}

	return &SubscriptionSummary{
		Subscriptions:      subs,
		TotalSubscriptions: len(subs),
		TotalRevenue:       len(subs) * revenuePerSubscription,
	}, nil
}
