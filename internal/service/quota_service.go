package service

import (
	"fmt"
	"log"
	"time"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
	"linkly-be/internal/repository"
)

// Plan limits. Paid tiers are unlimited for URL creation.
const (
	FreeDailyLimit  = 5   // URLs per calendar day
	FreeTotalLimit  = 100 // cumulative URLs
	APIMonthlyLimit = 1000000

	monthFormat = "2006-01"
)

// Identity is either an authenticated account or an anonymous caller known
// only by its fingerprint.
type Identity struct {
	User        *entities.User // nil for anonymous callers
	Fingerprint string
}

// Key returns the counter key for this identity.
func (id Identity) Key() string {
	if id.User != nil {
		return id.User.ID
	}
	return id.Fingerprint
}

// Decision is the outcome of a quota evaluation. When Allowed is false,
// Reason, Limit and Used carry the detail a client needs to render an
// upgrade prompt.
type Decision struct {
	Allowed bool
	Reason  string
	Limit   int
	Used    int
	Plan    entities.Plan
}

// QuotaService decides whether an identity may create a URL and records
// creations afterwards. Evaluate never mutates counters; the caller records
// the creation in a separate step once it has happened.
type QuotaService interface {
	Evaluate(identity Identity, now time.Time) (*Decision, error)
	Record(identity Identity, now time.Time) error
	Stats(identity Identity, now time.Time) (*UsageStats, error)
	EvaluateAPI(user *entities.User, now time.Time) (*Decision, error)
	RecordAPI(userID string, now time.Time) error
}

// UsageStats is the usage summary attached to creation responses.
type UsageStats struct {
	Plan             entities.Plan `json:"plan"`
	URLsCreated      int           `json:"urlsCreated"`
	URLsCreatedToday int           `json:"urlsCreatedToday"`
	DailyLimit       *int          `json:"dailyLimit,omitempty"`
	TotalLimit       *int          `json:"totalLimit,omitempty"`
}

type quotaService struct {
	users repository.UserRepository
	usage repository.UsageRepository
}

// NewQuotaService creates a new quota service
func NewQuotaService(users repository.UserRepository, usage repository.UsageRepository) QuotaService {
	return &quotaService{users: users, usage: usage}
}

// EffectivePlan returns the plan the account should be treated as having at
// the given instant: free whenever the subscription is missing, not active,
// or past its end date. Persisting the downgrade is the caller's concern.
func EffectivePlan(user *entities.User, now time.Time) entities.Plan {
	if !user.Plan.Paid() {
		return user.Plan
	}
	if user.SubscriptionStatus != entities.SubscriptionActive {
		return entities.PlanFree
	}
	if user.SubscriptionEnd == nil || user.SubscriptionEnd.Before(now) {
		return entities.PlanFree
	}
	return user.Plan
}

// Evaluate checks the identity's limits for a URL-creation action.
func (s *quotaService) Evaluate(identity Identity, now time.Time) (*Decision, error) {
	plan := entities.PlanFree
	totalUsed := 0

	if identity.User != nil {
		plan = EffectivePlan(identity.User, now)
		if plan != identity.User.Plan {
			// Stale paid plan: persist the downgrade, then evaluate as free.
			if err := s.users.Downgrade(identity.User.ID); err != nil {
				log.Printf("Warning: failed to downgrade user %s: %v", identity.User.ID, err)
			}
			identity.User.Plan = entities.PlanFree
			identity.User.SubscriptionStatus = entities.SubscriptionExpired
		}
		totalUsed = identity.User.URLsCreated
	}

	if plan.Paid() {
		return &Decision{Allowed: true, Plan: plan}, nil
	}

	usage, err := s.usage.AnonUsage(identity.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}

	usedToday := usage.URLsCreatedToday
	if !sameDay(usage.LastReset, now) {
		usedToday = 0
	}
	if identity.User == nil {
		totalUsed = usage.URLsCreated
	}

	if usedToday >= FreeDailyLimit {
		return &Decision{
			Reason: domain.ReasonDailyLimit,
			Limit:  FreeDailyLimit,
			Used:   usedToday,
			Plan:   plan,
		}, nil
	}

	if totalUsed >= FreeTotalLimit {
		return &Decision{
			Reason: domain.ReasonMonthlyLimit,
			Limit:  FreeTotalLimit,
			Used:   totalUsed,
			Plan:   plan,
		}, nil
	}

	return &Decision{Allowed: true, Limit: FreeTotalLimit, Used: totalUsed, Plan: plan}, nil
}

// Record increments the identity's creation counters. For authenticated users
// the cumulative counter lives on the account row and the daily counter in
// the usage table; both increments are atomic at the storage layer.
func (s *quotaService) Record(identity Identity, now time.Time) error {
	if identity.User != nil {
		if err := s.users.IncrementURLCount(identity.User.ID); err != nil {
			return err
		}
	}
	return s.usage.RecordAnonCreation(identity.Key(), now)
}

// Stats returns the identity's current usage summary, re-reading the account
// row so counts reflect a creation recorded just before the call.
func (s *quotaService) Stats(identity Identity, now time.Time) (*UsageStats, error) {
	usage, err := s.usage.AnonUsage(identity.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}

	usedToday := usage.URLsCreatedToday
	if !sameDay(usage.LastReset, now) {
		usedToday = 0
	}

	stats := &UsageStats{
		Plan:             entities.PlanFree,
		URLsCreated:      usage.URLsCreated,
		URLsCreatedToday: usedToday,
	}

	if identity.User != nil {
		user, err := s.users.FindByID(identity.User.ID)
		if err != nil {
			return nil, err
		}
		stats.Plan = EffectivePlan(user, now)
		stats.URLsCreated = user.URLsCreated
	}

	if !stats.Plan.Paid() {
		daily, total := FreeDailyLimit, FreeTotalLimit
		stats.DailyLimit = &daily
		stats.TotalLimit = &total
	}

	return stats, nil
}

// EvaluateAPI checks the monthly public-API quota for an enterprise account.
func (s *quotaService) EvaluateAPI(user *entities.User, now time.Time) (*Decision, error) {
	month := now.UTC().Format(monthFormat)
	used, err := s.usage.APIUsage(user.ID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load API usage: %w", err)
	}

	if used >= APIMonthlyLimit {
		return &Decision{
			Reason: domain.ReasonAPILimit,
			Limit:  APIMonthlyLimit,
			Used:   used,
			Plan:   user.Plan,
		}, nil
	}

	return &Decision{Allowed: true, Limit: APIMonthlyLimit, Used: used, Plan: user.Plan}, nil
}

// RecordAPI increments the monthly API request counter.
func (s *quotaService) RecordAPI(userID string, now time.Time) error {
	return s.usage.IncrementAPIUsage(userID, now.UTC().Format(monthFormat))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
