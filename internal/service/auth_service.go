package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
	"linkly-be/internal/repository"
)

const (
	sessionTTL        = 30 * 24 * time.Hour
	subscriptionMonth = 30 * 24 * time.Hour // fixed 30-day month, not calendar-accurate
	minPasswordLen    = 6
	apiKeyPrefix      = "qk_"
)

// AuthService issues and validates sessions and API keys, hashes passwords,
// and applies lazy subscription-expiry downgrades.
type AuthService interface {
	Register(email, name, password string) (*entities.User, error)
	Login(email, password, ipAddress, userAgent string) (*entities.User, string, error)
	GetUserBySession(sessionID string) (*entities.User, error)
	Logout(sessionID string) (bool, error)
	GenerateAPIKey(userID string) (string, error)
	GetUserByAPIKey(apiKey string) (*entities.User, error)
	ActivateSubscription(userID, subscriptionID string, plan entities.Plan, durationMonths int) error
	UserStats(userID string) (*UserStats, error)
}

// UserStats summarizes an account's plan and usage for client display.
type UserStats struct {
	Plan               entities.Plan               `json:"plan"`
	URLsCreated        int                         `json:"urls_created"`
	SubscriptionStatus entities.SubscriptionStatus `json:"subscription_status,omitempty"`
	SubscriptionEnd    *time.Time                  `json:"subscription_end,omitempty"`
	DaysRemaining      *int                        `json:"days_remaining,omitempty"`
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
}

// NewAuthService creates a new auth service. Construction runs a one-shot
// best-effort sweep of expired sessions and stale paid plans; it is not
// periodic.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository) AuthService {
	s := &authService{users: users, sessions: sessions}
	s.sweep(time.Now())
	return s
}

func (s *authService) sweep(now time.Time) {
	if cleaned, err := s.sessions.DeleteExpired(now); err != nil {
		log.Printf("Warning: expired session sweep failed: %v", err)
	} else if cleaned > 0 {
		log.Printf("Cleaned %d expired sessions", cleaned)
	}

	users, err := s.users.GetAll()
	if err != nil {
		log.Printf("Warning: subscription sweep failed: %v", err)
		return
	}
	for _, u := range users {
		if u.Plan.Paid() && EffectivePlan(u, now) == entities.PlanFree {
			if err := s.users.Downgrade(u.ID); err != nil {
				log.Printf("Warning: failed to downgrade user %s: %v", u.ID, err)
			}
		}
	}
}

// hashPassword returns the hex digest of password concatenated with salt
func hashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// randomHex returns n random bytes hex-encoded
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Register creates a new free-plan account
func (s *authService) Register(email, name, password string) (*entities.User, error) {
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters long", domain.ErrInvalidInput, minPasswordLen)
	}

	salt, err := randomHex(32)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		Name:         name,
		PasswordHash: hashPassword(password, salt),
		Salt:         salt,
		Plan:         entities.PlanFree,
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	log.Printf("New user registered: %s (%s)", user.Email, user.ID)
	return user, nil
}

// Login authenticates a user and opens a 30-day session. The failure mode is
// identical for an unknown email and a wrong password.
func (s *authService) Login(email, password, ipAddress, userAgent string) (*entities.User, string, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, "", domain.ErrUnauthenticated
	}

	expected := hashPassword(password, user.Salt)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(user.PasswordHash)) != 1 {
		return nil, "", domain.ErrUnauthenticated
	}

	now := time.Now().UTC()
	user = s.applyLazyDowngrade(user, now)

	sessionID, err := randomHex(32)
	if err != nil {
		return nil, "", err
	}

	session := &entities.Session{
		SessionID: sessionID,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, "", err
	}

	if err := s.users.TouchActivity(user.ID); err != nil {
		log.Printf("Warning: failed to update last activity for %s: %v", user.ID, err)
	}

	return user, sessionID, nil
}

// GetUserBySession resolves a session to its account. Fails closed on a
// missing or expired session; an expired session is deleted as a side effect.
func (s *authService) GetUserBySession(sessionID string) (*entities.User, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	now := time.Now().UTC()
	if session.Expired(now) {
		if _, err := s.sessions.Delete(sessionID); err != nil {
			log.Printf("Warning: failed to delete expired session: %v", err)
		}
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.FindByID(session.UserID)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	user = s.applyLazyDowngrade(user, now)

	if err := s.users.TouchActivity(user.ID); err != nil {
		log.Printf("Warning: failed to update last activity for %s: %v", user.ID, err)
	}

	return user, nil
}

// Logout deletes the session, reporting whether one existed
func (s *authService) Logout(sessionID string) (bool, error) {
	return s.sessions.Delete(sessionID)
}

// GenerateAPIKey issues a fresh API key for an enterprise account, replacing
// any previous key.
func (s *authService) GenerateAPIKey(userID string) (string, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return "", err
	}

	if EffectivePlan(user, time.Now().UTC()) != entities.PlanEnterprise {
		return "", fmt.Errorf("%w: API keys are only available for enterprise accounts", domain.ErrPlanRequired)
	}

	suffix, err := randomHex(32)
	if err != nil {
		return "", err
	}
	apiKey := apiKeyPrefix + suffix

	if err := s.users.SetAPIKey(userID, apiKey); err != nil {
		return "", err
	}
	return apiKey, nil
}

// GetUserByAPIKey resolves an API key to its account with the same lazy
// downgrade semantics as session resolution.
func (s *authService) GetUserByAPIKey(apiKey string) (*entities.User, error) {
	user, err := s.users.FindByAPIKey(apiKey)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	return s.applyLazyDowngrade(user, time.Now().UTC()), nil
}

// ActivateSubscription records a paid-plan activation. The subscription runs
// durationMonths fixed 30-day months from now.
func (s *authService) ActivateSubscription(userID, subscriptionID string, plan entities.Plan, durationMonths int) error {
	if !plan.Paid() {
		return fmt.Errorf("%w: plan %q is not a paid tier", domain.ErrInvalidInput, plan)
	}
	if durationMonths <= 0 {
		durationMonths = 1
	}

	now := time.Now().UTC()
	end := now.Add(time.Duration(durationMonths) * subscriptionMonth)

	if err := s.users.SetSubscription(userID, subscriptionID, plan, entities.SubscriptionActive, now, end); err != nil {
		return err
	}

	log.Printf("User %s subscription updated: %s until %s", userID, plan, end.Format(time.RFC3339))
	return nil
}

// UserStats returns the account's plan and usage summary
func (s *authService) UserStats(userID string) (*UserStats, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		Plan:               user.Plan,
		URLsCreated:        user.URLsCreated,
		SubscriptionStatus: user.SubscriptionStatus,
		SubscriptionEnd:    user.SubscriptionEnd,
	}

	if user.Plan.Paid() && user.SubscriptionEnd != nil {
		remaining := int(time.Until(*user.SubscriptionEnd).Hours() / 24)
		if remaining < 0 {
			remaining = 0
		}
		stats.DaysRemaining = &remaining
	}

	return stats, nil
}

// applyLazyDowngrade persists the free downgrade for a stale paid plan and
// returns the user with the downgrade applied.
func (s *authService) applyLazyDowngrade(user *entities.User, now time.Time) *entities.User {
	if EffectivePlan(user, now) == user.Plan {
		return user
	}

	if err := s.users.Downgrade(user.ID); err != nil {
		log.Printf("Warning: failed to downgrade user %s: %v", user.ID, err)
	} else {
		log.Printf("User %s subscription expired, downgraded to free", user.Email)
	}

	user.Plan = entities.PlanFree
	user.SubscriptionStatus = entities.SubscriptionExpired
	return user
}
