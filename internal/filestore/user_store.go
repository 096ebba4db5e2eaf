package filestore

import (
	"strings"
	"time"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
	"linkly-be/internal/repository"
)

// storedUser mirrors entities.User with credential fields included, since the
// entity hides them from JSON and the snapshot must keep them.
type storedUser struct {
	ID                 string                      `json:"id"`
	Email              string                      `json:"email"`
	Name               string                      `json:"name"`
	PasswordHash       string                      `json:"password_hash"`
	Salt               string                      `json:"salt"`
	Plan               entities.Plan               `json:"plan"`
	SubscriptionID     *string                     `json:"subscription_id,omitempty"`
	SubscriptionStatus entities.SubscriptionStatus `json:"subscription_status,omitempty"`
	SubscriptionStart  *time.Time                  `json:"subscription_start,omitempty"`
	SubscriptionEnd    *time.Time                  `json:"subscription_end,omitempty"`
	URLsCreated        int                         `json:"urls_created"`
	APIKey             *string                     `json:"api_key,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	LastActivity       time.Time                   `json:"last_activity"`
}

func newStoredUser(u *entities.User) storedUser {
	return storedUser{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		PasswordHash:       u.PasswordHash,
		Salt:               u.Salt,
		Plan:               u.Plan,
		SubscriptionID:     u.SubscriptionID,
		SubscriptionStatus: u.SubscriptionStatus,
		SubscriptionStart:  u.SubscriptionStart,
		SubscriptionEnd:    u.SubscriptionEnd,
		URLsCreated:        u.URLsCreated,
		APIKey:             u.APIKey,
		CreatedAt:          u.CreatedAt,
		LastActivity:       u.LastActivity,
	}
}

func (u storedUser) toEntity() *entities.User {
	return &entities.User{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		PasswordHash:       u.PasswordHash,
		Salt:               u.Salt,
		Plan:               u.Plan,
		SubscriptionID:     u.SubscriptionID,
		SubscriptionStatus: u.SubscriptionStatus,
		SubscriptionStart:  u.SubscriptionStart,
		SubscriptionEnd:    u.SubscriptionEnd,
		URLsCreated:        u.URLsCreated,
		APIKey:             u.APIKey,
		CreatedAt:          u.CreatedAt,
		LastActivity:       u.LastActivity,
	}
}

type userStore struct {
	s *Store
}

// Users returns the UserRepository view of the store
func (s *Store) Users() repository.UserRepository {
	return &userStore{s: s}
}

func (us *userStore) Create(user *entities.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	for _, existing := range us.s.users {
		if existing.Email == user.Email {
			return domain.NewDuplicateError("user", "email", user.Email)
		}
	}

	clone := *user
	us.s.users[user.ID] = &clone
	return us.s.saveUsers()
}

func (us *userStore) FindByEmail(email string) (*entities.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	lowered := strings.ToLower(email)
	for _, u := range us.s.users {
		if u.Email == lowered {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.NewNotFoundError("user", email)
}

func (us *userStore) FindByID(id string) (*entities.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	u, ok := us.s.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("user", id)
	}
	clone := *u
	return &clone, nil
}

func (us *userStore) FindByAPIKey(apiKey string) (*entities.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	for _, u := range us.s.users {
		if u.APIKey != nil && *u.APIKey == apiKey {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.NewNotFoundError("user", "api key")
}

func (us *userStore) SetSubscription(userID, subscriptionID string, plan entities.Plan, status entities.SubscriptionStatus, start, end time.Time) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	u, ok := us.s.users[userID]
	if !ok {
		return domain.NewNotFoundError("user", userID)
	}

	u.Plan = plan
	u.SubscriptionID = &subscriptionID
	u.SubscriptionStatus = status
	u.SubscriptionStart = &start
	u.SubscriptionEnd = &end
	return us.s.saveUsers()
}

func (us *userStore) Downgrade(userID string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	u, ok := us.s.users[userID]
	if !ok {
		return domain.NewNotFoundError("user", userID)
	}

	u.Plan = entities.PlanFree
	u.SubscriptionStatus = entities.SubscriptionExpired
	return us.s.saveUsers()
}

func (us *userStore) SetAPIKey(userID, apiKey string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	u, ok := us.s.users[userID]
	if !ok {
		return domain.NewNotFoundError("user", userID)
	}

	u.APIKey = &apiKey
	return us.s.saveUsers()
}

func (us *userStore) IncrementURLCount(userID string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	u, ok := us.s.users[userID]
	if !ok {
		return domain.NewNotFoundError("user", userID)
	}

	u.URLsCreated++
	u.LastActivity = time.Now().UTC()
	return us.s.saveUsers()
}

func (us *userStore) TouchActivity(userID string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	u, ok := us.s.users[userID]
	if !ok {
		return domain.NewNotFoundError("user", userID)
	}

	u.LastActivity = time.Now().UTC()
	return us.s.saveUsers()
}

func (us *userStore) GetAll() ([]*entities.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	users := make([]*entities.User, 0, len(us.s.users))
	for _, u := range us.s.users {
		clone := *u
		users = append(users, &clone)
	}
	return users, nil
}
