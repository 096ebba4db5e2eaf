package filestore

import (
	"sort"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
	"linkly-be/internal/repository"
)

type subscriptionStore struct {
	s *Store
}

// Subscriptions returns the SubscriptionRepository view of the store
func (s *Store) Subscriptions() repository.SubscriptionRepository {
	return &subscriptionStore{s: s}
}

func (ss *subscriptionStore) Create(sub *entities.Subscription) (bool, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	if _, exists := ss.s.subscriptions[sub.SubscriptionID]; exists {
		return false, nil
	}

	clone := *sub
	ss.s.subscriptions[sub.SubscriptionID] = &clone
	return true, ss.s.saveSubscriptions()
}

func (ss *subscriptionStore) Get(subscriptionID string) (*entities.Subscription, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	sub, ok := ss.s.subscriptions[subscriptionID]
	if !ok {
		return nil, domain.NewNotFoundError("subscription", subscriptionID)
	}
	clone := *sub
	return &clone, nil
}

func (ss *subscriptionStore) GetAll() ([]*entities.Subscription, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	subs := make([]*entities.Subscription, 0, len(ss.s.subscriptions))
	for _, sub := range ss.s.subscriptions {
		clone := *sub
		subs = append(subs, &clone)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
	return subs, nil
}
