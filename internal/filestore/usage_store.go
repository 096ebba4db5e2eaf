package filestore

import (
	"time"

	"linkly-be/internal/entities"
	"linkly-be/internal/repository"
)

type usageStore struct {
	s *Store
}

// Usage returns the UsageRepository view of the store
func (s *Store) Usage() repository.UsageRepository {
	return &usageStore{s: s}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func (us *usageStore) AnonUsage(fingerprint string) (*entities.AnonUsage, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	a, ok := us.s.anon[fingerprint]
	if !ok {
		return &entities.AnonUsage{Fingerprint: fingerprint, LastReset: time.Now().UTC()}, nil
	}
	clone := *a
	return &clone, nil
}

func (us *usageStore) RecordAnonCreation(fingerprint string, now time.Time) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	a, ok := us.s.anon[fingerprint]
	if !ok {
		a = &entities.AnonUsage{Fingerprint: fingerprint, LastReset: now.UTC()}
		us.s.anon[fingerprint] = a
	}

	if !sameDay(a.LastReset, now) {
		a.URLsCreatedToday = 0
		a.LastReset = now.UTC()
	}

	a.URLsCreated++
	a.URLsCreatedToday++
	return us.s.saveAnonUsage()
}

func (us *usageStore) APIUsage(userID, month string) (int, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	a, ok := us.s.apiUsage[userID+"_"+month]
	if !ok {
		return 0, nil
	}
	return a.Requests, nil
}

func (us *usageStore) IncrementAPIUsage(userID, month string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	key := userID + "_" + month
	a, ok := us.s.apiUsage[key]
	if !ok {
		a = &entities.APIUsage{UserID: userID, Month: month}
		us.s.apiUsage[key] = a
	}

	a.Requests++
	return us.s.saveAPIUsage()
}
