package filestore

import (
	"sort"

	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
	"linkly-be/internal/repository"
)

type urlStore struct {
	s *Store
}

// URLs returns the URLRepository view of the store
func (s *Store) URLs() repository.URLRepository {
	return &urlStore{s: s}
}

func (us *urlStore) Create(url *entities.URL) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	if _, exists := us.s.urls[url.ShortCode]; exists {
		return domain.NewDuplicateError("url", "short_code", url.ShortCode)
	}

	clone := *url
	us.s.urls[url.ShortCode] = &clone
	return us.s.saveURLs()
}

func (us *urlStore) FindByShortCode(shortCode string) (*entities.URL, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	u, ok := us.s.urls[shortCode]
	if !ok {
		return nil, domain.NewNotFoundError("url", shortCode)
	}
	clone := *u
	return &clone, nil
}

func (us *urlStore) IncrementClickCount(shortCode string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	u, ok := us.s.urls[shortCode]
	if !ok {
		return domain.NewNotFoundError("url", shortCode)
	}

	u.ClickCount++
	return us.s.saveURLs()
}

func (us *urlStore) GetAll() ([]*entities.URL, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	urls := make([]*entities.URL, 0, len(us.s.urls))
	for _, u := range us.s.urls {
		clone := *u
		urls = append(urls, &clone)
	}
	sort.Slice(urls, func(i, j int) bool {
		return urls[i].CreatedAt.After(urls[j].CreatedAt)
	})
	return urls, nil
}

func (us *urlStore) Count() (int, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()
	return len(us.s.urls), nil
}

func (us *urlStore) TotalClicks() (int, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	total := 0
	for _, u := range us.s.urls {
		total += u.ClickCount
	}
	return total, nil
}
