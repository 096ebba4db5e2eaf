package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"linkly-be/internal/entities"
)

// Store is a file-backed implementation of the repository interfaces, used
// when no relational database is configured. State lives in memory and every
// mutation rewrites the corresponding JSON snapshot atomically (temp file +
// rename). A single mutex guards all tables; individual increments are
// therefore read-modify-write safe.
type Store struct {
	mu  sync.RWMutex
	dir string

	users         map[string]*entities.User    // keyed by user ID
	sessions      map[string]*entities.Session // keyed by session ID
	urls          map[string]*entities.URL     // keyed by short code
	anon          map[string]*entities.AnonUsage
	apiUsage      map[string]*entities.APIUsage // keyed by userID + "_" + month
	subscriptions map[string]*entities.Subscription
}

const (
	usersFile         = "users.json"
	sessionsFile      = "sessions.json"
	urlsFile          = "urls.json"
	anonUsageFile     = "anon_usage.json"
	apiUsageFile      = "api_usage.json"
	subscriptionsFile = "subscriptions.json"
)

// Open loads (or initializes) the store in dir
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		dir:           dir,
		users:         make(map[string]*entities.User),
		sessions:      make(map[string]*entities.Session),
		urls:          make(map[string]*entities.URL),
		anon:          make(map[string]*entities.AnonUsage),
		apiUsage:      make(map[string]*entities.APIUsage),
		subscriptions: make(map[string]*entities.Subscription),
	}

	var users []storedUser
	if err := s.load(usersFile, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		s.users[u.ID] = u.toEntity()
	}

	var sessions []*entities.Session
	if err := s.load(sessionsFile, &sessions); err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		s.sessions[sess.SessionID] = sess
	}

	var urls []*entities.URL
	if err := s.load(urlsFile, &urls); err != nil {
		return nil, err
	}
	for _, u := range urls {
		s.urls[u.ShortCode] = u
	}

	var anon []*entities.AnonUsage
	if err := s.load(anonUsageFile, &anon); err != nil {
		return nil, err
	}
	for _, a := range anon {
		s.anon[a.Fingerprint] = a
	}

	var api []*entities.APIUsage
	if err := s.load(apiUsageFile, &api); err != nil {
		return nil, err
	}
	for _, a := range api {
		s.apiUsage[a.UserID+"_"+a.Month] = a
	}

	var subs []*entities.Subscription
	if err := s.load(subscriptionsFile, &subs); err != nil {
		return nil, err
	}
	for _, sub := range subs {
		s.subscriptions[sub.SubscriptionID] = sub
	}

	return s, nil
}

// load reads a JSON snapshot into dest; a missing file is not an error.
func (s *Store) load(name string, dest interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// save writes a JSON snapshot atomically. Caller must hold the write lock.
func (s *Store) save(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (s *Store) saveUsers() error {
	users := make([]storedUser, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, newStoredUser(u))
	}
	return s.save(usersFile, users)
}

func (s *Store) saveSessions() error {
	sessions := make([]*entities.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	return s.save(sessionsFile, sessions)
}

func (s *Store) saveURLs() error {
	urls := make([]*entities.URL, 0, len(s.urls))
	for _, u := range s.urls {
		urls = append(urls, u)
	}
	return s.save(urlsFile, urls)
}

func (s *Store) saveAnonUsage() error {
	anon := make([]*entities.AnonUsage, 0, len(s.anon))
	for _, a := range s.anon {
		anon = append(anon, a)
	}
	return s.save(anonUsageFile, anon)
}

func (s *Store) saveAPIUsage() error {
	api := make([]*entities.APIUsage, 0, len(s.apiUsage))
	for _, a := range s.apiUsage {
		api = append(api, a)
	}
	return s.save(apiUsageFile, api)
}

func (s *Store) saveSubscriptions() error {
	subs := make([]*entities.Subscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		subs = append(subs, sub)
	}
	return s.save(subscriptionsFile, subs)
}
