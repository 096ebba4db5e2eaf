package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"linkly-be/internal/cache"
	"linkly-be/internal/domain"
	"linkly-be/internal/entities"
	"linkly-be/internal/repository"
)

const (
	shortCodeLength  = 8
	maxCodeAttempts  = 10
	urlCacheTTL      = 1 * time.Hour
	customCodeMinLen = 3
	customCodeMaxLen = 20
)

// URLService creates short URLs and resolves them back to their destination
type URLService interface {
	Create(originalURL string, customCode *string, identity Identity, viaAPI bool) (*entities.URL, error)
	Resolve(shortCode string) (string, error)
	Get(shortCode string) (*entities.URL, error)
	Totals() (urls, clicks int, err error)
	All() ([]*entities.URL, error)
}

type urlService struct {
	repo  repository.URLRepository
	cache cache.Cache
	ctx   context.Context
}

// NewURLService creates a new URL service. cacheClient may be nil to disable
// the redirect cache.
func NewURLService(repo repository.URLRepository, cacheClient cache.Cache) URLService {
	return &urlService{repo: repo, cache: cacheClient, ctx: context.Background()}
}

// Reserved short codes that cannot be used as custom codes
var reservedCodes = map[string]bool{
	"admin":         true,
	"api":           true,
	"auth":          true,
	"health":        true,
	"login":         true,
	"logout":        true,
	"qrcode":        true,
	"register":      true,
	"shorten":       true,
	"stats":         true,
	"subscriptions": true,
	"user":          true,
	"v1":            true,
	"www":           true,
}

var customCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateCustomCode validates a caller-supplied short code
func ValidateCustomCode(code string) error {
	if len(code) < customCodeMinLen {
		return fmt.Errorf("%w: short code must be at least %d characters long", domain.ErrInvalidInput, customCodeMinLen)
	}
	if len(code) > customCodeMaxLen {
		return fmt.Errorf("%w: short code must be at most %d characters long", domain.ErrInvalidInput, customCodeMaxLen)
	}
	if !customCodePattern.MatchString(code) {
		return fmt.Errorf("%w: short code can only contain letters, numbers, hyphens, and underscores", domain.ErrInvalidInput)
	}
	if reservedCodes[strings.ToLower(code)] {
		return fmt.Errorf("%w: short code %q is reserved", domain.ErrInvalidInput, code)
	}
	return nil
}

// generateShortCode generates a random 8-character URL-safe short code
func generateShortCode() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes)[:shortCodeLength], nil
}

// Create validates the destination URL, chooses a short code and persists the
// record. Randomly generated codes retry on collision a bounded number of
// times; a custom code collision surfaces as a duplicate error.
func (s *urlService) Create(originalURL string, customCode *string, identity Identity, viaAPI bool) (*entities.URL, error) {
	parsed, err := url.Parse(originalURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid URL", domain.ErrInvalidInput)
	}

	record := &entities.URL{
		OriginalURL:   originalURL,
		CreatedAt:     time.Now().UTC(),
		CreatedViaAPI: viaAPI,
	}
	if identity.User != nil {
		userID := identity.User.ID
		record.UserID = &userID
	}

	if customCode != nil && *customCode != "" {
		code := strings.TrimSpace(*customCode)
		if err := ValidateCustomCode(code); err != nil {
			return nil, err
		}
		record.ShortCode = code
		if err := s.repo.Create(record); err != nil {
			return nil, err
		}
	} else {
		var created bool
		for attempt := 0; attempt < maxCodeAttempts; attempt++ {
			code, err := generateShortCode()
			if err != nil {
				return nil, err
			}
			record.ShortCode = code

			err = s.repo.Create(record)
			if err == nil {
				created = true
				break
			}
			if !errors.Is(err, domain.ErrDuplicate) {
				return nil, err
			}
		}
		if !created {
			return nil, fmt.Errorf("failed to generate unique short code after %d attempts", maxCodeAttempts)
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(s.ctx, urlCacheKey(record.ShortCode), record.OriginalURL, urlCacheTTL); err != nil {
			log.Printf("Warning: failed to cache %s: %v", record.ShortCode, err)
		}
	}

	return record, nil
}

// Resolve returns the destination for a short code and increments its click
// count by exactly one. The increment is an independent side effect; a
// failure there does not fail the redirect.
func (s *urlService) Resolve(shortCode string) (string, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(s.ctx, urlCacheKey(shortCode)); err == nil && cached != "" {
			s.recordClick(shortCode)
			return cached, nil
		}
	}

	record, err := s.repo.FindByShortCode(shortCode)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(s.ctx, urlCacheKey(shortCode), record.OriginalURL, urlCacheTTL); err != nil {
			log.Printf("Warning: failed to cache %s: %v", shortCode, err)
		}
	}

	s.recordClick(shortCode)
	return record.OriginalURL, nil
}

func (s *urlService) recordClick(shortCode string) {
	if err := s.repo.IncrementClickCount(shortCode); err != nil {
		log.Printf("Warning: failed to increment click count for %s: %v", shortCode, err)
	}
}

// Get retrieves a URL record without touching its click count
func (s *urlService) Get(shortCode string) (*entities.URL, error) {
	return s.repo.FindByShortCode(shortCode)
}

// Totals returns the stored URL count and the sum of all clicks
func (s *urlService) Totals() (int, int, error) {
	urls, err := s.repo.Count()
	if err != nil {
		return 0, 0, err
	}
	clicks, err := s.repo.TotalClicks()
	if err != nil {
		return 0, 0, err
	}
	return urls, clicks, nil
}

// All returns every stored URL record, newest first
func (s *urlService) All() ([]*entities.URL, error) {
	return s.repo.GetAll()
}

func urlCacheKey(shortCode string) string {
	return "url:" + shortCode
}
