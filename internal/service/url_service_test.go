package service

import (
	"errors"
	"testing"

	"linkly-be/internal/domain"
	"linkly-be/internal/filestore"
)

func newTestURLService(t *testing.T) (URLService, *filestore.Store) {
	t.Helper()
	store, err := filestore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return NewURLService(store.URLs(), nil), store
}

func TestCreateAndResolve(t *testing.T) {
	urls, _ := newTestURLService(t)

	record, err := urls.Create("https://example.com/some/long/path", nil, Identity{Fingerprint: "fp"}, false)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(record.ShortCode) != 8 {
		t.Errorf("expected an 8-character code, got %q", record.ShortCode)
	}
	if record.ClickCount != 0 {
		t.Errorf("expected zero clicks on a fresh record, got %d", record.ClickCount)
	}

	destination, err := urls.Resolve(record.ShortCode)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if destination != "https://example.com/some/long/path" {
		t.Errorf("unexpected destination %q", destination)
	}

	// Each resolve counts exactly one click.
	got, err := urls.Get(record.ShortCode)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ClickCount != 1 {
		t.Errorf("expected 1 click, got %d", got.ClickCount)
	}
}

func TestResolveUnknownCode(t *testing.T) {
	urls, _ := newTestURLService(t)

	if _, err := urls.Resolve("missing1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRejectsInvalidURLs(t *testing.T) {
	urls, _ := newTestURLService(t)

	for _, bad := range []string{"", "not a url", "example.com/no-scheme", "https://"} {
		if _, err := urls.Create(bad, nil, Identity{Fingerprint: "fp"}, false); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %q, got %v", bad, err)
		}
	}
}

func TestCustomCode(t *testing.T) {
	urls, _ := newTestURLService(t)

	code := "promo"
	record, err := urls.Create("https://example.com/campaign", &code, Identity{Fingerprint: "fp"}, true)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if record.ShortCode != "promo" {
		t.Errorf("expected the custom code to be kept, got %q", record.ShortCode)
	}
	if !record.CreatedViaAPI {
		t.Error("expected the record to be marked as API-created")
	}

	// The same code cannot be claimed twice.
	if _, err := urls.Create("https://example.com/other", &code, Identity{Fingerprint: "fp"}, true); !errors.Is(err, domain.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestCustomCodeValidation(t *testing.T) {
	urls, _ := newTestURLService(t)

	tests := []struct {
		name string
		code string
	}{
		{"too short", "ab"},
		{"too long", "this-code-is-far-too-long-to-accept"},
		{"bad characters", "hello world"},
		{"reserved", "admin"},
		{"reserved mixed case", "Health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := tt.code
			if _, err := urls.Create("https://example.com", &code, Identity{Fingerprint: "fp"}, false); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for %q, got %v", tt.code, err)
			}
		})
	}
}

func TestTotals(t *testing.T) {
	urls, _ := newTestURLService(t)

	a, err := urls.Create("https://example.com/a", nil, Identity{Fingerprint: "fp"}, false)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := urls.Create("https://example.com/b", nil, Identity{Fingerprint: "fp"}, false); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := urls.Resolve(a.ShortCode); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
	}

	total, clicks, err := urls.Totals()
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 URLs, got %d", total)
	}
	if clicks != 3 {
		t.Errorf("expected 3 clicks, got %d", clicks)
	}
}
