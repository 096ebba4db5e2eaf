package service

import (
	"testing"
	"time"

	"linkly-be/internal/entities"
	"linkly-be/internal/filestore"
)

func newTestSubscriptionService(t *testing.T) (SubscriptionService, AuthService, *filestore.Store) {
	t.Helper()
	store, err := filestore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	auth := NewAuthService(store.Users(), store.Sessions())
	subs := NewSubscriptionService(store.Subscriptions(), store.Users(), auth)
	return subs, auth, store
}

func TestRecordActivatesMatchingUser(t *testing.T) {
	subs, auth, store := newTestSubscriptionService(t)

	user, err := auth.Register("ivy@example.com", "Ivy", "secret123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	created, err := subs.Record("sub_100", "Enterprise Plan", "Ivy@Example.com", 1)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !created {
		t.Fatal("expected a new subscription record")
	}

	got, err := store.Users().FindByID(user.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Plan != entities.PlanEnterprise {
		t.Errorf("expected enterprise plan, got %q", got.Plan)
	}
	if got.SubscriptionStatus != entities.SubscriptionActive {
		t.Errorf("expected active status, got %q", got.SubscriptionStatus)
	}
	if got.SubscriptionEnd == nil {
		t.Fatal("expected a subscription end date")
	}

	want := time.Now().UTC().Add(30 * 24 * time.Hour)
	if diff := got.SubscriptionEnd.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("subscription end off by %v", diff)
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	subs, _, _ := newTestSubscriptionService(t)

	created, err := subs.Record("sub_200", "Pro Plan", "nobody@example.com", 1)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !created {
		t.Fatal("expected the first delivery to create a record")
	}

	// Redelivery of the same callback changes nothing.
	created, err = subs.Record("sub_200", "Pro Plan", "nobody@example.com", 1)
	if err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if created {
		t.Fatal("expected redelivery to be a no-op")
	}

	summary, err := subs.Summary()
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalSubscriptions != 1 {
		t.Errorf("expected 1 subscription, got %d", summary.TotalSubscriptions)
	}
	if summary.TotalRevenue != 9 {
		t.Errorf("expected $9 revenue, got %d", summary.TotalRevenue)
	}
}

func TestRecordForUnknownEmail(t *testing.T) {
	subs, _, store := newTestSubscriptionService(t)

	created, err := subs.Record("sub_300", "Pro Plan", "stranger@example.com", 1)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !created {
		t.Fatal("expected the record to be kept for later")
	}

	got, err := store.Subscriptions().Get("sub_300")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Email != "stranger@example.com" {
		t.Errorf("unexpected email %q", got.Email)
	}
}

func TestPlanFromName(t *testing.T) {
	tests := []struct {
		planName string
		want     entities.Plan
	}{
		{"Enterprise Plan", entities.PlanEnterprise},
		{"enterprise", entities.PlanEnterprise},
		{"Pro Plan (annual)", entities.PlanPro},
		{"pro", entities.PlanPro},
		{"something else", entities.PlanFree},
	}

	for _, tt := range tests {
		if got := planFromName(tt.planName); got != tt.want {
			t.Errorf("planFromName(%q) = %q, want %q", tt.planName, got, tt.want)
		}
	}
}
