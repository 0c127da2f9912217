package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/justestif/go-emotion-color/internal/history"
)

func TestVisitorStoreRemember(t *testing.T) {
	store := NewVisitorStore()

	v, err := store.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(v.ID) != 64 {
		t.Errorf("ID length = %d, want 64", len(v.ID))
	}

	for i := 0; i < visitorMaxRecent+2; i++ {
		store.Remember(v.ID, history.Result{Text: string(rune('a' + i))})
	}

	got := store.Get(v.ID)
	if got == nil {
		t.Fatal("Get() returned nil")
	}
	if len(got.Recent) != visitorMaxRecent {
		t.Fatalf("len(Recent) = %d, want %d", len(got.Recent), visitorMaxRecent)
	}
	if got.Recent[0].Text != "l" {
		t.Errorf("Recent[0] = %q, want newest entry", got.Recent[0].Text)
	}

	// Get returns a copy
	got.Recent[0].Text = "mutated"
	if store.Get(v.ID).Recent[0].Text != "l" {
		t.Error("Get() should not expose internal state")
	}

	// Unknown visitors are ignored
	store.Remember("missing", history.Result{})
}

func TestVisitorStoreExpiry(t *testing.T) {
	store := NewVisitorStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	v, err := store.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	now = now.Add(visitorTTL + time.Second)
	if store.Get(v.ID) != nil {
		t.Error("expired visitor should not be returned")
	}
}

func TestVisitorStoreEnsure(t *testing.T) {
	store := NewVisitorStore()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	v, err := store.Ensure(rec, req)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != v.ID {
		t.Fatalf("expected visitor cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("cookie should be HttpOnly")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	again, err := store.Ensure(rec, req)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if again.ID != v.ID {
		t.Errorf("Ensure() created a new visitor for a known cookie")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("known visitor should not get a new cookie")
	}
}

func TestVisitorStoreCreateSweepsExpired(t *testing.T) {
	store := NewVisitorStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		if _, err := store.Create(); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	now = now.Add(visitorTTL + time.Second)
	fresh, err := store.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if got := store.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1 after expired visitors are swept", got)
	}
	if store.Get(fresh.ID) == nil {
		t.Error("fresh visitor should be kept")
	}
}

func TestVisitorStoreCreateEvictsOldest(t *testing.T) {
	store := NewVisitorStore()
	store.max = 3
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	var ids []string
	for i := 0; i < 5; i++ {
		v, err := store.Create()
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, v.ID)
		now = now.Add(time.Minute)
	}

	if got := store.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	for _, id := range ids[:2] {
		if store.Get(id) != nil {
			t.Errorf("visitor %s should have been evicted", id[:8])
		}
	}
	for _, id := range ids[2:] {
		if store.Get(id) == nil {
			t.Errorf("visitor %s should be kept", id[:8])
		}
	}
}
