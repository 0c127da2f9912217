// Package web provides the HTTP server, HTML pages, and JSON API for deriving
// colors from text.
package web

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/justestif/go-emotion-color/internal/history"
)

const (
	visitorCookieName = "visitor_id"
	visitorTTL        = 24 * time.Hour
	visitorMaxRecent  = 10
	visitorMaxStored  = 500
)

// Visitor holds the derivations one browser made in this process. It backs
// the "recent" list on the home page when no database is configured.
type Visitor struct {
	ID        string
	Recent    []history.Result // Newest first
	CreatedAt time.Time
}

// VisitorStore manages visitors in memory.
type VisitorStore struct {
	mu       sync.Mutex
	visitors map[string]*Visitor
	max      int
	now      func() time.Time
}

// NewVisitorStore creates a new in-memory visitor store.
func NewVisitorStore() *VisitorStore {
	return &VisitorStore{
		visitors: make(map[string]*Visitor),
		max:      visitorMaxStored,
		now:      time.Now,
	}
}

// Create registers a new visitor. Expired visitors are swept first, and the
// oldest visitor is evicted when the store is full.
func (s *VisitorStore) Create() (*Visitor, error) {
	id, err := generateVisitorID()
	if err != nil {
		return nil, err
	}

	v := &Visitor{
		ID:        id,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.sweepLocked()
	if len(s.visitors) >= s.max {
		s.evictOldestLocked()
	}
	s.visitors[id] = v
	s.mu.Unlock()

	return v, nil
}

// Len returns the number of stored visitors.
func (s *VisitorStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// sweepLocked removes expired visitors. Caller must hold s.mu.
func (s *VisitorStore) sweepLocked() {
	now := s.now()
	for id, v := range s.visitors {
		if now.Sub(v.CreatedAt) > visitorTTL {
			delete(s.visitors, id)
		}
	}
}

// evictOldestLocked removes the visitor created longest ago. Caller must hold s.mu.
func (s *VisitorStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, v := range s.visitors {
		if oldestID == "" || v.CreatedAt.Before(oldest) {
			oldestID, oldest = id, v.CreatedAt
		}
	}
	if oldestID != "" {
		delete(s.visitors, oldestID)
	}
}

// Get retrieves a copy of a visitor by ID. Expired visitors are removed.
func (s *VisitorStore) Get(id string) *Visitor {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok {
		return nil
	}

	if s.now().Sub(v.CreatedAt) > visitorTTL {
		delete(s.visitors, id)
		return nil
	}

	cp := *v
	cp.Recent = append([]history.Result(nil), v.Recent...)
	return &cp
}

// Remember prepends a result to the visitor's recent list, keeping at most
// visitorMaxRecent entries.
func (s *VisitorStore) Remember(id string, r history.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok {
		return
	}
	v.Recent = append([]history.Result{r}, v.Recent...)
	if len(v.Recent) > visitorMaxRecent {
		v.Recent = v.Recent[:visitorMaxRecent]
	}
}

// FromRequest extracts the visitor from the request cookie.
func (s *VisitorStore) FromRequest(r *http.Request) *Visitor {
	cookie, err := r.Cookie(visitorCookieName)
	if err != nil {
		return nil
	}
	return s.Get(cookie.Value)
}

// Ensure returns the request's visitor, creating one and setting its cookie
// when the request has none.
func (s *VisitorStore) Ensure(w http.ResponseWriter, r *http.Request) (*Visitor, error) {
	if v := s.FromRequest(r); v != nil {
		return v, nil
	}
	v, err := s.Create()
	if err != nil {
		return nil, err
	}
	setCookie(w, v)
	return v, nil
}

// generateVisitorID creates a cryptographically random visitor ID.
func generateVisitorID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// setCookie sets the visitor cookie on the response.
func setCookie(w http.ResponseWriter, v *Visitor) {
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    v.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(visitorTTL.Seconds()),
	})
}
