package authflow

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultSessionTTL = 5 * time.Minute

// stateBytes is the number of random bytes backing a CSRF state parameter.
const stateBytes = 16

type pendingSession struct {
	createdAt time.Time
	state     string
	slot      chan string
	delivered bool
}

// Registry tracks pending authentication handshakes keyed by session id.
// Each session owns a single-delivery slot: the redirect leg writes the
// token exactly once and the polling leg reads it exactly once.
type Registry struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*pendingSession
	byState  map[string]string
}

// NewRegistry creates an empty registry. Sessions not completed within ttl
// are swept on subsequent access or by Expire.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Registry{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*pendingSession),
		byState:  make(map[string]string),
	}
}

// Create allocates a pending session with an empty slot and returns its id.
func (r *Registry) Create() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(r.now())

	id := uuid.NewString()
	r.sessions[id] = &pendingSession{
		createdAt: r.now(),
		slot:      make(chan string, 1),
	}
	return id
}

// BindState generates a fresh CSRF state for the session and indexes it so
// the redirect leg can locate the handshake. Rebinding replaces any state
// issued earlier for the same session.
func (r *Registry) BindState(id string) (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	state := hex.EncodeToString(buf)

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", ErrNotFound
	}
	if s.state != "" {
		delete(r.byState, s.state)
	}
	s.state = state
	r.byState[state] = id
	return state, nil
}

// ResolveState returns the session id and expected state for a returned
// state parameter. The caller must still compare the two values.
func (r *Registry) ResolveState(state string) (id, expected string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok = r.byState[state]
	if !ok {
		return "", "", false
	}
	s, ok := r.sessions[id]
	if !ok {
		return "", "", false
	}
	return id, s.state, true
}

// Deliver writes the token into the session slot. A session accepts exactly
// one delivery; later attempts fail with ErrAlreadyDelivered.
func (r *Registry) Deliver(id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if s.delivered {
		return ErrAlreadyDelivered
	}
	s.delivered = true
	s.slot <- token
	return nil
}

// Take consumes the session slot, waiting until the token is delivered or
// ctx is done. The successful reader removes the session. The registry lock
// is never held while waiting.
func (r *Registry) Take(ctx context.Context, id string) (string, error) {
	r.mu.Lock()
	r.sweepLocked(r.now())
	s, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok {
		return "", ErrNotFound
	}

	select {
	case token := <-s.slot:
		r.remove(id)
		return token, nil
	case <-ctx.Done():
		return "", ErrPollTimeout
	}
}

// Expire removes sessions created before now minus the TTL. Intended for a
// periodic sweeper; Create and Take also sweep lazily.
func (r *Registry) Expire(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(now)
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		if s.state != "" {
			delete(r.byState, s.state)
		}
		delete(r.sessions, id)
	}
}

func (r *Registry) sweepLocked(now time.Time) {
	for id, s := range r.sessions {
		if now.Sub(s.createdAt) > r.ttl {
			if s.state != "" {
				delete(r.byState, s.state)
			}
			delete(r.sessions, id)
		}
	}
}
