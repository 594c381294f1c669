// Package session persists the current token/session record for one
// provider instance on top of the injected storage capability. Exactly one
// session (or none) is addressable at a time per store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shellbridge/authflow/internal/log"
	"github.com/shellbridge/authflow/internal/provider"
	"github.com/shellbridge/authflow/internal/storage"
)

const keyPrefix = "authflow:session:"

// EventType distinguishes session change notifications.
type EventType string

const (
	EventSignedIn  EventType = "signed-in"
	EventSignedOut EventType = "signed-out"
)

// Event is published to subscribers whenever the session slot changes.
// Session is nil for sign-out events.
type Event struct {
	Type    EventType
	Session *provider.Session
}

// Store holds the single session slot for a provider instance. Writes happen
// from Set/Clear only; readers tolerate racing a write from another tab or
// instance (last writer wins, no cross-instance coordination).
type Store struct {
	storage storage.Storage // nil means no persistence medium available
	key     string
	group   singleflight.Group
	now     func() time.Time

	mu      sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewStore creates a session store for the named provider. A nil storage is
// permitted and turns writes into no-ops and reads into absence.
func NewStore(st storage.Storage, providerName string) *Store {
	return &Store{
		storage: st,
		key:     keyPrefix + providerName,
		now:     time.Now,
		subs:    make(map[int]chan Event),
	}
}

// Set derives a Session from the token set plus user record and persists it.
// The expiry instant is computed here, once, and never recomputed later.
// Without a persistence medium this is a logged no-op by contract.
func (s *Store) Set(ctx context.Context, tokens provider.TokenSet, user provider.UserRecord) (*provider.Session, error) {
	sess := &provider.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         user,
	}
	if tokens.ExpiresIn > 0 {
		sess.ExpiresAtMs = s.now().UnixMilli() + tokens.ExpiresIn*1000
	}

	if s.storage == nil {
		log.LogDebugWithFields("session", "No persistence medium, session not stored", map[string]any{
			"key": s.key,
		})
		s.publish(Event{Type: EventSignedIn, Session: sess})
		return sess, nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Set(ctx, s.key, string(data)); err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventSignedIn, Session: sess})
	return sess, nil
}

// Get returns the current session, or (nil, nil) when none exists.
// Persistence read failures are downgraded to absence and only logged.
// Concurrent reads are collapsed into a single storage round trip.
func (s *Store) Get(ctx context.Context) (*provider.Session, error) {
	if s.storage == nil {
		return nil, nil
	}

	v, err, _ := s.group.Do(s.key, func() (any, error) {
		data, err := s.storage.Get(ctx, s.key)
		if err != nil {
			return nil, err
		}

		var sess provider.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			return nil, err
		}
		return &sess, nil
	})
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			readErr := &provider.SessionReadError{Err: err}
			log.LogWarnWithFields("session", "Session read failed, treating as absent", map[string]any{
				"key":   s.key,
				"error": readErr.Error(),
			})
		}
		return nil, nil
	}
	return v.(*provider.Session), nil
}

// Clear removes the persisted session. Idempotent: clearing an empty slot
// succeeds and still notifies subscribers.
func (s *Store) Clear(ctx context.Context) error {
	if s.storage != nil {
		if err := s.storage.Delete(ctx, s.key); err != nil {
			return err
		}
	}
	s.publish(Event{Type: EventSignedOut})
	return nil
}

// Subscribe registers for session change events, replacing interval polling.
// The returned cancel func must be called to release the subscription.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++

	ch := make(chan Event, 4)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish delivers the event without blocking; a subscriber that is not
// draining its channel misses events rather than stalling the flow.
func (s *Store) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
