package demoidp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ory/fosite"
	fosite_storage "github.com/ory/fosite/storage"

	"github.com/shellbridge/authflow/internal/crypto"
	"github.com/shellbridge/authflow/internal/log"
)

// Ensure Store satisfies the fosite storage contract
var _ fosite.Storage = (*Store)(nil)

// Client is a registered demo OAuth client. A nil HashedSecret marks a
// public client.
type Client struct {
	ID           string
	HashedSecret []byte
	RedirectURIs []string
	Scopes       []string
}

// ToFositeClient converts the record into fosite's client model
func (c *Client) ToFositeClient() *fosite.DefaultClient {
	return &fosite.DefaultClient{
		ID:            c.ID,
		Secret:        c.HashedSecret,
		RedirectURIs:  c.RedirectURIs,
		Scopes:        c.Scopes,
		GrantTypes:    []string{"authorization_code", "refresh_token"},
		ResponseTypes: []string{"code"},
		Public:        len(c.HashedSecret) == 0,
	}
}

// pendingApproval is an authorize request parked between the GET that
// renders the consent form and the POST that completes it. Single use.
type pendingApproval struct {
	requester fosite.AuthorizeRequester
	expiresAt time.Time
}

// Store extends fosite's in-memory store with thread-safe client management
// and the pending-approval cache, swept by a periodic janitor. This exists
// only to exercise the provider contract end to end.
type Store struct {
	*fosite_storage.MemoryStore

	mu      sync.Mutex
	clients map[string]*Client
	pending map[string]*pendingApproval
	now     func() time.Time
}

// NewStore creates an empty demo store
func NewStore() *Store {
	return &Store{
		MemoryStore: fosite_storage.NewMemoryStore(),
		clients:     make(map[string]*Client),
		pending:     make(map[string]*pendingApproval),
		now:         time.Now,
	}
}

// RegisterClient adds a public client
func (s *Store) RegisterClient(clientID string, redirectURIs, scopes []string) *Client {
	client := &Client{ID: clientID, RedirectURIs: redirectURIs, Scopes: scopes}
	s.mu.Lock()
	s.clients[clientID] = client
	s.mu.Unlock()
	return client
}

// RegisterConfidentialClient adds a client with a bcrypt-hashed secret,
// verified by fosite during the token exchange.
func (s *Store) RegisterConfidentialClient(clientID, secret string, redirectURIs, scopes []string) (*Client, error) {
	hashed, err := crypto.HashClientSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("hashing client secret: %w", err)
	}
	client := &Client{ID: clientID, HashedSecret: hashed, RedirectURIs: redirectURIs, Scopes: scopes}
	s.mu.Lock()
	s.clients[clientID] = client
	s.mu.Unlock()
	return client, nil
}

// GetClient implements fosite.Storage
func (s *Store) GetClient(_ context.Context, id string) (fosite.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return nil, fosite.ErrNotFound
	}
	return client.ToFositeClient(), nil
}

// StorePending parks a parsed authorize request under a one-time id until
// the consent form posts back.
func (s *Store) StorePending(id string, req fosite.AuthorizeRequester) {
	s.mu.Lock()
	s.pending[id] = &pendingApproval{
		requester: req,
		expiresAt: s.now().Add(CodeLifetime),
	}
	s.mu.Unlock()
}

// ConsumePending removes and returns a parked request. Entries are single
// use: a second consume of the same id fails, as does consuming an expired
// entry.
func (s *Store) ConsumePending(id string) (fosite.AuthorizeRequester, bool) {
	s.mu.Lock()
	entry, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if !ok || s.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.requester, true
}

// Sweep removes expired pending approvals, returning the number removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for id, entry := range s.pending {
		if now.After(entry.expiresAt) {
			delete(s.pending, id)
			count++
		}
	}
	return count
}

// StartJanitor sweeps the store on the given interval until ctx is done
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if count := s.Sweep(); count > 0 {
					log.LogDebugWithFields("demoidp", "Swept expired records", map[string]any{
						"count": count,
					})
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
