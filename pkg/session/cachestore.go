package session

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dmitrymomot/cachebox"
	"github.com/dmitrymomot/cachebox/pkg/cache"
)

const (
	tokenKeyPrefix = "token:"
	userKeyPrefix  = "user:"
)

// CacheStore persists sessions in a cache instance. Each session lives
// under its token with a TTL derived from ExpiresAt, so expired sessions
// vanish by cache expiry without a reaper. A per-user key lists the
// user's live tokens to support DeleteByUserID.
//
// Index maintenance is last-writer-wins: concurrent logins for one user
// may briefly miss a token in the index. Session records themselves are
// unaffected.
type CacheStore struct {
	cache *cachebox.Cache
}

// NewCacheStore creates a session store on top of a cache instance.
// Use a dedicated instance (e.g. a "sessions" cache) so Clear and Keys
// stay scoped to session data.
func NewCacheStore(c *cachebox.Cache) *CacheStore {
	return &CacheStore{cache: c}
}

var _ Store = (*CacheStore)(nil)

// Create persists a new session and registers it in the user index.
func (cs *CacheStore) Create(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return ErrInvalidToken
	}
	if err := cs.put(ctx, s); err != nil {
		return err
	}
	if err := cs.indexAdd(ctx, s); err != nil {
		return err
	}
	s.ClearDirty()
	s.ClearNew()
	return nil
}

// Get retrieves a session by token.
func (cs *CacheStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var s Session
	if err := cs.cache.Fetch(ctx, tokenKeyPrefix+token, &s); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// The backend TTL normally removes expired sessions before they are
	// read; re-check against the wall clock anyway so a session never
	// outlives its ExpiresAt.
	if s.IsExpired() {
		_ = cs.cache.Delete(ctx, tokenKeyPrefix+token)
		return nil, ErrExpired
	}

	return &s, nil
}

// Update saves changes to an existing session. The user index is refreshed
// so sessions authenticated after creation become reachable by user ID.
func (cs *CacheStore) Update(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return ErrInvalidToken
	}
	if err := cs.put(ctx, s); err != nil {
		return err
	}
	if err := cs.indexAdd(ctx, s); err != nil {
		return err
	}
	s.ClearDirty()
	return nil
}

// Touch updates the LastActiveAt timestamp.
func (cs *CacheStore) Touch(ctx context.Context, token string, lastActiveAt time.Time) error {
	s, err := cs.Get(ctx, token)
	if err != nil {
		return err
	}
	s.LastActiveAt = lastActiveAt
	return cs.Update(ctx, s)
}

// Delete removes a session by token and drops it from the user index.
func (cs *CacheStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	s, err := cs.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
			return nil
		}
		return err
	}

	if err := cs.cache.Delete(ctx, tokenKeyPrefix+token); err != nil {
		return err
	}
	return cs.indexRemove(ctx, s)
}

// DeleteByUserID removes all sessions for a user in one atomic delete,
// along with the index itself.
func (cs *CacheStore) DeleteByUserID(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}

	var tokens []string
	err := cs.cache.Fetch(ctx, userKeyPrefix+userID, &tokens)
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, tok := range tokens {
		keys = append(keys, tokenKeyPrefix+tok)
	}
	keys = append(keys, userKeyPrefix+userID)

	// One call so every session of the user disappears together.
	return cs.cache.Delete(ctx, keys...)
}

// put stores the session record under its token with the remaining
// lifetime as TTL. A session whose ExpiresAt is not in the future is
// rejected rather than stored forever.
func (cs *CacheStore) put(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	_, err := cs.cache.Store(ctx, tokenKeyPrefix+s.Token, s, cachebox.WithTTL(ttl))
	return err
}

// indexAdd registers the session token under its user, pruning tokens
// whose sessions already expired. Anonymous sessions are not indexed.
func (cs *CacheStore) indexAdd(ctx context.Context, s *Session) error {
	if !s.IsAuthenticated() {
		return nil
	}
	key := userKeyPrefix + *s.UserID

	var tokens []string
	if err := cs.cache.Fetch(ctx, key, &tokens); err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}

	live := make([]string, 0, len(tokens)+1)
	for _, tok := range tokens {
		if tok == s.Token {
			continue
		}
		ok, err := cs.cache.Has(ctx, tokenKeyPrefix+tok)
		if err != nil {
			return err
		}
		if ok {
			live = append(live, tok)
		}
	}
	live = append(live, s.Token)

	_, err := cs.cache.Store(ctx, key, live, cachebox.WithNoExpiry())
	return err
}

// indexRemove drops the session token from its user index, removing the
// index entirely when it was the last session.
func (cs *CacheStore) indexRemove(ctx context.Context, s *Session) error {
	if !s.IsAuthenticated() {
		return nil
	}
	key := userKeyPrefix + *s.UserID

	var tokens []string
	if err := cs.cache.Fetch(ctx, key, &tokens); err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil
		}
		return err
	}

	tokens = slices.DeleteFunc(tokens, func(tok string) bool { return tok == s.Token })
	if len(tokens) == 0 {
		return cs.cache.Delete(ctx, key)
	}
	_, err := cs.cache.Store(ctx, key, tokens, cachebox.WithNoExpiry())
	return err
}
