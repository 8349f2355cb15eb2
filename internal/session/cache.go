// Package session owns the identity of the logged-in user: a single
// persisted slot that other components read but never write directly.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-client/internal/domain"
)

// CurrentUserKey is the store key holding the serialized user.
const CurrentUserKey = "user"

const storeTimeout = 10 * time.Second

// Reader is the read side of the cache, all that view components need.
type Reader interface {
	Current() (*domain.User, bool)
}

// Cache persists the current user in a Store. Persistence is best effort:
// storage failures are logged and absorbed, and a missing or corrupt value
// reads as "nobody is logged in".
type Cache struct {
	store Store
	log   zerolog.Logger
}

// NewCache creates a cache over store.
func NewCache(store Store, log zerolog.Logger) *Cache {
	return &Cache{store: store, log: log}
}

func (c *Cache) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

// Init drops a persisted value that can no longer be decoded, so later
// reads start from a clean slot.
func (c *Cache) Init() {
	ctx, cancel := c.ctx()
	defer cancel()

	b, err := c.store.Get(ctx, CurrentUserKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn().Err(err).Msg("Failed to read session")
		}
		return
	}
	if _, ok := decodeUser(b); !ok {
		c.log.Info().Msg("Discarding unreadable session")
		c.UnsetCurrent()
	}
}

// SetCurrent persists user. A nil user clears the slot.
func (c *Cache) SetCurrent(user *domain.User) {
	if user == nil {
		c.UnsetCurrent()
		return
	}
	b, err := json.Marshal(user)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to encode session user")
		return
	}

	ctx, cancel := c.ctx()
	defer cancel()
	if err := c.store.Set(ctx, CurrentUserKey, b); err != nil {
		c.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to persist session")
		return
	}
	c.log.Debug().Str("user_id", user.ID.String()).Msg("Session stored")
}

// UnsetCurrent removes the persisted user.
func (c *Cache) UnsetCurrent() {
	ctx, cancel := c.ctx()
	defer cancel()
	if err := c.store.Remove(ctx, CurrentUserKey); err != nil {
		c.log.Error().Err(err).Msg("Failed to clear session")
		return
	}
	c.log.Debug().Msg("Session cleared")
}

// Clear forgets everything the session persisted: the user and the stored
// service cookies. The service is not contacted.
func (c *Cache) Clear() {
	c.UnsetCurrent()

	ctx, cancel := c.ctx()
	defer cancel()
	if err := c.store.Remove(ctx, CookiesKey); err != nil {
		c.log.Error().Err(err).Msg("Failed to clear stored cookies")
	}
}

// Current returns the persisted user, or false when there is none or it
// cannot be read.
func (c *Cache) Current() (*domain.User, bool) {
	ctx, cancel := c.ctx()
	defer cancel()

	b, err := c.store.Get(ctx, CurrentUserKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warn().Err(err).Msg("Failed to read session")
		}
		return nil, false
	}
	u, ok := decodeUser(b)
	if !ok {
		c.log.Warn().Msg("Session value is not a user")
	}
	return u, ok
}

func decodeUser(b []byte) (*domain.User, bool) {
	var u *domain.User
	if err := json.Unmarshal(b, &u); err != nil || u == nil {
		return nil, false
	}
	return u, true
}
