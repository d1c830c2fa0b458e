package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/config"
)

const (
	CookieName = "session_id"

	KeyAccountID = "account_id"
	KeyIssuedAt  = "issued_at"
)

// NewSessionStore creates the Redis-backed session store. Sessions live in
// database 1; the cache uses database 0.
func NewSessionStore(cfg config.CacheConfig, ttl time.Duration, secure bool) (*session.Store, error) {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_PORT %q: %w", cfg.Port, err)
	}
	storage := redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: 1,
		Reset:    false,
	})
	return NewStore(storage, ttl, secure), nil
}

// NewStore creates a session store on the given storage. A nil storage
// keeps sessions in memory.
func NewStore(storage fiber.Storage, ttl time.Duration, secure bool) *session.Store {
	return session.New(session.Config{
		Storage:        storage,
		Expiration:     ttl,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: "Lax",
	})
}

// Login binds the session to accountID, issuing a fresh session id.
func Login(store *session.Store, c *fiber.Ctx, accountID uint, issuedAt time.Time) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(KeyAccountID, accountID)
	sess.Set(KeyIssuedAt, issuedAt.UnixMilli())
	return sess.Save()
}

// Logout destroys the current session, if any.
func Logout(store *session.Store, c *fiber.Ctx) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	return sess.Destroy()
}

var ErrNoSession = errors.New("no session")

// Read returns the account bound to the current session and when the
// session was issued.
func Read(store *session.Store, c *fiber.Ctx) (uint, time.Time, error) {
	sess, err := store.Get(c)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to get session: %w", err)
	}
	accountID, ok := sess.Get(KeyAccountID).(uint)
	if !ok || accountID == 0 {
		return 0, time.Time{}, ErrNoSession
	}
	issued, _ := sess.Get(KeyIssuedAt).(int64)
	return accountID, time.UnixMilli(issued), nil
}
