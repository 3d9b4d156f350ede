package middleware

import (
	"context"
	"time"

	"einvoice-console/internal/config"

	"github.com/gofiber/fiber/v2"
)

// CookieStore is the browser cookie jar of one request, seen as a
// session.Store. Writes are visible to later reads in the same request.
type CookieStore struct {
	c       *fiber.Ctx
	cfg     config.CookieConfig
	maxAge  time.Duration
	written map[string]*string
}

// NewCookieStore wraps the cookies of c
func NewCookieStore(c *fiber.Ctx, cfg config.CookieConfig, maxAge time.Duration) *CookieStore {
	return &CookieStore{c: c, cfg: cfg, maxAge: maxAge, written: make(map[string]*string)}
}

func (s *CookieStore) Get(_ context.Context, key string) (string, bool, error) {
	if v, ok := s.written[key]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	v := s.c.Cookies(key)
	return v, v != "", nil
}

func (s *CookieStore) Set(_ context.Context, key, value string) error {
	s.c.Cookie(s.cookie(key, value, int(s.maxAge.Seconds()), time.Time{}))
	s.written[key] = &value
	return nil
}

func (s *CookieStore) Delete(_ context.Context, key string) error {
	if _, ok := s.written[key]; !ok && s.c.Cookies(key) == "" {
		return nil
	}
	s.c.Cookie(s.cookie(key, "", -1, time.Now().Add(-1*time.Hour)))
	s.written[key] = nil
	return nil
}

func (s *CookieStore) cookie(name, value string, maxAge int, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		Secure:   s.cfg.Secure,
		HTTPOnly: true,
		SameSite: s.cfg.SameSite,
		Domain:   s.cfg.Domain,
	}
}
