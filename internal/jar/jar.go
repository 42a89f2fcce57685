// Package jar keeps the backend's session cookie across process restarts.
package jar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

const saveTimeout = 5 * time.Second

// Store persists the cookies the backend set for the API origin.
type Store interface {
	Load(ctx context.Context) ([]*http.Cookie, error)
	Save(ctx context.Context, cookies []*http.Cookie) error
	Clear(ctx context.Context) error
}

// Jar is an http.CookieJar that mirrors the API origin's cookies into a Store.
type Jar struct {
	mu     sync.Mutex
	inner  *cookiejar.Jar
	origin *url.URL
	store  Store
	log    zerolog.Logger
	now    func() time.Time

	// expires holds the absolute expiry of persistent origin cookies by name.
	// cookiejar never reports it back, so it is tracked here for the store.
	expires map[string]time.Time
}

func New(origin *url.URL, store Store, log zerolog.Logger) (*Jar, error) {
	inner, err := newInner()
	if err != nil {
		return nil, err
	}
	return &Jar{
		inner:  inner,
		origin: origin,
		store:   store,
		log:     log,
		now:     time.Now,
		expires: make(map[string]time.Time),
	}, nil
}

func newInner() (*cookiejar.Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return inner, nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	j.inner.SetCookies(u, cookies)
	if u.Host == j.origin.Host {
		j.trackExpiry(cookies)
	}
	snapshot := j.inner.Cookies(j.origin)
	for _, c := range snapshot {
		c.Expires = j.expires[c.Name]
	}
	j.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := j.store.Save(ctx, snapshot); err != nil {
		j.log.Error().Err(err).Msg("persist cookies failed")
	}
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

func (j *Jar) trackExpiry(cookies []*http.Cookie) {
	now := j.now()
	for _, c := range cookies {
		switch {
		case c.MaxAge > 0:
			j.expires[c.Name] = now.Add(time.Duration(c.MaxAge) * time.Second)
		case c.MaxAge < 0:
			delete(j.expires, c.Name)
		case !c.Expires.IsZero():
			j.expires[c.Name] = c.Expires
		default:
			delete(j.expires, c.Name)
		}
	}
}

// Restore loads previously persisted cookies into the jar. Cookies whose
// stored expiry has passed are skipped.
func (j *Jar) Restore(ctx context.Context) error {
	stored, err := j.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}

	now := j.now()
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		if !c.Expires.IsZero() && !c.Expires.After(now) {
			continue
		}
		c.Path = "/"
		c.Secure = j.origin.Scheme == "https"
		cookies = append(cookies, c)
	}

	j.mu.Lock()
	j.inner.SetCookies(j.origin, cookies)
	for _, c := range cookies {
		if !c.Expires.IsZero() {
			j.expires[c.Name] = c.Expires
		}
	}
	j.mu.Unlock()

	j.log.Debug().Int("count", len(cookies)).Int("expired", len(stored)-len(cookies)).Msg("cookies restored")
	return nil
}

// Clear drops every cookie from memory and from the store.
func (j *Jar) Clear(ctx context.Context) error {
	inner, err := newInner()
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.inner = inner
	j.expires = make(map[string]time.Time)
	j.mu.Unlock()

	if err := j.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

type MemoryStore struct {
	mu      sync.Mutex
	cookies []*http.Cookie
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCookies(s.cookies), nil
}

func (s *MemoryStore) Save(_ context.Context, cookies []*http.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = cloneCookies(cookies)
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = nil
	return nil
}

func cloneCookies(in []*http.Cookie) []*http.Cookie {
	if len(in) == 0 {
		return nil
	}
	out := make([]*http.Cookie, 0, len(in))
	for _, c := range in {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Expires: c.Expires})
	}
	return out
}
