package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"wastemarket/mobile/internal/config"
)

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

type storedCookie struct {
	Name    string     `json:"name"`
	Value   string     `json:"value"`
	Expires *time.Time `json:"expires,omitempty"`
}

// CookieStore keeps the client's credential cookies under a single redis key.
type CookieStore struct {
	client *redis.Client
	key    string
}

func NewCookieStore(client *redis.Client, key string) *CookieStore {
	return &CookieStore{client: client, key: key}
}

func (s *CookieStore) Load(ctx context.Context) ([]*http.Cookie, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeCookies(raw)
}

func (s *CookieStore) Save(ctx context.Context, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return s.Clear(ctx)
	}
	raw, err := encodeCookies(cookies)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, raw, 0).Err()
}

func (s *CookieStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func encodeCookies(cookies []*http.Cookie) ([]byte, error) {
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		sc := storedCookie{Name: c.Name, Value: c.Value}
		if !c.Expires.IsZero() {
			expires := c.Expires.UTC()
			sc.Expires = &expires
		}
		stored = append(stored, sc)
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode cookies: %w", err)
	}
	return raw, nil
}

func decodeCookies(raw []byte) ([]*http.Cookie, error) {
	var stored []storedCookie
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookie := &http.Cookie{Name: c.Name, Value: c.Value}
		if c.Expires != nil {
			cookie.Expires = *c.Expires
		}
		cookies = append(cookies, cookie)
	}
	return cookies, nil
}
