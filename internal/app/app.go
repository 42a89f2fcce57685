// Package app wires the client stack together and exposes the
// screen-level flows of the marketplace.
package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wastemarket/mobile/internal/cache"
	"wastemarket/mobile/internal/config"
	"wastemarket/mobile/internal/jar"
	"wastemarket/mobile/internal/service"
	"wastemarket/mobile/internal/session"
	"wastemarket/mobile/internal/transport"
)

// UserAgent identifies this client in the backend's session records.
const UserAgent = "wastemarket-mobile/1.0"

type App struct {
	Auth       *service.AuthService
	Products   *service.ProductService
	Categories *service.CategoryService
	Orders     *service.OrderService
	Uploads    *service.UploadService
	Session    *session.Manager

	cfg    *config.AppConfig
	client *transport.Client
	jar    *jar.Jar
	redis  *redis.Client
	log    zerolog.Logger
}

type Option func(*options)

type options struct {
	store        jar.Store
	roundTripper http.RoundTripper
}

// WithCookieStore overrides the store selected by session.store.
func WithCookieStore(store jar.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.roundTripper = rt
	}
}

func New(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, log: logger}

	var cookies http.CookieJar
	if cfg.API.WithCredentials {
		origin, err := url.Parse(cfg.API.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		store := o.store
		if store == nil {
			if store, err = a.cookieStore(ctx); err != nil {
				return nil, err
			}
		}
		if a.jar, err = jar.New(origin, store, logger); err != nil {
			a.Close()
			return nil, err
		}
		cookies = a.jar
	}

	client, err := transport.New(transport.Options{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		WithCredentials: cfg.API.WithCredentials,
		Jar:             cookies,
		RoundTripper:    o.roundTripper,
		Interceptors:    []transport.RequestInterceptor{identify},
		Logger:          logger,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init transport: %w", err)
	}
	a.client = client

	a.Auth = service.NewAuthService(client)
	a.Products = service.NewProductService(client)
	a.Categories = service.NewCategoryService(client)
	a.Orders = service.NewOrderService(client)
	a.Uploads = service.NewUploadService(client)
	a.Session = session.NewManager(a.Auth, logger, session.OnLogout(a.forgetCookies))

	return a, nil
}

func (a *App) cookieStore(ctx context.Context) (jar.Store, error) {
	switch a.cfg.Session.Store {
	case "", "memory":
		return jar.NewMemoryStore(), nil
	case "redis":
		client, err := cache.NewRedisClient(ctx, a.cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = client
		return cache.NewCookieStore(client, a.cfg.Session.Key), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", a.cfg.Session.Store)
	}
}

// Start restores persisted credentials and resolves the initial session
// state. An unauthenticated check is not an error.
func (a *App) Start(ctx context.Context) error {
	if a.jar != nil {
		if err := a.jar.Restore(ctx); err != nil {
			return err
		}
	}

	var opts []session.CheckOption
	if a.cfg.Session.PreserveOnFailure {
		opts = append(opts, session.PreserveOnFailure())
	}
	if err := a.Session.CheckAuth(ctx, opts...); err != nil {
		a.log.Debug().Err(err).Msg("starting anonymous")
	}
	return nil
}

func identify(req *http.Request) error {
	req.Header.Set("User-Agent", UserAgent)
	return nil
}

func (a *App) forgetCookies(ctx context.Context) {
	if a.jar == nil {
		return
	}
	if err := a.jar.Clear(ctx); err != nil {
		a.log.Error().Err(err).Msg("clear cookies failed")
	}
}

func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
