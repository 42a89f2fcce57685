// Package repository persists marketplace records. Memory backs tests
// and local runs; the pgx implementations back a real deployment.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"wastemarket/mobile/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrSessionNotFound  = errors.New("session not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrOrderNotFound    = errors.New("order not found")
)

type Users interface {
	Create(ctx context.Context, account models.Account) error
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	GetByID(ctx context.Context, id string) (models.Account, error)
	Update(ctx context.Context, account models.Account) error
}

type Sessions interface {
	Create(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ProductQuery filters a product listing. Zero values match everything.
type ProductQuery struct {
	Category string
	Search   string
	Location string
	Status   models.ProductStatus
	SellerID string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Offset   int
	Limit    int
}

type Products interface {
	Create(ctx context.Context, product models.Product) error
	GetByID(ctx context.Context, id string) (models.Product, error)
	Update(ctx context.Context, product models.Product) error
	Delete(ctx context.Context, id string) error
	// List returns one page, newest first, and the total match count.
	List(ctx context.Context, q ProductQuery) ([]models.Product, int, error)
}

type Categories interface {
	// List returns every category with the number of available products.
	List(ctx context.Context) ([]models.Category, error)
	Exists(ctx context.Context, name string) (bool, error)
}

type OrderQuery struct {
	// UserID matches orders where the user is the buyer or the seller.
	UserID string
	Status models.OrderStatus
	Offset int
	Limit  int
}

type Orders interface {
	Create(ctx context.Context, order models.Order) error
	GetByID(ctx context.Context, id string) (models.Order, error)
	Update(ctx context.Context, order models.Order) error
	List(ctx context.Context, q OrderQuery) ([]models.Order, int, error)
}

// Store groups the repositories one backend instance runs on.
type Store struct {
	Users      Users
	Sessions   Sessions
	Products   Products
	Categories Categories
	Orders     Orders
}

// NewPostgresStore returns a Store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return Store{
		Users:      NewUserRepository(pool),
		Sessions:   NewSessionRepository(pool),
		Products:   NewProductRepository(pool),
		Categories: NewCategoryRepository(pool),
		Orders:     NewOrderRepository(pool),
	}
}

// DefaultCategories is the catalogue every new store starts with.
var DefaultCategories = []models.Category{
	{ID: "furniture", Name: "Furniture", Icon: "bed-outline"},
	{ID: "electronics", Name: "Electronics", Icon: "tv-outline"},
	{ID: "clothing", Name: "Clothing", Icon: "shirt-outline"},
	{ID: "books", Name: "Books", Icon: "book-outline"},
	{ID: "home-decor", Name: "Home Decor", Icon: "home-outline"},
	{ID: "toys", Name: "Toys", Icon: "game-controller-outline"},
	{ID: "appliances", Name: "Appliances", Icon: "calculator-outline"},
}
