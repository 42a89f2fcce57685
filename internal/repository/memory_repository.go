package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"wastemarket/mobile/internal/models"
)

// memory keeps every record in process.
type memory struct {
	mu         sync.RWMutex
	users      map[string]models.Account
	emails     map[string]string
	sessions   map[string]models.Session
	products   map[string]models.Product
	orders     map[string]models.Order
	categories []models.Category
}

func newMemory() *memory {
	return &memory{
		users:      make(map[string]models.Account),
		emails:     make(map[string]string),
		sessions:   make(map[string]models.Session),
		products:   make(map[string]models.Product),
		orders:     make(map[string]models.Order),
		categories: append([]models.Category(nil), DefaultCategories...),
	}
}

// NewMemoryStore returns a Store whose repositories share one in-process
// dataset, seeded with DefaultCategories.
func NewMemoryStore() Store {
	m := newMemory()
	return Store{
		Users:      memoryUsers{m},
		Sessions:   memorySessions{m},
		Products:   memoryProducts{m},
		Categories: memoryCategories{m},
		Orders:     memoryOrders{m},
	}
}

type memoryUsers struct{ m *memory }

func (r memoryUsers) Create(_ context.Context, account models.Account) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	email := strings.ToLower(account.Email)
	if _, ok := r.m.emails[email]; ok {
		return ErrEmailTaken
	}
	r.m.users[account.ID] = account
	r.m.emails[email] = account.ID
	return nil
}

func (r memoryUsers) FindByEmail(_ context.Context, email string) (models.Account, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	id, ok := r.m.emails[strings.ToLower(email)]
	if !ok {
		return models.Account{}, ErrUserNotFound
	}
	return r.m.users[id], nil
}

func (r memoryUsers) GetByID(_ context.Context, id string) (models.Account, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	account, ok := r.m.users[id]
	if !ok {
		return models.Account{}, ErrUserNotFound
	}
	return account, nil
}

func (r memoryUsers) Update(_ context.Context, account models.Account) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[account.ID]; !ok {
		return ErrUserNotFound
	}
	r.m.users[account.ID] = account
	return nil
}

type memorySessions struct{ m *memory }

func (r memorySessions) Create(_ context.Context, session models.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.sessions[session.ID] = session
	return nil
}

func (r memorySessions) GetByID(_ context.Context, id string) (models.Session, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	session, ok := r.m.sessions[id]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (r memorySessions) DeleteByID(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.m.sessions, id)
	return nil
}

func (r memorySessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, s := range r.m.sessions {
		if s.Expired(now) {
			delete(r.m.sessions, id)
			n++
		}
	}
	return n, nil
}

type memoryProducts struct{ m *memory }

func (r memoryProducts) Create(_ context.Context, product models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.products[product.ID] = product
	return nil
}

func (r memoryProducts) GetByID(_ context.Context, id string) (models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	product, ok := r.m.products[id]
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	return product, nil
}

func (r memoryProducts) Update(_ context.Context, product models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[product.ID]; !ok {
		return ErrProductNotFound
	}
	r.m.products[product.ID] = product
	return nil
}

func (r memoryProducts) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.m.products, id)
	return nil
}

func (r memoryProducts) List(_ context.Context, q ProductQuery) ([]models.Product, int, error) {
	r.m.mu.RLock()
	matched := make([]models.Product, 0, len(r.m.products))
	for _, p := range r.m.products {
		if matchProduct(p, q) {
			matched = append(matched, p)
		}
	}
	r.m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, q.Offset, q.Limit), len(matched), nil
}

func matchProduct(p models.Product, q ProductQuery) bool {
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if q.SellerID != "" && p.SellerID != q.SellerID {
		return false
	}
	if q.Location != "" && !strings.Contains(strings.ToLower(p.Location), strings.ToLower(q.Location)) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	if q.MinPrice != nil && p.Price.LessThan(*q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && p.Price.GreaterThan(*q.MaxPrice) {
		return false
	}
	return true
}

type memoryCategories struct{ m *memory }

func (r memoryCategories) List(_ context.Context) ([]models.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	counts := make(map[string]int)
	for _, p := range r.m.products {
		if p.Status == models.ProductAvailable {
			counts[p.Category]++
		}
	}
	out := make([]models.Category, len(r.m.categories))
	for i, c := range r.m.categories {
		c.ProductCount = counts[c.Name]
		out[i] = c
	}
	return out, nil
}

func (r memoryCategories) Exists(_ context.Context, name string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, c := range r.m.categories {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

type memoryOrders struct{ m *memory }

func (r memoryOrders) Create(_ context.Context, order models.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.orders[order.ID] = order
	return nil
}

func (r memoryOrders) GetByID(_ context.Context, id string) (models.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	order, ok := r.m.orders[id]
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	return order, nil
}

func (r memoryOrders) Update(_ context.Context, order models.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	r.m.orders[order.ID] = order
	return nil
}

func (r memoryOrders) List(_ context.Context, q OrderQuery) ([]models.Order, int, error) {
	r.m.mu.RLock()
	matched := make([]models.Order, 0)
	for _, o := range r.m.orders {
		if q.UserID != "" && o.BuyerID != q.UserID && o.SellerID != q.UserID {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		matched = append(matched, o)
	}
	r.m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, q.Offset, q.Limit), len(matched), nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
