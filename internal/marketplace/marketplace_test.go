package marketplace

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastemarket/mobile/internal/config"
	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/repository"
	"wastemarket/mobile/internal/security"
	"wastemarket/mobile/internal/storage"
)

var fastParams = security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type fixture struct {
	store   repository.Store
	auth    *AuthService
	catalog *CatalogService
	orders  *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	auth := NewAuthService(store, config.SecurityConfig{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
	}, zerolog.Nop())
	auth.hash = func(pw string) ([]byte, error) {
		return security.HashPasswordWithParams(pw, fastParams)
	}
	return &fixture{
		store:   store,
		auth:    auth,
		catalog: NewCatalogService(store, zerolog.Nop()),
		orders:  NewOrderService(store, zerolog.Nop()),
	}
}

func (f *fixture) account(t *testing.T, name string) models.Account {
	t.Helper()
	res, err := f.auth.Register(context.Background(), models.RegisterData{
		Username: name,
		Email:    name + "@example.com",
		Password: "secret1",
	}, ClientInfo{})
	require.NoError(t, err)
	account, err := f.auth.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	return account
}

func (f *fixture) listing(t *testing.T, seller models.Account, price string) models.Product {
	t.Helper()
	p := decimal.RequireFromString(price)
	product, err := f.catalog.CreateProduct(context.Background(), seller, models.CreateProductData{
		Title:       "Oak table",
		Description: "Solid",
		Price:       &p,
		Location:    "Leeds",
		Category:    "Furniture",
	})
	require.NoError(t, err)
	return product
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	apiErr, ok := AsError(err)
	require.True(t, ok, "expected *Error, got %v", err)
	return apiErr.Status
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Register(ctx, models.RegisterData{Username: " ann ", Email: "Ann@Example.com", Password: "secret1"}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, "ann", res.User.Username)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.NotEmpty(t, res.Token)

	_, err = f.auth.Register(ctx, models.RegisterData{Username: "ann2", Email: "ann@example.com", Password: "secret1"}, ClientInfo{})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.EqualError(t, err, MsgUserExists)

	login, err := f.auth.Login(ctx, models.LoginData{Email: "ANN@example.com", Password: "secret1"}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = f.auth.Login(ctx, models.LoginData{Email: "ann@example.com", Password: "wrong"}, ClientInfo{})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	assert.EqualError(t, err, MsgInvalidCredentials)

	_, err = f.auth.Login(ctx, models.LoginData{Email: "nobody@example.com", Password: "secret1"}, ClientInfo{})
	assert.EqualError(t, err, MsgInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Register(context.Background(), models.RegisterData{Username: "a", Email: "a@b.co", Password: "123"}, ClientInfo{})
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Password must be at least 6 characters long!", apiErr.Message)
}

func TestLogoutEndsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.account(t, "ann")

	res, err := f.auth.Login(ctx, models.LoginData{Email: "ann@example.com", Password: "secret1"}, ClientInfo{})
	require.NoError(t, err)
	require.NoError(t, f.auth.Logout(ctx, res.Token))

	_, err = f.auth.Authenticate(ctx, res.Token)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	assert.NoError(t, f.auth.Logout(ctx, "garbage"))
	assert.NoError(t, f.auth.Logout(ctx, ""))
}

func TestAuthenticateExpiredSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.account(t, "ann")
	res, err := f.auth.Login(ctx, models.LoginData{Email: "ann@example.com", Password: "secret1"}, ClientInfo{})
	require.NoError(t, err)

	f.auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = f.auth.Authenticate(ctx, res.Token)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.account(t, "ann")

	err := f.auth.ChangePassword(ctx, ann, models.ChangePasswordData{CurrentPassword: "nope", NewPassword: "secret2"})
	assert.EqualError(t, err, "Current password is incorrect")

	require.NoError(t, f.auth.ChangePassword(ctx, ann, models.ChangePasswordData{CurrentPassword: "secret1", NewPassword: "secret2"}))
	_, err = f.auth.Login(ctx, models.LoginData{Email: "ann@example.com", Password: "secret2"}, ClientInfo{})
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ann := f.account(t, "ann")
	name := "annie"
	user, err := f.auth.UpdateProfile(context.Background(), ann, models.UpdateProfileData{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "annie", user.Username)

	blank := " "
	_, err = f.auth.UpdateProfile(context.Background(), ann, models.UpdateProfileData{Username: &blank})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ann := f.account(t, "ann")

	product := f.listing(t, ann, "0")
	assert.True(t, product.IsFree())
	assert.Equal(t, models.ProductAvailable, product.Status)
	assert.Equal(t, "ann", product.SellerName)
	assert.Equal(t, ann.ID, product.SellerID)

	bad := decimal.NewFromInt(5)
	_, err := f.catalog.CreateProduct(context.Background(), ann, models.CreateProductData{
		Title: "x", Description: "y", Price: &bad, Location: "z", Category: "Spaceships",
	})
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, []models.FieldError{{Field: "category", Message: "Unknown category"}}, apiErr.Errors)
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.account(t, "ann")
	bob := f.account(t, "bob")

	first := f.listing(t, ann, "10")
	f.listing(t, ann, "20")
	_, err := f.orders.Create(ctx, bob, models.CreateOrderData{ProductID: first.ID, Quantity: 1, PaymentMethod: "cash_on_pickup"})
	require.NoError(t, err)

	products, page, err := f.catalog.ListProducts(ctx, models.ProductFilters{Status: models.ProductAvailable})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "20", products[0].Price.String())
	assert.Equal(t, models.Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: 1, ItemsPerPage: 20}, page)

	products, _, err = f.catalog.ListProducts(ctx, models.ProductFilters{Search: "nothing matches", Limit: 500})
	require.NoError(t, err)
	assert.Empty(t, products)

	_, _, err = f.catalog.ListProducts(ctx, models.ProductFilters{Status: "gone"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	listings, _, err := f.catalog.MyListings(ctx, ann, models.ListParams{})
	require.NoError(t, err)
	assert.Len(t, listings, 2)
}

func TestPagingClampsHugePage(t *testing.T) {
	tests := []struct {
		name                string
		page, limit         int
		wantPage, wantLimit int
	}{
		{"defaults", 0, 0, 1, defaultPageSize},
		{"limit capped", 2, 500, 2, maxPageSize},
		{"huge page", math.MaxInt, 100, math.MaxInt32 / 100, 100},
		{"huge page small limit", math.MaxInt, 1, math.MaxInt32, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page, limit, offset := paging(tc.page, tc.limit, defaultPageSize)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantLimit, limit)
			assert.GreaterOrEqual(t, offset, 0)
			assert.Equal(t, (page-1)*limit, offset)
		})
	}
}

func TestListProductsHugePageIsEmpty(t *testing.T) {
	f := newFixture(t)
	ann := f.account(t, "ann")
	f.listing(t, ann, "10")

	products, page, err := f.catalog.ListProducts(context.Background(), models.ProductFilters{Page: math.MaxInt, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, 1, page.TotalItems)
}

func TestUpdateAndDeleteProductOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.account(t, "ann")
	bob := f.account(t, "bob")
	product := f.listing(t, ann, "10")

	title := "Pine table"
	_, err := f.catalog.UpdateProduct(ctx, bob, product.ID, models.UpdateProductData{Title: &title})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	updated, err := f.catalog.UpdateProduct(ctx, ann, product.ID, models.UpdateProductData{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Pine table", updated.Title)
	assert.Equal(t, "Solid", updated.Description)

	negative := decimal.NewFromInt(-1)
	_, err = f.catalog.UpdateProduct(ctx, ann, product.ID, models.UpdateProductData{Price: &negative})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	assert.Equal(t, http.StatusForbidden, statusOf(t, f.catalog.DeleteProduct(ctx, bob, product.ID)))
	require.NoError(t, f.catalog.DeleteProduct(ctx, ann, product.ID))

	_, err = f.catalog.GetProduct(ctx, product.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestCategoriesCountAvailable(t *testing.T) {
	f := newFixture(t)
	ann := f.account(t, "ann")
	f.listing(t, ann, "1")

	categories, err := f.catalog.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, len(repository.DefaultCategories))
	assert.Equal(t, "Furniture", categories[0].Name)
	assert.Equal(t, 1, categories[0].ProductCount)
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.account(t, "ann")
	bob := f.account(t, "bob")
	product := f.listing(t, ann, "12.50")

	_, err := f.orders.Create(ctx, ann, models.CreateOrderData{ProductID: product.ID, Quantity: 1, PaymentMethod: "cash_on_pickup"})
	assert.EqualError(t, err, "You cannot order your own product")

	order, err := f.orders.Create(ctx, bob, models.CreateOrderData{ProductID: product.ID, Quantity: 2, PaymentMethod: "cash_on_pickup", BuyerMessage: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "25", order.TotalAmount.String())
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Regexp(t, `^ORD-[0-9A-Z]+$`, order.OrderNumber)

	reserved, err := f.catalog.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductPending, reserved.Status)

	_, err = f.orders.Create(ctx, f.account(t, "cat"), models.CreateOrderData{ProductID: product.ID, Quantity: 1, PaymentMethod: "cash_on_pickup"})
	assert.EqualError(t, err, "Product is not available")

	_, err = f.orders.UpdateStatus(ctx, bob, order.ID, models.UpdateOrderStatusData{Status: models.OrderShipped})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.orders.UpdateStatus(ctx, ann, order.ID, models.UpdateOrderStatusData{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	shipped, err := f.orders.UpdateStatus(ctx, ann, order.ID, models.UpdateOrderStatusData{Status: models.OrderShipped, Notes: "on the way"})
	require.NoError(t, err)
	assert.Equal(t, "on the way", shipped.Notes)

	_, err = f.orders.Cancel(ctx, bob, order.ID, "")
	assert.EqualError(t, err, "Only pending orders can be cancelled")

	_, err = f.orders.UpdateStatus(ctx, ann, order.ID, models.UpdateOrderStatusData{Status: models.OrderDelivered})
	require.NoError(t, err)
	sold, err := f.catalog.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductSold, sold.Status)

	_, err = f.orders.UpdateStatus(ctx, ann, order.ID, models.UpdateOrderStatusData{Status: models.OrderCancelled})
	assert.EqualError(t, err, "Order is already delivered")

	history, _, err := f.orders.History(ctx, bob, models.ListParams{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OrderDelivered, history[0].Status)
}

func TestCancelRelistsProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.account(t, "ann")
	bob := f.account(t, "bob")
	product := f.listing(t, ann, "3")

	order, err := f.orders.Create(ctx, bob, models.CreateOrderData{ProductID: product.ID, Quantity: 1, PaymentMethod: "cash_on_pickup"})
	require.NoError(t, err)

	_, err = f.orders.Cancel(ctx, ann, order.ID, "")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	cancelled, err := f.orders.Cancel(ctx, bob, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.Notes)

	relisted, err := f.catalog.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductAvailable, relisted.Status)
}

type failingOrders struct {
	repository.Orders
}

func (failingOrders) Create(context.Context, models.Order) error {
	return errors.New("orders table unavailable")
}

func TestFailedOrderLeavesProductAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.account(t, "ann")
	bob := f.account(t, "bob")
	product := f.listing(t, ann, "3")
	f.orders.orders = failingOrders{Orders: f.store.Orders}

	_, err := f.orders.Create(ctx, bob, models.CreateOrderData{ProductID: product.ID, Quantity: 1, PaymentMethod: "cash_on_pickup"})
	require.Error(t, err)

	after, err := f.catalog.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductAvailable, after.Status)

	orders, _, err := f.orders.History(ctx, bob, models.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderDetailsParticipantsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.account(t, "ann")
	bob := f.account(t, "bob")
	product := f.listing(t, ann, "3")
	order, err := f.orders.Create(ctx, bob, models.CreateOrderData{ProductID: product.ID, Quantity: 1, PaymentMethod: "cash_on_pickup"})
	require.NoError(t, err)

	for _, who := range []models.Account{ann, bob} {
		got, err := f.orders.Details(ctx, who, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
	}

	_, err = f.orders.Details(ctx, f.account(t, "cat"), order.ID)
	assert.EqualError(t, err, "Not authorized to view this order")

	_, err = f.orders.Details(ctx, ann, "missing")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

var pngHead = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func header(contentType string) textproto.MIMEHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	return h
}

func TestUpload(t *testing.T) {
	store := storage.NewMemoryStore("https://cdn.example.com")
	svc := NewUploadService(store, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	res, err := svc.Upload(ctx, UploadInput{File: bytes.NewReader(pngHead), Header: header("image/png")})
	require.NoError(t, err)
	assert.Regexp(t, `^2024/03/09/[0-9A-Za-z]+\.png$`, res.Key)
	assert.Equal(t, "https://cdn.example.com/"+res.Key, res.URL)
	assert.Equal(t, "image/png", res.ContentType)

	obj, err := svc.Open(ctx, res.Key)
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, pngHead, data)

	_, err = svc.Open(ctx, "2024/01/01/missing.png")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestUploadRejects(t *testing.T) {
	svc := NewUploadService(storage.NewMemoryStore(""), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadInput{File: bytes.NewReader([]byte("hello")), Header: header("text/plain")})
	assert.EqualError(t, err, "Only image files are allowed")

	_, err = svc.Upload(ctx, UploadInput{File: bytes.NewReader(pngHead), Header: header("image/jpeg")})
	assert.EqualError(t, err, "Content type mismatch: declared image/jpeg, actual image/png")

	svc.maxBytes = 32
	big := append(append([]byte{}, pngHead...), make([]byte, 64)...)
	_, err = svc.Upload(ctx, UploadInput{File: bytes.NewReader(big), Header: header("image/png")})
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusOf(t, err))
}

func TestUploadSanitizesSVG(t *testing.T) {
	store := storage.NewMemoryStore("")
	svc := NewUploadService(store, zerolog.Nop())
	ctx := context.Background()

	doc := `<svg xmlns="http://www.w3.org/2000/svg" onload="alert(1)"><script>alert(2)</script><rect/></svg>`
	res, err := svc.Upload(ctx, UploadInput{File: bytes.NewReader([]byte(doc)), Header: header("image/svg+xml")})
	require.NoError(t, err)
	assert.Empty(t, res.URL)

	obj, err := store.Get(ctx, res.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "script")
	assert.NotContains(t, string(data), "onload")
	assert.Contains(t, string(data), "<rect/>")
}
