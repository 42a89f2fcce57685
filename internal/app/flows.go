package app

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/session"
	"wastemarket/mobile/internal/validate"
)

const (
	browseLimit          = 100
	allCategories        = "All"
	defaultPaymentMethod = "cash_on_pickup"
	defaultBuyerMessage  = "I'm interested in this item"
	purchasesLimit       = 50
)

// RejectedError is a 2xx response whose body reported success=false.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

func rejected(message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return &RejectedError{Message: message}
}

// ListingForm is the post-an-item form as typed by the user.
type ListingForm struct {
	Name        string `json:"name"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=available pending sold"`
	Price       string `json:"price" validate:"required,price"`
	Location    string `json:"location" validate:"required"`
	Category    string `json:"category" validate:"required"`
	ImageURI    string `json:"imageUri" validate:"required"`
}

// NewListingForm returns the form with the screen's initial values.
func NewListingForm() ListingForm {
	return ListingForm{
		Status:   string(models.ProductAvailable),
		Price:    "0",
		Category: "Furniture",
	}
}

// Browse lists available items for the marketplace feed. The "All"
// category and a blank search apply no filter.
func (a *App) Browse(ctx context.Context, category, search string) (models.ProductsResponse, error) {
	filters := models.ProductFilters{
		Page:   1,
		Limit:  browseLimit,
		Status: models.ProductAvailable,
		Search: strings.TrimSpace(search),
	}
	if category != allCategories {
		filters.Category = category
	}
	return a.Products.GetProducts(ctx, filters)
}

// PostListing validates the form, uploads a local image and creates the
// product. A failed upload falls back to the original URI.
func (a *App) PostListing(ctx context.Context, form ListingForm) (*models.Product, error) {
	if err := validate.Struct(form); err != nil {
		return nil, err
	}

	imageURL := form.ImageURI
	if strings.HasPrefix(imageURL, "file://") {
		uploaded, err := a.Uploads.UploadImage(ctx, imageURL)
		if err != nil {
			a.log.Warn().Err(err).Str("uri", imageURL).Msg("image upload failed, using uri as-is")
		} else {
			imageURL = uploaded
		}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(form.Price))
	if err != nil {
		return nil, err
	}

	resp, err := a.Products.CreateProduct(ctx, models.CreateProductData{
		Name:        form.Name,
		Title:       form.Title,
		Description: form.Description,
		Price:       &price,
		Location:    form.Location,
		Status:      models.ProductStatus(form.Status),
		Category:    form.Category,
		ImageURI:    imageURL,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Product == nil {
		return nil, rejected(resp.Message, "Failed to post product")
	}
	return resp.Product, nil
}

// Buy places a single-item, pay-on-pickup order for the product.
func (a *App) Buy(ctx context.Context, product models.Product) (*models.Order, error) {
	data := models.CreateOrderData{
		ProductID:     product.ID,
		Quantity:      1,
		BuyerMessage:  defaultBuyerMessage,
		PaymentMethod: defaultPaymentMethod,
	}
	if err := validate.Order(data); err != nil {
		return nil, err
	}

	resp, err := a.Orders.CreateOrder(ctx, data)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Order == nil {
		return nil, rejected(resp.Message, "Failed to create order")
	}
	return resp.Order, nil
}

func (a *App) SignIn(ctx context.Context, email, password string) error {
	data := models.LoginData{Email: strings.TrimSpace(email), Password: password}
	if err := validate.Login(data); err != nil {
		return err
	}
	return a.Session.Login(ctx, data)
}

func (a *App) SignUp(ctx context.Context, username, email, password string) error {
	data := models.RegisterData{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := validate.Register(data); err != nil {
		return err
	}
	return a.Session.Register(ctx, data)
}

func (a *App) SignOut(ctx context.Context) {
	a.Session.Logout(ctx)
}

// RefreshProfile re-reads the signed-in user. A failed refresh keeps the
// current user instead of signing them out.
func (a *App) RefreshProfile(ctx context.Context) error {
	return a.Session.CheckAuth(ctx, session.PreserveOnFailure())
}

// Purchases returns the most recent orders the user bought or sold.
func (a *App) Purchases(ctx context.Context) ([]models.Order, error) {
	resp, err := a.Orders.GetOrderHistory(ctx, models.ListParams{Limit: purchasesLimit})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected("", "Failed to load orders")
	}
	return resp.Orders, nil
}
