package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wastemarket/mobile/internal/ids"
	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/repository"
	"wastemarket/mobile/internal/validate"
)

const MsgProductNotFound = "Product not found"

type CatalogService struct {
	products   repository.Products
	categories repository.Categories
	log        zerolog.Logger
	now        func() time.Time
}

func NewCatalogService(store repository.Store, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		products:   store.Products,
		categories: store.Categories,
		log:        log,
		now:        time.Now,
	}
}

func (s *CatalogService) ListProducts(ctx context.Context, f models.ProductFilters) ([]models.Product, models.Pagination, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, models.Pagination{}, badRequest("Invalid status")
	}
	page, limit, offset := paging(f.Page, f.Limit, defaultPageSize)

	products, total, err := s.products.List(ctx, repository.ProductQuery{
		Category: f.Category,
		Search:   strings.TrimSpace(f.Search),
		Location: strings.TrimSpace(f.Location),
		Status:   f.Status,
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list products: %w", err)
	}
	return products, models.NewPagination(page, limit, total), nil
}

// MyListings pages through every product the seller has posted,
// whatever its status.
func (s *CatalogService) MyListings(ctx context.Context, seller models.Account, p models.ListParams) ([]models.Product, models.Pagination, error) {
	status := models.ProductStatus(p.Status)
	if status != "" && !status.Valid() {
		return nil, models.Pagination{}, badRequest("Invalid status")
	}
	page, limit, offset := paging(p.Page, p.Limit, defaultPageSize)

	products, total, err := s.products.List(ctx, repository.ProductQuery{
		SellerID: seller.ID,
		Status:   status,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list listings: %w", err)
	}
	return products, models.NewPagination(page, limit, total), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return models.Product{}, notFound(MsgProductNotFound)
		}
		return models.Product{}, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, seller models.Account, data models.CreateProductData) (models.Product, error) {
	if err := validate.Struct(data); err != nil {
		return models.Product{}, invalid(err)
	}
	if err := s.checkCategory(ctx, data.Category); err != nil {
		return models.Product{}, err
	}

	status := data.Status
	if status == "" {
		status = models.ProductAvailable
	}
	sellerName := strings.TrimSpace(data.Name)
	if sellerName == "" {
		sellerName = seller.Username
	}

	now := s.now().UTC()
	product := models.Product{
		ID:          ids.New(),
		Name:        strings.TrimSpace(data.Name),
		Title:       strings.TrimSpace(data.Title),
		Description: strings.TrimSpace(data.Description),
		Price:       *data.Price,
		Status:      status,
		Location:    strings.TrimSpace(data.Location),
		Category:    data.Category,
		ImageURI:    data.ImageURI,
		SellerID:    seller.ID,
		SellerName:  sellerName,
		SellerEmail: seller.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.log.Info().Str("product_id", product.ID).Str("seller_id", seller.ID).Msg("product listed")
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, seller models.Account, id string, data models.UpdateProductData) (models.Product, error) {
	product, err := s.owned(ctx, seller, id, "Not authorized to update this product")
	if err != nil {
		return models.Product{}, err
	}

	var fieldErrs []models.FieldError
	setText := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		if strings.TrimSpace(*v) == "" {
			fieldErrs = append(fieldErrs, models.FieldError{Field: field, Message: "Required"})
			return
		}
		*dst = strings.TrimSpace(*v)
	}
	setText("title", &product.Title, data.Title)
	setText("description", &product.Description, data.Description)
	setText("location", &product.Location, data.Location)
	if data.Name != nil {
		product.Name = strings.TrimSpace(*data.Name)
		if product.Name != "" {
			product.SellerName = product.Name
		}
	}
	if data.ImageURI != nil {
		product.ImageURI = *data.ImageURI
	}
	if data.Price != nil {
		if data.Price.IsNegative() {
			fieldErrs = append(fieldErrs, models.FieldError{Field: "price", Message: "Must be 0 or positive"})
		} else {
			product.Price = *data.Price
		}
	}
	if data.Status != nil {
		if !data.Status.Valid() {
			fieldErrs = append(fieldErrs, models.FieldError{Field: "status", Message: "Must be one of: available, pending, sold"})
		} else {
			product.Status = *data.Status
		}
	}
	if len(fieldErrs) > 0 {
		return models.Product{}, &Error{Status: http.StatusBadRequest, Message: validate.MsgValidationFailed, Errors: fieldErrs}
	}
	if data.Category != nil {
		if err := s.checkCategory(ctx, *data.Category); err != nil {
			return models.Product{}, err
		}
		product.Category = *data.Category
	}

	product.UpdatedAt = s.now().UTC()
	if err := s.products.Update(ctx, product); err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, seller models.Account, id string) error {
	if _, err := s.owned(ctx, seller, id, "Not authorized to delete this product"); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.log.Info().Str("product_id", id).Str("seller_id", seller.ID).Msg("product deleted")
	return nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) owned(ctx context.Context, seller models.Account, id string, denied string) (models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if product.SellerID != seller.ID {
		return models.Product{}, forbidden(denied)
	}
	return product, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, name string) error {
	ok, err := s.categories.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return &Error{
			Status:  http.StatusBadRequest,
			Message: validate.MsgValidationFailed,
			Errors:  []models.FieldError{{Field: "category", Message: "Unknown category"}},
		}
	}
	return nil
}
