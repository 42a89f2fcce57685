package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend speaks plain JSON numbers for money.
	decimal.MarshalJSONWithoutQuotes = true
}

type ProductStatus string

const (
	ProductAvailable ProductStatus = "available"
	ProductPending   ProductStatus = "pending"
	ProductSold      ProductStatus = "sold"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductAvailable, ProductPending, ProductSold:
		return true
	}
	return false
}

type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Status      ProductStatus   `json:"status"`
	Location    string          `json:"location"`
	Category    string          `json:"category"`
	ImageURI    string          `json:"imageUri"`
	SellerID    string          `json:"sellerId"`
	SellerName  string          `json:"sellerName,omitempty"`
	SellerEmail string          `json:"sellerEmail,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// IsFree reports whether the listing is a giveaway.
func (p Product) IsFree() bool {
	return p.Price.IsZero()
}

type CreateProductData struct {
	Name        string           `json:"name,omitempty"`
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description" validate:"required"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"required,price"`
	Location    string           `json:"location" validate:"required"`
	Status      ProductStatus    `json:"status,omitempty" validate:"omitempty,oneof=available pending sold"`
	Category    string           `json:"category" validate:"required"`
	ImageURI    string           `json:"imageUri"`
}

// UpdateProductData is a partial update; nil fields are left untouched.
type UpdateProductData struct {
	Name        *string          `json:"name,omitempty"`
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Location    *string          `json:"location,omitempty"`
	Status      *ProductStatus   `json:"status,omitempty"`
	Category    *string          `json:"category,omitempty"`
	ImageURI    *string          `json:"imageUri,omitempty"`
}

type Category struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	ProductCount int    `json:"productCount"`
}
