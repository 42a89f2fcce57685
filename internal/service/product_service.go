package service

import (
	"context"

	"wastemarket/mobile/internal/models"
)

type ProductService struct {
	api Requester
}

func NewProductService(api Requester) *ProductService {
	return &ProductService{api: api}
}

// GetProducts forwards the filters verbatim as query parameters.
func (s *ProductService) GetProducts(ctx context.Context, filters models.ProductFilters) (models.ProductsResponse, error) {
	var resp models.ProductsResponse
	err := s.api.Get(ctx, "/products", filters.Values(), &resp)
	return resp, err
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (models.ProductResponse, error) {
	var resp models.ProductResponse
	err := s.api.Get(ctx, resource("products", id), nil, &resp)
	return resp, err
}

func (s *ProductService) CreateProduct(ctx context.Context, data models.CreateProductData) (models.ProductResponse, error) {
	var resp models.ProductResponse
	err := s.api.Post(ctx, "/products", data, &resp)
	return resp, err
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, data models.UpdateProductData) (models.ProductResponse, error) {
	var resp models.ProductResponse
	err := s.api.Put(ctx, resource("products", id), data, &resp)
	return resp, err
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) (models.MessageResponse, error) {
	var resp models.MessageResponse
	err := s.api.Delete(ctx, resource("products", id), &resp)
	return resp, err
}
