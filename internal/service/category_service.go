package service

import (
	"context"

	"wastemarket/mobile/internal/models"
)

type CategoryService struct {
	api Requester
}

func NewCategoryService(api Requester) *CategoryService {
	return &CategoryService{api: api}
}

func (s *CategoryService) GetCategories(ctx context.Context) (models.CategoriesResponse, error) {
	var resp models.CategoriesResponse
	err := s.api.Get(ctx, "/categories", nil, &resp)
	return resp, err
}
