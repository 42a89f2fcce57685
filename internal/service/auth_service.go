package service

import (
	"context"

	"wastemarket/mobile/internal/models"
)

type AuthService struct {
	api Requester
}

func NewAuthService(api Requester) *AuthService {
	return &AuthService{api: api}
}

func (s *AuthService) Register(ctx context.Context, data models.RegisterData) (models.AuthResponse, error) {
	var resp models.AuthResponse
	err := s.api.Post(ctx, "/auth/register", data, &resp)
	return resp, err
}

func (s *AuthService) Login(ctx context.Context, data models.LoginData) (models.AuthResponse, error) {
	var resp models.AuthResponse
	err := s.api.Post(ctx, "/auth/login", data, &resp)
	return resp, err
}

func (s *AuthService) Logout(ctx context.Context) (models.MessageResponse, error) {
	var resp models.MessageResponse
	err := s.api.Post(ctx, "/auth/logout", nil, &resp)
	return resp, err
}

// GetProfile doubles as the session check: it only succeeds while the
// session cookie is valid.
func (s *AuthService) GetProfile(ctx context.Context) (models.ProfileResponse, error) {
	var resp models.ProfileResponse
	err := s.api.Get(ctx, "/users/profile", nil, &resp)
	return resp, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, data models.UpdateProfileData) (models.ProfileResponse, error) {
	var resp models.ProfileResponse
	err := s.api.Put(ctx, "/users/profile", data, &resp)
	return resp, err
}

func (s *AuthService) ChangePassword(ctx context.Context, data models.ChangePasswordData) (models.MessageResponse, error) {
	var resp models.MessageResponse
	err := s.api.Put(ctx, "/users/change-password", data, &resp)
	return resp, err
}

func (s *AuthService) GetMyListings(ctx context.Context, params models.ListParams) (models.ListingsResponse, error) {
	var resp models.ListingsResponse
	err := s.api.Get(ctx, "/users/my-listings", params.Values(), &resp)
	return resp, err
}
