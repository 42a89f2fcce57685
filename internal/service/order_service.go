package service

import (
	"context"

	"wastemarket/mobile/internal/models"
)

// OrderService never computes a next status itself; the backend decides
// whether a requested transition is allowed.
type OrderService struct {
	api Requester
}

func NewOrderService(api Requester) *OrderService {
	return &OrderService{api: api}
}

func (s *OrderService) CreateOrder(ctx context.Context, data models.CreateOrderData) (models.OrderResponse, error) {
	var resp models.OrderResponse
	err := s.api.Post(ctx, "/orders", data, &resp)
	return resp, err
}

func (s *OrderService) GetOrderHistory(ctx context.Context, params models.ListParams) (models.OrdersResponse, error) {
	var resp models.OrdersResponse
	err := s.api.Get(ctx, "/orders/history", params.Values(), &resp)
	return resp, err
}

func (s *OrderService) GetOrderDetails(ctx context.Context, orderID string) (models.OrderResponse, error) {
	var resp models.OrderResponse
	err := s.api.Get(ctx, resource("orders", orderID), nil, &resp)
	return resp, err
}

// UpdateOrderStatus asks the seller-side transition to status.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, notes string) (models.OrderResponse, error) {
	var resp models.OrderResponse
	body := models.UpdateOrderStatusData{Status: status, Notes: notes}
	err := s.api.Put(ctx, resource("orders", orderID, "status"), body, &resp)
	return resp, err
}

func (s *OrderService) CancelOrder(ctx context.Context, orderID string, reason string) (models.OrderResponse, error) {
	var resp models.OrderResponse
	err := s.api.Put(ctx, resource("orders", orderID, "cancel"), models.CancelOrderData{Reason: reason}, &resp)
	return resp, err
}
