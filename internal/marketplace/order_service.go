package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wastemarket/mobile/internal/ids"
	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/repository"
	"wastemarket/mobile/internal/validate"
)

const MsgOrderNotFound = "Order not found"

type OrderService struct {
	// mu serialises order transitions with the product status they move.
	mu       sync.Mutex
	orders   repository.Orders
	products repository.Products
	log      zerolog.Logger
	now      func() time.Time
}

func NewOrderService(store repository.Store, log zerolog.Logger) *OrderService {
	return &OrderService{
		orders:   store.Orders,
		products: store.Products,
		log:      log,
		now:      time.Now,
	}
}

// Create places an order for an available product and reserves it.
func (s *OrderService) Create(ctx context.Context, buyer models.Account, data models.CreateOrderData) (models.Order, error) {
	if err := validate.Order(data); err != nil {
		return models.Order{}, invalid(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.products.GetByID(ctx, data.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return models.Order{}, notFound(MsgProductNotFound)
		}
		return models.Order{}, fmt.Errorf("get product: %w", err)
	}
	if product.SellerID == buyer.ID {
		return models.Order{}, badRequest("You cannot order your own product")
	}
	if product.Status != models.ProductAvailable {
		return models.Order{}, badRequest("Product is not available")
	}

	now := s.now().UTC()
	order := models.Order{
		ID:            ids.New(),
		OrderNumber:   ids.OrderNumber(),
		ProductID:     product.ID,
		ProductName:   product.Title,
		ProductImage:  product.ImageURI,
		SellerID:      product.SellerID,
		SellerName:    product.SellerName,
		SellerEmail:   product.SellerEmail,
		BuyerID:       buyer.ID,
		BuyerName:     buyer.Username,
		BuyerEmail:    buyer.Email,
		Quantity:      data.Quantity,
		TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(data.Quantity))),
		Status:        models.OrderPending,
		PaymentMethod: data.PaymentMethod,
		BuyerMessage:  data.BuyerMessage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	reserved := product
	reserved.Status = models.ProductPending
	reserved.UpdatedAt = now
	if err := s.products.Update(ctx, reserved); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return models.Order{}, notFound(MsgProductNotFound)
		}
		return models.Order{}, fmt.Errorf("reserve product: %w", err)
	}
	if err := s.orders.Create(ctx, order); err != nil {
		// Put the product back on the market so a failed order never strands it.
		if rerr := s.products.Update(context.WithoutCancel(ctx), product); rerr != nil {
			s.log.Error().Err(rerr).Str("product_id", product.ID).Msg("release product after failed order")
		}
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.log.Info().Str("order_id", order.ID).Str("product_id", product.ID).Str("buyer_id", buyer.ID).Msg("order created")
	return order, nil
}

// History pages through the orders the user bought or sold.
func (s *OrderService) History(ctx context.Context, user models.Account, p models.ListParams) ([]models.Order, models.Pagination, error) {
	status := models.OrderStatus(p.Status)
	if status != "" && !status.Valid() {
		return nil, models.Pagination{}, badRequest("Invalid status")
	}
	page, limit, offset := paging(p.Page, p.Limit, defaultPageSize)

	orders, total, err := s.orders.List(ctx, repository.OrderQuery{
		UserID: user.ID,
		Status: status,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("list orders: %w", err)
	}
	return orders, models.NewPagination(page, limit, total), nil
}

func (s *OrderService) Details(ctx context.Context, user models.Account, id string) (models.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if order.BuyerID != user.ID && order.SellerID != user.ID {
		return models.Order{}, forbidden("Not authorized to view this order")
	}
	return order, nil
}

// UpdateStatus is the seller's move. Delivering marks the product sold;
// cancelling puts it back on the market.
func (s *OrderService) UpdateStatus(ctx context.Context, seller models.Account, id string, data models.UpdateOrderStatusData) (models.Order, error) {
	if !data.Status.Valid() {
		return models.Order{}, &Error{
			Status:  http.StatusBadRequest,
			Message: "Invalid status",
			Errors:  []models.FieldError{{Field: "status", Message: "Must be one of: pending, shipped, delivered, cancelled"}},
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.get(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if order.SellerID != seller.ID {
		return models.Order{}, forbidden("Not authorized to update this order")
	}
	if order.Status == models.OrderDelivered || order.Status == models.OrderCancelled {
		return models.Order{}, badRequest(fmt.Sprintf("Order is already %s", order.Status))
	}

	order.Status = data.Status
	if data.Notes != "" {
		order.Notes = data.Notes
	}
	return s.transition(ctx, order)
}

// Cancel withdraws a pending order on the buyer's behalf.
func (s *OrderService) Cancel(ctx context.Context, buyer models.Account, id string, reason string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.get(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if order.BuyerID != buyer.ID {
		return models.Order{}, forbidden("Not authorized to cancel this order")
	}
	if order.Status != models.OrderPending {
		return models.Order{}, badRequest("Only pending orders can be cancelled")
	}

	order.Status = models.OrderCancelled
	if reason != "" {
		order.Notes = reason
	}
	return s.transition(ctx, order)
}

func (s *OrderService) transition(ctx context.Context, order models.Order) (models.Order, error) {
	now := s.now().UTC()
	order.UpdatedAt = now
	if err := s.orders.Update(ctx, order); err != nil {
		return models.Order{}, fmt.Errorf("update order: %w", err)
	}

	var productStatus models.ProductStatus
	switch order.Status {
	case models.OrderDelivered:
		productStatus = models.ProductSold
	case models.OrderCancelled:
		productStatus = models.ProductAvailable
	default:
		return order, nil
	}

	product, err := s.products.GetByID(ctx, order.ProductID)
	if errors.Is(err, repository.ErrProductNotFound) {
		s.log.Warn().Str("order_id", order.ID).Str("product_id", order.ProductID).Msg("order product gone")
		return order, nil
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("get product: %w", err)
	}
	product.Status = productStatus
	product.UpdatedAt = now
	if err := s.products.Update(ctx, product); err != nil {
		return models.Order{}, fmt.Errorf("update product: %w", err)
	}

	s.log.Info().Str("order_id", order.ID).Str("status", string(order.Status)).Msg("order status changed")
	return order, nil
}

func (s *OrderService) get(ctx context.Context, id string) (models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return models.Order{}, notFound(MsgOrderNotFound)
		}
		return models.Order{}, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}
