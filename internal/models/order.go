package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	ID            string          `json:"_id"`
	OrderNumber   string          `json:"orderNumber"`
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName,omitempty"`
	ProductImage  string          `json:"productImage,omitempty"`
	SellerID      string          `json:"sellerId"`
	SellerName    string          `json:"sellerName,omitempty"`
	SellerEmail   string          `json:"sellerEmail,omitempty"`
	BuyerID       string          `json:"buyerId"`
	BuyerName     string          `json:"buyerName,omitempty"`
	BuyerEmail    string          `json:"buyerEmail,omitempty"`
	Quantity      int             `json:"quantity"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	BuyerMessage  string          `json:"buyerMessage,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type CreateOrderData struct {
	ProductID     string `json:"productId" validate:"required"`
	Quantity      int    `json:"quantity" validate:"min=1"`
	BuyerMessage  string `json:"buyerMessage,omitempty"`
	PaymentMethod string `json:"paymentMethod" validate:"required"`
}

type UpdateOrderStatusData struct {
	Status OrderStatus `json:"status"`
	Notes  string      `json:"notes,omitempty"`
}

type CancelOrderData struct {
	Reason string `json:"reason,omitempty"`
}
