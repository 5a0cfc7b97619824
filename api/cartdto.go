package api

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/core/order"
)

type CartResponse struct {
	cart.Cart
}

func NewCartResponse(c cart.Cart) *CartResponse {
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	return &CartResponse{Cart: c}
}

func (rd *CartResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type CartItemResponse struct {
	cart.Item
}

func (rd *CartItemResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type AddItemRequest struct {
	ProductID uint64 `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

func (p *AddItemRequest) Bind(_ *http.Request) error {
	if p.ProductID == 0 {
		return errors.New("productId is required")
	}
	if p.Quantity < 1 {
		return errors.New("quantity must be greater than zero")
	}
	return nil
}

type UpdateItemRequest struct {
	Quantity *int64 `json:"quantity"`
}

func (p *UpdateItemRequest) Bind(_ *http.Request) error {
	if p.Quantity == nil {
		return errors.New("quantity is required")
	}
	if *p.Quantity < 0 {
		return errors.New("quantity must not be negative")
	}
	return nil
}

type CheckoutRequest struct {
	*order.CheckoutRequest
}

func (p *CheckoutRequest) Bind(_ *http.Request) error {
	if p.CheckoutRequest == nil {
		return errors.New("missing required checkout fields")
	}
	if p.PaymentMethod == "" {
		return errors.New("paymentMethod is required")
	}
	if p.ShippingAddress == "" {
		return errors.New("shippingAddress is required")
	}
	return nil
}
