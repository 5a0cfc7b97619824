package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core/order"
)

type OrderResponse struct {
	order.Order
}

func NewOrderResponse(o order.Order) *OrderResponse {
	return &OrderResponse{Order: o}
}

func (rd *OrderResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewOrderListResponse(orders []order.Order) []render.Renderer {
	list := make([]render.Renderer, 0, len(orders))
	for _, o := range orders {
		list = append(list, NewOrderResponse(o))
	}
	return list
}

type CreateOrderRequest struct {
	*order.OrderRequest
}

func (p *CreateOrderRequest) Bind(_ *http.Request) error {
	if p.OrderRequest == nil || len(p.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for _, item := range p.Items {
		if item.ProductID == 0 {
			return errors.New("productId is required")
		}
		if item.Quantity < 1 {
			return errors.New("quantity must be greater than zero")
		}
	}
	return nil
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	status order.Status
}

func (p *UpdateStatusRequest) Bind(_ *http.Request) error {
	status, err := order.ParseStatus(p.Status)
	if err != nil {
		return err
	}
	if status == order.None {
		return errors.New("status is required")
	}
	p.status = status
	return nil
}
