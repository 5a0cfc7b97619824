package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core/inventory"
)

type ProductResponse struct {
	inventory.Product
}

func NewProductResponse(product inventory.Product) *ProductResponse {
	return &ProductResponse{Product: product}
}

func (rd *ProductResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewProductListResponse(products []inventory.Product) []render.Renderer {
	list := make([]render.Renderer, 0, len(products))
	for _, product := range products {
		list = append(list, NewProductResponse(product))
	}
	return list
}

type CreateProductRequest struct {
	*inventory.Product
	Settings inventory.StockSettings `json:"settings"`

	ProtectedID      uint64    `json:"id"`
	ProtectedCreated time.Time `json:"created"`
}

func (p *CreateProductRequest) Bind(_ *http.Request) error {
	if p.Product == nil {
		return errors.New("missing required product fields")
	}
	if err := p.Product.Validate(); err != nil {
		return err
	}
	if p.Settings.ReorderLevel < 0 || p.Settings.ReorderQuantity < 0 {
		return errors.New("reorder settings must not be negative")
	}
	return nil
}

type InventoryResponse struct {
	inventory.InventoryRecord
	LowStock bool `json:"lowStock"`
}

func NewInventoryResponse(record inventory.InventoryRecord) *InventoryResponse {
	return &InventoryResponse{InventoryRecord: record, LowStock: record.NeedsReorder()}
}

func (rd *InventoryResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewInventoryListResponse(records []inventory.InventoryRecord) []render.Renderer {
	list := make([]render.Renderer, 0, len(records))
	for _, record := range records {
		list = append(list, NewInventoryResponse(record))
	}
	return list
}

type RestockRequest struct {
	*inventory.RestockRequest
}

func (p *RestockRequest) Bind(_ *http.Request) error {
	if p.RestockRequest == nil {
		return errors.New("missing required restock fields")
	}
	if p.RequestID == "" {
		return errors.New("requestId is required")
	}
	if p.Quantity < 1 {
		return errors.New("quantity must be greater than zero")
	}
	if p.UnitCost.IsNegative() {
		return errors.New("unitCost must not be negative")
	}
	return nil
}

type MovementResponse struct {
	inventory.Movement
}

func (rd *MovementResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func NewMovementListResponse(movements []inventory.Movement) []render.Renderer {
	list := make([]render.Renderer, 0, len(movements))
	for _, m := range movements {
		list = append(list, &MovementResponse{Movement: m})
	}
	return list
}
