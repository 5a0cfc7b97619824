// Package order turns carts into orders and drives an order through its lifecycle.
package order

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sksmith/go-commerce/core/inventory"
)

type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Shipped   Status = "shipped"
	Delivered Status = "delivered"
	Cancelled Status = "cancelled"
	Failed    Status = "failed"
	None      Status = ""
)

func ParseStatus(v string) (Status, error) {
	switch Status(v) {
	case Pending, Confirmed, Shipped, Delivered, Cancelled, Failed, None:
		return Status(v), nil
	default:
		return None, errors.New("invalid order status")
	}
}

// fulfilment is the only forward path an order takes once its stock is finalized.
var fulfilment = map[Status]Status{
	Confirmed: Shipped,
	Shipped:   Delivered,
}

func (s Status) CanAdvanceTo(next Status) bool {
	return fulfilment[s] == next && next != None
}

// Item is a value object. A frozen copy of the product as it was when the order was
// placed.
type Item struct {
	ProductID uint64          `json:"productId"`
	Sku       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// Order is an entity.
type Order struct {
	ID              uint64          `json:"id"`
	Number          string          `json:"number"`
	Username        string          `json:"username"`
	Items           []Item          `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	PaymentMethod   string          `json:"paymentMethod"`
	ShippingAddress string          `json:"shippingAddress"`
	Created         time.Time       `json:"created"`
	Updated         time.Time       `json:"updated"`
}

func (o Order) StockRequests() []inventory.StockRequest {
	requests := make([]inventory.StockRequest, len(o.Items))
	for i, item := range o.Items {
		requests[i] = inventory.StockRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return requests
}

func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// CheckoutRequest is a value object. The details supplied when a cart is checked out.
type CheckoutRequest struct {
	PaymentMethod   string `json:"paymentMethod"`
	ShippingAddress string `json:"shippingAddress"`
}

// OrderRequest is a value object. An order placed directly from a list of products
// rather than from a cart.
type OrderRequest struct {
	Username        string                   `json:"username"`
	Items           []inventory.StockRequest `json:"items"`
	PaymentMethod   string                   `json:"paymentMethod"`
	ShippingAddress string                   `json:"shippingAddress"`
}

type ListOptions struct {
	Username string
	Status   Status
}
