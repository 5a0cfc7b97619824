// Package cart holds shopping carts. Every unit sitting in a cart is reserved in the
// inventory ledger for as long as it stays there.
package cart

import (
	"time"

	"github.com/sksmith/go-commerce/core/inventory"
)

// Cart is an entity owned by a single user.
type Cart struct {
	ID       uint64    `json:"id"`
	Username string    `json:"username"`
	Items    []Item    `json:"items"`
	Created  time.Time `json:"created"`
}

// Item is an entity. A line of a cart, unique per product within the cart.
type Item struct {
	ID        uint64    `json:"id"`
	CartID    uint64    `json:"cartId"`
	ProductID uint64    `json:"productId"`
	Quantity  int64     `json:"quantity"`
	Added     time.Time `json:"added"`
}

func (c Cart) StockRequests() []inventory.StockRequest {
	return StockRequests(c.Items)
}

func StockRequests(items []Item) []inventory.StockRequest {
	requests := make([]inventory.StockRequest, len(items))
	for i, item := range items {
		requests[i] = inventory.StockRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return requests
}
