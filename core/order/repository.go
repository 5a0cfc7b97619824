package order

import (
	"context"

	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/core/inventory"
)

type Repository interface {
	core.Transactional

	GetOrder(ctx context.Context, id uint64, options ...core.QueryOptions) (Order, error)
	GetOrders(ctx context.Context, listOptions ListOptions, limit, offset int, options ...core.QueryOptions) ([]Order, error)

	SaveOrder(ctx context.Context, order *Order, options ...core.UpdateOptions) error
	UpdateOrderStatus(ctx context.Context, id uint64, status Status, options ...core.UpdateOptions) error
}

// CartRepository is the part of the cart store checkout needs. It must share
// transactions with Repository.
type CartRepository interface {
	GetCart(ctx context.Context, cartID uint64, options ...core.QueryOptions) (cart.Cart, error)
	GetItems(ctx context.Context, cartID uint64, options ...core.QueryOptions) ([]cart.Item, error)
	DeleteItems(ctx context.Context, cartID uint64, options ...core.UpdateOptions) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id uint64, options ...core.QueryOptions) (inventory.Product, error)
}

type Queue interface {
	PublishOrder(ctx context.Context, order Order) error
}
