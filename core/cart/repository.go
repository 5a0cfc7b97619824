package cart

import (
	"context"

	"github.com/sksmith/go-commerce/core"
)

type Repository interface {
	core.Transactional

	GetCart(ctx context.Context, cartID uint64, options ...core.QueryOptions) (Cart, error)
	GetCartByUser(ctx context.Context, username string, options ...core.QueryOptions) (Cart, error)
	GetItems(ctx context.Context, cartID uint64, options ...core.QueryOptions) ([]Item, error)
	GetItem(ctx context.Context, cartID, productID uint64, options ...core.QueryOptions) (Item, error)

	SaveCart(ctx context.Context, cart *Cart, options ...core.UpdateOptions) error
	SaveItem(ctx context.Context, item *Item, options ...core.UpdateOptions) error
	DeleteItem(ctx context.Context, cartID, productID uint64, options ...core.UpdateOptions) error
	DeleteItems(ctx context.Context, cartID uint64, options ...core.UpdateOptions) error
}
