package cart

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/inventory"
)

var (
	ErrInvalidQuantity  = errors.New("cart: quantity must be greater than zero")
	ErrUsernameRequired = errors.New("cart: username is required")
)

func NewService(repo Repository, ledger inventory.Ledger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

type Service struct {
	repo   Repository
	ledger inventory.Ledger
}

// Create returns the user's cart, creating an empty one if they have none.
func (s *Service) Create(ctx context.Context, username string) (Cart, error) {
	const funcName = "Create"

	if username == "" {
		return Cart{}, ErrUsernameRequired
	}

	c, err := s.repo.GetCartByUser(ctx, username)
	if err == nil {
		return s.withItems(ctx, c)
	}
	if !errors.Is(err, core.ErrNotFound) {
		return Cart{}, errors.WithStack(err)
	}

	log.Info().
		Str("func", funcName).
		Str("username", username).
		Msg("creating cart")

	c = Cart{Username: username, Items: []Item{}, Created: time.Now()}
	if err = s.repo.SaveCart(ctx, &c); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return s.GetByUser(ctx, username)
		}
		return Cart{}, errors.WithStack(err)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, cartID uint64) (Cart, error) {
	c, err := s.repo.GetCart(ctx, cartID)
	if err != nil {
		return Cart{}, errors.WithStack(err)
	}
	return s.withItems(ctx, c)
}

func (s *Service) GetByUser(ctx context.Context, username string) (Cart, error) {
	c, err := s.repo.GetCartByUser(ctx, username)
	if err != nil {
		return Cart{}, errors.WithStack(err)
	}
	return s.withItems(ctx, c)
}

// AddItem reserves qty units and adds them to the cart. Adding a product that is
// already in the cart increases its quantity.
func (s *Service) AddItem(ctx context.Context, cartID, productID uint64, qty int64) (item Item, err error) {
	const funcName = "AddItem"

	if qty < 1 {
		return Item{}, ErrInvalidQuantity
	}

	log.Info().
		Str("func", funcName).
		Uint64("cartId", cartID).
		Uint64("productId", productID).
		Int64("quantity", qty).
		Msg("adding item to cart")

	tx, err := s.lockCart(ctx, cartID)
	if err != nil {
		return Item{}, err
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	item, err = s.repo.GetItem(ctx, cartID, productID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return Item{}, errors.WithStack(err)
	}
	if errors.Is(err, core.ErrNotFound) {
		item = Item{CartID: cartID, ProductID: productID, Added: time.Now()}
	}

	req := []inventory.StockRequest{{ProductID: productID, Quantity: qty}}
	if err = s.ledger.Reserve(ctx, req, core.UpdateOptions{Tx: tx}); err != nil {
		return Item{}, errors.WithMessage(err, "failed to reserve stock")
	}

	item.Quantity += qty
	if err = s.repo.SaveItem(ctx, &item, core.UpdateOptions{Tx: tx}); err != nil {
		return Item{}, errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return Item{}, errors.WithStack(err)
	}
	return item, nil
}

// UpdateItemQuantity sets the quantity of a line. Only the difference from the
// current quantity moves through the ledger. A quantity of zero removes the line.
func (s *Service) UpdateItemQuantity(ctx context.Context, cartID, productID uint64, qty int64) (item Item, err error) {
	const funcName = "UpdateItemQuantity"

	if qty < 0 {
		return Item{}, ErrInvalidQuantity
	}
	if qty == 0 {
		return Item{}, s.RemoveItem(ctx, cartID, productID)
	}

	log.Info().
		Str("func", funcName).
		Uint64("cartId", cartID).
		Uint64("productId", productID).
		Int64("quantity", qty).
		Msg("updating cart item")

	tx, err := s.lockCart(ctx, cartID)
	if err != nil {
		return Item{}, err
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	item, err = s.repo.GetItem(ctx, cartID, productID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Item{}, errors.WithStack(err)
	}

	if err = s.ledger.Adjust(ctx, productID, item.Quantity, qty, core.UpdateOptions{Tx: tx}); err != nil {
		return Item{}, errors.WithMessage(err, "failed to adjust stock")
	}

	item.Quantity = qty
	if err = s.repo.SaveItem(ctx, &item, core.UpdateOptions{Tx: tx}); err != nil {
		return Item{}, errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return Item{}, errors.WithStack(err)
	}
	return item, nil
}

// RemoveItem deletes a line and releases its reservation.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID uint64) (err error) {
	const funcName = "RemoveItem"

	log.Info().
		Str("func", funcName).
		Uint64("cartId", cartID).
		Uint64("productId", productID).
		Msg("removing cart item")

	tx, err := s.lockCart(ctx, cartID)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	item, err := s.repo.GetItem(ctx, cartID, productID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return errors.WithStack(err)
	}

	req := []inventory.StockRequest{{ProductID: productID, Quantity: item.Quantity}}
	if err = s.ledger.Release(ctx, req, core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithMessage(err, "failed to release stock")
	}

	if err = s.repo.DeleteItem(ctx, cartID, productID, core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Clear empties the cart and releases every reservation it held.
func (s *Service) Clear(ctx context.Context, cartID uint64) (err error) {
	const funcName = "Clear"

	log.Info().
		Str("func", funcName).
		Uint64("cartId", cartID).
		Msg("clearing cart")

	tx, err := s.lockCart(ctx, cartID)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	items, err := s.repo.GetItems(ctx, cartID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return errors.WithStack(err)
	}

	if err = s.ledger.Release(ctx, StockRequests(items), core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithMessage(err, "failed to release stock")
	}

	if err = s.repo.DeleteItems(ctx, cartID, core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// lockCart opens a transaction and locks the cart row so that concurrent changes to
// the same cart are applied one at a time.
func (s *Service) lockCart(ctx context.Context, cartID uint64) (core.Transaction, error) {
	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if _, err = s.repo.GetCart(ctx, cartID, core.QueryOptions{Tx: tx, ForUpdate: true}); err != nil {
		core.Rollback(ctx, tx, err)
		return nil, errors.WithStack(err)
	}
	return tx, nil
}

func (s *Service) withItems(ctx context.Context, c Cart) (Cart, error) {
	items, err := s.repo.GetItems(ctx, c.ID)
	if err != nil {
		return Cart{}, errors.WithStack(err)
	}
	if items == nil {
		items = []Item{}
	}
	c.Items = items
	return c, nil
}
