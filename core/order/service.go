package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/core/inventory"
)

var (
	ErrEmptyCart         = errors.New("order: cart has no items")
	ErrNoItems           = errors.New("order: at least one item is required")
	ErrUsernameRequired  = errors.New("order: username is required")
	ErrAlreadyCancelled  = errors.New("order: already cancelled")
	ErrNotCancellable    = errors.New("order: only pending orders can be cancelled")
	ErrInvalidTransition = errors.New("order: invalid status transition")
)

func NewService(repo Repository, carts CartRepository, products ProductRepository, ledger inventory.Ledger, q Queue) *Service {
	return &Service{
		repo:     repo,
		carts:    carts,
		products: products,
		ledger:   ledger,
		queue:    q,
	}
}

type Service struct {
	repo     Repository
	carts    CartRepository
	products ProductRepository
	ledger   inventory.Ledger
	queue    Queue
}

// Checkout converts a cart into a confirmed order. The cart's reservations are
// finalized and its lines removed in the same transaction that records the order,
// so a failure anywhere leaves the cart and its reservations as they were.
func (s *Service) Checkout(ctx context.Context, cartID uint64, req CheckoutRequest) (o Order, err error) {
	const funcName = "Checkout"

	log.Info().
		Str("func", funcName).
		Uint64("cartId", cartID).
		Msg("checking out cart")

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	c, err := s.carts.GetCart(ctx, cartID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Order{}, errors.WithStack(err)
	}

	items, err := s.carts.GetItems(ctx, cartID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	if len(items) == 0 {
		err = ErrEmptyCart
		return Order{}, err
	}

	o, err = s.newOrder(ctx, tx, c.Username, cart.StockRequests(items))
	if err != nil {
		return Order{}, err
	}
	o.PaymentMethod = req.PaymentMethod
	o.ShippingAddress = req.ShippingAddress

	if err = s.repo.SaveOrder(ctx, &o, core.UpdateOptions{Tx: tx}); err != nil {
		return Order{}, errors.WithStack(err)
	}

	if err = s.carts.DeleteItems(ctx, cartID, core.UpdateOptions{Tx: tx}); err != nil {
		return Order{}, errors.WithStack(err)
	}

	if err = s.ledger.Finalize(ctx, o.StockRequests(), core.UpdateOptions{Tx: tx}); err != nil {
		return Order{}, errors.WithMessage(err, "failed to finalize stock")
	}

	if err = s.repo.UpdateOrderStatus(ctx, o.ID, Confirmed, core.UpdateOptions{Tx: tx}); err != nil {
		return Order{}, errors.WithStack(err)
	}
	o.Status = Confirmed

	if err = tx.Commit(ctx); err != nil {
		return Order{}, errors.WithStack(err)
	}

	log.Info().
		Str("func", funcName).
		Uint64("orderId", o.ID).
		Str("number", o.Number).
		Str("total", o.Total.StringFixed(2)).
		Msg("order confirmed")

	s.publishOrder(ctx, o)
	return o, nil
}

// Create places a pending order for the requested products and reserves their
// stock. The order holds the reservation until it is confirmed or cancelled.
func (s *Service) Create(ctx context.Context, req OrderRequest) (o Order, err error) {
	const funcName = "Create"

	if req.Username == "" {
		return Order{}, ErrUsernameRequired
	}
	if len(req.Items) == 0 {
		return Order{}, ErrNoItems
	}

	log.Info().
		Str("func", funcName).
		Str("username", req.Username).
		Int("items", len(req.Items)).
		Msg("creating order")

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	o, err = s.newOrder(ctx, tx, req.Username, req.Items)
	if err != nil {
		return Order{}, err
	}
	o.PaymentMethod = req.PaymentMethod
	o.ShippingAddress = req.ShippingAddress

	if err = s.ledger.Reserve(ctx, o.StockRequests(), core.UpdateOptions{Tx: tx}); err != nil {
		return Order{}, errors.WithMessage(err, "failed to reserve stock")
	}

	if err = s.repo.SaveOrder(ctx, &o, core.UpdateOptions{Tx: tx}); err != nil {
		return Order{}, errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return Order{}, errors.WithStack(err)
	}

	s.publishOrder(ctx, o)
	return o, nil
}

// Confirm finalizes the stock held by a pending order. If the ledger rejects the
// finalize the order is marked failed and its reservation released.
func (s *Service) Confirm(ctx context.Context, id uint64) (Order, error) {
	o, err := s.confirm(ctx, id)
	if err != nil {
		if _, ok := inventory.AsStockError(err); ok {
			s.markFailed(ctx, id, err)
		}
		return Order{}, err
	}
	s.publishOrder(ctx, o)
	return o, nil
}

func (s *Service) confirm(ctx context.Context, id uint64) (o Order, err error) {
	const funcName = "Confirm"

	log.Info().
		Str("func", funcName).
		Uint64("orderId", id).
		Msg("confirming order")

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	o, err = s.repo.GetOrder(ctx, id, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	if o.Status != Pending {
		err = errors.WithMessagef(ErrInvalidTransition, "%s to %s", o.Status, Confirmed)
		return Order{}, err
	}

	if err = s.ledger.Finalize(ctx, o.StockRequests(), core.UpdateOptions{Tx: tx}); err != nil {
		return Order{}, errors.WithMessage(err, "failed to finalize stock")
	}

	if err = s.setStatus(ctx, &o, Confirmed, tx); err != nil {
		return Order{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Order{}, errors.WithStack(err)
	}
	return o, nil
}

// Cancel releases the stock held by a pending order. Confirmed orders have already
// consumed their stock and cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id uint64) (o Order, err error) {
	const funcName = "Cancel"

	log.Info().
		Str("func", funcName).
		Uint64("orderId", id).
		Msg("cancelling order")

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	o, err = s.repo.GetOrder(ctx, id, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Order{}, errors.WithStack(err)
	}

	switch o.Status {
	case Cancelled:
		err = ErrAlreadyCancelled
		return Order{}, err
	case Pending:
		if err = s.ledger.Release(ctx, o.StockRequests(), core.UpdateOptions{Tx: tx}); err != nil {
			return Order{}, errors.WithMessage(err, "failed to release stock")
		}
	default:
		err = errors.WithMessagef(ErrNotCancellable, "order is %s", o.Status)
		return Order{}, err
	}

	if err = s.setStatus(ctx, &o, Cancelled, tx); err != nil {
		return Order{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Order{}, errors.WithStack(err)
	}

	s.publishOrder(ctx, o)
	return o, nil
}

// UpdateStatus moves a confirmed order along its fulfilment path.
func (s *Service) UpdateStatus(ctx context.Context, id uint64, status Status) (o Order, err error) {
	const funcName = "UpdateStatus"

	log.Info().
		Str("func", funcName).
		Uint64("orderId", id).
		Str("status", string(status)).
		Msg("updating order status")

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	o, err = s.repo.GetOrder(ctx, id, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	if !o.Status.CanAdvanceTo(status) {
		err = errors.WithMessagef(ErrInvalidTransition, "%s to %s", o.Status, status)
		return Order{}, err
	}

	if err = s.setStatus(ctx, &o, status, tx); err != nil {
		return Order{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Order{}, errors.WithStack(err)
	}

	s.publishOrder(ctx, o)
	return o, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, options ListOptions, limit, offset int) ([]Order, error) {
	orders, err := s.repo.GetOrders(ctx, options, limit, offset)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return orders, nil
}

// newOrder builds a pending order, copying name and price from the catalog as they
// are right now.
func (s *Service) newOrder(ctx context.Context, tx core.Transaction, username string, requests []inventory.StockRequest) (Order, error) {
	items := make([]Item, 0, len(requests))
	var missing []inventory.Shortfall
	for _, req := range requests {
		product, err := s.products.GetProduct(ctx, req.ProductID, core.QueryOptions{Tx: tx})
		if errors.Is(err, core.ErrNotFound) {
			missing = append(missing, inventory.Shortfall{ProductID: req.ProductID, Requested: req.Quantity})
			continue
		}
		if err != nil {
			return Order{}, errors.WithStack(err)
		}
		items = append(items, Item{
			ProductID: product.ID,
			Sku:       product.Sku,
			Name:      product.Name,
			Quantity:  req.Quantity,
			Price:     product.Price,
		})
	}
	if len(missing) > 0 {
		return Order{}, &inventory.StockError{Kind: inventory.ErrProductNotFound, Shortfalls: missing}
	}

	now := time.Now()
	return Order{
		Number:   uuid.NewString(),
		Username: username,
		Items:    items,
		Total:    Total(items),
		Status:   Pending,
		Created:  now,
		Updated:  now,
	}, nil
}

func (s *Service) setStatus(ctx context.Context, o *Order, status Status, tx core.Transaction) error {
	if err := s.repo.UpdateOrderStatus(ctx, o.ID, status, core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithStack(err)
	}
	o.Status = status
	o.Updated = time.Now()
	return nil
}

// markFailed moves an order whose stock could not be finalized to failed and gives
// back the part of its reservation the ledger still holds, in one transaction.
// If that fails the order stays pending and can still be cancelled.
func (s *Service) markFailed(ctx context.Context, id uint64, cause error) {
	log.Warn().
		Err(cause).
		Uint64("orderId", id).
		Msg("marking order failed")

	o, err := s.fail(ctx, id)
	if err != nil {
		log.Error().
			Err(err).
			Uint64("orderId", id).
			Msg("failed to mark order failed")
		return
	}
	s.publishOrder(ctx, o)
}

func (s *Service) fail(ctx context.Context, id uint64) (o Order, err error) {
	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	o, err = s.repo.GetOrder(ctx, id, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Order{}, errors.WithStack(err)
	}
	if o.Status != Pending {
		err = errors.WithMessagef(ErrInvalidTransition, "%s to %s", o.Status, Failed)
		return Order{}, err
	}

	if err = s.releaseHeld(ctx, o.StockRequests(), tx); err != nil {
		return Order{}, err
	}

	if err = s.setStatus(ctx, &o, Failed, tx); err != nil {
		return Order{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Order{}, errors.WithStack(err)
	}
	return o, nil
}

// releaseHeld releases requests. Products the ledger cannot give back are left alone:
// their reserved count may belong to other holders.
func (s *Service) releaseHeld(ctx context.Context, requests []inventory.StockRequest, tx core.Transaction) error {
	for len(requests) > 0 {
		err := s.ledger.Release(ctx, requests, core.UpdateOptions{Tx: tx})
		se, ok := inventory.AsStockError(err)
		if !ok {
			return errors.WithMessage(err, "failed to release stock")
		}

		log.Error().
			Err(se).
			Interface("shortfalls", se.Shortfalls).
			Msg("leaving unreleasable stock reserved")

		skip := make(map[uint64]bool, len(se.Shortfalls))
		for _, sf := range se.Shortfalls {
			skip[sf.ProductID] = true
		}
		remaining := make([]inventory.StockRequest, 0, len(requests))
		for _, r := range requests {
			if !skip[r.ProductID] {
				remaining = append(remaining, r)
			}
		}
		if len(remaining) == len(requests) {
			return errors.WithMessage(err, "failed to release stock")
		}
		requests = remaining
	}
	return nil
}

func (s *Service) publishOrder(ctx context.Context, o Order) {
	if err := s.queue.PublishOrder(ctx, o); err != nil {
		log.Error().
			Err(err).
			Uint64("orderId", o.ID).
			Msg("failed to publish order")
	}
}
