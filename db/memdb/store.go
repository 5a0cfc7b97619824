// Package memdb is an in memory implementation of every repository in the
// application. Transactions are serialized: BeginTransaction holds the store lock
// until Commit or Rollback, and work happens on a copy of the data that replaces
// the original only on Commit.
package memdb

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/core/order"
	"github.com/sksmith/go-commerce/core/user"
)

var (
	ErrTxDone    = errors.New("memdb: transaction has already been committed or rolled back")
	ErrForeignTx = errors.New("memdb: transaction does not belong to this store")
	ErrDuplicate = core.ErrDuplicate
)

type state struct {
	seq uint64

	products  map[uint64]inventory.Product
	skus      map[string]uint64
	inventory map[uint64]inventory.InventoryRecord
	restocks  map[string]inventory.RestockEvent
	movements []inventory.Movement

	carts map[uint64]cart.Cart
	items map[uint64]map[uint64]cart.Item

	orders map[uint64]order.Order

	users map[string]user.User
}

func newState() *state {
	return &state{
		products:  make(map[uint64]inventory.Product),
		skus:      make(map[string]uint64),
		inventory: make(map[uint64]inventory.InventoryRecord),
		restocks:  make(map[string]inventory.RestockEvent),
		carts:     make(map[uint64]cart.Cart),
		items:     make(map[uint64]map[uint64]cart.Item),
		orders:    make(map[uint64]order.Order),
		users:     make(map[string]user.User),
	}
}

func (s *state) nextID() uint64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	c := &state{
		seq:       s.seq,
		products:  make(map[uint64]inventory.Product, len(s.products)),
		skus:      make(map[string]uint64, len(s.skus)),
		inventory: make(map[uint64]inventory.InventoryRecord, len(s.inventory)),
		restocks:  make(map[string]inventory.RestockEvent, len(s.restocks)),
		movements: append([]inventory.Movement(nil), s.movements...),
		carts:     make(map[uint64]cart.Cart, len(s.carts)),
		items:     make(map[uint64]map[uint64]cart.Item, len(s.items)),
		orders:    make(map[uint64]order.Order, len(s.orders)),
		users:     make(map[string]user.User, len(s.users)),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.skus {
		c.skus[k] = v
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	for k, v := range s.restocks {
		c.restocks[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = v
	}
	for k, lines := range s.items {
		cp := make(map[uint64]cart.Item, len(lines))
		for p, item := range lines {
			cp[p] = item
		}
		c.items[k] = cp
	}
	for k, v := range s.orders {
		v.Items = append([]order.Item(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	data *state
}

func New() *Store {
	return &Store{data: newState()}
}

type tx struct {
	store *Store
	data  *state
	done  bool
}

func (t *tx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.store.data = t.data
	t.store.mu.Unlock()
	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (s *Store) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	s.mu.Lock()
	return &tx{store: s, data: s.data.clone()}, nil
}

// view runs fn against the transaction's copy when one is supplied, otherwise
// against the committed data under the store lock.
func (s *Store) view(options []core.QueryOptions, fn func(d *state) error) error {
	if len(options) > 0 && options[0].Tx != nil {
		return s.inTx(options[0].Tx, fn)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// update is view for writes. Without a transaction fn must validate before it
// mutates so a failed write leaves nothing behind.
func (s *Store) update(options []core.UpdateOptions, fn func(d *state) error) error {
	if len(options) > 0 && options[0].Tx != nil {
		return s.inTx(options[0].Tx, fn)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) inTx(t core.Transaction, fn func(d *state) error) error {
	mt, ok := t.(*tx)
	if !ok || mt.store != s {
		return ErrForeignTx
	}
	if mt.done {
		return ErrTxDone
	}
	return fn(mt.data)
}

func page(total, limit, offset int) (start, end int) {
	if offset > total {
		offset = total
	}
	end = total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return offset, end
}

var (
	_ inventory.Repository = (*Store)(nil)
	_ cart.Repository      = (*Store)(nil)
	_ order.Repository     = (*Store)(nil)
)
