package cartrepo

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/db"
)

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) cart.Repository {
	return &dbRepo{conn: conn}
}

func (d *dbRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	return db.Begin(ctx, d.conn)
}

func (d *dbRepo) GetCart(ctx context.Context, cartID uint64, options ...core.QueryOptions) (cart.Cart, error) {
	m := db.StartMetric("GetCart")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	c := cart.Cart{}
	err := tx.QueryRow(ctx, `SELECT id, username, created FROM carts WHERE id = $1 `+forUpdate, cartID).
		Scan(&c.ID, &c.Username, &c.Created)
	m.Complete(err)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c, errors.WithStack(core.ErrNotFound)
		}
		return c, errors.WithStack(err)
	}
	return c, nil
}

func (d *dbRepo) GetCartByUser(ctx context.Context, username string, options ...core.QueryOptions) (cart.Cart, error) {
	m := db.StartMetric("GetCartByUser")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	c := cart.Cart{}
	err := tx.QueryRow(ctx,
		`SELECT id, username, created FROM carts WHERE username = $1 ORDER BY id LIMIT 1 `+forUpdate, username).
		Scan(&c.ID, &c.Username, &c.Created)
	m.Complete(err)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c, errors.WithStack(core.ErrNotFound)
		}
		return c, errors.WithStack(err)
	}
	return c, nil
}

func (d *dbRepo) GetItems(ctx context.Context, cartID uint64, options ...core.QueryOptions) ([]cart.Item, error) {
	m := db.StartMetric("GetCartItems")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	items := make([]cart.Item, 0)
	rows, err := tx.Query(ctx,
		`SELECT id, cart_id, product_id, quantity, added FROM cart_items WHERE cart_id = $1 ORDER BY id `+forUpdate,
		cartID)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		item := cart.Item{}
		if err = rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.Added); err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		items = append(items, item)
	}

	m.Complete(rows.Err())
	return items, errors.WithStack(rows.Err())
}

func (d *dbRepo) GetItem(ctx context.Context, cartID, productID uint64, options ...core.QueryOptions) (cart.Item, error) {
	m := db.StartMetric("GetCartItem")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	item := cart.Item{}
	err := tx.QueryRow(ctx,
		`SELECT id, cart_id, product_id, quantity, added FROM cart_items WHERE cart_id = $1 AND product_id = $2 `+forUpdate,
		cartID, productID).
		Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.Added)
	m.Complete(err)
	if err != nil {
		if err == pgx.ErrNoRows {
			return item, errors.WithStack(core.ErrNotFound)
		}
		return item, errors.WithStack(err)
	}
	return item, nil
}

func (d *dbRepo) SaveCart(ctx context.Context, c *cart.Cart, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveCart")
	tx := db.GetUpdateOptions(d.conn, options...)

	err := tx.QueryRow(ctx, `INSERT INTO carts (username, created) VALUES ($1, $2) RETURNING id;`,
		c.Username, c.Created).Scan(&c.ID)
	m.Complete(err)
	if err != nil {
		if db.IsDuplicate(err) {
			return errors.WithStack(core.ErrDuplicate)
		}
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) SaveItem(ctx context.Context, item *cart.Item, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveCartItem")
	tx := db.GetUpdateOptions(d.conn, options...)

	err := tx.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, added)
		     VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
		  RETURNING id;`,
		item.CartID, item.ProductID, item.Quantity, item.Added).Scan(&item.ID)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) DeleteItem(ctx context.Context, cartID, productID uint64, options ...core.UpdateOptions) error {
	m := db.StartMetric("DeleteCartItem")
	tx := db.GetUpdateOptions(d.conn, options...)

	ct, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		m.Complete(core.ErrNotFound)
		return errors.WithStack(core.ErrNotFound)
	}
	m.Complete(nil)
	return nil
}

func (d *dbRepo) DeleteItems(ctx context.Context, cartID uint64, options ...core.UpdateOptions) error {
	m := db.StartMetric("DeleteCartItems")
	tx := db.GetUpdateOptions(d.conn, options...)

	_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}
