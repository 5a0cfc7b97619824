package orderrepo

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/order"
	"github.com/sksmith/go-commerce/db"
)

const orderColumns = `id, number, username, items, total, status, payment_method, shipping_address, created, updated`

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) order.Repository {
	return &dbRepo{conn: conn}
}

func (d *dbRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	return db.Begin(ctx, d.conn)
}

func (d *dbRepo) SaveOrder(ctx context.Context, o *order.Order, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveOrder")
	tx := db.GetUpdateOptions(d.conn, options...)

	items, err := json.Marshal(o.Items)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}

	insert := `INSERT INTO orders (number, username, items, total, status, payment_method, shipping_address, created, updated)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id;`
	err = tx.QueryRow(ctx, insert, o.Number, o.Username, string(items), o.Total, o.Status,
		o.PaymentMethod, o.ShippingAddress, o.Created, o.Updated).Scan(&o.ID)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) UpdateOrderStatus(ctx context.Context, id uint64, status order.Status, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateOrderStatus")
	tx := db.GetUpdateOptions(d.conn, options...)

	ct, err := tx.Exec(ctx, `UPDATE orders SET status = $2, updated = now() WHERE id = $1;`, id, status)
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

func (d *dbRepo) GetOrder(ctx context.Context, id uint64, options ...core.QueryOptions) (order.Order, error) {
	m := db.StartMetric("GetOrder")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 `+forUpdate, id))
	m.Complete(err)
	if err != nil {
		return order.Order{}, err
	}
	return o, nil
}

func (d *dbRepo) GetOrders(ctx context.Context, listOptions order.ListOptions, limit, offset int, options ...core.QueryOptions) ([]order.Order, error) {
	m := db.StartMetric("GetOrders")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	params := []interface{}{limit, offset}
	whereClause := " WHERE 1 = 1"

	if listOptions.Username != "" {
		params = append(params, listOptions.Username)
		whereClause += " AND username = $" + strconv.Itoa(len(params))
	}
	if listOptions.Status != order.None {
		params = append(params, listOptions.Status)
		whereClause += " AND status = $" + strconv.Itoa(len(params))
	}

	orders := make([]order.Order, 0)
	rows, err := tx.Query(ctx,
		`SELECT `+orderColumns+` FROM orders`+whereClause+` ORDER BY id DESC LIMIT $1 OFFSET $2 `+forUpdate,
		params...)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			m.Complete(err)
			return nil, err
		}
		orders = append(orders, o)
	}

	m.Complete(rows.Err())
	return orders, errors.WithStack(rows.Err())
}

func scanOrder(row pgx.Row) (order.Order, error) {
	o := order.Order{}
	var items []byte
	err := row.Scan(&o.ID, &o.Number, &o.Username, &items, &o.Total, &o.Status,
		&o.PaymentMethod, &o.ShippingAddress, &o.Created, &o.Updated)
	if err != nil {
		if err == pgx.ErrNoRows {
			return o, errors.WithStack(core.ErrNotFound)
		}
		return o, errors.WithStack(err)
	}
	if err = json.Unmarshal(items, &o.Items); err != nil {
		return o, errors.WithStack(err)
	}
	return o, nil
}
