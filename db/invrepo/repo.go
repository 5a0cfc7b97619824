package invrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/db"
)

const productColumns = `id, sku, name, brand, category, price, attributes, created`

const inventoryColumns = `product_id, available, reserved, reorder_level, reorder_quantity, unit_cost,
	last_restocked, expiry_date, batch_number, location`

type dbRepo struct {
	conn     core.Conn
	products *lru.Cache
}

func NewPostgresRepo(conn core.Conn) inventory.Repository {
	l, err := lru.New(256)
	if err != nil {
		log.Warn().Err(err).Msg("unable to configure product cache")
	}
	return &dbRepo{
		conn:     conn,
		products: l,
	}
}

func (d *dbRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	return db.Begin(ctx, d.conn)
}

func (d *dbRepo) SaveProduct(ctx context.Context, product *inventory.Product, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveProduct")
	tx := db.GetUpdateOptions(d.conn, options...)

	attributes, err := marshalAttributes(product.Attributes)
	if err != nil {
		m.Complete(err)
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO products (sku, name, brand, category, price, attributes, created)
		     VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sku) DO UPDATE
		        SET name = EXCLUDED.name, brand = EXCLUDED.brand, category = EXCLUDED.category,
		            price = EXCLUDED.price, attributes = EXCLUDED.attributes
		  RETURNING id;`,
		product.Sku, product.Name, product.Brand, product.Category, product.Price, attributes, product.Created).
		Scan(&product.ID)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}

	d.uncache(product.ID)
	return nil
}

func (d *dbRepo) GetProduct(ctx context.Context, id uint64, options ...core.QueryOptions) (inventory.Product, error) {
	if len(options) == 0 {
		if p, ok := d.getcache(id); ok {
			return p, nil
		}
	}

	m := db.StartMetric("GetProduct")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	product, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 `+forUpdate, id))
	m.Complete(err)
	if err != nil {
		return inventory.Product{}, err
	}

	d.cache(product)
	return product, nil
}

func (d *dbRepo) GetProductBySku(ctx context.Context, sku string, options ...core.QueryOptions) (inventory.Product, error) {
	m := db.StartMetric("GetProductBySku")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	product, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1 `+forUpdate, sku))
	m.Complete(err)
	if err != nil {
		return inventory.Product{}, err
	}
	return product, nil
}

func (d *dbRepo) GetAllProducts(ctx context.Context, filter inventory.ProductFilter, limit, offset int, options ...core.QueryOptions) ([]inventory.Product, error) {
	m := db.StartMetric("GetAllProducts")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	query, args := productListQuery(filter, limit, offset)
	log.Debug().Str("query", query).Interface("args", args).Msg("listing products")

	products := make([]inventory.Product, 0)
	rows, err := tx.Query(ctx, query+forUpdate, args...)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			m.Complete(err)
			return nil, err
		}
		products = append(products, product)
	}

	m.Complete(rows.Err())
	return products, errors.WithStack(rows.Err())
}

var sortColumns = map[inventory.ProductSort]string{
	inventory.SortByID:      "id",
	inventory.SortByName:    "name",
	inventory.SortByPrice:   "price",
	inventory.SortByCreated: "created",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// productListQuery builds the paged product select for filter. Values are always
// bound as arguments; only the whitelisted sort column is spliced in.
func productListQuery(filter inventory.ProductFilter, limit, offset int) (string, []interface{}) {
	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + likeEscaper.Replace(filter.Search) + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %[1]s OR sku ILIKE %[1]s OR brand ILIKE %[1]s)", p))
	}
	if filter.Category != "" {
		where = append(where, "lower(category) = lower("+arg(filter.Category)+")")
	}
	if filter.MinPrice.Valid {
		where = append(where, "price >= "+arg(filter.MinPrice.Decimal))
	}
	if filter.MaxPrice.Valid {
		where = append(where, "price <= "+arg(filter.MaxPrice.Decimal))
	}
	if filter.InStockOnly {
		where = append(where, "EXISTS (SELECT 1 FROM inventory i WHERE i.product_id = products.id AND i.available > 0)")
	}

	var b strings.Builder
	b.WriteString("SELECT " + productColumns + " FROM products")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	dir := "ASC"
	if filter.Descending {
		dir = "DESC"
	}
	col, ok := sortColumns[filter.Sort]
	if !ok {
		col = "id"
	}
	b.WriteString(fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir))
	b.WriteString(" LIMIT " + arg(limit) + " OFFSET " + arg(offset) + " ")
	return b.String(), args
}

func (d *dbRepo) GetInventory(ctx context.Context, productID uint64, options ...core.QueryOptions) (inventory.InventoryRecord, error) {
	m := db.StartMetric("GetInventory")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	record, err := scanInventory(tx.QueryRow(ctx,
		`SELECT `+inventoryColumns+` FROM inventory WHERE product_id = $1 `+forUpdate, productID))
	m.Complete(err)
	if err != nil {
		return inventory.InventoryRecord{}, err
	}
	return record, nil
}

func (d *dbRepo) GetAllInventory(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]inventory.InventoryRecord, error) {
	m := db.StartMetric("GetAllInventory")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	records := make([]inventory.InventoryRecord, 0)
	rows, err := tx.Query(ctx,
		`SELECT `+inventoryColumns+` FROM inventory ORDER BY product_id LIMIT $1 OFFSET $2 `+forUpdate,
		limit, offset)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanInventory(rows)
		if err != nil {
			m.Complete(err)
			return nil, err
		}
		records = append(records, record)
	}

	m.Complete(rows.Err())
	return records, errors.WithStack(rows.Err())
}

func (d *dbRepo) SaveInventory(ctx context.Context, r inventory.InventoryRecord, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveInventory")
	tx := db.GetUpdateOptions(d.conn, options...)

	_, err := tx.Exec(ctx, `
		INSERT INTO inventory (`+inventoryColumns+`)
		     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (product_id) DO UPDATE
		        SET available = EXCLUDED.available, reserved = EXCLUDED.reserved,
		            reorder_level = EXCLUDED.reorder_level, reorder_quantity = EXCLUDED.reorder_quantity,
		            unit_cost = EXCLUDED.unit_cost, last_restocked = EXCLUDED.last_restocked,
		            expiry_date = EXCLUDED.expiry_date, batch_number = EXCLUDED.batch_number,
		            location = EXCLUDED.location;`,
		r.ProductID, r.Available, r.Reserved, r.ReorderLevel, r.ReorderQuantity, r.UnitCost,
		r.LastRestocked, r.ExpiryDate, r.BatchNumber, r.Location)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) UpdateInventoryCounts(ctx context.Context, productID uint64, available, reserved int64, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateInventoryCounts")
	tx := db.GetUpdateOptions(d.conn, options...)

	ct, err := tx.Exec(ctx, `UPDATE inventory SET available = $2, reserved = $3 WHERE product_id = $1;`,
		productID, available, reserved)
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

func (d *dbRepo) GetRestockEventByRequestID(ctx context.Context, requestID string, options ...core.QueryOptions) (inventory.RestockEvent, error) {
	m := db.StartMetric("GetRestockEventByRequestID")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	e := inventory.RestockEvent{}
	err := tx.QueryRow(ctx,
		`SELECT id, request_id, product_id, quantity, batch_number, created FROM restock_events WHERE request_id = $1 `+forUpdate,
		requestID).Scan(&e.ID, &e.RequestID, &e.ProductID, &e.Quantity, &e.BatchNumber, &e.Created)
	m.Complete(err)
	if err != nil {
		if err == pgx.ErrNoRows {
			return e, errors.WithStack(core.ErrNotFound)
		}
		return e, errors.WithStack(err)
	}
	return e, nil
}

func (d *dbRepo) SaveRestockEvent(ctx context.Context, e *inventory.RestockEvent, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveRestockEvent")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO restock_events (request_id, product_id, quantity, batch_number, created)
			       VALUES ($1, $2, $3, $4, $5) RETURNING id;`

	err := tx.QueryRow(ctx, insert, e.RequestID, e.ProductID, e.Quantity, e.BatchNumber, e.Created).Scan(&e.ID)
	m.Complete(err)
	if err != nil {
		if db.IsDuplicate(err) {
			return errors.WithStack(core.ErrDuplicate)
		}
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) SaveMovement(ctx context.Context, mv *inventory.Movement, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveMovement")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO stock_movements (product_id, kind, quantity, available, reserved, created)
			       VALUES ($1, $2, $3, $4, $5, $6) RETURNING id;`

	err := tx.QueryRow(ctx, insert, mv.ProductID, mv.Kind, mv.Quantity, mv.Available, mv.Reserved, mv.Created).Scan(&mv.ID)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) GetMovements(ctx context.Context, productID uint64, limit, offset int, options ...core.QueryOptions) ([]inventory.Movement, error) {
	m := db.StartMetric("GetMovements")
	tx, _ := db.GetQueryOptions(d.conn, options...)

	movements := make([]inventory.Movement, 0)
	rows, err := tx.Query(ctx,
		`SELECT id, product_id, kind, quantity, available, reserved, created
		   FROM stock_movements WHERE product_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		productID, limit, offset)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		mv := inventory.Movement{}
		if err = rows.Scan(&mv.ID, &mv.ProductID, &mv.Kind, &mv.Quantity, &mv.Available, &mv.Reserved, &mv.Created); err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		movements = append(movements, mv)
	}

	m.Complete(rows.Err())
	return movements, errors.WithStack(rows.Err())
}

func scanProduct(row pgx.Row) (inventory.Product, error) {
	p := inventory.Product{}
	var attributes []byte
	err := row.Scan(&p.ID, &p.Sku, &p.Name, &p.Brand, &p.Category, &p.Price, &attributes, &p.Created)
	if err != nil {
		if err == pgx.ErrNoRows {
			return p, errors.WithStack(core.ErrNotFound)
		}
		return p, errors.WithStack(err)
	}
	if len(attributes) > 0 {
		if err = json.Unmarshal(attributes, &p.Attributes); err != nil {
			return p, errors.WithStack(err)
		}
	}
	return p, nil
}

func scanInventory(row pgx.Row) (inventory.InventoryRecord, error) {
	r := inventory.InventoryRecord{}
	err := row.Scan(&r.ProductID, &r.Available, &r.Reserved, &r.ReorderLevel, &r.ReorderQuantity, &r.UnitCost,
		&r.LastRestocked, &r.ExpiryDate, &r.BatchNumber, &r.Location)
	if err != nil {
		if err == pgx.ErrNoRows {
			return r, errors.WithStack(core.ErrNotFound)
		}
		return r, errors.WithStack(err)
	}
	return r, nil
}

func marshalAttributes(attributes map[string]interface{}) (string, error) {
	if attributes == nil {
		return "{}", nil
	}
	b, err := json.Marshal(attributes)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(b), nil
}

func (d *dbRepo) cache(p inventory.Product) {
	if d.products == nil {
		return
	}
	d.products.Add(p.ID, p)
}

func (d *dbRepo) uncache(id uint64) {
	if d.products == nil {
		return
	}
	d.products.Remove(id)
}

func (d *dbRepo) getcache(id uint64) (inventory.Product, bool) {
	if d.products == nil {
		return inventory.Product{}, false
	}
	v, ok := d.products.Get(id)
	if !ok {
		return inventory.Product{}, false
	}
	p, ok := v.(inventory.Product)
	return p, ok
}
