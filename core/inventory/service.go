package inventory

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core"
)

func NewService(repo Repository, q Queue) *Service {
	return &Service{repo: repo, queue: q}
}

type Service struct {
	repo  Repository
	queue Queue
}

func (s *Service) CreateProduct(ctx context.Context, product Product, settings StockSettings) (Product, error) {
	const funcName = "CreateProduct"

	if err := product.Validate(); err != nil {
		return Product{}, err
	}

	dbProduct, err := s.repo.GetProductBySku(ctx, product.Sku)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return Product{}, errors.WithStack(err)
	}

	if dbProduct.Sku != "" {
		log.Debug().
			Str("func", funcName).
			Str("sku", dbProduct.Sku).
			Msg("product already exists")
		return dbProduct, nil
	}

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Product{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	log.Info().
		Str("func", funcName).
		Str("sku", product.Sku).
		Str("name", product.Name).
		Msg("creating product")

	product.Created = time.Now()
	if err = s.repo.SaveProduct(ctx, &product, core.UpdateOptions{Tx: tx}); err != nil {
		return Product{}, errors.WithStack(err)
	}

	log.Info().
		Str("func", funcName).
		Uint64("productId", product.ID).
		Msg("creating product inventory")

	record := InventoryRecord{
		ProductID:       product.ID,
		ReorderLevel:    settings.ReorderLevel,
		ReorderQuantity: settings.ReorderQuantity,
		Location:        settings.Location,
	}

	if err = s.repo.SaveInventory(ctx, record, core.UpdateOptions{Tx: tx}); err != nil {
		return Product{}, errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return Product{}, errors.WithStack(err)
	}

	return product, nil
}

// Restock adds delivered units to the available pool. A RequestID that has already
// been applied is acknowledged without changing stock.
func (s *Service) Restock(ctx context.Context, productID uint64, rr RestockRequest) error {
	const funcName = "Restock"

	log.Info().
		Str("func", funcName).
		Uint64("productId", productID).
		Str("requestId", rr.RequestID).
		Int64("quantity", rr.Quantity).
		Msg("restocking inventory")

	if rr.RequestID == "" {
		return errors.New("request id is required")
	}
	if rr.Quantity < 1 {
		return &StockError{Kind: ErrInvalidQuantity, Shortfalls: []Shortfall{{ProductID: productID, Requested: rr.Quantity}}}
	}

	event, err := s.repo.GetRestockEventByRequestID(ctx, rr.RequestID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return errors.WithStack(err)
	}

	if event.RequestID != "" {
		log.Debug().
			Str("func", funcName).
			Str("requestId", rr.RequestID).
			Msg("restock request already applied")
		return nil
	}

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			core.Rollback(ctx, tx, err)
		}
	}()

	record, err := s.repo.GetInventory(ctx, productID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			err = &StockError{Kind: ErrProductNotFound, Shortfalls: []Shortfall{{ProductID: productID, Requested: rr.Quantity}}}
			return err
		}
		return errors.WithStack(err)
	}

	if rr.Quantity > math.MaxInt64-record.Available-record.Reserved {
		err = &StockError{Kind: ErrInvalidQuantity, Shortfalls: []Shortfall{{ProductID: productID, Requested: rr.Quantity, Held: record.Available}}}
		return err
	}

	now := time.Now()
	event = RestockEvent{
		RequestID:   rr.RequestID,
		ProductID:   productID,
		Quantity:    rr.Quantity,
		BatchNumber: rr.BatchNumber,
		Created:     now,
	}
	if err = s.repo.SaveRestockEvent(ctx, &event, core.UpdateOptions{Tx: tx}); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			core.Rollback(ctx, tx, err)
			err = nil
			log.Debug().
				Str("func", funcName).
				Str("requestId", rr.RequestID).
				Msg("restock request applied concurrently")
			return nil
		}
		return errors.WithStack(err)
	}

	record.Available += rr.Quantity
	record.LastRestocked = &now
	if rr.BatchNumber != "" {
		record.BatchNumber = rr.BatchNumber
	}
	if rr.Location != "" {
		record.Location = rr.Location
	}
	if rr.ExpiryDate != nil {
		record.ExpiryDate = rr.ExpiryDate
	}
	if !rr.UnitCost.IsZero() {
		record.UnitCost = rr.UnitCost
	}

	if err = s.repo.SaveInventory(ctx, record, core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithStack(err)
	}

	movement := &Movement{
		ProductID: productID,
		Kind:      MovementRestock,
		Quantity:  rr.Quantity,
		Available: record.Available,
		Reserved:  record.Reserved,
		Created:   now,
	}
	if err = s.repo.SaveMovement(ctx, movement, core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}

	s.publishInventory(ctx, record)

	return nil
}

func (s *Service) GetProduct(ctx context.Context, id uint64) (Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, errors.WithStack(err)
	}
	return product, nil
}

// GetAllProducts pages through the catalog entries that pass filter.
func (s *Service) GetAllProducts(ctx context.Context, filter ProductFilter, limit, offset int) ([]Product, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	products, err := s.repo.GetAllProducts(ctx, filter, limit, offset)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return products, nil
}

func (s *Service) GetInventory(ctx context.Context, productID uint64) (InventoryRecord, error) {
	record, err := s.repo.GetInventory(ctx, productID)
	if err != nil {
		return InventoryRecord{}, errors.WithStack(err)
	}
	return record, nil
}

func (s *Service) GetAllInventory(ctx context.Context, limit, offset int) ([]InventoryRecord, error) {
	records, err := s.repo.GetAllInventory(ctx, limit, offset)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return records, nil
}

func (s *Service) GetMovements(ctx context.Context, productID uint64, limit, offset int) ([]Movement, error) {
	movements, err := s.repo.GetMovements(ctx, productID, limit, offset)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return movements, nil
}

func (s *Service) publishInventory(ctx context.Context, record InventoryRecord) {
	if err := s.queue.PublishInventory(ctx, record); err != nil {
		log.Error().
			Err(err).
			Uint64("productId", record.ProductID).
			Msg("failed to publish inventory")
	}
}
