package inventory

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/sksmith/go-commerce/core/inventory")

// Ledger moves stock between the available and reserved pools. Each call is
// all-or-nothing over its batch: either every request is applied or none is.
//
// When options carry a transaction the ledger joins it and leaves commit and
// rollback to the caller. Otherwise the ledger runs in its own transaction.
type Ledger interface {
	Reserve(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error
	Release(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error
	Finalize(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error
	Adjust(ctx context.Context, productID uint64, oldQty, newQty int64, options ...core.UpdateOptions) error
}

type ledgerOp struct {
	name    string
	kind    MovementKind
	failure error
	held    func(rec InventoryRecord) int64
	apply   func(rec *InventoryRecord, qty int64)
}

var (
	reserveOp = ledgerOp{
		name:    "Reserve",
		kind:    MovementReserve,
		failure: ErrInsufficientStock,
		held:    func(rec InventoryRecord) int64 { return rec.Available },
		apply: func(rec *InventoryRecord, qty int64) {
			rec.Available -= qty
			rec.Reserved += qty
		},
	}
	releaseOp = ledgerOp{
		name:    "Release",
		kind:    MovementRelease,
		failure: ErrOverRelease,
		held:    func(rec InventoryRecord) int64 { return rec.Reserved },
		apply: func(rec *InventoryRecord, qty int64) {
			rec.Reserved -= qty
			rec.Available += qty
		},
	}
	finalizeOp = ledgerOp{
		name:    "Finalize",
		kind:    MovementFinalize,
		failure: ErrReservedQuantityExceeded,
		held:    func(rec InventoryRecord) int64 { return rec.Reserved },
		apply: func(rec *InventoryRecord, qty int64) {
			rec.Reserved -= qty
		},
	}
)

// Reserve moves quantity from available to reserved for every request.
func (s *Service) Reserve(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error {
	return s.apply(ctx, reserveOp, requests, options...)
}

// Release moves quantity from reserved back to available for every request.
func (s *Service) Release(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error {
	return s.apply(ctx, releaseOp, requests, options...)
}

// Finalize consumes reserved quantity. The units leave the system.
func (s *Service) Finalize(ctx context.Context, requests []StockRequest, options ...core.UpdateOptions) error {
	return s.apply(ctx, finalizeOp, requests, options...)
}

// Adjust reserves or releases the difference between the quantity a holder had and
// the quantity it now wants.
func (s *Service) Adjust(ctx context.Context, productID uint64, oldQty, newQty int64, options ...core.UpdateOptions) error {
	if oldQty < 0 || newQty < 0 {
		return &StockError{Kind: ErrInvalidQuantity, Shortfalls: []Shortfall{{ProductID: productID, Requested: newQty - oldQty}}}
	}

	switch delta := newQty - oldQty; {
	case delta > 0:
		return s.Reserve(ctx, []StockRequest{{ProductID: productID, Quantity: delta}}, options...)
	case delta < 0:
		return s.Release(ctx, []StockRequest{{ProductID: productID, Quantity: -delta}}, options...)
	}
	return nil
}

func (s *Service) apply(ctx context.Context, op ledgerOp, requests []StockRequest, options ...core.UpdateOptions) (err error) {
	ctx, span := tracer.Start(ctx, "ledger."+op.name, trace.WithAttributes(
		attribute.Int("ledger.requests", len(requests)),
	))
	var units int64
	defer func() {
		recordLedger(op.name, units, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	batch, err := mergeRequests(requests)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	log.Debug().
		Str("func", op.name).
		Interface("requests", batch).
		Msg("applying ledger operation")

	tx, owned, err := s.transaction(ctx, options...)
	if err != nil {
		return errors.WithStack(err)
	}
	if owned {
		defer func() {
			if err != nil {
				core.Rollback(ctx, tx, err)
			}
		}()
	}

	records := make([]InventoryRecord, 0, len(batch))
	var missing, short []Shortfall
	for _, req := range batch {
		var rec InventoryRecord
		rec, err = s.repo.GetInventory(ctx, req.ProductID, core.QueryOptions{Tx: tx, ForUpdate: true})
		if errors.Is(err, core.ErrNotFound) {
			missing = append(missing, Shortfall{ProductID: req.ProductID, Requested: req.Quantity})
			err = nil
			continue
		}
		if err != nil {
			return errors.WithMessage(err, "failed to get inventory")
		}
		if held := op.held(rec); held < req.Quantity {
			short = append(short, Shortfall{ProductID: req.ProductID, Requested: req.Quantity, Held: held})
		}
		records = append(records, rec)
	}

	if len(missing) > 0 {
		return &StockError{Kind: ErrProductNotFound, Shortfalls: missing}
	}
	if len(short) > 0 {
		if op.failure != ErrInsufficientStock {
			log.Error().
				Str("func", op.name).
				Interface("shortfalls", short).
				Msg("ledger accounting mismatch")
		}
		return &StockError{Kind: op.failure, Shortfalls: short}
	}

	now := time.Now()
	for i := range records {
		qty := batch[i].Quantity
		op.apply(&records[i], qty)

		if err = s.repo.UpdateInventoryCounts(ctx, records[i].ProductID, records[i].Available, records[i].Reserved, core.UpdateOptions{Tx: tx}); err != nil {
			return errors.WithMessage(err, "failed to update inventory")
		}

		movement := &Movement{
			ProductID: records[i].ProductID,
			Kind:      op.kind,
			Quantity:  qty,
			Available: records[i].Available,
			Reserved:  records[i].Reserved,
			Created:   now,
		}
		if err = s.repo.SaveMovement(ctx, movement, core.UpdateOptions{Tx: tx}); err != nil {
			return errors.WithMessage(err, "failed to save movement")
		}
		units += qty
	}

	if owned {
		if err = tx.Commit(ctx); err != nil {
			return errors.WithStack(err)
		}
		for _, rec := range records {
			s.publishInventory(ctx, rec)
		}
	}

	s.checkLowStock(op, records)

	return nil
}

// mergeRequests validates a batch, folds repeated products into one request and
// orders the result by product ID so concurrent batches lock rows in the same order.
// A product whose merged quantity would overflow is rejected as invalid.
func mergeRequests(requests []StockRequest) ([]StockRequest, error) {
	var invalid []Shortfall
	totals := make(map[uint64]int64, len(requests))
	for _, r := range requests {
		if r.Quantity <= 0 || totals[r.ProductID] > math.MaxInt64-r.Quantity {
			invalid = append(invalid, Shortfall{ProductID: r.ProductID, Requested: r.Quantity})
			continue
		}
		totals[r.ProductID] += r.Quantity
	}
	if len(invalid) > 0 {
		return nil, &StockError{Kind: ErrInvalidQuantity, Shortfalls: invalid}
	}

	merged := make([]StockRequest, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, StockRequest{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}

func (s *Service) transaction(ctx context.Context, options ...core.UpdateOptions) (tx core.Transaction, owned bool, err error) {
	if len(options) > 0 && options[0].Tx != nil {
		return options[0].Tx, false, nil
	}
	tx, err = s.repo.BeginTransaction(ctx)
	return tx, true, err
}

func (s *Service) checkLowStock(op ledgerOp, records []InventoryRecord) {
	if op.kind == MovementRelease {
		return
	}
	for _, rec := range records {
		if !rec.NeedsReorder() {
			continue
		}
		lowStockTotal.Inc()
		log.Warn().
			Uint64("productId", rec.ProductID).
			Int64("available", rec.Available).
			Int64("reorderLevel", rec.ReorderLevel).
			Int64("reorderQuantity", rec.ReorderQuantity).
			Msg("product at or below reorder level")
	}
}
