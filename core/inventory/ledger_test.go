package inventory_test

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/db/memdb"
	"github.com/sksmith/go-commerce/queue"
)

func newLedger() (*inventory.Service, *queue.MockQueue, *memdb.Store) {
	store := memdb.New()
	q := queue.NewMockQueue()
	return inventory.NewService(store, q), q, store
}

func stockProduct(t *testing.T, svc *inventory.Service, sku string, available int64) uint64 {
	t.Helper()
	ctx := context.Background()
	p, err := svc.CreateProduct(ctx, inventory.Product{Sku: sku, Name: sku}, inventory.StockSettings{})
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	if available > 0 {
		if err := svc.Restock(ctx, p.ID, inventory.RestockRequest{RequestID: "initial-" + sku, Quantity: available}); err != nil {
			t.Fatalf("failed to restock: %v", err)
		}
	}
	return p.ID
}

func verifyCounts(t *testing.T, svc *inventory.Service, productID uint64, available, reserved int64) {
	t.Helper()
	rec, err := svc.GetInventory(context.Background(), productID)
	if err != nil {
		t.Fatalf("failed to get inventory: %v", err)
	}
	if rec.Available != available || rec.Reserved != reserved {
		t.Errorf("unexpected counts got={%d,%d} want={%d,%d}", rec.Available, rec.Reserved, available, reserved)
	}
}

func TestReserveAndRelease(t *testing.T) {
	svc, q, _ := newLedger()
	ctx := context.Background()
	id := stockProduct(t, svc, "widget", 10)
	verifyCounts(t, svc, id, 10, 0)

	if err := svc.Reserve(ctx, []inventory.StockRequest{{ProductID: id, Quantity: 4}}); err != nil {
		t.Fatal(err)
	}
	verifyCounts(t, svc, id, 6, 4)

	if err := svc.Release(ctx, []inventory.StockRequest{{ProductID: id, Quantity: 4}}); err != nil {
		t.Fatal(err)
	}
	verifyCounts(t, svc, id, 10, 0)

	// restock, reserve, release
	q.VerifyCount("PublishInventory", 3, t)

	movements, err := svc.GetMovements(ctx, id, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	wantKinds := []inventory.MovementKind{inventory.MovementRelease, inventory.MovementReserve, inventory.MovementRestock}
	if len(movements) != len(wantKinds) {
		t.Fatalf("unexpected movement count got=%d want=%d", len(movements), len(wantKinds))
	}
	for i, k := range wantKinds {
		if movements[i].Kind != k {
			t.Errorf("unexpected movement kind at %d got=%s want=%s", i, movements[i].Kind, k)
		}
	}
	if movements[1].Available != 6 || movements[1].Reserved != 4 {
		t.Errorf("reserve movement should carry counts after the change got=%+v", movements[1])
	}
}

func TestReserveIsAllOrNothing(t *testing.T) {
	svc, q, _ := newLedger()
	ctx := context.Background()
	a := stockProduct(t, svc, "a", 5)
	b := stockProduct(t, svc, "b", 50)
	published := q.GetCallCount("PublishInventory")

	err := svc.Reserve(ctx, []inventory.StockRequest{{ProductID: a, Quantity: 2}, {ProductID: b, Quantity: 100}})
	if !errors.Is(err, inventory.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got=%v", err)
	}

	se, ok := inventory.AsStockError(err)
	if !ok {
		t.Fatalf("expected a stock error, got=%T", err)
	}
	if len(se.Shortfalls) != 1 {
		t.Fatalf("unexpected shortfalls got=%+v", se.Shortfalls)
	}
	want := inventory.Shortfall{ProductID: b, Requested: 100, Held: 50}
	if se.Shortfalls[0] != want {
		t.Errorf("unexpected shortfall got=%+v want=%+v", se.Shortfalls[0], want)
	}
	if se.Shortfalls[0].Missing() != 50 {
		t.Errorf("unexpected missing got=%d want=50", se.Shortfalls[0].Missing())
	}
	if !se.Recoverable() {
		t.Errorf("insufficient stock should be recoverable")
	}

	verifyCounts(t, svc, a, 5, 0)
	verifyCounts(t, svc, b, 50, 0)
	q.VerifyCount("PublishInventory", published, t)

	movements, err := svc.GetMovements(ctx, a, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(movements) != 1 {
		t.Errorf("rejected batch must not record movements got=%d", len(movements))
	}
}

func TestReserveMergesRepeatedProducts(t *testing.T) {
	svc, _, _ := newLedger()
	ctx := context.Background()
	id := stockProduct(t, svc, "widget", 5)

	err := svc.Reserve(ctx, []inventory.StockRequest{{ProductID: id, Quantity: 3}, {ProductID: id, Quantity: 4}})
	se, ok := inventory.AsStockError(err)
	if !ok {
		t.Fatalf("expected a stock error, got=%v", err)
	}
	if len(se.Shortfalls) != 1 || se.Shortfalls[0].Requested != 7 {
		t.Errorf("repeated products should be checked as one request got=%+v", se.Shortfalls)
	}

	if err := svc.Reserve(ctx, []inventory.StockRequest{{ProductID: id, Quantity: 2}, {ProductID: id, Quantity: 3}}); err != nil {
		t.Fatal(err)
	}
	verifyCounts(t, svc, id, 0, 5)
}

func TestLedgerRejects(t *testing.T) {
	tests := []struct {
		name string
		run  func(svc *inventory.Service, id uint64) error

		wantKind        error
		wantRecoverable bool
	}{
		{
			name: "zero quantity",
			run: func(svc *inventory.Service, id uint64) error {
				return svc.Reserve(context.Background(), []inventory.StockRequest{{ProductID: id, Quantity: 0}})
			},
			wantKind:        inventory.ErrInvalidQuantity,
			wantRecoverable: true,
		},
		{
			name: "negative quantity",
			run: func(svc *inventory.Service, id uint64) error {
				return svc.Release(context.Background(), []inventory.StockRequest{{ProductID: id, Quantity: -1}})
			},
			wantKind:        inventory.ErrInvalidQuantity,
			wantRecoverable: true,
		},
		{
			name: "unknown product",
			run: func(svc *inventory.Service, id uint64) error {
				return svc.Reserve(context.Background(), []inventory.StockRequest{{ProductID: id + 1000, Quantity: 1}})
			},
			wantKind:        inventory.ErrProductNotFound,
			wantRecoverable: true,
		},
		{
			name: "release more than reserved",
			run: func(svc *inventory.Service, id uint64) error {
				return svc.Release(context.Background(), []inventory.StockRequest{{ProductID: id, Quantity: 1}})
			},
			wantKind: inventory.ErrOverRelease,
		},
		{
			name: "finalize more than reserved",
			run: func(svc *inventory.Service, id uint64) error {
				return svc.Finalize(context.Background(), []inventory.StockRequest{{ProductID: id, Quantity: 1}})
			},
			wantKind: inventory.ErrReservedQuantityExceeded,
		},
		{
			name: "merged quantity overflows",
			run: func(svc *inventory.Service, id uint64) error {
				return svc.Reserve(context.Background(), []inventory.StockRequest{
					{ProductID: id, Quantity: math.MaxInt64},
					{ProductID: id, Quantity: math.MaxInt64},
				})
			},
			wantKind:        inventory.ErrInvalidQuantity,
			wantRecoverable: true,
		},
		{
			name: "merged release overflows",
			run: func(svc *inventory.Service, id uint64) error {
				return svc.Release(context.Background(), []inventory.StockRequest{
					{ProductID: id, Quantity: 1},
					{ProductID: id, Quantity: math.MaxInt64},
				})
			},
			wantKind:        inventory.ErrInvalidQuantity,
			wantRecoverable: true,
		},
		{
			name: "restock overflows",
			run: func(svc *inventory.Service, id uint64) error {
				return svc.Restock(context.Background(), id, inventory.RestockRequest{RequestID: "huge", Quantity: math.MaxInt64})
			},
			wantKind:        inventory.ErrInvalidQuantity,
			wantRecoverable: true,
		},
		{
			name: "negative adjust",
			run: func(svc *inventory.Service, id uint64) error {
				return svc.Adjust(context.Background(), id, -1, 2)
			},
			wantKind:        inventory.ErrInvalidQuantity,
			wantRecoverable: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc, _, _ := newLedger()
			id := stockProduct(t, svc, "widget", 10)

			err := test.run(svc, id)
			if !errors.Is(err, test.wantKind) {
				t.Fatalf("unexpected error got=%v want=%v", err, test.wantKind)
			}
			if got := inventory.IsRecoverable(err); got != test.wantRecoverable {
				t.Errorf("unexpected recoverable got=%v want=%v", got, test.wantRecoverable)
			}
			verifyCounts(t, svc, id, 10, 0)
		})
	}
}

func TestFinalizeConsumesReservation(t *testing.T) {
	svc, _, _ := newLedger()
	ctx := context.Background()
	id := stockProduct(t, svc, "widget", 10)

	req := []inventory.StockRequest{{ProductID: id, Quantity: 4}}
	if err := svc.Reserve(ctx, req); err != nil {
		t.Fatal(err)
	}
	if err := svc.Finalize(ctx, req); err != nil {
		t.Fatal(err)
	}
	verifyCounts(t, svc, id, 6, 0)

	if err := svc.Release(ctx, req); !errors.Is(err, inventory.ErrOverRelease) {
		t.Errorf("finalized units must not be released got=%v", err)
	}
	if err := svc.Finalize(ctx, req); !errors.Is(err, inventory.ErrReservedQuantityExceeded) {
		t.Errorf("finalized units must not be finalized twice got=%v", err)
	}
	verifyCounts(t, svc, id, 6, 0)
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name   string
		oldQty int64
		newQty int64

		wantAvailable int64
		wantReserved  int64
		wantErr       error
	}{
		{name: "increase reserves the difference", oldQty: 2, newQty: 5, wantAvailable: 5, wantReserved: 5},
		{name: "decrease releases the difference", oldQty: 2, newQty: 1, wantAvailable: 9, wantReserved: 1},
		{name: "unchanged does nothing", oldQty: 2, newQty: 2, wantAvailable: 8, wantReserved: 2},
		{name: "drop to zero releases everything", oldQty: 2, newQty: 0, wantAvailable: 10, wantReserved: 0},
		{name: "increase beyond stock fails", oldQty: 2, newQty: 11, wantAvailable: 8, wantReserved: 2, wantErr: inventory.ErrInsufficientStock},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc, _, _ := newLedger()
			ctx := context.Background()
			id := stockProduct(t, svc, "widget", 10)
			if err := svc.Reserve(ctx, []inventory.StockRequest{{ProductID: id, Quantity: test.oldQty}}); err != nil {
				t.Fatal(err)
			}

			err := svc.Adjust(ctx, id, test.oldQty, test.newQty)
			if test.wantErr == nil && err != nil {
				t.Fatalf("did not want error, got=%v", err)
			}
			if test.wantErr != nil && !errors.Is(err, test.wantErr) {
				t.Fatalf("unexpected error got=%v want=%v", err, test.wantErr)
			}
			verifyCounts(t, svc, id, test.wantAvailable, test.wantReserved)
		})
	}
}

func TestLedgerJoinsCallerTransaction(t *testing.T) {
	svc, q, store := newLedger()
	ctx := context.Background()
	id := stockProduct(t, svc, "widget", 10)
	published := q.GetCallCount("PublishInventory")

	tx, err := store.BeginTransaction(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Reserve(ctx, []inventory.StockRequest{{ProductID: id, Quantity: 3}}, core.UpdateOptions{Tx: tx}); err != nil {
		t.Fatal(err)
	}
	rec, err := store.GetInventory(ctx, id, core.QueryOptions{Tx: tx})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Available != 7 || rec.Reserved != 3 {
		t.Errorf("reservation should be visible inside the transaction got=%+v", rec)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatal(err)
	}

	verifyCounts(t, svc, id, 10, 0)
	q.VerifyCount("PublishInventory", published, t)
}

func TestEmptyBatchIsNoop(t *testing.T) {
	svc, q, _ := newLedger()
	if err := svc.Reserve(context.Background(), nil); err != nil {
		t.Errorf("did not want error, got=%v", err)
	}
	q.VerifyCount("PublishInventory", 0, t)
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	svc, _, _ := newLedger()
	id := stockProduct(t, svc, "widget", 10)

	var (
		wg        sync.WaitGroup
		succeeded int64
		rejected  int64
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Reserve(context.Background(), []inventory.StockRequest{{ProductID: id, Quantity: 1}})
			switch {
			case err == nil:
				atomic.AddInt64(&succeeded, 1)
			case errors.Is(err, inventory.ErrInsufficientStock):
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 || rejected != 40 {
		t.Errorf("unexpected outcome succeeded=%d rejected=%d", succeeded, rejected)
	}
	verifyCounts(t, svc, id, 0, 10)
}

func TestStockErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *inventory.StockError
		want string
	}{
		{
			name: "no shortfalls",
			err:  &inventory.StockError{Kind: inventory.ErrInsufficientStock},
			want: "insufficient stock",
		},
		{
			name: "insufficient",
			err: &inventory.StockError{Kind: inventory.ErrInsufficientStock, Shortfalls: []inventory.Shortfall{
				{ProductID: 1, Requested: 5, Held: 2}, {ProductID: 2, Requested: 3, Held: 0},
			}},
			want: "insufficient stock: product 1 requested 5 held 2, product 2 requested 3 held 0",
		},
		{
			name: "not found",
			err:  &inventory.StockError{Kind: inventory.ErrProductNotFound, Shortfalls: []inventory.Shortfall{{ProductID: 9}}},
			want: "product not found: product 9",
		},
		{
			name: "invalid quantity",
			err:  &inventory.StockError{Kind: inventory.ErrInvalidQuantity, Shortfalls: []inventory.Shortfall{{ProductID: 3, Requested: -2}}},
			want: "quantity must be greater than zero: product 3 quantity -2",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.err.Error(); got != test.want {
				t.Errorf("unexpected message got=%q want=%q", got, test.want)
			}
		})
	}
}
