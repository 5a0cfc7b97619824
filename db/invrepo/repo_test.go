package invrepo_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/db"
	"github.com/sksmith/go-commerce/db/invrepo"
)

func TestSaveRestockEvent(t *testing.T) {
	tests := []struct {
		name    string
		scanErr error
		wantErr error
	}{
		{name: "event is saved"},
		{name: "repeated request id is a duplicate", scanErr: &pgconn.PgError{Code: "23505"}, wantErr: core.ErrDuplicate},
		{name: "other errors pass through", scanErr: &pgconn.PgError{Code: "23503"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conn := db.NewMockConn()
			conn.QueryRowFunc = func(ctx context.Context, sql string, args ...interface{}) pgx.Row {
				return db.MockRow{Err: test.scanErr, ScanFunc: func(dest ...interface{}) error {
					*dest[0].(*uint64) = 12
					return nil
				}}
			}
			repo := invrepo.NewPostgresRepo(conn)

			event := &inventory.RestockEvent{RequestID: "somerequestid", ProductID: 1, Quantity: 5}
			err := repo.SaveRestockEvent(context.Background(), event)

			switch {
			case test.scanErr == nil:
				if err != nil {
					t.Fatalf("did not want error, got=%v", err)
				}
				if event.ID != 12 {
					t.Errorf("unexpected id got=%d want=12", event.ID)
				}
			case test.wantErr != nil:
				if !errors.Is(err, test.wantErr) {
					t.Errorf("unexpected error got=%v want=%v", err, test.wantErr)
				}
			default:
				if err == nil || errors.Is(err, core.ErrDuplicate) {
					t.Errorf("unexpected error got=%v", err)
				}
			}
			conn.VerifyCount("QueryRow", 1, t)
		})
	}
}

func TestGetAllProductsRunsInTransaction(t *testing.T) {
	conn := db.NewMockConn()
	tx := db.NewMockTransaction()
	var gotArgs []interface{}
	tx.QueryFunc = func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
		gotArgs = args
		return nil, errors.New("some unexpected error")
	}
	repo := invrepo.NewPostgresRepo(conn)

	filter := inventory.ProductFilter{Category: "tools", InStockOnly: true, Sort: inventory.SortByName}
	_, err := repo.GetAllProducts(context.Background(), filter, 5, 10, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err == nil {
		t.Fatalf("expected error, got none")
	}

	if len(conn.Statements()) != 0 {
		t.Errorf("pool should not be used got=%v", conn.Statements())
	}
	statements := tx.Statements()
	if len(statements) != 1 {
		t.Fatalf("unexpected statements got=%v", statements)
	}
	for _, want := range []string{"lower(category) = lower($1)", "i.available > 0", "ORDER BY name ASC", "FOR UPDATE"} {
		if !strings.Contains(statements[0], want) {
			t.Errorf("statement missing %q got=%s", want, statements[0])
		}
	}
	wantArgs := []interface{}{"tools", 5, 10}
	if len(gotArgs) != len(wantArgs) {
		t.Fatalf("unexpected args got=%v want=%v", gotArgs, wantArgs)
	}
	for i := range wantArgs {
		if gotArgs[i] != wantArgs[i] {
			t.Errorf("unexpected arg %d got=%v want=%v", i, gotArgs[i], wantArgs[i])
		}
	}
}
