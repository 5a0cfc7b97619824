package usrrepo_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/go-commerce/db"
	"github.com/sksmith/go-commerce/db/usrrepo"
)

func TestListPagesByUsername(t *testing.T) {
	conn := db.NewMockConn()
	var gotArgs []interface{}
	conn.QueryFunc = func(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
		gotArgs = args
		return nil, errors.New("some unexpected error")
	}
	repo := usrrepo.NewPostgresRepo(conn)

	if _, err := repo.List(context.Background(), 25, 50); err == nil {
		t.Fatalf("expected error, got none")
	}

	statements := conn.Statements()
	if len(statements) != 1 || !strings.Contains(statements[0], "ORDER BY username") {
		t.Fatalf("unexpected statements got=%v", statements)
	}
	if len(gotArgs) != 2 || gotArgs[0] != 25 || gotArgs[1] != 50 {
		t.Errorf("unexpected args got=%v want=[25 50]", gotArgs)
	}
}
