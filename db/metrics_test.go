package db

import (
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sksmith/go-commerce/core"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "success", want: "ok"},
		{name: "no rows", err: errors.WithStack(pgx.ErrNoRows), want: "not_found"},
		{name: "not found", err: errors.WithStack(core.ErrNotFound), want: "not_found"},
		{name: "unique violation", err: errors.WithStack(&pgconn.PgError{Code: "23505"}), want: "duplicate"},
		{name: "other postgres error", err: &pgconn.PgError{Code: "23503"}, want: "error"},
		{name: "connection error", err: errors.New("connection reset"), want: "error"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := outcome(test.err); got != test.want {
				t.Errorf("unexpected outcome got=%s want=%s", got, test.want)
			}
		})
	}
}

func TestCompleteCountsByOutcome(t *testing.T) {
	StartMetric("TestReserveStock").Complete(nil)
	StartMetric("TestReserveStock").Complete(nil)
	StartMetric("TestReserveStock").Complete(core.ErrNotFound)

	if got := testutil.ToFloat64(queriesTotal.WithLabelValues("TestReserveStock", "ok")); got != 2 {
		t.Errorf("unexpected ok count got=%v want=2", got)
	}
	if got := testutil.ToFloat64(queriesTotal.WithLabelValues("TestReserveStock", "not_found")); got != 1 {
		t.Errorf("unexpected not found count got=%v want=1", got)
	}
}
