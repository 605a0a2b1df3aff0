package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque storage transaction handle. The postgres implementation passes
// a pgx.Tx; repositories treat nil as "no transaction" and use the pool.
type Tx interface{}

var NoTX Tx

// TransactionManager runs fn inside one database transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
//
// Repositories called with a non-nil tx lock the rows they read for update,
// which is how reconciliation serializes on a payment.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
