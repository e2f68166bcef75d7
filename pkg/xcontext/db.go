package xcontext

import (
	"context"

	"gorm.io/gorm"
)

type dbTx struct {
	tx       *gorm.DB
	finished bool
}

// DB returns the running transaction if the context carries one, otherwise
// the root database handle.
func DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(dbTxKey{}).(*dbTx); ok && !tx.finished {
		return tx.tx.WithContext(ctx)
	}

	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok {
		panic("database is not set in context")
	}

	return db.WithContext(ctx)
}

func WithDBTransaction(ctx context.Context) context.Context {
	tx := DB(ctx).Begin()
	return context.WithValue(ctx, dbTxKey{}, &dbTx{tx: tx})
}

func WithCommitDBTransaction(ctx context.Context) error {
	tx, ok := ctx.Value(dbTxKey{}).(*dbTx)
	if !ok || tx.finished {
		return nil
	}

	tx.finished = true
	return tx.tx.Commit().Error
}

// WithRollbackDBTransaction is safe to defer: it does nothing once the
// transaction has been committed.
func WithRollbackDBTransaction(ctx context.Context) {
	tx, ok := ctx.Value(dbTxKey{}).(*dbTx)
	if !ok || tx.finished {
		return
	}

	tx.finished = true
	tx.tx.Rollback()
}
