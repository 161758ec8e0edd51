package database

import "context"

type txKey struct{}

type txInfo struct {
	tx    Transaction
	owned bool
}

// WithTx stores a transaction in the context. owned marks the unit of work
// that must commit or roll it back.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, txInfo{tx: tx, owned: owned})
}

// TxFromContext returns the transaction stored in ctx, if any.
func TxFromContext(ctx context.Context) Transaction {
	info, ok := ctx.Value(txKey{}).(txInfo)
	if !ok {
		return nil
	}
	return info.tx
}

// ExecutorFromContext returns the active transaction, falling back to conn.
func ExecutorFromContext(ctx context.Context, conn Executor) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}

func ownedTx(ctx context.Context) (Transaction, bool, error) {
	info, ok := ctx.Value(txKey{}).(txInfo)
	if !ok || info.tx == nil {
		return nil, false, ErrNoTransaction
	}
	return info.tx, info.owned, nil
}
