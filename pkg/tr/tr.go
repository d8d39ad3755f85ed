package tr

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

type txKey struct{}

// WithTx кладёт транзакцию в контекст.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromCtx извлекает объект транзакции (pgx.Tx) из контекста
func TxFromCtx(ctx context.Context) (pgx.Tx, error) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok || tx == nil {
		return nil, e.ErrTransactionNotFound
	}
	return tx, nil
}

// Manager открывает транзакции PostgreSQL и гарантирует commit/rollback.
type Manager struct {
	db          transaction.Transactional
	timeout     time.Duration
	lockTimeout time.Duration
	logger      logger.Logger
}

func NewManager(db transaction.Transactional, timeout, lockTimeout time.Duration, logger logger.Logger) *Manager {
	return &Manager{
		db:          db,
		timeout:     timeout,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// Do выполняет fn в одной транзакции. Если в контексте уже есть транзакция, fn выполняется в ней.
// Любая ошибка fn или паника приводят к полному откату.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "tr.Manager.Do"

	if _, txErr := TxFromCtx(ctx); txErr == nil {
		return fn(ctx)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, m.db)
	if err != nil {
		return e.Wrap(op, err)
	}
	// При ошибке или панике откатываем транзакцию
	defer func() {
		p := recover()
		if (err != nil || p != nil) && tx.IsActive() {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				m.logger.Warnf("%s: rollback failed: %v", op, rbErr)
			}
		}
		if p != nil {
			panic(p)
		}
	}()

	pgxTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		return e.Wrap(op, e.ErrTransactionNotFound)
	}
	ctx = WithTx(ctx, pgxTx)

	if m.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
		if _, err = pgxTx.Exec(ctx, stmt); err != nil {
			return e.Wrap(op, err)
		}
	}

	if err = fn(ctx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}
