package aggregates

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
	"github.com/yungbote/breadlog-backend/internal/observability"
	"github.com/yungbote/breadlog-backend/internal/platform/dbctx"
)

// TxRunner is the transaction boundary for aggregate writes. The body
// commits when it returns nil and rolls back otherwise. Failures are never
// retried; the caller sees the first error.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	ctx, span := observability.StartSpan(ctx, "db.transaction",
		attribute.String("db.system", r.db.Dialector.Name()),
	)
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
	outcome := "commit"
	if err != nil {
		outcome = "rollback"
	}
	span.SetAttributes(attribute.String("db.transaction.outcome", outcome))
	return err
}
