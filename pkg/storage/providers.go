package storage

import (
	"context"
	"database/sql"

	persistence "github.com/goliatone/go-persistence-bun"
	bunrepo "github.com/goliatone/go-stacked-content/internal/storage/bun"
	"github.com/goliatone/go-stacked-content/internal/storage/memory"
	"github.com/goliatone/go-stacked-content/pkg/domain"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/store"
	"github.com/uptrace/bun"
)

// Providers exposes all repositories needed by services.
type Providers struct {
	ElementTypes store.ElementTypeRepository
	DataTypes    store.DataTypeRepository
	Blueprints   store.BlueprintRepository
	Transaction  store.TransactionManager
}

type Option func(*Providers)

// WithTransactionManager overrides the transaction manager.
func WithTransactionManager(tx store.TransactionManager) Option {
	return func(p *Providers) {
		if tx != nil {
			p.Transaction = tx
		}
	}
}

// NewMemoryProviders returns repositories backed by in-memory maps.
func NewMemoryProviders(opts ...Option) Providers {
	providers := Providers{
		ElementTypes: memory.NewElementTypeRepository(),
		DataTypes:    memory.NewDataTypeRepository(),
		Blueprints:   memory.NewBlueprintRepository(),
		Transaction:  &store.NopTransactionManager{},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// Models lists the persisted entities in creation order.
func Models() []any {
	return []any{
		(*domain.DataType)(nil),
		(*domain.ElementType)(nil),
		(*domain.Blueprint)(nil),
	}
}

// NewBunProviders wires Bun-backed repositories using go-repository-bun.
// The caller is responsible for creating the *bun.DB instance (potentially
// via go-persistence-bun) and managing its lifecycle.
func NewBunProviders(db *bun.DB, opts ...Option) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel(Models()...)

	providers := Providers{
		ElementTypes: bunrepo.NewElementTypeRepository(db),
		DataTypes:    bunrepo.NewDataTypeRepository(db),
		Blueprints:   bunrepo.NewBlueprintRepository(db),
		Transaction:  &bunTxManager{db: db},
	}

	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// CreateSchema creates missing tables for every model.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

type bunTxManager struct {
	db *bun.DB
}

func (m *bunTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx)
	})
}
