package storage

import (
	"context"
	"testing"

	"github.com/goliatone/go-stacked-content/pkg/config"
	"github.com/goliatone/go-stacked-content/pkg/domain"
)

func TestOpenMemory(t *testing.T) {
	providers, closeFn, err := Open(context.Background(), config.PersistenceConfig{Driver: config.DriverMemory}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()
	if providers.ElementTypes == nil || providers.DataTypes == nil || providers.Blueprints == nil {
		t.Fatalf("expected every repository, got %+v", providers)
	}
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	providers, closeFn, err := Open(ctx, config.PersistenceConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:storage_open?mode=memory&cache=shared",
	}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	et := &domain.ElementType{Alias: "hero", Name: "Hero"}
	err = providers.Transaction.WithinTransaction(ctx, func(ctx context.Context) error {
		return providers.ElementTypes.Create(ctx, et)
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := providers.ElementTypes.GetByAlias(ctx, "hero")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != et.ID {
		t.Fatalf("expected id %s, got %s", et.ID, got.ID)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, _, err := Open(context.Background(), config.PersistenceConfig{Driver: "postgres"}, nil); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
