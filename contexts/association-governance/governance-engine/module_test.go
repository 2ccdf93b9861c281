package governanceengine

import (
	"context"
	"errors"
	"testing"

	"agora/contexts/association-governance/governance-engine/adapters/memory"
	"agora/contexts/association-governance/governance-engine/domain/entities"
)

type brokenRegistry struct{ err error }

func (r brokenRegistry) RegisterServiceAccount(context.Context, entities.ServiceAccount) error {
	return r.err
}

func (r brokenRegistry) IsServiceAccount(context.Context, string) (bool, error) {
	return false, r.err
}

func TestRegisterServiceAccountsIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	for i := 0; i < 2; i++ {
		if err := RegisterServiceAccounts(ctx, store, store); err != nil {
			t.Fatalf("register pass %d: %v", i, err)
		}
	}
	for _, name := range entities.SystemServiceAccounts {
		if ok, err := store.IsServiceAccount(ctx, name); err != nil || !ok {
			t.Fatalf("expected %s registered, got %v (%v)", name, ok, err)
		}
	}
}

func TestRegisterServiceAccountsSurfacesRegistryFailure(t *testing.T) {
	down := errors.New("registry down")
	if err := RegisterServiceAccounts(context.Background(), brokenRegistry{err: down}, memory.NewStore()); !errors.Is(err, down) {
		t.Fatalf("expected registry failure, got %v", err)
	}
}

func TestNewInMemoryModuleRegistersSystemActors(t *testing.T) {
	module, err := NewInMemoryModule(nil)
	if err != nil {
		t.Fatalf("in-memory module: %v", err)
	}
	ok, err := module.Store.IsServiceAccount(context.Background(), entities.ServiceAccountScheduler)
	if err != nil || !ok {
		t.Fatalf("scheduler account missing: %v (%v)", ok, err)
	}
}
