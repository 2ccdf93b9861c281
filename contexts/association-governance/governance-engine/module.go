package governanceengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	httpadapter "agora/contexts/association-governance/governance-engine/adapters/http"
	"agora/contexts/association-governance/governance-engine/adapters/identity"
	"agora/contexts/association-governance/governance-engine/adapters/memory"
	"agora/contexts/association-governance/governance-engine/application"
	"agora/contexts/association-governance/governance-engine/application/amendments"
	"agora/contexts/association-governance/governance-engine/application/ballots"
	"agora/contexts/association-governance/governance-engine/application/elections"
	"agora/contexts/association-governance/governance-engine/application/ledger"
	"agora/contexts/association-governance/governance-engine/application/rules"
	"agora/contexts/association-governance/governance-engine/application/sanctions"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Store is everything a storage adapter must provide to back the module.
type Store interface {
	ports.UnitOfWork
	ports.Repositories
	ports.IdempotencyStore
	ports.ServiceAccountRegistry
}

type Dependencies struct {
	Store          Store
	Identity       ports.IdentityResolver
	Policies       ports.PolicyProvider
	Metrics        ports.Metrics
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	if deps.Policies == nil {
		deps.Policies = ports.StaticPolicy{Policy: entities.DefaultGovernancePolicy()}
	}
	if deps.Metrics == nil {
		deps.Metrics = ports.NoopMetrics{}
	}
	store := deps.Store

	ledgerService := ledger.Service{
		UnitOfWork:      store,
		Associations:    store,
		Memberships:     store,
		ServiceAccounts: store,
		Clock:           deps.Clock,
		IDGen:           deps.IDGen,
		Logger:          deps.Logger,
	}
	ruleService := rules.Service{
		UnitOfWork: store,
		Rules:      store,
		Ledger:     ledgerService,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	box := ballots.Service{
		UnitOfWork: store,
		Rounds:     store,
		Metrics:    deps.Metrics,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Ledger: ledgerService,
			Rules:  ruleService,
			Box:    box,
			Elections: elections.Service{
				UnitOfWork: store,
				Elections:  store,
				Ledger:     ledgerService,
				Box:        box,
				Policies:   deps.Policies,
				Metrics:    deps.Metrics,
				Clock:      deps.Clock,
				IDGen:      deps.IDGen,
				Logger:     deps.Logger,
			},
			Motions: amendments.Service{
				UnitOfWork: store,
				Motions:    store,
				Ledger:     ledgerService,
				Rules:      ruleService,
				Box:        box,
				Policies:   deps.Policies,
				Metrics:    deps.Metrics,
				Clock:      deps.Clock,
				IDGen:      deps.IDGen,
				Logger:     deps.Logger,
			},
			Sanctions: sanctions.Service{
				UnitOfWork: store,
				Reports:    store,
				Sanctions:  store,
				Ledger:     ledgerService,
				Rules:      ruleService,
				Policies:   deps.Policies,
				Metrics:    deps.Metrics,
				Clock:      deps.Clock,
				IDGen:      deps.IDGen,
				Logger:     deps.Logger,
			},
			Identity: deps.Identity,
			Idempotency: application.Idempotency{
				Store:  store,
				Clock:  deps.Clock,
				TTL:    deps.IdempotencyTTL,
				Logger: deps.Logger,
			},
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule backs the module with the in-memory store, the static
// bearer resolver and the default policy. System service accounts are
// registered up front.
func NewInMemoryModule(logger *slog.Logger) (Module, error) {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Store:          store,
		Identity:       identity.StaticResolver{},
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	if err := RegisterServiceAccounts(context.Background(), store, store); err != nil {
		return Module{}, fmt.Errorf("register service accounts: %w", err)
	}
	return module, nil
}

// RegisterServiceAccounts records the system actors. An already registered
// account is not an error.
func RegisterServiceAccounts(ctx context.Context, registry ports.ServiceAccountRegistry, clock ports.Clock) error {
	now := application.NowUTC(clock)
	for _, name := range entities.SystemServiceAccounts {
		err := registry.RegisterServiceAccount(ctx, entities.ServiceAccount{Name: name, RegisteredAt: now})
		if err != nil && !errors.Is(err, domainerrors.ErrServiceAccountExists) {
			return err
		}
	}
	return nil
}
