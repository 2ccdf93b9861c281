package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/association-governance/governance-engine/adapters/memory"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func newLedger(store *memory.Store) Service {
	return Service{
		UnitOfWork:      store,
		Associations:    store,
		Memberships:     store,
		ServiceAccounts: store,
		Clock:           fixedClock{now: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)},
		IDGen:           store,
	}
}

func lisbon() entities.Address {
	return entities.Address{Location: entities.Location{Country: "PT", City: "Lisbon"}, Street: "Rua Augusta 10"}
}

func TestAddMemberEnforcesCapacity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newLedger(store)
	if _, err := svc.RegisterAssociation(ctx, RegisterAssociationCommand{
		AssociationID: "assoc-1",
		Name:          "Harbour Rowing Club",
		Location:      lisbon().Location,
		MemberCap:     2,
	}); err != nil {
		t.Fatalf("register association: %v", err)
	}

	for _, userID := range []string{"u-1", "u-2"} {
		if _, err := svc.AddMember(ctx, AddMemberCommand{AssociationID: "assoc-1", UserID: userID, Address: lisbon()}); err != nil {
			t.Fatalf("add %s: %v", userID, err)
		}
	}
	_, err := svc.AddMember(ctx, AddMemberCommand{AssociationID: "assoc-1", UserID: "u-3", Address: lisbon()})
	if !errors.Is(err, domainerrors.ErrCapacityExceeded) {
		t.Fatalf("expected capacity exceeded, got %v", err)
	}
	if _, found, _ := store.GetMembership(ctx, "assoc-1", "u-3"); found {
		t.Fatalf("rejected member must not be stored")
	}
	members, err := svc.ListMembers(ctx, "assoc-1")
	if err != nil || len(members) != 2 {
		t.Fatalf("expected two members, got %d (%v)", len(members), err)
	}
}

func TestAddMemberRejectsDuplicatesAndReactivatesLeftMembers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newLedger(store)
	_, _ = svc.RegisterAssociation(ctx, RegisterAssociationCommand{
		AssociationID: "assoc-1", Name: "Harbour", Location: lisbon().Location, MemberCap: 3,
	})
	if _, err := svc.AddMember(ctx, AddMemberCommand{AssociationID: "assoc-1", UserID: "u-1", Address: lisbon()}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddMember(ctx, AddMemberCommand{AssociationID: "assoc-1", UserID: "u-1", Address: lisbon()}); !errors.Is(err, domainerrors.ErrAlreadyMember) {
		t.Fatalf("expected already member, got %v", err)
	}
	if err := svc.SetBoardStatus(ctx, "assoc-1", "u-1", true); err != nil {
		t.Fatalf("set board: %v", err)
	}
	if err := svc.RemoveMember(ctx, "assoc-1", "u-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if eligible, _ := svc.IsEligibleVoter(ctx, "assoc-1", "u-1"); eligible {
		t.Fatalf("a member who left must not be eligible")
	}
	if err := svc.RemoveMember(ctx, "assoc-1", "u-1"); !errors.Is(err, domainerrors.ErrNotAMember) {
		t.Fatalf("expected not a member on second removal, got %v", err)
	}

	rejoined, err := svc.AddMember(ctx, AddMemberCommand{AssociationID: "assoc-1", UserID: "u-1", Address: lisbon()})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if rejoined.Board || !rejoined.InGoodStanding || rejoined.LeftAt != nil {
		t.Fatalf("rejoined membership must start fresh: %+v", rejoined)
	}
}

func TestAddMemberValidatesInput(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newLedger(store)
	if _, err := svc.AddMember(ctx, AddMemberCommand{AssociationID: "missing", UserID: "u-1", Address: lisbon()}); !errors.Is(err, domainerrors.ErrAssociationNotFound) {
		t.Fatalf("expected association not found, got %v", err)
	}
	if _, err := svc.AddMember(ctx, AddMemberCommand{AssociationID: "missing", UserID: "u-1"}); !errors.Is(err, domainerrors.ErrMalformedAddress) {
		t.Fatalf("expected malformed address, got %v", err)
	}
	if _, err := svc.AddMember(ctx, AddMemberCommand{UserID: "u-1", Address: lisbon()}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestBoardActorAndMemberCap(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newLedger(store)
	_, err := svc.RegisterAssociation(ctx, RegisterAssociationCommand{
		AssociationID:  "assoc-1",
		Name:           "Harbour",
		Location:       lisbon().Location,
		MemberCap:      3,
		FounderID:      "founder",
		FounderAddress: lisbon(),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if board, _ := svc.IsBoardMember(ctx, "assoc-1", "founder"); !board {
		t.Fatalf("founder must hold a board seat")
	}
	_, _ = svc.AddMember(ctx, AddMemberCommand{AssociationID: "assoc-1", UserID: "u-1", Address: lisbon()})
	_, _ = svc.AddMember(ctx, AddMemberCommand{AssociationID: "assoc-1", UserID: "u-2", Address: lisbon()})

	if _, err := svc.SetMemberCap(ctx, "u-1", "assoc-1", 10); !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected non-board actor rejection, got %v", err)
	}
	if _, err := svc.SetMemberCap(ctx, "founder", "assoc-1", 2); !errors.Is(err, domainerrors.ErrCapacityExceeded) {
		t.Fatalf("expected cap below active count to fail, got %v", err)
	}
	updated, err := svc.SetMemberCap(ctx, "founder", "assoc-1", 4)
	if err != nil || updated.MemberCap != 4 {
		t.Fatalf("expected cap 4, got %+v (%v)", updated, err)
	}
}

func TestExpelledMemberCannotRejoin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newLedger(store)
	_, _ = svc.RegisterAssociation(ctx, RegisterAssociationCommand{
		AssociationID: "assoc-1", Name: "Harbour", Location: lisbon().Location, MemberCap: 3,
	})
	_, _ = svc.AddMember(ctx, AddMemberCommand{AssociationID: "assoc-1", UserID: "u-1", Address: lisbon()})
	if err := svc.ExpelIn(ctx, store, "assoc-1", "u-1"); err != nil {
		t.Fatalf("expel: %v", err)
	}
	if _, err := svc.AddMember(ctx, AddMemberCommand{AssociationID: "assoc-1", UserID: "u-1", Address: lisbon()}); !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected not eligible for expelled rejoin, got %v", err)
	}
}
