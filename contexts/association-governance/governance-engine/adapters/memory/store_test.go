package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"
)

func TestWithinAssociationRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	if err := store.SaveAssociation(ctx, entities.Association{AssociationID: "assoc-1", Name: "Harbour", MemberCap: 5}); err != nil {
		t.Fatalf("seed association: %v", err)
	}

	boom := errors.New("boom")
	err := store.WithinAssociation(ctx, "assoc-1", func(ctx context.Context, repos ports.Repositories) error {
		if err := repos.SaveMembership(ctx, entities.Membership{
			AssociationID: "assoc-1", UserID: "m-1", Status: entities.MembershipStatusActive, InGoodStanding: true, JoinedAt: now,
		}); err != nil {
			return err
		}
		if err := repos.CreateBallotRound(ctx, entities.BallotRound{RoundID: "r-1", AssociationID: "assoc-1", State: entities.BoxStateOpen}); err != nil {
			return err
		}
		if err := repos.InsertBallot(ctx, entities.Ballot{RoundID: "r-1", VoterID: "m-1", Choice: "for", CastAt: now}); err != nil {
			return err
		}
		if err := repos.AppendOutbox(ctx, ports.EventEnvelope{EventID: "evt-1", EventType: "governance.round.aborted", OccurredAt: now}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, found, _ := store.GetMembership(ctx, "assoc-1", "m-1"); found {
		t.Fatalf("membership must be rolled back")
	}
	if _, err := store.GetBallotRound(ctx, "r-1"); !errors.Is(err, domainerrors.ErrRoundNotFound) {
		t.Fatalf("ballot round must be rolled back, got %v", err)
	}
	if _, found, _ := store.GetBallot(ctx, "r-1", "m-1"); found {
		t.Fatalf("ballot must be rolled back")
	}
	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("outbox must be rolled back, got %d rows", len(pending))
	}
}

func TestWithinAssociationRestoresOverwrittenRows(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	original := entities.Membership{AssociationID: "assoc-1", UserID: "m-1", Status: entities.MembershipStatusActive, InGoodStanding: true}
	_ = store.SaveMembership(ctx, original)

	_ = store.WithinAssociation(ctx, "assoc-1", func(ctx context.Context, repos ports.Repositories) error {
		updated := original
		updated.Board = true
		_ = repos.SaveMembership(ctx, updated)
		updated.InGoodStanding = false
		_ = repos.SaveMembership(ctx, updated)
		return domainerrors.ErrConflict
	})

	got, _, _ := store.GetMembership(ctx, "assoc-1", "m-1")
	if got != original {
		t.Fatalf("expected original membership after rollback, got %+v", got)
	}
}

func TestInsertBallotRejectsDuplicateVoter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ballot := entities.Ballot{RoundID: "r-1", VoterID: "m-1", Choice: "for"}
	if err := store.InsertBallot(ctx, ballot); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := store.InsertBallot(ctx, ballot); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
}

func TestGetBallotRoundReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateBallotRound(ctx, entities.BallotRound{
		RoundID:        "r-1",
		AssociationID:  "assoc-1",
		EligibleVoters: []string{"a", "b"},
		Tally:          &entities.Tally{Counts: map[string]int{"a": 1}},
	})
	round, _ := store.GetBallotRound(ctx, "r-1")
	round.EligibleVoters[0] = "z"
	round.Tally.Counts["a"] = 99

	again, _ := store.GetBallotRound(ctx, "r-1")
	if again.EligibleVoters[0] != "a" || again.Tally.Counts["a"] != 1 {
		t.Fatalf("stored round was mutated through a returned copy: %+v", again)
	}
}

func TestRegisterServiceAccountIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if err := store.RegisterServiceAccount(ctx, entities.ServiceAccount{Name: "governance-scheduler"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := store.RegisterServiceAccount(ctx, entities.ServiceAccount{Name: "governance-scheduler"}); !errors.Is(err, domainerrors.ErrServiceAccountExists) {
		t.Fatalf("expected duplicate registration error, got %v", err)
	}
	ok, _ := store.IsServiceAccount(ctx, "governance-scheduler")
	if !ok {
		t.Fatalf("expected registered service account")
	}
}
