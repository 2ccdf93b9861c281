package ballots

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"agora/contexts/association-governance/governance-engine/adapters/memory"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
)

type mutableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mutableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mutableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newBox(store *memory.Store, clock *mutableClock) Service {
	return Service{UnitOfWork: store, Rounds: store, Clock: clock}
}

func voters(n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("v-%02d", i))
	}
	return out
}

func TestOpenRejectsExistingRound(t *testing.T) {
	ctx := context.Background()
	box := newBox(memory.NewStore(), &mutableClock{now: time.Now().UTC()})
	cmd := OpenCommand{RoundID: "r-1", AssociationID: "assoc-1", Kind: entities.RoundKindProposal, EligibleVoters: voters(3), AllowedChoices: entities.MotionChoices}
	if _, err := box.Open(ctx, cmd); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := box.Open(ctx, cmd); !errors.Is(err, domainerrors.ErrRoundAlreadyOpen) {
		t.Fatalf("expected round already open, got %v", err)
	}
}

func TestCastEnforcesSnapshotChoiceAndSingleBallot(t *testing.T) {
	ctx := context.Background()
	box := newBox(memory.NewStore(), &mutableClock{now: time.Now().UTC()})
	_, _ = box.Open(ctx, OpenCommand{
		RoundID: "r-1", AssociationID: "assoc-1", Kind: entities.RoundKindProposal,
		EligibleVoters: []string{"v-02", "v-01", "v-01"}, AllowedChoices: entities.MotionChoices,
	})

	if _, err := box.Cast(ctx, "r-1", "outsider", entities.ChoiceFor); !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected not eligible, got %v", err)
	}
	if _, err := box.Cast(ctx, "r-1", "v-01", "maybe"); !errors.Is(err, domainerrors.ErrInvalidChoice) {
		t.Fatalf("expected invalid choice, got %v", err)
	}
	if _, err := box.Cast(ctx, "r-1", "v-01", entities.ChoiceFor); err != nil {
		t.Fatalf("first cast: %v", err)
	}
	if _, err := box.Cast(ctx, "r-1", "v-01", entities.ChoiceAgainst); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
}

func TestConcurrentDuplicateBallotsAcceptExactlyOne(t *testing.T) {
	ctx := context.Background()
	box := newBox(memory.NewStore(), &mutableClock{now: time.Now().UTC()})
	_, _ = box.Open(ctx, OpenCommand{
		RoundID: "r-1", AssociationID: "assoc-1", Kind: entities.RoundKindElection,
		EligibleVoters: voters(10), AllowedChoices: []string{"c-1", "c-2"},
	})

	var (
		accepted int32
		rejected int32
		wg       sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			choice := "c-1"
			if i%2 == 0 {
				choice = "c-2"
			}
			_, err := box.Cast(ctx, "r-1", "v-01", choice)
			switch {
			case err == nil:
				atomic.AddInt32(&accepted, 1)
			case errors.Is(err, domainerrors.ErrAlreadyVoted):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if accepted != 1 || rejected != 49 {
		t.Fatalf("expected 1 accepted and 49 rejected, got %d/%d", accepted, rejected)
	}
}

func TestConcurrentCastsNeverExceedSnapshot(t *testing.T) {
	ctx := context.Background()
	box := newBox(memory.NewStore(), &mutableClock{now: time.Now().UTC()})
	eligible := voters(20)
	_, _ = box.Open(ctx, OpenCommand{
		RoundID: "r-1", AssociationID: "assoc-1", Kind: entities.RoundKindProposal,
		EligibleVoters: eligible, AllowedChoices: entities.MotionChoices,
	})

	var wg sync.WaitGroup
	for attempt := 0; attempt < 3; attempt++ {
		for _, voter := range append(eligible, "stranger-1", "stranger-2") {
			wg.Add(1)
			go func(voter string) {
				defer wg.Done()
				_, _ = box.Cast(ctx, "r-1", voter, entities.ChoiceFor)
			}(voter)
		}
	}
	wg.Wait()

	if _, err := box.Close(ctx, "r-1"); err != nil {
		t.Fatalf("close: %v", err)
	}
	tally, err := box.Tally(ctx, "r-1")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if tally.BallotsCast != len(eligible) || tally.Count(entities.ChoiceFor) != len(eligible) {
		t.Fatalf("expected exactly %d ballots, got %+v", len(eligible), tally)
	}
}

func TestTallyIsComputedOnceAndRequiresClosedRound(t *testing.T) {
	ctx := context.Background()
	clock := &mutableClock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	box := newBox(memory.NewStore(), clock)
	_, _ = box.Open(ctx, OpenCommand{
		RoundID: "r-1", AssociationID: "assoc-1", Kind: entities.RoundKindProposal,
		EligibleVoters: voters(4), AllowedChoices: entities.MotionChoices,
	})
	_, _ = box.Cast(ctx, "r-1", "v-01", entities.ChoiceFor)
	_, _ = box.Cast(ctx, "r-1", "v-02", entities.ChoiceAbstain)

	if _, err := box.Tally(ctx, "r-1"); !errors.Is(err, domainerrors.ErrInvariantViolation) {
		t.Fatalf("expected invariant violation for open round, got %v", err)
	}

	_, _ = box.Close(ctx, "r-1")
	if _, err := box.Close(ctx, "r-1"); err != nil {
		t.Fatalf("re-close must be a no-op, got %v", err)
	}
	first, err := box.Tally(ctx, "r-1")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	clock.Advance(time.Hour)
	second, err := box.Tally(ctx, "r-1")
	if err != nil {
		t.Fatalf("second tally: %v", err)
	}
	if !first.ComputedAt.Equal(second.ComputedAt) || first.BallotsCast != second.BallotsCast ||
		first.Count(entities.ChoiceFor) != second.Count(entities.ChoiceFor) {
		t.Fatalf("tally must be cached: %+v vs %+v", first, second)
	}
	if _, err := box.Cast(ctx, "r-1", "v-03", entities.ChoiceFor); !errors.Is(err, domainerrors.ErrRoundClosed) {
		t.Fatalf("expected round closed after tally, got %v", err)
	}
	round, err := box.Results(ctx, "r-1")
	if err != nil || round.State != entities.BoxStateTallied {
		t.Fatalf("expected tallied results, got %+v (%v)", round, err)
	}
}

func TestCastAfterClosingTimeClosesRound(t *testing.T) {
	ctx := context.Background()
	clock := &mutableClock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	box := newBox(store, clock)
	closesAt := clock.Now().Add(time.Hour)
	_, _ = box.Open(ctx, OpenCommand{
		RoundID: "r-1", AssociationID: "assoc-1", Kind: entities.RoundKindProposal,
		EligibleVoters: voters(2), AllowedChoices: entities.MotionChoices, ClosesAt: &closesAt,
	})

	clock.Advance(time.Hour)
	if _, err := box.Cast(ctx, "r-1", "v-01", entities.ChoiceFor); !errors.Is(err, domainerrors.ErrRoundClosed) {
		t.Fatalf("expected round closed at closing time, got %v", err)
	}
	round, _ := store.GetBallotRound(ctx, "r-1")
	if round.State != entities.BoxStateClosed {
		t.Fatalf("expected lazily closed round, got %s", round.State)
	}
	if _, found, _ := store.GetBallot(ctx, "r-1", "v-01"); found {
		t.Fatalf("late ballot must not be stored")
	}
}
