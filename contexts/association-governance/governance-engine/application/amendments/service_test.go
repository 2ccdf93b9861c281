package amendments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"agora/contexts/association-governance/governance-engine/adapters/memory"
	"agora/contexts/association-governance/governance-engine/application/ballots"
	"agora/contexts/association-governance/governance-engine/application/ledger"
	"agora/contexts/association-governance/governance-engine/application/rules"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type harness struct {
	store   *memory.Store
	rules   rules.Service
	motions Service
}

func newHarness(t *testing.T, members int) harness {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clock := fixedClock{now: time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC)}
	ledgerSvc := ledger.Service{
		UnitOfWork:      store,
		Associations:    store,
		Memberships:     store,
		ServiceAccounts: store,
		Clock:           clock,
		IDGen:           store,
	}
	rulesSvc := rules.Service{UnitOfWork: store, Rules: store, Ledger: ledgerSvc, Clock: clock, IDGen: store}
	svc := Service{
		UnitOfWork: store,
		Motions:    store,
		Ledger:     ledgerSvc,
		Rules:      rulesSvc,
		Box:        ballots.Service{UnitOfWork: store, Rounds: store, Clock: clock},
		Policies:   ports.StaticPolicy{Policy: entities.DefaultGovernancePolicy()},
		Clock:      clock,
		IDGen:      store,
	}
	if _, err := ledgerSvc.RegisterAssociation(ctx, ledger.RegisterAssociationCommand{
		AssociationID:  "assoc-1",
		Name:           "Allotment Society",
		Location:       entities.Location{Country: "NL", City: "Utrecht"},
		MemberCap:      members,
		FounderID:      "m-01",
		FounderAddress: entities.Address{Location: entities.Location{Country: "NL", City: "Utrecht"}},
	}); err != nil {
		t.Fatalf("register association: %v", err)
	}
	for i := 2; i <= members; i++ {
		if _, err := ledgerSvc.AddMember(ctx, ledger.AddMemberCommand{
			AssociationID: "assoc-1",
			UserID:        fmt.Sprintf("m-%02d", i),
			Address:       entities.Address{Location: entities.Location{Country: "NL", City: "Utrecht"}},
		}); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}
	return harness{store: store, rules: rulesSvc, motions: svc}
}

func (h harness) castAll(t *testing.T, roundID string, choice string, from int, to int) {
	t.Helper()
	for i := from; i <= to; i++ {
		if _, err := h.motions.CastVote(context.Background(), roundID, fmt.Sprintf("m-%02d", i), choice); err != nil {
			t.Fatalf("cast m-%02d: %v", i, err)
		}
	}
}

func TestAmendmentPassesAndPreservesRuleID(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	seeded, err := h.rules.SeedRule(ctx, "m-01", "assoc-1", "Plots must be tended weekly.")
	if err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	motion, err := h.motions.OpenAmendment(ctx, OpenMotionCommand{
		ProposerID:    "m-02",
		AssociationID: "assoc-1",
		TargetRuleID:  seeded.RuleID,
		Text:          "Plots must be tended fortnightly.",
	})
	if err != nil {
		t.Fatalf("open amendment: %v", err)
	}
	h.castAll(t, motion.RoundID, entities.ChoiceFor, 1, 5)
	h.castAll(t, motion.RoundID, entities.ChoiceAgainst, 6, 6)

	resolved, err := h.motions.Resolve(ctx, "m-01", motion.RoundID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Outcome != entities.MotionOutcomePassed || resolved.ResultRuleID != seeded.RuleID {
		t.Fatalf("expected passed amendment on %s, got %+v", seeded.RuleID, resolved)
	}
	rule, err := h.rules.GetRule(ctx, "assoc-1", seeded.RuleID)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if rule.Text != "Plots must be tended fortnightly." || rule.Version != 2 || rule.Position != seeded.Position {
		t.Fatalf("unexpected amended rule: %+v", rule)
	}
	if all, _ := h.rules.ListRules(ctx, "assoc-1"); len(all) != 1 {
		t.Fatalf("amendment must not add rules, got %d", len(all))
	}
}

func TestAmendmentAgainstUnknownRuleFails(t *testing.T) {
	h := newHarness(t, 3)
	_, err := h.motions.OpenAmendment(context.Background(), OpenMotionCommand{
		ProposerID:    "m-02",
		AssociationID: "assoc-1",
		TargetRuleID:  "does-not-exist",
		Text:          "Replacement",
	})
	if !errors.Is(err, domainerrors.ErrNoSuchRule) {
		t.Fatalf("expected no such rule, got %v", err)
	}
}

func TestProposalAppendsRuleWhenPassed(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	_, _ = h.rules.SeedRule(ctx, "m-01", "assoc-1", "Gates close at dusk.")

	motion, err := h.motions.OpenProposal(ctx, OpenMotionCommand{
		ProposerID:    "m-03",
		AssociationID: "assoc-1",
		Text:          "No bonfires.",
	})
	if err != nil {
		t.Fatalf("open proposal: %v", err)
	}
	h.castAll(t, motion.RoundID, entities.ChoiceFor, 1, 3)
	h.castAll(t, motion.RoundID, entities.ChoiceAbstain, 4, 6)

	resolved, err := h.motions.Resolve(ctx, "m-01", motion.RoundID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Outcome != entities.MotionOutcomePassed || resolved.Abstain != 3 {
		t.Fatalf("expected passed proposal with abstentions, got %+v", resolved)
	}
	ruleSet, _ := h.rules.ListRules(ctx, "assoc-1")
	if len(ruleSet) != 2 || ruleSet[1].Text != "No bonfires." || ruleSet[1].Position != 2 || ruleSet[1].RuleID != resolved.ResultRuleID {
		t.Fatalf("unexpected rule set: %+v", ruleSet)
	}
}

func TestFailedMotionRecordsReasonWithoutRuleChange(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	seeded, _ := h.rules.SeedRule(ctx, "m-01", "assoc-1", "Quiet hours after 22:00.")

	cases := []struct {
		name    string
		forTo   int
		against int
		reason  string
	}{
		{"majority not reached", 1, 4, entities.FailureReasonMajorityNotReached},
		{"no quorum", 2, 0, entities.FailureReasonNoQuorum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			motion, err := h.motions.OpenAmendment(ctx, OpenMotionCommand{
				ProposerID: "m-02", AssociationID: "assoc-1", TargetRuleID: seeded.RuleID, Text: "Quiet hours after 20:00.",
			})
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			h.castAll(t, motion.RoundID, entities.ChoiceFor, 1, tc.forTo)
			if tc.against > 0 {
				h.castAll(t, motion.RoundID, entities.ChoiceAgainst, tc.forTo+1, tc.forTo+tc.against)
			}
			resolved, err := h.motions.Resolve(ctx, "m-01", motion.RoundID)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if resolved.Outcome != entities.MotionOutcomeFailed || resolved.FailureReason != tc.reason {
				t.Fatalf("expected failed/%s, got %s/%s", tc.reason, resolved.Outcome, resolved.FailureReason)
			}
			rule, _ := h.rules.GetRule(ctx, "assoc-1", seeded.RuleID)
			if rule.Text != "Quiet hours after 22:00." || rule.Version != 1 {
				t.Fatalf("failed motion must not mutate the rule: %+v", rule)
			}
		})
	}
}

func TestOpenMotionRequiresEligibleProposer(t *testing.T) {
	h := newHarness(t, 3)
	_, err := h.motions.OpenProposal(context.Background(), OpenMotionCommand{
		ProposerID:    "stranger",
		AssociationID: "assoc-1",
		Text:          "Free parking for all.",
	})
	if !errors.Is(err, domainerrors.ErrNotAMember) {
		t.Fatalf("expected not a member, got %v", err)
	}
	if _, err := h.motions.OpenProposal(context.Background(), OpenMotionCommand{ProposerID: "m-02", AssociationID: "assoc-1"}); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for empty text, got %v", err)
	}
}

func TestMotionRejectsUnknownChoice(t *testing.T) {
	h := newHarness(t, 3)
	motion, err := h.motions.OpenProposal(context.Background(), OpenMotionCommand{ProposerID: "m-02", AssociationID: "assoc-1", Text: "Compost bins."})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := h.motions.CastVote(context.Background(), motion.RoundID, "m-03", "yes please"); !errors.Is(err, domainerrors.ErrInvalidChoice) {
		t.Fatalf("expected invalid choice, got %v", err)
	}
}

func TestAbortRequiresBoardActorAndIsTerminal(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	seeded, _ := h.rules.SeedRule(ctx, "m-01", "assoc-1", "Sheds stay locked overnight.")
	motion, err := h.motions.OpenAmendment(ctx, OpenMotionCommand{
		ProposerID: "m-02", AssociationID: "assoc-1", TargetRuleID: seeded.RuleID, Text: "Sheds may stay open.",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	h.castAll(t, motion.RoundID, entities.ChoiceFor, 1, 6)

	if _, err := h.motions.Abort(ctx, "m-02", motion.RoundID, "withdrawn"); !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected non-board abort to be rejected, got %v", err)
	}
	aborted, err := h.motions.Abort(ctx, "m-01", motion.RoundID, "  withdrawn by proposer  ")
	if err != nil {
		t.Fatalf("abort: %v", err)
	}
	if aborted.State != entities.RoundStateAborted || aborted.AbortReason != "withdrawn by proposer" {
		t.Fatalf("unexpected aborted motion: %+v", aborted)
	}
	if again, err := h.motions.Abort(ctx, "m-01", motion.RoundID, "again"); err != nil || again.AbortReason != "withdrawn by proposer" {
		t.Fatalf("second abort must return the stored motion, got %+v (%v)", again, err)
	}

	_, err = h.motions.CastVote(ctx, motion.RoundID, "m-07", entities.ChoiceFor)
	if !errors.Is(err, domainerrors.ErrRoundClosed) || !errors.Is(err, domainerrors.ErrRoundAborted) {
		t.Fatalf("expected round closed wrapping round aborted, got %v", err)
	}
	if _, err := h.motions.Resolve(ctx, "m-01", motion.RoundID); !errors.Is(err, domainerrors.ErrRoundAborted) {
		t.Fatalf("expected resolve of aborted motion to fail, got %v", err)
	}
	rule, _ := h.rules.GetRule(ctx, "assoc-1", seeded.RuleID)
	if rule.Text != "Sheds stay locked overnight." || rule.Version != 1 {
		t.Fatalf("aborted motion must not mutate the rule: %+v", rule)
	}
}

func TestAbortScheduledMotionSkipsBallotBox(t *testing.T) {
	h := newHarness(t, 4)
	ctx := context.Background()
	opensAt := time.Date(2026, 4, 9, 18, 30, 0, 0, time.UTC)
	motion, err := h.motions.OpenProposal(ctx, OpenMotionCommand{
		ProposerID: "m-02", AssociationID: "assoc-1", Text: "Shared tool library.", OpensAt: &opensAt,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if motion.State != entities.RoundStateScheduled {
		t.Fatalf("expected scheduled motion, got %s", motion.State)
	}
	aborted, err := h.motions.Abort(ctx, "m-01", motion.RoundID, "")
	if err != nil || aborted.State != entities.RoundStateAborted {
		t.Fatalf("abort scheduled motion: %+v (%v)", aborted, err)
	}
	if again, err := h.motions.Activate(ctx, motion.RoundID); err != nil || again.State != entities.RoundStateAborted {
		t.Fatalf("aborted motion must not activate, got %s (%v)", again.State, err)
	}
	if all, _ := h.rules.ListRules(ctx, "assoc-1"); len(all) != 0 {
		t.Fatalf("aborted proposal must not add rules, got %d", len(all))
	}
}
