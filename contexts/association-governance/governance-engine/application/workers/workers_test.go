package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"agora/contexts/association-governance/governance-engine/adapters/memory"
	application "agora/contexts/association-governance/governance-engine/application"
	"agora/contexts/association-governance/governance-engine/application/amendments"
	"agora/contexts/association-governance/governance-engine/application/ballots"
	"agora/contexts/association-governance/governance-engine/application/elections"
	"agora/contexts/association-governance/governance-engine/application/ledger"
	"agora/contexts/association-governance/governance-engine/application/rules"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	"agora/contexts/association-governance/governance-engine/ports"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

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

type stubPublisher struct {
	mu     sync.Mutex
	topics []string
	fail   error
}

func (p *stubPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.topics = append(p.topics, topic)
	return nil
}

type stubSubscriber struct {
	handlers map[string]func(context.Context, ports.EventEnvelope) error
}

func (s *stubSubscriber) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	if s.handlers == nil {
		s.handlers = map[string]func(context.Context, ports.EventEnvelope) error{}
	}
	s.handlers[topic] = handler
	return nil
}

type fixture struct {
	store     *memory.Store
	clock     *mutableClock
	elections elections.Service
	motions   amendments.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clock := &mutableClock{now: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)}
	ledgerSvc := ledger.Service{
		UnitOfWork:      store,
		Associations:    store,
		Memberships:     store,
		ServiceAccounts: store,
		Clock:           clock,
		IDGen:           store,
	}
	box := ballots.Service{UnitOfWork: store, Rounds: store, Clock: clock}
	policies := ports.StaticPolicy{Policy: entities.DefaultGovernancePolicy()}
	f := fixture{
		store: store,
		clock: clock,
		elections: elections.Service{
			UnitOfWork: store,
			Elections:  store,
			Ledger:     ledgerSvc,
			Box:        box,
			Policies:   policies,
			Clock:      clock,
			IDGen:      store,
		},
		motions: amendments.Service{
			UnitOfWork: store,
			Motions:    store,
			Ledger:     ledgerSvc,
			Rules:      rules.Service{UnitOfWork: store, Rules: store, Ledger: ledgerSvc, Clock: clock, IDGen: store},
			Box:        box,
			Policies:   policies,
			Clock:      clock,
			IDGen:      store,
		},
	}
	if err := store.RegisterServiceAccount(ctx, entities.ServiceAccount{Name: entities.ServiceAccountScheduler}); err != nil {
		t.Fatalf("register scheduler: %v", err)
	}
	if _, err := ledgerSvc.RegisterAssociation(ctx, ledger.RegisterAssociationCommand{
		AssociationID:  "assoc-1",
		Name:           "Neighbourhood Cooperative",
		Location:       entities.Location{Country: "FR", City: "Lyon"},
		MemberCap:      10,
		FounderID:      "1",
		FounderAddress: entities.Address{Location: entities.Location{Country: "FR", City: "Lyon"}},
	}); err != nil {
		t.Fatalf("register association: %v", err)
	}
	for i := 2; i <= 4; i++ {
		if _, err := ledgerSvc.AddMember(ctx, ledger.AddMemberCommand{
			AssociationID: "assoc-1",
			UserID:        fmt.Sprintf("%d", i),
			Address:       entities.Address{Location: entities.Location{Country: "FR", City: "Lyon"}},
		}); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}
	return f
}

func (f fixture) sweeper(autoResolve bool) RoundSweeper {
	return RoundSweeper{
		Elections:   f.store,
		Motions:     f.store,
		ElectionSvc: f.elections,
		MotionSvc:   f.motions,
		Clock:       f.clock,
		AutoResolve: autoResolve,
	}
}

func TestRoundSweeperActivatesClosesAndResolves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opensAt := f.clock.Now().Add(time.Hour)
	closesAt := f.clock.Now().Add(3 * time.Hour)
	election, err := f.elections.OpenElection(ctx, elections.OpenElectionCommand{
		ActorID:       entities.ServiceAccountScheduler,
		AssociationID: "assoc-1",
		Seat:          "treasurer",
		Candidates:    []string{"2", "3"},
		OpensAt:       &opensAt,
		ClosesAt:      &closesAt,
	})
	if err != nil {
		t.Fatalf("open election: %v", err)
	}
	motion, err := f.motions.OpenProposal(ctx, amendments.OpenMotionCommand{
		ProposerID:    "2",
		AssociationID: "assoc-1",
		Text:          "Quiet hours start at 22:00.",
		ClosesAt:      &closesAt,
	})
	if err != nil {
		t.Fatalf("open proposal: %v", err)
	}

	report, err := f.sweeper(false).RunOnce(ctx)
	if err != nil || report.Activated != 0 || report.Closed != 0 {
		t.Fatalf("nothing is due yet, got %+v (%v)", report, err)
	}

	f.clock.Advance(time.Hour)
	report, err = f.sweeper(false).RunOnce(ctx)
	if err != nil || report.Activated != 1 {
		t.Fatalf("expected one activation, got %+v (%v)", report, err)
	}
	for _, voter := range []string{"1", "2", "3"} {
		if _, err := f.elections.CastVote(ctx, election.RoundID, voter, "3"); err != nil {
			t.Fatalf("cast election vote: %v", err)
		}
		if _, err := f.motions.CastVote(ctx, motion.RoundID, voter, entities.ChoiceFor); err != nil {
			t.Fatalf("cast motion vote: %v", err)
		}
	}

	f.clock.Advance(2 * time.Hour)
	report, err = f.sweeper(false).RunOnce(ctx)
	if err != nil || report.Closed != 2 || report.Resolved != 0 {
		t.Fatalf("expected both rounds closed, got %+v (%v)", report, err)
	}

	report, err = f.sweeper(true).RunOnce(ctx)
	if err != nil || report.Resolved != 2 {
		t.Fatalf("expected both rounds resolved, got %+v (%v)", report, err)
	}
	resolved, _ := f.elections.GetElection(ctx, election.RoundID)
	if resolved.State != entities.RoundStateResolved || resolved.WinnerID != "3" {
		t.Fatalf("expected candidate 3 elected, got %+v", resolved)
	}
	passed, _ := f.motions.GetMotion(ctx, motion.RoundID)
	if passed.Outcome != entities.MotionOutcomePassed {
		t.Fatalf("expected motion passed, got %+v", passed)
	}

	report, err = f.sweeper(true).RunOnce(ctx)
	if err != nil || report != (SweepReport{}) {
		t.Fatalf("resolved rounds must not be swept again, got %+v (%v)", report, err)
	}
}

func TestRoundSweeperReachesDueRoundsBehindLongRunningOnes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	farAway := f.clock.Now().Add(30 * 24 * time.Hour)
	for i := 0; i < 3; i++ {
		if _, err := f.motions.OpenProposal(ctx, amendments.OpenMotionCommand{
			ProposerID:    "2",
			AssociationID: "assoc-1",
			Text:          fmt.Sprintf("Long running proposal %d", i),
			ClosesAt:      &farAway,
		}); err != nil {
			t.Fatalf("open long proposal: %v", err)
		}
		f.clock.Advance(time.Minute)
	}
	soon := f.clock.Now().Add(time.Hour)
	due, err := f.motions.OpenProposal(ctx, amendments.OpenMotionCommand{
		ProposerID:    "3",
		AssociationID: "assoc-1",
		Text:          "Bike racks in the courtyard",
		ClosesAt:      &soon,
	})
	if err != nil {
		t.Fatalf("open due proposal: %v", err)
	}

	f.clock.Advance(2 * time.Hour)
	sweeper := f.sweeper(true)
	sweeper.BatchSize = 3
	report, err := sweeper.RunOnce(ctx)
	if err != nil || report.Resolved != 1 {
		t.Fatalf("expected the due proposal resolved in one sweep, got %+v (%v)", report, err)
	}
	resolved, _ := f.motions.GetMotion(ctx, due.RoundID)
	if resolved.State != entities.RoundStateResolved {
		t.Fatalf("expected due proposal resolved, got %s", resolved.State)
	}
}

func TestOutboxRelayMarksPublishedOnlyOnSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	election, err := f.elections.OpenElection(ctx, elections.OpenElectionCommand{
		ActorID:       "1",
		AssociationID: "assoc-1",
		Seat:          "secretary",
		Candidates:    []string{"4"},
	})
	if err != nil {
		t.Fatalf("open election: %v", err)
	}
	if _, err := f.elections.Abort(ctx, "1", election.RoundID, "withdrawn"); err != nil {
		t.Fatalf("abort: %v", err)
	}

	failing := &stubPublisher{fail: errors.New("broker unavailable")}
	relay := OutboxRelay{Outbox: f.store, Publisher: failing, Clock: f.clock}
	if err := relay.RunOnce(ctx); err == nil {
		t.Fatalf("expected publish failure")
	}
	pending, _ := f.store.ListPendingOutbox(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("failed publish must leave the row pending, got %d", len(pending))
	}

	publisher := &stubPublisher{}
	relay.Publisher = publisher
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay: %v", err)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != application.EventRoundAborted {
		t.Fatalf("unexpected topics %v", publisher.topics)
	}
	pending, _ = f.store.ListPendingOutbox(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected outbox drained, got %d", len(pending))
	}
}

func TestAuditConsumerSkipsRedeliveredEvents(t *testing.T) {
	store := memory.NewStore()
	sub := &stubSubscriber{}
	var audited []ports.DecisionEvent
	consumer := AuditConsumer{
		Subscriber: sub,
		Dedup:      store,
		Clock:      &mutableClock{now: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)},
		OnDecision: func(_ context.Context, _ string, decision ports.DecisionEvent) error {
			audited = append(audited, decision)
			return nil
		},
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start audit consumer: %v", err)
	}
	if len(sub.handlers) != len(application.DecisionTopics) {
		t.Fatalf("expected a handler per decision topic, got %d", len(sub.handlers))
	}

	envelope, err := application.NewDecisionEnvelope("evt-1", application.EventSanctionDecided, ports.DecisionEvent{
		SanctionKey:   "assoc-1/m-2/rule-1",
		AssociationID: "assoc-1",
		Kind:          "sanction",
		Outcome:       string(entities.SanctionActionSuspension),
		Timestamp:     time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	handler := sub.handlers[application.EventSanctionDecided]
	for i := 0; i < 2; i++ {
		if err := handler(context.Background(), envelope); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(audited) != 1 || audited[0].Outcome != "suspension" {
		t.Fatalf("expected exactly one audited decision, got %+v", audited)
	}

	bad := envelope
	bad.EventID = "evt-2"
	bad.Data = json.RawMessage(`{"round_id":`)
	if err := handler(context.Background(), bad); err == nil {
		t.Fatalf("expected decode failure")
	}
}
