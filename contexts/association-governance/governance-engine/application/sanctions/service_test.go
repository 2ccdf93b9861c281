package sanctions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"agora/contexts/association-governance/governance-engine/adapters/memory"
	"agora/contexts/association-governance/governance-engine/application/ledger"
	"agora/contexts/association-governance/governance-engine/application/rules"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"
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

type harness struct {
	store     *memory.Store
	clock     *mutableClock
	ledger    ledger.Service
	sanctions Service
	ruleID    string
}

func newHarness(t *testing.T, members int, rulesPolicy entities.GovernancePolicy) harness {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clock := &mutableClock{now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
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
		Reports:    store,
		Sanctions:  store,
		Ledger:     ledgerSvc,
		Rules:      rulesSvc,
		Policies:   ports.StaticPolicy{Policy: rulesPolicy},
		Clock:      clock,
		IDGen:      store,
	}
	if _, err := ledgerSvc.RegisterAssociation(ctx, ledger.RegisterAssociationCommand{
		AssociationID:  "assoc-1",
		Name:           "Tenants Union",
		Location:       entities.Location{Country: "DE", City: "Berlin"},
		MemberCap:      members,
		FounderID:      "m-01",
		FounderAddress: entities.Address{Location: entities.Location{Country: "DE", City: "Berlin"}},
	}); err != nil {
		t.Fatalf("register association: %v", err)
	}
	for i := 2; i <= members; i++ {
		if _, err := ledgerSvc.AddMember(ctx, ledger.AddMemberCommand{
			AssociationID: "assoc-1",
			UserID:        fmt.Sprintf("m-%02d", i),
			Address:       entities.Address{Location: entities.Location{Country: "DE", City: "Berlin"}},
		}); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}
	rule, err := rulesSvc.SeedRule(ctx, "m-01", "assoc-1", "No subletting without notice.")
	if err != nil {
		t.Fatalf("seed rule: %v", err)
	}
	return harness{store: store, clock: clock, ledger: ledgerSvc, sanctions: svc, ruleID: rule.RuleID}
}

func (h harness) report(reporter string, violator string) (FileReportResult, error) {
	return h.sanctions.FileReport(context.Background(), FileReportCommand{
		AssociationID: "assoc-1",
		ReporterID:    reporter,
		ViolatorID:    violator,
		RuleID:        h.ruleID,
	})
}

func TestThirdReportSuspendsViolator(t *testing.T) {
	h := newHarness(t, 8, entities.DefaultGovernancePolicy())
	for _, reporter := range []string{"m-02", "m-03"} {
		result, err := h.report(reporter, "m-08")
		if err != nil {
			t.Fatalf("report by %s: %v", reporter, err)
		}
		if result.Sanction != nil {
			t.Fatalf("no sanction expected below threshold, got %+v", result.Sanction)
		}
	}
	if _, err := h.report("m-02", "m-08"); !errors.Is(err, domainerrors.ErrDuplicateReport) {
		t.Fatalf("expected duplicate report, got %v", err)
	}

	result, err := h.report("m-04", "m-08")
	if err != nil {
		t.Fatalf("third report: %v", err)
	}
	if !result.Escalated || result.Sanction == nil || result.Sanction.Action != entities.SanctionActionSuspension || result.Sanction.ReportCount != 3 {
		t.Fatalf("expected suspension at three reports, got %+v", result)
	}
	standing, _ := h.ledger.IsInGoodStanding(context.Background(), "assoc-1", "m-08")
	if standing {
		t.Fatalf("violator must lose good standing")
	}
	records, _ := h.sanctions.ListSanctions(context.Background(), "assoc-1")
	if len(records) != 1 {
		t.Fatalf("expected exactly one sanction record, got %d", len(records))
	}
}

func TestFifthReportExpelsAndOpensNewWindow(t *testing.T) {
	h := newHarness(t, 8, entities.DefaultGovernancePolicy())
	ctx := context.Background()
	var last FileReportResult
	for _, reporter := range []string{"m-02", "m-03", "m-04", "m-05", "m-06"} {
		result, err := h.report(reporter, "m-08")
		if err != nil {
			t.Fatalf("report by %s: %v", reporter, err)
		}
		last = result
	}
	if last.Sanction == nil || last.Sanction.Action != entities.SanctionActionExpulsion || last.Sanction.Epoch != 1 {
		t.Fatalf("expected expulsion in the first window, got %+v", last.Sanction)
	}
	if last.Window.Epoch != 2 || last.Window.ReportCount != 0 {
		t.Fatalf("expulsion must open a fresh window, got %+v", last.Window)
	}
	membership, err := h.ledger.GetMembership(ctx, "assoc-1", "m-08")
	if err != nil || membership.Status != entities.MembershipStatusExpelled {
		t.Fatalf("expected expelled membership, got %+v (%v)", membership, err)
	}
	records, _ := h.sanctions.ListSanctions(ctx, "assoc-1")
	if len(records) != 1 || records[0].ReportCount != 5 {
		t.Fatalf("escalation must update the window's record in place, got %+v", records)
	}
	if _, err := h.report("m-07", "m-08"); !errors.Is(err, domainerrors.ErrNotAMember) {
		t.Fatalf("expected not a member for expelled violator, got %v", err)
	}
	pending, _ := h.store.ListPendingOutbox(ctx, 10)
	if len(pending) != 2 {
		t.Fatalf("expected suspension and expulsion events, got %d", len(pending))
	}
}

func TestFileReportRejections(t *testing.T) {
	h := newHarness(t, 4, entities.DefaultGovernancePolicy())
	ctx := context.Background()
	cases := []struct {
		name string
		cmd  FileReportCommand
		want error
	}{
		{"self report", FileReportCommand{AssociationID: "assoc-1", ReporterID: "m-02", ViolatorID: "m-02", RuleID: h.ruleID}, domainerrors.ErrSelfReport},
		{"reporter not a member", FileReportCommand{AssociationID: "assoc-1", ReporterID: "x", ViolatorID: "m-02", RuleID: h.ruleID}, domainerrors.ErrNotAMember},
		{"violator not a member", FileReportCommand{AssociationID: "assoc-1", ReporterID: "m-02", ViolatorID: "x", RuleID: h.ruleID}, domainerrors.ErrNotAMember},
		{"unknown rule", FileReportCommand{AssociationID: "assoc-1", ReporterID: "m-02", ViolatorID: "m-03", RuleID: "nope"}, domainerrors.ErrNoSuchRule},
		{"missing fields", FileReportCommand{AssociationID: "assoc-1", ReporterID: "m-02"}, domainerrors.ErrInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.sanctions.FileReport(ctx, tc.cmd); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	window, err := h.sanctions.Window(ctx, entities.SanctionKey{AssociationID: "assoc-1", ViolatorID: "m-03", RuleID: h.ruleID})
	if err != nil || window.ReportCount != 0 {
		t.Fatalf("rejections must not count, got %+v (%v)", window, err)
	}
}

func TestSuspendedMemberMayStillReport(t *testing.T) {
	h := newHarness(t, 8, entities.DefaultGovernancePolicy())
	for _, reporter := range []string{"m-02", "m-03", "m-04"} {
		if _, err := h.report(reporter, "m-08"); err != nil {
			t.Fatalf("report: %v", err)
		}
	}
	if _, err := h.report("m-08", "m-02"); err != nil {
		t.Fatalf("suspended member report: %v", err)
	}
}

func TestWarningTierAndStaleWindowExpiry(t *testing.T) {
	rulesPolicy := entities.DefaultGovernancePolicy()
	rulesPolicy.WarningThreshold = 1
	rulesPolicy.ReportWindow = 24 * time.Hour
	h := newHarness(t, 8, rulesPolicy)
	ctx := context.Background()

	first, err := h.report("m-02", "m-08")
	if err != nil || first.Sanction == nil || first.Sanction.Action != entities.SanctionActionWarning {
		t.Fatalf("expected warning on first report, got %+v (%v)", first, err)
	}

	if _, err := h.report("m-02", "m-07"); err != nil {
		t.Fatalf("report m-07: %v", err)
	}
	key := entities.SanctionKey{AssociationID: "assoc-1", ViolatorID: "m-07", RuleID: h.ruleID}
	rulesPolicy.WarningThreshold = 0
	h.sanctions.Policies = ports.StaticPolicy{Policy: rulesPolicy}
	h.clock.Advance(25 * time.Hour)

	window, err := h.sanctions.Window(ctx, key)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if window.Epoch != 1 {
		t.Fatalf("a window that produced a sanction must not expire, got epoch %d", window.Epoch)
	}

	if _, err := h.report("m-03", "m-06"); err != nil {
		t.Fatalf("report m-06: %v", err)
	}
	h.clock.Advance(25 * time.Hour)
	fresh, err := h.report("m-03", "m-06")
	if err != nil {
		t.Fatalf("a stale window must accept the same reporter again: %v", err)
	}
	if fresh.Window.Epoch != 2 || fresh.Window.ReportCount != 1 {
		t.Fatalf("expected a new window, got %+v", fresh.Window)
	}
}
