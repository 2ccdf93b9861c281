// Package sanctions aggregates member-filed violation reports per
// (association, violator, rule) and escalates them into sanctions.
//
// Reports are counted inside a window: every report since the last terminal
// decision for the key. Expulsion is terminal and opens a new window; the
// optional policy ReportWindow also retires a stale window that produced no
// sanction. Only one SanctionRecord exists per window and escalation updates
// it in place.
package sanctions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/association-governance/governance-engine/application"
	"agora/contexts/association-governance/governance-engine/application/ledger"
	"agora/contexts/association-governance/governance-engine/application/rules"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/domain/policy"
	"agora/contexts/association-governance/governance-engine/ports"
)

// Service files violation reports and escalates sanctions.
type Service struct {
	UnitOfWork ports.UnitOfWork
	Reports    ports.ReportRepository
	Sanctions  ports.SanctionRepository
	Ledger     ledger.Service
	Rules      rules.Service
	Policies   ports.PolicyProvider
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// FileReportCommand is a member reporting another for breaking a rule.
type FileReportCommand struct {
	AssociationID string
	ReporterID    string
	ViolatorID    string
	RuleID        string
}

// FileReportResult is the stored report, its counting window and the
// sanction it affected, if any.
type FileReportResult struct {
	Report   entities.Report
	Window   entities.ReportWindow
	Sanction *entities.SanctionRecord
	// Escalated is set when this report produced or raised the sanction.
	Escalated bool
}

func (s Service) FileReport(ctx context.Context, cmd FileReportCommand) (FileReportResult, error) {
	logger := application.ResolveLogger(s.Logger)
	cmd.AssociationID = strings.TrimSpace(cmd.AssociationID)
	cmd.ReporterID = strings.TrimSpace(cmd.ReporterID)
	cmd.ViolatorID = strings.TrimSpace(cmd.ViolatorID)
	cmd.RuleID = strings.TrimSpace(cmd.RuleID)
	if cmd.AssociationID == "" || cmd.ReporterID == "" || cmd.ViolatorID == "" || cmd.RuleID == "" {
		return FileReportResult{}, fmt.Errorf("%w: association, reporter, violator and rule are required", domainerrors.ErrInvalidRequest)
	}
	if cmd.ReporterID == cmd.ViolatorID {
		return FileReportResult{}, domainerrors.ErrSelfReport
	}

	key := entities.SanctionKey{
		AssociationID: cmd.AssociationID,
		ViolatorID:    cmd.ViolatorID,
		RuleID:        cmd.RuleID,
	}
	var result FileReportResult
	err := s.UnitOfWork.WithinAssociation(ctx, cmd.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		if _, err := repos.GetAssociation(ctx, cmd.AssociationID); err != nil {
			return err
		}
		for _, userID := range []string{cmd.ReporterID, cmd.ViolatorID} {
			membership, found, err := repos.GetMembership(ctx, cmd.AssociationID, userID)
			if err != nil {
				return err
			}
			if !found || !membership.IsActive() {
				return fmt.Errorf("%w: %s", domainerrors.ErrNotAMember, userID)
			}
		}
		if _, err := s.Rules.RequireRuleIn(ctx, repos, cmd.AssociationID, cmd.RuleID); err != nil {
			return err
		}
		rulesPolicy, err := s.Policies.PolicyFor(ctx, cmd.AssociationID)
		if err != nil {
			return err
		}

		now := s.now()
		window, err := s.currentWindowIn(ctx, repos, key, rulesPolicy, now)
		if err != nil {
			return err
		}
		duplicate, err := repos.HasReport(ctx, key, window.Epoch, cmd.ReporterID)
		if err != nil {
			return err
		}
		if duplicate {
			return domainerrors.ErrDuplicateReport
		}
		reportID, err := s.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		report := entities.Report{
			ReportID:      reportID,
			AssociationID: cmd.AssociationID,
			ReporterID:    cmd.ReporterID,
			ViolatorID:    cmd.ViolatorID,
			RuleID:        cmd.RuleID,
			Epoch:         window.Epoch,
			FiledAt:       now,
		}
		if err := repos.InsertReport(ctx, report); err != nil {
			return err
		}
		window.ReportCount++
		window.UpdatedAt = now
		result.Report = report

		sanction, escalated, err := s.escalateIn(ctx, repos, &window, rulesPolicy, now)
		if err != nil {
			return err
		}
		result.Sanction = sanction
		result.Escalated = escalated
		if err := repos.SaveReportWindow(ctx, window); err != nil {
			return err
		}
		result.Window = window
		return nil
	})
	if err != nil {
		logger.Warn("governance report rejected",
			"event", "governance_report_rejected",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"association_id", cmd.AssociationID,
			"reporter_id", cmd.ReporterID,
			"violator_id", cmd.ViolatorID,
			"rule_id", cmd.RuleID,
			"error", err.Error(),
		)
		s.metrics().Rejected("report_file", err)
		return FileReportResult{}, err
	}

	logger.Info("governance report filed",
		"event", "governance_report_filed",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"sanction_key", key.String(),
		"report_id", result.Report.ReportID,
		"epoch", result.Report.Epoch,
		"window_count", result.Window.ReportCount,
	)
	if result.Escalated {
		s.metrics().SanctionDecided(result.Sanction.Action)
		logger.Info("governance sanction decided",
			"event", "governance_sanction_decided",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"sanction_key", key.String(),
			"sanction_id", result.Sanction.SanctionID,
			"action", string(result.Sanction.Action),
			"report_count", result.Sanction.ReportCount,
		)
	}
	return result, nil
}

// Window returns the current report window for a key. A key with no reports
// yields an empty first window.
func (s Service) Window(ctx context.Context, key entities.SanctionKey) (entities.ReportWindow, error) {
	key = normalizeKey(key)
	rulesPolicy, err := s.Policies.PolicyFor(ctx, key.AssociationID)
	if err != nil {
		return entities.ReportWindow{}, err
	}
	return s.currentWindow(ctx, s.Reports, s.Sanctions, key, rulesPolicy, s.now())
}

// WindowReports lists the reports counted by the current window of a key.
func (s Service) WindowReports(ctx context.Context, key entities.SanctionKey) ([]entities.Report, error) {
	window, err := s.Window(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.Reports.ListReports(ctx, window.Key, window.Epoch)
}

func (s Service) ListSanctions(ctx context.Context, associationID string) ([]entities.SanctionRecord, error) {
	return s.Sanctions.ListSanctions(ctx, strings.TrimSpace(associationID))
}

func (s Service) currentWindowIn(ctx context.Context, repos ports.Repositories, key entities.SanctionKey, rulesPolicy entities.GovernancePolicy, now time.Time) (entities.ReportWindow, error) {
	return s.currentWindow(ctx, repos, repos, key, rulesPolicy, now)
}

func (s Service) currentWindow(
	ctx context.Context,
	reports ports.ReportRepository,
	sanctions ports.SanctionRepository,
	key entities.SanctionKey,
	rulesPolicy entities.GovernancePolicy,
	now time.Time,
) (entities.ReportWindow, error) {
	window, found, err := reports.GetReportWindow(ctx, key)
	if err != nil {
		return entities.ReportWindow{}, err
	}
	if !found {
		return entities.ReportWindow{Key: key, Epoch: 1, OpenedAt: now, UpdatedAt: now}, nil
	}
	if rulesPolicy.ReportWindow <= 0 || now.Sub(window.OpenedAt) <= rulesPolicy.ReportWindow {
		return window, nil
	}
	if _, sanctioned, err := sanctions.GetSanction(ctx, key, window.Epoch); err != nil {
		return entities.ReportWindow{}, err
	} else if sanctioned {
		return window, nil
	}
	return entities.ReportWindow{Key: key, Epoch: window.Epoch + 1, OpenedAt: now, UpdatedAt: now}, nil
}

// escalateIn raises the window's sanction when the report count reaches a
// more severe tier, applying the ledger consequence in the same unit of work.
func (s Service) escalateIn(
	ctx context.Context,
	repos ports.Repositories,
	window *entities.ReportWindow,
	rulesPolicy entities.GovernancePolicy,
	now time.Time,
) (*entities.SanctionRecord, bool, error) {
	record, found, err := repos.GetSanction(ctx, window.Key, window.Epoch)
	if err != nil {
		return nil, false, err
	}
	tier := policy.SanctionTier(window.ReportCount, rulesPolicy)
	if tier.Rank() <= record.Action.Rank() {
		if found {
			return &record, false, nil
		}
		return nil, false, nil
	}
	if !found {
		sanctionID, err := s.IDGen.NewID(ctx)
		if err != nil {
			return nil, false, err
		}
		record = entities.SanctionRecord{SanctionID: sanctionID, Key: window.Key, Epoch: window.Epoch}
	}
	record.Action = tier
	record.ReportCount = window.ReportCount
	record.DecidedAt = now
	if err := repos.SaveSanction(ctx, record); err != nil {
		return nil, false, err
	}

	key := window.Key
	switch tier {
	case entities.SanctionActionSuspension:
		if err := s.Ledger.SetGoodStandingIn(ctx, repos, key.AssociationID, key.ViolatorID, false); err != nil {
			return nil, false, err
		}
	case entities.SanctionActionExpulsion:
		if err := s.Ledger.ExpelIn(ctx, repos, key.AssociationID, key.ViolatorID); err != nil {
			return nil, false, err
		}
		*window = entities.ReportWindow{Key: key, Epoch: window.Epoch + 1, OpenedAt: now, UpdatedAt: now}
	}

	if err := application.AppendDecision(ctx, repos, s.IDGen, application.EventSanctionDecided, ports.DecisionEvent{
		SanctionKey:   key.String(),
		AssociationID: key.AssociationID,
		Kind:          "sanction",
		Outcome:       string(tier),
		Timestamp:     now,
	}); err != nil {
		return nil, false, err
	}
	return &record, true, nil
}

func (s Service) metrics() ports.Metrics {
	if s.Metrics == nil {
		return ports.NoopMetrics{}
	}
	return s.Metrics
}

func (s Service) now() time.Time {
	return application.NowUTC(s.Clock)
}

func normalizeKey(key entities.SanctionKey) entities.SanctionKey {
	return entities.SanctionKey{
		AssociationID: strings.TrimSpace(key.AssociationID),
		ViolatorID:    strings.TrimSpace(key.ViolatorID),
		RuleID:        strings.TrimSpace(key.RuleID),
	}
}
