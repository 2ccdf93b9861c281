// Package rules maintains the ordered rule set of each association. Rules
// change only through passed motions, seeding aside.
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "agora/contexts/association-governance/governance-engine/application"
	"agora/contexts/association-governance/governance-engine/application/ledger"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"
)

// Service reads and writes the ordered rule set of an association.
type Service struct {
	UnitOfWork ports.UnitOfWork
	Rules      ports.RuleRepository
	Ledger     ledger.Service
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (s Service) ListRules(ctx context.Context, associationID string) ([]entities.Rule, error) {
	items, err := s.Rules.ListRules(ctx, strings.TrimSpace(associationID))
	if err != nil {
		return nil, err
	}
	sortByPosition(items)
	return items, nil
}

func (s Service) GetRule(ctx context.Context, associationID string, ruleID string) (entities.Rule, error) {
	return s.RequireRuleIn(ctx, s.Rules, associationID, ruleID)
}

// SeedRule appends a founding rule outside the motion process. Seeding is
// closed for good once the association opens its first motion; from then on
// the rule set changes only when a motion passes.
func (s Service) SeedRule(ctx context.Context, actorID string, associationID string, text string) (entities.Rule, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return entities.Rule{}, fmt.Errorf("%w: rule text is required", domainerrors.ErrInvalidRequest)
	}
	var rule entities.Rule
	err := s.UnitOfWork.WithinAssociation(ctx, associationID, func(ctx context.Context, repos ports.Repositories) error {
		if _, err := repos.GetAssociation(ctx, associationID); err != nil {
			return err
		}
		if err := s.Ledger.RequireBoardActorIn(ctx, repos, associationID, actorID); err != nil {
			return err
		}
		sealed, err := repos.HasMotions(ctx, associationID)
		if err != nil {
			return err
		}
		if sealed {
			return fmt.Errorf("%w: association %s", domainerrors.ErrRuleSetSealed, associationID)
		}
		appended, err := s.AppendIn(ctx, repos, associationID, text, "")
		rule = appended
		return err
	})
	if err != nil {
		return entities.Rule{}, err
	}
	return rule, nil
}

// RequireRuleIn resolves a rule or fails with ErrNoSuchRule.
func (s Service) RequireRuleIn(ctx context.Context, repos ports.RuleRepository, associationID string, ruleID string) (entities.Rule, error) {
	ruleID = strings.TrimSpace(ruleID)
	if ruleID == "" {
		return entities.Rule{}, domainerrors.ErrNoSuchRule
	}
	rule, err := repos.GetRule(ctx, strings.TrimSpace(associationID), ruleID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNoSuchRule) {
			return entities.Rule{}, fmt.Errorf("%w: %s", domainerrors.ErrNoSuchRule, ruleID)
		}
		return entities.Rule{}, err
	}
	return rule, nil
}

// AppendIn adds a rule with a fresh id after the current last position.
func (s Service) AppendIn(ctx context.Context, repos ports.RuleRepository, associationID string, text string, motionID string) (entities.Rule, error) {
	existing, err := repos.ListRules(ctx, associationID)
	if err != nil {
		return entities.Rule{}, err
	}
	position := 1
	for _, rule := range existing {
		if rule.Position >= position {
			position = rule.Position + 1
		}
	}
	ruleID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Rule{}, err
	}
	now := s.now()
	rule := entities.Rule{
		RuleID:        ruleID,
		AssociationID: associationID,
		Position:      position,
		Text:          strings.TrimSpace(text),
		Version:       1,
		LastMotionID:  motionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repos.SaveRule(ctx, rule); err != nil {
		return entities.Rule{}, err
	}
	application.ResolveLogger(s.Logger).Info("governance rule appended",
		"event", "governance_rule_appended",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", associationID,
		"rule_id", ruleID,
		"position", position,
		"motion_id", motionID,
	)
	return rule, nil
}

// ReplaceTextIn swaps the text of an existing rule, keeping its id and position.
func (s Service) ReplaceTextIn(ctx context.Context, repos ports.RuleRepository, associationID string, ruleID string, text string, motionID string) (entities.Rule, error) {
	rule, err := s.RequireRuleIn(ctx, repos, associationID, ruleID)
	if err != nil {
		return entities.Rule{}, err
	}
	rule.Text = strings.TrimSpace(text)
	rule.Version++
	rule.LastMotionID = motionID
	rule.UpdatedAt = s.now()
	if err := repos.SaveRule(ctx, rule); err != nil {
		return entities.Rule{}, err
	}
	application.ResolveLogger(s.Logger).Info("governance rule amended",
		"event", "governance_rule_amended",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", associationID,
		"rule_id", rule.RuleID,
		"version", rule.Version,
		"motion_id", motionID,
	)
	return rule, nil
}

func sortByPosition(items []entities.Rule) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position == items[j].Position {
			return items[i].RuleID < items[j].RuleID
		}
		return items[i].Position < items[j].Position
	})
}

func (s Service) now() time.Time {
	return application.NowUTC(s.Clock)
}
