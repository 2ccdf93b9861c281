// Package amendments runs rule proposal and amendment votes. A passed
// proposal appends a rule; a passed amendment replaces the text of an
// existing rule and keeps its id.
package amendments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/association-governance/governance-engine/application"
	"agora/contexts/association-governance/governance-engine/application/ballots"
	"agora/contexts/association-governance/governance-engine/application/ledger"
	"agora/contexts/association-governance/governance-engine/application/rules"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/domain/policy"
	"agora/contexts/association-governance/governance-engine/ports"
)

// Service is the RuleAmendmentEngine. It is the only writer of the rule set
// once the first motion has been opened.
type Service struct {
	UnitOfWork ports.UnitOfWork
	Motions    ports.MotionRepository
	Ledger     ledger.Service
	Rules      rules.Service
	Box        ballots.Service
	Policies   ports.PolicyProvider
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// OpenMotionCommand describes a proposal or amendment. TargetRuleID is read
// only for amendments.
type OpenMotionCommand struct {
	ProposerID    string
	AssociationID string
	RoundID       string
	TargetRuleID  string
	Text          string
	OpensAt       *time.Time
	ClosesAt      *time.Time
}

func (s Service) OpenProposal(ctx context.Context, cmd OpenMotionCommand) (entities.Motion, error) {
	cmd.TargetRuleID = ""
	return s.open(ctx, entities.MotionKindProposal, cmd)
}

// OpenAmendment fails with ErrNoSuchRule when the target rule is unknown.
func (s Service) OpenAmendment(ctx context.Context, cmd OpenMotionCommand) (entities.Motion, error) {
	if strings.TrimSpace(cmd.TargetRuleID) == "" {
		return entities.Motion{}, fmt.Errorf("%w: amendment requires a target rule", domainerrors.ErrNoSuchRule)
	}
	return s.open(ctx, entities.MotionKindAmendment, cmd)
}

func (s Service) open(ctx context.Context, kind entities.MotionKind, cmd OpenMotionCommand) (entities.Motion, error) {
	logger := application.ResolveLogger(s.Logger)
	cmd.AssociationID = strings.TrimSpace(cmd.AssociationID)
	cmd.ProposerID = strings.TrimSpace(cmd.ProposerID)
	cmd.Text = strings.TrimSpace(cmd.Text)
	if cmd.AssociationID == "" || cmd.ProposerID == "" || cmd.Text == "" {
		return entities.Motion{}, fmt.Errorf("%w: association, proposer and text are required", domainerrors.ErrInvalidRequest)
	}
	if cmd.OpensAt != nil && cmd.ClosesAt != nil && !cmd.ClosesAt.After(*cmd.OpensAt) {
		return entities.Motion{}, fmt.Errorf("%w: closing time must follow opening time", domainerrors.ErrInvalidRequest)
	}
	now := s.now()
	if cmd.ClosesAt != nil && !cmd.ClosesAt.After(now) {
		return entities.Motion{}, fmt.Errorf("%w: closing time is already in the past", domainerrors.ErrInvalidRequest)
	}
	roundID := strings.TrimSpace(cmd.RoundID)
	if roundID == "" {
		id, err := s.IDGen.NewID(ctx)
		if err != nil {
			return entities.Motion{}, err
		}
		roundID = id
	}

	motion := entities.Motion{
		RoundID:       roundID,
		AssociationID: cmd.AssociationID,
		Kind:          kind,
		TargetRuleID:  strings.TrimSpace(cmd.TargetRuleID),
		Text:          cmd.Text,
		ProposerID:    cmd.ProposerID,
		State:         entities.RoundStateScheduled,
		OpensAt:       now,
		ClosesAt:      utcPtr(cmd.ClosesAt),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if cmd.OpensAt != nil {
		motion.OpensAt = cmd.OpensAt.UTC()
	}

	err := s.UnitOfWork.WithinAssociation(ctx, cmd.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		if _, err := repos.GetAssociation(ctx, cmd.AssociationID); err != nil {
			return err
		}
		if err := s.Ledger.RequireVoterIn(ctx, repos, cmd.AssociationID, cmd.ProposerID); err != nil {
			return err
		}
		if kind == entities.MotionKindAmendment {
			if _, err := s.Rules.RequireRuleIn(ctx, repos, cmd.AssociationID, motion.TargetRuleID); err != nil {
				return err
			}
		}
		if _, err := repos.GetMotion(ctx, roundID); err == nil {
			return fmt.Errorf("%w: %s", domainerrors.ErrRoundAlreadyOpen, roundID)
		} else if !errors.Is(err, domainerrors.ErrRoundNotFound) {
			return err
		}
		if !motion.OpensAt.After(now) {
			if err := s.activateIn(ctx, repos, &motion, now); err != nil {
				return err
			}
		}
		return repos.SaveMotion(ctx, motion)
	})
	if err != nil {
		logger.Warn("governance motion open rejected",
			"event", "governance_motion_open_rejected",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"association_id", cmd.AssociationID,
			"proposer_id", cmd.ProposerID,
			"kind", string(kind),
			"error", err.Error(),
		)
		return entities.Motion{}, err
	}
	logger.Info("governance motion created",
		"event", "governance_motion_created",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", motion.AssociationID,
		"round_id", motion.RoundID,
		"kind", string(motion.Kind),
		"target_rule_id", motion.TargetRuleID,
		"state", string(motion.State),
	)
	return motion, nil
}

func (s Service) Activate(ctx context.Context, roundID string) (entities.Motion, error) {
	return s.mutate(ctx, roundID, func(ctx context.Context, repos ports.Repositories, motion *entities.Motion) error {
		if motion.State != entities.RoundStateScheduled {
			return nil
		}
		now := s.now()
		if motion.OpensAt.After(now) {
			return fmt.Errorf("%w: opens at %s", domainerrors.ErrRoundNotOpen, motion.OpensAt.Format(time.RFC3339))
		}
		if err := s.activateIn(ctx, repos, motion, now); err != nil {
			return err
		}
		return repos.SaveMotion(ctx, *motion)
	})
}

func (s Service) CloseExpired(ctx context.Context, roundID string) (entities.Motion, error) {
	return s.mutate(ctx, roundID, func(ctx context.Context, repos ports.Repositories, motion *entities.Motion) error {
		if motion.State != entities.RoundStateOpen || !expired(motion.ClosesAt, s.now()) {
			return nil
		}
		return s.closeIn(ctx, repos, motion)
	})
}

func (s Service) CastVote(ctx context.Context, roundID string, voterID string, choice string) (entities.Ballot, error) {
	located, err := s.Motions.GetMotion(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return entities.Ballot{}, err
	}
	var (
		ballot entities.Ballot
		closed bool
	)
	err = s.UnitOfWork.WithinAssociation(ctx, located.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		motion, err := repos.GetMotion(ctx, located.RoundID)
		if err != nil {
			return err
		}
		now := s.now()
		switch motion.State {
		case entities.RoundStateScheduled:
			if motion.OpensAt.After(now) {
				return domainerrors.ErrRoundNotOpen
			}
			if err := s.activateIn(ctx, repos, &motion, now); err != nil {
				return err
			}
			if err := repos.SaveMotion(ctx, motion); err != nil {
				return err
			}
		case entities.RoundStateOpen:
		case entities.RoundStateAborted:
			return fmt.Errorf("%w: %w", domainerrors.ErrRoundClosed, domainerrors.ErrRoundAborted)
		default:
			return domainerrors.ErrRoundClosed
		}
		cast, lazilyClosed, err := s.Box.CastIn(ctx, repos, motion.RoundID, voterID, strings.ToLower(strings.TrimSpace(choice)))
		if err != nil {
			return err
		}
		if lazilyClosed {
			closed = true
			if err := motion.MoveTo(entities.RoundStateClosed, now); err != nil {
				return err
			}
			return repos.SaveMotion(ctx, motion)
		}
		ballot = cast
		return nil
	})
	if err == nil && closed {
		err = fmt.Errorf("%w: closing time reached", domainerrors.ErrRoundClosed)
	}
	if err != nil {
		s.metrics().Rejected("motion_cast", err)
		return entities.Ballot{}, err
	}
	s.metrics().BallotCast(roundKind(located.Kind))
	return ballot, nil
}

// Resolve closes, tallies and decides the motion, applying a passed result
// to the rule set in the same unit of work.
func (s Service) Resolve(ctx context.Context, actorID string, roundID string) (entities.Motion, error) {
	logger := application.ResolveLogger(s.Logger)
	var decided bool
	motion, err := s.mutate(ctx, roundID, func(ctx context.Context, repos ports.Repositories, motion *entities.Motion) error {
		now := s.now()
		switch motion.State {
		case entities.RoundStateResolved:
			return nil
		case entities.RoundStateAborted:
			return domainerrors.ErrRoundAborted
		case entities.RoundStateScheduled:
			return domainerrors.ErrRoundNotOpen
		case entities.RoundStateOpen:
			if !expired(motion.ClosesAt, now) {
				if err := s.Ledger.RequireBoardActorIn(ctx, repos, motion.AssociationID, actorID); err != nil {
					return err
				}
			}
			if err := s.closeIn(ctx, repos, motion); err != nil {
				return err
			}
		}

		tally, err := s.Box.TallyIn(ctx, repos, motion.RoundID)
		if err != nil {
			return err
		}
		rulesPolicy, err := s.Policies.PolicyFor(ctx, motion.AssociationID)
		if err != nil {
			return err
		}
		result := policy.EvaluateMotion(tally, rulesPolicy.MotionQuorum, rulesPolicy.MotionMajority)
		if result.Outcome == entities.MotionOutcomePassed {
			var applied entities.Rule
			if motion.Kind == entities.MotionKindAmendment {
				applied, err = s.Rules.ReplaceTextIn(ctx, repos, motion.AssociationID, motion.TargetRuleID, motion.Text, motion.RoundID)
			} else {
				applied, err = s.Rules.AppendIn(ctx, repos, motion.AssociationID, motion.Text, motion.RoundID)
			}
			if err != nil {
				return err
			}
			motion.ResultRuleID = applied.RuleID
		}

		if err := motion.MoveTo(entities.RoundStateResolved, now); err != nil {
			return err
		}
		motion.Outcome = result.Outcome
		motion.FailureReason = result.FailureReason
		motion.For = tally.Count(entities.ChoiceFor)
		motion.Against = tally.Count(entities.ChoiceAgainst)
		motion.Abstain = tally.Count(entities.ChoiceAbstain)
		motion.Eligible = tally.EligibleCount
		motion.Turnout = result.Turnout
		motion.ResolvedAt = &now
		if err := repos.SaveMotion(ctx, *motion); err != nil {
			return err
		}
		decided = true
		return application.AppendDecision(ctx, repos, s.IDGen, application.EventMotionResolved, ports.DecisionEvent{
			RoundID:       motion.RoundID,
			AssociationID: motion.AssociationID,
			Kind:          string(motion.Kind),
			Outcome:       string(result.Outcome),
			Timestamp:     now,
		})
	})
	if err != nil {
		logger.Warn("governance motion resolve rejected",
			"event", "governance_motion_resolve_rejected",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"round_id", roundID,
			"actor_id", actorID,
			"error", err.Error(),
		)
		s.metrics().Rejected("motion_resolve", err)
		return entities.Motion{}, err
	}
	if decided {
		s.metrics().RoundResolved(roundKind(motion.Kind), string(motion.Outcome))
		logger.Info("governance motion resolved",
			"event", "governance_motion_resolved",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"association_id", motion.AssociationID,
			"round_id", motion.RoundID,
			"kind", string(motion.Kind),
			"outcome", string(motion.Outcome),
			"failure_reason", motion.FailureReason,
			"result_rule_id", motion.ResultRuleID,
		)
	}
	return motion, nil
}

func (s Service) Abort(ctx context.Context, actorID string, roundID string, reason string) (entities.Motion, error) {
	motion, err := s.mutate(ctx, roundID, func(ctx context.Context, repos ports.Repositories, motion *entities.Motion) error {
		switch motion.State {
		case entities.RoundStateAborted:
			return nil
		case entities.RoundStateResolved:
			return domainerrors.ErrRoundClosed
		}
		if err := s.Ledger.RequireBoardActorIn(ctx, repos, motion.AssociationID, actorID); err != nil {
			return err
		}
		if motion.State != entities.RoundStateScheduled {
			if _, err := s.Box.CloseIn(ctx, repos, motion.RoundID); err != nil {
				return err
			}
		}
		now := s.now()
		if err := motion.MoveTo(entities.RoundStateAborted, now); err != nil {
			return err
		}
		motion.AbortReason = strings.TrimSpace(reason)
		if err := repos.SaveMotion(ctx, *motion); err != nil {
			return err
		}
		return application.AppendDecision(ctx, repos, s.IDGen, application.EventRoundAborted, ports.DecisionEvent{
			RoundID:       motion.RoundID,
			AssociationID: motion.AssociationID,
			Kind:          string(motion.Kind),
			Outcome:       string(entities.RoundStateAborted),
			Timestamp:     now,
		})
	})
	if err != nil {
		return entities.Motion{}, err
	}
	application.ResolveLogger(s.Logger).Info("governance motion aborted",
		"event", "governance_motion_aborted",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"round_id", motion.RoundID,
		"actor_id", actorID,
		"reason", motion.AbortReason,
	)
	return motion, nil
}

func (s Service) GetMotion(ctx context.Context, roundID string) (entities.Motion, error) {
	return s.Motions.GetMotion(ctx, strings.TrimSpace(roundID))
}

func (s Service) mutate(
	ctx context.Context,
	roundID string,
	fn func(ctx context.Context, repos ports.Repositories, motion *entities.Motion) error,
) (entities.Motion, error) {
	located, err := s.Motions.GetMotion(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return entities.Motion{}, err
	}
	var out entities.Motion
	err = s.UnitOfWork.WithinAssociation(ctx, located.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		motion, err := repos.GetMotion(ctx, located.RoundID)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, &motion); err != nil {
			return err
		}
		out = motion
		return nil
	})
	return out, err
}

func (s Service) activateIn(ctx context.Context, repos ports.Repositories, motion *entities.Motion, now time.Time) error {
	if err := motion.MoveTo(entities.RoundStateOpen, now); err != nil {
		return err
	}
	motion.OpensAt = now
	voters, err := s.Ledger.GoodStandingVotersIn(ctx, repos, motion.AssociationID)
	if err != nil {
		return err
	}
	_, err = s.Box.OpenIn(ctx, repos, ballots.OpenCommand{
		RoundID:        motion.RoundID,
		AssociationID:  motion.AssociationID,
		Kind:           roundKind(motion.Kind),
		EligibleVoters: voters,
		AllowedChoices: entities.MotionChoices,
		ClosesAt:       motion.ClosesAt,
	})
	return err
}

func (s Service) closeIn(ctx context.Context, repos ports.Repositories, motion *entities.Motion) error {
	if err := motion.MoveTo(entities.RoundStateClosed, s.now()); err != nil {
		return err
	}
	if _, err := s.Box.CloseIn(ctx, repos, motion.RoundID); err != nil {
		return err
	}
	return repos.SaveMotion(ctx, *motion)
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

func roundKind(kind entities.MotionKind) entities.RoundKind {
	if kind == entities.MotionKindAmendment {
		return entities.RoundKindAmendment
	}
	return entities.RoundKindProposal
}

func expired(closesAt *time.Time, now time.Time) bool {
	return closesAt != nil && !now.Before(*closesAt)
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}
