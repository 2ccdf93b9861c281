// Package elections runs council seat elections on top of the ballot box.
//
// An election moves scheduled -> open -> closed -> resolved, or to aborted
// from any non-terminal state. Resolution tallies the box once, applies the
// quorum and plurality rules from domain/policy, and writes the board seat
// changes in the same unit of work as the resolved transition.
package elections

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
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/domain/policy"
	"agora/contexts/association-governance/governance-engine/ports"
)

// Service is the ElectionEngine. Every state change of an election goes
// through entities.Election.MoveTo inside the association's unit of work.
type Service struct {
	UnitOfWork ports.UnitOfWork
	Elections  ports.ElectionRepository
	Ledger     ledger.Service
	Box        ballots.Service
	Policies   ports.PolicyProvider
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// OpenElectionCommand describes a new election. Candidates must be active
// members in good standing; an empty RoundID gets a generated id.
type OpenElectionCommand struct {
	ActorID          string
	AssociationID    string
	RoundID          string
	Seat             string
	Candidates       []string
	OutgoingHolderID string
	OpensAt          *time.Time
	ClosesAt         *time.Time
}

// OpenElection creates an election. It opens immediately unless OpensAt is
// in the future, in which case it stays scheduled until activated.
func (s Service) OpenElection(ctx context.Context, cmd OpenElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(s.Logger)
	candidates, err := normalizeCandidates(cmd.Candidates)
	if err != nil {
		return entities.Election{}, err
	}
	cmd.AssociationID = strings.TrimSpace(cmd.AssociationID)
	cmd.ActorID = strings.TrimSpace(cmd.ActorID)
	if cmd.AssociationID == "" || cmd.ActorID == "" {
		return entities.Election{}, fmt.Errorf("%w: association and actor ids are required", domainerrors.ErrInvalidRequest)
	}
	if cmd.OpensAt != nil && cmd.ClosesAt != nil && !cmd.ClosesAt.After(*cmd.OpensAt) {
		return entities.Election{}, fmt.Errorf("%w: closing time must follow opening time", domainerrors.ErrInvalidRequest)
	}
	roundID := strings.TrimSpace(cmd.RoundID)
	if roundID == "" {
		if roundID, err = s.IDGen.NewID(ctx); err != nil {
			return entities.Election{}, err
		}
	}

	now := s.now()
	election := entities.Election{
		RoundID:          roundID,
		AssociationID:    cmd.AssociationID,
		Seat:             strings.TrimSpace(cmd.Seat),
		Candidates:       candidates,
		OutgoingHolderID: strings.TrimSpace(cmd.OutgoingHolderID),
		State:            entities.RoundStateScheduled,
		OpensAt:          now,
		ClosesAt:         utcPtr(cmd.ClosesAt),
		CreatedBy:        cmd.ActorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if cmd.OpensAt != nil {
		election.OpensAt = cmd.OpensAt.UTC()
	}
	if election.ClosesAt != nil && !election.ClosesAt.After(now) {
		return entities.Election{}, fmt.Errorf("%w: closing time is already in the past", domainerrors.ErrInvalidRequest)
	}

	err = s.UnitOfWork.WithinAssociation(ctx, cmd.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		if _, err := repos.GetAssociation(ctx, cmd.AssociationID); err != nil {
			return err
		}
		if err := s.Ledger.RequireBoardActorIn(ctx, repos, cmd.AssociationID, cmd.ActorID); err != nil {
			return err
		}
		if _, err := repos.GetElection(ctx, roundID); err == nil {
			return fmt.Errorf("%w: %s", domainerrors.ErrRoundAlreadyOpen, roundID)
		} else if !errors.Is(err, domainerrors.ErrRoundNotFound) {
			return err
		}
		for _, candidate := range candidates {
			membership, found, err := repos.GetMembership(ctx, cmd.AssociationID, candidate)
			if err != nil {
				return err
			}
			if !found || !membership.CanVote() {
				return fmt.Errorf("%w: %s", domainerrors.ErrInvalidCandidate, candidate)
			}
		}
		if !election.OpensAt.After(now) {
			if err := s.activateIn(ctx, repos, &election, now); err != nil {
				return err
			}
		}
		return repos.SaveElection(ctx, election)
	})
	if err != nil {
		logger.Warn("governance election open rejected",
			"event", "governance_election_open_rejected",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"association_id", cmd.AssociationID,
			"actor_id", cmd.ActorID,
			"error", err.Error(),
		)
		return entities.Election{}, err
	}
	logger.Info("governance election created",
		"event", "governance_election_created",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", election.AssociationID,
		"round_id", election.RoundID,
		"state", string(election.State),
		"candidate_count", len(election.Candidates),
	)
	return election, nil
}

// Activate opens a scheduled election whose opening time has arrived.
// Elections past the scheduled state are returned unchanged.
func (s Service) Activate(ctx context.Context, roundID string) (entities.Election, error) {
	return s.mutate(ctx, roundID, func(ctx context.Context, repos ports.Repositories, election *entities.Election) error {
		if election.State != entities.RoundStateScheduled {
			return nil
		}
		now := s.now()
		if election.OpensAt.After(now) {
			return fmt.Errorf("%w: opens at %s", domainerrors.ErrRoundNotOpen, election.OpensAt.Format(time.RFC3339))
		}
		if err := s.activateIn(ctx, repos, election, now); err != nil {
			return err
		}
		return repos.SaveElection(ctx, *election)
	})
}

// CloseExpired closes an open election whose closing time has elapsed.
func (s Service) CloseExpired(ctx context.Context, roundID string) (entities.Election, error) {
	return s.mutate(ctx, roundID, func(ctx context.Context, repos ports.Repositories, election *entities.Election) error {
		if election.State != entities.RoundStateOpen || !expired(election.ClosesAt, s.now()) {
			return nil
		}
		return s.closeIn(ctx, repos, election)
	})
}

func (s Service) CastVote(ctx context.Context, roundID string, voterID string, candidateID string) (entities.Ballot, error) {
	located, err := s.Elections.GetElection(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return entities.Ballot{}, err
	}
	var (
		ballot entities.Ballot
		closed bool
	)
	err = s.UnitOfWork.WithinAssociation(ctx, located.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		election, err := repos.GetElection(ctx, located.RoundID)
		if err != nil {
			return err
		}
		now := s.now()
		switch election.State {
		case entities.RoundStateScheduled:
			if election.OpensAt.After(now) {
				return domainerrors.ErrRoundNotOpen
			}
			if err := s.activateIn(ctx, repos, &election, now); err != nil {
				return err
			}
			if err := repos.SaveElection(ctx, election); err != nil {
				return err
			}
		case entities.RoundStateOpen:
		case entities.RoundStateAborted:
			return fmt.Errorf("%w: %w", domainerrors.ErrRoundClosed, domainerrors.ErrRoundAborted)
		default:
			return domainerrors.ErrRoundClosed
		}
		if !election.HasCandidate(strings.TrimSpace(candidateID)) {
			return fmt.Errorf("%w: %s", domainerrors.ErrInvalidCandidate, candidateID)
		}
		cast, lazilyClosed, err := s.Box.CastIn(ctx, repos, election.RoundID, voterID, strings.TrimSpace(candidateID))
		if err != nil {
			return err
		}
		if lazilyClosed {
			closed = true
			if err := election.MoveTo(entities.RoundStateClosed, now); err != nil {
				return err
			}
			return repos.SaveElection(ctx, election)
		}
		ballot = cast
		return nil
	})
	if err == nil && closed {
		err = fmt.Errorf("%w: closing time reached", domainerrors.ErrRoundClosed)
	}
	if err != nil {
		s.metrics().Rejected("election_cast", err)
		return entities.Ballot{}, err
	}
	s.metrics().BallotCast(entities.RoundKindElection)
	return ballot, nil
}

// Resolve closes, tallies and decides the election. Resolving before the
// closing time requires a board actor or service account. A resolved
// election is returned as stored.
func (s Service) Resolve(ctx context.Context, actorID string, roundID string) (entities.Election, error) {
	logger := application.ResolveLogger(s.Logger)
	var decided bool
	election, err := s.mutate(ctx, roundID, func(ctx context.Context, repos ports.Repositories, election *entities.Election) error {
		now := s.now()
		switch election.State {
		case entities.RoundStateResolved:
			return nil
		case entities.RoundStateAborted:
			return domainerrors.ErrRoundAborted
		case entities.RoundStateScheduled:
			return domainerrors.ErrRoundNotOpen
		case entities.RoundStateOpen:
			if !expired(election.ClosesAt, now) {
				if err := s.Ledger.RequireBoardActorIn(ctx, repos, election.AssociationID, actorID); err != nil {
					return err
				}
			}
			if err := s.closeIn(ctx, repos, election); err != nil {
				return err
			}
		}

		tally, err := s.Box.TallyIn(ctx, repos, election.RoundID)
		if err != nil {
			return err
		}
		rules, err := s.Policies.PolicyFor(ctx, election.AssociationID)
		if err != nil {
			return err
		}
		result := policy.Plurality(tally, election.Candidates, rules.ElectionQuorum)
		outcome := result.Outcome
		if outcome == entities.ElectionOutcomeElected {
			if outcome, err = s.seatWinnerIn(ctx, repos, *election, result.WinnerID, rules); err != nil {
				return err
			}
		}

		if err := election.MoveTo(entities.RoundStateResolved, now); err != nil {
			return err
		}
		election.Outcome = outcome
		election.WinnerID = result.WinnerID
		election.Counts = tally.Counts
		election.Eligible = tally.EligibleCount
		election.BallotsCast = tally.BallotsCast
		election.Turnout = result.Turnout
		election.ResolvedAt = &now
		if err := repos.SaveElection(ctx, *election); err != nil {
			return err
		}
		decided = true
		return application.AppendDecision(ctx, repos, s.IDGen, application.EventElectionResolved, ports.DecisionEvent{
			RoundID:       election.RoundID,
			AssociationID: election.AssociationID,
			Kind:          string(entities.RoundKindElection),
			Outcome:       string(outcome),
			Timestamp:     now,
		})
	})
	if err != nil {
		logger.Warn("governance election resolve rejected",
			"event", "governance_election_resolve_rejected",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"round_id", roundID,
			"actor_id", actorID,
			"error", err.Error(),
		)
		s.metrics().Rejected("election_resolve", err)
		return entities.Election{}, err
	}
	if decided {
		s.metrics().RoundResolved(entities.RoundKindElection, string(election.Outcome))
		logger.Info("governance election resolved",
			"event", "governance_election_resolved",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"association_id", election.AssociationID,
			"round_id", election.RoundID,
			"outcome", string(election.Outcome),
			"winner_id", election.WinnerID,
			"turnout", election.Turnout,
		)
	}
	return election, nil
}

// Abort ends a non-terminal election without touching the ledger.
func (s Service) Abort(ctx context.Context, actorID string, roundID string, reason string) (entities.Election, error) {
	election, err := s.mutate(ctx, roundID, func(ctx context.Context, repos ports.Repositories, election *entities.Election) error {
		switch election.State {
		case entities.RoundStateAborted:
			return nil
		case entities.RoundStateResolved:
			return domainerrors.ErrRoundClosed
		}
		if err := s.Ledger.RequireBoardActorIn(ctx, repos, election.AssociationID, actorID); err != nil {
			return err
		}
		if election.State != entities.RoundStateScheduled {
			if _, err := s.Box.CloseIn(ctx, repos, election.RoundID); err != nil {
				return err
			}
		}
		now := s.now()
		if err := election.MoveTo(entities.RoundStateAborted, now); err != nil {
			return err
		}
		election.AbortReason = strings.TrimSpace(reason)
		if err := repos.SaveElection(ctx, *election); err != nil {
			return err
		}
		return application.AppendDecision(ctx, repos, s.IDGen, application.EventRoundAborted, ports.DecisionEvent{
			RoundID:       election.RoundID,
			AssociationID: election.AssociationID,
			Kind:          string(entities.RoundKindElection),
			Outcome:       string(entities.RoundStateAborted),
			Timestamp:     now,
		})
	})
	if err != nil {
		return entities.Election{}, err
	}
	application.ResolveLogger(s.Logger).Info("governance election aborted",
		"event", "governance_election_aborted",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"round_id", election.RoundID,
		"actor_id", actorID,
		"reason", election.AbortReason,
	)
	return election, nil
}

func (s Service) GetElection(ctx context.Context, roundID string) (entities.Election, error) {
	return s.Elections.GetElection(ctx, strings.TrimSpace(roundID))
}

// mutate locates the election outside the lock, then re-reads and applies fn
// under the association's unit of work.
func (s Service) mutate(
	ctx context.Context,
	roundID string,
	fn func(ctx context.Context, repos ports.Repositories, election *entities.Election) error,
) (entities.Election, error) {
	located, err := s.Elections.GetElection(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return entities.Election{}, err
	}
	var out entities.Election
	err = s.UnitOfWork.WithinAssociation(ctx, located.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		election, err := repos.GetElection(ctx, located.RoundID)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, &election); err != nil {
			return err
		}
		out = election
		return nil
	})
	return out, err
}

func (s Service) activateIn(ctx context.Context, repos ports.Repositories, election *entities.Election, now time.Time) error {
	if err := election.MoveTo(entities.RoundStateOpen, now); err != nil {
		return err
	}
	election.OpensAt = now
	voters, err := s.Ledger.GoodStandingVotersIn(ctx, repos, election.AssociationID)
	if err != nil {
		return err
	}
	_, err = s.Box.OpenIn(ctx, repos, ballots.OpenCommand{
		RoundID:        election.RoundID,
		AssociationID:  election.AssociationID,
		Kind:           entities.RoundKindElection,
		EligibleVoters: voters,
		AllowedChoices: election.Candidates,
		ClosesAt:       election.ClosesAt,
	})
	return err
}

func (s Service) closeIn(ctx context.Context, repos ports.Repositories, election *entities.Election) error {
	if err := election.MoveTo(entities.RoundStateClosed, s.now()); err != nil {
		return err
	}
	if _, err := s.Box.CloseIn(ctx, repos, election.RoundID); err != nil {
		return err
	}
	return repos.SaveElection(ctx, *election)
}

// seatWinnerIn hands the seat to the winner. A winner who left or was
// expelled since the round opened takes no seat, and the outgoing holder
// keeps theirs.
func (s Service) seatWinnerIn(
	ctx context.Context,
	repos ports.Repositories,
	election entities.Election,
	winnerID string,
	rules entities.GovernancePolicy,
) (entities.ElectionOutcome, error) {
	membership, found, err := repos.GetMembership(ctx, election.AssociationID, winnerID)
	if err != nil {
		return "", err
	}
	if !found || !membership.IsActive() {
		application.ResolveLogger(s.Logger).Warn("governance election winner departed",
			"event", "governance_election_winner_departed",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"association_id", election.AssociationID,
			"round_id", election.RoundID,
			"winner_id", winnerID,
		)
		return entities.ElectionOutcomeWinnerDeparted, nil
	}
	if err := s.Ledger.SetBoardStatusIn(ctx, repos, election.AssociationID, winnerID, true); err != nil {
		return "", err
	}
	if err := s.clearOutgoingIn(ctx, repos, election, winnerID, rules); err != nil {
		return "", err
	}
	return entities.ElectionOutcomeElected, nil
}

// clearOutgoingIn drops the outgoing holder's seat when policy asks for it.
// A holder who is no longer an active member holds no seat to clear.
func (s Service) clearOutgoingIn(ctx context.Context, repos ports.Repositories, election entities.Election, winnerID string, rules entities.GovernancePolicy) error {
	outgoing := election.OutgoingHolderID
	if !rules.ClearOutgoingSeat || outgoing == "" || outgoing == winnerID {
		return nil
	}
	membership, found, err := repos.GetMembership(ctx, election.AssociationID, outgoing)
	if err != nil {
		return err
	}
	if !found || !membership.IsActive() {
		return nil
	}
	return s.Ledger.SetBoardStatusIn(ctx, repos, election.AssociationID, outgoing, false)
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

func normalizeCandidates(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: at least one candidate is required", domainerrors.ErrInvalidCandidate)
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, candidate := range raw {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			return nil, fmt.Errorf("%w: empty candidate id", domainerrors.ErrInvalidCandidate)
		}
		if _, ok := seen[candidate]; ok {
			return nil, fmt.Errorf("%w: duplicate candidate %s", domainerrors.ErrInvalidCandidate, candidate)
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out, nil
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
