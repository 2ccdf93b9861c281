// Package ballots implements the ballot box shared by elections and motions.
// A round moves open -> closed -> tallied and accepts one ballot per voter
// from the eligibility snapshot taken when it opened.
package ballots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "agora/contexts/association-governance/governance-engine/application"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"
)

// Service owns ballot rounds: eligibility snapshots, ballot recording and
// tallies. The election and amendment engines drive it inside their own
// units of work.
type Service struct {
	UnitOfWork ports.UnitOfWork
	Rounds     ports.BallotRepository
	Metrics    ports.Metrics
	Clock      ports.Clock
	Logger     *slog.Logger
}

// OpenCommand opens a ballot round for a fixed voter snapshot.
type OpenCommand struct {
	RoundID        string
	AssociationID  string
	Kind           entities.RoundKind
	EligibleVoters []string
	AllowedChoices []string
	ClosesAt       *time.Time
}

func (s Service) Open(ctx context.Context, cmd OpenCommand) (entities.BallotRound, error) {
	var round entities.BallotRound
	err := s.UnitOfWork.WithinAssociation(ctx, cmd.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		opened, err := s.OpenIn(ctx, repos, cmd)
		round = opened
		return err
	})
	return round, err
}

// Cast records one ballot. A cast at or after the closing timestamp closes
// the round and fails with ErrRoundClosed.
func (s Service) Cast(ctx context.Context, roundID string, voterID string, choice string) (entities.Ballot, error) {
	located, err := s.Rounds.GetBallotRound(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return entities.Ballot{}, err
	}
	var (
		ballot entities.Ballot
		closed bool
	)
	err = s.UnitOfWork.WithinAssociation(ctx, located.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		cast, lazilyClosed, err := s.CastIn(ctx, repos, located.RoundID, voterID, choice)
		ballot, closed = cast, lazilyClosed
		return err
	})
	if err == nil && closed {
		err = fmt.Errorf("%w: closing time reached", domainerrors.ErrRoundClosed)
	}
	if err != nil {
		s.metrics().Rejected("ballot_cast", err)
		return entities.Ballot{}, err
	}
	s.metrics().BallotCast(located.Kind)
	return ballot, nil
}

func (s Service) Close(ctx context.Context, roundID string) (entities.BallotRound, error) {
	located, err := s.Rounds.GetBallotRound(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return entities.BallotRound{}, err
	}
	var round entities.BallotRound
	err = s.UnitOfWork.WithinAssociation(ctx, located.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		closed, err := s.CloseIn(ctx, repos, located.RoundID)
		round = closed
		return err
	})
	return round, err
}

// Tally computes the result of a closed round once; later calls return the
// cached tally.
func (s Service) Tally(ctx context.Context, roundID string) (entities.Tally, error) {
	located, err := s.Rounds.GetBallotRound(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return entities.Tally{}, err
	}
	if located.State == entities.BoxStateTallied && located.Tally != nil {
		return *located.Tally, nil
	}
	var tally entities.Tally
	err = s.UnitOfWork.WithinAssociation(ctx, located.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		computed, err := s.TallyIn(ctx, repos, located.RoundID)
		tally = computed
		return err
	})
	return tally, err
}

// Results reads a tallied round without taking the association lock.
func (s Service) Results(ctx context.Context, roundID string) (entities.BallotRound, error) {
	round, err := s.Rounds.GetBallotRound(ctx, strings.TrimSpace(roundID))
	if err != nil {
		return entities.BallotRound{}, err
	}
	if round.State != entities.BoxStateTallied {
		return entities.BallotRound{}, fmt.Errorf("%w: round %s is %s", domainerrors.ErrRoundNotOpen, round.RoundID, round.State)
	}
	return round, nil
}

func (s Service) OpenIn(ctx context.Context, repos ports.BallotRepository, cmd OpenCommand) (entities.BallotRound, error) {
	cmd.RoundID = strings.TrimSpace(cmd.RoundID)
	cmd.AssociationID = strings.TrimSpace(cmd.AssociationID)
	if cmd.RoundID == "" || cmd.AssociationID == "" || cmd.Kind == "" {
		return entities.BallotRound{}, fmt.Errorf("%w: round id, association id and kind are required", domainerrors.ErrInvalidRequest)
	}
	if _, err := repos.GetBallotRound(ctx, cmd.RoundID); err == nil {
		return entities.BallotRound{}, fmt.Errorf("%w: %s", domainerrors.ErrRoundAlreadyOpen, cmd.RoundID)
	} else if !errors.Is(err, domainerrors.ErrRoundNotFound) {
		return entities.BallotRound{}, err
	}

	now := s.now()
	round := entities.BallotRound{
		RoundID:        cmd.RoundID,
		AssociationID:  cmd.AssociationID,
		Kind:           cmd.Kind,
		State:          entities.BoxStateOpen,
		EligibleVoters: snapshot(cmd.EligibleVoters),
		AllowedChoices: append([]string(nil), cmd.AllowedChoices...),
		ClosesAt:       cmd.ClosesAt,
		OpenedAt:       now,
	}
	if err := repos.CreateBallotRound(ctx, round); err != nil {
		return entities.BallotRound{}, err
	}
	application.ResolveLogger(s.Logger).Info("governance ballot round opened",
		"event", "governance_ballot_round_opened",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", round.AssociationID,
		"round_id", round.RoundID,
		"kind", string(round.Kind),
		"eligible_count", len(round.EligibleVoters),
	)
	return round, nil
}

// CastIn records a ballot inside the caller's unit of work. When the closing
// timestamp has elapsed it closes the round and returns closed=true with a nil
// error, so the close commits while the ballot is refused.
func (s Service) CastIn(ctx context.Context, repos ports.BallotRepository, roundID string, voterID string, choice string) (entities.Ballot, bool, error) {
	voterID = strings.TrimSpace(voterID)
	choice = strings.TrimSpace(choice)
	if voterID == "" {
		return entities.Ballot{}, false, fmt.Errorf("%w: voter id is required", domainerrors.ErrInvalidRequest)
	}
	round, err := repos.GetBallotRound(ctx, roundID)
	if err != nil {
		return entities.Ballot{}, false, err
	}
	if round.State != entities.BoxStateOpen {
		return entities.Ballot{}, false, domainerrors.ErrRoundClosed
	}
	now := s.now()
	if round.Expired(now) {
		if _, err := s.CloseIn(ctx, repos, roundID); err != nil {
			return entities.Ballot{}, false, err
		}
		return entities.Ballot{}, true, nil
	}
	if !round.IsEligible(voterID) {
		return entities.Ballot{}, false, domainerrors.ErrNotEligible
	}
	if !round.AllowsChoice(choice) {
		return entities.Ballot{}, false, fmt.Errorf("%w: %q", domainerrors.ErrInvalidChoice, choice)
	}
	if _, found, err := repos.GetBallot(ctx, roundID, voterID); err != nil {
		return entities.Ballot{}, false, err
	} else if found {
		return entities.Ballot{}, false, domainerrors.ErrAlreadyVoted
	}

	ballot := entities.Ballot{
		RoundID: roundID,
		VoterID: voterID,
		Choice:  choice,
		CastAt:  now,
	}
	if err := repos.InsertBallot(ctx, ballot); err != nil {
		return entities.Ballot{}, false, err
	}
	application.ResolveLogger(s.Logger).Debug("governance ballot cast",
		"event", "governance_ballot_cast",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"round_id", roundID,
		"voter_id", voterID,
	)
	return ballot, false, nil
}

// CloseIn moves an open round to closed. Closing a closed or tallied round is
// a no-op.
func (s Service) CloseIn(ctx context.Context, repos ports.BallotRepository, roundID string) (entities.BallotRound, error) {
	round, err := repos.GetBallotRound(ctx, roundID)
	if err != nil {
		return entities.BallotRound{}, err
	}
	if round.State != entities.BoxStateOpen {
		return round, nil
	}
	now := s.now()
	round.State = entities.BoxStateClosed
	round.ClosedAt = &now
	if err := repos.UpdateBallotRound(ctx, round); err != nil {
		return entities.BallotRound{}, err
	}
	application.ResolveLogger(s.Logger).Info("governance ballot round closed",
		"event", "governance_ballot_round_closed",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", round.AssociationID,
		"round_id", round.RoundID,
	)
	return round, nil
}

func (s Service) TallyIn(ctx context.Context, repos ports.BallotRepository, roundID string) (entities.Tally, error) {
	logger := application.ResolveLogger(s.Logger)
	round, err := repos.GetBallotRound(ctx, roundID)
	if err != nil {
		return entities.Tally{}, err
	}
	switch round.State {
	case entities.BoxStateTallied:
		if round.Tally == nil {
			return entities.Tally{}, s.invariant(logger, round, "tallied round has no cached tally")
		}
		return *round.Tally, nil
	case entities.BoxStateClosed:
	default:
		return entities.Tally{}, s.invariant(logger, round, "tally requested on an open round")
	}

	ballots, err := repos.ListBallots(ctx, roundID)
	if err != nil {
		return entities.Tally{}, err
	}
	if len(ballots) > len(round.EligibleVoters) {
		return entities.Tally{}, s.invariant(logger, round, "more ballots than eligible voters")
	}
	counts := make(map[string]int, len(round.AllowedChoices))
	for _, choice := range round.AllowedChoices {
		counts[choice] = 0
	}
	for _, ballot := range ballots {
		counts[ballot.Choice]++
	}
	now := s.now()
	tally := entities.Tally{
		Counts:        counts,
		BallotsCast:   len(ballots),
		EligibleCount: len(round.EligibleVoters),
		ComputedAt:    now,
	}
	round.State = entities.BoxStateTallied
	round.Tally = &tally
	round.TalliedAt = &now
	if err := repos.UpdateBallotRound(ctx, round); err != nil {
		return entities.Tally{}, err
	}
	logger.Info("governance ballot round tallied",
		"event", "governance_ballot_round_tallied",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", round.AssociationID,
		"round_id", round.RoundID,
		"ballots_cast", tally.BallotsCast,
		"eligible_count", tally.EligibleCount,
	)
	return tally, nil
}

func (s Service) invariant(logger *slog.Logger, round entities.BallotRound, detail string) error {
	logger.Error("governance ballot invariant violated",
		"event", "governance_ballot_invariant_violated",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"round_id", round.RoundID,
		"state", string(round.State),
		"detail", detail,
	)
	return fmt.Errorf("%w: %s (round %s)", domainerrors.ErrInvariantViolation, detail, round.RoundID)
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

func snapshot(voters []string) []string {
	seen := make(map[string]struct{}, len(voters))
	out := make([]string, 0, len(voters))
	for _, voter := range voters {
		voter = strings.TrimSpace(voter)
		if voter == "" {
			continue
		}
		if _, ok := seen[voter]; ok {
			continue
		}
		seen[voter] = struct{}{}
		out = append(out, voter)
	}
	sort.Strings(out)
	return out
}
