package entities

import (
	"fmt"
	"sort"
	"time"

	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
)

type RoundKind string

const (
	RoundKindElection  RoundKind = "election"
	RoundKindProposal  RoundKind = "proposal"
	RoundKindAmendment RoundKind = "amendment"
)

// BoxState is the BallotBox lifecycle: open -> closed -> tallied.
type BoxState string

const (
	BoxStateOpen    BoxState = "open"
	BoxStateClosed  BoxState = "closed"
	BoxStateTallied BoxState = "tallied"
)

// RoundState is the engine-level lifecycle shared by elections and motions.
type RoundState string

const (
	RoundStateScheduled RoundState = "scheduled"
	RoundStateOpen      RoundState = "open"
	RoundStateClosed    RoundState = "closed"
	RoundStateResolved  RoundState = "resolved"
	RoundStateAborted   RoundState = "aborted"
)

var roundTransitions = map[RoundState][]RoundState{
	RoundStateScheduled: {RoundStateOpen, RoundStateAborted},
	RoundStateOpen:      {RoundStateClosed, RoundStateAborted},
	RoundStateClosed:    {RoundStateResolved, RoundStateAborted},
}

func (s RoundState) CanTransition(to RoundState) bool {
	for _, next := range roundTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s RoundState) IsTerminal() bool {
	return s == RoundStateResolved || s == RoundStateAborted
}

func checkTransition(kind string, roundID string, from RoundState, to RoundState) error {
	if from.CanTransition(to) {
		return nil
	}
	return fmt.Errorf("%w: %s %s cannot move from %s to %s", domainerrors.ErrInvariantViolation, kind, roundID, from, to)
}

// SweepDue reports whether a round in state has its next time-driven step
// due at now: scheduled rounds once opensAt is reached, open rounds once
// closesAt is reached, closed rounds always.
func SweepDue(state RoundState, opensAt time.Time, closesAt *time.Time, now time.Time) bool {
	switch state {
	case RoundStateScheduled:
		return !opensAt.After(now)
	case RoundStateOpen:
		return closesAt != nil && !now.Before(*closesAt)
	case RoundStateClosed:
		return true
	default:
		return false
	}
}

const (
	ChoiceFor     = "for"
	ChoiceAgainst = "against"
	ChoiceAbstain = "abstain"
)

var MotionChoices = []string{ChoiceFor, ChoiceAgainst, ChoiceAbstain}

// BallotRound is the generic vote-collection round. EligibleVoters is the
// sorted snapshot taken when the round opened.
type BallotRound struct {
	RoundID        string
	AssociationID  string
	Kind           RoundKind
	State          BoxState
	EligibleVoters []string
	AllowedChoices []string
	ClosesAt       *time.Time
	Tally          *Tally
	OpenedAt       time.Time
	ClosedAt       *time.Time
	TalliedAt      *time.Time
}

func (r BallotRound) IsEligible(voterID string) bool {
	idx := sort.SearchStrings(r.EligibleVoters, voterID)
	return idx < len(r.EligibleVoters) && r.EligibleVoters[idx] == voterID
}

func (r BallotRound) AllowsChoice(choice string) bool {
	if len(r.AllowedChoices) == 0 {
		return choice != ""
	}
	for _, allowed := range r.AllowedChoices {
		if allowed == choice {
			return true
		}
	}
	return false
}

// Expired reports whether the closing timestamp has been reached.
func (r BallotRound) Expired(now time.Time) bool {
	return r.ClosesAt != nil && !now.UTC().Before(r.ClosesAt.UTC())
}

type Ballot struct {
	RoundID string
	VoterID string
	Choice  string
	CastAt  time.Time
}

// Tally is computed once per round and cached on the BallotRound.
type Tally struct {
	Counts        map[string]int `json:"counts"`
	BallotsCast   int            `json:"ballots_cast"`
	EligibleCount int            `json:"eligible_count"`
	ComputedAt    time.Time      `json:"computed_at"`
}

func (t Tally) Turnout() float64 {
	if t.EligibleCount <= 0 {
		return 0
	}
	return float64(t.BallotsCast) / float64(t.EligibleCount)
}

func (t Tally) Count(choice string) int {
	return t.Counts[choice]
}

type ElectionOutcome string

const (
	ElectionOutcomeElected  ElectionOutcome = "elected"
	ElectionOutcomeNoQuorum ElectionOutcome = "no_quorum"
	// ElectionOutcomeWinnerDeparted records a plurality winner who stopped
	// being an active member before resolution. No seat changes hands.
	ElectionOutcomeWinnerDeparted ElectionOutcome = "winner_departed"
)

type Election struct {
	RoundID          string
	AssociationID    string
	Seat             string
	Candidates       []string
	OutgoingHolderID string
	State            RoundState
	Outcome          ElectionOutcome
	WinnerID         string
	Counts           map[string]int
	Eligible         int
	BallotsCast      int
	Turnout          float64
	OpensAt          time.Time
	ClosesAt         *time.Time
	CreatedBy        string
	AbortReason      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ResolvedAt       *time.Time
}

// MoveTo advances the election along the round state table.
func (e *Election) MoveTo(to RoundState, now time.Time) error {
	if err := checkTransition("election", e.RoundID, e.State, to); err != nil {
		return err
	}
	e.State = to
	e.UpdatedAt = now
	return nil
}

// SweepDue reports whether the election's next time-driven step is due.
func (e Election) SweepDue(now time.Time) bool {
	return SweepDue(e.State, e.OpensAt, e.ClosesAt, now)
}

func (e Election) HasCandidate(candidateID string) bool {
	for _, id := range e.Candidates {
		if id == candidateID {
			return true
		}
	}
	return false
}
