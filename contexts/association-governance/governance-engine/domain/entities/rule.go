package entities

import "time"

// Rule ids are stable across amendments; only Text and Version change.
type Rule struct {
	RuleID        string
	AssociationID string
	Position      int
	Text          string
	Version       int
	LastMotionID  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type MotionKind string

const (
	MotionKindProposal  MotionKind = "proposal"
	MotionKindAmendment MotionKind = "amendment"
)

type MotionOutcome string

const (
	MotionOutcomePassed MotionOutcome = "passed"
	MotionOutcomeFailed MotionOutcome = "failed"
)

const (
	FailureReasonNoQuorum           = "no_quorum"
	FailureReasonMajorityNotReached = "majority_not_reached"
)

// Motion is a proposal (new rule) or amendment (replacement text for
// TargetRuleID) decided by a BallotBox round sharing its RoundID.
type Motion struct {
	RoundID       string
	AssociationID string
	Kind          MotionKind
	TargetRuleID  string
	Text          string
	ProposerID    string
	State         RoundState
	Outcome       MotionOutcome
	FailureReason string
	ResultRuleID  string
	For           int
	Against       int
	Abstain       int
	Eligible      int
	Turnout       float64
	OpensAt       time.Time
	ClosesAt      *time.Time
	AbortReason   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time
}

// MoveTo advances the motion along the round state table.
func (m *Motion) MoveTo(to RoundState, now time.Time) error {
	if err := checkTransition(string(m.Kind), m.RoundID, m.State, to); err != nil {
		return err
	}
	m.State = to
	m.UpdatedAt = now
	return nil
}

func (m Motion) SweepDue(now time.Time) bool {
	return SweepDue(m.State, m.OpensAt, m.ClosesAt, now)
}
