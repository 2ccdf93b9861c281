// Package policy holds the pure decision rules of the governance engine.
// Nothing here touches storage, so results are reproducible from a tally.
package policy

import (
	"sort"
	"strconv"

	"agora/contexts/association-governance/governance-engine/domain/entities"
)

// TieBreakPolicy is the documented election tie-break rule. It is part of the
// compatibility contract and must not be changed.
const TieBreakPolicy = "A tie among the candidates holding the top vote count is resolved in favour of the lowest candidate id. " +
	"Ids that parse as base-10 integers sort before all other ids and compare numerically, equal values falling back to byte order. " +
	"All other ids compare byte-wise lexicographically."

// LessCandidateID orders candidate ids according to TieBreakPolicy. It is a
// strict total order, so the winner never depends on candidate listing order.
func LessCandidateID(a string, b string) bool {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	aNumeric, bNumeric := aErr == nil, bErr == nil
	switch {
	case aNumeric && bNumeric:
		if ai != bi {
			return ai < bi
		}
		return a < b
	case aNumeric != bNumeric:
		return aNumeric
	default:
		return a < b
	}
}

// PluralityResult is the election decision derived from a tally.
type PluralityResult struct {
	Outcome  entities.ElectionOutcome
	WinnerID string
	TopVotes int
	Tied     []string
	Turnout  float64
}

// Plurality picks the strict-plurality winner among candidates. Turnout below
// quorum, or no ballots at all, yields no_quorum.
func Plurality(tally entities.Tally, candidates []string, quorum float64) PluralityResult {
	turnout := tally.Turnout()
	result := PluralityResult{Outcome: entities.ElectionOutcomeNoQuorum, Turnout: turnout}
	if tally.BallotsCast == 0 || turnout < quorum {
		return result
	}

	top := -1
	var tied []string
	for _, candidate := range candidates {
		votes := tally.Count(candidate)
		switch {
		case votes > top:
			top = votes
			tied = []string{candidate}
		case votes == top:
			tied = append(tied, candidate)
		}
	}
	if top <= 0 {
		return result
	}
	sort.Slice(tied, func(i, j int) bool { return LessCandidateID(tied[i], tied[j]) })

	result.Outcome = entities.ElectionOutcomeElected
	result.WinnerID = tied[0]
	result.TopVotes = top
	if len(tied) > 1 {
		result.Tied = tied
	}
	return result
}

// MotionResult is the pass/fail decision for a proposal or amendment.
type MotionResult struct {
	Outcome       entities.MotionOutcome
	FailureReason string
	ForRatio      float64
	Turnout       float64
}

// EvaluateMotion applies the pass rule: for >= majority*(for+against) and
// turnout >= quorum. Abstentions count toward turnout only.
func EvaluateMotion(tally entities.Tally, quorum float64, majority float64) MotionResult {
	forVotes := tally.Count(entities.ChoiceFor)
	against := tally.Count(entities.ChoiceAgainst)
	result := MotionResult{
		Outcome: entities.MotionOutcomeFailed,
		Turnout: tally.Turnout(),
	}
	if decided := forVotes + against; decided > 0 {
		result.ForRatio = float64(forVotes) / float64(decided)
	}
	if tally.BallotsCast == 0 || result.Turnout < quorum {
		result.FailureReason = entities.FailureReasonNoQuorum
		return result
	}
	if forVotes+against == 0 || result.ForRatio < majority {
		result.FailureReason = entities.FailureReasonMajorityNotReached
		return result
	}
	result.Outcome = entities.MotionOutcomePassed
	return result
}

// SanctionTier returns the most severe action whose threshold count reaches.
func SanctionTier(count int, p entities.GovernancePolicy) entities.SanctionAction {
	switch {
	case p.ExpulsionThreshold > 0 && count >= p.ExpulsionThreshold:
		return entities.SanctionActionExpulsion
	case p.SuspensionThreshold > 0 && count >= p.SuspensionThreshold:
		return entities.SanctionActionSuspension
	case p.WarningThreshold > 0 && count >= p.WarningThreshold:
		return entities.SanctionActionWarning
	default:
		return entities.SanctionActionNone
	}
}
