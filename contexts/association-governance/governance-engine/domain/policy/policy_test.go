package policy

import (
	"testing"
	"time"

	"agora/contexts/association-governance/governance-engine/domain/entities"
)

func TestPluralityTieBreaksOnLowestCandidateID(t *testing.T) {
	tally := entities.Tally{
		Counts:        map[string]int{"1": 3, "2": 5, "3": 5, "4": 3},
		BallotsCast:   16,
		EligibleCount: 20,
		ComputedAt:    time.Now().UTC(),
	}
	for run := 0; run < 25; run++ {
		result := Plurality(tally, []string{"4", "3", "2", "1"}, 0.5)
		if result.Outcome != entities.ElectionOutcomeElected {
			t.Fatalf("expected elected outcome, got %s", result.Outcome)
		}
		if result.WinnerID != "2" {
			t.Fatalf("run %d: expected winner 2, got %s", run, result.WinnerID)
		}
		if len(result.Tied) != 2 {
			t.Fatalf("expected two tied candidates, got %v", result.Tied)
		}
	}
}

func TestLessCandidateIDComparesIntegersNumerically(t *testing.T) {
	if !LessCandidateID("9", "10") {
		t.Fatalf("expected 9 < 10 numerically")
	}
	if !LessCandidateID("alice", "bob") {
		t.Fatalf("expected byte-wise ordering for non-numeric ids")
	}
	if !LessCandidateID("10", "9x") || LessCandidateID("9x", "10") {
		t.Fatalf("expected numeric ids to sort before non-numeric ones")
	}
	if !LessCandidateID("01", "1") || LessCandidateID("1", "01") {
		t.Fatalf("expected equal numeric values to fall back to byte order")
	}
}

func TestPluralityTieBreakIgnoresCandidateOrder(t *testing.T) {
	ids := []string{"9", "10", "1x", "alice", "007"}
	counts := map[string]int{}
	for _, id := range ids {
		counts[id] = 2
	}
	tally := entities.Tally{Counts: counts, BallotsCast: 10, EligibleCount: 10}

	var permute func(prefix []string, rest []string)
	permute = func(prefix []string, rest []string) {
		if len(rest) == 0 {
			result := Plurality(tally, prefix, 0.5)
			if result.WinnerID != "007" {
				t.Fatalf("order %v: expected winner 007, got %s", prefix, result.WinnerID)
			}
			return
		}
		for i := range rest {
			next := append(append([]string(nil), rest[:i]...), rest[i+1:]...)
			permute(append(append([]string(nil), prefix...), rest[i]), next)
		}
	}
	permute(nil, ids)
}

func TestPluralityNoQuorum(t *testing.T) {
	tally := entities.Tally{
		Counts:        map[string]int{"a": 3, "b": 1},
		BallotsCast:   4,
		EligibleCount: 10,
	}
	result := Plurality(tally, []string{"a", "b"}, 0.5)
	if result.Outcome != entities.ElectionOutcomeNoQuorum {
		t.Fatalf("expected no_quorum, got %s", result.Outcome)
	}
	if result.WinnerID != "" {
		t.Fatalf("expected no winner, got %s", result.WinnerID)
	}
}

func TestPluralityZeroBallotsIsNoQuorum(t *testing.T) {
	result := Plurality(entities.Tally{EligibleCount: 3}, []string{"a"}, 0)
	if result.Outcome != entities.ElectionOutcomeNoQuorum {
		t.Fatalf("expected no_quorum with zero ballots, got %s", result.Outcome)
	}
}

func TestEvaluateMotion(t *testing.T) {
	cases := []struct {
		name    string
		counts  map[string]int
		outcome entities.MotionOutcome
		reason  string
	}{
		{"passes", map[string]int{"for": 5, "against": 1}, entities.MotionOutcomePassed, ""},
		{"exact majority passes", map[string]int{"for": 2, "against": 2}, entities.MotionOutcomePassed, ""},
		{"majority missed", map[string]int{"for": 1, "against": 3}, entities.MotionOutcomeFailed, entities.FailureReasonMajorityNotReached},
		{"abstain only", map[string]int{"abstain": 4}, entities.MotionOutcomeFailed, entities.FailureReasonMajorityNotReached},
		{"below quorum", map[string]int{"for": 2}, entities.MotionOutcomeFailed, entities.FailureReasonNoQuorum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cast := 0
			for _, n := range tc.counts {
				cast += n
			}
			result := EvaluateMotion(entities.Tally{Counts: tc.counts, BallotsCast: cast, EligibleCount: 10}, 0.3, 0.5)
			if result.Outcome != tc.outcome || result.FailureReason != tc.reason {
				t.Fatalf("expected %s/%q, got %s/%q", tc.outcome, tc.reason, result.Outcome, result.FailureReason)
			}
		})
	}
}

func TestSanctionTier(t *testing.T) {
	p := entities.GovernancePolicy{WarningThreshold: 1, SuspensionThreshold: 3, ExpulsionThreshold: 5}
	expect := map[int]entities.SanctionAction{
		0: entities.SanctionActionNone,
		1: entities.SanctionActionWarning,
		3: entities.SanctionActionSuspension,
		4: entities.SanctionActionSuspension,
		5: entities.SanctionActionExpulsion,
	}
	for count, action := range expect {
		if got := SanctionTier(count, p); got != action {
			t.Fatalf("count %d: expected %q, got %q", count, action, got)
		}
	}
}
