// Package metrics records governance decisions as Prometheus series.
package metrics

import (
	"errors"

	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricNamePrefix = "agora_governance_"

type Recorder struct {
	ballots   *prometheus.CounterVec
	resolved  *prometheus.CounterVec
	sanctions *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

// NewRecorder registers the governance series with registry.
func NewRecorder(registry prometheus.Registerer) *Recorder {
	factory := promauto.With(registry)
	return &Recorder{
		ballots: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricNamePrefix + "ballots_cast_total",
			Help: "accepted ballots by round kind",
		}, []string{"kind"}),
		resolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricNamePrefix + "rounds_resolved_total",
			Help: "resolved rounds by kind and outcome",
		}, []string{"kind", "outcome"}),
		sanctions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricNamePrefix + "sanctions_decided_total",
			Help: "sanction decisions by action",
		}, []string{"action"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricNamePrefix + "rejections_total",
			Help: "rejected operations by operation and reason",
		}, []string{"operation", "reason"}),
	}
}

func (r *Recorder) BallotCast(kind entities.RoundKind) {
	r.ballots.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) RoundResolved(kind entities.RoundKind, outcome string) {
	r.resolved.WithLabelValues(string(kind), outcome).Inc()
}

func (r *Recorder) SanctionDecided(action entities.SanctionAction) {
	r.sanctions.WithLabelValues(string(action)).Inc()
}

func (r *Recorder) Rejected(operation string, err error) {
	r.rejected.WithLabelValues(operation, Reason(err)).Inc()
}

var reasons = []struct {
	err   error
	label string
}{
	{domainerrors.ErrInvariantViolation, "invariant_violation"},
	{domainerrors.ErrAlreadyVoted, "already_voted"},
	{domainerrors.ErrDuplicateReport, "duplicate_report"},
	{domainerrors.ErrRoundAborted, "round_aborted"},
	{domainerrors.ErrRoundClosed, "round_closed"},
	{domainerrors.ErrRoundNotOpen, "round_not_open"},
	{domainerrors.ErrRoundAlreadyOpen, "round_already_open"},
	{domainerrors.ErrNotEligible, "not_eligible"},
	{domainerrors.ErrNotAMember, "not_a_member"},
	{domainerrors.ErrSelfReport, "self_report"},
	{domainerrors.ErrInvalidCandidate, "invalid_candidate"},
	{domainerrors.ErrInvalidChoice, "invalid_choice"},
	{domainerrors.ErrNoSuchRule, "no_such_rule"},
	{domainerrors.ErrRuleSetSealed, "rule_set_sealed"},
	{domainerrors.ErrCapacityExceeded, "capacity_exceeded"},
	{domainerrors.ErrAlreadyMember, "already_member"},
	{domainerrors.ErrMalformedAddress, "malformed_address"},
	{domainerrors.ErrInvalidRequest, "invalid_request"},
	{domainerrors.ErrRoundNotFound, "not_found"},
	{domainerrors.ErrAssociationNotFound, "not_found"},
}

// Reason maps an error onto a bounded label set.
func Reason(err error) string {
	if err == nil {
		return "none"
	}
	for _, candidate := range reasons {
		if errors.Is(err, candidate.err) {
			return candidate.label
		}
	}
	return "internal"
}

var _ ports.Metrics = (*Recorder)(nil)
