package entities

import (
	"fmt"
	"time"

	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
)

// GovernancePolicy carries the numeric decision policy for an association.
// Fractions are in [0, 1]; a zero sanction threshold disables that tier.
type GovernancePolicy struct {
	ElectionQuorum      float64       `yaml:"election_quorum"`
	MotionQuorum        float64       `yaml:"motion_quorum"`
	MotionMajority      float64       `yaml:"motion_majority"`
	ClearOutgoingSeat   bool          `yaml:"clear_outgoing_seat"`
	WarningThreshold    int           `yaml:"warning_threshold"`
	SuspensionThreshold int           `yaml:"suspension_threshold"`
	ExpulsionThreshold  int           `yaml:"expulsion_threshold"`
	ReportWindow        time.Duration `yaml:"report_window"`
}

func DefaultGovernancePolicy() GovernancePolicy {
	return GovernancePolicy{
		ElectionQuorum:      0.5,
		MotionQuorum:        0.3,
		MotionMajority:      0.5,
		ClearOutgoingSeat:   true,
		WarningThreshold:    0,
		SuspensionThreshold: 3,
		ExpulsionThreshold:  5,
		ReportWindow:        0,
	}
}

func (p GovernancePolicy) Validate() error {
	for name, value := range map[string]float64{
		"election_quorum": p.ElectionQuorum,
		"motion_quorum":   p.MotionQuorum,
		"motion_majority": p.MotionMajority,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", domainerrors.ErrInvalidRequest, name, value)
		}
	}
	if p.WarningThreshold < 0 || p.SuspensionThreshold < 0 || p.ExpulsionThreshold < 0 {
		return fmt.Errorf("%w: sanction thresholds must not be negative", domainerrors.ErrInvalidRequest)
	}
	if p.SuspensionThreshold > 0 && p.WarningThreshold >= p.SuspensionThreshold {
		return fmt.Errorf("%w: warning threshold must be below suspension threshold", domainerrors.ErrInvalidRequest)
	}
	if p.ExpulsionThreshold > 0 && p.SuspensionThreshold > 0 && p.ExpulsionThreshold <= p.SuspensionThreshold {
		return fmt.Errorf("%w: expulsion threshold must exceed suspension threshold", domainerrors.ErrInvalidRequest)
	}
	if p.ReportWindow < 0 {
		return fmt.Errorf("%w: report window must not be negative", domainerrors.ErrInvalidRequest)
	}
	return nil
}
