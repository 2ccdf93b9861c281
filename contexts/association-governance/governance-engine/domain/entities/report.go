package entities

import (
	"strings"
	"time"
)

type Report struct {
	ReportID      string
	AssociationID string
	ReporterID    string
	ViolatorID    string
	RuleID        string
	Epoch         int
	FiledAt       time.Time
}

// SanctionKey identifies the (violator, rule) aggregation bucket.
type SanctionKey struct {
	AssociationID string
	ViolatorID    string
	RuleID        string
}

func (k SanctionKey) String() string {
	return strings.Join([]string{k.AssociationID, k.ViolatorID, k.RuleID}, "/")
}

// ReportWindow holds the reports since the last terminal sanction decision
// for a key. Epoch advances when the window closes.
type ReportWindow struct {
	Key         SanctionKey
	Epoch       int
	OpenedAt    time.Time
	ReportCount int
	UpdatedAt   time.Time
}

type SanctionAction string

const (
	SanctionActionNone       SanctionAction = ""
	SanctionActionWarning    SanctionAction = "warning"
	SanctionActionSuspension SanctionAction = "suspension"
	SanctionActionExpulsion  SanctionAction = "expulsion"
)

// Rank orders actions by severity.
func (a SanctionAction) Rank() int {
	switch a {
	case SanctionActionWarning:
		return 1
	case SanctionActionSuspension:
		return 2
	case SanctionActionExpulsion:
		return 3
	default:
		return 0
	}
}

type SanctionRecord struct {
	SanctionID  string
	Key         SanctionKey
	Epoch       int
	ReportCount int
	Action      SanctionAction
	DecidedAt   time.Time
}
