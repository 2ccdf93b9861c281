package entities

import "time"

type Association struct {
	AssociationID string
	Name          string
	Location      Location
	Description   string
	MemberCap     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type MembershipStatus string

const (
	MembershipStatusActive   MembershipStatus = "active"
	MembershipStatusLeft     MembershipStatus = "left"
	MembershipStatusExpelled MembershipStatus = "expelled"
)

// Membership is unique per (AssociationID, UserID). Leaving or expulsion
// soft-disables the row; re-joining reactivates it.
type Membership struct {
	AssociationID  string
	UserID         string
	Address        Address
	Status         MembershipStatus
	Board          bool
	InGoodStanding bool
	JoinedAt       time.Time
	LeftAt         *time.Time
	UpdatedAt      time.Time
}

func (m Membership) IsActive() bool {
	return m.Status == MembershipStatusActive
}

// CanVote reports membership in good standing.
func (m Membership) CanVote() bool {
	return m.IsActive() && m.InGoodStanding
}

func (m Membership) IsBoardMember() bool {
	return m.CanVote() && m.Board
}

type ServiceAccount struct {
	Name         string
	RegisteredAt time.Time
}

// Built-in service accounts registered at bootstrap.
const (
	ServiceAccountScheduler = "governance-scheduler"
	ServiceAccountAudit     = "governance-audit"
)

// SystemServiceAccounts lists the accounts bootstrap registers.
var SystemServiceAccounts = []string{ServiceAccountScheduler, ServiceAccountAudit}
