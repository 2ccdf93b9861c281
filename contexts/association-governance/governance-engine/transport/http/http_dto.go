package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type LocationDTO struct {
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city"`
}

type AddressDTO struct {
	Location   LocationDTO `json:"location"`
	Street     string      `json:"street,omitempty"`
	PostalCode string      `json:"postal_code,omitempty"`
}

type RegisterAssociationRequest struct {
	AssociationID  string      `json:"association_id"`
	Name           string      `json:"name"`
	Location       LocationDTO `json:"location"`
	Description    string      `json:"description,omitempty"`
	MemberCap      int         `json:"member_cap"`
	FounderAddress AddressDTO  `json:"founder_address"`
}

type SetMemberCapRequest struct {
	MemberCap int `json:"member_cap"`
}

type AssociationResponse struct {
	AssociationID string      `json:"association_id"`
	Name          string      `json:"name"`
	Location      LocationDTO `json:"location"`
	Description   string      `json:"description,omitempty"`
	MemberCap     int         `json:"member_cap"`
	ActiveMembers int         `json:"active_members"`
	CreatedAt     time.Time   `json:"created_at"`
}

type JoinRequest struct {
	Address AddressDTO `json:"address"`
}

type MembershipResponse struct {
	AssociationID  string     `json:"association_id"`
	UserID         string     `json:"user_id"`
	Address        AddressDTO `json:"address"`
	Status         string     `json:"status"`
	Board          bool       `json:"board"`
	InGoodStanding bool       `json:"in_good_standing"`
	JoinedAt       time.Time  `json:"joined_at"`
	LeftAt         *time.Time `json:"left_at,omitempty"`
}

type MemberListResponse struct {
	Items []MembershipResponse `json:"items"`
}

type EligibilityResponse struct {
	AssociationID  string `json:"association_id"`
	UserID         string `json:"user_id"`
	EligibleVoter  bool   `json:"eligible_voter"`
	InGoodStanding bool   `json:"in_good_standing"`
	BoardMember    bool   `json:"board_member"`
}

type SeedRuleRequest struct {
	Text string `json:"text"`
}

type RuleResponse struct {
	RuleID       string    `json:"rule_id"`
	Position     int       `json:"position"`
	Text         string    `json:"text"`
	Version      int       `json:"version"`
	LastMotionID string    `json:"last_motion_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RuleListResponse struct {
	AssociationID string         `json:"association_id"`
	Items         []RuleResponse `json:"items"`
}

type OpenElectionRequest struct {
	RoundID          string     `json:"round_id,omitempty"`
	Seat             string     `json:"seat"`
	Candidates       []string   `json:"candidates"`
	OutgoingHolderID string     `json:"outgoing_holder_id,omitempty"`
	OpensAt          *time.Time `json:"opens_at,omitempty"`
	ClosesAt         *time.Time `json:"closes_at,omitempty"`
}

type ElectionBallotRequest struct {
	CandidateID string `json:"candidate_id"`
}

type MotionBallotRequest struct {
	Choice string `json:"choice"`
}

type AbortRoundRequest struct {
	Reason string `json:"reason"`
}

type ElectionResponse struct {
	RoundID          string         `json:"round_id"`
	AssociationID    string         `json:"association_id"`
	Seat             string         `json:"seat"`
	Candidates       []string       `json:"candidates"`
	OutgoingHolderID string         `json:"outgoing_holder_id,omitempty"`
	State            string         `json:"state"`
	Outcome          string         `json:"outcome,omitempty"`
	WinnerID         string         `json:"winner_id,omitempty"`
	Counts           map[string]int `json:"counts,omitempty"`
	Eligible         int            `json:"eligible"`
	BallotsCast      int            `json:"ballots_cast"`
	Turnout          float64        `json:"turnout"`
	OpensAt          time.Time      `json:"opens_at"`
	ClosesAt         *time.Time     `json:"closes_at,omitempty"`
	AbortReason      string         `json:"abort_reason,omitempty"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty"`
	Replayed         bool           `json:"replayed"`
}

type OpenMotionRequest struct {
	RoundID      string     `json:"round_id,omitempty"`
	TargetRuleID string     `json:"target_rule_id,omitempty"`
	Text         string     `json:"text"`
	OpensAt      *time.Time `json:"opens_at,omitempty"`
	ClosesAt     *time.Time `json:"closes_at,omitempty"`
}

type MotionResponse struct {
	RoundID       string     `json:"round_id"`
	AssociationID string     `json:"association_id"`
	Kind          string     `json:"kind"`
	TargetRuleID  string     `json:"target_rule_id,omitempty"`
	Text          string     `json:"text"`
	ProposerID    string     `json:"proposer_id"`
	State         string     `json:"state"`
	Outcome       string     `json:"outcome,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	ResultRuleID  string     `json:"result_rule_id,omitempty"`
	For           int        `json:"for"`
	Against       int        `json:"against"`
	Abstain       int        `json:"abstain"`
	Eligible      int        `json:"eligible"`
	Turnout       float64    `json:"turnout"`
	OpensAt       time.Time  `json:"opens_at"`
	ClosesAt      *time.Time `json:"closes_at,omitempty"`
	AbortReason   string     `json:"abort_reason,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	Replayed      bool       `json:"replayed"`
}

type BallotResponse struct {
	RoundID  string    `json:"round_id"`
	VoterID  string    `json:"voter_id"`
	Choice   string    `json:"choice"`
	CastAt   time.Time `json:"cast_at"`
	Replayed bool      `json:"replayed"`
}

type TallyResponse struct {
	RoundID       string         `json:"round_id"`
	Counts        map[string]int `json:"counts"`
	BallotsCast   int            `json:"ballots_cast"`
	EligibleCount int            `json:"eligible_count"`
	Turnout       float64        `json:"turnout"`
	ComputedAt    time.Time      `json:"computed_at"`
}

type FileReportRequest struct {
	ViolatorID string `json:"violator_id"`
	RuleID     string `json:"rule_id"`
}

type SanctionResponse struct {
	SanctionID    string    `json:"sanction_id"`
	AssociationID string    `json:"association_id"`
	ViolatorID    string    `json:"violator_id"`
	RuleID        string    `json:"rule_id"`
	Epoch         int       `json:"epoch"`
	ReportCount   int       `json:"report_count"`
	Action        string    `json:"action"`
	DecidedAt     time.Time `json:"decided_at"`
}

type ReportResponse struct {
	ReportID    string            `json:"report_id"`
	ReporterID  string            `json:"reporter_id"`
	ViolatorID  string            `json:"violator_id"`
	RuleID      string            `json:"rule_id"`
	Epoch       int               `json:"epoch"`
	ReportCount int               `json:"report_count"`
	FiledAt     time.Time         `json:"filed_at"`
	Escalated   bool              `json:"escalated"`
	Sanction    *SanctionResponse `json:"sanction,omitempty"`
	Replayed    bool              `json:"replayed"`
}

type SanctionListResponse struct {
	AssociationID string             `json:"association_id"`
	Items         []SanctionResponse `json:"items"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
