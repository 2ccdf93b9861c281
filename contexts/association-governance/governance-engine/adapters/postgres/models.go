package postgresadapter

import (
	"encoding/json"
	"time"

	"agora/contexts/association-governance/governance-engine/domain/entities"
	"agora/contexts/association-governance/governance-engine/ports"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Models lists every table owned by the governance engine, in migration order.
func Models() []any {
	return []any{
		&associationModel{},
		&membershipModel{},
		&ruleModel{},
		&ballotRoundModel{},
		&ballotModel{},
		&electionModel{},
		&motionModel{},
		&reportWindowModel{},
		&reportModel{},
		&sanctionModel{},
		&outboxModel{},
		&idempotencyModel{},
		&serviceAccountModel{},
	}
}

type associationModel struct {
	AssociationID string    `gorm:"column:association_id;primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Country       string    `gorm:"column:country"`
	Region        string    `gorm:"column:region"`
	City          string    `gorm:"column:city"`
	Description   string    `gorm:"column:description"`
	MemberCap     int       `gorm:"column:member_cap"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (associationModel) TableName() string {
	return "governance_associations"
}

func associationModelFromEntity(a entities.Association) associationModel {
	return associationModel{
		AssociationID: a.AssociationID,
		Name:          a.Name,
		Country:       a.Location.Country,
		Region:        a.Location.Region,
		City:          a.Location.City,
		Description:   a.Description,
		MemberCap:     a.MemberCap,
		CreatedAt:     a.CreatedAt.UTC(),
		UpdatedAt:     a.UpdatedAt.UTC(),
	}
}

func (m associationModel) toEntity() entities.Association {
	return entities.Association{
		AssociationID: m.AssociationID,
		Name:          m.Name,
		Location:      entities.Location{Country: m.Country, Region: m.Region, City: m.City},
		Description:   m.Description,
		MemberCap:     m.MemberCap,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

// The composite primary key is the (association, user) uniqueness guarantee.
type membershipModel struct {
	AssociationID  string           `gorm:"column:association_id;primaryKey"`
	UserID         string           `gorm:"column:user_id;primaryKey"`
	Address        entities.Address `gorm:"column:address;type:text"`
	Status         string           `gorm:"column:status;index"`
	Board          bool             `gorm:"column:board"`
	InGoodStanding bool             `gorm:"column:in_good_standing"`
	JoinedAt       time.Time        `gorm:"column:joined_at"`
	LeftAt         *time.Time       `gorm:"column:left_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at"`
}

func (membershipModel) TableName() string {
	return "governance_memberships"
}

func membershipModelFromEntity(m entities.Membership) membershipModel {
	return membershipModel{
		AssociationID:  m.AssociationID,
		UserID:         m.UserID,
		Address:        m.Address,
		Status:         string(m.Status),
		Board:          m.Board,
		InGoodStanding: m.InGoodStanding,
		JoinedAt:       m.JoinedAt.UTC(),
		LeftAt:         utcPtr(m.LeftAt),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

func (m membershipModel) toEntity() entities.Membership {
	return entities.Membership{
		AssociationID:  m.AssociationID,
		UserID:         m.UserID,
		Address:        m.Address,
		Status:         entities.MembershipStatus(m.Status),
		Board:          m.Board,
		InGoodStanding: m.InGoodStanding,
		JoinedAt:       m.JoinedAt.UTC(),
		LeftAt:         utcPtr(m.LeftAt),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type ruleModel struct {
	AssociationID string    `gorm:"column:association_id;primaryKey"`
	RuleID        string    `gorm:"column:rule_id;primaryKey"`
	Position      int       `gorm:"column:position"`
	Text          string    `gorm:"column:text"`
	Version       int       `gorm:"column:version"`
	LastMotionID  string    `gorm:"column:last_motion_id"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (ruleModel) TableName() string {
	return "governance_rules"
}

func ruleModelFromEntity(r entities.Rule) ruleModel {
	return ruleModel{
		AssociationID: r.AssociationID,
		RuleID:        r.RuleID,
		Position:      r.Position,
		Text:          r.Text,
		Version:       r.Version,
		LastMotionID:  r.LastMotionID,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func (m ruleModel) toEntity() entities.Rule {
	return entities.Rule{
		AssociationID: m.AssociationID,
		RuleID:        m.RuleID,
		Position:      m.Position,
		Text:          m.Text,
		Version:       m.Version,
		LastMotionID:  m.LastMotionID,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type ballotRoundModel struct {
	RoundID        string     `gorm:"column:round_id;primaryKey"`
	AssociationID  string     `gorm:"column:association_id;index"`
	Kind           string     `gorm:"column:kind"`
	State          string     `gorm:"column:state"`
	EligibleVoters string     `gorm:"column:eligible_voters;type:text"`
	AllowedChoices string     `gorm:"column:allowed_choices;type:text"`
	ClosesAt       *time.Time `gorm:"column:closes_at"`
	Tally          *string    `gorm:"column:tally;type:text"`
	OpenedAt       time.Time  `gorm:"column:opened_at"`
	ClosedAt       *time.Time `gorm:"column:closed_at"`
	TalliedAt      *time.Time `gorm:"column:tallied_at"`
}

func (ballotRoundModel) TableName() string {
	return "governance_ballot_rounds"
}

func ballotRoundModelFromEntity(r entities.BallotRound) (ballotRoundModel, error) {
	voters, err := encodeJSON(r.EligibleVoters)
	if err != nil {
		return ballotRoundModel{}, err
	}
	choices, err := encodeJSON(r.AllowedChoices)
	if err != nil {
		return ballotRoundModel{}, err
	}
	row := ballotRoundModel{
		RoundID:        r.RoundID,
		AssociationID:  r.AssociationID,
		Kind:           string(r.Kind),
		State:          string(r.State),
		EligibleVoters: voters,
		AllowedChoices: choices,
		ClosesAt:       utcPtr(r.ClosesAt),
		OpenedAt:       r.OpenedAt.UTC(),
		ClosedAt:       utcPtr(r.ClosedAt),
		TalliedAt:      utcPtr(r.TalliedAt),
	}
	if r.Tally != nil {
		tally, err := encodeJSON(r.Tally)
		if err != nil {
			return ballotRoundModel{}, err
		}
		row.Tally = &tally
	}
	return row, nil
}

func (m ballotRoundModel) toEntity() (entities.BallotRound, error) {
	round := entities.BallotRound{
		RoundID:       m.RoundID,
		AssociationID: m.AssociationID,
		Kind:          entities.RoundKind(m.Kind),
		State:         entities.BoxState(m.State),
		ClosesAt:      utcPtr(m.ClosesAt),
		OpenedAt:      m.OpenedAt.UTC(),
		ClosedAt:      utcPtr(m.ClosedAt),
		TalliedAt:     utcPtr(m.TalliedAt),
	}
	if err := decodeJSON(m.EligibleVoters, &round.EligibleVoters); err != nil {
		return entities.BallotRound{}, err
	}
	if err := decodeJSON(m.AllowedChoices, &round.AllowedChoices); err != nil {
		return entities.BallotRound{}, err
	}
	if m.Tally != nil {
		var tally entities.Tally
		if err := decodeJSON(*m.Tally, &tally); err != nil {
			return entities.BallotRound{}, err
		}
		tally.ComputedAt = tally.ComputedAt.UTC()
		round.Tally = &tally
	}
	return round, nil
}

type ballotModel struct {
	RoundID string    `gorm:"column:round_id;primaryKey"`
	VoterID string    `gorm:"column:voter_id;primaryKey"`
	Choice  string    `gorm:"column:choice"`
	CastAt  time.Time `gorm:"column:cast_at"`
}

func (ballotModel) TableName() string {
	return "governance_ballots"
}

type electionModel struct {
	RoundID          string     `gorm:"column:round_id;primaryKey"`
	AssociationID    string     `gorm:"column:association_id;index"`
	Seat             string     `gorm:"column:seat"`
	Candidates       string     `gorm:"column:candidates;type:text"`
	OutgoingHolderID string     `gorm:"column:outgoing_holder_id"`
	State            string     `gorm:"column:state;index"`
	Outcome          string     `gorm:"column:outcome"`
	WinnerID         string     `gorm:"column:winner_id"`
	Counts           string     `gorm:"column:counts;type:text"`
	Eligible         int        `gorm:"column:eligible"`
	BallotsCast      int        `gorm:"column:ballots_cast"`
	Turnout          float64    `gorm:"column:turnout"`
	OpensAt          time.Time  `gorm:"column:opens_at"`
	ClosesAt         *time.Time `gorm:"column:closes_at"`
	CreatedBy        string     `gorm:"column:created_by"`
	AbortReason      string     `gorm:"column:abort_reason"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
	ResolvedAt       *time.Time `gorm:"column:resolved_at"`
}

func (electionModel) TableName() string {
	return "governance_elections"
}

func electionModelFromEntity(e entities.Election) (electionModel, error) {
	candidates, err := encodeJSON(e.Candidates)
	if err != nil {
		return electionModel{}, err
	}
	counts, err := encodeJSON(e.Counts)
	if err != nil {
		return electionModel{}, err
	}
	return electionModel{
		RoundID:          e.RoundID,
		AssociationID:    e.AssociationID,
		Seat:             e.Seat,
		Candidates:       candidates,
		OutgoingHolderID: e.OutgoingHolderID,
		State:            string(e.State),
		Outcome:          string(e.Outcome),
		WinnerID:         e.WinnerID,
		Counts:           counts,
		Eligible:         e.Eligible,
		BallotsCast:      e.BallotsCast,
		Turnout:          e.Turnout,
		OpensAt:          e.OpensAt.UTC(),
		ClosesAt:         utcPtr(e.ClosesAt),
		CreatedBy:        e.CreatedBy,
		AbortReason:      e.AbortReason,
		CreatedAt:        e.CreatedAt.UTC(),
		UpdatedAt:        e.UpdatedAt.UTC(),
		ResolvedAt:       utcPtr(e.ResolvedAt),
	}, nil
}

func (m electionModel) toEntity() (entities.Election, error) {
	election := entities.Election{
		RoundID:          m.RoundID,
		AssociationID:    m.AssociationID,
		Seat:             m.Seat,
		OutgoingHolderID: m.OutgoingHolderID,
		State:            entities.RoundState(m.State),
		Outcome:          entities.ElectionOutcome(m.Outcome),
		WinnerID:         m.WinnerID,
		Eligible:         m.Eligible,
		BallotsCast:      m.BallotsCast,
		Turnout:          m.Turnout,
		OpensAt:          m.OpensAt.UTC(),
		ClosesAt:         utcPtr(m.ClosesAt),
		CreatedBy:        m.CreatedBy,
		AbortReason:      m.AbortReason,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
		ResolvedAt:       utcPtr(m.ResolvedAt),
	}
	if err := decodeJSON(m.Candidates, &election.Candidates); err != nil {
		return entities.Election{}, err
	}
	if err := decodeJSON(m.Counts, &election.Counts); err != nil {
		return entities.Election{}, err
	}
	return election, nil
}

type motionModel struct {
	RoundID       string     `gorm:"column:round_id;primaryKey"`
	AssociationID string     `gorm:"column:association_id;index"`
	Kind          string     `gorm:"column:kind"`
	TargetRuleID  string     `gorm:"column:target_rule_id"`
	Text          string     `gorm:"column:text"`
	ProposerID    string     `gorm:"column:proposer_id"`
	State         string     `gorm:"column:state;index"`
	Outcome       string     `gorm:"column:outcome"`
	FailureReason string     `gorm:"column:failure_reason"`
	ResultRuleID  string     `gorm:"column:result_rule_id"`
	ForVotes      int        `gorm:"column:for_votes"`
	AgainstVotes  int        `gorm:"column:against_votes"`
	AbstainVotes  int        `gorm:"column:abstain_votes"`
	Eligible      int        `gorm:"column:eligible"`
	Turnout       float64    `gorm:"column:turnout"`
	OpensAt       time.Time  `gorm:"column:opens_at"`
	ClosesAt      *time.Time `gorm:"column:closes_at"`
	AbortReason   string     `gorm:"column:abort_reason"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at"`
}

func (motionModel) TableName() string {
	return "governance_motions"
}

func motionModelFromEntity(m entities.Motion) motionModel {
	return motionModel{
		RoundID:       m.RoundID,
		AssociationID: m.AssociationID,
		Kind:          string(m.Kind),
		TargetRuleID:  m.TargetRuleID,
		Text:          m.Text,
		ProposerID:    m.ProposerID,
		State:         string(m.State),
		Outcome:       string(m.Outcome),
		FailureReason: m.FailureReason,
		ResultRuleID:  m.ResultRuleID,
		ForVotes:      m.For,
		AgainstVotes:  m.Against,
		AbstainVotes:  m.Abstain,
		Eligible:      m.Eligible,
		Turnout:       m.Turnout,
		OpensAt:       m.OpensAt.UTC(),
		ClosesAt:      utcPtr(m.ClosesAt),
		AbortReason:   m.AbortReason,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
		ResolvedAt:    utcPtr(m.ResolvedAt),
	}
}

func (m motionModel) toEntity() entities.Motion {
	return entities.Motion{
		RoundID:       m.RoundID,
		AssociationID: m.AssociationID,
		Kind:          entities.MotionKind(m.Kind),
		TargetRuleID:  m.TargetRuleID,
		Text:          m.Text,
		ProposerID:    m.ProposerID,
		State:         entities.RoundState(m.State),
		Outcome:       entities.MotionOutcome(m.Outcome),
		FailureReason: m.FailureReason,
		ResultRuleID:  m.ResultRuleID,
		For:           m.ForVotes,
		Against:       m.AgainstVotes,
		Abstain:       m.AbstainVotes,
		Eligible:      m.Eligible,
		Turnout:       m.Turnout,
		OpensAt:       m.OpensAt.UTC(),
		ClosesAt:      utcPtr(m.ClosesAt),
		AbortReason:   m.AbortReason,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
		ResolvedAt:    utcPtr(m.ResolvedAt),
	}
}

type reportWindowModel struct {
	AssociationID string    `gorm:"column:association_id;primaryKey"`
	ViolatorID    string    `gorm:"column:violator_id;primaryKey"`
	RuleID        string    `gorm:"column:rule_id;primaryKey"`
	Epoch         int       `gorm:"column:epoch"`
	OpenedAt      time.Time `gorm:"column:opened_at"`
	ReportCount   int       `gorm:"column:report_count"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (reportWindowModel) TableName() string {
	return "governance_report_windows"
}

// One report per reporter per window is enforced by the composite unique index.
type reportModel struct {
	ReportID      string    `gorm:"column:report_id;primaryKey"`
	AssociationID string    `gorm:"column:association_id;uniqueIndex:idx_governance_reports_window_reporter,priority:1"`
	ViolatorID    string    `gorm:"column:violator_id;uniqueIndex:idx_governance_reports_window_reporter,priority:2"`
	RuleID        string    `gorm:"column:rule_id;uniqueIndex:idx_governance_reports_window_reporter,priority:3"`
	Epoch         int       `gorm:"column:epoch;uniqueIndex:idx_governance_reports_window_reporter,priority:4"`
	ReporterID    string    `gorm:"column:reporter_id;uniqueIndex:idx_governance_reports_window_reporter,priority:5"`
	FiledAt       time.Time `gorm:"column:filed_at"`
}

func (reportModel) TableName() string {
	return "governance_reports"
}

type sanctionModel struct {
	SanctionID    string    `gorm:"column:sanction_id;primaryKey"`
	AssociationID string    `gorm:"column:association_id;uniqueIndex:idx_governance_sanctions_window,priority:1"`
	ViolatorID    string    `gorm:"column:violator_id;uniqueIndex:idx_governance_sanctions_window,priority:2"`
	RuleID        string    `gorm:"column:rule_id;uniqueIndex:idx_governance_sanctions_window,priority:3"`
	Epoch         int       `gorm:"column:epoch;uniqueIndex:idx_governance_sanctions_window,priority:4"`
	ReportCount   int       `gorm:"column:report_count"`
	Action        string    `gorm:"column:action"`
	DecidedAt     time.Time `gorm:"column:decided_at"`
}

func (sanctionModel) TableName() string {
	return "governance_sanctions"
}

func (m sanctionModel) toEntity() entities.SanctionRecord {
	return entities.SanctionRecord{
		SanctionID:  m.SanctionID,
		Key:         entities.SanctionKey{AssociationID: m.AssociationID, ViolatorID: m.ViolatorID, RuleID: m.RuleID},
		Epoch:       m.Epoch,
		ReportCount: m.ReportCount,
		Action:      entities.SanctionAction(m.Action),
		DecidedAt:   m.DecidedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}

func (m outboxModel) toMessage() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "governance_idempotency"
}

type serviceAccountModel struct {
	Name         string    `gorm:"column:name;primaryKey"`
	RegisteredAt time.Time `gorm:"column:registered_at"`
}

func (serviceAccountModel) TableName() string {
	return "governance_service_accounts"
}

func encodeJSON(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeJSON(raw string, target any) error {
	if raw == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	out := value.UTC()
	return &out
}
