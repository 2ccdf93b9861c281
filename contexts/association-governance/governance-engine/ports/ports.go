package ports

import (
	"context"
	"encoding/json"
	"time"

	"agora/contexts/association-governance/governance-engine/domain/entities"
)

type AssociationRepository interface {
	GetAssociation(ctx context.Context, associationID string) (entities.Association, error)
	SaveAssociation(ctx context.Context, association entities.Association) error
}

type MembershipRepository interface {
	GetMembership(ctx context.Context, associationID string, userID string) (entities.Membership, bool, error)
	SaveMembership(ctx context.Context, membership entities.Membership) error
	CountActiveMembers(ctx context.Context, associationID string) (int, error)
	ListActiveMembers(ctx context.Context, associationID string) ([]entities.Membership, error)
}

type RuleRepository interface {
	GetRule(ctx context.Context, associationID string, ruleID string) (entities.Rule, error)
	ListRules(ctx context.Context, associationID string) ([]entities.Rule, error)
	SaveRule(ctx context.Context, rule entities.Rule) error
}

type BallotRepository interface {
	GetBallotRound(ctx context.Context, roundID string) (entities.BallotRound, error)
	// CreateBallotRound fails with ErrRoundAlreadyOpen when the id exists.
	CreateBallotRound(ctx context.Context, round entities.BallotRound) error
	UpdateBallotRound(ctx context.Context, round entities.BallotRound) error
	GetBallot(ctx context.Context, roundID string, voterID string) (entities.Ballot, bool, error)
	// InsertBallot fails with ErrAlreadyVoted on a (round, voter) duplicate.
	InsertBallot(ctx context.Context, ballot entities.Ballot) error
	ListBallots(ctx context.Context, roundID string) ([]entities.Ballot, error)
}

type ElectionRepository interface {
	GetElection(ctx context.Context, roundID string) (entities.Election, error)
	SaveElection(ctx context.Context, election entities.Election) error
	// ListDueElections returns elections in state whose next sweep step is
	// due at now (see entities.SweepDue), earliest due first.
	ListDueElections(ctx context.Context, state entities.RoundState, now time.Time, limit int) ([]entities.Election, error)
}

type MotionRepository interface {
	GetMotion(ctx context.Context, roundID string) (entities.Motion, error)
	SaveMotion(ctx context.Context, motion entities.Motion) error
	ListDueMotions(ctx context.Context, state entities.RoundState, now time.Time, limit int) ([]entities.Motion, error)
	// HasMotions reports whether any motion was ever opened in the association.
	HasMotions(ctx context.Context, associationID string) (bool, error)
}

type ReportRepository interface {
	GetReportWindow(ctx context.Context, key entities.SanctionKey) (entities.ReportWindow, bool, error)
	SaveReportWindow(ctx context.Context, window entities.ReportWindow) error
	HasReport(ctx context.Context, key entities.SanctionKey, epoch int, reporterID string) (bool, error)
	// InsertReport fails with ErrDuplicateReport on a reporter duplicate
	// inside the same window.
	InsertReport(ctx context.Context, report entities.Report) error
	ListReports(ctx context.Context, key entities.SanctionKey, epoch int) ([]entities.Report, error)
}

type SanctionRepository interface {
	GetSanction(ctx context.Context, key entities.SanctionKey, epoch int) (entities.SanctionRecord, bool, error)
	SaveSanction(ctx context.Context, record entities.SanctionRecord) error
	ListSanctions(ctx context.Context, associationID string) ([]entities.SanctionRecord, error)
}

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// DecisionEvent is the payload handed to notification/audit collaborators.
// Exactly one of RoundID or SanctionKey is set.
type DecisionEvent struct {
	RoundID       string    `json:"round_id,omitempty"`
	SanctionKey   string    `json:"sanction_key,omitempty"`
	AssociationID string    `json:"association_id"`
	Kind          string    `json:"kind"`
	Outcome       string    `json:"outcome"`
	Timestamp     time.Time `json:"timestamp"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// Repositories is the full set of stores visible inside one unit of work.
type Repositories interface {
	AssociationRepository
	MembershipRepository
	RuleRepository
	BallotRepository
	ElectionRepository
	MotionRepository
	ReportRepository
	SanctionRepository
	OutboxWriter
}

// UnitOfWork serializes every mutation of one association. fn either commits
// entirely or leaves no trace.
type UnitOfWork interface {
	WithinAssociation(
		ctx context.Context,
		associationID string,
		fn func(ctx context.Context, repos Repositories) error,
	) error
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type ServiceAccountRegistry interface {
	RegisterServiceAccount(ctx context.Context, account entities.ServiceAccount) error
	IsServiceAccount(ctx context.Context, name string) (bool, error)
}

// IdentityResolver maps a bearer credential to a stable member id.
type IdentityResolver interface {
	ResolveMember(ctx context.Context, bearer string) (string, error)
}

type PolicyProvider interface {
	PolicyFor(ctx context.Context, associationID string) (entities.GovernancePolicy, error)
}

type Metrics interface {
	BallotCast(kind entities.RoundKind)
	RoundResolved(kind entities.RoundKind, outcome string)
	SanctionDecided(action entities.SanctionAction)
	Rejected(operation string, err error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// StaticPolicy serves one policy for every association.
type StaticPolicy struct {
	Policy entities.GovernancePolicy
}

func (p StaticPolicy) PolicyFor(_ context.Context, _ string) (entities.GovernancePolicy, error) {
	return p.Policy, nil
}

type NoopMetrics struct{}

func (NoopMetrics) BallotCast(entities.RoundKind) {}
func (NoopMetrics) RoundResolved(entities.RoundKind, string) {}
func (NoopMetrics) SanctionDecided(entities.SanctionAction) {}
func (NoopMetrics) Rejected(string, error) {}
