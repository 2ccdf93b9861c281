package application

import (
	"context"
	"encoding/json"
	"time"

	"agora/contexts/association-governance/governance-engine/ports"
)

const (
	EventElectionResolved = "governance.election.resolved"
	EventMotionResolved   = "governance.motion.resolved"
	EventRoundAborted     = "governance.round.aborted"
	EventSanctionDecided  = "governance.sanction.decided"
)

// DecisionTopics lists every topic the engines write to the outbox.
var DecisionTopics = []string{
	EventElectionResolved,
	EventMotionResolved,
	EventRoundAborted,
	EventSanctionDecided,
}

// NewDecisionEnvelope wraps a decision payload in the canonical envelope.
// Round events partition by round id, sanction events by sanction key.
func NewDecisionEnvelope(eventID string, eventType string, decision ports.DecisionEvent) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(decision)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	partitionKey, partitionKeyPath := decision.RoundID, "/round_id"
	if partitionKey == "" {
		partitionKey, partitionKeyPath = decision.SanctionKey, "/sanction_key"
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       decision.Timestamp.UTC(),
		SourceService:    "governance-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}

// DecodeDecision extracts the decision payload from an envelope.
func DecodeDecision(envelope ports.EventEnvelope) (ports.DecisionEvent, error) {
	var decision ports.DecisionEvent
	if err := json.Unmarshal(envelope.Data, &decision); err != nil {
		return ports.DecisionEvent{}, err
	}
	return decision, nil
}

func NowUTC(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}

// AppendDecision writes a decision event to the outbox of the current unit of work.
func AppendDecision(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	decision ports.DecisionEvent,
) error {
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := NewDecisionEnvelope(eventID, eventType, decision)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, envelope)
}
