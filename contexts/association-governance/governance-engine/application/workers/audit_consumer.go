package workers

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/association-governance/governance-engine/application"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	"agora/contexts/association-governance/governance-engine/ports"
)

const defaultAuditCG = "governance-engine-audit-cg"

// AuditConsumer subscribes to every decision topic and writes one audit line
// per decision. Redelivered events are skipped through the dedup store.
type AuditConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.IdempotencyStore
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	// OnDecision is an optional sink invoked after the audit line is written.
	OnDecision func(ctx context.Context, topic string, decision ports.DecisionEvent) error
	Logger     *slog.Logger
}

func (c AuditConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("governance audit consumer disabled by feature flag",
			"event", "governance_audit_consumer_disabled",
			"module", "association-governance/governance-engine",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultAuditCG
	}
	for _, topic := range application.DecisionTopics {
		handler := func(ctx context.Context, event ports.EventEnvelope) error {
			return c.handle(ctx, topic, event)
		}
		if err := c.Subscriber.Subscribe(ctx, topic, group, handler); err != nil {
			logger.Error("governance audit subscribe failed",
				"event", "governance_audit_subscribe_failed",
				"module", "association-governance/governance-engine",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("governance audit consumer subscriptions active",
		"event", "governance_audit_consumer_started",
		"module", "association-governance/governance-engine",
		"layer", "worker",
		"consumer_group", group,
		"topics", len(application.DecisionTopics),
	)
	return nil
}

func (c AuditConsumer) handle(ctx context.Context, topic string, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := application.NowUTC(c.Clock)
	dedupKey := "audit:" + event.EventID
	if c.Dedup != nil {
		if _, seen, err := c.Dedup.Get(ctx, dedupKey, now); err != nil {
			return err
		} else if seen {
			logger.Debug("governance audit replay skipped",
				"event", "governance_audit_replayed",
				"module", "association-governance/governance-engine",
				"layer", "worker",
				"event_id", event.EventID,
			)
			return nil
		}
	}

	decision, err := application.DecodeDecision(event)
	if err != nil {
		logger.Error("governance audit decode failed",
			"event", "governance_audit_decode_failed",
			"module", "association-governance/governance-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"topic", topic,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("governance decision audited",
		"event", "governance_decision_audited",
		"module", "association-governance/governance-engine",
		"layer", "worker",
		"actor", entities.ServiceAccountAudit,
		"topic", topic,
		"event_id", event.EventID,
		"association_id", decision.AssociationID,
		"round_id", decision.RoundID,
		"sanction_key", decision.SanctionKey,
		"kind", decision.Kind,
		"outcome", decision.Outcome,
		"decided_at", decision.Timestamp.Format(time.RFC3339),
	)
	if c.OnDecision != nil {
		if err := c.OnDecision(ctx, topic, decision); err != nil {
			return err
		}
	}
	if c.Dedup != nil {
		return c.Dedup.Put(ctx, ports.IdempotencyRecord{
			Key:         dedupKey,
			RequestHash: event.EventType,
			ExpiresAt:   now.Add(c.dedupTTL()),
		})
	}
	return nil
}

func (c AuditConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
