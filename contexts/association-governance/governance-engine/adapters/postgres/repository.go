package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"
	"agora/internal/shared/keylock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sqliteWriterKey serializes every unit of work when the database only
// admits a single writer.
const sqliteWriterKey = "sqlite-writer"

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
	locks  *keylock.Locker
	single bool
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
		locks:  keylock.New(),
		single: db.Dialector.Name() == "sqlite",
	}
}

// AutoMigrate creates or updates every governance table.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return r.logError("governance_repo_migrate_failed", err)
	}
	return nil
}

// WithinAssociation runs fn inside one database transaction. Units of work
// for the same association are serialized in process and, across processes,
// by a row lock on the association.
func (r *Repository) WithinAssociation(
	ctx context.Context,
	associationID string,
	fn func(ctx context.Context, repos ports.Repositories) error,
) error {
	associationID = strings.TrimSpace(associationID)
	lockKey := associationID
	if r.single {
		lockKey = sqliteWriterKey
	}
	release, err := r.locks.Lock(ctx, lockKey)
	if err != nil {
		return err
	}
	defer release()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []associationModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("association_id = ?", associationID).
			Limit(1).
			Find(&locked).Error; err != nil {
			return r.logError("governance_repo_lock_association_failed", err, "association_id", associationID)
		}
		return fn(ctx, &Repository{db: tx, logger: r.logger, locks: r.locks, single: r.single})
	})
}

func (r *Repository) GetAssociation(ctx context.Context, associationID string) (entities.Association, error) {
	var row associationModel
	err := r.db.WithContext(ctx).
		Where("association_id = ?", strings.TrimSpace(associationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Association{}, domainerrors.ErrAssociationNotFound
		}
		return entities.Association{}, r.logError("governance_repo_get_association_failed", err,
			"association_id", strings.TrimSpace(associationID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveAssociation(ctx context.Context, association entities.Association) error {
	row := associationModelFromEntity(association)
	if err := r.upsert(ctx, &row, "association_id"); err != nil {
		return r.logError("governance_repo_save_association_failed", err, "association_id", row.AssociationID)
	}
	return nil
}

func (r *Repository) GetMembership(ctx context.Context, associationID string, userID string) (entities.Membership, bool, error) {
	var rows []membershipModel
	err := r.db.WithContext(ctx).
		Where("association_id = ? AND user_id = ?", strings.TrimSpace(associationID), strings.TrimSpace(userID)).
		Limit(1).
		Find(&rows).
		Error
	if err != nil {
		return entities.Membership{}, false, r.logError("governance_repo_get_membership_failed", err,
			"association_id", strings.TrimSpace(associationID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	if len(rows) == 0 {
		return entities.Membership{}, false, nil
	}
	return rows[0].toEntity(), true, nil
}

func (r *Repository) SaveMembership(ctx context.Context, membership entities.Membership) error {
	row := membershipModelFromEntity(membership)
	if err := r.upsert(ctx, &row, "association_id", "user_id"); err != nil {
		return r.logError("governance_repo_save_membership_failed", err,
			"association_id", row.AssociationID,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (r *Repository) CountActiveMembers(ctx context.Context, associationID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&membershipModel{}).
		Where("association_id = ? AND status = ?", strings.TrimSpace(associationID), string(entities.MembershipStatusActive)).
		Count(&count).Error; err != nil {
		return 0, r.logError("governance_repo_count_members_failed", err, "association_id", strings.TrimSpace(associationID))
	}
	return int(count), nil
}

func (r *Repository) ListActiveMembers(ctx context.Context, associationID string) ([]entities.Membership, error) {
	var rows []membershipModel
	if err := r.db.WithContext(ctx).
		Where("association_id = ? AND status = ?", strings.TrimSpace(associationID), string(entities.MembershipStatusActive)).
		Order("user_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_members_failed", err, "association_id", strings.TrimSpace(associationID))
	}
	items := make([]entities.Membership, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetRule(ctx context.Context, associationID string, ruleID string) (entities.Rule, error) {
	var row ruleModel
	err := r.db.WithContext(ctx).
		Where("association_id = ? AND rule_id = ?", strings.TrimSpace(associationID), strings.TrimSpace(ruleID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Rule{}, domainerrors.ErrNoSuchRule
		}
		return entities.Rule{}, r.logError("governance_repo_get_rule_failed", err,
			"association_id", strings.TrimSpace(associationID),
			"rule_id", strings.TrimSpace(ruleID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListRules(ctx context.Context, associationID string) ([]entities.Rule, error) {
	var rows []ruleModel
	if err := r.db.WithContext(ctx).
		Where("association_id = ?", strings.TrimSpace(associationID)).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_rules_failed", err, "association_id", strings.TrimSpace(associationID))
	}
	items := make([]entities.Rule, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveRule(ctx context.Context, rule entities.Rule) error {
	row := ruleModelFromEntity(rule)
	if err := r.upsert(ctx, &row, "association_id", "rule_id"); err != nil {
		return r.logError("governance_repo_save_rule_failed", err,
			"association_id", row.AssociationID,
			"rule_id", row.RuleID,
		)
	}
	return nil
}

func (r *Repository) GetBallotRound(ctx context.Context, roundID string) (entities.BallotRound, error) {
	var row ballotRoundModel
	err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.BallotRound{}, domainerrors.ErrRoundNotFound
		}
		return entities.BallotRound{}, r.logError("governance_repo_get_ballot_round_failed", err,
			"round_id", strings.TrimSpace(roundID),
		)
	}
	round, err := row.toEntity()
	if err != nil {
		return entities.BallotRound{}, r.logError("governance_repo_decode_ballot_round_failed", err, "round_id", row.RoundID)
	}
	return round, nil
}

func (r *Repository) CreateBallotRound(ctx context.Context, round entities.BallotRound) error {
	row, err := ballotRoundModelFromEntity(round)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRoundAlreadyOpen
		}
		return r.logError("governance_repo_create_ballot_round_failed", err, "round_id", row.RoundID)
	}
	return nil
}

func (r *Repository) UpdateBallotRound(ctx context.Context, round entities.BallotRound) error {
	row, err := ballotRoundModelFromEntity(round)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&ballotRoundModel{}).
		Where("round_id = ?", row.RoundID).
		Select("*").
		Updates(&row)
	if result.Error != nil {
		return r.logError("governance_repo_update_ballot_round_failed", result.Error, "round_id", row.RoundID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRoundNotFound
	}
	return nil
}

func (r *Repository) GetBallot(ctx context.Context, roundID string, voterID string) (entities.Ballot, bool, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("round_id = ? AND voter_id = ?", strings.TrimSpace(roundID), strings.TrimSpace(voterID)).
		Limit(1).
		Find(&rows).Error; err != nil {
		return entities.Ballot{}, false, r.logError("governance_repo_get_ballot_failed", err,
			"round_id", strings.TrimSpace(roundID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	if len(rows) == 0 {
		return entities.Ballot{}, false, nil
	}
	return toBallot(rows[0]), true, nil
}

// InsertBallot relies on the (round_id, voter_id) primary key so a racing
// duplicate surfaces as ErrAlreadyVoted even across processes.
func (r *Repository) InsertBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModel{
		RoundID: ballot.RoundID,
		VoterID: ballot.VoterID,
		Choice:  ballot.Choice,
		CastAt:  ballot.CastAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("governance_repo_insert_ballot_failed", err,
			"round_id", row.RoundID,
			"voter_id", row.VoterID,
		)
	}
	return nil
}

func (r *Repository) ListBallots(ctx context.Context, roundID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	if err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		Order("cast_at ASC, voter_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_ballots_failed", err, "round_id", strings.TrimSpace(roundID))
	}
	items := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		items = append(items, toBallot(row))
	}
	return items, nil
}

func (r *Repository) GetElection(ctx context.Context, roundID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrRoundNotFound
		}
		return entities.Election{}, r.logError("governance_repo_get_election_failed", err, "round_id", strings.TrimSpace(roundID))
	}
	election, err := row.toEntity()
	if err != nil {
		return entities.Election{}, r.logError("governance_repo_decode_election_failed", err, "round_id", row.RoundID)
	}
	return election, nil
}

func (r *Repository) SaveElection(ctx context.Context, election entities.Election) error {
	row, err := electionModelFromEntity(election)
	if err != nil {
		return err
	}
	if err := r.upsert(ctx, &row, "round_id"); err != nil {
		return r.logError("governance_repo_save_election_failed", err, "round_id", row.RoundID)
	}
	return nil
}

func (r *Repository) ListDueElections(ctx context.Context, state entities.RoundState, now time.Time, limit int) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.dueIn(ctx, state, now, limit).Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_elections_failed", err, "limit", limit)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		election, err := row.toEntity()
		if err != nil {
			return nil, r.logError("governance_repo_decode_election_failed", err, "round_id", row.RoundID)
		}
		items = append(items, election)
	}
	return items, nil
}

func (r *Repository) GetMotion(ctx context.Context, roundID string) (entities.Motion, error) {
	var row motionModel
	err := r.db.WithContext(ctx).
		Where("round_id = ?", strings.TrimSpace(roundID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Motion{}, domainerrors.ErrRoundNotFound
		}
		return entities.Motion{}, r.logError("governance_repo_get_motion_failed", err, "round_id", strings.TrimSpace(roundID))
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveMotion(ctx context.Context, motion entities.Motion) error {
	row := motionModelFromEntity(motion)
	if err := r.upsert(ctx, &row, "round_id"); err != nil {
		return r.logError("governance_repo_save_motion_failed", err, "round_id", row.RoundID)
	}
	return nil
}

func (r *Repository) ListDueMotions(ctx context.Context, state entities.RoundState, now time.Time, limit int) ([]entities.Motion, error) {
	var rows []motionModel
	if err := r.dueIn(ctx, state, now, limit).Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_motions_failed", err, "limit", limit)
	}
	items := make([]entities.Motion, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) HasMotions(ctx context.Context, associationID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&motionModel{}).
		Where("association_id = ?", strings.TrimSpace(associationID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("governance_repo_has_motions_failed", err, "association_id", strings.TrimSpace(associationID))
	}
	return count > 0, nil
}

func (r *Repository) GetReportWindow(ctx context.Context, key entities.SanctionKey) (entities.ReportWindow, bool, error) {
	var rows []reportWindowModel
	if err := r.byKey(ctx, key).Limit(1).Find(&rows).Error; err != nil {
		return entities.ReportWindow{}, false, r.logError("governance_repo_get_report_window_failed", err, "sanction_key", key.String())
	}
	if len(rows) == 0 {
		return entities.ReportWindow{}, false, nil
	}
	row := rows[0]
	return entities.ReportWindow{
		Key:         key,
		Epoch:       row.Epoch,
		OpenedAt:    row.OpenedAt.UTC(),
		ReportCount: row.ReportCount,
		UpdatedAt:   row.UpdatedAt.UTC(),
	}, true, nil
}

func (r *Repository) SaveReportWindow(ctx context.Context, window entities.ReportWindow) error {
	row := reportWindowModel{
		AssociationID: window.Key.AssociationID,
		ViolatorID:    window.Key.ViolatorID,
		RuleID:        window.Key.RuleID,
		Epoch:         window.Epoch,
		OpenedAt:      window.OpenedAt.UTC(),
		ReportCount:   window.ReportCount,
		UpdatedAt:     window.UpdatedAt.UTC(),
	}
	if err := r.upsert(ctx, &row, "association_id", "violator_id", "rule_id"); err != nil {
		return r.logError("governance_repo_save_report_window_failed", err, "sanction_key", window.Key.String())
	}
	return nil
}

func (r *Repository) HasReport(ctx context.Context, key entities.SanctionKey, epoch int, reporterID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&reportModel{}).
		Where("association_id = ? AND violator_id = ? AND rule_id = ?", key.AssociationID, key.ViolatorID, key.RuleID).
		Where("epoch = ? AND reporter_id = ?", epoch, strings.TrimSpace(reporterID)).
		Count(&count).Error; err != nil {
		return false, r.logError("governance_repo_has_report_failed", err, "sanction_key", key.String())
	}
	return count > 0, nil
}

func (r *Repository) InsertReport(ctx context.Context, report entities.Report) error {
	row := reportModel{
		ReportID:      report.ReportID,
		AssociationID: report.AssociationID,
		ViolatorID:    report.ViolatorID,
		RuleID:        report.RuleID,
		Epoch:         report.Epoch,
		ReporterID:    report.ReporterID,
		FiledAt:       report.FiledAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateReport
		}
		return r.logError("governance_repo_insert_report_failed", err, "report_id", row.ReportID)
	}
	return nil
}

func (r *Repository) ListReports(ctx context.Context, key entities.SanctionKey, epoch int) ([]entities.Report, error) {
	var rows []reportModel
	if err := r.db.WithContext(ctx).
		Where("association_id = ? AND violator_id = ? AND rule_id = ? AND epoch = ?", key.AssociationID, key.ViolatorID, key.RuleID, epoch).
		Order("filed_at ASC, reporter_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_reports_failed", err, "sanction_key", key.String())
	}
	items := make([]entities.Report, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.Report{
			ReportID:      row.ReportID,
			AssociationID: row.AssociationID,
			ReporterID:    row.ReporterID,
			ViolatorID:    row.ViolatorID,
			RuleID:        row.RuleID,
			Epoch:         row.Epoch,
			FiledAt:       row.FiledAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) GetSanction(ctx context.Context, key entities.SanctionKey, epoch int) (entities.SanctionRecord, bool, error) {
	var rows []sanctionModel
	if err := r.byKey(ctx, key).Where("epoch = ?", epoch).Limit(1).Find(&rows).Error; err != nil {
		return entities.SanctionRecord{}, false, r.logError("governance_repo_get_sanction_failed", err, "sanction_key", key.String())
	}
	if len(rows) == 0 {
		return entities.SanctionRecord{}, false, nil
	}
	return rows[0].toEntity(), true, nil
}

func (r *Repository) SaveSanction(ctx context.Context, record entities.SanctionRecord) error {
	row := sanctionModel{
		SanctionID:    record.SanctionID,
		AssociationID: record.Key.AssociationID,
		ViolatorID:    record.Key.ViolatorID,
		RuleID:        record.Key.RuleID,
		Epoch:         record.Epoch,
		ReportCount:   record.ReportCount,
		Action:        string(record.Action),
		DecidedAt:     record.DecidedAt.UTC(),
	}
	if err := r.upsert(ctx, &row, "sanction_id"); err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("governance_repo_save_sanction_failed", err, "sanction_id", row.SanctionID)
	}
	return nil
}

func (r *Repository) ListSanctions(ctx context.Context, associationID string) ([]entities.SanctionRecord, error) {
	var rows []sanctionModel
	if err := r.db.WithContext(ctx).
		Where("association_id = ?", strings.TrimSpace(associationID)).
		Order("decided_at ASC, sanction_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_sanctions_failed", err, "association_id", strings.TrimSpace(associationID))
	}
	items := make([]entities.SanctionRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("governance_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("governance_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("governance_repo_append_outbox_load_existing_failed", err, "outbox_id", row.OutboxID)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC, outbox_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toMessage())
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("governance_repo_mark_outbox_published_failed", result.Error, "outbox_id", strings.TrimSpace(outboxID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("governance_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("governance_repo_idempotency_expire_delete_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Payload:     append([]byte(nil), row.Payload...),
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		Payload:     record.Payload,
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("governance_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("governance_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) RegisterServiceAccount(ctx context.Context, account entities.ServiceAccount) error {
	row := serviceAccountModel{
		Name:         strings.TrimSpace(account.Name),
		RegisteredAt: account.RegisteredAt.UTC(),
	}
	if row.Name == "" {
		return domainerrors.ErrInvalidRequest
	}
	if row.RegisteredAt.IsZero() {
		row.RegisteredAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrServiceAccountExists
		}
		return r.logError("governance_repo_register_service_account_failed", err, "service_account", row.Name)
	}
	return nil
}

func (r *Repository) IsServiceAccount(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&serviceAccountModel{}).
		Where("name = ?", strings.TrimSpace(name)).
		Count(&count).Error; err != nil {
		return false, r.logError("governance_repo_is_service_account_failed", err, "service_account", strings.TrimSpace(name))
	}
	return count > 0, nil
}

func (r *Repository) upsert(ctx context.Context, row any, keys ...string) error {
	columns := make([]clause.Column, 0, len(keys))
	for _, key := range keys {
		columns = append(columns, clause.Column{Name: key})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   columns,
		UpdateAll: true,
	}).Create(row).Error
}

// dueIn selects rounds in state whose sweep step is due at now, ordered by
// the timestamp that step waits on.
func (r *Repository) dueIn(ctx context.Context, state entities.RoundState, now time.Time, limit int) *gorm.DB {
	tx := r.db.WithContext(ctx).Where("state = ?", string(state))
	switch state {
	case entities.RoundStateScheduled:
		tx = tx.Where("opens_at <= ?", now.UTC()).Order("opens_at ASC, round_id ASC")
	case entities.RoundStateOpen:
		tx = tx.Where("closes_at IS NOT NULL AND closes_at <= ?", now.UTC()).Order("closes_at ASC, round_id ASC")
	case entities.RoundStateClosed:
		tx = tx.Order("created_at ASC, round_id ASC")
	default:
		tx = tx.Where("1 = 0")
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	return tx
}

func (r *Repository) byKey(ctx context.Context, key entities.SanctionKey) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("association_id = ? AND violator_id = ? AND rule_id = ?",
			strings.TrimSpace(key.AssociationID),
			strings.TrimSpace(key.ViolatorID),
			strings.TrimSpace(key.RuleID),
		)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "association-governance/governance-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("governance repository operation failed", fields...)
	return err
}

func toBallot(row ballotModel) entities.Ballot {
	return entities.Ballot{
		RoundID: row.RoundID,
		VoterID: row.VoterID,
		Choice:  row.Choice,
		CastAt:  row.CastAt.UTC(),
	}
}

// isUniqueViolation recognizes duplicate-key failures from postgres and from
// the embedded sqlite driver.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ ports.Repositories = (*Repository)(nil)
var _ ports.UnitOfWork = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.ServiceAccountRegistry = (*Repository)(nil)
