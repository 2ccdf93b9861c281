package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"
	"agora/internal/shared/keylock"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store keeps every governance aggregate in process memory. Units of work
// are serialized per association and rolled back through an undo journal.
type Store struct {
	mu    sync.RWMutex
	locks *keylock.Locker

	associations    map[string]entities.Association
	memberships     map[string]entities.Membership
	rules           map[string]entities.Rule
	rounds          map[string]entities.BallotRound
	ballots         map[string]map[string]entities.Ballot
	elections       map[string]entities.Election
	motions         map[string]entities.Motion
	windows         map[string]entities.ReportWindow
	reports         map[string]entities.Report
	sanctions       map[string]entities.SanctionRecord
	outbox          map[string]outboxRecord
	idempotency     map[string]ports.IdempotencyRecord
	serviceAccounts map[string]entities.ServiceAccount
}

func NewStore() *Store {
	return &Store{
		locks:           keylock.New(),
		associations:    make(map[string]entities.Association),
		memberships:     make(map[string]entities.Membership),
		rules:           make(map[string]entities.Rule),
		rounds:          make(map[string]entities.BallotRound),
		ballots:         make(map[string]map[string]entities.Ballot),
		elections:       make(map[string]entities.Election),
		motions:         make(map[string]entities.Motion),
		windows:         make(map[string]entities.ReportWindow),
		reports:         make(map[string]entities.Report),
		sanctions:       make(map[string]entities.SanctionRecord),
		outbox:          make(map[string]outboxRecord),
		idempotency:     make(map[string]ports.IdempotencyRecord),
		serviceAccounts: make(map[string]entities.ServiceAccount),
	}
}

func (s *Store) WithinAssociation(
	ctx context.Context,
	associationID string,
	fn func(ctx context.Context, repos ports.Repositories) error,
) error {
	unlock, err := s.locks.Lock(ctx, strings.TrimSpace(associationID))
	if err != nil {
		return err
	}
	defer unlock()

	tx := &txView{Store: s}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Store) GetAssociation(_ context.Context, associationID string) (entities.Association, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.associations[associationID]
	if !ok {
		return entities.Association{}, domainerrors.ErrAssociationNotFound
	}
	return item, nil
}

func (s *Store) SaveAssociation(_ context.Context, association entities.Association) error {
	s.putAssociation(association)
	return nil
}

func (s *Store) GetMembership(_ context.Context, associationID string, userID string) (entities.Membership, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.memberships[memberKey(associationID, userID)]
	return item, ok, nil
}

func (s *Store) SaveMembership(_ context.Context, membership entities.Membership) error {
	s.putMembership(membership)
	return nil
}

func (s *Store) CountActiveMembers(ctx context.Context, associationID string) (int, error) {
	items, err := s.ListActiveMembers(ctx, associationID)
	return len(items), err
}

func (s *Store) ListActiveMembers(_ context.Context, associationID string) ([]entities.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Membership, 0)
	for _, item := range s.memberships {
		if item.AssociationID == associationID && item.IsActive() {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })
	return items, nil
}

func (s *Store) GetRule(_ context.Context, associationID string, ruleID string) (entities.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.rules[ruleKey(associationID, ruleID)]
	if !ok {
		return entities.Rule{}, domainerrors.ErrNoSuchRule
	}
	return item, nil
}

func (s *Store) ListRules(_ context.Context, associationID string) ([]entities.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Rule, 0)
	for _, item := range s.rules {
		if item.AssociationID == associationID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

func (s *Store) SaveRule(_ context.Context, rule entities.Rule) error {
	s.putRule(rule)
	return nil
}

func (s *Store) GetBallotRound(_ context.Context, roundID string) (entities.BallotRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.rounds[roundID]
	if !ok {
		return entities.BallotRound{}, domainerrors.ErrRoundNotFound
	}
	return cloneRound(item), nil
}

func (s *Store) CreateBallotRound(_ context.Context, round entities.BallotRound) error {
	_, err := s.createRound(round)
	return err
}

func (s *Store) UpdateBallotRound(_ context.Context, round entities.BallotRound) error {
	_, err := s.updateRound(round)
	return err
}

func (s *Store) GetBallot(_ context.Context, roundID string, voterID string) (entities.Ballot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.ballots[roundID][voterID]
	return item, ok, nil
}

func (s *Store) InsertBallot(_ context.Context, ballot entities.Ballot) error {
	_, err := s.insertBallot(ballot)
	return err
}

func (s *Store) ListBallots(_ context.Context, roundID string) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Ballot, 0, len(s.ballots[roundID]))
	for _, item := range s.ballots[roundID] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CastAt.Equal(items[j].CastAt) {
			return items[i].VoterID < items[j].VoterID
		}
		return items[i].CastAt.Before(items[j].CastAt)
	})
	return items, nil
}

func (s *Store) GetElection(_ context.Context, roundID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.elections[roundID]
	if !ok {
		return entities.Election{}, domainerrors.ErrRoundNotFound
	}
	return cloneElection(item), nil
}

func (s *Store) SaveElection(_ context.Context, election entities.Election) error {
	s.putElection(election)
	return nil
}

func (s *Store) ListDueElections(_ context.Context, state entities.RoundState, now time.Time, limit int) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0)
	for _, item := range s.elections {
		if item.State == state && item.SweepDue(now) {
			items = append(items, cloneElection(item))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return dueBefore(
			sweepKey{state, items[i].OpensAt, items[i].ClosesAt, items[i].CreatedAt, items[i].RoundID},
			sweepKey{state, items[j].OpensAt, items[j].ClosesAt, items[j].CreatedAt, items[j].RoundID},
		)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetMotion(_ context.Context, roundID string) (entities.Motion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.motions[roundID]
	if !ok {
		return entities.Motion{}, domainerrors.ErrRoundNotFound
	}
	return item, nil
}

func (s *Store) SaveMotion(_ context.Context, motion entities.Motion) error {
	s.putMotion(motion)
	return nil
}

func (s *Store) ListDueMotions(_ context.Context, state entities.RoundState, now time.Time, limit int) ([]entities.Motion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Motion, 0)
	for _, item := range s.motions {
		if item.State == state && item.SweepDue(now) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return dueBefore(
			sweepKey{state, items[i].OpensAt, items[i].ClosesAt, items[i].CreatedAt, items[i].RoundID},
			sweepKey{state, items[j].OpensAt, items[j].ClosesAt, items[j].CreatedAt, items[j].RoundID},
		)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) HasMotions(_ context.Context, associationID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.motions {
		if item.AssociationID == associationID {
			return true, nil
		}
	}
	return false, nil
}

type sweepKey struct {
	state     entities.RoundState
	opensAt   time.Time
	closesAt  *time.Time
	createdAt time.Time
	roundID   string
}

// dueBefore orders rounds by the timestamp their sweep step waits on, the
// same ordering the SQL repository uses.
func dueBefore(a sweepKey, b sweepKey) bool {
	var at, bt time.Time
	switch a.state {
	case entities.RoundStateScheduled:
		at, bt = a.opensAt, b.opensAt
	case entities.RoundStateOpen:
		at, bt = *a.closesAt, *b.closesAt
	default:
		at, bt = a.createdAt, b.createdAt
	}
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	return a.roundID < b.roundID
}

func (s *Store) GetReportWindow(_ context.Context, key entities.SanctionKey) (entities.ReportWindow, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.windows[key.String()]
	return item, ok, nil
}

func (s *Store) SaveReportWindow(_ context.Context, window entities.ReportWindow) error {
	s.putWindow(window)
	return nil
}

func (s *Store) HasReport(_ context.Context, key entities.SanctionKey, epoch int, reporterID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.reports[reportKey(key, epoch, reporterID)]
	return ok, nil
}

func (s *Store) InsertReport(_ context.Context, report entities.Report) error {
	_, err := s.insertReport(report)
	return err
}

func (s *Store) ListReports(_ context.Context, key entities.SanctionKey, epoch int) ([]entities.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Report, 0)
	for _, item := range s.reports {
		if item.AssociationID == key.AssociationID && item.ViolatorID == key.ViolatorID &&
			item.RuleID == key.RuleID && item.Epoch == epoch {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].FiledAt.Before(items[j].FiledAt) })
	return items, nil
}

func (s *Store) GetSanction(_ context.Context, key entities.SanctionKey, epoch int) (entities.SanctionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.sanctions[sanctionKey(key, epoch)]
	return item, ok, nil
}

func (s *Store) SaveSanction(_ context.Context, record entities.SanctionRecord) error {
	s.putSanction(record)
	return nil
}

func (s *Store) ListSanctions(_ context.Context, associationID string) ([]entities.SanctionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.SanctionRecord, 0)
	for _, item := range s.sanctions {
		if item.Key.AssociationID == associationID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DecidedAt.Before(items[j].DecidedAt) })
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	_, err := s.appendOutbox(envelope)
	return err
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if now.After(record.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.idempotency[record.Key]; ok && existing.RequestHash != record.RequestHash &&
		time.Now().UTC().Before(existing.ExpiresAt) {
		return domainerrors.ErrIdempotencyConflict
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) RegisterServiceAccount(_ context.Context, account entities.ServiceAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := strings.TrimSpace(account.Name)
	if name == "" {
		return domainerrors.ErrInvalidRequest
	}
	if _, ok := s.serviceAccounts[name]; ok {
		return domainerrors.ErrServiceAccountExists
	}
	account.Name = name
	s.serviceAccounts[name] = account
	return nil
}

func (s *Store) IsServiceAccount(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.serviceAccounts[strings.TrimSpace(name)]
	return ok, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Write primitives return the closure that restores the previous state.

func (s *Store) putAssociation(item entities.Association) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.associations[item.AssociationID]
	s.associations[item.AssociationID] = item
	return restore(&s.mu, s.associations, item.AssociationID, prev, existed)
}

func (s *Store) putMembership(item entities.Membership) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(item.AssociationID, item.UserID)
	prev, existed := s.memberships[key]
	s.memberships[key] = item
	return restore(&s.mu, s.memberships, key, prev, existed)
}

func (s *Store) putRule(item entities.Rule) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ruleKey(item.AssociationID, item.RuleID)
	prev, existed := s.rules[key]
	s.rules[key] = item
	return restore(&s.mu, s.rules, key, prev, existed)
}

func (s *Store) createRound(item entities.BallotRound) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rounds[item.RoundID]; exists {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrRoundAlreadyOpen, item.RoundID)
	}
	s.rounds[item.RoundID] = cloneRound(item)
	return restore(&s.mu, s.rounds, item.RoundID, entities.BallotRound{}, false), nil
}

func (s *Store) updateRound(item entities.BallotRound) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, exists := s.rounds[item.RoundID]
	if !exists {
		return nil, domainerrors.ErrRoundNotFound
	}
	s.rounds[item.RoundID] = cloneRound(item)
	return restore(&s.mu, s.rounds, item.RoundID, prev, true), nil
}

func (s *Store) insertBallot(item entities.Ballot) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byVoter, ok := s.ballots[item.RoundID]
	if !ok {
		byVoter = make(map[string]entities.Ballot)
		s.ballots[item.RoundID] = byVoter
	}
	if _, exists := byVoter[item.VoterID]; exists {
		return nil, domainerrors.ErrAlreadyVoted
	}
	byVoter[item.VoterID] = item
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.ballots[item.RoundID], item.VoterID)
	}, nil
}

func (s *Store) putElection(item entities.Election) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.elections[item.RoundID]
	s.elections[item.RoundID] = cloneElection(item)
	return restore(&s.mu, s.elections, item.RoundID, prev, existed)
}

func (s *Store) putMotion(item entities.Motion) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.motions[item.RoundID]
	s.motions[item.RoundID] = item
	return restore(&s.mu, s.motions, item.RoundID, prev, existed)
}

func (s *Store) putWindow(item entities.ReportWindow) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := item.Key.String()
	prev, existed := s.windows[key]
	s.windows[key] = item
	return restore(&s.mu, s.windows, key, prev, existed)
}

func (s *Store) insertReport(item entities.Report) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reportKey(entities.SanctionKey{
		AssociationID: item.AssociationID,
		ViolatorID:    item.ViolatorID,
		RuleID:        item.RuleID,
	}, item.Epoch, item.ReporterID)
	if _, exists := s.reports[key]; exists {
		return nil, domainerrors.ErrDuplicateReport
	}
	s.reports[key] = item
	return restore(&s.mu, s.reports, key, entities.Report{}, false), nil
}

func (s *Store) putSanction(item entities.SanctionRecord) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sanctionKey(item.Key, item.Epoch)
	prev, existed := s.sanctions[key]
	s.sanctions[key] = item
	return restore(&s.mu, s.sanctions, key, prev, existed)
}

func (s *Store) appendOutbox(envelope ports.EventEnvelope) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return nil, domainerrors.ErrConflict
		}
		return func() {}, nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return restore(&s.mu, s.outbox, outboxID, outboxRecord{}, false), nil
}

func restore[V any](mu *sync.RWMutex, items map[string]V, key string, prev V, existed bool) func() {
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if existed {
			items[key] = prev
			return
		}
		delete(items, key)
	}
}

func cloneRound(item entities.BallotRound) entities.BallotRound {
	item.EligibleVoters = append([]string(nil), item.EligibleVoters...)
	item.AllowedChoices = append([]string(nil), item.AllowedChoices...)
	if item.Tally != nil {
		tally := *item.Tally
		tally.Counts = cloneCounts(tally.Counts)
		item.Tally = &tally
	}
	return item
}

func cloneElection(item entities.Election) entities.Election {
	item.Candidates = append([]string(nil), item.Candidates...)
	item.Counts = cloneCounts(item.Counts)
	return item
}

func cloneCounts(counts map[string]int) map[string]int {
	if counts == nil {
		return nil
	}
	out := make(map[string]int, len(counts))
	for key, value := range counts {
		out[key] = value
	}
	return out
}

func memberKey(associationID string, userID string) string {
	return associationID + "|" + userID
}

func ruleKey(associationID string, ruleID string) string {
	return associationID + "|" + ruleID
}

func reportKey(key entities.SanctionKey, epoch int, reporterID string) string {
	return fmt.Sprintf("%s|%d|%s", key.String(), epoch, reporterID)
}

func sanctionKey(key entities.SanctionKey, epoch int) string {
	return fmt.Sprintf("%s|%d", key.String(), epoch)
}

var _ ports.UnitOfWork = (*Store)(nil)
var _ ports.Repositories = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.ServiceAccountRegistry = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
