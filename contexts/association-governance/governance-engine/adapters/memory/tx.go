package memory

import (
	"context"

	"agora/contexts/association-governance/governance-engine/domain/entities"
	"agora/contexts/association-governance/governance-engine/ports"
)

// txView is the repository handed to a unit of work. Reads go to the store;
// writes are applied immediately and journaled so a failed unit rolls back.
type txView struct {
	*Store
	undo []func()
}

func (t *txView) record(undo func()) {
	if undo != nil {
		t.undo = append(t.undo, undo)
	}
}

func (t *txView) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txView) SaveAssociation(_ context.Context, association entities.Association) error {
	t.record(t.putAssociation(association))
	return nil
}

func (t *txView) SaveMembership(_ context.Context, membership entities.Membership) error {
	t.record(t.putMembership(membership))
	return nil
}

func (t *txView) SaveRule(_ context.Context, rule entities.Rule) error {
	t.record(t.putRule(rule))
	return nil
}

func (t *txView) CreateBallotRound(_ context.Context, round entities.BallotRound) error {
	undo, err := t.createRound(round)
	t.record(undo)
	return err
}

func (t *txView) UpdateBallotRound(_ context.Context, round entities.BallotRound) error {
	undo, err := t.updateRound(round)
	t.record(undo)
	return err
}

func (t *txView) InsertBallot(_ context.Context, ballot entities.Ballot) error {
	undo, err := t.insertBallot(ballot)
	t.record(undo)
	return err
}

func (t *txView) SaveElection(_ context.Context, election entities.Election) error {
	t.record(t.putElection(election))
	return nil
}

func (t *txView) SaveMotion(_ context.Context, motion entities.Motion) error {
	t.record(t.putMotion(motion))
	return nil
}

func (t *txView) SaveReportWindow(_ context.Context, window entities.ReportWindow) error {
	t.record(t.putWindow(window))
	return nil
}

func (t *txView) InsertReport(_ context.Context, report entities.Report) error {
	undo, err := t.insertReport(report)
	t.record(undo)
	return err
}

func (t *txView) SaveSanction(_ context.Context, record entities.SanctionRecord) error {
	t.record(t.putSanction(record))
	return nil
}

func (t *txView) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	undo, err := t.appendOutbox(envelope)
	t.record(undo)
	return err
}

var _ ports.Repositories = (*txView)(nil)
