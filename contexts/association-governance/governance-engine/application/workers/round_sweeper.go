package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "agora/contexts/association-governance/governance-engine/application"
	"agora/contexts/association-governance/governance-engine/application/amendments"
	"agora/contexts/association-governance/governance-engine/application/elections"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	"agora/contexts/association-governance/governance-engine/ports"
)

// RoundSweeper drives rounds forward in time: it opens scheduled rounds that
// are due and closes rounds whose closing time elapsed. With AutoResolve set
// it resolves closed rounds as the scheduler service account.
//
// Casting checks the closing time on its own, so a slow sweep never lets a
// late ballot in.
type RoundSweeper struct {
	Elections   ports.ElectionRepository
	Motions     ports.MotionRepository
	ElectionSvc elections.Service
	MotionSvc   amendments.Service
	Clock       ports.Clock
	BatchSize   int
	AutoResolve bool
	Logger      *slog.Logger
}

// SweepReport counts what one sweep did.
type SweepReport struct {
	Activated int
	Closed    int
	Resolved  int
	Failed    int
}

// RunOnce sweeps one batch of elections and motions. A failing round is
// logged and skipped; the joined errors are returned after the batch.
func (j RoundSweeper) RunOnce(ctx context.Context) (SweepReport, error) {
	logger := application.ResolveLogger(j.Logger)
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := application.NowUTC(j.Clock)

	var report SweepReport
	var errs []error
	fail := func(kind string, roundID string, step string, err error) {
		report.Failed++
		errs = append(errs, err)
		logger.Error("governance round sweep step failed",
			"event", "governance_round_sweep_failed",
			"module", "association-governance/governance-engine",
			"layer", "worker",
			"kind", kind,
			"round_id", roundID,
			"step", step,
			"error", err.Error(),
		)
	}

	// The batch limit applies per state, and only due rounds are listed.
	states := []entities.RoundState{entities.RoundStateScheduled, entities.RoundStateOpen}
	if j.AutoResolve {
		states = append(states, entities.RoundStateClosed)
	}
	for _, state := range states {
		electionRows, err := j.Elections.ListDueElections(ctx, state, now, limit)
		if err != nil {
			return report, errors.Join(append(errs, err)...)
		}
		for _, election := range electionRows {
			step, changed, err := j.sweepElection(ctx, election, now)
			if err != nil {
				fail("election", election.RoundID, step, err)
				continue
			}
			report.count(step, changed)
		}

		motionRows, err := j.Motions.ListDueMotions(ctx, state, now, limit)
		if err != nil {
			return report, errors.Join(append(errs, err)...)
		}
		for _, motion := range motionRows {
			step, changed, err := j.sweepMotion(ctx, motion, now)
			if err != nil {
				fail("motion", motion.RoundID, step, err)
				continue
			}
			report.count(step, changed)
		}
	}

	if report.Activated+report.Closed+report.Resolved+report.Failed > 0 {
		logger.Info("governance round sweep completed",
			"event", "governance_round_sweep_completed",
			"module", "association-governance/governance-engine",
			"layer", "worker",
			"activated", report.Activated,
			"closed", report.Closed,
			"resolved", report.Resolved,
			"failed", report.Failed,
		)
	}
	return report, errors.Join(errs...)
}

func (j RoundSweeper) sweepElection(ctx context.Context, election entities.Election, now time.Time) (string, bool, error) {
	if !election.SweepDue(now) {
		return "", false, nil
	}
	switch election.State {
	case entities.RoundStateScheduled:
		_, err := j.ElectionSvc.Activate(ctx, election.RoundID)
		return "activate", err == nil, err
	case entities.RoundStateOpen:
		if j.AutoResolve {
			_, err := j.ElectionSvc.Resolve(ctx, entities.ServiceAccountScheduler, election.RoundID)
			return "resolve", err == nil, err
		}
		_, err := j.ElectionSvc.CloseExpired(ctx, election.RoundID)
		return "close", err == nil, err
	case entities.RoundStateClosed:
		if !j.AutoResolve {
			return "resolve", false, nil
		}
		_, err := j.ElectionSvc.Resolve(ctx, entities.ServiceAccountScheduler, election.RoundID)
		return "resolve", err == nil, err
	}
	return "", false, nil
}

func (j RoundSweeper) sweepMotion(ctx context.Context, motion entities.Motion, now time.Time) (string, bool, error) {
	if !motion.SweepDue(now) {
		return "", false, nil
	}
	switch motion.State {
	case entities.RoundStateScheduled:
		_, err := j.MotionSvc.Activate(ctx, motion.RoundID)
		return "activate", err == nil, err
	case entities.RoundStateOpen:
		if j.AutoResolve {
			_, err := j.MotionSvc.Resolve(ctx, entities.ServiceAccountScheduler, motion.RoundID)
			return "resolve", err == nil, err
		}
		_, err := j.MotionSvc.CloseExpired(ctx, motion.RoundID)
		return "close", err == nil, err
	case entities.RoundStateClosed:
		if !j.AutoResolve {
			return "resolve", false, nil
		}
		_, err := j.MotionSvc.Resolve(ctx, entities.ServiceAccountScheduler, motion.RoundID)
		return "resolve", err == nil, err
	}
	return "", false, nil
}

func (r *SweepReport) count(step string, changed bool) {
	if !changed {
		return
	}
	switch step {
	case "activate":
		r.Activated++
	case "close":
		r.Closed++
	case "resolve":
		r.Resolved++
	}
}
