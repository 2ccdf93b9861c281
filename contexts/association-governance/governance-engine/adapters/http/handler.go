package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"agora/contexts/association-governance/governance-engine/application"
	"agora/contexts/association-governance/governance-engine/application/amendments"
	"agora/contexts/association-governance/governance-engine/application/ballots"
	"agora/contexts/association-governance/governance-engine/application/elections"
	"agora/contexts/association-governance/governance-engine/application/ledger"
	"agora/contexts/association-governance/governance-engine/application/rules"
	"agora/contexts/association-governance/governance-engine/application/sanctions"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	"agora/contexts/association-governance/governance-engine/ports"
	httptransport "agora/contexts/association-governance/governance-engine/transport/http"
)

// Handler maps transport DTOs onto the governance engines. Every mutation
// runs through the idempotency runner keyed by operation, actor and the
// client supplied key.
type Handler struct {
	Ledger      ledger.Service
	Rules       rules.Service
	Box         ballots.Service
	Elections   elections.Service
	Motions     amendments.Service
	Sanctions   sanctions.Service
	Identity    ports.IdentityResolver
	Idempotency application.Idempotency
	Logger      *slog.Logger
}

// Authenticate resolves the bearer credential into a member id.
func (h Handler) Authenticate(ctx context.Context, bearer string) (string, error) {
	return h.Identity.ResolveMember(ctx, bearer)
}

func (h Handler) RegisterAssociationHandler(
	ctx context.Context,
	actorID string,
	idempotencyKey string,
	req httptransport.RegisterAssociationRequest,
) (httptransport.AssociationResponse, error) {
	resp, replayed, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("association_register", actorID, idempotencyKey), req,
		func(ctx context.Context) (httptransport.AssociationResponse, error) {
			association, err := h.Ledger.RegisterAssociation(ctx, ledger.RegisterAssociationCommand{
				AssociationID:  req.AssociationID,
				Name:           req.Name,
				Location:       toLocation(req.Location),
				Description:    req.Description,
				MemberCap:      req.MemberCap,
				FounderID:      actorID,
				FounderAddress: toAddress(req.FounderAddress),
			})
			if err != nil {
				return httptransport.AssociationResponse{}, err
			}
			return mapAssociation(association, 1), nil
		})
	if err != nil {
		return httptransport.AssociationResponse{}, err
	}
	h.logReplay(replayed, "association_register", actorID)
	return resp, nil
}

func (h Handler) SetMemberCapHandler(
	ctx context.Context,
	actorID string,
	associationID string,
	idempotencyKey string,
	req httptransport.SetMemberCapRequest,
) (httptransport.AssociationResponse, error) {
	request := struct {
		AssociationID string
		httptransport.SetMemberCapRequest
	}{associationID, req}
	resp, _, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("association_member_cap", actorID, idempotencyKey), request,
		func(ctx context.Context) (httptransport.AssociationResponse, error) {
			association, err := h.Ledger.SetMemberCap(ctx, actorID, associationID, req.MemberCap)
			if err != nil {
				return httptransport.AssociationResponse{}, err
			}
			members, err := h.Ledger.ListMembers(ctx, association.AssociationID)
			if err != nil {
				return httptransport.AssociationResponse{}, err
			}
			return mapAssociation(association, len(members)), nil
		})
	return resp, err
}

func (h Handler) GetAssociationHandler(ctx context.Context, associationID string) (httptransport.AssociationResponse, error) {
	association, err := h.Ledger.GetAssociation(ctx, associationID)
	if err != nil {
		return httptransport.AssociationResponse{}, err
	}
	members, err := h.Ledger.ListMembers(ctx, association.AssociationID)
	if err != nil {
		return httptransport.AssociationResponse{}, err
	}
	return mapAssociation(association, len(members)), nil
}

func (h Handler) JoinHandler(
	ctx context.Context,
	actorID string,
	associationID string,
	idempotencyKey string,
	req httptransport.JoinRequest,
) (httptransport.MembershipResponse, error) {
	request := struct {
		AssociationID string
		httptransport.JoinRequest
	}{associationID, req}
	resp, _, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("member_join", actorID, idempotencyKey), request,
		func(ctx context.Context) (httptransport.MembershipResponse, error) {
			membership, err := h.Ledger.AddMember(ctx, ledger.AddMemberCommand{
				AssociationID: associationID,
				UserID:        actorID,
				Address:       toAddress(req.Address),
			})
			if err != nil {
				return httptransport.MembershipResponse{}, err
			}
			return mapMembership(membership), nil
		})
	return resp, err
}

func (h Handler) LeaveHandler(
	ctx context.Context,
	actorID string,
	associationID string,
	idempotencyKey string,
) (httptransport.MembershipResponse, error) {
	resp, _, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("member_leave", actorID, idempotencyKey), associationID,
		func(ctx context.Context) (httptransport.MembershipResponse, error) {
			if err := h.Ledger.RemoveMember(ctx, associationID, actorID); err != nil {
				return httptransport.MembershipResponse{}, err
			}
			membership, err := h.Ledger.GetMembership(ctx, associationID, actorID)
			if err != nil {
				return httptransport.MembershipResponse{}, err
			}
			return mapMembership(membership), nil
		})
	return resp, err
}

func (h Handler) ListMembersHandler(ctx context.Context, associationID string) (httptransport.MemberListResponse, error) {
	members, err := h.Ledger.ListMembers(ctx, associationID)
	if err != nil {
		return httptransport.MemberListResponse{}, err
	}
	items := make([]httptransport.MembershipResponse, 0, len(members))
	for _, membership := range members {
		items = append(items, mapMembership(membership))
	}
	return httptransport.MemberListResponse{Items: items}, nil
}

func (h Handler) EligibilityHandler(ctx context.Context, associationID string, userID string) (httptransport.EligibilityResponse, error) {
	if _, err := h.Ledger.GetAssociation(ctx, associationID); err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	eligible, err := h.Ledger.IsEligibleVoter(ctx, associationID, userID)
	if err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	board, err := h.Ledger.IsBoardMember(ctx, associationID, userID)
	if err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	return httptransport.EligibilityResponse{
		AssociationID:  associationID,
		UserID:         userID,
		EligibleVoter:  eligible,
		InGoodStanding: eligible,
		BoardMember:    board,
	}, nil
}

func (h Handler) SeedRuleHandler(
	ctx context.Context,
	actorID string,
	associationID string,
	idempotencyKey string,
	req httptransport.SeedRuleRequest,
) (httptransport.RuleResponse, error) {
	request := struct {
		AssociationID string
		httptransport.SeedRuleRequest
	}{associationID, req}
	resp, _, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("rule_seed", actorID, idempotencyKey), request,
		func(ctx context.Context) (httptransport.RuleResponse, error) {
			rule, err := h.Rules.SeedRule(ctx, actorID, associationID, req.Text)
			if err != nil {
				return httptransport.RuleResponse{}, err
			}
			return mapRule(rule), nil
		})
	return resp, err
}

func (h Handler) ListRulesHandler(ctx context.Context, associationID string) (httptransport.RuleListResponse, error) {
	items, err := h.Rules.ListRules(ctx, associationID)
	if err != nil {
		return httptransport.RuleListResponse{}, err
	}
	out := httptransport.RuleListResponse{AssociationID: associationID, Items: make([]httptransport.RuleResponse, 0, len(items))}
	for _, rule := range items {
		out.Items = append(out.Items, mapRule(rule))
	}
	return out, nil
}

func (h Handler) OpenElectionHandler(
	ctx context.Context,
	actorID string,
	associationID string,
	idempotencyKey string,
	req httptransport.OpenElectionRequest,
) (httptransport.ElectionResponse, error) {
	request := struct {
		AssociationID string
		httptransport.OpenElectionRequest
	}{associationID, req}
	resp, replayed, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("election_open", actorID, idempotencyKey), request,
		func(ctx context.Context) (httptransport.ElectionResponse, error) {
			election, err := h.Elections.OpenElection(ctx, elections.OpenElectionCommand{
				ActorID:          actorID,
				AssociationID:    associationID,
				RoundID:          req.RoundID,
				Seat:             req.Seat,
				Candidates:       req.Candidates,
				OutgoingHolderID: req.OutgoingHolderID,
				OpensAt:          req.OpensAt,
				ClosesAt:         req.ClosesAt,
			})
			if err != nil {
				return httptransport.ElectionResponse{}, err
			}
			return mapElection(election), nil
		})
	resp.Replayed = replayed
	return resp, err
}

func (h Handler) CastElectionBallotHandler(
	ctx context.Context,
	actorID string,
	roundID string,
	idempotencyKey string,
	req httptransport.ElectionBallotRequest,
) (httptransport.BallotResponse, error) {
	request := struct {
		RoundID string
		httptransport.ElectionBallotRequest
	}{roundID, req}
	resp, replayed, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("election_cast", actorID, idempotencyKey), request,
		func(ctx context.Context) (httptransport.BallotResponse, error) {
			ballot, err := h.Elections.CastVote(ctx, roundID, actorID, req.CandidateID)
			if err != nil {
				return httptransport.BallotResponse{}, err
			}
			return mapBallot(ballot), nil
		})
	resp.Replayed = replayed
	return resp, err
}

func (h Handler) ResolveElectionHandler(
	ctx context.Context,
	actorID string,
	roundID string,
	idempotencyKey string,
) (httptransport.ElectionResponse, error) {
	resp, replayed, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("election_resolve", actorID, idempotencyKey), roundID,
		func(ctx context.Context) (httptransport.ElectionResponse, error) {
			election, err := h.Elections.Resolve(ctx, actorID, roundID)
			if err != nil {
				return httptransport.ElectionResponse{}, err
			}
			return mapElection(election), nil
		})
	resp.Replayed = replayed
	return resp, err
}

func (h Handler) AbortElectionHandler(
	ctx context.Context,
	actorID string,
	roundID string,
	idempotencyKey string,
	req httptransport.AbortRoundRequest,
) (httptransport.ElectionResponse, error) {
	request := struct {
		RoundID string
		httptransport.AbortRoundRequest
	}{roundID, req}
	resp, replayed, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("election_abort", actorID, idempotencyKey), request,
		func(ctx context.Context) (httptransport.ElectionResponse, error) {
			election, err := h.Elections.Abort(ctx, actorID, roundID, req.Reason)
			if err != nil {
				return httptransport.ElectionResponse{}, err
			}
			return mapElection(election), nil
		})
	resp.Replayed = replayed
	return resp, err
}

func (h Handler) GetElectionHandler(ctx context.Context, roundID string) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.GetElection(ctx, roundID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) OpenProposalHandler(
	ctx context.Context,
	actorID string,
	associationID string,
	idempotencyKey string,
	req httptransport.OpenMotionRequest,
) (httptransport.MotionResponse, error) {
	return h.openMotion(ctx, entities.MotionKindProposal, actorID, associationID, idempotencyKey, req)
}

func (h Handler) OpenAmendmentHandler(
	ctx context.Context,
	actorID string,
	associationID string,
	idempotencyKey string,
	req httptransport.OpenMotionRequest,
) (httptransport.MotionResponse, error) {
	return h.openMotion(ctx, entities.MotionKindAmendment, actorID, associationID, idempotencyKey, req)
}

func (h Handler) openMotion(
	ctx context.Context,
	kind entities.MotionKind,
	actorID string,
	associationID string,
	idempotencyKey string,
	req httptransport.OpenMotionRequest,
) (httptransport.MotionResponse, error) {
	request := struct {
		AssociationID string
		Kind          entities.MotionKind
		httptransport.OpenMotionRequest
	}{associationID, kind, req}
	resp, replayed, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("motion_open", actorID, idempotencyKey), request,
		func(ctx context.Context) (httptransport.MotionResponse, error) {
			cmd := amendments.OpenMotionCommand{
				ProposerID:    actorID,
				AssociationID: associationID,
				RoundID:       req.RoundID,
				TargetRuleID:  req.TargetRuleID,
				Text:          req.Text,
				OpensAt:       req.OpensAt,
				ClosesAt:      req.ClosesAt,
			}
			var motion entities.Motion
			var err error
			if kind == entities.MotionKindAmendment {
				motion, err = h.Motions.OpenAmendment(ctx, cmd)
			} else {
				motion, err = h.Motions.OpenProposal(ctx, cmd)
			}
			if err != nil {
				return httptransport.MotionResponse{}, err
			}
			return mapMotion(motion), nil
		})
	resp.Replayed = replayed
	return resp, err
}

func (h Handler) CastMotionBallotHandler(
	ctx context.Context,
	actorID string,
	roundID string,
	idempotencyKey string,
	req httptransport.MotionBallotRequest,
) (httptransport.BallotResponse, error) {
	request := struct {
		RoundID string
		httptransport.MotionBallotRequest
	}{roundID, req}
	resp, replayed, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("motion_cast", actorID, idempotencyKey), request,
		func(ctx context.Context) (httptransport.BallotResponse, error) {
			ballot, err := h.Motions.CastVote(ctx, roundID, actorID, req.Choice)
			if err != nil {
				return httptransport.BallotResponse{}, err
			}
			return mapBallot(ballot), nil
		})
	resp.Replayed = replayed
	return resp, err
}

func (h Handler) ResolveMotionHandler(
	ctx context.Context,
	actorID string,
	roundID string,
	idempotencyKey string,
) (httptransport.MotionResponse, error) {
	resp, replayed, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("motion_resolve", actorID, idempotencyKey), roundID,
		func(ctx context.Context) (httptransport.MotionResponse, error) {
			motion, err := h.Motions.Resolve(ctx, actorID, roundID)
			if err != nil {
				return httptransport.MotionResponse{}, err
			}
			return mapMotion(motion), nil
		})
	resp.Replayed = replayed
	return resp, err
}

func (h Handler) AbortMotionHandler(
	ctx context.Context,
	actorID string,
	roundID string,
	idempotencyKey string,
	req httptransport.AbortRoundRequest,
) (httptransport.MotionResponse, error) {
	request := struct {
		RoundID string
		httptransport.AbortRoundRequest
	}{roundID, req}
	resp, replayed, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("motion_abort", actorID, idempotencyKey), request,
		func(ctx context.Context) (httptransport.MotionResponse, error) {
			motion, err := h.Motions.Abort(ctx, actorID, roundID, req.Reason)
			if err != nil {
				return httptransport.MotionResponse{}, err
			}
			return mapMotion(motion), nil
		})
	resp.Replayed = replayed
	return resp, err
}

func (h Handler) GetMotionHandler(ctx context.Context, roundID string) (httptransport.MotionResponse, error) {
	motion, err := h.Motions.GetMotion(ctx, roundID)
	if err != nil {
		return httptransport.MotionResponse{}, err
	}
	return mapMotion(motion), nil
}

// RoundTallyHandler serves the cached tally of a tallied ballot round.
func (h Handler) RoundTallyHandler(ctx context.Context, roundID string) (httptransport.TallyResponse, error) {
	round, err := h.Box.Results(ctx, roundID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	tally := entities.Tally{}
	if round.Tally != nil {
		tally = *round.Tally
	}
	return httptransport.TallyResponse{
		RoundID:       round.RoundID,
		Counts:        tally.Counts,
		BallotsCast:   tally.BallotsCast,
		EligibleCount: tally.EligibleCount,
		Turnout:       tally.Turnout(),
		ComputedAt:    tally.ComputedAt,
	}, nil
}

func (h Handler) FileReportHandler(
	ctx context.Context,
	actorID string,
	associationID string,
	idempotencyKey string,
	req httptransport.FileReportRequest,
) (httptransport.ReportResponse, error) {
	request := struct {
		AssociationID string
		httptransport.FileReportRequest
	}{associationID, req}
	resp, replayed, err := application.RunIdempotent(ctx, h.Idempotency, scopedKey("report_file", actorID, idempotencyKey), request,
		func(ctx context.Context) (httptransport.ReportResponse, error) {
			result, err := h.Sanctions.FileReport(ctx, sanctions.FileReportCommand{
				AssociationID: associationID,
				ReporterID:    actorID,
				ViolatorID:    req.ViolatorID,
				RuleID:        req.RuleID,
			})
			if err != nil {
				return httptransport.ReportResponse{}, err
			}
			out := httptransport.ReportResponse{
				ReportID:    result.Report.ReportID,
				ReporterID:  result.Report.ReporterID,
				ViolatorID:  result.Report.ViolatorID,
				RuleID:      result.Report.RuleID,
				Epoch:       result.Report.Epoch,
				ReportCount: result.Window.ReportCount,
				FiledAt:     result.Report.FiledAt,
				Escalated:   result.Escalated,
			}
			if result.Sanction != nil {
				sanction := mapSanction(*result.Sanction)
				out.Sanction = &sanction
			}
			return out, nil
		})
	resp.Replayed = replayed
	return resp, err
}

func (h Handler) ListSanctionsHandler(ctx context.Context, associationID string) (httptransport.SanctionListResponse, error) {
	records, err := h.Sanctions.ListSanctions(ctx, associationID)
	if err != nil {
		return httptransport.SanctionListResponse{}, err
	}
	out := httptransport.SanctionListResponse{AssociationID: associationID, Items: make([]httptransport.SanctionResponse, 0, len(records))}
	for _, record := range records {
		out.Items = append(out.Items, mapSanction(record))
	}
	return out, nil
}

func (h Handler) logReplay(replayed bool, operation string, actorID string) {
	if !replayed {
		return
	}
	application.ResolveLogger(h.Logger).Info("governance mutation replayed",
		"event", "governance_mutation_replayed",
		"module", "association-governance/governance-engine",
		"layer", "adapter",
		"operation", operation,
		"actor_id", actorID,
	)
}

func scopedKey(operation string, actorID string, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return "governance:" + operation + ":" + strings.TrimSpace(actorID) + ":" + key
}
