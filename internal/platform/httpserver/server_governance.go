package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	governancehttp "agora/contexts/association-governance/governance-engine/transport/http"
)

const governancePrefix = "/api/governance/v1"

func (s *Server) registerGovernanceRoutes() {
	s.mux.HandleFunc("POST "+governancePrefix+"/associations", s.handleGovernanceRegisterAssociation)
	s.mux.HandleFunc("GET "+governancePrefix+"/associations/{association_id}", s.handleGovernanceGetAssociation)
	s.mux.HandleFunc("POST "+governancePrefix+"/associations/{association_id}/member-cap", s.handleGovernanceSetMemberCap)
	s.mux.HandleFunc("POST "+governancePrefix+"/associations/{association_id}/members", s.handleGovernanceJoin)
	s.mux.HandleFunc("POST "+governancePrefix+"/associations/{association_id}/members/leave", s.handleGovernanceLeave)
	s.mux.HandleFunc("GET "+governancePrefix+"/associations/{association_id}/members", s.handleGovernanceListMembers)
	s.mux.HandleFunc("GET "+governancePrefix+"/associations/{association_id}/members/{user_id}/eligibility", s.handleGovernanceEligibility)
	s.mux.HandleFunc("POST "+governancePrefix+"/associations/{association_id}/rules", s.handleGovernanceSeedRule)
	s.mux.HandleFunc("GET "+governancePrefix+"/associations/{association_id}/rules", s.handleGovernanceListRules)

	s.mux.HandleFunc("POST "+governancePrefix+"/associations/{association_id}/elections", s.handleGovernanceOpenElection)
	s.mux.HandleFunc("GET "+governancePrefix+"/elections/{round_id}", s.handleGovernanceGetElection)
	s.mux.HandleFunc("POST "+governancePrefix+"/elections/{round_id}/ballots", s.handleGovernanceElectionBallot)
	s.mux.HandleFunc("POST "+governancePrefix+"/elections/{round_id}/resolve", s.handleGovernanceResolveElection)
	s.mux.HandleFunc("POST "+governancePrefix+"/elections/{round_id}/abort", s.handleGovernanceAbortElection)

	s.mux.HandleFunc("POST "+governancePrefix+"/associations/{association_id}/proposals", s.handleGovernanceOpenProposal)
	s.mux.HandleFunc("POST "+governancePrefix+"/associations/{association_id}/amendments", s.handleGovernanceOpenAmendment)
	s.mux.HandleFunc("GET "+governancePrefix+"/motions/{round_id}", s.handleGovernanceGetMotion)
	s.mux.HandleFunc("POST "+governancePrefix+"/motions/{round_id}/ballots", s.handleGovernanceMotionBallot)
	s.mux.HandleFunc("POST "+governancePrefix+"/motions/{round_id}/resolve", s.handleGovernanceResolveMotion)
	s.mux.HandleFunc("POST "+governancePrefix+"/motions/{round_id}/abort", s.handleGovernanceAbortMotion)

	s.mux.HandleFunc("GET "+governancePrefix+"/rounds/{round_id}/tally", s.handleGovernanceRoundTally)

	s.mux.HandleFunc("POST "+governancePrefix+"/associations/{association_id}/reports", s.handleGovernanceFileReport)
	s.mux.HandleFunc("GET "+governancePrefix+"/associations/{association_id}/sanctions", s.handleGovernanceListSanctions)
}

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, governancehttp.ErrorResponse{Code: code, Message: message})
}

func (s *Server) writeGovernanceDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrUnauthenticated):
		writeGovernanceError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyKeyRequired):
		writeGovernanceError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidCandidate):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_candidate", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidChoice):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_choice", err.Error())
	case errors.Is(err, domainerrors.ErrMalformedAddress):
		writeGovernanceError(w, http.StatusBadRequest, "malformed_address", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidRequest):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domainerrors.ErrNotAMember),
		errors.Is(err, domainerrors.ErrNotEligible):
		writeGovernanceError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domainerrors.ErrSelfReport):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "self_report", err.Error())
	case errors.Is(err, domainerrors.ErrAssociationNotFound),
		errors.Is(err, domainerrors.ErrRoundNotFound),
		errors.Is(err, domainerrors.ErrSanctionNotFound),
		errors.Is(err, domainerrors.ErrNoSuchRule):
		writeGovernanceError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeGovernanceError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrDuplicateReport):
		writeGovernanceError(w, http.StatusConflict, "duplicate_report", err.Error())
	case errors.Is(err, domainerrors.ErrRoundAborted):
		writeGovernanceError(w, http.StatusConflict, "round_aborted", err.Error())
	case errors.Is(err, domainerrors.ErrRoundClosed),
		errors.Is(err, domainerrors.ErrRoundNotOpen):
		writeGovernanceError(w, http.StatusConflict, "round_not_accepting", err.Error())
	case errors.Is(err, domainerrors.ErrRuleSetSealed):
		writeGovernanceError(w, http.StatusConflict, "rule_set_sealed", err.Error())
	case errors.Is(err, domainerrors.ErrCapacityExceeded):
		writeGovernanceError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, domainerrors.ErrRoundAlreadyOpen),
		errors.Is(err, domainerrors.ErrAlreadyMember),
		errors.Is(err, domainerrors.ErrIdempotencyConflict),
		errors.Is(err, domainerrors.ErrConflict):
		writeGovernanceError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("governance request failed",
			"event", "http_governance_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Header.Get("X-Request-Id"),
			"error", err.Error(),
		)
		writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// authorizeGovernance checks the request id header and resolves the bearer
// credential into the acting member.
func (s *Server) authorizeGovernance(w http.ResponseWriter, r *http.Request) (string, bool) {
	if strings.TrimSpace(r.Header.Get("X-Request-Id")) == "" {
		writeGovernanceError(w, http.StatusBadRequest, "missing_request_id", "X-Request-Id header is required")
		return "", false
	}
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "unauthorized", "Authorization bearer token is required")
		return "", false
	}
	memberID, err := s.governance.Handler.Authenticate(r.Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		writeGovernanceError(w, http.StatusUnauthorized, "unauthorized", "bearer token could not be verified")
		return "", false
	}
	return memberID, true
}

func (s *Server) authorizeGovernanceMutation(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	actorID, ok := s.authorizeGovernance(w, r)
	if !ok {
		return "", "", false
	}
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		writeGovernanceError(w, http.StatusBadRequest, "idempotency_key_required", "Idempotency-Key header is required")
		return "", "", false
	}
	return actorID, key, true
}

func decodeGovernanceBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func (s *Server) handleGovernanceRegisterAssociation(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.RegisterAssociationRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.RegisterAssociationHandler(r.Context(), actorID, key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGovernanceGetAssociation(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorizeGovernance(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.GetAssociationHandler(r.Context(), r.PathValue("association_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceSetMemberCap(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.SetMemberCapRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.SetMemberCapHandler(r.Context(), actorID, r.PathValue("association_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceJoin(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.JoinRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.JoinHandler(r.Context(), actorID, r.PathValue("association_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGovernanceLeave(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.LeaveHandler(r.Context(), actorID, r.PathValue("association_id"), key)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceListMembers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorizeGovernance(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.ListMembersHandler(r.Context(), r.PathValue("association_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceEligibility(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorizeGovernance(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.EligibilityHandler(r.Context(), r.PathValue("association_id"), r.PathValue("user_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceSeedRule(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.SeedRuleRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.SeedRuleHandler(r.Context(), actorID, r.PathValue("association_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGovernanceListRules(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorizeGovernance(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.ListRulesHandler(r.Context(), r.PathValue("association_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceOpenElection(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.OpenElectionRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.OpenElectionHandler(r.Context(), actorID, r.PathValue("association_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGovernanceGetElection(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorizeGovernance(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.GetElectionHandler(r.Context(), r.PathValue("round_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceElectionBallot(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.ElectionBallotRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.CastElectionBallotHandler(r.Context(), actorID, r.PathValue("round_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGovernanceResolveElection(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.ResolveElectionHandler(r.Context(), actorID, r.PathValue("round_id"), key)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceAbortElection(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.AbortRoundRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.AbortElectionHandler(r.Context(), actorID, r.PathValue("round_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceOpenProposal(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.OpenMotionRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.OpenProposalHandler(r.Context(), actorID, r.PathValue("association_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGovernanceOpenAmendment(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.OpenMotionRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.OpenAmendmentHandler(r.Context(), actorID, r.PathValue("association_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGovernanceGetMotion(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorizeGovernance(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.GetMotionHandler(r.Context(), r.PathValue("round_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceMotionBallot(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.MotionBallotRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.CastMotionBallotHandler(r.Context(), actorID, r.PathValue("round_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGovernanceResolveMotion(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.ResolveMotionHandler(r.Context(), actorID, r.PathValue("round_id"), key)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceAbortMotion(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.AbortRoundRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.AbortMotionHandler(r.Context(), actorID, r.PathValue("round_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceRoundTally(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorizeGovernance(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.RoundTallyHandler(r.Context(), r.PathValue("round_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGovernanceFileReport(w http.ResponseWriter, r *http.Request) {
	actorID, key, ok := s.authorizeGovernanceMutation(w, r)
	if !ok {
		return
	}
	var req governancehttp.FileReportRequest
	if !decodeGovernanceBody(w, r, &req) {
		return
	}
	resp, err := s.governance.Handler.FileReportHandler(r.Context(), actorID, r.PathValue("association_id"), key, req)
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGovernanceListSanctions(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorizeGovernance(w, r); !ok {
		return
	}
	resp, err := s.governance.Handler.ListSanctionsHandler(r.Context(), r.PathValue("association_id"))
	if err != nil {
		s.writeGovernanceDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
