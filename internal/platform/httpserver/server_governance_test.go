package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	governanceengine "agora/contexts/association-governance/governance-engine"
	"agora/contexts/association-governance/governance-engine/adapters/identity"
	"agora/contexts/association-governance/governance-engine/adapters/memory"
	"agora/contexts/association-governance/governance-engine/adapters/metrics"
	governancehttp "agora/contexts/association-governance/governance-engine/transport/http"

	"github.com/prometheus/client_golang/prometheus"
)

func newGovernanceTestServer(t *testing.T) *Server {
	t.Helper()
	store := memory.NewStore()
	registry := prometheus.NewRegistry()
	module := governanceengine.NewModule(governanceengine.Dependencies{
		Store:          store,
		Identity:       identity.StaticResolver{},
		Metrics:        metrics.NewRecorder(registry),
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: time.Hour,
	})
	return New(module, registry, nil, ":0")
}

type governanceCall struct {
	method string
	path   string
	actor  string
	key    string
	body   string
}

func (s *Server) governanceDo(t *testing.T, call governanceCall) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if call.body != "" {
		body = bytes.NewReader([]byte(call.body))
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(call.method, governancePrefix+call.path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "req-"+call.key)
	if call.actor != "" {
		req.Header.Set("Authorization", "Bearer "+call.actor)
	}
	if call.key != "" {
		req.Header.Set("Idempotency-Key", call.key)
	}
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
}

func seedGovernanceAssociation(t *testing.T, server *Server) {
	t.Helper()
	expectStatus(t, server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/associations", actor: "1", key: "assoc-1",
		body: `{"association_id":"assoc-1","name":"Allotment Club","location":{"country":"DE","city":"Berlin"},` +
			`"member_cap":10,"founder_address":{"location":{"country":"DE","city":"Berlin"},"street":"Gartenweg 1"}}`,
	}), http.StatusCreated)
	for _, member := range []string{"2", "3", "4"} {
		expectStatus(t, server.governanceDo(t, governanceCall{
			method: http.MethodPost, path: "/associations/assoc-1/members", actor: member, key: "join-" + member,
			body: `{"address":{"location":{"country":"DE","city":"Berlin"}}}`,
		}), http.StatusCreated)
	}
}

func TestGovernanceRequiresRequestIDBearerAndIdempotency(t *testing.T) {
	server := newGovernanceTestServer(t)
	body := `{"name":"Club","location":{"country":"DE","city":"Berlin"},"member_cap":3}`

	req := httptest.NewRequest(http.MethodPost, governancePrefix+"/associations", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer 1")
	req.Header.Set("Idempotency-Key", "k-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusBadRequest)

	expectStatus(t, server.governanceDo(t, governanceCall{method: http.MethodPost, path: "/associations", key: "k-2", body: body}), http.StatusUnauthorized)
	expectStatus(t, server.governanceDo(t, governanceCall{method: http.MethodPost, path: "/associations", actor: "1", body: body}), http.StatusBadRequest)
	expectStatus(t, server.governanceDo(t, governanceCall{method: http.MethodPost, path: "/associations", actor: "1", key: "k-3", body: "{"}), http.StatusBadRequest)
}

func TestGovernanceElectionFlowOverHTTP(t *testing.T) {
	server := newGovernanceTestServer(t)
	seedGovernanceAssociation(t, server)

	rr := server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/associations/assoc-1/elections", actor: "1", key: "open-1",
		body: `{"seat":"chair","candidates":["2","3"]}`,
	})
	expectStatus(t, rr, http.StatusCreated)
	var election governancehttp.ElectionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &election); err != nil {
		t.Fatalf("decode election: %v", err)
	}
	if election.State != "open" || election.RoundID == "" {
		t.Fatalf("expected open election with id, got %+v", election)
	}

	votes := map[string]string{"1": "2", "2": "2", "3": "3", "4": "2"}
	for voter, candidate := range votes {
		expectStatus(t, server.governanceDo(t, governanceCall{
			method: http.MethodPost, path: "/elections/" + election.RoundID + "/ballots", actor: voter, key: "vote-" + voter,
			body: `{"candidate_id":"` + candidate + `"}`,
		}), http.StatusCreated)
	}

	replay := server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/elections/" + election.RoundID + "/ballots", actor: "1", key: "vote-1",
		body: `{"candidate_id":"2"}`,
	})
	expectStatus(t, replay, http.StatusCreated)
	var replayed governancehttp.BallotResponse
	if err := json.Unmarshal(replay.Body.Bytes(), &replayed); err != nil || !replayed.Replayed {
		t.Fatalf("expected replayed ballot, got %s (%v)", replay.Body.String(), err)
	}

	again := server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/elections/" + election.RoundID + "/ballots", actor: "1", key: "vote-1-again",
		body: `{"candidate_id":"3"}`,
	})
	expectStatus(t, again, http.StatusConflict)
	if !strings.Contains(again.Body.String(), "already_voted") {
		t.Fatalf("expected already_voted code, got %s", again.Body.String())
	}

	expectStatus(t, server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/elections/" + election.RoundID + "/ballots", actor: "9", key: "vote-9",
		body: `{"candidate_id":"2"}`,
	}), http.StatusForbidden)

	resolved := server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/elections/" + election.RoundID + "/resolve", actor: "1", key: "resolve-1",
	})
	expectStatus(t, resolved, http.StatusOK)
	var result governancehttp.ElectionResponse
	if err := json.Unmarshal(resolved.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode resolved election: %v", err)
	}
	if result.State != "resolved" || result.Outcome != "elected" || result.WinnerID != "2" {
		t.Fatalf("unexpected election result %+v", result)
	}

	tally := server.governanceDo(t, governanceCall{method: http.MethodGet, path: "/rounds/" + election.RoundID + "/tally", actor: "3", key: "read"})
	expectStatus(t, tally, http.StatusOK)
	var counts governancehttp.TallyResponse
	if err := json.Unmarshal(tally.Body.Bytes(), &counts); err != nil {
		t.Fatalf("decode tally: %v", err)
	}
	if counts.Counts["2"] != 3 || counts.Counts["3"] != 1 || counts.BallotsCast != 4 {
		t.Fatalf("unexpected tally %+v", counts)
	}

	eligibility := server.governanceDo(t, governanceCall{method: http.MethodGet, path: "/associations/assoc-1/members/2/eligibility", actor: "3", key: "read"})
	expectStatus(t, eligibility, http.StatusOK)
	if !strings.Contains(eligibility.Body.String(), `"board_member":true`) {
		t.Fatalf("expected the winner on the board, got %s", eligibility.Body.String())
	}

	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRR := httptest.NewRecorder()
	server.mux.ServeHTTP(metricsRR, metricsReq)
	expectStatus(t, metricsRR, http.StatusOK)
	if !strings.Contains(metricsRR.Body.String(), `agora_governance_ballots_cast_total{kind="election"} 4`) {
		t.Fatalf("expected ballot counter in metrics output, got %s", metricsRR.Body.String())
	}
}

func TestGovernanceReportEscalationOverHTTP(t *testing.T) {
	server := newGovernanceTestServer(t)
	seedGovernanceAssociation(t, server)

	rr := server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/associations/assoc-1/rules", actor: "1", key: "rule-1",
		body: `{"text":"Keep the shared shed locked"}`,
	})
	expectStatus(t, rr, http.StatusCreated)
	var rule governancehttp.RuleResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &rule); err != nil {
		t.Fatalf("decode rule: %v", err)
	}

	self := server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/associations/assoc-1/reports", actor: "4", key: "self",
		body: `{"violator_id":"4","rule_id":"` + rule.RuleID + `"}`,
	})
	expectStatus(t, self, http.StatusUnprocessableEntity)

	var last governancehttp.ReportResponse
	for _, reporter := range []string{"1", "2", "3"} {
		rr := server.governanceDo(t, governanceCall{
			method: http.MethodPost, path: "/associations/assoc-1/reports", actor: reporter, key: "report-" + reporter,
			body: `{"violator_id":"4","rule_id":"` + rule.RuleID + `"}`,
		})
		expectStatus(t, rr, http.StatusCreated)
		if err := json.Unmarshal(rr.Body.Bytes(), &last); err != nil {
			t.Fatalf("decode report: %v", err)
		}
	}
	if !last.Escalated || last.Sanction == nil || last.Sanction.Action != "suspension" || last.ReportCount != 3 {
		t.Fatalf("expected suspension on the third report, got %+v", last)
	}

	duplicate := server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/associations/assoc-1/reports", actor: "2", key: "report-2-again",
		body: `{"violator_id":"4","rule_id":"` + rule.RuleID + `"}`,
	})
	expectStatus(t, duplicate, http.StatusConflict)

	listed := server.governanceDo(t, governanceCall{method: http.MethodGet, path: "/associations/assoc-1/sanctions", actor: "1", key: "read"})
	expectStatus(t, listed, http.StatusOK)
	var sanctions governancehttp.SanctionListResponse
	if err := json.Unmarshal(listed.Body.Bytes(), &sanctions); err != nil {
		t.Fatalf("decode sanctions: %v", err)
	}
	if len(sanctions.Items) != 1 || sanctions.Items[0].ViolatorID != "4" {
		t.Fatalf("expected one sanction for member 4, got %+v", sanctions.Items)
	}
}

func TestGovernanceSeedRuleClosesOnceVotingBegins(t *testing.T) {
	server := newGovernanceTestServer(t)
	seedGovernanceAssociation(t, server)

	expectStatus(t, server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/associations/assoc-1/rules", actor: "1", key: "rule-1",
		body: `{"text":"Keep the shared shed locked"}`,
	}), http.StatusCreated)
	expectStatus(t, server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/associations/assoc-1/proposals", actor: "2", key: "proposal-1",
		body: `{"text":"Water butts are shared"}`,
	}), http.StatusCreated)

	rr := server.governanceDo(t, governanceCall{
		method: http.MethodPost, path: "/associations/assoc-1/rules", actor: "1", key: "rule-2",
		body: `{"text":"Bonfires are forbidden"}`,
	})
	expectStatus(t, rr, http.StatusConflict)
	var body governancehttp.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Code != "rule_set_sealed" {
		t.Fatalf("expected rule_set_sealed, got %+v", body)
	}
}

func TestGovernanceNotFoundAndHealth(t *testing.T) {
	server := newGovernanceTestServer(t)
	expectStatus(t, server.governanceDo(t, governanceCall{method: http.MethodGet, path: "/associations/missing", actor: "1", key: "read"}), http.StatusNotFound)
	expectStatus(t, server.governanceDo(t, governanceCall{method: http.MethodGet, path: "/elections/missing", actor: "1", key: "read"}), http.StatusNotFound)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	expectStatus(t, rr, http.StatusOK)
}
