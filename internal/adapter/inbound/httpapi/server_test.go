package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/chaingate/chaingate/internal/adapter/outbound/memory"
	"github.com/chaingate/chaingate/internal/domain/audit"
	"github.com/chaingate/chaingate/internal/domain/auth"
	"github.com/chaingate/chaingate/internal/domain/query"
	"github.com/chaingate/chaingate/internal/domain/session"
	"github.com/chaingate/chaingate/internal/port/inbound"
)

type fakePipeline struct {
	result       *inbound.AskResult
	err          error
	lastQuestion string
}

func (f *fakePipeline) Ask(ctx context.Context, sessionID, question string) (*inbound.AskResult, error) {
	f.lastQuestion = question
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeAuth struct {
	sess      *session.Session
	loginErr  error
	loggedOut []string
}

func (f *fakeAuth) Login(ctx context.Context, userID, password, origin string) (*session.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.sess, nil
}

func (f *fakeAuth) Logout(ctx context.Context, sessionID string) error {
	f.loggedOut = append(f.loggedOut, sessionID)
	return nil
}

type fakeReporter struct {
	summary *audit.Summary
	err     error
}

func (f *fakeReporter) Summary(ctx context.Context) (*audit.Summary, error) {
	return f.summary, f.err
}

type serverFixture struct {
	server   *Server
	pipeline *fakePipeline
	auth     *fakeAuth
	reporter *fakeReporter
	sessions *session.SessionService
	forgot   []string
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	fx := &serverFixture{
		pipeline: &fakePipeline{
			result: &inbound.AskResult{
				RequestID:      "req-1",
				Outcome:        inbound.OutcomeAccepted,
				QueryText:      "SELECT CHAIN_ID FROM VW_LATEST_CHAIN_RUNS WHERE rn = 1 LIMIT 10;",
				Classification: query.ClassStatusCheck,
				Confidence:     0.9,
			},
		},
		auth:     &fakeAuth{},
		reporter: &fakeReporter{summary: &audit.Summary{TotalEvents: 7}},
		sessions: session.NewSessionService(memory.NewSessionStore(), session.Config{}),
	}
	fx.server = NewServer(fx.pipeline, fx.auth, fx.reporter, fx.sessions,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithForgetSession(func(id string) { fx.forgot = append(fx.forgot, id) }),
	)
	return fx
}

func (fx *serverFixture) createSession(t *testing.T, level auth.AccessLevel) *session.Session {
	t.Helper()
	sess, err := fx.sessions.Create(context.Background(), &auth.Identity{
		ID:    "u-" + string(level),
		Name:  "User",
		Level: level,
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess
}

func doRequest(t *testing.T, handler http.Handler, method, path, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleLogin(t *testing.T) {
	t.Parallel()
	fx := newServerFixture(t)
	fx.auth.sess = &session.Session{
		ID:       "sess-1",
		UserID:   "analyst1",
		UserName: "Analyst One",
		Level:    auth.LevelAnalyst,
		Timeout:  session.DefaultTimeout,
	}

	rec := doRequest(t, fx.server.Handler(), http.MethodPost, "/v1/login", "",
		`{"user_id":"analyst1","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID != "sess-1" || resp.AccessLevel != "analyst" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleLoginErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		loginErr error
		want     int
	}{
		{
			name: "bad credentials",
			body: `{"user_id":"analyst1","password":"nope"}`, loginErr: auth.ErrInvalidCredentials,
			want: http.StatusUnauthorized,
		},
		{
			name: "missing fields",
			body: `{"user_id":"analyst1"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "malformed body",
			body: `{"user_id":`,
			want: http.StatusBadRequest,
		},
		{
			name: "unknown field rejected",
			body: `{"user_id":"a","password":"b","admin":true}`,
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fx := newServerFixture(t)
			fx.auth.loginErr = tt.loginErr

			rec := doRequest(t, fx.server.Handler(), http.MethodPost, "/v1/login", "", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleAsk(t *testing.T) {
	t.Parallel()
	fx := newServerFixture(t)

	rec := doRequest(t, fx.server.Handler(), http.MethodPost, "/v1/ask", "sess-1",
		`{"question":"which chains failed today"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if fx.pipeline.lastQuestion != "which chains failed today" {
		t.Errorf("question = %q", fx.pipeline.lastQuestion)
	}

	var resp inbound.AskResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Outcome != inbound.OutcomeAccepted || resp.RequestID != "req-1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleAskErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid session", err: inbound.ErrSessionInvalid, want: http.StatusUnauthorized},
		{name: "rate limited", err: inbound.ErrRateLimited, want: http.StatusTooManyRequests},
		{name: "hostile question", err: inbound.ErrInvalidQuestion, want: http.StatusBadRequest},
		{name: "internal failure", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fx := newServerFixture(t)
			fx.pipeline.err = tt.err

			rec := doRequest(t, fx.server.Handler(), http.MethodPost, "/v1/ask", "sess-1",
				`{"question":"anything"}`)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleAskRequiresSession(t *testing.T) {
	t.Parallel()
	fx := newServerFixture(t)

	rec := doRequest(t, fx.server.Handler(), http.MethodPost, "/v1/ask", "",
		`{"question":"anything"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestHandleLogout(t *testing.T) {
	t.Parallel()
	fx := newServerFixture(t)

	rec := doRequest(t, fx.server.Handler(), http.MethodPost, "/v1/logout", "sess-9", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(fx.auth.loggedOut) != 1 || fx.auth.loggedOut[0] != "sess-9" {
		t.Errorf("logged out = %v", fx.auth.loggedOut)
	}
	if len(fx.forgot) != 1 || fx.forgot[0] != "sess-9" {
		t.Errorf("forgotten sessions = %v", fx.forgot)
	}
}

func TestHandleSecuritySummary(t *testing.T) {
	t.Parallel()
	fx := newServerFixture(t)
	admin := fx.createSession(t, auth.LevelAdmin)
	guest := fx.createSession(t, auth.LevelGuest)

	tests := []struct {
		name      string
		sessionID string
		want      int
	}{
		{name: "no session", sessionID: "", want: http.StatusUnauthorized},
		{name: "unknown session", sessionID: "nope", want: http.StatusUnauthorized},
		{name: "guest forbidden", sessionID: guest.ID, want: http.StatusForbidden},
		{name: "admin allowed", sessionID: admin.ID, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, fx.server.Handler(), http.MethodGet, "/v1/security/summary", tt.sessionID, "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				var summary audit.Summary
				if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
					t.Fatalf("failed to decode summary: %v", err)
				}
				if summary.TotalEvents != 7 {
					t.Errorf("total events = %d, want 7", summary.TotalEvents)
				}
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	fx := newServerFixture(t)

	rec := doRequest(t, fx.server.Handler(), http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	fx := newServerFixture(t)

	// One API request so the counters exist.
	doRequest(t, fx.server.Handler(), http.MethodPost, "/v1/ask", "sess-1",
		`{"question":"which chains failed today"}`)

	rec := doRequest(t, fx.server.Handler(), http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "chaingate_requests_total") {
		t.Error("metrics output missing chaingate_requests_total")
	}
	if !strings.Contains(body, "chaingate_ask_outcomes_total") {
		t.Error("metrics output missing chaingate_ask_outcomes_total")
	}

	families, err := fx.server.registry.Gather()
	if err != nil {
		t.Fatalf("Gather(): %v", err)
	}
	var requests *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "chaingate_requests_total" {
			requests = mf
		}
	}
	if requests == nil {
		t.Fatal("chaingate_requests_total not gathered")
	}
	if len(requests.GetMetric()) == 0 || requests.GetMetric()[0].GetCounter().GetValue() < 1 {
		t.Error("chaingate_requests_total did not count the request")
	}
}
