package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/session"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv      *Server
	auth     *auth.Service
	sessions *session.Registry
}

type envOptions struct {
	ledger    store.Ledger
	ready     func(context.Context) error
	rateLimit int
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	st := memory.New()
	clock := func() time.Time { return testNow }

	authSvc := auth.NewService(st, auth.Config{
		Secret:     []byte("test-secret"),
		SessionTTL: time.Hour,
		ResetTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, nil, log.Nop()).WithClock(clock)
	reg := session.NewRegistry(log.Nop()).WithClock(clock)
	t.Cleanup(reg.Attach(authSvc))

	var ledger store.Ledger = st
	if opts.ledger != nil {
		ledger = opts.ledger
	}
	if opts.rateLimit == 0 {
		opts.rateLimit = 1000
	}
	srv := NewServer(":0", Deps{
		Auth:               authSvc,
		Sessions:           reg,
		Ledger:             services.NewLedgerService(ledger, nil, log.Nop()),
		Ready:              opts.ready,
		Location:           time.UTC,
		Now:                clock,
		RateLimitPerMinute: opts.rateLimit,
		Logger:             log.Nop(),
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, auth: authSvc, sessions: reg}
}

type envelope struct {
	Data          json.RawMessage `json:"data"`
	Notifications []Notification  `json:"notifications"`
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)

	var env envelope
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: invalid envelope %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr, env
}

func (e *testEnv) register(t *testing.T, name, email string) string {
	t.Helper()
	rr, env := e.do(t, http.MethodPost, "/api/auth/register",
		`{"name":"`+name+`","email":"`+email+`","password":"secret123"}`, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var in struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &in); err != nil || in.Token == "" {
		t.Fatalf("register: no token in %s", env.Data)
	}
	return in.Token
}

func hasNotification(env envelope, typ NotificationType, contains string) bool {
	for _, n := range env.Notifications {
		if n.Type == typ && strings.Contains(n.Message, contains) {
			return true
		}
	}
	return false
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr, _ := env.do(t, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestEnv(t, envOptions{ready: func(context.Context) error { return errors.New("db down") }})
	rr, _ := down.do(t, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when not ready, got %d", rr.Code)
	}
}

func TestResponsesCarrySecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rr, _ := env.do(t, http.MethodGet, "/healthz", "", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff header")
	}
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Fatalf("missing request id, got %q", rr.Header().Get("X-Request-ID"))
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.register(t, "Ada", "ada@example.com")

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"duplicate email", "/api/auth/register", `{"name":"Ada","email":"ADA@example.com","password":"secret123"}`, http.StatusConflict},
		{"invalid email", "/api/auth/register", `{"name":"Bob","email":"nope","password":"secret123"}`, http.StatusUnprocessableEntity},
		{"short password", "/api/auth/register", `{"name":"Bob","email":"bob@example.com","password":"123"}`, http.StatusUnprocessableEntity},
		{"malformed body", "/api/auth/register", `{"name":`, http.StatusBadRequest},
		{"wrong password", "/api/auth/login", `{"email":"ada@example.com","password":"wrong-one"}`, http.StatusUnauthorized},
		{"unknown user", "/api/auth/login", `{"email":"who@example.com","password":"secret123"}`, http.StatusUnauthorized},
		{"login", "/api/auth/login", `{"email":"ada@example.com","password":"secret123"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := env.do(t, http.MethodPost, tt.path, tt.body, "")
			if rr.Code != tt.status {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.status, rr.Body.String())
			}
			if tt.status >= 400 && !hasNotification(body, NotificationError, "") {
				t.Fatalf("expected an error notification, got %+v", body.Notifications)
			}
		})
	}
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.register(t, "Ada", "ada@example.com")

	_, wrongPw := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"wrong-one"}`, "")
	_, unknown := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"who@example.com","password":"secret123"}`, "")
	if wrongPw.Notifications[0].Message != unknown.Notifications[0].Message {
		t.Fatalf("messages differ: %q vs %q", wrongPw.Notifications[0].Message, unknown.Notifications[0].Message)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	for _, token := range []string{"", "not-a-jwt"} {
		rr, _ := env.do(t, http.MethodGet, "/api/transactions", "", token)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: status=%d", token, rr.Code)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	token := env.register(t, "Ada", "ada@example.com")

	rr, body := env.do(t, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"12,50","date":"2024-03-10","categoryId":"food","notes":" lunch "}`, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !hasNotification(body, NotificationSuccess, "added") {
		t.Fatalf("expected success notification, got %+v", body.Notifications)
	}
	var created core.Transaction
	if err := json.Unmarshal(body.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Amount.Cents != 1250 || created.Notes != "lunch" {
		t.Fatalf("unexpected transaction %+v", created)
	}
	if exp, ok := created.Entry.(core.Expense); !ok || exp.Category.Name != "Food" {
		t.Fatalf("expected expense with catalog name, got %#v", created.Entry)
	}

	_, body = env.do(t, http.MethodGet, "/api/transactions?range=month", "", token)
	var listed []core.Transaction
	if err := json.Unmarshal(body.Data, &listed); err != nil || len(listed) != 1 {
		t.Fatalf("expected one transaction this month, got %s (%v)", body.Data, err)
	}

	rr, body = env.do(t, http.MethodPatch, "/api/transactions/"+created.ID, `{"amount":20}`, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var updated core.Transaction
	_ = json.Unmarshal(body.Data, &updated)
	if updated.Amount.Cents != 2000 {
		t.Fatalf("expected 20.00 after update, got %v", updated.Amount)
	}

	rr, _ = env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: status=%d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodDelete, "/api/transactions/"+created.ID, "", token)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: status=%d", rr.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	token := env.register(t, "Ada", "ada@example.com")

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"zero amount", `{"type":"expense","amount":0,"date":"2024-03-10","categoryId":"food"}`, "amount"},
		{"unparseable amount", `{"type":"expense","amount":"abc","date":"2024-03-10","categoryId":"food"}`, "amount"},
		{"missing type", `{"amount":5,"date":"2024-03-10","categoryId":"food"}`, "type"},
		{"missing date", `{"type":"income","amount":5,"categoryId":"salary"}`, "date"},
		{"bad date", `{"type":"income","amount":5,"date":"15/03/2024","categoryId":"salary"}`, "date"},
		{"unknown category", `{"type":"expense","amount":5,"date":"2024-03-10","categoryId":"salary"}`, "categoryId"},
		{"contribution without goal", `{"type":"goals","amount":5,"date":"2024-03-10"}`, "goalId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, body := env.do(t, http.MethodPost, "/api/transactions", tt.body, token)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			if !hasNotification(body, NotificationError, tt.field) {
				t.Fatalf("expected error naming %q, got %+v", tt.field, body.Notifications)
			}
		})
	}
}

func TestContributionUpdatesGoal(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	token := env.register(t, "Ada", "ada@example.com")

	rr, body := env.do(t, http.MethodPost, "/api/goals",
		`{"name":"Bike","targetAmount":1000,"targetDate":"2024-12-31"}`, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create goal: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var goal core.Goal
	_ = json.Unmarshal(body.Data, &goal)
	if goal.Title != "Bike" || goal.CurrentAmount.Cents != 0 {
		t.Fatalf("unexpected goal %+v", goal)
	}

	rr, body = env.do(t, http.MethodPost, "/api/transactions",
		`{"type":"goal","amount":250,"date":"2024-03-14","goalId":"`+goal.ID+`"}`, token)
	if rr.Code != http.StatusCreated || len(body.Notifications) != 1 || body.Notifications[0].Type != NotificationSuccess {
		t.Fatalf("contribution: status=%d notifications=%+v", rr.Code, body.Notifications)
	}

	_, body = env.do(t, http.MethodGet, "/api/goals", "", token)
	var goals []core.Goal
	if err := json.Unmarshal(body.Data, &goals); err != nil || len(goals) != 1 {
		t.Fatalf("list goals: %s (%v)", body.Data, err)
	}
	if goals[0].CurrentAmount.Cents != 25000 {
		t.Fatalf("expected 250.00 saved, got %v", goals[0].CurrentAmount)
	}
}

type brokenGoalUpdates struct {
	*memory.Store
}

func (brokenGoalUpdates) UpdateGoal(context.Context, string, string, core.GoalPatch) (core.Goal, error) {
	return core.Goal{}, errors.New("write timeout")
}

func TestContributionPartialFailureIsAWarning(t *testing.T) {
	st := memory.New()
	env := newTestEnv(t, envOptions{ledger: brokenGoalUpdates{st}})
	token := env.register(t, "Ada", "ada@example.com")

	claims, err := env.auth.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	goal, err := st.CreateGoal(context.Background(), core.Goal{
		UserID: claims.UserID, Title: "Trip", TargetAmount: core.Money{Cents: 100000}, TargetDate: testNow,
	})
	if err != nil {
		t.Fatalf("seed goal: %v", err)
	}

	rr, body := env.do(t, http.MethodPost, "/api/transactions",
		`{"type":"goals","amount":100,"date":"2024-03-14","goalId":"`+goal.ID+`"}`, token)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !hasNotification(body, NotificationWarning, services.WarnGoalProgress) {
		t.Fatalf("expected goal progress warning, got %+v", body.Notifications)
	}

	txs, _ := st.ListTransactions(context.Background(), claims.UserID)
	if len(txs) != 1 {
		t.Fatalf("the transaction must stay saved, got %d", len(txs))
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	token := env.register(t, "Ada", "ada@example.com")

	rr, _ := env.do(t, http.MethodPost, "/api/auth/logout", "", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: status=%d", rr.Code)
	}
	if env.sessions.Len() != 0 {
		t.Fatalf("expected no sessions after logout, got %d", env.sessions.Len())
	}
	rr, _ = env.do(t, http.MethodGet, "/api/me", "", token)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token: status=%d", rr.Code)
	}
}

func TestValidTokenGetsFreshSession(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	token := env.register(t, "Ada", "ada@example.com")
	claims, _ := env.auth.ParseToken(token)

	env.sessions.End(claims.SessionID())
	rr, body := env.do(t, http.MethodGet, "/api/me", "", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(string(body.Data), "ada@example.com") {
		t.Fatalf("unexpected user %s", body.Data)
	}
	if _, ok := env.sessions.Get(claims.SessionID()); !ok {
		t.Fatal("expected the session to be registered again")
	}
}

func TestRehydrateHonorsLogoutAfterTokenCheck(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	token := env.register(t, "Ada", "ada@example.com")
	claims, err := env.auth.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}

	env.sessions.End(claims.SessionID())
	if err := env.auth.Logout(context.Background(), claims); err != nil {
		t.Fatal(err)
	}
	if _, err := env.srv.rehydrate(context.Background(), claims); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
	if env.sessions.Len() != 0 {
		t.Fatalf("revoked session was registered, %d sessions", env.sessions.Len())
	}
}

func TestRehydratedSessionCarriesTokenExpiry(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	token := env.register(t, "Ada", "ada@example.com")
	claims, _ := env.auth.ParseToken(token)

	env.sessions.End(claims.SessionID())
	if rr, _ := env.do(t, http.MethodGet, "/api/me", "", token); rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	sess, ok := env.sessions.Get(claims.SessionID())
	if !ok {
		t.Fatal("expected a rehydrated session")
	}
	if want := testNow.Add(time.Hour); !sess.ExpiresAt().Equal(want) {
		t.Fatalf("expires at %v, want %v", sess.ExpiresAt(), want)
	}
}

func TestUpdateProfileName(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	token := env.register(t, "Ada", "ada@example.com")

	rr, _ := env.do(t, http.MethodPatch, "/api/me", `{"name":"  "}`, token)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank name: status=%d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodPatch, "/api/me", `{"name":"Ada Lovelace"}`, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("rename: status=%d", rr.Code)
	}
	_, body := env.do(t, http.MethodGet, "/api/me", "", token)
	if !strings.Contains(string(body.Data), "Ada Lovelace") {
		t.Fatalf("session user not refreshed: %s", body.Data)
	}
}

func TestResetPasswordWithoutDeliveryFails(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.register(t, "Ada", "ada@example.com")

	rr, _ := env.do(t, http.MethodPost, "/api/auth/reset-password", `{"email":"nobody@example.com"}`, "")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("unknown email must look accepted, got %d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodPost, "/api/auth/reset-password", `{"email":"bad"}`, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid email: status=%d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodPost, "/api/auth/reset-password/confirm", `{"token":"junk","password":"newsecret"}`, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("junk reset token: status=%d", rr.Code)
	}
}

func TestDashboardViews(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	token := env.register(t, "Ada", "ada@example.com")

	for _, body := range []string{
		`{"type":"income","amount":1000,"date":"2024-03-01","categoryId":"salary"}`,
		`{"type":"expense","amount":300,"date":"2024-03-02","categoryId":"rent"}`,
		`{"type":"expense","amount":50,"date":"2023-12-24","categoryId":"food"}`,
	} {
		if rr, _ := env.do(t, http.MethodPost, "/api/transactions", body, token); rr.Code != http.StatusCreated {
			t.Fatalf("seed: status=%d body=%s", rr.Code, rr.Body.String())
		}
	}

	_, body := env.do(t, http.MethodGet, "/api/dashboard?range=month", "", token)
	var dash insights.Dashboard
	if err := json.Unmarshal(body.Data, &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.Overview.Income.Cents != 100000 || dash.Overview.Expenses.Cents != 30000 || dash.Overview.Balance.Cents != 70000 {
		t.Fatalf("unexpected overview %+v", dash.Overview)
	}
	if len(dash.Categories) != 1 || dash.Categories[0].Label != "Rent" {
		t.Fatalf("expected only rent this month, got %+v", dash.Categories)
	}

	rr, body := env.do(t, http.MethodGet, "/api/calendar?scope=month&anchor=2024-03-20", "", token)
	if rr.Code != http.StatusOK {
		t.Fatalf("calendar: status=%d", rr.Code)
	}
	var cal insights.CalendarSummary
	_ = json.Unmarshal(body.Data, &cal)
	if len(cal.Days) != 2 || cal.Net.Cents != 70000 {
		t.Fatalf("unexpected calendar %+v", cal)
	}

	rr, _ = env.do(t, http.MethodGet, "/api/calendar?scope=decade", "", token)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad scope: status=%d", rr.Code)
	}
	rr, _ = env.do(t, http.MethodGet, "/api/calendar?anchor=yesterday", "", token)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad anchor: status=%d", rr.Code)
	}

	_, body = env.do(t, http.MethodGet, "/api/series", "", token)
	var series []insights.SeriesPoint
	if err := json.Unmarshal(body.Data, &series); err != nil || len(series) != 3 {
		t.Fatalf("expected three series days, got %s (%v)", body.Data, err)
	}
	if series[0].Day != "2023-12-24" {
		t.Fatalf("series not sorted: %+v", series)
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	env := newTestEnv(t, envOptions{rateLimit: 1})
	body := `{"email":"ada@example.com","password":"secret123"}`

	env.do(t, http.MethodPost, "/api/auth/login", body, "")
	rr, env2 := env.do(t, http.MethodPost, "/api/auth/login", body, "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" || !hasNotification(env2, NotificationError, "Too many") {
		t.Fatalf("missing retry hint: %v %+v", rr.Header(), env2.Notifications)
	}

	rr, _ = env.do(t, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited, got %d", rr.Code)
	}
}
