package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-market-platform-poc/internal/market-service/dto"
	"github.com/radieske/prediction-market-platform-poc/internal/market-service/engine"
	"github.com/radieske/prediction-market-platform-poc/internal/market-service/repo"
	"github.com/radieske/prediction-market-platform-poc/internal/registry"
	"github.com/radieske/prediction-market-platform-poc/pkg/contracts/events"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubRepo struct {
	join     func(marketID, userID string, pred engine.Outcome) (*engine.Market, *engine.Participant, error)
	resolve  func(marketID, resolver string, outcome engine.Outcome) (*engine.Market, engine.FeeBreakdown, error)
	withdraw func(marketID, userID string) (*engine.Market, int64, error)
	market   *engine.Market
	created  *engine.Market
	balance  int64
}

func (s *stubRepo) GetOrCreateAccount(_ context.Context, _ string) (int64, error) {
	return s.balance, nil
}

func (s *stubRepo) Deposit(_ context.Context, _ string, amount int64, _ string) (int64, error) {
	s.balance += amount
	return s.balance, nil
}

func (s *stubRepo) CreateMarket(_ context.Context, m *engine.Market) error {
	s.created = m
	return nil
}

func (s *stubRepo) GetMarket(_ context.Context, marketID string) (*engine.Market, error) {
	if s.market == nil || s.market.ID != marketID {
		return nil, repo.ErrMarketNotFound
	}
	return s.market, nil
}

func (s *stubRepo) Join(_ context.Context, marketID, userID string, pred engine.Outcome, _ time.Time) (*engine.Market, *engine.Participant, error) {
	return s.join(marketID, userID, pred)
}

func (s *stubRepo) Resolve(_ context.Context, marketID, resolver string, outcome engine.Outcome, _ engine.ResolvePolicy, _ time.Time) (*engine.Market, engine.FeeBreakdown, error) {
	return s.resolve(marketID, resolver, outcome)
}

func (s *stubRepo) Withdraw(_ context.Context, marketID, userID string) (*engine.Market, int64, error) {
	return s.withdraw(marketID, userID)
}

type stubRegistry struct {
	err error
}

func (s *stubRegistry) CreateMarketRecord(_ context.Context, _, _ string, _ engine.FeeSchedule, _ int64, _, _ time.Time, _ bool) (registry.Record, error) {
	if s.err != nil {
		return registry.Record{}, s.err
	}
	return registry.Record{MarketID: "mkt-1", RegistryID: "reg-1"}, nil
}

type stubPublisher struct {
	published []string
}

func (s *stubPublisher) PublishMarketCreated(_ context.Context, _ events.MarketCreated) error {
	s.published = append(s.published, "market_created")
	return nil
}

func (s *stubPublisher) PublishPredictionMade(_ context.Context, _ events.PredictionMade) error {
	s.published = append(s.published, "prediction_made")
	return nil
}

func (s *stubPublisher) PublishMarketResolved(_ context.Context, _ events.MarketResolved) error {
	s.published = append(s.published, "market_resolved")
	return nil
}

func (s *stubPublisher) PublishFeesDistributed(_ context.Context, _ events.FeesDistributed) error {
	s.published = append(s.published, "fees_distributed")
	return nil
}

func (s *stubPublisher) PublishRewardClaimed(_ context.Context, _ events.RewardClaimed) error {
	s.published = append(s.published, "reward_claimed")
	return nil
}

type stubSnapshots struct {
	store map[string]dto.MarketResponse
}

func (s *stubSnapshots) Get(_ context.Context, marketID string) (*dto.MarketResponse, error) {
	if snap, ok := s.store[marketID]; ok {
		return &snap, nil
	}
	return nil, nil
}

func (s *stubSnapshots) Set(_ context.Context, snap dto.MarketResponse) error {
	if s.store == nil {
		s.store = map[string]dto.MarketResponse{}
	}
	s.store[snap.MarketID] = snap
	return nil
}

func newTestServer(t *testing.T, r *stubRepo) (*Server, *stubPublisher, *stubSnapshots) {
	t.Helper()
	publ := &stubPublisher{}
	snap := &stubSnapshots{}
	s := NewServer(zap.NewNop(), r, &stubRegistry{}, publ, snap, engine.CreatorOnly{})
	s.now = func() time.Time { return testNow }
	return s, publ, snap
}

func openMarket(t *testing.T) *engine.Market {
	t.Helper()
	m, err := engine.NewMarket("mkt-1", "reg-1", "alice", "EPL-2026-042", 100,
		testNow.Add(time.Hour), testNow.Add(3*time.Hour), true,
		engine.FeeSchedule{CreatorBps: 100, PlatformBps: 100}, testNow)
	if err != nil {
		t.Fatalf("NewMarket: %v", err)
	}
	return m
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateMarket(t *testing.T) {
	r := &stubRepo{}
	s, publ, _ := newTestServer(t, r)

	rec := do(t, s.Router(), http.MethodPost, "/markets", dto.CreateMarketRequest{
		CreatorID:      "alice",
		MatchID:        "EPL-2026-042",
		EntryFeeCents:  100,
		KickoffUnix:    testNow.Add(time.Hour).Unix(),
		EndUnix:        testNow.Add(3 * time.Hour).Unix(),
		Public:         true,
		CreatorFeeBps:  100,
		PlatformFeeBps: 100,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp dto.MarketResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MarketID != "mkt-1" || resp.Status != "OPEN" || resp.TotalPoolCents != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if r.created == nil || r.created.ID != "mkt-1" {
		t.Error("market not persisted")
	}
	if len(publ.published) != 1 || publ.published[0] != "market_created" {
		t.Errorf("published = %v", publ.published)
	}
}

func TestCreateMarketValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dto.CreateMarketRequest)
	}{
		{"empty match id", func(r *dto.CreateMarketRequest) { r.MatchID = "" }},
		{"zero entry fee", func(r *dto.CreateMarketRequest) { r.EntryFeeCents = 0 }},
		{"kickoff in the past", func(r *dto.CreateMarketRequest) { r.KickoffUnix = testNow.Add(-time.Hour).Unix() }},
		{"end before kickoff", func(r *dto.CreateMarketRequest) { r.EndUnix = testNow.Add(30 * time.Minute).Unix() }},
		{"fees above 100%", func(r *dto.CreateMarketRequest) { r.CreatorFeeBps = 9000; r.PlatformFeeBps = 2000 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _, _ := newTestServer(t, &stubRepo{})
			req := dto.CreateMarketRequest{
				CreatorID:     "alice",
				MatchID:       "EPL-2026-042",
				EntryFeeCents: 100,
				KickoffUnix:   testNow.Add(time.Hour).Unix(),
				EndUnix:       testNow.Add(3 * time.Hour).Unix(),
			}
			tc.mutate(&req)
			rec := do(t, s.Router(), http.MethodPost, "/markets", req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateMarketDuplicateMatch(t *testing.T) {
	publ := &stubPublisher{}
	s := NewServer(zap.NewNop(), &stubRepo{}, &stubRegistry{err: registry.ErrDuplicateMatchID}, publ, &stubSnapshots{}, engine.CreatorOnly{})
	s.now = func() time.Time { return testNow }

	rec := do(t, s.Router(), http.MethodPost, "/markets", dto.CreateMarketRequest{
		CreatorID:     "alice",
		MatchID:       "EPL-2026-042",
		EntryFeeCents: 100,
		KickoffUnix:   testNow.Add(time.Hour).Unix(),
		EndUnix:       testNow.Add(3 * time.Hour).Unix(),
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if len(publ.published) != 0 {
		t.Errorf("no event expected, got %v", publ.published)
	}
}

func TestGetMarketCachesSnapshot(t *testing.T) {
	m := openMarket(t)
	r := &stubRepo{market: m}
	s, _, snap := newTestServer(t, r)

	rec := do(t, s.Router(), http.MethodGet, "/markets/mkt-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := snap.store["mkt-1"]; !ok {
		t.Error("snapshot not cached after read")
	}

	// segunda leitura vem do cache mesmo sem o repo
	r.market = nil
	rec = do(t, s.Router(), http.MethodGet, "/markets/mkt-1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("cached read status = %d", rec.Code)
	}
}

func TestGetMarketNotFound(t *testing.T) {
	s, _, _ := newTestServer(t, &stubRepo{})
	rec := do(t, s.Router(), http.MethodGet, "/markets/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestJoin(t *testing.T) {
	m := openMarket(t)
	r := &stubRepo{
		join: func(marketID, userID string, pred engine.Outcome) (*engine.Market, *engine.Participant, error) {
			p, err := m.Join(userID, pred, testNow)
			return m, p, err
		},
	}
	s, publ, _ := newTestServer(t, r)

	rec := do(t, s.Router(), http.MethodPost, "/markets/mkt-1/join", dto.JoinRequest{UserID: "bob", Prediction: "home"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp dto.JoinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Prediction != "HOME" || resp.PoolCents != 100 || resp.ParticipantCount != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(publ.published) != 1 || publ.published[0] != "prediction_made" {
		t.Errorf("published = %v", publ.published)
	}
}

func TestJoinErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"market started", engine.ErrMarketStarted, http.StatusConflict},
		{"already joined", repo.ErrAlreadyJoined, http.StatusConflict},
		{"insufficient funds", repo.ErrInsufficientFunds, http.StatusConflict},
		{"market not found", repo.ErrMarketNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &stubRepo{
				join: func(_, _ string, _ engine.Outcome) (*engine.Market, *engine.Participant, error) {
					return nil, nil, tc.err
				},
			}
			s, publ, _ := newTestServer(t, r)
			rec := do(t, s.Router(), http.MethodPost, "/markets/mkt-1/join", dto.JoinRequest{UserID: "bob", Prediction: "away"})
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if len(publ.published) != 0 {
				t.Errorf("no event expected, got %v", publ.published)
			}
		})
	}
}

func TestJoinInvalidPrediction(t *testing.T) {
	s, _, _ := newTestServer(t, &stubRepo{})
	rec := do(t, s.Router(), http.MethodPost, "/markets/mkt-1/join", dto.JoinRequest{UserID: "bob", Prediction: "tie"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestResolve(t *testing.T) {
	m := openMarket(t)
	for _, u := range []string{"bob", "carol", "dave"} {
		pred := engine.OutcomeHome
		if u == "dave" {
			pred = engine.OutcomeDraw
		}
		if _, err := m.Join(u, pred, testNow); err != nil {
			t.Fatalf("join %s: %v", u, err)
		}
	}
	r := &stubRepo{
		resolve: func(_, resolver string, outcome engine.Outcome) (*engine.Market, engine.FeeBreakdown, error) {
			fees, err := m.Resolve(resolver, false, engine.CreatorOnly{}, outcome, testNow.Add(4*time.Hour))
			return m, fees, err
		},
	}
	s, publ, _ := newTestServer(t, r)

	rec := do(t, s.Router(), http.MethodPost, "/markets/mkt-1/resolve", dto.ResolveRequest{ResolverID: "alice", Outcome: "home"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp dto.ResolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Outcome != "HOME" || resp.WinnerCount != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.CreatorFeeCents != 3 || resp.PlatformFeeCents != 3 || resp.PrizePoolCents != 294 {
		t.Errorf("fee breakdown: %+v", resp)
	}
	if len(publ.published) != 2 || publ.published[0] != "market_resolved" || publ.published[1] != "fees_distributed" {
		t.Errorf("published = %v", publ.published)
	}
}

func TestResolveUnauthorized(t *testing.T) {
	r := &stubRepo{
		resolve: func(_, _ string, _ engine.Outcome) (*engine.Market, engine.FeeBreakdown, error) {
			return nil, engine.FeeBreakdown{}, engine.ErrUnauthorizedResolver
		},
	}
	s, _, _ := newTestServer(t, r)
	rec := do(t, s.Router(), http.MethodPost, "/markets/mkt-1/resolve", dto.ResolveRequest{ResolverID: "mallory", Outcome: "home"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestWithdraw(t *testing.T) {
	m := openMarket(t)
	r := &stubRepo{
		withdraw: func(_, userID string) (*engine.Market, int64, error) {
			if userID != "bob" {
				return nil, 0, engine.ErrNotAWinner
			}
			return m, 147, nil
		},
	}
	s, publ, _ := newTestServer(t, r)

	rec := do(t, s.Router(), http.MethodPost, "/markets/mkt-1/withdraw", dto.WithdrawRequest{UserID: "bob"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp dto.WithdrawResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RewardCents != 147 || resp.Status != "PAID" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(publ.published) != 1 || publ.published[0] != "reward_claimed" {
		t.Errorf("published = %v", publ.published)
	}

	rec = do(t, s.Router(), http.MethodPost, "/markets/mkt-1/withdraw", dto.WithdrawRequest{UserID: "dave"})
	if rec.Code != http.StatusConflict {
		t.Errorf("loser withdraw status = %d, want 409", rec.Code)
	}
}

func TestWithdrawAlreadyPaid(t *testing.T) {
	r := &stubRepo{
		withdraw: func(_, _ string) (*engine.Market, int64, error) {
			return nil, 0, engine.ErrAlreadyWithdrawn
		},
	}
	s, _, _ := newTestServer(t, r)
	rec := do(t, s.Router(), http.MethodPost, "/markets/mkt-1/withdraw", dto.WithdrawRequest{UserID: "bob"})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestAccounts(t *testing.T) {
	s, _, _ := newTestServer(t, &stubRepo{})

	rec := do(t, s.Router(), http.MethodPost, "/accounts/deposit", dto.DepositRequest{UserID: "bob", AmountCents: 500})
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit status = %d", rec.Code)
	}

	rec = do(t, s.Router(), http.MethodGet, "/accounts?userId=bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account status = %d", rec.Code)
	}
	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.BalanceCents != 500 {
		t.Errorf("balance = %d, want 500", resp.BalanceCents)
	}

	rec = do(t, s.Router(), http.MethodPost, "/accounts/deposit", dto.DepositRequest{UserID: "bob", AmountCents: -1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative deposit status = %d, want 400", rec.Code)
	}
}
