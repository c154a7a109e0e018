package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-market-platform-poc/internal/market-service/dto"
	"github.com/radieske/prediction-market-platform-poc/internal/market-service/engine"
	"github.com/radieske/prediction-market-platform-poc/internal/market-service/repo"
	"github.com/radieske/prediction-market-platform-poc/internal/registry"
	"github.com/radieske/prediction-market-platform-poc/pkg/contracts/events"
)

// Repo define as operações do substrato transacional usadas pelos handlers
type Repo interface {
	GetOrCreateAccount(ctx context.Context, userID string) (int64, error)
	Deposit(ctx context.Context, userID string, amount int64, externalRef string) (int64, error)
	CreateMarket(ctx context.Context, m *engine.Market) error
	GetMarket(ctx context.Context, marketID string) (*engine.Market, error)
	Join(ctx context.Context, marketID, userID string, prediction engine.Outcome, now time.Time) (*engine.Market, *engine.Participant, error)
	Resolve(ctx context.Context, marketID, resolver string, outcome engine.Outcome, policy engine.ResolvePolicy, now time.Time) (*engine.Market, engine.FeeBreakdown, error)
	Withdraw(ctx context.Context, marketID, userID string) (*engine.Market, int64, error)
}

// Registry emite identificadores únicos de mercado e aplica o teto global de taxas
type Registry interface {
	CreateMarketRecord(ctx context.Context, creator, matchID string, fs engine.FeeSchedule, entryFee int64, kickoff, end time.Time, public bool) (registry.Record, error)
}

// Publisher publica os eventos de ciclo de vida no Kafka
type Publisher interface {
	PublishMarketCreated(ctx context.Context, e events.MarketCreated) error
	PublishPredictionMade(ctx context.Context, e events.PredictionMade) error
	PublishMarketResolved(ctx context.Context, e events.MarketResolved) error
	PublishFeesDistributed(ctx context.Context, e events.FeesDistributed) error
	PublishRewardClaimed(ctx context.Context, e events.RewardClaimed) error
}

// Snapshots é o cache de leitura de mercados (Redis); best effort
type Snapshots interface {
	Get(ctx context.Context, marketID string) (*dto.MarketResponse, error)
	Set(ctx context.Context, snap dto.MarketResponse) error
}

// Server expõe a API HTTP do motor de mercados
type Server struct {
	log    *zap.Logger
	repo   Repo
	reg    Registry
	publ   Publisher
	snap   Snapshots
	policy engine.ResolvePolicy
	now    func() time.Time
}

// NewServer instancia o servidor; a política de resolução vem da configuração
func NewServer(log *zap.Logger, r Repo, reg Registry, publ Publisher, snap Snapshots, policy engine.ResolvePolicy) *Server {
	return &Server{log: log, repo: r, reg: reg, publ: publ, snap: snap, policy: policy, now: time.Now}
}

// Router retorna o mux HTTP com as rotas da API
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/markets", s.createMarket)      // POST
	mux.HandleFunc("/markets/", s.marketSubroutes)  // GET /{id}; POST /{id}/join|resolve|withdraw
	mux.HandleFunc("/accounts", s.getAccount)       // GET ?userId=...
	mux.HandleFunc("/accounts/deposit", s.deposit)  // POST
	return mux
}

func (s *Server) createMarket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.CreatorID == "" {
		http.Error(w, "creatorId required", http.StatusBadRequest)
		return
	}

	now := s.now()
	kickoff := time.Unix(req.KickoffUnix, 0).UTC()
	end := time.Unix(req.EndUnix, 0).UTC()
	fees := engine.FeeSchedule{CreatorBps: req.CreatorFeeBps, PlatformBps: req.PlatformFeeBps}

	if err := engine.ValidateNewMarket(req.MatchID, req.EntryFeeCents, kickoff, end, fees, now); err != nil {
		s.fail(w, "validate market", err)
		return
	}

	rec, err := s.reg.CreateMarketRecord(r.Context(), req.CreatorID, req.MatchID, fees, req.EntryFeeCents, kickoff, end, req.Public)
	if err != nil {
		s.fail(w, "registry create", err)
		return
	}

	m, err := engine.NewMarket(rec.MarketID, rec.RegistryID, req.CreatorID, req.MatchID,
		req.EntryFeeCents, kickoff, end, req.Public, fees, now)
	if err != nil {
		s.fail(w, "new market", err)
		return
	}
	if err := s.repo.CreateMarket(r.Context(), m); err != nil {
		s.fail(w, "persist market", err)
		return
	}

	s.publish(r.Context(), "market_created", func(ctx context.Context) error {
		return s.publ.PublishMarketCreated(ctx, events.MarketCreated{
			MarketID:       m.ID,
			Creator:        m.Creator,
			MatchID:        m.MatchID,
			EntryFeeCents:  m.EntryFeeCents,
			KickoffUnix:    m.Kickoff.Unix(),
			EndUnix:        m.End.Unix(),
			Public:         m.Public,
			CreatorFeeBps:  m.Fees.CreatorBps,
			PlatformFeeBps: m.Fees.PlatformBps,
		})
	})
	s.cacheSnapshot(r.Context(), m)

	writeJSON(w, marketResponse(m))
}

// marketSubroutes despacha /markets/{id} e /markets/{id}/{action}
func (s *Server) marketSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/markets/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "marketId required", http.StatusBadRequest)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.getMarket(w, r, id)
	case action == "join" && r.Method == http.MethodPost:
		s.join(w, r, id)
	case action == "resolve" && r.Method == http.MethodPost:
		s.resolve(w, r, id)
	case action == "withdraw" && r.Method == http.MethodPost:
		s.withdraw(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) getMarket(w http.ResponseWriter, r *http.Request, id string) {
	if snap, err := s.snap.Get(r.Context(), id); err == nil && snap != nil {
		writeJSON(w, *snap)
		return
	}
	m, err := s.repo.GetMarket(r.Context(), id)
	if err != nil {
		s.fail(w, "get market", err)
		return
	}
	s.cacheSnapshot(r.Context(), m)
	writeJSON(w, marketResponse(m))
}

func (s *Server) join(w http.ResponseWriter, r *http.Request, id string) {
	var req dto.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	pred, err := engine.ParseOutcome(req.Prediction)
	if err != nil {
		s.fail(w, "parse prediction", err)
		return
	}

	m, part, err := s.repo.Join(r.Context(), id, req.UserID, pred, s.now())
	if err != nil {
		s.fail(w, "join", err)
		return
	}

	s.publish(r.Context(), "prediction_made", func(ctx context.Context) error {
		return s.publ.PublishPredictionMade(ctx, events.PredictionMade{
			MarketID:         m.ID,
			UserID:           part.UserID,
			Prediction:       part.Prediction.String(),
			StakeCents:       m.EntryFeeCents,
			PoolCents:        m.TotalPoolCents,
			ParticipantCount: m.ParticipantCount,
		})
	})
	s.cacheSnapshot(r.Context(), m)

	writeJSON(w, dto.JoinResponse{
		MarketID:         m.ID,
		UserID:           part.UserID,
		Prediction:       part.Prediction.String(),
		PoolCents:        m.TotalPoolCents,
		ParticipantCount: m.ParticipantCount,
	})
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request, id string) {
	var req dto.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.ResolverID == "" {
		http.Error(w, "resolverId required", http.StatusBadRequest)
		return
	}
	outcome, err := engine.ParseOutcome(req.Outcome)
	if err != nil {
		s.fail(w, "parse outcome", err)
		return
	}

	m, fees, err := s.repo.Resolve(r.Context(), id, req.ResolverID, outcome, s.policy, s.now())
	if err != nil {
		s.fail(w, "resolve", err)
		return
	}
	winners := m.WinnerCount(m.Outcome)

	s.publish(r.Context(), "market_resolved", func(ctx context.Context) error {
		return s.publ.PublishMarketResolved(ctx, events.MarketResolved{
			MarketID:       m.ID,
			Resolver:       req.ResolverID,
			Outcome:        m.Outcome.String(),
			WinnerCount:    winners,
			TotalPoolCents: m.TotalPoolCents,
		})
	})
	if fees.TotalCents > 0 {
		s.publish(r.Context(), "fees_distributed", func(ctx context.Context) error {
			return s.publ.PublishFeesDistributed(ctx, events.FeesDistributed{
				MarketID:         m.ID,
				Creator:          m.Creator,
				CreatorFeeCents:  fees.CreatorCents,
				PlatformFeeCents: fees.PlatformCents,
			})
		})
	}
	s.cacheSnapshot(r.Context(), m)

	writeJSON(w, dto.ResolveResponse{
		MarketID:         m.ID,
		Outcome:          m.Outcome.String(),
		WinnerCount:      winners,
		CreatorFeeCents:  fees.CreatorCents,
		PlatformFeeCents: fees.PlatformCents,
		PrizePoolCents:   fees.PrizeCents,
	})
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request, id string) {
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	m, reward, err := s.repo.Withdraw(r.Context(), id, req.UserID)
	if err != nil {
		s.fail(w, "withdraw", err)
		return
	}

	s.publish(r.Context(), "reward_claimed", func(ctx context.Context) error {
		return s.publ.PublishRewardClaimed(ctx, events.RewardClaimed{
			MarketID:    m.ID,
			UserID:      req.UserID,
			AmountCents: reward,
		})
	})
	s.cacheSnapshot(r.Context(), m)

	writeJSON(w, dto.WithdrawResponse{
		MarketID:    m.ID,
		UserID:      req.UserID,
		RewardCents: reward,
		Status:      "PAID",
	})
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	balance, err := s.repo.GetOrCreateAccount(r.Context(), userID)
	if err != nil {
		s.fail(w, "get account", err)
		return
	}
	writeJSON(w, dto.AccountResponse{UserID: userID, BalanceCents: balance})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	balance, err := s.repo.Deposit(r.Context(), req.UserID, req.AmountCents, req.ExternalRef)
	if err != nil {
		s.fail(w, "deposit", err)
		return
	}
	writeJSON(w, dto.AccountResponse{UserID: req.UserID, BalanceCents: balance})
}

// publish envia um evento já com a operação comprometida; falha vira warning,
// nunca desfaz a transação
func (s *Server) publish(ctx context.Context, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		s.log.Warn("event publish failed", zap.String("event", name), zap.Error(err))
	}
}

func (s *Server) cacheSnapshot(ctx context.Context, m *engine.Market) {
	if err := s.snap.Set(ctx, marketResponse(m)); err != nil {
		s.log.Warn("snapshot cache set failed", zap.String("marketId", m.ID), zap.Error(err))
	}
}

func marketResponse(m *engine.Market) dto.MarketResponse {
	resp := dto.MarketResponse{
		MarketID:         m.ID,
		Creator:          m.Creator,
		MatchID:          m.MatchID,
		EntryFeeCents:    m.EntryFeeCents,
		KickoffUnix:      m.Kickoff.Unix(),
		EndUnix:          m.End.Unix(),
		Public:           m.Public,
		Status:           m.Status.String(),
		TotalPoolCents:   m.TotalPoolCents,
		ParticipantCount: m.ParticipantCount,
		HomeCount:        m.HomeCount,
		DrawCount:        m.DrawCount,
		AwayCount:        m.AwayCount,
		CreatorFeeBps:    m.Fees.CreatorBps,
		PlatformFeeBps:   m.Fees.PlatformBps,
	}
	if m.Outcome.Valid() {
		resp.Outcome = m.Outcome.String()
	}
	return resp
}

// fail converte erros do motor/substrato em códigos HTTP
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(op, zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrEmptyMatchID),
		errors.Is(err, engine.ErrMatchIDTooLong),
		errors.Is(err, engine.ErrZeroEntryFee),
		errors.Is(err, engine.ErrKickoffNotFuture),
		errors.Is(err, engine.ErrEndBeforeKickoff),
		errors.Is(err, engine.ErrFeeScheduleTooHigh),
		errors.Is(err, engine.ErrInvalidPrediction),
		errors.Is(err, registry.ErrFeeAboveCeiling):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrUnauthorizedResolver):
		return http.StatusForbidden
	case errors.Is(err, repo.ErrMarketNotFound),
		errors.Is(err, repo.ErrAccountNotFound),
		errors.Is(err, repo.ErrNotParticipant):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrMarketNotOpen),
		errors.Is(err, engine.ErrMarketStarted),
		errors.Is(err, engine.ErrAlreadyResolved),
		errors.Is(err, engine.ErrMarketNotEnded),
		errors.Is(err, engine.ErrMarketNotResolved),
		errors.Is(err, engine.ErrAlreadyWithdrawn),
		errors.Is(err, engine.ErrNotAWinner),
		errors.Is(err, engine.ErrNoWinners),
		errors.Is(err, repo.ErrAlreadyJoined),
		errors.Is(err, repo.ErrInsufficientFunds),
		errors.Is(err, registry.ErrDuplicateMatchID):
		return http.StatusConflict
	default:
		// inclui ErrOverflow e ErrInsufficientEscrow: falhas de integridade
		return http.StatusInternalServerError
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
