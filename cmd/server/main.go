// Package main provides the unified marketplace service:
// - Bonding curve trading HTTP API (quotes, purchases, sales, fee claims)
// - Membership pass minting per creator group
// - Sponsorship campaign escrow lifecycle
// - WebSocket event stream, Prometheus metrics, health/status endpoints
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"creator-token-engine/internal/campaign"
	"creator-token-engine/internal/curve"
	"creator-token-engine/internal/domain"
	"creator-token-engine/internal/idhash"
	"creator-token-engine/internal/membership"
	"creator-token-engine/internal/observability"
	"creator-token-engine/internal/storage"
	chstore "creator-token-engine/internal/storage/clickhouse"
	"creator-token-engine/internal/storage/memory"
	"creator-token-engine/internal/storage/migrations"
	pgstore "creator-token-engine/internal/storage/postgres"
	"creator-token-engine/internal/stream"
	"creator-token-engine/internal/wallet"
)

// Server holds all components of the marketplace service.
type Server struct {
	logger *log.Logger

	// Ledgers
	walletStore storage.WalletStore
	funds       domain.FundTransferor

	// Stores
	accountStore  storage.CurveAccountStore
	campaignStore storage.CampaignStore
	requestStore  storage.SponsorRequestStore
	eventStore    storage.MarketEventStore

	// Event fan-out
	events domain.EventSink
	hub    *stream.Hub

	// Engines
	escrow *campaign.Escrow

	mu       sync.Mutex
	accounts map[string]*curveEntry
	minters  map[string]*membership.Minter

	protocolFeeDest domain.Address
	started         time.Time
}

// curveEntry pairs a curve engine with the token ledger backing it.
// Each account gets its own ledger: the curve prices against that
// token's supply alone, so ledger state must never be shared.
type curveEntry struct {
	engine *curve.Account
	tokens *wallet.TokenLedger
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	escrowFeeBps := flag.Int64("escrow-fee-bps", 250, "Campaign withdrawal fee in basis points")
	feeDestSeed := flag.String("fee-destination-seed", "protocol-fee-destination", "Seed for the protocol fee address")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())

	server, cleanup, err := newServer(ctx, *postgresDSN, *clickhouseDSN, *useMemory, *escrowFeeBps, *feeDestSeed, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize server: %v", err)
	}
	defer cleanup()

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
		server.hub.Close()
	}()

	logger.Printf("Listening on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	<-ctx.Done()
	logger.Println("Shutdown complete")
}

// newServer creates all stores, engines and the event fan-out.
func newServer(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, escrowFeeBps int64, feeDestSeed string, logger *log.Logger) (*Server, func(), error) {
	s := &Server{
		logger:          logger,
		hub:             stream.NewHub(nil, logger),
		accounts:        make(map[string]*curveEntry),
		minters:         make(map[string]*membership.Minter),
		protocolFeeDest: domain.AddressFromSeed(feeDestSeed),
		started:         time.Now(),
	}

	cleanup := func() {}

	if useMemory {
		walletStore := memory.NewWalletStore()
		eventStore := memory.NewMarketEventStore()
		s.walletStore = walletStore
		s.funds = walletStore
		s.accountStore = memory.NewCurveAccountStore()
		s.campaignStore = memory.NewCampaignStore()
		s.requestStore = memory.NewSponsorRequestStore()
		s.eventStore = eventStore
		s.events = domain.FanOutSink{eventStore, s.hub, observability.NewMetricsSink(nil)}
	} else {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}

		walletStore := pgstore.NewWalletStore(pool)
		eventStore := pgstore.NewMarketEventStore(pool)
		s.walletStore = walletStore
		s.funds = walletStore
		s.accountStore = pgstore.NewCurveAccountStore(pool)
		s.campaignStore = pgstore.NewCampaignStore(pool)
		s.requestStore = pgstore.NewSponsorRequestStore(pool)
		s.eventStore = eventStore

		sinks := domain.FanOutSink{
			domain.SinkFunc(func(ctx context.Context, ev *domain.MarketEvent) error {
				return eventStore.Insert(ctx, ev)
			}),
			s.hub,
			observability.NewMetricsSink(nil),
		}

		if clickhouseDSN != "" {
			chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
			if err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
			}
			chEvents := chstore.NewMarketEventStore(chConn)
			sinks = append(sinks, domain.SinkFunc(func(ctx context.Context, ev *domain.MarketEvent) error {
				return chEvents.Insert(ctx, ev)
			}))
			prev := cleanup
			cleanup = func() { chConn.Close(); prev() }
		}
		s.events = sinks

		prev := cleanup
		cleanup = func() { pool.Close(); prev() }
	}

	escrow, err := campaign.NewEscrow(campaign.Config{
		Funds:          s.funds,
		EscrowAddress:  domain.AddressFromSeed("campaign-escrow"),
		FeeDestination: s.protocolFeeDest,
		ProtocolFeeBps: escrowFeeBps,
		Events:         s.events,
		Logger:         logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create campaign escrow: %w", err)
	}
	s.escrow = escrow

	return s, cleanup, nil
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Curve accounts
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("POST /api/accounts/{id}/quote/purchase", s.handleQuotePurchase)
	mux.HandleFunc("POST /api/accounts/{id}/quote/sale", s.handleQuoteSale)
	mux.HandleFunc("POST /api/accounts/{id}/purchase", s.handlePurchase)
	mux.HandleFunc("POST /api/accounts/{id}/sell", s.handleSell)
	mux.HandleFunc("POST /api/accounts/{id}/claim", s.handleClaimHostFee)

	// Membership groups
	mux.HandleFunc("POST /api/groups", s.handleCreateGroup)
	mux.HandleFunc("GET /api/groups/{id}/quote", s.handleQuoteMint)
	mux.HandleFunc("POST /api/groups/{id}/mint", s.handleMintPass)

	// Campaigns
	mux.HandleFunc("POST /api/campaigns", s.handleCreateCampaign)
	mux.HandleFunc("GET /api/campaigns/{id}", s.handleGetCampaign)
	mux.HandleFunc("POST /api/campaigns/{id}/sponsor", s.handleRequestToSponsor)
	mux.HandleFunc("POST /api/campaigns/{id}/accept", s.handleAcceptSponsor)
	mux.HandleFunc("POST /api/campaigns/{id}/reject", s.handleRejectSponsor)
	mux.HandleFunc("POST /api/campaigns/{id}/withdraw-request", s.handleWithdrawSponsorFunds)
	mux.HandleFunc("POST /api/campaigns/{id}/tip", s.handleTipCampaign)
	mux.HandleFunc("POST /api/campaigns/{id}/end", s.handleEndCampaign)
	mux.HandleFunc("POST /api/campaigns/{id}/complete", s.handleCompleteCampaign)
	mux.HandleFunc("POST /api/campaigns/{id}/withdraw", s.handleWithdrawFunds)

	// Wallet (off-chain fund ledger)
	mux.HandleFunc("POST /api/wallet/deposit", s.handleDeposit)
	mux.HandleFunc("GET /api/wallet/{address}", s.handleBalance)

	// Events
	mux.HandleFunc("GET /api/events", s.handleListEvents)

	// Infrastructure
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /status", s.handleStatus)

	return mux
}

// --- Curve account handlers ---

type createAccountRequest struct {
	Owner           string `json:"owner"`
	FeeDestination  string `json:"fee_destination,omitempty"`
	ProtocolFeeBps  int64  `json:"protocol_fee_bps"`
	FeeShareBps     int64  `json:"fee_share_bps"`
	InitialReserve  string `json:"initial_reserve"`
	ReserveRatioPPM int64  `json:"reserve_ratio_ppm"`
	InitialSupply   string `json:"initial_supply"`
}

type accountResponse struct {
	AccountID      string `json:"account_id"`
	Address        string `json:"address"`
	Owner          string `json:"owner"`
	ReserveBalance string `json:"reserve_balance"`
	CollectedFees  string `json:"collected_fees"`
	TokenSupply    string `json:"token_supply"`
	CreatedAt      int64  `json:"created_at_ms"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	owner, err := domain.ParseAddress(req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	feeDest := s.protocolFeeDest
	if req.FeeDestination != "" {
		if feeDest, err = domain.ParseAddress(req.FeeDestination); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	initialReserve, err := parseBig(req.InitialReserve)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	initialSupply, err := parseBig(req.InitialSupply)
	if err != nil || initialSupply.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("initial_supply must be a positive integer"))
		return
	}

	createdAt := time.Now().UnixMilli()
	accountID := idhash.ComputeAccountID(owner, feeDest, createdAt)
	addr := domain.AddressFromSeed(accountID)

	state, err := domain.NewCurveAccount(accountID, addr, domain.CurveParams{
		Owner:           owner,
		FeeDestination:  feeDest,
		ProtocolFeeBps:  req.ProtocolFeeBps,
		FeeShareBps:     req.FeeShareBps,
		InitialReserve:  initialReserve,
		ReserveRatioPPM: req.ReserveRatioPPM,
	}, createdAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tokens := wallet.NewTokenLedger()
	account, err := curve.NewAccount(state, curve.Config{
		Tokens: tokens,
		Funds:  s.funds,
		Events: s.events,
		Logger: s.logger,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Seed the initial token supply against the initial reserve.
	if err := tokens.MintInitial(r.Context(), owner, initialSupply); err != nil {
		writeEngineError(w, err)
		return
	}
	// The custody address must hold the recorded reserve, or sale
	// payouts against it fail.
	if err := s.walletStore.Deposit(r.Context(), state.Address, initialReserve); err != nil {
		writeEngineError(w, err)
		return
	}

	if err := s.accountStore.Insert(r.Context(), state); err != nil {
		writeEngineError(w, err)
		return
	}

	entry := &curveEntry{engine: account, tokens: tokens}
	s.mu.Lock()
	s.accounts[accountID] = entry
	s.mu.Unlock()

	s.writeAccount(w, r, http.StatusCreated, entry)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"account_ids": ids})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.account(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	s.writeAccount(w, r, http.StatusOK, entry)
}

type valueRequest struct {
	Actor string `json:"actor,omitempty"`
	Value string `json:"value"`
}

type quoteResponse struct {
	TokensOut string `json:"tokens_out"`
	SaleValue string `json:"sale_value"`
	Fee       string `json:"fee"`
}

func (s *Server) handleQuotePurchase(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.account(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	value, err := decodeValue(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	quote, err := entry.engine.QuotePurchase(r.Context(), value)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteJSON(quote))
}

func (s *Server) handleQuoteSale(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.account(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	value, err := decodeValue(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	quote, err := entry.engine.QuoteSale(r.Context(), value)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteJSON(quote))
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.account(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	actor, value, err := decodeActorValue(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	quote, err := entry.engine.Purchase(r.Context(), actor, value)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.persistAccount(r.Context(), entry.engine)
	writeJSON(w, http.StatusOK, quoteJSON(quote))
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.account(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	actor, tokens, err := decodeActorValue(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	quote, err := entry.engine.Sell(r.Context(), actor, tokens)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.persistAccount(r.Context(), entry.engine)
	writeJSON(w, http.StatusOK, quoteJSON(quote))
}

func (s *Server) handleClaimHostFee(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.account(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := domain.ParseAddress(req.Actor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	claimed, err := entry.engine.ClaimHostFee(r.Context(), caller)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.persistAccount(r.Context(), entry.engine)
	writeJSON(w, http.StatusOK, map[string]string{"claimed": claimed.String()})
}

// --- Membership handlers ---

type createGroupRequest struct {
	GroupID          string `json:"group_id"`
	Treasury         string `json:"treasury"`
	FeeDestination   string `json:"fee_destination,omitempty"`
	ProtocolFeeBps   int64  `json:"protocol_fee_bps"`
	InitialCost      string `json:"initial_cost"`
	ScalingFactorBps int64  `json:"scaling_factor_bps"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.GroupID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("group_id is required"))
		return
	}
	treasury, err := domain.ParseAddress(req.Treasury)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	feeDest := s.protocolFeeDest
	if req.FeeDestination != "" {
		if feeDest, err = domain.ParseAddress(req.FeeDestination); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	initialCost, err := parseBig(req.InitialCost)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	minter, err := membership.NewMinter(membership.Params{
		GroupID:          req.GroupID,
		Treasury:         treasury,
		FeeDestination:   feeDest,
		ProtocolFeeBps:   req.ProtocolFeeBps,
		InitialCost:      initialCost,
		ScalingFactorBps: req.ScalingFactorBps,
	}, wallet.NewPassLedger(), s.funds, s.events, s.logger, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	if _, exists := s.minters[req.GroupID]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, storage.ErrDuplicateKey)
		return
	}
	s.minters[req.GroupID] = minter
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"group_id": req.GroupID})
}

func (s *Server) handleQuoteMint(w http.ResponseWriter, r *http.Request) {
	minter, ok := s.minter(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	cost, err := minter.QuoteMint(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cost": cost.String()})
}

func (s *Server) handleMintPass(w http.ResponseWriter, r *http.Request) {
	minter, ok := s.minter(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	actor, value, err := decodeActorValue(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	passID, err := minter.Mint(r.Context(), actor, value)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"pass_id": passID})
}

// --- Campaign handlers ---

type createCampaignRequest struct {
	Host      string `json:"host"`
	Deadline  int64  `json:"deadline"`
	SlotPrice string `json:"slot_price"`
	Slots     uint32 `json:"slots"`
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	host, err := domain.ParseAddress(req.Host)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	slotPrice, err := parseBig(req.SlotPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := s.escrow.CreateCampaign(r.Context(), host, req.Deadline, slotPrice, req.Slots)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.campaignStore.Insert(r.Context(), c); err != nil {
		s.logger.Printf("persist campaign %s: %v", c.CampaignID, err)
	}
	writeJSON(w, http.StatusCreated, campaignJSON(c))
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.escrow.Get(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaignJSON(c))
}

type sponsorRequest struct {
	Sponsor string `json:"sponsor"`
	Value   string `json:"value,omitempty"`
}

func (s *Server) handleRequestToSponsor(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("id")
	var req sponsorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sponsor, err := domain.ParseAddress(req.Sponsor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	value, err := parseBig(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.escrow.RequestToSponsor(r.Context(), campaignID, sponsor, value); err != nil {
		writeEngineError(w, err)
		return
	}
	if pending, err := s.escrow.PendingRequest(campaignID, sponsor); err == nil {
		if err := s.requestStore.Insert(r.Context(), pending); err != nil {
			s.logger.Printf("persist sponsor request %s/%s: %v", campaignID, sponsor, err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
}

type hostSponsorRequest struct {
	Host    string `json:"host"`
	Sponsor string `json:"sponsor"`
}

func (s *Server) handleAcceptSponsor(w http.ResponseWriter, r *http.Request) {
	s.resolveSponsorRequest(w, r, s.escrow.AcceptSponsor, "accepted")
}

func (s *Server) handleRejectSponsor(w http.ResponseWriter, r *http.Request) {
	s.resolveSponsorRequest(w, r, s.escrow.RejectSponsor, "rejected")
}

func (s *Server) resolveSponsorRequest(
	w http.ResponseWriter, r *http.Request,
	op func(context.Context, string, domain.Address, domain.Address) error,
	status string,
) {
	campaignID := r.PathValue("id")
	var req hostSponsorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	host, err := domain.ParseAddress(req.Host)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sponsor, err := domain.ParseAddress(req.Sponsor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := op(r.Context(), campaignID, host, sponsor); err != nil {
		writeEngineError(w, err)
		return
	}
	s.dropPersistedRequest(r.Context(), campaignID, sponsor)
	s.persistCampaign(r.Context(), campaignID)
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleWithdrawSponsorFunds(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("id")
	var req sponsorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sponsor, err := domain.ParseAddress(req.Sponsor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.escrow.WithdrawSponsorFunds(r.Context(), campaignID, sponsor); err != nil {
		writeEngineError(w, err)
		return
	}
	s.dropPersistedRequest(r.Context(), campaignID, sponsor)
	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (s *Server) handleTipCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("id")
	actor, value, err := decodeActorValue(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.escrow.TipCampaign(r.Context(), campaignID, actor, value); err != nil {
		writeEngineError(w, err)
		return
	}
	s.persistCampaign(r.Context(), campaignID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "tipped"})
}

type hostRequest struct {
	Host string `json:"host"`
}

func (s *Server) handleEndCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("id")
	host, err := decodeHost(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.escrow.EndCampaign(r.Context(), campaignID, host); err != nil {
		writeEngineError(w, err)
		return
	}
	s.persistCampaign(r.Context(), campaignID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func (s *Server) handleCompleteCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("id")
	host, err := decodeHost(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	total, err := s.escrow.CompleteCampaign(r.Context(), campaignID, host)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.persistCampaign(r.Context(), campaignID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed", "total_raised": total.String()})
}

func (s *Server) handleWithdrawFunds(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("id")
	host, err := decodeHost(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	payout, err := s.escrow.WithdrawFunds(r.Context(), campaignID, host)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.persistCampaign(r.Context(), campaignID)
	writeJSON(w, http.StatusOK, map[string]string{"payout": payout.String()})
}

// --- Wallet handlers ---

type depositRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseBig(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.walletStore.Deposit(r.Context(), addr, amount); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	balance, err := s.walletStore.Balance(r.Context(), addr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

// --- Event handlers ---

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	entityID := r.URL.Query().Get("entity")
	if entityID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("entity query parameter is required"))
		return
	}
	events, err := s.eventStore.ListByEntity(r.Context(), entityID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	type eventJSON struct {
		EventID   string `json:"event_id"`
		Type      string `json:"type"`
		EntityID  string `json:"entity_id"`
		Actor     string `json:"actor"`
		Amount    string `json:"amount"`
		Fee       string `json:"fee"`
		Timestamp int64  `json:"timestamp_ms"`
	}
	out := make([]eventJSON, 0, len(events))
	for _, ev := range events {
		out = append(out, eventJSON{
			EventID:   ev.EventID,
			Type:      string(ev.Type),
			EntityID:  ev.EntityID,
			Actor:     ev.Actor.String(),
			Amount:    ev.Amount.String(),
			Fee:       ev.Fee.String(),
			Timestamp: ev.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

// --- Status ---

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	CurveAccounts int    `json:"curve_accounts"`
	Groups        int    `json:"groups"`
	Subscribers   int    `json:"ws_subscribers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	accounts := len(s.accounts)
	groups := len(s.minters)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).String(),
		CurveAccounts: accounts,
		Groups:        groups,
		Subscribers:   s.hub.ClientCount(),
	})
}

// --- Helpers ---

func (s *Server) account(id string) (*curveEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.accounts[id]
	return e, ok
}

func (s *Server) minter(id string) (*membership.Minter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.minters[id]
	return m, ok
}

// persistAccount writes the current balances through to the account store.
func (s *Server) persistAccount(ctx context.Context, account *curve.Account) {
	st := account.State()
	if err := s.accountStore.UpdateBalances(ctx, st.AccountID, st.ReserveBalance, st.CollectedFees); err != nil {
		s.logger.Printf("persist account %s: %v", st.AccountID, err)
	}
}

// persistCampaign writes the current campaign state through to the store.
func (s *Server) persistCampaign(ctx context.Context, campaignID string) {
	c, err := s.escrow.Get(campaignID)
	if err != nil {
		return
	}
	if err := s.campaignStore.Update(ctx, c); err != nil {
		s.logger.Printf("persist campaign %s: %v", campaignID, err)
	}
}

func (s *Server) dropPersistedRequest(ctx context.Context, campaignID string, sponsor domain.Address) {
	if err := s.requestStore.Delete(ctx, campaignID, sponsor); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Printf("drop sponsor request %s/%s: %v", campaignID, sponsor, err)
	}
}

func (s *Server) writeAccount(w http.ResponseWriter, r *http.Request, status int, entry *curveEntry) {
	st := entry.engine.State()
	supply, err := entry.tokens.TotalSupply(r.Context())
	if err != nil {
		supply = big.NewInt(0)
	}
	writeJSON(w, status, accountResponse{
		AccountID:      st.AccountID,
		Address:        st.Address.String(),
		Owner:          st.Params.Owner.String(),
		ReserveBalance: st.ReserveBalance.String(),
		CollectedFees:  st.CollectedFees.String(),
		TokenSupply:    supply.String(),
		CreatedAt:      st.CreatedAt,
	})
}

func quoteJSON(q *curve.Quote) quoteResponse {
	return quoteResponse{
		TokensOut: q.TokensOut.String(),
		SaleValue: q.SaleValue.String(),
		Fee:       q.Fee.String(),
	}
}

func campaignJSON(c *domain.Campaign) map[string]any {
	return map[string]any{
		"campaign_id":     c.CampaignID,
		"host":            c.Host.String(),
		"deadline":        c.Deadline,
		"slots_available": c.SlotsAvailable,
		"slot_price":      c.SlotPrice.String(),
		"total_raised":    c.TotalRaised.String(),
		"created_at_ms":   c.CreatedAt,
	}
}

func decodeValue(r *http.Request) (*big.Int, error) {
	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return parseBig(req.Value)
}

func decodeActorValue(r *http.Request) (domain.Address, *big.Int, error) {
	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return domain.ZeroAddress, nil, err
	}
	actor, err := domain.ParseAddress(req.Actor)
	if err != nil {
		return domain.ZeroAddress, nil, err
	}
	value, err := parseBig(req.Value)
	if err != nil {
		return domain.ZeroAddress, nil, err
	}
	return actor, value, nil
}

func decodeHost(r *http.Request) (domain.Address, error) {
	var req hostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return domain.ZeroAddress, err
	}
	return domain.ParseAddress(req.Host)
}

func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeEngineError maps engine sentinel errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	writeError(w, engineStatus(err), err)
}

func engineStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, campaign.ErrCampaignNotFound),
		errors.Is(err, campaign.ErrNoPendingRequest):
		return http.StatusNotFound
	case errors.Is(err, curve.ErrNotAuthorized),
		errors.Is(err, campaign.ErrNotHost),
		errors.Is(err, membership.ErrNotPassOwner):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrDuplicateKey),
		errors.Is(err, campaign.ErrPendingExists),
		errors.Is(err, campaign.ErrCampaignOver),
		errors.Is(err, campaign.ErrCampaignNotOver),
		errors.Is(err, campaign.ErrCampaignTerminal),
		errors.Is(err, campaign.ErrNoSlotsAvailable),
		errors.Is(err, campaign.ErrFundingExists),
		errors.Is(err, campaign.ErrNothingToWithdraw),
		errors.Is(err, curve.ErrNothingToClaim),
		errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, storage.ErrInsufficientFunds):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, curve.ErrZeroValue),
		errors.Is(err, campaign.ErrZeroValue),
		errors.Is(err, campaign.ErrValueBelowSlotPrice),
		errors.Is(err, membership.ErrValueBelowCost):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// envOr returns the environment value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
