// Package api serves planning and submission over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rustyeddy/riskexec/execution"
	"github.com/rustyeddy/riskexec/journal"
	"github.com/rustyeddy/riskexec/logging"
	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/metrics"
	"github.com/rustyeddy/riskexec/risk"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxBody = 1 << 20

	defaultPlanTTL  = 15 * time.Minute
	defaultMaxPlans = 1024
)

// OrderLister is the read side of the order journal.
type OrderLister interface {
	ListOrders(f journal.Filter) ([]journal.OrderRecord, error)
	GetOrder(orderID string) (journal.OrderRecord, error)
}

// Defaults fill request fields the client leaves out.
type Defaults struct {
	Mode      market.Mode
	Sizing    risk.SizingMethod
	Percent   float64
	OrderKind market.OrderKind
}

// SignalHook sees every parsed signal before it is planned, together with
// the request's volatility override. The paper venue uses it to mark the
// symbol at the entry.
type SignalHook func(sig market.Signal, volatility decimal.NullDecimal) error

type Options struct {
	Defaults       Defaults
	AllowedOrigins []string
	Orders         OrderLister // optional; enables GET /api/v1/orders
	Metrics        *metrics.Metrics
	Logger         *zap.Logger

	// OnSignal is optional. Without it a request that carries a volatility
	// is refused.
	OnSignal SignalHook

	// PlanTTL and MaxPlans bound the plan store. Zero means 15 minutes and
	// 1024 plans.
	PlanTTL  time.Duration
	MaxPlans int
}

// Server handles the REST API. Plans are held in memory until they are
// submitted successfully, expire, or are evicted to make room.
type Server struct {
	planner   *execution.Planner
	submitter *execution.Submitter
	opts      Options
	log       *zap.Logger
	router    *mux.Router
	now       func() time.Time

	mu    sync.Mutex
	plans map[string]*storedPlan
}

type storedPlan struct {
	plan    execution.Plan
	created time.Time
	claimed bool // a POST /orders is submitting it
}

func NewServer(planner *execution.Planner, submitter *execution.Submitter, opts Options) *Server {
	s := &Server{
		planner:   planner,
		submitter: submitter,
		opts:      opts,
		log:       logging.OrNop(opts.Logger),
		router:    mux.NewRouter(),
		now:       time.Now,
		plans:     map[string]*storedPlan{},
	}
	if s.opts.Defaults.Mode == "" {
		s.opts.Defaults.Mode = market.Practice
	}
	if s.opts.PlanTTL <= 0 {
		s.opts.PlanTTL = defaultPlanTTL
	}
	if s.opts.MaxPlans <= 0 {
		s.opts.MaxPlans = defaultMaxPlans
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/plan", s.handlePlan).Methods("POST")
	api.HandleFunc("/plans/{id}", s.handleGetPlan).Methods("GET")
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders", s.handleListOrders).Methods("GET")
	api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods("GET")

	s.router.Handle("/metrics", s.opts.Metrics.Handler()).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("api server starting", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.submitter.Wait()
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ==============================
// Handlers
// ==============================

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var body PlanRequest
	if err := decode(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	req, err := s.planRequest(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if s.opts.OnSignal != nil {
		if err := s.opts.OnSignal(req.Signal, body.Volatility); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	} else if body.Volatility.Valid {
		respondError(w, http.StatusBadRequest, "invalid request", "volatility is not accepted by this venue")
		return
	}

	plan, err := s.planner.Plan(r.Context(), req)
	if err != nil {
		var inputErr *market.InputError
		switch {
		case errors.As(err, &inputErr), errors.Is(err, execution.ErrModeMismatch):
			respondError(w, http.StatusBadRequest, "invalid request", err.Error())
		case errors.Is(err, risk.ErrNoVolatility):
			respondError(w, http.StatusUnprocessableEntity, "no volatility estimate", err.Error())
		default:
			respondError(w, http.StatusBadGateway, "planning failed", err.Error())
		}
		return
	}

	s.storePlan(plan)

	respondJSONStatus(w, http.StatusOK, newPlanResponse(plan))
}

func (s *Server) planRequest(body PlanRequest) (execution.PlanRequest, error) {
	if len(body.Signal) == 0 {
		return execution.PlanRequest{}, errors.New("signal is required")
	}
	sig, err := market.ParseSignal(body.Signal)
	if err != nil {
		return execution.PlanRequest{}, err
	}

	d := s.opts.Defaults
	req := execution.PlanRequest{
		Signal:     sig,
		Mode:       d.Mode,
		Method:     d.Sizing,
		Kind:       d.OrderKind,
		StopLoss:   body.StopLoss,
		TakeProfit: body.TakeProfit,
	}
	if d.Percent > 0 {
		req.Percent = decimal.NewFromFloat(d.Percent)
	}

	if body.Mode != "" {
		if req.Mode, err = market.ParseMode(body.Mode); err != nil {
			return execution.PlanRequest{}, err
		}
	}
	if body.Sizing != "" {
		if req.Method, err = risk.ParseSizingMethod(body.Sizing); err != nil {
			return execution.PlanRequest{}, err
		}
	}
	if body.Percent.Valid {
		req.Percent = body.Percent.Decimal
	}
	if body.OrderType != "" {
		if req.Kind, err = market.ParseOrderKind(body.OrderType); err != nil {
			return execution.PlanRequest{}, err
		}
	}
	return req, nil
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	plan, ok := s.plan(id)
	if !ok {
		respondError(w, http.StatusNotFound, "plan not found", id)
		return
	}
	respondJSON(w, newPlanResponse(plan))
}

func (s *Server) storePlan(p execution.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictExpired(now)
	for len(s.plans) >= s.opts.MaxPlans {
		if !s.evictOldest() {
			break
		}
	}
	s.plans[p.Candidate.ID] = &storedPlan{plan: p, created: now}
}

// evictExpired drops unclaimed plans older than PlanTTL. Callers hold s.mu.
func (s *Server) evictExpired(now time.Time) {
	for id, sp := range s.plans {
		if !sp.claimed && now.Sub(sp.created) >= s.opts.PlanTTL {
			delete(s.plans, id)
		}
	}
}

// evictOldest drops the oldest unclaimed plan. Callers hold s.mu.
func (s *Server) evictOldest() bool {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, sp := range s.plans {
		if sp.claimed {
			continue
		}
		if oldestID == "" || sp.created.Before(oldest) {
			oldestID, oldest = id, sp.created
		}
	}
	if oldestID == "" {
		return false
	}
	delete(s.plans, oldestID)
	return true
}

func (s *Server) plan(id string) (execution.Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.live(id)
	if !ok {
		return execution.Plan{}, false
	}
	return sp.plan, true
}

// live returns the plan for id unless it has expired. Callers hold s.mu.
func (s *Server) live(id string) (*storedPlan, bool) {
	sp, ok := s.plans[id]
	if !ok {
		return nil, false
	}
	if !sp.claimed && s.now().Sub(sp.created) >= s.opts.PlanTTL {
		delete(s.plans, id)
		return nil, false
	}
	return sp, true
}

var (
	errPlanNotFound = errors.New("plan not found")
	errPlanClaimed  = errors.New("plan is being submitted")
)

// claim marks a plan as being submitted so no other request can send it.
func (s *Server) claim(id string) (execution.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.live(id)
	if !ok {
		return execution.Plan{}, errPlanNotFound
	}
	if sp.claimed {
		return execution.Plan{}, errPlanClaimed
	}
	sp.claimed = true
	return sp.plan, nil
}

// release ends a claim. A submitted plan is consumed; any other outcome
// leaves it available for a retry with a fresh TTL.
func (s *Server) release(id string, consumed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.plans[id]
	if !ok {
		return
	}
	if consumed {
		delete(s.plans, id)
		return
	}
	sp.claimed = false
	sp.created = s.now()
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequest
	if err := decode(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if body.CandidateID == "" {
		respondError(w, http.StatusBadRequest, "candidateId is required", "")
		return
	}

	var mode market.Mode
	if body.Mode != "" {
		m, err := market.ParseMode(body.Mode)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid mode", err.Error())
			return
		}
		mode = m
	}

	plan, err := s.claim(body.CandidateID)
	switch {
	case errors.Is(err, errPlanNotFound):
		respondError(w, http.StatusNotFound, "plan not found", body.CandidateID)
		return
	case errors.Is(err, errPlanClaimed):
		respondError(w, http.StatusConflict, "submission in progress", body.CandidateID)
		return
	}
	if mode == "" {
		mode = plan.Candidate.Account.Mode
	}

	out, err := s.submitter.Submit(r.Context(), plan.Candidate, mode)
	consumed := (err == nil && out.State == execution.Submitted) || errors.Is(err, execution.ErrAlreadySubmitted)
	s.release(body.CandidateID, consumed)
	switch {
	case errors.Is(err, execution.ErrSubmissionInProgress):
		respondError(w, http.StatusConflict, "submission in progress", err.Error())
		return
	case errors.Is(err, execution.ErrAlreadySubmitted):
		respondError(w, http.StatusConflict, "already submitted", err.Error())
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, "cannot submit", err.Error())
		return
	}

	respondJSONStatus(w, outcomeStatus(out.State), newSubmitResponse(body.CandidateID, out))
}

func outcomeStatus(st execution.State) int {
	switch st {
	case execution.Submitted:
		return http.StatusCreated
	case execution.Rejected:
		return http.StatusUnprocessableEntity
	case execution.SessionExpired:
		return http.StatusUnauthorized
	case execution.ServerRejected:
		return http.StatusBadGateway
	case execution.TransportFailure:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	if s.opts.Orders == nil {
		respondError(w, http.StatusNotImplemented, "order journal not queryable", "")
		return
	}

	q := r.URL.Query()
	f := journal.Filter{Symbol: q.Get("symbol")}
	if m := q.Get("mode"); m != "" {
		mode, err := market.ParseMode(m)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid mode", err.Error())
			return
		}
		f.Mode = mode
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", l)
			return
		}
		f.Limit = n
	}
	for key, dst := range map[string]*time.Time{"since": &f.Since, "until": &f.Until} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid "+key, err.Error())
			return
		}
		*dst = t
	}

	recs, err := s.opts.Orders.ListOrders(f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list orders", err.Error())
		return
	}
	out := make([]OrderInfo, 0, len(recs))
	for _, rec := range recs {
		out = append(out, newOrderInfo(rec))
	}
	respondJSON(w, out)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	if s.opts.Orders == nil {
		respondError(w, http.StatusNotImplemented, "order journal not queryable", "")
		return
	}
	id := mux.Vars(r)["id"]
	rec, err := s.opts.Orders.GetOrder(id)
	if errors.Is(err, journal.ErrNotFound) {
		respondError(w, http.StatusNotFound, "order not found", id)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "get order", err.Error())
		return
	}
	respondJSON(w, newOrderInfo(rec))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helpers
// ==============================

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, data any) {
	respondJSONStatus(w, http.StatusOK, data)
}

func respondJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	respondJSONStatus(w, status, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
