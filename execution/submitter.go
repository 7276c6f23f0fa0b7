package execution

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rustyeddy/riskexec/broker"
	"github.com/rustyeddy/riskexec/logging"
	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/metrics"
	"github.com/rustyeddy/riskexec/pkg/id"
	"github.com/rustyeddy/riskexec/risk"
	"go.uber.org/zap"
)

var (
	// ErrSubmissionInProgress is returned to a second Submit for a candidate
	// whose first submission has not finished.
	ErrSubmissionInProgress = errors.New("submission already in progress")

	// ErrAlreadySubmitted is returned when the venue has already accepted an
	// order for the candidate. Candidates that ended in any other state may be
	// submitted again.
	ErrAlreadySubmitted = errors.New("candidate already submitted")

	ErrModeMismatch  = errors.New("submit mode does not match the account snapshot")
	ErrNoCandidateID = errors.New("candidate has no id")
)

// Submitter sends validated candidates to a venue. Between calls it keeps the
// candidates being submitted and the order IDs of candidates the venue
// accepted.
type Submitter struct {
	endpoint broker.OrderEndpoint
	session  broker.Session
	observer broker.OrderObserver
	params   risk.RiskParameters
	log      *zap.Logger
	metrics  *metrics.Metrics
	newID    func() string

	inflight  sync.Map // candidate ID -> struct{}
	submitted sync.Map // candidate ID -> order ID
	notify   sync.WaitGroup
}

type Option func(*Submitter)

func WithObserver(o broker.OrderObserver) Option {
	return func(s *Submitter) { s.observer = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Submitter) { s.log = logging.OrNop(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Submitter) { s.metrics = m }
}

// WithRiskParameters sets the parameters the validator is re-run with.
func WithRiskParameters(p risk.RiskParameters) Option {
	return func(s *Submitter) { s.params = p }
}

// WithClientOrderIDs replaces the client order ID generator.
func WithClientOrderIDs(f func() string) Option {
	return func(s *Submitter) { s.newID = f }
}

func NewSubmitter(endpoint broker.OrderEndpoint, session broker.Session, opts ...Option) *Submitter {
	s := &Submitter{
		endpoint: endpoint,
		session:  session,
		params:   risk.DefaultRiskParameters(),
		log:      zap.NewNop(),
		newID:    id.ClientOrderID,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit runs one candidate through Validating and, if it passes, sends
// exactly one order to the endpoint for mode. No outcome is retried.
//
// The returned error is reserved for misuse: a concurrent or repeated Submit
// of a candidate, a missing candidate ID, a mode that differs from the
// candidate's account or that the endpoint does not serve. Every venue answer,
// including transport failures, is an Outcome.
//
// Once the request is on the wire it is not abandoned when ctx is cancelled;
// the venue's answer is always collected.
func (s *Submitter) Submit(ctx context.Context, c risk.Candidate, mode market.Mode) (Outcome, error) {
	if c.ID == "" {
		return Outcome{}, ErrNoCandidateID
	}
	if mode != c.Account.Mode {
		return Outcome{}, fmt.Errorf("%w: %s vs %s", ErrModeMismatch, mode, c.Account.Mode)
	}
	if mc, ok := s.endpoint.(broker.ModeChecker); ok {
		if err := mc.CheckMode(mode); err != nil {
			return Outcome{}, err
		}
	}
	if _, busy := s.inflight.LoadOrStore(c.ID, struct{}{}); busy {
		return Outcome{}, fmt.Errorf("%w: %s", ErrSubmissionInProgress, c.ID)
	}
	defer s.inflight.Delete(c.ID)
	if orderID, ok := s.submitted.Load(c.ID); ok {
		return Outcome{}, fmt.Errorf("%w: %s as order %s", ErrAlreadySubmitted, c.ID, orderID)
	}

	log := s.log.With(
		zap.String("candidate", c.ID),
		zap.String("symbol", c.Signal.Symbol),
		zap.String("mode", string(mode)),
	)

	out := s.run(ctx, log, c, mode)
	if out.State == Submitted {
		s.submitted.Store(c.ID, out.OrderID)
	}

	log.Info("submission finished",
		zap.Stringer("state", out.State),
		zap.String("order_id", out.OrderID),
		zap.Int("http_status", out.HTTPStatus),
	)
	s.metrics.ObserveSubmission(string(mode), out.State.String())
	s.transition(log, out.State, Idle)
	return out, nil
}

func (s *Submitter) run(ctx context.Context, log *zap.Logger, c risk.Candidate, mode market.Mode) Outcome {
	s.transition(log, Idle, Validating)

	v := risk.Evaluate(c, s.params)
	if !v.Accepted {
		s.transition(log, Validating, Rejected)
		log.Info("candidate rejected", zap.Strings("reasons", v.Messages()))
		return NotSubmitted(v)
	}

	// An invalid session short-circuits before any network call.
	if !s.session.SessionValid() {
		s.transition(log, Validating, SessionExpired)
		return Expired()
	}

	req := broker.NewOrderRequest(s.newID(), c, mode)
	if err := req.Validate(); err != nil {
		// Evaluate accepted it, so this is a malformed candidate.
		s.transition(log, Validating, Rejected)
		log.Error("order request invalid", zap.Error(err))
		return NotSubmitted(risk.Verdict{
			Reasons: []risk.Reason{{Code: risk.CodeInvalidInput, Msg: "invalid input: " + err.Error()}},
		})
	}

	s.transition(log, Validating, Submitting)
	done := s.metrics.SubmissionStarted()
	resp, err := s.endpoint.SubmitOrder(context.WithoutCancel(ctx), mode, req)
	done()

	switch {
	case err != nil:
		s.transition(log, Submitting, TransportFailure)
		log.Warn("order not delivered", zap.String("client_order_id", req.ClientOrderID), zap.Error(err))
		return FailedTransport(err)

	case resp.HTTPStatus == http.StatusUnauthorized:
		s.session.InvalidateSession()
		s.transition(log, Submitting, SessionExpired)
		out := Expired()
		out.HTTPStatus = resp.HTTPStatus
		out.Reason = resp.Message
		return out

	case !resp.Success:
		s.transition(log, Submitting, ServerRejected)
		return RejectedByServer(resp.HTTPStatus, resp.Message)
	}

	s.transition(log, Submitting, Submitted)
	s.notifyAccepted(ctx, log, c, resp.OrderID)
	return SubmittedOrder(resp.OrderID, req.ClientOrderID)
}

// notifyAccepted tells the observer without waiting for it.
func (s *Submitter) notifyAccepted(ctx context.Context, log *zap.Logger, c risk.Candidate, orderID string) {
	if s.observer == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	s.notify.Add(1)
	go func() {
		defer s.notify.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("order observer panicked", zap.Any("panic", r), zap.String("order_id", orderID))
			}
		}()
		s.observer.NotifyOrderAccepted(ctx, c, orderID)
	}()
}

// Wait blocks until every pending accepted-order notification has returned.
func (s *Submitter) Wait() {
	s.notify.Wait()
}

// InProgress reports whether candidateID is being submitted right now.
func (s *Submitter) InProgress(candidateID string) bool {
	_, ok := s.inflight.Load(candidateID)
	return ok
}

// OrderFor returns the venue order ID of a candidate the venue accepted.
func (s *Submitter) OrderFor(candidateID string) (string, bool) {
	v, ok := s.submitted.Load(candidateID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (s *Submitter) transition(log *zap.Logger, from, to State) {
	log.Debug("state", zap.Stringer("from", from), zap.Stringer("state", to))
}
