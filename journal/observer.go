package journal

import (
	"context"
	"time"

	"github.com/rustyeddy/riskexec/broker"
	"github.com/rustyeddy/riskexec/risk"
	"go.uber.org/zap"
)

// Observer writes accepted orders to a Journal. Journal errors are logged;
// the order has already been placed and nothing upstream can undo it.
type Observer struct {
	journal Journal
	log     *zap.Logger
	now     func() time.Time
}

var _ broker.OrderObserver = (*Observer)(nil)

func NewObserver(j Journal, log *zap.Logger) *Observer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Observer{journal: j, log: log, now: time.Now}
}

func (o *Observer) NotifyOrderAccepted(ctx context.Context, c risk.Candidate, orderID string) {
	rec := NewOrderRecord(c, c.Account.Mode, orderID, o.now())
	if err := o.journal.RecordOrder(rec); err != nil {
		o.log.Error("journal order",
			zap.String("order_id", orderID),
			zap.String("candidate", c.ID),
			zap.Error(err),
		)
		return
	}
	o.log.Debug("journaled order", zap.String("order_id", orderID), zap.String("symbol", rec.Symbol))
}
