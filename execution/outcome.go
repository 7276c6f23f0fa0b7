package execution

import (
	"fmt"

	"github.com/rustyeddy/riskexec/risk"
)

// Outcome is the result of one Submit call. State says which of the fields
// are meaningful.
type Outcome struct {
	State State

	// Submitted
	OrderID       string
	ClientOrderID string

	// ServerRejected: the venue's reason, verbatim.
	HTTPStatus int
	Reason     string

	// TransportFailure
	Err error

	// Rejected: the validator said no and nothing was sent.
	Verdict risk.Verdict
}

func NotSubmitted(v risk.Verdict) Outcome {
	return Outcome{State: Rejected, Verdict: v}
}

func SubmittedOrder(orderID, clientOrderID string) Outcome {
	return Outcome{State: Submitted, OrderID: orderID, ClientOrderID: clientOrderID}
}

func RejectedByServer(status int, reason string) Outcome {
	return Outcome{State: ServerRejected, HTTPStatus: status, Reason: reason}
}

func Expired() Outcome {
	return Outcome{State: SessionExpired}
}

func FailedTransport(err error) Outcome {
	return Outcome{State: TransportFailure, Err: err}
}

// Sent reports whether a request reached the venue and was answered.
func (o Outcome) Sent() bool {
	return o.State == Submitted || o.State == ServerRejected || (o.State == SessionExpired && o.HTTPStatus != 0)
}

func (o Outcome) String() string {
	switch o.State {
	case Submitted:
		return "submitted: " + o.OrderID
	case ServerRejected:
		return fmt.Sprintf("rejected by server (%d): %s", o.HTTPStatus, o.Reason)
	case SessionExpired:
		return "session expired: sign in again"
	case TransportFailure:
		return fmt.Sprintf("transport failure: %v", o.Err)
	case Rejected:
		return "not submitted: " + o.Verdict.String()
	default:
		return o.State.String()
	}
}
