package notify

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iliyamo/query-system/internal/logging"
	"github.com/iliyamo/query-system/internal/model"
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "querydesk_notifications_total",
		Help: "Outbound notifications by kind and outcome",
	},
	[]string{"kind", "outcome"},
)

const (
	KindOTP      = "otp"
	KindNewQuery = "new_query"
	KindReply    = "reply"
)

// Dispatcher renders and sends the system's notifications.  Every method is
// synchronous and never reports failure to its caller.
type Dispatcher struct {
	notifier   Notifier
	log        logging.Logger
	adminEmail string
	otpTTL     time.Duration
}

// NewDispatcher wires a dispatcher over n.  adminEmail receives new-query
// alerts; otpTTL is quoted in the code email.
func NewDispatcher(n Notifier, log logging.Logger, adminEmail string, otpTTL time.Duration) *Dispatcher {
	if log == nil {
		log = logging.Discard()
	}
	return &Dispatcher{notifier: n, log: log, adminEmail: adminEmail, otpTTL: otpTTL}
}

// SendOTP emails a one-time code.
func (d *Dispatcher) SendOTP(ctx context.Context, to, code string) {
	d.deliver(ctx, KindOTP, to, OTPMessage(code, d.otpTTL))
}

// NewQuery alerts the administrator about a submitted query.
func (d *Dispatcher) NewQuery(ctx context.Context, q model.Query) {
	d.deliver(ctx, KindNewQuery, d.adminEmail, NewQueryMessage(q))
}

// Reply sends the resolution of q to its owner.
func (d *Dispatcher) Reply(ctx context.Context, to string, q model.Query) {
	d.deliver(ctx, KindReply, to, ReplyMessage(q))
}

func (d *Dispatcher) deliver(ctx context.Context, kind, to string, m Message) {
	if err := d.notifier.Send(ctx, to, m.Subject, m.Body); err != nil {
		notificationsTotal.WithLabelValues(kind, "failed").Inc()
		d.log.Error(ctx, "notification failed", "kind", kind, "to", to, "err", err)
		return
	}
	notificationsTotal.WithLabelValues(kind, "sent").Inc()
	d.log.Debug(ctx, "notification sent", "kind", kind, "to", to)
}
