package routing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/resqnow/evac-routing-service/internal/observability"
)

// broadcastSubject is used by channels that support a subject line, such as
// email subscribers of the broadcast topic.
const broadcastSubject = "ResQnow Flood Alert Warning"

// adviceByLang holds fixed safety-advice text per language code. Lookup, not
// translation; unknown codes get English.
var adviceByLang = map[string]string{
	"en": "Move to higher ground. Avoid flooded roads. Bring ID, meds, water.",
	"ms": "Naik ke kawasan tinggi. Elak jalan banjir. Bawa IC, ubat, air.",
}

// Advice returns the safety advice for a language code.
func Advice(lang string) string {
	if a, ok := adviceByLang[lang]; ok {
		return a
	}
	return adviceByLang["en"]
}

// BuildMessage composes the single human-readable notification combining
// shelter, distance, route steps, and advice.
func BuildMessage(shelterName string, distanceKm float64, steps []string, advice string) string {
	return fmt.Sprintf("[ResQnow] Flood warning. Nearest shelter: %s %gkm. Route: %s. Advice: %s",
		shelterName, distanceKm, strings.Join(steps, "; "), advice)
}

// BroadcastPublisher publishes one message to the broadcast channel.
type BroadcastPublisher interface {
	Publish(ctx context.Context, subject, message string) error
}

// DirectMessenger delivers one message to a single recipient address.
type DirectMessenger interface {
	Send(ctx context.Context, phone, message string) error
}

// Dispatcher fans the resolved route out to whichever channels are
// configured. Broadcast and direct delivery are independent: both may fire,
// neither is required. Delivery failure is a soft error the caller attaches
// to the response; it never fails the routing computation.
type Dispatcher struct {
	broadcast BroadcastPublisher // nil when no broadcast topic is configured
	direct    DirectMessenger    // nil when no direct gateway is configured
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewDispatcher creates a Dispatcher. Either channel may be nil.
func NewDispatcher(broadcast BroadcastPublisher, direct DirectMessenger, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		broadcast: broadcast,
		direct:    direct,
		logger:    logger,
		metrics:   metrics,
	}
}

// Dispatch delivers message on every configured channel. phone may be empty,
// in which case direct delivery is skipped. The returned string is empty on
// full success and otherwise describes the first delivery failure.
func (d *Dispatcher) Dispatch(ctx context.Context, phone, message string) string {
	var failures []string

	if d.broadcast != nil {
		if err := d.broadcast.Publish(ctx, broadcastSubject, message); err != nil {
			d.logger.Warn("broadcast publish failed", "error", err)
			d.metrics.Notifications.WithLabelValues("broadcast", "failed").Inc()
			failures = append(failures, fmt.Sprintf("broadcast: %v", err))
		} else {
			d.metrics.Notifications.WithLabelValues("broadcast", "sent").Inc()
		}
	} else {
		d.logger.Debug("broadcast channel not configured, skipping")
		d.metrics.Notifications.WithLabelValues("broadcast", "skipped").Inc()
	}

	switch {
	case d.direct == nil:
		d.logger.Debug("direct channel not configured, skipping")
		d.metrics.Notifications.WithLabelValues("direct", "skipped").Inc()
	case phone == "":
		d.metrics.Notifications.WithLabelValues("direct", "skipped").Inc()
	default:
		if err := d.direct.Send(ctx, phone, message); err != nil {
			d.logger.Warn("direct send failed", "error", err)
			d.metrics.Notifications.WithLabelValues("direct", "failed").Inc()
			failures = append(failures, fmt.Sprintf("direct: %v", err))
		} else {
			d.metrics.Notifications.WithLabelValues("direct", "sent").Inc()
		}
	}

	return strings.Join(failures, "; ")
}
