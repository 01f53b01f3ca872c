// Package notify publishes pipeline lifecycle events over Redis pub/sub.
// Delivery is fire-and-forget; downstream consumers (dashboards, Slack
// bridges) subscribe to the channel and must tolerate missed events.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"brandcraft/pkg/domain"
)

const (
	EventRequestGenerated = "request.generated"
	EventRequestApproved  = "request.approved"
	EventRequestRejected  = "request.rejected"
	EventRequestPublished = "request.published"
	EventStepEscalated    = "step.escalated"
)

type Event struct {
	Type      string          `json:"type"`
	OrgID     string          `json:"orgId"`
	RequestID string          `json:"requestId"`
	Platform  domain.Platform `json:"platform,omitempty"`
	StepOrder int             `json:"stepOrder,omitempty"`
	Detail    string          `json:"detail,omitempty"`
	At        time.Time       `json:"at"`
}

// Publisher pushes events to a single Redis channel. Publish never
// returns an error; failures are logged and dropped so notification
// outages cannot stall the pipeline.
type Publisher struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
	now     func() time.Time
}

func NewPublisher(client *redis.Client, channel string, log *slog.Logger) *Publisher {
	if channel == "" {
		channel = "brandcraft.events"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{client: client, channel: channel, log: log, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = p.now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("notify marshal failed", "type", ev.Type, "error", err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.log.Warn("notify publish failed", "type", ev.Type, "requestId", ev.RequestID, "error", err)
	}
}

// Channel returns the pub/sub channel name, for subscribers.
func (p *Publisher) Channel() string {
	return p.channel
}
