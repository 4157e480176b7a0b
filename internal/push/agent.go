package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/metrics"
	"github.com/chirpsocial/backend/internal/models"
	"go.uber.org/zap"
)

// Payload is the JSON body delivered to the service worker
type Payload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	URL   string                 `json:"url,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Options configures the push delivery agent
type Options struct {
	// Subscriber is the contact address sent with VAPID claims.
	// webpush-go adds the mailto: prefix automatically.
	Subscriber      string
	VAPIDPublicKey  string
	VAPIDPrivateKey string

	// TTL in seconds for queued pushes at the push service
	TTL int

	// Timeout for a single delivery attempt
	Timeout time.Duration
}

// Agent delivers web push notifications. Each subscription is attempted
// independently; a failure for one endpoint never aborts the rest. Endpoints
// the push service reports as gone are pruned from the store.
type Agent struct {
	store  SubscriptionStore
	opts   Options
	client *http.Client
}

// NewAgent creates a push delivery agent
func NewAgent(store SubscriptionStore, opts Options) *Agent {
	if opts.TTL <= 0 {
		opts.TTL = 60 * 60 * 24
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &Agent{
		store:  store,
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// Enabled reports whether VAPID keys are configured. Safe on a nil
// receiver so a nil agent behind an interface degrades to a no-op.
func (a *Agent) Enabled() bool {
	return a != nil && a.opts.VAPIDPublicKey != "" && a.opts.VAPIDPrivateKey != ""
}

// VAPIDPublicKey returns the key clients need to subscribe
func (a *Agent) VAPIDPublicKey() string {
	return a.opts.VAPIDPublicKey
}

// SendToUser delivers a payload to every subscription of a user. A user with
// no subscriptions is an expected outcome, not an error. The returned error
// covers only the subscription lookup; individual delivery failures are
// logged and counted.
func (a *Agent) SendToUser(ctx context.Context, userID string, payload Payload) error {
	if !a.Enabled() {
		logger.Log.Debug("Push delivery skipped, VAPID keys not configured",
			zap.String("user_id", userID))
		return nil
	}

	subs, err := a.store.ListForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		logger.Log.Debug("No push subscriptions for user",
			zap.String("user_id", userID))
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *models.PushSubscription) {
			defer wg.Done()
			a.sendOne(ctx, sub, body)
		}(sub)
	}
	wg.Wait()

	return nil
}

// SendToUsers delivers the same payload to each user in turn
func (a *Agent) SendToUsers(ctx context.Context, userIDs []string, payload Payload) {
	for _, userID := range userIDs {
		if err := a.SendToUser(ctx, userID, payload); err != nil {
			logger.Log.Warn("Push fan-out failed for user",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
}

// sendOne attempts delivery to a single subscription and prunes it when the
// push service says the endpoint is gone
func (a *Agent) sendOne(ctx context.Context, sub *models.PushSubscription, body []byte) {
	resp, err := webpush.SendNotification(body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      a.client,
		Subscriber:      a.opts.Subscriber,
		VAPIDPublicKey:  a.opts.VAPIDPublicKey,
		VAPIDPrivateKey: a.opts.VAPIDPrivateKey,
		TTL:             a.opts.TTL,
	})
	if err != nil {
		metrics.PushDeliveriesTotal.WithLabelValues("error").Inc()
		logger.Log.Warn("Push delivery failed",
			zap.String("user_id", sub.UserID),
			zap.String("endpoint", truncateEndpoint(sub.Endpoint)),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		// The push service no longer knows this endpoint
		metrics.PushDeliveriesTotal.WithLabelValues("pruned").Inc()
		logger.Log.Info("Pruning dead push subscription",
			zap.String("user_id", sub.UserID),
			zap.String("endpoint", truncateEndpoint(sub.Endpoint)),
			zap.Int("status", resp.StatusCode))
		if err := a.store.Remove(ctx, sub.UserID, sub.Endpoint); err != nil {
			logger.Log.Warn("Failed to prune push subscription",
				zap.String("user_id", sub.UserID),
				zap.Error(err))
		}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		metrics.PushDeliveriesTotal.WithLabelValues("ok").Inc()
	default:
		metrics.PushDeliveriesTotal.WithLabelValues("rejected").Inc()
		logger.Log.Warn("Push service rejected delivery",
			zap.String("user_id", sub.UserID),
			zap.String("endpoint", truncateEndpoint(sub.Endpoint)),
			zap.Int("status", resp.StatusCode))
	}
}

func truncateEndpoint(endpoint string) string {
	if len(endpoint) > 64 {
		return endpoint[:64]
	}
	return endpoint
}
