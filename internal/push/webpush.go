package push

import (
	"context"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

// WebPushConfig holds the VAPID identity of this server.
type WebPushConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string // mailto: or https: contact for the push service
	TTL        int    // seconds
	HTTPClient *http.Client
}

// WebPushSender encrypts and posts payloads to browser push services.
type WebPushSender struct {
	cfg WebPushConfig
}

func NewWebPushSender(cfg WebPushConfig) *WebPushSender {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &WebPushSender{cfg: cfg}
}

func (w *WebPushSender) Name() string { return "webpush" }

func (w *WebPushSender) Send(ctx context.Context, sub domain.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		HTTPClient:      w.cfg.HTTPClient,
		Subscriber:      w.cfg.Subject,
		VAPIDPublicKey:  w.cfg.PublicKey,
		VAPIDPrivateKey: w.cfg.PrivateKey,
		TTL:             w.cfg.TTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("web push request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("push service answered %d: %w", resp.StatusCode, ErrSubscriptionGone)
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service answered %d", resp.StatusCode)
	}
	return nil
}
