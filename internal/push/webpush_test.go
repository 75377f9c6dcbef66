package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

func browserKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

func TestWebPushSender(t *testing.T) {
	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	tests := []struct {
		name     string
		status   int
		wantErr  bool
		wantGone bool
	}{
		{name: "accepted", status: http.StatusCreated},
		{name: "gone", status: http.StatusGone, wantErr: true, wantGone: true},
		{name: "not found", status: http.StatusNotFound, wantErr: true, wantGone: true},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotTTL string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotTTL = r.Header.Get("TTL")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p256dh, auth := browserKeys(t)
			sender := NewWebPushSender(WebPushConfig{
				PublicKey:  pub,
				PrivateKey: priv,
				Subject:    "mailto:admin@example.com",
				TTL:        60,
				HTTPClient: srv.Client(),
			})

			err := sender.Send(context.Background(), domain.PushSubscription{
				Endpoint: srv.URL + "/push/abc",
				P256dh:   p256dh,
				Auth:     auth,
			}, []byte(`{"title":"t","body":"b","data":{"url":"/"}}`))

			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
			assert.Equal(t, tt.wantGone, errors.Is(err, ErrSubscriptionGone))
			assert.Contains(t, gotAuth, "vapid")
			assert.Equal(t, "60", gotTTL)
		})
	}
}
