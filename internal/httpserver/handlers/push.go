package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/deps"
	"github.com/MrSnakeDoc/weddingday/internal/httpserver/mw"
	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

// subscriptionRequest mirrors the browser PushSubscription.toJSON() shape.
type subscriptionRequest struct {
	Endpoint       string  `json:"endpoint"`
	ExpirationTime *int64  `json:"expirationTime,omitempty"`
	Keys           subKeys `json:"keys"`
}

type subKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// PublicKey exposes the VAPID application server key for the browser.
func PublicKey(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"publicKey": d.VAPIDPublicKey})
	}
}

// Subscribe registers or refreshes the caller's device.
func Subscribe(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscriptionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		sub := domain.PushSubscription{
			Endpoint: req.Endpoint,
			P256dh:   req.Keys.P256dh,
			Auth:     req.Keys.Auth,
			UserID:   mw.UserID(r.Context()),
		}
		if err := sub.Validate(); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Notifications.UpsertSubscription(r.Context(), &sub); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("📲 push subscription saved", logger.String("user_id", sub.UserID))
		writeJSON(w, http.StatusCreated, sub)
	}
}

// Unsubscribe removes one of the caller's devices.
func Unsubscribe(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req unsubscribeRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if req.Endpoint == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "endpoint is required"})
			return
		}
		if err := d.Notifications.DeleteSubscription(r.Context(), req.Endpoint, mw.UserID(r.Context())); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// TestPush sends a canned notification to the caller's own devices.
func TestPush(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := domain.Payload{
			Title: "Notifications enabled",
			Body:  "You will be reminded before each event.",
			Data:  domain.PayloadData{URL: "/agenda"},
		}
		res, err := d.Notifier.Send(r.Context(), payload, domain.Scope{UserID: mw.UserID(r.Context())}, domain.SourceTest)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
