package mw

import (
	"crypto/subtle"
	"net/http"

	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

// CronSecret requires "Authorization: Bearer <secret>". When enforce is
// false (non-production) every caller passes.
func CronSecret(secret string, enforce bool, log logger.Logger) func(http.Handler) http.Handler {
	if !enforce {
		log.Debug("CronSecret: not enforced outside production")
		return func(next http.Handler) http.Handler { return next }
	}

	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := bearerToken(r)
			if !ok || len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				log.Warn("cron trigger rejected", logger.String("remote_ip", r.RemoteAddr))
				unauthorized(w, "invalid cron secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
