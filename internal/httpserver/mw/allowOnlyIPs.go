package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

// AllowOnlyCIDRS guards operational endpoints (readiness, metrics) to the
// listed IPs and CIDRs. An empty or fully invalid list disables the filter.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	set := newPrefixSet(allowed)
	if len(set) == 0 {
		log.Debug("AllowOnlyCIDRS: no valid prefixes, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}
	log.Debug("AllowOnlyCIDRS: filter active",
		logger.Int("prefixes", len(set)),
		logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := ClientIP(r, trustProxy); !set.allow(ip) {
				log.Debug("AllowOnlyCIDRS: rejected", logger.String("ip", ip), logger.String("path", r.URL.Path))
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
