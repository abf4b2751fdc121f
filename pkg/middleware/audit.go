package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"scanteate/pkg/audit"
	"scanteate/pkg/claims"
)

const auditTimeout = 2 * time.Second

// Audit records every request that reached it with claims in its context.
// It has to run after Require or RequireAdmin.
func Audit(repo audit.Repository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := record(w)
			next.ServeHTTP(rec, r)

			c, ok := claims.FromContext(r.Context())
			if !ok {
				return
			}

			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), auditTimeout)
			defer cancel()

			entry := &audit.Entry{
				UserID:    c.Principal.ID,
				Method:    r.Method,
				Path:      r.URL.Path,
				Status:    rec.status,
				IP:        clientIP(r),
				UserAgent: r.UserAgent(),
				At:        time.Now().UTC(),
			}
			if err := repo.Record(ctx, entry); err != nil {
				logger.Warn("audit record", zap.Int64("user", c.Principal.ID), zap.Error(err))
			}
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
