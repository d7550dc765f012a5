package httpadapter

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	headerRequestID          = "X-Request-ID"
	headerRetryAfter         = "Retry-After"
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
)

type requestIDKey struct{}

// requestID propagates a caller-supplied X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFromContext returns the request ID assigned by the server, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ClientKey identifies the caller for rate limiting: the first
// X-Forwarded-For entry, else the remote host, else "unknown".
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// rateLimit runs before any other API logic. Limiter faults fail open.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := s.limiter.Allow(ClientKey(r))
		if err != nil {
			s.logger.Warn("rate limiter error, allowing request", "error", err, "request_id", RequestIDFromContext(r.Context()))
			next.ServeHTTP(w, r)
			return
		}
		s.metrics.RateLimitClients.Set(float64(s.limiter.Len()))

		h := w.Header()
		h.Set(headerRateLimitLimit, strconv.Itoa(d.Limit))
		h.Set(headerRateLimitRemaining, strconv.Itoa(d.Remaining))
		h.Set(headerRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			secs := retryAfterSeconds(d.RetryAfter)
			h.Set(headerRetryAfter, strconv.Itoa(secs))
			s.metrics.RateLimitRejections.Inc()
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Rate limit exceeded", RetryAfter: &secs})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(d time.Duration) int {
	return max(0, int(math.Ceil(d.Seconds())))
}
