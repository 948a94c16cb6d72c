package lobbyserver

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	limiterWindow   = time.Minute
	limiterMaxHits  = 30
	limiterKeyspace = "lobby:ratelimit:"
)

// Limiter is a fixed-window per-IP rate limit backed by Redis.
// It fails open when Redis is unreachable.
type Limiter struct {
	client *redis.Client
	log    *slog.Logger
}

func NewLimiter(addr, password string, log *slog.Logger) *Limiter {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &Limiter{client: client, log: log}
}

func (l *Limiter) Close() error {
	return l.client.Close()
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		key := limiterKeyspaceFor(host)

		ctx := r.Context()
		hits, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			l.log.Warn("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if hits == 1 {
			l.client.Expire(ctx, key, limiterWindow)
		}
		if hits > limiterMaxHits {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func limiterKeyspaceFor(host string) string {
	return limiterKeyspace + host
}
