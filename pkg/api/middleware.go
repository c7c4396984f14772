package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tripsync/pkg/logger"
	"tripsync/pkg/utils"
)

// RateLimit configures the per-client token bucket on the sync endpoints.
type RateLimit struct {
	RPS   float64
	Burst int
}

type limiterPool struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	cfg RateLimit
}

func newLimiterPool(cfg RateLimit) *limiterPool {
	return &limiterPool{m: make(map[string]*rate.Limiter), cfg: cfg}
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.m[key]
	if !ok {
		rps := p.cfg.RPS
		if rps <= 0 {
			rps = 20
		}
		burst := p.cfg.Burst
		if burst <= 0 {
			burst = 40
		}
		l = rate.NewLimiter(rate.Limit(rps), burst)
		p.m[key] = l
	}
	return l.Allow()
}

// rateLimit throttles by remote host. The poke stream is exempt: it is one
// long request, not a request rate.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sync/poke" {
			next.ServeHTTP(w, r)
			return
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.limiter.allow(host) {
			utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("sync_request",
			"method", r.Method, "path", r.URL.Path,
			"remote", r.RemoteAddr, "duration", time.Since(start).String())
	})
}
