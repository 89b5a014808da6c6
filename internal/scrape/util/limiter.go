package util

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter paces requests per host so repeated manual runs cannot
// hammer the source.
type HostLimiter struct {
	every time.Duration
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewHostLimiter allows perSecond requests per host with the given burst.
// perSecond <= 0 disables pacing.
func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	var every time.Duration
	if perSecond > 0 {
		every = time.Duration(float64(time.Second) / perSecond)
	}
	return &HostLimiter{every: every, burst: burst, hosts: map[string]*rate.Limiter{}}
}

func (hl *HostLimiter) forHost(host string) *rate.Limiter {
	host = strings.ToLower(host)

	hl.mu.Lock()
	defer hl.mu.Unlock()
	lim, ok := hl.hosts[host]
	if !ok {
		limit := rate.Inf
		if hl.every > 0 {
			limit = rate.Every(hl.every)
		}
		lim = rate.NewLimiter(limit, hl.burst)
		hl.hosts[host] = lim
	}
	return lim
}

// WaitURL blocks until a request to raw's host is allowed. Unparseable URLs
// share one bucket.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	host := ""
	if u, err := url.Parse(raw); err == nil {
		host = u.Host
	}
	return hl.forHost(host).Wait(ctx)
}
