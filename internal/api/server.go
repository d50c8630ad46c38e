package api

import (
	"context"
	"time"

	"github.com/vytor/pylearn/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	LearnerService services.LearnerService
	ReviewService  services.ReviewService
	StatsService   services.StatsService
	DB             Pinger

	DefaultSessionMinutes int
	RequestTimeout        time.Duration
	// RateLimiter is optional; nil disables per-client limiting.
	RateLimiter *RateLimiter
}
