package nonce

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var claimDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "tollgate_nonce_claim_duration_ms",
	Help:    "Latency of jti replay checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const keyPrefix = "nonce:jti:"

// Redis shares claimed jtis across server instances.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Claim uses SET NX so two instances racing on the same jti cannot both win.
func (r *Redis) Claim(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	start := time.Now()
	defer func() {
		claimDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if err := validate(jti, ttl); err != nil {
		return false, err
	}
	return r.client.SetNX(ctx, keyPrefix+jti, "1", ttl).Result()
}
