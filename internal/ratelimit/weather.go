package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/fieldwatch/internal/config"
)

const keyWeatherUser = "fieldwatch:weather:user:%s"

// WeatherLimiter throttles weather lookups per user. A nil limiter allows everything.
type WeatherLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewWeatherLimiter(cfg config.Config, client *redis.Client) *WeatherLimiter {
	if client == nil || cfg.Weather.RateLimit <= 0 || cfg.Weather.RateBurst <= 0 {
		return nil
	}
	return &WeatherLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.Weather.RateLimit,
		burst:  cfg.Weather.RateBurst,
	}
}

func (l *WeatherLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *WeatherLimiter) Allow(ctx context.Context, userID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, WeatherKey(userID), l.rate, l.burst)
}

func WeatherKey(userID string) string {
	return fmt.Sprintf(keyWeatherUser, strings.TrimSpace(userID))
}
