// Package timeouts holds the deadlines handlers put on one-shot store
// calls. Live subscriptions carry no deadline.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries, board creation, reorders
//   - Long: reports and other multi-collection reads
package timeouts

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

// Config holds timeout values. Zero values keep the current setting.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

// Configure overrides the non-zero values of c. Call it at startup.
func Configure(c Config) {
	mu.Lock()
	defer mu.Unlock()
	if c.Ping > 0 {
		cur.Ping = c.Ping
	}
	if c.Short > 0 {
		cur.Short = c.Short
	}
	if c.Medium > 0 {
		cur.Medium = c.Medium
	}
	if c.Long > 0 {
		cur.Long = c.Long
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

func Ping() time.Duration   { return Current().Ping }
func Short() time.Duration  { return Current().Short }
func Medium() time.Duration { return Current().Medium }
func Long() time.Duration   { return Current().Long }

// WithTimeout is context.WithTimeout; handlers pass one of the tiers above.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}
