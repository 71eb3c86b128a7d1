// internal/infra/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ScanRequest is one kiosk scan pushed onto the intake queue.
type ScanRequest struct {
	RequestID string    `json:"request_id"`
	Barcode   string    `json:"barcode"`
	ScannedAt time.Time `json:"scanned_at"`
}

// ScanOutcome is the best-effort result published back for kiosk display.
type ScanOutcome struct {
	RequestID   string `json:"request_id"`
	Barcode     string `json:"barcode"`
	Status      string `json:"status"` // checked_in, checked_out, rejected, unknown_member, error
	Flagged     bool   `json:"flagged,omitempty"`
	SessionName string `json:"session_name,omitempty"`
	NextSession string `json:"next_session,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Queue is the abstraction over different intake backends.
type Queue interface {
	Publish(ctx context.Context, req ScanRequest) error
	Consume(ctx context.Context) (<-chan ScanRequest, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan ScanRequest
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan ScanRequest, size)}
}

// Publish enqueues a scan request.
func (q *InMemory) Publish(ctx context.Context, req ScanRequest) error {
	select {
	case q.ch <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for the consumer loop.
func (q *InMemory) Consume(ctx context.Context) (<-chan ScanRequest, error) {
	out := make(chan ScanRequest)
	go func() {
		defer close(out)
		for {
			select {
			case req := <-q.ch:
				out <- req
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisScanQueue implements the intake queue over a Redis list, kiosks
// LPUSHing JSON-encoded requests and the daemon BRPOPing them.
type RedisScanQueue struct {
	client *redis.Client
	key    string
}

// NewRedisScanQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisScanQueue(client *redis.Client, key string) *RedisScanQueue {
	if key == "" {
		key = "attendance:scans"
	}
	return &RedisScanQueue{client: client, key: key}
}

// Publish enqueues a scan request.
func (q *RedisScanQueue) Publish(ctx context.Context, req ScanRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, body).Err()
}

// Consume streams scan requests using BRPOP. Malformed payloads are dropped.
func (q *RedisScanQueue) Consume(ctx context.Context) (<-chan ScanRequest, error) {
	out := make(chan ScanRequest)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				var req ScanRequest
				if err := json.Unmarshal([]byte(res[1]), &req); err == nil {
					out <- req
				}
			}
		}
	}()
	return out, nil
}

// ResultPublisher delivers scan outcomes back toward the kiosks.
type ResultPublisher interface {
	PublishResult(ctx context.Context, outcome ScanOutcome) error
}

// RedisResultPublisher publishes outcomes on a Redis channel. Delivery is
// best effort: nobody re-reads a missed result.
type RedisResultPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisResultPublisher(client *redis.Client, channel string) *RedisResultPublisher {
	if channel == "" {
		channel = "attendance:scan_results"
	}
	return &RedisResultPublisher{client: client, channel: channel}
}

func (p *RedisResultPublisher) PublishResult(ctx context.Context, outcome ScanOutcome) error {
	body, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, body).Err()
}

// NopResultPublisher discards outcomes, for deployments without kiosk display.
type NopResultPublisher struct{}

func (NopResultPublisher) PublishResult(context.Context, ScanOutcome) error { return nil }
