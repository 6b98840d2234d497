// Package cache provides a NATS JetStream key/value store for generated text.
package cache

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/repoexplorer/internal/config"
	"git.home.luguber.info/inful/repoexplorer/internal/foundation/errors"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

const (
	setupTimeout  = 10 * time.Second
	opTimeout     = 2 * time.Second
	maxBucketSize = 100 * 1024 * 1024
)

// keyValue is the subset of jetstream.KeyValue used by NATSCache.
type keyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// NATSCache stores values in a JetStream KV bucket. Expiry is left to the
// bucket TTL.
type NATSCache struct {
	conn   *nats.Conn
	kv     keyValue
	bucket string
}

// NewNATSCache connects to url and opens bucket, creating it with the given
// TTL when it does not exist yet.
func NewNATSCache(ctx context.Context, url, bucket string, ttl time.Duration) (*NATSCache, error) {
	conn, err := nats.Connect(url, nats.Name("repoexplorer"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "connect to NATS").
			WithContext("url", url).
			Retryable().
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryStorage, "create JetStream context").Build()
	}

	kv, err := openBucket(ctx, js, bucket, ttl)
	if err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("NATS generation cache ready",
		logfields.URL(url),
		slog.String("bucket", bucket),
		slog.Duration("ttl", ttl))

	return &NATSCache{conn: conn, kv: kv, bucket: bucket}, nil
}

// NewFromConfig opens the cache described by c. It returns nil, nil when
// no NATS URL is configured.
func NewFromConfig(ctx context.Context, c config.CacheConfig) (*NATSCache, error) {
	if c.NATSURL == "" {
		return nil, nil
	}
	return NewNATSCache(ctx, c.NATSURL, c.Bucket, c.TTLDuration())
}

func openBucket(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Generated repository insights",
		MaxBytes:    maxBucketSize,
		History:     1,
		TTL:         ttl,
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "create KV bucket").
			WithContext("bucket", bucket).
			Build()
	}
	slog.Info("Created KV bucket for generation cache", slog.String("bucket", bucket))
	return kv, nil
}

// Get returns the value stored under key. A missing key reports ok=false
// without an error.
func (c *NATSCache) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	entry, err := c.kv.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, errors.WrapError(err, errors.CategoryStorage, "get cache entry").
			WithContext("bucket", c.bucket).
			Build()
	}
	return string(entry.Value()), true, nil
}

// Put stores value under key.
func (c *NATSCache) Put(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := c.kv.Put(ctx, key, []byte(value)); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "put cache entry").
			WithContext("bucket", c.bucket).
			Build()
	}
	return nil
}

// Close closes the NATS connection.
func (c *NATSCache) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
