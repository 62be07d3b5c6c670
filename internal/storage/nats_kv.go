package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	nats "github.com/nats-io/nats.go"
)

var invalidNATSKeyChars = regexp.MustCompile(`[^-/_=.a-zA-Z0-9]`)

// NATSKV хранит записи мира в JetStream Key-Value бакете.
type NATSKV struct {
	nc     *nats.Conn
	kv     nats.KeyValue
	bucket string
}

// NewNATSKV подключается к NATS и гарантирует наличие бакета.
// url: nats://127.0.0.1:4222, bucket: "voxel_world".
func NewNATSKV(url, bucket string) (*NATSKV, error) {
	if bucket == "" {
		bucket = "voxel_world"
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Drain()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure bucket exists
	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "voxel world records",
			History:     1,
			Storage:     nats.FileStorage,
		})
	}
	if err != nil {
		nc.Drain()
		return nil, fmt.Errorf("key-value bucket %s: %w", bucket, err)
	}

	return &NATSKV{nc: nc, kv: kv, bucket: bucket}, nil
}

func natsKey(key string) string {
	return invalidNATSKeyChars.ReplaceAllString(key, "_")
}

// Get читает запись
func (n *NATSKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, err := n.kv.Get(natsKey(key))
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("nats kv get %s: %w", key, err)
	}
	return entry.Value(), nil
}

// Set записывает запись
func (n *NATSKV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.kv.Put(natsKey(key), value); err != nil {
		return fmt.Errorf("nats kv put %s: %w", key, err)
	}
	return nil
}

func (n *NATSKV) Close() error {
	return n.nc.Drain()
}
