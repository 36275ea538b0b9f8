package interrupt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdConfig configures the etcd-backed store.
type EtcdConfig struct {
	Endpoints []string

	// Namespace prefixes every key. Default: "planexec"
	Namespace string

	// TTL is the lease length in seconds attached to every record. Default: 86400
	TTL int64

	DialTimeout time.Duration
}

// EtcdStore keeps records in etcd under "/<namespace>/interrupt/<rootPlanID>".
type EtcdStore struct {
	client    *clientv3.Client
	namespace string
	ttl       int64
}

// NewEtcdStore connects to etcd.
func NewEtcdStore(cfg EtcdConfig) (*EtcdStore, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints cannot be empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if _, err := cli.Get(ctx, "health-check"); err != nil && err != context.DeadlineExceeded {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return NewEtcdStoreWithClient(cli, cfg.Namespace, cfg.TTL), nil
}

// NewEtcdStoreWithClient wraps an existing client.
func NewEtcdStoreWithClient(cli *clientv3.Client, namespace string, ttl int64) *EtcdStore {
	if namespace == "" {
		namespace = "planexec"
	}
	if ttl <= 0 {
		ttl = int64((24 * time.Hour).Seconds())
	}
	return &EtcdStore{client: cli, namespace: namespace, ttl: ttl}
}

func etcdKey(namespace, rootPlanID string) string {
	return fmt.Sprintf("/%s/interrupt/%s", namespace, rootPlanID)
}

// Get returns the record for rootPlanID.
func (s *EtcdStore) Get(ctx context.Context, rootPlanID string) (Record, error) {
	resp, err := s.client.Get(ctx, etcdKey(s.namespace, rootPlanID))
	if err != nil {
		return Record{}, fmt.Errorf("failed to get task %s: %w", rootPlanID, err)
	}
	if len(resp.Kvs) == 0 {
		return Record{}, ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal(resp.Kvs[0].Value, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal task %s: %w", rootPlanID, err)
	}
	return rec, nil
}

// Put stores rec under a fresh lease.
func (s *EtcdStore) Put(ctx context.Context, rec Record) error {
	if rec.RootPlanID == "" {
		return ErrInvalidPlanID
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	lease, err := s.client.Grant(ctx, s.ttl)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}
	if _, err := s.client.Put(ctx, etcdKey(s.namespace, rec.RootPlanID), string(data), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to store task %s: %w", rec.RootPlanID, err)
	}
	return nil
}

// Delete removes the record for rootPlanID.
func (s *EtcdStore) Delete(ctx context.Context, rootPlanID string) error {
	if _, err := s.client.Delete(ctx, etcdKey(s.namespace, rootPlanID)); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", rootPlanID, err)
	}
	return nil
}

// Close closes the etcd client.
func (s *EtcdStore) Close() error {
	return s.client.Close()
}
