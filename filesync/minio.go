package filesync

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Default object prefixes used by MinIO.
const (
	DefaultUploadPrefix = "uploads"
	DefaultPlanPrefix   = "plans"
)

// MinIOConfig describes the object store connection.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
}

// Validate checks the required fields.
func (c MinIOConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("minio endpoint is required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("minio bucket is required")
	}
	return nil
}

// MinIO copies uploads/<key>/... objects to plans/<rootPlanID>/... inside one bucket.
type MinIO struct {
	Client       *minio.Client
	Bucket       string
	UploadPrefix string
	PlanPrefix   string
}

// NewMinIO creates a syncer with a new client. No request is made until the first sync.
func NewMinIO(cfg MinIOConfig) (*MinIO, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinIO{Client: client, Bucket: cfg.Bucket}, nil
}

// SyncUploadedFilesToPlan performs a server-side copy of every object under the upload prefix.
func (m *MinIO) SyncUploadedFilesToPlan(ctx context.Context, uploadKey, rootPlanID string) error {
	src, dst, err := m.prefixes(uploadKey, rootPlanID)
	if err != nil {
		return err
	}
	if m.Client == nil {
		return fmt.Errorf("minio client not initialized")
	}

	// The lister goroutine only exits once its channel is drained or ctx is done.
	ctx, cancel := context.WithCancel(ctx)
	objects := m.Client.ListObjects(ctx, m.Bucket, minio.ListObjectsOptions{Prefix: src, Recursive: true})
	defer func() {
		cancel()
		for range objects {
		}
	}()

	copied := 0
	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("failed to list uploads: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}

		target := dst + strings.TrimPrefix(obj.Key, src)
		_, err := m.Client.CopyObject(ctx,
			minio.CopyDestOptions{Bucket: m.Bucket, Object: target},
			minio.CopySrcOptions{Bucket: m.Bucket, Object: obj.Key},
		)
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", obj.Key, err)
		}
		copied++
	}

	if copied == 0 {
		return fmt.Errorf("%w: %s", ErrUploadNotFound, uploadKey)
	}
	return nil
}

// prefixes returns the source and destination prefixes, each ending in "/".
func (m *MinIO) prefixes(uploadKey, rootPlanID string) (string, string, error) {
	uploadKey = strings.Trim(strings.TrimSpace(uploadKey), "/")
	rootPlanID = strings.Trim(strings.TrimSpace(rootPlanID), "/")
	if uploadKey == "" || rootPlanID == "" {
		return "", "", ErrMissingKey
	}

	up := m.UploadPrefix
	if up == "" {
		up = DefaultUploadPrefix
	}
	pp := m.PlanPrefix
	if pp == "" {
		pp = DefaultPlanPrefix
	}
	return path.Join(up, uploadKey) + "/", path.Join(pp, rootPlanID) + "/", nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
