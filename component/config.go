// Package component provides loading and parsing of engine.yaml configuration files.
// The configuration sizes the worker pools, picks the default plan type and
// error policy, and selects the interruption and file sync backends.
package component

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendEtcd   = "etcd"

	BackendNone  = "none"
	BackendLocal = "local"
	BackendMinIO = "minio"
)

// Defaults applied by the getters.
const (
	DefaultPoolSize       = 4
	DefaultQueueSize      = 1024
	DefaultPlanType       = "dynamic_agent"
	DefaultErrorPolicy    = "continue"
	DefaultInterruptTTL   = 24 * time.Hour
	DefaultKeyPrefix      = "planexec:interrupt"
	DefaultDialTimeout    = 5 * time.Second
	DefaultEtcdNamespace  = "planexec"
	DefaultConfigFileName = "engine.yaml"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("component: invalid configuration")

// Config represents an engine.yaml configuration file.
type Config struct {
	Pool         *PoolConfig         `yaml:"pool,omitempty"`
	Execution    *ExecutionConfig    `yaml:"execution,omitempty"`
	Interruption *InterruptionConfig `yaml:"interruption,omitempty"`
	Files        *FilesConfig        `yaml:"files,omitempty"`
}

// PoolConfig sizes the per-depth worker pools.
type PoolConfig struct {
	// Size is the number of workers per depth. Default: 4
	Size int `yaml:"size,omitempty"`

	// QueueSize bounds the tasks waiting per depth. Default: 1024
	QueueSize int `yaml:"queue_size,omitempty"`

	// DepthSizes overrides Size for individual depths.
	DepthSizes map[int]int `yaml:"depth_sizes,omitempty"`
}

// ExecutionConfig controls how plans run.
type ExecutionConfig struct {
	// PlanType is used for plans that do not name one. Default: dynamic_agent
	PlanType string `yaml:"plan_type,omitempty"`

	// ErrorPolicy is continue, abort or expr. Default: continue
	ErrorPolicy string `yaml:"error_policy,omitempty"`

	// AbortWhen is the CEL expression used by the expr policy.
	// Example: step.type == "DATABASE"
	AbortWhen string `yaml:"abort_when,omitempty"`

	// MaxDepth limits sub-plan nesting. Default: 0 (unlimited)
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// InterruptionConfig selects where stop requests are stored.
type InterruptionConfig struct {
	// Backend is memory, redis or etcd. Default: memory
	Backend string `yaml:"backend,omitempty"`

	RedisURL string `yaml:"redis_url,omitempty"`

	// TTL bounds how long state for a plan tree is kept.
	// Format: Go duration string (e.g., "24h")
	TTL string `yaml:"ttl,omitempty"`

	KeyPrefix string `yaml:"key_prefix,omitempty"`

	EtcdEndpoints []string `yaml:"etcd_endpoints,omitempty"`
	EtcdNamespace string   `yaml:"etcd_namespace,omitempty"`

	// DialTimeout applies to redis and etcd connections. Default: 5s
	DialTimeout string `yaml:"dial_timeout,omitempty"`
}

// FilesConfig selects how uploaded files reach a plan's workspace.
type FilesConfig struct {
	// Backend is none, local or minio. Default: none
	Backend string `yaml:"backend,omitempty"`

	UploadRoot string `yaml:"upload_root,omitempty"`
	PlanRoot   string `yaml:"plan_root,omitempty"`

	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
}

// GetSize returns the configured pool size or the default value.
func (p *PoolConfig) GetSize() int {
	if p == nil || p.Size <= 0 {
		return DefaultPoolSize
	}
	return p.Size
}

// GetQueueSize returns the configured queue size or the default value.
func (p *PoolConfig) GetQueueSize() int {
	if p == nil || p.QueueSize <= 0 {
		return DefaultQueueSize
	}
	return p.QueueSize
}

// GetDepthSizes returns the valid per-depth overrides.
func (p *PoolConfig) GetDepthSizes() map[int]int {
	out := make(map[int]int)
	if p == nil {
		return out
	}
	for depth, n := range p.DepthSizes {
		if depth >= 0 && n > 0 {
			out[depth] = n
		}
	}
	return out
}

// GetPlanType returns the default plan type.
func (e *ExecutionConfig) GetPlanType() string {
	if e == nil || strings.TrimSpace(e.PlanType) == "" {
		return DefaultPlanType
	}
	return strings.ToLower(strings.TrimSpace(e.PlanType))
}

// GetErrorPolicy returns the error policy name.
func (e *ExecutionConfig) GetErrorPolicy() string {
	if e == nil || strings.TrimSpace(e.ErrorPolicy) == "" {
		return DefaultErrorPolicy
	}
	return strings.ToLower(strings.TrimSpace(e.ErrorPolicy))
}

// GetAbortWhen returns the abort expression.
func (e *ExecutionConfig) GetAbortWhen() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.AbortWhen)
}

// GetMaxDepth returns the nesting limit, 0 meaning unlimited.
func (e *ExecutionConfig) GetMaxDepth() int {
	if e == nil || e.MaxDepth < 0 {
		return 0
	}
	return e.MaxDepth
}

// GetBackend returns the interruption backend.
func (i *InterruptionConfig) GetBackend() string {
	if i == nil || strings.TrimSpace(i.Backend) == "" {
		return BackendMemory
	}
	return strings.ToLower(strings.TrimSpace(i.Backend))
}

// GetTTL parses the TTL string and returns a duration.
// Returns the default value if not set or invalid.
func (i *InterruptionConfig) GetTTL() time.Duration {
	return parseDuration(i, func(c *InterruptionConfig) string { return c.TTL }, DefaultInterruptTTL)
}

// GetDialTimeout parses the dial timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (i *InterruptionConfig) GetDialTimeout() time.Duration {
	return parseDuration(i, func(c *InterruptionConfig) string { return c.DialTimeout }, DefaultDialTimeout)
}

// GetKeyPrefix returns the redis key prefix or the default value.
func (i *InterruptionConfig) GetKeyPrefix() string {
	if i == nil || i.KeyPrefix == "" {
		return DefaultKeyPrefix
	}
	return i.KeyPrefix
}

// GetEtcdNamespace returns the etcd key namespace or the default value.
func (i *InterruptionConfig) GetEtcdNamespace() string {
	if i == nil || i.EtcdNamespace == "" {
		return DefaultEtcdNamespace
	}
	return i.EtcdNamespace
}

// GetBackend returns the file sync backend.
func (f *FilesConfig) GetBackend() string {
	if f == nil || strings.TrimSpace(f.Backend) == "" {
		return BackendNone
	}
	return strings.ToLower(strings.TrimSpace(f.Backend))
}

func parseDuration(i *InterruptionConfig, field func(*InterruptionConfig) string, def time.Duration) time.Duration {
	if i == nil || field(i) == "" {
		return def
	}
	d, err := time.ParseDuration(field(i))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Validate reports unknown backends, unknown policies and missing connection settings.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error

	switch c.Execution.GetErrorPolicy() {
	case "continue", "abort":
	case "expr":
		if c.Execution.GetAbortWhen() == "" {
			errs = append(errs, errors.New("execution.abort_when is required for the expr error policy"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown execution.error_policy %q", c.Execution.GetErrorPolicy()))
	}

	switch c.Interruption.GetBackend() {
	case BackendMemory:
	case BackendRedis:
		if c.Interruption.RedisURL == "" {
			errs = append(errs, errors.New("interruption.redis_url is required for the redis backend"))
		}
	case BackendEtcd:
		if len(c.Interruption.EtcdEndpoints) == 0 {
			errs = append(errs, errors.New("interruption.etcd_endpoints is required for the etcd backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown interruption.backend %q", c.Interruption.GetBackend()))
	}

	switch c.Files.GetBackend() {
	case BackendNone:
	case BackendLocal:
		if c.Files.UploadRoot == "" || c.Files.PlanRoot == "" {
			errs = append(errs, errors.New("files.upload_root and files.plan_root are required for the local backend"))
		}
	case BackendMinIO:
		if c.Files.Endpoint == "" || c.Files.Bucket == "" {
			errs = append(errs, errors.New("files.endpoint and files.bucket are required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown files.backend %q", c.Files.GetBackend()))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Parse decodes an engine.yaml document.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// Load reads and parses an engine.yaml file from the given path.
// If the path is a directory, it looks for engine.yaml or engine.yml in that directory.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath = ""
		for _, name := range []string{DefaultConfigFileName, "engine.yml"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
		if configPath == "" {
			return nil, fmt.Errorf("no engine.yaml or engine.yml found in %s", path)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadFromDir searches for engine.yaml starting from the given directory
// and walking up to parent directories until found or root is reached.
func LoadFromDir(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		config, err := Load(absDir)
		if err == nil {
			return config, nil
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			return nil, fmt.Errorf("no engine.yaml found in %s or parent directories", dir)
		}
		absDir = parent
	}
}

// LoadFromCurrentDir loads engine.yaml from the current working directory.
func LoadFromCurrentDir() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadFromDir(cwd)
}
