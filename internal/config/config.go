package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vexsearch/mergebench/internal/segment"
)

var (
	// ErrMissingDataPath is returned when DATA_PEOPLE_PATH is not set.
	ErrMissingDataPath = errors.New("DATA_PEOPLE_PATH is not set")
	// ErrMissingIndexPath is returned when INDEX_PEOPLE_PATH is not set.
	ErrMissingIndexPath = errors.New("INDEX_PEOPLE_PATH is not set")
	// ErrInvalidConfig wraps every range or enum violation.
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	// DataPeoplePath is the JSON array of people to index.
	DataPeoplePath string `json:"data_people_path"`
	// IndexPeoplePath is the index directory, or the key prefix for s3.
	IndexPeoplePath string `json:"index_people_path"`

	LogLevel    string        `json:"log_level"`
	MetricsAddr string        `json:"metrics_addr"`
	Storage     StorageConfig `json:"storage"`
	Index       IndexConfig   `json:"index"`
	Bench       BenchConfig   `json:"bench"`
}

type StorageConfig struct {
	// Type is "fs", "memory" or "s3".
	Type string   `json:"type"`
	S3   S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
	UseSSL    bool   `json:"use_ssl"`
}

// IndexConfig holds index writer configuration.
type IndexConfig struct {
	// MergeWorkers is the size of the merge worker pool.
	// Default: 4
	MergeWorkers int `json:"merge_workers"`
	// MemoryBudgetMB is the buffered size that forces a segment flush.
	// Default: 50
	MemoryBudgetMB int `json:"memory_budget_mb"`
	// DocstoreCompression is "zstd", "lz4" or "none".
	DocstoreCompression string `json:"docstore_compression"`
}

// MemoryBudgetBytes returns the writer budget in bytes.
func (c IndexConfig) MemoryBudgetBytes() int {
	if c.MemoryBudgetMB <= 0 {
		return 50_000_000
	}
	return c.MemoryBudgetMB * 1_000_000
}

// BenchConfig holds run driver configuration.
type BenchConfig struct {
	// TargetDocs is the bin-packing target for the target_docs scenarios.
	// Default: 10000
	TargetDocs int `json:"target_docs"`
	// SettleDelayMs is slept before every scenario.
	SettleDelayMs int `json:"settle_delay_ms"`
	// Scenarios selects scenario labels to run. Empty means all.
	Scenarios []string `json:"scenarios"`
}

// SettleDelay returns the pause before every scenario.
func (c BenchConfig) SettleDelay() time.Duration {
	if c.SettleDelayMs <= 0 {
		return 0
	}
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Type: "fs",
			S3: S3Config{
				Endpoint:  "localhost:9000",
				Bucket:    "mergebench",
				AccessKey: "minioadmin",
				SecretKey: "minioadmin",
				Region:    "us-east-1",
			},
		},
		Index: IndexConfig{
			MergeWorkers:        4,
			MemoryBudgetMB:      50,
			DocstoreCompression: string(segment.CompressionZstd),
		},
		Bench: BenchConfig{
			TargetDocs: 10000,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MERGEBENCH_CONFIG")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if env := os.Getenv("DATA_PEOPLE_PATH"); env != "" {
		cfg.DataPeoplePath = env
	}
	if env := os.Getenv("INDEX_PEOPLE_PATH"); env != "" {
		cfg.IndexPeoplePath = env
	}
	if env := os.Getenv("MERGEBENCH_LOG_LEVEL"); env != "" {
		cfg.LogLevel = env
	}
	if env := os.Getenv("MERGEBENCH_METRICS_ADDR"); env != "" {
		cfg.MetricsAddr = env
	}

	if env := os.Getenv("MERGEBENCH_STORAGE_TYPE"); env != "" {
		cfg.Storage.Type = env
	}
	if env := os.Getenv("MERGEBENCH_S3_ENDPOINT"); env != "" {
		cfg.Storage.S3.Endpoint = env
	}
	if env := os.Getenv("MERGEBENCH_S3_BUCKET"); env != "" {
		cfg.Storage.S3.Bucket = env
	}
	if env := os.Getenv("MERGEBENCH_S3_ACCESS_KEY"); env != "" {
		cfg.Storage.S3.AccessKey = env
	}
	if env := os.Getenv("MERGEBENCH_S3_SECRET_KEY"); env != "" {
		cfg.Storage.S3.SecretKey = env
	}
	if env := os.Getenv("MERGEBENCH_S3_REGION"); env != "" {
		cfg.Storage.S3.Region = env
	}
	if env := os.Getenv("MERGEBENCH_S3_USE_SSL"); env != "" {
		cfg.Storage.S3.UseSSL = env == "true" || env == "1"
	}

	// Index writer configuration
	if env := os.Getenv("MERGEBENCH_MERGE_WORKERS"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Index.MergeWorkers = n
		}
	}
	if env := os.Getenv("MERGEBENCH_MEMORY_BUDGET_MB"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Index.MemoryBudgetMB = n
		}
	}
	if env := os.Getenv("MERGEBENCH_DOCSTORE_COMPRESSION"); env != "" {
		cfg.Index.DocstoreCompression = env
	}

	// Run driver configuration
	if env := os.Getenv("MERGEBENCH_TARGET_DOCS"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Bench.TargetDocs = n
		}
	}
	if env := os.Getenv("MERGEBENCH_SETTLE_DELAY_MS"); env != "" {
		if n, err := parseIntEnv(env); err == nil {
			cfg.Bench.SettleDelayMs = n
		}
	}
	if env := os.Getenv("MERGEBENCH_SCENARIOS"); env != "" {
		cfg.Bench.Scenarios = parseList(env)
	}

	return cfg, nil
}

// Validate checks the required paths and value ranges.
func (c *Config) Validate() error {
	if c.DataPeoplePath == "" {
		return ErrMissingDataPath
	}
	return c.ValidateIndex()
}

// ValidateIndex is Validate without the input data requirement, for
// commands that only touch the index.
func (c *Config) ValidateIndex() error {
	if c.IndexPeoplePath == "" && c.Storage.Type != "memory" {
		return ErrMissingIndexPath
	}

	var errs []error
	switch c.Storage.Type {
	case "", "fs", "memory":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("%w: s3 bucket is required", ErrInvalidConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown storage type %q", ErrInvalidConfig, c.Storage.Type))
	}
	if c.Index.MergeWorkers < 1 {
		errs = append(errs, fmt.Errorf("%w: merge_workers must be at least 1, got %d", ErrInvalidConfig, c.Index.MergeWorkers))
	}
	if c.Index.MemoryBudgetMB < 0 {
		errs = append(errs, fmt.Errorf("%w: memory_budget_mb must not be negative", ErrInvalidConfig))
	}
	if c.Index.DocstoreCompression != "" && !segment.Compression(c.Index.DocstoreCompression).IsValid() {
		errs = append(errs, fmt.Errorf("%w: unknown docstore compression %q", ErrInvalidConfig, c.Index.DocstoreCompression))
	}
	if c.Bench.TargetDocs < 1 {
		errs = append(errs, fmt.Errorf("%w: target_docs must be positive, got %d", ErrInvalidConfig, c.Bench.TargetDocs))
	}
	if c.Bench.SettleDelayMs < 0 {
		errs = append(errs, fmt.Errorf("%w: settle_delay_ms must not be negative", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

func parseIntEnv(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func parseList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
