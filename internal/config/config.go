package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	PostgresDSN string `yaml:"postgres_dsn"`

	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`

	AWSRegion              string `yaml:"aws_region"`
	BedrockAgentID         string `yaml:"bedrock_agent_id"`
	BedrockAgentAliasID    string `yaml:"bedrock_agent_alias_id"`
	BedrockKnowledgeBaseID string `yaml:"bedrock_knowledge_base_id"`

	StorageBackend string `yaml:"storage_backend"`
	S3BucketName   string `yaml:"s3_bucket_name"`
	S3EndpointURL  string `yaml:"s3_endpoint_url"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	StoragePath    string `yaml:"storage_path"`

	ConfidenceThreshold    float64 `yaml:"confidence_threshold"`
	ClassifyBudgetSeconds  int     `yaml:"classify_budget_seconds"`
	AgentMaxAttempts       int     `yaml:"agent_max_attempts"`
	AgentRetryBaseMs       int     `yaml:"agent_retry_base_ms"`
	StorageMaxAttempts     int     `yaml:"storage_max_attempts"`
	StorageRetryDelayMs    int     `yaml:"storage_retry_delay_ms"`
	FieldExtractionEnabled bool    `yaml:"field_extraction_enabled"`

	CostBaseUSD      float64 `yaml:"cost_base_usd"`
	CostPerSecondUSD float64 `yaml:"cost_per_second_usd"`

	MaxUploadBytes    int64 `yaml:"max_upload_bytes"`
	APIRateLimitRPS   int   `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst int   `yaml:"api_rate_limit_burst"`

	WorkerMetricsPort string `yaml:"worker_metrics_port"`
}

// Load builds the configuration from environment variables. When CONFIG_FILE
// points at a YAML file, its values are applied first and env vars override.
func Load() (Config, error) {
	cfg := Config{
		APIPort:  "8080",
		LogLevel: "info",

		NATSURL:     "nats://localhost:4222",
		NATSSubject: "documents.uploaded",

		AWSRegion: "us-west-2",

		StorageBackend: "s3",
		StoragePath:    "./data/storage",

		ConfidenceThreshold:    0.60,
		ClassifyBudgetSeconds:  30,
		AgentMaxAttempts:       3,
		AgentRetryBaseMs:       250,
		StorageMaxAttempts:     4,
		StorageRetryDelayMs:    200,
		FieldExtractionEnabled: true,

		CostBaseUSD:      0.0008,
		CostPerSecondUSD: 0.00012,

		MaxUploadBytes:    32 << 20,
		APIRateLimitRPS:   20,
		APIRateLimitBurst: 40,

		WorkerMetricsPort: "9090",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	envString(&cfg.APIPort, "API_PORT")
	envString(&cfg.LogLevel, "LOG_LEVEL")
	envString(&cfg.PostgresDSN, "POSTGRES_DSN")
	envString(&cfg.NATSURL, "NATS_URL")
	envString(&cfg.NATSSubject, "NATS_SUBJECT")
	envString(&cfg.AWSRegion, "AWS_REGION")
	envString(&cfg.BedrockAgentID, "BEDROCK_AGENT_ID")
	envString(&cfg.BedrockAgentAliasID, "BEDROCK_AGENT_ALIAS_ID")
	envString(&cfg.BedrockKnowledgeBaseID, "BEDROCK_KNOWLEDGE_BASE_ID")
	envString(&cfg.StorageBackend, "STORAGE_BACKEND")
	envString(&cfg.S3BucketName, "S3_BUCKET_NAME")
	envString(&cfg.S3EndpointURL, "S3_ENDPOINT_URL")
	envString(&cfg.S3AccessKey, "S3_ACCESS_KEY")
	envString(&cfg.S3SecretKey, "S3_SECRET_KEY")
	envString(&cfg.StoragePath, "STORAGE_PATH")
	envFloat(&cfg.ConfidenceThreshold, "CONFIDENCE_THRESHOLD")
	envInt(&cfg.ClassifyBudgetSeconds, "CLASSIFY_BUDGET_SECONDS")
	envInt(&cfg.AgentMaxAttempts, "AGENT_MAX_ATTEMPTS")
	envInt(&cfg.AgentRetryBaseMs, "AGENT_RETRY_BASE_MS")
	envInt(&cfg.StorageMaxAttempts, "STORAGE_MAX_ATTEMPTS")
	envInt(&cfg.StorageRetryDelayMs, "STORAGE_RETRY_DELAY_MS")
	envBool(&cfg.FieldExtractionEnabled, "FIELD_EXTRACTION_ENABLED")
	envFloat(&cfg.CostBaseUSD, "COST_BASE_USD")
	envFloat(&cfg.CostPerSecondUSD, "COST_PER_SECOND_USD")
	envInt64(&cfg.MaxUploadBytes, "MAX_UPLOAD_BYTES")
	envInt(&cfg.APIRateLimitRPS, "API_RATE_LIMIT_RPS")
	envInt(&cfg.APIRateLimitBurst, "API_RATE_LIMIT_BURST")
	envString(&cfg.WorkerMetricsPort, "WORKER_METRICS_PORT")
}

func (c Config) validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold %v out of range [0,1]", c.ConfidenceThreshold)
	}
	if c.StorageBackend != "s3" && c.StorageBackend != "localfs" {
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.StorageBackend == "s3" && c.S3BucketName == "" {
		return fmt.Errorf("s3 storage backend requires S3_BUCKET_NAME")
	}
	if c.AgentMaxAttempts < 1 {
		return fmt.Errorf("agent max attempts must be >= 1")
	}
	if c.StorageMaxAttempts < 1 {
		return fmt.Errorf("storage max attempts must be >= 1")
	}
	return nil
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
