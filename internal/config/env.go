package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gopkg.in/yaml.v3"
)

// Tuning holds the pipeline knobs that operators adjust per deployment.
// Loaded from an optional YAML file (PIPELINE_CONFIG); zero values keep the
// pipeline defaults.
type Tuning struct {
	ChunkSize         int     `yaml:"chunk_size"`
	ChunkOverlap      int     `yaml:"chunk_overlap"`
	SubBatchSize      int     `yaml:"sub_batch_size"`
	MaxBatches        int     `yaml:"max_batches"`
	MaxEmbedRetries   int     `yaml:"max_embed_retries"`
	RetryBaseDelayMS  int     `yaml:"retry_base_delay_ms"`
	EmbedRPS          float64 `yaml:"embed_rps"`
	PollIntervalSec   int     `yaml:"poll_interval_sec"`
	WorkerConcurrency int     `yaml:"worker_concurrency"`
}

type Config struct {
	DatabaseURL  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	AIAPIKey     string
	EmbedModel   string
	Pipeline     Tuning
}

// LoadConfig loads the environment variables (plus an optional YAML tuning
// file) and returns the config.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "ingesta-docs"),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		Pipeline: Tuning{
			EmbedRPS:          1,
			PollIntervalSec:   getEnvInt("POLL_INTERVAL_SEC", 5),
			WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 2),
		},
	}

	if path := getEnv("PIPELINE_CONFIG", ""); path != "" {
		if err := loadTuning(path, &cfg.Pipeline); err != nil {
			log.Fatalf("load pipeline config %q: %v", path, err)
		}
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

func loadTuning(path string, t *Tuning) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, t)
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
