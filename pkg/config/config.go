package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Server ServerConfig
	Model  ModelConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port         string
	MaxBatchSize int
}

type ModelConfig struct {
	OrtSharedLib  string
	ModelPath     string
	TokenizerPath string
	HeadPath      string
	MaxSeqLen     int
	ModelID       string
}

// Load reads configuration from the environment, with a best-effort .env
// file. Model artifact paths are mandatory; everything else has defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "leanscope"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8000"),
			MaxBatchSize: getEnvInt("MAX_BATCH_SIZE", 512),
		},
		Model: ModelConfig{
			OrtSharedLib:  getEnv("ORT_SHARED_LIB", ""),
			ModelPath:     getEnv("MODEL_PATH", ""),
			TokenizerPath: getEnv("TOKENIZER_PATH", ""),
			HeadPath:      getEnv("HEAD_PATH", ""),
			MaxSeqLen:     getEnvInt("MAX_SEQ_LEN", 256),
			ModelID:       getEnv("MODEL_ID", ""),
		},
	}

	if cfg.Model.ModelPath == "" {
		return nil, errors.New("missing MODEL_PATH")
	}
	if cfg.Model.TokenizerPath == "" {
		return nil, errors.New("missing TOKENIZER_PATH")
	}
	if cfg.Model.HeadPath == "" {
		return nil, errors.New("missing HEAD_PATH")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
