package config

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr  = ":8080"
	defaultModelPath = "models/viti.yaml"
)

type Config struct {
	TelegramToken string
	HTTPAddr      string
	JWTSecret     string // пусто — REST без авторизации
	DatabaseDSN   string // пусто — история в памяти
	ModelPath     string
	LogLevel      string
	PipelinePath  string

	Pipeline *PipelineConfig
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:      getenv("HTTP_ADDR", defaultHTTPAddr),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		ModelPath:     getenv("MODEL_PATH", defaultModelPath),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		PipelinePath:  os.Getenv("PIPELINE_CONFIG"),
	}

	pipeline, err := LoadPipeline(cfg.PipelinePath)
	if err != nil {
		return nil, err
	}
	cfg.Pipeline = pipeline

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
