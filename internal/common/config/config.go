package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `yaml:"port"`
	Environment  string `yaml:"env"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`
	CORSOrigins  string `yaml:"cors_origins"`

	Editor     EditorConfig     `yaml:"editor"`
	Simplifier SimplifierConfig `yaml:"simplifier"`
	Gateway    GatewayConfig    `yaml:"gateway"`
}

type EditorConfig struct {
	Storage     string `yaml:"storage"` // sqlite | file
	DBPath      string `yaml:"db_path"`
	DataDir     string `yaml:"data_dir"`
	SaveTimeout int    `yaml:"save_timeout"` // секунды
}

type SimplifierConfig struct {
	URL       string  `yaml:"url"`
	Timeout   int     `yaml:"timeout"` // секунды
	Tolerance float64 `yaml:"tolerance"`
}

type GatewayConfig struct {
	EditorURL    string `yaml:"editor_url"`
	ProxyTimeout int    `yaml:"proxy_timeout"` // секунды
}

func (c *Config) SaveTimeout() time.Duration {
	return time.Duration(c.Editor.SaveTimeout) * time.Second
}

func (c *Config) SimplifierTimeout() time.Duration {
	return time.Duration(c.Simplifier.Timeout) * time.Second
}

func (c *Config) ProxyTimeout() time.Duration {
	return time.Duration(c.Gateway.ProxyTimeout) * time.Second
}

func defaults() *Config {
	return &Config{
		Port:         "3000",
		Environment:  "development",
		ReadTimeout:  10,
		WriteTimeout: 10,
		CORSOrigins:  "*",
		Editor: EditorConfig{
			Storage:     "sqlite",
			DBPath:      "data/db/editor.db",
			DataDir:     "data/floors",
			SaveTimeout: 10,
		},
		Simplifier: SimplifierConfig{
			URL:       "http://localhost:3001",
			Timeout:   15,
			Tolerance: 0.5,
		},
		Gateway: GatewayConfig{
			EditorURL:    "http://localhost:3002",
			ProxyTimeout: 60,
		},
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем YAML из CONFIG_FILE,
// затем переменные окружения (они важнее файла).
func Load() *Config {
	return load(defaults())
}

// LoadService работает как Load, но с портом сервиса по умолчанию. Порт из YAML и PORT важнее.
func LoadService(defaultPort string) *Config {
	cfg := defaults()
	cfg.Port = defaultPort
	return load(cfg)
}

func load(cfg *Config) *Config {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			log.Printf("[CONFIG] %v, using env and defaults", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.ReadTimeout = getEnvAsInt("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)

	cfg.Editor.Storage = getEnv("EDITOR_STORAGE", cfg.Editor.Storage)
	cfg.Editor.DBPath = getEnv("EDITOR_DB_PATH", cfg.Editor.DBPath)
	cfg.Editor.DataDir = getEnv("EDITOR_DATA_DIR", cfg.Editor.DataDir)
	cfg.Editor.SaveTimeout = getEnvAsInt("SAVE_TIMEOUT", cfg.Editor.SaveTimeout)

	cfg.Simplifier.URL = getEnv("SIMPLIFIER_URL", cfg.Simplifier.URL)
	cfg.Simplifier.Timeout = getEnvAsInt("SIMPLIFIER_TIMEOUT", cfg.Simplifier.Timeout)
	cfg.Simplifier.Tolerance = getEnvAsFloat("SIMPLIFY_TOLERANCE", cfg.Simplifier.Tolerance)

	cfg.Gateway.EditorURL = getEnv("EDITOR_URL", cfg.Gateway.EditorURL)
	cfg.Gateway.ProxyTimeout = getEnvAsInt("PROXY_TIMEOUT", cfg.Gateway.ProxyTimeout)

	return cfg
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
