package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"github.com/suPer8Hu/chat-exchange/internal/ai"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr  string
	DBDSN     string
	JWTSecret string

	// MessageStore selects the conversation log backend: "sql" or "bolt".
	MessageStore string
	BoltPath     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SendRateLimit int // sends per user per minute; 0 disables

	// rabbitMQ
	RabbitURL         string
	RabbitQueue       string
	WorkerConcurrency int

	// AI providers
	GeminiAPIKey      string
	GeminiBaseURL     string
	OllamaBaseURL     string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterSiteURL string
	OpenRouterAppName string
	ProviderTimeout   time.Duration

	// Models is the allow-list of tags chat.send accepts.
	Models []ai.ModelDescriptor
}

type modelsFile struct {
	Models []ai.ModelDescriptor `yaml:"models"`
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Load reads configuration from the environment, after loading a .env file in
// the working directory if one exists.
func Load() (Config, error) {
	_ = gotenv.Load()

	// DSN demo：
	// app:apppass@tcp(127.0.0.1:3306)/chat_exchange?charset=utf8mb4&parseTime=true&loc=UTC
	// sqlite:data/chat.db
	dsn := getenv("DB_DSN", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		"app", "apppass", "127.0.0.1", "3306", "chat_exchange",
	))

	timeout := 90 * time.Second
	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("config: invalid PROVIDER_TIMEOUT %q", v)
		}
		timeout = d
	}

	concurrency := getenvInt("WORKER_CONCURRENCY", 2)
	if concurrency <= 0 {
		concurrency = 2
	}
	if concurrency > 50 {
		concurrency = 50
	}

	store := strings.ToLower(getenv("MESSAGE_STORE", "sql"))
	if store != "sql" && store != "bolt" {
		return Config{}, fmt.Errorf("config: unsupported MESSAGE_STORE %q", store)
	}

	models, err := loadModels()
	if err != nil {
		return Config{}, err
	}

	return Config{
		HTTPAddr:  getenv("HTTP_ADDR", ":8080"),
		DBDSN:     dsn,
		JWTSecret: getenv("JWT_SECRET", "dev-secret-change-me"),

		MessageStore: store,
		BoltPath:     getenv("BOLT_PATH", "data/messages.bolt"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),
		SendRateLimit: getenvInt("SEND_RATE_LIMIT", 20),

		RabbitURL:         os.Getenv("RABBIT_URL"),
		RabbitQueue:       getenv("RABBIT_QUEUE", "chat_exchanges"),
		WorkerConcurrency: concurrency,

		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		OllamaBaseURL:     getenv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OpenRouterBaseURL: getenv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),
		ProviderTimeout:   timeout,

		Models: models,
	}, nil
}

// loadModels reads MODELS_FILE if set. Otherwise the allow-list is the single
// Gemini model named by GEMINI_MODEL.
func loadModels() ([]ai.ModelDescriptor, error) {
	path := os.Getenv("MODELS_FILE")
	if path == "" {
		m := getenv("GEMINI_MODEL", "gemini-1.5-flash")
		return []ai.ModelDescriptor{{Tag: m, Provider: "gemini", Model: m}}, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read MODELS_FILE: %w", err)
	}
	var f modelsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("config: parse MODELS_FILE: %w", err)
	}
	if len(f.Models) == 0 {
		return nil, fmt.Errorf("config: MODELS_FILE %s lists no models", path)
	}
	for i := range f.Models {
		m := &f.Models[i]
		m.Tag = strings.TrimSpace(m.Tag)
		m.Provider = strings.TrimSpace(m.Provider)
		m.Model = strings.TrimSpace(m.Model)
		if m.Model == "" {
			m.Model = m.Tag
		}
	}
	return f.Models, nil
}
