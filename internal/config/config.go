package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Redis      RedisConfig
	NATS       NATSConfig
	Completion CompletionConfig
	Search     SearchConfig
	TTS        TTSConfig
	Pipeline   PipelineConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	URL     string
	Enabled bool
}

// CompletionConfig configures the chat-completion provider. BaseURL may point
// at any OpenAI-compatible endpoint (api.together.xyz works unchanged).
type CompletionConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

type SearchConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type TTSConfig struct {
	APIKey         string
	BaseURL        string
	VoiceID        string
	Timeout        time.Duration
	AudioDir       string
	DailyCharLimit int
}

// PipelineConfig holds the knobs of the conversation pipeline itself.
type PipelineConfig struct {
	HistoryLimit      int
	RateLimitMax      int
	RateLimitWindow   time.Duration
	DupQueryWindow    time.Duration
	TokenBudget       int
	ReplyTokenReserve int

	EnableProfile bool
	EnableSearch  bool
	EnableTone    bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		DB: DBConfig{
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MigrationsPath: k.String("db.migrations.path"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL:     k.String("nats.url"),
			Enabled: k.Bool("nats.enabled"),
		},
		Completion: CompletionConfig{
			APIKey:     k.String("completion.api.key"),
			BaseURL:    k.String("completion.base.url"),
			Model:      k.String("completion.model"),
			MaxRetries: k.Int("completion.max.retries"),
		},
		Search: SearchConfig{
			APIKey:  k.String("search.api.key"),
			BaseURL: k.String("search.base.url"),
		},
		TTS: TTSConfig{
			APIKey:         k.String("tts.api.key"),
			BaseURL:        k.String("tts.base.url"),
			VoiceID:        k.String("tts.voice.id"),
			AudioDir:       k.String("tts.audio.dir"),
			DailyCharLimit: k.Int("tts.daily.char.limit"),
		},
		Pipeline: PipelineConfig{
			HistoryLimit:      k.Int("pipeline.history.limit"),
			RateLimitMax:      k.Int("pipeline.rate.limit.max"),
			TokenBudget:       k.Int("pipeline.token.budget"),
			ReplyTokenReserve: k.Int("pipeline.reply.token.reserve"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "felix"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "felix"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.DB.MigrationsPath == "" {
		cfg.DB.MigrationsPath = "migrations"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.Completion.BaseURL == "" {
		cfg.Completion.BaseURL = "https://api.together.xyz/v1"
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free"
	}
	if cfg.Completion.MaxRetries == 0 {
		cfg.Completion.MaxRetries = 3
	}
	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = "https://google.serper.dev"
	}
	if cfg.TTS.BaseURL == "" {
		cfg.TTS.BaseURL = "https://api.elevenlabs.io"
	}
	if cfg.TTS.VoiceID == "" {
		cfg.TTS.VoiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	if cfg.TTS.AudioDir == "" {
		cfg.TTS.AudioDir = "/tmp/felix-audio"
	}
	if cfg.TTS.DailyCharLimit == 0 {
		cfg.TTS.DailyCharLimit = 1000
	}
	if cfg.Pipeline.HistoryLimit == 0 {
		cfg.Pipeline.HistoryLimit = 20
	}
	if cfg.Pipeline.RateLimitMax == 0 {
		cfg.Pipeline.RateLimitMax = 20
	}
	if cfg.Pipeline.TokenBudget == 0 {
		cfg.Pipeline.TokenBudget = 8192
	}
	if cfg.Pipeline.ReplyTokenReserve == 0 {
		cfg.Pipeline.ReplyTokenReserve = 2048
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Feature flags default to on; an explicit "false" disables them.
	cfg.Pipeline.EnableProfile = boolDefault(k, "pipeline.enable.profile", true)
	cfg.Pipeline.EnableSearch = boolDefault(k, "pipeline.enable.search", true)
	cfg.Pipeline.EnableTone = boolDefault(k, "pipeline.enable.tone", true)

	// Parse durations
	cfg.Completion.Timeout, err = durationDefault(k, "completion.timeout", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Search.Timeout, err = durationDefault(k, "search.timeout", 8*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.TTS.Timeout, err = durationDefault(k, "tts.timeout", 20*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Pipeline.RateLimitWindow, err = durationDefault(k, "pipeline.rate.limit.window", 60*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.Pipeline.DupQueryWindow, err = durationDefault(k, "pipeline.dup.query.window", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func boolDefault(k *koanf.Koanf, key string, def bool) bool {
	if !k.Exists(key) {
		return def
	}
	return k.Bool(key)
}

func durationDefault(k *koanf.Koanf, key string, def time.Duration) (time.Duration, error) {
	s := k.String(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}
