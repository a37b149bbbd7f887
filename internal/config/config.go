package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	LogLevel   string        `mapstructure:"log_level"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Room      RoomConfig      `mapstructure:"room"`
	Auth      AuthConfig      `mapstructure:"auth"`
	DB        DBConfig        `mapstructure:"db"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Search    SearchConfig    `mapstructure:"search"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	WS        WSConfig        `mapstructure:"ws"`
}

type RoomConfig struct {
	FinalizeCooldown  time.Duration `mapstructure:"finalize_cooldown"`
	PlayDelay         time.Duration `mapstructure:"play_delay"`
	GraceWindow       time.Duration `mapstructure:"grace_window"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	InactiveThreshold time.Duration `mapstructure:"inactive_threshold"`
	MaxScore          int           `mapstructure:"max_score"`
	ScoreBias         float64       `mapstructure:"score_bias"`
	PerfectChance     float64       `mapstructure:"perfect_chance"`
	CodeAttempts      int           `mapstructure:"code_attempts"`
	TolerantSends     bool          `mapstructure:"tolerant_sends"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	AdminKey  string `mapstructure:"admin_key"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AnalyticsConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig enables the asynq worker and the shared rate limiter when Addr is set.
type RedisConfig struct {
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	Concurrency int    `mapstructure:"concurrency"`
}

type SearchConfig struct {
	YtDlpPath     string        `mapstructure:"ytdlp_path"`
	Results       int           `mapstructure:"results"`
	Timeout       time.Duration `mapstructure:"timeout"`
	YouTubeAPIKey string        `mapstructure:"youtube_api_key"`
}

type RateLimitConfig struct {
	SearchRequests int           `mapstructure:"search_requests"`
	SearchWindow   time.Duration `mapstructure:"search_window"`
}

type WSConfig struct {
	MessagesPerSecond int `mapstructure:"messages_per_second"`
	SendBuffer        int `mapstructure:"send_buffer"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "dev-session-secret")

	v.SetDefault("room.finalize_cooldown", "10s")
	v.SetDefault("room.play_delay", "800ms")
	v.SetDefault("room.grace_window", "1h")
	v.SetDefault("room.cleanup_interval", "30m")
	v.SetDefault("room.inactive_threshold", "2h")
	v.SetDefault("room.max_score", 100)
	v.SetDefault("room.score_bias", 2.0)
	v.SetDefault("room.perfect_chance", 0.01)
	v.SetDefault("room.code_attempts", 10)
	v.SetDefault("room.tolerant_sends", false)

	v.SetDefault("auth.jwt_secret", "dev-secret-change-in-production")
	v.SetDefault("auth.admin_key", "")

	v.SetDefault("db.path", "./data/karaoke.db")
	v.SetDefault("analytics.path", "./data/analytics.jsonl")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.concurrency", 4)

	v.SetDefault("search.ytdlp_path", "yt-dlp")
	v.SetDefault("search.results", 10)
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("search.youtube_api_key", "")

	v.SetDefault("ratelimit.search_requests", 30)
	v.SetDefault("ratelimit.search_window", "1m")

	v.SetDefault("ws.messages_per_second", 20)
	v.SetDefault("ws.send_buffer", 32)
}

var envBindings = map[string]string{
	"port":                   "PORT",
	"mode":                   "GIN_MODE",
	"auth.jwt_secret":        "JWT_SECRET",
	"auth.admin_key":         "ADMIN_KEY",
	"redis.addr":             "REDIS_ADDR",
	"redis.password":         "REDIS_PASSWORD",
	"search.youtube_api_key": "YOUTUBE_API_KEY",
	"db.path":                "DB_PATH",
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)
	for key, name := range envBindings {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Mode == "release" && cfg.Auth.JWTSecret == "dev-secret-change-in-production" {
		return nil, fmt.Errorf("auth.jwt_secret must be set in release mode")
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Static: %s\n", cfg.Mode, cfg.Port, cfg.StaticPath)
	return &cfg, nil
}
