package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                    string
	Env                     string
	MetricsPort             string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	RedisAddr               string
	RedisPassword           string
	RelationCacheTTL        time.Duration
	JWTSecret               string
	JWTTTL                  time.Duration
	FirebaseCredentialsPath string
	UploadDir               string
	CORSOrigins             []string
	ClientURL               string
	WSEventsPerSecond       float64
}

const devJWTSecret = "supersecretjwtkey"

// Load reads configuration from the environment, after merging an optional .env file.
func Load() (*Config, error) {
	// Missing .env is normal in containers.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("METRICS_PORT", "9090")
	v.SetDefault("MONGO_DATABASE", "bubbly")
	v.SetDefault("RELATION_CACHE_TTL", "5m")
	v.SetDefault("JWT_TTL", "72h")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("CLIENT_URL", "http://localhost:5173")
	v.SetDefault("WS_EVENTS_PER_SECOND", 10)

	cfg := &Config{
		Port:                    v.GetString("PORT"),
		Env:                     v.GetString("ENV"),
		MetricsPort:             v.GetString("METRICS_PORT"),
		PostgresConnStr:         v.GetString("POSTGRES_CONN_STR"),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDatabase:           v.GetString("MONGO_DATABASE"),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RelationCacheTTL:        v.GetDuration("RELATION_CACHE_TTL"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		JWTTTL:                  v.GetDuration("JWT_TTL"),
		FirebaseCredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		UploadDir:               v.GetString("UPLOAD_DIR"),
		CORSOrigins:             splitList(v.GetString("CORS_ORIGINS")),
		ClientURL:               v.GetString("CLIENT_URL"),
		WSEventsPerSecond:       v.GetFloat64("WS_EVENTS_PER_SECOND"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	if c.PostgresConnStr == "" {
		return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI environment variable not set")
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET environment variable not set")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.WSEventsPerSecond <= 0 {
		return fmt.Errorf("WS_EVENTS_PER_SECOND must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
