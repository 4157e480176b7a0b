package config

import (
	"fmt"
	"os"
	"strconv"
)

// ReplyNotifyPolicy controls who receives the notification created for a
// comment reply. The product has gone back and forth on this, so it is a
// deployment setting rather than hard-coded behavior.
type ReplyNotifyPolicy string

const (
	// NotifyPostAuthor notifies the author of the post being commented on.
	NotifyPostAuthor ReplyNotifyPolicy = "post_author"
	// NotifyCommentAuthor notifies the author of the parent comment.
	NotifyCommentAuthor ReplyNotifyPolicy = "comment_author"
)

// Config holds all process-level configuration, loaded from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	JWTSecret []byte

	// VAPID key pair for web push, established at process start.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	// Push transport timeout in seconds.
	PushTimeoutSeconds int

	ReplyNotify ReplyNotifyPolicy

	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string
}

// Load reads configuration from environment variables. Only the JWT secret
// is mandatory; everything else has a development default.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8787"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "server.log"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: []byte(secret),

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubscriber: getEnvOrDefault("VAPID_SUBSCRIBER", "admin@chirp.social"),

		PushTimeoutSeconds: getEnvIntOrDefault("PUSH_TIMEOUT_SECONDS", 10),

		ReplyNotify: ReplyNotifyPolicy(getEnvOrDefault("REPLY_NOTIFY", string(NotifyPostAuthor))),

		AWSRegion:  getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),
	}

	if cfg.ReplyNotify != NotifyPostAuthor && cfg.ReplyNotify != NotifyCommentAuthor {
		return nil, fmt.Errorf("invalid REPLY_NOTIFY value %q", cfg.ReplyNotify)
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns an integer environment variable or default value
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
