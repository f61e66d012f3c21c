/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application
 * settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the ambassador service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix    string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	EventExchange           string `mapstructure:"EVENT_EXCHANGE"`
	AllowedOrigins          string `mapstructure:"ALLOWED_ORIGINS"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	AccessTokenTTLMinutes   int    `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
	ActivationTokenTTLHours int    `mapstructure:"ACTIVATION_TOKEN_TTL_HOURS"`
	LoginRateLimitPerMinute int    `mapstructure:"LOGIN_RATE_LIMIT_PER_MINUTE"`
	KYCDocumentMaxBytes     int64  `mapstructure:"KYC_DOCUMENT_MAX_BYTES"`
	ReceiptImageMaxBytes    int64  `mapstructure:"RECEIPT_IMAGE_MAX_BYTES"`
	S3Bucket                string `mapstructure:"S3_BUCKET"`
	S3Region                string `mapstructure:"S3_REGION"`
	S3Endpoint              string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey             string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey             string `mapstructure:"S3_SECRET_KEY"`
	PresignTTLMinutes       int    `mapstructure:"PRESIGN_TTL_MINUTES"`
	ActivationPurgeSchedule string `mapstructure:"ACTIVATION_PURGE_SCHEDULE"`
	StaleReceiptSchedule    string `mapstructure:"STALE_RECEIPT_SCHEDULE"`
	StaleReceiptAgeHours    int    `mapstructure:"STALE_RECEIPT_AGE_HOURS"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("EVENT_EXCHANGE", "ambassador.events")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "ambassador:rate_limit")
	viper.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 60)
	viper.SetDefault("ACTIVATION_TOKEN_TTL_HOURS", 48)
	viper.SetDefault("LOGIN_RATE_LIMIT_PER_MINUTE", 5)
	viper.SetDefault("KYC_DOCUMENT_MAX_BYTES", 5<<20)
	viper.SetDefault("RECEIPT_IMAGE_MAX_BYTES", 10<<20)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("PRESIGN_TTL_MINUTES", 15)
	viper.SetDefault("ACTIVATION_PURGE_SCHEDULE", "30 * * * *")
	viper.SetDefault("STALE_RECEIPT_SCHEDULE", "0 6 * * *")
	viper.SetDefault("STALE_RECEIPT_AGE_HOURS", 72)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENT_EXCHANGE")
	_ = viper.BindEnv("ALLOWED_ORIGINS")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("ACCESS_TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("ACTIVATION_TOKEN_TTL_HOURS")
	_ = viper.BindEnv("LOGIN_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("KYC_DOCUMENT_MAX_BYTES")
	_ = viper.BindEnv("RECEIPT_IMAGE_MAX_BYTES")
	_ = viper.BindEnv("S3_BUCKET")
	_ = viper.BindEnv("S3_REGION")
	_ = viper.BindEnv("S3_ENDPOINT")
	_ = viper.BindEnv("S3_ACCESS_KEY")
	_ = viper.BindEnv("S3_SECRET_KEY")
	_ = viper.BindEnv("PRESIGN_TTL_MINUTES")
	_ = viper.BindEnv("ACTIVATION_PURGE_SCHEDULE")
	_ = viper.BindEnv("STALE_RECEIPT_SCHEDULE")
	_ = viper.BindEnv("STALE_RECEIPT_AGE_HOURS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// Platform-provided PORT (e.g. Railway/Render) wins over SERVER_PORT.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "ambassador:rate_limit"
	}

	if config.AccessTokenTTLMinutes <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive access token ttl; using default\" minutes=%d", config.AccessTokenTTLMinutes)
		config.AccessTokenTTLMinutes = 60
	}
	if config.ActivationTokenTTLHours <= 0 {
		config.ActivationTokenTTLHours = 48
	}
	if config.LoginRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative login rate limit; disabling limiter\" limit=%d", config.LoginRateLimitPerMinute)
		config.LoginRateLimitPerMinute = 0
	}
	if config.KYCDocumentMaxBytes <= 0 {
		config.KYCDocumentMaxBytes = 5 << 20
	}
	if config.ReceiptImageMaxBytes <= 0 {
		config.ReceiptImageMaxBytes = 10 << 20
	}
	if config.StaleReceiptAgeHours <= 0 {
		config.StaleReceiptAgeHours = 72
	}

	return
}

// Origins splits ALLOWED_ORIGINS into a slice for the CORS middleware.
func (c Config) Origins() []string {
	raw := strings.TrimSpace(c.AllowedOrigins)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
