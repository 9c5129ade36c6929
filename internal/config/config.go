package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	Auth     AuthConfig     `mapstructure:"auth"`
	App      AppConfig      `mapstructure:"app"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// AuthConfig defines identity and session token configuration.
// BootstrapToken is an optional deployment-supplied custom token; when it is
// empty, sign-in without a token falls back to an anonymous identity.
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	SessionExpiration time.Duration `mapstructure:"session_expiration"`
	BootstrapToken    string        `mapstructure:"bootstrap_token"`
}

// AppConfig carries tenant identity and background job settings.
type AppConfig struct {
	TenantID        string `mapstructure:"tenant_id"`
	ArchiveSchedule string `mapstructure:"archive_schedule"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	// A local .env file, if present, seeds the process environment first.
	_ = godotenv.Load()

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variables override file values,
	// e.g. auth.jwt_secret -> AUTH_JWT_SECRET.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "health_tracker")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("auth.session_expiration", "24h")
	viper.SetDefault("app.tenant_id", "k-glow-tracker")
	viper.SetDefault("app.archive_schedule", "@daily")

	err = viper.ReadInConfig()
	// A missing config file is fine; env vars and defaults carry the load.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
