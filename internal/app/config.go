package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/envutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	Port string

	JWTSecretKey string
	TokenTTL     time.Duration

	StorageMode string
	StorageDir  string
	GCSBucket   string
}

// fileConfig is the optional YAML overlay loaded from CONFIG_FILE. Every
// field is a pointer so an absent key leaves the env-derived value alone.
type fileConfig struct {
	ServiceName  *string `yaml:"service_name"`
	Environment  *string `yaml:"environment"`
	Port         *string `yaml:"port"`
	JWTSecretKey *string `yaml:"jwt_secret_key"`
	TokenTTLSecs *int    `yaml:"token_ttl_seconds"`
	StorageMode  *string `yaml:"storage_mode"`
	StorageDir   *string `yaml:"storage_dir"`
	GCSBucket    *string `yaml:"gcs_bucket"`
}

// LoadConfig reads configuration from the environment, then applies the YAML
// file named by CONFIG_FILE on top when one is set.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		ServiceName:  envutil.String("SERVICE_NAME", "kenshuhub-backend"),
		Environment:  envutil.String("APP_ENV", "development"),
		Version:      envutil.String("APP_VERSION", "dev"),
		Port:         envutil.String("PORT", "8080"),
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		TokenTTL:     time.Duration(envutil.Int("TOKEN_TTL", 86400)) * time.Second,
		StorageMode:  envutil.String("STORAGE_MODE", "local"),
		StorageDir:   envutil.String("STORAGE_DIR", "uploads/videos"),
		GCSBucket:    envutil.String("GCS_BUCKET", ""),
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.ServiceName != nil {
		cfg.ServiceName = *fc.ServiceName
	}
	if fc.Environment != nil {
		cfg.Environment = *fc.Environment
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.JWTSecretKey != nil {
		cfg.JWTSecretKey = *fc.JWTSecretKey
	}
	if fc.TokenTTLSecs != nil {
		cfg.TokenTTL = time.Duration(*fc.TokenTTLSecs) * time.Second
	}
	if fc.StorageMode != nil {
		cfg.StorageMode = *fc.StorageMode
	}
	if fc.StorageDir != nil {
		cfg.StorageDir = *fc.StorageDir
	}
	if fc.GCSBucket != nil {
		cfg.GCSBucket = *fc.GCSBucket
	}

	log.Info("Loaded config overlay", "path", path)
	return cfg, nil
}
