package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	authErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration
	Issuer             string
	Audience           string

	PasswordPepper    string
	Argon2MemoryKiB   uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8

	HTTPAddress      string
	GRPCAddress      string
	AllowedOrigins   []string
	AllowCredentials bool
	HTTPSCertFile    string
	HTTPSKeyFile     string

	LogLevel string

	// BootstrapAdmin* provision an ADMIN account at startup when both are set.
	BootstrapAdminUsername string
	BootstrapAdminPassword string
}

var required = []string{
	"DATABASE_URL",
	"REDIS_ADDRESS",
	"ACCESS_TOKEN_SECRET",
	"ACCESS_TOKEN_TTL",
	"REFRESH_TOKEN_SECRET",
	"REFRESH_TOKEN_TTL",
}

// Load reads config.json from the working directory (if any) and
// overlays the environment. Every failure is an ErrConfiguration.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("GRPC_ADDRESS", ":50051")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ARGON2_MEMORY_KIB", 64*1024)
	v.SetDefault("ARGON2_ITERATIONS", 2)
	v.SetDefault("ARGON2_PARALLELISM", 4)
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, authErrors.NewConfiguration(fmt.Sprintf("read config file: %v", err))
		}
	}

	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return nil, authErrors.NewConfiguration(key + " is not set")
		}
	}

	accessTTL, err := duration(v, "ACCESS_TOKEN_TTL")
	if err != nil {
		return nil, err
	}
	refreshTTL, err := duration(v, "REFRESH_TOKEN_TTL")
	if err != nil {
		return nil, err
	}

	origins, err := stringList(v.GetString("ALLOWED_ORIGINS"))
	if err != nil {
		return nil, authErrors.NewConfiguration(fmt.Sprintf("ALLOWED_ORIGINS: %v", err))
	}

	parallelism := v.GetUint("ARGON2_PARALLELISM")
	if parallelism > math.MaxUint8 {
		return nil, authErrors.NewConfiguration(fmt.Sprintf("ARGON2_PARALLELISM: %d exceeds %d", parallelism, math.MaxUint8))
	}

	cfg := &Config{
		DatabaseURL:        v.GetString("DATABASE_URL"),
		RedisAddress:       v.GetString("REDIS_ADDRESS"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		AccessTokenSecret:  v.GetString("ACCESS_TOKEN_SECRET"),
		AccessTokenTTL:     accessTTL,
		RefreshTokenSecret: v.GetString("REFRESH_TOKEN_SECRET"),
		RefreshTokenTTL:    refreshTTL,
		Issuer:             v.GetString("JWT_ISSUER"),
		Audience:           v.GetString("JWT_AUDIENCE"),
		PasswordPepper:     v.GetString("PASSWORD_PEPPER"),
		Argon2MemoryKiB:    v.GetUint32("ARGON2_MEMORY_KIB"),
		Argon2Iterations:   v.GetUint32("ARGON2_ITERATIONS"),
		Argon2Parallelism:  uint8(parallelism),
		HTTPAddress:        v.GetString("HTTP_ADDRESS"),
		GRPCAddress:        v.GetString("GRPC_ADDRESS"),
		AllowedOrigins:     origins,
		AllowCredentials:   v.GetBool("ALLOW_CREDENTIALS"),
		HTTPSCertFile:      v.GetString("HTTPS_CERT_FILE"),
		HTTPSKeyFile:       v.GetString("HTTPS_KEY_FILE"),
		LogLevel:           v.GetString("LOG_LEVEL"),

		BootstrapAdminUsername: v.GetString("BOOTSTRAP_ADMIN_USERNAME"),
		BootstrapAdminPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the token settings the signer cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.AccessTokenSecret == "":
		return authErrors.NewConfiguration("access token secret is empty")
	case c.RefreshTokenSecret == "":
		return authErrors.NewConfiguration("refresh token secret is empty")
	case c.AccessTokenSecret == c.RefreshTokenSecret:
		return authErrors.NewConfiguration("access and refresh token secrets must differ")
	case c.AccessTokenTTL <= 0:
		return authErrors.NewConfiguration("access token ttl must be positive")
	case c.RefreshTokenTTL <= 0:
		return authErrors.NewConfiguration("refresh token ttl must be positive")
	case (c.HTTPSCertFile == "") != (c.HTTPSKeyFile == ""):
		return authErrors.NewConfiguration("HTTPS_CERT_FILE and HTTPS_KEY_FILE must be set together")
	case (c.BootstrapAdminUsername == "") != (c.BootstrapAdminPassword == ""):
		return authErrors.NewConfiguration("BOOTSTRAP_ADMIN_USERNAME and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return nil
}

// TLSEnabled reports whether both listeners should serve TLS.
func (c *Config) TLSEnabled() bool {
	return c.HTTPSCertFile != "" && c.HTTPSKeyFile != ""
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, authErrors.NewConfiguration(fmt.Sprintf("%s: %v", key, err))
	}
	return d, nil
}

// stringList accepts either a JSON array or a comma separated list.
func stringList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
