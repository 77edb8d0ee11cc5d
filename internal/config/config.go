package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server reads at startup. Values come from
// config.env in the working directory, overridable by real environment
// variables.
type Config struct {
	HTTPAddr  string        `mapstructure:"HTTP_ADDR"`
	DSN       string        `mapstructure:"DSN"`
	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTExpire time.Duration `mapstructure:"JWT_EXPIRE"`
	UploadDir string        `mapstructure:"UPLOAD_DIR"`

	// Optional shared revocation store. Empty means the process-local
	// in-memory registry is used.
	RedisURL string `mapstructure:"REDIS_URL"`

	// Gateway credentials are read at startup like the production
	// integration would need, even though the simulator ignores them.
	GatewayAPIURL     string `mapstructure:"PAYMENT_GATEWAY_API_URL"`
	GatewayMerchantID string `mapstructure:"PAYMENT_GATEWAY_MERCHANT_ID"`
	GatewayAPIKey     string `mapstructure:"PAYMENT_GATEWAY_API_KEY"`
	GatewaySecretKey  string `mapstructure:"PAYMENT_GATEWAY_SECRET_KEY"`
}

// Load reads config.env (if present) plus the environment and validates
// the result. The signing secret and token expiry are hard requirements;
// a server without them must not start.
func Load() (Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("UPLOAD_DIR", "./uploads")
	viper.SetDefault("PAYMENT_GATEWAY_API_URL", "https://api.example-payment-gateway.com")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" || cfg.JWTExpire <= 0 {
		return Config{}, errors.New("JWT_SECRET and JWT_EXPIRE must be set")
	}
	if cfg.DSN == "" {
		return Config{}, errors.New("DSN must be set")
	}

	return cfg, nil
}
