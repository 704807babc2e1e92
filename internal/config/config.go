package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// ErrMissingJWTSecret is returned when JWT_SECRET is unset. An empty HMAC key
// would let any caller mint an admin token.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	JWT       JWTConfig
	FX        FXConfig
	Stripe    StripeConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	Cart      CartConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

// StoreConfig selects the catalog store. MigrationsDir overrides the
// migrations embedded in the binary; leave it empty in production.
type StoreConfig struct {
	Driver        string
	MigrationsDir string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig configures bearer-token auth. AdminRoles lists the role claims
// allowed to call catalog write routes.
type JWTConfig struct {
	Secret     string
	AdminRoles []string
}

// FXConfig configures the exchange-rate source. An empty URL keeps the
// built-in default rates for the life of the process.
type FXConfig struct {
	URL             string
	AppID           string
	RefreshInterval time.Duration
	Timeout         time.Duration
}

type StripeConfig struct {
	SecretKey string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type MetricsConfig struct {
	Token string
}

type CartConfig struct {
	TTL time.Duration
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("MIGRATIONS_DIR", "")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "catalog")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("ADMIN_ROLES", "admin")
	viper.SetDefault("FX_URL", "")
	viper.SetDefault("FX_REFRESH_INTERVAL", time.Hour)
	viper.SetDefault("FX_TIMEOUT", 10*time.Second)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	viper.SetDefault("CART_TTL", 7*24*time.Hour)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(viper.GetString("STORE_DRIVER")),
			MigrationsDir: viper.GetString("MIGRATIONS_DIR"),
		},
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGO_URI"),
			Database: viper.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("JWT_SECRET"),
			AdminRoles: splitList(viper.GetString("ADMIN_ROLES")),
		},
		FX: FXConfig{
			URL:             viper.GetString("FX_URL"),
			AppID:           viper.GetString("FX_APP_ID"),
			RefreshInterval: viper.GetDuration("FX_REFRESH_INTERVAL"),
			Timeout:         viper.GetDuration("FX_TIMEOUT"),
		},
		Stripe: StripeConfig{
			SecretKey: viper.GetString("STRIPE_SECRET_KEY"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Metrics: MetricsConfig{
			Token: viper.GetString("METRICS_TOKEN"),
		},
		Cart: CartConfig{
			TTL: viper.GetDuration("CART_TTL"),
		},
	}
}

// Validate rejects configurations the server must not start with
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	if len(c.JWT.AdminRoles) == 0 {
		return errors.New("ADMIN_ROLES must name at least one role")
	}
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
