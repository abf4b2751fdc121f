package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type SessionConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	RenewWithin  time.Duration `mapstructure:"renew_within"`
	SecretTokens bool          `mapstructure:"secret_tokens"`
	DefaultRole  string        `mapstructure:"default_role"`
	// Header carries the token; Authorization: Bearer is accepted too.
	Header       string        `mapstructure:"header"`
}

type PasswordConfig struct {
	Algorithm string `mapstructure:"algorithm"`
}

type CacheConfig struct {
	Driver  string        `mapstructure:"driver"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type CronConfig struct {
	Sweep string `mapstructure:"sweep"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Session  SessionConfig  `mapstructure:"session"`
	Password PasswordConfig `mapstructure:"password"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Cron     CronConfig     `mapstructure:"cron"`
	Log      LogConfig      `mapstructure:"log"`
}

// Load reads the env file named by START (".env" when unset) and then the
// SCANTEATE_* environment, e.g. SCANTEATE_MYSQL_DSN or SCANTEATE_SESSION_TTL.
func Load() (*Config, error) {
	envFile := os.Getenv("START")
	if envFile == "" {
		envFile = ".env"
	}
	// the env file is optional, containers pass plain environment
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SCANTEATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// AutomaticEnv only resolves keys viper already knows about, so every key
// gets a default here.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("mysql.dsn", "")

	v.SetDefault("session.ttl", 30*24*time.Hour)
	v.SetDefault("session.renew_within", 15*24*time.Hour)
	v.SetDefault("session.secret_tokens", false)
	v.SetDefault("session.default_role", "Admin")
	v.SetDefault("session.header", "auth")

	v.SetDefault("password.algorithm", "argon2id")

	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.max_size", 10000)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "scanteate")

	v.SetDefault("cron.sweep", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

func (c *Config) Validate() error {
	if c.MySQL.DSN == "" {
		return errors.New("SCANTEATE_MYSQL_DSN is not set in environment")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if c.Session.RenewWithin < 0 || c.Session.RenewWithin > c.Session.TTL {
		return fmt.Errorf("session renew_within %s must be within ttl %s", c.Session.RenewWithin, c.Session.TTL)
	}
	switch c.Session.DefaultRole {
	case "User", "Admin":
	default:
		return fmt.Errorf("unknown session default_role %q", c.Session.DefaultRole)
	}
	switch c.Password.Algorithm {
	case "argon2id", "bcrypt":
	default:
		return fmt.Errorf("unknown password algorithm %q", c.Password.Algorithm)
	}
	switch c.Cache.Driver {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	return nil
}
