// internal/config/config.go
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/jason-s-yu/cricket-auction/internal/auth"
	"github.com/jason-s-yu/cricket-auction/internal/game"
	"github.com/sirupsen/logrus"
)

// Postgres holds the connection settings shared by the server and the historian.
type Postgres struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
}

// Enabled reports whether a database host was configured.
func (p Postgres) Enabled() bool {
	return p.Host != ""
}

// DSN builds a postgres:// connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", p.User, p.Password, p.Host, p.Port, p.Database)
}

// Redis holds the action log queue settings.
type Redis struct {
	Addr  string
	DB    int
	Queue string
}

// Enabled reports whether a Redis address was configured.
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// Historian tunes the action log consumer.
type Historian struct {
	BatchSize     int
	FlushInterval time.Duration
	Inactivity    time.Duration
}

// Config is everything the binaries read from the environment.
type Config struct {
	Port        string
	LogLevel    logrus.Level
	CatalogFile string
	CatalogTTL  time.Duration
	TokenExpire time.Duration
	Rules       game.AuctionRules
	Postgres    Postgres
	Redis       Redis
	Historian   Historian
}

// Load reads the environment. Unset variables fall back to defaults; malformed ones are errors.
func Load() (Config, error) {
	cfg := Config{
		Port:        GetEnv("PORT", "8080"),
		CatalogFile: os.Getenv("CATALOG_FILE"),
		Postgres: Postgres{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Host:     os.Getenv("PG_HOST"),
			Port:     GetEnv("PG_PORT", "5432"),
			Database: os.Getenv("PG_DATABASE"),
		},
		Redis: Redis{
			Addr:  os.Getenv("REDIS_ADDR"),
			Queue: GetEnv("AUCTION_QUEUE_NAME", "auction_actions"),
		},
	}

	var err error
	if cfg.LogLevel, err = logrus.ParseLevel(GetEnv("LOG_LEVEL", "info")); err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.TokenExpire, err = auth.ParseTokenExpireTime(os.Getenv("TOKEN_EXPIRE_TIME")); err != nil {
		return cfg, fmt.Errorf("TOKEN_EXPIRE_TIME: %w", err)
	}
	if cfg.CatalogTTL, err = GetEnvDuration("CATALOG_TTL", 5*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.Redis.DB, err = GetEnvInt("REDIS_DB", 0); err != nil {
		return cfg, err
	}

	rules := game.DefaultRules()
	if rules.StartingBudget, err = GetEnvInt("STARTING_BUDGET", rules.StartingBudget); err != nil {
		return cfg, err
	}
	if rules.TurnTimeout, err = GetEnvSeconds("TURN_TIMER_SEC", rules.TurnTimeout); err != nil {
		return cfg, err
	}
	if rules.PreRoundDelay, err = GetEnvSeconds("PRE_ROUND_SEC", rules.PreRoundDelay); err != nil {
		return cfg, err
	}
	if rules.RoundOverDelay, err = GetEnvSeconds("ROUND_OVER_SEC", rules.RoundOverDelay); err != nil {
		return cfg, err
	}
	if policy := os.Getenv("SOLE_SURVIVOR_POLICY"); policy != "" {
		rules.SoleSurvivor = game.SoleSurvivorPolicy(policy)
	}
	if err := rules.Validate(); err != nil {
		return cfg, fmt.Errorf("auction rules: %w", err)
	}
	cfg.Rules = rules

	batch, err := GetEnvInt("HISTORIAN_BATCH_SIZE", 20)
	if err != nil {
		return cfg, err
	}
	flushMs, err := GetEnvInt("HISTORIAN_FLUSH_MS", 500)
	if err != nil {
		return cfg, err
	}
	inactivity, err := GetEnvSeconds("ROOM_INACTIVITY_TIMEOUT_SEC", 10*time.Minute)
	if err != nil {
		return cfg, err
	}
	cfg.Historian = Historian{
		BatchSize:     batch,
		FlushInterval: time.Duration(flushMs) * time.Millisecond,
		Inactivity:    inactivity,
	}
	return cfg, nil
}

// GetEnv retrieves an environment variable's value or returns a default.
func GetEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// GetEnvInt parses an integer environment variable.
func GetEnvInt(key string, defVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defVal, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

// GetEnvSeconds parses a whole number of seconds.
func GetEnvSeconds(key string, defVal time.Duration) (time.Duration, error) {
	secs, err := GetEnvInt(key, -1)
	if err != nil {
		return defVal, err
	}
	if secs < 0 {
		return defVal, nil
	}
	if int64(secs) > math.MaxInt64/int64(time.Second) {
		return defVal, fmt.Errorf("%s: %d seconds is out of range", key, secs)
	}
	return time.Duration(secs) * time.Second, nil
}

// GetEnvDuration parses a Go duration string such as "90s".
func GetEnvDuration(key string, defVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defVal, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
