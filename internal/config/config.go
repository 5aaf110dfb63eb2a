package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultPort                        = 8080
	defaultTimezone                    = "UTC"
	defaultWeeklyProgressWeeks         = 8
	defaultFavoriteExercisesLimit      = 5
	defaultLoginRateLimitAllowedPerMin = 15
	defaultSessionTTL                  = 24 * 7 * time.Hour
)

type Config struct {
	Host        string
	Port        int
	Environment string `toml:"environment"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// auth
	LoginRateLimitAllowedPerMin int      `toml:"login_rate_limit_allowed_per_min"`
	SessionTTL                  Duration `toml:"session_ttl"`
	AllowedOrigins              []string `toml:"allowed_origins"`
	// stats
	Timezone               string        `toml:"timezone"`
	WeeklyProgressWeeks    int           `toml:"weekly_progress_weeks"`
	FavoriteExercisesLimit int           `toml:"favorite_exercises_limit"`
	Achievements           []Achievement `toml:"achievements"`
}

// Achievement is a catalog entry unlocked when Metric reaches Threshold.
type Achievement struct {
	ID          string  `toml:"id"`
	Title       string  `toml:"title"`
	Description string  `toml:"description"`
	Icon        string  `toml:"icon"`
	Metric      string  `toml:"metric"`
	Threshold   float64 `toml:"threshold"`
}

// Duration decodes TOML strings like "168h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s missing", env)
	}
	return cfg, nil
}

func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse reads the config for env from raw TOML contents.
func Parse(env, contents string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(contents, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.WeeklyProgressWeeks == 0 {
		c.WeeklyProgressWeeks = defaultWeeklyProgressWeeks
	}
	if c.FavoriteExercisesLimit == 0 {
		c.FavoriteExercisesLimit = defaultFavoriteExercisesLimit
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = defaultLoginRateLimitAllowedPerMin
	}
	if c.SessionTTL.Duration == 0 {
		c.SessionTTL.Duration = defaultSessionTTL
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.WeeklyProgressWeeks < 0 {
		errs = append(errs, errors.New("weekly_progress_weeks must not be negative"))
	}
	if c.FavoriteExercisesLimit < 0 {
		errs = append(errs, errors.New("favorite_exercises_limit must not be negative"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	seen := make(map[string]bool, len(c.Achievements))
	for _, a := range c.Achievements {
		if a.ID == "" {
			errs = append(errs, errors.New("achievement id empty"))
			continue
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("achievement %s defined twice", a.ID))
		}
		seen[a.ID] = true
		switch a.Metric {
		case "workouts", "volume", "best_streak":
		default:
			errs = append(errs, fmt.Errorf("achievement %s: unknown metric %q", a.ID, a.Metric))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
