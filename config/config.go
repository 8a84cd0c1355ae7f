// Package config loads server configuration with viper.
//
// Precedence: environment (TIMECLOCK_*) > config file > defaults.
// Nested keys map to env vars with "." replaced by "_", e.g.
// TIMECLOCK_CALENDAR_TIMEZONE overrides calendar.timezone.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/warp/timeclock-engine/generic"
	"github.com/warp/timeclock-engine/timesheet"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	DB           DBConfig           `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	Calendar     CalendarConfig     `mapstructure:"calendar"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Schedule     ScheduleConfig     `mapstructure:"schedule"`
	Report       ReportConfig       `mapstructure:"report"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DBConfig points at the SQLite file; ":memory:" for an ephemeral database.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig enables the distributed registration lock.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
	LockWait time.Duration `mapstructure:"lock_wait"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CalendarConfig decides which date a point belongs to and how weekdays
// are labelled.
type CalendarConfig struct {
	Timezone string `mapstructure:"timezone"`
	Locale   string `mapstructure:"locale"`
}

type RegistrationConfig struct {
	Scope string `mapstructure:"scope"`
}

// ScheduleConfig holds the default 12x36 anchor (YYYY-MM-DD), the named
// preset registered at startup, and an optional JSON file replacing or
// extending the expected-hours table.
type ScheduleConfig struct {
	Anchor          string `mapstructure:"anchor"`
	Preset          string `mapstructure:"preset"`
	DefinitionsFile string `mapstructure:"definitions_file"`
}

// ReportConfig bounds the period of reports and point listings.
type ReportConfig struct {
	MaxDays int `mapstructure:"max_days"`
}

// Load reads configuration from path (optional), the environment and
// defaults, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	v.SetDefault("db.path", "./data/timeclock.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", "10s")
	v.SetDefault("redis.lock_wait", "3s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("calendar.timezone", "America/Sao_Paulo")
	v.SetDefault("calendar.locale", string(generic.LocaleEnglish))

	v.SetDefault("registration.scope", string(generic.ScopeDay))

	v.SetDefault("schedule.anchor", "2024-01-01")
	v.SetDefault("schedule.preset", timesheet.PresetDefault)
	v.SetDefault("schedule.definitions_file", "")

	v.SetDefault("report.max_days", timesheet.DefaultMaxPeriodDays)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TIMECLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("config: db.path is required")
	}
	if _, err := c.CalendarSettings(); err != nil {
		return err
	}
	if _, err := c.AlternationScope(); err != nil {
		return fmt.Errorf("config: registration.scope: %w", err)
	}
	if _, err := c.DefaultAnchor(); err != nil {
		return fmt.Errorf("config: schedule.anchor: %w", err)
	}
	if _, err := timesheet.PresetSchedulesJSON(c.Schedule.Preset); err != nil {
		return fmt.Errorf("config: schedule.preset: %w", err)
	}
	if c.Report.MaxDays <= 0 {
		return fmt.Errorf("config: report.max_days must be positive")
	}
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when redis is enabled")
		}
		if c.Redis.LockTTL <= 0 || c.Redis.LockWait <= 0 {
			return fmt.Errorf("config: redis.lock_ttl and redis.lock_wait must be positive")
		}
	}
	return nil
}

// CalendarSettings builds the generic.Calendar.
func (c *Config) CalendarSettings() (generic.Calendar, error) {
	locale := generic.Locale(c.Calendar.Locale)
	if !locale.Valid() {
		return generic.Calendar{}, fmt.Errorf("config: calendar.locale %q is not supported", c.Calendar.Locale)
	}
	cal, err := generic.NewCalendar(c.Calendar.Timezone, locale)
	if err != nil {
		return generic.Calendar{}, fmt.Errorf("config: calendar.timezone: %w", err)
	}
	return cal, nil
}

func (c *Config) AlternationScope() (generic.AlternationScope, error) {
	return generic.ParseAlternationScope(c.Registration.Scope)
}

func (c *Config) DefaultAnchor() (generic.Date, error) {
	return generic.ParseDate(c.Schedule.Anchor)
}
