package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"time"
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"

	"weekgrid-service/internal/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultConfigPath = "./config/local.yaml"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	Storage    `yaml:"storage"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	Calendar   `yaml:"calendar"`
	Refresh    `yaml:"refresh"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"STORAGE_DSN" env-required:"true"`
}

type Redis struct {
	// Empty disables distributed locking.
	Address string `yaml:"address" env:"REDIS_ADDR"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type Calendar struct {
	Roster              []string `yaml:"roster" env-default:"Léo,Hervé,Benoit,Corentin"`
	TimeSlots           []string `yaml:"time_slots" env-default:"9:00,10:00,11:00,12:00,13:00,14:00,15:00,16:00,17:00,18:00,19:00,20:00,21:00,22:00,23:00"`
	SlotMinutes         int      `yaml:"slot_minutes" env-default:"60"`
	Timezone            string   `yaml:"timezone" env:"TZ_NAME" env-default:"Europe/Paris"`
	DefaultHorizonWeeks int      `yaml:"default_horizon_weeks" env-default:"0"`
}

type Refresh struct {
	// Cron schedule for the periodic snapshot refresh. Empty disables it.
	Cron string `yaml:"cron" env:"REFRESH_CRON"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return cfg
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Storage.Driver != DriverPostgres && c.Storage.Driver != DriverSQLite {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if len(c.Calendar.Roster) == 0 {
		return errors.New("calendar roster is empty")
	}
	if len(c.Calendar.TimeSlots) == 0 {
		return errors.New("calendar has no time slots")
	}
	for _, ts := range c.Calendar.TimeSlots {
		if _, _, err := models.TimeSlot(ts).Clock(); err != nil {
			return err
		}
	}
	if c.Calendar.SlotMinutes <= 0 {
		return fmt.Errorf("slot_minutes must be positive, got %d", c.Calendar.SlotMinutes)
	}
	if c.Calendar.DefaultHorizonWeeks < 0 {
		return fmt.Errorf("default_horizon_weeks must not be negative, got %d", c.Calendar.DefaultHorizonWeeks)
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Calendar.Timezone, err)
	}

	return nil
}

func (c *Calendar) People() models.Roster {
	roster := make(models.Roster, 0, len(c.Roster))
	for _, p := range c.Roster {
		if !slices.Contains(roster, models.Person(p)) {
			roster = append(roster, models.Person(p))
		}
	}

	return roster
}

func (c *Calendar) Grid() models.Grid {
	slots := make([]models.TimeSlot, 0, len(c.TimeSlots))
	for _, ts := range c.TimeSlots {
		slots = append(slots, models.TimeSlot(ts))
	}

	return models.Grid{Days: models.Days, Slots: slots}
}

func (c *Calendar) SlotDuration() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}

// Location falls back to UTC for a timezone that validate has not seen.
func (c *Calendar) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}
