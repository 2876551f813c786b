package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Broker    BrokerConfig    `yaml:"broker"`
	Fleet     FleetConfig     `yaml:"fleet"`
	Rental    RentalConfig    `yaml:"rental"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig selects the backing store. Host/port/user settings apply to
// postgres and pgx, Path to sqlite.
type DatabaseConfig struct {
	Driver       string        `yaml:"driver"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Database     string        `yaml:"database"`
	SSLMode      string        `yaml:"ssl_mode"`
	Path         string        `yaml:"path"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// RedisConfig moves the availability counters and car assignments to redis
type RedisConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	KeyPrefix   string        `yaml:"key_prefix"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// BrokerConfig contains RabbitMQ settings for rental events
type BrokerConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Queue   string `yaml:"queue"`
}

const (
	FleetSourceFile     = "file"
	FleetSourceDatabase = "database"
)

// FleetConfig says where the car catalog is loaded from
type FleetConfig struct {
	Source string `yaml:"source"` // "file" or "database"
	File   string `yaml:"file"`
}

// RentalConfig contains booking rules
type RentalConfig struct {
	WindowDays int `yaml:"window_days"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ExtendAvailability   string `yaml:"extend_availability"`
	ReportOverdueRentals string `yaml:"report_overdue_rentals"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from a YAML file. A .env file in the working
// directory, when present, is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}
	if val := os.Getenv("DB_PATH"); val != "" {
		c.Database.Path = val
	}

	// Redis
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		c.Redis.Enabled, _ = strconv.ParseBool(val)
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Broker
	if val := os.Getenv("BROKER_ENABLED"); val != "" {
		c.Broker.Enabled, _ = strconv.ParseBool(val)
	}
	if val := os.Getenv("RABBITMQ_URL"); val != "" {
		c.Broker.URL = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Fleet / rental
	if val := os.Getenv("FLEET_FILE"); val != "" {
		c.Fleet.File = val
	}
	if val := os.Getenv("RENTAL_WINDOW_DAYS"); val != "" {
		fmt.Sscanf(val, "%d", &c.Rental.WindowDays)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverPgx:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			c.Database.Path = "fleet-rental.db"
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q (postgres, pgx, sqlite, memory)", c.Database.Driver)
	}
	if c.Database.QueryTimeout == 0 {
		c.Database.QueryTimeout = 5 * time.Second
	}

	// Redis validation
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}

	// Broker validation
	if c.Broker.Enabled && c.Broker.URL == "" {
		return fmt.Errorf("broker url is required when the broker is enabled")
	}
	if c.Broker.Queue == "" {
		c.Broker.Queue = "rental.events"
	}

	// Fleet validation
	if c.Fleet.Source == "" {
		c.Fleet.Source = FleetSourceFile
	}
	switch c.Fleet.Source {
	case FleetSourceFile:
		if c.Fleet.File == "" {
			c.Fleet.File = "config/fleet.yaml"
		}
	case FleetSourceDatabase:
		if c.Database.Driver == DriverMemory {
			return fmt.Errorf("fleet source %q needs a SQL database driver", FleetSourceDatabase)
		}
	default:
		return fmt.Errorf("unsupported fleet source %q (file, database)", c.Fleet.Source)
	}

	// Rental defaults
	if c.Rental.WindowDays < 0 {
		return fmt.Errorf("invalid rental window: %d days", c.Rental.WindowDays)
	}
	if c.Rental.WindowDays == 0 {
		c.Rental.WindowDays = 30
	}

	// Scheduler defaults
	if c.Scheduler.ExtendAvailability == "" {
		c.Scheduler.ExtendAvailability = "0 5 0 * * *" // Daily at 00:05 UTC
	}
	if c.Scheduler.ReportOverdueRentals == "" {
		c.Scheduler.ReportOverdueRentals = "0 0 2 * * *" // Daily at 2 AM UTC
	}

	return nil
}

// sqlitePragmas are applied by the driver to every pooled connection. The busy
// timeout makes concurrent claims wait for the write lock instead of failing.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// GetDatabaseConnectionString returns the DSN for the configured driver
func (c *Config) GetDatabaseConnectionString() string {
	switch c.Database.Driver {
	case DriverSQLite:
		return "file:" + c.Database.Path + "?" + sqlitePragmas
	case DriverMemory:
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
