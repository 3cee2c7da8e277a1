package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "TOLU"

// Event log backends
const (
	EventLogCSV      = "csv"
	EventLogMemory   = "memory"
	EventLogPostgres = "postgres"
)

// Geolocation providers
const (
	GeolocationNominatim = "nominatim"
	GeolocationMock      = "mock"
)

// Config holds all application configuration
type Config struct {
	Env         string            `mapstructure:"env"`
	Server      ServerConfig      `mapstructure:"server"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	EventLog    EventLogConfig    `mapstructure:"event_log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Geolocation GeolocationConfig `mapstructure:"geolocation"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	OTEL        OTELConfig        `mapstructure:"otel"`

	// ConfigPath is the config file that was read, empty when none was found.
	ConfigPath string `mapstructure:"-"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// CatalogConfig locates the catalog files.
type CatalogConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	BaseFile     string `mapstructure:"base_file"`
	EnrichedFile string `mapstructure:"enriched_file"`
	DetailsFile  string `mapstructure:"details_file"`
	BarriosFile  string `mapstructure:"barrios_file"`
}

// EventLogConfig selects where search events are stored.
type EventLogConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GeolocationConfig holds reverse geocoding configuration
type GeolocationConfig struct {
	Provider     string        `mapstructure:"provider"`
	BaseURL      string        `mapstructure:"base_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// ArchiveConfig holds the S3 destination for event log snapshots.
type ArchiveConfig struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
	Prefix string `mapstructure:"prefix"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Endpoint       string `mapstructure:"endpoint"`
	Enabled        bool   `mapstructure:"enabled"`
}

// Load loads configuration from TOLU_* environment variables and, when
// TOLU_CONFIG is set, from that file.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(envPrefix + "_CONFIG"))
}

// LoadFile loads configuration from the given YAML file (if it exists),
// with environment variables taking precedence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		cfg.ConfigPath = ""
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("catalog.data_dir", "data")
	v.SetDefault("catalog.base_file", "catalogo.csv")
	v.SetDefault("catalog.enriched_file", "catalogo_enriquecido.csv")
	v.SetDefault("catalog.details_file", "detalles_simulados.csv")
	v.SetDefault("catalog.barrios_file", "barrios.csv")

	v.SetDefault("event_log.backend", EventLogCSV)
	v.SetDefault("event_log.path", filepath.Join("data", "estadisticas_busquedas.csv"))

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "tolu_conecta")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("geolocation.provider", GeolocationNominatim)
	v.SetDefault("geolocation.base_url", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("geolocation.user_agent", "tolu-conecta/1.0")
	v.SetDefault("geolocation.request_delay", time.Second)
	v.SetDefault("geolocation.timeout", 10*time.Second)
	v.SetDefault("geolocation.cache_ttl", 30*24*time.Hour)

	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.prefix", "event-log")

	v.SetDefault("otel.service_name", "tolu-conecta")
	v.SetDefault("otel.service_version", "1.0.0")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.enabled", false)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.EventLog.Backend {
	case EventLogCSV, EventLogMemory, EventLogPostgres:
	default:
		return fmt.Errorf("unknown event log backend %q", c.EventLog.Backend)
	}
	if c.EventLog.Backend == EventLogCSV && strings.TrimSpace(c.EventLog.Path) == "" {
		return fmt.Errorf("event log path is required for the csv backend")
	}
	switch c.Geolocation.Provider {
	case GeolocationNominatim, GeolocationMock:
	default:
		return fmt.Errorf("unknown geolocation provider %q", c.Geolocation.Provider)
	}
	if c.Geolocation.RequestDelay < 0 {
		return fmt.Errorf("geolocation request delay must not be negative")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Path joins a catalog file name with the data directory.
func (c *CatalogConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
