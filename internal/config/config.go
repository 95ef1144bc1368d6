package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Supported values for the database.driver setting.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// defaultPorts are used when database.port is not configured.
var defaultPorts = map[string]int{
	DriverMySQL:    3306,
	DriverPostgres: 5432,
}

// Config is the complete configuration of the contacts service.
type Config struct {
	HTTP     HTTP     `mapstructure:"http"`
	Database Database `mapstructure:"database"`
	Log      Log      `mapstructure:"log"`
}

// HTTP configures the REST API listener and its middleware.
type HTTP struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	AccessLog   bool     `mapstructure:"access_log"`
	Metrics     bool     `mapstructure:"metrics"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Address returns the host:port pair the server listens on.
func (h HTTP) Address() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// Database configures the persistence backend.
type Database struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	// DSN replaces the connection string built from the fields above.
	DSN string `mapstructure:"dsn"`
}

// Log configures the application logger.
type Log struct {
	Production bool `mapstructure:"production"`
}

// Load reads the configuration from the defaults, an optional YAML file and the environment, in
// increasing order of precedence. Environment variables carry the CONTACTS_ prefix, with dots
// replaced by underscores.
//
// Usage example:
// > CONTACTS_DATABASE_USER=dirk CONTACTS_DATABASE_PASSWORD=bullo92 go run main.go
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CONTACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultPorts[cfg.Database.Driver]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3001)
	v.SetDefault("http.access_log", true)
	v.SetDefault("http.metrics", true)
	v.SetDefault("http.cors_origins", []string{})
	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.host", "localhost")
	// No default port, it depends on the driver. Bound explicitly so the environment is seen.
	_ = v.BindEnv("database.port")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "contacts")
	v.SetDefault("database.dsn", "")
	v.SetDefault("log.production", false)
}

// Validate checks the values that cannot be verified by the type system alone.
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http.port %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}

// ConnectionString returns the driver specific data source name. A MySQL DSN, configured or
// built, always has parseTime and clientFoundRows switched on because the store depends on them.
func (d Database) ConnectionString() (string, error) {
	switch d.Driver {
	case DriverPostgres:
		if d.DSN != "" {
			return d.DSN, nil
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			d.Host, d.User, d.Password, d.Name, d.Port), nil
	case DriverMySQL:
		return d.mysqlDSN()
	default:
		return d.DSN, nil
	}
}

func (d Database) mysqlDSN() (string, error) {
	cfg := mysql.NewConfig()
	if d.DSN != "" {
		var err error
		if cfg, err = mysql.ParseDSN(d.DSN); err != nil {
			return "", fmt.Errorf("parse database.dsn: %w", err)
		}
	} else {
		cfg.User = d.User
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
		cfg.DBName = d.Name
	}
	cfg.ParseTime = true
	// clientFoundRows makes an UPDATE report matched rather than changed rows.
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}
