// Package config loads catalogd settings from an optional YAML file, an
// optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/goliatone/go-sheet-catalog/catalog"
	"github.com/goliatone/go-sheet-catalog/internal/auth"
	"github.com/goliatone/go-sheet-catalog/internal/cacheinfra"
	"github.com/goliatone/go-sheet-catalog/internal/store"
)

// EnvPrefix prefixes every environment variable, CATALOG_SERVER_PORT for
// server.port.
const EnvPrefix = "CATALOG"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	BackendGoogle = "google"
	BackendXLSX   = "xlsx"
)

// Config is the full catalogd configuration.
type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Sheets   SheetsConfig      `mapstructure:"sheets"`
	Catalog  catalog.Config    `mapstructure:"catalog"`
	Database store.Config      `mapstructure:"database"`
	Cache    cacheinfra.Config `mapstructure:"cache"`
	Auth     auth.Config       `mapstructure:"auth"`
}

type ServerConfig struct {
	Host    string   `mapstructure:"host"`
	Port    int      `mapstructure:"port"`
	Env     string   `mapstructure:"env"`
	Origins []string `mapstructure:"origins"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (s ServerConfig) Production() bool {
	return s.Env == EnvProduction
}

// SheetsConfig selects the spreadsheet backend.
type SheetsConfig struct {
	Backend       string `mapstructure:"backend"`
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	// Credentials is the service account JSON itself, as GOOGLE_CREDENTIALS
	// carries it. CredentialsFile is read when Credentials is empty.
	Credentials     string        `mapstructure:"credentials"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	XLSXPath        string        `mapstructure:"xlsx_path"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryMax        int           `mapstructure:"retry_max"`
}

// CredentialsJSON returns the service account key.
func (s SheetsConfig) CredentialsJSON() ([]byte, error) {
	if s.Credentials != "" {
		return []byte(s.Credentials), nil
	}
	if s.CredentialsFile == "" {
		return nil, errors.New("config: no google credentials configured")
	}
	raw, err := os.ReadFile(s.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("config: read credentials: %w", err)
	}
	return raw, nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port: 3001,
			Env:  EnvDevelopment,
		},
		Sheets: SheetsConfig{
			Backend: BackendGoogle,
			Timeout: 15 * time.Second,
		},
		Catalog:  catalog.DefaultConfig(),
		Database: store.DefaultConfig(),
		Cache:    cacheinfra.DefaultConfig(),
		Auth:     auth.DefaultConfig(),
	}
}

// legacyEnv maps keys to the variable names the deployed service already uses.
var legacyEnv = map[string]string{
	"server.port":           "PORT",
	"server.env":            "NODE_ENV",
	"auth.jwt_secret":       "JWT_SECRET",
	"sheets.spreadsheet_id": "GOOGLE_SHEET_ID",
	"sheets.credentials":    "GOOGLE_CREDENTIALS",
	"database.dsn":          "DATABASE_URL",
}

// Load reads path when it is not empty, then .env, then the environment.
// Prefixed variables win over the legacy names.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper) {
	d := Default()
	values := map[string]any{
		"server.host":    d.Server.Host,
		"server.port":    d.Server.Port,
		"server.env":     d.Server.Env,
		"server.origins": d.Server.Origins,

		"sheets.backend":          d.Sheets.Backend,
		"sheets.spreadsheet_id":   d.Sheets.SpreadsheetID,
		"sheets.credentials":      d.Sheets.Credentials,
		"sheets.credentials_file": d.Sheets.CredentialsFile,
		"sheets.xlsx_path":        d.Sheets.XLSXPath,
		"sheets.timeout":          d.Sheets.Timeout,
		"sheets.retry_max":        d.Sheets.RetryMax,

		"catalog.range":          d.Catalog.Range,
		"catalog.ttl":            d.Catalog.TTL,
		"catalog.stale_on_error": d.Catalog.StaleOnError,

		"database.driver": d.Database.Driver,
		"database.dsn":    d.Database.DSN,

		"cache.capacity":            d.Cache.Capacity,
		"cache.num_shards":          d.Cache.NumShards,
		"cache.ttl":                 d.Cache.TTL,
		"cache.eviction_percentage": d.Cache.EvictionPercentage,

		"auth.jwt_secret":  d.Auth.Secret,
		"auth.token_ttl":   d.Auth.TokenTTL,
		"auth.max_devices": d.Auth.MaxDevices,
	}
	for k, val := range values {
		v.SetDefault(k, val)
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Server.Env, validation.Required, validation.In(EnvDevelopment, EnvProduction)),
	)
	if err != nil {
		return fmt.Errorf("config: server: %w", err)
	}
	if err := c.Sheets.Validate(); err != nil {
		return fmt.Errorf("config: sheets: %w", err)
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	err = validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Driver, validation.Required, validation.In(store.DriverSQLite, store.DriverPostgres)),
		validation.Field(&c.Database.DSN, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("config: database: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("config: auth: %w", err)
	}
	return nil
}

func (s SheetsConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Backend, validation.Required, validation.In(BackendGoogle, BackendXLSX)),
		validation.Field(&s.SpreadsheetID, validation.When(s.Backend == BackendGoogle, validation.Required)),
		validation.Field(&s.Credentials, validation.When(s.Backend == BackendGoogle && s.CredentialsFile == "",
			validation.Required.Error("or credentials_file is required"))),
		validation.Field(&s.XLSXPath, validation.When(s.Backend == BackendXLSX, validation.Required)),
		validation.Field(&s.Timeout, validation.Min(time.Second)),
		validation.Field(&s.RetryMax, validation.Min(0)),
	)
}
