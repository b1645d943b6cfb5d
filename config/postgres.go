package config

import (
	"fmt"
	"time"
)

// PostgresConfig defines the configuration for the optional alert journal database.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CreateDB bool   `mapstructure:"create_db"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`

	// filled from SSM in prod
	hostParam     string
	userParam     string
	passwordParam string
}

// DSN builds the connection string. In prod the host, user and password come
// from the parameter store when the parameter names are configured.
func (cfg *PostgresConfig) DSN(env string) string {
	host, user, password := cfg.Host, cfg.User, cfg.Password

	if env == "prod" {
		if cfg.hostParam != "" {
			host = getParameterStoreValue(cfg.hostParam, true)
		}
		if cfg.userParam != "" {
			user = getParameterStoreValue(cfg.userParam, true)
		}
		if cfg.passwordParam != "" {
			password = getParameterStoreValue(cfg.passwordParam, true)
		}
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.Port, user, password, cfg.DBName, cfg.SSLMode,
	)

	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}

	return dsn
}

// ServerDSN points at the maintenance database so the journal database can be created.
func (cfg *PostgresConfig) ServerDSN(env string) string {
	server := *cfg
	server.DBName = "postgres"
	return server.DSN(env)
}

// UseParameterStore records the SSM parameter names used by DSN in prod.
func (cfg *PostgresConfig) UseParameterStore(s SecretsConfig) {
	cfg.hostParam = s.DBHostParam
	cfg.userParam = s.DBUserParam
	cfg.passwordParam = s.DBPasswordParam
}
