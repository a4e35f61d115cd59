package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig оборачивает все ошибки Validate.
var ErrInvalidConfig = errors.New("invalid config")

// DatabaseConfig holds PostgreSQL connection parameters.
// Enabled=false отключает запись захватов пакетов.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	// CapturePayload сохраняет тела пакетов, не только заголовки.
	CapturePayload bool `yaml:"capture_payload"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RedisConfig - реестр живых сессий.
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`       // время жизни записи сессии
	Keepalive time.Duration `yaml:"keepalive"` // период продления TTL
}

// NATSConfig - мост к игровой логике.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Prefix  string `yaml:"prefix"`
}
