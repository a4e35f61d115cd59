package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/msgo/internal/constants"
	"github.com/udisondev/msgo/internal/crypto"
)

// CipherConfig - параметры пакетного шифрования в hex.
type CipherConfig struct {
	Kind   crypto.CipherKind `yaml:"kind"`
	Table  string            `yaml:"table"`  // 256 байт
	Vector string            `yaml:"vector"` // 4 байта
	Key    string            `yaml:"key"`    // 32 байта, только для aes
}

// Suite декодирует hex-поля.
func (c CipherConfig) Suite() (crypto.Suite, error) {
	table, err := decodeHex("cipher.table", c.Table, constants.ShuffleTableSize)
	if err != nil {
		return crypto.Suite{}, err
	}
	vector, err := decodeHex("cipher.vector", c.Vector, constants.IVSize)
	if err != nil {
		return crypto.Suite{}, err
	}

	s := crypto.Suite{Kind: c.Kind, Table: table, Vector: vector}
	switch c.Kind {
	case crypto.CipherAES:
		s.Key, err = decodeHex("cipher.key", c.Key, constants.AESKeySize)
		if err != nil {
			return crypto.Suite{}, err
		}
	case crypto.CipherTable:
	default:
		return crypto.Suite{}, fmt.Errorf("%w: cipher.kind %q", ErrInvalidConfig, c.Kind)
	}
	return s, nil
}

func decodeHex(field, value string, size int) ([]byte, error) {
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, field, err)
	}
	if len(b) != size {
		return nil, fmt.Errorf("%w: %s must be %d bytes, got %d", ErrInvalidConfig, field, size, len(b))
	}
	return b, nil
}

// GameServer holds all configuration for the game server.
type GameServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
	ServerID    string `yaml:"server_id"` // имя сервера в реестре сессий

	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Protocol
	Version       uint16 `yaml:"version"`
	PatchLocation string `yaml:"patch_location"`
	LocaleID      byte   `yaml:"locale_id"`

	Cipher CipherConfig `yaml:"cipher"`

	// Per-connection buffers / timeouts
	ReceiveBufferSize int           `yaml:"receive_buffer_size"`
	SendQueueSize     int           `yaml:"send_queue_size"` // per-client outbox capacity (default: 256)
	WriteTimeout      time.Duration `yaml:"write_timeout"`   // per-write deadline (default: 5s)

	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Database DatabaseConfig `yaml:"database"`
}

// DefaultGameServer returns GameServer config with sensible defaults.
// Cipher tables are left empty: они зависят от клиента и задаются в файле.
func DefaultGameServer() GameServer {
	return GameServer{
		BindAddress:       "0.0.0.0",
		Port:              8484,
		ServerID:          "gs-1",
		LogLevel:          "info",
		Version:           83,
		PatchLocation:     "1",
		LocaleID:          8,
		Cipher:            CipherConfig{Kind: crypto.CipherAES},
		ReceiveBufferSize: constants.DefaultReceiveBufferSize,
		SendQueueSize:     constants.DefaultSendQueueSize,
		WriteTimeout:      constants.DefaultWriteTimeout,
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			TTL:       300 * time.Second,
			Keepalive: 60 * time.Second,
		},
		NATS: NATSConfig{
			URL:    "nats://127.0.0.1:4222",
			Prefix: "msgo",
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "msgo",
			Password: "msgo",
			DBName:   "msgo",
			SSLMode:  "disable",
		},
	}
}

// LoadGameServer loads game server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadGameServer(path string) (GameServer, error) {
	cfg := DefaultGameServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate проверяет значения, которые иначе всплыли бы только при первом соединении.
func (c GameServer) Validate() error {
	if c.Port < 0 || c.Port > 0xFFFF {
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	}
	if c.ReceiveBufferSize <= 0 {
		return fmt.Errorf("%w: receive_buffer_size must be positive", ErrInvalidConfig)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("%w: send_queue_size must be positive", ErrInvalidConfig)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("%w: write_timeout must not be negative", ErrInvalidConfig)
	}
	if len(c.PatchLocation) > 0x7FFF {
		return fmt.Errorf("%w: patch_location too long", ErrInvalidConfig)
	}
	if _, err := c.Cipher.Suite(); err != nil {
		return err
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required", ErrInvalidConfig)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("%w: nats.url is required", ErrInvalidConfig)
	}
	return nil
}
