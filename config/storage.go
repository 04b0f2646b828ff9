package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StorageDriver selects where the session token pair is persisted.
type StorageDriver string

const (
	// StorageMemory keeps tokens for the lifetime of the process only.
	StorageMemory StorageDriver = "memory"
	// StorageFile keeps tokens in a KEY=VALUE file.
	StorageFile StorageDriver = "file"
	// StorageRedis keeps tokens in Redis.
	StorageRedis StorageDriver = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageDriver.
func (d *StorageDriver) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "file", "redis":
		*d = StorageDriver(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageDriver: %q (valid options: memory, file, redis)", v)
	}
}

// StorageConfig contains session token storage configuration.
type StorageConfig struct {
	Driver StorageDriver `env:"STORAGE" envDefault:"file"`

	// File is the token file used by the file driver.
	// Defaults to <user config dir>/helpdesk-console/session.env.
	File string `env:"FILE"`

	// RedisPrefix namespaces token keys in Redis.
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"helpdesk:session:"`
}

// Sanitize fills in the default token file location.
func (s *StorageConfig) Sanitize() {
	if s.Driver == "" {
		s.Driver = StorageFile
	}
	s.File = strings.TrimSpace(s.File)
	if s.File == "" {
		s.File = defaultTokenFile()
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".helpdesk-session.env"
	}
	return filepath.Join(dir, "helpdesk-console", "session.env")
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
