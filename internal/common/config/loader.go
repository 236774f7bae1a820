// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"

	RuntimeAuto   = "auto"
	RuntimeWeb    = "web"
	RuntimeMobile = "mobile"
)

// Load reads configs/config.yaml, merges config.<env>.yaml on top and lets
// environment variables override any key (backend.base_url -> BACKEND_BASE_URL).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the YAML file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "rutctl")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.timeout", 30000)
	v.SetDefault("backend.user_agent", "")

	v.SetDefault("session.store", SessionStoreFile)
	v.SetDefault("session.file_path", "")
	v.SetDefault("session.redis.address", "")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.key_prefix", "rut:session:")

	v.SetDefault("delivery.runtime", RuntimeAuto)
	v.SetDefault("delivery.download_dir", "")
	v.SetDefault("delivery.storage_dir", "")
	v.SetDefault("delivery.share_command", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age_days", 7)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":9464")
}

// applyDefaults fills values that depend on the environment of the machine.
func applyDefaults(cfg *Config) {
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 30000
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	if cfg.Backend.UserAgent == "" {
		cfg.Backend.UserAgent = fmt.Sprintf("%s/%s", cfg.App.Name, cfg.App.Version)
	}

	base := userDir()
	if cfg.Session.FilePath == "" {
		cfg.Session.FilePath = filepath.Join(base, "session.json")
	}
	if cfg.Delivery.DownloadDir == "" {
		cfg.Delivery.DownloadDir = filepath.Join(base, "downloads")
	}
	if cfg.Delivery.StorageDir == "" {
		cfg.Delivery.StorageDir = filepath.Join(base, "files")
	}
	cfg.Session.Store = strings.ToLower(cfg.Session.Store)
	cfg.Delivery.Runtime = strings.ToLower(cfg.Delivery.Runtime)
}

func userDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "rutctl")
	}
	return ".rutctl"
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL")
	}

	switch cfg.Session.Store {
	case SessionStoreFile, SessionStoreMemory:
	case SessionStoreRedis:
		if cfg.Session.Redis.Address == "" {
			return fmt.Errorf("session.redis.address is required when session.store is redis")
		}
	default:
		return fmt.Errorf("session.store must be one of file, redis, memory")
	}

	switch cfg.Delivery.Runtime {
	case RuntimeAuto, RuntimeWeb, RuntimeMobile:
	default:
		return fmt.Errorf("delivery.runtime must be one of auto, web, mobile")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// RequestTimeout is the upper bound for a single backend call.
func (c *Config) RequestTimeout() time.Duration {
	return GetDuration(c.Backend.Timeout)
}
