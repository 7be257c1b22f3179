package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/hatchery-inc/hatchery/internal/shared/config"
)

type Config struct {
	Server       sharedConfig.ServerConfig       `mapstructure:"server"`
	Database     sharedConfig.DatabaseConfig     `mapstructure:"database"`
	Logger       sharedConfig.LoggerConfig       `mapstructure:"logger"`
	Redis        sharedConfig.RedisConfig        `mapstructure:"redis"`
	Vault        sharedConfig.VaultConfig        `mapstructure:"vault"`
	ControlPlane sharedConfig.ControlPlaneConfig `mapstructure:"controlplane"`
	Provisioning sharedConfig.ProvisioningConfig `mapstructure:"provisioning"`
	Monitor      sharedConfig.MonitorConfig      `mapstructure:"monitor"`
	Hook         sharedConfig.HookConfig         `mapstructure:"hook"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// An optional explicit config file path may be given.
func Load(env string, configPath ...string) (*Config, error) {
	v := viper.New()

	if len(configPath) > 0 && configPath[0] != "" {
		v.SetConfigFile(configPath[0])
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("HATCHERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Environment variables and defaults are enough to run.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func validate(cfg *Config) error {
	if cfg.Vault.Secret == "" {
		return fmt.Errorf("vault.secret is required")
	}
	if cfg.ControlPlane.Endpoint == "" {
		return fmt.Errorf("controlplane.endpoint is required")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	// Database defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "hatchery_dev")
	v.SetDefault("database.sqlite_path", "hatchery.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.migration_strategy", "goose")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Vault defaults
	v.SetDefault("vault.algorithm", "aes-256-gcm")

	// Control plane defaults
	v.SetDefault("controlplane.timeout_seconds", 30)
	v.SetDefault("controlplane.rate_limit_rps", 10)
	v.SetDefault("controlplane.rate_limit_burst", 20)

	// Provisioning defaults
	v.SetDefault("provisioning.name_prefix", "hatch")
	v.SetDefault("provisioning.environment_name", "production")
	v.SetDefault("provisioning.lock_ttl_seconds", 120)

	// Monitor defaults
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.sweep_interval_seconds", 30)
	v.SetDefault("monitor.track_interval_seconds", 30)
	v.SetDefault("monitor.wait_interval_seconds", 3)
	v.SetDefault("monitor.wait_timeout_seconds", 300)
	v.SetDefault("monitor.alert_threshold_seconds", 300)
	v.SetDefault("monitor.check_timeout_seconds", 30)
	v.SetDefault("monitor.sweep_concurrency", 8)

	// Hook defaults
	v.SetDefault("hook.rate_limit", 60)
	v.SetDefault("hook.rate_window_seconds", 60)
}
