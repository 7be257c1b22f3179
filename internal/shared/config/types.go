package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver is "mysql" (default) or "sqlite".
	Driver            string `mapstructure:"driver"`
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	SQLitePath        string `mapstructure:"sqlite_path"`
	MaxIdleConns      int    `mapstructure:"max_idle_conns"`
	MaxOpenConns      int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime   int    `mapstructure:"conn_max_lifetime"`
	MigrationStrategy string `mapstructure:"migration_strategy"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC&multiStatements=true",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// VaultConfig configures channel credential encryption at rest.
type VaultConfig struct {
	Secret    string `mapstructure:"secret"`
	Algorithm string `mapstructure:"algorithm"`
}

// ControlPlaneConfig configures the external provisioning API client.
type ControlPlaneConfig struct {
	Endpoint       string  `mapstructure:"endpoint"`
	Token          string  `mapstructure:"token"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

func (c *ControlPlaneConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ProvisioningConfig struct {
	TemplateProjectID string `mapstructure:"template_project_id"`
	TemplateServiceID string `mapstructure:"template_service_id"`
	NamePrefix        string `mapstructure:"name_prefix"`
	EnvironmentName   string `mapstructure:"environment_name"`
	LockTTLSeconds    int    `mapstructure:"lock_ttl_seconds"`
}

func (p *ProvisioningConfig) LockTTL() time.Duration {
	if p.LockTTLSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(p.LockTTLSeconds) * time.Second
}

// lockTTLMargin covers the database write of the persist step.
const lockTTLMargin = 30 * time.Second

// EffectiveLockTTL is the provisioning lease length. The lease is extended
// before each saga step, so it only has to outlive the longest step, which
// makes two control-plane calls.
func (p *ProvisioningConfig) EffectiveLockTTL(cp *ControlPlaneConfig) time.Duration {
	return max(p.LockTTL(), 2*cp.Timeout()+lockTTLMargin)
}

// MonitorConfig holds deployment tracking intervals. All values are seconds.
type MonitorConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	SweepIntervalSeconds  int  `mapstructure:"sweep_interval_seconds"`
	TrackIntervalSeconds  int  `mapstructure:"track_interval_seconds"`
	WaitIntervalSeconds   int  `mapstructure:"wait_interval_seconds"`
	WaitTimeoutSeconds    int  `mapstructure:"wait_timeout_seconds"`
	AlertThresholdSeconds int  `mapstructure:"alert_threshold_seconds"`
	CheckTimeoutSeconds   int  `mapstructure:"check_timeout_seconds"`
	SweepConcurrency      int  `mapstructure:"sweep_concurrency"`
}

func seconds(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}

func (m *MonitorConfig) SweepInterval() time.Duration {
	return seconds(m.SweepIntervalSeconds, 30*time.Second)
}

func (m *MonitorConfig) TrackInterval() time.Duration {
	return seconds(m.TrackIntervalSeconds, 30*time.Second)
}

func (m *MonitorConfig) WaitInterval() time.Duration {
	return seconds(m.WaitIntervalSeconds, 3*time.Second)
}

func (m *MonitorConfig) WaitTimeout() time.Duration {
	return seconds(m.WaitTimeoutSeconds, 5*time.Minute)
}

func (m *MonitorConfig) AlertThreshold() time.Duration {
	return seconds(m.AlertThresholdSeconds, 5*time.Minute)
}

func (m *MonitorConfig) CheckTimeout() time.Duration {
	return seconds(m.CheckTimeoutSeconds, 30*time.Second)
}

// HookConfig guards the internal payment-confirmed endpoint and the
// operator routes under /admin.
type HookConfig struct {
	Token      string `mapstructure:"token"`
	AdminToken string `mapstructure:"admin_token"`
	// RateLimit is requests per RateWindowSeconds per client IP. Zero disables it.
	RateLimit         int `mapstructure:"rate_limit"`
	RateWindowSeconds int `mapstructure:"rate_window_seconds"`
}

func (h *HookConfig) RateWindow() time.Duration {
	return seconds(h.RateWindowSeconds, time.Minute)
}
