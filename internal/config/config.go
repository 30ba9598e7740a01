package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`

	Anomaly    AnomalyConfig    `mapstructure:"anomaly"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
	Sweep      SweepConfig      `mapstructure:"sweep"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// AnomalyConfig tunes the statistical baseline checks in record validation.
// Anomaly hits are warnings only and never block a write.
type AnomalyConfig struct {
	BaselineDays       int     `mapstructure:"baseline_days"`
	MinBaselineRecords int     `mapstructure:"min_baseline_records"`
	DeviationPct       float64 `mapstructure:"deviation_pct"`
	DominanceRatio     float64 `mapstructure:"dominance_ratio"`
}

// AlertsConfig carries the loss and capability alert thresholds. All values
// are injected into the services; nothing is hard-coded at call sites.
type AlertsConfig struct {
	ConsecutiveLossDays     int     `mapstructure:"consecutive_loss_days"`
	ConsecutiveLossCritical int     `mapstructure:"consecutive_loss_critical"`
	RollingWindowDays       int     `mapstructure:"rolling_window_days"`
	RollingLossThreshold    float64 `mapstructure:"rolling_loss_threshold"`
	LossRateThresholdPct    float64 `mapstructure:"loss_rate_threshold_pct"`
	CapabilityDeclineScore  float64 `mapstructure:"capability_decline_score"`
	CapabilityCriticalScore float64 `mapstructure:"capability_critical_score"`
}

type AssessmentConfig struct {
	MinScore             float64 `mapstructure:"min_score"`
	MaxScore             float64 `mapstructure:"max_score"`
	NeedsImprovementBelow float64 `mapstructure:"needs_improvement_below"`
}

type SweepConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OPSMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("anomaly.baseline_days", 30)
	v.SetDefault("anomaly.min_baseline_records", 7)
	v.SetDefault("anomaly.deviation_pct", 50)
	v.SetDefault("anomaly.dominance_ratio", 0.7)

	v.SetDefault("alerts.consecutive_loss_days", 7)
	v.SetDefault("alerts.consecutive_loss_critical", 14)
	v.SetDefault("alerts.rolling_window_days", 30)
	v.SetDefault("alerts.rolling_loss_threshold", -50000)
	v.SetDefault("alerts.loss_rate_threshold_pct", -10)
	v.SetDefault("alerts.capability_decline_score", 1.0)
	v.SetDefault("alerts.capability_critical_score", 2.0)

	v.SetDefault("assessment.min_score", 0)
	v.SetDefault("assessment.max_score", 10)
	v.SetDefault("assessment.needs_improvement_below", 5.0)

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.schedule", "@every 1h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
