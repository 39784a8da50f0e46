package config

import (
	"fmt"
	"time"
)

// Config holds the application's configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Training  TrainingConfig  `mapstructure:"training"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
}

type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret"`
	Issuer  string `mapstructure:"issuer"`
}

type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in minutes
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	PoolSize   int    `mapstructure:"pool_size"`
	ProfileTTL int    `mapstructure:"profile_ttl"` // in hours
}

type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	AlertTopic   string        `mapstructure:"alert_topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
}

// Enabled reports whether alert publication is configured.
func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type CacheConfig struct {
	EntityRiskTTLHours  int `mapstructure:"entity_risk_ttl_hours"`
	SweepIntervalMins   int `mapstructure:"sweep_interval_mins"`
	ProfileShards       int `mapstructure:"profile_shards"`
	VelocityWindowLimit int `mapstructure:"velocity_window_limit"`
}

type TrainingConfig struct {
	AutoencoderEpochs int     `mapstructure:"autoencoder_epochs"`
	BoostingRounds    int     `mapstructure:"boosting_rounds"`
	ForestTrees       int     `mapstructure:"forest_trees"`
	MinRows           int     `mapstructure:"min_rows"`
	HoldoutFraction   float64 `mapstructure:"holdout_fraction"`
	Seed              int64   `mapstructure:"seed"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

type ProfilingConfig struct {
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}

// Validate checks invariants that would otherwise surface as runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required when auth is enabled")
	}
	if c.Database.Enabled && c.Database.Host == "" {
		return fmt.Errorf("database.host is required when database is enabled")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when redis is enabled")
	}
	if c.Training.HoldoutFraction <= 0 || c.Training.HoldoutFraction >= 1 {
		return fmt.Errorf("training.holdout_fraction must be in (0,1): %f", c.Training.HoldoutFraction)
	}
	if c.Training.MinRows < 10 {
		return fmt.Errorf("training.min_rows too small: %d", c.Training.MinRows)
	}
	return nil
}
