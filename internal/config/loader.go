package config

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/fraudguard/fraudguard/pkg/logger"
)

// LoadConfig loads the configuration from file and environment variables.
// The returned viper instance backs WatchLogLevel.
func LoadConfig(log logger.Logger) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/fraudguard/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, err
		}
	}

	v.SetEnvPrefix("FRAUDGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return &cfg, v, nil
}

// WatchLogLevel re-reads the log level when the config file changes on disk,
// so verbosity can be adjusted without a restart.
func WatchLogLevel(v *viper.Viper, log logger.Logger) {
	v.OnConfigChange(func(e fsnotify.Event) {
		level := v.GetString("log.level")
		log.SetLevel(logger.ParseLevel(level))
		log.Info(context.Background(), "log level reloaded", logger.Fields{
			"file":  e.Name,
			"level": level,
		})
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.issuer", "fraudguard")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.profile_ttl", 720)

	v.SetDefault("kafka.alert_topic", "fraud.alerts")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "1s")
	v.SetDefault("kafka.write_timeout", "10s")
	v.SetDefault("kafka.required_acks", 1)

	v.SetDefault("cache.entity_risk_ttl_hours", 24)
	v.SetDefault("cache.sweep_interval_mins", 60)
	v.SetDefault("cache.profile_shards", 64)
	v.SetDefault("cache.velocity_window_limit", 128)

	v.SetDefault("training.autoencoder_epochs", 50)
	v.SetDefault("training.boosting_rounds", 100)
	v.SetDefault("training.forest_trees", 100)
	v.SetDefault("training.min_rows", 50)
	v.SetDefault("training.holdout_fraction", 0.2)
	v.SetDefault("training.seed", 42)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "fraudguard")
	v.SetDefault("tracing.sampling_rate", 0.1)

	v.SetDefault("profiling.pprof_enabled", false)
}
