package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Storage *StorageConfig `mapstructure:"storage"`
	Log     *LogConfig     `mapstructure:"log"`
}

type StorageConfig struct {
	// DataDir holds every table file and index file.
	DataDir string `mapstructure:"data_dir"`

	// NodeCacheSize is the number of decoded index nodes kept per tree.
	// Zero disables the cache.
	NodeCacheSize int64 `mapstructure:"node_cache_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func New() *AppConfig {
	return &AppConfig{
		Storage: &StorageConfig{
			DataDir:       "./data",
			NodeCacheSize: 1024,
		},
		Log: &LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path on top of the defaults. An empty path
// only applies ROWDB_* environment overrides.
func Load(path string) (*AppConfig, error) {
	def := New()

	v := viper.New()
	v.SetDefault("storage.data_dir", def.Storage.DataDir)
	v.SetDefault("storage.node_cache_size", def.Storage.NodeCacheSize)
	v.SetDefault("log.level", def.Log.Level)

	v.SetEnvPrefix("rowdb")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if cfg.Storage.NodeCacheSize < 0 {
		return nil, errors.Errorf("invalid node_cache_size: %d", cfg.Storage.NodeCacheSize)
	}
	return cfg, nil
}
