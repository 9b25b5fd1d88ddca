package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Catalog CatalogConfig `yaml:"catalog"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Auth    AuthConfig    `yaml:"auth"`
	Media   MediaConfig   `yaml:"media"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type RedisConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	SessionExpire int    `yaml:"session_expire"`
}

type CatalogConfig struct {
	Path            string `yaml:"path"`
	MaxConnections  int    `yaml:"max_connections"`
	IdleTimeoutSecs int    `yaml:"idle_timeout_secs"`
	BusyTimeoutMs   int    `yaml:"busy_timeout_ms"`
}

type StorageConfig struct {
	Backend                string            `yaml:"backend"`
	UploadDir              string            `yaml:"upload_dir"`
	ChunkSize              int64             `yaml:"chunk_size"`
	MaxFileSize            int64             `yaml:"max_file_size"`
	OrphanScanIntervalSecs int               `yaml:"orphan_scan_interval_secs"`
	OrphanRetentionSecs    int               `yaml:"orphan_retention_secs"`
	Object                 ObjectStoreConfig `yaml:"object"`
}

type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type SearchConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	Index       string `yaml:"index"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type AuthConfig struct {
	Tokens []string `yaml:"tokens"`
}

type MediaConfig struct {
	FFmpegPath      string `yaml:"ffmpeg_path"`
	FFprobePath     string `yaml:"ffprobe_path"`
	MaxTrimDuration int64  `yaml:"max_trim_duration"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	AppConfig = &cfg
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Redis.SessionExpire == 0 {
		cfg.Redis.SessionExpire = 86400
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "reelpick.db"
	}
	if cfg.Catalog.MaxConnections == 0 {
		cfg.Catalog.MaxConnections = 10
	}
	if cfg.Catalog.IdleTimeoutSecs == 0 {
		cfg.Catalog.IdleTimeoutSecs = 300
	}
	if cfg.Catalog.BusyTimeoutMs == 0 {
		cfg.Catalog.BusyTimeoutMs = 5000
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "uploads"
	}
	if cfg.Storage.ChunkSize == 0 {
		cfg.Storage.ChunkSize = 1 << 20
	}
	if cfg.Storage.MaxFileSize == 0 {
		cfg.Storage.MaxFileSize = 1000 << 20
	}
	if cfg.Storage.OrphanScanIntervalSecs == 0 {
		cfg.Storage.OrphanScanIntervalSecs = 3600
	}
	if cfg.Storage.OrphanRetentionSecs == 0 {
		cfg.Storage.OrphanRetentionSecs = 86400
	}
	if cfg.Search.Index == "" {
		cfg.Search.Index = "reelpick-uploads"
	}
	if cfg.Search.TimeoutSecs == 0 {
		cfg.Search.TimeoutSecs = 10
	}
	if cfg.Media.FFmpegPath == "" {
		cfg.Media.FFmpegPath = "ffmpeg"
	}
	if cfg.Media.FFprobePath == "" {
		cfg.Media.FFprobePath = "ffprobe"
	}
	if cfg.Media.MaxTrimDuration == 0 {
		cfg.Media.MaxTrimDuration = 3600
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
