package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSeeds are the bootstrap pRPC endpoints tried when neither the
// caller nor the environment supplies a seed list.
var DefaultSeeds = []string{
	"173.212.220.65",
	"161.97.97.41",
	"192.190.136.36",
	"192.190.136.38",
	"207.244.255.1",
	"192.190.136.28",
	"192.190.136.29",
	"173.212.203.145",
}

type Config struct {
	Server  ServerConfig  `json:"server"`
	PRPC    PRPCConfig    `json:"prpc"`
	Poll    PollConfig    `json:"poll"`
	History HistoryConfig `json:"history"`
	Alerts  AlertsConfig  `json:"alerts"`
	Store   StoreConfig   `json:"store"`
	Redis   RedisConfig   `json:"redis"`
	MongoDB MongoDBConfig `json:"mongodb"`
	Export  ExportConfig  `json:"export"`
	Discord DiscordConfig `json:"discord"`
	GeoIP   GeoIPConfig   `json:"geoip"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type PRPCConfig struct {
	DefaultPort int      `json:"default_port"`
	TimeoutMs   int      `json:"timeout_ms"`
	Seeds       []string `json:"seeds"`
}

type PollConfig struct {
	CacheTTLMs            int `json:"cache_ttl_ms"`
	StaleThresholdSeconds int `json:"stale_threshold_seconds"`
}

type HistoryConfig struct {
	MaxEntries int `json:"max_entries"`
}

type AlertsConfig struct {
	LegacyEnabled bool `json:"legacy_enabled"`
}

type StoreConfig struct {
	// Backend selects the blob store: "file", "redis", or "mongo".
	Backend   string `json:"backend"`
	DataRoot  string `json:"data_root"`
	Namespace string `json:"namespace"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	UseTLS   bool   `json:"use_tls"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

type ExportConfig struct {
	Token string `json:"token"`
}

type DiscordConfig struct {
	BotToken  string `json:"bot_token"`
	ChannelID string `json:"channel_id"`
}

type GeoIPConfig struct {
	DBPath string `json:"db_path"`
}

func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		PRPC: PRPCConfig{
			DefaultPort: 6000,
			TimeoutMs:   7000,
		},
		Poll: PollConfig{
			CacheTTLMs:            25000,
			StaleThresholdSeconds: 1800,
		},
		History: HistoryConfig{
			MaxEntries: 288,
		},
		Alerts: AlertsConfig{
			LegacyEnabled: true,
		},
		Store: StoreConfig{
			Backend:   "file",
			DataRoot:  "data",
			Namespace: "atlas",
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		MongoDB: MongoDBConfig{
			URI:      "mongodb://localhost:27017",
			Database: "atlas",
		},
	}

	// Optional config file, overridden by environment below
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}
	if file, err := os.Open(configPath); err == nil {
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			fmt.Printf("Warning: Failed to decode config file: %v\n", err)
		}
		file.Close()
	}

	loadEnv(cfg)

	if cfg.History.MaxEntries <= 0 {
		cfg.History.MaxEntries = 288
	}

	return cfg, nil
}

func loadEnv(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		cfg.Server.AllowedOrigins = strings.Split(val, ",")
	}

	if val := os.Getenv("PNODE_SEEDS"); val != "" {
		parts := strings.Split(val, ",")
		seeds := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				seeds = append(seeds, trimmed)
			}
		}
		cfg.PRPC.Seeds = seeds
	}
	if val := os.Getenv("PNODE_RPC_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.DefaultPort = p
		}
	}
	if val := os.Getenv("PNODE_REQUEST_TIMEOUT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.PRPC.TimeoutMs = p
		}
	}

	if val := os.Getenv("PNODE_CACHE_TTL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Poll.CacheTTLMs = p
		}
	}
	if val := os.Getenv("PNODE_STALE_SECONDS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Poll.StaleThresholdSeconds = p
		}
	}
	if val := os.Getenv("PNODE_HISTORY_LIMIT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.History.MaxEntries = p
		}
	}

	if val := os.Getenv("LEGACY_ALERTS_ENABLED"); val != "" {
		cfg.Alerts.LegacyEnabled = val == "true" || val == "1"
	}

	if val := os.Getenv("STORE_BACKEND"); val != "" {
		cfg.Store.Backend = val
	}
	if val := os.Getenv("DATA_ROOT"); val != "" {
		cfg.Store.DataRoot = val
	}
	if val := os.Getenv("STORE_NAMESPACE"); val != "" {
		cfg.Store.Namespace = val
	}

	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = p
		}
	}
	if val := os.Getenv("REDIS_USE_TLS"); val != "" {
		cfg.Redis.UseTLS = val == "true" || val == "1"
	}

	if val := os.Getenv("MONGODB_URI"); val != "" {
		cfg.MongoDB.URI = val
	}
	if val := os.Getenv("MONGODB_DATABASE"); val != "" {
		cfg.MongoDB.Database = val
	}

	if val := os.Getenv("EXPORT_API_TOKEN"); val != "" {
		cfg.Export.Token = strings.TrimSpace(val)
	}

	if val := os.Getenv("DISCORD_BOT_TOKEN"); val != "" {
		cfg.Discord.BotToken = val
	}
	if val := os.Getenv("DISCORD_CHANNEL_ID"); val != "" {
		cfg.Discord.ChannelID = val
	}

	if val := os.Getenv("GEOIP_DB_PATH"); val != "" {
		cfg.GeoIP.DBPath = val
	}
}

// Duration helpers

func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.PRPC.TimeoutMs) * time.Millisecond
}

func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.Poll.CacheTTLMs) * time.Millisecond
}

func (c *Config) StaleThresholdDuration() time.Duration {
	return time.Duration(c.Poll.StaleThresholdSeconds) * time.Second
}
