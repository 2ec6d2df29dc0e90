package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Eth      EthConfig      `mapstructure:"eth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Explorer ExplorerConfig `mapstructure:"explorer"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type EthConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`
	RegistryAddress string `mapstructure:"registry_address"`
	ChainID         int64  `mapstructure:"chain_id"`
	WalletKeyFile   string `mapstructure:"wallet_key_file"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ExplorerConfig struct {
	SummaryCacheTTL time.Duration `mapstructure:"summary_cache_ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type WatcherConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("eth.rpc_url", "ws://localhost:8545")
	viper.SetDefault("eth.registry_address", "0x31D92593d3F7800fcdEf03E6D47902dE28236C53")
	viper.SetDefault("eth.chain_id", 0)
	viper.SetDefault("eth.wallet_key_file", "")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("explorer.summary_cache_ttl", 30*time.Second)
	viper.SetDefault("explorer.refresh_interval", 1*time.Minute)
	viper.SetDefault("watcher.poll_interval", 10*time.Second)

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/auction-explorer/")

	// Environment variable support
	viper.AutomaticEnv()

	// Environment variable mappings
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("eth.rpc_url", "ETH_RPC_URL")
	viper.BindEnv("eth.registry_address", "ETH_REGISTRY_ADDRESS")
	viper.BindEnv("eth.chain_id", "ETH_CHAIN_ID")
	viper.BindEnv("eth.wallet_key_file", "ETH_WALLET_KEY_FILE")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("explorer.summary_cache_ttl", "EXPLORER_SUMMARY_CACHE_TTL")
	viper.BindEnv("explorer.refresh_interval", "EXPLORER_REFRESH_INTERVAL")
	viper.BindEnv("watcher.poll_interval", "WATCHER_POLL_INTERVAL")

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, continue with defaults and environment variables
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, RPC: %s, Registry: %s, Redis: %s",
		c.Server.Host,
		c.Server.Port,
		c.Eth.RPCURL,
		c.Eth.RegistryAddress,
		c.Redis.Address,
	)
}
