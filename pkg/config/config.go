package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"unidash/pkg/event"
	"unidash/pkg/network"
	"unidash/pkg/rpc"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFileName is looked up in the working directory and then in $HOME
// when no config file is given.
const ConfigFileName = ".unidash"

const (
	DefaultRPCURL   = "https://eth.llamarpc.com"
	DefaultLogLevel = "info"
	DefaultLogFile  = "unidash.log"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL             string
	SubgraphURL        string
	GraphAPIKey        string
	LimitOrdersURL     string
	CoinGeckoURL       string
	TickRate           time.Duration
	LimitOrderInterval time.Duration
	HTTPTimeout        time.Duration
	MockData           bool
	LogLevel           string
	LogFile            string
	Port               int
}

// BindFlags registers every configuration flag on flags.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("rpc", DefaultRPCURL, "Ethereum JSON-RPC URL used for ENS and balances")
	flags.String("subgraph-url", rpc.DefaultSubgraphURL, "Uniswap v3 subgraph URL")
	flags.String("graph-api-key", "", "The Graph API key (required for the gateway)")
	flags.String("limit-orders-url", rpc.DefaultLimitOrdersURL, "Uniswap open limit orders URL")
	flags.String("coingecko-url", rpc.CoinGeckoBaseURL, "CoinGecko API base URL")
	flags.Duration("tick-rate", event.DefaultTickRate, "redraw and animation interval")
	flags.Duration("limit-order-interval", network.DefaultLimitOrderInterval, "limit order refresh interval")
	flags.Duration("http-timeout", rpc.DefaultTimeout, "timeout for each outbound request")
	flags.Bool("mock-data", false, "use built-in mock positions and limit orders")
	flags.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("log-file", DefaultLogFile, "log file path; the terminal is owned by the UI")
	flags.Int("port", 0, "port for the status API, 0 disables it")
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("UNIDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("mock-data", "UNIDASH_MOCK_DATA", "USE_MOCK_DATA"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	v.SetDefault("rpc", DefaultRPCURL)
	v.SetDefault("subgraph-url", rpc.DefaultSubgraphURL)
	v.SetDefault("limit-orders-url", rpc.DefaultLimitOrdersURL)
	v.SetDefault("coingecko-url", rpc.CoinGeckoBaseURL)
	v.SetDefault("tick-rate", event.DefaultTickRate)
	v.SetDefault("limit-order-interval", network.DefaultLimitOrderInterval)
	v.SetDefault("http-timeout", rpc.DefaultTimeout)
	v.SetDefault("mock-data", false)
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("log-file", DefaultLogFile)
	v.SetDefault("port", 0)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:             strings.TrimSpace(v.GetString("rpc")),
		SubgraphURL:        strings.TrimSpace(v.GetString("subgraph-url")),
		GraphAPIKey:        strings.TrimSpace(v.GetString("graph-api-key")),
		LimitOrdersURL:     strings.TrimSpace(v.GetString("limit-orders-url")),
		CoinGeckoURL:       strings.TrimSpace(v.GetString("coingecko-url")),
		TickRate:           v.GetDuration("tick-rate"),
		LimitOrderInterval: v.GetDuration("limit-order-interval"),
		HTTPTimeout:        v.GetDuration("http-timeout"),
		MockData:           v.GetBool("mock-data"),
		LogLevel:           v.GetString("log-level"),
		LogFile:            v.GetString("log-file"),
		Port:               v.GetInt("port"),
	}

	return cfg, nil
}

// Validate reports the first setting the dashboard cannot start with.
func (c Config) Validate() error {
	if !c.MockData && c.RPCURL == "" {
		return fmt.Errorf("validation failed: rpc url is required")
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("validation failed: tick-rate must be positive, got %s", c.TickRate)
	}
	if c.LimitOrderInterval <= 0 {
		return fmt.Errorf("validation failed: limit-order-interval must be positive, got %s", c.LimitOrderInterval)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("validation failed: http-timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("validation failed: port %d out of range", c.Port)
	}
	return nil
}
