package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration shared by every command, loaded from flags,
// env, or config file.
type Config struct {
	RPCURL   string
	Wallet   string
	Contract string

	ChainID          uint64
	ChainName        string
	RPCURLs          []string
	ExplorerURLs     []string
	CurrencyName     string
	CurrencySymbol   string
	CurrencyDecimals uint

	ReadTimeout     time.Duration
	Concurrency     int
	MaxEvents       int
	ConfirmTimeout  time.Duration
	PollInterval    time.Duration
	DropAfter       int
	MaxRetries      int
	RetryDelay      time.Duration
	MetadataTimeout time.Duration
	IPFSGateway     string

	Timezone      string
	ChainCategory string
	Static        string
	Out           string
	PGDSN         string
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config for
// the catalog command.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("out", "./data/catalog.jsonl")
	})
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

// newViper applies the shared defaults, then extra, then flags and the
// config file.
func newViper(cfgFile string, flags *pflag.FlagSet, extra func(v *viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("TICKETHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", uint64(11155111))
	v.SetDefault("chain-name", "Sepolia")
	v.SetDefault("currency-name", "Sepolia Ether")
	v.SetDefault("currency-symbol", "ETH")
	v.SetDefault("currency-decimals", 18)
	v.SetDefault("read-timeout", 15*time.Second)
	v.SetDefault("concurrency", 8)
	v.SetDefault("max-events", 1000)
	v.SetDefault("confirm-timeout", 5*time.Minute)
	v.SetDefault("poll-interval", 2*time.Second)
	v.SetDefault("drop-after", 30)
	v.SetDefault("max-retries", 2)
	v.SetDefault("retry-delay", 250*time.Millisecond)
	v.SetDefault("metadata-timeout", 10*time.Second)
	v.SetDefault("ipfs-gateway", "https://ipfs.io/ipfs/")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("chain-category", "Blockchain")
	v.SetDefault("log-level", "info")
	if extra != nil {
		extra(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) Config {
	cfg := Config{
		RPCURL:   v.GetString("rpc"),
		Wallet:   v.GetString("wallet"),
		Contract: v.GetString("contract"),

		ChainID:          v.GetUint64("chain-id"),
		ChainName:        v.GetString("chain-name"),
		RPCURLs:          getStringSlice(v, "rpc-urls"),
		ExplorerURLs:     getStringSlice(v, "explorer-urls"),
		CurrencyName:     v.GetString("currency-name"),
		CurrencySymbol:   v.GetString("currency-symbol"),
		CurrencyDecimals: v.GetUint("currency-decimals"),

		ReadTimeout:     v.GetDuration("read-timeout"),
		Concurrency:     v.GetInt("concurrency"),
		MaxEvents:       v.GetInt("max-events"),
		ConfirmTimeout:  v.GetDuration("confirm-timeout"),
		PollInterval:    v.GetDuration("poll-interval"),
		DropAfter:       v.GetInt("drop-after"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryDelay:      v.GetDuration("retry-delay"),
		MetadataTimeout: v.GetDuration("metadata-timeout"),
		IPFSGateway:     v.GetString("ipfs-gateway"),

		Timezone:      v.GetString("timezone"),
		ChainCategory: v.GetString("chain-category"),
		Static:        v.GetString("static"),
		Out:           v.GetString("out"),
		PGDSN:         v.GetString("pg-dsn"),
		LogLevel:      v.GetString("log-level"),
	}
	// The read endpoint doubles as the advertised RPC when none is configured.
	if len(cfg.RPCURLs) == 0 && cfg.RPCURL != "" {
		cfg.RPCURLs = []string{cfg.RPCURL}
	}
	return cfg
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
