// internal/config/config.go
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	RPCList         []string `mapstructure:"rpc_list"`
	PostgresURL     string   `mapstructure:"postgres_url"`
	ListenAddr      string   `mapstructure:"listen_addr"`
	WalletKey       string   `mapstructure:"wallet_key"`
	ProgramID       string   `mapstructure:"program_id"`
	FeeRecipient    string   `mapstructure:"fee_recipient"`
	ConfirmDelay    int      `mapstructure:"confirm_delay"`
	RefreshDelay    int      `mapstructure:"refresh_delay"`
	MetadataTimeout int      `mapstructure:"metadata_timeout"`
	Retries         int      `mapstructure:"retries"`
	DebugLogging    bool     `mapstructure:"debug_logging"`

	Curve CurveConfig `mapstructure:"curve"`
}

// CurveConfig mirrors the parameters of the deployed launch program. Changing
// these without redeploying the program desynchronizes every quote.
type CurveConfig struct {
	InitialPrice         float64 `mapstructure:"initial_price"`
	MaxSupply            float64 `mapstructure:"max_supply"`
	BondingCurvePercent  float64 `mapstructure:"bonding_curve_percent"`
	PriceStepSize        float64 `mapstructure:"price_step_size"`
	CreatorMaxBuyPercent float64 `mapstructure:"creator_max_buy_percent"`
	FeePercent           float64 `mapstructure:"fee_percent"`
}

const (
	DefaultListenAddr      = ":8080"
	DefaultConfirmDelay    = 500
	DefaultRefreshDelay    = 2000
	DefaultMetadataTimeout = 5000
	DefaultRetries         = 3
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"listen_addr":      DefaultListenAddr,
		"confirm_delay":    DefaultConfirmDelay,
		"refresh_delay":    DefaultRefreshDelay,
		"metadata_timeout": DefaultMetadataTimeout,
		"retries":          DefaultRetries,

		"curve.initial_price":           0.0001533,
		"curve.max_supply":              1_000_000_000,
		"curve.bonding_curve_percent":   70,
		"curve.price_step_size":         100_000_000,
		"curve.creator_max_buy_percent": 5,
		"curve.fee_percent":             1,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if cfg.PostgresURL == "" {
		return errors.New("missing postgres_url in configuration")
	}
	if cfg.ProgramID == "" {
		return errors.New("missing program_id in configuration")
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	return validateCurveParams(&cfg.Curve)
}

func validateNumericParams(cfg *Config) error {
	if cfg.ConfirmDelay <= 0 {
		return errors.New("invalid confirm_delay")
	}
	if cfg.RefreshDelay <= 0 {
		return errors.New("invalid refresh_delay")
	}
	if cfg.MetadataTimeout <= 0 {
		return errors.New("invalid metadata_timeout")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	return nil
}

func validateCurveParams(c *CurveConfig) error {
	if c.InitialPrice <= 0 {
		return errors.New("invalid curve initial_price")
	}
	if c.MaxSupply <= 0 {
		return errors.New("invalid curve max_supply")
	}
	if c.BondingCurvePercent <= 0 || c.BondingCurvePercent > 100 {
		return errors.New("invalid curve bonding_curve_percent")
	}
	if c.PriceStepSize <= 0 {
		return errors.New("invalid curve price_step_size")
	}
	if c.CreatorMaxBuyPercent < 0 || c.CreatorMaxBuyPercent > 100 {
		return errors.New("invalid curve creator_max_buy_percent")
	}
	if c.FeePercent < 0 || c.FeePercent >= 100 {
		return errors.New("invalid curve fee_percent")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envWalletKey := v.GetString("WALLET_KEY")
	if envWalletKey != "" {
		cfg.WalletKey = envWalletKey
	}

	envPostgres := v.GetString("POSTGRES_URL")
	if envPostgres != "" {
		cfg.PostgresURL = envPostgres
	}

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}
	return nil
}
