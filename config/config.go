package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk deployment configuration. Amounts are ether decimal
// strings; Params converts them to wei.
type Config struct {
	NetworkName string `toml:"NetworkName"`
	Environment string `toml:"Environment"`
	RPCAddress  string `toml:"RPCAddress"`
	// RPCRequestsPerMinute limits each query API client; zero disables it.
	RPCRequestsPerMinute float64          `toml:"RPCRequestsPerMinute"`
	RPCBurst             int              `toml:"RPCBurst"`
	DataDir              string           `toml:"DataDir"`
	LogFile              string           `toml:"LogFile"`
	Owner                string           `toml:"Owner"`
	Whitelist            []string         `toml:"Whitelist"`
	WhitelistFile        string           `toml:"WhitelistFile"`
	Wrapped              CollectionConfig `toml:"Wrapped"`
	Leaderboard          CollectionConfig `toml:"Leaderboard"`
	Bundle               BundleConfig     `toml:"Bundle"`
	Genesis              []Allocation     `toml:"Genesis"`
}

// CollectionConfig holds the constructor arguments of one collection.
type CollectionConfig struct {
	Name    string `toml:"Name"`
	BaseURI string `toml:"BaseURI"`
	Price   string `toml:"Price"`
}

// BundleConfig holds the constructor arguments of the bundle coordinator.
type BundleConfig struct {
	Price string `toml:"Price"`
}

// Allocation funds an address at genesis.
type Allocation struct {
	Address string `toml:"Address"`
	Balance string `toml:"Balance"`
}

// Load loads the configuration from the given path. A missing file is
// replaced by the default configuration, which is written to path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.applyDefaults()
	if err := cfg.resolveWhitelistFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = def.NetworkName
	}
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = def.RPCAddress
	}
	if strings.TrimSpace(c.Wrapped.Name) == "" {
		c.Wrapped.Name = def.Wrapped.Name
	}
	if strings.TrimSpace(c.Leaderboard.Name) == "" {
		c.Leaderboard.Name = def.Leaderboard.Name
	}
	if c.Whitelist == nil {
		c.Whitelist = []string{}
	}
}

// Default returns the local development configuration: the well-known dev
// accounts, the production metadata buckets and the launch prices.
func Default() *Config {
	return &Config{
		NetworkName:          "nft-local",
		Environment:          "local",
		RPCAddress:           "127.0.0.1:8545",
		RPCRequestsPerMinute: 600,
		RPCBurst:             60,
		DataDir:              "",
		Owner:                "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Whitelist: []string{
			"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
			"0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		},
		Wrapped: CollectionConfig{
			Name:    "NFTWrapped",
			BaseURI: "https://storage.googleapis.com/nft-wrapped/nft/json/",
			Price:   "0.02",
		},
		Leaderboard: CollectionConfig{
			Name:    "NFTWrappedLeaderboard",
			BaseURI: "https://storage.googleapis.com/nft-wrapped/leaderboard/json/",
			Price:   "0.05",
		},
		Bundle: BundleConfig{Price: "0.06"},
		Genesis: []Allocation{
			{Address: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", Balance: "10000"},
			{Address: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", Balance: "10000"},
			{Address: "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC", Balance: "10000"},
		},
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
