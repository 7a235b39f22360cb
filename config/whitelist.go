package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type whitelistFile struct {
	Addresses []string `yaml:"addresses"`
}

// LoadWhitelistFile reads presale addresses kept outside the main config:
//
//	addresses:
//	  - 0x70997970C51812dc3A010C7d01b50e0d17dc79C8
func LoadWhitelistFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whitelist %s: %w", path, err)
	}
	var file whitelistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse whitelist %s: %w", path, err)
	}
	return file.Addresses, nil
}

// resolveWhitelistFile merges WhitelistFile into Whitelist. Relative paths are
// taken from the directory of the config file.
func (c *Config) resolveWhitelistFile(configPath string) error {
	if c.WhitelistFile == "" {
		return nil
	}
	path := c.WhitelistFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(configPath), path)
	}
	addrs, err := LoadWhitelistFile(path)
	if err != nil {
		return err
	}
	c.Whitelist = append(c.Whitelist, addrs...)
	return nil
}
