package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// etherDecimals is the number of wei decimals in one ether.
const etherDecimals = 18

// CollectionParams are the parsed constructor arguments of a collection.
type CollectionParams struct {
	Name    string
	BaseURI string
	Price   *big.Int
}

// GenesisAlloc funds Address with Balance wei before deployment.
type GenesisAlloc struct {
	Address common.Address
	Balance *big.Int
}

// Params is the validated runtime form of Config.
type Params struct {
	Owner       common.Address
	Whitelist   []common.Address
	Wrapped     CollectionParams
	Leaderboard CollectionParams
	BundlePrice *big.Int
	Genesis     []GenesisAlloc
}

// ParseEther converts an ether decimal string such as "0.02" into wei.
func ParseEther(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount %q must not be negative", value)
	}
	wei := amount.Shift(etherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", value, etherDecimals)
	}
	return wei.BigInt(), nil
}

// FormatEther renders wei as an ether decimal string.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, value)
	}
	return common.HexToAddress(trimmed), nil
}

func parseCollection(field string, c CollectionConfig) (CollectionParams, error) {
	price, err := ParseEther(c.Price)
	if err != nil {
		return CollectionParams{}, fmt.Errorf("%s.Price: %w", field, err)
	}
	return CollectionParams{Name: strings.TrimSpace(c.Name), BaseURI: strings.TrimSpace(c.BaseURI), Price: price}, nil
}

// Params parses and validates the configuration.
func (c *Config) Params() (*Params, error) {
	owner, err := parseAddress("Owner", c.Owner)
	if err != nil {
		return nil, err
	}
	if owner == (common.Address{}) {
		return nil, fmt.Errorf("Owner: zero address")
	}
	params := &Params{Owner: owner}
	for i, entry := range c.Whitelist {
		addr, err := parseAddress(fmt.Sprintf("Whitelist[%d]", i), entry)
		if err != nil {
			return nil, err
		}
		params.Whitelist = append(params.Whitelist, addr)
	}
	if params.Wrapped, err = parseCollection("Wrapped", c.Wrapped); err != nil {
		return nil, err
	}
	if params.Leaderboard, err = parseCollection("Leaderboard", c.Leaderboard); err != nil {
		return nil, err
	}
	if params.BundlePrice, err = ParseEther(c.Bundle.Price); err != nil {
		return nil, fmt.Errorf("Bundle.Price: %w", err)
	}
	for i, alloc := range c.Genesis {
		addr, err := parseAddress(fmt.Sprintf("Genesis[%d].Address", i), alloc.Address)
		if err != nil {
			return nil, err
		}
		balance, err := ParseEther(alloc.Balance)
		if err != nil {
			return nil, fmt.Errorf("Genesis[%d].Balance: %w", i, err)
		}
		params.Genesis = append(params.Genesis, GenesisAlloc{Address: addr, Balance: balance})
	}
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	return params, nil
}

// ValidateParams enforces the pricing invariants.
func ValidateParams(p *Params) error {
	if p.Wrapped.Name == "" || p.Leaderboard.Name == "" {
		return fmt.Errorf("collections: name required")
	}
	sum := new(big.Int).Add(p.Wrapped.Price, p.Leaderboard.Price)
	if p.BundlePrice.Cmp(sum) >= 0 {
		return fmt.Errorf("bundle: price %s must be below the combined collection price %s",
			FormatEther(p.BundlePrice), FormatEther(sum))
	}
	return nil
}
