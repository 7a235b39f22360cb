package collection

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftwrapped/native/sale"
)

// Kind is the registry kind of collection contracts.
const Kind = "collection"

// Record is the persisted configuration and phase of one collection. The
// accumulated balance lives on the collection's account, not here.
type Record struct {
	Address common.Address
	Name    string
	Owner   common.Address
	Bundle  common.Address
	Root    common.Hash
	Price   *big.Int
	BaseURI string
	Phase   sale.Phase
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Price != nil {
		clone.Price = new(big.Int).Set(r.Price)
	}
	return &clone
}

func (r *Record) sale() sale.State {
	return sale.State{Phase: r.Phase}
}

func (r *Record) price() *big.Int {
	if r.Price == nil {
		return big.NewInt(0)
	}
	return r.Price
}

// Config carries the constructor arguments of a collection.
type Config struct {
	Name    string
	Owner   common.Address
	Bundle  common.Address
	Root    common.Hash
	Price   *big.Int
	BaseURI string
}

// Summary is the read-only view served to query clients.
type Summary struct {
	Address   common.Address `json:"address"`
	Name      string         `json:"name"`
	Owner     common.Address `json:"owner"`
	Bundle    common.Address `json:"bundle"`
	Presale   bool           `json:"presale"`
	Price     *big.Int       `json:"price"`
	Minted    uint64         `json:"minted"`
	Balance   *big.Int       `json:"balance"`
	Whitelist common.Hash    `json:"whitelistRoot"`
}
