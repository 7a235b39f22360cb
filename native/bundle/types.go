package bundle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Kind is the registry kind of bundle coordinators.
const Kind = "bundle"

// Record is the persisted state of a coordinator. A and B are weak references:
// they are resolved on every mint and may point anywhere.
type Record struct {
	Address common.Address
	Owner   common.Address
	Price   *big.Int
	A       common.Address
	B       common.Address
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

// Config carries the constructor arguments of a coordinator.
type Config struct {
	Owner common.Address
	Price *big.Int
}

// Minted reports the token ids issued by one bundle mint.
type Minted struct {
	A uint64 `json:"a"`
	B uint64 `json:"b"`
}

// Split divides a bundle payment between the two collections: B receives
// half rounded down and A receives the rest.
func Split(payment *big.Int) (*big.Int, *big.Int) {
	if payment == nil || payment.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	shareB := new(big.Int).Rsh(payment, 1)
	shareA := new(big.Int).Sub(payment, shareB)
	return shareA, shareB
}
