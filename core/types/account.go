package types

import "math/big"

// Account is the high-level view of an address in world state. Contracts are
// accounts with a non-empty code hash.
type Account struct {
	Nonce    uint64   `json:"nonce"`
	Balance  *big.Int `json:"balance"`
	CodeHash []byte   `json:"codeHash"`
}
