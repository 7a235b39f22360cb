package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"nftwrapped/core/types"
)

func accountStateKey(addr common.Address) []byte {
	return ethcrypto.Keccak256(addr.Bytes())
}

// GetAccount returns the account stored under addr. Unknown addresses yield a
// zero-balance account with the empty code hash.
func (m *Manager) GetAccount(addr common.Address) (*types.Account, error) {
	data, err := m.trie.Get(accountStateKey(addr))
	if err != nil {
		return nil, err
	}
	account := &types.Account{
		Balance:  big.NewInt(0),
		CodeHash: gethtypes.EmptyCodeHash.Bytes(),
	}
	if len(data) == 0 {
		return account, nil
	}
	stateAcc := new(gethtypes.StateAccount)
	if err := rlp.DecodeBytes(data, stateAcc); err != nil {
		return nil, err
	}
	account.Nonce = stateAcc.Nonce
	if stateAcc.Balance != nil {
		account.Balance = stateAcc.Balance.ToBig()
	}
	if len(stateAcc.CodeHash) > 0 {
		account.CodeHash = common.CopyBytes(stateAcc.CodeHash)
	}
	return account, nil
}

// PutAccount persists the provided account under addr.
func (m *Manager) PutAccount(addr common.Address, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("nil account")
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	if account.Balance.Sign() < 0 {
		return fmt.Errorf("negative balance for %s", addr.Hex())
	}
	balance, overflow := uint256.FromBig(account.Balance)
	if overflow {
		return fmt.Errorf("balance overflow")
	}
	stateAcc := &gethtypes.StateAccount{
		Nonce:    account.Nonce,
		Balance:  balance,
		Root:     gethtypes.EmptyRootHash,
		CodeHash: common.CopyBytes(account.CodeHash),
	}
	if len(stateAcc.CodeHash) == 0 {
		stateAcc.CodeHash = gethtypes.EmptyCodeHash.Bytes()
	}
	encoded, err := rlp.EncodeToBytes(stateAcc)
	if err != nil {
		return err
	}
	return m.trie.Update(accountStateKey(addr), encoded)
}

// IsContract reports whether addr carries deployed code.
func (m *Manager) IsContract(addr common.Address) (bool, error) {
	account, err := m.GetAccount(addr)
	if err != nil {
		return false, err
	}
	return IsContractAccount(account), nil
}

// IsContractAccount reports whether the account has a non-empty code hash.
func IsContractAccount(account *types.Account) bool {
	if account == nil || len(account.CodeHash) == 0 {
		return false
	}
	return common.BytesToHash(account.CodeHash) != gethtypes.EmptyCodeHash
}
