package bank

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	coreerrors "nftwrapped/core/errors"
	"nftwrapped/core/types"
)

// AccountStore is the subset of world state needed to move native balances.
type AccountStore interface {
	GetAccount(addr common.Address) (*types.Account, error)
	PutAccount(addr common.Address, account *types.Account) error
}

// Transfer moves amount from one account to another. A nil or zero amount is a
// no-op. Self transfers only check the balance.
func Transfer(store AccountStore, from, to common.Address, amount *big.Int) error {
	if store == nil {
		return fmt.Errorf("bank: account store required")
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("bank: negative amount")
	}
	sender, err := store.GetAccount(from)
	if err != nil {
		return err
	}
	if sender.Balance == nil || sender.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("bank: %s: %w", from.Hex(), coreerrors.ErrInsufficientFunds)
	}
	if from == to {
		return nil
	}
	sender.Balance = new(big.Int).Sub(sender.Balance, amount)
	if err := store.PutAccount(from, sender); err != nil {
		return err
	}
	recipient, err := store.GetAccount(to)
	if err != nil {
		return err
	}
	if recipient.Balance == nil {
		recipient.Balance = big.NewInt(0)
	}
	recipient.Balance = new(big.Int).Add(recipient.Balance, amount)
	return store.PutAccount(to, recipient)
}

// Credit adds amount to addr without a counterparty. Used for genesis funding.
func Credit(store AccountStore, addr common.Address, amount *big.Int) error {
	if store == nil {
		return fmt.Errorf("bank: account store required")
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("bank: credit amount must be positive")
	}
	account, err := store.GetAccount(addr)
	if err != nil {
		return err
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return store.PutAccount(addr, account)
}

// BalanceOf returns the native balance of addr.
func BalanceOf(store AccountStore, addr common.Address) (*big.Int, error) {
	account, err := store.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if account.Balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(account.Balance), nil
}
