package bank

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	coreerrors "nftwrapped/core/errors"
	"nftwrapped/core/types"
)

type memAccounts map[common.Address]*types.Account

func (m memAccounts) GetAccount(addr common.Address) (*types.Account, error) {
	acc, ok := m[addr]
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	return &types.Account{Nonce: acc.Nonce, Balance: new(big.Int).Set(acc.Balance)}, nil
}

func (m memAccounts) PutAccount(addr common.Address, account *types.Account) error {
	m[addr] = &types.Account{Nonce: account.Nonce, Balance: new(big.Int).Set(account.Balance)}
	return nil
}

func TestTransferMovesBalance(t *testing.T) {
	store := memAccounts{}
	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")
	if err := Credit(store, alice, big.NewInt(100)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := Transfer(store, alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	a, _ := BalanceOf(store, alice)
	b, _ := BalanceOf(store, bob)
	if a.Int64() != 60 || b.Int64() != 40 {
		t.Fatalf("unexpected balances alice=%s bob=%s", a, b)
	}
}

func TestTransferRejectsOverdraft(t *testing.T) {
	store := memAccounts{}
	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")
	err := Transfer(store, alice, bob, big.NewInt(1))
	if !errors.Is(err, coreerrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if err := Transfer(store, alice, bob, big.NewInt(0)); err != nil {
		t.Fatalf("zero transfer should be a no-op: %v", err)
	}
}
