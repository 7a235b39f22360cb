package collection

import (
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	coreerrors "nftwrapped/core/errors"
	"nftwrapped/native/bank"
)

// receive credits payment from payer to the collection account.
func (e *Engine) receive(payer common.Address, payment *big.Int) error {
	if payment == nil || payment.Sign() == 0 {
		return nil
	}
	return bank.Transfer(e.state, payer, e.addr, payment)
}

// Balance returns the funds accumulated by mints and not yet withdrawn.
func (e *Engine) Balance() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return bank.BalanceOf(e.state, e.addr)
}

// Withdraw moves the entire balance to the owner and returns the amount. An
// empty balance succeeds and moves nothing.
func (e *Engine) Withdraw(caller common.Address) (*big.Int, error) {
	rec, err := e.record()
	if err != nil {
		return nil, err
	}
	if caller != rec.Owner {
		return nil, coreerrors.ErrUnauthorized
	}
	amount, err := e.Balance()
	if err != nil {
		return nil, err
	}
	if err := bank.Transfer(e.state, e.addr, rec.Owner, amount); err != nil {
		return nil, err
	}
	e.emit(WithdrawnEvent(e.addr, rec.Owner, amount))
	e.logger.Info("funds withdrawn", slog.String("amount", amount.String()))
	return amount, nil
}
