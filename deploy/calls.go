package deploy

import (
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftwrapped/native/bank"
	"nftwrapped/native/bundle"
	"nftwrapped/native/collection"
)

// Credit funds addr outside of any contract, as a faucet would.
func (s *System) Credit(addr common.Address, amount *big.Int) (*Receipt, error) {
	return s.Execute("credit", func() error {
		return bank.Credit(s.state, addr, amount)
	})
}

// MintPresale mints from the named collection to a whitelisted caller.
func (s *System) MintPresale(name string, caller common.Address, proof []common.Hash, payment *big.Int) (uint64, *Receipt, error) {
	var id uint64
	receipt, err := s.Execute("mint_presale", func() error {
		engine, err := s.collection(name)
		if err != nil {
			return err
		}
		id, err = engine.MintPresale(caller, proof, payment)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	s.logger.Debug("presale mint", logCaller(caller), slog.String("collection", name), slog.Uint64("tokenId", id))
	return id, receipt, nil
}

// Mint mints from the named collection during the main sale.
func (s *System) Mint(name string, caller common.Address, payment *big.Int) (uint64, *Receipt, error) {
	var id uint64
	receipt, err := s.Execute("mint", func() error {
		engine, err := s.collection(name)
		if err != nil {
			return err
		}
		id, err = engine.Mint(caller, payment)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	s.logger.Debug("mint", logCaller(caller), slog.String("collection", name), slog.Uint64("tokenId", id))
	return id, receipt, nil
}

// Gift mints from the named collection to recipient free of charge.
func (s *System) Gift(name string, caller, recipient common.Address) (uint64, *Receipt, error) {
	var id uint64
	receipt, err := s.Execute("gift", func() error {
		engine, err := s.collection(name)
		if err != nil {
			return err
		}
		id, err = engine.Gift(caller, recipient)
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return id, receipt, nil
}

// EndPresale moves the named collection to its main sale.
func (s *System) EndPresale(name string, caller common.Address) (*Receipt, error) {
	return s.Execute("end_presale", func() error {
		engine, err := s.collection(name)
		if err != nil {
			return err
		}
		return engine.EndPresale(caller)
	})
}

// Withdraw drains the named collection's balance to its owner.
func (s *System) Withdraw(name string, caller common.Address) (*big.Int, *Receipt, error) {
	var amount *big.Int
	receipt, err := s.Execute("withdraw", func() error {
		engine, err := s.collection(name)
		if err != nil {
			return err
		}
		amount, err = engine.Withdraw(caller)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return amount, receipt, nil
}

// SetBundleContracts re-points the coordinator at two collection addresses.
func (s *System) SetBundleContracts(caller, a, b common.Address) (*Receipt, error) {
	return s.Execute("set_bundle_contracts", func() error {
		return s.bundle.SetBundleContracts(caller, a, b)
	})
}

// BundleMintPresale mints one token of each linked collection to a
// whitelisted caller during the presale.
func (s *System) BundleMintPresale(caller common.Address, proof []common.Hash, payment *big.Int) (bundle.Minted, *Receipt, error) {
	var minted bundle.Minted
	receipt, err := s.Execute("bundle_mint_presale", func() error {
		var err error
		minted, err = s.bundle.MintPresale(caller, proof, payment)
		return err
	})
	if err != nil {
		return bundle.Minted{}, nil, err
	}
	s.logger.Debug("bundle presale mint", logCaller(caller), slog.Uint64("tokenIdA", minted.A), slog.Uint64("tokenIdB", minted.B))
	return minted, receipt, nil
}

// BundleMint mints one token of each linked collection during the main sale.
func (s *System) BundleMint(caller common.Address, payment *big.Int) (bundle.Minted, *Receipt, error) {
	var minted bundle.Minted
	receipt, err := s.Execute("bundle_mint", func() error {
		var err error
		minted, err = s.bundle.Mint(caller, payment)
		return err
	})
	if err != nil {
		return bundle.Minted{}, nil, err
	}
	s.logger.Debug("bundle mint", logCaller(caller), slog.Uint64("tokenIdA", minted.A), slog.Uint64("tokenIdB", minted.B))
	return minted, receipt, nil
}

// Summary returns the query view of the named collection.
func (s *System) Summary(name string) (*collection.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	engine, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	return engine.Summary()
}

// Token is the query view of one issued token.
type Token struct {
	ID    uint64         `json:"id"`
	Owner common.Address `json:"owner"`
	URI   string         `json:"tokenURI"`
}

// Token returns the owner and metadata location of token id in the named
// collection.
func (s *System) Token(name string, id uint64) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	engine, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	owner, err := engine.OwnerOf(id)
	if err != nil {
		return nil, err
	}
	uri, err := engine.TokenURI(id)
	if err != nil {
		return nil, err
	}
	return &Token{ID: id, Owner: owner, URI: uri}, nil
}

// BalanceOf returns the native balance of addr.
func (s *System) BalanceOf(addr common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bank.BalanceOf(s.state, addr)
}

// Link returns the collections the coordinator currently points at.
func (s *System) Link() (common.Address, common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.Link()
}

// Close releases the underlying database.
func (s *System) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
}
