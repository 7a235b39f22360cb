// Package registry tracks deployed contracts by address and hands out typed
// handles to callers that invoke them. An address only resolves when its
// account carries code and a handle of the expected kind exists.
package registry

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	coreerrors "nftwrapped/core/errors"
	"nftwrapped/core/types"
)

// Contract is implemented by every deployed engine.
type Contract interface {
	Address() common.Address
	Kind() string
}

// Factory builds the handle for a contract of one kind at addr. Factories must
// not mutate state; initial records are written by the Deploy init callback.
type Factory func(addr common.Address) (Contract, error)

// Entry is one row of the persisted deployment index.
type Entry struct {
	Address common.Address
	Kind    string
}

type registryState interface {
	GetAccount(addr common.Address) (*types.Account, error)
	PutAccount(addr common.Address, account *types.Account) error
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var indexKey = []byte("registry/contracts")

// CodeHash is the code hash written to the account of a deployed contract.
func CodeHash(kind string) common.Hash {
	return ethcrypto.Keccak256Hash([]byte("nftwrapped/contract/" + kind))
}

// Registry maps addresses to contract handles.
type Registry struct {
	mu        sync.RWMutex
	state     registryState
	factories map[string]Factory
	contracts map[common.Address]Contract
}

// New returns an empty registry over state.
func New(state registryState) *Registry {
	return &Registry{
		state:     state,
		factories: make(map[string]Factory),
		contracts: make(map[common.Address]Contract),
	}
}

// RegisterKind installs the handle factory for kind.
func (r *Registry) RegisterKind(kind string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Deploy creates a contract of kind at the next CREATE address of deployer.
// init runs before the handle is built and typically writes the contract's
// initial record.
func (r *Registry) Deploy(deployer common.Address, kind string, init func(addr common.Address) error) (Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("registry: unknown contract kind %q", kind)
	}
	deployerAcc, err := r.state.GetAccount(deployer)
	if err != nil {
		return nil, err
	}
	addr := ethcrypto.CreateAddress(deployer, deployerAcc.Nonce)
	deployerAcc.Nonce++
	if err := r.state.PutAccount(deployer, deployerAcc); err != nil {
		return nil, err
	}
	target, err := r.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	target.CodeHash = CodeHash(kind).Bytes()
	if err := r.state.PutAccount(addr, target); err != nil {
		return nil, err
	}
	if init != nil {
		if err := init(addr); err != nil {
			return nil, fmt.Errorf("registry: init %s: %w", kind, err)
		}
	}
	contract, err := factory(addr)
	if err != nil {
		return nil, err
	}
	var index []Entry
	if _, err := r.state.KVGet(indexKey, &index); err != nil {
		return nil, err
	}
	index = append(index, Entry{Address: addr, Kind: kind})
	if err := r.state.KVPut(indexKey, index); err != nil {
		return nil, err
	}
	r.contracts[addr] = contract
	return contract, nil
}

// Load rebuilds handles for every contract in the persisted index. It is used
// when reopening committed state.
func (r *Registry) Load() error {
	var index []Entry
	if _, err := r.state.KVGet(indexKey, &index); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range index {
		factory, ok := r.factories[entry.Kind]
		if !ok {
			return fmt.Errorf("registry: unknown contract kind %q at %s", entry.Kind, entry.Address.Hex())
		}
		contract, err := factory(entry.Address)
		if err != nil {
			return err
		}
		r.contracts[entry.Address] = contract
	}
	return nil
}

// Resolve returns the handle deployed at addr. Addresses without code, or
// whose code does not match a known handle, fail with ErrInvalidCallee.
func (r *Registry) Resolve(addr common.Address) (Contract, error) {
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("registry: zero address: %w", coreerrors.ErrInvalidCallee)
	}
	account, err := r.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	contract, ok := r.contracts[addr]
	r.mu.RUnlock()
	if !ok || len(account.CodeHash) == 0 || common.BytesToHash(account.CodeHash) != CodeHash(contract.Kind()) {
		return nil, fmt.Errorf("registry: %s: %w", addr.Hex(), coreerrors.ErrInvalidCallee)
	}
	return contract, nil
}

// Index returns the persisted deployment index in deployment order.
func (r *Registry) Index() ([]Entry, error) {
	var index []Entry
	if _, err := r.state.KVGet(indexKey, &index); err != nil {
		return nil, err
	}
	return index, nil
}
