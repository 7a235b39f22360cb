package collection

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	coreerrors "nftwrapped/core/errors"
	"nftwrapped/core/events"
	"nftwrapped/core/registry"
	"nftwrapped/core/types"
	"nftwrapped/crypto/merkle"
	"nftwrapped/native/bank"
	"nftwrapped/native/bundle"
	"nftwrapped/native/sale"
)

// ErrTokenNotFound is returned by queries for ids that were never issued.
var ErrTokenNotFound = errors.New("collection: owner query for nonexistent token")

var (
	errNilState         = errors.New("collection engine: state not configured")
	errRecordNotFound   = errors.New("collection engine: collection not deployed")
	errOwnerRequired    = errors.New("collection engine: owner required")
	errNegativePrice    = errors.New("collection engine: price must not be negative")
	errRecordExists     = errors.New("collection engine: collection already initialised")
	errRecipientMissing = errors.New("collection engine: recipient required")
)

type engineState interface {
	bank.AccountStore
	IsContract(addr common.Address) (bool, error)
	CollectionGet(addr common.Address) (*Record, bool, error)
	CollectionPut(record *Record) error
	IssueToken(collection common.Address, owner common.Address) (uint64, error)
	TokenOwner(collection common.Address, id uint64) (common.Address, bool, error)
	TokenCount(collection common.Address) (uint64, error)
}

// Engine is the handle of one deployed collection. It holds no mutable state
// of its own: every call reads and writes the collection record in world
// state, so handles can be rebuilt at any time.
type Engine struct {
	addr    common.Address
	state   engineState
	emitter events.Emitter
	logger  *slog.Logger
}

// NewEngine constructs the handle for the collection deployed at addr.
func NewEngine(addr common.Address) *Engine {
	return &Engine{
		addr:    addr,
		emitter: events.NoopEmitter{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger configures the structured logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	e.logger = logger.With(slog.String("component", "collection"), slog.String("address", e.addr.Hex()))
}

// Address implements registry.Contract.
func (e *Engine) Address() common.Address { return e.addr }

// Kind implements registry.Contract.
func (e *Engine) Kind() string { return Kind }

// Init writes the initial record for the collection at addr.
func Init(state engineState, addr common.Address, cfg Config) error {
	if state == nil {
		return errNilState
	}
	if cfg.Owner == (common.Address{}) {
		return errOwnerRequired
	}
	if cfg.Price != nil && cfg.Price.Sign() < 0 {
		return errNegativePrice
	}
	if _, ok, err := state.CollectionGet(addr); err != nil {
		return err
	} else if ok {
		return errRecordExists
	}
	price := big.NewInt(0)
	if cfg.Price != nil {
		price = new(big.Int).Set(cfg.Price)
	}
	return state.CollectionPut(&Record{
		Address: addr,
		Name:    strings.TrimSpace(cfg.Name),
		Owner:   cfg.Owner,
		Bundle:  cfg.Bundle,
		Root:    cfg.Root,
		Price:   price,
		BaseURI: cfg.BaseURI,
		Phase:   sale.PhasePresale,
	})
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) record() (*Record, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	rec, ok, err := e.state.CollectionGet(e.addr)
	if err != nil {
		return nil, err
	}
	if !ok || rec == nil {
		return nil, errRecordNotFound
	}
	return rec, nil
}

func checkPayment(rec *Record, payment *big.Int) error {
	if payment == nil || payment.Cmp(rec.price()) < 0 {
		return coreerrors.ErrInsufficientPayment
	}
	return nil
}

// issue collects payment from payer and mints the next token to recipient.
func (e *Engine) issue(payer, recipient common.Address, payment *big.Int) (uint64, error) {
	if recipient == (common.Address{}) {
		return 0, errRecipientMissing
	}
	if err := e.receive(payer, payment); err != nil {
		return 0, err
	}
	id, err := e.state.IssueToken(e.addr, recipient)
	if err != nil {
		return 0, err
	}
	e.emit(TransferEvent(e.addr, common.Address{}, recipient, id))
	e.logger.Debug("token issued", slog.String("to", recipient.Hex()), slog.Uint64("tokenId", id))
	return id, nil
}

// MintPresale mints one token to a whitelisted caller during the presale.
func (e *Engine) MintPresale(caller common.Address, proof []common.Hash, payment *big.Int) (uint64, error) {
	rec, err := e.record()
	if err != nil {
		return 0, err
	}
	if err := rec.sale().Require(sale.PhasePresale); err != nil {
		return 0, err
	}
	if !merkle.Verify(rec.Root, caller, proof) {
		return 0, coreerrors.ErrNotWhitelisted
	}
	if err := checkPayment(rec, payment); err != nil {
		return 0, err
	}
	return e.issue(caller, caller, payment)
}

// Mint mints one token to caller once the presale has ended.
func (e *Engine) Mint(caller common.Address, payment *big.Int) (uint64, error) {
	rec, err := e.record()
	if err != nil {
		return 0, err
	}
	if err := rec.sale().Require(sale.PhaseMainSale); err != nil {
		return 0, err
	}
	if err := checkPayment(rec, payment); err != nil {
		return 0, err
	}
	return e.issue(caller, caller, payment)
}

// Gift lets the owner mint to any recipient without payment, in either phase.
func (e *Engine) Gift(caller, recipient common.Address) (uint64, error) {
	rec, err := e.record()
	if err != nil {
		return 0, err
	}
	if caller != rec.Owner {
		return 0, coreerrors.ErrUnauthorized
	}
	return e.issue(caller, recipient, nil)
}

// requireBundle admits only the configured coordinator, and only while that
// address still holds a deployed bundle coordinator.
func (e *Engine) requireBundle(rec *Record, caller common.Address) error {
	if rec.Bundle == (common.Address{}) || caller != rec.Bundle {
		return coreerrors.ErrUnauthorized
	}
	ok, err := e.state.IsContract(rec.Bundle)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("collection: coordinator %s: %w", rec.Bundle.Hex(), coreerrors.ErrInvalidCallee)
	}
	account, err := e.state.GetAccount(rec.Bundle)
	if err != nil {
		return err
	}
	if common.BytesToHash(account.CodeHash) != registry.CodeHash(bundle.Kind) {
		return fmt.Errorf("collection: %s is not a bundle coordinator: %w", rec.Bundle.Hex(), coreerrors.ErrInvalidCallee)
	}
	return nil
}

// MintBundle is the main sale entry point reserved for the configured bundle
// coordinator. The coordinator has already checked the bundle price; payment
// is this collection's share and is credited as-is.
func (e *Engine) MintBundle(caller, recipient common.Address, payment *big.Int) (uint64, error) {
	rec, err := e.record()
	if err != nil {
		return 0, err
	}
	if err := e.requireBundle(rec, caller); err != nil {
		return 0, err
	}
	if err := rec.sale().Require(sale.PhaseMainSale); err != nil {
		return 0, err
	}
	return e.issue(caller, recipient, payment)
}

// MintBundlePresale is the presale counterpart of MintBundle. The whitelist
// proof is checked against the recipient, not the coordinator.
func (e *Engine) MintBundlePresale(caller, recipient common.Address, proof []common.Hash, payment *big.Int) (uint64, error) {
	rec, err := e.record()
	if err != nil {
		return 0, err
	}
	if err := e.requireBundle(rec, caller); err != nil {
		return 0, err
	}
	if err := rec.sale().Require(sale.PhasePresale); err != nil {
		return 0, err
	}
	if !merkle.Verify(rec.Root, recipient, proof) {
		return 0, coreerrors.ErrNotWhitelisted
	}
	return e.issue(caller, recipient, payment)
}

// EndPresale switches the collection to the main sale. Owner only.
func (e *Engine) EndPresale(caller common.Address) error {
	rec, err := e.record()
	if err != nil {
		return err
	}
	if caller != rec.Owner {
		return coreerrors.ErrUnauthorized
	}
	state := rec.sale()
	if err := state.EndPresale(); err != nil {
		return err
	}
	rec.Phase = state.Phase
	if err := e.state.CollectionPut(rec); err != nil {
		return err
	}
	e.emit(PresaleEndedEvent(e.addr))
	e.logger.Info("presale ended")
	return nil
}

// SetBundleCoordinator replaces the address allowed to call the bundle entry
// points. The zero address disables bundle mints. Owner only.
func (e *Engine) SetBundleCoordinator(caller, coordinator common.Address) error {
	rec, err := e.record()
	if err != nil {
		return err
	}
	if caller != rec.Owner {
		return coreerrors.ErrUnauthorized
	}
	rec.Bundle = coordinator
	if err := e.state.CollectionPut(rec); err != nil {
		return err
	}
	e.emit(BundleUpdatedEvent(e.addr, coordinator))
	return nil
}

// IsPresale reports whether the collection is still in presale.
func (e *Engine) IsPresale() (bool, error) {
	rec, err := e.record()
	if err != nil {
		return false, err
	}
	return rec.sale().IsPresale(), nil
}

// OwnerOf returns the owner of token id.
func (e *Engine) OwnerOf(id uint64) (common.Address, error) {
	if e == nil || e.state == nil {
		return common.Address{}, errNilState
	}
	owner, ok, err := e.state.TokenOwner(e.addr, id)
	if err != nil {
		return common.Address{}, err
	}
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %d", ErrTokenNotFound, id)
	}
	return owner, nil
}

// TokenURI returns the metadata location of token id: the base URI followed by
// the decimal id.
func (e *Engine) TokenURI(id uint64) (string, error) {
	if _, err := e.OwnerOf(id); err != nil {
		return "", err
	}
	rec, err := e.record()
	if err != nil {
		return "", err
	}
	return rec.BaseURI + strconv.FormatUint(id, 10), nil
}

// TotalMinted returns the number of issued tokens.
func (e *Engine) TotalMinted() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.TokenCount(e.addr)
}

// Price returns the base mint price.
func (e *Engine) Price() (*big.Int, error) {
	rec, err := e.record()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(rec.price()), nil
}

// Summary collects the query view of the collection.
func (e *Engine) Summary() (*Summary, error) {
	rec, err := e.record()
	if err != nil {
		return nil, err
	}
	minted, err := e.TotalMinted()
	if err != nil {
		return nil, err
	}
	balance, err := e.Balance()
	if err != nil {
		return nil, err
	}
	return &Summary{
		Address:   rec.Address,
		Name:      rec.Name,
		Owner:     rec.Owner,
		Bundle:    rec.Bundle,
		Presale:   rec.sale().IsPresale(),
		Price:     new(big.Int).Set(rec.price()),
		Minted:    minted,
		Balance:   balance,
		Whitelist: rec.Root,
	}, nil
}
