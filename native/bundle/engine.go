package bundle

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	coreerrors "nftwrapped/core/errors"
	"nftwrapped/core/events"
	"nftwrapped/core/registry"
	"nftwrapped/core/types"
	"nftwrapped/native/bank"
)

var (
	errNilState       = errors.New("bundle engine: state not configured")
	errNilResolver    = errors.New("bundle engine: contract resolver not configured")
	errRecordNotFound = errors.New("bundle engine: coordinator not deployed")
	errOwnerRequired  = errors.New("bundle engine: owner required")
	errNegativePrice  = errors.New("bundle engine: price must not be negative")
)

// Collection is the capability a linked address must expose to take part in
// a bundle mint.
type Collection interface {
	registry.Contract
	MintBundle(caller, recipient common.Address, payment *big.Int) (uint64, error)
	MintBundlePresale(caller, recipient common.Address, proof []common.Hash, payment *big.Int) (uint64, error)
}

// Resolver turns a linked address into a contract handle.
type Resolver interface {
	Resolve(addr common.Address) (registry.Contract, error)
}

// EventJournal lets the coordinator drop events emitted by a half-finished
// bundle mint.
type EventJournal interface {
	Mark() int
	Truncate(mark int)
}

type engineState interface {
	bank.AccountStore
	BundleGet(addr common.Address) (*Record, bool, error)
	BundlePut(record *Record) error
	Snapshot() int
	RevertToSnapshot(id int) error
	DiscardSnapshot(id int)
}

// Engine is the handle of one deployed bundle coordinator.
type Engine struct {
	addr     common.Address
	state    engineState
	resolver Resolver
	journal  EventJournal
	emitter  events.Emitter
	logger   *slog.Logger
}

// NewEngine constructs the handle for the coordinator deployed at addr.
func NewEngine(addr common.Address) *Engine {
	return &Engine{
		addr:    addr,
		emitter: events.NoopEmitter{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetResolver configures how linked addresses are resolved.
func (e *Engine) SetResolver(resolver Resolver) { e.resolver = resolver }

// SetEventJournal configures the journal truncated when a bundle mint fails
// half way. Without one, events already emitted by the first collection stay
// with the emitter.
func (e *Engine) SetEventJournal(journal EventJournal) { e.journal = journal }

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
	e.logger = logger.With(slog.String("component", "bundle"), slog.String("address", e.addr.Hex()))
}

// Address implements registry.Contract.
func (e *Engine) Address() common.Address { return e.addr }

// Kind implements registry.Contract.
func (e *Engine) Kind() string { return Kind }

// Init writes the initial record for the coordinator at addr. The link is
// left unset until SetBundleContracts.
func Init(state engineState, addr common.Address, cfg Config) error {
	if state == nil {
		return errNilState
	}
	if cfg.Owner == (common.Address{}) {
		return errOwnerRequired
	}
	price := big.NewInt(0)
	if cfg.Price != nil {
		if cfg.Price.Sign() < 0 {
			return errNegativePrice
		}
		price = new(big.Int).Set(cfg.Price)
	}
	return state.BundlePut(&Record{Address: addr, Owner: cfg.Owner, Price: price})
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(bundleEvent{evt: evt})
}

func (e *Engine) record() (*Record, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	rec, ok, err := e.state.BundleGet(e.addr)
	if err != nil {
		return nil, err
	}
	if !ok || rec == nil {
		return nil, errRecordNotFound
	}
	return rec, nil
}

// SetBundleContracts points the coordinator at two collections. The
// addresses are not checked here; a bad link fails at mint time. Owner only.
func (e *Engine) SetBundleContracts(caller, a, b common.Address) error {
	rec, err := e.record()
	if err != nil {
		return err
	}
	if caller != rec.Owner {
		return coreerrors.ErrUnauthorized
	}
	rec.A = a
	rec.B = b
	if err := e.state.BundlePut(rec); err != nil {
		return err
	}
	e.emit(LinkUpdatedEvent(e.addr, a, b))
	return nil
}

// Link returns the currently linked collection addresses.
func (e *Engine) Link() (common.Address, common.Address, error) {
	rec, err := e.record()
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return rec.A, rec.B, nil
}

// Price returns the bundle price.
func (e *Engine) Price() (*big.Int, error) {
	rec, err := e.record()
	if err != nil {
		return nil, err
	}
	if rec.Price == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(rec.Price), nil
}

// MintPresale mints one token from each linked collection to caller during
// their presale. Each collection checks the proof against its own root.
func (e *Engine) MintPresale(caller common.Address, proof []common.Hash, payment *big.Int) (Minted, error) {
	return e.mint(caller, payment, func(c Collection, share *big.Int) (uint64, error) {
		return c.MintBundlePresale(e.addr, caller, proof, share)
	})
}

// Mint mints one token from each linked collection to caller once both have
// left presale.
func (e *Engine) Mint(caller common.Address, payment *big.Int) (Minted, error) {
	return e.mint(caller, payment, func(c Collection, share *big.Int) (uint64, error) {
		return c.MintBundle(e.addr, caller, share)
	})
}

func (e *Engine) resolve(addr common.Address) (Collection, error) {
	if e.resolver == nil {
		return nil, errNilResolver
	}
	contract, err := e.resolver.Resolve(addr)
	if err != nil {
		return nil, err
	}
	c, ok := contract.(Collection)
	if !ok {
		return nil, fmt.Errorf("bundle: %s is a %s: %w", addr.Hex(), contract.Kind(), coreerrors.ErrInvalidCallee)
	}
	return c, nil
}

func (e *Engine) mint(caller common.Address, payment *big.Int, call func(Collection, *big.Int) (uint64, error)) (Minted, error) {
	rec, err := e.record()
	if err != nil {
		return Minted{}, err
	}
	if payment == nil || rec.Price == nil || payment.Cmp(rec.Price) < 0 {
		return Minted{}, coreerrors.ErrInsufficientPayment
	}
	a, err := e.resolve(rec.A)
	if err != nil {
		return Minted{}, err
	}
	b, err := e.resolve(rec.B)
	if err != nil {
		return Minted{}, err
	}

	snap := e.state.Snapshot()
	mark := -1
	if e.journal != nil {
		mark = e.journal.Mark()
	}
	minted, err := e.mintBoth(caller, payment, a, b, call)
	if err != nil {
		if revertErr := e.state.RevertToSnapshot(snap); revertErr != nil {
			return Minted{}, errors.Join(err, revertErr)
		}
		if mark >= 0 {
			e.journal.Truncate(mark)
		}
		e.logger.Debug("bundle mint reverted", slog.String("caller", caller.Hex()), slog.Any("error", err))
		return Minted{}, err
	}
	e.state.DiscardSnapshot(snap)
	e.emit(MintedEvent(e.addr, caller, minted, payment))
	return minted, nil
}

func (e *Engine) mintBoth(caller common.Address, payment *big.Int, a, b Collection, call func(Collection, *big.Int) (uint64, error)) (Minted, error) {
	if err := bank.Transfer(e.state, caller, e.addr, payment); err != nil {
		return Minted{}, err
	}
	shareA, shareB := Split(payment)
	idA, err := call(a, shareA)
	if err != nil {
		return Minted{}, fmt.Errorf("bundle: collection %s: %w", a.Address().Hex(), err)
	}
	idB, err := call(b, shareB)
	if err != nil {
		return Minted{}, fmt.Errorf("bundle: collection %s: %w", b.Address().Hex(), err)
	}
	return Minted{A: idA, B: idB}, nil
}
