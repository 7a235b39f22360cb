// Package deploy assembles the world state, the contract registry and the
// three minting contracts into one System, and runs every state-changing call
// as an all-or-nothing unit.
package deploy

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"nftwrapped/config"
	coreerrors "nftwrapped/core/errors"
	"nftwrapped/core/events"
	"nftwrapped/core/registry"
	"nftwrapped/core/state"
	"nftwrapped/core/types"
	"nftwrapped/crypto/merkle"
	"nftwrapped/native/bank"
	"nftwrapped/native/bundle"
	"nftwrapped/native/collection"
	"nftwrapped/observability/logging"
	"nftwrapped/observability/metrics"
	"nftwrapped/storage"
)

const (
	// Wrapped is the query name of the NFTWrapped collection.
	Wrapped = "wrapped"
	// Leaderboard is the query name of the NFTWrappedLeaderboard collection.
	Leaderboard = "leaderboard"
)

var (
	// ErrUnknownCollection is returned for collection names other than
	// Wrapped and Leaderboard.
	ErrUnknownCollection = errors.New("deploy: unknown collection")

	errParamsRequired = errors.New("deploy: params required")
	errIncomplete     = errors.New("deploy: committed state is missing deployed contracts")
)

// Addresses lists the deployed contracts.
type Addresses struct {
	Bundle      common.Address `json:"bundle"`
	Wrapped     common.Address `json:"wrapped"`
	Leaderboard common.Address `json:"leaderboard"`
}

// Receipt describes one committed call.
type Receipt struct {
	ID     uuid.UUID
	Root   common.Hash
	Events []events.Event
}

// Options tune a System. Zero values are valid.
type Options struct {
	Emitter events.Emitter
	Logger  *slog.Logger
	Metrics *metrics.MintingMetrics
}

// System owns the world state and serialises every call against it.
type System struct {
	mu sync.Mutex

	db       storage.Database
	state    *state.Manager
	registry *registry.Registry
	buffer   *events.Buffer
	emitter  events.Emitter
	logger   *slog.Logger
	metrics  *metrics.MintingMetrics

	whitelist   *merkle.Tree
	addrs       Addresses
	bundle      *bundle.Engine
	wrapped     *collection.Engine
	leaderboard *collection.Engine
}

// New opens the state held in db. When db has no committed state the
// genesis allocations are credited and the coordinator and both collections
// are deployed from params.Owner, mirroring the launch script: coordinator
// first, then the two collections pointing at it, then the coordinator link.
func New(db storage.Database, params *config.Params, opts Options) (*System, error) {
	if params == nil {
		return nil, errParamsRequired
	}
	mgr, existing, err := state.Open(db)
	if err != nil {
		return nil, err
	}
	s := &System{
		db:        db,
		state:     mgr,
		buffer:    &events.Buffer{},
		emitter:   opts.Emitter,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		whitelist: merkle.NewTree(params.Whitelist),
	}
	if s.emitter == nil {
		s.emitter = events.NoopEmitter{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.registry = registry.New(mgr)
	s.registry.RegisterKind(bundle.Kind, s.bundleFactory)
	s.registry.RegisterKind(collection.Kind, s.collectionFactory)

	if existing {
		if err := s.attach(); err != nil {
			return nil, err
		}
		s.logger.Info("state reopened", slog.String("root", mgr.Root().Hex()))
		return s, nil
	}
	if err := s.genesis(params); err != nil {
		return nil, err
	}
	if _, err := s.state.Commit(); err != nil {
		return nil, err
	}
	s.buffer.Flush(s.emitter)
	s.logger.Info("contracts deployed",
		slog.String("bundle", s.addrs.Bundle.Hex()),
		slog.String("wrapped", s.addrs.Wrapped.Hex()),
		slog.String("leaderboard", s.addrs.Leaderboard.Hex()))
	return s, nil
}

func (s *System) bundleFactory(addr common.Address) (registry.Contract, error) {
	engine := bundle.NewEngine(addr)
	engine.SetState(s.state)
	engine.SetResolver(s.registry)
	engine.SetEventJournal(s.buffer)
	engine.SetEmitter(s.buffer)
	engine.SetLogger(s.logger)
	return engine, nil
}

func (s *System) collectionFactory(addr common.Address) (registry.Contract, error) {
	engine := collection.NewEngine(addr)
	engine.SetState(s.state)
	engine.SetEmitter(s.buffer)
	engine.SetLogger(s.logger)
	return engine, nil
}

func (s *System) genesis(params *config.Params) error {
	for _, alloc := range params.Genesis {
		if err := bank.Credit(s.state, alloc.Address, alloc.Balance); err != nil {
			return fmt.Errorf("genesis %s: %w", alloc.Address.Hex(), err)
		}
	}
	root := s.whitelist.Root()

	contract, err := s.registry.Deploy(params.Owner, bundle.Kind, func(addr common.Address) error {
		return bundle.Init(s.state, addr, bundle.Config{Owner: params.Owner, Price: params.BundlePrice})
	})
	if err != nil {
		return err
	}
	s.bundle = contract.(*bundle.Engine)

	deployCollection := func(p config.CollectionParams) (*collection.Engine, error) {
		contract, err := s.registry.Deploy(params.Owner, collection.Kind, func(addr common.Address) error {
			return collection.Init(s.state, addr, collection.Config{
				Name:    p.Name,
				Owner:   params.Owner,
				Bundle:  s.bundle.Address(),
				Root:    root,
				Price:   p.Price,
				BaseURI: p.BaseURI,
			})
		})
		if err != nil {
			return nil, err
		}
		return contract.(*collection.Engine), nil
	}
	if s.wrapped, err = deployCollection(params.Wrapped); err != nil {
		return err
	}
	if s.leaderboard, err = deployCollection(params.Leaderboard); err != nil {
		return err
	}
	if err := s.bundle.SetBundleContracts(params.Owner, s.wrapped.Address(), s.leaderboard.Address()); err != nil {
		return err
	}
	s.addrs = Addresses{Bundle: s.bundle.Address(), Wrapped: s.wrapped.Address(), Leaderboard: s.leaderboard.Address()}
	if s.metrics != nil {
		s.metrics.SetPresale(Wrapped, true)
		s.metrics.SetPresale(Leaderboard, true)
	}
	return nil
}

// attach rebuilds the engine handles from the registry index. Contracts are
// indexed in deployment order.
func (s *System) attach() error {
	if err := s.registry.Load(); err != nil {
		return err
	}
	index, err := s.registry.Index()
	if err != nil {
		return err
	}
	var collections []*collection.Engine
	for _, entry := range index {
		contract, err := s.registry.Resolve(entry.Address)
		if err != nil {
			return err
		}
		switch engine := contract.(type) {
		case *bundle.Engine:
			if s.bundle == nil {
				s.bundle = engine
			}
		case *collection.Engine:
			collections = append(collections, engine)
		}
	}
	if s.bundle == nil || len(collections) < 2 {
		return errIncomplete
	}
	s.wrapped, s.leaderboard = collections[0], collections[1]
	s.addrs = Addresses{Bundle: s.bundle.Address(), Wrapped: s.wrapped.Address(), Leaderboard: s.leaderboard.Address()}
	if s.metrics != nil {
		for name, engine := range map[string]*collection.Engine{Wrapped: s.wrapped, Leaderboard: s.leaderboard} {
			if presale, err := engine.IsPresale(); err == nil {
				s.metrics.SetPresale(name, presale)
			}
		}
	}
	return nil
}

// Addresses returns the deployed contract addresses.
func (s *System) Addresses() Addresses {
	return s.addrs
}

// Whitelist returns the presale whitelist tree the collections were deployed with.
func (s *System) Whitelist() *merkle.Tree {
	return s.whitelist
}

// Proof returns the presale proof of addr.
func (s *System) Proof(addr common.Address) ([]common.Hash, bool) {
	return s.whitelist.Proof(addr)
}

func (s *System) collection(name string) (*collection.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Wrapped:
		return s.wrapped, nil
	case Leaderboard:
		return s.leaderboard, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
}

// Execute runs fn as one call. Every state change fn makes is reverted and
// its events dropped when fn fails; on success the state is committed and
// the events are delivered to the configured emitter.
func (s *System) Execute(operation string, fn func() error) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execute(operation, fn)
}

func (s *System) execute(operation string, fn func() error) (*Receipt, error) {
	snap := s.state.Snapshot()
	mark := s.buffer.Mark()
	if err := fn(); err != nil {
		if revertErr := s.state.RevertToSnapshot(snap); revertErr != nil {
			return nil, errors.Join(err, revertErr)
		}
		s.buffer.Truncate(mark)
		if s.metrics != nil {
			s.metrics.ObserveRejected(operation, reason(err))
		}
		s.logger.Debug("call rejected", slog.String("operation", operation), slog.Any("error", err))
		return nil, err
	}
	s.state.DiscardSnapshot(snap)
	root, err := s.state.Commit()
	if err != nil {
		return nil, err
	}
	receipt := &Receipt{ID: uuid.New(), Root: root, Events: s.buffer.Flush(s.emitter)}
	s.observe(receipt)
	s.logger.Info("call committed",
		slog.String("operation", operation),
		slog.String("receipt", receipt.ID.String()),
		slog.Int("events", len(receipt.Events)))
	return receipt, nil
}

type payload interface {
	Event() *types.Event
}

func (s *System) observe(receipt *Receipt) {
	if s.metrics == nil {
		return
	}
	for _, evt := range receipt.Events {
		p, ok := evt.(payload)
		if !ok || p.Event() == nil {
			continue
		}
		attrs := p.Event().Attributes
		switch evt.EventType() {
		case collection.EventTypeTransfer:
			s.metrics.ObserveMint(s.nameOf(attrs["collection"]))
		case collection.EventTypePresaleEnded:
			s.metrics.SetPresale(s.nameOf(attrs["collection"]), false)
		case collection.EventTypeWithdrawn:
			amount, ok := new(big.Int).SetString(attrs["amount"], 10)
			if ok {
				s.metrics.ObserveWithdrawal(s.nameOf(attrs["collection"]), amount)
			}
		case bundle.EventTypeMinted:
			s.metrics.ObserveBundle()
		}
	}
}

func (s *System) nameOf(hex string) string {
	addr := common.HexToAddress(hex)
	switch addr {
	case s.addrs.Wrapped:
		return Wrapped
	case s.addrs.Leaderboard:
		return Leaderboard
	default:
		return addr.Hex()
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, coreerrors.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, coreerrors.ErrNotWhitelisted):
		return "not_whitelisted"
	case errors.Is(err, coreerrors.ErrInsufficientPayment):
		return "insufficient_payment"
	case errors.Is(err, coreerrors.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, coreerrors.ErrAlreadyEnded):
		return "already_ended"
	case errors.Is(err, coreerrors.ErrInvalidCallee):
		return "invalid_callee"
	case errors.Is(err, coreerrors.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrUnknownCollection):
		return "unknown_collection"
	default:
		return "internal"
	}
}

// logCaller is used by the call wrappers so end-user addresses stay out of
// plain logs.
func logCaller(caller common.Address) slog.Attr {
	return logging.MaskField("caller", caller.Hex())
}
