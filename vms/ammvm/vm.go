// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ammvm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/version"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/amm/vms/ammvm/api"
	"github.com/luxfi/amm/vms/ammvm/config"
	"github.com/luxfi/amm/vms/ammvm/events"
	"github.com/luxfi/amm/vms/ammvm/indexer"
	"github.com/luxfi/amm/vms/ammvm/metrics"
	"github.com/luxfi/amm/vms/ammvm/registry"
	"github.com/luxfi/amm/vms/ammvm/state"
	"github.com/luxfi/amm/vms/ammvm/txs"
	"github.com/luxfi/amm/vms/ammvm/txs/executor"
)

const serviceName = "amm"

var (
	Version = &version.Semantic{
		Major: 1,
		Minor: 0,
		Patch: 0,
	}

	_ api.VM = (*VM)(nil)

	ErrNoPendingTxs = errors.New("no pending transactions")

	errUnknownState    = errors.New("unknown state")
	errNotInitialized  = errors.New("VM not initialized")
	errNotBootstrapped = errors.New("VM not bootstrapped")
	errShutdown        = errors.New("VM is shutting down")
	errTxTooLarge      = errors.New("tx exceeds maximum size")
	errDuplicateTx     = errors.New("tx already in mempool")
	errMempoolFull     = errors.New("mempool is full")
	errWrongParent     = errors.New("block does not extend the last accepted block")
	errWrongHeight     = errors.New("block height is not the next height")
)

// State is the lifecycle phase of the VM.
type State uint32

const (
	Bootstrapping State = iota + 1
	Ready
)

// BlockResult is the outcome of accepting a block. Failed transactions are
// part of the block but changed nothing.
type BlockResult struct {
	BlockID ids.ID
	Height  uint64
	Txs     []TxResult
}

type TxResult struct {
	TxID   ids.ID
	Events []events.Event
	Err    error
}

// VM sequences AMM transactions into blocks. Each transaction commits or
// rolls back on its own; a failed transaction never fails its block.
type VM struct {
	config.Config

	log log.Logger

	lock sync.RWMutex

	db         database.Database
	genesis    *Genesis
	state      *state.State
	dispatcher *events.Dispatcher
	positions  *indexer.Positions
	metrics    *metrics.Metrics

	mempool []*txs.Tx
	pending map[ids.ID]struct{}

	lastAcceptedID ids.ID
	height         uint64

	bootstrapped  bool
	isInitialized bool
	shutdown      bool
}

func New(cfg config.Config, logger log.Logger) *VM {
	return &VM{
		Config: cfg,
		log:    logger,
	}
}

// Initialize opens the chain stored in db, writing genesisBytes on first
// start. Non-empty configBytes replace the VM's config.
func (vm *VM) Initialize(
	_ context.Context,
	db database.Database,
	genesisBytes []byte,
	configBytes []byte,
	registerer prometheus.Registerer,
) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if len(configBytes) > 0 {
		cfg, err := config.Parse(configBytes)
		if err != nil {
			return err
		}
		vm.Config = cfg
	} else if err := vm.Config.Validate(); err != nil {
		return err
	}

	g, err := ParseGenesis(genesisBytes)
	if err != nil {
		return fmt.Errorf("failed to parse genesis: %w", err)
	}
	vm.db = db
	vm.genesis = g
	vm.state = state.New(db, g.NativeAsset, g.Registry)

	vm.metrics, err = metrics.New(vm.MetricsNamespace, registerer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	vm.dispatcher = events.NewDispatcher(vm.log)
	vm.dispatcher.Subscribe(vm.metrics)
	if vm.IndexPositions {
		positions := indexer.NewPositions()
		err := vm.state.Read(func(d *state.Diff) error {
			return positions.Load(d.Index)
		})
		if err != nil {
			return fmt.Errorf("failed to load positions: %w", err)
		}
		vm.positions = positions
		vm.state.AddIndexer(positions)
	}

	genesisEvents, err := vm.state.Atomic(g.Apply)
	switch {
	case errors.Is(err, registry.ErrAlreadyCreated):
		vm.log.Info("found existing chain state")
	case err != nil:
		return fmt.Errorf("failed to initialize genesis state: %w", err)
	default:
		vm.dispatcher.Dispatch(genesisEvents)
	}

	err = vm.state.Read(func(d *state.Diff) error {
		height, err := d.Height()
		if err != nil {
			return err
		}
		lastAcceptedID, err := d.LastAccepted()
		if err != nil {
			return err
		}
		vm.height = height
		vm.lastAcceptedID = lastAcceptedID
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load last accepted block: %w", err)
	}

	vm.pending = make(map[ids.ID]struct{})
	vm.isInitialized = true
	vm.log.Info("initialized AMM VM",
		log.Stringer("version", Version),
		log.Stringer("registry", g.Registry),
		log.Stringer("lastAcceptedID", vm.lastAcceptedID),
		log.Uint64("height", vm.height),
	)
	return nil
}

func (vm *VM) SetState(_ context.Context, s State) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	switch s {
	case Bootstrapping:
		vm.log.Info("AMM VM entering bootstrap state")
		vm.bootstrapped = false
		return nil
	case Ready:
		vm.log.Info("AMM VM entering ready state")
		vm.bootstrapped = true
		return nil
	default:
		return fmt.Errorf("%w: %d", errUnknownState, s)
	}
}

// Subscribe registers s for every event committed from now on.
func (vm *VM) Subscribe(s events.Subscriber) {
	vm.dispatcher.Subscribe(s)
}

// IssueTx parses a transaction and queues it for the next block.
func (vm *VM) IssueTx(txBytes []byte) (ids.ID, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	switch {
	case !vm.isInitialized:
		return ids.Empty, errNotInitialized
	case vm.shutdown:
		return ids.Empty, errShutdown
	case len(txBytes) > vm.MaxTxSize:
		return ids.Empty, fmt.Errorf("%w: %d > %d", errTxTooLarge, len(txBytes), vm.MaxTxSize)
	}

	tx, err := txs.Parse(txBytes)
	if err != nil {
		return ids.Empty, err
	}
	if err := tx.SyntacticVerify(); err != nil {
		return ids.Empty, err
	}
	txID := tx.ID()
	if _, ok := vm.pending[txID]; ok {
		return ids.Empty, fmt.Errorf("%w: %s", errDuplicateTx, txID)
	}
	if len(vm.mempool) >= vm.Config.MempoolSize {
		return ids.Empty, errMempoolFull
	}

	vm.mempool = append(vm.mempool, tx)
	vm.pending[txID] = struct{}{}
	vm.metrics.SetMempoolSize(len(vm.mempool))
	vm.log.Debug("issued tx",
		log.Stringer("txID", txID),
		log.String("type", metrics.TxLabel(tx)),
	)
	return txID, nil
}

// BuildBlock proposes a block of the oldest pending transactions on top of
// the last accepted block. The transactions stay pending until the block is
// accepted.
func (vm *VM) BuildBlock(ctx context.Context) (*Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vm.lock.RLock()
	defer vm.lock.RUnlock()

	switch {
	case !vm.isInitialized:
		return nil, errNotInitialized
	case vm.shutdown:
		return nil, errShutdown
	case !vm.bootstrapped:
		return nil, errNotBootstrapped
	case len(vm.mempool) == 0:
		return nil, ErrNoPendingTxs
	}

	n := min(len(vm.mempool), vm.MaxTxsPerBlock)
	txBytes := make([][]byte, n)
	for i, tx := range vm.mempool[:n] {
		txBytes[i] = tx.Bytes()
	}
	return NewBlock(vm.lastAcceptedID, vm.height+1, time.Now(), txBytes)
}

// AcceptBlock executes every transaction of blk in order and makes blk the
// last accepted block.
func (vm *VM) AcceptBlock(ctx context.Context, blk *Block) (*BlockResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vm.lock.Lock()
	defer vm.lock.Unlock()

	switch {
	case !vm.isInitialized:
		return nil, errNotInitialized
	case vm.shutdown:
		return nil, errShutdown
	case blk.ParentID != vm.lastAcceptedID:
		return nil, fmt.Errorf("%w: parent %s, last accepted %s", errWrongParent, blk.ParentID, vm.lastAcceptedID)
	case blk.Height != vm.height+1:
		return nil, fmt.Errorf("%w: %d, expected %d", errWrongHeight, blk.Height, vm.height+1)
	}

	result := &BlockResult{
		BlockID: blk.ID(),
		Height:  blk.Height,
		Txs:     make([]TxResult, 0, len(blk.Txs)),
	}
	for _, b := range blk.Txs {
		result.Txs = append(result.Txs, vm.executeTx(b))
	}

	_, err := vm.state.Atomic(func(d *state.Diff) error {
		if err := d.SetHeight(blk.Height); err != nil {
			return err
		}
		return d.SetLastAccepted(blk.ID())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to accept block %s: %w", blk.ID(), err)
	}
	vm.lastAcceptedID = blk.ID()
	vm.height = blk.Height

	for _, r := range result.Txs {
		vm.removePending(r.TxID)
	}
	vm.metrics.MarkAccepted(blk.Height)
	vm.metrics.SetMempoolSize(len(vm.mempool))
	vm.log.Debug("accepted block",
		log.Stringer("blkID", blk.ID()),
		log.Uint64("height", blk.Height),
		log.Int("numTxs", len(blk.Txs)),
	)
	return result, nil
}

func (vm *VM) executeTx(b []byte) TxResult {
	tx, err := txs.Parse(b)
	if err != nil {
		vm.log.Warn("dropping unparsable tx", log.Err(err))
		return TxResult{Err: err}
	}

	emitted, err := executor.Execute(vm.state, tx)
	vm.metrics.MarkTx(tx, err)
	if err != nil {
		vm.log.Warn("transaction failed",
			log.Stringer("txID", tx.ID()),
			log.String("type", metrics.TxLabel(tx)),
			log.Err(err),
		)
		return TxResult{TxID: tx.ID(), Err: err}
	}

	vm.log.Debug("transaction accepted",
		log.Stringer("txID", tx.ID()),
		log.String("type", metrics.TxLabel(tx)),
		log.Int("numEvents", len(emitted)),
	)
	vm.dispatcher.Dispatch(emitted)
	return TxResult{TxID: tx.ID(), Events: emitted}
}

func (vm *VM) removePending(txID ids.ID) {
	if _, ok := vm.pending[txID]; !ok {
		return
	}
	delete(vm.pending, txID)
	for i, tx := range vm.mempool {
		if tx.ID() == txID {
			vm.mempool = append(vm.mempool[:i], vm.mempool[i+1:]...)
			return
		}
	}
}

func (vm *VM) Shutdown(context.Context) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if !vm.isInitialized || vm.shutdown {
		return nil
	}
	vm.log.Info("shutting down AMM VM")
	vm.shutdown = true
	if err := vm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func (*VM) Version(context.Context) (string, error) {
	return Version.String(), nil
}

func (vm *VM) CreateHandlers(context.Context) (map[string]http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json2.NewCodec(), "application/json")
	server.RegisterCodec(json2.NewCodec(), "application/json;charset=UTF-8")
	if err := server.RegisterService(api.NewService(vm), serviceName); err != nil {
		return nil, fmt.Errorf("failed to register %s service: %w", serviceName, err)
	}
	return map[string]http.Handler{
		"": server,
	}, nil
}

func (vm *VM) HealthCheck(context.Context) (interface{}, error) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	return map[string]interface{}{
		"healthy":      vm.isInitialized && vm.bootstrapped && !vm.shutdown,
		"bootstrapped": vm.bootstrapped,
		"height":       vm.height,
		"mempool":      len(vm.mempool),
	}, nil
}

func (vm *VM) IsBootstrapped() bool {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	return vm.bootstrapped
}

// State returns the committed chain state.
func (vm *VM) State() *state.State {
	return vm.state
}

// Positions returns the position index, nil when indexing is disabled.
func (vm *VM) Positions() *indexer.Positions {
	return vm.positions
}

func (vm *VM) LastAccepted() (ids.ID, uint64) {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	return vm.lastAcceptedID, vm.height
}

func (vm *VM) MempoolSize() int {
	vm.lock.RLock()
	defer vm.lock.RUnlock()

	return len(vm.mempool)
}
