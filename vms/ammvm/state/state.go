// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state manages persistent state for the AMM VM.
//
// Every state-mutating operation runs inside Atomic: its writes and the
// events it emits either commit together or are discarded together.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/assets"
	"github.com/luxfi/amm/vms/ammvm/events"
	"github.com/luxfi/amm/vms/ammvm/liquidity"
	"github.com/luxfi/amm/vms/ammvm/registry"
)

var (
	ErrStateCorrupted = errors.New("state corrupted")

	// Database prefixes
	prefixAssets   = []byte("assets")
	prefixPools    = []byte("pools")
	prefixRegistry = []byte("registry")
	prefixChain    = []byte("chain")
	prefixIndex    = []byte("index")

	keyHeight       = []byte("height")
	keyLastAccepted = []byte("lastAccepted")
)

// State is the committed state of the VM.
type State struct {
	lock sync.RWMutex
	db   database.Database

	native   ids.ID
	registry ids.ShortID
	hooks    map[ids.ID]assets.Hook
	indexers []Indexer
}

// Indexer derives persisted data from the events of committed operations.
//
// Index writes to db whatever evs change and returns the update to apply to
// any in-memory view once those writes have been committed.
type Indexer interface {
	Index(db database.Database, evs []events.Event) (apply func(), err error)
}

// New returns the state stored in db for a chain whose native asset is
// native and whose registry lives at registryAddr.
func New(db database.Database, native ids.ID, registryAddr ids.ShortID) *State {
	return &State{
		db:       db,
		native:   native,
		registry: registryAddr,
		hooks:    make(map[ids.ID]assets.Hook),
	}
}

// SetHook installs a transfer callback on a token. Hooks live in memory
// only; they model tokens whose transfers call back into other contracts.
func (s *State) SetHook(asset ids.ID, hook assets.Hook) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.hooks[asset] = hook
}

// AddIndexer runs ix as part of every subsequent Atomic call.
func (s *State) AddIndexer(ix Indexer) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.indexers = append(s.indexers, ix)
}

func (s *State) NativeAssetID() ids.ID {
	return s.native
}

func (s *State) RegistryAddress() ids.ShortID {
	return s.registry
}

// Atomic runs fn against a fresh view of the state. If fn succeeds its writes
// are committed and the events it emitted are returned in order. If fn fails
// nothing it did is kept. Indexers see the events before the commit and
// their writes are part of it.
func (s *State) Atomic(fn func(*Diff) error) ([]events.Event, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	vdb := versiondb.New(s.db)
	defer vdb.Abort()

	d := s.diff(vdb)
	if err := fn(d); err != nil {
		d.Events.Discard()
		return nil, err
	}
	emitted := d.Events.Drain()

	applies := make([]func(), 0, len(s.indexers))
	for _, ix := range s.indexers {
		apply, err := ix.Index(d.Index, emitted)
		if err != nil {
			return nil, fmt.Errorf("failed to index: %w", err)
		}
		applies = append(applies, apply)
	}
	if err := vdb.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	for _, apply := range applies {
		apply()
	}
	return emitted, nil
}

// Read runs fn against a view of the committed state. Anything fn writes is
// discarded.
func (s *State) Read(fn func(*Diff) error) error {
	s.lock.RLock()
	defer s.lock.RUnlock()

	vdb := versiondb.New(s.db)
	defer vdb.Abort()

	return fn(s.diff(vdb))
}

func (s *State) diff(db database.Database) *Diff {
	log := &events.Log{}
	ledger := assets.New(prefixdb.New(prefixAssets, db), s.native, s.hooks)
	pools := liquidity.NewStore(prefixdb.New(prefixPools, db), ledger, log)
	return &Diff{
		Assets:   ledger,
		Pools:    pools,
		Registry: registry.New(prefixdb.New(prefixRegistry, db), s.registry, ledger, pools, log),
		Events:   log,
		Index:    prefixdb.New(prefixIndex, db),
		chain:    prefixdb.New(prefixChain, db),
	}
}

// Diff is one operation's view of the state.
type Diff struct {
	Assets   *assets.Ledger
	Pools    *liquidity.Store
	Registry *registry.Registry
	Events   *events.Log
	// Index is the space reserved for indexers.
	Index database.Database

	chain database.Database
}

// Height returns the height of the last accepted block.
func (d *Diff) Height() (uint64, error) {
	b, err := d.chain.Get(keyHeight)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: height is %d bytes", ErrStateCorrupted, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *Diff) SetHeight(height uint64) error {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, height)
	return d.chain.Put(keyHeight, b)
}

// LastAccepted returns the ID of the last accepted block, ids.Empty before
// the first one.
func (d *Diff) LastAccepted() (ids.ID, error) {
	b, err := d.chain.Get(keyLastAccepted)
	if errors.Is(err, database.ErrNotFound) {
		return ids.Empty, nil
	}
	if err != nil {
		return ids.Empty, err
	}
	return ids.ToID(b)
}

func (d *Diff) SetLastAccepted(blkID ids.ID) error {
	return d.chain.Put(keyLastAccepted, blkID[:])
}
