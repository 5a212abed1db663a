// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry implements the owner-administered catalog of liquidity
// pools. The registry creates and seeds pools, curates which of them are
// routable and triggers delegated swaps on behalf of its callers.
package registry

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"
	"golang.org/x/crypto/sha3"

	"github.com/luxfi/amm/vms/ammvm/assets"
	"github.com/luxfi/amm/vms/ammvm/events"
	"github.com/luxfi/amm/vms/ammvm/guard"
	"github.com/luxfi/amm/vms/ammvm/liquidity"
	"github.com/luxfi/amm/vms/ammvm/reserve"
)

var (
	metaPrefix  = []byte("registry")
	entryPrefix = []byte("entry")

	recordKey = []byte("record")
)

// Registry is the front door of the exchange.
type Registry struct {
	address ids.ShortID
	meta    database.Database
	entries database.Database

	ledger Ledger
	pools  *liquidity.Store
	sink   events.Sink
}

func New(
	db database.Database,
	address ids.ShortID,
	ledger Ledger,
	pools *liquidity.Store,
	sink events.Sink,
) *Registry {
	return &Registry{
		address: address,
		meta:    prefixdb.New(metaPrefix, db),
		entries: prefixdb.New(entryPrefix, db),
		ledger:  ledger,
		pools:   pools,
		sink:    sink,
	}
}

// Create persists a new registry owned by owner. It starts Closed.
func (r *Registry) Create(owner ids.ShortID) error {
	exists, err := r.meta.Has(recordKey)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyCreated
	}
	return r.putRecord(&Record{
		Owner: owner,
		State: Closed,
	})
}

func (r *Registry) Address() ids.ShortID {
	return r.address
}

// Record returns the registry's persisted state.
func (r *Registry) Record() (Record, error) {
	rec, err := r.getRecord()
	if err != nil {
		return Record{}, err
	}
	return *rec, nil
}

func (r *Registry) SetState(call assets.Call, state State) (*StateUpdated, error) {
	rec, err := r.authorize(call, false)
	if err != nil {
		return nil, err
	}
	if !state.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, state)
	}

	rec.State = state
	if err := r.putRecord(rec); err != nil {
		return nil, err
	}

	e := &StateUpdated{
		Registry: r.address,
		State:    state,
	}
	r.sink.Emit(e)
	return e, nil
}

func (r *Registry) TransferOwnership(call assets.Call, newOwner ids.ShortID) (*OwnershipTransferred, error) {
	rec, err := r.authorize(call, false)
	if err != nil {
		return nil, err
	}

	previous := rec.Owner
	rec.Owner = newOwner
	if err := r.putRecord(rec); err != nil {
		return nil, err
	}

	e := &OwnershipTransferred{
		Registry:      r.address,
		PreviousOwner: previous,
		NewOwner:      newOwner,
	}
	r.sink.Emit(e)
	return e, nil
}

// AddNativeLiquidityPool creates a pool pairing the native asset with token.
// The native deposit is the value attached to the call.
func (r *Registry) AddNativeLiquidityPool(
	call assets.Call,
	token ids.ID,
	feePerMille uint16,
	tokenDeposit *uint256.Int,
) (*LiquidityPoolAdded, error) {
	return r.addPool(call, liquidity.Native, r.ledger.NativeAssetID(), token, feePerMille, call.Attached(), tokenDeposit)
}

// AddTokenLiquidityPool creates a pool pairing two tokens.
func (r *Registry) AddTokenLiquidityPool(
	call assets.Call,
	assetX ids.ID,
	assetY ids.ID,
	feePerMille uint16,
	depositX *uint256.Int,
	depositY *uint256.Int,
) (*LiquidityPoolAdded, error) {
	return r.addPool(call, liquidity.Token, assetX, assetY, feePerMille, depositX, depositY)
}

func (r *Registry) addPool(
	call assets.Call,
	kind liquidity.Kind,
	assetX ids.ID,
	assetY ids.ID,
	feePerMille uint16,
	depositX *uint256.Int,
	depositY *uint256.Int,
) (*LiquidityPoolAdded, error) {
	rec, err := r.authorize(call, kind == liquidity.Native)
	if err != nil {
		return nil, err
	}
	if rec.State == Closed {
		return nil, fmt.Errorf("%w: %s", ErrStateIs, Closed)
	}
	if err := reserve.ValidateFee(feePerMille); err != nil {
		return nil, fmt.Errorf("%w: %d", liquidity.ErrInvalidFee, feePerMille)
	}
	if assetX == assetY {
		return nil, fmt.Errorf("%w: %s", liquidity.ErrSameAsset, assetX)
	}
	if isZero(depositX) || isZero(depositY) {
		return nil, liquidity.ErrNotAboveZero
	}

	addr := poolAddress(r.address, rec.Nonce)
	rec.Nonce++
	if err := r.putRecord(rec); err != nil {
		return nil, err
	}
	pool, err := r.pools.Create(liquidity.Record{
		Address:     addr,
		Kind:        kind,
		Owner:       r.address,
		AssetX:      assetX,
		AssetY:      assetY,
		FeePerMille: feePerMille,
	})
	if err != nil {
		return nil, err
	}
	if err := r.putEntry(&Entry{Pool: addr, Kind: kind, Active: true}); err != nil {
		return nil, err
	}
	e := &LiquidityPoolAdded{
		Registry: r.address,
		Pool:     addr,
		Kind:     kind,
	}
	r.sink.Emit(e)

	// Collect the deposits, then let the pool pull them from the registry.
	var value *uint256.Int
	if kind == liquidity.Native {
		value = depositX
		if err := r.ledger.Transfer(assetX, call.Caller, r.address, depositX); err != nil {
			return nil, fmt.Errorf("%w: collecting native deposit: %w", liquidity.ErrTransferFailed, err)
		}
	} else if err := r.collect(assetX, call.Caller, addr, depositX); err != nil {
		return nil, err
	}
	if err := r.collect(assetY, call.Caller, addr, depositY); err != nil {
		return nil, err
	}
	if _, err := pool.Initialize(assets.Call{Caller: r.address, Value: value}, depositX, depositY); err != nil {
		return nil, err
	}
	return e, nil
}

// collect pulls amount of a token from the registry owner and lets pool draw
// it from the registry.
func (r *Registry) collect(asset ids.ID, from, pool ids.ShortID, amount *uint256.Int) error {
	if err := r.ledger.TransferFrom(asset, r.address, from, r.address, amount); err != nil {
		return fmt.Errorf("%w: collecting deposit of %s: %w", liquidity.ErrTransferFailed, asset, err)
	}
	return r.ledger.Approve(asset, r.address, pool, amount)
}

func (r *Registry) RemoveLiquidityPool(call assets.Call, pool ids.ShortID) (*LiquidityPoolRemoved, error) {
	rec, err := r.authorize(call, false)
	if err != nil {
		return nil, err
	}
	if rec.State == Closed {
		return nil, fmt.Errorf("%w: %s", ErrStateIs, Closed)
	}
	entry, err := r.getEntry(pool)
	if err != nil {
		return nil, err
	}
	if entry == nil || !entry.Active {
		return nil, fmt.Errorf("%w: %s", ErrLiquidityPoolNotActive, pool)
	}

	entry.Active = false
	if err := r.putEntry(entry); err != nil {
		return nil, err
	}

	e := &LiquidityPoolRemoved{
		Registry: r.address,
		Pool:     pool,
	}
	r.sink.Emit(e)
	return e, nil
}

func (r *Registry) ActivateLiquidityPool(call assets.Call, pool ids.ShortID) (*LiquidityPoolActivated, error) {
	rec, err := r.authorize(call, false)
	if err != nil {
		return nil, err
	}
	if rec.State == Closed {
		return nil, fmt.Errorf("%w: %s", ErrStateIs, Closed)
	}
	entry, err := r.getEntry(pool)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLiquidityPool, pool)
	}
	if entry.Active {
		return nil, fmt.Errorf("%w: %s", ErrLiquidityPoolIsActive, pool)
	}

	entry.Active = true
	if err := r.putEntry(entry); err != nil {
		return nil, err
	}

	e := &LiquidityPoolActivated{
		Registry: r.address,
		Pool:     pool,
	}
	r.sink.Emit(e)
	return e, nil
}

// SwapAt routes a delegated swap of the caller's funds through pool. The
// caller must have approved the registry as spender on that pool. Attached
// native value is relayed to the pool.
func (r *Registry) SwapAt(call assets.Call, pool ids.ShortID, amount *uint256.Int) (*liquidity.Swapped, error) {
	rec, err := r.getRecord()
	if err != nil {
		return nil, err
	}
	if rec.State != Open {
		return nil, fmt.Errorf("%w: %s", ErrStateIsNot, Open)
	}
	entry, err := r.getEntry(pool)
	if err != nil {
		return nil, err
	}
	if entry == nil || !entry.Active {
		return nil, fmt.Errorf("%w: %s", ErrLiquidityPoolNotActive, pool)
	}
	p, err := r.pools.Get(pool)
	if err != nil {
		return nil, err
	}

	if call.HasValue() {
		if err := r.ledger.Transfer(r.ledger.NativeAssetID(), call.Caller, r.address, call.Value); err != nil {
			return nil, fmt.Errorf("%w: relaying value: %w", liquidity.ErrTransferFailed, err)
		}
	}
	return p.SwapFrom(assets.Call{Caller: r.address, Value: call.Value}, call.Caller, amount)
}

// Entry returns the catalog entry of pool and whether it exists.
func (r *Registry) Entry(pool ids.ShortID) (Entry, bool, error) {
	entry, err := r.getEntry(pool)
	if err != nil || entry == nil {
		return Entry{}, false, err
	}
	return *entry, true, nil
}

// Status reports whether pool is listed and active.
func (r *Registry) Status(pool ids.ShortID) (bool, error) {
	entry, err := r.getEntry(pool)
	if err != nil || entry == nil {
		return false, err
	}
	return entry.Active, nil
}

// Entries returns every catalog entry ordered by pool address.
func (r *Registry) Entries() ([]Entry, error) {
	it := r.entries.NewIterator()
	defer it.Release()

	var entries []Entry
	for it.Next() {
		var entry Entry
		if _, err := Codec.Unmarshal(it.Value(), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, it.Error()
}

// Pool loads a pool through the registry's store.
func (r *Registry) Pool(addr ids.ShortID) (*liquidity.Pool, error) {
	return r.pools.Get(addr)
}

// authorize loads the record and requires the caller to be its owner.
// Only payable operations accept native value.
func (r *Registry) authorize(call assets.Call, payable bool) (*Record, error) {
	if !payable && call.HasValue() {
		return nil, liquidity.ErrNativeNotAccepted
	}
	rec, err := r.getRecord()
	if err != nil {
		return nil, err
	}
	if err := guard.RequireCaller(call.Caller, rec.Owner); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Registry) getRecord() (*Record, error) {
	b, err := r.meta.Get(recordKey)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotCreated
	}
	if err != nil {
		return nil, err
	}
	rec := &Record{}
	if _, err := Codec.Unmarshal(b, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Registry) putRecord(rec *Record) error {
	b, err := Codec.Marshal(codecVersion, rec)
	if err != nil {
		return err
	}
	return r.meta.Put(recordKey, b)
}

func (r *Registry) getEntry(pool ids.ShortID) (*Entry, error) {
	b, err := r.entries.Get(pool[:])
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry := &Entry{}
	if _, err := Codec.Unmarshal(b, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *Registry) putEntry(entry *Entry) error {
	b, err := Codec.Marshal(codecVersion, entry)
	if err != nil {
		return err
	}
	return r.entries.Put(entry.Pool[:], b)
}

// poolAddress derives the address of the pool created with the given nonce:
// the last 20 bytes of keccak256(registry || nonce).
func poolAddress(registry ids.ShortID, nonce uint64) ids.ShortID {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(registry[:])
	_ = binary.Write(h, binary.BigEndian, nonce)
	digest := h.Sum(nil)

	var addr ids.ShortID
	copy(addr[:], digest[len(digest)-len(addr):])
	return addr
}

func isZero(amount *uint256.Int) bool {
	return amount == nil || amount.IsZero()
}
