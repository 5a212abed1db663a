// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package liquidity

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/events"
	"github.com/luxfi/amm/vms/ammvm/reserve"
)

var (
	poolPrefix      = []byte("pool")
	sharesPrefix    = []byte("shares")
	allowancePrefix = []byte("allowance")
)

//go:generate go run go.uber.org/mock/mockgen -package=${GOPACKAGE}mock -destination=${GOPACKAGE}mock/ledger.go -mock_names=Ledger=Ledger . Ledger

// Ledger moves the assets held by pools.
type Ledger interface {
	NativeAssetID() ids.ID
	Transfer(asset ids.ID, from, to ids.ShortID, amount *uint256.Int) error
	TransferFrom(asset ids.ID, spender, from, to ids.ShortID, amount *uint256.Int) error

	// Begin opens a nested batch of transfers.
	Begin()
	// End closes the innermost batch, undoing its transfers unless commit
	// is true.
	End(commit bool) error
}

// Store persists pools, their share balances and their allowance tables.
//
// A Store also tracks which pools have an operation in flight and rejects
// any call that re-enters one of them. Each operation writes to its own
// batch, committed into the enclosing one only if the operation succeeds.
type Store struct {
	db      database.Database
	batches []*versiondb.Database

	pools      database.Database
	shares     database.Database
	allowances database.Database

	ledger Ledger
	sink   events.Sink

	entered map[ids.ShortID]struct{}
}

func NewStore(db database.Database, ledger Ledger, sink events.Sink) *Store {
	s := &Store{
		db:      db,
		ledger:  ledger,
		sink:    sink,
		entered: make(map[ids.ShortID]struct{}),
	}
	s.bind(db)
	return s
}

// Create persists a new, uninitialized pool described by rec.
func (s *Store) Create(rec Record) (*Pool, error) {
	if !rec.Kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, rec.Kind)
	}
	if err := reserve.ValidateFee(rec.FeePerMille); err != nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFee, rec.FeePerMille)
	}
	if rec.Kind == Native {
		rec.AssetX = s.ledger.NativeAssetID()
	}
	if rec.AssetX == rec.AssetY {
		return nil, fmt.Errorf("%w: %s", ErrSameAsset, rec.AssetX)
	}
	exists, err := s.pools.Has(rec.Address[:])
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrPoolExists, rec.Address)
	}

	rec.Initialized = false
	rec.ReserveX.Clear()
	rec.ReserveY.Clear()
	rec.TotalShares.Clear()

	p := s.newPool(&rec)
	return p, p.save()
}

// Get loads the pool at addr.
func (s *Store) Get(addr ids.ShortID) (*Pool, error) {
	b, err := s.pools.Get(addr[:])
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, addr)
	}
	if err != nil {
		return nil, err
	}
	rec := &Record{}
	if _, err := Codec.Unmarshal(b, rec); err != nil {
		return nil, fmt.Errorf("failed to parse pool %s: %w", addr, err)
	}
	return s.newPool(rec), nil
}

func (s *Store) newPool(rec *Record) *Pool {
	p := &Pool{
		store: s,
		rec:   rec,
	}
	p.x, p.y = tokenSide{id: rec.AssetX}, tokenSide{id: rec.AssetY}
	if rec.Kind == Native {
		p.x = nativeSide{id: rec.AssetX}
	}
	return p
}

// enter marks addr as mid-operation. The returned function clears the mark.
func (s *Store) enter(addr ids.ShortID) (func(), error) {
	if _, ok := s.entered[addr]; ok {
		return nil, fmt.Errorf("%w: %s", ErrReentrantCall, addr)
	}
	s.entered[addr] = struct{}{}
	return func() {
		delete(s.entered, addr)
	}, nil
}

// begin opens a batch over the store and its ledger. end closes it, keeping
// every write and transfer made since begin only if commit is true.
func (s *Store) begin() (end func(commit bool) error) {
	vdb := versiondb.New(s.top())
	s.batches = append(s.batches, vdb)
	s.bind(vdb)
	s.ledger.Begin()

	return func(commit bool) error {
		s.batches = s.batches[:len(s.batches)-1]
		s.bind(s.top())
		if !commit {
			vdb.Abort()
			return s.ledger.End(false)
		}
		return errors.Join(vdb.Commit(), s.ledger.End(true))
	}
}

func (s *Store) top() database.Database {
	if n := len(s.batches); n > 0 {
		return s.batches[n-1]
	}
	return s.db
}

func (s *Store) bind(db database.Database) {
	s.pools = prefixdb.New(poolPrefix, db)
	s.shares = prefixdb.New(sharesPrefix, db)
	s.allowances = prefixdb.New(allowancePrefix, db)
}

func (s *Store) putRecord(rec *Record) error {
	b, err := Codec.Marshal(codecVersion, rec)
	if err != nil {
		return err
	}
	return s.pools.Put(rec.Address[:], b)
}

func (s *Store) getShares(pool, provider ids.ShortID) (*uint256.Int, error) {
	b, err := s.shares.Get(pairKey(pool, provider))
	if errors.Is(err, database.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b), nil
}

func (s *Store) putShares(pool, provider ids.ShortID, shares *uint256.Int) error {
	key := pairKey(pool, provider)
	if shares.IsZero() {
		return s.shares.Delete(key)
	}
	b := shares.Bytes32()
	return s.shares.Put(key, b[:])
}

// getAllowance returns the allowance of spender over owner's funds, or nil if
// none was ever approved.
func (s *Store) getAllowance(pool, owner, spender ids.ShortID) (*Allowance, error) {
	b, err := s.allowances.Get(allowanceKey(pool, owner, spender))
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a := &Allowance{}
	if _, err := Codec.Unmarshal(b, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) putAllowance(pool, owner, spender ids.ShortID, a *Allowance) error {
	b, err := Codec.Marshal(codecVersion, a)
	if err != nil {
		return err
	}
	return s.allowances.Put(allowanceKey(pool, owner, spender), b)
}

func pairKey(pool, account ids.ShortID) []byte {
	key := make([]byte, 0, 3*len(pool))
	key = append(key, pool[:]...)
	return append(key, account[:]...)
}

func allowanceKey(pool, owner, spender ids.ShortID) []byte {
	return append(pairKey(pool, owner), spender[:]...)
}
