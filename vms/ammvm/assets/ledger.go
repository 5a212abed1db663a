// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package assets implements the host ledger the pools move value through: the
// chain's native asset plus any number of fungible tokens with
// owner→spender transfer allowances.
package assets

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNativeAllowance       = errors.New("native asset cannot be moved by allowance")
	ErrOverflow              = errors.New("balance overflow")
	ErrNoBatch               = errors.New("no open batch")

	balancePrefix   = []byte("balance")
	allowancePrefix = []byte("allowance")
)

// Hook runs after a token transfer has been applied, the way a token
// contract calls into the parties of a transfer. A non-nil error fails the
// transfer.
type Hook func(asset ids.ID, from, to ids.ShortID, amount *uint256.Int) error

// Call is the explicit identity and attached native value of an operation.
type Call struct {
	Caller ids.ShortID
	// Value is the native amount sent along with the call. nil means none.
	Value *uint256.Int
}

// Attached returns the attached native value, zero when none was sent.
func (c Call) Attached() *uint256.Int {
	if c.Value == nil {
		return new(uint256.Int)
	}
	return c.Value.Clone()
}

// HasValue reports whether a non-zero native value is attached.
func (c Call) HasValue() bool {
	return c.Value != nil && !c.Value.IsZero()
}

// Ledger stores balances and allowances in a database.
type Ledger struct {
	native ids.ID
	hooks  map[ids.ID]Hook

	db      database.Database
	batches []*versiondb.Database

	balances   database.Database
	allowances database.Database
}

// New returns a ledger over db. hooks may be nil.
func New(db database.Database, native ids.ID, hooks map[ids.ID]Hook) *Ledger {
	l := &Ledger{
		native: native,
		hooks:  hooks,
		db:     db,
	}
	l.bind(db)
	return l
}

// Begin opens a batch. Every write up to the matching End belongs to it.
// Batches nest.
func (l *Ledger) Begin() {
	vdb := versiondb.New(l.top())
	l.batches = append(l.batches, vdb)
	l.bind(vdb)
}

// End closes the innermost batch, keeping its writes if commit is true and
// discarding them otherwise.
func (l *Ledger) End(commit bool) error {
	if len(l.batches) == 0 {
		return ErrNoBatch
	}
	vdb := l.batches[len(l.batches)-1]
	l.batches = l.batches[:len(l.batches)-1]
	l.bind(l.top())

	if !commit {
		vdb.Abort()
		return nil
	}
	return vdb.Commit()
}

func (l *Ledger) top() database.Database {
	if n := len(l.batches); n > 0 {
		return l.batches[n-1]
	}
	return l.db
}

func (l *Ledger) bind(db database.Database) {
	l.balances = prefixdb.New(balancePrefix, db)
	l.allowances = prefixdb.New(allowancePrefix, db)
}

// NativeAssetID returns the id of the chain's native asset.
func (l *Ledger) NativeAssetID() ids.ID {
	return l.native
}

// BalanceOf returns the balance of owner in asset.
func (l *Ledger) BalanceOf(asset ids.ID, owner ids.ShortID) (*uint256.Int, error) {
	return readAmount(l.balances, balanceKey(asset, owner))
}

// Allowance returns how much of owner's asset spender may still move.
func (l *Ledger) Allowance(asset ids.ID, owner, spender ids.ShortID) (*uint256.Int, error) {
	return readAmount(l.allowances, allowanceKey(asset, owner, spender))
}

// Mint credits amount of asset to an address. It is only used for genesis
// allocations and tests.
func (l *Ledger) Mint(asset ids.ID, to ids.ShortID, amount *uint256.Int) error {
	return l.credit(asset, to, amount)
}

// Approve sets the allowance of spender over owner's asset to amount.
func (l *Ledger) Approve(asset ids.ID, owner, spender ids.ShortID, amount *uint256.Int) error {
	if asset == l.native {
		return ErrNativeAllowance
	}
	return writeAmount(l.allowances, allowanceKey(asset, owner, spender), amount)
}

// Transfer moves amount of asset from one address to another.
func (l *Ledger) Transfer(asset ids.ID, from, to ids.ShortID, amount *uint256.Int) error {
	if err := l.move(asset, from, to, amount); err != nil {
		return err
	}
	return l.notify(asset, from, to, amount)
}

// TransferFrom moves amount of asset from one address to another on behalf
// of spender, consuming spender's allowance.
func (l *Ledger) TransferFrom(asset ids.ID, spender, from, to ids.ShortID, amount *uint256.Int) error {
	if asset == l.native {
		return ErrNativeAllowance
	}
	key := allowanceKey(asset, from, spender)
	allowance, err := readAmount(l.allowances, key)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientAllowance, allowance, amount)
	}
	if err := writeAmount(l.allowances, key, allowance.Sub(allowance, amount)); err != nil {
		return err
	}
	return l.Transfer(asset, from, to, amount)
}

func (l *Ledger) move(asset ids.ID, from, to ids.ShortID, amount *uint256.Int) error {
	fromKey := balanceKey(asset, from)
	balance, err := readAmount(l.balances, fromKey)
	if err != nil {
		return err
	}
	if balance.Lt(amount) {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientBalance, balance, amount)
	}
	if from == to {
		return nil
	}
	if err := writeAmount(l.balances, fromKey, balance.Sub(balance, amount)); err != nil {
		return err
	}
	return l.credit(asset, to, amount)
}

func (l *Ledger) credit(asset ids.ID, to ids.ShortID, amount *uint256.Int) error {
	key := balanceKey(asset, to)
	balance, err := readAmount(l.balances, key)
	if err != nil {
		return err
	}
	if _, overflow := balance.AddOverflow(balance, amount); overflow {
		return ErrOverflow
	}
	return writeAmount(l.balances, key, balance)
}

func (l *Ledger) notify(asset ids.ID, from, to ids.ShortID, amount *uint256.Int) error {
	hook, ok := l.hooks[asset]
	if !ok || asset == l.native {
		return nil
	}
	return hook(asset, from, to, amount.Clone())
}

func balanceKey(asset ids.ID, owner ids.ShortID) []byte {
	key := make([]byte, 0, ids.IDLen+len(owner))
	key = append(key, asset[:]...)
	return append(key, owner[:]...)
}

func allowanceKey(asset ids.ID, owner, spender ids.ShortID) []byte {
	key := balanceKey(asset, owner)
	return append(key, spender[:]...)
}

func readAmount(db database.Database, key []byte) (*uint256.Int, error) {
	b, err := db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b), nil
}

func writeAmount(db database.Database, key []byte, amount *uint256.Int) error {
	if amount.IsZero() {
		return db.Delete(key)
	}
	b := amount.Bytes32()
	return db.Put(key, b[:])
}
