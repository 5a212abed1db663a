// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package indexer projects committed pool events into per-provider
// liquidity positions.
//
// Positions are persisted alongside the state that produced them and are
// served from an in-memory btree loaded at startup.
package indexer

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/ids"

	"github.com/luxfi/amm/vms/ammvm/events"
	"github.com/luxfi/amm/vms/ammvm/liquidity"
)

const defaultTreeDegree = 2

var _ btree.LessFunc[*Position] = (*Position).Less

// Position is what a provider has put into and taken out of one pool.
// A position closes when its liquidity returns to zero and reopens on the
// next deposit.
type Position struct {
	Provider   ids.ShortID `serialize:"true" json:"provider"`
	Pool       ids.ShortID `serialize:"true" json:"pool"`
	Liquidity  uint256.Int `serialize:"true" json:"liquidity"`
	DepositX   uint256.Int `serialize:"true" json:"depositX"`
	DepositY   uint256.Int `serialize:"true" json:"depositY"`
	WithdrawnX uint256.Int `serialize:"true" json:"withdrawnX"`
	WithdrawnY uint256.Int `serialize:"true" json:"withdrawnY"`
	Closed     bool        `serialize:"true" json:"closed"`
}

// Less orders positions by provider, then pool.
func (p *Position) Less(than *Position) bool {
	if c := bytes.Compare(p.Provider[:], than.Provider[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(p.Pool[:], than.Pool[:]) < 0
}

// Positions is an index of liquidity positions.
type Positions struct {
	lock sync.RWMutex
	tree *btree.BTreeG[*Position]
}

func NewPositions() *Positions {
	return &Positions{
		tree: btree.NewG(defaultTreeDegree, (*Position).Less),
	}
}

// Load adds every position persisted in db to the index.
func (p *Positions) Load(db database.Database) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	it := db.NewIterator()
	defer it.Release()

	for it.Next() {
		pos := &Position{}
		if _, err := Codec.Unmarshal(it.Value(), pos); err != nil {
			return fmt.Errorf("failed to parse position %x: %w", it.Key(), err)
		}
		p.tree.ReplaceOrInsert(pos)
	}
	return it.Error()
}

// Index writes to db the positions changed by evs. The index itself only
// changes once the returned apply is called, after db has been committed.
func (p *Positions) Index(db database.Database, evs []events.Event) (apply func(), err error) {
	staged := make(map[string]*Position)

	p.lock.RLock()
	for _, e := range evs {
		switch e := e.(type) {
		case *liquidity.LiquidityAdded:
			pos := p.stage(staged, e.Provider, e.Pool)
			saturatingAdd(&pos.Liquidity, e.Liquidity)
			saturatingAdd(&pos.DepositX, e.DepositX)
			saturatingAdd(&pos.DepositY, e.DepositY)
			pos.Closed = false
		case *liquidity.LiquidityRemoved:
			pos := p.stage(staged, e.Provider, e.Pool)
			if pos.Liquidity.Lt(e.Liquidity) {
				pos.Liquidity.Clear()
			} else {
				pos.Liquidity.Sub(&pos.Liquidity, e.Liquidity)
			}
			saturatingAdd(&pos.WithdrawnX, e.WithdrawnX)
			saturatingAdd(&pos.WithdrawnY, e.WithdrawnY)
			pos.Closed = pos.Liquidity.IsZero()
		}
	}
	p.lock.RUnlock()

	for key, pos := range staged {
		b, err := Codec.Marshal(codecVersion, pos)
		if err != nil {
			return nil, err
		}
		if err := db.Put([]byte(key), b); err != nil {
			return nil, err
		}
	}
	return func() {
		p.lock.Lock()
		defer p.lock.Unlock()

		for _, pos := range staged {
			p.tree.ReplaceOrInsert(pos)
		}
	}, nil
}

// Get returns a copy of the position of provider in pool.
func (p *Positions) Get(provider, pool ids.ShortID) (Position, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	pos, ok := p.tree.Get(&Position{Provider: provider, Pool: pool})
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// ByProvider returns copies of every position of provider ordered by pool.
func (p *Positions) ByProvider(provider ids.ShortID) []Position {
	p.lock.RLock()
	defer p.lock.RUnlock()

	var positions []Position
	p.tree.AscendGreaterOrEqual(&Position{Provider: provider}, func(pos *Position) bool {
		if pos.Provider != provider {
			return false
		}
		positions = append(positions, *pos)
		return true
	})
	return positions
}

func (p *Positions) Len() int {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.tree.Len()
}

// stage returns the staged copy of the position of provider in pool.
func (p *Positions) stage(staged map[string]*Position, provider, pool ids.ShortID) *Position {
	key := positionKey(provider, pool)
	if pos, ok := staged[key]; ok {
		return pos
	}
	pos := &Position{Provider: provider, Pool: pool}
	if current, ok := p.tree.Get(pos); ok {
		*pos = *current
	}
	staged[key] = pos
	return pos
}

func positionKey(provider, pool ids.ShortID) string {
	return string(provider[:]) + string(pool[:])
}

func saturatingAdd(dst, amount *uint256.Int) {
	if amount == nil {
		return
	}
	if _, overflow := dst.AddOverflow(dst, amount); overflow {
		dst.SetAllOne()
	}
}
