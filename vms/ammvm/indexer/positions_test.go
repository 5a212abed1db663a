// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package indexer

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/amm/vms/ammvm/events"
	"github.com/luxfi/amm/vms/ammvm/liquidity"
	"github.com/luxfi/amm/vms/ammvm/registry"
)

// index persists evs to db and applies them to p.
func index(t *testing.T, p *Positions, db database.Database, evs ...events.Event) {
	apply, err := p.Index(db, evs)
	require.NoError(t, err)
	apply()
}

func TestPositionLifecycle(t *testing.T) {
	require := require.New(t)

	p := NewPositions()
	db := memdb.New()
	provider := ids.GenerateTestShortID()
	pool := ids.GenerateTestShortID()

	index(t, p, db, &liquidity.LiquidityAdded{
		Pool:      pool,
		Provider:  provider,
		Liquidity: uint256.NewInt(30),
		DepositX:  uint256.NewInt(30),
		DepositY:  uint256.NewInt(100),
	})
	index(t, p, db, &liquidity.LiquidityAdded{
		Pool:      pool,
		Provider:  provider,
		Liquidity: uint256.NewInt(10),
		DepositX:  uint256.NewInt(10),
		DepositY:  uint256.NewInt(33),
	})
	pos, ok := p.Get(provider, pool)
	require.True(ok)
	require.Equal(uint64(40), pos.Liquidity.Uint64())
	require.Equal(uint64(40), pos.DepositX.Uint64())
	require.Equal(uint64(133), pos.DepositY.Uint64())
	require.False(pos.Closed)

	index(t, p, db, &liquidity.LiquidityRemoved{
		Pool:       pool,
		Provider:   provider,
		Liquidity:  uint256.NewInt(15),
		WithdrawnX: uint256.NewInt(15),
		WithdrawnY: uint256.NewInt(49),
	})
	pos, _ = p.Get(provider, pool)
	require.Equal(uint64(25), pos.Liquidity.Uint64())
	require.False(pos.Closed)

	index(t, p, db, &liquidity.LiquidityRemoved{
		Pool:       pool,
		Provider:   provider,
		Liquidity:  uint256.NewInt(25),
		WithdrawnX: uint256.NewInt(25),
		WithdrawnY: uint256.NewInt(84),
	})
	pos, _ = p.Get(provider, pool)
	require.True(pos.Liquidity.IsZero())
	require.Equal(uint64(40), pos.WithdrawnX.Uint64())
	require.Equal(uint64(133), pos.WithdrawnY.Uint64())
	require.True(pos.Closed)

	index(t, p, db, &liquidity.LiquidityAdded{
		Pool:      pool,
		Provider:  provider,
		Liquidity: uint256.NewInt(1),
		DepositX:  uint256.NewInt(1),
		DepositY:  uint256.NewInt(1),
	})
	pos, _ = p.Get(provider, pool)
	require.False(pos.Closed)
	require.Equal(1, p.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	require := require.New(t)

	p := NewPositions()
	provider := ids.GenerateTestShortID()
	pool := ids.GenerateTestShortID()
	index(t, p, memdb.New(), &liquidity.LiquidityAdded{
		Pool:      pool,
		Provider:  provider,
		Liquidity: uint256.NewInt(5),
	})

	pos, ok := p.Get(provider, pool)
	require.True(ok)
	pos.Liquidity.SetUint64(100)

	pos, _ = p.Get(provider, pool)
	require.Equal(uint64(5), pos.Liquidity.Uint64())

	_, ok = p.Get(pool, provider)
	require.False(ok)
}

func TestByProvider(t *testing.T) {
	require := require.New(t)

	p := NewPositions()
	db := memdb.New()
	alice := ids.ShortID{1}
	bob := ids.ShortID{2}
	pools := []ids.ShortID{{9}, {3}, {5}}
	for _, pool := range pools {
		for _, provider := range []ids.ShortID{alice, bob} {
			index(t, p, db, &liquidity.LiquidityAdded{
				Pool:      pool,
				Provider:  provider,
				Liquidity: uint256.NewInt(1),
			})
		}
	}
	require.Equal(6, p.Len())

	positions := p.ByProvider(alice)
	require.Len(positions, 3)
	require.Equal(ids.ShortID{3}, positions[0].Pool)
	require.Equal(ids.ShortID{5}, positions[1].Pool)
	require.Equal(ids.ShortID{9}, positions[2].Pool)
	for _, pos := range positions {
		require.Equal(alice, pos.Provider)
	}

	require.Empty(p.ByProvider(ids.ShortID{7}))
}

func TestIgnoresOtherEvents(t *testing.T) {
	require := require.New(t)

	p := NewPositions()
	db := memdb.New()
	index(t, p, db,
		&liquidity.Swapped{Pool: ids.GenerateTestShortID()},
		&registry.StateUpdated{Registry: ids.GenerateTestShortID(), State: registry.Open},
	)
	require.Zero(p.Len())

	it := db.NewIterator()
	defer it.Release()
	require.False(it.Next())
}

func TestLoadRestoresPositions(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	provider := ids.GenerateTestShortID()
	pools := []ids.ShortID{ids.GenerateTestShortID(), ids.GenerateTestShortID()}

	p := NewPositions()
	index(t, p, db,
		&liquidity.LiquidityAdded{Pool: pools[0], Provider: provider, Liquidity: uint256.NewInt(30), DepositX: uint256.NewInt(30), DepositY: uint256.NewInt(90)},
		&liquidity.LiquidityAdded{Pool: pools[1], Provider: provider, Liquidity: uint256.NewInt(8), DepositX: uint256.NewInt(8), DepositY: uint256.NewInt(8)},
	)
	index(t, p, db,
		&liquidity.LiquidityRemoved{Pool: pools[1], Provider: provider, Liquidity: uint256.NewInt(8), WithdrawnX: uint256.NewInt(9), WithdrawnY: uint256.NewInt(7)},
	)

	restored := NewPositions()
	require.NoError(restored.Load(db))
	require.Equal(p.ByProvider(provider), restored.ByProvider(provider))

	pos, ok := restored.Get(provider, pools[1])
	require.True(ok)
	require.True(pos.Closed)
	require.Equal(uint64(9), pos.WithdrawnX.Uint64())
}

func TestIndexWaitsForApply(t *testing.T) {
	require := require.New(t)

	p := NewPositions()
	db := memdb.New()
	provider := ids.GenerateTestShortID()
	pool := ids.GenerateTestShortID()

	added := &liquidity.LiquidityAdded{Pool: pool, Provider: provider, Liquidity: uint256.NewInt(4)}
	_, err := p.Index(db, []events.Event{added, added})
	require.NoError(err)
	require.Zero(p.Len())

	// Both events of one call accumulate into the same position.
	restored := NewPositions()
	require.NoError(restored.Load(db))
	pos, ok := restored.Get(provider, pool)
	require.True(ok)
	require.Equal(uint64(8), pos.Liquidity.Uint64())
}

func TestLoadRejectsCorruptPosition(t *testing.T) {
	db := memdb.New()
	require.NoError(t, db.Put([]byte{1}, []byte{2}))
	require.Error(t, NewPositions().Load(db))
}
