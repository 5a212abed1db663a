// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package liquidity

import (
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/amm/vms/ammvm/assets"
)

// randomAmount returns a value in [1e15, 1e15+1e19).
func randomAmount(r *rand.Rand) *uint256.Int {
	n := new(uint256.Int).Mul(uint256.NewInt(uint64(r.Int63n(10_000))), uint256.NewInt(1e15))
	return n.Add(n, uint256.NewInt(1e15))
}

func TestRandomOperationsPreserveInvariants(t *testing.T) {
	require := require.New(t)

	for _, fee := range []uint16{0, 3, 30, 999} {
		env := newTestEnv(nil)
		p := env.initialized(t, fee, units(100), units(250))

		providers := []ids.ShortID{
			env.owner,
			ids.GenerateTestShortID(),
			ids.GenerateTestShortID(),
			ids.GenerateTestShortID(),
		}
		for _, provider := range providers {
			env.fund(t, p, provider, units(1_000_000))
		}

		r := rand.New(rand.NewSource(int64(fee) + 1))
		for i := 0; i < 300; i++ {
			provider := providers[r.Intn(len(providers))]
			call := assets.Call{Caller: provider}
			x0, y0 := p.Reserves()

			switch r.Intn(4) {
			case 0:
				direction := Direction(r.Intn(2))
				swapped, err := p.Swap(call, randomAmount(r), direction)
				if err != nil {
					// A swap too small to pay anything at a high fee.
					require.ErrorIs(err, ErrNotAboveZero)
					continue
				}
				reserveOut := y0
				if direction == YToX {
					reserveOut = x0
				}
				require.True(swapped.AmountOut.Lt(reserveOut))

				x1, y1 := p.Reserves()
				require.True(product(x1, y1).Cmp(product(x0, y0)) >= 0)

			case 1:
				_, err := p.ProvideLiquidity(call, randomAmount(r))
				require.NoError(err)

			case 2:
				held, err := p.LiquidityOf(provider)
				require.NoError(err)
				if held.IsZero() {
					continue
				}
				shares := new(uint256.Int).Div(held, uint256.NewInt(uint64(r.Intn(4)+1)))
				if shares.IsZero() || !shares.Lt(p.TotalShares()) {
					continue
				}
				_, err = p.WithdrawLiquidity(call, shares)
				require.NoError(err)

				x1, y1 := p.Reserves()
				require.False(x1.IsZero())
				require.False(y1.IsZero())

			case 3:
				// Providing then immediately withdrawing never returns
				// more than was deposited.
				added, err := p.ProvideLiquidity(call, randomAmount(r))
				require.NoError(err)
				removed, err := p.WithdrawLiquidity(call, added.Liquidity)
				require.NoError(err)
				require.False(removed.WithdrawnX.Gt(added.DepositX))
				require.False(removed.WithdrawnY.Gt(added.DepositY))
			}

			requireConservation(t, p, providers...)
		}
	}
}
