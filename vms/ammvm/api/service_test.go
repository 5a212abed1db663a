// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/amm/vms/ammvm/assets"
	"github.com/luxfi/amm/vms/ammvm/indexer"
	"github.com/luxfi/amm/vms/ammvm/liquidity"
	"github.com/luxfi/amm/vms/ammvm/registry"
	"github.com/luxfi/amm/vms/ammvm/state"
)

const hundred = "100000000000000000000"

type testVM struct {
	bootstrapped bool
	state        *state.State
	positions    *indexer.Positions
	issued       [][]byte
}

func (vm *testVM) IsBootstrapped() bool { return vm.bootstrapped }
func (vm *testVM) State() *state.State { return vm.state }
func (vm *testVM) Positions() *indexer.Positions { return vm.positions }

func (vm *testVM) IssueTx(b []byte) (ids.ID, error) {
	vm.issued = append(vm.issued, b)
	return ids.ID{byte(len(vm.issued))}, nil
}

func (*testVM) LastAccepted() (ids.ID, uint64) {
	return ids.ID{7}, 7
}

type testEnv struct {
	vm      *testVM
	service *Service
	admin   ids.ShortID
	tokenX  ids.ID
	tokenY  ids.ID
	pool    ids.ShortID
}

func units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e18))
}

// newTestEnv opens the registry and seeds one 100/100 token pool.
func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		vm: &testVM{
			bootstrapped: true,
			state:        state.New(memdb.New(), ids.GenerateTestID(), ids.GenerateTestShortID()),
			positions:    indexer.NewPositions(),
		},
		admin:  ids.GenerateTestShortID(),
		tokenX: ids.GenerateTestID(),
		tokenY: ids.GenerateTestID(),
	}
	env.service = NewService(env.vm)

	st := env.vm.state
	st.AddIndexer(env.vm.positions)
	_, err := st.Atomic(func(d *state.Diff) error {
		if err := d.Registry.Create(env.admin); err != nil {
			return err
		}
		for _, asset := range []ids.ID{st.NativeAssetID(), env.tokenX, env.tokenY} {
			if err := d.Assets.Mint(asset, env.admin, units(1_000)); err != nil {
				return err
			}
		}
		for _, asset := range []ids.ID{env.tokenX, env.tokenY} {
			if err := d.Assets.Approve(asset, env.admin, st.RegistryAddress(), units(100)); err != nil {
				return err
			}
		}
		admin := assets.Call{Caller: env.admin}
		if _, err := d.Registry.SetState(admin, registry.Open); err != nil {
			return err
		}
		added, err := d.Registry.AddTokenLiquidityPool(admin, env.tokenX, env.tokenY, 4, units(100), units(100))
		if err != nil {
			return err
		}
		env.pool = added.Pool
		return nil
	})
	require.NoError(t, err)
	return env
}

func TestPingStatus(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	ping := &PingReply{}
	require.NoError(env.service.Ping(nil, &PingArgs{}, ping))
	require.True(ping.Success)

	status := &StatusReply{}
	require.NoError(env.service.Status(nil, &StatusArgs{}, status))
	require.True(status.Bootstrapped)
	require.Equal(uint64(7), status.Height)
}

func TestIssueTx(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	reply := &IssueTxReply{}
	require.ErrorIs(env.service.IssueTx(nil, &IssueTxArgs{}, reply), ErrInvalidRequest)

	require.NoError(env.service.IssueTx(nil, &IssueTxArgs{Tx: []byte{1, 2}}, reply))
	require.Equal(ids.ID{1}, reply.TxID)
	require.Equal([][]byte{{1, 2}}, env.vm.issued)

	env.vm.bootstrapped = false
	require.ErrorIs(env.service.IssueTx(nil, &IssueTxArgs{Tx: []byte{3}}, reply), ErrNotBootstrapped)
}

func TestGetRegistryAndPools(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	reg := &GetRegistryReply{}
	require.NoError(env.service.GetRegistry(nil, &GetRegistryArgs{}, reg))
	require.Equal(env.vm.state.RegistryAddress(), reg.Address)
	require.Equal(env.admin, reg.Owner)
	require.Equal("open", reg.State)
	require.Equal(uint64(1), reg.PoolsCreated)

	pools := &ListPoolsReply{}
	require.NoError(env.service.ListPools(nil, &ListPoolsArgs{ActiveOnly: true}, pools))
	require.Equal([]PoolEntry{{Pool: env.pool, Kind: "token", Active: true}}, pools.Pools)

	pool := &GetPoolReply{}
	require.NoError(env.service.GetPool(nil, &PoolArgs{Pool: env.pool}, pool))
	require.Equal(env.vm.state.RegistryAddress(), pool.Owner)
	require.Equal(env.tokenX, pool.AssetX)
	require.Equal(uint16(4), pool.FeePerMille)
	require.True(pool.Initialized)
	require.True(pool.Active)
	require.Equal(hundred, pool.ReserveX)
	require.Equal(hundred, pool.ReserveY)
	require.Equal(hundred, pool.TotalShares)
	require.Equal("0", pool.FeesX)

	err := env.service.GetPool(nil, &PoolArgs{Pool: ids.GenerateTestShortID()}, pool)
	require.ErrorIs(err, liquidity.ErrUnknownPool)
}

func TestQuote(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	reply := &QuoteReply{}
	require.NoError(env.service.Quote(nil, &QuoteArgs{
		Pool:      env.pool,
		AmountIn:  "10000000000000000000",
		Direction: "x_to_y",
	}, reply))
	require.Equal("9057839214259730811", reply.AmountOut)

	err := env.service.Quote(nil, &QuoteArgs{Pool: env.pool, AmountIn: "1", Direction: "sideways"}, reply)
	require.ErrorIs(err, ErrInvalidRequest)
	err = env.service.Quote(nil, &QuoteArgs{Pool: env.pool, AmountIn: "-1", Direction: "y_to_x"}, reply)
	require.ErrorIs(err, ErrInvalidRequest)
}

func TestAccountViews(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	registryAddr := env.vm.state.RegistryAddress()

	liq := &GetLiquidityOfReply{}
	require.NoError(env.service.GetLiquidityOf(nil, &GetLiquidityOfArgs{Pool: env.pool, Provider: registryAddr}, liq))
	require.Equal(hundred, liq.Liquidity)
	require.Equal(hundred, liq.TotalShares)

	allowance := &GetAllowanceReply{}
	require.NoError(env.service.GetAllowance(nil, &GetAllowanceArgs{Pool: env.pool, Owner: env.admin, Spender: registryAddr}, allowance))
	require.False(allowance.Exists)
	require.Equal("0", allowance.Remaining)

	balance := &GetBalanceReply{}
	require.NoError(env.service.GetBalance(nil, &GetBalanceArgs{Asset: "native", Address: env.admin}, balance))
	require.Equal(env.vm.state.NativeAssetID(), balance.Asset)
	require.Equal(units(1_000).Dec(), balance.Balance)

	require.NoError(env.service.GetBalance(nil, &GetBalanceArgs{Asset: env.tokenX.String(), Address: env.admin}, balance))
	require.Equal(units(900).Dec(), balance.Balance)

	err := env.service.GetBalance(nil, &GetBalanceArgs{Asset: "not an id", Address: env.admin}, balance)
	require.ErrorIs(err, ErrInvalidRequest)
}

func TestGetPositions(t *testing.T) {
	require := require.New(t)

	env := newTestEnv(t)
	reply := &GetPositionsReply{}
	require.NoError(env.service.GetPositions(nil, &GetPositionsArgs{Provider: env.vm.state.RegistryAddress()}, reply))
	require.Len(reply.Positions, 1)
	require.Equal(env.pool, reply.Positions[0].Pool)
	require.Equal(hundred, reply.Positions[0].Liquidity)
	require.Equal(hundred, reply.Positions[0].DepositY)
	require.False(reply.Positions[0].Closed)

	env.vm.positions = nil
	require.ErrorIs(env.service.GetPositions(nil, &GetPositionsArgs{}, reply), ErrIndexDisabled)
}
