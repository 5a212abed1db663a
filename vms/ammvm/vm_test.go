// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ammvm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/luxfi/amm/vms/ammvm/config"
	"github.com/luxfi/amm/vms/ammvm/liquidity"
	"github.com/luxfi/amm/vms/ammvm/registry"
	"github.com/luxfi/amm/vms/ammvm/state"
	"github.com/luxfi/amm/vms/ammvm/txs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testChain struct {
	native   ids.ID
	tokenX   ids.ID
	tokenY   ids.ID
	registry ids.ShortID
	owner    ids.ShortID
	trader   ids.ShortID
}

func newTestChain() *testChain {
	return &testChain{
		native:   ids.GenerateTestID(),
		tokenX:   ids.GenerateTestID(),
		tokenY:   ids.GenerateTestID(),
		registry: ids.GenerateTestShortID(),
		owner:    ids.GenerateTestShortID(),
		trader:   ids.GenerateTestShortID(),
	}
}

func units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e18))
}

// genesis allocates 1000 of every asset to the owner and 10 to the trader,
// then seeds a 100/100 token pool and a 100/100 native pool.
func (c *testChain) genesis() genesisFile {
	const thousand, ten, hundred = "1000000000000000000000", "10000000000000000000", "100000000000000000000"
	f := genesisFile{
		NativeAsset: c.native.String(),
		Registry:    c.registry.String(),
		Owner:       c.owner.String(),
		State:       "open",
		Pools: []poolFile{
			{AssetX: c.tokenX.String(), AssetY: c.tokenY.String(), FeePerMille: 4, DepositX: hundred, DepositY: hundred},
			{AssetX: nativeAlias, AssetY: c.tokenY.String(), FeePerMille: 4, DepositX: hundred, DepositY: hundred},
		},
	}
	for _, asset := range []string{nativeAlias, c.tokenX.String(), c.tokenY.String()} {
		f.Allocations = append(f.Allocations,
			allocationFile{Address: c.owner.String(), Asset: asset, Amount: thousand},
			allocationFile{Address: c.trader.String(), Asset: asset, Amount: ten},
		)
	}
	return f
}

func (c *testChain) genesisBytes(t *testing.T) []byte {
	b, err := json.Marshal(c.genesis())
	require.NoError(t, err)
	return b
}

func newTestVM(t *testing.T, c *testChain, db database.Database, configBytes []byte) *VM {
	require := require.New(t)

	vm := New(config.DefaultConfig(), log.NoLog{})
	require.NoError(vm.Initialize(context.Background(), db, c.genesisBytes(t), configBytes, prometheus.NewRegistry()))
	require.NoError(vm.SetState(context.Background(), Ready))
	return vm
}

func balance(t *testing.T, vm *VM, asset ids.ID, who ids.ShortID) *uint256.Int {
	var b *uint256.Int
	require.NoError(t, vm.State().Read(func(d *state.Diff) error {
		var err error
		b, err = d.Assets.BalanceOf(asset, who)
		return err
	}))
	return b
}

func poolOf(t *testing.T, vm *VM, kind liquidity.Kind) ids.ShortID {
	var pool ids.ShortID
	require.NoError(t, vm.State().Read(func(d *state.Diff) error {
		entries, err := d.Registry.Entries()
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Kind == kind {
				pool = e.Pool
			}
		}
		return nil
	}))
	require.NotEqual(t, ids.ShortEmpty, pool)
	return pool
}

func signedTx(t *testing.T, sender ids.ShortID, unsigned txs.UnsignedTx) []byte {
	tx := &txs.Tx{Sender: sender, Unsigned: unsigned}
	require.NoError(t, tx.Initialize())
	return tx.Bytes()
}

func TestInitializeGenesis(t *testing.T) {
	require := require.New(t)

	c := newTestChain()
	vm := newTestVM(t, c, memdb.New(), nil)

	require.NoError(vm.State().Read(func(d *state.Diff) error {
		rec, err := d.Registry.Record()
		require.NoError(err)
		require.Equal(c.owner, rec.Owner)
		require.Equal(registry.Open, rec.State)
		require.Equal(uint64(2), rec.Nonce)
		return nil
	}))
	require.Equal(units(900), balance(t, vm, c.native, c.owner))
	require.Equal(units(900), balance(t, vm, c.tokenX, c.owner))
	require.Equal(units(800), balance(t, vm, c.tokenY, c.owner))
	require.Equal(units(10), balance(t, vm, c.tokenX, c.trader))

	// The registry holds the initial shares of both pools.
	require.Len(vm.Positions().ByProvider(c.registry), 2)

	lastAccepted, height := vm.LastAccepted()
	require.Equal(ids.Empty, lastAccepted)
	require.Zero(height)

	health, err := vm.HealthCheck(context.Background())
	require.NoError(err)
	require.Equal(true, health.(map[string]interface{})["healthy"])

	version, err := vm.Version(context.Background())
	require.NoError(err)
	require.Equal(Version.String(), version)

	require.NoError(vm.Shutdown(context.Background()))
	require.NoError(vm.Shutdown(context.Background()))
}

func TestRestartKeepsState(t *testing.T) {
	require := require.New(t)

	c := newTestChain()
	db := memdb.New()
	first := newTestVM(t, c, db, nil)
	require.Equal(units(900), balance(t, first, c.tokenX, c.owner))

	second := newTestVM(t, c, db, nil)
	require.Equal(units(900), balance(t, second, c.tokenX, c.owner))
	require.Equal(units(10), balance(t, second, c.tokenX, c.trader))
}

func TestRestartKeepsPositions(t *testing.T) {
	require := require.New(t)

	c := newTestChain()
	db := memdb.New()
	first := newTestVM(t, c, db, nil)
	pool := poolOf(t, first, liquidity.Token)

	for _, unsigned := range []txs.UnsignedTx{
		&txs.ApproveAssetTx{Asset: c.tokenX, Spender: pool, Amount: *units(5)},
		&txs.ApproveAssetTx{Asset: c.tokenY, Spender: pool, Amount: *units(5)},
		&txs.ProvideLiquidityTx{Pool: pool, AmountX: *units(5)},
	} {
		_, err := first.IssueTx(signedTx(t, c.trader, unsigned))
		require.NoError(err)
	}
	blk, err := first.BuildBlock(context.Background())
	require.NoError(err)
	result, err := first.AcceptBlock(context.Background(), blk)
	require.NoError(err)
	for _, r := range result.Txs {
		require.NoError(r.Err)
	}

	expected, ok := first.Positions().Get(c.trader, pool)
	require.True(ok)
	require.Equal(units(5), &expected.Liquidity)
	require.Equal(units(5), &expected.DepositY)

	second := newTestVM(t, c, db, nil)
	restored, ok := second.Positions().Get(c.trader, pool)
	require.True(ok)
	require.Equal(expected, restored)
	require.Len(second.Positions().ByProvider(c.registry), 2)
	require.Equal(first.Positions().Len(), second.Positions().Len())
}

func TestIssueBuildAccept(t *testing.T) {
	require := require.New(t)

	c := newTestChain()
	vm := newTestVM(t, c, memdb.New(), nil)
	pool := poolOf(t, vm, liquidity.Token)

	unlimited := new(uint256.Int).SetAllOne()
	txIDs := make([]ids.ID, 0, 3)
	for _, unsigned := range []txs.UnsignedTx{
		&txs.ApproveAssetTx{Asset: c.tokenX, Spender: pool, Amount: *unlimited},
		&txs.SwapTx{Pool: pool, AmountIn: *units(10), Direction: liquidity.XToY},
		// Nothing left to swap.
		&txs.SwapTx{Pool: pool, AmountIn: *units(1), Direction: liquidity.XToY},
	} {
		txID, err := vm.IssueTx(signedTx(t, c.trader, unsigned))
		require.NoError(err)
		txIDs = append(txIDs, txID)
	}
	require.Equal(3, vm.MempoolSize())

	blk, err := vm.BuildBlock(context.Background())
	require.NoError(err)
	require.Equal(ids.Empty, blk.ParentID)
	require.Equal(uint64(1), blk.Height)
	require.Len(blk.Txs, 3)

	parsed, err := ParseBlock(blk.Bytes())
	require.NoError(err)
	require.Equal(blk.ID(), parsed.ID())

	result, err := vm.AcceptBlock(context.Background(), parsed)
	require.NoError(err)
	require.Equal(blk.ID(), result.BlockID)
	require.Len(result.Txs, 3)
	for i, r := range result.Txs {
		require.Equal(txIDs[i], r.TxID)
	}
	require.NoError(result.Txs[0].Err)
	require.NoError(result.Txs[1].Err)
	require.Len(result.Txs[1].Events, 1)
	require.ErrorIs(result.Txs[2].Err, liquidity.ErrTransferFailed)

	require.True(balance(t, vm, c.tokenX, c.trader).IsZero())
	require.Equal(new(uint256.Int).Add(units(10), uint256.MustFromDecimal("9057839214259730811")), balance(t, vm, c.tokenY, c.trader))

	lastAccepted, height := vm.LastAccepted()
	require.Equal(blk.ID(), lastAccepted)
	require.Equal(uint64(1), height)
	require.Zero(vm.MempoolSize())

	_, err = vm.BuildBlock(context.Background())
	require.ErrorIs(err, ErrNoPendingTxs)

	// A replay of the accepted block no longer extends the chain.
	_, err = vm.AcceptBlock(context.Background(), parsed)
	require.ErrorIs(err, errWrongParent)
}

func TestAcceptBlockChecksHeight(t *testing.T) {
	c := newTestChain()
	vm := newTestVM(t, c, memdb.New(), nil)

	blk, err := NewBlock(ids.Empty, 2, time.Now(), [][]byte{{0}})
	require.NoError(t, err)
	_, err = vm.AcceptBlock(context.Background(), blk)
	require.ErrorIs(t, err, errWrongHeight)
}

func TestBuildBlockLimits(t *testing.T) {
	require := require.New(t)

	c := newTestChain()
	vm := newTestVM(t, c, memdb.New(), []byte(`{"max-txs-per-block":2,"mempool-size":3}`))

	for i := uint64(1); i <= 3; i++ {
		_, err := vm.IssueTx(signedTx(t, c.trader, &txs.TransferTx{
			Asset:  c.tokenX,
			To:     c.owner,
			Amount: *uint256.NewInt(i),
		}))
		require.NoError(err)
	}
	_, err := vm.IssueTx(signedTx(t, c.trader, &txs.TransferTx{Asset: c.tokenX, To: c.owner, Amount: *uint256.NewInt(4)}))
	require.ErrorIs(err, errMempoolFull)

	blk, err := vm.BuildBlock(context.Background())
	require.NoError(err)
	require.Len(blk.Txs, 2)
	_, err = vm.AcceptBlock(context.Background(), blk)
	require.NoError(err)
	require.Equal(1, vm.MempoolSize())

	blk, err = vm.BuildBlock(context.Background())
	require.NoError(err)
	require.Len(blk.Txs, 1)
	require.Equal(uint64(2), blk.Height)
}

func TestIssueTxErrors(t *testing.T) {
	require := require.New(t)

	c := newTestChain()
	vm := newTestVM(t, c, memdb.New(), []byte(`{"max-tx-size":256}`))

	b := signedTx(t, c.trader, &txs.TransferTx{Asset: c.tokenX, To: c.owner, Amount: *uint256.NewInt(1)})
	_, err := vm.IssueTx(b)
	require.NoError(err)
	_, err = vm.IssueTx(b)
	require.ErrorIs(err, errDuplicateTx)

	_, err = vm.IssueTx(make([]byte, 257))
	require.ErrorIs(err, errTxTooLarge)

	_, err = vm.IssueTx([]byte{0, 0, 0xff})
	require.Error(err)

	_, err = vm.IssueTx(signedTx(t, c.trader, &txs.SwapTx{Direction: 4}))
	require.ErrorIs(err, liquidity.ErrInvalidDirection)

	require.NoError(vm.Shutdown(context.Background()))
	_, err = vm.IssueTx(b)
	require.ErrorIs(err, errShutdown)
}

func TestSetState(t *testing.T) {
	require := require.New(t)

	c := newTestChain()
	vm := newTestVM(t, c, memdb.New(), nil)
	require.True(vm.IsBootstrapped())

	require.NoError(vm.SetState(context.Background(), Bootstrapping))
	require.False(vm.IsBootstrapped())
	_, err := vm.IssueTx(signedTx(t, c.trader, &txs.TransferTx{Asset: c.tokenX, To: c.owner}))
	require.NoError(err)
	_, err = vm.BuildBlock(context.Background())
	require.ErrorIs(err, errNotBootstrapped)

	require.ErrorIs(vm.SetState(context.Background(), State(9)), errUnknownState)
}

func TestInitializeErrors(t *testing.T) {
	c := newTestChain()
	tests := []struct {
		name    string
		genesis []byte
		config  []byte
	}{
		{
			name:    "malformed genesis",
			genesis: []byte("{"),
		},
		{
			name:    "invalid config",
			genesis: c.genesisBytes(t),
			config:  []byte(`{"max-txs-per-block":0}`),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			vm := New(config.DefaultConfig(), log.NoLog{})
			err := vm.Initialize(context.Background(), memdb.New(), test.genesis, test.config, prometheus.NewRegistry())
			require.Error(t, err)
		})
	}
}

func TestHandlers(t *testing.T) {
	require := require.New(t)

	c := newTestChain()
	vm := newTestVM(t, c, memdb.New(), nil)
	handlers, err := vm.CreateHandlers(context.Background())
	require.NoError(err)
	handler, ok := handlers[""]
	require.True(ok)

	body := []byte(`{"jsonrpc":"2.0","method":"amm.GetRegistry","params":{},"id":1}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Result struct {
			Owner        ids.ShortID `json:"owner"`
			State        string      `json:"state"`
			PoolsCreated uint64      `json:"poolsCreated"`
		} `json:"result"`
	}
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(c.owner, resp.Result.Owner)
	require.Equal("open", resp.Result.State)
	require.Equal(uint64(2), resp.Result.PoolsCreated)
}
