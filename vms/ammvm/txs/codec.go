// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"errors"
	"math"

	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
)

const CodecVersion = 0

var Codec codec.Manager

func init() {
	Codec = codec.NewManager(math.MaxInt)
	lc := linearcodec.NewDefault()

	// Registration order fixes the type IDs on the wire. Append only.
	err := errors.Join(
		// Registry administration
		lc.RegisterType(&SetStateTx{}),
		lc.RegisterType(&TransferOwnershipTx{}),
		lc.RegisterType(&AddNativePoolTx{}),
		lc.RegisterType(&AddTokenPoolTx{}),
		lc.RegisterType(&RemovePoolTx{}),
		lc.RegisterType(&ActivatePoolTx{}),
		lc.RegisterType(&SwapAtTx{}),

		// Pools
		lc.RegisterType(&ProvideLiquidityTx{}),
		lc.RegisterType(&WithdrawLiquidityTx{}),
		lc.RegisterType(&SwapTx{}),
		lc.RegisterType(&ApproveTx{}),
		lc.RegisterType(&SwapFromTx{}),

		// Asset ledger
		lc.RegisterType(&TransferTx{}),
		lc.RegisterType(&ApproveAssetTx{}),

		Codec.RegisterCodec(CodecVersion, lc),
	)
	if err != nil {
		panic(err)
	}
}
