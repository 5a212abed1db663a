// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ammvm implements a constant-product automated market maker VM.
//
// The VM hosts an asset ledger, a set of liquidity pools and the registry
// that creates and curates them:
//   - Native pools pair the chain's native asset with a token
//   - Token pools pair two tokens
//   - Delegated swaps spend an owner's funds against a per-pool allowance
package ammvm

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/amm/vms/ammvm/config"
)

// VMID is the unique identifier for the AMM VM
var VMID = ids.ID{'a', 'm', 'm', 'v', 'm'}

// Factory creates new AMM VM instances.
type Factory struct {
	config.Config
}

// New creates a VM with the factory's configuration.
func (f *Factory) New(logger log.Logger) (*VM, error) {
	return New(f.Config, logger), nil
}
