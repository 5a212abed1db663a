// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package reserve implements the fixed-point accounting shared by every
// liquidity pool: swap pricing with a fee on input, share issuance and share
// redemption. All functions are pure; results are freshly allocated.
//
// Every division floors, which always rounds in the pool's favour.
package reserve

import (
	"errors"

	"github.com/holiman/uint256"
)

// FeeDenominator is the unit of the fee: fees are expressed per mille.
const FeeDenominator = 1000

var (
	ErrInvalidFee  = errors.New("fee per mille must be below 1000")
	ErrZeroReserve = errors.New("zero reserve")
	ErrZeroSupply  = errors.New("zero share supply")
	ErrOverflow    = errors.New("overflow")

	feeDenominator = uint256.NewInt(FeeDenominator)
)

// ValidateFee returns ErrInvalidFee unless feePerMille is in [0, 1000).
func ValidateFee(feePerMille uint16) error {
	if feePerMille >= FeeDenominator {
		return ErrInvalidFee
	}
	return nil
}

// NetInput returns amountIn * (1000 - feePerMille) / 1000.
func NetInput(amountIn *uint256.Int, feePerMille uint16) (*uint256.Int, error) {
	if err := ValidateFee(feePerMille); err != nil {
		return nil, err
	}
	keep := uint256.NewInt(uint64(FeeDenominator - feePerMille))
	return mulDiv(amountIn, keep, feeDenominator)
}

// AmountOut prices a swap of amountIn against the given reserves.
//
//	net       = amountIn * (1000 - feePerMille) / 1000
//	amountOut = reserveOut * net / (reserveIn + net)
//
// amountOut is always strictly below reserveOut and the post-trade product
// (reserveIn+net)*(reserveOut-amountOut) never drops below
// reserveIn*reserveOut.
func AmountOut(amountIn, reserveIn, reserveOut *uint256.Int, feePerMille uint16) (amountOut, net *uint256.Int, err error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, nil, ErrZeroReserve
	}
	net, err = NetInput(amountIn, feePerMille)
	if err != nil {
		return nil, nil, err
	}
	denominator, overflow := new(uint256.Int).AddOverflow(reserveIn, net)
	if overflow {
		return nil, nil, ErrOverflow
	}
	amountOut, err = mulDiv(reserveOut, net, denominator)
	if err != nil {
		return nil, nil, err
	}
	return amountOut, net, nil
}

// Counterpart returns the amount of the other asset matching a deposit of
// amountX at the current ratio: amountX * reserveOther / reserveX.
func Counterpart(amountX, reserveX, reserveOther *uint256.Int) (*uint256.Int, error) {
	if reserveX.IsZero() {
		return nil, ErrZeroReserve
	}
	return mulDiv(amountX, reserveOther, reserveX)
}

// SharesFor returns the shares minted for a deposit of amountX of the
// reference asset: amountX * totalShares / reserveX.
func SharesFor(amountX, totalShares, reserveX *uint256.Int) (*uint256.Int, error) {
	if reserveX.IsZero() {
		return nil, ErrZeroReserve
	}
	return mulDiv(amountX, totalShares, reserveX)
}

// Redeem returns the reserves owed for burning shares out of totalShares.
func Redeem(shares, reserveX, reserveY, totalShares *uint256.Int) (eligibleX, eligibleY *uint256.Int, err error) {
	if totalShares.IsZero() {
		return nil, nil, ErrZeroSupply
	}
	eligibleX, err = mulDiv(shares, reserveX, totalShares)
	if err != nil {
		return nil, nil, err
	}
	eligibleY, err = mulDiv(shares, reserveY, totalShares)
	if err != nil {
		return nil, nil, err
	}
	return eligibleX, eligibleY, nil
}

// mulDiv returns floor(x*y/d) using a 512-bit intermediate product.
func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrZeroReserve
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}
