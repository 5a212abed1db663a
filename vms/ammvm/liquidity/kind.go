// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package liquidity

import "fmt"

// Kind is the immutable variant of a pool.
type Kind uint8

const (
	// Native pairs the chain's native asset (X) with one fungible token (Y).
	Native Kind = iota
	// Token pairs two fungible tokens.
	Token
)

func (k Kind) String() string {
	switch k {
	case Native:
		return "native"
	case Token:
		return "token"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

func (k Kind) Valid() bool {
	return k <= Token
}

// Direction is the side a swap takes its input from.
type Direction uint8

const (
	XToY Direction = iota
	YToX
)

func (d Direction) String() string {
	switch d {
	case XToY:
		return "x_to_y"
	case YToX:
		return "y_to_x"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

func (d Direction) Valid() bool {
	return d <= YToX
}
