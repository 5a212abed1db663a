// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package txs defines transaction types for the AMM VM.
package txs

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"golang.org/x/crypto/sha3"
)

var (
	ErrNilTx         = errors.New("tx is nil")
	ErrEmptySender   = errors.New("tx has no sender")
	ErrInvalidTxType = errors.New("invalid transaction type")
)

// UnsignedTx is the operation a transaction performs.
type UnsignedTx interface {
	// SyntacticVerify checks the operation without reading any state.
	SyntacticVerify() error
	// Visit calls visitor with this transaction's concrete type.
	Visit(visitor Visitor) error
}

// Tx is an operation together with the account issuing it and the native
// value attached to it. Authenticating Sender is the host chain's concern.
type Tx struct {
	Sender   ids.ShortID `serialize:"true" json:"sender"`
	Value    uint256.Int `serialize:"true" json:"value"`
	Unsigned UnsignedTx  `serialize:"true" json:"unsignedTx"`

	id    ids.ID
	bytes []byte
}

// Initialize serializes the transaction and derives its ID.
func (tx *Tx) Initialize() error {
	b, err := Codec.Marshal(CodecVersion, tx)
	if err != nil {
		return fmt.Errorf("couldn't marshal tx: %w", err)
	}
	tx.setBytes(b)
	return nil
}

func (tx *Tx) setBytes(b []byte) {
	tx.bytes = b
	tx.id = sha3.Sum256(b)
}

func (tx *Tx) ID() ids.ID {
	return tx.id
}

func (tx *Tx) Bytes() []byte {
	return tx.bytes
}

// AttachedValue returns the attached native value, nil when none.
func (tx *Tx) AttachedValue() *uint256.Int {
	if tx.Value.IsZero() {
		return nil
	}
	return tx.Value.Clone()
}

func (tx *Tx) SyntacticVerify() error {
	switch {
	case tx == nil:
		return ErrNilTx
	case tx.Unsigned == nil:
		return ErrInvalidTxType
	case tx.Sender == ids.ShortEmpty:
		return ErrEmptySender
	}
	return tx.Unsigned.SyntacticVerify()
}

// Parse deserializes a transaction and derives its ID.
func Parse(b []byte) (*Tx, error) {
	tx := &Tx{}
	if _, err := Codec.Unmarshal(b, tx); err != nil {
		return nil, fmt.Errorf("couldn't parse tx: %w", err)
	}
	tx.setBytes(b)
	return tx, nil
}
