// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ammvm

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
	"github.com/luxfi/ids"
	"golang.org/x/crypto/sha3"
)

const blockCodecVersion = 0

var blockCodec codec.Manager

func init() {
	blockCodec = codec.NewManager(math.MaxInt)
	lc := linearcodec.NewDefault()
	if err := blockCodec.RegisterCodec(blockCodecVersion, lc); err != nil {
		panic(err)
	}
}

var errEmptyBlock = errors.New("block has no transactions")

// Block is an ordered batch of transactions on top of its parent.
type Block struct {
	ParentID  ids.ID   `serialize:"true" json:"parentID"`
	Height    uint64   `serialize:"true" json:"height"`
	Timestamp int64    `serialize:"true" json:"timestamp"`
	Txs       [][]byte `serialize:"true" json:"txs"`

	id    ids.ID
	bytes []byte
}

func NewBlock(parentID ids.ID, height uint64, timestamp time.Time, txs [][]byte) (*Block, error) {
	if len(txs) == 0 {
		return nil, errEmptyBlock
	}
	blk := &Block{
		ParentID:  parentID,
		Height:    height,
		Timestamp: timestamp.Unix(),
		Txs:       txs,
	}
	b, err := blockCodec.Marshal(blockCodecVersion, blk)
	if err != nil {
		return nil, fmt.Errorf("couldn't marshal block: %w", err)
	}
	blk.setBytes(b)
	return blk, nil
}

// ParseBlock deserializes a block and derives its ID.
func ParseBlock(b []byte) (*Block, error) {
	blk := &Block{}
	if _, err := blockCodec.Unmarshal(b, blk); err != nil {
		return nil, fmt.Errorf("couldn't parse block: %w", err)
	}
	if len(blk.Txs) == 0 {
		return nil, errEmptyBlock
	}
	blk.setBytes(b)
	return blk, nil
}

func (b *Block) setBytes(bytes []byte) {
	b.bytes = bytes
	b.id = sha3.Sum256(bytes)
}

func (b *Block) ID() ids.ID {
	return b.id
}

func (b *Block) Bytes() []byte {
	return b.bytes
}

func (b *Block) Time() time.Time {
	return time.Unix(b.Timestamp, 0)
}
