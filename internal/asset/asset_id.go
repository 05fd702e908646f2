// Package asset models on-chain tokens and their amounts. Raw amounts are
// big.Int in the smallest unit; decimal.Decimal appears only at the edges.
package asset

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID identifies an asset by chain and contract address. The zero
// address is the chain's native coin.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewNativeAssetID returns the ID of a chain's native coin.
func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{chainID: chainID}
}

// NewTokenAssetID returns the ID of an ERC20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("asset: token address cannot be zero, use NewNativeAssetID")
	}
	return AssetID{chainID: chainID, address: addr}
}

// NewAssetID accepts the zero address for native coins.
func NewAssetID(chainID uint64, addr common.Address) AssetID {
	return AssetID{chainID: chainID, address: addr}
}

func (id AssetID) ChainID() uint64 {
	return id.chainID
}

func (id AssetID) Address() common.Address {
	return id.address
}

func (id AssetID) IsNative() bool {
	return id.address == (common.Address{})
}

// Less orders IDs on the same chain by numeric address value.
func (id AssetID) Less(other AssetID) bool {
	if id.chainID != other.chainID {
		return id.chainID < other.chainID
	}
	return bytes.Compare(id.address.Bytes(), other.address.Bytes()) < 0
}

func (id AssetID) String() string {
	if id.IsNative() {
		return fmt.Sprintf("chain:%d/native", id.chainID)
	}
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}

func (id AssetID) Equals(other AssetID) bool {
	return id == other
}
