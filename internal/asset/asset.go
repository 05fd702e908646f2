package asset

import "github.com/ethereum/go-ethereum/common"

// Asset is token metadata. Identity is the AssetID; the symbol is display only.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
	stable   bool
}

// NewAsset creates an asset. It panics on programmer errors.
func NewAsset(id AssetID, symbol string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 36 {
		panic("asset: suspicious decimals (>36)")
	}
	return &Asset{id: id, symbol: symbol, decimals: decimals}
}

// NewAssetWithName creates an asset with a display name.
func NewAssetWithName(id AssetID, symbol, name string, decimals uint8) *Asset {
	a := NewAsset(id, symbol, decimals)
	a.name = name
	return a
}

// AsStable marks the asset as a stablecoin and returns it.
func (a *Asset) AsStable() *Asset {
	a.stable = true
	return a
}

func (a *Asset) ID() AssetID { return a.id }

func (a *Asset) Symbol() string { return a.symbol }

func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

func (a *Asset) Decimals() uint8 { return a.decimals }

func (a *Asset) ChainID() uint64 { return a.id.ChainID() }

func (a *Asset) Address() common.Address { return a.id.Address() }

func (a *Asset) IsNative() bool { return a.id.IsNative() }

// IsStable reports whether the asset is pegged to a fiat currency.
func (a *Asset) IsStable() bool { return a.stable }

func (a *Asset) String() string { return a.symbol }

// Equals compares by ID.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}
