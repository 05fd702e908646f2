package uniswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Fee tiers in hundredths of a bip.
const (
	FeeTier001 = 100
	FeeTier005 = 500
	FeeTier030 = 3000
	FeeTier100 = 10000
)

// DefaultFeeTiers are probed when none are configured.
var DefaultFeeTiers = []int{FeeTier005, FeeTier030, FeeTier100, FeeTier001}

// QuoterV2ABI covers the two single-pool quote methods.
const QuoterV2ABI = `[
	{
		"inputs": [{
			"components": [
				{"internalType": "address", "name": "tokenIn", "type": "address"},
				{"internalType": "address", "name": "tokenOut", "type": "address"},
				{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
				{"internalType": "uint24", "name": "fee", "type": "uint24"},
				{"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
			],
			"internalType": "struct IQuoterV2.QuoteExactInputSingleParams",
			"name": "params",
			"type": "tuple"
		}],
		"name": "quoteExactInputSingle",
		"outputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "uint160", "name": "sqrtPriceX96After", "type": "uint160"},
			{"internalType": "uint32", "name": "initializedTicksCrossed", "type": "uint32"},
			{"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{
			"components": [
				{"internalType": "address", "name": "tokenIn", "type": "address"},
				{"internalType": "address", "name": "tokenOut", "type": "address"},
				{"internalType": "uint256", "name": "amount", "type": "uint256"},
				{"internalType": "uint24", "name": "fee", "type": "uint24"},
				{"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
			],
			"internalType": "struct IQuoterV2.QuoteExactOutputSingleParams",
			"name": "params",
			"type": "tuple"
		}],
		"name": "quoteExactOutputSingle",
		"outputs": [
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint160", "name": "sqrtPriceX96After", "type": "uint160"},
			{"internalType": "uint32", "name": "initializedTicksCrossed", "type": "uint32"},
			{"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// FactoryABI is the pool lookup of the V3 factory.
const FactoryABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "tokenA", "type": "address"},
			{"internalType": "address", "name": "tokenB", "type": "address"},
			{"internalType": "uint24", "name": "fee", "type": "uint24"}
		],
		"name": "getPool",
		"outputs": [{"internalType": "address", "name": "pool", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// PoolABI exposes slot0, which carries the current sqrt price.
const PoolABI = `[
	{
		"inputs": [],
		"name": "slot0",
		"outputs": [
			{"internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
			{"internalType": "int24", "name": "tick", "type": "int24"},
			{"internalType": "uint16", "name": "observationIndex", "type": "uint16"},
			{"internalType": "uint16", "name": "observationCardinality", "type": "uint16"},
			{"internalType": "uint16", "name": "observationCardinalityNext", "type": "uint16"},
			{"internalType": "uint8", "name": "feeProtocol", "type": "uint8"},
			{"internalType": "bool", "name": "unlocked", "type": "bool"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// QuoteExactInputSingleParams is the tuple argument of quoteExactInputSingle.
type QuoteExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int // uint24
	SqrtPriceLimitX96 *big.Int // 0 for no limit
}

// QuoteExactOutputSingleParams is the tuple argument of quoteExactOutputSingle.
type QuoteExactOutputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Amount            *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// tierQuote is one fee tier's answer; Amount is amountOut for exact input
// and amountIn for exact output.
type tierQuote struct {
	Amount            *big.Int
	SqrtPriceX96After *big.Int
	GasEstimate       *big.Int
	FeeTier           int
	Pool              common.Address
}
