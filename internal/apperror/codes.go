package apperror

// Code identifies a class of failure.
type Code string

// General codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"
	CodeCircuitOpen          Code = "CIRCUIT_OPEN"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Chain access
const (
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumSubscribeFailed  Code = "ETHEREUM_SUBSCRIBE_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
	CodeBlockFeedUnavailable     Code = "BLOCK_FEED_UNAVAILABLE"
)

// Pricing
const (
	CodeQuoteFailed           Code = "QUOTE_FAILED"
	CodeInvalidQuote          Code = "INVALID_QUOTE"
	CodePoolNotFound          Code = "POOL_NOT_FOUND"
	CodeUnknownToken          Code = "UNKNOWN_TOKEN"
	CodeTickerFetchFailed     Code = "TICKER_FETCH_FAILED"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
)

// Accounts and persistence
const (
	CodeWalletBalanceFailed   Code = "WALLET_BALANCE_FAILED"
	CodeExchangeBalanceFailed Code = "EXCHANGE_BALANCE_FAILED"
	CodePreferenceStoreError  Code = "PREFERENCE_STORE_ERROR"
	CodeNavigationFailed      Code = "NAVIGATION_FAILED"
)
