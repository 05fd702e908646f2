package apperror

var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeInvalidState:       "Invalid state for this operation",
	CodeNotFound:           "Resource not found",
	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",
	CodeCircuitOpen:          "Circuit breaker is open",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumSubscribeFailed:  "Failed to subscribe to new heads",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeGasEstimationFailed:      "Gas price lookup failed",
	CodeBlockFeedUnavailable:     "No block feed available",

	CodeQuoteFailed:           "Failed to quote swap",
	CodeInvalidQuote:          "Quoter returned malformed data",
	CodePoolNotFound:          "Pool not initialized",
	CodeUnknownToken:          "Token not registered",
	CodeTickerFetchFailed:     "Failed to fetch ticker price",
	CodeInsufficientLiquidity: "Insufficient liquidity for amount",

	CodeWalletBalanceFailed:   "Failed to read wallet balance",
	CodeExchangeBalanceFailed: "Failed to read exchange balance",
	CodePreferenceStoreError:  "Preference store error",
	CodeNavigationFailed:      "Failed to update route",
}
