// Package graphcache reads exchange deposit balances from the graphcache indexer.
package graphcache

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/swapdesk/business/account/app"
	"github.com/fd1az/swapdesk/business/account/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
	"github.com/fd1az/swapdesk/internal/httpclient"
	"github.com/fd1az/swapdesk/internal/logger"
	"github.com/fd1az/swapdesk/internal/ratelimit"
)

const userBalanceEndpoint = "/user_balance_tokens"

var _ app.ExchangeReader = (*Client)(nil)

// Config holds the indexer endpoint.
type Config struct {
	URL               string
	RequestsPerMinute int
	Timeout           time.Duration
}

// Client implements app.ExchangeReader.
type Client struct {
	http    httpclient.Client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
}

// NewClient creates a graphcache client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.URL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("graphcache url is empty"))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	hc, err := httpclient.New(
		httpclient.WithProviderName("graphcache"),
		httpclient.WithBaseURL(cfg.URL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithHeaders(map[string]string{"Accept": "application/json"}),
		httpclient.WithResponseErrorHandler(func(status int, body []byte) error {
			if status >= 400 {
				return fmt.Errorf("graphcache: HTTP %d: %s", status, body)
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &Client{
		http:    hc,
		limiter: ratelimit.New(cfg.RequestsPerMinute),
		logger:  log,
	}, nil
}

type balanceRow struct {
	Token    string `json:"token"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Balance  string `json:"balance"`
}

type balanceResponse struct {
	Data []balanceRow `json:"data"`
}

// Deposits lists owner's exchange deposits on chainID. Rows with an
// unparsable token or balance are skipped.
func (c *Client) Deposits(ctx context.Context, owner common.Address, chainID uint64) ([]domain.Deposit, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp balanceResponse
	_, err := c.http.NewRequest().
		SetQueryParam("user", owner.Hex()).
		SetQueryParam("chainId", "0x"+strconv.FormatUint(chainID, 16)).
		SetResult(&resp).
		Get(ctx, userBalanceEndpoint)
	if err != nil {
		return nil, apperror.External(apperror.CodeExchangeBalanceFailed, owner.Hex(), err)
	}

	deposits := make([]domain.Deposit, 0, len(resp.Data))
	for _, row := range resp.Data {
		if !common.IsHexAddress(row.Token) {
			c.logger.Warn(ctx, "skipping deposit row", "token", row.Token)
			continue
		}
		bal, ok := new(big.Int).SetString(row.Balance, 0)
		if !ok || bal.Sign() < 0 {
			c.logger.Warn(ctx, "skipping deposit row", "token", row.Token, "balance", row.Balance)
			continue
		}
		deposits = append(deposits, domain.Deposit{
			Token:    common.HexToAddress(row.Token),
			Symbol:   row.Symbol,
			Decimals: row.Decimals,
			Balance:  bal,
		})
	}
	return deposits, nil
}
