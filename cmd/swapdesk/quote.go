package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	blockchainDI "github.com/fd1az/swapdesk/business/blockchain/di"
	pricingDI "github.com/fd1az/swapdesk/business/pricing/di"
	pricingDomain "github.com/fd1az/swapdesk/business/pricing/domain"
	"github.com/fd1az/swapdesk/business/swap/app"
	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/internal/apperror"
)

type quoteFlags struct {
	buy    bool
	tokenA string
	tokenB string
}

func newQuoteCmd(configPath *string) *cobra.Command {
	var flags quoteFlags

	cmd := &cobra.Command{
		Use:   "quote <qty>",
		Short: "Quote one swap and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd.Context(), *configPath, args[0], flags, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&flags.buy, "buy", false, "treat qty as the amount to buy")
	cmd.Flags().StringVar(&flags.tokenA, "sell-token", "", "token to sell, symbol or address")
	cmd.Flags().StringVar(&flags.tokenB, "buy-token", "", "token to buy, symbol or address")
	return cmd
}

func runQuote(ctx context.Context, configPath, raw string, flags quoteFlags, out io.Writer) error {
	qty, ok := domain.ParseQuantity(domain.NormalizeInput(raw))
	if !ok || !qty.IsPositive() {
		return apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("quantity %q", raw))
	}

	rt, err := bootstrap(ctx, configPath, runtimeOptions{quoteOnly: true})
	if err != nil {
		return err
	}
	defer rt.close()
	if err := rt.mono.StartModules(ctx, rt.modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	cfg := rt.cfg
	req := app.PairRequest{ChainID: cfg.Ethereum.ChainID, TokenA: cfg.Swap.TokenA, TokenB: cfg.Swap.TokenB}
	if flags.tokenA != "" || flags.tokenB != "" {
		req.TokenA, req.TokenB = flags.tokenA, flags.tokenB
	}
	pair, _, err := app.ResolvePair(ctx, rt.mono.AssetRegistry(), req, nil)
	if err != nil {
		return err
	}

	slippage := domain.DefaultSlippagePct(pair, cfg.Swap.StableSlippageDecimal(), cfg.Swap.VolatileSlippageDecimal())
	pricing := pricingDI.GetPricingService(rt.mono.Services())

	qctx := ctx
	if cfg.Swap.QuoteTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, cfg.Swap.QuoteTimeout)
		defer cancel()
	}
	impact, err := pricing.CalcImpact(qctx, pricingDomain.ImpactRequest{
		SellToken:        pair.TokenA,
		BuyToken:         pair.TokenB,
		Amount:           qty,
		IsSellAmount:     !flags.buy,
		SlippageFraction: domain.SlippageFraction(slippage),
	})
	if err != nil {
		return err
	}
	if impact == nil {
		fmt.Fprintf(out, "%s: %s\n", pair, domain.ReasonLiquidityInsufficient)
		return nil
	}

	sellSym, buySym := pair.TokenA.Symbol(), pair.TokenB.Symbol()
	fmt.Fprintf(out, "pair           %s\n", pair)
	fmt.Fprintf(out, "sell           %s %s\n", domain.FormatQuantity(impact.SellQty), sellSym)
	fmt.Fprintf(out, "buy            %s %s\n", domain.FormatQuantity(impact.BuyQty), buySym)
	fmt.Fprintf(out, "price impact   %s%%\n", impact.PercentChange.StringFixed(2))
	if flags.buy {
		fmt.Fprintf(out, "maximum sold   %s %s\n", domain.FormatQuantity(impact.LimitQty), sellSym)
	} else {
		fmt.Fprintf(out, "min received   %s %s\n", domain.FormatQuantity(impact.LimitQty), buySym)
	}
	fmt.Fprintf(out, "slippage       %s%%\n", slippage)
	if impact.FeeTier > 0 {
		fmt.Fprintf(out, "pool fee       %.2f%%\n", float64(impact.FeeTier)/10000)
	}

	gas, err := blockchainDI.GetBlockchainService(rt.mono.Services()).GasPrice(ctx)
	if err != nil {
		rt.log.Warn(ctx, "gas price unavailable", "error", err)
		return nil
	}
	usd, err := pricing.NetworkFee(ctx, gas.Wei)
	if err != nil {
		rt.log.Warn(ctx, "network fee unavailable", "error", err)
		return nil
	}
	fmt.Fprintf(out, "network fee    %s (%s gwei)\n", pricingDomain.FormatUSD(usd), gas.Gwei().StringFixed(1))
	return nil
}
