package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fd1az/swapdesk/business/swap"
	swapDI "github.com/fd1az/swapdesk/business/swap/di"
	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/business/swap/infra/reporter"
	"github.com/fd1az/swapdesk/pkg/ui"
)

var errQuit = errors.New("quit")

const replHelp = `commands:
  sell <qty>       edit the sell field
  buy <qty>        edit the buy field
  max              fill the sell field with the spendable balance
  reverse          swap the two tokens
  withdraw         toggle withdrawing from the exchange
  surplus          toggle keeping the output on the exchange
  slippage <pct>   set the slippage tolerance in percent
  refresh          reload balances
  show             print the current form
  quit             exit`

func newREPLCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Drive the swap form from the command line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd.Context(), *configPath, os.Stdin, cmd.OutOrStdout())
		},
	}
}

func runREPL(ctx context.Context, configPath string, in io.Reader, out io.Writer) error {
	console := reporter.NewConsole(out)
	rt, err := bootstrap(ctx, configPath, runtimeOptions{swap: &swap.Module{Reporter: console}})
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.start(ctx); err != nil {
		return err
	}
	ctrl := swapDI.GetConverter(rt.mono.Services())
	fmt.Fprintln(out, `type "help" for commands`)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := execLine(ctrl, line, out); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

// execLine runs one REPL command against the form.
func execLine(ctrl ui.Controller, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	arg := func() (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("%s takes one argument", cmd)
		}
		return args[0], nil
	}

	switch cmd {
	case "sell", "buy":
		qty, err := arg()
		if err != nil {
			return err
		}
		side := domain.SideA
		if cmd == "buy" {
			side = domain.SideB
		}
		ctrl.EditField(side, qty)
	case "max":
		ctrl.ClickMax()
	case "reverse", "r":
		ctrl.Reverse()
	case "withdraw":
		ctrl.ToggleWithdraw()
	case "surplus":
		ctrl.ToggleSurplus()
	case "slippage":
		raw, err := arg()
		if err != nil {
			return err
		}
		pct, err := decimal.NewFromString(strings.TrimSuffix(raw, "%"))
		if err != nil || pct.IsNegative() {
			return fmt.Errorf("invalid slippage %q", raw)
		}
		ctrl.SetSlippage(pct)
	case "refresh":
		ctrl.RefreshBalances()
	case "show":
		fmt.Fprintln(out, reporter.FormatSnapshot(ctrl.Snapshot()))
	case "help", "?":
		fmt.Fprintln(out, replHelp)
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
