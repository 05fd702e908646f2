package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	swapDI "github.com/fd1az/swapdesk/business/swap/di"
	"github.com/fd1az/swapdesk/internal/logger"
	"github.com/fd1az/swapdesk/pkg/ui"
)

// uiLogHook surfaces warnings and errors in the TUI log panel.
func uiLogHook(r logger.Record) {
	if r.Level < logger.LevelWarn {
		return
	}
	ui.Send(ui.LogMsg{Level: r.Level.String(), Message: r.Message})
}

func runTUI(ctx context.Context, configPath string) error {
	rt, err := bootstrap(ctx, configPath, runtimeOptions{tuiMode: true, hook: uiLogHook})
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Channel to receive the start signal from the welcome screen
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		ui.Send(ui.StartupMsg{Step: "ethereum", Status: ui.StepConnecting})
		if err := rt.start(ctx); err != nil {
			ui.Send(ui.StartupMsg{Step: "ethereum", Status: ui.StepFailed, Message: err.Error()})
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		ui.Send(ui.StartupMsg{Step: "ethereum", Status: ui.StepConnected})
		ui.Send(ui.StartupMsg{Step: "uniswap", Status: ui.StepDone})
		ui.Send(ui.StartupMsg{Step: "balances", Status: ui.StepDone})
		ui.Send(ui.ReadyMsg{Controller: swapDI.GetConverter(rt.mono.Services())})

		<-ctx.Done()
		// SIGTERM lands here; the TUI handles ctrl+c itself.
		ui.Send(tea.Quit())
		errCh <- nil
	}()

	if err := ui.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	cancel()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
