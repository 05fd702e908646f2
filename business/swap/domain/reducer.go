package domain

import "github.com/shopspring/decimal"

// Reduce applies ev to s. It is pure: all I/O is returned as commands, and the
// gate and the withdraw auto-default are re-evaluated on every call.
func Reduce(s State, ev Event) (State, []Command) {
	var cmds []Command

	switch ev := ev.(type) {
	case FieldEdited:
		s.UserClickedCombinedMax = false
		s, cmds = editPrimary(s, ev.Side, NormalizeInput(ev.Raw))

	case MaxClicked:
		hurdle, _ := Hurdle(s.SellBalance, s.Preference.WithdrawFromExchange)
		if !hurdle.IsPositive() {
			break
		}
		s, cmds = editPrimary(s, SideA, hurdle.String())
		s.UserClickedCombinedMax = s.Preference.WithdrawFromExchange && s.SellBalance.Exchange.IsPositive()

	case QuoteResolved:
		if ev.Generation != s.Generation {
			// superseded by a newer request
			return s, nil
		}
		s = resolveQuote(s, ev.Quote)

	case RefreshTick:
		s, cmds = requote(s)

	case BlockTick:
		if !s.ReverseDisabled {
			s, cmds = requote(s)
		}
		// A failed pool check is retried on every head until it answers.
		if !s.PoolKnown && !s.Pair.IsZero() {
			cmds = append(cmds, CheckPool{Pair: s.Pair})
		}

	case ReverseRequested:
		if s.ReverseDisabled || !s.PoolExists || s.Pair.IsZero() {
			return s, nil
		}
		s, cmds = reverse(s)

	case CooldownElapsed:
		s.ReverseDisabled = false

	case BalancesUpdated:
		before := [2]decimal.Decimal{s.SellBalance.Combined(), s.BuyBalance.Combined()}
		if !s.Pair.IsZero() {
			s.SellBalance = ev.Balances[s.Pair.TokenA.Address()]
			s.BuyBalance = ev.Balances[s.Pair.TokenB.Address()]
		}
		if !before[0].Equal(s.SellBalance.Combined()) || !before[1].Equal(s.BuyBalance.Combined()) {
			s, cmds = requote(s)
		}

	case PoolStatusChanged:
		changed := !s.PoolKnown || s.PoolExists != ev.Exists
		s.PoolExists = ev.Exists
		s.PoolKnown = true
		if changed {
			s, cmds = requote(s)
		}

	case WithdrawToggled:
		s.Preference.WithdrawFromExchange = ev.On
		s.Preference.WithdrawOverridden = true
		s.UserClickedCombinedMax = false
		cmds = append(cmds, PersistPreference{Preference: s.Preference})

	case SurplusToggled:
		s.Preference.SaveAsExchangeSurplus = ev.On
		cmds = append(cmds, PersistPreference{Preference: s.Preference})

	case SlippageChanged:
		if ev.Pct.IsNegative() || ev.Pct.Equal(s.SlippagePct) {
			break
		}
		s.SlippagePct = ev.Pct
		s, cmds = requote(s)

	case PairSelected:
		if ev.Pair.IsZero() || ev.Pair.Equals(s.Pair) {
			break
		}
		s.Pair = ev.Pair
		s.SellBalance = BalancePair{}
		s.BuyBalance = BalancePair{}
		s.PoolExists = false
		s.PoolKnown = false
		s.UserClickedCombinedMax = false
		s, cmds = requote(s)
		cmds = append(cmds,
			Navigate{Route: RouteFor(s.RouteKind, s.Pair)},
			CheckPool{Pair: s.Pair},
			RefreshBalances{},
		)

	case AccountChanged:
		s.UserClickedCombinedMax = false
		cmds = append(cmds, RefreshBalances{})
	}

	s.Preference = s.Preference.ApplyWithdrawDefault(s.SellBalance)
	return s.withGate(), cmds
}

func editPrimary(s State, side Side, text string) (State, []Command) {
	s.PrimarySide = side
	s.setText(side, text)
	s, cmds := requote(s)
	return s, append(cmds, PersistPrimary{Side: side, Quantity: text})
}

// requote starts a new generation from the primary field. Input that cannot
// be quoted blanks the counter field without calling the oracle.
func requote(s State) (State, []Command) {
	s.Generation++
	other := s.PrimarySide.Other()

	qty, ok := ParseQuantity(s.PrimaryText())
	if !ok || !qty.IsPositive() || s.Pair.IsZero() {
		s.setText(other, "")
		s.setLoading(other, false)
		s.IsLiquidityInsufficient = false
		return s, []Command{CancelQuote{}}
	}

	s.setLoading(other, true)
	return s, []Command{RequestQuote{
		Generation:       s.Generation,
		Pair:             s.Pair,
		Amount:           qty,
		IsSellAmount:     s.PrimarySide.IsSell(),
		SlippageFraction: SlippageFraction(s.SlippagePct),
	}}
}

func resolveQuote(s State, q *Quote) State {
	other := s.PrimarySide.Other()
	s.setLoading(other, false)

	if q == nil {
		s.setText(other, "")
		s.IsLiquidityInsufficient = true
		return s
	}

	counter := q.BuyQty
	if !s.PrimarySide.IsSell() {
		counter = q.SellQty
	}
	s.setText(other, FormatQuantity(counter))
	s.IsLiquidityInsufficient = false
	return s
}

// reverse swaps tokens and moves the primary text verbatim to the opposite
// field, which becomes primary. The counter field is re-quoted.
func reverse(s State) (State, []Command) {
	moved := s.PrimaryText()
	if moved == "NaN" {
		moved = ""
	}
	s.setText(s.PrimarySide, "")

	s.PrimarySide = s.PrimarySide.Other()
	s.setText(s.PrimarySide, moved)

	s.Pair = s.Pair.Reverse()
	s.SellBalance, s.BuyBalance = s.BuyBalance, s.SellBalance
	s.ReverseDisabled = true
	s.UserClickedCombinedMax = false

	s, cmds := requote(s)
	return s, append(cmds,
		Navigate{Route: RouteFor(s.RouteKind, s.Pair)},
		StartCooldown{},
		PersistPrimary{Side: s.PrimarySide, Quantity: moved},
	)
}
