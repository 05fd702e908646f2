package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/swapdesk/business/pricing/domain"
	"github.com/fd1az/swapdesk/business/swap/app"
	"github.com/fd1az/swapdesk/business/swap/domain"
	"github.com/fd1az/swapdesk/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status StepStatus
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

var startupOrder = []string{"config", "ethereum", "uniswap", "balances"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

const (
	sellField = 0
	buyField  = 1
)

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	inputs  [2]textinput.Model
	focus   int

	status  *components.StatusComponent
	details *components.DetailsComponent
	stats   *components.StatsComponent

	ctrl    Controller
	snap    app.Snapshot
	hasSnap bool
	fee     *app.NetworkFee

	phase        Phase
	welcomeStart time.Time

	ready      bool
	quitting   bool
	width      int
	height     int
	lastUpdate time.Time
	errors     []ErrorEntry
	logs       []string

	startupSteps map[string]*StartupStep
	startupTime  time.Time

	counters     components.Stats
	lastResolved uint64
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StepActiveStyle

	m := Model{
		keys:         DefaultKeyMap(),
		help:         help.New(),
		spinner:      sp,
		inputs:       [2]textinput.Model{newQuantityInput("0.0"), newQuantityInput("0.0")},
		status:       components.NewStatusComponent(),
		details:      components.NewDetailsComponent(),
		stats:        components.NewStatsComponent(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		errors:       make([]ErrorEntry, 0, 3),
		logs:         make([]string, 0, 5),
		startupSteps: map[string]*StartupStep{
			"config":   {Name: "Loading configuration", Status: StepPending},
			"ethereum": {Name: "Connecting to Ethereum", Status: StepPending},
			"uniswap":  {Name: "Checking Uniswap pool", Status: StepPending},
			"balances": {Name: "Loading balances", Status: StepPending},
		},
		startupTime: now,
	}
	m.inputs[sellField].Focus()
	return m
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick, textinput.Blink)
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.startModules()
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ReadyMsg:
		m.ctrl = msg.Controller
		m.phase = PhaseDashboard
		for _, step := range m.startupSteps {
			if step.Status != StepFailed {
				step.Status = StepDone
			}
		}
		if m.ctrl != nil {
			m.applySnapshot(m.ctrl.Snapshot())
			m.focusSide(m.snap.State.PrimarySide)
		}

	case SnapshotMsg:
		if m.hasSnap && msg.Snapshot.Seq <= m.snap.Seq {
			return m, nil
		}
		m.applySnapshot(msg.Snapshot)

	case NetworkFeeMsg:
		fee := msg.Fee
		m.fee = &fee
		m.status.SetBlock(fee.Block)
		m.refreshDetails()
		m.lastUpdate = time.Now()

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:      msg.Name,
			Connected: msg.Connected,
			Latency:   msg.Latency,
		})
		if step := m.startupSteps["ethereum"]; step != nil && strings.Contains(strings.ToLower(msg.Name), "block") {
			if msg.Connected {
				step.Status = StepConnected
			} else if step.Status == StepPending {
				step.Status = StepConnecting
			}
		}
		m.lastUpdate = time.Now()

	case ErrorMsg:
		m.addError(msg.Error)

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		if msg.Status == StepFailed && msg.Message != "" {
			m.logs = addLog(m.logs, "error", msg.Message)
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.phase == PhaseWelcome {
		m.startModules()
		return m, nil
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if key.Matches(msg, m.keys.ClearErrors) {
		m.errors = m.errors[:0]
		return m, nil
	}
	if m.ctrl == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextField):
		m.focusIndex(1 - m.focus)
		return m, nil

	case key.Matches(msg, m.keys.Reverse):
		m.ctrl.Reverse()
		m.applySnapshot(m.ctrl.Snapshot())
		m.focusSide(m.snap.State.PrimarySide)
		return m, nil

	case key.Matches(msg, m.keys.Max):
		m.ctrl.ClickMax()
		m.applySnapshot(m.ctrl.Snapshot())
		m.focusIndex(sellField)
		return m, nil

	case key.Matches(msg, m.keys.Withdraw):
		m.ctrl.ToggleWithdraw()
		m.applySnapshot(m.ctrl.Snapshot())
		return m, nil

	case key.Matches(msg, m.keys.Surplus):
		m.ctrl.ToggleSurplus()
		m.applySnapshot(m.ctrl.Snapshot())
		return m, nil

	case key.Matches(msg, m.keys.SlippageUp), key.Matches(msg, m.keys.SlippageDown):
		pct := m.snap.State.SlippagePct.Add(slippageStep)
		if key.Matches(msg, m.keys.SlippageDown) {
			pct = decimal.Max(m.snap.State.SlippagePct.Sub(slippageStep), decimal.Zero)
		}
		m.ctrl.SetSlippage(pct)
		m.applySnapshot(m.ctrl.Snapshot())
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.ctrl.RefreshBalances()
		m.logs = addLog(m.logs, "info", "reloading balances")
		return m, nil
	}

	if !acceptsKey(msg) {
		return m, nil
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if after := m.inputs[m.focus].Value(); after != before {
		m.ctrl.EditField(sideOf(m.focus), after)
		m.applySnapshot(m.ctrl.Snapshot())
	}
	return m, cmd
}

func (m *Model) startModules() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	if step := m.startupSteps["config"]; step != nil {
		step.Status = StepDone
	}
	// Called directly; Send from inside Update would deadlock the program.
	if OnStartModules != nil {
		go OnStartModules()
	}
}

func sideOf(field int) domain.Side {
	if field == buyField {
		return domain.SideB
	}
	return domain.SideA
}

func (m *Model) focusSide(side domain.Side) {
	if side == domain.SideB {
		m.focusIndex(buyField)
	} else {
		m.focusIndex(sellField)
	}
}

func (m *Model) focusIndex(i int) {
	m.focus = i
	m.inputs[i].Focus()
	m.inputs[1-i].Blur()
}

func (m *Model) applySnapshot(s app.Snapshot) {
	prev := m.snap
	m.snap = s
	m.hasSnap = true
	m.lastUpdate = time.Now()

	syncInput(&m.inputs[sellField], s.State.SellQtyText)
	syncInput(&m.inputs[buyField], s.State.BuyQtyText)

	m.countActivity(prev, s)
	m.status.SetBlock(s.Block)
	m.refreshDetails()
}

func (m *Model) countActivity(prev, s app.Snapshot) {
	if s.Block > prev.Block && prev.Block > 0 {
		m.counters.Blocks++
	}
	st := s.State
	if !st.Loading() && st.Generation > m.lastResolved && domain.IsPositiveText(st.PrimaryText()) {
		m.lastResolved = st.Generation
		if st.IsLiquidityInsufficient {
			m.counters.NoLiquidity++
		} else if s.Impact != nil {
			m.counters.Quotes++
		}
	}
	if !prev.State.Pair.IsZero() && !st.Pair.IsZero() &&
		!prev.State.Pair.Equals(st.Pair) && prev.State.Pair.Equals(st.Pair.Reverse()) {
		m.counters.Reverses++
	}
	if len(s.Session) >= 8 {
		m.counters.SessionShort = s.Session[:8]
	}
	m.stats.Update(m.counters)
}

func (m *Model) refreshDetails() {
	st := m.snap.State
	rows := make([]components.DetailRow, 0, 6)

	if imp := m.snap.Impact; imp != nil && imp.SellQty.IsPositive() && !st.Pair.IsZero() {
		rate := imp.BuyQty.DivRound(imp.SellQty, 8)
		rows = append(rows, components.DetailRow{
			Label: "Rate",
			Value: fmt.Sprintf("1 %s = %s %s", st.Pair.TokenA.Symbol(), domain.FormatQuantity(rate), st.Pair.TokenB.Symbol()),
		})
		rows = append(rows, components.DetailRow{
			Label: "Price impact",
			Value: imp.PercentChange.StringFixed(2) + "%",
			Warn:  imp.PercentChange.Abs().GreaterThan(decimal.NewFromInt(1)),
		})
		if st.PrimarySide.IsSell() {
			rows = append(rows, components.DetailRow{Label: "Minimum received", Value: domain.FormatQuantity(imp.LimitQty) + " " + st.Pair.TokenB.Symbol()})
		} else {
			rows = append(rows, components.DetailRow{Label: "Maximum sold", Value: domain.FormatQuantity(imp.LimitQty) + " " + st.Pair.TokenA.Symbol()})
		}
		if imp.FeeTier > 0 {
			rows = append(rows, components.DetailRow{Label: "Pool fee", Value: fmt.Sprintf("%.2f%%", float64(imp.FeeTier)/10000)})
		}
	}

	rows = append(rows, components.DetailRow{Label: "Slippage tolerance", Value: st.SlippagePct.String() + "%"})
	if m.fee != nil {
		rows = append(rows, components.DetailRow{
			Label: "Network fee",
			Value: fmt.Sprintf("%s (%s gwei)", pricingDomain.FormatUSD(m.fee.USD), m.fee.GasGwei.StringFixed(1)),
		})
	}

	m.details.Update(rows, st.IsSwapAllowed, st.SwapBlockReason)
}

func (m *Model) addError(err error) {
	if err == nil {
		return
	}
	m.logs = addLog(m.logs, "error", err.Error())
	m.errors = append(m.errors, ErrorEntry{Message: err.Error(), Timestamp: time.Now()})
	if len(m.errors) > 3 {
		m.errors = m.errors[len(m.errors)-3:]
	}
	m.counters.Errors++
	m.stats.Update(m.counters)
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), level, message)
	logs = append(logs, line)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	pair := "…"
	if !m.snap.State.Pair.IsZero() {
		pair = m.snap.State.Pair.String()
	}
	b.WriteString(TitleStyle.Render(" ⇄ swapdesk "))
	b.WriteString("  ")
	b.WriteString(HeaderStyle.Render(pair))
	b.WriteString("\n\n")
	b.WriteString(m.status.View())
	b.WriteString("\n\n")

	fieldWidth := 40
	if m.width > 0 && m.width < 90 {
		fieldWidth = m.width - 6
	}
	b.WriteString(m.renderField(sellField, "You sell", fieldWidth))
	b.WriteString("\n")
	reverse := "   ⇅"
	if m.snap.State.ReverseDisabled {
		reverse = MutedValue.Render("   ⇅ (cooling down)")
	}
	b.WriteString(reverse)
	b.WriteString("\n")
	b.WriteString(m.renderField(buyField, "You buy", fieldWidth))
	b.WriteString("\n\n")

	left := BoxStyle.Render(m.details.View())
	right := BoxStyle.Render(components.RenderAllocation(m.allocationView()))
	if m.width > 100 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	} else {
		b.WriteString(left)
		b.WriteString("\n")
		b.WriteString(right)
	}
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(ErrorHeaderStyle.Render("ERRORS"))
		b.WriteString("\n")
		for _, e := range m.errors {
			ago := time.Since(e.Timestamp).Round(time.Second)
			b.WriteString(ErrorLineStyle.Render(fmt.Sprintf("  • %s ", e.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, line := range m.logs {
		b.WriteString(MutedValue.Render(line))
		b.WriteString("\n")
	}
	b.WriteString(m.stats.View())
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderField(i int, label string, width int) string {
	st := m.snap.State
	side := sideOf(i)

	f := components.FieldView{
		Label:   label,
		Input:   m.inputs[i].View(),
		Spinner: m.spinner.View(),
		Focused: m.focus == i,
		Primary: st.PrimarySide == side,
	}
	if !st.Pair.IsZero() {
		if side == domain.SideA {
			f.Symbol = st.Pair.TokenA.Symbol()
			f.Wallet, f.Exchange = st.SellBalance.Wallet, st.SellBalance.Exchange
			f.Loading = st.IsSellFieldLoading
		} else {
			f.Symbol = st.Pair.TokenB.Symbol()
			f.Wallet, f.Exchange = st.BuyBalance.Wallet, st.BuyBalance.Exchange
			f.Loading = st.IsBuyFieldLoading
		}
	}
	return components.RenderField(f, width)
}

func (m Model) allocationView() components.AllocationView {
	st := m.snap.State
	a := m.snap.Allocation
	v := components.AllocationView{
		CoveredByWallet:   a.CoveredByWallet,
		CoveredByExchange: a.CoveredByExchange,
		SellWalletAfter:   a.SellWalletAfter,
		SellExchangeAfter: a.SellExchangeAfter,
		BuyWalletAfter:    a.BuyWalletAfter,
		BuyExchangeAfter:  a.BuyExchangeAfter,
		Withdraw:          st.Preference.WithdrawFromExchange,
		Surplus:           st.Preference.SaveAsExchangeSurplus,
	}
	if !st.Pair.IsZero() {
		v.SellSymbol = st.Pair.TokenA.Symbol()
		v.BuySymbol = st.Pair.TokenB.Symbol()
	}
	return v
}

func (m Model) renderWelcomeScreen() string {
	dots := strings.Repeat(".", int(time.Since(m.welcomeStart).Milliseconds()/300)%4)

	logo := `
   ███████╗██╗    ██╗ █████╗ ██████╗ ██████╗ ███████╗███████╗██╗  ██╗
   ██╔════╝██║    ██║██╔══██╗██╔══██╗██╔══██╗██╔════╝██╔════╝██║ ██╔╝
   ███████╗██║ █╗ ██║███████║██████╔╝██║  ██║█████╗  ███████╗█████╔╝
   ╚════██║██║███╗██║██╔══██║██╔═══╝ ██║  ██║██╔══╝  ╚════██║██╔═██╗
   ███████║╚███╔███╔╝██║  ██║██║     ██████╔╝███████╗███████║██║  ██╗
   ╚══════╝ ╚══╝╚══╝ ╚═╝  ╚═╝╚═╝     ╚═════╝ ╚══════╝╚══════╝╚═╝  ╚═╝
`
	var sb strings.Builder
	sb.WriteString("\n\n\n")
	sb.WriteString(LogoStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("            wallet + exchange balances, one swap form"))
	sb.WriteString("\n\n\n")
	sb.WriteString(StepDoneStyle.Render(fmt.Sprintf("                     Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("               Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStartupScreen() string {
	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(LogoStyle.Render("  ⇄ swapdesk"))
	sb.WriteString("\n\n")
	sb.WriteString(StartupHeadStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range startupOrder {
		step, ok := m.startupSteps[k]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style
		switch step.Status {
		case StepConnected, StepDone:
			icon, statusText, style = "✓", "Ready", StepDoneStyle
		case StepConnecting:
			icon, statusText, style = m.spinner.View(), "Connecting...", StepActiveStyle
		case StepFailed:
			icon, statusText, style = "✗", "Failed", StepFailedStyle
		default:
			icon, statusText, style = "○", "Pending", StepPendingStyle
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s\n", style.Render(icon), MutedValue.Render(step.Name), style.Render(statusText)))
	}

	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", time.Since(m.startupTime).Round(time.Second))))
	sb.WriteString("\n\n")
	for _, line := range m.logs {
		sb.WriteString(MutedValue.Render("  " + line))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules
// should start. main sets it before Run.
var OnStartModules func()

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
