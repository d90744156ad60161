// Package tui renders the spectrum in the terminal. It is a pure
// consumer of the magnitude store: every tick it takes one snapshot and
// draws it, never blocking the analyzer or the capture callback.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"specviz/internal/audio"
	"specviz/internal/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 3)
)

// schemeColors maps each config scheme to the bar colors used across
// the spectrum. Single-color schemes repeat one color; rainbow spreads
// the palette over the bars.
var schemeColors = map[string][]lipgloss.Color{
	"rainbow": {"#FF5F5F", "#FFAF5F", "#FFFF5F", "#5FFF5F", "#5FFFFF", "#5F87FF", "#AF5FFF"},
	"blue":    {"#5F87FF"},
	"green":   {"#5FFF5F"},
	"red":     {"#FF5F5F"},
	"purple":  {"#AF5FFF"},
	"cyan":    {"#5FFFFF"},
	"yellow":  {"#FFFF5F"},
}

var barRunes = []rune(" ▁▂▃▄▅▆▇█")

type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	Scheme      key.Binding
	MoreBars    key.Binding
	FewerBars   key.Binding
	Faster      key.Binding
	Slower      key.Binding
	SensDown    key.Binding
	SensUp      key.Binding
	SwitchInput key.Binding
}

var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
	Help:        key.NewBinding(key.WithKeys("h", "H")),
	Scheme:      key.NewBinding(key.WithKeys("c", "C")),
	MoreBars:    key.NewBinding(key.WithKeys("+", "=")),
	FewerBars:   key.NewBinding(key.WithKeys("-", "_")),
	Faster:      key.NewBinding(key.WithKeys("r")),
	Slower:      key.NewBinding(key.WithKeys("R")),
	SensDown:    key.NewBinding(key.WithKeys("[")),
	SensUp:      key.NewBinding(key.WithKeys("]")),
	SwitchInput: key.NewBinding(key.WithKeys("s", "S")),
}

const helpText = `Keyboard Controls

  h          Toggle this help
  q, Esc     Quit
  c          Change color scheme
  + / =      Increase bars
  - / _      Decrease bars
  r / R      Faster / slower refresh
  [ / ]      Decrease / increase sensitivity
  s          Switch audio source

Press any key to close`

type tickMsg time.Time

// Model is the Bubble Tea model for the visualizer screen.
type Model struct {
	engine  *audio.Engine
	cfg     *config.Store
	devices []audio.Device

	deviceIdx int
	bars      []float64
	width     int
	height    int
	showHelp  bool
	status    string
}

// New creates the visualizer model. devices is the input device list
// cycled by the switch-source key.
func New(engine *audio.Engine, cfg *config.Store, devices []audio.Device) Model {
	m := Model{
		engine:  engine,
		cfg:     cfg,
		devices: devices,
	}
	current := engine.Device().ID
	for i, d := range devices {
		if d.ID == current {
			m.deviceIdx = i
			break
		}
	}
	return m
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick(m.cfg.Refresh())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.bars = m.engine.Store().Snapshot()
		return m, tick(m.cfg.Refresh())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = true
	case key.Matches(msg, keys.Scheme):
		m.cfg.NextScheme()
	case key.Matches(msg, keys.MoreBars):
		m.cfg.IncreaseBarCount()
	case key.Matches(msg, keys.FewerBars):
		m.cfg.DecreaseBarCount()
	case key.Matches(msg, keys.Faster):
		m.cfg.FasterRefresh()
	case key.Matches(msg, keys.Slower):
		m.cfg.SlowerRefresh()
	case key.Matches(msg, keys.SensDown):
		m.cfg.DecreaseSensitivity()
	case key.Matches(msg, keys.SensUp):
		m.cfg.IncreaseSensitivity()
	case key.Matches(msg, keys.SwitchInput):
		m = m.switchSource()
	}
	return m, nil
}

// switchSource cycles to the next input device. On failure the engine
// restores the previous stream itself; the error is shown in the
// status line rather than interrupting the display.
func (m Model) switchSource() Model {
	if len(m.devices) < 2 {
		m.status = "no other input devices"
		return m
	}

	next := (m.deviceIdx + 1) % len(m.devices)
	device := m.devices[next]
	if err := m.engine.Switch(device.ID); err != nil {
		m.status = errorStyle.Render(fmt.Sprintf("switch to %s failed: %v", device.Name, err))
		return m
	}
	m.deviceIdx = next
	m.status = fmt.Sprintf("switched to %s", device.Name)
	return m
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	title := titleStyle.Render(" specviz ") + statusStyle.Render("  press 'h' for help")

	bodyHeight := m.height - 3 // title, status, spacing
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	if m.showHelp {
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center,
			helpStyle.Render(helpText))
	} else {
		body = m.renderBars(bodyHeight)
	}

	return title + "\n" + body + "\n" + m.statusLine()
}

// renderBars draws the smoothed spectrum as columns of block runes,
// bottom-aligned, one column group per bar.
func (m Model) renderBars(height int) string {
	n := len(m.bars)
	if n == 0 {
		return strings.Repeat("\n", height-1)
	}

	colors := schemeColors[m.cfg.Scheme()]
	colWidth := m.width / n
	if colWidth < 1 {
		colWidth = 1
	}
	gap := 0
	if colWidth > 1 {
		gap = 1
	}

	styles := make([]lipgloss.Style, n)
	for b := range styles {
		styles[b] = lipgloss.NewStyle().Foreground(colors[b*len(colors)/n%len(colors)])
	}

	rows := make([]string, height)
	for row := 0; row < height; row++ {
		var line strings.Builder
		for b := 0; b < n && (b+1)*colWidth <= m.width; b++ {
			level := m.bars[b] * float64(height)
			fromBottom := float64(height - 1 - row)

			idx := 0
			if level >= fromBottom+1 {
				idx = len(barRunes) - 1
			} else if level > fromBottom {
				idx = int((level - fromBottom) * float64(len(barRunes)-1))
			}

			cell := strings.Repeat(string(barRunes[idx]), colWidth-gap) + strings.Repeat(" ", gap)
			line.WriteString(styles[b].Render(cell))
		}
		rows[row] = line.String()
	}
	return strings.Join(rows, "\n")
}

func (m Model) statusLine() string {
	device := m.engine.Device()
	fps := int(time.Second / m.cfg.Refresh())

	line := fmt.Sprintf("%s | %.0f Hz | %d bars | %d fps | sens %.1f",
		device.Name, m.engine.SampleRate(), m.cfg.BarCount(), fps, m.cfg.Sensitivity())
	if dropped := m.engine.DroppedSamples(); dropped > 0 {
		line += fmt.Sprintf(" | %d dropped", dropped)
	}
	if m.status != "" {
		line += " | " + m.status
	}
	return statusStyle.Render(line)
}
