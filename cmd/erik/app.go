// Interactive terminal interface built on bubbletea. One screen: a feature
// menu on the left of the flow, a per-feature form, and a scrollback of the
// session's interaction log.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"erik/cmd/erik/ui"
	"erik/internal/config"
	"erik/internal/dispatch"
	"erik/internal/session"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type appState int

const (
	stateMenu appState = iota
	stateForm
)

// Form field focus order. Not every feature shows every field.
const (
	focusInput = iota
	focusNotes
	focusCount
)

type appModel struct {
	// UI components
	styles   ui.Styles
	input    textinput.Model
	notes    textarea.Model
	count    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	// State
	state     appState
	cursor    int
	feature   dispatch.Feature
	focus     int
	long      bool
	threeD    bool
	isLoading bool
	lastExpr  string
	err       error
	width     int
	height    int
	ready     bool

	// Backend
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	sess       *session.Session
}

type (
	answerMsg dispatch.Payload
	errorMsg  error
)

func newApp(cfg *config.Config, d *dispatch.Dispatcher) appModel {
	styles := ui.DefaultStyles()

	ti := textinput.New()
	ti.Prompt = "│ "
	ti.CharLimit = 2048
	ti.Width = 72
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	ta := textarea.New()
	ta.Placeholder = "Paste your notes here..."
	ta.SetWidth(72)
	ta.SetHeight(5)
	ta.CharLimit = 20000

	ct := textinput.New()
	ct.Prompt = "│ "
	ct.Placeholder = "5"
	ct.CharLimit = 3
	ct.Width = 8

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	return appModel{
		styles:     styles,
		input:      ti,
		notes:      ta,
		count:      ct,
		viewport:   vp,
		spinner:    sp,
		renderer:   renderer,
		state:      stateMenu,
		cfg:        cfg,
		dispatcher: d,
		sess:       session.New(),
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 14
		if vpHeight < 5 {
			vpHeight = 5
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = vpHeight
		}
		m.input.Width = msg.Width - 8
		m.notes.SetWidth(msg.Width - 8)
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-8),
		)
		return m, nil

	case spinner.TickMsg:
		if m.isLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case answerMsg:
		m.isLoading = false
		m.err = msg.Err
		if msg.Expression != "" {
			m.lastExpr = msg.Expression
		}
		m.viewport.SetContent(m.renderLog(dispatch.Payload(msg)))
		m.viewport.GotoBottom()
		m.resetForm()
		m.state = stateMenu
		return m, nil

	case errorMsg:
		m.isLoading = false
		m.err = msg
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.isLoading {
		return m, nil
	}

	switch m.state {
	case stateMenu:
		return m.handleMenuKey(msg)
	case stateForm:
		return m.handleFormKey(msg)
	}
	return m, nil
}

func (m appModel) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	features := dispatch.Features()
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(features)-1 {
			m.cursor++
		}
	case "enter":
		m.feature = features[m.cursor]
		m.state = stateForm
		m.err = nil
		m.configureForm()
		return m, textinput.Blink
	case "p":
		// Jump to the plotter with the last math answer prefilled.
		if m.lastExpr != "" {
			m.feature = dispatch.FeaturePlot
			m.state = stateForm
			m.err = nil
			m.configureForm()
			m.input.SetValue(m.lastExpr)
			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m appModel) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.resetForm()
		m.state = stateMenu
		return m, nil

	case tea.KeyTab:
		m.cycleFocus()
		return m, textinput.Blink

	case tea.KeyCtrlF:
		if m.hasFormatToggle() {
			m.long = !m.long
			return m, nil
		}

	case tea.KeyCtrlD:
		if m.feature == dispatch.FeaturePlot {
			m.threeD = !m.threeD
			return m, nil
		}

	case tea.KeyCtrlS:
		return m.submit()

	case tea.KeyEnter:
		// Enter inside the notes textarea inserts a newline; everywhere
		// else it submits.
		if m.focus != focusNotes {
			return m.submit()
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusInput:
		m.input, cmd = m.input.Update(msg)
	case focusNotes:
		m.notes, cmd = m.notes.Update(msg)
	case focusCount:
		m.count, cmd = m.count.Update(msg)
	}
	return m, cmd
}

// configureForm sets per-feature prompts and focuses the first visible field.
func (m *appModel) configureForm() {
	m.focus = focusInput
	m.input.Focus()
	m.notes.Blur()
	m.count.Blur()

	switch m.feature {
	case dispatch.FeatureDoubt:
		m.input.Placeholder = "Ask any study question..."
	case dispatch.FeatureTopic:
		m.input.Blur()
		m.notes.Focus()
		m.focus = focusNotes
		m.notes.Placeholder = "Paste the text to analyze..."
	case dispatch.FeatureUpload:
		m.input.Placeholder = "Path to a PDF, DOCX or TXT file..."
	case dispatch.FeatureQuiz:
		m.input.Placeholder = "Topic (or leave empty and paste notes)..."
		m.notes.Placeholder = "Paste your notes here..."
	case dispatch.FeatureFlashcards:
		m.input.Placeholder = "Topic (or leave empty and paste notes)..."
		m.notes.Placeholder = "Paste your notes here..."
	case dispatch.FeatureMath:
		m.input.Placeholder = "e.g. integrate(x**2, x) or 2*x + 3 = 9"
	case dispatch.FeaturePlot:
		m.input.Placeholder = "e.g. sin(x) or x**2 + y**2 (Ctrl+D toggles 3D)"
	case dispatch.FeatureResearch:
		m.input.Placeholder = "Research topic..."
	}
}

func (m *appModel) cycleFocus() {
	order := m.focusOrder()
	for i, f := range order {
		if f == m.focus {
			m.focus = order[(i+1)%len(order)]
			break
		}
	}
	m.input.Blur()
	m.notes.Blur()
	m.count.Blur()
	switch m.focus {
	case focusInput:
		m.input.Focus()
	case focusNotes:
		m.notes.Focus()
	case focusCount:
		m.count.Focus()
	}
}

func (m appModel) focusOrder() []int {
	switch m.feature {
	case dispatch.FeatureQuiz, dispatch.FeatureFlashcards:
		return []int{focusInput, focusNotes, focusCount}
	case dispatch.FeatureTopic:
		return []int{focusNotes}
	default:
		return []int{focusInput}
	}
}

func (m appModel) hasFormatToggle() bool {
	return m.feature == dispatch.FeatureDoubt || m.feature == dispatch.FeatureResearch
}

func (m *appModel) resetForm() {
	m.input.Reset()
	m.notes.Reset()
	m.count.Reset()
	m.long = false
	m.threeD = false
}

func (m appModel) format() dispatch.Format {
	if m.long {
		return dispatch.FormatLong
	}
	return dispatch.FormatShort
}

// buildRequest assembles the feature request from the form fields.
func (m appModel) buildRequest() (dispatch.Request, error) {
	switch m.feature {
	case dispatch.FeatureDoubt:
		return dispatch.SolveDoubt{Query: m.input.Value(), Format: m.format()}, nil
	case dispatch.FeatureTopic:
		return dispatch.AnalyzeTopic{Text: m.notes.Value()}, nil
	case dispatch.FeatureUpload:
		path := strings.TrimSpace(m.input.Value())
		if path == "" {
			return nil, fmt.Errorf("enter a file path")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return dispatch.UploadDocument{Name: filepath.Base(path), Data: data}, nil
	case dispatch.FeatureQuiz:
		return dispatch.GenerateQuiz{Topic: m.input.Value(), Notes: m.notes.Value(), Count: m.countValue()}, nil
	case dispatch.FeatureFlashcards:
		return dispatch.GenerateFlashcards{Topic: m.input.Value(), Notes: m.notes.Value(), Count: m.countValue()}, nil
	case dispatch.FeatureMath:
		return dispatch.SolveMath{Expression: m.input.Value()}, nil
	case dispatch.FeaturePlot:
		return dispatch.PlotFunction{Expression: m.input.Value(), ThreeD: m.threeD}, nil
	case dispatch.FeatureResearch:
		return dispatch.ResearchLookup{Topic: m.input.Value(), Format: m.format()}, nil
	}
	return nil, fmt.Errorf("no form for feature %v", m.feature)
}

func (m appModel) countValue() int {
	n, err := strconv.Atoi(strings.TrimSpace(m.count.Value()))
	if err != nil || n <= 0 {
		return 5
	}
	return n
}

func (m appModel) submit() (tea.Model, tea.Cmd) {
	req, err := m.buildRequest()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.isLoading = true
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, m.submitCmd(req))
}

// submitCmd runs the dispatcher off the update loop. The update loop blocks
// further submissions while isLoading, so at most one request touches the
// session at a time.
func (m appModel) submitCmd(req dispatch.Request) tea.Cmd {
	return func() tea.Msg {
		payload := m.dispatcher.Submit(context.Background(), m.sess, req)
		return answerMsg(payload)
	}
}

// renderLog renders the interaction log plus the latest payload details.
func (m appModel) renderLog(latest dispatch.Payload) string {
	var sb strings.Builder

	userStyle := m.styles.Bold.Foreground(m.styles.Theme.Primary).MarginTop(1)
	erikStyle := m.styles.Bold.Foreground(m.styles.Theme.Accent).MarginTop(1)

	for _, rec := range m.sess.Records() {
		if rec.Role == session.RoleUser {
			sb.WriteString(userStyle.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(rec.Content))
			sb.WriteString("\n")
		} else {
			sb.WriteString(erikStyle.Render("ERIK") + "\n")
			sb.WriteString(m.safeRenderMarkdown(rec.Content))
			sb.WriteString("\n")
		}
	}

	if latest.ImagePath != "" {
		sb.WriteString(m.styles.Muted.Render("Figure saved to " + latest.ImagePath))
		sb.WriteString("\n")
	}
	return sb.String()
}

// safeRenderMarkdown renders markdown, falling back to plain text if the
// renderer panics or errors.
func (m appModel) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()
	if m.renderer != nil && content != "" {
		if rendered, err := m.renderer.Render(content); err == nil {
			return rendered
		}
	}
	return content
}

func (m appModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	var body string
	switch m.state {
	case stateMenu:
		body = m.renderMenu()
	case stateForm:
		body = m.renderForm()
	}

	logView := m.styles.Content.Render(m.viewport.View())
	if m.isLoading {
		logView += "\n" + m.styles.Spinner.Render(m.spinner.View()) + " Working..."
	}
	if m.err != nil {
		logView += "\n" + m.styles.Error.Render("Error: "+m.err.Error())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		body,
		logView,
		m.renderFooter(),
	)
}

func (m appModel) renderHeader() string {
	title := m.styles.Header.Render(" ERIK ")
	badge := m.styles.Badge.Render("study assistant")

	var status string
	if m.isLoading {
		status = m.styles.Warning.Render("● Working")
	} else {
		status = m.styles.Success.Render("● Ready")
	}

	line := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", badge, "  ", status)
	return lipgloss.JoinVertical(lipgloss.Left, line, m.styles.RenderDivider(m.width))
}

func (m appModel) renderMenu() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Subtitle.Render("What do you want to do?") + "\n\n")
	for i, f := range dispatch.Features() {
		label := f.String()
		if i == m.cursor {
			sb.WriteString(m.styles.MenuSelected.Render("→ "+label) + "\n")
		} else {
			sb.WriteString(m.styles.MenuItem.Render(label) + "\n")
		}
	}
	return m.styles.Content.Render(sb.String())
}

func (m appModel) renderForm() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(m.feature.String()) + "\n")

	order := m.focusOrder()
	for _, f := range order {
		switch f {
		case focusInput:
			sb.WriteString(m.input.View() + "\n")
		case focusNotes:
			sb.WriteString(m.notes.View() + "\n")
		case focusCount:
			sb.WriteString(m.styles.Muted.Render("How many? ") + m.count.View() + "\n")
		}
	}

	var toggles []string
	if m.hasFormatToggle() {
		toggles = append(toggles, fmt.Sprintf("Ctrl+F: answer length [%s]", m.format()))
	}
	if m.feature == dispatch.FeaturePlot {
		mode := "2D"
		if m.threeD {
			mode = "3D"
		}
		toggles = append(toggles, fmt.Sprintf("Ctrl+D: plot mode [%s]", mode))
	}
	if len(toggles) > 0 {
		sb.WriteString(m.styles.Muted.Render(strings.Join(toggles, " • ")) + "\n")
	}
	return m.styles.Content.Render(sb.String())
}

func (m appModel) renderFooter() string {
	var help string
	switch m.state {
	case stateMenu:
		help = "↑/↓: choose • Enter: select • q: quit"
		if m.lastExpr != "" {
			help = "↑/↓: choose • Enter: select • p: plot last result • q: quit"
		}
	case stateForm:
		help = "Enter: submit • Tab: next field • Esc: back • Ctrl+C: quit"
		if m.focus == focusNotes {
			help = "Ctrl+S: submit • Tab: next field • Esc: back • Ctrl+C: quit"
		}
	}
	return m.styles.Footer.Render(help)
}

func runInteractive(cfg *config.Config, d *dispatch.Dispatcher) error {
	p := tea.NewProgram(newApp(cfg, d), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
