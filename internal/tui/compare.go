package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/taxengine/internal/compare"
	"github.com/rgehrsitz/taxengine/internal/domain"
)

type mode int

const (
	modeSelect mode = iota
	modeInput
	modeRunning
	modeResults
)

// option is one selectable alternative: a built-in template or a typed transform spec.
type option struct {
	name        string
	description string
	spec        string // empty for templates
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Add    key.Binding
	Run    key.Binding
	Clear  key.Binding
	Back   key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys(" ", "space", "x"), key.WithHelp("space/x", "select")),
	Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add transform")),
	Run:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "compare")),
	Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	Back:   key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// comparisonDoneMsg carries a finished comparison back into the model.
type comparisonDoneMsg struct {
	set *compare.ComparisonSet
	err error
}

// CompareModel lets the user pick what-if alternatives for one profile, runs the
// comparison and shows the table.
type CompareModel struct {
	ctx      context.Context
	engine   *compare.CompareEngine
	profile  *domain.TaxpayerProfile
	baseName string

	options  []option
	selected map[int]bool
	cursor   int
	input    textinput.Model
	mode     mode

	result *compare.ComparisonSet
	err    error
	width  int
	height int
}

// NewCompareModel lists every built-in template followed by the transform specs in
// preset. Templates and specs named in preset start selected.
func NewCompareModel(ctx context.Context, engine *compare.CompareEngine, profile *domain.TaxpayerProfile, preset compare.CompareOptions) *CompareModel {
	ti := textinput.New()
	ti.Placeholder = "relocate:to=TX,move_work=true"
	ti.CharLimit = 200
	ti.Width = 50

	m := &CompareModel{
		ctx:      ctx,
		engine:   engine,
		profile:  profile,
		baseName: preset.BaseScenarioName,
		selected: make(map[int]bool),
		input:    ti,
		width:    80,
		height:   24,
	}
	wanted := map[string]bool{}
	for _, name := range preset.Templates {
		wanted[strings.ToLower(name)] = true
	}
	for _, name := range engine.TemplateRegistry.List() {
		tmpl, _ := engine.TemplateRegistry.Get(name)
		m.selected[len(m.options)] = wanted[name]
		m.options = append(m.options, option{name: tmpl.Name, description: tmpl.Description})
	}
	for _, spec := range preset.Transforms {
		if err := m.addSpec(spec); err != nil {
			m.err = err
		}
	}
	return m
}

// Result returns the last completed comparison, if any.
func (m *CompareModel) Result() *compare.ComparisonSet { return m.result }

// Err returns the last error shown to the user.
func (m *CompareModel) Err() error { return m.err }

// Options builds the comparison request from the current selection, in list order.
func (m *CompareModel) Options() compare.CompareOptions {
	opts := compare.CompareOptions{BaseScenarioName: m.baseName}
	for i, o := range m.options {
		if !m.selected[i] {
			continue
		}
		if o.spec != "" {
			opts.Transforms = append(opts.Transforms, o.spec)
		} else {
			opts.Templates = append(opts.Templates, o.name)
		}
	}
	return opts
}

func (m *CompareModel) addSpec(spec string) error {
	t, err := m.engine.TransformRegistry.ParseTransformSpec(spec)
	if err != nil {
		return err
	}
	if err := t.Validate(m.profile); err != nil {
		return err
	}
	m.selected[len(m.options)] = true
	m.options = append(m.options, option{name: t.Name(), description: t.Description(), spec: spec})
	return nil
}

func (m *CompareModel) Init() tea.Cmd { return nil }

func (m *CompareModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case comparisonDoneMsg:
		m.result, m.err = msg.set, msg.err
		m.mode = modeResults
		if msg.err != nil {
			m.mode = modeSelect
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeInput:
			return m.updateInput(msg)
		case modeRunning:
			return m, nil
		case modeResults:
			switch {
			case key.Matches(msg, keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, keys.Back):
				m.mode = modeSelect
			}
			return m, nil
		}
		return m.updateSelect(msg)
	}
	return m, nil
}

func (m *CompareModel) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		m.selected[m.cursor] = !m.selected[m.cursor]
	case key.Matches(msg, keys.Clear):
		m.selected = make(map[int]bool)
		m.result, m.err = nil, nil
	case key.Matches(msg, keys.Add):
		m.mode = modeInput
		m.err = nil
		return m, m.input.Focus()
	case key.Matches(msg, keys.Run):
		opts := m.Options()
		if len(opts.Templates)+len(opts.Transforms) == 0 {
			m.err = fmt.Errorf("select at least one alternative")
			return m, nil
		}
		m.err = nil
		m.mode = modeRunning
		return m, m.compareCmd(opts)
	}
	return m, nil
}

func (m *CompareModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.input.SetValue("")
		m.mode = modeSelect
		return m, nil
	case tea.KeyEnter:
		if err := m.addSpec(strings.TrimSpace(m.input.Value())); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.input.Blur()
		m.input.SetValue("")
		m.cursor = len(m.options) - 1
		m.mode = modeSelect
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *CompareModel) compareCmd(opts compare.CompareOptions) tea.Cmd {
	ctx, engine, profile := m.ctx, m.engine, m.profile
	return func() tea.Msg {
		set, err := engine.Compare(ctx, profile, opts)
		return comparisonDoneMsg{set: set, err: err}
	}
}

func (m *CompareModel) View() string {
	switch m.mode {
	case modeRunning:
		opts := m.Options()
		runs := len(opts.Templates) + len(opts.Transforms) + 1
		return BorderStyle.Render(TitleStyle.Render("Calculating alternatives...") + "\n\n" +
			SubtleStyle.Render(fmt.Sprintf("Running %d calculations for %s", runs, m.profileName())))
	case modeResults:
		return m.renderResults()
	}
	return m.renderSelection()
}

func (m *CompareModel) profileName() string {
	if m.profile.ID != "" {
		return m.profile.ID
	}
	return "profile"
}

func (m *CompareModel) renderSelection() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("What-if alternatives for " + m.profileName()))
	b.WriteString("\n\n")
	b.WriteString(SubtleStyle.Render(helpLine(keys.Up, keys.Down, keys.Toggle, keys.Add, keys.Run, keys.Clear, keys.Quit)))
	b.WriteString("\n\n")

	for i, o := range m.options {
		if i == m.cursor {
			b.WriteString(HighlightStyle.Render("> "))
		} else {
			b.WriteString("  ")
		}
		if m.selected[i] {
			b.WriteString(HighlightStyle.Render("[x] "))
		} else {
			b.WriteString(SubtleStyle.Render("[ ] "))
		}
		name := o.name
		if i == m.cursor {
			name = HighlightStyle.Render(name)
		}
		b.WriteString(name)
		b.WriteString(SubtleStyle.Render("  " + o.description))
		b.WriteString("\n")
	}

	if m.mode == modeInput {
		b.WriteString("\nTransform: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(SubtleStyle.Render("enter to add, esc to cancel"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	opts := m.Options()
	switch n := len(opts.Templates) + len(opts.Transforms); {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(m.err.Error()))
	case n == 0:
		b.WriteString(SubtleStyle.Render("Select at least one alternative"))
	default:
		b.WriteString(SuccessStyle.Render(fmt.Sprintf("Selected: %d alternative(s), press enter to compare", n)))
	}
	return BorderStyle.Render(b.String())
}

func (m *CompareModel) renderResults() string {
	var b strings.Builder
	b.WriteString((&compare.TableFormatter{}).Format(m.result))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(helpLine(keys.Back, keys.Quit)))
	return b.String()
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
