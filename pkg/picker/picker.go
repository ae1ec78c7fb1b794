// Package picker is a small fuzzy-filtered selection prompt used by
// `list pick` and `install pick`.
package picker

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"golang.org/x/term"
)

var (
	ErrCancelled   = errors.New("selection cancelled")
	ErrNoItems     = errors.New("nothing to pick from")
	ErrNotTerminal = errors.New("interactive picker requires a terminal")
)

const maxVisible = 10

var (
	accentColor = lipgloss.Color("#10B981")
	mutedColor  = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	matchStyle    = lipgloss.NewStyle().Underline(true)
	detailStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle     = lipgloss.NewStyle().Foreground(mutedColor).Padding(1, 0, 0, 0)
)

// Item is one selectable row. Value is what gets matched and returned.
type Item struct {
	Value  string
	Detail string
}

type itemSource []Item

func (s itemSource) String(i int) string { return s[i].Value }
func (s itemSource) Len() int            { return len(s) }

type match struct {
	index   int
	matched []int
}

type model struct {
	title     string
	items     []Item
	input     textinput.Model
	matches   []match
	cursor    int
	chosen    int
	cancelled bool
}

func newModel(title string, items []Item) model {
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.Prompt = "> "
	ti.CharLimit = 64
	ti.Focus()

	m := model{title: title, items: items, input: ti, chosen: -1}
	m.filter()
	return m
}

// filter 根据输入重新计算匹配项；输入为空时保持原顺序
func (m *model) filter() {
	query := strings.TrimSpace(m.input.Value())
	m.matches = nil
	if query == "" {
		for i := range m.items {
			m.matches = append(m.matches, match{index: i})
		}
	} else {
		for _, r := range fuzzy.FindFrom(query, itemSource(m.items)) {
			m.matches = append(m.matches, match{index: r.Index, matched: r.MatchedIndexes})
		}
	}
	if m.cursor >= len(m.matches) {
		m.cursor = max(len(m.matches)-1, 0)
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyEnter:
		if len(m.matches) > 0 {
			m.chosen = m.matches[m.cursor].index
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyUp, tea.KeyCtrlP:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case tea.KeyDown, tea.KeyCtrlN:
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filter()
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if len(m.matches) == 0 {
		b.WriteString(detailStyle.Render("  no matches"))
		b.WriteString("\n")
	}

	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	end := min(start+maxVisible, len(m.matches))
	for i := start; i < end; i++ {
		mt := m.matches[i]
		it := m.items[mt.index]
		label := highlight(it.Value, mt.matched)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("▸ "))
			label = selectedStyle.Render(label)
		} else {
			b.WriteString("  ")
		}
		b.WriteString(label)
		if it.Detail != "" {
			b.WriteString("  ")
			b.WriteString(detailStyle.Render(it.Detail))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ move  enter select  esc cancel"))
	return b.String()
}

func highlight(s string, matched []int) string {
	if len(matched) == 0 {
		return s
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Pick shows the picker on the terminal and returns the chosen item.
// The UI is drawn on stderr so stdout stays free for the shell hook.
func Pick(title string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, ErrNoItems
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stderr.Fd())) {
		return Item{}, ErrNotTerminal
	}

	p := tea.NewProgram(newModel(title, items), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return Item{}, err
	}
	m := final.(model)
	if m.cancelled || m.chosen < 0 {
		return Item{}, ErrCancelled
	}
	return m.items[m.chosen], nil
}
