package views

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rendis/geobounds/internal/tui/styles"
	"github.com/rendis/geobounds/internal/ui"
)

const maxVisibleOptions = 12

// SelectorModel is the country selector: a filter input over the surface's
// options. The leading empty option clears the selection.
type SelectorModel struct {
	input   textinput.Model
	options []ui.Option
	matches []int // indexes into options
	cursor  int   // index into matches
}

func NewSelectorModel(options []ui.Option) SelectorModel {
	input := textinput.New()
	input.Placeholder = "type to search country..."
	input.CharLimit = 50
	input.Width = 26

	m := SelectorModel{input: input, options: options}
	m.refilter()
	return m
}

func (m *SelectorModel) Focus() tea.Cmd {
	m.input.Focus()
	return textinput.Blink
}

func (m *SelectorModel) Blur() {
	m.input.Blur()
}

// Update feeds a key to the filter input and refilters.
func (m SelectorModel) Update(msg tea.Msg) (SelectorModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down":
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refilter()
	return m, cmd
}

// Selected returns the option value under the cursor.
func (m SelectorModel) Selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return "", false
	}
	return m.options[m.matches[m.cursor]].Value, true
}

// Point moves the cursor to the option with value, clearing the filter.
func (m *SelectorModel) Point(value string) {
	m.input.SetValue("")
	m.refilter()
	for i, idx := range m.matches {
		if m.options[idx].Value == value {
			m.cursor = i
			return
		}
	}
}

func (m *SelectorModel) Reset() {
	m.input.SetValue("")
	m.refilter()
	m.cursor = 0
}

func (m *SelectorModel) refilter() {
	words := strings.Fields(normalize(m.input.Value()))
	m.matches = m.matches[:0]
	for i, o := range m.options {
		if len(words) > 0 && o.Value == "" {
			continue
		}
		haystack := normalize(o.Label + " " + o.Value)
		match := true
		for _, w := range words {
			if !strings.Contains(haystack, w) {
				match = false
				break
			}
		}
		if match {
			m.matches = append(m.matches, i)
		}
	}
	if m.cursor >= len(m.matches) {
		m.cursor = max(len(m.matches)-1, 0)
	}
}

func (m SelectorModel) View(selected string, focused bool) string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")

	active, inactive, current := styles.SelectorCursor, styles.SelectorItem, styles.SelectorCurrent

	if len(m.matches) == 0 {
		b.WriteString(inactive.Italic(true).Render("  no matching country"))
		return b.String()
	}

	start := 0
	if m.cursor >= maxVisibleOptions {
		start = m.cursor - maxVisibleOptions + 1
	}
	end := min(start+maxVisibleOptions, len(m.matches))
	for i := start; i < end; i++ {
		o := m.options[m.matches[i]]
		label := truncate(o.Label, 30)
		switch {
		case i == m.cursor && focused:
			b.WriteString(active.Render("> " + label))
		case o.Value == selected && o.Value != "":
			b.WriteString(current.Render("• " + label))
		default:
			b.WriteString(inactive.Render("  " + label))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	if len(m.matches) > maxVisibleOptions {
		b.WriteString("\n")
		b.WriteString(inactive.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.matches))))
	}
	return b.String()
}

// normalize removes accents/diacritics and lowercases text for fuzzy matching.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, _ := transform.String(t, strings.ToLower(s))
	return result
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
