// Package composer provides the question input component for the chat TUI.
package composer

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/tui/styles"
)

// Composer wraps a bubbles textinput for typing questions and commands.
type Composer struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// New creates a new composer component.
func New(s *styles.Styles) *Composer {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question (/add <path> to index a file, ctrl+c to quit)"
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 76

	return &Composer{
		textinput: ti,
		styles:    s,
		width:     80,
	}
}

// Init initialises the composer.
func (c *Composer) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (c *Composer) Update(msg tea.Msg) (*Composer, tea.Cmd) {
	var cmd tea.Cmd
	c.textinput, cmd = c.textinput.Update(msg)
	return c, cmd
}

// View renders the composer.
func (c *Composer) View() string {
	return c.styles.InputField.Width(c.width - 2).Render(c.textinput.View())
}

// Value returns the current input value.
func (c *Composer) Value() string {
	return c.textinput.Value()
}

// SetValue sets the input value.
func (c *Composer) SetValue(value string) {
	c.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (c *Composer) Focus() tea.Cmd {
	return c.textinput.Focus()
}

// Blur removes focus from the input.
func (c *Composer) Blur() {
	c.textinput.Blur()
}

// Focused returns whether the input is focused.
func (c *Composer) Focused() bool {
	return c.textinput.Focused()
}

// SetWidth sets the width of the composer.
func (c *Composer) SetWidth(width int) {
	c.width = width
	// Account for border, padding and prompt.
	inputWidth := width - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	c.textinput.Width = inputWidth
}

// Width returns the current width.
func (c *Composer) Width() int {
	return c.width
}

// Reset clears the input.
func (c *Composer) Reset() {
	c.textinput.Reset()
}
