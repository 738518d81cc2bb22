package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/tui/components/composer"
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

// role identifies who produced a transcript entry.
type role int

const (
	roleUser role = iota
	roleAssistant
	roleNotice
)

// entry is one rendered block in the transcript.
type entry struct {
	role    role
	text    string
	sources []domain.SourceRef
}

// Chat is the interactive chat interface following the Elm architecture.
// It drives one retrieval session: questions go through refinement, hybrid
// retrieval and answer generation; /add indexes more files mid-conversation.
type Chat struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// sessionID addresses the session owned by the caller.
	sessionID string

	styles    *styles.Styles
	keymap    *keymap.KeyMap
	viewport  viewport.Model
	composer  *composer.Composer
	statusbar *status.Bar

	// transcript holds the conversation so far, oldest first.
	transcript []entry

	// lastAnswer is the most recent answer, for copy-to-clipboard.
	lastAnswer *domain.Answer

	// busy is true while a question or /add is in flight. Input stays
	// editable but submissions are ignored until the reply lands.
	busy bool

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the chat has received its initial size.
	ready bool
}

// Ensure Chat implements tea.Model.
var _ tea.Model = (*Chat)(nil)

// NewChat creates the chat interface for an existing session.
func NewChat(ports *Ports, sessionID string) (*Chat, error) {
	if ports == nil {
		return nil, ErrInvalidPorts
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &Chat{
		ports:     ports,
		ctx:       context.Background(),
		sessionID: sessionID,
		styles:    s,
		keymap:    km,
		viewport:  viewport.New(80, 20),
		composer:  composer.New(s),
		statusbar: status.NewBar(s, km),
	}, nil
}

// WithContext sets the context for the chat.
func (c *Chat) WithContext(ctx context.Context) *Chat {
	c.ctx = ctx
	return c
}

// Init implements tea.Model.
func (c *Chat) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("paperchat"),
		c.composer.Init(),
		c.refreshInfo(),
	)
}

// Update implements tea.Model.
func (c *Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.SetDimensions(msg.Width, msg.Height)
		return c, nil

	case tea.KeyMsg:
		return c.handleKeyMsg(msg)

	case messages.AnswerReceived:
		c.handleAnswerReceived(msg)
		return c, c.refreshInfo()

	case messages.FilesIndexed:
		c.handleFilesIndexed(msg)
		return c, c.refreshInfo()

	case messages.SessionRefreshed:
		if msg.Err == nil {
			c.statusbar.SetInfo(msg.Info)
		}
		return c, nil

	case messages.AnswerCopied:
		if msg.Err != nil {
			c.statusbar.SetMessage("Copy: " + msg.Err.Error())
		} else {
			c.statusbar.SetMessage("Copied answer")
		}
		return c, nil

	case messages.ErrorOccurred:
		c.err = msg.Err
		c.statusbar.SetState(status.StateError)
		c.statusbar.SetMessage(msg.Err.Error())
		return c, nil

	case messages.Quit:
		return c, tea.Quit
	}

	var cmd tea.Cmd
	c.composer, cmd = c.composer.Update(msg)
	return c, cmd
}

// handleKeyMsg processes keyboard input.
func (c *Chat) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, c.keymap.Quit):
		return c, tea.Quit

	case keymap.Matches(key, c.keymap.Clear):
		c.composer.Reset()
		c.statusbar.Clear()
		c.err = nil
		return c, nil

	case keymap.Matches(key, c.keymap.ScrollUp):
		c.viewport.LineUp(3)
		return c, nil

	case keymap.Matches(key, c.keymap.ScrollDown):
		c.viewport.LineDown(3)
		return c, nil

	case keymap.Matches(key, c.keymap.Copy):
		return c, c.copyLastAnswer()

	case keymap.Matches(key, c.keymap.Send):
		return c, c.submit()
	}

	var cmd tea.Cmd
	c.composer, cmd = c.composer.Update(msg)
	return c, cmd
}

// submit dispatches the typed line: /add indexes files, anything else is
// a question. Ignored while a previous submission is still in flight.
func (c *Chat) submit() tea.Cmd {
	if c.busy {
		return nil
	}

	line := strings.TrimSpace(c.composer.Value())
	if line == "" {
		return nil
	}
	c.composer.Reset()
	c.err = nil

	if paths, ok := parseAddCommand(line); ok {
		if len(paths) == 0 {
			c.statusbar.SetState(status.StateError)
			c.statusbar.SetMessage("usage: /add <path> [path...]")
			return nil
		}
		c.busy = true
		c.statusbar.Clear()
		c.statusbar.SetState(status.StateIndexing)
		c.appendEntry(entry{role: roleNotice, text: "Indexing " + strings.Join(paths, ", ") + "..."})
		return c.indexFiles(paths)
	}

	c.busy = true
	c.statusbar.Clear()
	c.statusbar.SetState(status.StateThinking)
	c.appendEntry(entry{role: roleUser, text: line})
	return c.ask(line)
}

// parseAddCommand recognises "/add path [path...]".
func parseAddCommand(line string) ([]string, bool) {
	if line != "/add" && !strings.HasPrefix(line, "/add ") {
		return nil, false
	}
	return strings.Fields(strings.TrimPrefix(line, "/add")), true
}

// ask runs the question against the session off the UI goroutine.
func (c *Chat) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := c.ports.Session.Ask(c.ctx, c.sessionID, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

// indexFiles adds files to the session off the UI goroutine.
func (c *Chat) indexFiles(paths []string) tea.Cmd {
	return func() tea.Msg {
		report, err := c.ports.Session.AddFiles(c.ctx, c.sessionID, paths)
		return messages.FilesIndexed{Paths: paths, Report: report, Err: err}
	}
}

// refreshInfo reloads the session snapshot for the status bar.
func (c *Chat) refreshInfo() tea.Cmd {
	return func() tea.Msg {
		info, err := c.ports.Session.Info(c.ctx, c.sessionID)
		return messages.SessionRefreshed{Info: info, Err: err}
	}
}

// copyLastAnswer copies the most recent answer to the clipboard.
func (c *Chat) copyLastAnswer() tea.Cmd {
	if c.lastAnswer == nil {
		c.statusbar.SetMessage("No answer to copy")
		return nil
	}
	if c.ports.Actions == nil {
		c.statusbar.SetMessage("Copy not available")
		return nil
	}
	text := c.lastAnswer.Text
	return func() tea.Msg {
		return messages.AnswerCopied{Err: c.ports.Actions.CopyText(c.ctx, text)}
	}
}

// handleAnswerReceived processes a completed answer.
func (c *Chat) handleAnswerReceived(msg messages.AnswerReceived) {
	c.busy = false

	if msg.Err != nil {
		c.err = msg.Err
		c.statusbar.SetState(status.StateError)
		c.statusbar.SetMessage(msg.Err.Error())
		c.appendEntry(entry{role: roleNotice, text: "Error: " + msg.Err.Error()})
		return
	}

	c.lastAnswer = msg.Answer
	c.statusbar.Clear()
	c.appendEntry(entry{
		role:    roleAssistant,
		text:    msg.Answer.Text,
		sources: msg.Answer.Sources,
	})
}

// handleFilesIndexed processes an /add result.
func (c *Chat) handleFilesIndexed(msg messages.FilesIndexed) {
	c.busy = false

	if msg.Err != nil {
		c.err = msg.Err
		c.statusbar.SetState(status.StateError)
		c.statusbar.SetMessage(msg.Err.Error())
		c.appendEntry(entry{role: roleNotice, text: "Error: " + msg.Err.Error()})
		return
	}

	c.statusbar.Clear()
	c.appendEntry(entry{role: roleNotice, text: summariseReport(msg.Report)})
}

// summariseReport renders an ingest report as one transcript block.
func summariseReport(report *domain.IngestReport) string {
	if report == nil {
		return "Indexed 0 pages."
	}
	text := fmt.Sprintf("Indexed %d pages (%d chunks).", report.DocumentsAdded, report.ChunksAdded)
	for _, skipped := range report.Skipped {
		name := skipped.Source
		if name == "" {
			name = "(unknown)"
		}
		text += fmt.Sprintf("\nSkipped %s (%s): %s", name, skipped.Stage, skipped.Reason)
	}
	return text
}

// appendEntry adds a transcript entry and scrolls to the bottom.
func (c *Chat) appendEntry(e entry) {
	c.transcript = append(c.transcript, e)
	c.viewport.SetContent(c.renderTranscript())
	c.viewport.GotoBottom()
}

// renderTranscript renders all entries for the viewport.
func (c *Chat) renderTranscript() string {
	if len(c.transcript) == 0 {
		return c.styles.Muted.Render(
			"Ask a question about your documents.\nUse /add <path> to index more files.",
		)
	}

	blocks := make([]string, 0, len(c.transcript))
	for _, e := range c.transcript {
		blocks = append(blocks, c.renderEntry(e))
	}
	return strings.Join(blocks, "\n\n")
}

// renderEntry renders one transcript entry.
func (c *Chat) renderEntry(e entry) string {
	switch e.role {
	case roleUser:
		return c.styles.UserLabel.Render("You") + "\n" + c.styles.Normal.Render(e.text)
	case roleAssistant:
		block := c.styles.AssistantLabel.Render("paperchat") + "\n" + c.styles.Normal.Render(e.text)
		if len(e.sources) > 0 {
			refs := make([]string, 0, len(e.sources))
			for _, ref := range e.sources {
				refs = append(refs, fmt.Sprintf("%s p.%d", ref.Source, ref.Page))
			}
			block += "\n" + c.styles.Citation.Render("Sources: "+strings.Join(refs, ", "))
		}
		return block
	case roleNotice:
		return c.styles.Muted.Render(e.text)
	}
	return e.text
}

// View implements tea.Model.
func (c *Chat) View() string {
	if !c.ready {
		return "Initialising..."
	}

	header := c.styles.Title.Render("paperchat")
	transcript := c.styles.Border.Width(c.width - 2).Render(c.viewport.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		transcript,
		c.composer.View(),
		c.statusbar.View(),
	)
}

// SetDimensions sets the terminal dimensions.
func (c *Chat) SetDimensions(width, height int) {
	c.width = width
	c.height = height
	c.ready = true

	c.composer.SetWidth(width)
	c.statusbar.SetWidth(width)

	// Header, transcript border, composer box and status bar.
	reserved := 7
	vpHeight := height - reserved
	if vpHeight < 3 {
		vpHeight = 3
	}
	c.viewport.Width = width - 4
	c.viewport.Height = vpHeight
	c.viewport.SetContent(c.renderTranscript())
}

// SessionID returns the session this chat drives.
func (c *Chat) SessionID() string {
	return c.sessionID
}

// Busy returns whether a submission is in flight.
func (c *Chat) Busy() bool {
	return c.busy
}

// Err returns the last error that occurred.
func (c *Chat) Err() error {
	return c.err
}

// Ready returns whether the chat has received its initial size.
func (c *Chat) Ready() bool {
	return c.ready
}

// TranscriptLen returns the number of transcript entries.
func (c *Chat) TranscriptLen() int {
	return len(c.transcript)
}

// LastAnswer returns the most recent answer, or nil.
func (c *Chat) LastAnswer() *domain.Answer {
	return c.lastAnswer
}
