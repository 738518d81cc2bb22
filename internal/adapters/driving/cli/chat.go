package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/paperchat-cli/internal/logger"
)

var chatCmd = &cobra.Command{
	Use:   "chat [file...]",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session about the given files.

Files are indexed into an in-memory session that lives for the duration of
the chat and is destroyed on exit. Follow-up questions are understood in
context ("what about the second one?") via LLM query refinement.

Inside the chat, /add <path> indexes another file mid-conversation.

When stdin is not a terminal, questions are read line by line instead of
starting the full-screen interface:
  echo "What datasets were used?" | paperchat chat paper.pdf`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	// Panic recovery so a TUI crash leaves a stack trace, not a broken
	// terminal.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := ensureSessionService(cmd); err != nil {
		return err
	}
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	ctx := cmd.Context()

	info, err := sessionService.Create(ctx)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer func() {
		if err := sessionService.Destroy(ctx, info.ID); err != nil {
			logger.Warn("destroying session: %v", err)
		}
	}()

	if len(args) > 0 {
		report, err := sessionService.AddFiles(ctx, info.ID, args)
		if err != nil {
			return fmt.Errorf("adding files: %w", err)
		}
		reportIngestProblems(cmd, report)
	}

	// Prompt templates become editable while the chat runs.
	if promptStore != nil {
		if err := promptStore.Watch(); err != nil {
			logger.Warn("watching prompt files: %v", err)
		}
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runChatREPL(cmd, info.ID)
	}

	app, err := tui.NewChat(&tui.Ports{
		Session: sessionService,
		Actions: actionService,
	}, info.ID)
	if err != nil {
		return fmt.Errorf("failed to create chat interface: %w", err)
	}
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat interface error: %w", err)
	}

	return nil
}

// runChatREPL answers questions read line by line from stdin. Used when
// input is piped; the full-screen interface needs a terminal.
func runChatREPL(cmd *cobra.Command, sessionID string) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		answer, err := sessionService.Ask(cmd.Context(), sessionID, question)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}

		if err := outputAnswerText(cmd, answer, false); err != nil {
			return err
		}
		cmd.Println()
	}

	return scanner.Err()
}
