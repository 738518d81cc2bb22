package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
	"github.com/custodia-labs/paperchat-cli/internal/logger"
)

var (
	askFiles    []string
	askJSON     bool
	askPassages bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about your documents",
	Long: `Indexes the given files into a throwaway session, answers one question
and exits. Retrieval combines keyword (BM25) and semantic (vector) search;
the answer cites source files and page numbers.

Examples:
  paperchat ask -f paper.pdf "What datasets were used?"
  paperchat ask -f paper.pdf -f appendix.pdf --json "Summarise the method"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askFiles, "file", "f", nil, "file to index (repeatable)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askPassages, "passages", false, "show the retrieved passages")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

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

	if len(askFiles) > 0 {
		report, err := sessionService.AddFiles(ctx, info.ID, askFiles)
		if err != nil {
			return fmt.Errorf("adding files: %w", err)
		}
		reportIngestProblems(cmd, report)
	}

	answer, err := sessionService.Ask(ctx, info.ID, question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer, askPassages)
}

// reportIngestProblems prints skipped documents to stderr. Partial
// failures don't abort the command; the remaining documents answer.
func reportIngestProblems(cmd *cobra.Command, report *domain.IngestReport) {
	if report == nil {
		return
	}
	for _, skipped := range report.Skipped {
		name := skipped.Source
		if name == "" {
			name = "(unknown)"
		}
		if skipped.Page > 0 {
			name = fmt.Sprintf("%s p.%d", name, skipped.Page)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %s (%s): %s\n", name, skipped.Stage, skipped.Reason)
	}
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer, showPassages bool) error {
	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, ref := range answer.Sources {
			cmd.Printf("  %s p.%d\n", ref.Source, ref.Page)
		}
	}

	if showPassages && len(answer.Passages) > 0 {
		cmd.Println()
		cmd.Println("Passages:")
		for i, p := range answer.Passages {
			cmd.Printf("  [%d] %s p.%d (%.3f, %s)\n", i+1, p.Chunk.Source, p.Chunk.Page, p.Score, p.Origin)
			cmd.Printf("      %s\n", snippet(p.Chunk.Content, 160))
		}
	}

	return nil
}

// snippet truncates content to a single displayable line.
func snippet(content string, max int) string {
	oneLine := make([]rune, 0, len(content))
	for _, r := range content {
		if r == '\n' || r == '\t' {
			r = ' '
		}
		oneLine = append(oneLine, r)
	}
	if len(oneLine) <= max {
		return string(oneLine)
	}
	return string(oneLine[:max-3]) + "..."
}
