package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jwulff/meetnotes/internal/transcribe"
	"github.com/jwulff/meetnotes/internal/ui"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <session-id>",
	Short: "Ask Gemini for a short summary and action items of a session",
	Long: `Send a stored transcript back to Gemini and print a one-paragraph
summary with a list of action items. The stored session is not changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openEnv(consoleWriter())
		if err != nil {
			return err
		}
		defer rt.Close()

		list, err := rt.store.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
		s, ok := findSession(list, args[0])
		if !ok {
			return fmt.Errorf("session %s not found", args[0])
		}
		if s.Transcription == "" {
			return fmt.Errorf("session %s has no transcript", s.ID)
		}

		summary, err := rt.transcriber().Summarize(cmd.Context(), s.Transcription)
		if err != nil {
			if transcribe.IsAuthError(err) {
				return fmt.Errorf("API key missing or rejected: set MEETNOTES_API_KEY or GEMINI_API_KEY: %w", err)
			}
			return fmt.Errorf("failed to summarize: %w", err)
		}
		writeSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

func writeSummary(w io.Writer, s transcribe.Summary) {
	fmt.Fprintln(w, ui.TitleStyle.Render("Summary"))
	fmt.Fprintln(w, s.Summary)
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.TitleStyle.Render("Action Items"))
	if len(s.ActionItems) == 0 {
		fmt.Fprintln(w, ui.TimestampStyle.Render("none"))
		return
	}
	for _, item := range s.ActionItems {
		fmt.Fprintf(w, "- [ ] %s\n", item)
	}
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}
