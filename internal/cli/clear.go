package cli

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jwulff/meetnotes/internal/session"
	"github.com/jwulff/meetnotes/internal/ui"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the session history",
	Long: `Delete every stored session. Audio and transcript files already saved
to disk are left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openEnv(consoleWriter())
		if err != nil {
			return err
		}
		defer rt.Close()

		confirm := promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
		if clearYes {
			confirm = func(string) bool { return true }
		}
		cleared, err := rt.store.Clear(cmd.Context(), confirm)
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		if cleared {
			fmt.Fprintln(cmd.OutOrStdout(), ui.NoticeStyle.Render("History cleared"))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing deleted")
		}
		return nil
	},
}

// promptConfirm asks on w and reads a yes/no answer from r.
func promptConfirm(r io.Reader, w io.Writer) func(prompt string) bool {
	return func(prompt string) bool {
		fmt.Fprintf(w, "%s [y/N]: ", prompt)
		line, _ := bufio.NewReader(r).ReadString('\n')
		return session.Confirmed(line)
	}
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(clearCmd)
}
