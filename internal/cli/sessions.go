package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jwulff/meetnotes/internal/export"
	"github.com/jwulff/meetnotes/internal/session"
	"github.com/jwulff/meetnotes/internal/ui"
)

var (
	listLimit    int
	exportFormat string
	exportOutput string
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"s"},
	Short:   "Browse recorded sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := loadSessions(cmd)
		if err != nil {
			return err
		}
		if listLimit > 0 && len(list) > listLimit {
			list = list[:listLimit]
		}
		writeSessionTable(cmd.OutOrStdout(), list)
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := loadSessions(cmd)
		if err != nil {
			return err
		}
		s, ok := findSession(list, args[0])
		if !ok {
			return fmt.Errorf("session %s not found", args[0])
		}
		exporter, _ := export.NewExporter("md")
		return exporter.Export([]session.Session{s}, cmd.OutOrStdout())
	},
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every session",
	Long: `Export the session history as Markdown, JSON or YAML.

Writes to stdout unless --output is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}
		list, err := loadSessions(cmd)
		if err != nil {
			return err
		}

		if exportOutput == "" {
			return exporter.Export(list, cmd.OutOrStdout())
		}
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		defer f.Close()
		if err := exporter.Export(list, f); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d session(s) to %s\n", len(list), exportOutput)
		return nil
	},
}

func loadSessions(cmd *cobra.Command) ([]session.Session, error) {
	rt, err := openEnv(consoleWriter())
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	list, err := rt.store.Load(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	return list, nil
}

func findSession(list []session.Session, id string) (session.Session, bool) {
	for _, s := range list {
		if s.ID == id {
			return s, true
		}
	}
	return session.Session{}, false
}

func writeSessionTable(w io.Writer, list []session.Session) {
	if len(list) == 0 {
		fmt.Fprintln(w, ui.TitleStyle.Render("No sessions recorded yet"))
		return
	}
	fmt.Fprintln(w, ui.TitleStyle.Render(fmt.Sprintf("%d session(s)", len(list))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, ui.PanelTitleStyle.Render("ID")+"\t"+ui.PanelTitleStyle.Render("Title")+"\t"+
		ui.PanelTitleStyle.Render("Duration")+"\t"+ui.PanelTitleStyle.Render("Recorded")+"\t")
	_, _ = fmt.Fprintln(tw, strings.Repeat("─", 72))
	for _, s := range list {
		title := s.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			ui.DimStyle.Render(s.ID), title, s.DurationLabel(), ui.TimestampStyle.Render(s.Date))
	}
	_ = tw.Flush()
}

func init() {
	sessionsListCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most this many sessions")
	sessionsExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Export format (md, json, yaml)")
	sessionsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsExportCmd)
	rootCmd.AddCommand(sessionsCmd)
}
