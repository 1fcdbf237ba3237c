// Package cli holds the meetnotes commands.
package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jwulff/meetnotes/internal/app"
	"github.com/jwulff/meetnotes/internal/persist"
)

var (
	verbose    bool
	configFile string
	version    = "dev"
	commit     = "unknown"
	date       = "unknown"
)

// rootCmd runs the recorder TUI when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "meetnotes",
	Short: "Record meetings and get Gemini transcripts",
	Long: `meetnotes records your microphone (and optionally system audio),
sends the recording to Gemini and keeps a Markdown transcript with an
executive summary, decisions and action items.

Quick Start:
  meetnotes                         # Open the recorder
  meetnotes record --duration 30m   # Record without the TUI
  meetnotes sessions list           # Show recorded sessions
  meetnotes sessions export -f md   # Export history as Markdown`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal, so logs only go to the file.
		rt, err := openEnv(nil)
		if err != nil {
			return err
		}
		defer rt.Close()

		var dir persist.DirectoryHandle
		if tuiDir != "" {
			dir, err = persist.OpenDirectory(tuiDir)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", tuiDir, err)
			}
		}

		client := rt.transcriber()
		m := app.New(app.Deps{
			Recorder:     rt.pipeline(),
			Processor:    rt.processor(client),
			Store:        rt.store,
			Credentials:  client,
			Logger:       rt.logger.Named("tui"),
			Capability:   persist.NewProber(rt.cfg.AllowDirectoryAccess).Capability(),
			Dir:          dir,
			Model:        client.Model(),
			FilePrefix:   rt.cfg.FilePrefix,
			DeviceID:     rt.cfg.Device,
			SystemAudio:  rt.cfg.SystemAudio,
			DownloadsDir: rt.downloadsDir(),
		})

		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to run recorder: %w", err)
		}
		return nil
	},
}

var tuiDir string

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror logs to stderr (non-interactive commands)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: config.yaml in the data directory)")
	rootCmd.Flags().StringVar(&tuiDir, "dir", "", "Folder to save recordings into")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
