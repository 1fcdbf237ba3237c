package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jwulff/meetnotes/internal/capture"
	"github.com/jwulff/meetnotes/internal/meeting"
	"github.com/jwulff/meetnotes/internal/persist"
	"github.com/jwulff/meetnotes/internal/ui"
)

var (
	recordDuration    time.Duration
	recordDir         string
	recordPickDir     bool
	recordDevice      string
	recordSystemAudio bool
)

// recordCmd records without the TUI until Ctrl+C or --duration elapses.
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a meeting without the TUI",
	Long: `Record from the microphone until Ctrl+C (or --duration), then transcribe
the recording and save the audio and transcript.

Files go to --dir when given, otherwise to your Downloads folder.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openEnv(consoleWriter())
		if err != nil {
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		client := rt.transcriber()
		if !client.HasAPIKey() {
			return errors.New("no API key configured: set MEETNOTES_API_KEY or GEMINI_API_KEY")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		prober := persist.NewProber(rt.cfg.AllowDirectoryAccess)
		dir, err := chooseRecordDirectory(ctx, prober, cmd.InOrStdin(), out)
		if err != nil {
			return err
		}

		opts := capture.Options{DeviceID: rt.cfg.Device, SystemAudio: rt.cfg.SystemAudio}
		if cmd.Flags().Changed("device") {
			opts.DeviceID = recordDevice
		}
		if cmd.Flags().Changed("system-audio") {
			opts.SystemAudio = recordSystemAudio
		}

		pipe := rt.pipeline()
		if err := pipe.Start(ctx, opts); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}
		fmt.Fprintln(out, ui.RecordingDotStyle.Render("● Recording")+" "+ui.TimestampStyle.Render("press Ctrl+C to stop"))

		if err := waitForStop(ctx, recordDuration, pipe.Failures()); err != nil {
			return fmt.Errorf("recording aborted: %w", err)
		}

		fmt.Fprintln(out, "Transcribing...")
		var result meeting.Result
		// The signal context may already be cancelled; processing gets its own.
		err = pipe.Stop(context.Background(), rt.processor(client).Continuation(dir, func(r meeting.Result) {
			result = r
		}))
		if err != nil {
			rt.logger.Warn("recording not processed", zap.Error(err))
			if errors.Is(err, capture.ErrRecordingTooShort) {
				return errors.New("recording too short, nothing was saved")
			}
			return fmt.Errorf("failed to process recording: %w", err)
		}

		printResult(out, result)
		return nil
	},
}

// chooseRecordDirectory resolves --dir or --pick-dir. No directory means
// downloads.
func chooseRecordDirectory(ctx context.Context, prober *persist.Prober, in io.Reader, out io.Writer) (persist.DirectoryHandle, error) {
	switch {
	case recordDir != "":
		dir, err := persist.OpenDirectory(recordDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", recordDir, err)
		}
		return dir, nil
	case recordPickDir:
		dir, err := persist.RequestDirectoryAccess(ctx, prober.Capability(), persist.LinePrompter(in, out))
		switch {
		case err == nil:
			return dir, nil
		case errors.Is(err, persist.ErrCancelled):
			return nil, nil
		case errors.Is(err, persist.ErrNotSupported), errors.Is(err, persist.ErrAccessBlocked):
			fmt.Fprintln(out, ui.PromptStyle.Render("Folder access unavailable, saving to Downloads"))
			return nil, nil
		default:
			return nil, fmt.Errorf("failed to open folder: %w", err)
		}
	}
	return nil, nil
}

// waitForStop blocks until the context ends, the duration passes, or the
// microphone fails.
func waitForStop(ctx context.Context, d time.Duration, failures <-chan error) error {
	var timeout <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-ctx.Done():
		return nil
	case <-timeout:
		return nil
	case err := <-failures:
		return err
	}
}

func printResult(w io.Writer, r meeting.Result) {
	s := r.Session
	fmt.Fprintln(w, ui.NoticeStyle.Render("✓ Saved")+" "+ui.PanelTitleStyle.Render(s.Title)+" "+ui.TimestampStyle.Render(s.DurationLabel()))
	if r.Outcome.InDirectory {
		for _, name := range r.Outcome.Written {
			fmt.Fprintf(w, "  %s\n", name)
		}
	} else {
		for _, path := range r.Outcome.Downloaded {
			fmt.Fprintf(w, "  %s\n", path)
		}
	}
	fmt.Fprintln(w, ui.DimStyle.Render("Session "+s.ID))
}

func init() {
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "Stop automatically after this long (0 waits for Ctrl+C)")
	recordCmd.Flags().StringVar(&recordDir, "dir", "", "Folder to save the recording and transcript into")
	recordCmd.Flags().BoolVar(&recordPickDir, "pick-dir", false, "Ask for a folder before recording")
	recordCmd.Flags().StringVar(&recordDevice, "device", "", "Input device id (see 'meetnotes devices')")
	recordCmd.Flags().BoolVar(&recordSystemAudio, "system-audio", false, "Also record system audio")
	rootCmd.AddCommand(recordCmd)
}
