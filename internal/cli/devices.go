package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jwulff/meetnotes/internal/capture"
	"github.com/jwulff/meetnotes/internal/ui"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openEnv(consoleWriter())
		if err != nil {
			return err
		}
		defer rt.Close()

		devices := rt.pipeline().Devices(cmd.Context())
		writeDevices(cmd.OutOrStdout(), devices, rt.cfg.Device)
		return nil
	},
}

// writeDevices prints one row per input, marking the configured one.
func writeDevices(w io.Writer, devices []capture.Device, current string) {
	if len(devices) == 0 {
		fmt.Fprintln(w, ui.TitleStyle.Render("No input devices found"))
		return
	}
	fmt.Fprintln(w, ui.TitleStyle.Render(fmt.Sprintf("%d input device(s)", len(devices))))

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, ui.PanelTitleStyle.Render("ID")+"\t"+ui.PanelTitleStyle.Render("Label")+"\t")
	for _, d := range devices {
		marker := " "
		if d.ID == current {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s %s\t%s\t\n", marker, ui.DimStyle.Render(d.ID), d.DisplayName())
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
