package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/fishbot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after environment overrides, followed by
the saved preferences.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	_, p := loadStores()
	out := cmd.OutOrStdout()
	printConfig(out, cfg)

	fmt.Fprintln(out)
	heading(out, "Preferences ("+p.Path()+")")
	area := p.SelectedArea()
	if area == "" {
		area = "(first area)"
	}
	device := "auto"
	if idx, ok := p.AudioDevice(); ok {
		device = fmt.Sprint(idx)
	}
	fmt.Fprintf(out, "  %-18s %s\n", "selected_area", area)
	fmt.Fprintf(out, "  %-18s %s\n", "audio_device_id", device)
	fmt.Fprintf(out, "  %-18s %s\n", "cast_button", p.CastButton())
	return nil
}

func printConfig(w io.Writer, c *config.Config) {
	rows := [][2]string{
		{"FISHBOT_ASSETS", c.AssetsDir},
		{"FISHBOT_DATA_DIR", c.DataDir},
		{"CUE_TEMPLATE", c.CuePath()},
		{"SAMPLE_RATE", fmt.Sprint(c.SampleRate)},
		{"CUE_THRESHOLD", fmt.Sprint(c.CueThreshold)},
		{"CUE_SILENCE_FLOOR", fmt.Sprint(c.SilenceFloor)},
		{"CUE_TIMEOUT", c.CueTimeout.String()},
		{"SETTLE_DELAY", c.SettleDelay.String()},
		{"JITTER_MIN", c.JitterMin.String()},
		{"JITTER_MAX", c.JitterMax.String()},
		{"POLL_INTERVAL", c.PollInterval.String()},
		{"POINTER_OFFSET_X", fmt.Sprint(c.PointerOffsetX)},
		{"MOVE_DURATION", c.MoveDuration.String()},
		{"RETRIEVE_PAUSE", c.RetrievePause.String()},
		{"CAPTURE_INTERVAL", c.CaptureInterval.String()},
		{"HTTP_ADDR", c.HTTPAddr},
		{"ALLOWED_ORIGINS", strings.Join(c.AllowedOrigins, ",")},
		{"CATCHLOG_ENABLED", fmt.Sprint(c.CatchLogEnabled)},
		{"LOG_LEVEL", c.LogLevel},
		{"LOG_FORMAT", c.LogFormat},
	}
	heading(w, "Configuration")
	for _, r := range rows {
		fmt.Fprintf(w, "  %-18s %s\n", r[0], r[1])
	}
}
