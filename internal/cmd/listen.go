package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/fishbot/internal/cue"
	"github.com/GriffinCanCode/fishbot/internal/resilience"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Listen for the bite sound without fishing",
	Long: `Listen for the bite sound on the selected audio device and report every
detection, without touching mouse or keyboard. Useful to check the device and
threshold before a run.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

var (
	listenDevice    string
	listenThreshold float64
)

func init() {
	listenCmd.Flags().StringVar(&listenDevice, "device", "", `audio input device index, or "auto" (default: saved device)`)
	listenCmd.Flags().Float64Var(&listenThreshold, "threshold", 0, "detection threshold (default: CUE_THRESHOLD)")
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	_, p := loadStores()
	device := preferredDevice(p)
	if cmd.Flags().Changed("device") {
		idx, err := parseDevice(listenDevice)
		if err != nil {
			return err
		}
		device = idx
	}
	threshold := cfg.CueThreshold
	if listenThreshold > 0 {
		threshold = listenThreshold
	}

	tmpl, err := cue.LoadTemplate(cfg.CuePath(), cfg.SampleRate)
	if err != nil {
		return err
	}

	return withAudio(func() error {
		det := cue.NewDetector(tmpl, audioOpener(device), cue.Options{
			SampleRate:   cfg.SampleRate,
			Threshold:    threshold,
			SilenceFloor: cfg.SilenceFloor,
		}).WithBreaker(resilience.New(resilience.AudioConfig()))

		ctx, stop := signalContext()
		defer stop()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Listening for %s (%.2fs, threshold %.1f). Press Ctrl+C to stop.\n",
			cfg.CuePath(), float64(det.TemplateLen())/float64(cfg.SampleRate), threshold)
		heard := 0
		det.Listen(ctx, cue.ListenPause, func() {
			heard++
			fmt.Fprintf(out, "Bite heard (%d)\n", heard)
		})

		st := det.Stats()
		slog.Info("listener stopped", "chunks", st.Chunks, "detections", st.Detections, "last_score", st.LastScore)
		return nil
	})
}
