package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/fishbot/internal/catalog"
	"github.com/GriffinCanCode/fishbot/internal/catchlog"
	"github.com/GriffinCanCode/fishbot/internal/input"
	"github.com/GriffinCanCode/fishbot/internal/prefs"
	"github.com/GriffinCanCode/fishbot/internal/screen"
	"github.com/GriffinCanCode/fishbot/internal/server"
	"github.com/GriffinCanCode/fishbot/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start fishing until interrupted",
	Long: `Start fishing in the selected area until Ctrl+C.

Flags given here are saved as the new defaults. With --http (or HTTP_ADDR)
a status API and WebSocket event stream are served while fishing.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runArea   string
	runDevice string
	runCast   string
	runHTTP   string
)

func init() {
	runCmd.Flags().StringVar(&runArea, "area", "", "area id or name to fish in")
	runCmd.Flags().StringVar(&runDevice, "device", "", `audio input device index, or "auto"`)
	runCmd.Flags().StringVar(&runCast, "cast", "", "cast action: left, middle, right or a key name")
	runCmd.Flags().StringVar(&runHTTP, "http", "", "serve the status API on this address (overrides HTTP_ADDR)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cat, p := loadStores()
	if err := applyRunFlags(cmd, cat, p); err != nil {
		return err
	}
	return withAudio(func() error { return fish(cmd, cat, p) })
}

// applyRunFlags validates and persists the flags that were given.
func applyRunFlags(cmd *cobra.Command, cat *catalog.Catalog, p *prefs.Prefs) error {
	if cmd.Flags().Changed("area") {
		id, _, ok := cat.Lookup(runArea)
		if !ok {
			return fmt.Errorf("unknown area %q (see 'fishbot areas')", runArea)
		}
		if err := p.SetSelectedArea(id); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("device") {
		idx, err := parseDevice(runDevice)
		if err != nil {
			return err
		}
		if err := p.SetAudioDevice(idx); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("cast") {
		action := input.ParseCastAction(runCast)
		if !action.IsPointer() && !input.ValidKey(action.Key()) {
			return fmt.Errorf("unknown cast key %q", runCast)
		}
		if err := p.SetCastButton(action.String()); err != nil {
			return err
		}
	}
	return nil
}

func fish(cmd *cobra.Command, cat *catalog.Catalog, p *prefs.Prefs) error {
	ctl := input.NewController()
	if err := ctl.Check(); err != nil {
		slog.Warn("input tool unavailable, casts will fail", "error", err)
	}

	capturer := screen.New()
	defer capturer.Close()

	deps := session.Deps{
		Catalog:    cat,
		Prefs:      p,
		Capturer:   capturer,
		Input:      ctl,
		Audio:      audioOpener(preferredDevice(p)),
		NewLocator: newLocator,
	}

	var history server.History
	if cfg.CatchLogEnabled {
		db, err := catchlog.Open(cfg.CatchLogPath())
		if err != nil {
			slog.Warn("catch log unavailable", "path", cfg.CatchLogPath(), "error", err)
		} else {
			defer db.Close()
			deps.CatchLog = db
			history = db
		}
	}

	sess := session.New(cfg, deps)
	ctx, stop := signalContext()
	defer stop()

	if err := sess.Start(ctx); err != nil {
		if errors.Is(err, session.ErrNoArea) {
			return fmt.Errorf("%w: add one with 'fishbot areas add <name>'", err)
		}
		return err
	}

	addr := cfg.HTTPAddr
	if runHTTP != "" {
		addr = runHTTP
	}
	if addr != "" {
		srv := server.New(sess, cat, p, history, cfg)
		go func() {
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				slog.Error("http server error", "addr", addr, "error", err)
			}
		}()
	}

	st := sess.Status()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fishing in %s with %d templates, casting with %s. Press Ctrl+C to stop.\n", st.Area, st.Templates, st.Cast)

	<-ctx.Done()
	slog.Info("shutting down...")
	sess.Stop()

	final := sess.Status()
	fmt.Fprintf(out, "Stopped after %d casts, %d caught.\n", final.Cycles, final.Caught)
	return nil
}
