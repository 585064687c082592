package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/fishbot/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `List audio input devices. The device the bot will record from is marked
with '*'. Loopback devices (monitor, BlackHole, Stereo Mix...) capture what the
game plays and are picked automatically when no device is selected.`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

var devicesSelectCmd = &cobra.Command{
	Use:   "select <index|auto>",
	Short: "Choose the audio input device",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevicesSelect,
}

func init() {
	devicesCmd.AddCommand(devicesSelectCmd)
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	_, p := loadStores()
	return withAudio(func() error {
		devs, err := audio.InputDevices()
		if err != nil {
			return err
		}
		printDevices(cmd.OutOrStdout(), devs, preferredDevice(p))
		return nil
	})
}

func printDevices(w io.Writer, devs []audio.Device, preferred int) {
	if len(devs) == 0 {
		fmt.Fprintln(w, "No audio input devices found.")
		return
	}
	chosen, ok := audio.Resolve(devs, preferred)
	for _, d := range devs {
		mark := " "
		if ok && d.Index == chosen.Index {
			mark = "*"
		}
		tag := ""
		if d.Loopback {
			tag = " [loopback]"
		}
		fmt.Fprintf(w, "%s %3d  %s (%d ch, %.0f Hz)%s\n", mark, d.Index, d.Name, d.MaxInputChannels, d.DefaultSampleRate, tag)
	}
	switch {
	case preferred == audio.AutoDevice && !ok:
		fmt.Fprintln(w, "\nAutomatic selection: no loopback device, the system default input is used.")
	case preferred == audio.AutoDevice:
		fmt.Fprintln(w, "\nAutomatic selection.")
	case !ok || chosen.Index != preferred:
		fmt.Fprintf(w, "\nSelected device %d is not available.\n", preferred)
	}
}

func runDevicesSelect(cmd *cobra.Command, args []string) error {
	idx, err := parseDevice(args[0])
	if err != nil {
		return err
	}
	_, p := loadStores()

	if idx != audio.AutoDevice {
		err := withAudio(func() error {
			devs, err := audio.InputDevices()
			if err != nil {
				return err
			}
			for _, d := range devs {
				if d.Index == idx {
					return nil
				}
			}
			return fmt.Errorf("device %d is not an input device (see 'fishbot devices')", idx)
		})
		if err != nil {
			return err
		}
	}

	if err := p.SetAudioDevice(idx); err != nil {
		return err
	}
	if idx == audio.AutoDevice {
		fmt.Fprintln(cmd.OutOrStdout(), "Audio device: automatic")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Audio device: %d\n", idx)
	}
	return nil
}
