package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-keyboard/midi"
	"go-keyboard/notes"
)

var rootCmd = &cobra.Command{
	Use:          "miditest",
	Short:        "MIDI port checks for go-keyboard",
	SilenceUsage: true,
}

var (
	channel  int
	velocity float64
	length   time.Duration
)

func init() {
	noteCmd.Flags().IntVar(&channel, "channel", 1, "MIDI channel, 1-16")
	noteCmd.Flags().Float64Var(&velocity, "velocity", 0.75, "velocity, 0-1")
	noteCmd.Flags().DurationVar(&length, "length", 500*time.Millisecond, "how long each note sounds")

	rootCmd.AddCommand(listCmd, monitorCmd, noteCmd, ledsCmd, pollCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all MIDI ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("(waiting up to 3 seconds...)")
		ins, outs, err := midi.Ports()
		if err != nil {
			fmt.Println("Fix: sudo killall coreaudiod midiserver")
			return err
		}
		fmt.Println("=== MIDI Input Ports ===")
		for i, p := range ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		return nil
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor <port>",
	Short: "Print messages arriving on an input port",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ins, _, err := midi.Ports()
		if err != nil {
			return err
		}
		for _, p := range ins {
			if !midi.MatchPort(p.String(), args[0]) {
				continue
			}
			fmt.Printf("Listening on %s. Ctrl+C to exit.\n", p.String())
			stop, err := gomidi.ListenTo(p, func(msg gomidi.Message, ms int32) {
				fmt.Printf("%8dms  %s\n", ms, msg)
			}, gomidi.UseSysEx())
			if err != nil {
				return err
			}
			defer stop()
			waitInterrupt(context.Background())
			return nil
		}
		return fmt.Errorf("no input port matching %q", args[0])
	},
}

var noteCmd = &cobra.Command{
	Use:   "note <port> [key...]",
	Short: "Play test notes on an output port (default middle C)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := midi.OpenOutput(args[0])
		if err != nil {
			return err
		}
		defer out.Close()

		ids := []int{60}
		if len(args) > 1 {
			ids = ids[:0]
			for _, a := range args[1:] {
				var id int
				if _, err := fmt.Sscan(a, &id); err != nil {
					return fmt.Errorf("key %q: %w", a, err)
				}
				ids = append(ids, id)
			}
		}

		fmt.Printf("Playing on %s\n", out.Name())
		for _, id := range ids {
			e := notes.Event{ID: id, Channel: channel - 1, Velocity: velocity}
			out.NoteOn(e)
			time.Sleep(length)
			out.NoteOff(e)
		}
		sent, dropped := out.Stats()
		fmt.Printf("sent %d, dropped %d\n", sent, dropped)
		return nil
	},
}

var ledsCmd = &cobra.Command{
	Use:   "leds",
	Short: "Light the Launchpad grid with the keyboard's pad layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		ins, outs, err := midi.Ports()
		if err != nil {
			return err
		}
		in, out := midi.FindLaunchpad(ins, outs)
		if in == nil || out == nil {
			return fmt.Errorf("no Launchpad found")
		}
		lp, err := midi.NewLaunchpadController(in.String(), in, out)
		if err != nil {
			return err
		}
		defer lp.Close()

		// a C major chord over the default layout
		played := notes.Of(
			notes.Note{ID: 60, Velocity: 1},
			notes.Note{ID: 64, Velocity: 1},
			notes.Note{ID: 67, Velocity: 1},
		)
		frame := midi.DefaultGrid.Frame(played, 12, midi.GridColors{
			Root:  [3]uint8{0, 0, 140},
			Other: [3]uint8{30, 30, 30},
			Note:  func(int, float64) [3]uint8 { return [3]uint8{0, 255, 0} },
		})
		var leds midi.LEDState
		if err := lp.SetLEDBatch(leds.Diff(frame)); err != nil {
			return err
		}

		fmt.Println("Press Enter to clear...")
		fmt.Scanln()
		return nil
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Print controller connects and disconnects",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Connect/disconnect controllers to test. Ctrl+C to exit.")
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		dm := midi.NewDeviceManager(midi.DeviceOptions{})
		go dm.Run(ctx)
		for ev := range dm.Events() {
			stamp := time.Now().Format("15:04:05")
			switch ev.Type {
			case midi.DeviceConnected:
				fmt.Printf("[%s] connected %s (%s)\n", stamp, ev.ID, ev.Controller.Type())
			case midi.DeviceDisconnected:
				fmt.Printf("[%s] disconnected %s\n", stamp, ev.ID)
			}
		}
		return nil
	},
}

func waitInterrupt(ctx context.Context) {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()
	<-ctx.Done()
}
