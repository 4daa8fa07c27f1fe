package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"go-keyboard/config"
	"go-keyboard/debug"
	"go-keyboard/midi"
	"go-keyboard/theme"
	"go-keyboard/tui"
)

var flags struct {
	config   string
	start    int
	end      int
	division int
	spacing  string
	channel  int
	port     string
	record   string
	log      string
	debug    bool
	save     bool
	noDevice bool
}

var rootCmd = &cobra.Command{
	Use:   "go-keyboard",
	Short: "A playable piano keyboard in the terminal",
	Long: `go-keyboard draws a piano keyboard in the terminal and plays it with the
mouse, the computer keyboard, a Launchpad or a hardware MIDI keyboard.
Notes go to a MIDI output port and can be recorded to a MIDI file.

Settings live in ~/.config/go-keyboard/config.json; flags override them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flags.config, "config", "c", "", "config file (default ~/.config/go-keyboard/config.json)")
	f.IntVar(&flags.start, "start", 0, "first key id")
	f.IntVar(&flags.end, "end", 0, "last key id")
	f.IntVar(&flags.division, "division", 0, "steps per octave")
	f.StringVar(&flags.spacing, "spacing", "", "key spacing: standard, garageBand or fruityLoops")
	f.IntVar(&flags.channel, "channel", 0, "active MIDI channel, 1-16")
	f.StringVarP(&flags.port, "port", "p", "", "MIDI output port (substring of its name)")
	f.StringVarP(&flags.record, "record", "r", "", "write played notes to this MIDI file on exit")
	f.StringVarP(&flags.log, "log", "l", "", "write logs to this file")
	f.BoolVar(&flags.debug, "debug", false, "log debug messages (to --log or ~/.config/go-keyboard/debug.log)")
	f.BoolVar(&flags.save, "save", false, "save the effective settings to the config file")
	f.BoolVar(&flags.noDevice, "no-devices", false, "do not listen to MIDI controllers")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if issue := fmsg.GetIssue(err); issue != "" {
			fmt.Fprintln(os.Stderr, issue)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("start") {
		cfg.Keyboard.StartKey = flags.start
	}
	if changed("end") {
		cfg.Keyboard.EndKey = flags.end
	}
	if changed("division") {
		cfg.Keyboard.OctaveDivision = flags.division
	}
	if changed("spacing") {
		cfg.Keyboard.KeySpacing = flags.spacing
	}
	if changed("channel") {
		cfg.Keyboard.ActiveChannel = flags.channel - 1
	}
	if changed("port") {
		cfg.MIDI.OutputPort = flags.port
	}
	if changed("record") {
		cfg.MIDI.RecordPath = flags.record
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging() error {
	if flags.log == "" && !flags.debug {
		return nil
	}
	level := log.InfoLevel
	if flags.debug {
		level = log.DebugLevel
	}
	return debug.Enable(flags.log, level)
}

func run(cmd *cobra.Command, args []string) error {
	if err := setupLogging(); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("enable logging", "Could not open the log file."))
	}
	defer debug.Disable()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flags.save {
		save := cfg.Save
		if flags.config != "" {
			save = func() error { return cfg.SaveFile(flags.config) }
		}
		if err := save(); err != nil {
			return fault.Wrap(err, fmsg.WithDesc("save config", "Could not save the settings."))
		}
	}

	palette := theme.Default()
	if cfg.UI.Palette != "" {
		if palette, err = theme.LoadGPL(cfg.UI.Palette); err != nil {
			return fault.Wrap(err, fmsg.WithDesc("load palette", "Could not read the palette "+cfg.UI.Palette+"."))
		}
	}
	th := theme.New(palette)

	var sinks []tui.NoteSink
	var out *midi.Output
	if cfg.MIDI.OutputPort != "" {
		if out, err = midi.OpenOutput(cfg.MIDI.OutputPort); err != nil {
			return fault.Wrap(err, fmsg.WithDesc("open output", "No MIDI output port matches "+cfg.MIDI.OutputPort+". Run miditest list to see the ports."))
		}
		defer out.Close()
		sinks = append(sinks, out)
		debug.Info("main", "output %s", out.Name())
	}

	var rec *midi.Recorder
	if cfg.MIDI.RecordPath != "" {
		rec = midi.NewRecorder(cfg.MIDI.Tempo)
		sinks = append(sinks, rec)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var devices *midi.DeviceManager
	if !flags.noDevice && (cfg.MIDI.Keyboards || cfg.MIDI.Launchpad || len(cfg.Controllers) > 0) {
		devices = midi.NewDeviceManager(midi.DeviceOptions{
			Launchpad:       cfg.AcceptsLaunchpad,
			Keyboard:        cfg.AcceptsKeyboard,
			KeyboardChannel: cfg.KeyboardChannel,
			Skip: func(name string) bool {
				// our own output may loop back as an input
				return out != nil && strings.EqualFold(name, out.Name())
			},
		})
		go devices.Run(ctx)
	}

	outName := ""
	if out != nil {
		outName = out.Name()
	}
	m, err := tui.New(tui.Options{
		Config:  cfg,
		Theme:   th,
		Sinks:   sinks,
		Devices: devices,
		Output:  outName,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("run", "The terminal UI stopped unexpectedly."))
	}

	if out != nil {
		if err := out.Panic(); err != nil {
			debug.Warn("main", "panic: %v", err)
		}
		sent, dropped := out.Stats()
		debug.Info("main", "sent %d messages, dropped %d", sent, dropped)
	}
	if rec != nil && rec.Len() > 0 {
		if err := rec.WriteFile(cfg.MIDI.RecordPath); err != nil {
			return fault.Wrap(err, fmsg.WithDesc("write recording", "Could not write "+cfg.MIDI.RecordPath+"."))
		}
		fmt.Printf("recorded %d events to %s\n", rec.Len(), cfg.MIDI.RecordPath)
	}
	return nil
}
