package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const appName = "go-keyboard"

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX    ControllerType = "launchpad-x"
	ControllerLaunchpadMini ControllerType = "launchpad-mini"
	ControllerKeyboard      ControllerType = "keyboard"
	ControllerIgnore        ControllerType = "ignore"
)

// ControllerConfig is a saved MIDI input port
type ControllerConfig struct {
	PortName     string         `json:"portName"`
	Type         ControllerType `json:"type"`
	AutoConnect  bool           `json:"autoConnect"`
	InputChannel int            `json:"inputChannel,omitempty"` // for keyboards, 0 = any
}

// KeyboardConfig holds the keyboard widget settings
type KeyboardConfig struct {
	StartKey       int    `json:"startKey"`
	EndKey         int    `json:"endKey"`
	OctaveDivision int    `json:"octaveDivision"`
	KeySpacing     string `json:"keySpacing"`

	// KeyboardMapping maps a key name as bubbletea reports it ("a", "shift+a")
	// to a key id, either a number or a label such as "61a". Values of any
	// other JSON type are ignored.
	KeyboardMapping  map[string]any `json:"keyboardMapping,omitempty"`
	KeyboardVelocity float64        `json:"keyboardVelocity"`

	ChannelColors []string `json:"channelColors,omitempty"`
	ActiveChannel int      `json:"activeChannel"`
	Playable      bool     `json:"playable"`
	KeysOn        []KeyOn  `json:"keysOn,omitempty"`

	AccidentalKeyHeight float64 `json:"accidentalKeyHeight"`
	// 0 means the same as AccidentalKeyHeight
	InBetweenAccidentalKeyHeight float64 `json:"inBetweenAccidentalKeyHeight,omitempty"`
	Labels                       bool    `json:"labels"`
}

// MIDIConfig holds MIDI port settings
type MIDIConfig struct {
	OutputPort string  `json:"outputPort,omitempty"` // substring of the port name, "" = none
	Keyboards  bool    `json:"keyboards"`            // play from unknown input ports
	Launchpad  bool    `json:"launchpad"`
	RecordPath string  `json:"recordPath,omitempty"`
	Tempo      float64 `json:"tempo"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette   string `json:"palette,omitempty"` // GPL file, "" = built-in
	Height    int    `json:"height"`            // keyboard rows
	KeyHoldMs int    `json:"keyHoldMs"`         // must exceed the OS key repeat delay (X11: 660)
}

// Config is the main configuration structure
type Config struct {
	Keyboard    KeyboardConfig     `json:"keyboard"`
	MIDI        MIDIConfig         `json:"midi"`
	UI          UIConfig           `json:"ui"`
	Controllers []ControllerConfig `json:"controllers,omitempty"`
}

// DefaultMapping is a two-row piano layout on a QWERTY keyboard starting at
// middle C.
func DefaultMapping() map[string]any {
	return map[string]any{
		"a": 60.0, "w": 61.0, "s": 62.0, "e": 63.0, "d": 64.0,
		"f": 65.0, "t": 66.0, "g": 67.0, "y": 68.0, "h": 69.0,
		"u": 70.0, "j": 71.0, "k": 72.0, "o": 73.0, "l": 74.0,
		"p": 75.0, ";": 76.0, "'": 77.0,
	}
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Keyboard: KeyboardConfig{
			StartKey:            9,
			EndKey:              96,
			OctaveDivision:      12,
			KeySpacing:          "standard",
			KeyboardMapping:     DefaultMapping(),
			KeyboardVelocity:    0.75,
			ActiveChannel:       0,
			Playable:            true,
			AccidentalKeyHeight: 0.65,
			Labels:              true,
		},
		MIDI: MIDIConfig{
			Keyboards: true,
			Launchpad: true,
			Tempo:     120,
		},
		UI: UIConfig{
			Height:    12,
			KeyHoldMs: 750,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Fields missing from the file keep
// their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	// a mapping in the file replaces the default one instead of merging
	cfg.Keyboard.KeyboardMapping = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, invalidFile(path, err)
	}
	if cfg.Keyboard.KeyboardMapping == nil {
		cfg.Keyboard.KeyboardMapping = DefaultMapping()
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// AcceptsKeyboard reports whether notes from input port portName should be
// played. Saved controllers decide for their port; other ports follow
// MIDI.Keyboards.
func (c *Config) AcceptsKeyboard(portName string) bool {
	if ctrl := c.FindController(portName); ctrl != nil {
		return ctrl.AutoConnect && ctrl.Type == ControllerKeyboard
	}
	return c.MIDI.Keyboards
}

// AcceptsLaunchpad reports whether a Launchpad on portName should be used.
func (c *Config) AcceptsLaunchpad(portName string) bool {
	if ctrl := c.FindController(portName); ctrl != nil {
		return ctrl.AutoConnect && ctrl.Type != ControllerIgnore && ctrl.Type != ControllerKeyboard
	}
	return c.MIDI.Launchpad
}

// KeyboardChannel returns the MIDI input channel filter for portName as a
// 0-based channel, or -1 for any.
func (c *Config) KeyboardChannel(portName string) int {
	if ctrl := c.FindController(portName); ctrl != nil && ctrl.InputChannel > 0 {
		return ctrl.InputChannel - 1
	}
	return -1
}

// InBetweenHeight returns the effective in-between accidental height.
func (k KeyboardConfig) InBetweenHeight() float64 {
	if k.InBetweenAccidentalKeyHeight == 0 {
		return k.AccidentalKeyHeight
	}
	return k.InBetweenAccidentalKeyHeight
}
