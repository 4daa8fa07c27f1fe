package config

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-keyboard/keys"
)

// Validate checks the settings the keyboard cannot work without. The
// returned error carries a user-facing description (fmsg.GetIssue) and is
// tagged ftag.InvalidArgument.
func (c *Config) Validate() error {
	k := c.Keyboard

	if k.OctaveDivision <= 0 {
		return invalid("octaveDivision", k.OctaveDivision, "The octave division must be a positive number of steps.")
	}
	if _, err := keys.Lookup(keys.Spacing(k.KeySpacing)); err != nil {
		return invalid("keySpacing", k.KeySpacing, fmt.Sprintf("Key spacing must be one of %v.", keys.Spacings))
	}
	if k.KeyboardVelocity < 0 || k.KeyboardVelocity > 1 {
		return invalid("keyboardVelocity", k.KeyboardVelocity, "Keyboard velocity must be between 0 and 1.")
	}
	if k.ActiveChannel < 0 || k.ActiveChannel > 15 {
		return invalid("activeChannel", k.ActiveChannel, "The active channel must be between 0 and 15.")
	}
	if !validHeight(k.AccidentalKeyHeight) {
		return invalid("accidentalKeyHeight", k.AccidentalKeyHeight, "Accidental key height must be above 0 and at most 1.")
	}
	if k.InBetweenAccidentalKeyHeight != 0 && !validHeight(k.InBetweenAccidentalKeyHeight) {
		return invalid("inBetweenAccidentalKeyHeight", k.InBetweenAccidentalKeyHeight, "In-between accidental key height must be above 0 and at most 1.")
	}
	for i, kn := range k.KeysOn {
		if kn.Channel < 0 || kn.Channel > 15 || kn.Velocity < 0 || kn.Velocity > 1 {
			return invalid(fmt.Sprintf("keysOn[%d]", i), kn, "Seeded keys need a channel between 0 and 15 and a velocity between 0 and 1.")
		}
	}
	if c.UI.Height < 2 {
		return invalid("ui.height", c.UI.Height, "The keyboard needs at least 2 rows.")
	}
	if c.UI.KeyHoldMs <= 0 {
		return invalid("ui.keyHoldMs", c.UI.KeyHoldMs, "The key hold time must be positive.")
	}
	if c.MIDI.Tempo <= 0 {
		return invalid("midi.tempo", c.MIDI.Tempo, "The recording tempo must be positive.")
	}
	return nil
}

func validHeight(h float64) bool {
	return h > 0 && h <= 1
}

func invalid(field string, value any, desc string) error {
	return fault.New(
		fmt.Sprintf("invalid %s: %v", field, value),
		ftag.With(ftag.InvalidArgument),
		fmsg.WithDesc("invalid config", desc),
	)
}

func invalidFile(path string, err error) error {
	return fault.Wrap(err,
		ftag.With(ftag.InvalidArgument),
		fmsg.WithDesc("parse "+path, fmt.Sprintf("The config file %s is not valid JSON.", path)),
	)
}
