package midi

import (
	"errors"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ErrPortsTimeout means the MIDI driver did not answer in time (CoreMIDI can
// hang; `sudo killall coreaudiod midiserver` fixes it).
var ErrPortsTimeout = errors.New("timed out listing MIDI ports")

const portsTimeout = 3 * time.Second

// Ports lists the MIDI ports, giving up after a timeout.
func Ports() ([]drivers.In, []drivers.Out, error) {
	type portsResult struct {
		ins  []drivers.In
		outs []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r.ins, r.outs, nil
	case <-time.After(portsTimeout):
		return nil, nil, ErrPortsTimeout
	}
}

// MatchPort reports whether a port name contains want, ignoring case.
func MatchPort(name, want string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(want))
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

// isLoopback catches virtual through ports; playing from one would echo our
// own output back in.
func isLoopback(name string) bool {
	return MatchPort(name, "through")
}

// FindLaunchpad returns the first Launchpad input and the output of the same
// name. Both are nil when none is connected.
func FindLaunchpad(ins []drivers.In, outs []drivers.Out) (drivers.In, drivers.Out) {
	for _, p := range ins {
		if isLaunchpad(p.String()) {
			return p, outFor(outs, p.String())
		}
	}
	return nil, nil
}

func outFor(outs []drivers.Out, name string) drivers.Out {
	for _, p := range outs {
		if strings.EqualFold(p.String(), name) {
			return p
		}
	}
	return nil
}
