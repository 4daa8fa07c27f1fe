package midi

import (
	"context"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2/drivers"

	"go-keyboard/debug"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceOptions decides which input ports become controllers. Nil funcs
// accept every port and every channel.
type DeviceOptions struct {
	Launchpad       func(portName string) bool
	Keyboard        func(portName string) bool
	KeyboardChannel func(portName string) int // -1 = any

	// Skip excludes ports entirely, e.g. the port our own output feeds.
	Skip func(portName string) bool
}

// DeviceManager handles hot-plug detection of MIDI controllers
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
	opts        DeviceOptions
	ports       func() ([]drivers.In, []drivers.Out, error)

	launchpad func(id string, in drivers.In, out drivers.Out) (Controller, error)
	keyboard  func(id string, in drivers.In, channel int) (Controller, error)
}

// NewDeviceManager creates a new device manager
func NewDeviceManager(opts DeviceOptions) *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		opts:        opts,
		ports:       Ports,
		launchpad: func(id string, in drivers.In, out drivers.Out) (Controller, error) {
			return NewLaunchpadController(id, in, out)
		},
		keyboard: func(id string, in drivers.In, channel int) (Controller, error) {
			return NewKeyboardController(id, in, channel)
		},
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		out[k] = v
	}
	return out
}

// GetLaunchpad returns the first connected Launchpad (or nil)
func (dm *DeviceManager) GetLaunchpad() Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	for _, c := range dm.controllers {
		if c.Type() == ControllerLaunchpad {
			return c
		}
	}
	return nil
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

func (dm *DeviceManager) scan() {
	inPorts, outPorts, err := dm.ports()
	if err != nil {
		debug.LogEvery(10, "devices", "scan skipped: %v", err)
		return
	}

	seenIDs := make(map[string]bool)

	for i, inPort := range inPorts {
		id := inPort.String()
		if dm.opts.Skip != nil && dm.opts.Skip(id) {
			continue
		}

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			seenIDs[id] = true
			continue
		}

		var c Controller
		switch {
		case isLaunchpad(id) && accept(dm.opts.Launchpad, id):
			c, err = dm.launchpad(id, inPorts[i], outFor(outPorts, id))
		case !isLaunchpad(id) && !isLoopback(id) && accept(dm.opts.Keyboard, id):
			channel := -1
			if dm.opts.KeyboardChannel != nil {
				channel = dm.opts.KeyboardChannel(id)
			}
			c, err = dm.keyboard(id, inPorts[i], channel)
		default:
			continue
		}
		if err != nil {
			debug.Warn("devices", "open %s: %v", id, err)
			continue
		}

		seenIDs[id] = true
		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()
		debug.Info("devices", "connected %s (%s)", id, c.Type())

		dm.events <- DeviceEvent{
			Type:       DeviceConnected,
			Controller: c,
			ID:         id,
		}
	}

	dm.mu.Lock()
	var toRemove []string
	for id := range dm.controllers {
		if !seenIDs[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		c := dm.controllers[id]
		c.Close()
		delete(dm.controllers, id)
		debug.Info("devices", "disconnected %s", id)
		dm.events <- DeviceEvent{
			Type: DeviceDisconnected,
			ID:   id,
		}
	}
	dm.mu.Unlock()
}

func accept(f func(string) bool, name string) bool {
	return f == nil || f(name)
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}
