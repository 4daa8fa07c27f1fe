package config

import (
	"encoding/json"
	"fmt"
)

// KeyOn is a seeded active note, written in the file as a tuple
// [channel, key, velocity] or [channel, key, velocity, source]. Key is a
// number or a key label, like the values of KeyboardMapping.
type KeyOn struct {
	Channel  int
	Key      any
	Velocity float64
	Source   string
}

func (k *KeyOn) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("key on: %w", err)
	}
	if len(parts) < 3 || len(parts) > 4 {
		return fmt.Errorf("key on: want 3 or 4 elements, got %d", len(parts))
	}

	var out KeyOn
	if err := json.Unmarshal(parts[0], &out.Channel); err != nil {
		return fmt.Errorf("key on channel: %w", err)
	}
	if err := json.Unmarshal(parts[1], &out.Key); err != nil {
		return fmt.Errorf("key on key: %w", err)
	}
	if err := json.Unmarshal(parts[2], &out.Velocity); err != nil {
		return fmt.Errorf("key on velocity: %w", err)
	}
	if len(parts) == 4 {
		var src *string
		if err := json.Unmarshal(parts[3], &src); err != nil {
			return fmt.Errorf("key on source: %w", err)
		}
		if src != nil {
			out.Source = *src
		}
	}
	*k = out
	return nil
}

func (k KeyOn) MarshalJSON() ([]byte, error) {
	parts := []any{k.Channel, k.Key, k.Velocity}
	if k.Source != "" {
		parts = append(parts, k.Source)
	}
	return json.Marshal(parts)
}
