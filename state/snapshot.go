package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for an output format other than text, json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// Snapshot is the serializable view of a Context.
type Snapshot struct {
	CurrentState Dice   `json:"current_state" yaml:"current_state"`
	Number       *uint8 `json:"number" yaml:"number"`
}

func (s Snapshot) String() string {
	return fmt.Sprintf("StateContext { number: %s, current_state: %s }", formatNumber(s.Number), s.CurrentState)
}

// Format renders the snapshot in one of the supported output formats.
func (s Snapshot) Format(format string) ([]byte, error) {
	switch format {
	case "", FormatText:
		return []byte(s.String() + "\n"), nil
	case FormatJSON:
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		return append([]byte("---\n"), data...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
