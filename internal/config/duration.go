package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can use human-readable
// values like "500ms" or "1.5s". Bare numbers are read as seconds.
type Duration struct {
	time.Duration
}

// MarshalYAML emits the duration in time.Duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// UnmarshalYAML accepts either a duration string or numeric seconds.
// The node tag decides which form we have: decoding into a string succeeds
// for numeric scalars too, so the numbers must be recognized up front.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!!int", "!!float":
		var asSeconds float64
		if err := value.Decode(&asSeconds); err != nil {
			return fmt.Errorf("unsupported duration value %q: %w", value.Value, err)
		}
		d.Duration = time.Duration(asSeconds * float64(time.Second))
		return nil
	}

	var asString string
	if err := value.Decode(&asString); err != nil {
		return fmt.Errorf("unsupported duration value %q: %w", value.Value, err)
	}
	parsed, err := time.ParseDuration(asString)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", asString, err)
	}
	d.Duration = parsed
	return nil
}

// IsZero reports whether the duration is zero.
func (d Duration) IsZero() bool {
	return d.Duration == 0
}
