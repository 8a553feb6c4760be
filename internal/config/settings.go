package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Settings is a snapshot of server option values keyed by option name.
type Settings map[string]Value

// DefaultSettings returns the registry defaults for every option.
func DefaultSettings() Settings {
	out := make(Settings, len(registry))
	for _, opt := range registry {
		out[opt.Name] = opt.Default
	}

	return out
}

// SettingsStore persists server option values as JSON next to the app
// config, using the registry to type raw JSON values on load.
type SettingsStore struct {
	path string
}

func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Load returns the registry defaults overlaid with whatever the settings
// file holds. A missing file yields pure defaults. Unknown names and
// values of the wrong shape are ignored.
func (s *SettingsStore) Load() (Settings, error) {
	settings := DefaultSettings()

	cleanPath := filepath.Clean(s.path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}

		return nil, fmt.Errorf("read server settings: %w", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode server settings json: %w", err)
	}

	for name, rawValue := range decoded {
		opt, ok := OptionByName(name)
		if !ok {
			continue
		}
		value, err := decodeValue(opt, rawValue)
		if err != nil {
			continue
		}
		settings[name] = value
	}

	return settings, nil
}

// Save writes the full snapshot atomically.
func (s *SettingsStore) Save(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	encoded := make(map[string]any, len(settings))
	for name, value := range settings {
		if _, ok := OptionByName(name); !ok {
			continue
		}
		encoded[name] = encodeValue(value)
	}

	raw, err := json.MarshalIndent(encoded, "", "  ")
	if err != nil {
		return fmt.Errorf("encode server settings: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp server settings: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp server settings: %w", err)
	}

	return nil
}

// Change overlays updates on the stored snapshot and persists the result.
func (s *SettingsStore) Change(updates Settings) error {
	settings, err := s.Load()
	if err != nil {
		return err
	}
	for name, value := range updates {
		if _, ok := OptionByName(name); !ok {
			return fmt.Errorf("unknown server option: %s", name)
		}
		settings[name] = value
	}

	return s.Save(settings)
}

func encodeValue(value Value) any {
	switch value.Kind() {
	case KindBool:
		return value.Bool()
	case KindInt:
		return value.Int()
	case KindFloat:
		return value.Float()
	default:
		return value.Text()
	}
}

func decodeValue(opt Option, raw json.RawMessage) (Value, error) {
	switch opt.Kind {
	case KindBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return Value{}, fmt.Errorf("option %s: %w", opt.Name, err)
		}

		return BoolValue(v), nil
	case KindInt:
		var v int
		if err := json.Unmarshal(raw, &v); err != nil {
			return Value{}, fmt.Errorf("option %s: %w", opt.Name, err)
		}

		return IntValue(v), nil
	case KindFloat:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return Value{}, fmt.Errorf("option %s: %w", opt.Name, err)
		}

		return FloatValue(v), nil
	case KindChoice:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return Value{}, fmt.Errorf("option %s: %w", opt.Name, err)
		}

		return ChoiceValue(v), nil
	default:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return Value{}, fmt.Errorf("option %s: %w", opt.Name, err)
		}

		return TextValue(v), nil
	}
}
