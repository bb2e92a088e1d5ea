package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// prefsFile holds the viewer toggles remembered between sessions.
const prefsFile = "viewer.toml"

// Prefs are the viewer toggles the user flips at runtime.
type Prefs struct {
	AutoRefresh bool `toml:"auto_refresh"`
	FullText    bool `toml:"full_text"`
	Clock24h    bool `toml:"clock_24h"`
}

// PrefsPath is where SavePrefs writes.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.HomeDir, prefsFile)
}

// LoadPrefs returns the saved toggles. Without a saved file the [client]
// settings are the defaults.
func (c *Config) LoadPrefs() (Prefs, error) {
	p := Prefs{
		AutoRefresh: c.Client.AutoRefresh,
		FullText:    c.Client.FullText,
		Clock24h:    c.Client.Clock24h,
	}
	saved := p
	if _, err := toml.DecodeFile(c.PrefsPath(), &saved); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("decode %s: %w", c.PrefsPath(), err)
	}
	return saved, nil
}

// SavePrefs writes p through a temp file and rename, so a concurrent reader
// never sees a partial file.
func (c *Config) SavePrefs(p Prefs) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := c.EnsureHomeDir(); err != nil {
		return fmt.Errorf("create home dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.HomeDir, prefsFile+".tmp.")
	if err != nil {
		return fmt.Errorf("create temp prefs file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close prefs: %w", err)
	}
	if err := os.Rename(tmpPath, c.PrefsPath()); err != nil {
		return fmt.Errorf("rename prefs: %w", err)
	}
	return nil
}
