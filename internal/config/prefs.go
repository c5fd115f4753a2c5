package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user interface preferences. They are separate from Config
// because the UI writes them back.
type Prefs struct {
	Theme string `toml:"theme"`
}

const (
	defaultPrefsPath = "~/.config/tickerboard/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPrefsPath returns the default preferences file path.
func DefaultPrefsPath() string {
	return defaultPrefsPath
}

// LoadPrefs reads preferences from path. Any failure yields the defaults.
func LoadPrefs(path string) Prefs {
	prefs := Prefs{Theme: defaultTheme}

	resolved, err := resolvePrefsPath(path)
	if err != nil {
		return prefs
	}
	file, err := os.Open(resolved)
	if err != nil {
		return prefs
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs
	}
	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}
	}
	prefs.Theme = strings.TrimSpace(prefs.Theme)
	if prefs.Theme == "" {
		prefs.Theme = defaultTheme
	}
	return prefs
}

// SavePrefs writes preferences to path, creating directories as needed.
func SavePrefs(path string, p Prefs) error {
	resolved, err := resolvePrefsPath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePrefsPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}
