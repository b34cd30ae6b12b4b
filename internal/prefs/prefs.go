// Package prefs persists the UI choices a user makes while memheat runs.
// They live in ~/.config/memheat/prefs.toml, apart from the config file,
// so cycling a theme never rewrites hand-edited settings.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/memheat/internal/config"
)

// Prefs holds user preferences for memheat.
type Prefs struct {
	Theme       string `toml:"theme"`
	ColorScheme string `toml:"color_scheme"`
}

const (
	defaultPrefsPath   = "~/.config/memheat/prefs.toml"
	defaultTheme       = "Dracula"
	defaultColorScheme = "gradient"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// withDefaults fills blank fields.
func (p Prefs) withDefaults() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.ColorScheme = strings.TrimSpace(p.ColorScheme)
	if p.ColorScheme == "" {
		p.ColorScheme = defaultColorScheme
	}
	return p
}

// Load reads preferences from path (empty uses DefaultPath). A missing file
// yields defaults and no error; an unreadable or invalid one yields defaults
// and the reason, which callers may log and ignore.
func Load(path string) (Prefs, error) {
	resolved, err := resolve(path)
	if err != nil {
		return Prefs{}.withDefaults(), err
	}

	data, err := os.ReadFile(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return Prefs{}.withDefaults(), nil
	}
	if err != nil {
		return Prefs{}.withDefaults(), fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{}.withDefaults(), fmt.Errorf("parse prefs %s: %w", resolved, err)
	}
	return p.withDefaults(), nil
}

// Save writes preferences to path, creating directories as needed. The file
// is replaced by rename so a crash never leaves it half written.
func Save(path string, p Prefs) error {
	resolved, err := resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p.withDefaults())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve prefs path: %w", err)
	}
	return resolved, nil
}
