// Package prefs persists the UI choices pawswipe remembers between runs: the
// color theme and whether swipe cards hide their description.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/pawswipe/internal/config"
)

// DefaultTheme is the theme used until the user picks another.
const DefaultTheme = "Nightfox"

// Prefs holds the remembered UI choices.
type Prefs struct {
	Theme        string `toml:"theme"`
	CompactCards bool   `toml:"compact_cards"`
}

// Defaults returns the choices of a first run.
func Defaults() Prefs {
	return Prefs{Theme: DefaultTheme}
}

// DefaultPath is where preferences live unless --prefs says otherwise.
func DefaultPath() string {
	return "~/.config/pawswipe/prefs.toml"
}

// Load reads the preferences at path, or at DefaultPath when path is empty.
// A missing or unreadable file yields Defaults so a bad prefs file never
// keeps the UI from starting.
func Load(path string) Prefs {
	file, err := resolve(path)
	if err != nil {
		return Defaults()
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return Defaults()
	}
	p := Defaults()
	if err := toml.Unmarshal(raw, &p); err != nil {
		return Defaults()
	}
	return p.normalize()
}

// Save replaces the preferences file. The new content is written to a
// temporary file in the same directory and renamed into place.
func Save(path string, p Prefs) error {
	file, err := resolve(path)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	raw, err := toml.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), file); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func (p Prefs) normalize() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = DefaultTheme
	}
	return p
}

func resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	return config.ExpandPath(path)
}
