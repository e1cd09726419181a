package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rolf/preview"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

type Config struct {
	Protocol      string  `json:"protocol"`
	PreviewColumn float64 `json:"preview_column"`
	TempDir       string  `json:"temp_dir"`
	TempPrefix    string  `json:"temp_prefix"`
	Filter        string  `json:"filter"`
	Watch         bool    `json:"watch"`
	Theme         string  `json:"theme"`
	StatusFg      string  `json:"status_fg"`
	StatusBg      string  `json:"status_bg"`
	LogLevel      string  `json:"log_level"`
	LogFile       string  `json:"log_file"`
}

type ColorScheme struct {
	Name       string
	Background tcell.Color
	Foreground tcell.Color
	StatusBg   tcell.Color
	StatusFg   tcell.Color
	ErrorFg    tcell.Color
}

var Themes = map[string]*ColorScheme{
	"dark": {
		Name:       "Dark",
		Background: tcell.ColorBlack,
		Foreground: tcell.ColorWhite,
		StatusBg:   tcell.ColorBlack,
		StatusFg:   tcell.ColorWhite,
		ErrorFg:    tcell.ColorRed,
	},
	"light": {
		Name:       "Light",
		Background: tcell.ColorWhite,
		Foreground: tcell.ColorBlack,
		StatusBg:   tcell.ColorWhite,
		StatusFg:   tcell.ColorBlack,
		ErrorFg:    tcell.ColorDarkRed,
	},
	"monokai": {
		Name:       "Monokai",
		Background: tcell.NewRGBColor(39, 40, 34),
		Foreground: tcell.NewRGBColor(248, 248, 242),
		StatusBg:   tcell.NewRGBColor(39, 40, 34),
		StatusFg:   tcell.NewRGBColor(230, 219, 116),
		ErrorFg:    tcell.NewRGBColor(249, 38, 114),
	},
	"nord": {
		Name:       "Nord",
		Background: tcell.NewRGBColor(46, 52, 64),
		Foreground: tcell.NewRGBColor(236, 239, 244),
		StatusBg:   tcell.NewRGBColor(46, 52, 64),
		StatusFg:   tcell.NewRGBColor(136, 192, 208),
		ErrorFg:    tcell.NewRGBColor(191, 97, 106),
	},
	"gruvbox": {
		Name:       "Gruvbox Dark",
		Background: tcell.NewRGBColor(40, 40, 40),
		Foreground: tcell.NewRGBColor(235, 219, 178),
		StatusBg:   tcell.NewRGBColor(40, 40, 40),
		StatusFg:   tcell.NewRGBColor(250, 189, 47),
		ErrorFg:    tcell.NewRGBColor(251, 73, 52),
	},
}

func Default() *Config {
	return &Config{
		Protocol:      "auto",
		PreviewColumn: 0.5,
		TempPrefix:    preview.DefaultTempPrefix,
		Filter:        "lanczos",
		Theme:         "monokai",
		LogLevel:      "info",
	}
}

// GetTheme returns the configured theme with any status colour overrides
// applied. Invalid overrides are ignored.
func (c *Config) GetTheme() *ColorScheme {
	base, ok := Themes[c.Theme]
	if !ok {
		base = Themes["monokai"]
	}
	theme := *base
	if col, err := ParseColor(c.StatusFg); err == nil {
		theme.StatusFg = col
	}
	if col, err := ParseColor(c.StatusBg); err == nil {
		theme.StatusBg = col
	}
	return &theme
}

// ParseColor parses a "#rrggbb" hex colour.
func ParseColor(hex string) (tcell.Color, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return tcell.ColorDefault, fmt.Errorf("empty colour")
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	col, err := colorful.Hex(hex)
	if err != nil {
		return tcell.ColorDefault, err
	}
	r, g, b := col.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b)), nil
}

// OriginX returns the first column of the preview for a terminal cols wide.
func (c *Config) OriginX(cols int) int {
	ratio := c.PreviewColumn
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}
	return int(float64(cols) * ratio)
}

func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rolf", "settings.json")
}

func Load() (*Config, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save() error {
	path := ConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
