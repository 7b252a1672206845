package site

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config contains the site settings read from the TOML configuration file.
type Config struct {
	Title         string            `toml:"title"`         // Name of the blog
	Author        string            `toml:"author"`        // Shown in the footer
	BaseURL       string            `toml:"baseurl"`       // Absolute URL prefix for the sitemap
	Intro         string            `toml:"intro"`         // Markdown shown above the post list
	Expires       Duration          `toml:"expires"`       // Expires header for pages
	StaticExpires Duration          `toml:"staticexpires"` // Expires header for static files
	Headers       map[string]string `toml:"headers"`       // Extra response headers
	CORS          CORSConfig        `toml:"cors"`
}

// CORSConfig holds the cross-origin settings.
type CORSConfig struct {
	Origins []string `toml:"origins"` // Allowed origins; empty allows any
}

// DefaultConfig returns the settings used when there is no configuration file.
func DefaultConfig() *Config {
	return &Config{
		Title: "Blog",
	}
}

// LoadConfig reads the configuration file name from fsys. It is not an error
// if the file does not exist; the defaults are returned instead. Settings
// missing from the file keep their default values.
func LoadConfig(fsys fs.FS, name string) (*Config, error) {
	cfg := DefaultConfig()
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("Cannot read config file: %w", err)
	}
	err = toml.Unmarshal(b, cfg)
	if err != nil {
		return nil, fmt.Errorf("Cannot parse config file: %w", err)
	}
	return cfg, nil
}

// Duration is a time.Duration written as a string like "10m" in TOML.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() (text []byte, err error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	p, err := time.ParseDuration(string(text))
	*d = Duration(p)
	return err
}
