package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const appName = "git-substatus"

// DefaultUpdateURL is where --update downloads a newer build.
const DefaultUpdateURL = "https://github.com/gesquive/git-substatus/releases/latest/download/git-substatus"

// DefaultVersionURL holds the released version as `version: "x.y"`.
const DefaultVersionURL = "https://github.com/gesquive/git-substatus/releases/latest/download/VERSION"

type Config struct {
	Theme     string   `yaml:"theme"`
	NameWidth int      `yaml:"name_width"`
	Jobs      int      `yaml:"jobs"`
	Pager     string   `yaml:"pager"`
	PagerArgs []string `yaml:"pager_args"`
	UpdateURL string   `yaml:"update_url"`
	// VersionURL may be left empty when UpdateURL itself carries the marker.
	VersionURL string `yaml:"version_url"`
	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
}

// LookPathFunc is the function signature for looking up executables.
type LookPathFunc func(name string) (string, error)

func DefaultConfig() Config {
	return Config{
		Theme:     "ansi",
		NameWidth: 50,
		Jobs:      1,
		Pager:     "less",
		// -F quit if one screen, -R pass color codes, -S chop long lines,
		// -X keep the screen, -K exit on interrupt.
		PagerArgs:  []string{"-F", "-R", "-S", "-X", "-K"},
		UpdateURL:  DefaultUpdateURL,
		VersionURL: DefaultVersionURL,
		LogLevel:   "warn",
	}
}

func Load() (Config, error) {
	return LoadFrom(getConfigPath())
}

// LoadFromDir loads config.yaml from an explicit configuration directory.
func LoadFromDir(dir string) (Config, error) {
	return LoadFrom(filepath.Join(dir, "config.yaml"))
}

func LoadFrom(configPath string) (Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", configPath, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Theme == "" {
		c.Theme = def.Theme
	}
	if c.NameWidth == 0 {
		c.NameWidth = def.NameWidth
	}
	if c.Jobs == 0 {
		c.Jobs = def.Jobs
	}
	if c.Pager == "" {
		c.Pager = def.Pager
		if c.PagerArgs == nil {
			c.PagerArgs = def.PagerArgs
		}
	}
	if c.UpdateURL == "" {
		c.UpdateURL = def.UpdateURL
		if c.VersionURL == "" {
			c.VersionURL = def.VersionURL
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate reports settings that cannot produce usable output.
func (c *Config) Validate() error {
	if c.NameWidth < 4 {
		return fmt.Errorf("name_width must be at least 4, got %d", c.NameWidth)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	switch c.Theme {
	case "ansi", "latte", "frappe", "macchiato", "mocha":
	default:
		return fmt.Errorf("unknown theme %q", c.Theme)
	}
	return nil
}

// DetectedPager returns the absolute path of the configured pager, or ""
// when it is not installed.
func (c *Config) DetectedPager() string {
	return c.DetectedPagerWith(exec.LookPath)
}

// DetectedPagerWith resolves the configured pager using the provided lookup function.
func (c *Config) DetectedPagerWith(lookPath LookPathFunc) string {
	if c.Pager == "" {
		return ""
	}
	path, err := lookPath(c.Pager)
	if err != nil {
		return ""
	}
	return path
}

// ResolvePath expands a leading ~/ to the user's home directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName, "config.yaml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", appName, "config.yaml")
	}

	return filepath.Join(home, ".config", appName, "config.yaml")
}
