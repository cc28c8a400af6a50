// Package config loads settings for the diff commands.
//
// Values come from built-in defaults, then an optional TOML file, then
// environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultFile is read when no path is given and it exists.
const DefaultFile = "diff.toml"

type Config struct {
	Repo      RepoConfig      `toml:"repo"`
	Templates TemplatesConfig `toml:"templates"`
	Server    ServerConfig    `toml:"server"`
	Generate  GenerateConfig  `toml:"generate"`
	View      ViewConfig      `toml:"view"`
	Log       LogConfig       `toml:"log"`
}

type RepoConfig struct {
	// URL is a clone URL or a path to a local repository.
	URL string `toml:"url"`
}

type TemplatesConfig struct {
	// Dir overrides the embedded templates when set.
	Dir string `toml:"dir"`
	// Watch reloads templates from Dir when they change (serve only).
	Watch bool `toml:"watch"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type GenerateConfig struct {
	Output string `toml:"output"`
	// Content also writes every file of every tag under content/.
	Content bool `toml:"content"`
}

type ViewConfig struct {
	// BaseURL is an http(s) URL of a running server or a path to a generated site.
	BaseURL  string `toml:"base_url"`
	From     string `toml:"from"`
	To       string `toml:"to"`
	Language string `toml:"language"`
	// StackBelow is the terminal width (columns) under which panes stack.
	StackBelow int    `toml:"stack_below"`
	Minimap    bool   `toml:"minimap"`
	LogFile    string `toml:"log_file"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() Config {
	return Config{
		Repo: RepoConfig{
			URL: "https://github.com/ilyabirman/Aegea-Comparisons",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Generate: GenerateConfig{
			Output:  "output",
			Content: true,
		},
		View: ViewConfig{
			BaseURL:    "http://localhost:8080/",
			Language:   "php",
			StackBelow: 120,
			LogFile:    "diff-view.log",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. An explicit path must exist; without one
// DefaultFile is used if present.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("REPO_URL"); v != "" {
		c.Repo.URL = v
	}
	if v := os.Getenv("TEMPLATES_DIR"); v != "" {
		c.Templates.Dir = v
	}
	if v := os.Getenv("DIFF_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DIFF_BASE_URL"); v != "" {
		c.View.BaseURL = v
	}
	if v := os.Getenv("DIFF_STACK_BELOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DIFF_STACK_BELOW: %w", err)
		}
		c.View.StackBelow = n
	}
	if v := os.Getenv("DIFF_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Repo.URL == "" {
		errs = append(errs, errors.New("repo.url is required"))
	}
	if c.Templates.Watch && c.Templates.Dir == "" {
		errs = append(errs, errors.New("templates.watch needs templates.dir"))
	}
	if c.View.StackBelow < 0 {
		errs = append(errs, fmt.Errorf("view.stack_below must not be negative, got %d", c.View.StackBelow))
	}
	if c.View.BaseURL != "" {
		if _, err := url.Parse(c.View.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("view.base_url: %w", err))
		}
	}
	return errors.Join(errs...)
}
