// Package config loads session-recall settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvConfig      = "SESSION_RECALL_CONFIG"
	EnvSessionsDir = "SESSION_RECALL_SESSIONS_DIR"
	EnvProjectsDir = "SESSION_RECALL_PROJECTS_DIR"
	EnvDB          = "SESSION_RECALL_DB"
	EnvLogLevel    = "SESSION_RECALL_LOG_LEVEL"
)

// Config is the full set of settings.
type Config struct {
	SessionsDir  string       `yaml:"sessions_dir"`
	ProjectsDir  string       `yaml:"projects_dir"`
	Archive      Archive      `yaml:"archive"`
	Log          Log          `yaml:"log"`
	Segmentation Segmentation `yaml:"segmentation"`
	Topics       Topics       `yaml:"topics"`
	Recovery     Recovery     `yaml:"recovery"`
	Discovery    Discovery    `yaml:"discovery"`
}

type Archive struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

type Log struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

type Segmentation struct {
	MinLines      int           `yaml:"min_lines"`
	MaxLines      int           `yaml:"max_lines"`
	TimeGap       time.Duration `yaml:"time_gap"`
	NewTopicChars int           `yaml:"new_topic_chars"`
}

type Topics struct {
	Extra []string `yaml:"extra"`
}

// Document is a persistence document read from the project directory.
type Document struct {
	File  string `yaml:"file"`
	Title string `yaml:"title"`
	Tasks bool   `yaml:"tasks,omitempty"`
}

type Recovery struct {
	Budget       int        `yaml:"budget"`
	CharsPerLine int        `yaml:"chars_per_line"`
	MaxDocChars  int        `yaml:"max_doc_chars"`
	Documents    []Document `yaml:"documents"`
}

type Discovery struct {
	Exclude []string `yaml:"exclude"`
}

// Default returns the built-in configuration rooted at the user's home.
func Default() *Config {
	home, _ := os.UserHomeDir()
	claude := filepath.Join(home, ".claude")
	return &Config{
		SessionsDir: filepath.Join(claude, "sessions"),
		ProjectsDir: filepath.Join(claude, "projects"),
		Archive: Archive{
			Path:    filepath.Join(home, ".session-recall", "archive.db"),
			Enabled: true,
		},
		Log: Log{
			Dir:   filepath.Join(claude, "hooks", "logs"),
			Level: "info",
		},
		Segmentation: Segmentation{
			MinLines:      10,
			MaxLines:      100,
			TimeGap:       5 * time.Minute,
			NewTopicChars: 50,
		},
		Recovery: Recovery{
			Budget:       8000,
			CharsPerLine: 100,
			MaxDocChars:  2500,
			Documents: []Document{
				{File: "context.md", Title: "Current Goal & Decisions"},
				{File: "todos.md", Title: "Task Progress", Tasks: true},
				{File: "insights.md", Title: "Accumulated Learnings"},
			},
		},
		Discovery: Discovery{
			Exclude: []string{"**/subagents/**"},
		},
	}
}

// DefaultPath is where the config file lives unless overridden.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return ExpandHome(p)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".session-recall", "config.yaml")
}

// Load reads the file at path (DefaultPath when empty) over the defaults and
// applies environment overrides. A missing file is not an error. On a parse
// error the defaults, with environment overrides, are returned alongside it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	var loadErr error
	data, err := os.ReadFile(ExpandHome(path))
	switch {
	case err == nil:
		overlay := *cfg
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			loadErr = fmt.Errorf("parse config %s: %w", path, err)
		} else {
			*cfg = overlay
		}
	case !errors.Is(err, os.ErrNotExist):
		loadErr = fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, loadErr
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSessionsDir); v != "" {
		c.SessionsDir = v
	}
	if v := os.Getenv(EnvProjectsDir); v != "" {
		c.ProjectsDir = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.Archive.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) normalize() {
	c.SessionsDir = ExpandHome(c.SessionsDir)
	c.ProjectsDir = ExpandHome(c.ProjectsDir)
	c.Archive.Path = ExpandHome(c.Archive.Path)
	c.Log.Dir = ExpandHome(c.Log.Dir)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// TaskDocument returns the persistence document that carries the task list.
func (r Recovery) TaskDocument() (Document, bool) {
	for _, d := range r.Documents {
		if d.Tasks {
			return d, true
		}
	}
	return Document{}, false
}
