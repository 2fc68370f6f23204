package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/llm-doc-digest/models"
	"github.com/dtnitsch/llm-doc-digest/pkg/assembler"
	"github.com/dtnitsch/llm-doc-digest/pkg/extractors"
	"github.com/dtnitsch/llm-doc-digest/pkg/upstream"
	"github.com/dtnitsch/llm-doc-digest/pkg/upstream/context7"
)

const (
	FileName      = "llm-doc-digest.yaml"
	TransportExec = "exec"
	TransportMCP  = "mcp"

	DefaultTimeout = 30 * time.Second
	// MinTimeout also catches a bare integer in the yaml, which decodes as nanoseconds.
	MinTimeout = 10 * time.Millisecond
)

// UpstreamConfig selects how the lookup service is reached.
type UpstreamConfig struct {
	Transport string `yaml:"transport"`
	// Command is the child process for the exec transport. Empty means this
	// binary's own upstream command.
	Command []string `yaml:"command,omitempty"`
	// MCPCommand starts an MCP stdio server for the mcp transport.
	MCPCommand  []string `yaml:"mcp_command,omitempty"`
	ResolveTool string   `yaml:"resolve_tool"`
	DocsTool    string   `yaml:"docs_tool"`
	BaseURL     string   `yaml:"base_url"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	// Timeout bounds each boundary call, written as a duration ("30s", "1500ms").
	Timeout time.Duration `yaml:"timeout"`
	Tokens  int           `yaml:"tokens"`
}

// ExtractionConfig tunes the digest assembler.
type ExtractionConfig struct {
	Code              assembler.Caps `yaml:"code"`
	Info              assembler.Caps `yaml:"info"`
	TruncateChars     int            `yaml:"truncate_chars"`
	MinParagraphChars int            `yaml:"min_paragraph_chars"`
	SignaturePatterns []string       `yaml:"signature_patterns,omitempty"`
	Concurrent        bool           `yaml:"concurrent"`
}

// Profile carries per-library knowledge: names it answers to, an optional
// canonical id that makes resolution unnecessary, and extraction overrides.
type Profile struct {
	Name              string          `yaml:"name"`
	Aliases           []string        `yaml:"aliases,omitempty"`
	ID                string          `yaml:"id,omitempty"`
	SignaturePrefixes []string        `yaml:"signature_prefixes,omitempty"`
	Code              *assembler.Caps `yaml:"code,omitempty"`
	Info              *assembler.Caps `yaml:"info,omitempty"`
}

// HistoryConfig controls the optional run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Profiles   []Profile        `yaml:"profiles,omitempty"`
	History    HistoryConfig    `yaml:"history"`
	LogLevel   string           `yaml:"log_level"`
}

// Load reads a config from path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./llm-doc-digest.yaml, then ~/.config/llm-doc-digest/config.yaml.
// When neither exists the defaults are returned with an empty path.
func LoadDefault() (*AppConfig, string, error) {
	if _, err := os.Stat(FileName); err == nil {
		cfg, err := Load(FileName)
		return cfg, FileName, err
	}
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".config", "llm-doc-digest", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			cfg, err := Load(userPath)
			return cfg, userPath, err
		}
	}
	return defaultConfig(), "", nil
}

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	u := &cfg.Upstream
	if u.Transport == "" {
		u.Transport = TransportExec
	}
	if u.ResolveTool == "" {
		u.ResolveTool = upstream.DefaultResolveTool
	}
	if u.DocsTool == "" {
		u.DocsTool = upstream.DefaultDocsTool
	}
	if u.BaseURL == "" {
		u.BaseURL = context7.DefaultBaseURL
	}
	if u.APIKeyEnv == "" {
		u.APIKeyEnv = "CONTEXT7_API_KEY"
	}
	if u.Timeout == 0 {
		u.Timeout = DefaultTimeout
	}

	e := &cfg.Extraction
	if e.Code == (assembler.Caps{}) {
		e.Code = assembler.DefaultCodeCaps
	}
	if e.Info == (assembler.Caps{}) {
		e.Info = assembler.DefaultInfoCaps
	}
	if e.TruncateChars <= 0 {
		e.TruncateChars = assembler.DefaultTruncateChars
	}
	if e.MinParagraphChars <= 0 {
		e.MinParagraphChars = assembler.DefaultMinParagraphChars
	}
	if len(e.SignaturePatterns) == 0 {
		e.SignaturePatterns = extractors.DefaultDeclarationPatterns
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *AppConfig) Validate() error {
	switch c.Upstream.Transport {
	case TransportExec:
	case TransportMCP:
		if len(c.Upstream.MCPCommand) == 0 {
			return fmt.Errorf("upstream.mcp_command is required for the mcp transport")
		}
	default:
		return fmt.Errorf("unknown upstream.transport %q", c.Upstream.Transport)
	}
	if c.Upstream.Timeout < MinTimeout {
		return fmt.Errorf("upstream.timeout %v is below %v; use a duration such as 30s", c.Upstream.Timeout, MinTimeout)
	}
	if _, err := extractors.NewSignatureMatcher(c.Extraction.SignaturePatterns, nil); err != nil {
		return err
	}
	for i, p := range c.Profiles {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("profiles[%d]: name is required", i)
		}
		if p.ID != "" && !models.IsCanonicalID(p.ID) {
			return fmt.Errorf("profiles[%d]: id %q is not of the form /org/project", i, p.ID)
		}
	}
	return nil
}

// Timeout is the per-call upstream bound.
func (c *AppConfig) Timeout() time.Duration {
	return c.Upstream.Timeout
}

// Aliases maps every lower-cased profile name and alias to the profile's id.
// Profiles without an id contribute nothing.
func (c *AppConfig) Aliases() map[string]models.CanonicalLibraryID {
	out := make(map[string]models.CanonicalLibraryID)
	for _, p := range c.Profiles {
		if p.ID == "" {
			continue
		}
		for _, name := range append([]string{p.Name}, p.Aliases...) {
			out[strings.ToLower(strings.TrimSpace(name))] = models.CanonicalLibraryID(p.ID)
		}
	}
	return out
}

// ProfileFor finds the profile for a library by name, alias or canonical id.
func (c *AppConfig) ProfileFor(name string, id models.CanonicalLibraryID) *Profile {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if id != "" && p.ID == string(id) {
			return p
		}
		if name == "" {
			continue
		}
		if strings.ToLower(p.Name) == name {
			return p
		}
		for _, a := range p.Aliases {
			if strings.ToLower(a) == name {
				return p
			}
		}
	}
	return nil
}

// AssemblerOptions merges the global extraction settings with a profile's
// overrides.
func (c *AppConfig) AssemblerOptions(p *Profile) (assembler.Options, error) {
	var prefixes []string
	opts := assembler.Options{
		CodeCaps:          c.Extraction.Code,
		InfoCaps:          c.Extraction.Info,
		TruncateChars:     c.Extraction.TruncateChars,
		MinParagraphChars: c.Extraction.MinParagraphChars,
		Concurrent:        c.Extraction.Concurrent,
	}
	if p != nil {
		prefixes = p.SignaturePrefixes
		if p.Code != nil {
			opts.CodeCaps = *p.Code
		}
		if p.Info != nil {
			opts.InfoCaps = *p.Info
		}
	}
	m, err := extractors.NewSignatureMatcher(c.Extraction.SignaturePatterns, prefixes)
	if err != nil {
		return opts, err
	}
	opts.Matcher = m
	return opts, nil
}
