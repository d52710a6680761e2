package internal

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultDomain = "gethopscotch"

// Config carries every endpoint and policy knob the builder uses.
type Config struct {
	Domains          []string `yaml:"domains"`
	DefaultDomain    string   `yaml:"default_domain"`
	MetadataTemplate string   `yaml:"metadata_url"`
	IndexURL         string   `yaml:"index_url"`
	RuntimeRoot      string   `yaml:"runtime_root"`
	ImagesRoot       string   `yaml:"images_root"`
	SoundsRoot       string   `yaml:"sounds_root"`
	SampleProjects   []string `yaml:"sample_projects"`
	Concurrency      int      `yaml:"concurrency"`
	MaxProbes        int      `yaml:"max_probes"`
	TemplateIgnore   []string `yaml:"template_ignore"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		Domains:          []string{defaultDomain},
		DefaultDomain:    defaultDomain,
		MetadataTemplate: "https://community.{domain}.com/api/v1/projects/{id}",
		IndexURL:         "https://s3.amazonaws.com/hopscotch-webplayer/production/EDITOR_INDEX",
		RuntimeRoot:      "https://s3.amazonaws.com/hopscotch-webplayer/production/",
		ImagesRoot:       "https://hopscotch-images.s3.amazonaws.com/production/images/project-images/",
		SoundsRoot:       "https://s3.amazonaws.com/hopscotch-webplayer/production/sounds/",
		SampleProjects: []string{
			"https://c.gethopscotch.com/p/-1",
			"https://c.gethopscotch.com/p/138o34zhv8",
			"https://c.gethopscotch.com/p/12o83o6bsw",
			"https://c.gethopscotch.com/p/12ds9b7p3y",
			"https://c.gethopscotch.com/p/xii9vn8sh",
			"https://c.gethopscotch.com/p/12juixsl0n",
			"https://c.gethopscotch.com/p/11bycfpp0j",
			"https://c.gethopscotch.com/p/13pyjx5u37",
		},
		Concurrency:    6,
		MaxProbes:      DefaultMaxProbes,
		TemplateIgnore: []string{"**/.DS_Store", "**/.gitkeep"},
	}
	if u := os.Getenv("PETRICHOR_INDEX_URL"); u != "" {
		cfg.IndexURL = u
	}
	return cfg
}

// LoadConfig overlays the yaml file at path onto the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ArgumentError{Msg: fmt.Sprintf("parse config %s: %s", path, err)}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxProbes < 0 {
		cfg.MaxProbes = DefaultMaxProbes
	}
	return cfg, nil
}

// LoadDomains reads an allowlist file holding a json or yaml list of domains.
func LoadDomains(path string) ([]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, &ArgumentError{Msg: fmt.Sprintf("read domain allowlist: %s", err)}
	}
	var domains []string
	if err := yaml.Unmarshal(data, &domains); err != nil {
		return nil, &ArgumentError{Msg: fmt.Sprintf("domain allowlist %s must be a list of domains: %s", path, err)}
	}
	out := domains[:0]
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

func (c *Config) DomainAllowed(domain string) bool {
	for _, d := range c.Domains {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

func (c *Config) MetadataURL(domain, id string) string {
	return strings.NewReplacer("{domain}", domain, "{id}", id).Replace(c.MetadataTemplate)
}

func (c *Config) PlayerURL(b RuntimeBuild) string {
	return joinURL(c.RuntimeRoot, b.Path)
}

func (c *Config) PixiURL(b RuntimeBuild) string {
	return joinURL(c.RuntimeRoot, fmt.Sprintf("pixi/%s/pixi.min.js", b.PixiVersion))
}

func (c *Config) ImageURL(name string) string {
	return joinURL(c.ImagesRoot, escapePath(name))
}

func (c *Config) SoundURL(name string) string {
	return joinURL(c.SoundsRoot, escapePath(name))
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func joinURL(root, p string) string {
	return strings.TrimRight(root, "/") + "/" + strings.TrimLeft(p, "/")
}
