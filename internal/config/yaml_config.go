package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// List-shaped policy settings are easier to manage in YAML than env vars.
type YAMLConfig struct {
	ContentFilter ContentFilterConfig `yaml:"content_filter"`
	Uploads       UploadsConfig       `yaml:"uploads"`
}

// ContentFilterConfig overrides the review content filter.
type ContentFilterConfig struct {
	Phrases          []string `yaml:"phrases"`
	Patterns         []string `yaml:"patterns"` // Go regular expressions, matched case-insensitively
	ExtendDefaults   bool     `yaml:"extend_defaults"`
	PronounThreshold int      `yaml:"pronoun_threshold"`
	PronounMaxLength int      `yaml:"pronoun_max_length"`
}

// UploadsConfig overrides the image upload allow-list.
type UploadsConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	path := getEnv("CONFIG_FILE", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	return ParseYAMLConfig(data)
}

// ParseYAMLConfig decodes a YAML document into a YAMLConfig.
func ParseYAMLConfig(data []byte) (*YAMLConfig, error) {
	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Apply merges the YAML overrides into p.
func (c *YAMLConfig) Apply(p *Policy) {
	if c == nil {
		return
	}

	cf := c.ContentFilter
	if len(cf.Phrases) > 0 {
		if cf.ExtendDefaults {
			p.BlockedPhrases = append(p.BlockedPhrases, cf.Phrases...)
		} else {
			p.BlockedPhrases = cf.Phrases
		}
	}
	if len(cf.Patterns) > 0 {
		p.BlockedPatterns = append(p.BlockedPatterns, cf.Patterns...)
	}
	if cf.PronounThreshold > 0 {
		p.PronounThreshold = cf.PronounThreshold
	}
	if cf.PronounMaxLength > 0 {
		p.PronounMaxLength = cf.PronounMaxLength
	}

	if len(c.Uploads.AllowedExtensions) > 0 {
		exts := make([]string, 0, len(c.Uploads.AllowedExtensions))
		for _, e := range c.Uploads.AllowedExtensions {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			exts = append(exts, e)
		}
		p.AllowedExtensions = exts
	}
}
