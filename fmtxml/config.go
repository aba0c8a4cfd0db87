package fmtxml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shahin-you/lxml/buffer"
)

// Config controls the formatter. DefaultConfig returns the defaults. In the
// zero value NormalizeNewlines and TrimText are off; NewPrinter fills in only
// an empty Indent and a too-small BufferSize.
type Config struct {
	// Indent is the string written once per nesting level.
	Indent string `yaml:"indent"`
	// BufferSize is the input window handed to buffer.NewStream.
	BufferSize int `yaml:"buffer_size"`
	// NormalizeNewlines rewrites \r and \r\n in text to \n.
	NormalizeNewlines bool `yaml:"normalize_newlines"`
	// TrimText strips leading and trailing whitespace from text runs,
	// dropping runs that become empty.
	TrimText bool `yaml:"trim_text"`
	// MaxDepth overrides the tokenizer's open-element limit when positive.
	MaxDepth int `yaml:"max_depth"`
}

// DefaultConfig returns the formatter defaults: two-space indent, normalized
// newlines, trimmed text.
func DefaultConfig() Config {
	return Config{
		Indent:            "  ",
		BufferSize:        buffer.DefaultBufferSize,
		NormalizeNewlines: true,
		TrimText:          true,
	}
}

func (c Config) withDefaults() Config {
	if c.Indent == "" {
		c.Indent = "  "
	}
	if c.BufferSize < buffer.MinBufferSize {
		c.BufferSize = buffer.DefaultBufferSize
	}
	return c
}

// LoadConfig reads a YAML formatter configuration such as .lxmlfmt.yaml,
// applying defaults for absent fields.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}
