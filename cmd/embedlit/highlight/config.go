package highlight

import (
	"bytes"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/walteh/embedlit/pkg/dialect"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Config is the optional highlight configuration file.
type Config struct {
	// Palette overrides the built-in color wheel for every grammar.
	Palette []string `json:"palette,omitempty" hcl:"palette,optional" yaml:"palette,omitempty"`

	// Dialects extends the built-in host dialect registry.
	Dialects []*DialectBlock `json:"dialects,omitempty" hcl:"dialect,block" yaml:"dialects,omitempty"`
}

// DialectBlock declares one custom host dialect.
type DialectBlock struct {
	Language      string `json:"language" hcl:"language,label" yaml:"language"`
	CommentPrefix string `json:"comment_prefix" hcl:"comment_prefix,attr" yaml:"comment_prefix"`
	Literal       string `json:"literal" hcl:"literal,attr" yaml:"literal"`
}

// LoadConfig reads a config file (YAML by extension, HCL otherwise).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		var cfg Config
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
		return &cfg, nil
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &cfg); diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &cfg, nil
}

// Apply registers the config's custom dialects.
func (cfg *Config) Apply() error {
	for _, d := range cfg.Dialects {
		var kind dialect.LiteralKind
		switch d.Literal {
		case string(dialect.TripleQuoted):
			kind = dialect.TripleQuoted
		case string(dialect.Templated):
			kind = dialect.Templated
		default:
			return errors.Errorf("dialect %q: unknown literal kind %q", d.Language, d.Literal)
		}
		if d.CommentPrefix == "" {
			return errors.Errorf("dialect %q: comment_prefix is required", d.Language)
		}
		dialect.Register(dialect.Dialect{
			Language:      d.Language,
			CommentPrefix: d.CommentPrefix,
			Literal:       kind,
		})
	}
	return nil
}
