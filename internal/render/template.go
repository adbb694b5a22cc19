package render

import (
	"bytes"
	"os"

	"github.com/adrg/frontmatter"

	"github.com/Jeyveen7/40-avocados/internal/errors"
)

// Meta is the optional YAML front matter at the top of a template file.
// Set fields override the corresponding run settings.
type Meta struct {
	FallbackURL   string `yaml:"fallback_url"`
	DefaultNumber int    `yaml:"default_number"`
	GridMode      string `yaml:"grid_mode"`
}

// Template is the HTML skeleton pages are rendered from. Text excludes any
// front matter.
type Template struct {
	Path string
	Text string
	Meta Meta
}

// LoadTemplate reads the template at path.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(err, "read template %s", path)
	}

	var meta Meta
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return nil, errors.Parse(err, "template front matter in %s", path)
	}
	return &Template{Path: path, Text: string(body), Meta: meta}, nil
}
