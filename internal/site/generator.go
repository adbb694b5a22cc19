// Package site drives a generation run: one page per configured thing and
// an index page linking to all of them.
//
// A run is fail-fast. The first error returned by any step ends the run and
// is handed back to the caller unchanged; pages already written stay on
// disk.
package site

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Jeyveen7/40-avocados/internal/config"
	"github.com/Jeyveen7/40-avocados/internal/errors"
	"github.com/Jeyveen7/40-avocados/internal/imagecheck"
	"github.com/Jeyveen7/40-avocados/internal/model"
	"github.com/Jeyveen7/40-avocados/internal/render"
)

const pageFile = "index.html"

// Generator renders the pages of a site.
type Generator struct {
	settings  config.Settings
	validator *imagecheck.Validator
}

// New returns a Generator. A nil client gets one bounded by the check
// timeout in settings.
func New(settings config.Settings, client *http.Client) *Generator {
	if client == nil {
		client = imagecheck.NewHTTPClient(settings.CheckTimeout)
	}
	return &Generator{settings: settings, validator: imagecheck.New(client)}
}

// Result lists the files written by a successful run.
type Result struct {
	Things []model.Thing
	Pages  []string
	Index  string
}

// Generate reads the configuration at configPath and writes the site into
// outDir, which must already exist. Both paths are made absolute first, so
// index links do not depend on the working directory.
func (g *Generator) Generate(ctx context.Context, configPath, outDir string) (*Result, error) {
	start := time.Now()

	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.IO(err, "resolve config path")
	}
	outDir, err = filepath.Abs(outDir)
	if err != nil {
		return nil, errors.IO(err, "resolve output directory")
	}

	doc, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	raw, err := doc.Things()
	if err != nil {
		return nil, err
	}
	tpl, err := render.LoadTemplate(g.settings.Template)
	if err != nil {
		return nil, err
	}
	settings := g.effectiveSettings(tpl.Meta)
	defaults := model.Defaults{Number: settings.DefaultNumber, URL: settings.FallbackURL}

	result := &Result{}
	for _, r := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		thing, page, err := g.renderThing(ctx, r, tpl, outDir, settings.GridMode, defaults)
		if err != nil {
			return nil, err
		}
		result.Things = append(result.Things, thing)
		result.Pages = append(result.Pages, page)
	}

	index, err := g.renderIndex(result.Things, tpl, outDir)
	if err != nil {
		return nil, err
	}
	result.Index = index

	slog.Info("site generated",
		"things", len(result.Things),
		"output", outDir,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func (g *Generator) renderThing(ctx context.Context, r model.RawThing, tpl *render.Template, outDir, gridMode string, defaults model.Defaults) (model.Thing, string, error) {
	attrs := r.Normalize()
	if _, err := g.validator.Validate(ctx, r.Name, attrs); err != nil {
		return model.Thing{}, "", err
	}
	thing, err := model.Resolve(r.Name, attrs, defaults)
	if err != nil {
		return model.Thing{}, "", err
	}

	grid, err := render.GridFor(gridMode, thing.Image, thing.URL, thing.Number)
	if err != nil {
		return model.Thing{}, "", err
	}
	description, err := render.Markdown(thing.Description)
	if err != nil {
		return model.Thing{}, "", errors.Configuration("description of %q is not valid markdown: %v", thing.Name, err)
	}

	dir := filepath.Join(outDir, thing.Slug)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return model.Thing{}, "", errors.IO(err, "create directory for %q", thing.Name).With("path", dir)
	}

	page := filepath.Join(dir, pageFile)
	data := model.PageData{
		Name:        thing.Name,
		Title:       render.Title(thing.Name),
		Grid:        grid,
		Number:      thing.Number,
		Description: description,
	}
	if err := render.WritePage(page, tpl, data.Placeholders()); err != nil {
		return model.Thing{}, "", err
	}
	slog.Info("page written", "thing", thing.Name, "number", thing.Number, "path", page)
	return thing, page, nil
}

func (g *Generator) renderIndex(things []model.Thing, tpl *render.Template, outDir string) (string, error) {
	var grid strings.Builder
	for _, thing := range things {
		grid.WriteString(render.Grid(thing.Image, g.link(outDir, thing.Slug), 1))
	}

	index := filepath.Join(outDir, pageFile)
	if err := render.WritePage(index, tpl, model.IndexData{Grid: grid.String()}.Placeholders()); err != nil {
		return "", err
	}
	slog.Info("index written", "path", index, "things", len(things))
	return index, nil
}

// link is the index-page target of a thing's page.
func (g *Generator) link(outDir, slug string) string {
	if g.settings.LinkBase == "" {
		return filepath.ToSlash(filepath.Join(outDir, slug))
	}
	return strings.TrimRight(g.settings.LinkBase, "/") + "/" + slug
}

// effectiveSettings applies template front matter over the run settings.
func (g *Generator) effectiveSettings(meta render.Meta) config.Settings {
	s := g.settings
	if meta.FallbackURL != "" {
		s.FallbackURL = meta.FallbackURL
	}
	if meta.DefaultNumber != 0 {
		s.DefaultNumber = meta.DefaultNumber
	}
	if meta.GridMode != "" {
		s.GridMode = meta.GridMode
	}
	return s
}
