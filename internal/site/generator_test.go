package site

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeyveen7/40-avocados/internal/config"
	"github.com/Jeyveen7/40-avocados/internal/errors"
)

const pageTemplate = "<html><title>{{ name }}</title><h1>{{ title }}</h1><p>{{ number }}</p>{{ description }}<main>{{ grid }}</main></html>\n"

type fixture struct {
	t        *testing.T
	server   *httptest.Server
	requests atomic.Int32
	dir      string
	out      string
	settings config.Settings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, dir: t.TempDir()}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if strings.HasPrefix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("png"))
	}))
	t.Cleanup(f.server.Close)

	f.out = filepath.Join(f.dir, "out")
	require.NoError(t, os.Mkdir(f.out, 0o755))

	f.settings = config.Default()
	f.settings.Template = f.writeFile("template.html", pageTemplate)
	return f
}

func (f *fixture) writeFile(name, content string) string {
	f.t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (f *fixture) image(name string) string {
	return f.server.URL + "/" + name
}

func (f *fixture) generate(configYAML string) (*Result, error) {
	f.t.Helper()
	path := f.writeFile("things.yaml", configYAML)
	return New(f.settings, f.server.Client()).Generate(testContext(f.t), path, f.out)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGenerateSingleThing(t *testing.T) {
	f := newFixture(t)
	res, err := f.generate(fmt.Sprintf("things:\n  Apple:\n    - image: %s\n", f.image("a.png")))
	require.NoError(t, err)

	pagePath := filepath.Join(f.out, "apple", "index.html")
	assert.Equal(t, []string{pagePath}, res.Pages)
	assert.Equal(t, filepath.Join(f.out, "index.html"), res.Index)

	page := readFile(t, pagePath)
	assert.Contains(t, page, "<title>Apple</title>")
	assert.Contains(t, page, "<p>40</p>")
	assert.Equal(t, 40, strings.Count(page, `<div class="grid-item">`))
	assert.Equal(t, 40, strings.Count(page, `href="`+config.DefaultFallbackURL+`"`))

	index := readFile(t, res.Index)
	assert.Equal(t, 1, strings.Count(index, `<div class="grid-item">`))
	assert.Contains(t, index, `href="`+filepath.ToSlash(filepath.Join(f.out, "apple"))+`"`)
	assert.Contains(t, index, `{{ name }}`, "index page only substitutes the grid")
}

func TestGenerateMissingImageStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.generate(fmt.Sprintf("things:\n  Apple:\n    - image: %s\n", f.image("missing.png")))
	require.ErrorIs(t, err, &errors.Error{Kind: errors.KindValidation})
	assert.Equal(t, 1, errors.ExitCode(err))

	entries, err := os.ReadDir(f.out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t)
	cfg := fmt.Sprintf(`things:
  Apple:
    - image: %s
  Banana:
    - number: 3
  Cherry:
    - image: %s
`, f.image("a.png"), f.image("c.png"))

	_, err := f.generate(cfg)
	require.ErrorIs(t, err, &errors.Error{Kind: errors.KindConfiguration})
	assert.Equal(t, 1, errors.ExitCode(err))
	assert.Contains(t, err.Error(), "thing=Banana")

	assert.FileExists(t, filepath.Join(f.out, "apple", "index.html"))
	assert.NoDirExists(t, filepath.Join(f.out, "banana"))
	assert.NoDirExists(t, filepath.Join(f.out, "cherry"))
	assert.NoFileExists(t, filepath.Join(f.out, "index.html"))
	assert.Equal(t, int32(1), f.requests.Load(), "no request after the failing thing")
}

func TestGenerateAttributes(t *testing.T) {
	f := newFixture(t)
	cfg := fmt.Sprintf(`things:
  Green-Apple:
    - image: %s
    - number: 5
    - url: http://apples.test
    - number: 2
    - description: "*crisp*"
  Pear:
    - image: %s
    - number: -4
`, f.image("g.png"), f.image("p.png"))

	res, err := f.generate(cfg)
	require.NoError(t, err)
	require.Len(t, res.Things, 2)
	assert.Equal(t, "Green-Apple", res.Things[0].Name)
	assert.Equal(t, "Pear", res.Things[1].Name)

	apple := readFile(t, filepath.Join(f.out, "green-apple", "index.html"))
	assert.Equal(t, 2, strings.Count(apple, `href="http://apples.test"`))
	assert.Contains(t, apple, "<h1>Green Apple</h1>")
	assert.Contains(t, apple, "<em>crisp</em>")

	pear := readFile(t, filepath.Join(f.out, "pear", "index.html"))
	assert.Equal(t, 1, strings.Count(pear, `<div class="grid-item">`))
	assert.Contains(t, pear, "<p>1</p>")

	index := readFile(t, res.Index)
	assert.Equal(t, 2, strings.Count(index, `<div class="grid-item">`))
	assert.Less(t, strings.Index(index, "green-apple"), strings.Index(index, "pear"))
}

func TestGenerateExistingDirectory(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Mkdir(filepath.Join(f.out, "apple"), 0o755))

	_, err := f.generate(fmt.Sprintf("things:\n  Apple:\n    - image: %s\n", f.image("a.png")))
	require.ErrorIs(t, err, &errors.Error{Kind: errors.KindIO})
	require.ErrorIs(t, err, os.ErrExist)
}

func TestGenerateMissingOutputDirectory(t *testing.T) {
	f := newFixture(t)
	f.out = filepath.Join(f.dir, "absent")

	_, err := f.generate(fmt.Sprintf("things:\n  Apple:\n    - image: %s\n", f.image("a.png")))
	require.ErrorIs(t, err, &errors.Error{Kind: errors.KindIO})
}

func TestGenerateMissingTemplate(t *testing.T) {
	f := newFixture(t)
	f.settings.Template = filepath.Join(f.dir, "nope.html")

	_, err := f.generate(fmt.Sprintf("things:\n  Apple:\n    - image: %s\n", f.image("a.png")))
	require.ErrorIs(t, err, &errors.Error{Kind: errors.KindIO})
	assert.Equal(t, 3, errors.ExitCode(err))
	assert.Equal(t, int32(0), f.requests.Load())
}

func TestGenerateInvalidYAML(t *testing.T) {
	f := newFixture(t)
	_, err := f.generate("things: [Apple")
	require.ErrorIs(t, err, &errors.Error{Kind: errors.KindParse})
}

func TestGenerateLinkBase(t *testing.T) {
	f := newFixture(t)
	f.settings.LinkBase = "/"

	res, err := f.generate(fmt.Sprintf("things:\n  Apple:\n    - image: %s\n", f.image("a.png")))
	require.NoError(t, err)
	assert.Contains(t, readFile(t, res.Index), `href="/apple"`)
}

func TestGenerateTemplateFrontMatter(t *testing.T) {
	f := newFixture(t)
	f.settings.Template = f.writeFile("fm.html", "---\nfallback_url: https://fm.test/\ndefault_number: 3\n---\n"+pageTemplate)

	_, err := f.generate(fmt.Sprintf("things:\n  Apple:\n    - image: %s\n", f.image("a.png")))
	require.NoError(t, err)

	page := readFile(t, filepath.Join(f.out, "apple", "index.html"))
	assert.Equal(t, 3, strings.Count(page, `href="https://fm.test/"`))
	assert.NotContains(t, page, "default_number")
}

func TestGenerateDoublingMode(t *testing.T) {
	f := newFixture(t)
	f.settings.GridMode = config.GridDoubling

	_, err := f.generate(fmt.Sprintf("things:\n  Apple:\n    - image: %s\n    - number: 3\n", f.image("a.png")))
	require.NoError(t, err)

	page := readFile(t, filepath.Join(f.out, "apple", "index.html"))
	assert.Equal(t, 8, strings.Count(page, `<div class="grid-item">`))
}

func TestGenerateIsRepeatable(t *testing.T) {
	f := newFixture(t)
	cfg := fmt.Sprintf("things:\n  Apple:\n    - image: %s\n", f.image("a.png"))

	_, err := f.generate(cfg)
	require.NoError(t, err)
	first := readFile(t, filepath.Join(f.out, "apple", "index.html"))

	require.NoError(t, os.RemoveAll(f.out))
	require.NoError(t, os.Mkdir(f.out, 0o755))
	_, err = f.generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, filepath.Join(f.out, "apple", "index.html")))
}

func TestGenerateRelativePaths(t *testing.T) {
	f := newFixture(t)
	f.writeFile("things.yaml", fmt.Sprintf("things:\n  Apple:\n    - image: %s\n", f.image("a.png")))
	testChdir(t, f.dir)
	wd, err := os.Getwd()
	require.NoError(t, err)

	res, err := New(f.settings, f.server.Client()).Generate(testContext(t), "things.yaml", "out")
	require.NoError(t, err)

	target := filepath.Join(wd, "out", "apple")
	assert.Equal(t, filepath.Join(target, "index.html"), res.Pages[0])
	assert.Contains(t, readFile(t, res.Index), `href="`+filepath.ToSlash(target)+`"`)
	assert.DirExists(t, target)
}

func TestGenerateRejectsOversizedNumber(t *testing.T) {
	f := newFixture(t)
	_, err := f.generate(fmt.Sprintf("things:\n  Apple:\n    - image: %s\n    - number: 100000000\n", f.image("a.png")))
	require.ErrorIs(t, err, &errors.Error{Kind: errors.KindConfiguration})
	assert.NoDirExists(t, filepath.Join(f.out, "apple"))
}

func TestGenerateWithShippedTemplate(t *testing.T) {
	f := newFixture(t)
	shipped, err := filepath.Abs(filepath.Join("..", "..", config.DefaultTemplate))
	require.NoError(t, err)
	f.settings.Template = shipped

	res, err := f.generate(fmt.Sprintf("things:\n  Apple:\n    - image: %s\n    - number: 3\n", f.image("a.png")))
	require.NoError(t, err)

	page := readFile(t, res.Pages[0])
	assert.Contains(t, page, "<title>Apple</title>")
	assert.Equal(t, 3, strings.Count(page, `<div class="grid-item">`))
	assert.Contains(t, page, ".grid-item")

	index := readFile(t, res.Index)
	assert.Equal(t, 1, strings.Count(index, `<div class="grid-item">`))
	assert.Contains(t, index, "The index page\n  fills in the grid only")
}
