package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/Jeyveen7/40-avocados/internal/errors"
)

// Placeholder returns the token replaced by the content for key.
func Placeholder(key string) string {
	return "{{ " + key + " }}"
}

// Substitute replaces every placeholder token of values in text. The
// replacement happens in a single pass, so content that itself contains
// placeholder tokens is left as is, as are tokens with no value.
func Substitute(text string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, Placeholder(k), values[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// PageMode is the permission of written pages, readable by the web server.
const PageMode os.FileMode = 0o644

// Render returns the template text with values substituted.
func (t *Template) Render(values map[string]string) string {
	return Substitute(t.Text, values)
}

// WritePage renders t with values and writes the result to path,
// replacing any existing file. The parent directory must exist.
func WritePage(path string, t *Template, values map[string]string) error {
	page := t.Render(values)
	if err := replaceFile(path, page); err != nil {
		return errors.IO(err, "write page %s", path)
	}
	slog.Debug("page written", "path", path, "bytes", len(page))
	return nil
}

// replaceFile writes content to a temp file next to path and moves it into
// place, so readers never see a partial page.
func replaceFile(path, content string) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = f.Chmod(PageMode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if _, err = f.WriteString(content); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return atomic.ReplaceFile(tmp, path)
}
