package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/Jeyveen7/40-avocados/internal/errors"
)

// Recognized attribute keys.
const (
	KeyNumber      = "number"
	KeyURL         = "url"
	KeyImage       = "image"
	KeyDescription = "description"
)

// Thing is a named unit of content, resolved and ready to render.
type Thing struct {
	Name        string
	Slug        string
	Image       string
	URL         string
	Number      int
	Description string
}

// Defaults are applied to attributes a thing leaves out.
type Defaults struct {
	Number int
	URL    string
}

// Resolve builds a Thing from its normalized attributes.
func Resolve(name string, attrs Attributes, defaults Defaults) (Thing, error) {
	slug, err := Slug(name)
	if err != nil {
		return Thing{}, err
	}
	image, err := attrs.Image()
	if err != nil {
		return Thing{}, err.With("thing", name)
	}
	number, err := attrs.Number(defaults.Number)
	if err != nil {
		return Thing{}, err.With("thing", name)
	}
	url, err := attrs.stringOr(KeyURL, defaults.URL)
	if err != nil {
		return Thing{}, err.With("thing", name)
	}
	description, err := attrs.stringOr(KeyDescription, "")
	if err != nil {
		return Thing{}, err.With("thing", name)
	}
	return Thing{
		Name:        name,
		Slug:        slug,
		Image:       image,
		URL:         url,
		Number:      number,
		Description: description,
	}, nil
}

// Slug lower-cases a thing name for use as a path segment. Names that
// would leave the output directory are rejected.
func Slug(name string) (string, *errors.Error) {
	slug := strings.ToLower(name)
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`) {
		return "", errors.Configuration("thing name %q cannot be used as a directory name", name)
	}
	return slug, nil
}

// Image returns the required image URL.
func (a Attributes) Image() (string, *errors.Error) {
	v, ok := a[KeyImage]
	if !ok || v == nil {
		return "", errors.Configuration("no image defined")
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errors.Configuration("image must be a non-empty string, got %v", v)
	}
	return s, nil
}

// MaxNumber is the largest repetition count a thing may ask for.
const MaxNumber = 100000

// Number returns the repetition count, never less than 1. Counts above
// MaxNumber are rejected whatever type they were written as.
func (a Attributes) Number(def int) (int, *errors.Error) {
	var n float64
	switch v := a[KeyNumber].(type) {
	case nil:
		n = float64(def)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint64:
		n = float64(v)
	case float64:
		if math.IsNaN(v) {
			return 0, errors.Configuration("number must be an integer, got %v", v)
		}
		n = math.Trunc(v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, errors.Configuration("number %q is not an integer", v)
		}
		n = float64(parsed)
	default:
		return 0, errors.Configuration("number must be an integer, got %v", v)
	}
	if n > MaxNumber {
		return 0, errors.Configuration("number %.0f exceeds the maximum of %d", n, MaxNumber)
	}
	if n < 1 {
		return 1, nil
	}
	return int(n), nil
}

func (a Attributes) stringOr(key, def string) (string, *errors.Error) {
	switch v := a[key].(type) {
	case nil:
		return def, nil
	case string:
		if v == "" {
			return def, nil
		}
		return v, nil
	default:
		return "", errors.Configuration("%s must be a string, got %v", key, v)
	}
}
