package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/Jeyveen7/40-avocados/internal/errors"
	"github.com/Jeyveen7/40-avocados/internal/model"
)

// ThingsKey is the top-level key holding the thing definitions.
const ThingsKey = "things"

// Document is the merged content of every mapping document of a config
// file, in the order the keys were written.
type Document yaml.MapSlice

// document captures one YAML document and remembers whether it was a
// mapping. Scalars and sequences are skipped by the loader.
type document struct {
	mapping   yaml.MapSlice
	isMapping bool
}

func (d *document) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var probe interface{}
	if err := unmarshal(&probe); err != nil {
		return err
	}
	if _, ok := probe.(map[interface{}]interface{}); !ok {
		return nil
	}
	d.isMapping = true
	return unmarshal(&d.mapping)
}

// Load reads path and parses it as one or more YAML documents.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(err, "read config file %s", path)
	}
	doc, err := Parse(data)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e.With("path", path)
		}
		return nil, err
	}
	return doc, nil
}

// Parse merges every mapping document in data into one Document. A key
// repeated in a later document replaces the earlier value in place.
func Parse(data []byte) (Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var merged Document
	for {
		var d document
		err := dec.Decode(&d)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Parse(err, "invalid YAML")
		}
		if !d.isMapping {
			continue
		}
		for _, item := range d.mapping {
			merged = merged.set(item.Key, item.Value)
		}
	}
	for _, item := range merged {
		slog.Debug("config entry", "key", item.Key, "value", item.Value)
	}
	return merged, nil
}

func (d Document) set(key, value interface{}) Document {
	for i := range d {
		if keyString(d[i].Key) == keyString(key) {
			d[i].Value = value
			return d
		}
	}
	return append(d, yaml.MapItem{Key: key, Value: value})
}

// Get returns the top-level value stored under key.
func (d Document) Get(key string) (interface{}, bool) {
	for _, item := range d {
		if keyString(item.Key) == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Things returns the raw thing definitions in configuration order.
func (d Document) Things() ([]model.RawThing, error) {
	raw, ok := d.Get(ThingsKey)
	if !ok {
		return nil, errors.Configuration("missing top-level %q key", ThingsKey)
	}
	if raw == nil {
		return nil, nil
	}
	things, ok := raw.(yaml.MapSlice)
	if !ok {
		return nil, errors.Configuration("%q must map thing names to attribute lists, got %T", ThingsKey, raw)
	}

	out := make([]model.RawThing, 0, len(things))
	for _, item := range things {
		name := keyString(item.Key)
		entries, err := toEntries(item.Value)
		if err != nil {
			return nil, err.With("thing", name)
		}
		out = append(out, model.RawThing{Name: name, Entries: entries})
	}
	return out, nil
}

func toEntries(value interface{}) ([]model.Entry, *errors.Error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case yaml.MapSlice:
		return []model.Entry{toEntry(v)}, nil
	case []interface{}:
		entries := make([]model.Entry, 0, len(v))
		for i, elem := range v {
			m, ok := elem.(yaml.MapSlice)
			if !ok {
				return nil, errors.Configuration("attribute %d must be a key/value mapping, got %T", i, elem)
			}
			entries = append(entries, toEntry(m))
		}
		return entries, nil
	default:
		return nil, errors.Configuration("attributes must be a list of key/value mappings, got %T", value)
	}
}

func toEntry(m yaml.MapSlice) model.Entry {
	entry := make(model.Entry, 0, len(m))
	for _, item := range m {
		entry = append(entry, model.Attr{Key: keyString(item.Key), Value: item.Value})
	}
	return entry
}

func keyString(key interface{}) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}
