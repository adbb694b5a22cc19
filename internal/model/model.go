package model

// Attr is a single key/value pair as written in the configuration.
type Attr struct {
	Key   string
	Value interface{}
}

// Entry is one element of a thing's attribute list. It normally holds a
// single Attr.
type Entry []Attr

// RawThing is a thing as it appears in the configuration, before its
// attribute list is normalized.
type RawThing struct {
	Name    string
	Entries []Entry
}

// Attributes is the flat attribute mapping of one thing.
type Attributes map[string]interface{}

// Normalize folds an ordered attribute list into one mapping. When a key
// repeats, the later value wins. Keys are not checked; unknown keys pass
// through unchanged.
func Normalize(entries []Entry) Attributes {
	attrs := make(Attributes, len(entries))
	for _, entry := range entries {
		for _, attr := range entry {
			attrs[attr.Key] = attr.Value
		}
	}
	return attrs
}

// Normalize returns the flat attribute mapping of the thing.
func (r RawThing) Normalize() Attributes {
	return Normalize(r.Entries)
}
