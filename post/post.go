// Package post models a blog post read from a flat text file: a front
// matter block of loosely typed metadata followed by a free-form body.
package post

import "time"

// Kind identifies which field of a Value carries data.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a single front matter value: a string, a boolean or an ordered
// list of strings.
type Value struct {
	Kind  Kind
	Str   string
	Flag  bool
	Items []string
}

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

func BoolValue(b bool) Value { return Value{Kind: KindBool, Flag: b} }

// ListValue never stores a nil slice, so an empty list stays distinguishable
// from a missing one once serialized.
func ListValue(items []string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{Kind: KindList, Items: items}
}

// Metadata maps front matter keys to their values.
type Metadata map[string]Value

// String returns the string stored under key, or "" if the key is missing
// or holds another kind.
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v.Kind != KindString {
		return ""
	}
	return v.Str
}

// Bool reports whether key holds the boolean true.
func (m Metadata) Bool(key string) bool {
	v, ok := m[key]
	return ok && v.Kind == KindBool && v.Flag
}

func (m Metadata) List(key string) []string {
	v, ok := m[key]
	if !ok || v.Kind != KindList {
		return nil
	}
	return v.Items
}

func (m Metadata) ID() string        { return m.String("id") }
func (m Metadata) Title() string     { return m.String("title") }
func (m Metadata) Date() string      { return m.String("date") }
func (m Metadata) Link() string      { return m.String("link") }
func (m Metadata) Footnotes() string { return m.String("footnotes") }
func (m Metadata) Hidden() bool      { return m.Bool("hidden") }
func (m Metadata) Images() []string  { return m.List("images") }

// Post is a parsed post. Content is the raw body, formatted only when the
// post is rendered.
type Post struct {
	ID       string
	Metadata Metadata
	Content  string
}

// Time returns the parsed publication date, or the zero time when the date
// is missing or unparseable.
func (p *Post) Time() time.Time {
	t, _ := ParseDate(p.Metadata.Date())
	return t
}
