package post

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

const delimiter = "---"

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("invalid post format")

// FormatError reports a post whose front matter block is missing or never
// closed.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid post format: " + e.Reason
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Parse splits raw post text into metadata and body. The text must open
// with "---"; the metadata block ends at the next "---".
func Parse(raw string) (*Post, error) {
	if !strings.HasPrefix(raw, delimiter) {
		return nil, &FormatError{Reason: "must start with front matter"}
	}
	end := strings.Index(raw[len(delimiter):], delimiter)
	if end == -1 {
		return nil, &FormatError{Reason: "missing closing front matter delimiter"}
	}
	end += len(delimiter)

	meta := parseFrontMatter(strings.TrimSpace(raw[len(delimiter):end]))
	normalize(meta)

	return &Post{
		ID:       meta.ID(),
		Metadata: meta,
		Content:  strings.TrimSpace(raw[end+len(delimiter):]),
	}, nil
}

type accumulator int

const (
	accNone accumulator = iota
	accLiteral
	accList
)

// frontMatterParser walks the metadata block line by line. Zero-indent
// lines start keys; indented lines feed whichever accumulator the key's
// value head opened.
type frontMatterParser struct {
	meta  Metadata
	key   string
	mode  accumulator
	value string
	items []string
}

func parseFrontMatter(block string) Metadata {
	p := &frontMatterParser{meta: Metadata{}}
	for _, line := range strings.Split(block, "\n") {
		p.line(line)
	}
	if p.key != "" {
		p.flush()
	}
	return p.meta
}

func (p *frontMatterParser) line(line string) {
	trimmed := strings.TrimSpace(line)
	indent := len(line) - len(strings.TrimLeftFunc(line, unicode.IsSpace))

	if indent == 0 {
		if p.key != "" {
			p.flush()
		}
		colon := strings.IndexByte(trimmed, ':')
		if colon == -1 {
			return
		}
		p.key = strings.TrimSpace(trimmed[:colon])
		p.head(strings.TrimSpace(trimmed[colon+1:]))
		return
	}

	if p.key == "" {
		return
	}
	switch p.mode {
	case accLiteral:
		p.value += strings.TrimLeftFunc(line, unicode.IsSpace) + "\n"
	case accList:
		if strings.HasPrefix(trimmed, "- ") {
			if p.value != "" {
				p.items = append(p.items, strings.TrimSpace(p.value))
			}
			p.value = strings.TrimSpace(trimmed[2:])
		} else {
			p.value += "\n" + trimmed
		}
	}
}

func (p *frontMatterParser) head(value string) {
	switch {
	case value == "|":
		p.mode = accLiteral
	case strings.HasPrefix(value, "["):
		items, err := parseListLiteral(value)
		if err != nil {
			p.mode = accList
			p.items = []string{}
			return
		}
		p.meta[p.key] = ListValue(items)
	case value == "":
		p.mode = accList
		p.items = []string{}
	case strings.EqualFold(value, "true"):
		p.meta[p.key] = BoolValue(true)
	case strings.EqualFold(value, "false"):
		p.meta[p.key] = BoolValue(false)
	default:
		p.meta[p.key] = StringValue(value)
	}
}

// flush stores a pending literal or list under the current key.
func (p *frontMatterParser) flush() {
	switch p.mode {
	case accLiteral:
		p.meta[p.key] = StringValue(strings.TrimSpace(p.value))
	case accList:
		if p.value != "" {
			p.items = append(p.items, strings.TrimSpace(p.value))
		}
		p.meta[p.key] = ListValue(p.items)
	}
	p.mode = accNone
	p.value = ""
	p.items = nil
}

// parseListLiteral decodes a JSON array. Non-string elements keep their
// JSON spelling.
func parseListLiteral(s string) ([]string, error) {
	var raw []any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	items := make([]string, 0, len(raw))
	for _, v := range raw {
		switch v := v.(type) {
		case string:
			items = append(items, v)
		case float64:
			items = append(items, strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			items = append(items, strconv.FormatBool(v))
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			items = append(items, string(b))
		}
	}
	return items, nil
}

// normalize applies the post-processing rules shared by every post: a
// derived id, boolean spellings, a boolean hidden flag and a list of images.
func normalize(meta Metadata) {
	if meta.ID() == "" {
		if title := meta.Title(); title != "" {
			meta["id"] = StringValue(Slugify(title))
		}
	}

	for key, v := range meta {
		if v.Kind != KindString {
			continue
		}
		switch v.Str {
		case "true", "TRUE":
			meta[key] = BoolValue(true)
		case "false", "FALSE":
			meta[key] = BoolValue(false)
		case "":
			if key == "hidden" {
				meta[key] = BoolValue(false)
			}
		}
	}

	if hidden, ok := meta["hidden"]; !ok {
		meta["hidden"] = BoolValue(false)
	} else if hidden.Kind != KindBool {
		log.Warn().Str("kind", hidden.Kind.String()).Msg("Treating non-boolean hidden value as false")
		meta["hidden"] = BoolValue(false)
	}

	meta["images"] = ListValue(normalizeImages(meta["images"]))
}

func normalizeImages(v Value) []string {
	switch v.Kind {
	case KindList:
		return v.Items
	case KindString:
		s := v.Str
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			items, err := parseListLiteral(s)
			if err != nil {
				log.Error().Err(fmt.Errorf("parsing images list %q: %w", s, err)).Msg("Failed to parse images")
				return nil
			}
			return items
		}
		return []string{s}
	default:
		return nil
	}
}
