package post

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/rs/zerolog/log"
)

// ParseStructured reads a post whose front matter is a YAML (---), TOML
// (+++) or JSON (;;;) document. Values are flattened onto the same
// metadata kinds Parse produces and normalized the same way.
func ParseStructured(raw string) (*Post, error) {
	fields := map[string]any{}
	body, err := frontmatter.MustParse(strings.NewReader(raw), &fields)
	if errors.Is(err, frontmatter.ErrNotFound) {
		return nil, &FormatError{Reason: "must start with front matter"}
	}
	if err != nil {
		return nil, &FormatError{Reason: err.Error()}
	}

	meta := make(Metadata, len(fields))
	for key, v := range fields {
		meta[key] = toValue(key, v)
	}
	normalize(meta)

	return &Post{
		ID:       meta.ID(),
		Metadata: meta,
		Content:  strings.TrimSpace(string(body)),
	}, nil
}

func toValue(key string, v any) Value {
	switch x := v.(type) {
	case nil:
		return StringValue("")
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return StringValue(x.Format("2006-01-02"))
		}
		return StringValue(x.Format(time.RFC3339))
	case []string:
		return ListValue(x)
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			items = append(items, fmt.Sprint(item))
		}
		return ListValue(items)
	default:
		log.Debug().Str("key", key).Str("type", fmt.Sprintf("%T", v)).Msg("Storing front matter value as text")
		return StringValue(fmt.Sprint(x))
	}
}
