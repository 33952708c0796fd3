package repository

import (
	"html/template"
	"strings"

	"github.com/rs/zerolog/log"

	"adventune/folio/post"
)

var listingTmpl = template.Must(template.New("listing").Parse(`<div class="posts-list-container">
{{- range .}}
<div class="post-card{{if .Link}} post-card-with-link{{end}}">
<a href="#{{.ID}}" class="post-card-link" data-post-id="{{.ID}}">
<h4 class="post-card-title{{if .Link}} post-card-title-link{{end}} diffuse-text">{{.Title}}</h4>
<time class="post-card-date diffuse-text">{{.Date}}</time>
</a>
</div>
{{- end}}
</div>`))

type listingCard struct {
	ID    string
	Title template.HTML
	Date  string
	Link  bool
}

// RenderListing renders post cards in the given order. Titles are author
// markup and are not escaped.
func RenderListing(posts []*post.Post) string {
	cards := make([]listingCard, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, listingCard{
			ID:    p.ID,
			Title: template.HTML(p.Metadata.Title()),
			Date:  post.FormatDate(p.Metadata.Date()),
			Link:  p.Metadata.Link() != "",
		})
	}
	var b strings.Builder
	if err := listingTmpl.Execute(&b, cards); err != nil {
		log.Error().Err(err).Msg("Failed to render posts listing")
		return ""
	}
	return b.String()
}
