package router

import (
	"html/template"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"adventune/folio/format"
	"adventune/folio/post"
)

// Pages renders the single-post and not-found views.
type Pages struct {
	Formatter format.Formatter
	// AssetRoot is the directory images are served from.
	AssetRoot string
	// ImageFormat is the preferred image extension; FallbackFormat is used
	// by clients that cannot display it.
	ImageFormat    string
	FallbackFormat string
}

func DefaultPages() *Pages {
	return &Pages{
		Formatter:      format.Dialect{},
		AssetRoot:      "public",
		ImageFormat:    "webp",
		FallbackFormat: "png",
	}
}

var postTmpl = template.Must(template.New("post").Parse(`<div class="post-page">
{{- if .Images}}
<div class="post-image-container">
{{- range .Images}}
<picture><source srcset="{{.Preferred}}" type="image/{{$.ImageType}}"><img src="{{.Fallback}}" alt="{{.Alt}}" class="post-image" style="z-index: {{.Z}};"></picture>
{{- end}}
</div>
{{- end}}
<header class="post-header">
<a href="#" class="back-button diffuse-text"></a>
<div class="post-title-container">
{{- if .Link}}
<h1 class="post-title"><a href="{{.Link}}" target="_blank" rel="noopener noreferrer" class="post-title-link diffuse-text">{{.Title}}</a></h1>
{{- else}}
<h1 class="post-title diffuse-text">{{.Title}}</h1>
{{- end}}
</div>
<time class="post-date diffuse-text">{{.Date}}</time>
</header>
<article class="post-content">{{.Content}}</article>
{{- if .Footnotes}}
<footer class="post-footnotes">{{range .Footnotes}}<p class="diffuse-text">{{.}}</p>{{end}}</footer>
{{- end}}
</div>`))

const notFoundMarkup = `<div class="post-page">
<header class="post-header">
<a href="#" class="back-button diffuse-text"></a>
<div class="post-title-container">
<h1 class="post-title diffuse-text">Post Not Found</h1>
</div>
<time class="post-date diffuse-text"></time>
</header>
<div class="post-content">
<p class="diffuse-text">Sorry, the requested post could not be found.</p>
</div>
</div>`

type postPage struct {
	Title     template.HTML
	Link      string
	Date      string
	ImageType string
	Images    []galleryImage
	Content   template.HTML
	Footnotes []template.HTML
}

type galleryImage struct {
	Preferred string
	Fallback  string
	Alt       string
	Z         int
}

// Post renders a single post. Title, body and footnotes are author markup
// and are not escaped.
func (pg *Pages) Post(p *post.Post) string {
	meta := p.Metadata
	page := postPage{
		Title:     template.HTML(meta.Title()),
		Link:      meta.Link(),
		Date:      post.FormatDate(meta.Date()),
		ImageType: pg.ImageFormat,
		Content:   template.HTML(pg.formatter().Render(p.Content)),
	}

	images := meta.Images()
	for i, name := range images {
		page.Images = append(page.Images, galleryImage{
			Preferred: pg.asset(name, pg.ImageFormat),
			Fallback:  pg.asset(name, pg.FallbackFormat),
			Alt:       strings.ReplaceAll(name, "_", " "),
			Z:         len(images) - i,
		})
	}

	if notes := meta.Footnotes(); notes != "" {
		for _, note := range strings.Split(notes, "\n") {
			page.Footnotes = append(page.Footnotes, template.HTML(strings.TrimSpace(note)))
		}
	}

	var b strings.Builder
	if err := postTmpl.Execute(&b, page); err != nil {
		log.Error().Err(err).Str("id", p.ID).Msg("Failed to render post")
		return pg.NotFound()
	}
	return b.String()
}

// NotFound renders the placeholder shown for unknown or broken posts.
func (pg *Pages) NotFound() string {
	return notFoundMarkup
}

func (pg *Pages) asset(name, ext string) string {
	return path.Join(pg.AssetRoot, name+"."+ext)
}

func (pg *Pages) formatter() format.Formatter {
	if pg.Formatter == nil {
		return format.Dialect{}
	}
	return pg.Formatter
}
