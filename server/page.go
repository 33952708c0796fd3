package server

import (
	"html/template"
	"strings"
)

type pageData struct {
	Title     string
	Session   string
	Content   string
	Highlight bool
}

// The client keeps #app in step with the session and re-announces each
// update as app:content-updated for page scripts.
const clientScript = `(function () {
  var app = document.getElementById('app');
  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  var ws = new WebSocket(proto + location.host + '/ws?fragment=' + encodeURIComponent(location.hash));
  ws.onmessage = function (e) {
    var msg = JSON.parse(e.data);
    if (msg.type !== 'view') {
      return;
    }
    app.innerHTML = msg.html;
    document.dispatchEvent(new CustomEvent('app:content-updated', {
      detail: { root: app, components: msg.components, options: msg.options }
    }));
  };
  window.addEventListener('hashchange', function () {
    ws.send(JSON.stringify({ type: 'navigate', fragment: location.hash }));
  });
  document.addEventListener('click', function (e) {
    var back = e.target.closest && e.target.closest('.back-button');
    if (!back) {
      return;
    }
    e.preventDefault();
    history.pushState(null, '', location.pathname);
    ws.send(JSON.stringify({ type: 'back' }));
  });
})();`

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Highlight}}
<link rel="stylesheet" href="/highlight.css">
{{- end}}
</head>
<body>
<main id="app" data-session="{{.Session}}">{{.Content}}</main>
<script>{{.Script}}</script>
</body>
</html>
`))

func renderPage(d pageData) (string, error) {
	var b strings.Builder
	err := pageTmpl.Execute(&b, struct {
		pageData
		Content template.HTML
		Script  template.JS
	}{d, template.HTML(d.Content), template.JS(clientScript)})
	return b.String(), err
}
