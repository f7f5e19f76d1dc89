package webui

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/Leo3030/roadmap-demo/internal/roadmap"
)

// files embeds the settings page template and its static assets.
//
//go:embed templates/*.tmpl assets/*
var files embed.FS

const (
	settingsTemplate = "settings.html.tmpl"
	bounceTemplate   = "bounce.html.tmpl"
)

// Bundle exposes the embedded settings page for serving.
type Bundle struct {
	AssetsFS  http.FileSystem    // Static assets served under /app/assets.
	templates *template.Template // Parsed page templates.
}

// SettingsPage is the data the settings template renders.
type SettingsPage struct {
	Form      *roadmap.Form
	Messages  roadmap.Messages
	Shop      string
	APIKey    string
	IDToken   string
	ActionURL string
}

// HiddenField is one form value replayed by the bounce page.
type HiddenField struct {
	Name  string
	Value string
}

// BouncePage is the data the session bounce template renders. The page asks App Bridge for a
// fresh session token and re-submits Fields to ActionURL with it.
type BouncePage struct {
	Messages    roadmap.Messages
	APIKey      string
	Method      string // "get" or "post".
	ActionURL   string
	BounceParam string
	Fields      []HiddenField
}

// Load parses the embedded templates and exposes the assets directory.
func Load() (Bundle, error) {
	assetsFS, errSub := fs.Sub(files, "assets")
	if errSub != nil {
		return Bundle{}, errSub
	}
	tmpl, errParse := template.ParseFS(files, "templates/*.tmpl")
	if errParse != nil {
		return Bundle{}, errParse
	}
	return Bundle{
		AssetsFS:  http.FS(assetsFS),
		templates: tmpl,
	}, nil
}

// RenderSettings writes the settings page for page to w.
func (b Bundle) RenderSettings(w io.Writer, page SettingsPage) error {
	if page.Form != nil && page.Messages.Locale == "" {
		page.Messages = page.Form.Messages()
	}
	return b.templates.ExecuteTemplate(w, settingsTemplate, page)
}

// RenderBounce writes the session bounce page for page to w.
func (b Bundle) RenderBounce(w io.Writer, page BouncePage) error {
	return b.templates.ExecuteTemplate(w, bounceTemplate, page)
}
