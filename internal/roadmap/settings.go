// Package roadmap implements the Roadmap settings controller, the pre-submit
// roadmap check and the settings form state.
package roadmap

import (
	"time"

	"github.com/Leo3030/roadmap-demo/internal/config"
)

// Metafield coordinates and defaults.
const (
	MetafieldNamespace = "roadmap"
	MetafieldKey       = "settings"
	MetafieldType      = "json"

	// FallbackRoadmapID is used when neither the metafield nor the configured default provide an id.
	FallbackRoadmapID = "676937a32efc0b9e53a85a40"

	StatusSuccess = "success"
	StatusError   = "error"
)

// timestampLayout matches JavaScript's Date.prototype.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Settings is the JSON document stored in the roadmap.settings metafield.
type Settings struct {
	RoadmapID string `json:"roadmapId"`
	IframeURL string `json:"iframeUrl,omitempty"`
	UpdatedAt string `json:"updatedAt"`
}

// Variant selects which form fields and checks are active.
type Variant struct {
	IframeURLField     bool
	ValidateBeforeSave bool
}

// LoadResult is what the settings page is rendered with.
type LoadResult struct {
	RoadmapID string `json:"roadmapId"`
	IframeURL string `json:"iframeUrl,omitempty"`
}

// SaveInput carries the submitted form fields.
type SaveInput struct {
	RoadmapID string `json:"roadmapId" form:"roadmapId"`
	IframeURL string `json:"iframeUrl" form:"iframeUrl"`
}

// SaveRequest is one Save call.
type SaveRequest struct {
	Shop    string
	Input   SaveInput
	Variant Variant
	Locale  string
}

// SaveResult is returned to the form after a save.
type SaveResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Failed reports whether the result carries an error status.
func (r SaveResult) Failed() bool {
	return r.Status == StatusError
}

// Defaults holds the fallback values applied when nothing is stored.
type Defaults struct {
	RoadmapID    string // Configured default, usually from ROADMAP_ID.
	DevIframeURL string
}

// DefaultsFromConfig builds Defaults from the service configuration.
func DefaultsFromConfig(cfg config.RoadmapConfig) Defaults {
	return Defaults{RoadmapID: cfg.DefaultID, DevIframeURL: cfg.DevIframeURL}
}

func (d Defaults) devIframeURL() string {
	if d.DevIframeURL == "" {
		return config.DefaultDevIframeURL
	}
	return d.DevIframeURL
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
