package handlers

import (
	"net/http"

	"github.com/Leo3030/roadmap-demo/internal/buildinfo"
	"github.com/gin-gonic/gin"
)

// VersionHandler reports build metadata.
type VersionHandler struct {
	apiVersion string
}

// NewVersionHandler constructs a VersionHandler for the configured Admin API version.
func NewVersionHandler(apiVersion string) *VersionHandler {
	return &VersionHandler{apiVersion: apiVersion}
}

// VersionResponse is the response for the version endpoint.
type VersionResponse struct {
	Version         string `json:"version"`
	Commit          string `json:"commit,omitempty"`
	BuildDate       string `json:"build_date,omitempty"`
	AdminAPIVersion string `json:"admin_api_version"`
}

// GetVersion returns the running build.
func (h *VersionHandler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{
		Version:         buildinfo.Version,
		Commit:          buildinfo.Commit,
		BuildDate:       buildinfo.BuildDate,
		AdminAPIVersion: h.apiVersion,
	})
}
