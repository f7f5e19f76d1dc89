package handlers

import (
	"bytes"
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"

	internalhttp "github.com/Leo3030/roadmap-demo/internal/http"
	"github.com/Leo3030/roadmap-demo/internal/roadmap"
	internalsettings "github.com/Leo3030/roadmap-demo/internal/settings"
	"github.com/Leo3030/roadmap-demo/internal/webui"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// SettingsHandler serves the embedded settings page and its JSON endpoints.
type SettingsHandler struct {
	controller    *roadmap.Controller
	checker       roadmap.RoadmapChecker
	history       *roadmap.History
	pages         webui.Bundle
	apiKey        string
	defaultLocale string
	historyLimit  int
}

// SettingsHandlerOptions are the dependencies of a SettingsHandler.
type SettingsHandlerOptions struct {
	Controller    *roadmap.Controller
	Checker       roadmap.RoadmapChecker
	History       *roadmap.History // Optional.
	Pages         webui.Bundle
	APIKey        string
	DefaultLocale string
	HistoryLimit  int
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(opts SettingsHandlerOptions) *SettingsHandler {
	return &SettingsHandler{
		controller:    opts.Controller,
		checker:       opts.Checker,
		history:       opts.History,
		pages:         opts.Pages,
		apiKey:        opts.APIKey,
		defaultLocale: opts.DefaultLocale,
		historyLimit:  opts.HistoryLimit,
	}
}

// settingsResponse is the payload of GET /app/api/settings.
type settingsResponse struct {
	roadmap.LoadResult
	ShowIframeURL      bool `json:"showIframeUrl"`
	ValidateBeforeSave bool `json:"validateBeforeSave"`
}

// validateResponse is the payload of POST /app/api/settings/validate.
type validateResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Page renders the settings form with the stored values.
func (h *SettingsHandler) Page(c *gin.Context) {
	variant := currentVariant()
	loaded := h.controller.Load(c.Request.Context(), internalhttp.AdminAPIFromContext(c), variant)
	form := roadmap.NewForm(loaded, variant, roadmap.Catalog(h.locale(c)))
	h.render(c, form)
}

// Submit handles the settings form post: validate when enabled, then save.
func (h *SettingsHandler) Submit(c *gin.Context) {
	variant := currentVariant()
	locale := h.locale(c)
	form := roadmap.NewForm(roadmap.LoadResult{}, variant, roadmap.Catalog(locale))
	form.SetRoadmapID(c.PostForm("roadmapId"))
	form.SetIframeURL(c.PostForm("iframeUrl"))

	if c.PostForm("action") == "dismiss" {
		form.Dismiss()
		h.render(c, form)
		return
	}

	form.Submit(c.Request.Context(), h.checker, h.saveFunc(c, variant, locale))
	h.render(c, form)
}

// Get returns the stored settings and the active field variant.
func (h *SettingsHandler) Get(c *gin.Context) {
	variant := currentVariant()
	loaded := h.controller.Load(c.Request.Context(), internalhttp.AdminAPIFromContext(c), variant)
	c.JSON(http.StatusOK, settingsResponse{
		LoadResult:         loaded,
		ShowIframeURL:      variant.IframeURLField,
		ValidateBeforeSave: variant.ValidateBeforeSave,
	})
}

// Save stores the settings, running the roadmap check first when the variant enables it.
func (h *SettingsHandler) Save(c *gin.Context) {
	var input roadmap.SaveInput
	if errBind := c.ShouldBindJSON(&input); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	variant := currentVariant()
	locale := h.locale(c)
	form := roadmap.NewForm(roadmap.LoadResult{}, variant, roadmap.Catalog(locale))
	form.SetRoadmapID(input.RoadmapID)
	form.SetIframeURL(input.IframeURL)

	save := h.saveFunc(c, variant, locale)
	var result roadmap.SaveResult
	submitted := form.Submit(c.Request.Context(), h.checker, func(ctx context.Context, in roadmap.SaveInput) roadmap.SaveResult {
		result = save(ctx, in)
		return result
	})
	if !submitted {
		c.JSON(http.StatusUnprocessableEntity, roadmap.SaveResult{Status: roadmap.StatusError, Message: form.Notification.Message})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Validate runs the roadmap check for a candidate id.
func (h *SettingsHandler) Validate(c *gin.Context) {
	var input roadmap.SaveInput
	if errBind := c.ShouldBindJSON(&input); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	form := roadmap.NewForm(roadmap.LoadResult{}, currentVariant(), roadmap.Catalog(h.locale(c)))
	form.SetRoadmapID(input.RoadmapID)
	form.SetIframeURL(input.IframeURL)
	if !form.Validate(c.Request.Context(), h.checker) {
		c.JSON(http.StatusUnprocessableEntity, validateResponse{OK: false, Message: form.Notification.Message})
		return
	}
	c.JSON(http.StatusOK, validateResponse{OK: true})
}

// Bounce answers a form post or page load whose session token expired. The page it renders
// fetches a fresh token from App Bridge and replays the request with the original fields.
func (h *SettingsHandler) Bounce(c *gin.Context) {
	page := webui.BouncePage{
		Messages:    roadmap.Catalog(h.locale(c)),
		APIKey:      h.apiKey,
		Method:      "get",
		ActionURL:   c.Request.URL.Path,
		BounceParam: internalhttp.SessionBounceParam,
	}
	fields := c.Request.URL.Query()
	if c.Request.Method == http.MethodPost {
		page.Method = "post"
		page.ActionURL = actionURL(c)
		if errParse := c.Request.ParseForm(); errParse != nil {
			log.WithError(errParse).Warn("session bounce: parse form")
		}
		fields = c.Request.PostForm
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == "id_token" || name == internalhttp.SessionBounceParam {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range fields[name] {
			page.Fields = append(page.Fields, webui.HiddenField{Name: name, Value: value})
		}
	}

	var buf bytes.Buffer
	if errRender := h.pages.RenderBounce(&buf, page); errRender != nil {
		log.WithError(errRender).Error("render session bounce page")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session token expired"})
		return
	}
	c.Data(http.StatusUnauthorized, "text/html; charset=utf-8", buf.Bytes())
}

// History lists the shop's recent save attempts.
func (h *SettingsHandler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{"items": []any{}})
		return
	}
	limit := h.historyLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, errParse := strconv.Atoi(raw)
		if errParse != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if limit <= 0 || parsed < limit {
			limit = parsed
		}
	}
	rows, errList := h.history.List(c.Request.Context(), internalhttp.ShopFromContext(c), limit)
	if errList != nil {
		log.WithError(errList).Error("list settings history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list history failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}

func (h *SettingsHandler) saveFunc(c *gin.Context, variant roadmap.Variant, locale string) roadmap.SaveFunc {
	api := internalhttp.AdminAPIFromContext(c)
	shop := internalhttp.ShopFromContext(c)
	return func(ctx context.Context, input roadmap.SaveInput) roadmap.SaveResult {
		return h.controller.Save(ctx, api, roadmap.SaveRequest{
			Shop:    shop,
			Input:   input,
			Variant: variant,
			Locale:  locale,
		})
	}
}

func (h *SettingsHandler) render(c *gin.Context, form *roadmap.Form) {
	var buf bytes.Buffer
	errRender := h.pages.RenderSettings(&buf, webui.SettingsPage{
		Form:      form,
		Shop:      internalhttp.ShopFromContext(c),
		APIKey:    h.apiKey,
		IDToken:   idToken(c),
		ActionURL: actionURL(c),
	})
	if errRender != nil {
		log.WithError(errRender).Error("render settings page")
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// locale prefers the locale Shopify passes on the query string.
func (h *SettingsHandler) locale(c *gin.Context) string {
	if v := strings.TrimSpace(c.Query("locale")); v != "" {
		return v
	}
	return h.defaultLocale
}

func idToken(c *gin.Context) string {
	if v := strings.TrimSpace(c.Query("id_token")); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.PostForm("id_token")); v != "" {
		return v
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// actionURL keeps the host query parameters (shop, host, locale) on form posts.
func actionURL(c *gin.Context) string {
	query := c.Request.URL.Query()
	query.Del("id_token")
	query.Del(internalhttp.SessionBounceParam)
	if encoded := query.Encode(); encoded != "" {
		return c.Request.URL.Path + "?" + encoded
	}
	return c.Request.URL.Path
}

// currentVariant reads the field flags from the DB config snapshot.
func currentVariant() roadmap.Variant {
	flags := internalsettings.CurrentFlags()
	return roadmap.Variant{
		IframeURLField:     flags.IframeURLField,
		ValidateBeforeSave: flags.ValidateBeforeSave,
	}
}
