package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Leo3030/roadmap-demo/internal/config"
	internalhttp "github.com/Leo3030/roadmap-demo/internal/http"
	"github.com/Leo3030/roadmap-demo/internal/models"
	"github.com/Leo3030/roadmap-demo/internal/roadmap"
	internalsettings "github.com/Leo3030/roadmap-demo/internal/settings"
	"github.com/Leo3030/roadmap-demo/internal/shopify"
	"github.com/Leo3030/roadmap-demo/internal/shopify/shopifytest"
	"github.com/Leo3030/roadmap-demo/internal/webui"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testShop = "demo.myshopify.com"

type settingsTestEnv struct {
	router  *gin.Engine
	admin   *shopifytest.Server
	checks  *atomic.Int32
	history *roadmap.History
}

func setFlags(iframeField, validate bool) {
	internalsettings.StoreDBConfig(time.Now(), map[string]json.RawMessage{
		internalsettings.IframeURLFieldKey:     json.RawMessage(fmt.Sprint(iframeField)),
		internalsettings.ValidateBeforeSaveKey: json.RawMessage(fmt.Sprint(validate)),
	})
}

func newSettingsTestEnv(t *testing.T, roadmapStatus int, roadmapBody string) *settingsTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	setFlags(true, true)
	t.Cleanup(func() { internalsettings.StoreDBConfig(time.Now(), nil) })

	admin := shopifytest.NewServer()
	t.Cleanup(admin.Close)
	factory := shopify.NewClientFactory("2024-10", 0)
	factory.BaseURL = admin.URL

	checks := &atomic.Int32{}
	roadmapSvc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks.Add(1)
		w.WriteHeader(roadmapStatus)
		_, _ = w.Write([]byte(roadmapBody))
	}))
	t.Cleanup(roadmapSvc.Close)
	roadmapCfg := config.Default().Roadmap
	roadmapCfg.ProdAPIBaseURL = roadmapSvc.URL
	roadmapCfg.DevAPIBaseURL = roadmapSvc.URL

	dsn := fmt.Sprintf("file:admin_settings_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.AutoMigrate(&models.SettingsSave{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	history := roadmap.NewHistory(db)

	pages, errPages := webui.Load()
	if errPages != nil {
		t.Fatalf("load pages: %v", errPages)
	}

	handler := NewSettingsHandler(SettingsHandlerOptions{
		Controller:    roadmap.NewController(roadmap.DefaultsFromConfig(roadmapCfg), history),
		Checker:       roadmap.NewChecker(roadmapCfg),
		History:       history,
		Pages:         pages,
		APIKey:        "test-key",
		DefaultLocale: "en",
		HistoryLimit:  50,
	})

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalhttp.ContextKeyShop, testShop)
		c.Set(internalhttp.ContextKeyAdmin, shopify.AdminAPI(factory.ForShop(testShop, "shpat_test")))
		c.Next()
	})
	router.GET("/app", handler.Page)
	router.POST("/app", handler.Submit)
	router.GET("/app/api/settings", handler.Get)
	router.POST("/app/api/settings", handler.Save)
	router.POST("/app/api/settings/validate", handler.Validate)
	router.GET("/app/api/settings/history", handler.History)
	router.GET("/bounce", handler.Bounce)
	router.POST("/bounce", handler.Bounce)

	return &settingsTestEnv{router: router, admin: admin, checks: checks, history: history}
}

func (e *settingsTestEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSettingsPageRendersStoredValues(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)
	env.admin.PutMetafield(roadmap.MetafieldNamespace, roadmap.MetafieldKey, `{"roadmapId":"stored-id","iframeUrl":"https://cdn.roadmap.space/widget/roadmap.js"}`)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/app?shop=demo.myshopify.com&id_token=tok", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `value="stored-id"`) {
		t.Fatalf("expected stored id in page")
	}
	if !strings.Contains(body, `name="id_token" value="tok"`) {
		t.Fatalf("expected session token to be carried in the form")
	}
	if !strings.Contains(body, `action="/app?shop=demo.myshopify.com"`) {
		t.Fatalf("expected action url without the token")
	}
}

func TestSettingsSubmitValidatesThenSaves(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)

	rec := env.do(formRequest("/app", url.Values{
		"roadmapId": {"abc123"},
		"iframeUrl": {"https://cdn.roadmap.space/widget/roadmap.js"},
		"action":    {"save"},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Settings have been saved successfully") {
		t.Fatalf("expected success toast, got %s", rec.Body.String())
	}
	if env.checks.Load() != 1 {
		t.Fatalf("expected one roadmap check, got %d", env.checks.Load())
	}
	stored, ok := env.admin.Metafield(roadmap.MetafieldNamespace, roadmap.MetafieldKey)
	if !ok || !strings.Contains(stored.Value, `"roadmapId":"abc123"`) {
		t.Fatalf("expected stored metafield, got %+v", stored)
	}
}

func TestSettingsSubmitBlockedByFailedCheck(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusNotFound, `{"message":"not found"}`)

	rec := env.do(formRequest("/app", url.Values{"roadmapId": {"missing"}}))
	if !strings.Contains(rec.Body.String(), "Validation failed: not found") {
		t.Fatalf("expected validation failure toast")
	}
	if env.admin.MetafieldCount() != 0 || len(env.admin.Requests()) != 0 {
		t.Fatalf("save must not run after a failed check")
	}
}

func TestSettingsSubmitEmptyID(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)

	rec := env.do(formRequest("/app", url.Values{"roadmapId": {"  "}}))
	if !strings.Contains(rec.Body.String(), "Please enter a Roadmap ID") {
		t.Fatalf("expected empty id message")
	}
	if env.checks.Load() != 0 || len(env.admin.Requests()) != 0 {
		t.Fatalf("no outbound calls expected for an empty id")
	}
}

func TestSettingsSubmitWithoutValidationFlag(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusNotFound, `{}`)
	setFlags(false, false)

	rec := env.do(formRequest("/app", url.Values{"roadmapId": {"abc123"}, "iframeUrl": {"https://ignored"}}))
	if !strings.Contains(rec.Body.String(), "Settings have been saved successfully") {
		t.Fatalf("expected save without validation")
	}
	if env.checks.Load() != 0 {
		t.Fatalf("checker must not run when validation is disabled")
	}
	if strings.Contains(rec.Body.String(), `name="iframeUrl"`) {
		t.Fatalf("iframe field should be hidden")
	}
	stored, _ := env.admin.Metafield(roadmap.MetafieldNamespace, roadmap.MetafieldKey)
	if strings.Contains(stored.Value, "iframeUrl") {
		t.Fatalf("iframe url must not be stored, got %s", stored.Value)
	}
}

func TestSettingsDismissHidesToast(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)

	rec := env.do(formRequest("/app", url.Values{"roadmapId": {"abc123"}, "action": {"dismiss"}}))
	if strings.Contains(rec.Body.String(), `data-testid="toast"`) {
		t.Fatalf("toast should be hidden after dismiss")
	}
	if !strings.Contains(rec.Body.String(), `value="abc123"`) {
		t.Fatalf("dismiss should keep the field values")
	}
	if len(env.admin.Requests()) != 0 {
		t.Fatalf("dismiss must not save")
	}
}

func TestSettingsSubmitLocalized(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)

	rec := env.do(formRequest("/app?locale=zh-CN", url.Values{"roadmapId": {""}}))
	if !strings.Contains(rec.Body.String(), "请输入 Roadmap ID") {
		t.Fatalf("expected localized message")
	}
}

func TestSettingsAPIGet(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/app/api/settings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["roadmapId"] != roadmap.FallbackRoadmapID {
		t.Fatalf("expected fallback id, got %v", payload["roadmapId"])
	}
	if payload["iframeUrl"] != config.DefaultDevIframeURL || payload["showIframeUrl"] != true {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestSettingsAPISave(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)

	rec := env.do(jsonRequest(http.MethodPost, "/app/api/settings", `{"roadmapId":"abc123","iframeUrl":""}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var result roadmap.SaveResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != roadmap.StatusSuccess {
		t.Fatalf("unexpected result %+v", result)
	}

	env.admin.SetUserErrors(shopifytest.UserError{Message: "Value is invalid"})
	rec = env.do(jsonRequest(http.MethodPost, "/app/api/settings", `{"roadmapId":"abc123"}`))
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != roadmap.StatusError || result.Message != "Value is invalid" {
		t.Fatalf("unexpected result %+v", result)
	}

	if rec := env.do(jsonRequest(http.MethodPost, "/app/api/settings", `{`)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for malformed body, got %d", rec.Code)
	}
}

func TestSettingsAPISaveBlockedByFailedCheck(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusNotFound, `{"message":"not found"}`)

	rec := env.do(jsonRequest(http.MethodPost, "/app/api/settings", `{"roadmapId":"missing"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	var result roadmap.SaveResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != roadmap.StatusError || result.Message != "Validation failed: not found" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(env.admin.Requests()) != 0 {
		t.Fatalf("save must not run after a failed check")
	}
}

func TestSettingsAPIValidate(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusNotFound, `{"message":"not found"}`)

	rec := env.do(jsonRequest(http.MethodPost, "/app/api/settings/validate", `{"roadmapId":"missing"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Validation failed: not found") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestSettingsAPIValidateSuccess(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)

	rec := env.do(jsonRequest(http.MethodPost, "/app/api/settings/validate", `{"roadmapId":"abc123"}`))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestSettingsHistory(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)
	env.do(jsonRequest(http.MethodPost, "/app/api/settings", `{"roadmapId":"first"}`))
	env.do(jsonRequest(http.MethodPost, "/app/api/settings", `{"roadmapId":"second"}`))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/app/api/settings/history?limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var payload struct {
		Items []models.SettingsSave `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].RoadmapID != "second" || payload.Items[0].Shop != testShop {
		t.Fatalf("unexpected history %+v", payload.Items)
	}

	if rec := env.do(httptest.NewRequest(http.MethodGet, "/app/api/settings/history?limit=abc", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid limit, got %d", rec.Code)
	}
}

func TestSessionBounceReplaysFormPost(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)

	rec := env.do(formRequest("/bounce?shop=demo.myshopify.com&locale=zh&id_token=old&session_bounce=1", url.Values{
		"id_token":  {"old"},
		"roadmapId": {"abc123"},
		"iframeUrl": {"https://cdn.roadmap.space/widget/roadmap.js"},
		"action":    {"dismiss"},
	}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`method="post"`,
		`action="/bounce?locale=zh&amp;shop=demo.myshopify.com"`,
		`name="action" value="dismiss"`,
		`name="iframeUrl" value="https://cdn.roadmap.space/widget/roadmap.js"`,
		`name="roadmapId" value="abc123"`,
		"正在刷新会话...",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in bounce page, got %s", want, body)
		}
	}
	if strings.Contains(body, `value="old"`) {
		t.Fatalf("stale token must not be replayed")
	}
	if env.checks.Load() != 0 {
		t.Fatalf("bounce must not run the roadmap check")
	}
}

func TestSessionBounceReloadsPage(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/bounce?shop=demo.myshopify.com&host=abc&id_token=old", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`method="get"`,
		`action="/bounce"`,
		`name="host" value="abc"`,
		`name="shop" value="demo.myshopify.com"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in bounce page, got %s", want, body)
		}
	}
}

func TestSettingsSubmitKeepsRawValues(t *testing.T) {
	env := newSettingsTestEnv(t, http.StatusOK, `{}`)

	rec := env.do(jsonRequest(http.MethodPost, "/app/api/settings", `{"roadmapId":" abc123 ","iframeUrl":"https://cdn.roadmap.space/widget/roadmap.js"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	stored, ok := env.admin.Metafield(roadmap.MetafieldNamespace, roadmap.MetafieldKey)
	if !ok {
		t.Fatalf("expected metafield to be written")
	}
	var doc roadmap.Settings
	if err := json.Unmarshal([]byte(stored.Value), &doc); err != nil {
		t.Fatalf("decode stored value: %v", err)
	}
	if doc.RoadmapID != " abc123 " {
		t.Fatalf("expected the id to be stored as entered, got %q", doc.RoadmapID)
	}

	rec = env.do(formRequest("/app", url.Values{"roadmapId": {"   "}, "action": {"save"}}))
	if strings.Contains(rec.Body.String(), "Please enter a Roadmap ID") {
		t.Fatalf("a whitespace id is not empty and should reach the roadmap check")
	}
	if env.checks.Load() != 2 {
		t.Fatalf("expected two roadmap checks, got %d", env.checks.Load())
	}
}
