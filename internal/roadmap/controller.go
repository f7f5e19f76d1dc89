package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Leo3030/roadmap-demo/internal/models"
	"github.com/Leo3030/roadmap-demo/internal/shopify"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"gorm.io/datatypes"
)

const metafieldQuery = `
query {
  shop {
    metafield(namespace: "roadmap", key: "settings") {
      value
    }
  }
}`

const shopIDQuery = `
query {
  shop {
    id
  }
}`

const metafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      key
      namespace
      value
    }
    userErrors {
      field
      message
    }
  }
}`

// Controller reads and writes the roadmap.settings shop metafield.
type Controller struct {
	defaults Defaults
	history  Recorder
	now      func() time.Time
}

// NewController constructs a Controller. history may be nil.
func NewController(defaults Defaults, history Recorder) *Controller {
	return &Controller{
		defaults: defaults,
		history:  history,
		now:      time.Now,
	}
}

// Load returns the settings to render. Failures while reading the metafield are
// logged and treated as "not stored"; the result always carries an id.
func (c *Controller) Load(ctx context.Context, api shopify.AdminAPI, variant Variant) LoadResult {
	roadmapID := ""
	iframeURL := c.defaults.devIframeURL()

	stored, errRead := readStoredSettings(ctx, api)
	if errRead != nil {
		log.WithError(errRead).Warn("roadmap: load metafield failed, using defaults")
	} else if stored.Exists() {
		roadmapID = stored.Get("roadmapId").String()
		if v := stored.Get("iframeUrl").String(); v != "" {
			iframeURL = v
		}
	}

	if roadmapID == "" && c.defaults.RoadmapID != "" {
		roadmapID = c.defaults.RoadmapID
	}
	if roadmapID == "" {
		roadmapID = FallbackRoadmapID
	}

	result := LoadResult{RoadmapID: roadmapID}
	if variant.IframeURLField {
		result.IframeURL = iframeURL
	}
	return result
}

// readStoredSettings returns the parsed metafield document, or a non-existent
// result when nothing is stored.
func readStoredSettings(ctx context.Context, api shopify.AdminAPI) (gjson.Result, error) {
	if api == nil {
		return gjson.Result{}, errors.New("no admin api client")
	}
	resp, errQuery := api.GraphQL(ctx, metafieldQuery, nil)
	if errQuery != nil {
		return gjson.Result{}, errQuery
	}
	value := resp.Get("data.shop.metafield.value").String()
	if value == "" {
		return gjson.Result{}, nil
	}
	if !gjson.Valid(value) {
		return gjson.Result{}, fmt.Errorf("metafield value is not valid JSON: %.64q", value)
	}
	return gjson.Parse(value), nil
}

// Save overwrites the metafield with the submitted settings.
func (c *Controller) Save(ctx context.Context, api shopify.AdminAPI, req SaveRequest) SaveResult {
	messages := Catalog(req.Locale)
	doc := c.buildSettings(req)

	payload, result, errSave := c.write(ctx, api, doc, messages)
	if errSave != nil {
		log.WithError(errSave).WithField("shop", req.Shop).Error("roadmap: save metafield failed")
		result = SaveResult{Status: StatusError, Message: messages.SaveErrorPrefix + errSave.Error()}
	}
	c.record(ctx, req, doc, payload, result)
	return result
}

func (c *Controller) buildSettings(req SaveRequest) Settings {
	doc := Settings{
		RoadmapID: req.Input.RoadmapID,
		UpdatedAt: formatTimestamp(c.now()),
	}
	if req.Variant.IframeURLField {
		doc.IframeURL = req.Input.IframeURL
		if doc.IframeURL == "" {
			doc.IframeURL = c.defaults.devIframeURL()
		}
	}
	return doc
}

// write performs the two sequential Admin API calls. A returned error means the
// request failed outright; userErrors are reported through the SaveResult.
func (c *Controller) write(ctx context.Context, api shopify.AdminAPI, doc Settings, messages Messages) ([]byte, SaveResult, error) {
	if api == nil {
		return nil, SaveResult{}, errors.New("no admin api client")
	}

	shopResp, errShop := api.GraphQL(ctx, shopIDQuery, nil)
	if errShop != nil {
		return nil, SaveResult{}, errShop
	}
	shopID := shopResp.Get("data.shop.id").String()
	if shopID == "" {
		return nil, SaveResult{}, errors.New("shop id missing from response")
	}

	payload, errMarshal := json.Marshal(doc)
	if errMarshal != nil {
		return nil, SaveResult{}, errMarshal
	}

	resp, errSet := api.GraphQL(ctx, metafieldsSetMutation, map[string]any{
		"metafields": []map[string]any{
			{
				"namespace": MetafieldNamespace,
				"key":       MetafieldKey,
				"value":     string(payload),
				"type":      MetafieldType,
				"ownerId":   shopID,
			},
		},
	})
	if errSet != nil {
		return payload, SaveResult{}, errSet
	}

	if userErrors := resp.Get("data.metafieldsSet.userErrors"); userErrors.IsArray() && len(userErrors.Array()) > 0 {
		return payload, SaveResult{Status: StatusError, Message: userErrors.Get("0.message").String()}, nil
	}
	return payload, SaveResult{Status: StatusSuccess, Message: messages.SaveSuccess}, nil
}

func (c *Controller) record(ctx context.Context, req SaveRequest, doc Settings, payload []byte, result SaveResult) {
	if c.history == nil {
		return
	}
	entry := models.SettingsSave{
		Shop:      req.Shop,
		RoadmapID: doc.RoadmapID,
		IframeURL: doc.IframeURL,
		Status:    result.Status,
		Message:   result.Message,
	}
	if len(payload) > 0 {
		entry.Payload = datatypes.JSON(payload)
	}
	if errRecord := c.history.Record(ctx, entry); errRecord != nil {
		log.WithError(errRecord).WithField("shop", req.Shop).Warn("roadmap: record save history failed")
	}
}
