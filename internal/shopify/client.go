// Package shopify is a minimal Admin GraphQL API client.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrGraphQL wraps top-level errors reported in a GraphQL response body.
var ErrGraphQL = errors.New("shopify: graphql error")

// maxResponseBytes bounds how much of an Admin API response is read.
const maxResponseBytes = 4 << 20

// AdminAPI executes Admin GraphQL operations for a single shop.
type AdminAPI interface {
	GraphQL(ctx context.Context, query string, variables map[string]any) (gjson.Result, error)
}

// Client talks to https://{shop}/admin/api/{version}/graphql.json with an access token.
type Client struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
}

// ClientFactory builds per-shop clients sharing one http.Client.
type ClientFactory struct {
	apiVersion string
	httpClient *http.Client
	// BaseURL overrides the https://{shop} origin; tests point it at an httptest server.
	BaseURL string
}

// NewClientFactory constructs a ClientFactory. timeout <= 0 leaves the client without a deadline.
func NewClientFactory(apiVersion string, timeout time.Duration) *ClientFactory {
	return &ClientFactory{
		apiVersion: strings.TrimSpace(apiVersion),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ForShop returns a client for shop authenticated with accessToken.
func (f *ClientFactory) ForShop(shop, accessToken string) *Client {
	origin := "https://" + strings.ToLower(strings.TrimSpace(shop))
	if f.BaseURL != "" {
		origin = strings.TrimRight(f.BaseURL, "/")
	}
	return &Client{
		endpoint:    fmt.Sprintf("%s/admin/api/%s/graphql.json", origin, f.apiVersion),
		accessToken: accessToken,
		httpClient:  f.httpClient,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GraphQL posts one operation and returns the parsed response body.
// Transport failures, non-2xx statuses and top-level "errors" are returned as errors;
// field-level userErrors are left in the result for the caller to inspect.
func (c *Client) GraphQL(ctx context.Context, query string, variables map[string]any) (result gjson.Result, err error) {
	payload, errMarshal := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if errMarshal != nil {
		return gjson.Result{}, fmt.Errorf("shopify: encode request: %w", errMarshal)
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if errReq != nil {
		return gjson.Result{}, fmt.Errorf("shopify: create request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return gjson.Result{}, fmt.Errorf("shopify: request failed: %w", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil && err == nil {
			err = fmt.Errorf("shopify: close response body: %w", errClose)
		}
	}()

	body, errRead := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if errRead != nil {
		return gjson.Result{}, fmt.Errorf("shopify: read response: %w", errRead)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, fmt.Errorf("shopify: admin api returned status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.New("shopify: response is not valid JSON")
	}

	parsed := gjson.ParseBytes(body)
	if errs := parsed.Get("errors"); errs.Exists() {
		msg := errs.Get("0.message").String()
		if msg == "" {
			msg = errs.String()
		}
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrGraphQL, msg)
	}
	return parsed, nil
}
