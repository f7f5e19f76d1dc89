package roadmap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Leo3030/roadmap-demo/internal/config"
	"github.com/tidwall/gjson"
)

// CheckReason classifies a failed roadmap check.
type CheckReason int

const (
	// ReasonEmpty means no id was entered.
	ReasonEmpty CheckReason = iota + 1
	// ReasonRejected means the roadmap service answered with a non-2xx status.
	ReasonRejected
	// ReasonNetwork means the roadmap service could not be reached.
	ReasonNetwork
)

// CheckError is returned by Checker.Check when submission must be blocked.
type CheckError struct {
	Reason CheckReason
	Status int    // HTTP status for ReasonRejected.
	Detail string // Service message or transport error text; may be empty.
	Err    error
}

func (e *CheckError) Error() string {
	return Catalog("en").CheckFailure(e)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// AsCheckError unwraps err into a *CheckError.
func AsCheckError(err error) (*CheckError, bool) {
	var checkErr *CheckError
	if errors.As(err, &checkErr) {
		return checkErr, true
	}
	return nil, false
}

// RoadmapChecker verifies that a roadmap id refers to a published roadmap.
type RoadmapChecker interface {
	Check(ctx context.Context, id, iframeURL string) error
}

// Checker calls the public roadmap endpoint of Roadmap Space.
type Checker struct {
	prodIframeURL string
	prodBaseURL   string
	devBaseURL    string
	httpClient    *http.Client
}

// NewChecker builds a Checker from config. A zero HTTPTimeout leaves the client without a deadline.
func NewChecker(cfg config.RoadmapConfig) *Checker {
	return &Checker{
		prodIframeURL: cfg.ProdIframeURL,
		prodBaseURL:   strings.TrimRight(cfg.ProdAPIBaseURL, "/"),
		devBaseURL:    strings.TrimRight(cfg.DevAPIBaseURL, "/"),
		httpClient:    &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// APIBaseURL picks the production API only when iframeURL is exactly the production widget URL.
func (c *Checker) APIBaseURL(iframeURL string) string {
	if iframeURL == c.prodIframeURL {
		return c.prodBaseURL
	}
	return c.devBaseURL
}

// Check returns nil when GET {base}/v1/roadmaps/{id}/public answers 2xx.
func (c *Checker) Check(ctx context.Context, id, iframeURL string) (err error) {
	if id == "" {
		return &CheckError{Reason: ReasonEmpty}
	}

	endpoint := fmt.Sprintf("%s/v1/roadmaps/%s/public", c.APIBaseURL(iframeURL), url.PathEscape(id))
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if errReq != nil {
		return &CheckError{Reason: ReasonNetwork, Detail: errReq.Error(), Err: errReq}
	}
	req.Header.Set("Accept", "application/json")

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return &CheckError{Reason: ReasonNetwork, Detail: errDo.Error(), Err: errDo}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &CheckError{Reason: ReasonRejected, Status: resp.StatusCode, Detail: errorMessage(body)}
}

// errorMessage extracts a truthy "message" field from a JSON error body.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	msg := gjson.GetBytes(body, "message")
	switch msg.Type {
	case gjson.String:
		return msg.String()
	case gjson.Number:
		if msg.Num == 0 {
			return ""
		}
		return msg.Raw
	case gjson.JSON:
		return msg.Raw
	case gjson.True:
		return "true"
	default:
		return ""
	}
}
