// Package shopifytest provides an in-memory stand-in for the Admin GraphQL API.
package shopifytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// ShopGID is the owner id returned by the fake shop query.
const ShopGID = "gid://shopify/Shop/1001"

// UserError mirrors a metafieldsSet userErrors entry.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// Metafield is a stored metafield value.
type Metafield struct {
	Namespace string
	Key       string
	Type      string
	OwnerID   string
	Value     string
}

// Server is a fake Admin API.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	metafields map[string]Metafield
	requests   []Request

	userErrors   []UserError
	failStatus   int
	graphQLError string
	rawValue     string
}

// Request captures one GraphQL call received by the fake.
type Request struct {
	Query       string
	Variables   map[string]any
	AccessToken string
}

// NewServer starts a fake Admin API.
func NewServer() *Server {
	s := &Server{metafields: map[string]Metafield{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// SetUserErrors makes metafieldsSet report errs instead of storing the value.
func (s *Server) SetUserErrors(errs ...UserError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userErrors = errs
}

// SetFailStatus makes every request answer with status; 0 restores normal behaviour.
func (s *Server) SetFailStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// SetGraphQLError makes every request answer with a top-level errors entry.
func (s *Server) SetGraphQLError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphQLError = message
}

// SetRawMetafieldValue makes metafield reads return value verbatim.
func (s *Server) SetRawMetafieldValue(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawValue = value
}

// Metafield returns the stored metafield for namespace/key.
func (s *Server) Metafield(namespace, key string) (Metafield, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metafields[namespace+"."+key]
	return m, ok
}

// PutMetafield seeds a stored metafield value.
func (s *Server) PutMetafield(namespace, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metafields[namespace+"."+key] = Metafield{Namespace: namespace, Key: key, Type: "json", OwnerID: ShopGID, Value: value}
}

// MetafieldCount returns how many metafields are stored.
func (s *Server) MetafieldCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.metafields)
}

// Requests returns a copy of the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if errDecode := json.NewDecoder(r.Body).Decode(&body); errDecode != nil {
		http.Error(w, errDecode.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Query:       body.Query,
		Variables:   body.Variables,
		AccessToken: r.Header.Get("X-Shopify-Access-Token"),
	})

	if s.failStatus != 0 {
		w.WriteHeader(s.failStatus)
		_, _ = w.Write([]byte(`{"errors":"failure injected"}`))
		return
	}
	if s.graphQLError != "" {
		writeJSON(w, map[string]any{"errors": []map[string]any{{"message": s.graphQLError}}})
		return
	}

	switch {
	case strings.Contains(body.Query, "metafieldsSet"):
		s.handleMetafieldsSet(w, body.Variables)
	case strings.Contains(body.Query, "metafield("):
		s.handleMetafieldRead(w, body.Query)
	case strings.Contains(body.Query, "shop"):
		writeJSON(w, map[string]any{"data": map[string]any{"shop": map[string]any{"id": ShopGID}}})
	default:
		writeJSON(w, map[string]any{"errors": []map[string]any{{"message": "unsupported operation"}}})
	}
}

func (s *Server) handleMetafieldRead(w http.ResponseWriter, query string) {
	var metafield any
	if s.rawValue != "" {
		metafield = map[string]any{"value": s.rawValue}
	} else {
		for _, m := range s.metafields {
			if strings.Contains(query, `"`+m.Namespace+`"`) && strings.Contains(query, `"`+m.Key+`"`) {
				metafield = map[string]any{"value": m.Value}
				break
			}
		}
	}
	writeJSON(w, map[string]any{"data": map[string]any{"shop": map[string]any{"metafield": metafield}}})
}

func (s *Server) handleMetafieldsSet(w http.ResponseWriter, variables map[string]any) {
	if len(s.userErrors) > 0 {
		writeJSON(w, map[string]any{"data": map[string]any{"metafieldsSet": map[string]any{
			"metafields": []any{},
			"userErrors": s.userErrors,
		}}})
		return
	}

	inputs, _ := variables["metafields"].([]any)
	saved := make([]map[string]any, 0, len(inputs))
	for _, raw := range inputs {
		in, _ := raw.(map[string]any)
		m := Metafield{
			Namespace: stringValue(in["namespace"]),
			Key:       stringValue(in["key"]),
			Type:      stringValue(in["type"]),
			OwnerID:   stringValue(in["ownerId"]),
			Value:     stringValue(in["value"]),
		}
		s.metafields[m.Namespace+"."+m.Key] = m
		saved = append(saved, map[string]any{"key": m.Key, "namespace": m.Namespace, "value": m.Value})
	}
	writeJSON(w, map[string]any{"data": map[string]any{"metafieldsSet": map[string]any{
		"metafields": saved,
		"userErrors": []any{},
	}}})
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
