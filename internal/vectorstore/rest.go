package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helpdock/helpdock/internal/model"
)

// restStore talks to a hosted vector database over its JSON API. It assumes
// the Pinecone-style surface: upsert, paginated ID listing with an optional
// prefix, batch fetch, batch delete, and similarity query.
type restConfig struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	Namespace      string `json:"namespace"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type restStore struct {
	baseURL   string
	apiKey    string
	namespace string
	client    *http.Client
}

func init() {
	Register("rest", createRESTStore)
}

func createRESTStore(args interface{}) (Store, error) {
	cfg := &restConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vector store base_url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vector store api_key is required")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &restStore{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		namespace: cfg.Namespace,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

type restVector struct {
	ID       string               `json:"id"`
	Values   []float32            `json:"values,omitempty"`
	Metadata model.RecordMetadata `json:"metadata"`
}

func (s *restStore) Upsert(ctx context.Context, records []model.Record) error {
	vectors := make([]restVector, 0, len(records))
	for _, rec := range records {
		vectors = append(vectors, restVector{ID: rec.ID, Values: rec.Values, Metadata: rec.Metadata})
	}
	body := map[string]interface{}{"vectors": vectors}
	if s.namespace != "" {
		body["namespace"] = s.namespace
	}
	return s.doJSON(ctx, http.MethodPost, "/vectors/upsert", body, nil)
}

func (s *restStore) ListIDs(ctx context.Context, prefix string, cursor string, limit int) ([]string, string, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if prefix != "" {
		params.Set("prefix", prefix)
	}
	if cursor != "" {
		params.Set("paginationToken", cursor)
	}
	if s.namespace != "" {
		params.Set("namespace", s.namespace)
	}
	var out struct {
		Vectors []struct {
			ID string `json:"id"`
		} `json:"vectors"`
		Pagination struct {
			Next string `json:"next"`
		} `json:"pagination"`
	}
	if err := s.doJSON(ctx, http.MethodGet, "/vectors/list?"+params.Encode(), nil, &out); err != nil {
		return nil, "", err
	}
	ids := make([]string, 0, len(out.Vectors))
	for _, v := range out.Vectors {
		ids = append(ids, v.ID)
	}
	return ids, out.Pagination.Next, nil
}

func (s *restStore) Fetch(ctx context.Context, ids []string) ([]model.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := url.Values{}
	for _, id := range ids {
		params.Add("ids", id)
	}
	if s.namespace != "" {
		params.Set("namespace", s.namespace)
	}
	var out struct {
		Vectors map[string]restVector `json:"vectors"`
	}
	if err := s.doJSON(ctx, http.MethodGet, "/vectors/fetch?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	// Preserve request order; absent IDs are simply skipped.
	records := make([]model.Record, 0, len(out.Vectors))
	for _, id := range ids {
		if v, ok := out.Vectors[id]; ok {
			records = append(records, model.Record{ID: v.ID, Values: v.Values, Metadata: v.Metadata})
		}
	}
	return records, nil
}

func (s *restStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]interface{}{"ids": ids}
	if s.namespace != "" {
		body["namespace"] = s.namespace
	}
	return s.doJSON(ctx, http.MethodPost, "/vectors/delete", body, nil)
}

func (s *restStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	body := map[string]interface{}{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	if s.namespace != "" {
		body["namespace"] = s.namespace
	}
	var out struct {
		Matches []struct {
			ID       string               `json:"id"`
			Score    float32              `json:"score"`
			Values   []float32            `json:"values"`
			Metadata model.RecordMetadata `json:"metadata"`
		} `json:"matches"`
	}
	if err := s.doJSON(ctx, http.MethodPost, "/query", body, &out); err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(out.Matches))
	for _, m := range out.Matches {
		matches = append(matches, Match{
			Record: model.Record{ID: m.ID, Values: m.Values, Metadata: m.Metadata},
			Score:  m.Score,
		})
	}
	return matches, nil
}

func (s *restStore) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector store %s %s failed: %s: %s", method, path, resp.Status, strings.TrimSpace(string(respBody)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
