// Package api is the HTTP client for the upcoming-items and timeline
// providers. It maps failures onto a small taxonomy the engine branches
// on: transport (retryable, cache stays), server (non-2xx), validation
// (rejected before dispatch).
package api

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

	"github.com/sandeepkv93/agendad/internal/model"
)

const DefaultTimeout = 10 * time.Second

type UpcomingResponse struct {
	Items           []model.UpcomingItem `json:"items"`
	Hours           int                  `json:"hours"`
	Total           int                  `json:"total"`
	ServerTimestamp int64                `json:"server_timestamp"`
	Stats           *SourceStats         `json:"stats,omitempty"`
}

type SourceStats struct {
	Tasks     int `json:"tasks"`
	Events    int `json:"events"`
	Reminders int `json:"reminders"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// NewClientWithHTTP injects the underlying http client, for tests.
func NewClientWithHTTP(baseURL, token string, hc *http.Client) *Client {
	c := NewClient(baseURL, token)
	if hc != nil {
		c.http = hc
	}
	return c
}

func (c *Client) Upcoming(ctx context.Context, spec model.FilterSpec) (UpcomingResponse, error) {
	n := spec.Normalize()
	values := url.Values{}
	values.Set("hours", strconv.Itoa(n.WindowHours))
	if !n.AllSourcesSelected() {
		parts := make([]string, 0, len(n.Sources))
		for _, s := range n.Sources {
			parts = append(parts, string(s))
		}
		values.Set("sources", strings.Join(parts, ","))
	}
	if n.Limit > 0 {
		values.Set("limit", strconv.Itoa(n.Limit))
	}

	var out UpcomingResponse
	if err := c.do(ctx, http.MethodGet, "/api/unified/upcoming?"+values.Encode(), nil, &out); err != nil {
		return UpcomingResponse{}, err
	}
	return out, nil
}

func (c *Client) Timeline(ctx context.Context, parentID string, limit int, beforeID string) ([]model.TimelineEntry, error) {
	if strings.TrimSpace(parentID) == "" {
		return nil, &ValidationError{Field: "parent id", Reason: "must not be empty"}
	}
	if limit <= 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must be positive"}
	}
	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	if beforeID != "" {
		values.Set("before_id", beforeID)
	}

	var out struct {
		Items []model.TimelineEntry `json:"items"`
	}
	path := fmt.Sprintf("/api/events/%s/timeline?%s", url.PathEscape(parentID), values.Encode())
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) AddComment(ctx context.Context, parentID, body string) (model.TimelineEntry, error) {
	if strings.TrimSpace(parentID) == "" {
		return model.TimelineEntry{}, &ValidationError{Field: "parent id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(body) == "" {
		return model.TimelineEntry{}, &ValidationError{Field: "comment body", Reason: "must not be empty"}
	}
	payload := map[string]string{"content": strings.TrimSpace(body), "type": string(model.EntryKindComment)}
	var out model.TimelineEntry
	path := fmt.Sprintf("/api/events/%s/comments", url.PathEscape(parentID))
	if err := c.do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return model.TimelineEntry{}, err
	}
	return out, nil
}

func (c *Client) EditComment(ctx context.Context, entryID, body string) (model.TimelineEntry, error) {
	if strings.TrimSpace(entryID) == "" {
		return model.TimelineEntry{}, &ValidationError{Field: "entry id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(body) == "" {
		return model.TimelineEntry{}, &ValidationError{Field: "comment body", Reason: "must not be empty"}
	}
	payload := map[string]string{"content": strings.TrimSpace(body)}
	var out model.TimelineEntry
	path := fmt.Sprintf("/api/events/comments/%s", url.PathEscape(entryID))
	if err := c.do(ctx, http.MethodPut, path, payload, &out); err != nil {
		return model.TimelineEntry{}, err
	}
	return out, nil
}

func (c *Client) DeleteComment(ctx context.Context, entryID string) error {
	if strings.TrimSpace(entryID) == "" {
		return &ValidationError{Field: "entry id", Reason: "must not be empty"}
	}
	path := fmt.Sprintf("/api/events/comments/%s", url.PathEscape(entryID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Status: resp.StatusCode, Message: serverMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServerError{Status: resp.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

func serverMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}
