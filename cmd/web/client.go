package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiClient talks to the AmmoTrack API on behalf of the signed-in user.
type apiClient struct {
	base string
	hc   *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		// AI flows can take most of a minute.
		hc: &http.Client{Timeout: 2 * time.Minute},
	}
}

// do sends body (JSON-encoded when non-nil) and returns the raw response body and status.
func (c *apiClient) do(method, path, token string, body any) ([]byte, int, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return data, resp.StatusCode, err
}

func (c *apiClient) get(path, token string) ([]byte, int, error) {
	return c.do(http.MethodGet, path, token, nil)
}

func (c *apiClient) post(path, token string, body any) ([]byte, int, error) {
	return c.do(http.MethodPost, path, token, body)
}

func (c *apiClient) put(path, token string, body any) ([]byte, int, error) {
	return c.do(http.MethodPut, path, token, body)
}

func (c *apiClient) delete(path, token string) ([]byte, int, error) {
	return c.do(http.MethodDelete, path, token, nil)
}

// getJSON decodes a 200 response into out. Other statuses become an *apiError.
func (c *apiClient) getJSON(path, token string, out any) error {
	data, status, err := c.get(path, token)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return newAPIError(status, data)
	}
	return json.Unmarshal(data, out)
}

func decodeJSON(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

// apiError is a non-2xx API answer: {"error": "...", "fields": {...}}.
type apiError struct {
	Status  int
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func newAPIError(status int, data []byte) *apiError {
	e := &apiError{Status: status}
	if err := json.Unmarshal(data, e); err != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(data))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}
