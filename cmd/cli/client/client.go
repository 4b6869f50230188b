// Package client is the CLI's thin HTTP client for the AmmoTrack API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/crucial707/ammotrack/cmd/cli/config"
)

// Client sends authenticated JSON requests to the API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New returns a client for the configured API URL without a token.
func New() *Client {
	return &Client{BaseURL: config.APIURL(), HTTP: &http.Client{Timeout: 2 * time.Minute}}
}

// Authenticated returns a client carrying the saved login token.
func Authenticated() (*Client, error) {
	tok, err := config.LoadToken()
	if err != nil {
		return nil, err
	}
	c := New()
	c.Token = tok
	return c, nil
}

// Error is a non-2xx API response.
type Error struct {
	Status  int
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
	for k, v := range e.Fields {
		msg += fmt.Sprintf("\n  %s: %s", k, v)
	}
	if e.Status == http.StatusUnauthorized {
		msg += "\n(run `ammotrack login` to refresh your token)"
	}
	return msg
}

// Do sends body as JSON (when non-nil) and decodes a 2xx response into out
// (when non-nil).
func (c *Client) Do(method, path string, body, out any) error {
	resp, err := c.Raw(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Raw sends the request and returns the response for the caller to read.
// Non-2xx answers are turned into *Error and the body is closed.
func (c *Client) Raw(method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call API: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		e := &Error{Status: resp.StatusCode}
		if json.Unmarshal(data, e) != nil || e.Message == "" {
			e.Message = strings.TrimSpace(string(data))
		}
		return nil, e
	}
	return resp, nil
}

func (c *Client) Get(path string, out any) error { return c.Do(http.MethodGet, path, nil, out) }

func (c *Client) Post(path string, body, out any) error {
	return c.Do(http.MethodPost, path, body, out)
}

func (c *Client) Delete(path string) error { return c.Do(http.MethodDelete, path, nil, nil) }

// Page is the API's list envelope.
type Page[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
