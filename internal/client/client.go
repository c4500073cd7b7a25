package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mylxsw/short-link/internal/config"
)

// Client talks to the short-link http api
type Client struct {
	server string
	http   *http.Client
}

type ShortenResp struct {
	ShortID     string `json:"short_id"`
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Message)
}

func New(conf *config.Client) *Client {
	return &Client{
		server: conf.Server,
		http:   &http.Client{Timeout: time.Duration(conf.Timeout) * time.Second},
	}
}

func (c *Client) Shorten(target string) (ShortenResp, error) {
	body, _ := json.Marshal(map[string]string{"url": target})

	var res ShortenResp
	err := c.do(http.MethodPost, "/api/links", bytes.NewReader(body), &res)
	return res, err
}

func (c *Client) Clicks(shortID string) (int64, error) {
	var res struct {
		Clicks int64 `json:"clicks"`
	}

	err := c.do(http.MethodGet, "/api/links/"+url.PathEscape(shortID)+"/clicks", nil, &res)
	return res.Clicks, err
}

func (c *Client) Delete(shortID string) error {
	return c.do(http.MethodDelete, "/api/links/"+url.PathEscape(shortID), nil, nil)
}

func (c *Client) Links() ([]string, error) {
	var res struct {
		ShortURLs []string `json:"short_urls"`
	}

	err := c.do(http.MethodGet, "/api/links", nil, &res)
	return res.ShortURLs, err
}

func (c *Client) ReusePool() ([]string, error) {
	var res struct {
		ReusePool []string `json:"reuse_pool"`
	}

	err := c.do(http.MethodGet, "/api/reuse-pool", nil, &res)
	return res.ReusePool, err
}

func (c *Client) do(method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequest(method, c.server+path, body)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		message := string(data)
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}

	return json.Unmarshal(data, out)
}
