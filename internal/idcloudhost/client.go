package idcloudhost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

const (
	// DefaultBaseURL is the public idcloudhost API endpoint.
	DefaultBaseURL = "https://api.idcloudhost.com/v1"

	// Every call shares one connect+read deadline.
	requestTimeout = 360 * time.Second
)

// Locations lists the regions the API accepts.
var Locations = []string{"jkt01", "jkt02", "jkt03", "sgp01"}

// Doer issues a single HTTP request. *http.Client satisfies it; tests
// substitute a fake.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL  string
	APIKey   string
	Location string

	// HTTPClient overrides the default client. Optional.
	HTTPClient Doer
}

// Client talks to the idcloudhost API for a single location. All
// reconcilers hang off it; it holds no per-operation state.
type Client struct {
	baseURL  string
	apiKey   string
	location string
	http     Doer
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("api_key must be configured")
	}

	location := strings.TrimSpace(cfg.Location)
	valid := false
	for _, l := range Locations {
		if location == l {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("location must be one of %s, got %q", strings.Join(Locations, ", "), location)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		location: location,
		http:     httpClient,
	}, nil
}

func (c *Client) Location() string { return c.location }

// do issues one request and returns the status code plus the raw body.
// Transport-level failures come back as plain wrapped errors; they are
// never folded into an Envelope so callers can tell "API said no" from
// "API unreachable".
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (int, json.RawMessage, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.location, path)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	tflog.Debug(ctx, "idcloudhost API call", map[string]any{
		"method": method,
		"path":   path,
	})

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, json.RawMessage(respBody), nil
}

func (c *Client) getJSON(ctx context.Context, path string) (int, json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

// submitForm sends a form-encoded body, the encoding most of the write
// endpoints expect.
func (c *Client) submitForm(ctx context.Context, method, path string, form url.Values) (int, json.RawMessage, error) {
	var body io.Reader
	contentType := ""
	if form != nil {
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}
	return c.do(ctx, method, path, contentType, body)
}

// submitJSON sends a JSON body. Only the floating IP endpoints take JSON.
func (c *Client) submitJSON(ctx context.Context, method, path string, payload any) (int, json.RawMessage, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		body = strings.NewReader(string(b))
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, body)
}
