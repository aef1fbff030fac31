package exchanges

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "coinpree/1.0"

// restClient performs time-boxed public GET requests against one base URL.
type restClient struct {
	baseURL string
	http    *http.Client
	headers map[string]string
}

func newRESTClient(baseURL string, timeout time.Duration) *restClient {
	return &restClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		headers: map[string]string{"User-Agent": userAgent, "Accept": "application/json"},
	}
}

// getRaw returns the body of a 2xx response; any other status is ErrNoData.
func (c *restClient) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: status %d: %w", path, resp.StatusCode, ErrNoData)
	}
	return body, nil
}

// getJSON decodes a 2xx JSON response into out; a decode failure is ErrNoData.
func (c *restClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, err := c.getRaw(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("GET %s: decode: %v: %w", path, err, ErrNoData)
	}
	return nil
}
