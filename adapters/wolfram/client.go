// Package wolfram implements ports.KnowledgeEnginePort against the Wolfram
// Alpha v2 query API, requesting JSON output and decoding it with gjson.
package wolfram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"physlab/domain/knowledge"
	"physlab/internal"
	"physlab/internal/config"
	"physlab/internal/errors"
	"physlab/ports"
)

const serviceName = "wolfram"

// Client queries the knowledge engine over HTTP
type Client struct {
	baseURL    string
	appID      string
	httpClient *http.Client
	logger     *internal.Logger
}

// NewClient creates a client from configuration
func NewClient(cfg config.WolframConfig, logger *internal.Logger) *Client {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultWolframTimeout
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultWolframBaseURL
	}
	return &Client{
		baseURL: baseURL,
		appID:   cfg.AppID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

var _ ports.KnowledgeEnginePort = (*Client)(nil)

// Query sends one natural-language query. Transport failures, non-200
// responses and engine-reported errors are returned as external service
// errors; an unanswered query is a result with Success false.
func (c *Client) Query(ctx context.Context, input string) (*knowledge.Result, error) {
	if input == "" {
		return nil, errors.InvalidInput("empty query")
	}

	req, err := c.buildRequest(ctx, input)
	if err != nil {
		return nil, errors.ExternalServiceError(serviceName, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("HTTP request failed: %w", err))
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("failed to read response: %w", err))
	}
	c.logger.Debug("[Wolfram] %q answered %d in %s (%d bytes)", input, resp.StatusCode, time.Since(start), len(body))

	if resp.StatusCode != http.StatusOK {
		return nil, errors.ExternalServiceError(serviceName, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(body, 200)))
	}

	res, err := parseResponse(input, body)
	if err != nil {
		return nil, errors.ExternalServiceError(serviceName, err)
	}
	return res, nil
}

// buildRequest creates the GET request with the app id and output options
func (c *Client) buildRequest(ctx context.Context, input string) (*http.Request, error) {
	params := url.Values{}
	params.Set("appid", c.appID)
	params.Set("input", input)
	params.Set("output", "json")
	params.Set("format", "image,plaintext")

	return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
}

// parseResponse extracts pods from the queryresult envelope
func parseResponse(input string, body []byte) (*knowledge.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	qr := gjson.GetBytes(body, "queryresult")
	if !qr.Exists() {
		return nil, fmt.Errorf("queryresult not found in response")
	}

	// error is false on success and an object {code, msg} on failure
	if e := qr.Get("error"); e.IsObject() || e.Bool() {
		return nil, fmt.Errorf("engine error %s: %s", e.Get("code").String(), e.Get("msg").String())
	}

	res := &knowledge.Result{
		Input:   input,
		Success: qr.Get("success").Bool(),
		Pods:    []knowledge.Pod{},
		Raw:     body,
	}
	qr.Get("pods").ForEach(func(_, pod gjson.Result) bool {
		res.Pods = append(res.Pods, parsePod(pod))
		return true
	})
	return res, nil
}

func parsePod(pod gjson.Result) knowledge.Pod {
	p := knowledge.Pod{
		ID:      pod.Get("id").String(),
		Title:   pod.Get("title").String(),
		Primary: pod.Get("primary").Bool(),
	}
	subpods := pod.Get("subpods")
	// a pod carries either one subpod object or an array of them
	if subpods.IsObject() {
		p.Subpods = []knowledge.Subpod{parseSubpod(subpods)}
		return p
	}
	subpods.ForEach(func(_, sub gjson.Result) bool {
		p.Subpods = append(p.Subpods, parseSubpod(sub))
		return true
	})
	return p
}

func parseSubpod(sub gjson.Result) knowledge.Subpod {
	s := knowledge.Subpod{
		Title:     sub.Get("title").String(),
		Plaintext: sub.Get("plaintext").String(),
	}
	if img := sub.Get("img"); img.Exists() {
		s.Image = &knowledge.Image{
			Src:    img.Get("src").String(),
			Alt:    img.Get("alt").String(),
			Title:  img.Get("title").String(),
			Width:  int(img.Get("width").Int()),
			Height: int(img.Get("height").Int()),
		}
	}
	return s
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
