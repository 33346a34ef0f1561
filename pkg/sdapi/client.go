// Package sdapi implements the API Client (spec §4.9): a stateless wrapper
// around a single synthesis HTTP endpoint. It builds request payloads from
// a resolved prompt's parameter snapshot, POSTs to the text-to-image
// endpoint, decodes the base64 image, and extracts the canonical seed the
// backend actually used.
package sdapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// Client wraps a single synthesis HTTP endpoint. It holds no per-request
// state beyond the HTTP transport, so one Client is safe to reuse across
// an entire session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit caps outbound requests per second (burst 1); the Batch
// Executor drives one request at a time anyway, but this guards against a
// misconfigured retry loop hammering the backend.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// NewClient builds a Client targeting baseURL, with timeout applied to
// every request and an otelhttp-instrumented transport so spans propagate
// through the synthesis call.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InfoRecord is the subset of the backend's returned `info` JSON blob this
// client cares about: the canonical seed actually used for generation.
type InfoRecord struct {
	Seed int64 `json:"seed"`
}

type generateRequest struct {
	Prompt          string                 `json:"prompt"`
	NegativePrompt  string                 `json:"negative_prompt"`
	Seed            int64                  `json:"seed"`
	Steps           int                    `json:"steps,omitempty"`
	CFGScale        float64                `json:"cfg_scale,omitempty"`
	Width           int                    `json:"width,omitempty"`
	Height          int                    `json:"height,omitempty"`
	SamplerName     string                 `json:"sampler_name,omitempty"`
	Scheduler       string                 `json:"scheduler,omitempty"`
	AlwaysOnScripts map[string]interface{} `json:"alwayson_scripts,omitempty"`
}

type generateResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
}

// Generate submits one resolved prompt and returns the decoded image bytes
// plus the backend's info record. params carries the parameter snapshot
// (sampler, steps, cfg, width, height, and any extension configs) merged
// onto the request by BuildRequest.
func (c *Client) Generate(ctx context.Context, prompt, negativePrompt string, seed int64, params map[string]interface{}) ([]byte, *InfoRecord, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, &sderrors.Transport{Op: "generate", Err: err}
		}
	}

	req := BuildRequest(prompt, negativePrompt, seed, params)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, nil, &sderrors.Transport{Op: "generate", Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sdapi/v1/txt2img", bytes.NewReader(body))
	if err != nil {
		return nil, nil, &sderrors.Transport{Op: "generate", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, &sderrors.Transport{Op: "generate", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &sderrors.BadResponse{Op: "generate", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &sderrors.BackendError{Code: resp.StatusCode, Body: string(respBody)}
	}

	var decoded generateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, nil, &sderrors.BadResponse{Op: "generate", Err: err}
	}
	if len(decoded.Images) == 0 {
		return nil, nil, &sderrors.BadResponse{Op: "generate", Err: fmt.Errorf("no images in response")}
	}

	imageBytes, err := base64.StdEncoding.DecodeString(decoded.Images[0])
	if err != nil {
		return nil, nil, &sderrors.BadResponse{Op: "generate", Err: fmt.Errorf("decode image: %w", err)}
	}

	var info InfoRecord
	if decoded.Info != "" {
		if err := json.Unmarshal([]byte(decoded.Info), &info); err != nil {
			return nil, nil, &sderrors.BadResponse{Op: "generate", Err: fmt.Errorf("decode info: %w", err)}
		}
	}
	if info.Seed == 0 {
		info.Seed = seed
	}

	return imageBytes, &info, nil
}

// FetchCheckpoint reads the current checkpoint name from the runtime
// options endpoint. Per §4.9 it returns "unknown" on any failure rather
// than propagating an error: this is advisory metadata for the manifest,
// not load-bearing for generation.
func (c *Client) FetchCheckpoint(ctx context.Context) string {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sdapi/v1/options", nil)
	if err != nil {
		return "unknown"
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "unknown"
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "unknown"
	}

	var opts struct {
		SDModelCheckpoint string `json:"sd_model_checkpoint"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&opts); err != nil || opts.SDModelCheckpoint == "" {
		return "unknown"
	}
	return opts.SDModelCheckpoint
}
