package sdapi

import (
	"context"
	"encoding/json"
	"net/http"

	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// named is the common shape of the backend's samplers/models/upscalers
// list endpoints: each entry carries at least a name.
type named struct {
	Name string `json:"name"`
}

// Samplers lists available sampler names, backing `api samplers`.
func (c *Client) Samplers(ctx context.Context) ([]string, error) {
	return c.listNames(ctx, "/sdapi/v1/samplers")
}

// Models lists available checkpoint names, backing `api models`.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	return c.listModelNames(ctx, "/sdapi/v1/sd-models")
}

// Upscalers lists available upscaler names, backing `api upscalers`.
func (c *Client) Upscalers(ctx context.Context) ([]string, error) {
	return c.listNames(ctx, "/sdapi/v1/upscalers")
}

// ADetailerModels lists available ADetailer detector model names, backing
// `api adetailer-models`.
func (c *Client) ADetailerModels(ctx context.Context) ([]string, error) {
	return c.listNames(ctx, "/adetailer/v1/ad_model")
}

func (c *Client) listNames(ctx context.Context, path string) ([]string, error) {
	var entries []named
	if err := c.getJSON(ctx, path, &entries); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out, nil
}

// listModelNames handles the sd-models endpoint, whose entries key the
// checkpoint name under "title" rather than "name".
func (c *Client) listModelNames(ctx context.Context, path string) ([]string, error) {
	var entries []struct {
		Title string `json:"title"`
	}
	if err := c.getJSON(ctx, path, &entries); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &sderrors.Transport{Op: path, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &sderrors.Transport{Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &sderrors.BackendError{Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &sderrors.BadResponse{Op: path, Err: err}
	}
	return nil
}
