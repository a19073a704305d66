// Package cmclient is the REST client for the content-management backend's
// admin service. It implements the controller's Backend interface and the
// work-list loader's Resolver.
package cmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mattjoyce/redistq/internal/admission"
	"github.com/mattjoyce/redistq/internal/content"
	"github.com/mattjoyce/redistq/internal/log"
)

// ErrNotFound marks lookups for content the backend does not know about.
var ErrNotFound = errors.New("not found")

// Options configures the client.
type Options struct {
	BaseURL  string
	SiteCode string
	Token    string
	Timeout  time.Duration
}

// Client talks to one site's admin service.
type Client struct {
	baseURL  string
	siteCode string
	token    string
	http     *http.Client
	logger   *slog.Logger
}

// New creates a Client. It does not touch the network; call Ping to
// establish the session.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  opts.BaseURL,
		siteCode: opts.SiteCode,
		token:    opts.Token,
		http:     &http.Client{Timeout: timeout},
		logger:   log.WithComponent("cmclient"),
	}
}

// Ping verifies the backend session. A failure here is fatal to the run.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, fmt.Sprintf("/sites/%s/ping", url.PathEscape(c.siteCode)), &out); err != nil {
		return fmt.Errorf("establish backend session: %w", err)
	}
	c.logger.Info("backend session established", "site", c.siteCode)
	return nil
}

// DistributionStatus pulls a fresh snapshot of per-content distribution
// counters for the site.
func (c *Client) DistributionStatus(ctx context.Context) (admission.Snapshot, error) {
	var out []struct {
		Targeted         int `json:"targeted"`
		NumberInProgress int `json:"number_in_progress"`
	}
	path := fmt.Sprintf("/sites/%s/distributions/status", url.PathEscape(c.siteCode))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("distribution status: %w", err)
	}

	snap := make(admission.Snapshot, len(out))
	for i, rec := range out {
		snap[i] = admission.DistributionStatus{
			Targeted:         rec.Targeted,
			NumberInProgress: rec.NumberInProgress,
		}
	}
	return snap, nil
}

// DeploymentTypeNames returns an application's deployment type names in
// backend order.
func (c *Client) DeploymentTypeNames(ctx context.Context, appName string) ([]string, error) {
	var out struct {
		DeploymentTypes []string `json:"deployment_types"`
	}
	path := fmt.Sprintf("/sites/%s/applications/%s/deployment-types",
		url.PathEscape(c.siteCode), url.PathEscape(appName))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.DeploymentTypes, nil
}

// BeginDistribution asks the backend to start redistributing one piece of
// content. The backend acknowledges synchronously and distributes
// asynchronously.
func (c *Client) BeginDistribution(ctx context.Context, kind content.Kind, id, deploymentType string) error {
	body := map[string]string{
		"kind": kind.String(),
		"id":   id,
	}
	if deploymentType != "" {
		body["deployment_type"] = deploymentType
	}
	path := fmt.Sprintf("/sites/%s/distributions", url.PathEscape(c.siteCode))
	if err := c.post(ctx, path, body); err != nil {
		return fmt.Errorf("begin distribution %s %s: %w", kind, id, err)
	}
	return nil
}

// ResolveContent maps a (kind, name) token to its backend identifier.
func (c *Client) ResolveContent(ctx context.Context, kind content.Kind, name string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/sites/%s/content/%s?name=%s",
		url.PathEscape(c.siteCode), url.PathEscape(kind.String()), url.QueryEscape(name))
	if err := c.get(ctx, path, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("content %s %q: backend returned empty id", kind, name)
	}
	return out.ID, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", req.URL.Path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: unexpected status %d: %s", req.Method, req.URL.Path, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}
