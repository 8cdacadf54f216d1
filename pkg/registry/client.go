// Package registry probes a Docker Hub style registry for tag existence.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Client is an HTTP client for the registry tags endpoint.
type Client struct {
	baseURL string
	org     string
	client  *http.Client
}

func NewClient(baseURL, org string) *Client {
	return &Client{
		baseURL: baseURL,
		org:     org,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// TagExists reports whether the given image has the given tag. Only an
// explicit 200 counts as found; other statuses mean not found. Transport
// errors propagate as errors, never as false.
func (c *Client) TagExists(ctx context.Context, image, tag string) (bool, error) {
	url := fmt.Sprintf("%s/v2/repositories/%s/%s/tags/%s", c.baseURL, c.org, image, tag)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, errors.Wrap(err, "build registry request")
	}
	req.Header.Set("User-Agent", "relctl")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, errors.Wrapf(err, "query registry for %s:%s", image, tag)
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK, nil
}
