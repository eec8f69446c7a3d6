// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package backend is a client for the services behind the synteny viewer:
// the renderer, the gene coordinate and search services, and the regions of
// interest store.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sybil-lite/sybil/genomics"
	"github.com/sybil-lite/sybil/view"
)

// Endpoints holds the paths of the backend services, relative to the base
// URL of a Client.
type Endpoints struct {
	Render      string `koanf:"render" yaml:"render"`
	Coordinates string `koanf:"coordinates" yaml:"coordinates"`
	Search      string `koanf:"search" yaml:"search"`
	Regions     string `koanf:"regions" yaml:"regions"`
	SaveRegion  string `koanf:"save_region" yaml:"save_region"`
	Image       string `koanf:"image" yaml:"image"`
}

// DefaultEndpoints returns the paths used by the CGI backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Render:      "draw_alignment.cgi",
		Coordinates: "get_gene_coordinates.cgi",
		Search:      "search_genomes.cgi",
		Regions:     "parse_roi.cgi",
		SaveRegion:  "save_roi.cgi",
		Image:       "show_png.cgi",
	}
}

// Client talks to the backend services.  Create one with NewClient.  A
// Client is safe for concurrent use.
type Client struct {
	base      *url.URL
	endpoints Endpoints
	client    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient makes the Client send requests with hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithEndpoints overrides DefaultEndpoints.  Empty fields keep their
// defaults.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) {
		if e.Render != "" {
			c.endpoints.Render = e.Render
		}
		if e.Coordinates != "" {
			c.endpoints.Coordinates = e.Coordinates
		}
		if e.Search != "" {
			c.endpoints.Search = e.Search
		}
		if e.Regions != "" {
			c.endpoints.Regions = e.Regions
		}
		if e.SaveRegion != "" {
			c.endpoints.SaveRegion = e.SaveRegion
		}
		if e.Image != "" {
			c.endpoints.Image = e.Image
		}
	}
}

// WithTimeout bounds every request.  Zero leaves requests to the transport
// defaults.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.client
		hc.Timeout = d
		c.client = &hc
	}
}

// NewClient returns a Client for the services under baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %v", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q is not absolute", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	c := &Client{base: base, endpoints: DefaultEndpoints(), client: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Render asks the renderer to draw s.
func (c *Client) Render(ctx context.Context, s view.State) (*RenderResult, error) {
	var resp renderResponse
	if err := c.get(ctx, c.endpoints.Render, s.Values(), &resp); err != nil {
		return nil, err
	}
	result, err := resp.result()
	if err != nil {
		return nil, fmt.Errorf("%s: %v", c.endpoints.Render, err)
	}
	return result, nil
}

// Feature returns the location of the gene with the given ID.
func (c *Client) Feature(ctx context.Context, project, geneID string) (genomics.Feature, error) {
	var resp coordinatesResponse
	query := url.Values{"project": {project}, "gene": {geneID}}
	if err := c.get(ctx, c.endpoints.Coordinates, query, &resp); err != nil {
		return genomics.Feature{}, err
	}
	return genomics.Feature{
		ID:                   geneID,
		Molecule:             resp.Molecule,
		OrganismAbbreviation: resp.OrgAbbrev,
		Interval:             genomics.Interval{Start: int64(resp.FMin), End: int64(resp.FMax)},
	}, nil
}

// Search returns the identifiers of features in project matching term.
func (c *Client) Search(ctx context.Context, project, term string) ([]string, error) {
	var resp []searchMatch
	query := url.Values{"project": {project}, "term": {term}}
	if err := c.get(ctx, c.endpoints.Search, query, &resp); err != nil {
		return nil, err
	}
	matches := make([]string, 0, len(resp))
	for _, m := range resp {
		matches = append(matches, string(m))
	}
	return matches, nil
}

// Regions lists the regions of interest saved for project.
func (c *Client) Regions(ctx context.Context, project string) ([]Region, error) {
	var resp regionsResponse
	if err := c.get(ctx, c.endpoints.Regions, url.Values{"project": {project}}, &resp); err != nil {
		return nil, err
	}
	regions := make([]Region, 0, len(resp.Regions))
	for i := range resp.Regions {
		r, err := resp.Regions[i].region(project)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", c.endpoints.Regions, err)
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// SaveRegion stores s as a region of interest.
func (c *Client) SaveRegion(ctx context.Context, s view.State, label, description string) error {
	query := s.Values()
	query.Set("roi_save_label", label)
	query.Set("roi_save_desc", description)
	var ack map[string]interface{}
	return c.get(ctx, c.endpoints.SaveRegion, query, &ack)
}

// ImageURL returns the address of a rendered image.
func (c *Client) ImageURL(name string) string {
	return c.resolve(c.endpoints.Image, url.Values{"image": {name}, "keep_image": {"1"}})
}

// Image opens a rendered image.  The caller must close the returned reader.
func (c *Client) Image(ctx context.Context, name string) (io.ReadCloser, string, error) {
	resp, err := c.do(ctx, c.endpoints.Image, url.Values{"image": {name}, "keep_image": {"1"}})
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) resolve(endpoint string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: endpoint})
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	req, err := http.NewRequest("GET", c.resolve(endpoint, query), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %v", err)
	}
	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, errorFromResponse(endpoint, resp)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, v interface{}) error {
	resp, err := c.do(ctx, endpoint, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decoding response: %v", endpoint, err)
	}
	return nil
}

// StatusError reports a response from a backend service whose status was
// not 200.
type StatusError struct {
	Endpoint string
	Code     int
	Status   string
	// Message is the "message" field of a JSON error body, if there was one.
	Message string
}

func (err *StatusError) Error() string {
	if err.Message != "" {
		return fmt.Sprintf("%s: unexpected response status %q: %s", err.Endpoint, err.Status, err.Message)
	}
	return fmt.Sprintf("%s: unexpected response status %q", err.Endpoint, err.Status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.Code == code
}

func errorFromResponse(endpoint string, resp *http.Response) error {
	err := &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Status: resp.Status}
	var body struct {
		Message string `json:"message"`
	}
	if json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body) == nil {
		err.Message = body.Message
	}
	return err
}
