/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package netbox provides the HTTP client for the NetBox IPAM REST API,
// the source of truth for address allocations.
package netbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/carverauto/netreclaim/pkg/logger"
	"github.com/carverauto/netreclaim/pkg/models"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultRetryMax = 3

	ipAddressesPath = "/api/ipam/ip-addresses/"
	statusPath      = "/api/status/"

	// Upper bound on error body excerpts carried into error messages.
	maxErrorBodyBytes = 512
)

// Config holds the NetBox connection settings.
type Config struct {
	URL      string `json:"url"`
	Token    string `json:"token"`
	Timeout  time.Duration
	RetryMax int
}

// Client is the RegistryClient implementation backed by the NetBox REST
// API. Reads follow pagination; writes are single-object PATCHes.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	logger     logger.Logger
}

var _ RegistryClient = (*Client)(nil)

// NewClient creates a NetBox client. The underlying transport retries
// transient failures before an error surfaces to the caller.
func NewClient(cfg *Config, log logger.Logger) (*Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errMissingURL
	}

	if cfg.Token == "" {
		return nil, errMissingToken
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	retryMax := cfg.RetryMax
	if retryMax == 0 {
		retryMax = defaultRetryMax
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = stdlog.New(io.Discard, "", 0)
	retryClient.RetryMax = retryMax
	retryClient.HTTPClient.Timeout = timeout

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: retryClient.StandardClient(),
		logger:     log,
	}, nil
}

// NewClientWithHTTP creates a client over an injected HTTP transport.
// Used by tests and callers that manage their own transport.
func NewClientWithHTTP(cfg *Config, httpClient HTTPClient, log logger.Logger) (*Client, error) {
	client, err := NewClient(&Config{URL: cfg.URL, Token: cfg.Token, Timeout: cfg.Timeout, RetryMax: cfg.RetryMax}, log)
	if err != nil {
		return nil, err
	}

	client.httpClient = httpClient

	return client, nil
}

// ipAddressRecord is the wire shape of a NetBox IP address object.
type ipAddressRecord struct {
	ID      int64  `json:"id"`
	Address string `json:"address"`
	Status  struct {
		Value string `json:"value"`
		Label string `json:"label"`
	} `json:"status"`
	Description string `json:"description"`
	DNSName     string `json:"dns_name"`
}

// pagedResponse is the NetBox list envelope.
type pagedResponse struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []ipAddressRecord `json:"results"`
}

func (r *ipAddressRecord) toAllocation() models.Allocation {
	return models.Allocation{
		ID:          r.ID,
		Address:     r.Address,
		Status:      models.AllocationStatus(r.Status.Value),
		Description: r.Description,
		DNSName:     r.DNSName,
	}
}

// QueryActive returns every active allocation inside the prefix,
// following the paginated "next" links until exhausted.
func (c *Client) QueryActive(ctx context.Context, prefix string) ([]models.Allocation, error) {
	params := url.Values{}
	params.Set("parent", prefix)
	params.Set("status", string(models.StatusActive))

	nextURL := fmt.Sprintf("%s%s?%s", c.baseURL, ipAddressesPath, params.Encode())

	var allocations []models.Allocation

	for nextURL != "" {
		var page pagedResponse

		if err := c.getJSON(ctx, nextURL, &page); err != nil {
			return nil, err
		}

		for i := range page.Results {
			allocations = append(allocations, page.Results[i].toAllocation())
		}

		nextURL = ""
		if page.Next != nil {
			nextURL = *page.Next
		}
	}

	c.logger.Debug().
		Str("prefix", prefix).
		Int("count", len(allocations)).
		Msg("queried active allocations")

	return allocations, nil
}

// Lookup resolves a single address, with or without a prefix length.
func (c *Client) Lookup(ctx context.Context, address string) (*models.Allocation, error) {
	params := url.Values{}
	params.Set("address", address)

	var page pagedResponse

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, ipAddressesPath, params.Encode())
	if err := c.getJSON(ctx, reqURL, &page); err != nil {
		return nil, err
	}

	if len(page.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}

	allocation := page.Results[0].toAllocation()

	return &allocation, nil
}

// SetStatus PATCHes the allocation status and returns the updated
// record.
func (c *Client) SetStatus(ctx context.Context, id int64, status models.AllocationStatus) (*models.Allocation, error) {
	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s%s%d/", c.baseURL, ipAddressesPath, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var record ipAddressRecord

	if err := c.doJSON(req, &record); err != nil {
		return nil, err
	}

	c.logger.Info().
		Int64("id", id).
		Str("status", string(status)).
		Str("address", record.Address).
		Msg("updated allocation status")

	allocation := record.toAllocation()

	return &allocation, nil
}

// Version fetches the NetBox server version from the status endpoint.
func (c *Client) Version(ctx context.Context) (string, error) {
	var status map[string]interface{}

	if err := c.getJSON(ctx, c.baseURL+statusPath, &status); err != nil {
		return "", err
	}

	if version, ok := status["netbox-version"].(string); ok {
		return version, nil
	}

	return "unknown", nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return err
	}

	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	if req.Body != nil && req.Body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return fmt.Errorf("%w: status %d from %s %s: %s",
			ErrRequestFailed, resp.StatusCode, req.Method, req.URL.Path, strings.TrimSpace(string(excerpt)))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrRequestFailed, err)
	}

	return nil
}
