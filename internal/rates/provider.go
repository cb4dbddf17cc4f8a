// Package rates implements the exchange-rate cache and the remote
// provider client used for currency conversion.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultProviderURL is the base endpoint; the base currency code is
// appended as the final path segment.
const DefaultProviderURL = "https://open.er-api.com/v6/latest"

const fetchTimeout = 10 * time.Second

// ErrFetchFailed marks a soft refresh failure: the previous snapshot stays
// in force and the caller warns instead of blocking anything.
var ErrFetchFailed = errors.New("rate refresh failed")

// Provider fetches the full rate table for a base currency over HTTP.
type Provider struct {
	baseURL string
	client  *http.Client
}

func NewProvider(baseURL string) *Provider {
	if baseURL == "" {
		baseURL = DefaultProviderURL
	}
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch performs one GET for the base currency and returns the rate table.
// Responses may carry the table under "rates" or "conversion_rates"; any
// other shape is an error the cache treats as soft.
func (p *Provider) Fetch(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return nil, fmt.Errorf("%w: empty base currency", ErrFetchFailed)
	}

	url := p.baseURL + "/" + base
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", "budgetbook/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider http %d", ErrFetchFailed, resp.StatusCode)
	}

	var body struct {
		Result          string             `json:"result"`
		Success         *bool              `json:"success"`
		Rates           map[string]float64 `json:"rates"`
		ConversionRates map[string]float64 `json:"conversion_rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrFetchFailed, err)
	}
	if body.Result != "" && body.Result != "success" {
		return nil, fmt.Errorf("%w: provider result %q", ErrFetchFailed, body.Result)
	}
	if body.Success != nil && !*body.Success {
		return nil, fmt.Errorf("%w: provider reported failure", ErrFetchFailed)
	}

	table := body.Rates
	if len(table) == 0 {
		table = body.ConversionRates
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: no rates in response", ErrFetchFailed)
	}
	return table, nil
}
