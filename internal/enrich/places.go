package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jgv115/moneymate-engine/internal/common"
)

const placesStatusNotFound = "NOT_FOUND"

// PlacesClient implements Provider against a Google-Places-style details
// API: GET {base}/v1/places/{id}?key=...&fields=...
type PlacesClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryOpts  common.RetryOptions
}

// NewPlacesClient creates a place details client for the given API base
// URL and key.
func NewPlacesClient(baseURL, apiKey string) *PlacesClient {
	return &PlacesClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
	}
}

// Place details API response types.
type placeDetailsResponse struct {
	ID               string             `json:"id"`
	FormattedAddress string             `json:"formattedAddress"`
	Error            *placeDetailsError `json:"error"`
}

type placeDetailsError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Lookup fetches the requested fields for one place identifier. A
// transport failure is retried with backoff and then returned as an
// error; a provider-level failure is reported through the result status
// so the caller can distinguish not-found from everything else.
func (c *PlacesClient) Lookup(ctx context.Context, externalID string, fields ...string) (*LookupResult, error) {
	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("fields", strings.Join(fields, ","))

	endpoint := fmt.Sprintf("%s/v1/places/%s?%s", c.baseURL, url.PathEscape(externalID), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build place details request: %w", err)
	}

	var resp *http.Response
	err = common.WithRetry(ctx, func() error {
		var doErr error
		resp, doErr = c.httpClient.Do(req)
		return doErr
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to call place details API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body placeDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode place details response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &LookupResult{
			Status: StatusOK,
			Data: LookupData{
				PlaceID: body.ID,
				Address: body.FormattedAddress,
			},
		}, nil
	}

	result := &LookupResult{Status: StatusError}
	if body.Error != nil {
		result.ErrorStatus = body.Error.Status
		result.ErrorMessage = body.Error.Message
		if body.Error.Status == placesStatusNotFound {
			result.Status = StatusNotFound
		}
	} else {
		result.ErrorStatus = resp.Status
	}

	return result, nil
}
