package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"vehicle-info-bot/internal/config"
	"vehicle-info-bot/internal/domain/vehicle"
	"vehicle-info-bot/internal/metrics"
)

const (
	ResourcePrimary   = "primary"
	ResourceSecondary = "secondary"
)

var (
	ErrNotFound         = errors.New("vehicle not found")
	ErrUnexpectedStatus = errors.New("unexpected registry status")
	ErrUnsuccessful     = errors.New("registry reported failure")

	errNoRecords = errors.New("no records")
)

type resource struct {
	name string
	id   string
}

// Client queries the vehicle registry datastore. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	resources  []resource
	plateField string
	limit      int
	userAgent  string
	log        zerolog.Logger
}

// Result is a record together with the resource it came from.
type Result struct {
	Record   vehicle.Record
	Resource string
}

type searchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Records []vehicle.Record `json:"records"`
	} `json:"result"`
}

func NewClient(cfg config.RegistryConfig, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		resources: []resource{
			{name: ResourcePrimary, id: cfg.PrimaryResourceID},
			{name: ResourceSecondary, id: cfg.SecondaryResourceID},
		},
		plateField: cfg.PlateField,
		limit:      cfg.Limit,
		userAgent:  cfg.UserAgent,
		log:        log.With().Str("component", "registry").Logger(),
	}
}

// Search looks the plate up in the primary resource and falls back to the
// secondary one on any miss. Per-resource failures are logged and collapse
// into ErrNotFound; only context cancellation is returned as is.
func (c *Client) Search(ctx context.Context, plate string) (*Result, error) {
	for _, res := range c.resources {
		record, err := c.searchResource(ctx, res, plate)
		if err == nil {
			c.log.Info().
				Str("plate", plate).
				Str("resource", res.name).
				Msg("vehicle found")
			return &Result{Record: record, Resource: res.name}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		event := c.log.Warn()
		if errors.Is(err, errNoRecords) {
			event = c.log.Debug()
		}
		event.
			Err(err).
			Str("plate", plate).
			Str("resource", res.name).
			Str("resource_id", res.id).
			Msg("vehicle not found in resource")
	}

	return nil, ErrNotFound
}

func (c *Client) searchResource(ctx context.Context, res resource, plate string) (vehicle.Record, error) {
	filters, err := json.Marshal(map[string]string{c.plateField: plate})
	if err != nil {
		return nil, fmt.Errorf("encode filters: %w", err)
	}

	params := url.Values{}
	params.Set("resource_id", res.id)
	params.Set("filters", string(filters))
	params.Set("limit", strconv.Itoa(c.limit))

	start := time.Now()
	body, err := c.get(ctx, params)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordRegistryQuery(res.name, "error", elapsed)
		return nil, err
	}

	if len(body.Result.Records) == 0 {
		metrics.RecordRegistryQuery(res.name, "miss", elapsed)
		return nil, errNoRecords
	}

	metrics.RecordRegistryQuery(res.name, "hit", elapsed)
	return body.Result.Records[0], nil
}

// Ping issues an empty query against the primary resource.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("resource_id", c.resources[0].id)
	params.Set("limit", "0")

	_, err := c.get(ctx, params)
	return err
}

func (c *Client) get(ctx context.Context, params url.Values) (*searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var body searchResponse
	if err := decoder.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}
	if !body.Success {
		return nil, ErrUnsuccessful
	}
	return &body, nil
}
