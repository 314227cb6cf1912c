package managerio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bakery-erp/internal/util"

	"go.uber.org/zap"
)

const (
	maxAttempts       = 3
	maxTotalItems     = 10000
	maxPageIterations = 50
)

// Client talks to the Manager.io accounting API. All list endpoints are
// paginated via pageSize/skip query parameters and authenticated with a
// static API key header.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	http     *http.Client
	logger   *zap.Logger
}

// NewClient creates a Manager.io API client. A missing API key is a
// construction failure, not a request-time failure.
func NewClient(apiURL, apiKey string, pageSize, timeoutSeconds int) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("manager api key is not configured: set MANAGER_API_KEY")
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	return &Client{
		baseURL:  strings.TrimRight(apiURL, "/"),
		apiKey:   apiKey,
		pageSize: pageSize,
		http:     &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		logger:   util.GetLogger(),
	}, nil
}

// PageSize returns the configured page size for list endpoints.
func (c *Client) PageSize() int { return c.pageSize }

// FetchPage fetches one page of records for a resource.
func (c *Client) FetchPage(ctx context.Context, resource string, pageSize, skip int) ([]Record, error) {
	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("skip", strconv.Itoa(skip))

	body, err := c.doRequest(ctx, http.MethodGet, resource, params, nil)
	if err != nil {
		return nil, err
	}
	return extractRecords(body, resource)
}

// FetchAll fetches every page of a resource. Pagination stops on a short
// page, an empty page, the total-item cap or the iteration cap, whichever
// comes first.
func (c *Client) FetchAll(ctx context.Context, resource string) ([]Record, error) {
	var all []Record
	skip := 0

	for iteration := 0; iteration < maxPageIterations; iteration++ {
		page, err := c.FetchPage(ctx, resource, c.pageSize, skip)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		c.logger.Debug("Fetched page",
			zap.String("resource", resource),
			zap.Int("skip", skip),
			zap.Int("page_items", len(page)),
			zap.Int("total_items", len(all)))

		if len(page) < c.pageSize || len(all) >= maxTotalItems {
			break
		}
		skip += c.pageSize
	}

	c.logger.Info("Pagination complete",
		zap.String("resource", resource),
		zap.Int("total_items", len(all)))
	return all, nil
}

// TestConnection verifies reachability and credentials with a single-item fetch.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.FetchPage(ctx, "inventory-items", 1, 0)
	return err
}

// CreateCustomer creates a customer via the customer-form endpoint and
// returns the external key assigned by Manager.io.
func (c *Client) CreateCustomer(ctx context.Context, form CustomerForm) (string, error) {
	return c.postForm(ctx, "customer-form", form)
}

// CreateSalesOrder submits a sales order and returns its external key.
func (c *Client) CreateSalesOrder(ctx context.Context, form SalesOrderForm) (string, error) {
	if form.Customer == "" {
		return "", &ValidationError{Field: "Customer"}
	}
	if len(form.Lines) == 0 {
		return "", &ValidationError{Field: "Lines"}
	}
	if form.Date == "" {
		form.Date = time.Now().Format("2006-01-02T15:04:05")
	}
	return c.postForm(ctx, "sales-order-form", form)
}

// SubmitProductionOrder submits a production order form and returns its
// external key.
func (c *Client) SubmitProductionOrder(ctx context.Context, form ProductionOrderForm) (string, error) {
	return c.postForm(ctx, "production-order-form", form)
}

func (c *Client) postForm(ctx context.Context, endpoint string, payload interface{}) (string, error) {
	body, err := c.doRequest(ctx, http.MethodPost, endpoint, nil, payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		Key  string `json:"key"`
		Data struct {
			Key string `json:"key"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ShapeError{Resource: endpoint, Reason: "response is not a JSON object"}
	}
	if resp.Key != "" {
		return resp.Key, nil
	}
	return resp.Data.Key, nil
}

// doRequest performs one API call with bounded retries. Timeouts and 5xx
// responses are retried up to maxAttempts; a 401 fails immediately with an
// AuthenticationError.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, payload interface{}) ([]byte, error) {
	reqURL := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", endpoint, err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		body, status, err := c.attempt(ctx, method, reqURL, encoded)
		util.ManagerRequestLatency.Observe(time.Since(start).Seconds())
		util.ManagerRequestsTotal.WithLabelValues(endpoint, statusLabel(status, err)).Inc()

		switch {
		case err == nil && status == http.StatusUnauthorized:
			c.logger.Error("Manager.io rejected credentials", zap.String("endpoint", endpoint))
			return nil, &AuthenticationError{URL: c.baseURL}

		case err == nil && status >= 200 && status < 300:
			return body, nil

		case err == nil && status >= 500:
			lastErr = &TransportError{Op: method + " " + endpoint, StatusCode: status}

		case err == nil:
			// Non-retryable client error.
			return nil, &TransportError{Op: method + " " + endpoint, StatusCode: status}

		case ctx.Err() != nil:
			return nil, &TransportError{Op: method + " " + endpoint, Err: ctx.Err()}

		default:
			lastErr = &TransportError{Op: method + " " + endpoint, Err: err}
		}

		c.logger.Warn("Manager.io request failed, retrying",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
	}

	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, method, reqURL string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// extractRecords pulls a record list out of a response that may be a bare
// array, an object with a resource-named array field, or an object whose
// first list-valued field holds the records.
func extractRecords(body []byte, resource string) ([]Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, &ShapeError{Resource: resource, Reason: "response is neither an array nor an object"}
	}

	if raw, ok := wrapper[resourceField(resource)]; ok {
		var recs []Record
		if err := json.Unmarshal(raw, &recs); err == nil {
			return recs, nil
		}
	}

	// Fall back to the first list-valued field in document order, which a
	// map iteration cannot guarantee.
	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, &ShapeError{Resource: resource, Reason: "no list-valued field found"}
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			break
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			break
		}
		var recs []Record
		if err := json.Unmarshal(raw, &recs); err == nil && len(recs) > 0 {
			return recs, nil
		}
	}

	return nil, &ShapeError{Resource: resource, Reason: "no list-valued field found"}
}

// resourceField converts a kebab-case resource name to the lowerCamel field
// Manager.io uses in wrapped responses, e.g. "inventory-items" ->
// "inventoryItems".
func resourceField(resource string) string {
	parts := strings.Split(resource, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func statusLabel(status int, err error) string {
	if err != nil {
		return "error"
	}
	return strconv.Itoa(status)
}
