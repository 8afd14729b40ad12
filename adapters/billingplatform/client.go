// Package billingplatform - HTTP ledger transport
// Implements ledger.Transport against the BillingPlatform REST API:
// session login, SQL-ish query endpoint, brmObjects write envelopes.
package billingplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contract-pricing/core/ledger"
	"contract-pricing/internal/errors"
	"contract-pricing/internal/logging"
)

// Options configures the client
type Options struct {
	// LoginURL is the session login endpoint
	LoginURL string

	// BaseURL is the REST base; entity paths are appended to it
	BaseURL string

	// Timeout bounds each call
	Timeout time.Duration
}

// Client is an HTTP ledger transport. Not safe for concurrent use; the
// processing core is strictly sequential.
type Client struct {
	httpClient *http.Client
	loginURL   string
	baseURL    string
	sessionID  string
}

var _ ledger.Transport = (*Client)(nil)

// NewClient creates a ledger client. Login must be called before any
// other operation.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		loginURL:   opts.LoginURL,
		baseURL:    strings.TrimRight(opts.BaseURL, "/") + "/",
	}
}

// Login authenticates and stores the session id used by later calls
func (c *Client) Login(ctx context.Context, username, password string) error {
	logging.Sugar.Info("Authenticating with the billing ledger")
	payload := map[string]string{"username": username, "password": password}
	response, err := c.do(ctx, http.MethodPost, c.loginURL, payload)
	if err != nil {
		return err
	}

	entries := extractRecords(response, "loginResponse")
	first := ledger.First(entries)
	if first == nil {
		return errors.Remote("login response missing 'loginResponse'")
	}
	if code := first.Get("ErrorCode"); code != "" && code != "0" {
		return errors.Newf(errors.TypeRemote, "login failed: %s - %s", code, first.Get("ErrorText"))
	}
	sessionID := first.Get("SessionID")
	if sessionID == "" {
		return errors.Remote("login succeeded but no SessionID was returned")
	}
	c.sessionID = sessionID
	return nil
}

// Query runs a lookup. A 404 response means no matching rows and yields
// an empty result.
func (c *Client) Query(ctx context.Context, sql string) ([]ledger.Record, error) {
	endpoint := c.baseURL + "query?sql=" + url.QueryEscape(sql)
	response, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		if errors.IsType(err, errors.TypeNotFound) {
			logging.Sugar.Debugf("Lookup returned 404 for query '%s'; treating as empty result", sql)
			return nil, nil
		}
		return nil, err
	}
	return extractRecords(response, "queryResponse"), nil
}

// Create inserts one record
func (c *Client) Create(ctx context.Context, entity ledger.Entity, fields ledger.Fields) ([]ledger.Record, error) {
	payload := map[string]interface{}{"brmObjects": fields}
	response, err := c.do(ctx, http.MethodPost, c.baseURL+string(entity), payload)
	if err != nil {
		return nil, err
	}
	return extractRecords(response, "createResponse"), nil
}

// CreateBatch inserts several records in one call. The batch fails as a
// unit; callers cannot assume partial application.
func (c *Client) CreateBatch(ctx context.Context, entity ledger.Entity, batch []ledger.Fields) ([]ledger.Record, error) {
	payload := map[string]interface{}{"brmObjects": batch}
	response, err := c.do(ctx, http.MethodPost, c.baseURL+string(entity), payload)
	if err != nil {
		return nil, err
	}
	return extractRecords(response, "createResponse"), nil
}

// Update mutates one record. Most entities address the record in the
// path; PRICING updates carry the id in the body only.
func (c *Client) Update(ctx context.Context, entity ledger.Entity, fields ledger.Fields) ([]ledger.Record, error) {
	path := string(entity)
	if entity != ledger.EntityPricing {
		if id := fields["Id"]; id != "" {
			path += "/" + id
		}
	}
	payload := map[string]interface{}{"brmObjects": fields}
	response, err := c.do(ctx, http.MethodPut, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	return extractRecords(response, "updateResponse", "saveResponse", "createResponse"), nil
}

// Delete removes records by id
func (c *Client) Delete(ctx context.Context, entity ledger.Entity, ids []string) error {
	objects := make([]ledger.Fields, 0, len(ids))
	for _, id := range ids {
		objects = append(objects, ledger.Fields{"Id": id})
	}
	payload := map[string]interface{}{"brmObjects": objects}
	_, err := c.do(ctx, http.MethodDelete, c.baseURL+"delete/"+string(entity), payload)
	return err
}

// do runs one HTTP round-trip and decodes the JSON response envelope
func (c *Client) do(ctx context.Context, method, endpoint string, payload interface{}) (map[string]interface{}, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Internal("encoding request payload", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Internal("building request", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")
	if c.sessionID != "" {
		request.Header.Set("sessionId", c.sessionID)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, classifyTransportError(method, endpoint, err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, classifyTransportError(method, endpoint, err)
	}
	if response.StatusCode == http.StatusNotFound {
		return nil, errors.NotFound("endpoint", endpoint)
	}
	if response.StatusCode >= 400 {
		return nil, errors.Newf(errors.TypeNetwork, "%s %s failed (%d): %s",
			method, endpoint, response.StatusCode, strings.TrimSpace(string(raw)))
	}

	decoded := map[string]interface{}{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, errors.Wrapf(errors.TypeNetwork, err, "%s %s returned invalid JSON", method, endpoint)
		}
	}
	return decoded, nil
}

// classifyTransportError separates ambiguous timeouts, where the call may
// have succeeded, from definite failures
func classifyTransportError(method, endpoint string, err error) error {
	message := fmt.Sprintf("%s %s failed", method, endpoint)
	text := strings.ToLower(err.Error())
	if strings.Contains(text, "timeout") ||
		strings.Contains(text, "timed out") ||
		strings.Contains(text, "deadline exceeded") ||
		strings.Contains(text, "connection reset") ||
		strings.Contains(text, "unexpected eof") {
		return errors.Timeout(message, err)
	}
	return errors.Network(message, err)
}

// extractRecords pulls the first matching record list out of a response
// envelope
func extractRecords(response map[string]interface{}, keys ...string) []ledger.Record {
	for _, key := range keys {
		value, ok := response[key]
		if !ok || value == nil {
			continue
		}
		items, ok := value.([]interface{})
		if !ok {
			// Some endpoints return a bare object for single records
			if entry, ok := value.(map[string]interface{}); ok {
				return []ledger.Record{ledger.Record(entry)}
			}
			continue
		}
		records := make([]ledger.Record, 0, len(items))
		for _, item := range items {
			if entry, ok := item.(map[string]interface{}); ok {
				records = append(records, ledger.Record(entry))
			}
		}
		return records
	}
	return nil
}
