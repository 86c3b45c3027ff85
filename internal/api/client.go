// Package api is the HTTP client for the QuickWish REST backend.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/quickwish/quickwish/internal/wish"
)

// APIError is a non-2xx response from the backend. The message is
// surfaced to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to the QuickWish backend with bearer-token auth. It
// performs single round-trips: no retries, no idempotency keys.
// Double submits are prevented at the UI layer by disabling the
// control while a request is in flight.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient creates a client for the given base URL and session token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   http.DefaultClient,
	}
}

// CreateWish publishes a new wish and returns the created record.
func (c *Client) CreateWish(ctx context.Context, req wish.CreateRequest) (*wish.Wish, error) {
	var created wish.Wish
	if err := c.do(ctx, http.MethodPost, "/api/wishes", req, &created); err != nil {
		return nil, fmt.Errorf("failed to create wish: %w", err)
	}

	return &created, nil
}

// ListWishes returns the current user's wishes, newest first.
func (c *Client) ListWishes(ctx context.Context) ([]wish.Wish, error) {
	var wishes []wish.Wish
	if err := c.do(ctx, http.MethodGet, "/api/wishes", nil, &wishes); err != nil {
		return nil, fmt.Errorf("failed to list wishes: %w", err)
	}

	return wishes, nil
}

// GetWish fetches one wish by id.
func (c *Client) GetWish(ctx context.Context, id string) (*wish.Wish, error) {
	var w wish.Wish
	if err := c.do(ctx, http.MethodGet, "/api/wishes/"+id, nil, &w); err != nil {
		return nil, fmt.Errorf("failed to get wish: %w", err)
	}

	return &w, nil
}

// UpdateWish replaces a pending wish's fields; the backend rejects
// edits once the wish has been accepted.
func (c *Client) UpdateWish(ctx context.Context, id string, req wish.CreateRequest) (*wish.Wish, error) {
	var updated wish.Wish
	if err := c.do(ctx, http.MethodPut, "/api/wishes/"+id, req, &updated); err != nil {
		return nil, fmt.Errorf("failed to update wish: %w", err)
	}

	return &updated, nil
}

// CompleteWish marks a wish as completed.
func (c *Client) CompleteWish(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPut, "/api/wishes/"+id+"/complete", nil, nil); err != nil {
		return fmt.Errorf("failed to complete wish: %w", err)
	}

	return nil
}

// CancelWish cancels a pending wish.
func (c *Client) CancelWish(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPut, "/api/wishes/"+id+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("failed to cancel wish: %w", err)
	}

	return nil
}

// DeleteWish removes a wish.
func (c *Client) DeleteWish(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/wishes/"+id, nil, nil); err != nil {
		return fmt.Errorf("failed to delete wish: %w", err)
	}

	return nil
}

// PhoneUpdate is the body for updating the account phone number.
type PhoneUpdate struct {
	Phone string `json:"phone"`
}

// UpdatePhone sets the account phone number.
func (c *Client) UpdatePhone(ctx context.Context, phone string) error {
	if err := c.do(ctx, http.MethodPut, "/api/users/phone", PhoneUpdate{Phone: phone}, nil); err != nil {
		return fmt.Errorf("failed to update phone: %w", err)
	}

	return nil
}

// AddressCreate is the body for saving an address.
type AddressCreate struct {
	Label   string  `json:"label"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

// SavedAddress is a stored address record.
type SavedAddress struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

// addressEnvelope is the backend's add-address response wrapper.
type addressEnvelope struct {
	Address SavedAddress `json:"address"`
}

// AddAddress saves an address to the account.
func (c *Client) AddAddress(ctx context.Context, req AddressCreate) (*SavedAddress, error) {
	var resp addressEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/users/addresses", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to add address: %w", err)
	}

	return &resp.Address, nil
}

// DeleteAddress removes a saved address.
func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/users/addresses/"+id, nil, nil); err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}

	return nil
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

// do performs one round-trip. body and out may be nil; non-2xx
// responses decode into an APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}

		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func decodeError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: body.Detail}
	}

	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = resp.Status
	}

	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// AsAPIError unwraps err to an APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}
